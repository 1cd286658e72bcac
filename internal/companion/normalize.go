package companion

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Model replies carry free conversational text followed by one trailing
// JSON object for the device. trailingObjectRe matches a single-level
// brace-delimited object anchored at the end of the reply; objects with
// nested braces are deliberately not matched and fall through to defaults.
var trailingObjectRe = regexp.MustCompile(`(\{[^{}]*\})\s*$`)

var colorHexRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var (
	openFenceRe  = regexp.MustCompile("```json\\s*")
	closeFenceRe = regexp.MustCompile("```\\s*")
)

// MaxDisplayMessageLen is the LED matrix display limit.
const MaxDisplayMessageLen = 50

// Defaults are the per-call-site fallback values used when the model
// payload is missing, unparsable, or carries invalid fields.
type Defaults struct {
	ColorHex string
	Message  string
}

var (
	ChatDefaults   = Defaults{ColorHex: "#4488FF", Message: "Mode updated"}
	SensorDefaults = Defaults{ColorHex: "#FFFFFF", Message: "Reading sensors..."}
)

// Suggestion is the structured triple driving the display/alert device.
// Raw holds the trailing JSON object as received when it parsed, nil
// otherwise.
type Suggestion struct {
	ColorHex string
	Message  string
	Buzzer   bool
	Raw      json.RawMessage
}

// Fields stay raw so a type mismatch in one of them never discards the
// valid siblings; each is decoded on its own in parseSuggestion.
type suggestionPayload struct {
	ColorHex json.RawMessage `json:"color_hex"`
	Message  json.RawMessage `json:"message"`
	Buzzer   json.RawMessage `json:"buzzer"`
}

// Normalize splits a raw model reply into conversational text and a
// Suggestion. It is pure: callers persist the results. A Suggestion is
// always produced; every field falls back to defs when the payload is
// absent or invalid.
func Normalize(raw string, defs Defaults) (string, Suggestion) {
	before := raw
	var candidate string

	if loc := trailingObjectRe.FindStringSubmatchIndex(raw); loc != nil {
		before = raw[:loc[2]]
		candidate = raw[loc[2]:loc[3]]
	}

	text := stripFences(before)
	if text == "" {
		// Never hand back an empty reply when the model said anything at all.
		text = strings.TrimSpace(raw)
	}

	return text, parseSuggestion(candidate, defs)
}

func stripFences(s string) string {
	s = openFenceRe.ReplaceAllString(s, "")
	s = closeFenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func parseSuggestion(candidate string, defs Defaults) Suggestion {
	out := Suggestion{ColorHex: defs.ColorHex, Message: defs.Message}
	if candidate == "" {
		return out
	}

	var payload suggestionPayload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return out
	}
	out.Raw = json.RawMessage(candidate)

	var hex string
	if len(payload.ColorHex) > 0 && json.Unmarshal(payload.ColorHex, &hex) == nil && colorHexRe.MatchString(hex) {
		out.ColorHex = hex
	}
	var message string
	if len(payload.Message) > 0 && json.Unmarshal(payload.Message, &message) == nil {
		out.Message = message
	}
	out.Message = truncate(out.Message, MaxDisplayMessageLen)

	var buzzer any
	if len(payload.Buzzer) > 0 {
		_ = json.Unmarshal(payload.Buzzer, &buzzer)
	}
	out.Buzzer = truthy(buzzer)
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// truthy coerces any JSON value to a boolean: false, 0, "", "0", null,
// an empty array and absent are false; everything else is true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != "" && val != "0"
	case []any:
		return len(val) > 0
	default:
		return true
	}
}
