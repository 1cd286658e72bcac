package companion

import (
	"regexp"
	"strings"
)

// Ordered location patterns: the first match wins. The introducer pattern
// captures the span after phrases like "i'm in" or "moved to", dropping a
// leading "the" and a trailing "now". The bare fallback treats any short
// punctuation-free message as a candidate, which misfires on ordinary chat
// ("thanks" becomes a candidate). That looseness is intentional product
// behavior carried over from the original companion; callers decide what
// to do with the candidate.
var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:i am|i'm|im|moved to|now in|going to|at the|in the|in my|at my)\s+(?:the\s+)?(\w[\w\s]*?)(?:\s+now)?$`),
	regexp.MustCompile(`(?i)^(\w[\w\s]*?)(?:\s+now)?$`),
}

// ExtractLocation infers an updated current-location candidate from a chat
// message. The second return is false when the message suggests no update.
func ExtractLocation(message string) (string, bool) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", false
	}
	for _, pattern := range locationPatterns {
		if m := pattern.FindStringSubmatch(message); m != nil {
			candidate := strings.TrimSpace(m[1])
			if candidate != "" {
				return candidate, true
			}
		}
	}
	return "", false
}
