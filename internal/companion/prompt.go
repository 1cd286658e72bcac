package companion

import (
	"fmt"
	"strings"

	"github.com/lumos/companion-service/internal/store"
)

const suggestionContract = `After your conversational response, on a new line, provide a JSON object for the device:
{"color_hex": "#RRGGBB", "message": "short LED text (max 30 chars)", "buzzer": false}`

// ChatPrompt assembles the prompt for one chat turn: current location, the
// latest sensor snapshot when one exists, the recent conversation window in
// chronological order, and the triggering user message.
func ChatPrompt(location string, latest *store.SensorLog, history []store.ChatMessage, userMessage string) string {
	var sensorContext string
	if latest != nil {
		sensorContext = fmt.Sprintf("Latest sensor data - Temperature: %.1f°C, Light: %.1f%%", latest.Temperature, latest.LightLevel)
	}

	var chat strings.Builder
	for _, msg := range history {
		prefix := "Lumos"
		if msg.Role == store.RoleUser {
			prefix = "User"
		}
		fmt.Fprintf(&chat, "%s: %s\n", prefix, msg.Message)
	}

	return fmt.Sprintf(`You are Lumos, a friendly AI environment companion for a smart workspace.
Current location context: %q
%s

Recent conversation:
%s
The user just said: %q

Respond naturally and helpfully. If the user mentions moving to a new location, acknowledge the change and explain how you'll adjust the environment (lighting, temperature comfort thresholds).

Keep your response concise (2-3 sentences max). Be warm and conversational.

%s

The color should reflect the mood of the conversation or the new environment setting.`,
		location, sensorContext, chat.String(), userMessage, suggestionContract)
}

// SensorPrompt assembles the prompt for a freshly stored sensor reading.
func SensorPrompt(location string, temperature, lightLevel float64) string {
	return fmt.Sprintf(`You are Lumos, an AI environment companion. The user is currently in: %q.

Current sensor readings:
- Temperature: %.1f°C
- Light Level: %.1f%% (0%% = dark, 100%% = bright)

Based on the location context and sensor data, provide environmental advice in one or two short sentences.

%s

Guidelines:
- For comfortable conditions: use calming colors (blues, greens)
- For warm/hot: use warm colors (orange, red)
- For cold: use cool colors (cyan, purple)
- For dark rooms: suggest brighter lighting
- Adjust thresholds based on location (bedroom = relaxed, office = productive, kitchen = alert)
- buzzer should only be true for extreme temps (>35°C or <10°C) or very dark conditions in dangerous contexts`,
		location, temperature, lightLevel, suggestionContract)
}
