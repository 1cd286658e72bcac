package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/lumos/companion-service/internal/companion"
	"github.com/lumos/companion-service/internal/config"
	"github.com/lumos/companion-service/internal/llm"
	"github.com/lumos/companion-service/internal/store"
)

// replyFallback is surfaced to the user when the model call fails; the
// turn itself still succeeds with a defaulted suggestion.
const replyFallback = "Sorry, I'm having trouble reaching my assistant right now. Please try again in a moment."

const (
	idleColorHex = "#4488FF"
	idleMessage  = "Lumos Ready!"
)

type Handler struct {
	config *config.Config
	llm    llm.Client
	repo   *store.Repo
}

func NewHandler(cfg *config.Config, llmClient llm.Client, repo *store.Repo) *Handler {
	return &Handler{
		config: cfg,
		llm:    llmClient,
		repo:   repo,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if err := h.repo.Ping(r.Context()); err != nil {
		dbStatus = "unreachable"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"service":  "companion-service",
		"model":    h.config.GeminiModel,
		"database": dbStatus,
	})
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Success  bool   `json:"success"`
	Reply    string `json:"reply"`
	Location string `json:"location"`
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	message := readChatMessage(r)
	if message == "" {
		writeJSONError(w, http.StatusBadRequest, "Message is required")
		return
	}

	ctx := r.Context()

	// The user turn is durable before the model call is attempted; a crash
	// mid-call loses at most the not-yet-produced suggestion.
	if _, err := h.repo.AppendChatMessage(ctx, store.RoleUser, message); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	if candidate, ok := companion.ExtractLocation(message); ok {
		if err := h.repo.SetLocation(ctx, candidate); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to update location")
			return
		}
	}

	location, err := h.repo.Location(ctx)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read location")
		return
	}

	history, err := h.repo.RecentChatMessages(ctx, h.config.ChatContextTurns)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read chat history")
		return
	}

	latest, err := h.repo.LatestSensorLog(ctx)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read sensor data")
		return
	}

	prompt := companion.ChatPrompt(location, latest, history, message)

	text, suggestion := h.generate(ctx, prompt, companion.ChatDefaults)
	if text == "" {
		text = replyFallback
	}

	if _, err := h.repo.AppendChatMessage(ctx, store.RoleAssistant, text); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to store reply")
		return
	}
	if err := h.repo.InsertAIResponse(ctx, &store.AIResponse{
		ColorHex: suggestion.ColorHex,
		Message:  suggestion.Message,
		Buzzer:   suggestion.Buzzer,
		Raw:      datatypes.JSON(suggestion.Raw),
	}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to store suggestion")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Success: true, Reply: text, Location: location})
}

type sensorRequest struct {
	Temperature *float64 `json:"temperature"`
	LightLevel  *float64 `json:"light_level"`
}

type sensorResponse struct {
	Success     bool   `json:"success"`
	SensorLogID uint   `json:"sensor_log_id"`
	ColorHex    string `json:"color_hex"`
	Message     string `json:"message"`
	Buzzer      bool   `json:"buzzer"`
}

func (h *Handler) HandleSensor(w http.ResponseWriter, r *http.Request) {
	temperature, lightLevel, ok := readSensorReading(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Missing temperature or light_level")
		return
	}

	ctx := r.Context()

	reading, err := h.repo.InsertSensorLog(ctx, temperature, lightLevel)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to store sensor reading")
		return
	}

	location, err := h.repo.Location(ctx)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read location")
		return
	}

	prompt := companion.SensorPrompt(location, temperature, lightLevel)
	_, suggestion := h.generate(ctx, prompt, companion.SensorDefaults)

	if err := h.repo.InsertAIResponse(ctx, &store.AIResponse{
		SensorLogID: &reading.ID,
		ColorHex:    suggestion.ColorHex,
		Message:     suggestion.Message,
		Buzzer:      suggestion.Buzzer,
		Raw:         datatypes.JSON(suggestion.Raw),
	}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to store suggestion")
		return
	}

	writeJSON(w, http.StatusOK, sensorResponse{
		Success:     true,
		SensorLogID: reading.ID,
		ColorHex:    suggestion.ColorHex,
		Message:     suggestion.Message,
		Buzzer:      suggestion.Buzzer,
	})
}

type commandResponse struct {
	ColorHex  string    `json:"color_hex"`
	Message   string    `json:"message"`
	Buzzer    bool      `json:"buzzer"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	latest, err := h.repo.LatestAIResponse(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read command")
		return
	}

	if latest == nil {
		writeJSON(w, http.StatusOK, commandResponse{
			ColorHex:  idleColorHex,
			Message:   idleMessage,
			Buzzer:    false,
			Timestamp: time.Now().UTC(),
		})
		return
	}

	writeJSON(w, http.StatusOK, commandResponse{
		ColorHex:  latest.ColorHex,
		Message:   latest.Message,
		Buzzer:    latest.Buzzer,
		Timestamp: latest.CreatedAt,
	})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	historyType := strings.TrimSpace(r.URL.Query().Get("type"))
	if historyType == "" {
		historyType = "sensor"
	}

	switch historyType {
	case "sensor":
		rows, err := h.repo.SensorHistory(ctx, h.config.HistoryLimit)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to read sensor history")
			return
		}
		if rows == nil {
			rows = []store.SensorHistoryEntry{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": rows})

	case "chat":
		rows, err := h.repo.RecentChatMessages(ctx, h.config.HistoryLimit)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to read chat history")
			return
		}
		if rows == nil {
			rows = []store.ChatMessage{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": rows})

	case "latest":
		row, err := h.repo.LatestSensorEntry(ctx)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to read latest reading")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": row})

	case "location":
		location, err := h.repo.Location(ctx)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to read location")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "location": location})

	default:
		writeJSONError(w, http.StatusBadRequest, "Invalid type. Use: sensor, chat, latest, or location")
	}
}

// generate runs the model call and normalizes the reply. Gateway failures
// never fail the request: the suggestion falls back to defs and the
// conversational text comes back empty for the caller to substitute.
func (h *Handler) generate(ctx context.Context, prompt string, defs companion.Defaults) (string, companion.Suggestion) {
	reply, err := h.llm.Generate(ctx, prompt)
	if err != nil {
		log.Printf("model call failed: %v", err)
		return "", companion.Suggestion{ColorHex: defs.ColorHex, Message: defs.Message}
	}
	return companion.Normalize(reply, defs)
}

func readChatMessage(r *http.Request) string {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req chatRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		return strings.TrimSpace(req.Message)
	}
	_ = r.ParseForm()
	return strings.TrimSpace(r.PostFormValue("message"))
}

func readSensorReading(r *http.Request) (float64, float64, bool) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req sensorRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		if req.Temperature == nil || req.LightLevel == nil {
			return 0, 0, false
		}
		return *req.Temperature, *req.LightLevel, true
	}

	_ = r.ParseForm()
	rawTemp := strings.TrimSpace(r.PostFormValue("temperature"))
	rawLight := strings.TrimSpace(r.PostFormValue("light_level"))
	if rawTemp == "" || rawLight == "" {
		return 0, 0, false
	}
	temperature, err := strconv.ParseFloat(rawTemp, 64)
	if err != nil {
		return 0, 0, false
	}
	lightLevel, err := strconv.ParseFloat(rawLight, 64)
	if err != nil {
		return 0, 0, false
	}
	return temperature, lightLevel, true
}
