package store

import (
	"time"

	"gorm.io/datatypes"
)

// Chat roles stored in chat_history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Role      string    `json:"role" gorm:"not null"`
	Message   string    `json:"message" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_history" }

type SensorLog struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Temperature float64   `json:"temperature" gorm:"not null"`
	LightLevel  float64   `json:"light_level" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (SensorLog) TableName() string { return "sensor_logs" }

// AIResponse is the suggestion triple derived from a model reply. A row is
// linked to the sensor reading that triggered it; chat-derived rows keep a
// nil SensorLogID. Raw holds the trailing JSON object exactly as the model
// sent it (nil when absent or unparsable) and is never serialized to clients.
type AIResponse struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SensorLogID *uint          `json:"sensor_log_id" gorm:"index"`
	ColorHex    string         `json:"color_hex" gorm:"not null"`
	Message     string         `json:"message" gorm:"not null"`
	Buzzer      bool           `json:"buzzer"`
	Raw         datatypes.JSON `json:"-" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (AIResponse) TableName() string { return "ai_responses" }

type Setting struct {
	KeyName   string    `json:"key_name" gorm:"primaryKey"`
	Value     string    `json:"value" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string { return "settings" }

// SensorHistoryEntry is a sensor reading left-joined with its suggestion,
// as served to the dashboard. The suggestion columns are nil when no
// ai_responses row references the reading.
type SensorHistoryEntry struct {
	ID          uint      `json:"id"`
	Temperature float64   `json:"temperature"`
	LightLevel  float64   `json:"light_level"`
	CreatedAt   time.Time `json:"created_at"`
	ColorHex    *string   `json:"color_hex"`
	AIMessage   *string   `json:"ai_message"`
	Buzzer      *bool     `json:"buzzer"`
}
