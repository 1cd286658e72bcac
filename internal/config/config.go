package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port string

	// Gemini
	GeminiBaseURL     string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTimeoutSecs int
	MaxTokens         int
	Temperature       float64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Context windows
	ChatContextTurns int
	HistoryLimit     int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("COMPANION_SERVICE_PORT", "8080"),

		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTimeoutSecs: getEnvInt("GEMINI_TIMEOUT_SECONDS", 30),
		MaxTokens:         getEnvInt("COMPANION_MAX_TOKENS", 256),
		Temperature:       getEnvFloat("COMPANION_TEMPERATURE", 0.7),

		PostgresHost:     getEnv("POSTGRES_HOST", "postgres"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "user"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresDB:       getEnv("POSTGRES_DB", "lumos"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ChatContextTurns: getEnvInt("CHAT_CONTEXT_TURNS", 6),
		HistoryLimit:     getEnvInt("HISTORY_LIMIT", 50),
	}

	if cfg.GeminiTimeoutSecs <= 0 {
		return nil, fmt.Errorf("GEMINI_TIMEOUT_SECONDS must be positive, got %d", cfg.GeminiTimeoutSecs)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
