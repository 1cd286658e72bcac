package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	settingCurrentLocation = "current_location"
	defaultLocation        = "default"
)

type Repo struct {
	db *gorm.DB
}

func OpenPostgres(user, password, dbName, host, port, sslMode string) (*gorm.DB, error) {
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC", host, user, password, dbName, port, sslMode)
	gormLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return gorm.Open(
		postgres.New(postgres.Config{DSN: dsn}),
		&gorm.Config{DisableForeignKeyConstraintWhenMigrating: true, Logger: gormLogger},
	)
}

func New(db *gorm.DB) (*Repo, error) {
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &Repo{db: db}, nil
}

func ensureSchema(db *gorm.DB) error {
	m := db.Migrator()
	if !m.HasTable(&ChatMessage{}) {
		if err := m.CreateTable(&ChatMessage{}); err != nil {
			return fmt.Errorf("create table chat_history: %w", err)
		}
	}
	if !m.HasTable(&SensorLog{}) {
		if err := m.CreateTable(&SensorLog{}); err != nil {
			return fmt.Errorf("create table sensor_logs: %w", err)
		}
	}
	if !m.HasTable(&AIResponse{}) {
		if err := m.CreateTable(&AIResponse{}); err != nil {
			return fmt.Errorf("create table ai_responses: %w", err)
		}
	}
	if !m.HasColumn(&AIResponse{}, "Raw") {
		if err := m.AddColumn(&AIResponse{}, "Raw"); err != nil {
			return fmt.Errorf("add column ai_responses.raw: %w", err)
		}
	}
	if !m.HasTable(&Setting{}) {
		if err := m.CreateTable(&Setting{}); err != nil {
			return fmt.Errorf("create table settings: %w", err)
		}
	}
	if !m.HasIndex(&AIResponse{}, "SensorLogID") {
		_ = m.CreateIndex(&AIResponse{}, "SensorLogID")
	}

	// The location setting always has exactly one current value; the seed
	// must not clobber a value written by a previous run.
	seed := Setting{KeyName: settingCurrentLocation}
	if err := db.Where("key_name = ?", settingCurrentLocation).
		Attrs(Setting{Value: defaultLocation}).
		FirstOrCreate(&seed).Error; err != nil {
		return fmt.Errorf("seed current_location: %w", err)
	}
	return nil
}

func (r *Repo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// --- Chat ---

func (r *Repo) AppendChatMessage(ctx context.Context, role, message string) (*ChatMessage, error) {
	msg := &ChatMessage{Role: role, Message: message}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// RecentChatMessages returns the newest n turns in chronological order.
func (r *Repo) RecentChatMessages(ctx context.Context, n int) ([]ChatMessage, error) {
	if n <= 0 {
		return nil, nil
	}
	var rows []ChatMessage
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(n).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// --- Sensor logs ---

func (r *Repo) InsertSensorLog(ctx context.Context, temperature, lightLevel float64) (*SensorLog, error) {
	row := &SensorLog{Temperature: temperature, LightLevel: lightLevel}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *Repo) LatestSensorLog(ctx context.Context) (*SensorLog, error) {
	var row SensorLog
	err := r.db.WithContext(ctx).Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// --- AI responses ---

func (r *Repo) InsertAIResponse(ctx context.Context, resp *AIResponse) error {
	return r.db.WithContext(ctx).Create(resp).Error
}

func (r *Repo) LatestAIResponse(ctx context.Context) (*AIResponse, error) {
	var row AIResponse
	err := r.db.WithContext(ctx).Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SensorHistory returns the newest n readings, each left-joined with the
// suggestion derived from it, newest first.
func (r *Repo) SensorHistory(ctx context.Context, n int) ([]SensorHistoryEntry, error) {
	var rows []SensorHistoryEntry
	err := r.db.WithContext(ctx).
		Table("sensor_logs s").
		Select("s.id, s.temperature, s.light_level, s.created_at, a.color_hex, a.message AS ai_message, a.buzzer").
		Joins("LEFT JOIN ai_responses a ON a.sensor_log_id = s.id").
		Order("s.id DESC").
		Limit(n).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) LatestSensorEntry(ctx context.Context) (*SensorHistoryEntry, error) {
	rows, err := r.SensorHistory(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// --- Settings ---

func (r *Repo) Location(ctx context.Context) (string, error) {
	var row Setting
	err := r.db.WithContext(ctx).First(&row, "key_name = ?", settingCurrentLocation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultLocation, nil
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

func (r *Repo) SetLocation(ctx context.Context, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&Setting{KeyName: settingCurrentLocation, Value: value, UpdatedAt: time.Now().UTC()}).Error
}
