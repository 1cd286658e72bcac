package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	// Use a unique in-memory DB per test to avoid cross-test contamination.
	dsn := "file:memdb_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	repo, err := New(db)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return repo
}

func TestRecentChatMessages_WindowAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if _, err := repo.AppendChatMessage(ctx, role, "message"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	rows, err := repo.RecentChatMessages(ctx, 6)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("len = %d, want 6", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].ID >= rows[i].ID {
			t.Fatalf("rows not chronological: %d before %d", rows[i-1].ID, rows[i].ID)
		}
	}
	if rows[0].ID != 3 || rows[5].ID != 8 {
		t.Errorf("window = [%d..%d], want [3..8]", rows[0].ID, rows[5].ID)
	}
}

func TestLocation_DefaultAndUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	loc, err := repo.Location(ctx)
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc != "default" {
		t.Errorf("initial location = %q, want default", loc)
	}

	if err := repo.SetLocation(ctx, "kitchen"); err != nil {
		t.Fatalf("set location: %v", err)
	}
	if err := repo.SetLocation(ctx, "bedroom"); err != nil {
		t.Fatalf("set location again: %v", err)
	}

	loc, err = repo.Location(ctx)
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc != "bedroom" {
		t.Errorf("location = %q, want bedroom", loc)
	}

	var count int64
	if err := repo.db.Model(&Setting{}).Count(&count).Error; err != nil {
		t.Fatalf("count settings: %v", err)
	}
	if count != 1 {
		t.Errorf("settings rows = %d, want 1", count)
	}
}

func TestSensorHistory_LeftJoin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.InsertSensorLog(ctx, 21.5, 60)
	if err != nil {
		t.Fatalf("insert sensor: %v", err)
	}
	second, err := repo.InsertSensorLog(ctx, 36, 5)
	if err != nil {
		t.Fatalf("insert sensor: %v", err)
	}

	if err := repo.InsertAIResponse(ctx, &AIResponse{
		SensorLogID: &first.ID,
		ColorHex:    "#00FF00",
		Message:     "Comfy",
	}); err != nil {
		t.Fatalf("insert response: %v", err)
	}

	rows, err := repo.SensorHistory(ctx, 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}

	// Newest first; the newest reading has no suggestion yet.
	if rows[0].ID != second.ID {
		t.Errorf("rows[0].ID = %d, want %d", rows[0].ID, second.ID)
	}
	if rows[0].ColorHex != nil {
		t.Errorf("rows[0].ColorHex = %v, want nil", *rows[0].ColorHex)
	}
	if rows[1].ColorHex == nil || *rows[1].ColorHex != "#00FF00" {
		t.Errorf("rows[1].ColorHex = %v, want #00FF00", rows[1].ColorHex)
	}
	if rows[1].AIMessage == nil || *rows[1].AIMessage != "Comfy" {
		t.Errorf("rows[1].AIMessage = %v, want Comfy", rows[1].AIMessage)
	}

	latest, err := repo.LatestSensorEntry(ctx)
	if err != nil {
		t.Fatalf("latest entry: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Errorf("latest entry = %+v, want reading %d", latest, second.ID)
	}
}

func TestLatestAIResponse_Empty(t *testing.T) {
	repo := newTestRepo(t)

	latest, err := repo.LatestAIResponse(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != nil {
		t.Errorf("latest = %+v, want nil", latest)
	}
}

func TestLatestSensorLog(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	row, err := repo.LatestSensorLog(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if row != nil {
		t.Errorf("latest = %+v, want nil", row)
	}

	if _, err := repo.InsertSensorLog(ctx, 20, 50); err != nil {
		t.Fatalf("insert: %v", err)
	}
	want, err := repo.InsertSensorLog(ctx, 25, 70)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	row, err = repo.LatestSensorLog(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if row == nil || row.ID != want.ID {
		t.Errorf("latest = %+v, want id %d", row, want.ID)
	}
}
