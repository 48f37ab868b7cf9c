package store

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dubpixel/coachella-set-schedule/internal/showtime"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db, "main", zerolog.Nop())
}

func seedRows() []showtime.SeedRow {
	return []showtime.SeedRow{
		{ID: "a", Name: "Act A", Position: 1, Duration: 10 * time.Minute},
		{ID: "brk", Name: "Changeover", Position: 2, Duration: 5 * time.Minute, IsBreak: true},
		{ID: "b", Name: "Act B", Position: 3, Duration: 15 * time.Minute},
	}
}

func TestSeedAndSeedRows(t *testing.T) {
	s := newTestStore(t)

	if err := s.Seed(seedRows()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	rows, err := s.SeedRows()
	if err != nil {
		t.Fatalf("SeedRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("SeedRows() len = %d, want 3", len(rows))
	}
	if rows[1].Name != "Changeover" || !rows[1].IsBreak {
		t.Errorf("row 1 = %+v, want the break", rows[1])
	}
	if rows[2].Duration != 15*time.Minute {
		t.Errorf("row 2 duration = %v, want 15m", rows[2].Duration)
	}

	// Reseeding replaces, not appends.
	if err := s.Seed(seedRows()[:2]); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	rows, err = s.SeedRows()
	if err != nil {
		t.Fatalf("SeedRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("SeedRows() len after reseed = %d, want 2", len(rows))
	}
}

func TestSaveAndClearActuals(t *testing.T) {
	s := newTestStore(t)
	if err := s.Seed(seedRows()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	showStart := time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC)
	order, err := showtime.LoadSchedule(showStart, seedRows())
	if err != nil {
		t.Fatalf("LoadSchedule() error = %v", err)
	}
	sess := showtime.NewSession("main", order, 2*time.Minute, nil, zerolog.Nop())
	if _, err := sess.Start("a", showStart); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	snap, err := sess.Finish("a", showStart.Add(6*time.Minute))
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	if err := s.SaveActuals(snap); err != nil {
		t.Fatalf("SaveActuals() error = %v", err)
	}

	actuals, err := s.ActualTimes()
	if err != nil {
		t.Fatalf("ActualTimes() error = %v", err)
	}
	got := actuals["a"]
	if got[0] == nil || !got[0].Equal(showStart) {
		t.Errorf("actual start = %v, want %v", got[0], showStart)
	}
	if got[1] == nil || !got[1].Equal(showStart.Add(6*time.Minute)) {
		t.Errorf("actual end = %v, want %v", got[1], showStart.Add(6*time.Minute))
	}

	if err := s.ClearActuals(); err != nil {
		t.Fatalf("ClearActuals() error = %v", err)
	}
	actuals, err = s.ActualTimes()
	if err != nil {
		t.Fatalf("ActualTimes() error = %v", err)
	}
	if got := actuals["a"]; got[0] != nil || got[1] != nil {
		t.Errorf("actuals after clear = %v, want nil", got)
	}
}
