package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Errorf("DBBackend = %q, want sqlite", cfg.DBBackend)
	}
	if cfg.BreakFloor != 2*time.Minute {
		t.Errorf("BreakFloor = %v, want 2m", cfg.BreakFloor)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Errorf("SyncInterval = %v, want 30s", cfg.SyncInterval)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "bad backend",
			env:  map[string]string{"SETSCHED_DB_BACKEND": "oracle"},
		},
		{
			name: "negative break floor",
			env:  map[string]string{"SETSCHED_BREAK_FLOOR": "-30s"},
		},
		{
			name: "production without signing key",
			env:  map[string]string{"SETSCHED_ENV": "production"},
		},
		{
			name: "malformed show start",
			env:  map[string]string{"SETSCHED_SHOW_START": "8pm tonight"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() error = nil, want validation error")
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SETSCHED_BREAK_FLOOR", "90")
	t.Setenv("SETSCHED_SHOW_START", "2026-04-10T18:00:00Z")
	t.Setenv("SETSCHED_STAGE_NAME", "Mojave")
	t.Setenv("SETSCHED_TRIGGER_ENABLED", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BreakFloor != 90*time.Second {
		t.Errorf("BreakFloor = %v, want 90s (bare seconds accepted)", cfg.BreakFloor)
	}
	want := time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC)
	if !cfg.ShowStart.Equal(want) {
		t.Errorf("ShowStart = %v, want %v", cfg.ShowStart, want)
	}
	if cfg.StageName != "Mojave" {
		t.Errorf("StageName = %q, want Mojave", cfg.StageName)
	}
	if !cfg.TriggerEnabled {
		t.Error("TriggerEnabled = false, want true")
	}
}
