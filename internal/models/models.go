package models

import "time"

// ScheduleItem is one persisted row of the running order: the seed
// definition plus any recorded actual times. The store is the system of
// record across restarts; the live session owns in-flight state.
type ScheduleItem struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	Stage           string `gorm:"index"`
	Name            string `gorm:"index"`
	Position        int    `gorm:"index"`
	IsBreak         bool
	DurationSeconds int64
	ActualStart     *time.Time
	ActualEnd       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ShowSession records one live tracking session for a stage.
type ShowSession struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Stage     string `gorm:"index"`
	ShowStart time.Time
	StartedAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
