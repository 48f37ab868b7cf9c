/*
Copyright (C) 2026 dubpixel

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package store persists the schedule seed rows and recorded actual times.
// It is the schedule-sync collaborator: the live session never talks to the
// database directly.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dubpixel/coachella-set-schedule/internal/models"
	"github.com/dubpixel/coachella-set-schedule/internal/showtime"
)

// Store wraps database access for one stage's schedule.
type Store struct {
	db     *gorm.DB
	stage  string
	logger zerolog.Logger
}

// New creates a store scoped to a stage.
func New(db *gorm.DB, stage string, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		stage:  stage,
		logger: logger.With().Str("component", "store").Str("stage", stage).Logger(),
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ScheduleItem{}, &models.ShowSession{})
}

// Seed replaces the stage's schedule rows with the given definitions.
// Existing actual times are discarded; seeding starts a fresh show.
func (s *Store) Seed(rows []showtime.SeedRow) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stage = ?", s.stage).Delete(&models.ScheduleItem{}).Error; err != nil {
			return fmt.Errorf("clear schedule: %w", err)
		}
		for _, row := range rows {
			id := row.ID
			if id == "" {
				id = uuid.NewString()
			}
			item := models.ScheduleItem{
				ID:              id,
				Stage:           s.stage,
				Name:            row.Name,
				Position:        row.Position,
				IsBreak:         row.IsBreak,
				DurationSeconds: int64(row.Duration / time.Second),
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("insert %q: %w", row.Name, err)
			}
		}
		return nil
	})
}

// SeedRows reads the stage's schedule definitions in position order.
func (s *Store) SeedRows() ([]showtime.SeedRow, error) {
	var items []models.ScheduleItem
	if err := s.db.Where("stage = ?", s.stage).Order("position").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	rows := make([]showtime.SeedRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, showtime.SeedRow{
			ID:       item.ID,
			Name:     item.Name,
			Position: item.Position,
			Duration: time.Duration(item.DurationSeconds) * time.Second,
			IsBreak:  item.IsBreak,
		})
	}
	return rows, nil
}

// ActualTimes returns the persisted actual times keyed by item id, used to
// replay a show in progress after a restart.
func (s *Store) ActualTimes() (map[string][2]*time.Time, error) {
	var items []models.ScheduleItem
	if err := s.db.Where("stage = ?", s.stage).Order("position").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load actual times: %w", err)
	}

	out := make(map[string][2]*time.Time, len(items))
	for _, item := range items {
		out[item.ID] = [2]*time.Time{item.ActualStart, item.ActualEnd}
	}
	return out, nil
}

// SaveActuals writes the actual times from a snapshot back to the rows.
func (s *Store) SaveActuals(snap showtime.Snapshot) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range snap.Items {
			updates := map[string]any{
				"actual_start": item.ActualStart,
				"actual_end":   item.ActualEnd,
			}
			if err := tx.Model(&models.ScheduleItem{}).Where("id = ? AND stage = ?", item.ID, s.stage).Updates(updates).Error; err != nil {
				return fmt.Errorf("save actuals for %q: %w", item.Name, err)
			}
		}
		return nil
	})
}

// ClearActuals wipes all recorded times for the stage.
func (s *Store) ClearActuals() error {
	err := s.db.Model(&models.ScheduleItem{}).Where("stage = ?", s.stage).
		Updates(map[string]any{"actual_start": nil, "actual_end": nil}).Error
	if err != nil {
		return fmt.Errorf("clear actuals: %w", err)
	}
	return nil
}

// RecordSession persists the session row for audit.
func (s *Store) RecordSession(sessionID string, showStart, startedAt time.Time) error {
	session := models.ShowSession{
		ID:        sessionID,
		Stage:     s.stage,
		ShowStart: showStart,
		StartedAt: startedAt,
	}
	return s.db.Create(&session).Error
}
