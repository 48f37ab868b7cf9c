/*
Copyright (C) 2026 dubpixel

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package sheetsync keeps the live session and the persisted schedule in
// agreement: it polls the store for definition edits and applies them to
// pending items, and writes recorded actual times back after every snapshot.
// It is deliberately dumb about conflicts; the session's immutable-history
// rule decides what is allowed.
package sheetsync

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dubpixel/coachella-set-schedule/internal/events"
	"github.com/dubpixel/coachella-set-schedule/internal/showtime"
	"github.com/dubpixel/coachella-set-schedule/internal/store"
)

// Service runs the schedule sync loops for one session.
type Service struct {
	store    *store.Store
	session  *showtime.Session
	bus      *events.Bus
	interval time.Duration
	logger   zerolog.Logger
}

// New creates the sync service.
func New(st *store.Store, session *showtime.Session, bus *events.Bus, interval time.Duration, logger zerolog.Logger) *Service {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Service{
		store:    st,
		session:  session,
		bus:      bus,
		interval: interval,
		logger:   logger.With().Str("component", "sheetsync").Logger(),
	}
}

// Run blocks until ctx is cancelled, polling for schedule edits and
// persisting actual times from published snapshots.
func (s *Service) Run(ctx context.Context) {
	sub := s.bus.Subscribe(events.EventSnapshot)
	defer s.bus.Unsubscribe(events.EventSnapshot, sub)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("schedule sync started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("schedule sync stopped")
			return

		case <-ticker.C:
			s.pollOnce(time.Now())

		case payload := <-sub:
			snap, ok := payload["snapshot"].(showtime.Snapshot)
			if !ok {
				continue
			}
			if err := s.store.SaveActuals(snap); err != nil {
				s.logger.Error().Err(err).Msg("persist actual times failed")
			}
		}
	}
}

// pollOnce applies any persisted definition edits to pending items.
func (s *Service) pollOnce(now time.Time) {
	rows, err := s.store.SeedRows()
	if err != nil {
		s.logger.Error().Err(err).Msg("poll schedule failed")
		return
	}
	if len(rows) == 0 {
		return
	}

	// Skip the reload (and the snapshot it would fan out) when nothing
	// about the definitions changed.
	if !definitionsChanged(s.session.Snapshot(now), rows) {
		return
	}

	if _, err := s.session.Reload(rows, now); err != nil {
		if errors.Is(err, showtime.ErrImmutableHistory) {
			// An operator edited a settled row; keep the live state and say so.
			s.logger.Warn().Err(err).Msg("schedule edit rejected")
			return
		}
		s.logger.Error().Err(err).Msg("schedule reload failed")
	}
}

func definitionsChanged(snap showtime.Snapshot, rows []showtime.SeedRow) bool {
	byID := make(map[string]showtime.ItemSnapshot, len(snap.Items))
	for _, item := range snap.Items {
		byID[item.ID] = item
	}

	for _, row := range rows {
		item, ok := byID[row.ID]
		if !ok {
			continue // unknown rows are ignored by Reload too
		}
		kind := showtime.KindAct
		if row.IsBreak {
			kind = showtime.KindBreak
		}
		if item.Name != row.Name || item.Kind != kind || item.Position != row.Position || item.PlannedSeconds != int64(row.Duration/time.Second) {
			return true
		}
	}
	return false
}
