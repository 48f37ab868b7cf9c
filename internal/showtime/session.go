/*
Copyright (C) 2026 dubpixel

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package showtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dubpixel/coachella-set-schedule/internal/events"
)

// Session owns the running order for one show and serializes every mutation.
// The ledger mutation, slip recompute, and projection recompute run as one
// critical section, so consumers only ever observe complete snapshots.
//
// Time is always passed in by the caller; the session never reads the clock.
type Session struct {
	id    string
	stage string

	mu         sync.Mutex
	order      *RunningOrder
	breakFloor time.Duration
	overrides  map[string]Window
	brightness int

	bus    *events.Bus
	logger zerolog.Logger
}

// NewSession wraps a loaded running order. A nil bus disables publishing.
func NewSession(stage string, order *RunningOrder, breakFloor time.Duration, bus *events.Bus, logger zerolog.Logger) *Session {
	return &Session{
		id:         uuid.NewString(),
		stage:      stage,
		order:      order,
		breakFloor: breakFloor,
		overrides:  make(map[string]Window),
		bus:        bus,
		logger:     logger.With().Str("component", "session").Str("stage", stage).Logger(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start records an actual start time and emits a fresh snapshot.
func (s *Session) Start(itemID string, at time.Time) (Snapshot, error) {
	return s.mutate("start", itemID, at, func() error {
		return s.order.RecordStart(itemID, at)
	})
}

// Finish records an actual end time and emits a fresh snapshot.
func (s *Session) Finish(itemID string, at time.Time) (Snapshot, error) {
	return s.mutate("finish", itemID, at, func() error {
		return s.order.RecordEnd(itemID, at)
	})
}

// Reset clears an item's actual times so a mistaken event can be redone.
func (s *Session) Reset(itemID string, now time.Time) (Snapshot, error) {
	return s.mutate("reset", itemID, now, func() error {
		return s.order.ClearActuals(itemID)
	})
}

// OverrideProjection pins a pending item's projected window. The pinned
// window survives until a later actual event supersedes it. Non-pending
// items cannot be overridden.
func (s *Session) OverrideProjection(itemID string, window Window, now time.Time) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.order.Find(itemID)
	if item == nil {
		return Snapshot{}, ErrItemNotFound
	}
	if item.State() != StatePending {
		return Snapshot{}, ErrImmutableHistory
	}
	if window.End.Before(window.Start) {
		return Snapshot{}, ErrBeforeStart
	}

	s.overrides[itemID] = window
	s.logger.Info().Str("item", item.Name).Time("start", window.Start).Time("end", window.End).Msg("projection overridden")
	return s.publishLocked(now), nil
}

// Reload applies new definitions to pending items (schedule-sync inbound).
func (s *Session) Reload(rows []SeedRow, now time.Time) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.order.ReloadPending(rows); err != nil {
		return Snapshot{}, err
	}

	// Redefined items invalidate manual pins.
	for id := range s.overrides {
		if it := s.order.Find(id); it != nil && it.State() == StatePending {
			continue
		}
		delete(s.overrides, id)
	}

	s.logger.Info().Int("rows", len(rows)).Msg("pending schedule reloaded")
	snap := s.publishLocked(now)
	if s.bus != nil {
		s.bus.Publish(events.EventScheduleReloaded, events.Payload{"session_id": s.id})
	}
	return snap, nil
}

// SetBrightness stores the stage brightness and fans it out to viewers.
func (s *Session) SetBrightness(value int) {
	s.mu.Lock()
	s.brightness = value
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(events.EventBrightness, events.Payload{"value": value})
	}
}

// Brightness returns the current stage brightness.
func (s *Session) Brightness() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

// Snapshot computes a consistent view of the show at the given time without
// mutating anything. Safe for concurrent callers.
func (s *Session) Snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(now)
}

// mutate runs a ledger mutation and the derived recomputation as one unit.
// A failed mutation publishes nothing and leaves the order untouched.
func (s *Session) mutate(op, itemID string, at time.Time, fn func() error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(); err != nil {
		s.logger.Warn().Err(err).Str("op", op).Str("item_id", itemID).Msg("event rejected")
		return Snapshot{}, err
	}

	// A fresh actual supersedes any manual pin.
	if len(s.overrides) > 0 {
		s.overrides = make(map[string]Window)
	}

	s.logger.Info().Str("op", op).Str("item_id", itemID).Time("at", at).Msg("event applied")
	return s.publishLocked(at), nil
}

func (s *Session) snapshotLocked(now time.Time) Snapshot {
	slip := ComputeSlip(s.order, now)
	projections := Project(s.order, slip, s.breakFloor, s.overrides)
	return buildSnapshot(s.id, s.stage, s.order, slip, projections, s.brightness, now)
}

func (s *Session) publishLocked(now time.Time) Snapshot {
	snap := s.snapshotLocked(now)
	if s.bus != nil {
		s.bus.Publish(events.EventSnapshot, events.Payload{"snapshot": snap})
	}
	return snap
}
