// Package showtime tracks the live progress of a multi-act show against its
// planned schedule. It owns the running order, records actual start/end
// times, derives the current slip, and projects start/end times for every
// item that has not started yet.
package showtime

import "time"

// ItemKind distinguishes performance slots from the gaps between them.
type ItemKind string

const (
	KindAct   ItemKind = "act"
	KindBreak ItemKind = "break"
)

// ItemState is derived from which actual timestamps are set.
type ItemState string

const (
	StatePending    ItemState = "pending"
	StateInProgress ItemState = "in_progress"
	StateCompleted  ItemState = "completed"
)

// SeedRow is one row of schedule seed data, typically read from the store.
type SeedRow struct {
	ID       string
	Name     string
	Position int
	Duration time.Duration
	IsBreak  bool
}

// Item is one slot in the running order. Scheduled times are fixed at load
// (or pending-item reload); actual times are set exactly once by the ledger.
type Item struct {
	ID              string
	Name            string
	Position        int
	Kind            ItemKind
	PlannedDuration time.Duration
	ScheduledStart  time.Time
	ScheduledEnd    time.Time
	ActualStart     *time.Time
	ActualEnd       *time.Time
}

// State derives the lifecycle state from the actual timestamps.
func (it *Item) State() ItemState {
	switch {
	case it.ActualEnd != nil:
		return StateCompleted
	case it.ActualStart != nil:
		return StateInProgress
	default:
		return StatePending
	}
}

// StartVariance is actual start minus scheduled start, nil until started.
func (it *Item) StartVariance() *time.Duration {
	if it.ActualStart == nil {
		return nil
	}
	d := it.ActualStart.Sub(it.ScheduledStart)
	return &d
}

// EndVariance is actual end minus scheduled end, nil until completed.
func (it *Item) EndVariance() *time.Duration {
	if it.ActualEnd == nil {
		return nil
	}
	d := it.ActualEnd.Sub(it.ScheduledEnd)
	return &d
}

// ActualDuration is the elapsed time of a completed item, nil otherwise.
func (it *Item) ActualDuration() *time.Duration {
	if it.ActualStart == nil || it.ActualEnd == nil {
		return nil
	}
	d := it.ActualEnd.Sub(*it.ActualStart)
	return &d
}

// RunningOrder is the ordered sequence of acts and breaks for one show.
// Invariant: a contiguous prefix is completed, at most one item is in
// progress directly after it, and everything else is pending.
type RunningOrder struct {
	ShowStart time.Time
	Items     []*Item
}

// Find returns the item with the given id, or nil.
func (ro *RunningOrder) Find(itemID string) *Item {
	for _, it := range ro.Items {
		if it.ID == itemID {
			return it
		}
	}
	return nil
}

// InProgress returns the single in-progress item, or nil.
func (ro *RunningOrder) InProgress() *Item {
	for _, it := range ro.Items {
		if it.State() == StateInProgress {
			return it
		}
	}
	return nil
}

// FirstPending returns the index of the first pending item, or len(Items).
func (ro *RunningOrder) FirstPending() int {
	for i, it := range ro.Items {
		if it.State() == StatePending {
			return i
		}
	}
	return len(ro.Items)
}
