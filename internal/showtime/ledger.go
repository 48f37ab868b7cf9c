package showtime

import (
	"fmt"
	"time"
)

// RecordStart sets the actual start time for an item. Every earlier item in
// the running order must already be completed. Retrying with an identical
// timestamp is a no-op; a divergent timestamp is rejected so duplicate or
// late-arriving events cannot overwrite history.
func (ro *RunningOrder) RecordStart(itemID string, at time.Time) error {
	idx := -1
	for i, it := range ro.Items {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	item := ro.Items[idx]
	if item.ActualStart != nil {
		if item.ActualStart.Equal(at) {
			return nil
		}
		return fmt.Errorf("%w: %q started at %s", ErrAlreadyStarted, item.Name, item.ActualStart.Format(time.RFC3339))
	}

	for _, earlier := range ro.Items[:idx] {
		if earlier.State() != StateCompleted {
			return fmt.Errorf("%w: %q (position %d) before %q", ErrOutOfOrder, earlier.Name, earlier.Position, item.Name)
		}
	}

	t := at
	item.ActualStart = &t
	return nil
}

// RecordEnd sets the actual end time for an item. Same idempotency and
// conflict rules as RecordStart.
func (ro *RunningOrder) RecordEnd(itemID string, at time.Time) error {
	item := ro.Find(itemID)
	if item == nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	if item.ActualStart == nil {
		return fmt.Errorf("%w: %q has no start time", ErrNotStarted, item.Name)
	}
	if item.ActualEnd != nil {
		if item.ActualEnd.Equal(at) {
			return nil
		}
		return fmt.Errorf("%w: %q ended at %s", ErrConflict, item.Name, item.ActualEnd.Format(time.RFC3339))
	}
	if at.Before(*item.ActualStart) {
		return fmt.Errorf("%w: %q started at %s", ErrBeforeStart, item.Name, item.ActualStart.Format(time.RFC3339))
	}

	t := at
	item.ActualEnd = &t
	return nil
}

// ClearActuals removes the actual times for an item so the event can be
// re-recorded. Only the most recent non-pending item may be cleared; clearing
// anything earlier would break the completed-prefix invariant.
func (ro *RunningOrder) ClearActuals(itemID string) error {
	idx := -1
	for i, it := range ro.Items {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	item := ro.Items[idx]
	if item.State() == StatePending {
		return fmt.Errorf("%w: %q has no recorded times", ErrNotStarted, item.Name)
	}
	for _, later := range ro.Items[idx+1:] {
		if later.State() != StatePending {
			return fmt.Errorf("%w: %q has recorded times after %q", ErrOutOfOrder, later.Name, item.Name)
		}
	}

	item.ActualStart = nil
	item.ActualEnd = nil
	return nil
}
