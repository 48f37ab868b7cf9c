package showtime

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to event submitters. All are recoverable; a failed
// call never leaves the running order mutated.
var (
	// ErrInvalidSchedule means the seed data cannot form a running order.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrItemNotFound means the referenced item id is not in the running order.
	ErrItemNotFound = errors.New("item not found")

	// ErrOutOfOrder means an earlier item in the running order has not
	// completed yet.
	ErrOutOfOrder = errors.New("earlier item not completed")

	// ErrConflict means a duplicate event carried a divergent timestamp.
	// Surfaced for manual resolution, never silently overwritten.
	ErrConflict = errors.New("conflicting event for already-recorded time")

	// ErrAlreadyStarted is the start-specific conflict: the item already has
	// a different actual start. Matches ErrConflict under errors.Is.
	ErrAlreadyStarted = fmt.Errorf("%w: item already started", ErrConflict)

	// ErrNotStarted means the operation requires an actual start time.
	ErrNotStarted = errors.New("item not started")

	// ErrBeforeStart means an end time precedes the recorded start.
	ErrBeforeStart = errors.New("end time before start time")

	// ErrImmutableHistory means an attempt to redefine or override a
	// completed or in-progress item.
	ErrImmutableHistory = errors.New("item history is immutable")
)
