package showtime

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// LoadSchedule builds the initial running order from seed rows. Scheduled
// start/end times are computed by walking the rows in position order from
// showStart and accumulating durations.
func LoadSchedule(showStart time.Time, rows []SeedRow) (*RunningOrder, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty schedule", ErrInvalidSchedule)
	}

	sorted := append([]SeedRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	order := &RunningOrder{ShowStart: showStart, Items: make([]*Item, 0, len(sorted))}
	cursor := showStart
	prevPos := 0

	for i, row := range sorted {
		if i > 0 && row.Position <= prevPos {
			return nil, fmt.Errorf("%w: positions not strictly increasing at %q (position %d)", ErrInvalidSchedule, row.Name, row.Position)
		}
		prevPos = row.Position

		if row.Duration <= 0 {
			return nil, fmt.Errorf("%w: non-positive duration for %q", ErrInvalidSchedule, row.Name)
		}

		id := row.ID
		if id == "" {
			id = uuid.NewString()
		}

		kind := KindAct
		if row.IsBreak {
			kind = KindBreak
		}

		item := &Item{
			ID:              id,
			Name:            row.Name,
			Position:        row.Position,
			Kind:            kind,
			PlannedDuration: row.Duration,
			ScheduledStart:  cursor,
			ScheduledEnd:    cursor.Add(row.Duration),
		}
		cursor = item.ScheduledEnd
		order.Items = append(order.Items, item)
	}

	return order, nil
}

// ReloadPending applies new definitions to pending items only. Rows that
// target a completed or in-progress item with a changed definition fail with
// ErrImmutableHistory; rows whose definition is unchanged are skipped.
// Position changes reorder the pending suffix; positions that collide or
// fall at or before a settled item fail with ErrInvalidSchedule.
// Validation runs before any mutation so a rejected reload changes nothing.
// Scheduled times for pending items are re-accumulated from the last
// non-pending item's scheduled end (settled history keeps its schedule).
func (ro *RunningOrder) ReloadPending(rows []SeedRow) error {
	byID := make(map[string]SeedRow, len(rows))
	for _, row := range rows {
		if row.Duration <= 0 {
			return fmt.Errorf("%w: non-positive duration for %q", ErrInvalidSchedule, row.Name)
		}
		byID[row.ID] = row
	}

	for _, it := range ro.Items {
		row, ok := byID[it.ID]
		if !ok {
			continue
		}
		if sameDefinition(it, row) {
			continue
		}
		if it.State() != StatePending {
			return fmt.Errorf("%w: %q is %s", ErrImmutableHistory, it.Name, it.State())
		}
	}

	first := ro.FirstPending()
	settledPos := 0
	if first > 0 {
		settledPos = ro.Items[first-1].Position
	}
	seen := make(map[int]bool, len(ro.Items)-first)
	for _, it := range ro.Items[first:] {
		pos := it.Position
		if row, ok := byID[it.ID]; ok {
			pos = row.Position
		}
		if pos <= settledPos {
			return fmt.Errorf("%w: position %d for %q not after settled items", ErrInvalidSchedule, pos, it.Name)
		}
		if seen[pos] {
			return fmt.Errorf("%w: duplicate position %d", ErrInvalidSchedule, pos)
		}
		seen[pos] = true
	}

	changed := false
	for _, it := range ro.Items[first:] {
		row, ok := byID[it.ID]
		if !ok || sameDefinition(it, row) {
			continue
		}
		it.Name = row.Name
		it.Position = row.Position
		it.PlannedDuration = row.Duration
		if row.IsBreak {
			it.Kind = KindBreak
		} else {
			it.Kind = KindAct
		}
		changed = true
	}

	if changed {
		pending := ro.Items[first:]
		sort.SliceStable(pending, func(i, j int) bool { return pending[i].Position < pending[j].Position })
		ro.reaccumulatePending()
	}
	return nil
}

func sameDefinition(it *Item, row SeedRow) bool {
	kind := KindAct
	if row.IsBreak {
		kind = KindBreak
	}
	return it.Name == row.Name && it.Position == row.Position && it.PlannedDuration == row.Duration && it.Kind == kind
}

func (ro *RunningOrder) reaccumulatePending() {
	first := ro.FirstPending()
	cursor := ro.ShowStart
	if first > 0 {
		cursor = ro.Items[first-1].ScheduledEnd
	}
	for _, it := range ro.Items[first:] {
		it.ScheduledStart = cursor
		it.ScheduledEnd = cursor.Add(it.PlannedDuration)
		cursor = it.ScheduledEnd
	}
}
