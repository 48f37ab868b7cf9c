package showtime

import "time"

// ItemSnapshot is the externally visible state of one running-order item.
// Durations and slip cross the boundary as whole seconds.
type ItemSnapshot struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Position        int        `json:"position"`
	Kind            ItemKind   `json:"kind"`
	State           ItemState  `json:"state"`
	PlannedSeconds  int64      `json:"planned_seconds"`
	ScheduledStart  time.Time  `json:"scheduled_start"`
	ScheduledEnd    time.Time  `json:"scheduled_end"`
	ActualStart     *time.Time `json:"actual_start,omitempty"`
	ActualEnd       *time.Time `json:"actual_end,omitempty"`
	ProjectedStart  *time.Time `json:"projected_start,omitempty"`
	ProjectedEnd    *time.Time `json:"projected_end,omitempty"`
	ProjectedSecs   *int64     `json:"projected_seconds,omitempty"`
	Compressed      bool       `json:"compressed,omitempty"`
	Overridden      bool       `json:"overridden,omitempty"`
	StartVariance   *int64     `json:"start_variance_seconds,omitempty"`
	EndVariance     *int64     `json:"end_variance_seconds,omitempty"`
	VarianceDisplay string     `json:"variance_display,omitempty"`
}

// Snapshot is one consistent view of the show emitted after every successful
// mutation and on demand for reads. Immutable once built.
type Snapshot struct {
	SessionID   string         `json:"session_id"`
	Stage       string         `json:"stage,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	SlipSeconds int64          `json:"slip_seconds"`
	SlipDisplay string         `json:"slip_display"`
	Brightness  int            `json:"brightness"`
	Items       []ItemSnapshot `json:"items"`
}

func buildSnapshot(sessionID, stage string, ro *RunningOrder, slip time.Duration, projections []Projection, brightness int, now time.Time) Snapshot {
	byID := make(map[string]Projection, len(projections))
	for _, p := range projections {
		byID[p.ItemID] = p
	}

	items := make([]ItemSnapshot, 0, len(ro.Items))
	for _, it := range ro.Items {
		snap := ItemSnapshot{
			ID:             it.ID,
			Name:           it.Name,
			Position:       it.Position,
			Kind:           it.Kind,
			State:          it.State(),
			PlannedSeconds: int64(it.PlannedDuration / time.Second),
			ScheduledStart: it.ScheduledStart,
			ScheduledEnd:   it.ScheduledEnd,
			ActualStart:    copyTime(it.ActualStart),
			ActualEnd:      copyTime(it.ActualEnd),
		}

		if v := it.StartVariance(); v != nil {
			snap.StartVariance = secondsPtr(*v)
		}
		if v := it.EndVariance(); v != nil {
			snap.EndVariance = secondsPtr(*v)
			snap.VarianceDisplay = FormatVariance(*v)
		}

		if p, ok := byID[it.ID]; ok {
			start, end := p.Start, p.End
			snap.ProjectedStart = &start
			snap.ProjectedEnd = &end
			snap.ProjectedSecs = secondsPtr(p.Duration)
			snap.Compressed = p.Compressed
			snap.Overridden = p.Overridden
		}

		items = append(items, snap)
	}

	return Snapshot{
		SessionID:   sessionID,
		Stage:       stage,
		GeneratedAt: now,
		SlipSeconds: int64(slip / time.Second),
		SlipDisplay: FormatVariance(slip),
		Brightness:  brightness,
		Items:       items,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func secondsPtr(d time.Duration) *int64 {
	s := int64(d / time.Second)
	return &s
}
