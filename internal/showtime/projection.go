package showtime

import "time"

// Projection is the forecast window for one pending item. Derived on every
// pass, never cached.
type Projection struct {
	ItemID     string
	Start      time.Time
	End        time.Time
	Duration   time.Duration
	Compressed bool
	Overridden bool
}

// Window is a manually pinned projection for a pending item.
type Window struct {
	Start time.Time
	End   time.Time
}

// Project recomputes projected start/end for every pending item, in running
// order, as one gap-free chain:
//
//   - The first pending item starts at its scheduled start shifted by slip.
//     A late finish pushes everything later; an early finish pulls
//     everything earlier.
//   - When the show is running late, breaks absorb lateness by compressing
//     their projected duration, never below floor. Residual lateness passes
//     through to the next item. Breaks are never compressed when the show is
//     running early.
//   - Every subsequent item starts where the previous one ends.
//
// Items with a pinned window keep it verbatim and re-anchor the chain at the
// pinned end. Pure function; the running order is not touched.
func Project(ro *RunningOrder, slip time.Duration, floor time.Duration, overrides map[string]Window) []Projection {
	first := ro.FirstPending()
	pending := ro.Items[first:]
	out := make([]Projection, 0, len(pending))

	lateness := slip
	var cursor time.Time

	for i, it := range pending {
		if w, ok := overrides[it.ID]; ok {
			cursor = w.End
			out = append(out, Projection{
				ItemID:     it.ID,
				Start:      w.Start,
				End:        w.End,
				Duration:   w.End.Sub(w.Start),
				Overridden: true,
			})
			continue
		}

		start := cursor
		if i == 0 {
			start = it.ScheduledStart.Add(lateness)
		}

		dur := it.PlannedDuration
		compressed := false
		if it.Kind == KindBreak && lateness > 0 {
			absorb := dur - floor
			if absorb > lateness {
				absorb = lateness
			}
			if absorb > 0 {
				dur -= absorb
				lateness -= absorb
				compressed = true
			}
		}

		end := start.Add(dur)
		cursor = end
		out = append(out, Projection{
			ItemID:     it.ID,
			Start:      start,
			End:        end,
			Duration:   dur,
			Compressed: compressed,
		})
	}

	return out
}
