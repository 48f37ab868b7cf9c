package showtime

import "time"

// ComputeSlip derives the signed cumulative drift between actual and
// scheduled elapsed time over the completed and in-progress prefix of the
// running order. Positive means running late, negative means running early.
// Breaks contribute exactly like acts: a break allowed to run long adds
// positive slip.
//
// For the in-progress item the actual side counts the full elapsed time
// while the scheduled side is capped at the planned duration, so overtime
// shows up as growing slip while the item is still running and an early
// finish is only realized when the end is recorded.
//
// Pure function of the running order and now; never stored.
func ComputeSlip(ro *RunningOrder, now time.Time) time.Duration {
	var actual, scheduled time.Duration

	for _, it := range ro.Items {
		switch it.State() {
		case StateCompleted:
			actual += it.ActualEnd.Sub(*it.ActualStart)
			scheduled += it.PlannedDuration
		case StateInProgress:
			elapsed := now.Sub(*it.ActualStart)
			if elapsed < 0 {
				elapsed = 0
			}
			actual += elapsed
			if elapsed < it.PlannedDuration {
				scheduled += elapsed
			} else {
				scheduled += it.PlannedDuration
			}
			return actual - scheduled
		default:
			return actual - scheduled
		}
	}

	return actual - scheduled
}
