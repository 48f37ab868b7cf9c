package showtime

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration as a compact human string ("1h 5m",
// "12m", "45s"). Negative values keep a leading minus.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + FormatDuration(-d)
	}

	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// FormatVariance renders a signed variance with a +/- prefix, or "on time"
// for zero.
func FormatVariance(d time.Duration) string {
	if d == 0 {
		return "on time"
	}
	if d > 0 {
		return "+" + FormatDuration(d)
	}
	return FormatDuration(d)
}
