package domain

import (
	"fmt"
	"time"
)

// FormatLastSeen renders a last-seen timestamp relative to now.
func FormatLastSeen(lastSeen *time.Time, now time.Time) string {
	if lastSeen == nil || lastSeen.IsZero() {
		return "Never"
	}

	diff := now.Sub(*lastSeen)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return plural(int(diff/time.Minute), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff/time.Hour), "hour") + " ago"
	default:
		return lastSeen.In(now.Location()).Format("1/2/2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
