package tui

import (
	"fmt"
	"time"

	"github.com/mrz1836/taskflow/internal/clock"
)

// RelativeTime formats t relative to the clock's now.
// Examples: "just now", "2 minutes ago", "1 hour ago", "3 days ago", "2 weeks ago".
func RelativeTime(t time.Time, c clock.Clock) string {
	diff := clock.Or(c).Now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return plural(int(diff.Hours()/24/7), "week")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
