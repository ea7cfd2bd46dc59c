package throttle

import (
	"fmt"
	"time"
)

// FormatRetryAfter renders a retry-after duration for end users:
// "45 seconds" under a minute, "2 minutes" above it (rounded up).
func FormatRetryAfter(d time.Duration) string {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return fmt.Sprintf("%d %s", seconds, plural("second", seconds))
	}
	minutes := (seconds + 59) / 60
	return fmt.Sprintf("%d %s", minutes, plural("minute", minutes))
}

func plural(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
