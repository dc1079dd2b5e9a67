// Package format renders durations, values and sizes for the REPL and the
// dashboard.
package format

import (
	"fmt"
	"time"
)

// FormatExecutionDuration formats a worker's wall time. Durations under a
// millisecond are shown in microseconds, under a second in milliseconds,
// and anything longer rounded to the millisecond.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "0µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

// FormatElapsed renders a clock-style duration such as 01:02:03 for the
// dashboard header.
func FormatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
