package sla

import (
	"fmt"
	"time"
)

// FormatDuration renders the magnitude of d as "HH:MM:SS", prefixed with
// "Nd " when at least one full day is covered. The sign is always dropped:
// how far past a deadline something is reads the same as how far before.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

const dueAtLayout = "02-01-2006 15:04"

// FormatDueAt renders an absolute instant as a fixed dd-mm-yyyy HH:MM string
// in the given zone. When the zone cannot be loaded the instant's own
// location is used rather than failing.
func FormatDueAt(t time.Time, timeZone string) string {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return t.Format(dueAtLayout)
	}
	return t.In(loc).Format(dueAtLayout)
}
