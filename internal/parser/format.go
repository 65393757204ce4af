package parser

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
}

// FormatSeconds formats whole seconds as H:MM:SS.
func FormatSeconds(sec int64) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", sec/3600, sec/60%60, sec%60)
}

// FormatDate formats an optional date for display.
func FormatDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	if loc != nil {
		return t.In(loc).Format("2006/01/02")
	}
	return t.Format("2006/01/02")
}
