package ui

import (
	"fmt"
	"strings"
	"time"
)

// TruncateID shortens a UUID to its first segment for display.
func TruncateID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Truncate cuts s to max runes, appending an ellipsis when trimmed.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// FormatScore renders an effective score with one decimal place.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

// FormatMinutes renders an estimate as "45m" or "1h30m".
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "-"
	}
	h := minutes / 60
	m := minutes % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%dm", h, m)
	}
}

// FormatDue renders a due timestamp relative to now: "today 14:00",
// "tomorrow", "in 3d", "2d overdue".
func FormatDue(due time.Time, hasTime bool, now time.Time) string {
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, due.Location())
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(dueDay.Sub(nowDay).Hours() / 24)

	var label string
	switch {
	case days < -1:
		return fmt.Sprintf("%dd overdue", -days)
	case days == -1:
		return "1d overdue"
	case days == 0:
		label = "today"
	case days == 1:
		label = "tomorrow"
	case days <= 13:
		label = fmt.Sprintf("in %dd", days)
	default:
		label = due.Format("Jan 2")
	}
	if hasTime {
		return label + " " + due.Format("15:04")
	}
	return label
}

// FormatRelative renders how long ago a timestamp was: "just now",
// "5m ago", "3h ago", "2d ago".
func FormatRelative(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// FormatTimer renders accumulated work time as "1h02m" with seconds
// only under a minute.
func FormatTimer(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
