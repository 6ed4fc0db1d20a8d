// Package timeutil centralizes clock access and the calendar arithmetic used by
// scheduling and sync. Month and year math clamps the day-of-month instead of
// normalizing, so Jan 31 plus one month lands on Feb 28/29, never Mar 2.
package timeutil

import "time"

// Clock abstracts time.Now so engines can be tested against fixed instants.
type Clock interface {
	Now() time.Time
}

// RealClock is the production clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// DayStart returns midnight of t's day in t's location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NextDayStart returns midnight of the day after t.
func NextDayStart(t time.Time) time.Time {
	return DayStart(t.AddDate(0, 0, 1))
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// Combine takes the calendar day from datePart and the wall clock from timePart.
func Combine(datePart, timePart time.Time) time.Time {
	y, m, d := datePart.Date()
	return time.Date(y, m, d, timePart.Hour(), timePart.Minute(), timePart.Second(), 0, datePart.Location())
}

// AtTime returns the given wall-clock time on t's day.
func AtTime(t time.Time, hour, minute int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped advances t by the given number of months, clamping the day
// of month to the target month's length. time.Time.AddDate normalizes overflow
// instead, which is wrong for due-date cadences.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := y*12 + int(m) - 1 + months
	ny := total / 12
	rem := total % 12
	if rem < 0 {
		rem += 12
		ny--
	}
	nm := time.Month(rem + 1)
	if last := DaysIn(ny, nm); d > last {
		d = last
	}
	return time.Date(ny, nm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddYearsClamped advances t by whole years with the same clamping rule, so
// Feb 29 on a leap year maps to Feb 28 on a common year.
func AddYearsClamped(t time.Time, years int) time.Time {
	return AddMonthsClamped(t, years*12)
}

// Overlap returns the length of the intersection of [aStart,aEnd) and
// [bStart,bEnd), or zero when they do not intersect.
func Overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// WeekdayNumber maps t's weekday to the 1=Sunday..7=Saturday numbering used by
// recurrence rules.
func WeekdayNumber(t time.Time) int {
	return int(t.Weekday()) + 1
}

// MinutesOfDay returns t's wall clock expressed as minutes past midnight.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
