/*
Package schedule computes occurrence instants for recurring tasks.

All functions are pure: they take an explicit reference instant and return
values without touching the clock, so every cadence is reproducible in tests.
Day-spanning cadences preserve the wall-clock time of the reference instant;
intraday cadences (hourly, times-per-day) stay inside the rule's active-hours
window and wrap to the next day when they would fall outside it.
*/
package schedule

import (
	"time"

	"github.com/tasktide/tasktide/internal/timeutil"
	"github.com/tasktide/tasktide/models"
)

// weeklyScanDays bounds the day-by-day search for weekly rules with explicit
// weekdays. Fourteen days covers every reachable weekday pattern.
const weeklyScanDays = 14

// NextOccurrence returns the first instant after from at which the rule fires
// again, or nil when the rule has expired or produces nothing before its end
// date. The result is always strictly later than from.
func NextOccurrence(rule *models.RecurringRule, from time.Time) *time.Time {
	if rule == nil {
		return nil
	}
	if expired(rule, from) {
		return nil
	}

	var next time.Time
	switch rule.Frequency {
	case models.FreqDaily, models.FreqCustom:
		next = from.AddDate(0, 0, rule.EffectiveInterval())
	case models.FreqWeekly:
		if len(rule.DaysOfWeek) > 0 {
			n := nextWeekday(rule, from)
			if n == nil {
				return nil
			}
			next = *n
		} else {
			next = from.AddDate(0, 0, 7*rule.EffectiveInterval())
		}
	case models.FreqBiweekly:
		next = from.AddDate(0, 0, 14*rule.EffectiveInterval())
	case models.FreqMonthly:
		next = timeutil.AddMonthsClamped(from, rule.EffectiveInterval())
	case models.FreqYearly:
		next = timeutil.AddYearsClamped(from, rule.EffectiveInterval())
	case models.FreqHourly:
		next = nextHourly(rule, from)
	case models.FreqTimesPerDay:
		next = nextTimeOfDay(rule, from)
	default:
		return nil
	}

	if beyondEnd(rule, next) {
		return nil
	}
	return &next
}

// IntradayTimes returns every instant an intraday rule fires on the given
// day, in ascending order. Non-intraday rules yield nil.
func IntradayTimes(rule *models.RecurringRule, day time.Time) []time.Time {
	if rule == nil || !rule.IsIntraday() {
		return nil
	}

	switch rule.Frequency {
	case models.FreqHourly:
		start, end := rule.ActiveWindow()
		step := rule.EffectiveHourInterval()
		var out []time.Time
		for h := start; h <= end; h += step {
			out = append(out, timeutil.AtTime(day, h, 0))
		}
		return out
	case models.FreqTimesPerDay:
		if len(rule.SpecificTimes) > 0 {
			times := rule.SortedTimes()
			out := make([]time.Time, 0, len(times))
			for _, td := range times {
				out = append(out, td.On(day))
			}
			return out
		}
		var out []time.Time
		for _, h := range distributedHours(rule) {
			out = append(out, timeutil.AtTime(day, h, 0))
		}
		return out
	}
	return nil
}

// DailyTarget returns how many completions an intraday rule expects per day.
func DailyTarget(rule *models.RecurringRule, day time.Time) int {
	return len(IntradayTimes(rule, day))
}

// expired reports whether from already lies past the rule's end date. The end
// date is inclusive through the end of its calendar day.
func expired(rule *models.RecurringRule, from time.Time) bool {
	if rule.EndDate == nil {
		return false
	}
	return !from.Before(timeutil.NextDayStart(*rule.EndDate))
}

func beyondEnd(rule *models.RecurringRule, at time.Time) bool {
	if rule.EndDate == nil {
		return false
	}
	return !at.Before(timeutil.NextDayStart(*rule.EndDate))
}

// nextWeekday scans forward one day at a time for the next enabled weekday,
// preserving from's wall-clock time. Weekdays are numbered 1=Sunday through
// 7=Saturday.
func nextWeekday(rule *models.RecurringRule, from time.Time) *time.Time {
	enabled := make(map[int]bool, len(rule.DaysOfWeek))
	for _, d := range rule.DaysOfWeek {
		enabled[d] = true
	}
	for offset := 1; offset <= weeklyScanDays; offset++ {
		candidate := from.AddDate(0, 0, offset)
		if enabled[timeutil.WeekdayNumber(candidate)] {
			return &candidate
		}
	}
	return nil
}

// nextHourly adds the hour interval and wraps to the next day's window start
// when the result lands outside the inclusive active-hours window.
func nextHourly(rule *models.RecurringRule, from time.Time) time.Time {
	next := from.Add(time.Duration(rule.EffectiveHourInterval()) * time.Hour)
	start, end := rule.ActiveWindow()
	if next.Hour() > end {
		return timeutil.AtTime(timeutil.NextDayStart(next), start, 0)
	}
	if next.Hour() < start {
		return timeutil.AtTime(next, start, 0)
	}
	return next
}

// nextTimeOfDay picks the first slot strictly later than from's time of day,
// wrapping to the earliest slot tomorrow when the day is exhausted.
func nextTimeOfDay(rule *models.RecurringRule, from time.Time) time.Time {
	if len(rule.SpecificTimes) > 0 {
		times := rule.SortedTimes()
		cur := models.TimeOfDay{Hour: from.Hour(), Minute: from.Minute()}
		for _, td := range times {
			if cur.Before(td) {
				return td.On(from)
			}
		}
		return times[0].On(from.AddDate(0, 0, 1))
	}

	hours := distributedHours(rule)
	for _, h := range hours {
		if h > from.Hour() {
			return timeutil.AtTime(from, h, 0)
		}
	}
	return timeutil.AtTime(from.AddDate(0, 0, 1), hours[0], 0)
}

// distributedHours spreads the per-day count evenly across the active window:
// start + i*floor((end-start)/count) for each slot i.
func distributedHours(rule *models.RecurringRule) []int {
	count := rule.EffectiveTimesPerDay()
	start, end := rule.ActiveWindow()
	step := (end - start) / count
	hours := make([]int, count)
	for i := 0; i < count; i++ {
		hours[i] = start + i*step
	}
	return hours
}
