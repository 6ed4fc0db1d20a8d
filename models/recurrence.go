package models

import (
	"sort"
	"time"
)

// Frequency enumerates recurrence cadences. Daily through custom repeat across
// days; hourly and times-per-day repeat within a day.
type Frequency string

const (
	FreqDaily       Frequency = "daily"
	FreqWeekly      Frequency = "weekly"
	FreqBiweekly    Frequency = "biweekly"
	FreqMonthly     Frequency = "monthly"
	FreqYearly      Frequency = "yearly"
	FreqCustom      Frequency = "custom"
	FreqHourly      Frequency = "hourly"
	FreqTimesPerDay Frequency = "times-per-day"
)

// Defaults applied when the corresponding rule field is zero.
const (
	DefaultHourInterval     = 2
	DefaultTimesPerDay      = 3
	DefaultActiveHoursStart = 8
	DefaultActiveHoursEnd   = 20
)

// TimeOfDay is a wall-clock instant independent of any calendar day.
type TimeOfDay struct {
	Hour   int `json:"hour" validate:"min=0,max=23"`
	Minute int `json:"minute" validate:"min=0,max=59"`
}

// Before orders times of day by hour, then minute.
func (t TimeOfDay) Before(o TimeOfDay) bool {
	if t.Hour != o.Hour {
		return t.Hour < o.Hour
	}
	return t.Minute < o.Minute
}

// On places the time of day on the given calendar day.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

// RecurringRule describes how a task repeats. Zero-valued optional fields mean
// "use the default"; the Effective* accessors resolve them.
type RecurringRule struct {
	Frequency  Frequency  `json:"frequency" validate:"required,oneof=daily weekly biweekly monthly yearly custom hourly times-per-day"`
	Interval   int        `json:"interval,omitempty" validate:"omitempty,min=1"`
	DaysOfWeek []int      `json:"daysOfWeek,omitempty" validate:"omitempty,dive,min=1,max=7"`
	EndDate    *time.Time `json:"endDate,omitempty"`

	// Intraday fields. Active hours bound the schedule inclusively on both
	// ends; specific times override the even distribution.
	HourInterval     int         `json:"hourInterval,omitempty" validate:"omitempty,min=1,max=23"`
	TimesPerDay      int         `json:"timesPerDay,omitempty" validate:"omitempty,min=1,max=48"`
	SpecificTimes    []TimeOfDay `json:"specificTimes,omitempty" validate:"omitempty,dive"`
	ActiveHoursStart int         `json:"activeHoursStart,omitempty" validate:"omitempty,min=0,max=23"`
	ActiveHoursEnd   int         `json:"activeHoursEnd,omitempty" validate:"omitempty,min=0,max=23"`
}

// Clone returns a deep copy of the rule. Spawned recurring instances carry
// their own copy so later edits never alias.
func (r *RecurringRule) Clone() *RecurringRule {
	if r == nil {
		return nil
	}
	out := *r
	if r.DaysOfWeek != nil {
		out.DaysOfWeek = append([]int(nil), r.DaysOfWeek...)
	}
	if r.SpecificTimes != nil {
		out.SpecificTimes = append([]TimeOfDay(nil), r.SpecificTimes...)
	}
	if r.EndDate != nil {
		end := *r.EndDate
		out.EndDate = &end
	}
	return &out
}

// IsIntraday reports whether the rule repeats within a single day.
func (r *RecurringRule) IsIntraday() bool {
	return r.Frequency == FreqHourly || r.Frequency == FreqTimesPerDay
}

// EffectiveInterval resolves the repeat interval, defaulting to 1.
func (r *RecurringRule) EffectiveInterval() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}

// EffectiveHourInterval resolves the hourly step, defaulting to 2.
func (r *RecurringRule) EffectiveHourInterval() int {
	if r.HourInterval < 1 {
		return DefaultHourInterval
	}
	return r.HourInterval
}

// EffectiveTimesPerDay resolves the per-day count, defaulting to 3.
func (r *RecurringRule) EffectiveTimesPerDay() int {
	if r.TimesPerDay < 1 {
		return DefaultTimesPerDay
	}
	return r.TimesPerDay
}

// ActiveWindow resolves the active-hours bounds, defaulting to 8..20. The
// window is inclusive on both ends.
func (r *RecurringRule) ActiveWindow() (start, end int) {
	start, end = DefaultActiveHoursStart, DefaultActiveHoursEnd
	if r.ActiveHoursStart > 0 {
		start = r.ActiveHoursStart
	}
	if r.ActiveHoursEnd > 0 {
		end = r.ActiveHoursEnd
	}
	if end < start {
		end = start
	}
	return start, end
}

// SortedTimes returns the explicit intraday times ordered by hour then minute.
func (r *RecurringRule) SortedTimes() []TimeOfDay {
	out := make([]TimeOfDay, len(r.SpecificTimes))
	copy(out, r.SpecificTimes)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
