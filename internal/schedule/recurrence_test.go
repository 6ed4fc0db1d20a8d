package schedule

import (
	"testing"
	"time"

	"github.com/tasktide/tasktide/models"
)

// 2025-06-01 is a Sunday, so 2025-06-03 is a Tuesday.
func at(d, hh, mm int) time.Time {
	return time.Date(2025, time.June, d, hh, mm, 0, 0, time.UTC)
}

func TestNextOccurrenceDayCadences(t *testing.T) {
	tests := []struct {
		name string
		rule models.RecurringRule
		from time.Time
		want time.Time
	}{
		{"daily preserves wall time", models.RecurringRule{Frequency: models.FreqDaily}, at(3, 14, 30), at(4, 14, 30)},
		{"custom every 3 days", models.RecurringRule{Frequency: models.FreqCustom, Interval: 3}, at(3, 9, 0), at(6, 9, 0)},
		{"weekly plain", models.RecurringRule{Frequency: models.FreqWeekly}, at(3, 9, 0), at(10, 9, 0)},
		{"weekly interval 2", models.RecurringRule{Frequency: models.FreqWeekly, Interval: 2}, at(3, 9, 0), at(17, 9, 0)},
		{"biweekly", models.RecurringRule{Frequency: models.FreqBiweekly}, at(3, 9, 0), at(17, 9, 0)},
		// from Tuesday, enabled Monday(2) and Friday(6): Friday June 6 comes first.
		{"weekly with days", models.RecurringRule{Frequency: models.FreqWeekly, DaysOfWeek: []int{2, 6}}, at(3, 9, 0), at(6, 9, 0)},
		// from Friday, only Friday enabled: a full week ahead, never the same day.
		{"weekly same day skips to next week", models.RecurringRule{Frequency: models.FreqWeekly, DaysOfWeek: []int{6}}, at(6, 9, 0), at(13, 9, 0)},
		{"monthly", models.RecurringRule{Frequency: models.FreqMonthly}, at(3, 9, 0), time.Date(2025, time.July, 3, 9, 0, 0, 0, time.UTC)},
		{"yearly", models.RecurringRule{Frequency: models.FreqYearly}, at(3, 9, 0), time.Date(2026, time.June, 3, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(&tt.rule, tt.from)
			if got == nil {
				t.Fatal("expected an occurrence, got nil")
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
			if !got.After(tt.from) {
				t.Errorf("occurrence %v is not strictly after %v", got, tt.from)
			}

			again := NextOccurrence(&tt.rule, tt.from)
			if !again.Equal(*got) {
				t.Errorf("not deterministic: %v vs %v", again, got)
			}
		})
	}
}

func TestNextOccurrenceMonthlyClamps(t *testing.T) {
	rule := models.RecurringRule{Frequency: models.FreqMonthly}
	from := time.Date(2025, time.January, 31, 9, 0, 0, 0, time.UTC)

	got := NextOccurrence(&rule, from)
	want := time.Date(2025, time.February, 28, 9, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Errorf("jan 31 monthly = %v, want %v", got, want)
	}
}

func TestNextOccurrenceHourly(t *testing.T) {
	tests := []struct {
		name string
		rule models.RecurringRule
		from time.Time
		want time.Time
	}{
		{"inside window", models.RecurringRule{Frequency: models.FreqHourly, HourInterval: 2}, at(3, 10, 15), at(3, 12, 15)},
		{"lands on window end", models.RecurringRule{Frequency: models.FreqHourly, HourInterval: 2}, at(3, 18, 0), at(3, 20, 0)},
		// 19:30 + 3h = 22:30 is outside 8..20, so tomorrow at window start.
		{"wraps past window end", models.RecurringRule{Frequency: models.FreqHourly, HourInterval: 3}, at(3, 19, 30), at(4, 8, 0)},
		// 20:00 + 4h crosses midnight to 00:00, before the 6..22 window opens.
		{"custom window wraps before start", models.RecurringRule{Frequency: models.FreqHourly, HourInterval: 4, ActiveHoursStart: 6, ActiveHoursEnd: 22}, at(3, 20, 0), at(4, 6, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(&tt.rule, tt.from)
			if got == nil {
				t.Fatal("expected an occurrence, got nil")
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrenceTimesPerDay(t *testing.T) {
	explicit := models.RecurringRule{
		Frequency:     models.FreqTimesPerDay,
		SpecificTimes: []models.TimeOfDay{{Hour: 21, Minute: 30}, {Hour: 9}, {Hour: 14}},
	}

	tests := []struct {
		name string
		rule models.RecurringRule
		from time.Time
		want time.Time
	}{
		{"explicit next slot", explicit, at(3, 10, 0), at(3, 14, 0)},
		// 14:00 exactly is not strictly later, so the 21:30 slot wins.
		{"explicit equal time skips", explicit, at(3, 14, 0), at(3, 21, 30)},
		{"explicit wraps to tomorrow", explicit, at(3, 22, 0), at(4, 9, 0)},
		// 3 per day over 8..20: floor(12/3)=4, slots at 8, 12, 16.
		{"distributed next slot", models.RecurringRule{Frequency: models.FreqTimesPerDay, TimesPerDay: 3}, at(3, 9, 15), at(3, 12, 0)},
		{"distributed mid slot", models.RecurringRule{Frequency: models.FreqTimesPerDay, TimesPerDay: 3}, at(3, 12, 30), at(3, 16, 0)},
		{"distributed wraps", models.RecurringRule{Frequency: models.FreqTimesPerDay, TimesPerDay: 3}, at(3, 16, 30), at(4, 8, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(&tt.rule, tt.from)
			if got == nil {
				t.Fatal("expected an occurrence, got nil")
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrenceEndDate(t *testing.T) {
	end := at(4, 0, 0)
	rule := models.RecurringRule{Frequency: models.FreqDaily, EndDate: &end}

	// June 3 -> June 4 is still within the inclusive end day.
	got := NextOccurrence(&rule, at(3, 10, 0))
	if got == nil || !got.Equal(at(4, 10, 0)) {
		t.Errorf("within end date = %v, want %v", got, at(4, 10, 0))
	}

	// June 4 -> June 5 would pass the end date.
	if got := NextOccurrence(&rule, at(4, 10, 0)); got != nil {
		t.Errorf("expected nil past end date, got %v", got)
	}

	// from itself past the end date: rule is expired.
	if got := NextOccurrence(&rule, at(5, 10, 0)); got != nil {
		t.Errorf("expected nil for expired rule, got %v", got)
	}
}

func TestNextOccurrenceNilRule(t *testing.T) {
	if got := NextOccurrence(nil, at(3, 10, 0)); got != nil {
		t.Errorf("nil rule should yield nil, got %v", got)
	}
}

func TestIntradayTimes(t *testing.T) {
	day := at(3, 0, 0)

	hourly := models.RecurringRule{Frequency: models.FreqHourly, HourInterval: 2}
	times := IntradayTimes(&hourly, day)
	if len(times) != 7 {
		t.Fatalf("hourly slots = %d, want 7", len(times))
	}
	if times[0].Hour() != 8 || times[6].Hour() != 20 {
		t.Errorf("hourly bounds = %v..%v, want 8..20", times[0], times[6])
	}

	explicit := models.RecurringRule{
		Frequency:     models.FreqTimesPerDay,
		SpecificTimes: []models.TimeOfDay{{Hour: 21}, {Hour: 7, Minute: 30}},
	}
	times = IntradayTimes(&explicit, day)
	if len(times) != 2 || times[0].Hour() != 7 || times[1].Hour() != 21 {
		t.Errorf("explicit times not sorted: %v", times)
	}

	distributed := models.RecurringRule{Frequency: models.FreqTimesPerDay, TimesPerDay: 3}
	times = IntradayTimes(&distributed, day)
	if len(times) != 3 || times[0].Hour() != 8 || times[1].Hour() != 12 || times[2].Hour() != 16 {
		t.Errorf("distributed slots = %v, want 8/12/16", times)
	}

	daily := models.RecurringRule{Frequency: models.FreqDaily}
	if got := IntradayTimes(&daily, day); got != nil {
		t.Errorf("non-intraday rule should yield nil, got %v", got)
	}

	if got := DailyTarget(&hourly, day); got != 7 {
		t.Errorf("DailyTarget = %d, want 7", got)
	}
}
