package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktide/tasktide/models"
)

func TestParseRecurrenceShorthand(t *testing.T) {
	tests := []struct {
		in   string
		want models.RecurringRule
	}{
		{"day", models.RecurringRule{Frequency: models.FreqDaily}},
		{"daily", models.RecurringRule{Frequency: models.FreqDaily}},
		{"1 day", models.RecurringRule{Frequency: models.FreqDaily}},
		{"3 days", models.RecurringRule{Frequency: models.FreqCustom, Interval: 3}},
		{"week", models.RecurringRule{Frequency: models.FreqWeekly}},
		{"2 weeks", models.RecurringRule{Frequency: models.FreqWeekly, Interval: 2}},
		{"biweekly", models.RecurringRule{Frequency: models.FreqBiweekly}},
		{"fortnightly", models.RecurringRule{Frequency: models.FreqBiweekly}},
		{"monthly", models.RecurringRule{Frequency: models.FreqMonthly}},
		{"yearly", models.RecurringRule{Frequency: models.FreqYearly}},
		{"3h", models.RecurringRule{Frequency: models.FreqHourly, HourInterval: 3}},
		{"4x", models.RecurringRule{Frequency: models.FreqTimesPerDay, TimesPerDay: 4}},
		{"4x/day", models.RecurringRule{Frequency: models.FreqTimesPerDay, TimesPerDay: 4}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseRecurrence(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestParseRecurrenceWeekdays(t *testing.T) {
	got, err := parseRecurrence("mon,wed,fri")
	require.NoError(t, err)
	assert.Equal(t, models.FreqWeekly, got.Frequency)
	assert.Equal(t, []int{2, 4, 6}, got.DaysOfWeek)

	// Duplicates collapse, order normalizes.
	got, err = parseRecurrence("fri,mon,fri")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 6}, got.DaysOfWeek)
}

func TestParseRecurrenceSpecificTimes(t *testing.T) {
	got, err := parseRecurrence("at 9:00,13:30,18:00")
	require.NoError(t, err)
	assert.Equal(t, models.FreqTimesPerDay, got.Frequency)
	assert.Equal(t, 3, got.TimesPerDay)
	assert.Equal(t, []models.TimeOfDay{
		{Hour: 9, Minute: 0},
		{Hour: 13, Minute: 30},
		{Hour: 18, Minute: 0},
	}, got.SpecificTimes)
}

func TestParseRecurrenceRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "sometimes", "0h", "24h", "0x", "49x", "mon,funday"} {
		t.Run(in, func(t *testing.T) {
			_, err := parseRecurrence(in)
			assert.Error(t, err)
		})
	}
}

func TestDescribeRecurrenceRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"daily", "daily"},
		{"3 days", "every 3 days"},
		{"mon,wed,fri", "weekly on mon,wed,fri"},
		{"3h", "every 3h"},
		{"4x", "4x/day"},
		{"at 9:00,13:30", "daily at 9:00,13:30"},
	}
	for _, tc := range tests {
		rule, err := parseRecurrence(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, describeRecurrence(rule))
	}
}

func TestDescribeRecurrenceWithEndDate(t *testing.T) {
	rule, err := parseRecurrence("weekly")
	require.NoError(t, err)
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	rule.EndDate = &end
	assert.Equal(t, "weekly until 2025-12-31", describeRecurrence(rule))
}

func TestParseDueDate(t *testing.T) {
	now := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	day, err := parseDueDate("today", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), day)

	day, err = parseDueDate("tomorrow", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), day)

	day, err = parseDueDate("+10d", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC), day)

	day, err = parseDueDate("2025-07-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), day)

	_, err = parseDueDate("whenever", now)
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	for _, in := range []string{"14:30", "14.30", "1430"} {
		at, err := parseClock(in)
		require.NoError(t, err)
		assert.Equal(t, 14, at.Hour())
		assert.Equal(t, 30, at.Minute())
	}
	_, err := parseClock("25:99")
	assert.Error(t, err)
}

func TestParseEstimate(t *testing.T) {
	minutes, err := parseEstimate("45")
	require.NoError(t, err)
	assert.Equal(t, 45, minutes)

	minutes, err = parseEstimate("1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90, minutes)

	_, err = parseEstimate("0")
	assert.Error(t, err)
	_, err = parseEstimate("soon")
	assert.Error(t, err)
}
