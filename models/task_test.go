package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func validTask() Task {
	now := time.Now()
	return Task{
		ID:        uuid.NewString(),
		Title:     "Write quarterly report",
		Status:    StatusPending,
		Priority:  PriorityMedium,
		Category:  CategoryWork,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTaskValidation(t *testing.T) {
	badEstimate := -5

	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr bool
	}{
		{"valid task", func(task *Task) {}, false},
		{"missing id", func(task *Task) { task.ID = "" }, true},
		{"non-uuid id", func(task *Task) { task.ID = "task-1" }, true},
		{"empty title", func(task *Task) { task.Title = "" }, true},
		{"unknown status", func(task *Task) { task.Status = "paused" }, true},
		{"unknown priority", func(task *Task) { task.Priority = "critical" }, true},
		{"unknown category", func(task *Task) { task.Category = "hobby" }, true},
		{"negative estimate", func(task *Task) { task.EstimatedMinutes = &badEstimate }, true},
		{"bad parent id", func(task *Task) { bad := "nope"; task.ParentID = &bad }, true},
		{"no category is fine", func(task *Task) { task.Category = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(&task)
			err := ValidateStruct(task)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecurringRuleValidation(t *testing.T) {
	tests := []struct {
		name    string
		rule    RecurringRule
		wantErr bool
	}{
		{"daily", RecurringRule{Frequency: FreqDaily}, false},
		{"weekly with days", RecurringRule{Frequency: FreqWeekly, DaysOfWeek: []int{2, 4, 6}}, false},
		{"hourly", RecurringRule{Frequency: FreqHourly, HourInterval: 3}, false},
		{"times per day with specific times", RecurringRule{Frequency: FreqTimesPerDay, TimesPerDay: 2, SpecificTimes: []TimeOfDay{{Hour: 9}, {Hour: 21, Minute: 30}}}, false},
		{"unknown frequency", RecurringRule{Frequency: "fortnightly"}, true},
		{"day of week out of range", RecurringRule{Frequency: FreqWeekly, DaysOfWeek: []int{0}}, true},
		{"specific time out of range", RecurringRule{Frequency: FreqTimesPerDay, SpecificTimes: []TimeOfDay{{Hour: 24}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.rule)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPriorityWeightOrdering(t *testing.T) {
	order := []TaskPriority{PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	for i := 1; i < len(order); i++ {
		if order[i-1].Weight() >= order[i].Weight() {
			t.Errorf("expected %s < %s", order[i-1], order[i])
		}
	}
}

func TestEffectiveCategory(t *testing.T) {
	task := validTask()
	if got := task.EffectiveCategory(); got != "work" {
		t.Errorf("EffectiveCategory() = %q, want work", got)
	}

	custom := "deep-focus"
	task.CustomCategory = &custom
	if got := task.EffectiveCategory(); got != "deep-focus" {
		t.Errorf("custom category should win, got %q", got)
	}

	task = validTask()
	task.Category = ""
	if got := task.EffectiveCategory(); got != "none" {
		t.Errorf("empty category should read as none, got %q", got)
	}
}

func TestDueAt(t *testing.T) {
	task := validTask()
	if task.DueAt() != nil {
		t.Fatal("no due date should mean nil DueAt")
	}

	due := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)
	task.DueDate = &due
	if got := task.DueAt(); !got.Equal(due) {
		t.Errorf("date-only DueAt = %v, want midnight %v", got, due)
	}

	clock := time.Date(0, time.January, 1, 14, 30, 0, 0, time.UTC)
	task.DueTime = &clock
	want := time.Date(2025, time.June, 3, 14, 30, 0, 0, time.UTC)
	if got := task.DueAt(); !got.Equal(want) {
		t.Errorf("combined DueAt = %v, want %v", got, want)
	}
}

func TestScheduleWindow(t *testing.T) {
	task := validTask()
	if _, _, ok := task.ScheduleWindow(); ok {
		t.Fatal("task without due time should not be scheduled")
	}

	due := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)
	clock := time.Date(0, time.January, 1, 9, 0, 0, 0, time.UTC)
	est := 45
	task.DueDate = &due
	task.DueTime = &clock
	task.EstimatedMinutes = &est

	start, end, ok := task.ScheduleWindow()
	if !ok {
		t.Fatal("expected a schedule window")
	}
	if start.Hour() != 9 || end.Sub(start) != 45*time.Minute {
		t.Errorf("window = %v..%v", start, end)
	}
}

func TestIntradayCountOn(t *testing.T) {
	task := validTask()
	today := time.Date(2025, time.June, 3, 15, 0, 0, 0, time.UTC)

	if got := task.IntradayCountOn(today); got != 0 {
		t.Errorf("no intraday date should read 0, got %d", got)
	}

	stamp := time.Date(2025, time.June, 3, 9, 12, 0, 0, time.UTC)
	task.IntradayCount = 4
	task.IntradayDate = &stamp
	if got := task.IntradayCountOn(today); got != 4 {
		t.Errorf("same-day count = %d, want 4", got)
	}

	tomorrow := today.AddDate(0, 0, 1)
	if got := task.IntradayCountOn(tomorrow); got != 0 {
		t.Errorf("stale count should lazily read 0, got %d", got)
	}
}

func TestActiveWindowDefaults(t *testing.T) {
	rule := RecurringRule{Frequency: FreqHourly}
	start, end := rule.ActiveWindow()
	if start != 8 || end != 20 {
		t.Errorf("default window = %d..%d, want 8..20", start, end)
	}

	rule.ActiveHoursStart = 6
	rule.ActiveHoursEnd = 22
	start, end = rule.ActiveWindow()
	if start != 6 || end != 22 {
		t.Errorf("window = %d..%d, want 6..22", start, end)
	}
}
