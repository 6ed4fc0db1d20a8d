package priority

import (
	"testing"
	"time"

	"github.com/tasktide/tasktide/models"
)

type stubPatterns struct {
	last  string
	hours map[int]int
}

func (s stubPatterns) LastCompletedCategory() string { return s.last }

func (s stubPatterns) HourCount(category string, hour int) int { return s.hours[hour] }

func (s stubPatterns) PeakHourCount(category string) int {
	peak := 0
	for _, n := range s.hours {
		if n > peak {
			peak = n
		}
	}
	return peak
}

var now = time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)

func scoringTask(mutate func(*models.Task)) models.Task {
	t := models.Task{
		ID:        "11111111-2222-4333-8444-555555555555",
		Title:     "a task",
		Status:    models.StatusPending,
		Priority:  models.PriorityNone,
		Category:  models.CategoryNone,
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}
	mutate(&t)
	return t
}

func dueIn(d time.Duration) (*time.Time, *time.Time) {
	at := now.Add(d)
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	return &day, &at
}

func TestDueScoreBands(t *testing.T) {
	tests := []struct {
		name    string
		until   time.Duration
		wantLo  float64
		wantHi  float64
	}{
		{"overdue", -time.Hour, 40, 40},
		{"under two hours", 30 * time.Minute, 38, 38},
		{"later today", 12 * time.Hour, 30, 38},
		{"tomorrow", 36 * time.Hour, 20, 30},
		{"this week", 4 * 24 * time.Hour, 10, 20},
		{"far future", 30 * 24 * time.Hour, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := scoringTask(func(task *models.Task) {
				task.DueDate, task.DueTime = dueIn(tt.until)
			})
			got := dueScore(task, now)
			if got < tt.wantLo || got > tt.wantHi {
				t.Errorf("dueScore(%v) = %v, want within [%v,%v]", tt.until, got, tt.wantLo, tt.wantHi)
			}
		})
	}

	task := scoringTask(func(task *models.Task) {})
	if got := dueScore(task, now); got != 5 {
		t.Errorf("no due date = %v, want 5", got)
	}
}

func TestDueScoreCloserIsHigher(t *testing.T) {
	prev := 41.0
	for _, until := range []time.Duration{time.Hour, 6 * time.Hour, 20 * time.Hour, 30 * time.Hour, 60 * time.Hour, 10 * 24 * time.Hour} {
		task := scoringTask(func(task *models.Task) {
			task.DueDate, task.DueTime = dueIn(until)
		})
		got := dueScore(task, now)
		if got >= prev {
			t.Errorf("dueScore(%v) = %v, not below previous %v", until, got, prev)
		}
		prev = got
	}
}

func TestQuickWinScore(t *testing.T) {
	tests := []struct {
		name     string
		estimate *int
		want     float64
	}{
		{"unknown", nil, 3},
		{"five minutes", ptr(5), 10},
		{"fifteen minutes", ptr(15), 8},
		{"half hour", ptr(30), 5},
		{"an hour", ptr(60), 2},
		{"long haul", ptr(180), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := scoringTask(func(task *models.Task) { task.EstimatedMinutes = tt.estimate })
			if got := quickWinScore(task); got != tt.want {
				t.Errorf("quickWinScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeFitStaticTable(t *testing.T) {
	tests := []struct {
		category string
		hour     int
		want     float64
	}{
		{"work", 9, 10},
		{"work", 13, 6},
		{"work", 20, 2},
		{"personal", 19, 10},
		{"health", 6, 10},
		{"none", 9, 5},
	}

	for _, tt := range tests {
		if got := timeFitScore(tt.category, tt.hour, stubPatterns{}); got != tt.want {
			t.Errorf("timeFitScore(%s, %d) = %v, want %v", tt.category, tt.hour, got, tt.want)
		}
	}
}

func TestTimeFitLearnedForCustomCategories(t *testing.T) {
	patterns := stubPatterns{hours: map[int]int{9: 4, 14: 2}}

	if got := timeFitScore("deep-focus", 9, patterns); got != 10 {
		t.Errorf("peak hour fit = %v, want 10", got)
	}
	if got := timeFitScore("deep-focus", 14, patterns); got != 6 {
		t.Errorf("half-peak fit = %v, want 6", got)
	}
	if got := timeFitScore("deep-focus", 3, patterns); got != 2 {
		t.Errorf("never-seen hour fit = %v, want 2", got)
	}
	if got := timeFitScore("deep-focus", 9, stubPatterns{}); got != 5 {
		t.Errorf("no data fit = %v, want neutral 5", got)
	}
}

func TestScoreStaysWithinBounds(t *testing.T) {
	maxed := scoringTask(func(task *models.Task) {
		task.DueDate, task.DueTime = dueIn(-time.Hour)
		task.Priority = models.PriorityUrgent
		task.Category = models.CategoryWork
		task.CreatedAt = now.Add(-30 * 24 * time.Hour)
		task.EstimatedMinutes = ptr(5)
	})
	b := Score(maxed, now, stubPatterns{last: "work"})
	if b.Total > 100 {
		t.Errorf("total = %v, want <= 100", b.Total)
	}
	if b.Total != 100 {
		t.Errorf("fully maxed task should hit 100, got %v", b.Total)
	}

	minimal := scoringTask(func(task *models.Task) {
		task.EstimatedMinutes = ptr(240)
		task.Category = models.CategoryWork
		task.CreatedAt = now
	})
	b = Score(minimal, time.Date(2025, time.June, 3, 3, 0, 0, 0, time.UTC), stubPatterns{})
	if b.Total < 0 {
		t.Errorf("total = %v, want >= 0", b.Total)
	}
}

func TestScoreScenario(t *testing.T) {
	// Due in 30 minutes, urgent, 10 minute estimate, 10 days old, work
	// category at 09:00 with work momentum.
	task := scoringTask(func(task *models.Task) {
		task.DueDate, task.DueTime = dueIn(30 * time.Minute)
		task.Priority = models.PriorityUrgent
		task.Category = models.CategoryWork
		task.CreatedAt = now.Add(-10 * 24 * time.Hour)
		task.EstimatedMinutes = ptr(10)
	})

	b := Score(task, now, stubPatterns{last: "work"})
	if b.Total < 93 {
		t.Errorf("scenario total = %v, want >= 93", b.Total)
	}
	if len(b.Reasons) == 0 {
		t.Error("expected human-readable reasons")
	}
}

func TestScoreDeterminism(t *testing.T) {
	task := scoringTask(func(task *models.Task) {
		task.DueDate, task.DueTime = dueIn(5 * time.Hour)
		task.Priority = models.PriorityHigh
	})

	a := Score(task, now, stubPatterns{})
	b := Score(task, now, stubPatterns{})
	if a.Total != b.Total {
		t.Errorf("same inputs scored differently: %v vs %v", a.Total, b.Total)
	}
}

func ptr(v int) *int { return &v }
