package conflict

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktide/tasktide/internal/calendar"
	"github.com/tasktide/tasktide/models"
)

func at(hh, mm int) time.Time {
	return time.Date(2025, time.June, 3, hh, mm, 0, 0, time.UTC)
}

func scheduledTask(t *testing.T, title string, start time.Time, minutes int) models.Task {
	t.Helper()
	task := models.NewTask(uuid.NewString(), title)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	task.DueDate = &day
	task.DueTime = &start
	task.EstimatedMinutes = &minutes
	return *task
}

func seedEvent(t *testing.T, cal calendar.Store, ev calendar.Event) calendar.Event {
	t.Helper()
	created, err := cal.Create(ev)
	require.NoError(t, err)
	return created
}

func TestDetectEventConflictOverlap(t *testing.T) {
	cal := calendar.NewMemoryStore()
	seedEvent(t, cal, calendar.Event{Title: "standup", Start: at(10, 30), End: at(10, 45)})

	d := NewDetector(cal)
	task := scheduledTask(t, "write report", at(10, 0), 60)

	c, err := d.DetectEventConflict(task)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 15*time.Minute, c.Overlap)
	assert.Equal(t, at(10, 30), c.At)
	assert.Equal(t, KindTaskEvent, c.Kind)
	assert.Equal(t, "standup", c.Event.Title)
}

func TestDetectEventConflictClearSlot(t *testing.T) {
	cal := calendar.NewMemoryStore()
	seedEvent(t, cal, calendar.Event{Title: "lunch", Start: at(12, 0), End: at(13, 0)})

	d := NewDetector(cal)
	task := scheduledTask(t, "write report", at(10, 0), 60)

	c, err := d.DetectEventConflict(task)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDetectEventConflictNoDueDate(t *testing.T) {
	d := NewDetector(calendar.NewMemoryStore())
	task := *models.NewTask(uuid.NewString(), "someday")

	c, err := d.DetectEventConflict(task)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDetectEventConflictDefaultDuration(t *testing.T) {
	cal := calendar.NewMemoryStore()
	seedEvent(t, cal, calendar.Event{Title: "review", Start: at(10, 20), End: at(11, 0)})

	d := NewDetector(cal)
	task := scheduledTask(t, "quick check", at(10, 0), 0)
	task.EstimatedMinutes = nil

	// Without an estimate the task occupies 10:00-10:30, overlapping 10 minutes.
	c, err := d.DetectEventConflict(task)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 10*time.Minute, c.Overlap)
}

func TestDetectEventConflictSkipsAllDay(t *testing.T) {
	cal := calendar.NewMemoryStore()
	seedEvent(t, cal, calendar.Event{
		Title:  "public holiday",
		Start:  at(0, 0),
		End:    at(0, 0).AddDate(0, 0, 1),
		AllDay: true,
	})

	d := NewDetector(cal)
	task := scheduledTask(t, "write report", at(10, 0), 60)

	c, err := d.DetectEventConflict(task)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDetectEventConflictSkipsOwnLinkedEvent(t *testing.T) {
	cal := calendar.NewMemoryStore()
	own := seedEvent(t, cal, calendar.Event{Title: "write report", Start: at(10, 0), End: at(11, 0)})

	d := NewDetector(cal)
	task := scheduledTask(t, "write report", at(10, 0), 60)
	task.CalendarEventID = &own.ID
	task.CalendarItemID = &own.StableID

	// The task's own block on the calendar is not a conflict; the slot is
	// anchored to the linked event's start.
	c, err := d.DetectEventConflict(task)
	require.NoError(t, err)
	assert.Nil(t, c)

	other := seedEvent(t, cal, calendar.Event{Title: "sync call", Start: at(10, 15), End: at(10, 45)})
	c, err = d.DetectEventConflict(task)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, other.ID, c.Event.ID)
	assert.Equal(t, 30*time.Minute, c.Overlap)
}

func TestDetectEventConflictFirstMatchWins(t *testing.T) {
	cal := calendar.NewMemoryStore()
	seedEvent(t, cal, calendar.Event{Title: "second", Start: at(10, 40), End: at(11, 10)})
	first := seedEvent(t, cal, calendar.Event{Title: "first", Start: at(10, 10), End: at(10, 20)})

	d := NewDetector(cal)
	task := scheduledTask(t, "write report", at(10, 0), 60)

	// Events come back in start order, so the earlier overlap is reported
	// even though it was created later.
	c, err := d.DetectEventConflict(task)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, first.ID, c.Event.ID)
}

func TestEventConflictKindAndSeverity(t *testing.T) {
	cases := []struct {
		name         string
		eventStart   time.Time
		eventEnd     time.Time
		hasAttendees bool
		hasRecur     bool
		wantKind     Kind
		wantSeverity Severity
	}{
		{
			name:       "over half the slot is high",
			eventStart: at(10, 0), eventEnd: at(10, 45),
			wantKind: KindTaskEvent, wantSeverity: SeverityHigh,
		},
		{
			name:       "quarter of the slot is medium",
			eventStart: at(10, 0), eventEnd: at(10, 20),
			wantKind: KindTaskEvent, wantSeverity: SeverityMedium,
		},
		{
			name:       "small brush is low",
			eventStart: at(9, 30), eventEnd: at(10, 10),
			wantKind: KindTaskEvent, wantSeverity: SeverityLow,
		},
		{
			name:       "meeting escalates a quarter overlap to high",
			eventStart: at(10, 0), eventEnd: at(10, 20),
			hasAttendees: true,
			wantKind:     KindMeetingTask, wantSeverity: SeverityHigh,
		},
		{
			name:       "meeting with small brush is medium",
			eventStart: at(9, 30), eventEnd: at(10, 10),
			hasAttendees: true,
			wantKind:     KindMeetingTask, wantSeverity: SeverityMedium,
		},
		{
			name:       "recurring event escalates like a meeting",
			eventStart: at(10, 0), eventEnd: at(10, 20),
			hasRecur: true,
			wantKind: KindTaskEvent, wantSeverity: SeverityHigh,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cal := calendar.NewMemoryStore()
			seedEvent(t, cal, calendar.Event{
				Title:         "busy",
				Start:         tc.eventStart,
				End:           tc.eventEnd,
				HasAttendees:  tc.hasAttendees,
				HasRecurrence: tc.hasRecur,
			})

			d := NewDetector(cal)
			task := scheduledTask(t, "write report", at(10, 0), 60)

			c, err := d.DetectEventConflict(task)
			require.NoError(t, err)
			require.NotNil(t, c)
			assert.Equal(t, tc.wantKind, c.Kind)
			assert.Equal(t, tc.wantSeverity, c.Severity)
		})
	}
}

func TestDetectTaskConflicts(t *testing.T) {
	a := scheduledTask(t, "deep work", at(9, 0), 120)
	b := scheduledTask(t, "errand run", at(10, 0), 30)
	c := scheduledTask(t, "afternoon thing", at(15, 0), 60)
	unscheduled := *models.NewTask(uuid.NewString(), "someday")
	done := scheduledTask(t, "already done", at(9, 30), 60)
	done.Status = models.StatusCompleted

	conflicts := DetectTaskConflicts([]models.Task{a, b, c, unscheduled, done})
	require.Len(t, conflicts, 1)

	got := conflicts[0]
	assert.Equal(t, KindTaskTask, got.Kind)
	assert.Equal(t, a.ID, got.Task.ID)
	assert.Equal(t, b.ID, got.Other.ID)
	assert.Equal(t, 30*time.Minute, got.Overlap)
	assert.Equal(t, at(10, 0), got.At)
	// The whole of the shorter task is swallowed.
	assert.Equal(t, SeverityHigh, got.Severity)
}

func TestDetectTaskConflictsMediumSeverity(t *testing.T) {
	a := scheduledTask(t, "deep work", at(9, 0), 120)
	b := scheduledTask(t, "review", at(10, 40), 60)

	conflicts := DetectTaskConflicts([]models.Task{a, b})
	require.Len(t, conflicts, 1)
	// 20 minutes of a 60-minute task: under half the shorter duration.
	assert.Equal(t, 20*time.Minute, conflicts[0].Overlap)
	assert.Equal(t, SeverityMedium, conflicts[0].Severity)
}

func TestScanOrdersAndSuppressesPast(t *testing.T) {
	cal := calendar.NewMemoryStore()
	seedEvent(t, cal, calendar.Event{Title: "big meeting", Start: at(14, 0), End: at(15, 0), HasAttendees: true})
	seedEvent(t, cal, calendar.Event{Title: "morning scrum", Start: at(8, 0), End: at(8, 15)})

	morning := scheduledTask(t, "stale overlap", at(8, 0), 15)
	afternoon := scheduledTask(t, "slide prep", at(14, 0), 60)
	early := scheduledTask(t, "inbox zero", at(11, 30), 60)
	late := scheduledTask(t, "inbox zero again", at(12, 0), 60)

	d := NewDetector(cal)
	conflicts, err := d.Scan([]models.Task{morning, afternoon, early, late}, at(12, 0))
	require.NoError(t, err)

	// The 08:00 overlap ended before noon and is dropped. The high-severity
	// meeting clash sorts ahead of the earlier medium task-task clash.
	require.Len(t, conflicts, 2)
	assert.Equal(t, KindMeetingTask, conflicts[0].Kind)
	assert.Equal(t, SeverityHigh, conflicts[0].Severity)
	assert.Equal(t, KindTaskTask, conflicts[1].Kind)
	assert.Equal(t, at(12, 0), conflicts[1].At)
}
