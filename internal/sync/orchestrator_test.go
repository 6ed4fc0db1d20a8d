package sync

import (
	"path/filepath"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktide/tasktide/internal/calendar"
	"github.com/tasktide/tasktide/internal/notify"
	"github.com/tasktide/tasktide/internal/timeutil"
	"github.com/tasktide/tasktide/models"
	"github.com/tasktide/tasktide/store"
)

type fakeClock struct {
	mu  gosync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	t     *testing.T
	orch  *Orchestrator
	store store.TaskStore
	cal   *calendar.MemoryStore
	rec   *notify.Recorder
	clock *fakeClock
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	st := store.NewFileTaskStore()
	require.NoError(t, st.Initialize(map[string]string{
		"dataFile": filepath.Join(t.TempDir(), "tasks.json"),
	}))
	t.Cleanup(func() { _ = st.Close() })

	f := &fixture{
		t:     t,
		store: st,
		cal:   calendar.NewMemoryStore(),
		rec:   notify.NewRecorder(),
		clock: &fakeClock{now: time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)},
	}
	f.orch = NewOrchestrator(f.store, f.cal, nil, f.rec, f.clock, opts)
	return f
}

// scheduledTask creates a task that qualifies for forward sync.
func (f *fixture) scheduledTask(title string, due time.Time, minutes int) models.Task {
	f.t.Helper()
	day := timeutil.DayStart(due)
	created, err := f.store.CreateTask(models.Task{
		Title:            title,
		DueDate:          &day,
		DueTime:          &due,
		EstimatedMinutes: &minutes,
	})
	require.NoError(f.t, err)
	return created
}

func (f *fixture) task(id string) models.Task {
	f.t.Helper()
	got, err := f.store.GetTask(id)
	require.NoError(f.t, err)
	return got
}

func (f *fixture) event(t models.Task) *calendar.Event {
	f.t.Helper()
	require.NotNil(f.t, t.CalendarEventID)
	ev, err := f.cal.FindByID(*t.CalendarEventID)
	require.NoError(f.t, err)
	require.NotNil(f.t, ev)
	return ev
}

func TestForwardCreatesEventAndLinks(t *testing.T) {
	f := newFixture(t, Options{})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Write report", due, 45)

	stats := f.orch.SyncForward()
	assert.Equal(t, 1, stats.Created)

	task := f.task(created.ID)
	require.NotNil(t, task.CalendarEventID)
	require.NotNil(t, task.CalendarItemID)
	require.NotNil(t, task.SyncedStart)
	require.NotNil(t, task.SyncedEnd)
	assert.True(t, task.SyncedStart.Equal(due))
	assert.True(t, task.SyncedEnd.Equal(due.Add(45*time.Minute)))

	ev := f.event(task)
	assert.Equal(t, "Write report", ev.Title)
	assert.True(t, ev.Start.Equal(due))
	assert.True(t, ev.End.Equal(due.Add(45*time.Minute)))

	// A second pass with nothing changed pushes nothing.
	stats = f.orch.SyncForward()
	assert.Zero(t, stats.Created)
	assert.Zero(t, stats.Updated)
	events, err := f.cal.Events(calendar.Window{Start: due.Add(-24 * time.Hour), End: due.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestForwardIgnoresUnscheduledAndArchived(t *testing.T) {
	f := newFixture(t, Options{})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	day := timeutil.DayStart(due)

	_, err := f.store.CreateTask(models.Task{Title: "No schedule at all"})
	require.NoError(t, err)
	_, err = f.store.CreateTask(models.Task{Title: "Date but no time", DueDate: &day})
	require.NoError(t, err)
	minutes := 30
	_, err = f.store.CreateTask(models.Task{Title: "No estimate", DueDate: &day, DueTime: &due})
	require.NoError(t, err)
	archived, err := f.store.CreateTask(models.Task{
		Title: "Archived", DueDate: &day, DueTime: &due, EstimatedMinutes: &minutes,
	})
	require.NoError(t, err)
	_, err = f.store.UpdateTask(archived.ID, map[string]interface{}{"archived": true})
	require.NoError(t, err)

	stats := f.orch.SyncForward()
	assert.Zero(t, stats.Created)

	events, err := f.cal.Events(calendar.Window{Start: day, End: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestForwardBusyOnlyPushesPlaceholder(t *testing.T) {
	f := newFixture(t, Options{BusyOnly: true})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created, err := f.store.CreateTask(models.Task{
		Title:            "Salary negotiation prep",
		Notes:            "ask for 15%",
		DueDate:          ptrTime(timeutil.DayStart(due)),
		DueTime:          &due,
		EstimatedMinutes: ptrInt(60),
	})
	require.NoError(t, err)

	f.orch.SyncForward()

	ev := f.event(f.task(created.ID))
	assert.Equal(t, "Busy", ev.Title)
	assert.Empty(t, ev.Notes)
	assert.Equal(t, "Salary negotiation prep", f.task(created.ID).Title)
}

func TestForwardPushesOnlyChangedFields(t *testing.T) {
	f := newFixture(t, Options{})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Draft slides", due, 30)
	f.orch.SyncForward()

	firstEvent := f.event(f.task(created.ID))

	_, err := f.store.UpdateTask(created.ID, map[string]interface{}{"title": "Draft slides v2"})
	require.NoError(t, err)
	f.clock.advance(time.Minute)

	stats := f.orch.SyncForward()
	assert.Equal(t, 1, stats.Updated)

	ev := f.event(f.task(created.ID))
	assert.Equal(t, firstEvent.ID, ev.ID)
	assert.Equal(t, "Draft slides v2", ev.Title)
	assert.True(t, ev.Start.Equal(due), "start must not move on a title change")

	// Moving the due time pushes a new window and records it on the task.
	moved := due.Add(2 * time.Hour)
	_, err = f.store.UpdateTask(created.ID, map[string]interface{}{"dueTime": moved})
	require.NoError(t, err)
	f.clock.advance(time.Minute)

	stats = f.orch.SyncForward()
	assert.Equal(t, 1, stats.Updated)
	ev = f.event(f.task(created.ID))
	assert.True(t, ev.Start.Equal(moved))
	assert.True(t, f.task(created.ID).SyncedStart.Equal(moved))
}

func TestCompletionKeepPrefixesTitleOnce(t *testing.T) {
	f := newFixture(t, Options{CompletionPolicy: PolicyKeep})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Pay invoices", due, 30)
	f.orch.SyncForward()

	_, err := f.store.CompleteTask(created.ID)
	require.NoError(t, err)
	f.clock.advance(time.Minute)

	stats := f.orch.SyncForward()
	assert.Equal(t, 1, stats.Completed)
	ev := f.event(f.task(created.ID))
	assert.Equal(t, "✓ Pay invoices", ev.Title)

	// Repeated passes never stack prefixes.
	f.clock.advance(time.Minute)
	stats = f.orch.SyncForward()
	assert.Zero(t, stats.Completed)
	ev = f.event(f.task(created.ID))
	assert.Equal(t, 1, strings.Count(ev.Title, "✓"))
}

func TestCompletionDeleteRemovesEventAndUnlinks(t *testing.T) {
	f := newFixture(t, Options{CompletionPolicy: PolicyDelete})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Book flights", due, 30)
	f.orch.SyncForward()

	eventID := *f.task(created.ID).CalendarEventID
	_, err := f.store.CompleteTask(created.ID)
	require.NoError(t, err)
	f.clock.advance(time.Minute)

	stats := f.orch.SyncForward()
	assert.Equal(t, 1, stats.Completed)

	gone, err := f.cal.FindByID(eventID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	task := f.task(created.ID)
	assert.Nil(t, task.CalendarEventID)
	assert.Nil(t, task.CalendarItemID)
	assert.Nil(t, task.SyncedStart)
	assert.Nil(t, task.SyncedEnd)
	// Unlinking a completed task is routine, not an externally deleted event.
	assert.Empty(t, f.rec.EventsOf(notify.KindEventDeleted))
}

func TestReversePullsMovedEvent(t *testing.T) {
	f := newFixture(t, Options{})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Dentist", due, 30)
	f.orch.SyncForward()
	f.clock.advance(forwardGuard + time.Second)

	ev := f.event(f.task(created.ID))
	movedStart := time.Date(2025, time.June, 4, 10, 30, 0, 0, time.UTC)
	ev.Start = movedStart
	ev.End = movedStart.Add(time.Hour)
	require.NoError(t, f.cal.Update(*ev))

	stats := f.orch.SyncReverse()
	assert.Equal(t, 1, stats.Pulled)

	task := f.task(created.ID)
	require.NotNil(t, task.DueTime)
	assert.True(t, task.DueTime.Equal(movedStart))
	assert.True(t, task.DueDate.Equal(timeutil.DayStart(movedStart)))
	require.NotNil(t, task.EstimatedMinutes)
	assert.Equal(t, 60, *task.EstimatedMinutes)
	assert.True(t, task.SyncedStart.Equal(movedStart))
	require.NotNil(t, task.LastSyncedAt)
}

func TestReverseSkipsRecentlyPushedTasks(t *testing.T) {
	f := newFixture(t, Options{})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Standup notes", due, 15)
	f.orch.SyncForward()

	// An edit lands between our push and the reverse pass. Within the guard
	// window the reverse pass must not touch the task at all.
	ev := f.event(f.task(created.ID))
	ev.Start = due.Add(3 * time.Hour)
	ev.End = due.Add(3 * time.Hour).Add(15 * time.Minute)
	require.NoError(t, f.cal.Update(*ev))

	stats := f.orch.SyncReverse()
	assert.Zero(t, stats.Pulled)
	assert.Equal(t, 1, stats.Skipped)
	task := f.task(created.ID)
	assert.True(t, task.DueTime.Equal(due), "guarded task must keep its schedule")

	// Once the guard expires the same edit flows back.
	f.clock.advance(forwardGuard + time.Second)
	stats = f.orch.SyncReverse()
	assert.Equal(t, 1, stats.Pulled)
	assert.True(t, f.task(created.ID).DueTime.Equal(due.Add(3*time.Hour)))
}

func TestForwardSkipsRecentlyPulledTasks(t *testing.T) {
	f := newFixture(t, Options{})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Review PR", due, 30)
	f.orch.SyncForward()
	f.clock.advance(forwardGuard + time.Second)

	ev := f.event(f.task(created.ID))
	ev.Start = due.Add(time.Hour)
	ev.End = due.Add(time.Hour).Add(30 * time.Minute)
	require.NoError(t, f.cal.Update(*ev))
	require.Equal(t, 1, f.orch.SyncReverse().Pulled)

	// The pull itself changed the task; an immediate forward pass must not
	// echo that change back to the calendar.
	eventBefore := *f.event(f.task(created.ID))
	stats := f.orch.SyncForward()
	assert.Zero(t, stats.Updated)
	assert.Equal(t, 1, stats.Skipped)
	eventAfter := *f.event(f.task(created.ID))
	assert.Equal(t, eventBefore.UpdatedAt, eventAfter.UpdatedAt)

	f.clock.advance(reverseGuard + time.Second)
	stats = f.orch.SyncForward()
	assert.Zero(t, stats.Updated, "pulled state already matches the event")
}

func TestReverseRelinksAfterIDChurn(t *testing.T) {
	f := newFixture(t, Options{})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Quarterly review", due, 30)
	f.orch.SyncForward()
	f.clock.advance(forwardGuard + time.Second)

	oldID := *f.task(created.ID).CalendarEventID
	newID, err := f.cal.ChurnID(oldID)
	require.NoError(t, err)

	stats := f.orch.SyncReverse()
	assert.Equal(t, 1, stats.Pulled)
	assert.Zero(t, stats.Unlinked)

	task := f.task(created.ID)
	require.NotNil(t, task.CalendarEventID)
	assert.Equal(t, newID, *task.CalendarEventID)
	assert.Empty(t, f.rec.EventsOf(notify.KindEventDeleted))
}

func TestReverseUnlinksWhenEventGone(t *testing.T) {
	f := newFixture(t, Options{})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Garage appointment", due, 30)
	f.orch.SyncForward()
	f.clock.advance(forwardGuard + time.Second)

	require.NoError(t, f.cal.Delete(*f.task(created.ID).CalendarEventID))

	stats := f.orch.SyncReverse()
	assert.Equal(t, 1, stats.Unlinked)

	task := f.task(created.ID)
	assert.Nil(t, task.CalendarEventID)
	assert.Nil(t, task.CalendarItemID)
	assert.Nil(t, task.SyncedStart)
	assert.Nil(t, task.SyncedEnd)
	assert.Nil(t, task.LastSyncedAt)

	deleted := f.rec.EventsOf(notify.KindEventDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, created.ID, deleted[0].TaskID)
	assert.Contains(t, deleted[0].Body, "Garage appointment")
}

func TestReverseCheckmarkCompletesTask(t *testing.T) {
	f := newFixture(t, Options{})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Water plants", due, 15)
	f.orch.SyncForward()
	f.clock.advance(forwardGuard + time.Second)

	ev := f.event(f.task(created.ID))
	ev.Title = "✓ Water plants"
	require.NoError(t, f.cal.Update(*ev))

	stats := f.orch.SyncReverse()
	assert.Equal(t, 1, stats.Completed)

	task := f.task(created.ID)
	assert.True(t, task.IsCompleted())
	assert.NotNil(t, task.CompletedAt)
	assert.Equal(t, "Water plants", task.Title, "checked title must not be pulled")
	require.NotNil(t, task.LastSyncedAt)

	// The follow-up forward pass sees a completed task whose event already
	// carries the mark; nothing further happens.
	f.clock.advance(reverseGuard + time.Second)
	stats = f.orch.SyncForward()
	assert.Zero(t, stats.Completed)
	assert.Equal(t, "✓ Water plants", f.event(f.task(created.ID)).Title)
}

func TestReverseCheckmarkUsesCompleter(t *testing.T) {
	f := newFixture(t, Options{})
	completed := make([]string, 0, 1)
	f.orch.completer = completerFunc(func(id string) (models.Task, *models.Task, error) {
		completed = append(completed, id)
		task, err := f.store.CompleteTask(id)
		return task, nil, err
	})

	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Log expenses", due, 15)
	f.orch.SyncForward()
	f.clock.advance(forwardGuard + time.Second)

	ev := f.event(f.task(created.ID))
	ev.Title = "✓ " + ev.Title
	require.NoError(t, f.cal.Update(*ev))

	f.orch.SyncReverse()
	require.Len(t, completed, 1)
	assert.Equal(t, created.ID, completed[0])
}

func TestReverseBusyOnlyNeverPullsContent(t *testing.T) {
	f := newFixture(t, Options{BusyOnly: true})
	due := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)
	created := f.scheduledTask("Therapy session", due, 50)
	f.orch.SyncForward()
	f.clock.advance(forwardGuard + time.Second)

	ev := f.event(f.task(created.ID))
	ev.Title = "Something the other attendee typed"
	ev.Notes = "shared notes"
	ev.Start = due.Add(time.Hour)
	ev.End = due.Add(time.Hour).Add(50 * time.Minute)
	require.NoError(t, f.cal.Update(*ev))

	stats := f.orch.SyncReverse()
	assert.Equal(t, 1, stats.Pulled)

	task := f.task(created.ID)
	assert.Equal(t, "Therapy session", task.Title)
	assert.Empty(t, task.Notes)
	assert.True(t, task.DueTime.Equal(due.Add(time.Hour)), "schedule still flows back")
}

type completerFunc func(id string) (models.Task, *models.Task, error)

func (f completerFunc) Complete(id string) (models.Task, *models.Task, error) { return f(id) }

func ptrTime(t time.Time) *time.Time { return &t }
func ptrInt(i int) *int              { return &i }
