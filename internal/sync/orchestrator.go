/*
Package sync keeps scheduled tasks and calendar events in step, in both
directions. The forward pass pushes task state onto the calendar; the reverse
pass folds external calendar edits back into tasks. Two time-based guards
stop the passes from replaying each other's writes.
*/
package sync

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tasktide/tasktide/internal/calendar"
	"github.com/tasktide/tasktide/internal/notify"
	"github.com/tasktide/tasktide/internal/timeutil"
	"github.com/tasktide/tasktide/models"
	"github.com/tasktide/tasktide/store"
)

// Completion policies for linked tasks.
const (
	PolicyKeep   = "keep"
	PolicyDelete = "delete"
)

const (
	// reverseGuard skips forward pushes for tasks the reverse pass touched
	// moments ago; forwardGuard does the converse. Both are approximations
	// accepted in place of full echo tracking.
	reverseGuard = 3 * time.Second
	forwardGuard = 10 * time.Second

	// completedPrefix marks a linked event whose task is done. The reverse
	// pass treats an externally applied prefix as a completion request.
	completedPrefix = "✓ "

	// placeholderTitle stands in for real titles in busy-only mode.
	placeholderTitle = "Busy"
)

// Options tune the orchestrator's outward behavior.
type Options struct {
	// BusyOnly pushes placeholder titles and empty notes instead of task
	// content, and never pulls titles or notes back.
	BusyOnly bool
	// CompletionPolicy is PolicyKeep (prefix the event) or PolicyDelete
	// (remove it and unlink the task).
	CompletionPolicy string
}

// TaskCompleter completes a task with full lifecycle semantics (recurrence
// spawn, pattern learning). The task service satisfies it; without one the
// orchestrator falls back to the bare store transition.
type TaskCompleter interface {
	Complete(id string) (models.Task, *models.Task, error)
}

// Stats summarizes one pass.
type Stats struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Completed int `json:"completed"`
	Unlinked  int `json:"unlinked"`
	Pulled    int `json:"pulled"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

func (s Stats) String() string {
	return fmt.Sprintf("created=%d updated=%d completed=%d unlinked=%d pulled=%d skipped=%d errors=%d",
		s.Created, s.Updated, s.Completed, s.Unlinked, s.Pulled, s.Skipped, s.Errors)
}

// Orchestrator owns the two sync passes. Each pass is single-flight; forward
// and reverse may interleave freely.
type Orchestrator struct {
	tasks     store.TaskStore
	cal       calendar.Store
	completer TaskCompleter
	notifier  notify.Notifier
	clock     timeutil.Clock
	opts      Options

	forwardBusy atomic.Bool
	reverseBusy atomic.Bool

	mu             sync.Mutex
	recentlyPushed map[string]time.Time
}

// NewOrchestrator wires an orchestrator. completer may be nil; clock may be
// nil for the real one; an empty completion policy defaults to keep.
func NewOrchestrator(tasks store.TaskStore, cal calendar.Store, completer TaskCompleter, notifier notify.Notifier, clock timeutil.Clock, opts Options) *Orchestrator {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if opts.CompletionPolicy == "" {
		opts.CompletionPolicy = PolicyKeep
	}
	return &Orchestrator{
		tasks:          tasks,
		cal:            cal,
		completer:      completer,
		notifier:       notifier,
		clock:          clock,
		opts:           opts,
		recentlyPushed: make(map[string]time.Time),
	}
}

// markPushed records a calendar write for a task; the reverse pass ignores
// the task while the record is fresh.
func (o *Orchestrator) markPushed(taskID string, now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recentlyPushed[taskID] = now
}

func (o *Orchestrator) pushedWithinGuard(taskID string, now time.Time) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	at, ok := o.recentlyPushed[taskID]
	return ok && now.Sub(at) < forwardGuard
}

func (o *Orchestrator) pruneRecentlyPushed(now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, at := range o.recentlyPushed {
		if now.Sub(at) >= forwardGuard {
			delete(o.recentlyPushed, id)
		}
	}
}

func (o *Orchestrator) desiredTitle(t models.Task) string {
	if o.opts.BusyOnly {
		return placeholderTitle
	}
	return t.Title
}

func (o *Orchestrator) desiredNotes(t models.Task) string {
	if o.opts.BusyOnly {
		return ""
	}
	return t.Notes
}

// SyncForward pushes task state onto the calendar. A newly scheduled task
// gets an event created; a linked task gets only its changed fields pushed.
// Finished tasks get the completion policy applied. Per-task failures are
// logged and skipped; the next pass retries them.
func (o *Orchestrator) SyncForward() Stats {
	var stats Stats
	if !o.forwardBusy.CompareAndSwap(false, true) {
		return stats
	}
	defer o.forwardBusy.Store(false)

	now := o.clock.Now()
	o.pruneRecentlyPushed(now)

	tasks, err := o.tasks.ListTasks(nil, nil)
	if err != nil {
		slog.Error("forward sync: list tasks", "error", err)
		stats.Errors++
		return stats
	}

	for _, t := range tasks {
		if t.Deleted || t.Archived {
			continue
		}
		if t.IsCompleted() {
			if t.CalendarEventID != nil {
				o.applyCompletionPolicy(t, now, &stats)
			}
			continue
		}
		if !t.IsScheduled() {
			continue
		}
		if t.LastSyncedAt != nil && now.Sub(*t.LastSyncedAt) < reverseGuard {
			stats.Skipped++
			continue
		}

		if t.CalendarEventID == nil {
			o.pushCreate(t, now, &stats)
		} else {
			o.pushUpdate(t, now, &stats)
		}
	}

	slog.Debug("forward sync pass done", "stats", stats.String())
	return stats
}

func (o *Orchestrator) pushCreate(t models.Task, now time.Time, stats *Stats) {
	start, end, ok := t.ScheduleWindow()
	if !ok {
		return
	}

	created, err := o.cal.Create(calendar.Event{
		Title: o.desiredTitle(t),
		Notes: o.desiredNotes(t),
		Start: start,
		End:   end,
	})
	if err != nil {
		slog.Warn("forward sync: create event", "task", t.ID, "error", err)
		stats.Errors++
		return
	}

	_, err = o.tasks.UpdateTask(t.ID, map[string]interface{}{
		"calendarEventId": created.ID,
		"calendarItemId":  created.StableID,
		"syncedStart":     start,
		"syncedEnd":       end,
	})
	if err != nil {
		slog.Warn("forward sync: record event link", "task", t.ID, "error", err)
		stats.Errors++
		return
	}

	o.markPushed(t.ID, now)
	stats.Created++
}

func (o *Orchestrator) pushUpdate(t models.Task, now time.Time, stats *Stats) {
	ev, relinked, err := o.resolveEvent(t)
	if err != nil {
		slog.Warn("forward sync: resolve event", "task", t.ID, "error", err)
		stats.Errors++
		return
	}
	if ev == nil {
		o.clearLink(t, now, stats)
		return
	}

	taskUpdates := map[string]interface{}{}
	if relinked {
		taskUpdates["calendarEventId"] = ev.ID
	}

	start, end, ok := t.ScheduleWindow()
	if !ok {
		return
	}

	next := *ev
	changed := false
	if title := o.desiredTitle(t); next.Title != title {
		next.Title = title
		changed = true
	}
	if notes := o.desiredNotes(t); next.Notes != notes {
		next.Notes = notes
		changed = true
	}
	if !next.Start.Equal(start) || !next.End.Equal(end) {
		next.Start = start
		next.End = end
		changed = true
		taskUpdates["syncedStart"] = start
		taskUpdates["syncedEnd"] = end
	}

	if changed {
		if err := o.cal.Update(next); err != nil {
			slog.Warn("forward sync: update event", "task", t.ID, "event", next.ID, "error", err)
			stats.Errors++
			return
		}
		o.markPushed(t.ID, now)
		stats.Updated++
	}

	if len(taskUpdates) > 0 {
		if _, err := o.tasks.UpdateTask(t.ID, taskUpdates); err != nil {
			slog.Warn("forward sync: record link state", "task", t.ID, "error", err)
			stats.Errors++
		}
	}
}

// applyCompletionPolicy handles a completed task that still has a linked
// event: keep prefixes the title once, delete removes the event and unlinks.
func (o *Orchestrator) applyCompletionPolicy(t models.Task, now time.Time, stats *Stats) {
	ev, _, err := o.resolveEvent(t)
	if err != nil {
		slog.Warn("forward sync: resolve completed event", "task", t.ID, "error", err)
		stats.Errors++
		return
	}

	if o.opts.CompletionPolicy == PolicyDelete {
		if ev != nil {
			if err := o.cal.Delete(ev.ID); err != nil {
				slog.Warn("forward sync: delete completed event", "task", t.ID, "event", ev.ID, "error", err)
				stats.Errors++
				return
			}
			o.markPushed(t.ID, now)
		}
		o.clearLink(t, now, stats)
		stats.Completed++
		return
	}

	if ev == nil {
		o.clearLink(t, now, stats)
		return
	}
	if strings.HasPrefix(ev.Title, completedPrefix) {
		return
	}
	next := *ev
	next.Title = completedPrefix + next.Title
	if err := o.cal.Update(next); err != nil {
		slog.Warn("forward sync: mark event completed", "task", t.ID, "event", next.ID, "error", err)
		stats.Errors++
		return
	}
	o.markPushed(t.ID, now)
	stats.Completed++
}

// resolveEvent finds a linked task's event by id, falling back to the stable
// id when the provider churned the primary one. relinked reports that the
// fallback hit.
func (o *Orchestrator) resolveEvent(t models.Task) (ev *calendar.Event, relinked bool, err error) {
	if t.CalendarEventID != nil {
		ev, err = o.cal.FindByID(*t.CalendarEventID)
		if err != nil {
			return nil, false, err
		}
		if ev != nil {
			return ev, false, nil
		}
	}
	if t.CalendarItemID != nil {
		ev, err = o.cal.FindByStableID(*t.CalendarItemID)
		if err != nil {
			return nil, false, err
		}
		if ev != nil {
			return ev, true, nil
		}
	}
	return nil, false, nil
}

// clearLink removes every calendar link field from a task and tells the user
// the event disappeared externally.
func (o *Orchestrator) clearLink(t models.Task, now time.Time, stats *Stats) {
	_, err := o.tasks.UpdateTask(t.ID, map[string]interface{}{
		"calendarEventId": nil,
		"calendarItemId":  nil,
		"syncedStart":     nil,
		"syncedEnd":       nil,
		"lastSyncedAt":    nil,
	})
	if err != nil {
		slog.Warn("sync: clear event link", "task", t.ID, "error", err)
		stats.Errors++
		return
	}
	stats.Unlinked++

	if o.notifier != nil && !t.IsCompleted() {
		_ = o.notifier.Publish(notify.Event{
			Kind:   notify.KindEventDeleted,
			TaskID: t.ID,
			Title:  "Linked event removed externally",
			Body:   fmt.Sprintf("The calendar event for %q no longer exists.", t.Title),
			At:     now,
		})
	}
}

// SyncReverse folds external calendar edits back into linked tasks. A moved
// or resized event reschedules its task; a "✓ "-prefixed title completes it.
// Tasks pushed within the guard window are left alone so the pass never
// replays its own writes.
func (o *Orchestrator) SyncReverse() Stats {
	var stats Stats
	if !o.reverseBusy.CompareAndSwap(false, true) {
		return stats
	}
	defer o.reverseBusy.Store(false)

	now := o.clock.Now()
	o.pruneRecentlyPushed(now)

	tasks, err := o.tasks.ListTasks(func(t models.Task) bool {
		return t.CalendarEventID != nil && t.IsActionable()
	}, nil)
	if err != nil {
		slog.Error("reverse sync: list tasks", "error", err)
		stats.Errors++
		return stats
	}

	for _, t := range tasks {
		if o.pushedWithinGuard(t.ID, now) {
			stats.Skipped++
			continue
		}
		o.pullEvent(t, now, &stats)
	}

	slog.Debug("reverse sync pass done", "stats", stats.String())
	return stats
}

func (o *Orchestrator) pullEvent(t models.Task, now time.Time, stats *Stats) {
	ev, relinked, err := o.resolveEvent(t)
	if err != nil {
		slog.Warn("reverse sync: resolve event", "task", t.ID, "error", err)
		stats.Errors++
		return
	}
	if ev == nil {
		o.clearLink(t, now, stats)
		return
	}

	if strings.HasPrefix(ev.Title, completedPrefix) {
		o.completeFromCalendar(t, now, stats)
		return
	}

	updates := map[string]interface{}{}
	if relinked {
		updates["calendarEventId"] = ev.ID
	}

	if t.SyncedStart == nil || !ev.Start.Equal(*t.SyncedStart) {
		updates["dueDate"] = timeutil.DayStart(ev.Start)
		updates["dueTime"] = ev.Start
		updates["syncedStart"] = ev.Start
	}
	if t.SyncedEnd == nil || !ev.End.Equal(*t.SyncedEnd) {
		minutes := int(ev.End.Sub(ev.Start) / time.Minute)
		if minutes > 0 {
			updates["estimatedMinutes"] = minutes
		}
		updates["syncedEnd"] = ev.End
	}
	if !o.opts.BusyOnly {
		if ev.Title != "" && ev.Title != t.Title {
			updates["title"] = ev.Title
		}
		if ev.Notes != t.Notes {
			updates["notes"] = ev.Notes
		}
	}

	if len(updates) == 0 {
		return
	}
	updates["lastSyncedAt"] = now

	if _, err := o.tasks.UpdateTask(t.ID, updates); err != nil {
		slog.Warn("reverse sync: apply event changes", "task", t.ID, "error", err)
		stats.Errors++
		return
	}
	stats.Pulled++
}

// completeFromCalendar honors an externally applied completion mark.
func (o *Orchestrator) completeFromCalendar(t models.Task, now time.Time, stats *Stats) {
	var err error
	if o.completer != nil {
		_, _, err = o.completer.Complete(t.ID)
	} else {
		_, err = o.tasks.CompleteTask(t.ID)
	}
	if err != nil {
		slog.Warn("reverse sync: complete task from calendar", "task", t.ID, "error", err)
		stats.Errors++
		return
	}

	if _, err := o.tasks.UpdateTask(t.ID, map[string]interface{}{"lastSyncedAt": now}); err != nil {
		slog.Warn("reverse sync: record sync time", "task", t.ID, "error", err)
	}
	stats.Completed++
}
