// Package notify is the outbound notification port. The core only decides
// when something is worth telling the user; delivery is up to the
// implementation behind the interface.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// EventKind classifies published notifications.
type EventKind string

const (
	KindReminder     EventKind = "reminder"
	KindConflict     EventKind = "conflict"
	KindSyncIssue    EventKind = "sync-issue"
	KindEventDeleted EventKind = "event-deleted"
)

// Event is one user-facing notification.
type Event struct {
	Kind   EventKind `json:"kind"`
	TaskID string    `json:"taskId,omitempty"`
	Title  string    `json:"title"`
	Body   string    `json:"body,omitempty"`
	At     time.Time `json:"at"`
}

// Notifier schedules task reminders and publishes one-off notifications.
type Notifier interface {
	ScheduleReminder(taskID, title string, at time.Time) error
	CancelReminder(taskID string) error
	Publish(ev Event) error
}

// LogNotifier writes every notification to the structured log. It is the
// default sink when no platform integration is wired up.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier builds a notifier over the given logger, or slog.Default()
// when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ScheduleReminder(taskID, title string, at time.Time) error {
	n.logger.Info("reminder scheduled", "task", taskID, "title", title, "at", at)
	return nil
}

func (n *LogNotifier) CancelReminder(taskID string) error {
	n.logger.Info("reminder canceled", "task", taskID)
	return nil
}

func (n *LogNotifier) Publish(ev Event) error {
	n.logger.Info("notification", "kind", ev.Kind, "task", ev.TaskID, "title", ev.Title, "body", ev.Body)
	return nil
}

// Recorder captures notifications for tests.
type Recorder struct {
	mu        sync.Mutex
	reminders map[string]time.Time
	canceled  []string
	events    []Event
}

// NewRecorder builds an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{reminders: make(map[string]time.Time)}
}

func (r *Recorder) ScheduleReminder(taskID, _ string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reminders[taskID] = at
	return nil
}

func (r *Recorder) CancelReminder(taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reminders, taskID)
	r.canceled = append(r.canceled, taskID)
	return nil
}

func (r *Recorder) Publish(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Reminder returns the scheduled time for a task, if any.
func (r *Recorder) Reminder(taskID string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, ok := r.reminders[taskID]
	return at, ok
}

// Canceled lists the task IDs whose reminders were canceled, in order.
func (r *Recorder) Canceled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.canceled))
	copy(out, r.canceled)
	return out
}

// Events returns the published notifications, in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// EventsOf filters published notifications by kind.
func (r *Recorder) EventsOf(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
