/*
Package conflict finds scheduling collisions between tasks and calendar
events, and between tasks themselves. Conflicts are ephemeral: detection runs
on demand and nothing here is persisted.
*/
package conflict

import (
	"fmt"
	"sort"
	"time"

	"github.com/tasktide/tasktide/internal/calendar"
	"github.com/tasktide/tasktide/internal/timeutil"
	"github.com/tasktide/tasktide/models"
)

// Kind classifies what collided.
type Kind string

const (
	KindTaskEvent   Kind = "task-event"
	KindMeetingTask Kind = "meeting-task"
	KindTaskTask    Kind = "task-task"
)

// Severity grades how disruptive a conflict is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// DefaultTaskDuration stands in for tasks without an estimate.
const DefaultTaskDuration = 30 * time.Minute

// fetchPad widens the event fetch window around the task's slot.
const fetchPad = time.Hour

// Conflict is one detected collision. Exactly one of Event and Other is set,
// matching the kind.
type Conflict struct {
	Kind     Kind            `json:"kind"`
	Severity Severity        `json:"severity"`
	Task     models.Task     `json:"task"`
	Event    *calendar.Event `json:"event,omitempty"`
	Other    *models.Task    `json:"other,omitempty"`
	At       time.Time       `json:"at"`
	Overlap  time.Duration   `json:"overlap"`
}

// Describe renders a one-line summary for logs and CLI output.
func (c Conflict) Describe() string {
	switch c.Kind {
	case KindTaskTask:
		return fmt.Sprintf("%q overlaps %q by %s", c.Task.Title, c.Other.Title, c.Overlap)
	default:
		return fmt.Sprintf("%q overlaps event %q by %s", c.Task.Title, c.Event.Title, c.Overlap)
	}
}

// Detector checks tasks against a calendar store.
type Detector struct {
	cal calendar.Store
}

// NewDetector builds a detector over the given calendar.
func NewDetector(cal calendar.Store) *Detector {
	return &Detector{cal: cal}
}

// taskSlot resolves the window a task occupies: the linked event's start when
// one exists, otherwise the due instant, with the estimate (or the default)
// as duration. ok is false when the task has no usable start.
func (d *Detector) taskSlot(t models.Task) (start, end time.Time, ok bool) {
	duration := DefaultTaskDuration
	if t.EstimatedMinutes != nil && *t.EstimatedMinutes > 0 {
		duration = time.Duration(*t.EstimatedMinutes) * time.Minute
	}

	if t.CalendarEventID != nil {
		if ev, err := d.cal.FindByID(*t.CalendarEventID); err == nil && ev != nil {
			return ev.Start, ev.Start.Add(duration), true
		}
	}
	if due := t.DueAt(); due != nil {
		return *due, due.Add(duration), true
	}
	return time.Time{}, time.Time{}, false
}

// DetectEventConflict reports the first calendar event overlapping the task's
// slot, in fetch order, or nil when the slot is clear. All-day events and the
// task's own linked event never count.
func (d *Detector) DetectEventConflict(t models.Task) (*Conflict, error) {
	start, end, ok := d.taskSlot(t)
	if !ok {
		return nil, nil
	}

	events, err := d.cal.Events(calendar.Around(start, end, fetchPad))
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		if t.CalendarEventID != nil && ev.ID == *t.CalendarEventID {
			continue
		}
		if t.CalendarItemID != nil && ev.StableID == *t.CalendarItemID {
			continue
		}
		overlap := timeutil.Overlap(start, end, ev.Start, ev.End)
		if overlap <= 0 {
			continue
		}

		kind := KindTaskEvent
		if ev.HasAttendees {
			kind = KindMeetingTask
		}
		at := start
		if ev.Start.After(at) {
			at = ev.Start
		}
		return &Conflict{
			Kind:     kind,
			Severity: eventSeverity(overlap, end.Sub(start), ev),
			Task:     t,
			Event:    &ev,
			At:       at,
			Overlap:  overlap,
		}, nil
	}
	return nil, nil
}

// eventSeverity grades a task/event overlap. Losing more than half the task's
// slot is always high; busy events (attendees or recurrence) escalate at a
// quarter of the slot.
func eventSeverity(overlap, taskDuration time.Duration, ev calendar.Event) Severity {
	if overlap*2 > taskDuration {
		return SeverityHigh
	}
	busy := ev.HasAttendees || ev.HasRecurrence
	if overlap*4 > taskDuration {
		if busy {
			return SeverityHigh
		}
		return SeverityMedium
	}
	if busy {
		return SeverityMedium
	}
	return SeverityLow
}

// DetectTaskConflicts pairwise-compares every scheduled actionable task.
func DetectTaskConflicts(tasks []models.Task) []Conflict {
	var scheduled []models.Task
	for _, t := range tasks {
		if t.IsActionable() && t.IsScheduled() {
			scheduled = append(scheduled, t)
		}
	}

	var out []Conflict
	for i := 0; i < len(scheduled); i++ {
		for j := i + 1; j < len(scheduled); j++ {
			a, b := scheduled[i], scheduled[j]
			aStart, aEnd, _ := a.ScheduleWindow()
			bStart, bEnd, _ := b.ScheduleWindow()
			overlap := timeutil.Overlap(aStart, aEnd, bStart, bEnd)
			if overlap <= 0 {
				continue
			}

			shorter := aEnd.Sub(aStart)
			if d := bEnd.Sub(bStart); d < shorter {
				shorter = d
			}
			severity := SeverityMedium
			if overlap*2 > shorter {
				severity = SeverityHigh
			}

			at := aStart
			if bStart.After(at) {
				at = bStart
			}
			other := b
			out = append(out, Conflict{
				Kind:     KindTaskTask,
				Severity: severity,
				Task:     a,
				Other:    &other,
				At:       at,
				Overlap:  overlap,
			})
		}
	}
	return out
}

// Scan runs event and task-task detection across the whole task set, drops
// conflicts that already ended, and orders the rest by severity, then time.
func (d *Detector) Scan(tasks []models.Task, now time.Time) ([]Conflict, error) {
	var out []Conflict
	for _, t := range tasks {
		if !t.IsActionable() {
			continue
		}
		c, err := d.DetectEventConflict(t)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, *c)
		}
	}
	out = append(out, DetectTaskConflicts(tasks)...)

	kept := out[:0]
	for _, c := range out {
		if c.At.Add(c.Overlap).After(now) {
			kept = append(kept, c)
		}
	}
	out = kept

	sort.SliceStable(out, func(i, j int) bool {
		if severityRank(out[i].Severity) != severityRank(out[j].Severity) {
			return severityRank(out[i].Severity) > severityRank(out[j].Severity)
		}
		return out[i].At.Before(out[j].At)
	})
	return out, nil
}
