/*
Package calendar abstracts the external calendar the sync engine talks to.

The Store interface mirrors a device calendar's behavior: events carry both a
mutable identifier (which some providers rewrite) and a stable identifier that
survives such churn. Fetches return events in start order, which is also the
order conflict detection treats as "first match".
*/
package calendar

import (
	"errors"
	"time"
)

// ErrEventNotFound reports an update or delete against a missing event.
var ErrEventNotFound = errors.New("event not found")

// Event mirrors one calendar entry.
type Event struct {
	ID            string    `json:"id"`
	StableID      string    `json:"stableId"`
	Title         string    `json:"title"`
	Notes         string    `json:"notes,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	AllDay        bool      `json:"allDay,omitempty"`
	HasAttendees  bool      `json:"hasAttendees,omitempty"`
	HasRecurrence bool      `json:"hasRecurrence,omitempty"`
	CalendarName  string    `json:"calendarName,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Duration returns the event's length.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Around returns a window reaching pad before and after the given range.
func Around(start, end time.Time, pad time.Duration) Window {
	return Window{Start: start.Add(-pad), End: end.Add(pad)}
}

// Overlaps reports whether the event intersects the window.
func (w Window) Overlaps(e Event) bool {
	return e.End.After(w.Start) && e.Start.Before(w.End)
}

// Store is the calendar collaborator used by sync and conflict detection.
// FindByID and FindByStableID return (nil, nil) for absent events so callers
// can distinguish "gone" from I/O failure.
type Store interface {
	Events(w Window) ([]Event, error)
	Create(e Event) (Event, error)
	Update(e Event) error
	Delete(id string) error
	FindByID(id string) (*Event, error)
	FindByStableID(stableID string) (*Event, error)
	Close() error
}
