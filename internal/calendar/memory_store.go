package calendar

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used in tests and as a stand-in when no
// local calendar database is configured.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string]Event
}

// NewMemoryStore returns an empty in-memory calendar.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: map[string]Event{}}
}

// Events returns the events overlapping w, ordered by start time.
func (m *MemoryStore) Events(w Window) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for _, e := range m.events {
		if w.Overlaps(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create stores the event, assigning identifiers when absent.
func (m *MemoryStore) Create(e Event) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StableID == "" {
		e.StableID = uuid.NewString()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	m.events[e.ID] = e
	return e, nil
}

// Update replaces the stored event with the same ID.
func (m *MemoryStore) Update(e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[e.ID]; !ok {
		return ErrEventNotFound
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	m.events[e.ID] = e
	return nil
}

// Delete removes the event. Deleting an absent event is not an error: the
// desired state is already true.
func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, id)
	return nil
}

// FindByID looks an event up by its mutable identifier.
func (m *MemoryStore) FindByID(id string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.events[id]; ok {
		return &e, nil
	}
	return nil, nil
}

// FindByStableID looks an event up by its stable identifier.
func (m *MemoryStore) FindByStableID(stableID string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.events {
		if e.StableID == stableID {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

// ChurnID reassigns the event's mutable identifier while keeping its stable
// identifier, imitating providers that rewrite event ids. Returns the new id.
func (m *MemoryStore) ChurnID(oldID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[oldID]
	if !ok {
		return "", ErrEventNotFound
	}
	delete(m.events, oldID)
	e.ID = uuid.NewString()
	m.events[e.ID] = e
	return e.ID, nil
}
