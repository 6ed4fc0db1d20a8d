package calendar

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite database. It serves as the
// local mirror of the device calendar; external tools writing to the same
// file show up through the reconciler's file watcher.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the calendar database at path. The
// special path ":memory:" opens an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create calendar directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		stable_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		notes TEXT,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		all_day INTEGER NOT NULL DEFAULT 0,
		has_attendees INTEGER NOT NULL DEFAULT 0,
		has_recurrence INTEGER NOT NULL DEFAULT 0,
		calendar_name TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_at);
	CREATE INDEX IF NOT EXISTS idx_events_stable ON events(stable_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Events returns the events overlapping w, ordered by start time.
func (s *SQLiteStore) Events(w Window) ([]Event, error) {
	rows, err := s.db.Query(`
		SELECT id, stable_id, title, notes, start_at, end_at, all_day, has_attendees, has_recurrence, calendar_name, updated_at
		FROM events
		WHERE end_at > ? AND start_at < ?
		ORDER BY start_at, id
	`, w.Start.UTC().Format(time.RFC3339), w.End.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create stores the event, assigning identifiers when absent.
func (s *SQLiteStore) Create(e Event) (Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StableID == "" {
		e.StableID = uuid.NewString()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO events (id, stable_id, title, notes, start_at, end_at, all_day, has_attendees, has_recurrence, calendar_name, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.StableID, e.Title, e.Notes,
		e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339),
		boolInt(e.AllDay), boolInt(e.HasAttendees), boolInt(e.HasRecurrence),
		e.CalendarName, e.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// Update replaces the stored event with the same ID.
func (s *SQLiteStore) Update(e Event) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	res, err := s.db.Exec(`
		UPDATE events
		SET title = ?, notes = ?, start_at = ?, end_at = ?, all_day = ?, has_attendees = ?, has_recurrence = ?, calendar_name = ?, updated_at = ?
		WHERE id = ?
	`, e.Title, e.Notes,
		e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339),
		boolInt(e.AllDay), boolInt(e.HasAttendees), boolInt(e.HasRecurrence),
		e.CalendarName, e.UpdatedAt.UTC().Format(time.RFC3339), e.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// Delete removes the event. Deleting an absent event is not an error.
func (s *SQLiteStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// FindByID looks an event up by its mutable identifier.
func (s *SQLiteStore) FindByID(id string) (*Event, error) {
	return s.findOne(`WHERE id = ?`, id)
}

// FindByStableID looks an event up by its stable identifier.
func (s *SQLiteStore) FindByStableID(stableID string) (*Event, error) {
	return s.findOne(`WHERE stable_id = ?`, stableID)
}

func (s *SQLiteStore) findOne(where string, arg any) (*Event, error) {
	row := s.db.QueryRow(`
		SELECT id, stable_id, title, notes, start_at, end_at, all_day, has_attendees, has_recurrence, calendar_name, updated_at
		FROM events `+where, arg)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path, used to watch for external writes.
func (s *SQLiteStore) Path() string {
	return s.path
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var e Event
	var notes, calendarName sql.NullString
	var startAt, endAt, updatedAt string
	var allDay, hasAttendees, hasRecurrence int

	err := row.Scan(&e.ID, &e.StableID, &e.Title, &notes, &startAt, &endAt,
		&allDay, &hasAttendees, &hasRecurrence, &calendarName, &updatedAt)
	if err == sql.ErrNoRows {
		return Event{}, err
	}
	if err != nil {
		return Event{}, fmt.Errorf("scan event: %w", err)
	}

	e.Notes = notes.String
	e.CalendarName = calendarName.String
	e.AllDay = allDay != 0
	e.HasAttendees = hasAttendees != 0
	e.HasRecurrence = hasRecurrence != 0
	e.Start, _ = time.Parse(time.RFC3339, startAt)
	e.End, _ = time.Parse(time.RFC3339, endAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return e, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
