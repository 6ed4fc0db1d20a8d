// Package task holds the lifecycle service tying the store to the learning,
// scheduling, undo, and notification subsystems.
package task

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tasktide/tasktide/internal/learn"
	"github.com/tasktide/tasktide/internal/notify"
	"github.com/tasktide/tasktide/internal/schedule"
	"github.com/tasktide/tasktide/internal/timeutil"
	"github.com/tasktide/tasktide/internal/undo"
	"github.com/tasktide/tasktide/models"
	"github.com/tasktide/tasktide/store"
)

// Service encapsulates task lifecycle operations. Completing a recurring task
// spawns its next instance, mutations feed the undo log, and reminders follow
// the task they belong to.
type Service struct {
	store    store.TaskStore
	patterns *learn.PatternStore
	notifier notify.Notifier
	undoLog  *undo.Log
	clock    timeutil.Clock
}

// NewService wires a service from its collaborators. A nil clock falls back
// to the real one.
func NewService(st store.TaskStore, patterns *learn.PatternStore, notifier notify.Notifier, undoLog *undo.Log, clock timeutil.Clock) *Service {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Service{
		store:    st,
		patterns: patterns,
		notifier: notifier,
		undoLog:  undoLog,
		clock:    clock,
	}
}

// Get retrieves a task by ID.
func (s *Service) Get(id string) (models.Task, error) {
	return s.store.GetTask(id)
}

// List returns tasks, optionally filtered and sorted.
func (s *Service) List(filterFn func(models.Task) bool, sortFn func([]models.Task) []models.Task) ([]models.Task, error) {
	return s.store.ListTasks(filterFn, sortFn)
}

// Create persists a new task, records it for undo, and schedules its
// reminder when one is set.
func (s *Service) Create(t models.Task) (models.Task, error) {
	created, err := s.store.CreateTask(t)
	if err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.pushUndo(undo.Record{
		Kind:       undo.OpCreate,
		TaskID:     created.ID,
		TaskTitle:  created.Title,
		RecordedAt: s.clock.Now(),
	})
	s.scheduleReminder(created)
	return created, nil
}

// Update applies field updates, keeping the undo log and the reminder in
// step.
func (s *Service) Update(id string, updates map[string]interface{}) (models.Task, error) {
	snapshot, err := s.store.GetTask(id)
	if err != nil {
		return models.Task{}, err
	}

	updated, err := s.store.UpdateTask(id, updates)
	if err != nil {
		return models.Task{}, err
	}

	s.pushUndo(undo.Record{
		Kind:       undo.OpUpdate,
		TaskID:     updated.ID,
		TaskTitle:  snapshot.Title,
		Snapshot:   &snapshot,
		RecordedAt: s.clock.Now(),
	})
	s.resyncReminder(snapshot, updated)
	return updated, nil
}

// Complete finishes a task: the store handles hierarchy and counters, the
// completion feeds the pattern learner, the reminder is canceled, and a
// recurring task gets its next instance. The spawned instance is returned
// alongside the completed task, nil when there is none.
func (s *Service) Complete(id string) (models.Task, *models.Task, error) {
	snapshot, err := s.store.GetTask(id)
	if err != nil {
		return models.Task{}, nil, err
	}
	if snapshot.IsCompleted() {
		return snapshot, nil, nil
	}

	completed, err := s.store.CompleteTask(id)
	if err != nil {
		return models.Task{}, nil, err
	}

	now := s.clock.Now()
	if s.patterns != nil {
		if err := s.patterns.RecordCompletion(completed.EffectiveCategory(), now); err != nil {
			slog.Warn("record completion pattern", "task", id, "error", err)
		}
	}
	if err := s.notifier.CancelReminder(id); err != nil {
		slog.Warn("cancel reminder", "task", id, "error", err)
	}

	spawned, err := s.spawnNext(snapshot, completed, now)
	if err != nil {
		slog.Warn("spawn next occurrence", "task", id, "error", err)
		spawned = nil
	}

	record := undo.Record{
		Kind:       undo.OpComplete,
		TaskID:     completed.ID,
		TaskTitle:  completed.Title,
		Snapshot:   &snapshot,
		RecordedAt: now,
	}
	if spawned != nil {
		record.SpawnedTaskID = &spawned.ID
	}
	s.pushUndo(record)

	return completed, spawned, nil
}

// spawnNext creates the follow-up instance of a completed recurring task.
// Day-cadence rules advance from the due instant to keep their rhythm;
// intraday rules advance from the completion, since each completion anchors
// the next slot. Link, parent, and timer state never carry over.
func (s *Service) spawnNext(snapshot, completed models.Task, now time.Time) (*models.Task, error) {
	rule := completed.Recurrence
	if rule == nil {
		return nil, nil
	}

	anchor := now
	if !rule.IsIntraday() {
		if due := snapshot.DueAt(); due != nil {
			anchor = *due
		}
	}
	next := schedule.NextOccurrence(rule, anchor)
	if next == nil {
		return nil, nil
	}

	dueDate := timeutil.DayStart(*next)
	dueTime := *next
	instance := models.Task{
		ID:               uuid.NewString(),
		Title:            completed.Title,
		Notes:            completed.Notes,
		Status:           models.StatusPending,
		Priority:         completed.Priority,
		Category:         completed.Category,
		CustomCategory:   completed.CustomCategory,
		ListName:         completed.ListName,
		DueDate:          &dueDate,
		DueTime:          &dueTime,
		EstimatedMinutes: completed.EstimatedMinutes,
		Recurrence:       rule.Clone(),
		IntradayCount:    completed.IntradayCount,
		IntradayDate:     completed.IntradayDate,
	}

	// Preserve the reminder lead relative to the due instant.
	if snapshot.ReminderAt != nil {
		if due := snapshot.DueAt(); due != nil && snapshot.ReminderAt.Before(*due) {
			reminderAt := next.Add(-due.Sub(*snapshot.ReminderAt))
			instance.ReminderAt = &reminderAt
		}
	}

	created, err := s.store.CreateTask(instance)
	if err != nil {
		return nil, fmt.Errorf("create next occurrence: %w", err)
	}
	s.scheduleReminder(created)
	return &created, nil
}

// Start begins work on a task.
func (s *Service) Start(id string) (models.Task, error) {
	return s.store.StartProgress(id)
}

// Stop pauses work on a task.
func (s *Service) Stop(id string) (models.Task, error) {
	return s.store.StopProgress(id)
}

// Delete removes a task. Soft deletion is recorded for undo; hard deletion
// bypasses the log.
func (s *Service) Delete(id string, hard bool) error {
	snapshot, err := s.store.GetTask(id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTask(id, hard); err != nil {
		return err
	}

	if !hard {
		s.pushUndo(undo.Record{
			Kind:       undo.OpDelete,
			TaskID:     snapshot.ID,
			TaskTitle:  snapshot.Title,
			Snapshot:   &snapshot,
			RecordedAt: s.clock.Now(),
		})
	}
	if err := s.notifier.CancelReminder(id); err != nil {
		slog.Warn("cancel reminder", "task", id, "error", err)
	}
	return nil
}

// Restore clears the tombstone on a soft-deleted task.
func (s *Service) Restore(id string) (models.Task, error) {
	restored, err := s.store.RestoreTask(id)
	if err != nil {
		return models.Task{}, err
	}
	s.scheduleReminder(restored)
	return restored, nil
}

// Undo reverses the most recent recorded operation and returns its
// description. ok is false when the log is empty.
func (s *Service) Undo() (string, bool, error) {
	record, ok, err := s.undoLog.Pop()
	if err != nil {
		return "", false, fmt.Errorf("pop undo log: %w", err)
	}
	if !ok {
		return "", false, nil
	}

	if err := s.applyUndo(record); err != nil {
		// Put the record back so a failed undo can be retried.
		if pushErr := s.undoLog.Push(record); pushErr != nil {
			slog.Warn("re-push undo record", "error", pushErr)
		}
		return "", false, err
	}
	return record.Describe(), true, nil
}

func (s *Service) applyUndo(record undo.Record) error {
	switch record.Kind {
	case undo.OpCreate:
		return s.store.DeleteTask(record.TaskID, true)
	case undo.OpUpdate:
		if record.Snapshot == nil {
			return fmt.Errorf("undo record for %s has no snapshot", record.TaskID)
		}
		_, err := s.store.ReplaceTask(*record.Snapshot)
		return err
	case undo.OpComplete:
		if record.Snapshot == nil {
			return fmt.Errorf("undo record for %s has no snapshot", record.TaskID)
		}
		if _, err := s.store.ReplaceTask(*record.Snapshot); err != nil {
			return err
		}
		if record.SpawnedTaskID != nil {
			if err := s.store.DeleteTask(*record.SpawnedTaskID, true); err != nil {
				slog.Warn("remove spawned occurrence during undo", "task", *record.SpawnedTaskID, "error", err)
			}
		}
		return nil
	case undo.OpDelete:
		_, err := s.store.RestoreTask(record.TaskID)
		return err
	default:
		return fmt.Errorf("unknown undo record kind %q", record.Kind)
	}
}

func (s *Service) pushUndo(record undo.Record) {
	if s.undoLog == nil {
		return
	}
	if err := s.undoLog.Push(record); err != nil {
		slog.Warn("push undo record", "error", err)
	}
}

func (s *Service) scheduleReminder(t models.Task) {
	if t.ReminderAt == nil || !t.ReminderAt.After(s.clock.Now()) {
		return
	}
	if err := s.notifier.ScheduleReminder(t.ID, t.Title, *t.ReminderAt); err != nil {
		slog.Warn("schedule reminder", "task", t.ID, "error", err)
	}
}

func (s *Service) resyncReminder(before, after models.Task) {
	switch {
	case after.ReminderAt == nil && before.ReminderAt != nil:
		if err := s.notifier.CancelReminder(after.ID); err != nil {
			slog.Warn("cancel reminder", "task", after.ID, "error", err)
		}
	case after.ReminderAt != nil && (before.ReminderAt == nil || !before.ReminderAt.Equal(*after.ReminderAt)):
		s.scheduleReminder(after)
	}
}
