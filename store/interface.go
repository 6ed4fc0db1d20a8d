package store

import (
	"errors"

	"github.com/tasktide/tasktide/models"
)

// Sentinel errors returned (wrapped) by store implementations.
var (
	// ErrTaskNotFound reports a lookup for an ID the store does not hold.
	ErrTaskNotFound = errors.New("task not found")
	// ErrChecksumMismatch reports a data file whose content does not match
	// its recorded checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// TaskStore is the persistence contract for tasks. Implementations must make
// every mutating operation atomic: concurrent callers see either the previous
// state or the new one, never a partial write.
type TaskStore interface {
	// Initialize configures the store (file path, data format) and loads
	// existing state. It must be called before any other operation.
	Initialize(config map[string]string) error

	// CreateTask adds a task, generating an ID when none is set, and
	// returns the stored copy.
	CreateTask(task models.Task) (models.Task, error)

	// GetTask retrieves a task by ID, including soft-deleted ones.
	GetTask(id string) (models.Task, error)

	// UpdateTask applies the given field updates to a task and returns the
	// updated copy. Keys use the JSON field names; unknown keys are an error.
	UpdateTask(id string, updates map[string]interface{}) (models.Task, error)

	// ReplaceTask writes a full task snapshot back over the stored record,
	// bumping UpdatedAt. It is the undo primitive: relationships are taken
	// as-is from the snapshot.
	ReplaceTask(task models.Task) (models.Task, error)

	// CompleteTask marks a task completed: it stops a running work timer,
	// bumps the intraday counter for intraday-recurring tasks, cascades
	// completion to open subtasks, and rolls completion state up to the
	// parent (all subtasks done completes it, a first one moves it to
	// in-progress).
	CompleteTask(id string) (models.Task, error)

	// StartProgress begins working a task. At most one task has a running
	// timer at a time; starting one stops whichever was running. Parents up
	// the chain move to in-progress without a timer of their own.
	StartProgress(id string) (models.Task, error)

	// StopProgress pauses the running timer, folding the elapsed time into
	// the task's accumulated total. The task stays in-progress.
	StopProgress(id string) (models.Task, error)

	// DeleteTask removes a task and its subtask subtree. With hard=false
	// the records are tombstoned and recoverable via RestoreTask; with
	// hard=true they are gone and the parent link is detached.
	DeleteTask(id string, hard bool) error

	// RestoreTask clears the tombstone on a soft-deleted task and its
	// subtree.
	RestoreTask(id string) (models.Task, error)

	// ListTasks returns tasks, optionally filtered and sorted. A nil
	// filterFn keeps everything; a nil sortFn leaves store order.
	ListTasks(filterFn func(models.Task) bool, sortFn func([]models.Task) []models.Task) ([]models.Task, error)

	// Subscribe registers a callback invoked after every successful
	// mutation. Callbacks run on the mutating goroutine and must not call
	// back into the store.
	Subscribe(fn func())

	// Backup copies the current data file to the destination path.
	Backup(destinationPath string) error

	// Restore replaces the data file with the backup at sourcePath.
	Restore(sourcePath string) error

	// Close releases file locks and other held resources.
	Close() error
}
