/*
Package undo keeps a bounded, persisted log of reversible operations. Each
CLI invocation is its own process, so the log lives on disk: the most recent
mutation can be taken back in a later run.
*/
package undo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/tasktide/tasktide/models"
)

// OpKind names the operation a record can reverse.
type OpKind string

const (
	OpCreate   OpKind = "create"
	OpUpdate   OpKind = "update"
	OpComplete OpKind = "complete"
	OpDelete   OpKind = "delete"
)

// maxRecords bounds the log; the oldest record falls off first.
const maxRecords = 50

// Record holds what is needed to reverse one operation: the pre-mutation
// snapshot for updates, completions, and deletions, and the spawned follow-up
// instance for completed recurring tasks.
type Record struct {
	Kind          OpKind       `json:"kind"`
	TaskID        string       `json:"taskId"`
	TaskTitle     string       `json:"taskTitle"`
	Snapshot      *models.Task `json:"snapshot,omitempty"`
	SpawnedTaskID *string      `json:"spawnedTaskId,omitempty"`
	RecordedAt    time.Time    `json:"recordedAt"`
}

// Describe renders a short label for CLI output.
func (r Record) Describe() string {
	switch r.Kind {
	case OpCreate:
		return fmt.Sprintf("create %q", r.TaskTitle)
	case OpUpdate:
		return fmt.Sprintf("update %q", r.TaskTitle)
	case OpComplete:
		return fmt.Sprintf("complete %q", r.TaskTitle)
	case OpDelete:
		return fmt.Sprintf("delete %q", r.TaskTitle)
	default:
		return string(r.Kind)
	}
}

type logState struct {
	Records []Record `json:"records"`
}

// Log is the persisted operation log. Records are ordered oldest first; Pop
// takes from the newest end.
type Log struct {
	mu    sync.Mutex
	fs    afero.Fs
	path  string
	state logState
}

// NewLog opens (or creates) the log at path. A malformed file is logged and
// treated as empty rather than blocking every mutation after it.
func NewLog(fs afero.Fs, path string) (*Log, error) {
	l := &Log{fs: fs, path: path}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if exists, _ := afero.Exists(fs, path); exists {
			return nil, fmt.Errorf("read undo log %s: %w", path, err)
		}
		return l, nil
	}
	if err := json.Unmarshal(data, &l.state); err != nil {
		slog.Warn("undo log unreadable, starting empty", "path", path, "error", err)
		l.state = logState{}
	}
	return l, nil
}

func (l *Log) saveLocked() error {
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal undo log: %w", err)
	}
	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := l.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create undo log dir %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(l.fs, l.path, data, 0o644); err != nil {
		return fmt.Errorf("write undo log %s: %w", l.path, err)
	}
	return nil
}

// Push appends a record, dropping the oldest once the bound is reached.
func (l *Log) Push(r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.Records = append(l.state.Records, r)
	if len(l.state.Records) > maxRecords {
		l.state.Records = l.state.Records[len(l.state.Records)-maxRecords:]
	}
	return l.saveLocked()
}

// Pop removes and returns the newest record. ok is false on an empty log.
func (l *Log) Pop() (Record, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.state.Records)
	if n == 0 {
		return Record{}, false, nil
	}
	r := l.state.Records[n-1]
	l.state.Records = l.state.Records[:n-1]
	if err := l.saveLocked(); err != nil {
		l.state.Records = append(l.state.Records, r)
		return Record{}, false, err
	}
	return r, true, nil
}

// Peek returns the newest record without removing it.
func (l *Log) Peek() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.state.Records)
	if n == 0 {
		return Record{}, false
	}
	return l.state.Records[n-1], true
}

// Len reports how many records the log holds.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.state.Records)
}
