package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/tasktide/tasktide/models"
	yaml "gopkg.in/yaml.v3"
)

const (
	defaultDataFile   = "tasks.json"
	dataFileKey       = "dataFile"
	dataFileFormatKey = "dataFileFormat"
	defaultDataFormat = "json"
	formatJSON        = "json"
	formatYAML        = "yaml"
	formatTOML        = "toml"
	checksumSuffix    = ".checksum"
)

// FileTaskStore implements TaskStore on a single data file. It supports JSON,
// YAML, and TOML formats, guards the file with an advisory lock, verifies a
// SHA256 checksum sidecar on every load, and replaces the file atomically on
// every save. State is reloaded from disk before each mutation so external
// writers are always folded in.
type FileTaskStore struct {
	filePath string
	tasks    map[string]models.Task
	flk      *flock.Flock
	format   string

	subMu       sync.Mutex
	subscribers []func()
}

// NewFileTaskStore creates an unconfigured store; Initialize must be called
// before use.
func NewFileTaskStore() *FileTaskStore {
	return &FileTaskStore{
		tasks: make(map[string]models.Task),
	}
}

// Initialize configures the store from the config map ('dataFile',
// 'dataFileFormat'), creates the data file when missing, and loads existing
// tasks under an exclusive lock.
func (s *FileTaskStore) Initialize(config map[string]string) error {
	if val, ok := config[dataFileKey]; ok && val != "" {
		s.filePath = val
	} else {
		s.filePath = defaultDataFile
	}

	if val, ok := config[dataFileFormatKey]; ok && val != "" {
		formatLower := strings.ToLower(val)
		switch formatLower {
		case formatJSON, formatYAML, formatTOML:
			s.format = formatLower
		default:
			return fmt.Errorf("unsupported dataFileFormat: %s (supported: json, yaml, toml)", val)
		}
	} else {
		s.format = defaultDataFormat
	}

	// A defaulted file name follows the chosen format's extension.
	if s.filePath == defaultDataFile && s.format != formatJSON {
		ext := filepath.Ext(s.filePath)
		s.filePath = strings.TrimSuffix(s.filePath, ext) + "." + s.format
	}

	dir := filepath.Dir(s.filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	s.flk = flock.New(s.filePath)

	locked, err := s.flk.TryLock()
	if err != nil {
		return fmt.Errorf("acquire initial lock for %s: %w", s.filePath, err)
	}
	if !locked {
		if err := s.flk.Lock(); err != nil {
			return fmt.Errorf("acquire blocking initial lock for %s: %w", s.filePath, err)
		}
	}
	defer func() { _ = s.flk.Unlock() }()

	s.tasks = make(map[string]models.Task)
	return s.loadTasksFromFileInternal()
}

// Path returns the data file path. File watchers observe its directory.
func (s *FileTaskStore) Path() string {
	return s.filePath
}

// Subscribe registers a change callback. Callbacks fire on the mutating
// goroutine after a successful save and must not call back into the store.
func (s *FileTaskStore) Subscribe(fn func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *FileTaskStore) notifyChange() {
	s.subMu.Lock()
	subs := slices.Clone(s.subscribers)
	s.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func calculateChecksum(data []byte) string {
	hasher := sha256.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// loadTasksFromFileInternal reads the data file, verifies its checksum, and
// rebuilds the in-memory map. The caller must hold the file lock.
func (s *FileTaskStore) loadTasksFromFileInternal() error {
	checksumFilePath := s.filePath + checksumSuffix

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.tasks = make(map[string]models.Task)
			_ = os.Remove(checksumFilePath)
			f, createErr := os.OpenFile(s.filePath, os.O_CREATE|os.O_RDWR, 0o644)
			if createErr != nil {
				return fmt.Errorf("create data file %s: %w", s.filePath, createErr)
			}
			_ = f.Close()
			if err := os.WriteFile(checksumFilePath, []byte(calculateChecksum([]byte{})), 0o644); err != nil {
				slog.Warn("could not write initial checksum file", "path", checksumFilePath, "error", err)
			}
			return nil
		}
		return fmt.Errorf("read data file %s: %w", s.filePath, err)
	}

	if _, err := os.Stat(checksumFilePath); err == nil {
		expectedBytes, readErr := os.ReadFile(checksumFilePath)
		if readErr != nil {
			return fmt.Errorf("read checksum file %s: %w", checksumFilePath, readErr)
		}
		expected := strings.TrimSpace(string(expectedBytes))
		actual := calculateChecksum(data)
		if actual != expected {
			return fmt.Errorf("data file %s: %w (expected %s, got %s)", s.filePath, ErrChecksumMismatch, expected, actual)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat checksum file %s: %w", checksumFilePath, err)
	}
	// A data file without a checksum sidecar predates checksumming; load it
	// and let the next save create one.

	if len(data) == 0 {
		_ = os.WriteFile(checksumFilePath, []byte(calculateChecksum([]byte{})), 0o644)
		s.tasks = make(map[string]models.Task)
		return nil
	}

	var taskList models.TaskList
	switch s.format {
	case formatJSON:
		if err := json.Unmarshal(data, &taskList); err != nil {
			return fmt.Errorf("unmarshal JSON from %s: %w", s.filePath, err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, &taskList); err != nil {
			return fmt.Errorf("unmarshal YAML from %s: %w", s.filePath, err)
		}
	case formatTOML:
		if err := toml.Unmarshal(data, &taskList); err != nil {
			return fmt.Errorf("unmarshal TOML from %s: %w", s.filePath, err)
		}
	default:
		return fmt.Errorf("unsupported data format for loading: %s", s.format)
	}

	s.tasks = make(map[string]models.Task, len(taskList.Tasks))
	for _, task := range taskList.Tasks {
		s.tasks[task.ID] = task
	}
	return nil
}

// saveTasksToFileInternal marshals the task map and atomically replaces the
// data file, then its checksum sidecar. The caller must hold the file lock.
func (s *FileTaskStore) saveTasksToFileInternal() error {
	taskList := models.TaskList{
		Tasks: make([]models.Task, 0, len(s.tasks)),
	}
	for _, task := range s.tasks {
		taskList.Tasks = append(taskList.Tasks, task)
	}
	// Stable file order keeps diffs and checksums meaningful.
	slices.SortFunc(taskList.Tasks, func(a, b models.Task) int {
		return strings.Compare(a.ID, b.ID)
	})

	var marshaledData []byte
	var err error

	switch s.format {
	case formatJSON:
		marshaledData, err = json.MarshalIndent(taskList, "", "  ")
	case formatYAML:
		marshaledData, err = yaml.Marshal(taskList)
	case formatTOML:
		buf := new(bytes.Buffer)
		if encodeErr := toml.NewEncoder(buf).Encode(taskList); encodeErr == nil {
			marshaledData = buf.Bytes()
		} else {
			err = fmt.Errorf("marshal TOML: %w", encodeErr)
		}
	default:
		return fmt.Errorf("unsupported data format for saving: %s", s.format)
	}
	if err != nil {
		return fmt.Errorf("marshal tasks to %s: %w", s.format, err)
	}

	tempFilePath := s.filePath + ".tmp"
	checksumFilePath := s.filePath + checksumSuffix
	tempChecksumFilePath := checksumFilePath + ".tmp"

	defer func() { _ = os.Remove(tempFilePath) }()
	defer func() { _ = os.Remove(tempChecksumFilePath) }()

	if err := os.WriteFile(tempFilePath, marshaledData, 0o644); err != nil {
		return fmt.Errorf("write temporary data file %s: %w", tempFilePath, err)
	}
	if err := os.WriteFile(tempChecksumFilePath, []byte(calculateChecksum(marshaledData)), 0o644); err != nil {
		return fmt.Errorf("write temporary checksum file %s: %w", tempChecksumFilePath, err)
	}

	if err := os.Rename(tempFilePath, s.filePath); err != nil {
		return fmt.Errorf("rename temporary data file %s to %s: %w", tempFilePath, s.filePath, err)
	}
	if err := os.Rename(tempChecksumFilePath, checksumFilePath); err != nil {
		return fmt.Errorf("data file %s updated but checksum file %s was not: %w", s.filePath, checksumFilePath, err)
	}

	return nil
}

func generateID() string {
	return uuid.NewString()
}

func addStringToSliceIfMissing(slice []string, item string) []string {
	if !slices.Contains(slice, item) {
		return append(slice, item)
	}
	return slice
}

func removeStringFromSlice(slice []string, item string) []string {
	newSlice := make([]string, 0, len(slice))
	for _, s := range slice {
		if s != item {
			newSlice = append(newSlice, s)
		}
	}
	return newSlice
}

// stopTimer folds a running work timer into the accumulated total. Returns
// false when no timer was running.
func stopTimer(t *models.Task, now time.Time) bool {
	if t.StartedAt == nil {
		return false
	}
	if elapsed := now.Sub(*t.StartedAt); elapsed > 0 {
		t.AccumulatedSeconds += int64(elapsed.Seconds())
	}
	t.StartedAt = nil
	return true
}

// subtreeIDsLocked collects rootID plus every descendant reachable through
// SubtaskIDs. The caller must hold the file lock.
func (s *FileTaskStore) subtreeIDsLocked(rootID string) []string {
	var ids []string
	seen := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
		if t, ok := s.tasks[id]; ok {
			for _, subID := range t.SubtaskIDs {
				walk(subID)
			}
		}
	}
	walk(rootID)
	return ids
}

// CreateTask adds a new task to the store. It generates an ID when none is
// set and links the task into its parent's subtask list.
func (s *FileTaskStore) CreateTask(task models.Task) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("lock file for create: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadTasksFromFileInternal(); err != nil {
		return models.Task{}, fmt.Errorf("reload tasks before create: %w", err)
	}

	if task.ID == "" {
		task.ID = generateID()
	} else if _, exists := s.tasks[task.ID]; exists {
		return models.Task{}, fmt.Errorf("task with ID '%s' already exists", task.ID)
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if task.Priority == "" {
		task.Priority = models.PriorityNone
	}
	if task.SubtaskIDs == nil {
		task.SubtaskIDs = []string{}
	}

	if err := models.ValidateStruct(task); err != nil {
		return models.Task{}, fmt.Errorf("validation failed for new task: %w", err)
	}

	if task.ParentID != nil && *task.ParentID != "" {
		parentTask, exists := s.tasks[*task.ParentID]
		if !exists {
			return models.Task{}, fmt.Errorf("parent task with ID '%s' not found", *task.ParentID)
		}
		parentTask.SubtaskIDs = addStringToSliceIfMissing(parentTask.SubtaskIDs, task.ID)
		parentTask.UpdatedAt = now
		s.tasks[*task.ParentID] = parentTask
	}

	s.tasks[task.ID] = task

	if err := s.saveTasksToFileInternal(); err != nil {
		_ = s.loadTasksFromFileInternal()
		return models.Task{}, fmt.Errorf("save new task: %w", err)
	}

	s.notifyChange()
	return task, nil
}

// GetTask retrieves a task by ID, soft-deleted tasks included.
func (s *FileTaskStore) GetTask(id string) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("lock file for get: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadTasksFromFileInternal(); err != nil {
		return models.Task{}, fmt.Errorf("load tasks for get: %w", err)
	}

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("get task %s: %w", id, ErrTaskNotFound)
	}
	return task, nil
}

// applyTaskUpdate sets one field from its JSON name. Relationship and
// lifecycle fields (parentId, subtaskIds, timers, tombstones) are managed by
// their dedicated operations and are not settable here.
func applyTaskUpdate(task *models.Task, key string, value interface{}) error {
	switch key {
	case "title":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: expected string, got %T", key, value)
		}
		task.Title = v
	case "notes":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: expected string, got %T", key, value)
		}
		task.Notes = v
	case "status":
		switch v := value.(type) {
		case models.TaskStatus:
			task.Status = v
		case string:
			task.Status = models.TaskStatus(v)
		default:
			return fmt.Errorf("field %s: expected status string, got %T", key, value)
		}
	case "priority":
		switch v := value.(type) {
		case models.TaskPriority:
			task.Priority = v
		case string:
			task.Priority = models.TaskPriority(v)
		default:
			return fmt.Errorf("field %s: expected priority string, got %T", key, value)
		}
	case "category":
		switch v := value.(type) {
		case models.TaskCategory:
			task.Category = v
		case string:
			task.Category = models.TaskCategory(v)
		default:
			return fmt.Errorf("field %s: expected category string, got %T", key, value)
		}
	case "customCategory":
		v, err := stringPtrValue(key, value)
		if err != nil {
			return err
		}
		task.CustomCategory = v
	case "listName":
		v, err := stringPtrValue(key, value)
		if err != nil {
			return err
		}
		task.ListName = v
	case "dueDate":
		v, err := timePtrValue(key, value)
		if err != nil {
			return err
		}
		task.DueDate = v
	case "dueTime":
		v, err := timePtrValue(key, value)
		if err != nil {
			return err
		}
		task.DueTime = v
	case "reminderAt":
		v, err := timePtrValue(key, value)
		if err != nil {
			return err
		}
		task.ReminderAt = v
	case "estimatedMinutes":
		v, err := intPtrValue(key, value)
		if err != nil {
			return err
		}
		task.EstimatedMinutes = v
	case "recurrence":
		switch v := value.(type) {
		case nil:
			task.Recurrence = nil
		case *models.RecurringRule:
			task.Recurrence = v
		case models.RecurringRule:
			task.Recurrence = &v
		default:
			return fmt.Errorf("field %s: expected recurring rule, got %T", key, value)
		}
	case "calendarEventId":
		v, err := stringPtrValue(key, value)
		if err != nil {
			return err
		}
		task.CalendarEventID = v
	case "calendarItemId":
		v, err := stringPtrValue(key, value)
		if err != nil {
			return err
		}
		task.CalendarItemID = v
	case "syncedStart":
		v, err := timePtrValue(key, value)
		if err != nil {
			return err
		}
		task.SyncedStart = v
	case "syncedEnd":
		v, err := timePtrValue(key, value)
		if err != nil {
			return err
		}
		task.SyncedEnd = v
	case "lastSyncedAt":
		v, err := timePtrValue(key, value)
		if err != nil {
			return err
		}
		task.LastSyncedAt = v
	case "archived":
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("field %s: expected bool, got %T", key, value)
		}
		task.Archived = v
	default:
		return fmt.Errorf("unknown or unsettable field %q", key)
	}
	return nil
}

func stringPtrValue(key string, value interface{}) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	case *string:
		return v, nil
	}
	return nil, fmt.Errorf("field %s: expected string or nil, got %T", key, value)
}

func timePtrValue(key string, value interface{}) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &v, nil
	case *time.Time:
		return v, nil
	}
	return nil, fmt.Errorf("field %s: expected time or nil, got %T", key, value)
}

func intPtrValue(key string, value interface{}) (*int, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return &v, nil
	case *int:
		return v, nil
	}
	return nil, fmt.Errorf("field %s: expected int or nil, got %T", key, value)
}

// UpdateTask applies the given field updates to a task. The parentId key
// re-links the task within the hierarchy; every other key sets its field
// directly.
func (s *FileTaskStore) UpdateTask(id string, updates map[string]interface{}) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("lock file for update: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadTasksFromFileInternal(); err != nil {
		return models.Task{}, fmt.Errorf("reload tasks before update: %w", err)
	}

	task, exists := s.tasks[id]
	if !exists {
		return models.Task{}, fmt.Errorf("update task %s: %w", id, ErrTaskNotFound)
	}
	originalTask := task

	now := time.Now().UTC()
	task.UpdatedAt = now

	for key, value := range updates {
		if key == "parentId" {
			continue
		}
		if err := applyTaskUpdate(&task, key, value); err != nil {
			return models.Task{}, err
		}
	}

	if newParentID, ok := updates["parentId"]; ok {
		if err := s.updateParentLink(&task, newParentID, now); err != nil {
			return models.Task{}, err
		}
	}

	if err := models.ValidateStruct(task); err != nil {
		return models.Task{}, fmt.Errorf("validation failed for updated task: %w", err)
	}

	s.tasks[id] = task

	if err := s.saveTasksToFileInternal(); err != nil {
		s.tasks[id] = originalTask
		return models.Task{}, fmt.Errorf("save updated task: %w", err)
	}

	s.notifyChange()
	return task, nil
}

// ReplaceTask writes a full snapshot back over the stored record. Used by
// undo to reverse an update or completion.
func (s *FileTaskStore) ReplaceTask(task models.Task) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("lock file for replace: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadTasksFromFileInternal(); err != nil {
		return models.Task{}, fmt.Errorf("reload tasks before replace: %w", err)
	}

	if _, exists := s.tasks[task.ID]; !exists {
		return models.Task{}, fmt.Errorf("replace task %s: %w", task.ID, ErrTaskNotFound)
	}

	now := time.Now().UTC()
	task.UpdatedAt = now
	if err := models.ValidateStruct(task); err != nil {
		return models.Task{}, fmt.Errorf("validation failed for replaced task: %w", err)
	}
	s.tasks[task.ID] = task

	// The snapshot may flip the completion state of a subtask; the ancestor
	// chain has to follow.
	s.rollUpLocked(task.ParentID, now)

	if err := s.saveTasksToFileInternal(); err != nil {
		_ = s.loadTasksFromFileInternal()
		return models.Task{}, fmt.Errorf("save replaced task: %w", err)
	}

	s.notifyChange()
	return task, nil
}

// updateParentLink moves a task between parents, keeping both subtask lists
// consistent and refusing cycles.
func (s *FileTaskStore) updateParentLink(task *models.Task, newParentIDValue interface{}, now time.Time) error {
	newParentID, err := stringPtrValue("parentId", newParentIDValue)
	if err != nil {
		return err
	}
	if newParentID != nil && *newParentID == task.ID {
		return fmt.Errorf("task cannot be its own parent")
	}

	oldParentID := task.ParentID
	if (oldParentID == nil && newParentID == nil) ||
		(oldParentID != nil && newParentID != nil && *oldParentID == *newParentID) {
		return nil
	}

	if oldParentID != nil && *oldParentID != "" {
		if oldParent, ok := s.tasks[*oldParentID]; ok {
			oldParent.SubtaskIDs = removeStringFromSlice(oldParent.SubtaskIDs, task.ID)
			oldParent.UpdatedAt = now
			s.tasks[*oldParentID] = oldParent
		}
	}

	if newParentID != nil && *newParentID != "" {
		newParent, ok := s.tasks[*newParentID]
		if !ok {
			return fmt.Errorf("new parent task with ID '%s' not found", *newParentID)
		}
		if s.isSubtask(newParent, task.ID) {
			return fmt.Errorf("cannot set parent: '%s' is a subtask of '%s'", newParent.Title, task.Title)
		}
		newParent.SubtaskIDs = addStringToSliceIfMissing(newParent.SubtaskIDs, task.ID)
		newParent.UpdatedAt = now
		s.tasks[*newParentID] = newParent
	}

	task.ParentID = newParentID
	return nil
}

// isSubtask reports whether potentialParent sits below originalTaskID in the
// hierarchy.
func (s *FileTaskStore) isSubtask(potentialParent models.Task, originalTaskID string) bool {
	if potentialParent.ParentID == nil {
		return false
	}
	if *potentialParent.ParentID == originalTaskID {
		return true
	}
	if grandParent, ok := s.tasks[*potentialParent.ParentID]; ok {
		return s.isSubtask(grandParent, originalTaskID)
	}
	return false
}

// completeTreeLocked completes a task and its open subtasks. Running timers
// are folded in, and intraday-recurring tasks get their daily counter bumped.
func (s *FileTaskStore) completeTreeLocked(id string, now time.Time) {
	task, ok := s.tasks[id]
	if !ok || task.Deleted || task.IsCompleted() {
		return
	}

	stopTimer(&task, now)
	task.Status = models.StatusCompleted
	completedAt := now
	task.CompletedAt = &completedAt
	task.UpdatedAt = now

	if task.Recurrence != nil && task.Recurrence.IsIntraday() {
		count := task.IntradayCountOn(now) + 1
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		task.IntradayCount = count
		task.IntradayDate = &day
	}

	s.tasks[id] = task
	for _, subID := range task.SubtaskIDs {
		s.completeTreeLocked(subID, now)
	}
}

// rollUpLocked re-derives ancestor status from live subtask state. A parent
// whose non-deleted subtasks are all completed completes too; a completed
// parent reopens when one of them no longer is. The first completed subtask
// moves a pending parent to in-progress. Deleted subtasks never count.
func (s *FileTaskStore) rollUpLocked(parentID *string, now time.Time) {
	for pid := parentID; pid != nil; {
		parent, ok := s.tasks[*pid]
		if !ok {
			return
		}

		total, done := 0, 0
		for _, subID := range parent.SubtaskIDs {
			sub, ok := s.tasks[subID]
			if !ok || sub.Deleted {
				continue
			}
			total++
			if sub.IsCompleted() {
				done++
			}
		}
		if total == 0 {
			return
		}

		changed := false
		switch {
		case done == total:
			if !parent.IsCompleted() {
				stopTimer(&parent, now)
				parent.Status = models.StatusCompleted
				completedAt := now
				parent.CompletedAt = &completedAt
				parent.UpdatedAt = now
				changed = true
			}
		case parent.IsCompleted():
			if done > 0 {
				parent.Status = models.StatusInProgress
			} else {
				parent.Status = models.StatusPending
			}
			parent.CompletedAt = nil
			parent.UpdatedAt = now
			changed = true
		case done > 0 && parent.Status == models.StatusPending:
			parent.Status = models.StatusInProgress
			parent.UpdatedAt = now
			changed = true
		}
		if !changed {
			return
		}

		s.tasks[*pid] = parent
		pid = parent.ParentID
	}
}

// CompleteTask marks a task completed and keeps the hierarchy consistent:
// open subtasks complete with it and completion rolls up to ancestors.
// Completing an already-completed task is a no-op.
func (s *FileTaskStore) CompleteTask(id string) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("lock file for complete: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadTasksFromFileInternal(); err != nil {
		return models.Task{}, fmt.Errorf("reload tasks before complete: %w", err)
	}

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("complete task %s: %w", id, ErrTaskNotFound)
	}
	if task.Deleted {
		return models.Task{}, fmt.Errorf("cannot complete deleted task %s", id)
	}
	if task.IsCompleted() {
		return task, nil
	}

	now := time.Now().UTC()
	s.completeTreeLocked(id, now)
	s.rollUpLocked(task.ParentID, now)

	updated := s.tasks[id]
	if err := models.ValidateStruct(updated); err != nil {
		_ = s.loadTasksFromFileInternal()
		return models.Task{}, fmt.Errorf("validation failed for task %s after completion: %w", id, err)
	}

	if err := s.saveTasksToFileInternal(); err != nil {
		_ = s.loadTasksFromFileInternal()
		return models.Task{}, fmt.Errorf("save after completing task: %w", err)
	}

	s.notifyChange()
	return updated, nil
}

// StartProgress starts the work timer on a task. Whichever task was running
// before is paused first, so at most one timer runs at any time. Ancestors
// move to in-progress without getting a timer of their own.
func (s *FileTaskStore) StartProgress(id string) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("lock file for start: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadTasksFromFileInternal(); err != nil {
		return models.Task{}, fmt.Errorf("reload tasks before start: %w", err)
	}

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("start task %s: %w", id, ErrTaskNotFound)
	}
	if task.IsCompleted() {
		return models.Task{}, fmt.Errorf("cannot start completed task %s", id)
	}
	if task.Deleted {
		return models.Task{}, fmt.Errorf("cannot start deleted task %s", id)
	}
	if task.StartedAt != nil {
		return task, nil
	}

	now := time.Now().UTC()
	for otherID, other := range s.tasks {
		if otherID == id || other.StartedAt == nil {
			continue
		}
		stopTimer(&other, now)
		other.UpdatedAt = now
		s.tasks[otherID] = other
	}

	startedAt := now
	task.Status = models.StatusInProgress
	task.StartedAt = &startedAt
	task.UpdatedAt = now
	s.tasks[id] = task

	for pid := task.ParentID; pid != nil; {
		parent, ok := s.tasks[*pid]
		if !ok || parent.Status != models.StatusPending {
			break
		}
		parent.Status = models.StatusInProgress
		parent.UpdatedAt = now
		s.tasks[*pid] = parent
		pid = parent.ParentID
	}

	if err := s.saveTasksToFileInternal(); err != nil {
		_ = s.loadTasksFromFileInternal()
		return models.Task{}, fmt.Errorf("save after starting task: %w", err)
	}

	s.notifyChange()
	return task, nil
}

// StopProgress pauses the work timer, folding the elapsed time into the
// accumulated total. Stopping a task without a running timer is a no-op.
func (s *FileTaskStore) StopProgress(id string) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("lock file for stop: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadTasksFromFileInternal(); err != nil {
		return models.Task{}, fmt.Errorf("reload tasks before stop: %w", err)
	}

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("stop task %s: %w", id, ErrTaskNotFound)
	}
	if task.StartedAt == nil {
		return task, nil
	}

	now := time.Now().UTC()
	stopTimer(&task, now)
	task.UpdatedAt = now
	s.tasks[id] = task

	if err := s.saveTasksToFileInternal(); err != nil {
		_ = s.loadTasksFromFileInternal()
		return models.Task{}, fmt.Errorf("save after stopping task: %w", err)
	}

	s.notifyChange()
	return task, nil
}

// DeleteTask removes a task and its subtask subtree. Soft deletion tombstones
// the records; hard deletion drops them and detaches the parent link.
func (s *FileTaskStore) DeleteTask(id string, hard bool) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("lock file for delete: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadTasksFromFileInternal(); err != nil {
		return fmt.Errorf("reload tasks before delete: %w", err)
	}

	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("delete task %s: %w", id, ErrTaskNotFound)
	}

	now := time.Now().UTC()
	ids := s.subtreeIDsLocked(id)

	if hard {
		if task.ParentID != nil {
			if parent, ok := s.tasks[*task.ParentID]; ok {
				parent.SubtaskIDs = removeStringFromSlice(parent.SubtaskIDs, id)
				parent.UpdatedAt = now
				s.tasks[*task.ParentID] = parent
			}
		}
		for _, tid := range ids {
			delete(s.tasks, tid)
		}
	} else {
		deletedAt := now
		for _, tid := range ids {
			t, ok := s.tasks[tid]
			if !ok || t.Deleted {
				continue
			}
			stopTimer(&t, now)
			t.Deleted = true
			t.DeletedAt = &deletedAt
			t.UpdatedAt = now
			s.tasks[tid] = t
		}
	}

	// Removing a subtask can leave the parent's remaining live subtasks all
	// completed.
	s.rollUpLocked(task.ParentID, now)

	if err := s.saveTasksToFileInternal(); err != nil {
		_ = s.loadTasksFromFileInternal()
		return fmt.Errorf("save after deleting task: %w", err)
	}

	s.notifyChange()
	return nil
}

// RestoreTask clears the tombstone on a soft-deleted task and its subtree.
// Restoring a live task is a no-op.
func (s *FileTaskStore) RestoreTask(id string) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("lock file for restore: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadTasksFromFileInternal(); err != nil {
		return models.Task{}, fmt.Errorf("reload tasks before restore: %w", err)
	}

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("restore task %s: %w", id, ErrTaskNotFound)
	}
	if !task.Deleted {
		return task, nil
	}

	now := time.Now().UTC()
	for _, tid := range s.subtreeIDsLocked(id) {
		t, ok := s.tasks[tid]
		if !ok || !t.Deleted {
			continue
		}
		t.Deleted = false
		t.DeletedAt = nil
		t.UpdatedAt = now
		s.tasks[tid] = t
	}

	// The restored task counts for aggregation again; a pending subtask
	// reopens a parent that completed while it was gone.
	s.rollUpLocked(task.ParentID, now)

	if err := s.saveTasksToFileInternal(); err != nil {
		_ = s.loadTasksFromFileInternal()
		return models.Task{}, fmt.Errorf("save after restoring task: %w", err)
	}

	s.notifyChange()
	return s.tasks[id], nil
}

// ListTasks retrieves tasks, optionally filtered and sorted.
func (s *FileTaskStore) ListTasks(filterFn func(models.Task) bool, sortFn func([]models.Task) []models.Task) ([]models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return nil, fmt.Errorf("lock file for list: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadTasksFromFileInternal(); err != nil {
		return nil, fmt.Errorf("load tasks for list: %w", err)
	}

	if len(s.tasks) == 0 {
		return []models.Task{}, nil
	}

	taskList := make([]models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		taskList = append(taskList, task)
	}

	if filterFn != nil {
		filtered := make([]models.Task, 0, len(taskList))
		for _, task := range taskList {
			if filterFn(task) {
				filtered = append(filtered, task)
			}
		}
		taskList = filtered
	}

	if sortFn != nil {
		taskList = sortFn(taskList)
	}

	return taskList, nil
}

// Backup copies the current data file to the destination path. The checksum
// sidecar is not copied; a restored file gets a fresh one on its next save.
func (s *FileTaskStore) Backup(destinationPath string) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("lock file for backup: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	input, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("read source file %s for backup: %w", s.filePath, err)
	}
	if err = os.WriteFile(destinationPath, input, 0o644); err != nil {
		return fmt.Errorf("write backup file to %s: %w", destinationPath, err)
	}
	return nil
}

// Restore replaces the current data file with the backup at sourcePath and
// reloads. The stale checksum sidecar is removed; the next save recreates it.
func (s *FileTaskStore) Restore(sourcePath string) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("lock file for restore: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	sourceData, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("read backup file %s: %w", sourcePath, err)
	}

	tempFilePath := s.filePath + ".tmp_restore"
	defer func() { _ = os.Remove(tempFilePath) }()

	if err = os.WriteFile(tempFilePath, sourceData, 0o644); err != nil {
		return fmt.Errorf("write restored data to temporary file %s: %w", tempFilePath, err)
	}
	if err = os.Rename(tempFilePath, s.filePath); err != nil {
		return fmt.Errorf("replace data file %s with backup %s: %w", s.filePath, sourcePath, err)
	}
	_ = os.Remove(s.filePath + checksumSuffix)

	if err := s.loadTasksFromFileInternal(); err != nil {
		return err
	}

	s.notifyChange()
	return nil
}

// Close releases the file lock. Unlock is safe to call when the lock is not
// held.
func (s *FileTaskStore) Close() error {
	if s.flk != nil {
		return s.flk.Unlock()
	}
	return nil
}
