package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TaskStatus represents the lifecycle state of a task. Status is the single
// source of truth; completion checks derive from it.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskPriority represents the explicit priority levels of a task.
type TaskPriority string

const (
	PriorityNone   TaskPriority = "none"
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Weight orders priorities none < low < medium < high < urgent.
func (p TaskPriority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// TaskCategory is the built-in category set. A task may instead reference a
// user-defined category by name; see Task.EffectiveCategory.
type TaskCategory string

const (
	CategoryNone     TaskCategory = "none"
	CategoryWork     TaskCategory = "work"
	CategoryPersonal TaskCategory = "personal"
	CategoryHealth   TaskCategory = "health"
	CategoryErrands  TaskCategory = "errands"
	CategoryFinance  TaskCategory = "finance"
	CategoryLearning TaskCategory = "learning"
	CategoryHome     TaskCategory = "home"
)

// Task represents a unit of work.
type Task struct {
	ID    string `json:"id" validate:"required,uuid4"`
	Title string `json:"title" validate:"required,min=1,max=255"`
	Notes string `json:"notes,omitempty"`

	Status   TaskStatus   `json:"status" validate:"required,oneof=pending in-progress completed"`
	Priority TaskPriority `json:"priority" validate:"required,oneof=none low medium high urgent"`

	// Category and CustomCategory are mutually exclusive in effect; a set
	// CustomCategory wins.
	Category       TaskCategory `json:"category,omitempty" validate:"omitempty,oneof=none work personal health errands finance learning home"`
	CustomCategory *string      `json:"customCategory,omitempty" validate:"omitempty,min=1,max=64"`
	ListName       *string      `json:"listName,omitempty"`

	// DueDate carries the calendar day (midnight-normalized); DueTime carries
	// only the wall clock. DueAt combines them.
	DueDate          *time.Time `json:"dueDate,omitempty"`
	DueTime          *time.Time `json:"dueTime,omitempty"`
	ReminderAt       *time.Time `json:"reminderAt,omitempty"`
	EstimatedMinutes *int       `json:"estimatedMinutes,omitempty" validate:"omitempty,min=1"`

	Recurrence    *RecurringRule `json:"recurrence,omitempty"`
	IntradayCount int            `json:"intradayCount,omitempty" validate:"min=0"`
	IntradayDate  *time.Time     `json:"intradayDate,omitempty"`

	ParentID   *string  `json:"parentId,omitempty" validate:"omitempty,uuid4"`
	SubtaskIDs []string `json:"subtaskIds,omitempty" validate:"dive,uuid4"`

	// Calendar link fields. CalendarEventID is the provider's mutable event
	// identifier, CalendarItemID its stable identifier used for re-linking.
	CalendarEventID *string    `json:"calendarEventId,omitempty"`
	CalendarItemID  *string    `json:"calendarItemId,omitempty"`
	SyncedStart     *time.Time `json:"syncedStart,omitempty"`
	SyncedEnd       *time.Time `json:"syncedEnd,omitempty"`
	LastSyncedAt    *time.Time `json:"lastSyncedAt,omitempty"`

	Archived  bool       `json:"archived,omitempty"`
	Deleted   bool       `json:"deleted,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`

	StartedAt          *time.Time `json:"startedAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	AccumulatedSeconds int64      `json:"accumulatedSeconds,omitempty" validate:"min=0"`

	CreatedAt time.Time `json:"createdAt" validate:"required"`
	UpdatedAt time.Time `json:"updatedAt" validate:"required"`
}

// TaskList represents the persisted collection of tasks.
type TaskList struct {
	Tasks []Task `json:"tasks" validate:"dive"`
}

// IsCompleted reports whether the task reached its terminal state.
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// IsActionable reports whether the task should participate in ranking,
// conflicts, and sync: not completed, not archived, not soft-deleted.
func (t *Task) IsActionable() bool {
	return t.Status != StatusCompleted && !t.Archived && !t.Deleted
}

// EffectiveCategory resolves the category used for scoring and patterns.
// A user-defined category name takes precedence over the built-in enum.
func (t *Task) EffectiveCategory() string {
	if t.CustomCategory != nil && *t.CustomCategory != "" {
		return *t.CustomCategory
	}
	if t.Category == "" {
		return string(CategoryNone)
	}
	return string(t.Category)
}

// DueAt combines DueDate and DueTime into a single instant, or nil when the
// task has no due date. A missing DueTime means midnight of the due day.
func (t *Task) DueAt() *time.Time {
	if t.DueDate == nil {
		return nil
	}
	y, m, d := t.DueDate.Date()
	at := time.Date(y, m, d, 0, 0, 0, 0, t.DueDate.Location())
	if t.DueTime != nil {
		at = time.Date(y, m, d, t.DueTime.Hour(), t.DueTime.Minute(), 0, 0, t.DueDate.Location())
	}
	return &at
}

// IsScheduled reports whether the task carries a full schedule window: a due
// day, a due time, and a positive duration estimate.
func (t *Task) IsScheduled() bool {
	return t.DueDate != nil && t.DueTime != nil && t.EstimatedMinutes != nil && *t.EstimatedMinutes > 0
}

// ScheduleWindow returns the task's calendar window. ok is false when the task
// is not fully scheduled.
func (t *Task) ScheduleWindow() (start, end time.Time, ok bool) {
	if !t.IsScheduled() {
		return time.Time{}, time.Time{}, false
	}
	start = *t.DueAt()
	end = start.Add(time.Duration(*t.EstimatedMinutes) * time.Minute)
	return start, end, true
}

// IntradayCountOn returns today's completion count for intraday recurring
// tasks. The stored counter resets lazily: a count recorded on an earlier day
// reads as zero.
func (t *Task) IntradayCountOn(day time.Time) int {
	if t.IntradayDate == nil {
		return 0
	}
	ty, tm, td := t.IntradayDate.Date()
	dy, dm, dd := day.In(t.IntradayDate.Location()).Date()
	if ty != dy || tm != dm || td != dd {
		return 0
	}
	return t.IntradayCount
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that has validation tags.
func ValidateStruct(s interface{}) error {
	if validate == nil {
		validate = validator.New()
	}
	err := validate.Struct(s)
	if err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, fmt.Sprintf("Validation failed on field '%s': rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(errorMessages, "; "))
	}
	return nil
}

// NewTask creates a task with sensible defaults and fresh timestamps.
func NewTask(id, title string) *Task {
	now := time.Now()
	return &Task{
		ID:         id,
		Title:      title,
		Status:     StatusPending,
		Priority:   PriorityNone,
		Category:   CategoryNone,
		SubtaskIDs: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
