/*
Package learn holds the persistent signals behind prioritization: explicit
user feedback on suggestions and observed completion patterns. Both stores
persist immediately on every mutation so a crash never loses a signal.
*/
package learn

import (
	"math"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// FeedbackAction classifies a user's reaction to a suggested task.
type FeedbackAction string

const (
	ActionStarted        FeedbackAction = "started"
	ActionHelpful        FeedbackAction = "helpful"
	ActionSkipped        FeedbackAction = "skipped"
	ActionSnoozeHour     FeedbackAction = "snooze-hour"
	ActionSnoozeEvening  FeedbackAction = "snooze-evening"
	ActionSnoozeTomorrow FeedbackAction = "snooze-tomorrow"
)

// IsSnooze reports whether the action hides the task for a while.
func (a FeedbackAction) IsSnooze() bool {
	return a == ActionSnoozeHour || a == ActionSnoozeEvening || a == ActionSnoozeTomorrow
}

// Valid reports whether a is a known action.
func (a FeedbackAction) Valid() bool {
	switch a {
	case ActionStarted, ActionHelpful, ActionSkipped, ActionSnoozeHour, ActionSnoozeEvening, ActionSnoozeTomorrow:
		return true
	}
	return false
}

// Score deltas per action. Positive reactions push a task up on future ranks,
// negative ones push it down.
var actionDeltas = map[FeedbackAction]float64{
	ActionStarted:        5,
	ActionHelpful:        3,
	ActionSkipped:        -5,
	ActionSnoozeHour:     -2,
	ActionSnoozeEvening:  -2,
	ActionSnoozeTomorrow: -3,
}

const (
	maxEvents     = 200
	maxAdjustment = 15.0
	decayFactor   = 0.95
	decayPeriod   = 7 * 24 * time.Hour
	pruneBelow    = 0.5
	eveningHour   = 18
	morningHour   = 9
)

// FeedbackEvent is one recorded reaction.
type FeedbackEvent struct {
	TaskID   string         `json:"taskId"`
	Action   FeedbackAction `json:"action"`
	Category string         `json:"category,omitempty"`
	At       time.Time      `json:"at"`
}

type feedbackState struct {
	Events       []FeedbackEvent      `json:"events,omitempty"`
	Adjustments  map[string]float64   `json:"adjustments,omitempty"`
	SnoozedUntil map[string]time.Time `json:"snoozedUntil,omitempty"`
	LastDecay    time.Time            `json:"lastDecay"`
}

// FeedbackStore accumulates per-task score adjustments from user feedback.
// The event log is bounded; adjustments are clamped and decay weekly so old
// opinions fade instead of dominating forever.
type FeedbackStore struct {
	mu    sync.Mutex
	state feedbackState
	blob  *blobStore
}

// NewFeedbackStore loads persisted feedback state from path, applying any
// pending weekly decay. A missing or malformed blob yields an empty store.
func NewFeedbackStore(fs afero.Fs, path string, now time.Time) (*FeedbackStore, error) {
	s := &FeedbackStore{blob: &blobStore{fs: fs, path: path}}
	var st feedbackState
	ok, err := s.blob.load(&st)
	if err != nil {
		return nil, err
	}
	if !ok {
		st = feedbackState{}
	}
	s.state = st
	s.ensureMaps()
	if s.state.LastDecay.IsZero() {
		s.state.LastDecay = now
	}
	if err := s.decayLocked(now); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FeedbackStore) ensureMaps() {
	if s.state.Adjustments == nil {
		s.state.Adjustments = map[string]float64{}
	}
	if s.state.SnoozedUntil == nil {
		s.state.SnoozedUntil = map[string]time.Time{}
	}
}

// Record appends a feedback event, applies its score delta, and for snooze
// actions hides the task until the computed wake time.
func (s *FeedbackStore) Record(taskID string, action FeedbackAction, category string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Events = append(s.state.Events, FeedbackEvent{
		TaskID:   taskID,
		Action:   action,
		Category: category,
		At:       now,
	})
	if over := len(s.state.Events) - maxEvents; over > 0 {
		s.state.Events = append([]FeedbackEvent(nil), s.state.Events[over:]...)
	}

	adj := s.state.Adjustments[taskID] + actionDeltas[action]
	s.state.Adjustments[taskID] = clampAdjustment(adj)

	if action.IsSnooze() {
		s.state.SnoozedUntil[taskID] = SnoozeUntil(action, now)
	}

	return s.blob.save(&s.state)
}

// SnoozeUntil computes the wake time for a snooze action: one hour from now,
// this evening at 18:00 (or tomorrow evening when already past), or tomorrow
// morning at 09:00.
func SnoozeUntil(action FeedbackAction, now time.Time) time.Time {
	switch action {
	case ActionSnoozeHour:
		return now.Add(time.Hour)
	case ActionSnoozeEvening:
		evening := time.Date(now.Year(), now.Month(), now.Day(), eveningHour, 0, 0, 0, now.Location())
		if !now.Before(evening) {
			evening = evening.AddDate(0, 0, 1)
		}
		return evening
	case ActionSnoozeTomorrow:
		tomorrow := now.AddDate(0, 0, 1)
		return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), morningHour, 0, 0, 0, now.Location())
	}
	return now
}

// Adjustment returns the accumulated score adjustment for a task.
func (s *FeedbackStore) Adjustment(taskID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Adjustments[taskID]
}

// IsSnoozed reports whether the task is hidden from suggestions at now.
func (s *FeedbackStore) IsSnoozed(taskID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.state.SnoozedUntil[taskID]
	return ok && now.Before(until)
}

// SnoozedUntil returns the wake time for a snoozed task.
func (s *FeedbackStore) SnoozedUntil(taskID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.state.SnoozedUntil[taskID]
	return until, ok
}

// PruneExpiredSnoozes drops snoozes whose wake time has passed and returns how
// many were removed. Callers re-rank only when the snoozed set shrank.
func (s *FeedbackStore) PruneExpiredSnoozes(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, until := range s.state.SnoozedUntil {
		if !now.Before(until) {
			delete(s.state.SnoozedUntil, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.blob.save(&s.state)
}

// Decay applies the weekly decay factor for every whole week elapsed since the
// last decay, pruning adjustments that faded to noise. Calling it again within
// the same week is a no-op.
func (s *FeedbackStore) Decay(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decayLocked(now)
}

func (s *FeedbackStore) decayLocked(now time.Time) error {
	weeks := int(now.Sub(s.state.LastDecay) / decayPeriod)
	if weeks < 1 {
		return nil
	}

	factor := math.Pow(decayFactor, float64(weeks))
	for id, adj := range s.state.Adjustments {
		adj *= factor
		if math.Abs(adj) < pruneBelow {
			delete(s.state.Adjustments, id)
			continue
		}
		s.state.Adjustments[id] = adj
	}
	// Advance by whole periods to keep the weekly phase stable.
	s.state.LastDecay = s.state.LastDecay.Add(time.Duration(weeks) * decayPeriod)
	return s.blob.save(&s.state)
}

// Forget removes every signal tied to a task, used when a task is hard
// deleted.
func (s *FeedbackStore) Forget(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, hadAdj := s.state.Adjustments[taskID]
	_, hadSnooze := s.state.SnoozedUntil[taskID]
	if !hadAdj && !hadSnooze {
		return nil
	}
	delete(s.state.Adjustments, taskID)
	delete(s.state.SnoozedUntil, taskID)
	return s.blob.save(&s.state)
}

// Events returns a copy of the recorded feedback log, oldest first.
func (s *FeedbackStore) Events() []FeedbackEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FeedbackEvent, len(s.state.Events))
	copy(out, s.state.Events)
	return out
}

func clampAdjustment(v float64) float64 {
	if v > maxAdjustment {
		return maxAdjustment
	}
	if v < -maxAdjustment {
		return -maxAdjustment
	}
	return v
}
