package learn

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

type patternState struct {
	// Counters keyed "category|hour" and "category|weekday" (1=Sunday).
	HourCounts    map[string]int `json:"hourCounts,omitempty"`
	WeekdayCounts map[string]int `json:"weekdayCounts,omitempty"`
	LastCategory  string         `json:"lastCategory,omitempty"`
	LastCompleted time.Time      `json:"lastCompleted"`
}

// PatternStore tracks when tasks of each category actually get completed.
// The counters feed the momentum factor and the time-of-day fit for
// user-defined categories that the static table cannot cover.
type PatternStore struct {
	mu    sync.Mutex
	state patternState
	blob  *blobStore
}

// NewPatternStore loads persisted completion patterns from path. A missing or
// malformed blob yields an empty store.
func NewPatternStore(fs afero.Fs, path string) (*PatternStore, error) {
	s := &PatternStore{blob: &blobStore{fs: fs, path: path}}
	var st patternState
	ok, err := s.blob.load(&st)
	if err != nil {
		return nil, err
	}
	if !ok {
		st = patternState{}
	}
	s.state = st
	if s.state.HourCounts == nil {
		s.state.HourCounts = map[string]int{}
	}
	if s.state.WeekdayCounts == nil {
		s.state.WeekdayCounts = map[string]int{}
	}
	return s, nil
}

// RecordCompletion bumps the hour and weekday counters for the category and
// remembers it as the most recent completion.
func (s *PatternStore) RecordCompletion(category string, at time.Time) error {
	if category == "" {
		category = "none"
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.HourCounts[patternKey(category, at.Hour())]++
	s.state.WeekdayCounts[patternKey(category, int(at.Weekday())+1)]++
	s.state.LastCategory = category
	s.state.LastCompleted = at
	return s.blob.save(&s.state)
}

// LastCompletedCategory returns the category of the most recent completion,
// or the empty string when nothing completed yet.
func (s *PatternStore) LastCompletedCategory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastCategory
}

// HourCount returns how many completions the category has at the given hour.
func (s *PatternStore) HourCount(category string, hour int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.HourCounts[patternKey(category, hour)]
}

// PeakHourCount returns the category's largest single-hour completion count.
func (s *PatternStore) PeakHourCount(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	peak := 0
	prefix := category + "|"
	for key, n := range s.state.HourCounts {
		if strings.HasPrefix(key, prefix) && n > peak {
			peak = n
		}
	}
	return peak
}

// WeekdayCount returns how many completions the category has on the given
// weekday (1=Sunday..7=Saturday).
func (s *PatternStore) WeekdayCount(category string, weekday int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.WeekdayCounts[patternKey(category, weekday)]
}

func patternKey(category string, n int) string {
	return fmt.Sprintf("%s|%d", category, n)
}
