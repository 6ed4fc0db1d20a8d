package learn

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPatterns(t *testing.T) (*PatternStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s, err := NewPatternStore(fs, "learn/patterns.json")
	require.NoError(t, err)
	return s, fs
}

func TestRecordCompletionCounters(t *testing.T) {
	s, _ := newTestPatterns(t)

	// 2025-06-03 is a Tuesday (weekday number 3).
	nineAM := time.Date(2025, time.June, 3, 9, 15, 0, 0, time.UTC)
	require.NoError(t, s.RecordCompletion("work", nineAM))
	require.NoError(t, s.RecordCompletion("work", nineAM.Add(20*time.Minute)))
	require.NoError(t, s.RecordCompletion("work", nineAM.Add(5*time.Hour)))

	assert.Equal(t, 2, s.HourCount("work", 9))
	assert.Equal(t, 1, s.HourCount("work", 14))
	assert.Equal(t, 0, s.HourCount("work", 11))
	assert.Equal(t, 2, s.PeakHourCount("work"))
	assert.Equal(t, 3, s.WeekdayCount("work", 3))
	assert.Equal(t, "work", s.LastCompletedCategory())
}

func TestRecordCompletionEmptyCategory(t *testing.T) {
	s, _ := newTestPatterns(t)

	at := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordCompletion("", at))

	assert.Equal(t, 1, s.HourCount("none", 9))
	assert.Equal(t, "none", s.LastCompletedCategory())
}

func TestPatternsPersistAcrossLoads(t *testing.T) {
	s, fs := newTestPatterns(t)

	at := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordCompletion("deep-focus", at))

	reloaded, err := NewPatternStore(fs, "learn/patterns.json")
	require.NoError(t, err)

	assert.Equal(t, 1, reloaded.HourCount("deep-focus", 9))
	assert.Equal(t, "deep-focus", reloaded.LastCompletedCategory())
}

func TestPatternsMalformedBlob(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "learn/patterns.json", []byte("]["), 0644))

	s, err := NewPatternStore(fs, "learn/patterns.json")
	require.NoError(t, err)
	assert.Equal(t, 0, s.PeakHourCount("work"))
	assert.Equal(t, "", s.LastCompletedCategory())
}
