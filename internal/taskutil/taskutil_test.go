package taskutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktide/tasktide/models"
)

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in   string
		want models.TaskPriority
	}{
		{"high", models.PriorityHigh},
		{"  HIGH ", models.PriorityHigh},
		{"hi", models.PriorityHigh},
		{"p1", models.PriorityHigh},
		{"critical", models.PriorityUrgent},
		{"asap", models.PriorityUrgent},
		{"normal", models.PriorityMedium},
		{"p3", models.PriorityMedium},
		{"minor", models.PriorityLow},
		{"p0", models.PriorityLow},
		{"none", models.PriorityNone},
		{"", ""},
	}
	for _, tc := range tests {
		got, err := NormalizePriority(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := NormalizePriority("sideways")
	assert.Error(t, err)
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want models.TaskStatus
	}{
		{"pending", models.StatusPending},
		{"todo", models.StatusPending},
		{"doing", models.StatusInProgress},
		{"active", models.StatusInProgress},
		{"wip", models.StatusInProgress},
		{"done", models.StatusCompleted},
		{"completed", models.StatusCompleted},
		{"closed", models.StatusCompleted},
		{"", ""},
	}
	for _, tc := range tests {
		got, err := NormalizeStatus(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := NormalizeStatus("paused")
	assert.Error(t, err)
}
