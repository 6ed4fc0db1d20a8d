// Package taskutil normalizes loose user input into canonical task fields.
package taskutil

import (
	"fmt"
	"strings"

	"github.com/tasktide/tasktide/models"
)

// NormalizePriority maps common inputs and typos to canonical priorities.
// Empty input stays empty so callers can distinguish "not given".
func NormalizePriority(input string) (models.TaskPriority, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return "", nil
	}

	switch s {
	case "none", "low", "medium", "high", "urgent":
		return models.TaskPriority(s), nil
	case "lo", "l", "minor":
		return models.PriorityLow, nil
	case "med", "m", "normal", "regular":
		return models.PriorityMedium, nil
	case "hi", "h", "important", "imp", "p1":
		return models.PriorityHigh, nil
	case "urg", "u", "critical", "asap", "emergency", "urgent!":
		return models.PriorityUrgent, nil
	case "p2", "p3":
		return models.PriorityMedium, nil
	case "p4", "p5", "p0":
		return models.PriorityLow, nil
	}

	return "", fmt.Errorf("unknown priority '%s'", input)
}

// NormalizeStatus maps common inputs to canonical statuses.
func NormalizeStatus(input string) (models.TaskStatus, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return "", nil
	}

	switch s {
	case "pending", "in-progress", "completed":
		return models.TaskStatus(s), nil
	case "todo", "open", "new":
		return models.StatusPending, nil
	case "started", "active", "doing", "wip", "inprogress", "in_progress", "progress":
		return models.StatusInProgress, nil
	case "done", "complete", "finished", "closed":
		return models.StatusCompleted, nil
	}

	return "", fmt.Errorf("unknown status '%s'", input)
}
