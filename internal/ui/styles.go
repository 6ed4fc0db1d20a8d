package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tasktide/tasktide/models"
)

// Shared lipgloss styles for command output. Colors come from the
// 256-color palette so they degrade gracefully on basic terminals.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81"))

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	FaintStyle = lipgloss.NewStyle().
			Faint(true)

	IDStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	ReasonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("109")).
			Italic(true)
)

var priorityStyles = map[models.TaskPriority]lipgloss.Style{
	models.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
	models.PriorityNone:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

var statusStyles = map[models.TaskStatus]lipgloss.Style{
	models.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	models.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
	models.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
}

// RenderPriority colors a priority label with its conventional hue.
func RenderPriority(p models.TaskPriority) string {
	style, ok := priorityStyles[p]
	if !ok {
		return string(p)
	}
	return style.Render(string(p))
}

// RenderStatus colors a status label.
func RenderStatus(s models.TaskStatus) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(string(s))
}

// RenderScore shades an effective score: hot scores draw the eye,
// cold ones recede.
func RenderScore(score float64) string {
	text := FormatScore(score)
	switch {
	case score >= 75:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Render(text)
	case score >= 50:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(text)
	case score >= 25:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Render(text)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(text)
	}
}

