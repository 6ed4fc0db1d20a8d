package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tasktide/tasktide/internal/conflict"
	"github.com/tasktide/tasktide/internal/priority"
)

// DashboardSource supplies the live snapshots the dashboard renders.
// *reconcile.Reconciler satisfies it.
type DashboardSource interface {
	Suggestions() []priority.Suggestion
	Conflicts() []conflict.Conflict
}

const dashboardRefresh = 2 * time.Second

type dashTickMsg time.Time

func dashTick() tea.Cmd {
	return tea.Tick(dashboardRefresh, func(t time.Time) tea.Msg {
		return dashTickMsg(t)
	})
}

type dashboardModel struct {
	src         DashboardSource
	spinner     spinner.Model
	suggestions []priority.Suggestion
	conflicts   []conflict.Conflict
	refreshedAt time.Time
	width       int
	loaded      bool
}

func newDashboardModel(src DashboardSource) dashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = TitleStyle
	return dashboardModel{src: src, spinner: s, width: 80}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh, dashTick())
}

func (m dashboardModel) refresh() tea.Msg {
	return dashTickMsg(time.Now())
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.refresh
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case dashTickMsg:
		m.suggestions = m.src.Suggestions()
		m.conflicts = m.src.Conflicts()
		m.refreshedAt = time.Time(msg)
		m.loaded = true
		return m, dashTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("TaskTide"))
	b.WriteString(SubtitleStyle.Render("  live suggestions"))
	if !m.refreshedAt.IsZero() {
		b.WriteString(FaintStyle.Render("  · updated " + m.refreshedAt.Format("15:04:05")))
	}
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString(m.spinner.View())
		b.WriteString(" waiting for first pass...\n")
	case len(m.suggestions) == 0:
		b.WriteString(FaintStyle.Render("No actionable tasks.") + "\n")
	default:
		tbl := NewTable(&b, "#", "SCORE", "TASK", "DUE", "WHY")
		now := time.Now()
		for i, s := range m.suggestions {
			if i >= 10 {
				break
			}
			due := "-"
			if at := s.Task.DueAt(); at != nil {
				due = FormatDue(*at, s.Task.DueTime != nil, now)
			}
			tbl.AddRow(
				fmt.Sprintf("%d", i+1),
				RenderScore(s.Effective),
				Truncate(s.Task.Title, 40),
				due,
				ReasonStyle.Render(Truncate(strings.Join(s.Breakdown.Reasons, "; "), 38)),
			)
		}
		tbl.Render()
	}

	if len(m.conflicts) > 0 {
		b.WriteString("\n")
		b.WriteString(WarnStyle.Bold(true).Render(fmt.Sprintf("Conflicts (%d)", len(m.conflicts))))
		b.WriteString("\n")
		for i, c := range m.conflicts {
			if i >= 5 {
				break
			}
			b.WriteString("  " + WarnStyle.Render("⚠ ") + c.Describe() + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(FaintStyle.Render("r refresh · q quit"))
	b.WriteString("\n")

	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
	}
	return b.String()
}

// RunDashboard blocks on a full-screen live view of the suggestion
// queue and conflict list until the user quits.
func RunDashboard(src DashboardSource) error {
	p := tea.NewProgram(newDashboardModel(src), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
