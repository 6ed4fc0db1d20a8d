/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/internal/ai"
	"github.com/tasktide/tasktide/internal/learn"
	"github.com/tasktide/tasktide/internal/priority"
	"github.com/tasktide/tasktide/internal/ui"
	"github.com/tasktide/tasktide/models"
)

var (
	nextAll   bool
	nextCount int
	nextAI    bool
)

// nextCmd represents the next command
var nextCmd = &cobra.Command{
	Use:     "next",
	Aliases: []string{"n"},
	Short:   "Suggest what to work on next",
	Long: `Rank every actionable task by due urgency, explicit priority, age, effort,
time-of-day fit, and momentum, adjusted by your past feedback, then show a
small diverse set of picks. Snoozed tasks sit the round out.

Tell TaskTide how a suggestion landed with 'tasktide feedback'; the ranking
learns from it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		engine, feedback, err := newEngine()
		if err != nil {
			PrintError("Error: Could not load learning data.", err)
			return err
		}

		tasks, err := taskStore.ListTasks(func(t models.Task) bool { return t.IsActionable() }, nil)
		if err != nil {
			PrintError("Error: Could not list tasks.", err)
			return err
		}

		now := time.Now()
		ranked := engine.Rank(tasks, now)
		if len(ranked) == 0 {
			cmd.Println("Nothing to do. Add a task with: tasktide add \"...\"")
			return nil
		}

		count := nextCount
		if count <= 0 {
			count = GetConfig().Suggestions.TopPicks
		}
		picks := priority.TopPicks(ranked, count)

		if isJSON() {
			if nextAll {
				return printJSON(cmd.OutOrStdout(), ranked)
			}
			return printJSON(cmd.OutOrStdout(), picks)
		}

		if len(picks) == 0 {
			cmd.Println("Everything actionable is snoozed right now.")
			if s := soonestWake(feedbackTimes(ranked, feedback)); !s.IsZero() {
				cmd.Printf("Next wake-up: %s\n", s.Format("Mon 15:04"))
			}
			return nil
		}

		top := picks[0]
		cmd.Printf("%s %s\n", ui.TitleStyle.Render("Next up:"), top.Task.Title)
		cmd.Printf("  %s %s   %s %s   %s\n",
			ui.SubtitleStyle.Render("score"), ui.RenderScore(top.Effective),
			ui.SubtitleStyle.Render("confidence"), renderConfidence(top.Confidence),
			ui.IDStyle.Render("("+ui.TruncateID(top.Task.ID)+")"),
		)
		cmd.Printf("  %s\n", ui.ReasonStyle.Render(explainSuggestion(cmd.Context(), top)))

		if len(picks) > 1 {
			cmd.Println()
			cmd.Println(ui.SubtitleStyle.Render("Also good:"))
			for _, s := range picks[1:] {
				due := ""
				if at := s.Task.DueAt(); at != nil {
					due = "  " + ui.FormatDue(*at, s.Task.DueTime != nil, now)
				}
				cmd.Printf("  %s %s (%s)%s\n",
					ui.RenderScore(s.Effective), s.Task.Title, s.Task.EffectiveCategory(), due)
			}
		}

		if nextAll {
			cmd.Println()
			tbl := ui.NewTable(cmd.OutOrStdout(), "ID", "SCORE", "TITLE", "CATEGORY", "NOTE")
			for _, s := range ranked {
				note := ""
				if s.Snoozed {
					note = ui.FaintStyle.Render("snoozed")
				}
				tbl.AddRow(
					ui.IDStyle.Render(ui.TruncateID(s.Task.ID)),
					ui.RenderScore(s.Effective),
					ui.Truncate(s.Task.Title, 44),
					s.Task.EffectiveCategory(),
					note,
				)
			}
			tbl.Render()
		}

		cmd.Println()
		cmd.Println(ui.FaintStyle.Render("React with: tasktide feedback " + ui.TruncateID(top.Task.ID) + " started|helpful|skipped|snooze-hour|snooze-evening|snooze-tomorrow"))
		return nil
	},
}

// explainSuggestion renders the reason line, optionally rephrased by the AI
// decorator. The deterministic reasons always stand in on any failure.
func explainSuggestion(ctx context.Context, s priority.Suggestion) string {
	plain := strings.Join(s.Breakdown.Reasons, "; ")
	cfg := GetConfig()
	if !cfg.AI.Enabled && !nextAI {
		return plain
	}
	dec := ai.NewDecorator(ai.Config{
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.ModelName,
		APIKey:  cfg.AI.APIKey,
		Timeout: time.Duration(cfg.AI.RequestTimeoutSeconds) * time.Second,
	})
	if ctx == nil {
		ctx = context.Background()
	}
	text, err := dec.Decorate(ctx, s)
	if err != nil {
		LogError("ai decoration failed", err)
		return plain
	}
	return text
}

func renderConfidence(c priority.Confidence) string {
	switch c {
	case priority.ConfidenceRecommended:
		return ui.SuccessStyle.Render(string(c))
	case priority.ConfidenceStrong:
		return ui.WarnStyle.Render(string(c))
	default:
		return ui.FaintStyle.Render(string(c))
	}
}

// feedbackTimes collects wake-up times for snoozed suggestions.
func feedbackTimes(ranked []priority.Suggestion, feedback *learn.FeedbackStore) []time.Time {
	var out []time.Time
	for _, s := range ranked {
		if !s.Snoozed {
			continue
		}
		if until, ok := feedback.SnoozedUntil(s.Task.ID); ok {
			out = append(out, until)
		}
	}
	return out
}

func soonestWake(times []time.Time) time.Time {
	var soonest time.Time
	for _, t := range times {
		if soonest.IsZero() || t.Before(soonest) {
			soonest = t
		}
	}
	return soonest
}

func init() {
	rootCmd.AddCommand(nextCmd)

	nextCmd.Flags().BoolVar(&nextAll, "all", false, "also print the full ranked list")
	nextCmd.Flags().IntVar(&nextCount, "count", 0, "number of picks to show (default from config)")
	nextCmd.Flags().BoolVar(&nextAI, "ai", false, "rephrase the top reason through the configured AI model")
}
