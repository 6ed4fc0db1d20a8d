/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/internal/learn"
	"github.com/tasktide/tasktide/internal/ui"
)

// feedbackCmd represents the feedback command
var feedbackCmd = &cobra.Command{
	Use:     "feedback <task> <action>",
	Aliases: []string{"fb"},
	Short:   "React to a suggestion so the ranking can learn",
	Long: `Record how a suggestion landed. Positive reactions (started, helpful) push
the task up on future ranks, negative ones (skipped) push it down, and the
snooze actions additionally hide the task until it wakes up:

  started          you began working it            (+5)
  helpful          good call, even if not now      (+3)
  skipped          wrong suggestion                (−5)
  snooze-hour      hide for an hour                (−2)
  snooze-evening   hide until 18:00                (−2)
  snooze-tomorrow  hide until tomorrow 09:00       (−3)

Adjustments cap at ±15 and fade ~5% per week.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		action := learn.FeedbackAction(args[1])
		if !action.Valid() {
			return fmt.Errorf("unknown action %q (use started|helpful|skipped|snooze-hour|snooze-evening|snooze-tomorrow)", args[1])
		}

		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		t, err := resolveTask(taskStore, args[0])
		if err != nil {
			PrintError("Error: Could not find task '"+args[0]+"'.", err)
			return err
		}

		feedback, err := openFeedbackStore()
		if err != nil {
			PrintError("Error: Could not open the feedback store.", err)
			return err
		}

		now := time.Now()
		if err := feedback.Record(t.ID, action, t.EffectiveCategory(), now); err != nil {
			PrintError("Error: Could not record feedback.", err)
			return err
		}

		if isJSON() {
			out := map[string]any{
				"taskId":     t.ID,
				"action":     action,
				"adjustment": feedback.Adjustment(t.ID),
			}
			if until, ok := feedback.SnoozedUntil(t.ID); ok {
				out["snoozedUntil"] = until
			}
			return printJSON(cmd.OutOrStdout(), out)
		}

		cmd.Printf("Recorded %s for '%s'.\n", ui.SuccessStyle.Render(string(action)), t.Title)
		cmd.Printf("  adjustment now %+.1f\n", feedback.Adjustment(t.ID))
		if until, ok := feedback.SnoozedUntil(t.ID); ok && until.After(now) {
			cmd.Printf("  snoozed until %s\n", until.Format("Mon 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
}
