package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCmdTest points the CLI at a throwaway data dir. Tests drive commands
// through rootCmd the way a user would.
func setupCmdTest(t *testing.T) string {
	t.Helper()
	viper.Reset()
	root := filepath.Join(t.TempDir(), ".tasktide")
	viper.Set("project.rootDir", root)
	viper.Set("data.file", "tasks.json")
	viper.Set("data.format", "json")
	viper.Set("calendar.syncEnabled", false)
	viper.Set("notifications.enabled", false)
	t.Cleanup(viper.Reset)
	resetCommandState(t)
	return root
}

// resetCommandState clears sticky flag state between Execute calls in the
// same process.
func resetCommandState(t *testing.T) {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if !f.Changed {
				return
			}
			if err := f.Value.Set(f.DefValue); err != nil {
				t.Fatalf("reset flag %s: %v", f.Name, err)
			}
			f.Changed = false
		})
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCommandState(t)
	b := bytes.NewBufferString("")
	rootCmd.SetOut(b)
	rootCmd.SetErr(b)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return b.String(), err
}

// extractTaskID pulls the ID out of an "Added task '...' (ID: ...)" line.
func extractTaskID(t *testing.T, output string) string {
	t.Helper()
	idx := strings.Index(output, "(ID: ")
	require.GreaterOrEqual(t, idx, 0, "no task ID in output: %s", output)
	rest := output[idx+len("(ID: "):]
	end := strings.Index(rest, ")")
	require.GreaterOrEqual(t, end, 0)
	return rest[:end]
}

func TestAddAndListFlow(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "add", "Write weekly report", "--priority", "high", "--estimate", "30")
	assert.NoError(t, err)
	assert.Contains(t, out, "Added task 'Write weekly report'")

	out, err = runCommand(t, "list")
	assert.NoError(t, err)
	assert.Contains(t, out, "Write weekly report")
	assert.Contains(t, out, "high")
}

func TestListEmpty(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "list")
	assert.NoError(t, err)
	assert.Contains(t, out, "No tasks found")
}

func TestDoneCompletesTask(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "add", "Pay electricity bill")
	assert.NoError(t, err)
	id := extractTaskID(t, out)

	out, err = runCommand(t, "done", id)
	assert.NoError(t, err)
	assert.Contains(t, out, "marked as done")
	assert.Contains(t, out, "Pay electricity bill")
}

func TestDoneSpawnsNextOccurrence(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "add", "Morning stretches", "--every", "day", "--due", "today")
	assert.NoError(t, err)
	assert.Contains(t, out, "repeats daily")
	id := extractTaskID(t, out)

	out, err = runCommand(t, "done", id)
	assert.NoError(t, err)
	assert.Contains(t, out, "Next occurrence scheduled for")
}

func TestUndoReversesCompletion(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "add", "Water the plants")
	assert.NoError(t, err)
	id := extractTaskID(t, out)

	_, err = runCommand(t, "done", id)
	assert.NoError(t, err)

	out, err = runCommand(t, "undo")
	assert.NoError(t, err)
	assert.Contains(t, out, "Undid:")
	assert.Contains(t, out, "Water the plants")
}

func TestUndoEmptyLog(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "undo")
	assert.NoError(t, err)
	assert.Contains(t, out, "Nothing to undo")
}

func TestDeleteAndRestore(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "add", "Old errand")
	assert.NoError(t, err)
	id := extractTaskID(t, out)

	out, err = runCommand(t, "delete", id, "--yes")
	assert.NoError(t, err)
	assert.Contains(t, out, "Deleted task 'Old errand'")

	out, err = runCommand(t, "list")
	assert.NoError(t, err)
	assert.NotContains(t, out, "Old errand")

	out, err = runCommand(t, "restore", id)
	assert.NoError(t, err)
	assert.Contains(t, out, "Restored task 'Old errand'")

	out, err = runCommand(t, "list")
	assert.NoError(t, err)
	assert.Contains(t, out, "Old errand")
}

func TestArchiveHidesFromList(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "add", "Stale project")
	assert.NoError(t, err)
	id := extractTaskID(t, out)

	out, err = runCommand(t, "archive", id)
	assert.NoError(t, err)
	assert.Contains(t, out, "Archived task 'Stale project'")

	out, err = runCommand(t, "list")
	assert.NoError(t, err)
	assert.NotContains(t, out, "Stale project")

	out, err = runCommand(t, "unarchive", id)
	assert.NoError(t, err)
	assert.Contains(t, out, "Unarchived task 'Stale project'")
}

func TestNextRanksByPriority(t *testing.T) {
	setupCmdTest(t)

	_, err := runCommand(t, "add", "File the taxes", "--priority", "urgent")
	assert.NoError(t, err)
	_, err = runCommand(t, "add", "Sort the bookshelf", "--priority", "low")
	assert.NoError(t, err)

	out, err := runCommand(t, "next")
	assert.NoError(t, err)
	assert.Contains(t, out, "Next up:")
	assert.Contains(t, out, "File the taxes")
	first := strings.Index(out, "File the taxes")
	second := strings.Index(out, "Sort the bookshelf")
	assert.Less(t, first, second, "urgent task should rank above the low one")
}

func TestNextEmpty(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "next")
	assert.NoError(t, err)
	assert.Contains(t, out, "Nothing to do")
}

func TestFeedbackSnoozeLowersSuggestion(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "add", "Read the standards doc")
	assert.NoError(t, err)
	id := extractTaskID(t, out)

	out, err = runCommand(t, "feedback", id, "snooze-hour")
	assert.NoError(t, err)
	assert.Contains(t, out, "Recorded")
	assert.Contains(t, out, "snoozed until")
}

func TestFeedbackRejectsUnknownAction(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "add", "Anything at all")
	assert.NoError(t, err)
	id := extractTaskID(t, out)

	_, err = runCommand(t, "feedback", id, "procrastinate")
	assert.Error(t, err)
}

func TestUpdateChangesFields(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "add", "Draft the proposal")
	assert.NoError(t, err)
	id := extractTaskID(t, out)

	out, err = runCommand(t, "update", id, "--priority", "urgent", "--due", "tomorrow", "--at", "14:00")
	assert.NoError(t, err)
	assert.Contains(t, out, "Updated task 'Draft the proposal'")
	assert.Contains(t, out, "due")

	out, err = runCommand(t, "show", id)
	assert.NoError(t, err)
	assert.Contains(t, out, "urgent")
	assert.Contains(t, out, "14:00")
}

func TestUpdateClearsDue(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "add", "Flexible chore", "--due", "tomorrow")
	assert.NoError(t, err)
	id := extractTaskID(t, out)

	out, err = runCommand(t, "update", id, "--due", "none")
	assert.NoError(t, err)
	assert.Contains(t, out, "Updated task")
	assert.NotContains(t, out, "due ")
}

func TestShowUnknownTask(t *testing.T) {
	setupCmdTest(t)

	_, err := runCommand(t, "show", "no-such-task")
	assert.Error(t, err)
}

func TestSyncDisabled(t *testing.T) {
	setupCmdTest(t)

	out, err := runCommand(t, "sync")
	assert.NoError(t, err)
	assert.Contains(t, out, "Calendar sync is disabled")
}

func TestBackupWritesCopy(t *testing.T) {
	root := setupCmdTest(t)

	_, err := runCommand(t, "add", "Something to keep")
	assert.NoError(t, err)

	dest := filepath.Join(root, "backup.json")
	out, err := runCommand(t, "backup", dest)
	assert.NoError(t, err)
	assert.Contains(t, out, "Backed up task data to")
	assert.FileExists(t, dest)
}
