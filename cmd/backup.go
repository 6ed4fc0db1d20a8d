/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var backupFrom string

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup [destination]",
	Short: "Back up the task file",
	Long: `Copy the task data file to a destination path. Without a destination, a
timestamped copy is written next to the data file. Use --from to restore a
previous backup instead (the current file is verified and replaced).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		if backupFrom != "" {
			if len(args) > 0 {
				return fmt.Errorf("--from cannot be combined with a destination")
			}
			if err := taskStore.Restore(backupFrom); err != nil {
				PrintError(fmt.Sprintf("Error: Could not restore from '%s'.", backupFrom), err)
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"restoredFrom": backupFrom})
			}
			cmd.Printf("Restored task data from %s\n", backupFrom)
			return nil
		}

		dest := ""
		if len(args) > 0 {
			dest = args[0]
		} else {
			src := GetTaskFilePath()
			stamp := time.Now().Format("20060102-150405")
			ext := filepath.Ext(src)
			dest = src[:len(src)-len(ext)] + "-" + stamp + ext
		}

		if err := taskStore.Backup(dest); err != nil {
			PrintError(fmt.Sprintf("Error: Could not back up to '%s'.", dest), err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), map[string]any{"backup": dest})
		}
		cmd.Printf("Backed up task data to %s\n", dest)
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVar(&backupFrom, "from", "", "Restore the data file from this backup instead of creating one")
	rootCmd.AddCommand(backupCmd)
}
