package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/padiauj/glint/internal/persistence"
)

var clearForce bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the on-disk index",
	Long:  `clear removes the saved index and its backup, requiring --force to avoid accidental data loss.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClear()
	},
}

func init() {
	clearCmd.Flags().BoolVar(&clearForce, "force", false, "actually remove the index (required)")
	rootCmd.AddCommand(clearCmd)
}

func runClear() error {
	if !clearForce {
		return fmt.Errorf("refusing to clear the index without --force")
	}

	cat.Clear()

	removed := 0
	for _, name := range []string{persistence.IndexFileName, persistence.BackupFileName} {
		path := filepath.Join(cfg.General.IndexDirectory, name)
		if err := os.Remove(path); err == nil {
			removed++
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}

	fmt.Printf("cleared index directory %s (%d file(s) removed)\n", cfg.General.IndexDirectory, removed)
	return nil
}
