package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics and per-volume state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus() error {
	loaded, err := store.LoadAndUpgrade()
	if err != nil {
		return fmt.Errorf("loading index: %w", err)
	}
	cat = loaded

	stats := cat.Stats()
	fmt.Printf("index: %s\n", cfg.General.IndexDirectory)
	fmt.Printf("  files:      %d\n", stats.TotalFiles)
	fmt.Printf("  dirs:       %d\n", stats.TotalDirs)
	fmt.Printf("  total size: %d bytes\n", stats.TotalSize)
	fmt.Printf("  volumes:    %d\n", stats.VolumeCount)
	fmt.Printf("  generation: %d\n", cat.Generation())
	if stats.LastUpdated != 0 {
		fmt.Printf("  updated:    %s\n", time.Unix(0, stats.LastUpdated).Format(time.RFC3339))
	}

	for _, vs := range cat.VolumeStates() {
		rescan := ""
		if vs.NeedsRescan {
			rescan = " (needs rescan)"
		}
		fmt.Printf("\nvolume %s  %s  %d records%s\n", vs.Descriptor.ID, vs.Descriptor.MountPoint, vs.RecordCount, rescan)
		if vs.JournalState != nil {
			fmt.Printf("  journal: id=%d usn=%d\n", vs.JournalState.JournalID, vs.JournalState.LastUSN)
		}
	}
	return nil
}
