package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/padiauj/glint/internal/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path...]",
	Short: "Perform a full bulk scan and save the resulting index",
	Long: `scan enumerates every volume the platform backend can see (or, on
platforms without a change journal, walks the given paths) and writes the
result to the configured index directory.

Examples:
  glint scan
  glint scan C: D:
  glint scan /home /mnt/data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(args)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(paths []string) error {
	ctx := cmdContext()

	volumes, err := resolveVolumes(ctx, paths)
	if err != nil {
		return err
	}
	if len(volumes) == 0 {
		return fmt.Errorf("no volumes to scan")
	}

	for _, vol := range volumes {
		if excluded(vol.MountPoint, cfg.Volumes.Exclude) {
			log.Info().Str("volume", vol.MountPoint).Msg("skipping excluded volume")
			continue
		}

		fmt.Printf("scanning %s (%s)...\n", vol.MountPoint, vol.Label)

		var records []types.FileRecord
		var recordsMu sync.Mutex
		emit := func(rec types.FileRecord) {
			recordsMu.Lock()
			records = append(records, rec)
			recordsMu.Unlock()
		}
		if err := be.FullScan(ctx, vol, emit); err != nil {
			return fmt.Errorf("scanning %s: %w", vol.MountPoint, err)
		}

		if state, ok := be.GetJournalState(vol); ok {
			vol.LastJournalState = state
		}
		cat.AddVolumeRecords(vol, records)
		fmt.Printf("  %d entries indexed\n", len(records))
	}

	if err := store.Save(cat); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	stats := cat.Stats()
	fmt.Printf("done: %d files, %d directories, %d volumes\n", stats.TotalFiles, stats.TotalDirs, stats.VolumeCount)
	return nil
}

// resolveVolumes asks the backend for its native volume list. With no
// paths it returns that list, or an error when the list is empty (the
// fallback backend). With paths, each path that equals a native mount
// point (case-insensitively) uses that volume's descriptor and every other
// path gets a synthetic descriptor of its own.
func resolveVolumes(ctx context.Context, paths []string) ([]types.VolumeDescriptor, error) {
	native, err := be.ListVolumes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing volumes: %w", err)
	}

	if len(paths) == 0 {
		if len(native) > 0 {
			return native, nil
		}
		return nil, fmt.Errorf("backend %s cannot enumerate volumes on its own; pass explicit paths", be.Name())
	}

	byMount := make(map[string]types.VolumeDescriptor, len(native))
	for _, v := range native {
		byMount[strings.ToUpper(v.MountPoint)] = v
	}

	out := make([]types.VolumeDescriptor, 0, len(paths))
	for _, p := range paths {
		if v, ok := byMount[strings.ToUpper(p)]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, types.VolumeDescriptor{
			ID:         types.VolumeId(syntheticVolumeID(p)),
			MountPoint: p,
			Label:      p,
			FSType:     "synthetic",
			Synthetic:  true,
		})
	}
	return out, nil
}

func excluded(mount string, patterns []string) bool {
	for _, pat := range patterns {
		if strings.EqualFold(pat, mount) {
			return true
		}
	}
	return false
}

func syntheticVolumeID(path string) string {
	h := uint32(2166136261)
	for i := 0; i < len(path); i++ {
		h ^= uint32(path[i])
		h *= 16777619
	}
	return fmt.Sprintf("fb%06x", h&0xFFFFFF)
}
