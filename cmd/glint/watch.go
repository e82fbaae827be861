package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/padiauj/glint/internal/glinterrors"
	"github.com/padiauj/glint/internal/metrics"
	"github.com/padiauj/glint/internal/types"
)

var (
	watchMetricsAddr string
	watchSaveEvery   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [path...]",
	Short: "Scan, then stream live changes from the journal until interrupted",
	Long: `watch performs an initial full scan exactly like "glint scan", then
keeps the in-memory catalog current by following each volume's USN
change journal (or, in fallback mode, an fsnotify watch tree). The index
is periodically re-saved and on Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(args)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics at this address (e.g. 127.0.0.1:9090)")
	watchCmd.Flags().DurationVar(&watchSaveEvery, "save-every", 30*time.Second, "periodic index save interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(paths []string) error {
	ctx := cmdContext()

	if err := runScan(paths); err != nil {
		return err
	}

	if watchMetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(metrics.NewCollector(cat))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(watchMetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				log.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
		fmt.Printf("metrics: http://%s/metrics\n", watchMetricsAddr)
	}

	volumes := cat.VolumeStates()
	events := make(chan types.ChangeEvent)
	errs := make(chan error, len(volumes))

	for _, vs := range volumes {
		vol := vs.Descriptor
		vol.LastJournalState = vs.JournalState
		vEvents, vErrs := be.WatchChanges(ctx, vol)
		go forward(vEvents, events)
		go forwardErr(vol, vErrs, errs)
	}

	ticker := time.NewTicker(watchSaveEvery)
	defer ticker.Stop()

	fmt.Println("watching for changes, press Ctrl-C to stop")
	for {
		select {
		case <-ctx.Done():
			fmt.Println("stopping, saving index...")
			return store.Save(cat)
		case ev := <-events:
			if err := cat.ApplyChange(ev); err != nil {
				log.Warn().Err(err).Msg("failed to apply change event")
			}
		case err := <-errs:
			if glinterrors.RequiresRescan(err) {
				log.Warn().Err(err).Msg("volume requires rescan")
				continue
			}
			log.Error().Err(err).Msg("watch error")
		case <-ticker.C:
			if err := store.Save(cat); err != nil {
				log.Warn().Err(err).Msg("periodic save failed")
			}
		}
	}
}

func forward(in <-chan types.ChangeEvent, out chan<- types.ChangeEvent) {
	for ev := range in {
		out <- ev
	}
}

func forwardErr(vol types.VolumeDescriptor, in <-chan error, out chan<- error) {
	for err := range in {
		if glinterrors.RequiresRescan(err) {
			cat.MarkNeedsRescan(vol.ID, err.Error())
		}
		out <- err
	}
}
