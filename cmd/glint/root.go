package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/padiauj/glint/internal/backend"
	"github.com/padiauj/glint/internal/catalog"
	"github.com/padiauj/glint/internal/config"
	"github.com/padiauj/glint/internal/logging"
	"github.com/padiauj/glint/internal/persistence"
)

var (
	configPath string
	verbose    bool
)

// cfg, log, cat, store, and be are populated once in the root command's
// PersistentPreRunE and shared by every subcommand.
var (
	cfg   config.Config
	log   zerolog.Logger
	cat   *catalog.Catalog
	store *persistence.Store
	be    backend.Backend
)

var rootCmd = &cobra.Command{
	Use:   "glint",
	Short: "NTFS-native file indexer and search engine",
	Long: `glint indexes NTFS volumes via the USN change journal and serves
fast name and path search over the resulting catalog. On platforms
other than Windows it uses a recursive-directory fallback instead of
the journal.

Commands:
  scan      Perform a full bulk scan of one or more volumes
  watch     Scan, then stream live changes from the USN journal
  search    Query the current index
  status    Show index statistics and volume state
  clear     Discard the on-disk index`,
	Version:           "0.1.0-dev",
	PersistentPreRunE: initApp,
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: ./glint.yaml or $XDG_CONFIG_HOME/glint/glint.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// initApp loads configuration, builds the shared logger, catalog,
// persistence store, and platform backend. It runs once before every
// subcommand.
func initApp(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	if verbose {
		log = logging.New(true, false)
	} else if level, err := zerolog.ParseLevel(cfg.General.LogLevel); err == nil {
		log = logging.NewWithWriter(os.Stderr, level)
	} else {
		log = logging.New(false, false)
	}

	cat = catalog.New(log)
	store = persistence.New(cfg.General.IndexDirectory, log)
	be = backend.Select(log)

	return nil
}

// cmdContext returns a context canceled on SIGINT/SIGTERM, used by every
// subcommand that may run a long bulk scan or watch loop.
func cmdContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}
