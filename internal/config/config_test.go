package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsUsedWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.General.LogLevel)
	assert.Equal(t, 500, cfg.UI.MaxResults)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glint.yaml")

	cfg := Default()
	cfg.General.LogLevel = "debug"
	cfg.Performance.ScanWorkers = 4
	cfg.Volumes.Include = []string{"C", "D"}

	require.NoError(t, Save(cfg, path))
	assert.FileExists(t, path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.General.LogLevel)
	assert.Equal(t, 4, loaded.Performance.ScanWorkers)
	assert.ElementsMatch(t, []string{"C", "D"}, loaded.Volumes.Include)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("general:\n  log_level: [this is not a scalar"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
