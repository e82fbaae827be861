// Package config loads glint's on-disk configuration via viper, falling
// back to built-in defaults for anything the user hasn't set.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/padiauj/glint/internal/glinterrors"
)

// GeneralConfig holds top-level behavior toggles.
type GeneralConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	IndexDirectory string `mapstructure:"index_directory"`
}

// ExcludeConfig lists paths and extensions to leave out of the index. It is
// loaded and saved only; no scan or catalog code applies these exclusions.
type ExcludeConfig struct {
	Paths      []string `mapstructure:"paths"`
	Extensions []string `mapstructure:"extensions"`
}

// PerformanceConfig holds scan and search tuning values. They are loaded
// and saved only: the backends and the search package do not read them
// (search uses its own search.ParallelThreshold constant).
type PerformanceConfig struct {
	ScanWorkers       int `mapstructure:"scan_workers"`
	JournalPollMillis int `mapstructure:"journal_poll_millis"`
	ParallelThreshold int `mapstructure:"parallel_threshold"`
}

// UIConfig controls the optional interactive view layer.
type UIConfig struct {
	MaxResults int  `mapstructure:"max_results"`
	ShowHidden bool `mapstructure:"show_hidden"`
}

// VolumesConfig controls which volumes are indexed. The scan command skips
// volumes whose mount point is listed in Exclude; Include is not read.
type VolumesConfig struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
}

// Config is the full, merged configuration tree.
type Config struct {
	General     GeneralConfig     `mapstructure:"general"`
	Exclude     ExcludeConfig     `mapstructure:"exclude"`
	Performance PerformanceConfig `mapstructure:"performance"`
	UI          UIConfig          `mapstructure:"ui"`
	Volumes     VolumesConfig     `mapstructure:"volumes"`
}

// Default returns glint's built-in configuration, used when no config file
// is present and as the base every loaded file is merged onto.
func Default() Config {
	indexDir := filepath.Join(defaultStateDir(), "glint")
	return Config{
		General: GeneralConfig{
			LogLevel:       "info",
			IndexDirectory: indexDir,
		},
		Exclude: ExcludeConfig{
			Paths:      []string{`C:\Windows\Temp`, `C:\$Recycle.Bin`},
			Extensions: nil,
		},
		Performance: PerformanceConfig{
			ScanWorkers:       0, // 0 means runtime.NumCPU()
			JournalPollMillis: 500,
			ParallelThreshold: 10_000,
		},
		UI: UIConfig{
			MaxResults: 500,
			ShowHidden: false,
		},
		Volumes: VolumesConfig{},
	}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}

// Load reads configuration from path (or the default search locations if
// path is empty), merged onto Default(). Missing files are not an error;
// malformed ones are.
func Load(path string) (Config, error) {
	v := viper.New()
	cfg := Default()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("glint")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(defaultStateDir(), "glint"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, &glinterrors.ConfigError{Reason: err.Error()}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &glinterrors.ConfigError{Reason: err.Error()}
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories as needed.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &glinterrors.ConfigError{Reason: err.Error()}
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("general", map[string]any{"log_level": cfg.General.LogLevel, "index_directory": cfg.General.IndexDirectory})
	v.Set("exclude", map[string]any{"paths": cfg.Exclude.Paths, "extensions": cfg.Exclude.Extensions})
	v.Set("performance", map[string]any{"scan_workers": cfg.Performance.ScanWorkers, "journal_poll_millis": cfg.Performance.JournalPollMillis, "parallel_threshold": cfg.Performance.ParallelThreshold})
	v.Set("ui", map[string]any{"max_results": cfg.UI.MaxResults, "show_hidden": cfg.UI.ShowHidden})
	v.Set("volumes", map[string]any{"include": cfg.Volumes.Include, "exclude": cfg.Volumes.Exclude})
	if err := v.WriteConfigAs(path); err != nil {
		return &glinterrors.ConfigError{Reason: err.Error()}
	}
	return nil
}
