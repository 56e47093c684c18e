// Package config holds the CORTEX runtime configuration.
//
// A Config value is constructed once (Default, optionally overlaid with a
// YAML file via Load) and passed into each component's constructor. There
// is no global singleton: components receive exactly the settings they
// need and treat them as immutable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the memory core.
type Config struct {
	// DataDir is where the SQLite database lives.
	DataDir string

	// SessionCapacity caps the total number of conversations retained
	// in working memory (FIFO eviction of completed conversations).
	SessionCapacity int

	// BoundaryTimeout is the idle threshold after which an active
	// conversation is considered ended.
	BoundaryTimeout time.Duration

	// MinConfidence is the default confidence floor for pattern search.
	MinConfidence float64

	// MaxSearchResults caps result counts for pattern search.
	MaxSearchResults int

	// AnalysisWindowDays is the sliding window for file-churn analysis.
	AnalysisWindowDays int

	// GitTimeout bounds each git subprocess invocation.
	GitTimeout time.Duration

	// KnownWorkspaces is the allow-list of project names the namespace
	// classifier recognizes when extracting a workspace from a pattern's
	// provenance.
	KnownWorkspaces []string
}

// Default returns the stock configuration. The data directory defaults
// to ~/.cortex.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:            filepath.Join(home, ".cortex"),
		SessionCapacity:    50,
		BoundaryTimeout:    30 * time.Minute,
		MinConfidence:      0.5,
		MaxSearchResults:   50,
		AnalysisWindowDays: 30,
		GitTimeout:         30 * time.Second,
		KnownWorkspaces:    nil,
	}
}

// fileConfig is the YAML-facing shape. Durations are strings in
// time.ParseDuration format ("30m", "45s").
type fileConfig struct {
	DataDir            string   `yaml:"data_dir"`
	SessionCapacity    *int     `yaml:"session_capacity"`
	BoundaryTimeout    string   `yaml:"boundary_timeout"`
	MinConfidence      *float64 `yaml:"min_confidence"`
	MaxSearchResults   *int     `yaml:"max_search_results"`
	AnalysisWindowDays *int     `yaml:"analysis_window_days"`
	GitTimeout         string   `yaml:"git_timeout"`
	KnownWorkspaces    []string `yaml:"known_workspaces"`
}

// Load reads a YAML config file and overlays it on the defaults.
// A missing file is not an error — defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
	if fc.SessionCapacity != nil {
		cfg.SessionCapacity = *fc.SessionCapacity
	}
	if fc.BoundaryTimeout != "" {
		d, err := time.ParseDuration(fc.BoundaryTimeout)
		if err != nil {
			return cfg, fmt.Errorf("config: boundary_timeout: %w", err)
		}
		cfg.BoundaryTimeout = d
	}
	if fc.MinConfidence != nil {
		cfg.MinConfidence = *fc.MinConfidence
	}
	if fc.MaxSearchResults != nil {
		cfg.MaxSearchResults = *fc.MaxSearchResults
	}
	if fc.AnalysisWindowDays != nil {
		cfg.AnalysisWindowDays = *fc.AnalysisWindowDays
	}
	if fc.GitTimeout != "" {
		d, err := time.ParseDuration(fc.GitTimeout)
		if err != nil {
			return cfg, fmt.Errorf("config: git_timeout: %w", err)
		}
		cfg.GitTimeout = d
	}
	if len(fc.KnownWorkspaces) > 0 {
		cfg.KnownWorkspaces = fc.KnownWorkspaces
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.SessionCapacity < 1 {
		return fmt.Errorf("session_capacity must be at least 1, got %d", c.SessionCapacity)
	}
	if c.BoundaryTimeout <= 0 {
		return fmt.Errorf("boundary_timeout must be positive, got %s", c.BoundaryTimeout)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %g", c.MinConfidence)
	}
	if c.AnalysisWindowDays < 1 {
		return fmt.Errorf("analysis_window_days must be at least 1, got %d", c.AnalysisWindowDays)
	}
	return nil
}
