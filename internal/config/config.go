// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
// - No process-wide mutable flags: the loaded Config is threaded explicitly
//   through the entry points that need it.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir is the study data root; behavioral logs live under
	// <data_dir>/behav/<subject>/.
	DataDir string `koanf:"data_dir"`

	// AssetsDir holds the reference tables (ratings and durations).
	AssetsDir string `koanf:"assets_dir"`

	// OutputDir receives timing files, summary CSVs, and figures.
	OutputDir string `koanf:"output_dir"`

	// RatingsTable and DurationsTable are the reference table filenames
	// under AssetsDir.
	RatingsTable   string `koanf:"ratings_table"`
	DurationsTable string `koanf:"durations_table"`

	// TrialType selects which block category is retained: vid or cvid.
	TrialType string `koanf:"trial_type"`

	// LogPattern is the substring a behavioral log filename must contain.
	LogPattern string `koanf:"log_pattern"`

	// RunsPerSubject caps how many logs are processed per subject.
	RunsPerSubject int `koanf:"runs_per_subject"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory unit queue.
	QueueSize int `koanf:"queue_size"`

	// MetricsAddr binds the Prometheus scrape endpoint; empty disables it.
	MetricsAddr string `koanf:"metrics_addr"`

	// WritePlots toggles the per-log comparison figure side output.
	WritePlots bool `koanf:"write_plots"`
}

// New creates a Config with defaults.
func New() *Config {
	c := &Config{
		LogLevel:       "info",
		DataDir:        "data",
		AssetsDir:      "assets",
		OutputDir:      "data/ea",
		RatingsTable:   "EA-timing.csv",
		DurationsTable: "EA-vid-lengths.csv",
		TrialType:      "vid",
		LogPattern:     "UCLAEmpAcc",
		RunsPerSubject: 3,
		WorkerCount:    runtime.NumCPU(),
		QueueSize:      1024,
		MetricsAddr:    "",
		WritePlots:     true,
	}
	return c
}
