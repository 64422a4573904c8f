// Package config defines service configuration structures and loading hooks.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// RecomputeParallelism bounds goroutines used by a full recompute.
	RecomputeParallelism int `koanf:"recompute_parallelism"`

	// ImpactMin and ImpactMax bound Action.Impact; neither may exceed 1e6 in magnitude.
	ImpactMin float64 `koanf:"impact_min"`
	ImpactMax float64 `koanf:"impact_max"`

	// DisplayMin and DisplayMax are the clamp range of breakdown values.
	DisplayMin float64 `koanf:"display_min"`
	DisplayMax float64 `koanf:"display_max"`

	// Rescale names the breakdown rescaler: clamp or identity.
	Rescale string `koanf:"rescale"`

	// MappingFile is an optional YAML category table replacing the built-in one.
	MappingFile string `koanf:"mapping_file"`

	// JournalPath is the SQLite action journal. Empty disables persistence.
	JournalPath string `koanf:"journal_path"`

	// SnapshotIntervalMS is how often a stale ranking snapshot is republished.
	SnapshotIntervalMS int `koanf:"snapshot_interval_ms"`

	// RecentActionsLimit caps PoliticianView.RecentActions.
	RecentActionsLimit int `koanf:"recent_actions_limit"`

	// MetricsEnabled turns Prometheus counters and histograms on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`
	// MetricsNamespace and MetricsPrefix shape every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsPrefix    string `koanf:"metrics_prefix"`
	// MetricsLabels are constant labels added to every metric (file only).
	MetricsLabels map[string]string `koanf:"metrics_labels"`
	// MetricsHTTPBuckets are request duration buckets in ms (file only).
	MetricsHTTPBuckets []float64 `koanf:"metrics_http_buckets"`
	// MetricsCategoryLimit bounds distinct category labels on the unmapped
	// actions counter.
	MetricsCategoryLimit int `koanf:"metrics_category_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU() * 2,
		RecomputeParallelism: runtime.NumCPU(),
		ImpactMin:            -10,
		ImpactMax:            10,
		DisplayMin:           0,
		DisplayMax:           10,
		Rescale:              "clamp",
		SnapshotIntervalMS:   1000,
		RecentActionsLimit:   10,
		MetricsEnabled:       true,
		MetricsNamespace:     "vigia",
		MetricsCategoryLimit: 100,
	}
}
