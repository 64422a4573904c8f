package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/vigia/internal/domain/ledger"
)

// Environment names.
const (
	EnvPrefix     = "VIGIA_"
	EnvConfigFile = "VIGIA_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if VIGIA_CONFIG is set
//  3. env (prefix VIGIA_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// VIGIA_QUEUE_SIZE -> queue_size; underscores are kept to match the tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// the config file location is not a config key
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.RecomputeParallelism < 1:
		return fmt.Errorf("%w: recompute_parallelism must be positive", ErrInvalidConfig)
	case !(c.ImpactMin < c.ImpactMax):
		return fmt.Errorf("%w: impact_min must be below impact_max", ErrInvalidConfig)
	case math.Abs(c.ImpactMin) > ledger.MaxImpactMagnitude || math.Abs(c.ImpactMax) > ledger.MaxImpactMagnitude:
		return fmt.Errorf("%w: impact_min and impact_max must lie within ±%g", ErrInvalidConfig, ledger.MaxImpactMagnitude)
	case c.Rescale != "clamp" && c.Rescale != "identity":
		return fmt.Errorf("%w: rescale %q must be clamp or identity", ErrInvalidConfig, c.Rescale)
	case c.Rescale == "clamp" && !(c.DisplayMin < c.DisplayMax):
		return fmt.Errorf("%w: display_min must be below display_max", ErrInvalidConfig)
	case c.SnapshotIntervalMS < 1:
		return fmt.Errorf("%w: snapshot_interval_ms must be positive", ErrInvalidConfig)
	case c.RecentActionsLimit < 0:
		return fmt.Errorf("%w: recent_actions_limit must not be negative", ErrInvalidConfig)
	case !metricName.MatchString(c.MetricsNamespace):
		return fmt.Errorf("%w: metrics_namespace %q is not a valid metric name", ErrInvalidConfig, c.MetricsNamespace)
	case c.MetricsPrefix != "" && !metricName.MatchString(c.MetricsPrefix):
		return fmt.Errorf("%w: metrics_prefix %q is not a valid metric name", ErrInvalidConfig, c.MetricsPrefix)
	case c.MetricsCategoryLimit < 1:
		return fmt.Errorf("%w: metrics_category_limit must be positive", ErrInvalidConfig)
	}
	for name := range c.MetricsLabels {
		if !metricName.MatchString(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("%w: metrics_labels key %q is not a valid label name", ErrInvalidConfig, name)
		}
	}
	for i := 1; i < len(c.MetricsHTTPBuckets); i++ {
		if !(c.MetricsHTTPBuckets[i-1] < c.MetricsHTTPBuckets[i]) {
			return fmt.Errorf("%w: metrics_http_buckets must be strictly increasing", ErrInvalidConfig)
		}
	}
	return nil
}

// metricName matches Prometheus metric and label names without colons.
var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
