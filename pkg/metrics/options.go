package metrics

import (
	"maps"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace replaces the "vigia" metric namespace. Empty keeps it.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithMetricPrefix prepends prefix and an underscore to every metric name
// after the subsystem, e.g. vigia_http_<prefix>_requests_total.
func WithMetricPrefix(prefix string) Option {
	return func(m *Manager) {
		m.metricPrefix = prefix
	}
}

// WithHistogramBuckets sets the HTTP request duration buckets, in
// milliseconds. Nil or empty keeps the default.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = slices.Clone(buckets)
		}
	}
}

// WithMetricsEnabled turns counters and histograms on or off. Gauges are
// written either way so /healthz reports current state.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithCustomLabels attaches constant labels, such as env or region, to every
// metric.
func WithCustomLabels(labels map[string]string) Option {
	return func(m *Manager) {
		if len(labels) > 0 {
			m.customLabels = maps.Clone(labels)
		}
	}
}

// WithCategoryLabelLimit bounds the distinct category label values of the
// unmapped actions counter. Categories seen after the limit is reached are
// counted under OverflowCategory. Values below one keep the default.
func WithCategoryLabelLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.categoryLimit = n
		}
	}
}

// WithPrometheusRegistry registers metrics on registry instead of the
// default registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}
