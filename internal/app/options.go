package service

import (
	"time"

	"github.com/okian/vigia/internal/domain/auth"
	"github.com/okian/vigia/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRecomputeParallelism bounds the goroutines of a full recompute.
func WithRecomputeParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recomputeParallelism = n
		}
	}
}

// WithImpactBound sets the accepted Action.Impact range.
func WithImpactBound(lo, hi float64) Option {
	return func(s *Service) {
		if lo < hi {
			s.impactMin, s.impactMax = lo, hi
		}
	}
}

// WithRescale selects the breakdown rescaler by name ("clamp" or
// "identity") and its display range.
func WithRescale(kind string, lo, hi float64) Option {
	return func(s *Service) {
		s.rescale = kind
		s.displayMin, s.displayMax = lo, hi
	}
}

// WithMappingFile replaces the built-in category table with a YAML file.
func WithMappingFile(path string) Option {
	return func(s *Service) {
		s.mappingFile = path
	}
}

// WithJournalPath enables the SQLite action journal at path.
func WithJournalPath(path string) Option {
	return func(s *Service) {
		s.journalPath = path
	}
}

// WithSnapshotInterval sets how often the ranking snapshot is refreshed.
func WithSnapshotInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.snapshotInterval = d
		}
	}
}

// WithRecentActionsLimit caps the recent actions kept on each view.
func WithRecentActionsLimit(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.recentLimit = n
		}
	}
}

// WithAuthProvider binds onboarding sessions to an auth provider.
func WithAuthProvider(p auth.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.auth = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
