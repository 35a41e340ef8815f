package service

import (
	"time"

	"github.com/frameproof/frameproof/internal/adapters/repository"
	"github.com/frameproof/frameproof/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the SQLite database location.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithPersister injects a persistence adapter, bypassing SQLite. Used by
// tests and the review simulator.
func WithPersister(p repository.Persister) Option {
	return func(s *Service) {
		if p != nil {
			s.persist = p
		}
	}
}

// WithMutationTimeout bounds how long a remote write may take before the
// optimistic change is rolled back.
func WithMutationTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.mutationTimeout = d
		}
	}
}

// WithQueueSize sets each clip's mutation queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithVisibilityWindow sets the playback visibility window in ms.
func WithVisibilityWindow(ms int64) Option {
	return func(s *Service) {
		if ms > 0 {
			s.visibilityWindowMS = ms
		}
	}
}

// WithSettleDelay sets the re-measure pause after layout changes.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.settleDelay = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
