package store

import (
	"time"

	"github.com/frameproof/frameproof/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store, *int)

// WithMutationTimeout bounds each remote persistence call; when it
// elapses the pending optimistic mutation is treated as failed and rolled
// back.
func WithMutationTimeout(d time.Duration) Option {
	return func(s *Store, _ *int) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithQueueSize bounds the serialized mutation queue.
func WithQueueSize(size int) Option {
	return func(_ *Store, queueSize *int) {
		if size > 0 {
			*queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(log logger.Logger) Option {
	return func(s *Store, _ *int) {
		if log != nil {
			s.log = log
		}
	}
}

// WithIDGenerator overrides id generation, mainly for deterministic tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store, _ *int) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock overrides time sourcing, mainly for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store, _ *int) {
		if now != nil {
			s.now = now
		}
	}
}
