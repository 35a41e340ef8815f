// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep defaults in New and let Load layer file/env on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath locates the SQLite database backing the persistence layer.
	// ":memory:" keeps everything in process memory.
	DBPath string `koanf:"db_path"`

	// VisibilityWindowMS bounds how far (in ms) playback time may sit from an
	// annotation's timestamp before the annotation is hidden.
	VisibilityWindowMS int64 `koanf:"visibility_window_ms"`

	// MutationTimeoutMS bounds each remote persistence call; a pending
	// optimistic mutation is rolled back once it elapses.
	MutationTimeoutMS int `koanf:"mutation_timeout_ms"`

	// MutationQueueSize bounds the per-clip serialized mutation queue.
	MutationQueueSize int `koanf:"mutation_queue_size"`

	// ReferenceWidth and ReferenceHeight describe the design resolution used
	// for reporting only; persisted geometry is fractional and independent
	// of it.
	ReferenceWidth  int `koanf:"reference_width"`
	ReferenceHeight int `koanf:"reference_height"`

	// MaxHistoryDepth bounds the drawing surface undo stack.
	MaxHistoryDepth int `koanf:"max_history_depth"`

	// SettleDelayMS is the pause before re-measuring the video box after a
	// resize or fullscreen change.
	SettleDelayMS int `koanf:"settle_delay_ms"`
}

// Defaults mirrored by New.
const (
	defaultVisibilityWindowMS = 2000
	defaultMutationTimeoutMS  = 20_000
	defaultMutationQueueSize  = 1024
	defaultReferenceWidth     = 1920
	defaultReferenceHeight    = 1080
	defaultMaxHistoryDepth    = 100
	defaultSettleDelayMS      = 50
)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		DBPath:             "frameproof.db",
		VisibilityWindowMS: defaultVisibilityWindowMS,
		MutationTimeoutMS:  defaultMutationTimeoutMS,
		MutationQueueSize:  defaultMutationQueueSize,
		ReferenceWidth:     defaultReferenceWidth,
		ReferenceHeight:    defaultReferenceHeight,
		MaxHistoryDepth:    defaultMaxHistoryDepth,
		SettleDelayMS:      defaultSettleDelayMS,
	}
}

// MutationTimeout returns the configured persistence timeout as a Duration.
func (c *Config) MutationTimeout() time.Duration {
	return time.Duration(c.MutationTimeoutMS) * time.Millisecond
}

// SettleDelay returns the configured layout settle delay as a Duration.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}
