package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if FRAMEPROOF_CONFIG is set
//  3. env (prefix FRAMEPROOF_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FRAMEPROOF_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: FRAMEPROOF_ADDR, FRAMEPROOF_DB_PATH, ...
	// Map env keys like FRAMEPROOF_VISIBILITY_WINDOW_MS -> visibility_window_ms
	// (flat keys, underscores preserved to match koanf tags).
	envProvider := env.Provider("FRAMEPROOF_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "frameproof_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.VisibilityWindowMS <= 0:
		return fmt.Errorf("%w: visibility_window_ms must be positive", ErrInvalidConfig)
	case cfg.MutationTimeoutMS <= 0:
		return fmt.Errorf("%w: mutation_timeout_ms must be positive", ErrInvalidConfig)
	case cfg.MaxHistoryDepth <= 0:
		return fmt.Errorf("%w: max_history_depth must be positive", ErrInvalidConfig)
	}
	return nil
}
