package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/frameproof/frameproof/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.VisibilityWindowMS, convey.ShouldEqual, 2000)
				convey.So(cfg.MutationTimeoutMS, convey.ShouldEqual, 20_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FRAMEPROOF_ADDR", ":8080")
			_ = os.Setenv("FRAMEPROOF_DB_PATH", ":memory:")
			_ = os.Setenv("FRAMEPROOF_VISIBILITY_WINDOW_MS", "1500")
			_ = os.Setenv("FRAMEPROOF_MUTATION_TIMEOUT_MS", "5000")
			_ = os.Setenv("FRAMEPROOF_MAX_HISTORY_DEPTH", "25")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DBPath, convey.ShouldEqual, ":memory:")
				convey.So(cfg.VisibilityWindowMS, convey.ShouldEqual, 1500)
				convey.So(cfg.MutationTimeoutMS, convey.ShouldEqual, 5000)
				convey.So(cfg.MaxHistoryDepth, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			clearConfigEnvVars()

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			yaml := "addr: \":7070\"\nvisibility_window_ms: 3000\nsettle_delay_ms: 80\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("FRAMEPROOF_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.VisibilityWindowMS, convey.ShouldEqual, 3000)
				convey.So(cfg.SettleDelayMS, convey.ShouldEqual, 80)
				convey.So(cfg.MutationTimeoutMS, convey.ShouldEqual, 20_000)
			})
		})

		convey.Convey("When validation fails", func() {
			clearConfigEnvVars()
			_ = os.Setenv("FRAMEPROOF_VISIBILITY_WINDOW_MS", "-1")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an invalid config error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"FRAMEPROOF_CONFIG",
		"FRAMEPROOF_ADDR",
		"FRAMEPROOF_DB_PATH",
		"FRAMEPROOF_VISIBILITY_WINDOW_MS",
		"FRAMEPROOF_MUTATION_TIMEOUT_MS",
		"FRAMEPROOF_MAX_HISTORY_DEPTH",
	} {
		_ = os.Unsetenv(key)
	}
}
