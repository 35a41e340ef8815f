package config_test

import (
	"testing"

	"github.com/frameproof/frameproof/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DBPath, convey.ShouldEqual, "frameproof.db")
			convey.So(cfg.VisibilityWindowMS, convey.ShouldEqual, 2000)
			convey.So(cfg.MutationTimeoutMS, convey.ShouldEqual, 20_000)
			convey.So(cfg.ReferenceWidth, convey.ShouldEqual, 1920)
			convey.So(cfg.ReferenceHeight, convey.ShouldEqual, 1080)
			convey.So(cfg.MaxHistoryDepth, convey.ShouldEqual, 100)
		})
	})
}
