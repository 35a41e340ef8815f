package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/frameproof/frameproof/internal/adapters/http/api"
	"github.com/frameproof/frameproof/internal/adapters/http/swagger"
	"github.com/frameproof/frameproof/internal/adapters/repository"
	app "github.com/frameproof/frameproof/internal/app"
	"github.com/frameproof/frameproof/internal/config"
	"github.com/frameproof/frameproof/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("FRAMEPROOF_ADDR", ":8080")
			_ = os.Setenv("FRAMEPROOF_VISIBILITY_WINDOW_MS", "1500")
			defer func() {
				_ = os.Unsetenv("FRAMEPROOF_ADDR")
				_ = os.Unsetenv("FRAMEPROOF_VISIBILITY_WINDOW_MS")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.VisibilityWindowMS, convey.ShouldEqual, 1500)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithQueueSize(2000),
					app.WithMutationTimeout(5*time.Second),
					app.WithVisibilityWindow(3000),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When wiring the full HTTP surface", func() {
			ctx := context.Background()
			svc := app.New(app.WithPersister(repository.NewMemoryStore()))
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := http.NewServeMux()
			swagger.Register(ctx, mux)
			api.NewServer(svc, svc).Register(ctx, mux)

			convey.Convey("Then the health endpoint answers", func() {
				req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then the docs endpoint answers", func() {
				req := httptest.NewRequest(http.MethodGet, "/api-docs", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}
