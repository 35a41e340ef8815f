package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording review activity", func() {
			So(func() {
				RecordThreadCreated()
				RecordCommentAdded()
				RecordThreadResolved()
				RecordThreadReopened()
				RecordShapesUpdated()
				RecordDegenerateAnnotation()
				RecordShareTokenIssued()
				RecordRoundAdvanced()
				RecordStatusTransition("approved")
			}, ShouldNotPanic)
		})

		Convey("When recording persistence outcomes", func() {
			So(func() {
				RecordMutationRollback()
				RecordPersistenceLatency(12.5)
				RecordPersistenceError("transport")
				RecordLoadError()
				UpdateMutationQueueSize(3)
			}, ShouldNotPanic)
		})

		Convey("When recording projection activity", func() {
			So(func() {
				RecordReprojection()
				RecordDeferredGeometry()
				RecordOverlayResync()
			}, ShouldNotPanic)
		})

		Convey("When updating state gauges", func() {
			So(func() {
				UpdateOpenThreads(4)
				UpdateResolvedThreads(2)
				UpdateLoadedClips(1)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("threads", "POST", "201")
				RecordHTTPRequestDuration("threads", "POST", "201", 4.2)
				RecordErrorByComponent("http_threads", "client_error")
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(42)
				RecordSystemGCPauseTime(0.7)
			}, ShouldNotPanic)
		})
	})
}

func TestRegistryAccess(t *testing.T) {
	Convey("Given the global registry", t, func() {
		Convey("When gathering metrics", func() {
			families, err := GetRegistry().Gather()

			Convey("Then registered metrics are exposed", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
