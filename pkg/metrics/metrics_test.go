package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
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
				WithHistogramBuckets([]float64{0.05, 0.5, 5}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "test-namespace")
				So(manager.subsystem, ShouldEqual, "test-subsystem")
			})
		})
	})
}

func TestRecordHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline events", func() {
			// None of these should panic against the init-time registry.
			RecordUnitProcessed()
			RecordUnitFailure()
			RecordLogProcessed()
			RecordBlockEmitted()
			RecordNeutralFallback()
			RecordPictureLookupMiss()
			RecordUndefinedCorrelation()
			RecordDuplicateResponse()
			UpdateQueueSize(3)
			UpdateActiveWorkers(2)
			RecordUnitDuration(0.25)

			Convey("Then the scrape handler should be available", func() {
				So(Handler(), ShouldNotBeNil)
			})
		})
	})
}
