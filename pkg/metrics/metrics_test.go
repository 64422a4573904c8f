package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every metric should be registered", func() {
				So(manager, ShouldNotBeNil)
				manager.actionsAppended.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 10)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names should carry namespace, subsystem and prefix", func() {
				manager.actionsAppended.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_scoring_pfx_actions_appended_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
				So(manager.enabled, ShouldBeFalse)
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When ignoring empty option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithCategoryLabelLimit(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "vigia")
				So(manager.histogramBuckets, ShouldResemble, defaultHTTPBuckets)
				So(manager.customLabels, ShouldBeEmpty)
				So(manager.categoryLimit, ShouldEqual, DefaultCategoryLabelLimit)
			})
		})
	})
}

func TestUnmappedCategoryLabels(t *testing.T) {
	Convey("Given a manager limited to two category labels", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithCategoryLabelLimit(2))

		Convey("When many distinct categories are seen", func() {
			labels := make([]string, 0, 500)
			for i := range 500 {
				labels = append(labels, manager.categoryLabel(fmt.Sprintf("cat-%d", i)))
			}

			Convey("Then only the first two keep their own label", func() {
				So(labels[0], ShouldEqual, "cat-0")
				So(labels[1], ShouldEqual, "cat-1")
				for _, l := range labels[2:] {
					So(l, ShouldEqual, OverflowCategory)
				}
				So(manager.categoryLabel("cat-1"), ShouldEqual, "cat-1")
				So(len(manager.categories), ShouldEqual, 2)
			})
		})
	})

	Convey("Given the global manager configured with a small limit", t, func() {
		prevManager, prevRegistry := globalManager, customRegistry
		defer func() { globalManager, customRegistry = prevManager, prevRegistry }()
		Configure(WithCategoryLabelLimit(3), WithNamespace("capped"))

		Convey("When unmapped actions arrive under many categories", func() {
			for i := range 50 {
				RecordUnmappedActions(fmt.Sprintf("pesca-%d", i), 1)
			}

			Convey("Then the exported series should stay bounded", func() {
				So(GetRegistry(), ShouldNotPointTo, prevRegistry)
				So(testutil.CollectAndCount(globalManager.unmappedActions), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.unmappedActions.WithLabelValues(OverflowCategory)), ShouldEqual, 47)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording ledger metrics", func() {
			before := testutil.ToFloat64(globalManager.actionsAppended)
			RecordActionAppended()
			RecordActionDuplicate()
			RecordActionRejected("impact_out_of_range")
			RecordJournalLatency(0.4)

			Convey("Then counters should move", func() {
				So(testutil.ToFloat64(globalManager.actionsAppended), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.actionsRejected.WithLabelValues("impact_out_of_range")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording scoring metrics", func() {
			RecordUnmappedActions("pesca", 3)
			RecordUnmappedActions("pesca", 0)
			RecordRecompute(RecomputeFull, 1.5)
			RecordRecompute(RecomputeIncremental, 0.2)
			UpdateInsufficientData(2)
			UpdateTrackedPoliticians(7)
			UpdatePrioritySet(4, 3)

			Convey("Then gauges should hold the latest value", func() {
				So(testutil.ToFloat64(globalManager.unmappedActions.WithLabelValues("pesca")), ShouldBeGreaterThanOrEqualTo, 3)
				So(testutil.ToFloat64(globalManager.insufficientViews), ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.trackedPoliticians), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.priorityVersion), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.priorityCount), ShouldEqual, 3)
			})
		})

		Convey("When recording transport and queue metrics", func() {
			RecordHTTPRequest("ranking", "GET", "200")
			RecordHTTPRequestDuration("ranking", "GET", "200", 12)
			RecordFlowTransition("get_started", "ok")
			UpdateFlowSessions(5)
			UpdateQueueSize(11)
			UpdateQueueCapacity(100)
			RecordEnqueueError("full")
			UpdateWorkerCount(4)
			RecordWorkerError()
			RecordWorkerLatency(1)
			RecordErrorByComponent("ledger", "validation")
			RecordSnapshotRebuild(0.3)
			UpdateSystemMemoryUsage(1024)
			UpdateSystemGoroutineCount(9)

			Convey("Then the custom registry should expose them", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 11)
				So(testutil.ToFloat64(globalManager.flowSessions), ShouldEqual, 5)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
				So(GetRegistry(), ShouldNotBeNil)
			})
		})
	})
}
