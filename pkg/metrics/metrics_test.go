package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"course": "cs101"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the configured names", func() {
				So(manager, ShouldNotBeNil)
				manager.recommendations.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_unit_recommendations_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "cs101")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When ignoring empty option values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults stay in place", func() {
				So(manager.namespace, ShouldEqual, "teampulse")
				So(manager.subsystem, ShouldEqual, "analytics")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording analytics metrics", func() {
			before := testutil.ToFloat64(globalManager.alertsEmitted.WithLabelValues("overload", "high"))
			RecordAlert("overload", "high")
			RecordAlert("overload", "high")

			Convey("Then counters advance", func() {
				after := testutil.ToFloat64(globalManager.alertsEmitted.WithLabelValues("overload", "high"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When publishing a group health score", func() {
			UpdateGroupHealthScore("Group_A", 0.7)

			Convey("Then the gauge holds the latest value", func() {
				So(testutil.ToFloat64(globalManager.groupHealthScore.WithLabelValues("Group_A")), ShouldEqual, 0.7)
			})
		})

		Convey("When recording every helper", func() {
			So(func() {
				RecordAnalysis("detect")
				RecordAnalysisLatency("detect", 1.5)
				RecordNudge("re_engage")
				RecordInstructorAlert("critical")
				RecordRecommendation()
				UpdateGroupsTotal(3)
				RecordRendererCall("group_assessment", "fallback")
				RecordRendererLatency("ollama", 12)
				RecordContributionRecorded()
				RecordContributionDuplicate()
				RecordSnapshotSaved()
				RecordStoreLatency("contributions", 0.4)
				RecordAuthFailure("invalid_token")
				RecordHTTPRequest("/groups", "GET", "200")
				RecordHTTPRequestDuration("/groups", "GET", "200", 3)
				UpdateQueueSize(1)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.2)
				UpdateWorkerActiveCount(4)
				RecordWorkerJobProcessed()
				RecordWorkerProcessingLatency(5)
				RecordWorkerError()
				RecordErrorByComponent("worker", "store")
				RecordErrorByType("store", "high")
				RecordErrorByEndpoint("/groups", "GET", "server_error")
				RecordErrorLatency("http", "server_error", 7)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When gathering from the exported registry", func() {
			RecordRecommendation()
			families, err := GetRegistry().Gather()

			Convey("Then teampulse series are present", func() {
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "teampulse_analytics_recommendations_total")
			})
		})
	})
}
