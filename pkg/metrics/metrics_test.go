package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the default namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "audioquery")
				So(manager.subsystem, ShouldEqual, "daemon")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sounds"),
				WithLatencyBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"provider": "freesound"}),
				WithPrometheusRegistry(registry),
			)
			manager.cacheHits.Inc()

			Convey("Then metrics carry the custom names and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, mf := range families {
					if mf.GetName() == "test_sounds_cache_hits_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "freesound")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options receive empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithLatencyBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "audioquery")
				So(manager.subsystem, ShouldEqual, "daemon")
				So(len(manager.latencyBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording query flow", func() {
			before := testutil.ToFloat64(globalManager.queriesReceived.WithLabelValues("osc"))
			RecordQueryReceived("osc")
			RecordQueryReceived("osc")
			RecordQueryRejected("encoding")
			RecordQueryOutcome("played")
			RecordQueryLatency(120)

			Convey("Then counters increase", func() {
				So(testutil.ToFloat64(globalManager.queriesReceived.WithLabelValues("osc")), ShouldEqual, before+2)
			})
		})

		Convey("When recording downloads", func() {
			beforeBytes := testutil.ToFloat64(globalManager.downloadBytes)
			RecordDownload(ResultOK, 2048, 35)
			RecordDownload(ResultFailed, 0, 10)

			Convey("Then only successful bytes are counted", func() {
				So(testutil.ToFloat64(globalManager.downloadBytes), ShouldEqual, beforeBytes+2048)
			})
		})

		Convey("When recording the remaining metrics", func() {
			So(func() {
				RecordSearchRequest(ResultOK, 80)
				RecordSearchResults(3)
				RecordCacheHit()
				RecordPlayback(ResultOK)
				RecordDrainCycle()
				UpdateInboxSize(2)
				UpdateInboxCapacity(64)
				RecordInboxReject("full")
				RecordHTTPRequest("stats", "GET", "200", 1.5)
				RecordErrorByComponent("download", "bad_status")
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			RecordCacheHit()
			families, err := GetRegistry().Gather()

			Convey("Then the families are namespaced", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, mf := range families {
					So(strings.HasPrefix(mf.GetName(), "audioquery_daemon_"), ShouldBeTrue)
				}
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.drainCycles)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordDrainCycle()
				}
			}()
		}
		wg.Wait()

		So(testutil.ToFloat64(globalManager.drainCycles), ShouldEqual, before+1000)
	})
}
