package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then it should be created and enabled", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithPrometheusRegistry(registry),
				WithNamespace("test"),
				WithSubsystem("api"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithCustomLabels(map[string]string{"env": "test"}),
			)
			manager.RecordRequest("summaries", 200, 3*time.Millisecond)

			Convey("Then metric names carry the namespace and subsystem", func() {
				n, err := testutil.GatherAndCount(registry, "test_api_requests_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When the default manager is used", func() {
			Convey("Then it is registered on the custom registry", func() {
				So(Default(), ShouldNotBeNil)
				So(GetRegistry(), ShouldNotBeNil)
			})
		})
	})
}

func TestRecordRequest(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording successful and failed requests", func() {
			m.RecordRequest("kpi_averages", 200, 12*time.Millisecond)
			m.RecordRequest("kpi_averages", 200, 8*time.Millisecond)
			m.RecordRequest("kpi_averages", 503, 2*time.Millisecond)
			m.RecordRequest("kpi_drilldown", 404, time.Millisecond)

			Convey("Then request counters are labelled by status", func() {
				So(testutil.ToFloat64(m.requests.WithLabelValues("kpi_averages", "200")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.requests.WithLabelValues("kpi_averages", "503")), ShouldEqual, 1)
			})

			Convey("And error counters are labelled by error type", func() {
				So(testutil.ToFloat64(m.requestErrors.WithLabelValues("kpi_averages", ErrorTypeServer)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.requestErrors.WithLabelValues("kpi_drilldown", ErrorTypeNotFound)), ShouldEqual, 1)
			})
		})

		Convey("When recording transport errors and in-flight requests", func() {
			m.RecordError("summaries", ErrorTypeTransport)
			m.IncInFlight()
			m.IncInFlight()
			m.DecInFlight()

			So(testutil.ToFloat64(m.requestErrors.WithLabelValues("summaries", ErrorTypeTransport)), ShouldEqual, 1)
			So(testutil.ToFloat64(m.inFlight), ShouldEqual, 1)
		})

		Convey("When recording overview loads", func() {
			m.RecordOverviewLoad(ResultSuccess)
			m.RecordOverviewLoad(ResultFailure)
			m.RecordOverviewLoad(ResultSuccess)

			So(testutil.ToFloat64(m.overviewLoads.WithLabelValues(ResultSuccess)), ShouldEqual, 2)
		})
	})

	Convey("Given a disabled manager", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry), WithMetricsEnabled(false))

		Convey("When recording", func() {
			m.RecordRequest("summaries", 500, time.Millisecond)
			m.RecordError("summaries", ErrorTypeTransport)

			Convey("Then nothing is registered or counted", func() {
				n, err := testutil.GatherAndCount(registry)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
				So(m.requests, ShouldBeNil)
			})
		})
	})

	Convey("Given disabled managers built on the default registerer", t, func() {
		Convey("When creating more than one", func() {
			Convey("Then no duplicate registration panics", func() {
				So(func() {
					first := NewManager(WithMetricsEnabled(false))
					second := NewManager(WithMetricsEnabled(false))
					first.RecordOverviewLoad(ResultSuccess)
					second.IncInFlight()
					second.DecInFlight()
				}, ShouldNotPanic)
			})
		})
	})

	Convey("Given a nil manager", t, func() {
		var m *Manager

		Convey("Then recording is a no-op", func() {
			So(func() {
				m.RecordRequest("summaries", 200, time.Millisecond)
				m.RecordError("summaries", ErrorTypeDecode)
				m.IncInFlight()
				m.DecInFlight()
				m.RecordOverviewLoad(ResultSuccess)
			}, ShouldNotPanic)
		})
	})
}

func TestErrorTypeForStatus(t *testing.T) {
	Convey("Given HTTP status codes", t, func() {
		So(ErrorTypeForStatus(500), ShouldEqual, ErrorTypeServer)
		So(ErrorTypeForStatus(502), ShouldEqual, ErrorTypeServer)
		So(ErrorTypeForStatus(429), ShouldEqual, ErrorTypeRateLimit)
		So(ErrorTypeForStatus(404), ShouldEqual, ErrorTypeNotFound)
		So(ErrorTypeForStatus(400), ShouldEqual, ErrorTypeClient)
		So(ErrorTypeForStatus(304), ShouldEqual, ErrorTypeUnknown)
	})
}

func TestWriteText(t *testing.T) {
	Convey("Given a registry with recorded requests", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry))
		m.RecordRequest("filter_functions", 200, time.Millisecond)

		Convey("When writing the text exposition", func() {
			var buf bytes.Buffer
			err := WriteText(&buf, registry)

			Convey("Then the output lists the metric", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, `dashboard_client_requests_total{endpoint="filter_functions",status_code="200"} 1`)
			})
		})
	})
}
