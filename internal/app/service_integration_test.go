package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/learningpython92/Dashboard2/internal/adapters/http/client"
	"github.com/learningpython92/Dashboard2/internal/app"
	"github.com/learningpython92/Dashboard2/pkg/logger"
	"github.com/learningpython92/Dashboard2/pkg/metrics"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newBackendServer(failPath string) (*httptest.Server, func() []string) {
	var (
		mu   sync.Mutex
		seen []string
	)
	bodies := map[string]any{
		"/api/v1/kpis/averages/":          map[string]any{"time_to_fill": 31.2},
		"/api/v1/summaries/":              []map[string]any{{"business_group": "Sales", "headcount": 120}},
		"/api/v1/insights/deep-dive/":     map[string]any{"insights": []string{"hiring slowed"}},
		"/api/v1/filters/business-groups": []string{"Sales", "Ops"},
		"/api/v1/filters/functions":       []string{"HR", "IT"},
		"/api/v1/kpis/drilldown/ttf":      map[string]any{"kpi": "ttf", "series": []int{1, 2}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.RequestURI())
		mu.Unlock()

		if r.URL.Path == failPath {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), seen...)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service wired to a live client", t, func() {
		srv, requests := newBackendServer("")
		defer srv.Close()

		m := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
		c, err := client.New(srv.URL+"/api/v1",
			client.WithTimeout(5*time.Second),
			client.WithMetrics(m),
			client.WithLogger(logger.Named("client")),
		)
		So(err, ShouldBeNil)
		svc := app.New(c,
			app.WithMetrics(m),
			app.WithLogger(logger.Named("app")),
			app.WithBaseURL(c.BaseURL()),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When loading a filtered overview", func() {
			ov, err := svc.LoadOverview(ctx, client.Filters{BusinessGroup: "Sales", StartDate: "2024-01-01"})

			Convey("Then all five backend calls are made", func() {
				So(err, ShouldBeNil)
				So(requests(), ShouldContain, "/api/v1/kpis/averages/?business_group=Sales&start_date=2024-01-01")
				So(requests(), ShouldContain, "/api/v1/insights/deep-dive/?business_group=Sales&start_date=2024-01-01")
				So(requests(), ShouldContain, "/api/v1/summaries/")
				So(requests(), ShouldContain, "/api/v1/filters/business-groups")
				So(requests(), ShouldContain, "/api/v1/filters/functions")
				So(len(requests()), ShouldEqual, 5)
			})

			Convey("And the decoded bodies are assembled", func() {
				So(ov.KPIAverages["time_to_fill"], ShouldEqual, 31.2)
				So(ov.Summaries[0]["headcount"], ShouldEqual, float64(120))
				So(ov.FilterOptions.Functions, ShouldResemble, []string{"HR", "IT"})
			})

			Convey("And it can be snapshotted and reloaded", func() {
				path := filepath.Join(t.TempDir(), svc.SnapshotFileName())
				_, err := svc.SaveSnapshot(ctx, path, ov)
				So(err, ShouldBeNil)

				snap, err := app.LoadSnapshot(path)
				So(err, ShouldBeNil)
				So(snap.BaseURL, ShouldEqual, srv.URL+"/api/v1")
				So(snap.Overview.FilterOptions.BusinessGroups, ShouldResemble, []string{"Sales", "Ops"})
			})
		})

		Convey("When loading drilldowns for a known and an unknown KPI", func() {
			_, err := svc.LoadDrilldowns(ctx, []string{"ttf", "missing"}, client.Filters{})

			Convey("Then the unknown KPI surfaces as a request error", func() {
				var reqErr *client.RequestError
				So(errors.As(err, &reqErr), ShouldBeTrue)
				So(reqErr.StatusCode, ShouldEqual, http.StatusNotFound)
				So(reqErr.Error(), ShouldContainSubstring, "failed to fetch drilldown for missing")
			})
		})
	})

	Convey("Given a backend whose function filter endpoint is down", t, func() {
		srv, _ := newBackendServer("/api/v1/filters/functions")
		defer srv.Close()

		c, err := client.New(srv.URL+"/api/v1",
			client.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))))
		So(err, ShouldBeNil)
		svc := app.New(c, app.WithMetrics(disabledMetrics()))

		Convey("When loading the overview", func() {
			ov, err := svc.LoadOverview(context.Background(), client.Filters{})

			Convey("Then the filter options failure fails the whole load", func() {
				So(ov, ShouldBeNil)
				So(errors.Is(err, app.ErrOverview), ShouldBeTrue)
				So(errors.Is(err, client.ErrRequestFailed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "failed to fetch filter options")
			})
		})
	})
}
