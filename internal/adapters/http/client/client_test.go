package client_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/learningpython92/Dashboard2/internal/adapters/http/client"
	"github.com/learningpython92/Dashboard2/pkg/logger"
)

func TestNew(t *testing.T) {
	Convey("Given client construction", t, func() {
		Convey("When no base URL is given", func() {
			c, err := client.New("")

			Convey("Then the default backend is used", func() {
				So(err, ShouldBeNil)
				So(c.BaseURL(), ShouldEqual, client.DefaultBaseURL)
			})
		})

		Convey("When the base URL has trailing slashes", func() {
			c, err := client.New("https://dash.example.com/api/v1//")

			Convey("Then they are trimmed", func() {
				So(err, ShouldBeNil)
				So(c.BaseURL(), ShouldEqual, "https://dash.example.com/api/v1")
			})
		})

		Convey("When the base URL is not absolute http(s)", func() {
			for _, bad := range []string{"/api/v1", "ftp://host/api", "http://", "http://host/api?x=1", "::bad::"} {
				_, err := client.New(bad)
				So(errors.Is(err, client.ErrInvalidBaseURL), ShouldBeTrue)
			}
		})
	})
}

func TestClientOptions(t *testing.T) {
	Convey("Given a backend that echoes request headers", t, func() {
		headers := make(chan http.Header, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case headers <- r.Header.Clone():
			default:
			}
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		Convey("When the client has a user agent and extra headers", func() {
			c, err := client.New(srv.URL,
				client.WithUserAgent("dashboard-test/1.0"),
				client.WithHeader("X-Tenant", "acme"),
				client.WithTimeout(2*time.Second),
			)
			So(err, ShouldBeNil)
			_, err = c.GetBusinessSummaries(context.Background())

			Convey("Then they are sent", func() {
				So(err, ShouldBeNil)
				got := <-headers
				So(got.Get("User-Agent"), ShouldEqual, "dashboard-test/1.0")
				So(got.Get("X-Tenant"), ShouldEqual, "acme")
				So(got.Get(client.HeaderRequestID), ShouldNotBeEmpty)
			})
		})

		Convey("When a custom http.Client is supplied", func() {
			var used atomic.Bool
			hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				used.Store(true)
				return http.DefaultTransport.RoundTrip(r)
			})}
			c, err := client.New(srv.URL, client.WithHTTPClient(hc))
			So(err, ShouldBeNil)
			_, err = c.GetBusinessSummaries(context.Background())

			Convey("Then requests go through it", func() {
				So(err, ShouldBeNil)
				So(used.Load(), ShouldBeTrue)
			})
		})

		Convey("When a logger is supplied at debug level", func() {
			var buf bytes.Buffer
			So(logger.InitWithOptions(logger.WithWriter(&buf)), ShouldBeNil)
			So(logger.SetLevelString("debug"), ShouldBeNil)
			defer func() { _ = logger.SetLevelString("info") }()

			c, err := client.New(srv.URL, client.WithLogger(logger.Named("client")))
			So(err, ShouldBeNil)
			_, err = c.GetBusinessSummaries(context.Background())

			Convey("Then each request is traced", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, "backend request")
				So(buf.String(), ShouldContainSubstring, "endpoint=business_summaries")
				So(buf.String(), ShouldContainSubstring, "status=200")
			})
		})
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
