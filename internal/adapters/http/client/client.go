// Package client is the data-access layer for the dashboard REST backend.
//
// Every operation issues one HTTP GET (two for GetFilterOptions), fails with
// a *RequestError when the status is outside 200-299, and otherwise returns
// the decoded JSON body. Transport errors from the underlying http.Client are
// returned as is.
package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/learningpython92/Dashboard2/pkg/logger"
	"github.com/learningpython92/Dashboard2/pkg/metrics"
)

// DefaultBaseURL is the backend root used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api/v1"

const defaultTimeout = 30 * time.Second

// Client calls the dashboard backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	headers    http.Header
	logger     logger.Logger
	metrics    *metrics.Manager
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. WithTimeout is ignored
// when this is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics manager. Defaults to metrics.Default().
func WithMetrics(m *metrics.Manager) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if key != "" {
			c.headers.Add(key, value)
		}
	}
}

// New builds a Client for the backend rooted at baseURL. An empty baseURL
// selects DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidBaseURL, baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("%w: %q must not carry a query or fragment", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		headers: make(http.Header),
		metrics: metrics.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}
	return c, nil
}

// BaseURL returns the normalised backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}
