package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/learningpython92/Dashboard2/pkg/logger"
	"github.com/learningpython92/Dashboard2/pkg/metrics"
)

// HeaderRequestID carries a per-request uuid so backend logs can be matched.
const HeaderRequestID = "X-Request-ID"

// request describes one GET against the backend.
type request struct {
	endpoint string // metrics/log label
	path     string // appended to the base URL, starts with '/'
	query    string // encoded, without '?'
	failMsg  string // RequestError.Op on a non-2xx status
}

func (c *Client) url(path, query string) string {
	u := c.baseURL + path
	if query != "" {
		u += "?" + query
	}
	return u
}

// getJSON performs r and decodes a 2xx body into out.
func (c *Client) getJSON(ctx context.Context, r request, out any) error {
	target := c.url(r.path, r.query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)

	c.metrics.IncInFlight()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	took := time.Since(start)
	c.metrics.DecInFlight()
	if err != nil {
		c.metrics.RecordError(r.endpoint, metrics.ErrorTypeTransport)
		c.logger.Debug(ctx, "backend request failed",
			logger.String("endpoint", r.endpoint),
			logger.String("url", target),
			logger.String("request_id", requestID),
			logger.Error(err))
		return err
	}
	defer func() {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn(ctx, "failed to close response body", logger.String("endpoint", r.endpoint), logger.Error(cerr))
		}
	}()

	c.metrics.RecordRequest(r.endpoint, resp.StatusCode, took)
	c.logger.Debug(ctx, "backend request",
		logger.String("endpoint", r.endpoint),
		logger.String("url", target),
		logger.String("request_id", requestID),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took", took))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if resp.StatusCode < http.StatusBadRequest {
			c.metrics.RecordError(r.endpoint, metrics.ErrorTypeUnknown)
		}
		return &RequestError{
			Op:         r.failMsg,
			Endpoint:   r.endpoint,
			URL:        target,
			StatusCode: resp.StatusCode,
		}
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		c.metrics.RecordError(r.endpoint, metrics.ErrorTypeDecode)
		return fmt.Errorf("%w: %s: %w", ErrDecodeResponse, r.endpoint, err)
	}
	// The body must hold exactly one JSON value.
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		c.metrics.RecordError(r.endpoint, metrics.ErrorTypeDecode)
		if err == nil {
			return fmt.Errorf("%w: %s: unexpected data after JSON value", ErrDecodeResponse, r.endpoint)
		}
		return fmt.Errorf("%w: %s: %w", ErrDecodeResponse, r.endpoint, err)
	}
	return nil
}
