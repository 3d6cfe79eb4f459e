package client

import (
	"errors"
	"fmt"
)

// Sentinel kinds for client errors.
var (
	ErrRequestFailed  = errors.New("request failed")
	ErrDecodeResponse = errors.New("decode response failed")
	ErrInvalidBaseURL = errors.New("invalid base url")
	ErrEmptyKPIName   = errors.New("kpi name must not be empty")
)

// RequestError reports a response whose status is outside 200-299.
// It matches ErrRequestFailed with errors.Is.
type RequestError struct {
	// Op is the message naming the failed operation.
	Op string
	// Endpoint is the backend endpoint that answered, e.g. "filter_functions".
	Endpoint   string
	URL        string
	StatusCode int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
}

func (e *RequestError) Unwrap() error { return ErrRequestFailed }
