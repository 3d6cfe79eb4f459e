package app

import "errors"

// Sentinel kinds for service errors.
var (
	ErrOverview          = errors.New("failed to load dashboard overview")
	ErrNoKPIs            = errors.New("no kpi names given")
	ErrNilOverview       = errors.New("overview is nil")
	ErrEmptySnapshotPath = errors.New("snapshot path must not be empty")
	ErrInvalidSnapshot   = errors.New("invalid snapshot file")
)
