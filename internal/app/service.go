// Package app composes the backend client into the views the dashboard
// renders: the landing overview, KPI drilldowns and on-disk snapshots.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/learningpython92/Dashboard2/internal/adapters/http/client"
	"github.com/learningpython92/Dashboard2/pkg/logger"
	"github.com/learningpython92/Dashboard2/pkg/metrics"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600

	defaultDrilldownConcurrency = 4
)

// Backend is the subset of *client.Client the service depends on.
type Backend interface {
	GetKPIAverages(ctx context.Context, f client.Filters) (client.KPIAverages, error)
	GetBusinessSummaries(ctx context.Context) (client.BusinessSummaries, error)
	GetAIInsights(ctx context.Context, f client.Filters) (client.Insights, error)
	GetKPIDrilldown(ctx context.Context, kpiName string, f client.Filters) (client.KPIDrilldown, error)
	GetFilterOptions(ctx context.Context) (client.FilterOptions, error)
}

// Overview is everything the dashboard landing view shows.
type Overview struct {
	Filters       client.Filters           `json:"filters"`
	KPIAverages   client.KPIAverages       `json:"kpiAverages"`
	Summaries     client.BusinessSummaries `json:"summaries"`
	Insights      client.Insights          `json:"insights"`
	FilterOptions client.FilterOptions     `json:"filterOptions"`
}

// Snapshot is an overview persisted with its capture time.
type Snapshot struct {
	CapturedAt time.Time `json:"capturedAt"`
	BaseURL    string    `json:"baseUrl,omitempty"`
	Overview   Overview  `json:"overview"`
}

// Service loads dashboard views from a Backend.
type Service struct {
	backend              Backend
	baseURL              string
	drilldownConcurrency int
	now                  func() time.Time
	logger               logger.Logger
	metrics              *metrics.Manager
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager used to count overview loads.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithBaseURL records the backend root in saved snapshots.
func WithBaseURL(u string) Option {
	return func(s *Service) {
		s.baseURL = u
	}
}

// WithDrilldownConcurrency bounds parallel requests in LoadDrilldowns.
func WithDrilldownConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.drilldownConcurrency = n
		}
	}
}

// WithClock overrides the snapshot clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service over backend.
func New(backend Backend, opts ...Option) *Service {
	s := &Service{
		backend:              backend,
		drilldownConcurrency: defaultDrilldownConcurrency,
		now:                  time.Now,
		logger:               logger.Nop(),
		metrics:              metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadOverview fetches averages, summaries, insights and filter options
// concurrently. The first failure cancels the rest and is returned.
func (s *Service) LoadOverview(ctx context.Context, f client.Filters) (*Overview, error) {
	ov := &Overview{Filters: f}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ov.KPIAverages, err = s.backend.GetKPIAverages(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		ov.Summaries, err = s.backend.GetBusinessSummaries(gctx)
		return err
	})
	g.Go(func() (err error) {
		ov.Insights, err = s.backend.GetAIInsights(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		ov.FilterOptions, err = s.backend.GetFilterOptions(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.metrics.RecordOverviewLoad(metrics.ResultFailure)
		s.logger.Error(ctx, "overview load failed", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrOverview, err)
	}

	s.metrics.RecordOverviewLoad(metrics.ResultSuccess)
	s.logger.Info(ctx, "overview loaded",
		logger.Int("summaries", len(ov.Summaries)),
		logger.Int("businessGroups", len(ov.FilterOptions.BusinessGroups)),
		logger.Int("functions", len(ov.FilterOptions.Functions)))
	return ov, nil
}

// LoadDrilldowns fetches the drilldown of every KPI in kpis with bounded
// concurrency. Duplicate names are fetched once.
func (s *Service) LoadDrilldowns(ctx context.Context, kpis []string, f client.Filters) (map[string]client.KPIDrilldown, error) {
	if len(kpis) == 0 {
		return nil, ErrNoKPIs
	}

	var (
		mu  sync.Mutex
		out = make(map[string]client.KPIDrilldown, len(kpis))
	)
	seen := make(map[string]struct{}, len(kpis))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.drilldownConcurrency)
	for _, name := range kpis {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		name := name
		g.Go(func() error {
			d, err := s.backend.GetKPIDrilldown(gctx, name, f)
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = d
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error(ctx, "drilldown load failed", logger.Error(err))
		return nil, err
	}
	return out, nil
}

// SaveSnapshot writes ov as indented JSON to path, creating parent
// directories. The file is written atomically via a temp file and rename.
func (s *Service) SaveSnapshot(ctx context.Context, path string, ov *Overview) (*Snapshot, error) {
	if ov == nil {
		return nil, ErrNilOverview
	}
	if path == "" {
		return nil, ErrEmptySnapshotPath
	}

	snap := &Snapshot{
		CapturedAt: s.now().UTC(),
		BaseURL:    s.baseURL,
		Overview:   *ov,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Chmod(filePermission); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to chmod snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return nil, fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	s.logger.Info(ctx, "snapshot saved", logger.String("path", path), logger.Int("bytes", len(data)))
	return snap, nil
}

// SnapshotFileName returns the timestamped default name for a snapshot.
func (s *Service) SnapshotFileName() string {
	return "dashboard_snapshot_" + s.now().UTC().Format("20060102_150405") + ".json"
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return &snap, nil
}
