// Dashboard CLI - read-only access to the HR dashboard backend.
//
// Usage:
//
//	dashboard averages --business-group Sales --start-date 2024-01-01
//	dashboard drilldown --function HR time_to_fill
//	dashboard overview
//	dashboard snapshot --output snapshots/today.json
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/learningpython92/Dashboard2/internal/adapters/http/client"
	"github.com/learningpython92/Dashboard2/internal/app"
	"github.com/learningpython92/Dashboard2/internal/config"
	"github.com/learningpython92/Dashboard2/pkg/logger"
	"github.com/learningpython92/Dashboard2/pkg/metrics"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session holds what the Before hook builds for the command actions.
type session struct {
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	log    logger.Logger
	client *client.Client
	svc    *app.Service
}

func newApp(stdout, stderr io.Writer) *cli.App {
	s := &session{stdout: stdout, stderr: stderr}

	return &cli.App{
		Name:      "dashboard",
		Usage:     "Query KPI averages, summaries, insights and drilldowns from the dashboard backend",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Writer:    stdout,
		ErrWriter: stderr,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{config.EnvConfigFile},
			},
			&cli.StringFlag{
				Name:    "url",
				Usage:   "Backend API base URL",
				EnvVars: []string{"DASHBOARD_BASE_URL"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Print client metrics to stderr after the command",
			},
		},

		Before: s.setup,
		After:  s.teardown,

		Commands: []*cli.Command{
			averagesCommand(s),
			summariesCommand(s),
			insightsCommand(s),
			drilldownCommand(s),
			filtersCommand(s),
			overviewCommand(s),
			snapshotCommand(s),
		},
	}
}

// setup resolves configuration (defaults, file, env, then flags) and
// builds the logger, client and service.
func (s *session) setup(c *cli.Context) error {
	ctx := c.Context

	cfg, err := config.LoadFile(ctx, c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("url") {
		cfg.BaseURL = c.String("url")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("metrics") {
		cfg.Metrics = c.Bool("metrics")
	}
	if err := cfg.Validate(ctx); err != nil {
		return err
	}

	if err := logger.InitWithOptions(logger.WithWriter(s.stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	s.log = logger.Named("dashboard")
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		s.log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	cl, err := client.New(cfg.BaseURL,
		client.WithTimeout(cfg.Timeout),
		client.WithUserAgent(cfg.UserAgent),
		client.WithLogger(logger.Named("client")),
	)
	if err != nil {
		return err
	}

	s.cfg = cfg
	s.client = cl
	s.svc = app.New(cl,
		app.WithLogger(logger.Named("app")),
		app.WithBaseURL(cl.BaseURL()),
	)
	s.log.Debug(ctx, "configuration resolved",
		logger.String("base_url", cfg.BaseURL),
		logger.Duration("timeout", cfg.Timeout))
	return nil
}

func (s *session) teardown(*cli.Context) error {
	if s.cfg == nil || !s.cfg.Metrics {
		return nil
	}
	return metrics.WriteText(s.stderr, metrics.GetRegistry())
}
