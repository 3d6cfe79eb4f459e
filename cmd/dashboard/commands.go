package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/learningpython92/Dashboard2/internal/adapters/http/client"
	"github.com/learningpython92/Dashboard2/internal/app"
	"github.com/learningpython92/Dashboard2/pkg/logger"
)

var (
	errMissingKPI   = errors.New("drilldown needs at least one KPI name")
	errSnapshotArgs = errors.New("snapshot show needs exactly one file")
)

// filterFlags are shared by every command that narrows results.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "business-group",
			Aliases: []string{"b"},
			Usage:   "Only include this business group",
		},
		&cli.StringFlag{
			Name:    "function",
			Aliases: []string{"f"},
			Usage:   "Only include this function",
		},
		&cli.StringFlag{
			Name:  "start-date",
			Usage: "Period start (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:  "end-date",
			Usage: "Period end (YYYY-MM-DD)",
		},
	}
}

func filtersFrom(c *cli.Context) client.Filters {
	return client.Filters{
		BusinessGroup: c.String("business-group"),
		Function:      c.String("function"),
		StartDate:     c.String("start-date"),
		EndDate:       c.String("end-date"),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func averagesCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:  "averages",
		Usage: "Show KPI averages",
		Flags: filterFlags(),
		Action: func(c *cli.Context) error {
			out, err := s.client.GetKPIAverages(c.Context, filtersFrom(c))
			if err != nil {
				return err
			}
			return writeJSON(s.stdout, out)
		},
	}
}

func summariesCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:  "summaries",
		Usage: "Show per business group summaries",
		Action: func(c *cli.Context) error {
			out, err := s.client.GetBusinessSummaries(c.Context)
			if err != nil {
				return err
			}
			return writeJSON(s.stdout, out)
		},
	}
}

func insightsCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:  "insights",
		Usage: "Show AI deep-dive insights",
		Flags: filterFlags(),
		Action: func(c *cli.Context) error {
			out, err := s.client.GetAIInsights(c.Context, filtersFrom(c))
			if err != nil {
				return err
			}
			return writeJSON(s.stdout, out)
		},
	}
}

func drilldownCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "drilldown",
		Usage:     "Show the drilldown of one or more KPIs",
		ArgsUsage: "<kpi> [kpi...]",
		Flags:     filterFlags(),
		Action: func(c *cli.Context) error {
			kpis := c.Args().Slice()
			switch len(kpis) {
			case 0:
				return errMissingKPI
			case 1:
				out, err := s.client.GetKPIDrilldown(c.Context, kpis[0], filtersFrom(c))
				if err != nil {
					return err
				}
				return writeJSON(s.stdout, out)
			default:
				out, err := s.svc.LoadDrilldowns(c.Context, kpis, filtersFrom(c))
				if err != nil {
					return err
				}
				return writeJSON(s.stdout, out)
			}
		},
	}
}

func filtersCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:  "filters",
		Usage: "List the selectable business groups and functions",
		Action: func(c *cli.Context) error {
			out, err := s.client.GetFilterOptions(c.Context)
			if err != nil {
				return err
			}
			return writeJSON(s.stdout, out)
		},
	}
}

func overviewCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:  "overview",
		Usage: "Load averages, summaries, insights and filter options together",
		Flags: filterFlags(),
		Action: func(c *cli.Context) error {
			ov, err := s.svc.LoadOverview(c.Context, filtersFrom(c))
			if err != nil {
				return err
			}
			return writeJSON(s.stdout, ov)
		},
	}
}

func snapshotCommand(s *session) *cli.Command {
	flags := append(filterFlags(),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Snapshot file (default: <snapshot_dir>/dashboard_snapshot_<timestamp>.json)",
		},
	)
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Save the overview to a JSON file",
		Flags: flags,
		Action: func(c *cli.Context) error {
			ov, err := s.svc.LoadOverview(c.Context, filtersFrom(c))
			if err != nil {
				return err
			}
			path := c.String("output")
			if path == "" {
				path = filepath.Join(s.cfg.SnapshotDir, s.svc.SnapshotFileName())
			}
			snap, err := s.svc.SaveSnapshot(c.Context, path, ov)
			if err != nil {
				return err
			}
			return writeJSON(s.stdout, map[string]any{
				"path":       path,
				"capturedAt": snap.CapturedAt,
			})
		},
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print a saved snapshot",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errSnapshotArgs
					}
					snap, err := app.LoadSnapshot(c.Args().First())
					if err != nil {
						return err
					}
					s.log.Debug(c.Context, "snapshot loaded",
						logger.String("path", c.Args().First()),
						logger.String("captured_at", snap.CapturedAt.String()))
					return writeJSON(s.stdout, snap)
				},
			},
		},
	}
}
