// Command spendsleuth analyzes cloud billing exports: ad-hoc filtering,
// summary reporting, and budget planning reconciliation.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/vechiato/spendsleuth/internal/billing"
	"github.com/vechiato/spendsleuth/internal/config"
	"github.com/vechiato/spendsleuth/internal/planning"
	"github.com/vechiato/spendsleuth/internal/query"
	"github.com/vechiato/spendsleuth/internal/report"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "spendsleuth",
		Usage:   "cloud billing analysis and budget planning",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "directory containing billing export CSV files",
				Value:   "data",
				EnvVars: []string{"SPENDSLEUTH_DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (trace, debug, info, warn, error)",
				Value:   "warn",
				EnvVars: []string{"SPENDSLEUTH_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			summaryCommand(),
			filterCommand(),
			planCommand(),
		},
	}
}

func newLogger(c *cli.Context) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.String("log-level"))
	if err != nil {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func loadTable(c *cli.Context, logger zerolog.Logger) (*billing.Table, []billing.FileMetadata, error) {
	return billing.LoadDirectory(c.String("data-dir"), logger)
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "print the overall billing summary report",
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			table, metas, err := loadTable(c, logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, report.Summary(table, metas))
			return nil
		},
	}
}

func filterCommand() *cli.Command {
	return &cli.Command{
		Name:  "filter",
		Usage: "filter billing records and report on the matched set",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "instances", Usage: "instance name patterns"},
			&cli.StringSliceFlag{Name: "services", Aliases: []string{"service"}, Usage: "service name patterns"},
			&cli.StringSliceFlag{Name: "regions", Usage: "region patterns"},
			&cli.StringSliceFlag{Name: "months", Usage: "billing months (2025-01 or Jan-25)"},
			&cli.StringSliceFlag{Name: "pattern", Usage: "wildcard patterns for the pattern column"},
			&cli.StringFlag{Name: "pattern-column", Usage: "column the --pattern flags match against", Value: billing.ColInstanceName},
			&cli.StringFlag{Name: "logic", Usage: "combine criteria with \"and\" or \"or\"", Value: "and"},
			&cli.BoolFlag{Name: "exclude", Usage: "invert the match"},
			&cli.StringFlag{Name: "format", Usage: "output format (text, json)", Value: "text"},
			&cli.IntFlag{Name: "top", Usage: "number of top instances to show", Value: 10},
		},
		Action: runFilter,
	}
}

func runFilter(c *cli.Context) error {
	spec, err := filterSpecFromFlags(c)
	if err != nil {
		return err
	}

	logger := newLogger(c)
	table, _, err := loadTable(c, logger)
	if err != nil {
		return err
	}

	matched := query.NewEvaluator(table, logger).Evaluate(spec)
	return writeFilterResult(c, matched)
}

// filterSpecFromFlags mirrors the planning config's filter command syntax,
// so a query built here can be pasted into a group's filter string.
func filterSpecFromFlags(c *cli.Context) (query.FilterSpec, error) {
	spec := query.FilterSpec{
		Criteria: make(map[string]query.Criterion),
		Exclude:  c.Bool("exclude"),
	}
	switch c.String("logic") {
	case "and":
		spec.Logic = query.LogicAnd
	case "or":
		spec.Logic = query.LogicOr
	default:
		return spec, fmt.Errorf("invalid --logic %q: want \"and\" or \"or\"", c.String("logic"))
	}

	if v := c.StringSlice("instances"); len(v) > 0 {
		spec.Criteria[billing.ColInstanceName] = query.Text(v...)
	}
	if v := c.StringSlice("services"); len(v) > 0 {
		spec.Criteria[billing.ColServiceName] = query.Text(v...)
	}
	if v := c.StringSlice("regions"); len(v) > 0 {
		spec.Criteria[billing.ColRegion] = query.Text(v...)
	}
	if v := c.StringSlice("months"); len(v) > 0 {
		months := make([]string, len(v))
		for i, m := range v {
			months[i] = report.CanonicalMonth(m)
		}
		spec.Criteria[billing.ColBillingMonth] = query.Text(months...)
	}
	if v := c.StringSlice("pattern"); len(v) > 0 {
		column := c.String("pattern-column")
		existing := spec.Criteria[column].Patterns()
		spec.Criteria[column] = query.Text(append(existing, v...)...)
	}
	return spec, nil
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "run budget planning groups against the billing data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Usage:    "planning configuration YAML file",
				Required: true,
				EnvVars:  []string{"SPENDSLEUTH_PLANNING_CONFIG"},
			},
			&cli.StringFlag{Name: "format", Usage: "output format (text, json)", Value: "text"},
		},
		Action: runPlan,
	}
}

func runPlan(c *cli.Context) error {
	logger := newLogger(c)

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	groups, err := cfg.Resolve(logger)
	if err != nil {
		return err
	}

	table, _, err := loadTable(c, logger)
	if err != nil {
		return err
	}

	dataset := planning.NewEngine(table, logger).Run(groups)
	return writePlanResult(c, report.BuildPlanningReport(groups, dataset))
}
