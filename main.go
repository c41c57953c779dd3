package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/replay-analyzer/internal/analyze"
	"github.com/dtnitsch/replay-analyzer/internal/compare"
	"github.com/dtnitsch/replay-analyzer/internal/history"
	"github.com/dtnitsch/replay-analyzer/pkg/help"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newApp() *cli.App {
	formatFlag := &cli.StringFlag{Name: "format", Usage: "Output format: text or yaml", Value: "text"}

	return &cli.App{
		Name:    "replay-analyzer",
		Usage:   "Analyze web-archive collection manifests (replay.json)",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Fetch a collection manifest and report on its pages",
				ArgsUsage: "[replay.json URL]",
				Flags:     analyze.Flags(),
				Action:    analyze.AnalyzeAction,
			},
			{
				Name:      "compare",
				Usage:     "Diff two structured exports",
				ArgsUsage: "<before> <after>",
				Flags:     []cli.Flag{formatFlag},
				Action:    compare.CompareAction,
			},
			{
				Name:  "history",
				Usage: "Record and compare exports of successive crawls",
				Subcommands: []*cli.Command{
					{
						Name:      "record",
						Usage:     "Store export files in the history database",
						ArgsUsage: "<export>...",
						Flags:     []cli.Flag{history.DBFlag},
						Action:    history.RecordAction,
					},
					{
						Name:   "list",
						Usage:  "List recorded runs, newest first",
						Flags:  []cli.Flag{history.DBFlag, &cli.IntFlag{Name: "limit", Usage: "Maximum runs to list (0 = all)", Value: 20}},
						Action: history.ListAction,
					},
					{
						Name:      "diff",
						Usage:     "Compare two recorded runs (default: the latest two)",
						ArgsUsage: "[<before-run-id> <after-run-id>]",
						Flags:     []cli.Flag{history.DBFlag, formatFlag},
						Action:    history.DiffAction,
					},
					{
						Name:      "trend",
						Usage:     "Show one key's count across recorded runs",
						ArgsUsage: "<key>",
						Flags: []cli.Flag{
							history.DBFlag,
							&cli.StringFlag{Name: "dimension", Usage: "domain, content_type, extension or status", Value: "domain"},
						},
						Action: history.TrendAction,
					},
				},
			},
			{
				Name:  "quickstart",
				Usage: "Print common invocations",
				Action: func(c *cli.Context) error {
					fmt.Print(help.QuickstartYAML)
					return nil
				},
			},
		},
	}
}
