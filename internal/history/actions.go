package history

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/replay-analyzer/internal/compare"
	"github.com/dtnitsch/replay-analyzer/pkg/export"
	hist "github.com/dtnitsch/replay-analyzer/pkg/history"
)

// DBFlag is shared by every history subcommand.
var DBFlag = &cli.StringFlag{
	Name:    "db",
	Usage:   "History database file",
	Value:   hist.DefaultDBName,
	EnvVars: []string{"REPLAY_ANALYZER_HISTORY_DB"},
}

// RecordAction stores one or more export files: history record FILE...
func RecordAction(c *cli.Context) error {
	if c.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: replay-analyzer history record <export.json>...")
		return cli.Exit("", 2)
	}

	database, err := hist.Open(c.String("db"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open history database: %v", err), 2)
	}
	defer database.Close()

	for _, path := range c.Args().Slice() {
		doc, err := compare.LoadDocument(path)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		runID, err := database.Record(doc)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Printf("Recorded %s as run %s in %s\n", path, runID, database.Path())
	}
	return nil
}

// ListAction prints recorded runs, newest first.
func ListAction(c *cli.Context) error {
	database, err := hist.Open(c.String("db"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open history database: %v", err), 2)
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet. Run: replay-analyzer history record <export.json>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tRECORDED\tPAGES\tUNIQUE\tSKIPPED\tDEGRADED\tSOURCE")
	for _, r := range runs {
		degraded := ""
		if r.PageListUnavailable {
			degraded = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.RunID, humanize.Time(r.RecordedAt), humanize.Comma(int64(r.TotalPages)),
			humanize.Comma(int64(r.UniqueURLs)), r.SkippedRecords, degraded, r.Source)
	}
	return w.Flush()
}

// DiffAction compares two runs, or the latest two when none are given.
func DiffAction(c *cli.Context) error {
	if c.NArg() != 0 && c.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: replay-analyzer history diff [<before-run-id> <after-run-id>]")
		return cli.Exit("", 2)
	}

	database, err := hist.Open(c.String("db"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open history database: %v", err), 2)
	}
	defer database.Close()

	var result *export.Comparison
	if c.NArg() == 0 {
		result, err = database.DiffLatest()
	} else {
		result, err = database.Diff(c.Args().Get(0), c.Args().Get(1))
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return compare.WriteComparison(result, c.String("format"))
}

// TrendAction prints one key's count across all recorded runs.
func TrendAction(c *cli.Context) error {
	if c.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: replay-analyzer history trend --dimension domain <key>")
		return cli.Exit("", 2)
	}

	database, err := hist.Open(c.String("db"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open history database: %v", err), 2)
	}
	defer database.Close()

	points, err := database.CountHistory(c.String("dimension"), c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tGENERATED\tCOUNT")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t%d\n", p.RunID, p.GeneratedAt, p.Count)
	}
	return w.Flush()
}
