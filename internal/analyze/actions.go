package analyze

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/replay-analyzer/models"
	"github.com/dtnitsch/replay-analyzer/pkg/export"
	"github.com/dtnitsch/replay-analyzer/pkg/fetcher"
)

// DefaultReportPath is where the text report goes when neither --print nor
// --output is given.
const DefaultReportPath = "crawl_analysis.txt"

// NewLogger builds the JSON stderr logger used by every action.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	} else if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func AnalyzeAction(c *cli.Context) error {
	logger := NewLogger(c)

	target := fetcher.Target{
		URL:        cleanManifestArg(c.Args().First()),
		Org:        strings.TrimSpace(c.String("org")),
		Collection: strings.TrimSpace(c.String("collection")),
	}
	if target.URL == "" && (target.Org == "" || target.Collection == "") {
		fmt.Fprintln(os.Stderr, "Error: provide a replay.json URL or both --org and --collection")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  replay-analyzer analyze "https://app.browsertrix.com/api/orgs/<org-id>/collections/<collection-id>/public/replay.json"`)
		fmt.Fprintln(os.Stderr, `  replay-analyzer analyze --org <org-id> --collection <collection-id> --fetch-pages`)
		return cli.Exit("", 2)
	}
	if target.URL != "" {
		if err := checkManifestURL(target.URL); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return cli.Exit("", 2)
		}
	}

	if err := export.CheckFormat(c.String("format")); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", 2)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return cli.Exit("", 2)
	}
	target.BaseURL = cfg.BaseURL

	params := Params{
		Target:         target,
		Config:         cfg,
		FullAnalysis:   c.Bool("fetch-pages"),
		DetectLanguage: c.Bool("detect-language"),
		JSONPath:       c.String("json"),
		Format:         c.String("format"),
		MetricsPath:    c.String("metrics-file"),
		Print:          c.Bool("print"),
		Stdout:         os.Stdout,
	}
	switch {
	case c.IsSet("output"):
		params.ReportPath = c.String("output")
	case !params.Print:
		params.ReportPath = DefaultReportPath
	}

	outcome, err := Execute(c.Context, params, logger)
	if err != nil {
		var fe *fetcher.Error
		if errors.As(err, &fe) {
			fmt.Fprintf(os.Stderr, "✗ %s\n", fe.Error())
			if fe.Hint != "" {
				fmt.Fprintf(os.Stderr, "  Hint: %s\n", fe.Hint)
			}
			return cli.Exit("", 1)
		}
		logger.Error("failed to write outputs", "error", err)
		return cli.Exit("", 2)
	}

	for _, path := range outcome.Written {
		fmt.Fprintf(os.Stderr, "✓ Saved: %s\n", path)
	}
	if outcome.Result.Degraded() {
		fmt.Fprintln(os.Stderr, "ℹ Full page list unavailable; results use inline manifest pages only")
	}
	fmt.Fprintln(os.Stderr, "✓ Analysis complete!")
	return nil
}

// loadConfig layers defaults, the optional YAML file and explicit flags.
func loadConfig(c *cli.Context) (models.AnalyzeConfig, error) {
	cfg := models.DefaultAnalyzeConfig()
	if path := c.String("config"); path != "" {
		loaded, err := models.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = models.DurationFrom(c.Duration("timeout"))
	}
	if c.IsSet("page-size") {
		cfg.PageSize = c.Int("page-size")
	}
	if c.IsSet("max-pages") {
		cfg.MaxPages = c.Int("max-pages")
	}
	if c.IsSet("rps") {
		cfg.RequestsPerSecond = c.Float64("rps")
	}
	if c.IsSet("top") {
		cfg.TopDomains = c.Int("top")
	}
	if c.IsSet("user-agent") {
		cfg.UserAgent = c.String("user-agent")
	}

	return cfg, cfg.Validate()
}

// Flags returns the analyze command's flags.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "org", Usage: "Organization ID (alternative to a full URL)", EnvVars: []string{"REPLAY_ANALYZER_ORG"}},
		&cli.StringFlag{Name: "collection", Usage: "Canonical collection ID (alternative to a full URL)", EnvVars: []string{"REPLAY_ANALYZER_COLLECTION"}},
		&cli.StringFlag{Name: "base-url", Usage: "API base used with --org/--collection", Value: models.DefaultBaseURL, EnvVars: []string{"REPLAY_ANALYZER_BASE_URL"}},
		&cli.StringFlag{Name: "config", Usage: "YAML config file with run defaults", EnvVars: []string{"REPLAY_ANALYZER_CONFIG"}},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the text report to this file", Value: DefaultReportPath},
		&cli.StringFlag{Name: "json", Usage: "Write the structured export to this file"},
		&cli.StringFlag{Name: "format", Usage: "Structured export format: json or yaml", Value: "json"},
		&cli.BoolFlag{Name: "print", Usage: "Print the report to stdout instead of saving it"},
		&cli.BoolFlag{Name: "fetch-pages", Aliases: []string{"full"}, Usage: "Fetch the complete page list for detailed analysis"},
		&cli.BoolFlag{Name: "detect-language", Usage: "Add a language distribution of page titles"},
		&cli.StringFlag{Name: "metrics-file", Usage: "Write Prometheus textfile gauges to this file"},
		&cli.DurationFlag{Name: "timeout", Usage: "Per-request timeout", Value: models.DefaultTimeout},
		&cli.IntFlag{Name: "page-size", Usage: "Page-list page size", Value: models.DefaultPageSize},
		&cli.IntFlag{Name: "max-pages", Usage: "Maximum page-list pages to request", Value: models.DefaultMaxPages},
		&cli.Float64Flag{Name: "rps", Usage: "Page-list requests per second", Value: models.DefaultRequestsPerSecond},
		&cli.IntFlag{Name: "top", Usage: "Number of top domains to list", Value: models.DefaultTopDomains},
		&cli.StringFlag{Name: "user-agent", Usage: "User-Agent header", Value: models.DefaultUserAgent},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"},
		&cli.BoolFlag{Name: "verbose", Usage: "Log debug details"},
	}
}
