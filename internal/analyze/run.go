package analyze

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/replay-analyzer/models"
	"github.com/dtnitsch/replay-analyzer/pkg/aggregate"
	"github.com/dtnitsch/replay-analyzer/pkg/export"
	"github.com/dtnitsch/replay-analyzer/pkg/fetcher"
	"github.com/dtnitsch/replay-analyzer/pkg/metrics"
	"github.com/dtnitsch/replay-analyzer/pkg/report"
	"github.com/dtnitsch/replay-analyzer/pkg/storage"
)

// Params is everything one analysis run needs, resolved from flags and config.
type Params struct {
	Target         fetcher.Target
	Config         models.AnalyzeConfig
	FullAnalysis   bool
	DetectLanguage bool

	ReportPath  string
	JSONPath    string
	Format      string
	MetricsPath string
	Print       bool

	Stdout io.Writer
	Now    func() time.Time
}

// Outcome reports what a run produced.
type Outcome struct {
	RunID   string
	Result  *models.AggregateResult
	Written []string
}

// Execute runs fetch, aggregation and output. Manifest failures are returned
// before anything is written; every other problem degrades the report.
func Execute(ctx context.Context, p Params, logger *slog.Logger) (*Outcome, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Stdout == nil {
		p.Stdout = io.Discard
	}
	start := p.Now()

	if p.JSONPath != "" {
		if err := export.CheckFormat(p.Format); err != nil {
			return nil, err
		}
	}

	source, err := p.Target.Resolve()
	if err != nil {
		return nil, &fetcher.Error{Kind: fetcher.ManifestUnavailable, Message: "no manifest location", Cause: err}
	}

	f := fetcher.NewFetcher(fetcher.Options{
		UserAgent: p.Config.UserAgent,
		Timeout:   p.Config.Timeout.Duration,
		Logger:    logger,
	})

	manifest, err := f.FetchManifest(ctx, p.Target)
	if err != nil {
		return nil, err
	}

	pages := f.ResolvePages(ctx, manifest, p.FullAnalysis, fetcher.PageListOptions{
		PageSize:          p.Config.PageSize,
		MaxPages:          p.Config.MaxPages,
		RequestsPerSecond: p.Config.RequestsPerSecond,
	})

	opts := aggregate.Options{TopDomains: p.Config.TopDomains}
	if p.DetectLanguage {
		logger.Info("Loading language models")
		opts.Detector = aggregate.NewLinguaDetector()
	}

	result := aggregate.Aggregate(aggregate.Input{
		Source:   source,
		Manifest: manifest,
		Pages:    pages,
	}, opts)

	logger.Info("Aggregation complete",
		"total_pages", result.TotalPages,
		"unique_urls", result.UniqueURLs,
		"skipped", result.SkippedRecords,
		"origin", result.Origin,
		"degraded", result.Degraded())

	generatedAt := p.Now()
	outcome := &Outcome{RunID: uuid.NewString(), Result: result}
	s := &storage.Storage{}

	reportOpts := report.Options{GeneratedAt: generatedAt}
	if p.Print {
		if err := report.Write(p.Stdout, result, reportOpts); err != nil {
			return outcome, fmt.Errorf("failed to print report: %w", err)
		}
	}
	if p.ReportPath != "" {
		text := report.Render(result, reportOpts)
		if err := s.SaveFile(p.ReportPath, []byte(text)); err != nil {
			return outcome, fmt.Errorf("failed to save report: %w", err)
		}
		outcome.Written = append(outcome.Written, p.ReportPath)
	}

	if p.JSONPath != "" {
		doc := export.Build(result, outcome.RunID, generatedAt)
		data, err := export.Marshal(doc, p.Format)
		if err != nil {
			return outcome, err
		}
		if err := s.SaveFile(p.JSONPath, data); err != nil {
			return outcome, fmt.Errorf("failed to save export: %w", err)
		}
		outcome.Written = append(outcome.Written, p.JSONPath)
	}

	if p.MetricsPath != "" {
		rec := metrics.NewRecorder()
		finished := p.Now()
		rec.Observe(result, finished.Sub(start), finished)
		if err := rec.WriteTextfile(p.MetricsPath); err != nil {
			return outcome, err
		}
		outcome.Written = append(outcome.Written, p.MetricsPath)
	}

	return outcome, nil
}
