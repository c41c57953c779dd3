// Package metrics exposes a run's results as Prometheus gauges written to a
// node-exporter textfile, for scheduled crawl jobs that are scraped later.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dtnitsch/replay-analyzer/models"
)

// Recorder owns a private registry so that one process never mixes runs.
type Recorder struct {
	registry *prometheus.Registry

	totalPages   prometheus.Gauge
	uniqueURLs   prometheus.Gauge
	skipped      prometheus.Gauge
	invalidURLs  prometheus.Gauge
	degraded     prometheus.Gauge
	statusCodes  *prometheus.GaugeVec
	contentTypes *prometheus.GaugeVec
	duration     prometheus.Gauge
	lastRun      prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		totalPages: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "replay_analyzer_pages_total",
			Help: "Total page entries in the analyzed collection, including skipped entries",
		}),
		uniqueURLs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "replay_analyzer_unique_urls",
			Help: "Distinct page URLs in the analyzed collection",
		}),
		skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "replay_analyzer_skipped_records",
			Help: "Page entries skipped because they could not be decoded",
		}),
		invalidURLs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "replay_analyzer_invalid_urls",
			Help: "Page entries without a usable URL",
		}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "replay_analyzer_page_list_degraded",
			Help: "1 when the full page list was requested but unavailable",
		}),
		statusCodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "replay_analyzer_status_pages",
			Help: "Pages per HTTP status code",
		}, []string{"code"}),
		contentTypes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "replay_analyzer_content_type_pages",
			Help: "Pages per content type",
		}, []string{"mime"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "replay_analyzer_run_duration_seconds",
			Help: "Wall time of the analysis run",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "replay_analyzer_last_run_timestamp_seconds",
			Help: "Unix time the analysis run finished",
		}),
	}

	r.registry.MustRegister(
		r.totalPages, r.uniqueURLs, r.skipped, r.invalidURLs, r.degraded,
		r.statusCodes, r.contentTypes, r.duration, r.lastRun,
	)
	return r
}

// Observe records the aggregate of one run.
func (r *Recorder) Observe(res *models.AggregateResult, elapsed time.Duration, finished time.Time) {
	r.totalPages.Set(float64(res.TotalPages))
	r.uniqueURLs.Set(float64(res.UniqueURLs))
	r.skipped.Set(float64(res.SkippedRecords))
	r.invalidURLs.Set(float64(res.InvalidURLs))
	if res.Degraded() {
		r.degraded.Set(1)
	} else {
		r.degraded.Set(0)
	}
	for _, s := range res.StatusCodes {
		r.statusCodes.WithLabelValues(strconv.Itoa(s.Code)).Set(float64(s.Count))
	}
	for _, c := range res.ContentTypes {
		r.contentTypes.WithLabelValues(c.Key).Set(float64(c.Count))
	}
	r.duration.Set(elapsed.Seconds())
	r.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes the gauges in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
