package analyze

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/replay-analyzer/models"
	"github.com/dtnitsch/replay-analyzer/pkg/export"
	"github.com/dtnitsch/replay-analyzer/pkg/fetcher"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testParams(t *testing.T, target fetcher.Target) (Params, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := models.DefaultAnalyzeConfig()
	cfg.Timeout = models.DurationFrom(2 * time.Second)
	cfg.RequestsPerSecond = 1000
	return Params{
		Target:      target,
		Config:      cfg,
		ReportPath:  filepath.Join(dir, "crawl_analysis.txt"),
		JSONPath:    filepath.Join(dir, "crawl_analysis.json"),
		MetricsPath: filepath.Join(dir, "replay.prom"),
		Now:         func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}, dir
}

func TestExecute_RejectedManifestWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	p, dir := testParams(t, fetcher.Target{BaseURL: srv.URL, Org: "org-1", Collection: "www-wangfuk-org"})
	_, err := Execute(context.Background(), p, quietLogger())
	if !fetcher.IsKind(err, fetcher.ManifestUnavailable) {
		t.Fatalf("Execute() error = %v, want ManifestUnavailable", err)
	}
	if !strings.Contains(fetcher.HintOf(err), "www-wangfuk-org") {
		t.Errorf("hint = %q, want it to name the identifier", fetcher.HintOf(err))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("files written after manifest failure: %d", len(entries))
	}
}

func TestExecute_PageListFailureDegradesReport(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/replay.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{
			"name": "c1",
			"pagesQueryUrl": "%s/pages",
			"pages": [
				{"url": "http://a.org/x", "status": 200, "mime": "text/html"},
				{"url": "http://b.org/y", "status": 404}
			]
		}`, srv.URL)
	})
	mux.HandleFunc("/pages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	p, _ := testParams(t, fetcher.Target{URL: srv.URL + "/replay.json"})
	p.FullAnalysis = true

	outcome, err := Execute(context.Background(), p, quietLogger())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if outcome.Result.TotalPages != 2 || !outcome.Result.Degraded() {
		t.Errorf("result total = %d degraded = %v", outcome.Result.TotalPages, outcome.Result.Degraded())
	}
	if len(outcome.Written) != 3 {
		t.Errorf("written = %v, want report, export and metrics", outcome.Written)
	}

	text, err := os.ReadFile(p.ReportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(text), "Note: the full page list was unavailable") {
		t.Errorf("report does not note the unavailable page list:\n%s", text)
	}

	data, err := os.ReadFile(p.JSONPath)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	doc, err := export.Parse(data)
	if err != nil {
		t.Fatalf("export.Parse() error = %v", err)
	}
	if !doc.Overview.PageListUnavailable || doc.RunID != outcome.RunID {
		t.Errorf("export overview = %+v run id = %q", doc.Overview, doc.RunID)
	}
}

func TestExecute_FullPageList(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/replay.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"name": "c1", "pagesQueryUrl": "%s/pages.jsonl", "pages": []}`, srv.URL)
	})
	mux.HandleFunc("/pages.jsonl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Join([]string{
			`{"format": "json-pages-1.0", "id": "pages"}`,
			`{"url": "http://a.org/x", "status": 200, "mime": "text/html", "ts": "20240101000000"}`,
			`{"url": "http://a.org/y", "status": 200, "mime": "application/pdf", "ts": "2024-01-02T00:00:00Z"}`,
			`{"url": "http://b.org/z", "status": 404}`,
			`garbage`,
		}, "\n"))
	})

	p, _ := testParams(t, fetcher.Target{URL: srv.URL + "/replay.json"})
	p.FullAnalysis = true
	p.Format = export.FormatYAML
	var stdout bytes.Buffer
	p.Print = true
	p.Stdout = &stdout

	outcome, err := Execute(context.Background(), p, quietLogger())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	res := outcome.Result
	if res.TotalPages != 4 || res.UniqueURLs != 3 || res.SkippedRecords != 1 {
		t.Errorf("total = %d unique = %d skipped = %d", res.TotalPages, res.UniqueURLs, res.SkippedRecords)
	}
	if res.Degraded() || res.Origin != models.OriginPageList {
		t.Errorf("origin = %v degraded = %v", res.Origin, res.Degraded())
	}
	if res.TimeRange.WithTimestamps != 2 {
		t.Errorf("WithTimestamps = %d, want 2", res.TimeRange.WithTimestamps)
	}
	if !strings.Contains(stdout.String(), "CRAWL COLLECTION ANALYSIS REPORT") {
		t.Error("report not printed")
	}

	data, err := os.ReadFile(p.JSONPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "schema_version: 1") {
		t.Errorf("export is not YAML:\n%s", data)
	}
}

func TestExecute_PrintOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"pages": [{"url": "http://a.org/"}]}`)
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	p := Params{
		Target: fetcher.Target{URL: srv.URL},
		Config: models.DefaultAnalyzeConfig(),
		Print:  true,
		Stdout: &stdout,
	}
	outcome, err := Execute(context.Background(), p, quietLogger())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(outcome.Written) != 0 {
		t.Errorf("print-only run wrote %v", outcome.Written)
	}
	if !strings.Contains(stdout.String(), "Total Pages: 1") {
		t.Errorf("stdout = %s", stdout.String())
	}
}

func TestExecute_UnsupportedFormatWritesNothing(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = io.WriteString(w, `{"pages": [{"url": "http://a.org/"}]}`)
	}))
	defer srv.Close()

	p, dir := testParams(t, fetcher.Target{URL: srv.URL})
	p.Format = "xml"

	if _, err := Execute(context.Background(), p, quietLogger()); err == nil {
		t.Fatal("Execute() error = nil for unsupported export format")
	}
	if hits != 0 {
		t.Errorf("manifest fetched %d times before the format was rejected", hits)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("files written for a rejected format: %d", len(entries))
	}
}
