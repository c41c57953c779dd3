package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dtnitsch/replay-analyzer/models"
)

func TestObserve(t *testing.T) {
	r := NewRecorder()
	res := &models.AggregateResult{
		TotalPages:        3,
		UniqueURLs:        3,
		SkippedRecords:    1,
		PageListRequested: true,
		Origin:            models.OriginInline,
		StatusCodes:       []models.StatusCount{{Code: 200, Count: 2}, {Code: 404, Count: 1}},
		ContentTypes:      []models.CountEntry{{Key: "text/html", Count: 3}},
	}
	finished := time.Unix(1700000000, 0)

	r.Observe(res, 1500*time.Millisecond, finished)

	if got := testutil.ToFloat64(r.totalPages); got != 3 {
		t.Errorf("pages_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.degraded); got != 1 {
		t.Errorf("page_list_degraded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.statusCodes.WithLabelValues("404")); got != 1 {
		t.Errorf("status_pages{code=404} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.duration); got != 1.5 {
		t.Errorf("run_duration_seconds = %v, want 1.5", got)
	}
	if got := testutil.ToFloat64(r.lastRun); got != 1700000000 {
		t.Errorf("last_run_timestamp_seconds = %v", got)
	}
	if n := testutil.CollectAndCount(r.statusCodes); n != 2 {
		t.Errorf("status series = %d, want 2", n)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(&models.AggregateResult{TotalPages: 7}, time.Second, time.Now())

	path := filepath.Join(t.TempDir(), "replay.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "replay_analyzer_pages_total 7") {
		t.Errorf("textfile missing pages gauge:\n%s", data)
	}
}
