package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtnitsch/replay-analyzer/models"
	"github.com/dtnitsch/replay-analyzer/pkg/export"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every pooled connection would get its own in-memory database.
	database.SetMaxOpenConns(1)

	if err := database.InitSchema(); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	t.Cleanup(func() { _ = database.Close() })
	return database
}

func testDocument(runID string, total int, domains ...models.CountEntry) *export.Document {
	return export.Build(&models.AggregateResult{
		Source:       "https://example.org/replay.json",
		TotalPages:   total,
		UniqueURLs:   total,
		Domains:      domains,
		TopDomains:   domains,
		ContentTypes: []models.CountEntry{{Key: "text/html", Count: total}},
		StatusCodes:  []models.StatusCount{{Code: 200, Count: total}},
	}, runID, time.Date(2024, 1, total, 0, 0, 0, 0, time.UTC))
}

func TestRecordAndList(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.Record(testDocument("run-1", 2, models.CountEntry{Key: "a.org", Count: 2})); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := db.Record(testDocument("run-2", 3, models.CountEntry{Key: "a.org", Count: 3})); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].RunID != "run-2" || runs[1].RunID != "run-1" {
		t.Errorf("runs not newest first: %s, %s", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].TotalPages != 3 || runs[0].Source != "https://example.org/replay.json" {
		t.Errorf("runs[0] = %+v", runs[0])
	}

	limited, err := db.ListRuns(1)
	if err != nil {
		t.Fatalf("ListRuns(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListRuns(1) returned %d runs", len(limited))
	}
}

func TestRecord_AssignsRunIDAndRejectsDuplicates(t *testing.T) {
	db := setupTestDB(t)

	doc := testDocument("", 1)
	id, err := db.Record(doc)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if id == "" || doc.RunID != id {
		t.Errorf("run id = %q, doc.RunID = %q", id, doc.RunID)
	}

	if _, err := db.Record(testDocument(id, 1)); err == nil {
		t.Error("recording the same run id twice should fail")
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("failed insert left %d runs", len(runs))
	}
}

func TestLoad(t *testing.T) {
	db := setupTestDB(t)
	original := testDocument("run-1", 4, models.CountEntry{Key: "a.org", Count: 4})
	if _, err := db.Record(original); err != nil {
		t.Fatal(err)
	}

	loaded, err := db.Load("run-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Overview.TotalPages != 4 || len(loaded.Domains) != 1 {
		t.Errorf("loaded = %+v", loaded)
	}

	if _, err := db.Load("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrRunNotFound", err)
	}
}

func TestCountHistory(t *testing.T) {
	db := setupTestDB(t)
	for _, doc := range []*export.Document{
		testDocument("run-1", 2, models.CountEntry{Key: "a.org", Count: 2}),
		testDocument("run-2", 1, models.CountEntry{Key: "b.org", Count: 1}),
		testDocument("run-3", 5, models.CountEntry{Key: "a.org", Count: 5}),
	} {
		if _, err := db.Record(doc); err != nil {
			t.Fatal(err)
		}
	}

	points, err := db.CountHistory(DimensionDomain, "a.org")
	if err != nil {
		t.Fatalf("CountHistory() error = %v", err)
	}
	want := []int{2, 0, 5}
	if len(points) != len(want) {
		t.Fatalf("len(points) = %d, want %d", len(points), len(want))
	}
	for i, p := range points {
		if p.Count != want[i] {
			t.Errorf("points[%d].Count = %d, want %d", i, p.Count, want[i])
		}
	}

	status, err := db.CountHistory(DimensionStatus, "200")
	if err != nil {
		t.Fatal(err)
	}
	if status[2].Count != 5 {
		t.Errorf("status 200 in run-3 = %d, want 5", status[2].Count)
	}
}

func TestDiffLatest(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.DiffLatest(); err == nil {
		t.Error("DiffLatest() with no runs should fail")
	}

	if _, err := db.Record(testDocument("run-1", 2, models.CountEntry{Key: "a.org", Count: 2})); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Record(testDocument("run-2", 3, models.CountEntry{Key: "a.org", Count: 3})); err != nil {
		t.Fatal(err)
	}

	cmp, err := db.DiffLatest()
	if err != nil {
		t.Fatalf("DiffLatest() error = %v", err)
	}
	if cmp.Before != "run-1" || cmp.After != "run-2" {
		t.Errorf("compared %s -> %s", cmp.Before, cmp.After)
	}
	if len(cmp.Domains) != 1 || cmp.Domains[0].Delta != 1 {
		t.Errorf("Domains = %+v", cmp.Domains)
	}

	if _, err := db.Diff("run-1", "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Diff() error = %v, want ErrRunNotFound", err)
	}
}

func TestOpen_CreatesFileAndReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := db.Record(testDocument("run-1", 1)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}
