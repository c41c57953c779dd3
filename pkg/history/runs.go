package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/replay-analyzer/models"
	"github.com/dtnitsch/replay-analyzer/pkg/export"
)

// Dimensions stored in run_counts.
const (
	DimensionDomain      = "domain"
	DimensionContentType = "content_type"
	DimensionExtension   = "extension"
	DimensionStatus      = "status"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run is the listing view of a recorded export.
type Run struct {
	Seq                 int64
	RunID               string
	Source              string
	GeneratedAt         string
	RecordedAt          time.Time
	TotalPages          int
	UniqueURLs          int
	SkippedRecords      int
	PageListUnavailable bool
}

// CountPoint is one run's count for a single dimension key.
type CountPoint struct {
	RunID       string
	GeneratedAt string
	Count       int
}

// Record stores an export document and its flattened counts. Documents
// without a run ID get one. Recording the same run ID twice is an error.
func (db *DB) Record(doc *export.Document) (string, error) {
	if doc.RunID == "" {
		doc.RunID = uuid.NewString()
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, source, generated_at, total_pages, unique_urls, skipped_records, page_list_unavailable, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.RunID, doc.Source, doc.GeneratedAt, doc.Overview.TotalPages, doc.Overview.UniqueURLs,
		doc.Overview.SkippedRecords, doc.Overview.PageListUnavailable, string(payload))
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", doc.RunID, err)
	}

	insert := func(dimension string, entries []models.CountEntry) error {
		for _, e := range entries {
			if _, err := tx.Exec(`
				INSERT INTO run_counts (run_id, dimension, key, count)
				VALUES (?, ?, ?, ?)
			`, doc.RunID, dimension, e.Key, e.Count); err != nil {
				return fmt.Errorf("failed to insert %s count: %w", dimension, err)
			}
		}
		return nil
	}

	statuses := make([]models.CountEntry, len(doc.StatusCodes))
	for i, s := range doc.StatusCodes {
		statuses[i] = models.CountEntry{Key: strconv.Itoa(s.Code), Count: s.Count}
	}

	for dimension, entries := range map[string][]models.CountEntry{
		DimensionDomain:      doc.Domains,
		DimensionContentType: doc.ContentTypes,
		DimensionExtension:   doc.Extensions,
		DimensionStatus:      statuses,
	} {
		if err := insert(dimension, entries); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return doc.RunID, nil
}

// ListRuns returns recorded runs, newest first. A limit of 0 lists all.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT seq, run_id, source, COALESCE(generated_at, ''), recorded_at,
		       total_pages, unique_urls, skipped_records, page_list_unavailable
		FROM runs
		ORDER BY seq DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.Seq, &r.RunID, &r.Source, &r.GeneratedAt, &r.RecordedAt,
			&r.TotalPages, &r.UniqueURLs, &r.SkippedRecords, &r.PageListUnavailable); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Load returns the stored export document of a run.
func (db *DB) Load(runID string) (*export.Document, error) {
	var payload string
	err := db.QueryRow("SELECT document FROM runs WHERE run_id = ?", runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return export.Parse([]byte(payload))
}

// CountHistory returns one key's count in every recorded run, oldest first.
// Runs in which the key did not occur report zero.
func (db *DB) CountHistory(dimension, key string) ([]CountPoint, error) {
	rows, err := db.Query(`
		SELECT r.run_id, COALESCE(r.generated_at, ''), COALESCE(c.count, 0)
		FROM runs r
		LEFT JOIN run_counts c
		  ON c.run_id = r.run_id AND c.dimension = ? AND c.key = ?
		ORDER BY r.seq ASC
	`, dimension, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query count history: %w", err)
	}
	defer rows.Close()

	var points []CountPoint
	for rows.Next() {
		var p CountPoint
		if err := rows.Scan(&p.RunID, &p.GeneratedAt, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count history: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// DiffLatest compares the two most recent runs.
func (db *DB) DiffLatest() (*export.Comparison, error) {
	runs, err := db.ListRuns(2)
	if err != nil {
		return nil, err
	}
	if len(runs) < 2 {
		return nil, fmt.Errorf("need at least two recorded runs to diff, found %d", len(runs))
	}
	return db.Diff(runs[1].RunID, runs[0].RunID)
}

// Diff compares two recorded runs.
func (db *DB) Diff(beforeID, afterID string) (*export.Comparison, error) {
	before, err := db.Load(beforeID)
	if err != nil {
		return nil, err
	}
	after, err := db.Load(afterID)
	if err != nil {
		return nil, err
	}
	return export.Compare(before, after), nil
}
