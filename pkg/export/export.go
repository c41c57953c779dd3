// Package export serializes an AggregateResult into the machine-readable
// summary consumed by downstream tooling.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/replay-analyzer/models"
)

// SchemaVersion is bumped whenever a key is renamed or removed.
const SchemaVersion = 1

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Document is the exported summary. Key names are canonical: downstream
// comparisons of successive crawls depend on them.
type Document struct {
	SchemaVersion int    `json:"schema_version" yaml:"schema_version"`
	RunID         string `json:"run_id" yaml:"run_id"`
	GeneratedAt   string `json:"generated_at" yaml:"generated_at"`
	Source        string `json:"source" yaml:"source"`

	CrawlMetadata []models.MetadataField `json:"crawl_metadata" yaml:"crawl_metadata"`
	Overview      Overview               `json:"overview" yaml:"overview"`

	TopDomains   []models.CountEntry  `json:"top_domains" yaml:"top_domains"`
	Domains      []models.CountEntry  `json:"domains" yaml:"domains"`
	ContentTypes []models.CountEntry  `json:"content_types" yaml:"content_types"`
	Extensions   []models.CountEntry  `json:"file_extensions" yaml:"file_extensions"`
	StatusCodes  []models.StatusCount `json:"http_status_codes" yaml:"http_status_codes"`
	Languages    []models.CountEntry  `json:"title_languages" yaml:"title_languages"`

	TimeRange TimeRange `json:"time_range" yaml:"time_range"`
}

// Overview holds the run totals and ingestion facts.
type Overview struct {
	TotalPages     int   `json:"total_pages" yaml:"total_pages"`
	UniqueURLs     int   `json:"unique_urls" yaml:"unique_urls"`
	UniqueDomains  int   `json:"unique_domains" yaml:"unique_domains"`
	UniqueSites    int   `json:"unique_sites" yaml:"unique_sites"`
	WithTitle      int   `json:"pages_with_title" yaml:"pages_with_title"`
	WithText       int   `json:"pages_with_text" yaml:"pages_with_text"`
	WithSize       int   `json:"pages_with_size" yaml:"pages_with_size"`
	TotalSizeBytes int64 `json:"total_size_bytes" yaml:"total_size_bytes"`
	SkippedRecords int   `json:"skipped_records" yaml:"skipped_records"`
	InvalidURLs    int   `json:"invalid_urls" yaml:"invalid_urls"`

	PageSource          string `json:"page_source" yaml:"page_source"`
	PageListRequested   bool   `json:"page_list_requested" yaml:"page_list_requested"`
	PageListUnavailable bool   `json:"page_list_unavailable" yaml:"page_list_unavailable"`
	PageListError       string `json:"page_list_error,omitempty" yaml:"page_list_error,omitempty"`
	Truncated           bool   `json:"page_list_truncated" yaml:"page_list_truncated"`
	LanguageDetection   bool   `json:"language_detection" yaml:"language_detection"`
}

// TimeRange is the exported timestamp span. First and Last are RFC 3339 and
// null when NoData is set.
type TimeRange struct {
	First                 *string `json:"first" yaml:"first"`
	Last                  *string `json:"last" yaml:"last"`
	EntriesWithTimestamps int     `json:"entries_with_timestamps" yaml:"entries_with_timestamps"`
	NoData                bool    `json:"no_data" yaml:"no_data"`
}

// Build converts an aggregate into a Document. runID and generatedAt are the
// ephemeral fields; everything else is derived from r alone.
func Build(r *models.AggregateResult, runID string, generatedAt time.Time) *Document {
	if r == nil {
		r = &models.AggregateResult{}
	}

	doc := &Document{
		SchemaVersion: SchemaVersion,
		RunID:         runID,
		Source:        r.Source,
		CrawlMetadata: nonNil(r.Metadata),
		Overview: Overview{
			TotalPages:          r.TotalPages,
			UniqueURLs:          r.UniqueURLs,
			UniqueDomains:       r.UniqueDomains,
			UniqueSites:         r.UniqueSites,
			WithTitle:           r.WithTitle,
			WithText:            r.WithText,
			WithSize:            r.WithSize,
			TotalSizeBytes:      r.TotalSize,
			SkippedRecords:      r.SkippedRecords,
			InvalidURLs:         r.InvalidURLs,
			PageSource:          string(r.Origin),
			PageListRequested:   r.PageListRequested,
			PageListUnavailable: r.Degraded(),
			PageListError:       r.PageListError,
			Truncated:           r.Truncated,
			LanguageDetection:   r.LanguageDetection,
		},
		TopDomains:   nonNil(r.TopDomains),
		Domains:      nonNil(r.Domains),
		ContentTypes: nonNil(r.ContentTypes),
		Extensions:   nonNil(r.Extensions),
		StatusCodes:  nonNil(r.StatusCodes),
		Languages:    nonNil(r.Languages),
		TimeRange: TimeRange{
			EntriesWithTimestamps: r.TimeRange.WithTimestamps,
			NoData:                r.TimeRange.Empty(),
		},
	}

	if !generatedAt.IsZero() {
		doc.GeneratedAt = generatedAt.UTC().Format(time.RFC3339)
	}
	if !r.TimeRange.Empty() {
		first := r.TimeRange.Earliest.UTC().Format(time.RFC3339)
		last := r.TimeRange.Latest.UTC().Format(time.RFC3339)
		doc.TimeRange.First = &first
		doc.TimeRange.Last = &last
	}

	return doc
}

// CheckFormat rejects export formats Marshal cannot produce.
func CheckFormat(format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported export format %q (use json or yaml)", format)
	}
}

// Marshal encodes the document as indented JSON or YAML.
func Marshal(doc *Document, format string) ([]byte, error) {
	if err := CheckFormat(format); err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("error marshalling export: %w", err)
		}
		return append(data, '\n'), nil
	default:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("error marshalling export: %w", err)
		}
		return data, nil
	}
}

// Parse decodes an exported document in either format.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty export document")
	}

	doc := &Document{}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, doc); err != nil {
			return nil, fmt.Errorf("failed to decode export JSON: %w", err)
		}
	} else if err := yaml.Unmarshal(trimmed, doc); err != nil {
		return nil, fmt.Errorf("failed to decode export YAML: %w", err)
	}

	if doc.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported export schema version %d", doc.SchemaVersion)
	}
	return doc, nil
}

// GroupedCounts is the non-ephemeral part of a document: what must survive a
// round trip unchanged.
type GroupedCounts struct {
	Overview     Overview
	TopDomains   []models.CountEntry
	Domains      []models.CountEntry
	ContentTypes []models.CountEntry
	Extensions   []models.CountEntry
	StatusCodes  []models.StatusCount
	Languages    []models.CountEntry
	TimeRange    TimeRange
}

// Counts returns the grouped counts of the document.
func (d *Document) Counts() GroupedCounts {
	return GroupedCounts{
		Overview:     d.Overview,
		TopDomains:   nonNil(d.TopDomains),
		Domains:      nonNil(d.Domains),
		ContentTypes: nonNil(d.ContentTypes),
		Extensions:   nonNil(d.Extensions),
		StatusCodes:  nonNil(d.StatusCodes),
		Languages:    nonNil(d.Languages),
		TimeRange:    d.TimeRange,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
