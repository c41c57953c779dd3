// Package report renders an AggregateResult as a fixed-layout text report.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dtnitsch/replay-analyzer/models"
)

const (
	width       = 80
	noData      = "  No data available"
	placeholder = "N/A"
	timeLayout  = "2006-01-02 15:04:05"
)

// Options carries values that are not part of the aggregate itself.
type Options struct {
	GeneratedAt time.Time
}

// section is one titled block of the report. Every section is always
// rendered; an empty body becomes the no-data line.
type section struct {
	title string
	body  func(r *models.AggregateResult) []string
}

var sections = []section{
	{"CRAWL METADATA", metadataLines},
	{"OVERVIEW", overviewLines},
	{"TOP DOMAINS", topDomainLines},
	{"CONTENT TYPES", contentTypeLines},
	{"FILE EXTENSIONS", extensionLines},
	{"HTTP STATUS CODES", statusLines},
	{"TIME RANGE", timeRangeLines},
	{"TITLE LANGUAGES", languageLines},
}

// Render returns the report text. A nil result renders the same skeleton
// with every section empty.
func Render(r *models.AggregateResult, opts Options) string {
	if r == nil {
		r = &models.AggregateResult{}
	}

	var sb strings.Builder
	rule := strings.Repeat("=", width)
	sb.WriteString(rule + "\n")
	sb.WriteString("CRAWL COLLECTION ANALYSIS REPORT\n")
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "Generated: %s\n", formatGenerated(opts.GeneratedAt))
	fmt.Fprintf(&sb, "Source: %s\n", orPlaceholder(r.Source))
	sb.WriteString("\n")

	for _, s := range sections {
		sb.WriteString(s.title + "\n")
		sb.WriteString(strings.Repeat("-", width) + "\n")
		lines := s.body(r)
		if len(lines) == 0 {
			sb.WriteString(noData + "\n")
		}
		for _, l := range lines {
			sb.WriteString(l + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(rule + "\n")
	return sb.String()
}

// Write renders the report to w.
func Write(w io.Writer, r *models.AggregateResult, opts Options) error {
	_, err := io.WriteString(w, Render(r, opts))
	return err
}

func metadataLines(r *models.AggregateResult) []string {
	lines := make([]string, 0, len(r.Metadata))
	for _, f := range r.Metadata {
		lines = append(lines, fmt.Sprintf("  %s: %s", f.Key, oneLine(f.Value)))
	}
	return lines
}

func overviewLines(r *models.AggregateResult) []string {
	lines := []string{
		"  Total Pages: " + comma(r.TotalPages),
		"  Unique URLs: " + comma(r.UniqueURLs),
		"  Unique Domains: " + comma(r.UniqueDomains),
		"  Unique Sites: " + comma(r.UniqueSites),
		"  Pages With Titles: " + comma(r.WithTitle),
		"  Pages With Extracted Text: " + comma(r.WithText),
		"  Total Size: " + totalSize(r),
		"  Page Source: " + pageSource(r.Origin),
		"  Skipped Malformed Entries: " + comma(r.SkippedRecords),
		"  Entries Without Valid URL: " + comma(r.InvalidURLs),
	}

	if r.Degraded() {
		reason := r.PageListError
		if reason == "" {
			reason = "unknown reason"
		}
		lines = append(lines,
			"  Note: the full page list was unavailable ("+oneLine(reason)+");",
			"        statistics reflect inline manifest pages only.")
	}
	if r.Truncated {
		lines = append(lines, "  Note: the page list was truncated at the page limit.")
	}
	if r.SkippedRecords > 0 {
		lines = append(lines, fmt.Sprintf("  Note: %s malformed entries were skipped.", comma(r.SkippedRecords)))
	}
	return lines
}

func topDomainLines(r *models.AggregateResult) []string {
	lines := make([]string, 0, len(r.TopDomains))
	for _, e := range r.TopDomains {
		lines = append(lines, fmt.Sprintf("  %s: %s pages", orPlaceholder(e.Key), comma(e.Count)))
	}
	return lines
}

func contentTypeLines(r *models.AggregateResult) []string {
	return countLines(r.ContentTypes, func(k string) string { return k })
}

func extensionLines(r *models.AggregateResult) []string {
	return countLines(r.Extensions, func(k string) string {
		if k == models.NoneKey {
			return "(none)"
		}
		return "." + k
	})
}

func statusLines(r *models.AggregateResult) []string {
	lines := make([]string, 0, len(r.StatusCodes))
	for _, s := range r.StatusCodes {
		lines = append(lines, fmt.Sprintf("  %d: %s", s.Code, comma(s.Count)))
	}
	return lines
}

func timeRangeLines(r *models.AggregateResult) []string {
	if r.TimeRange.Empty() {
		return nil
	}
	return []string{
		"  First: " + r.TimeRange.Earliest.UTC().Format(time.RFC3339),
		"  Last: " + r.TimeRange.Latest.UTC().Format(time.RFC3339),
		"  Span: " + r.TimeRange.Latest.Sub(*r.TimeRange.Earliest).String(),
		"  Entries With Timestamps: " + comma(r.TimeRange.WithTimestamps),
	}
}

func languageLines(r *models.AggregateResult) []string {
	if !r.LanguageDetection {
		return []string{"  No data available (language detection disabled)"}
	}
	return countLines(r.Languages, func(k string) string { return k })
}

func countLines(entries []models.CountEntry, label func(string) string) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("  %s: %s", orPlaceholder(label(e.Key)), comma(e.Count)))
	}
	return lines
}

func totalSize(r *models.AggregateResult) string {
	if r.WithSize == 0 {
		return placeholder
	}
	size := r.TotalSize
	if size < 0 {
		size = 0
	}
	return fmt.Sprintf("%s (%s pages with size)", humanize.Bytes(uint64(size)), comma(r.WithSize))
}

func pageSource(o models.PageOrigin) string {
	switch o {
	case models.OriginPageList:
		return "full page list"
	case models.OriginInline:
		return "inline manifest pages"
	default:
		return placeholder
	}
}

func formatGenerated(t time.Time) string {
	if t.IsZero() {
		return placeholder
	}
	return t.Format(timeLayout)
}

func comma(n int) string {
	return humanize.Comma(int64(n))
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return placeholder
	}
	return s
}

