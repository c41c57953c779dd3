package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/replay-analyzer/models"
)

var sectionTitles = []string{
	"CRAWL METADATA",
	"OVERVIEW",
	"TOP DOMAINS",
	"CONTENT TYPES",
	"FILE EXTENSIONS",
	"HTTP STATUS CODES",
	"TIME RANGE",
	"TITLE LANGUAGES",
}

func assertSkeleton(t *testing.T, text string) {
	t.Helper()
	last := -1
	for _, title := range sectionTitles {
		idx := strings.Index(text, "\n"+title+"\n")
		if idx < 0 {
			t.Fatalf("section %q missing from report:\n%s", title, text)
		}
		if idx < last {
			t.Errorf("section %q out of order", title)
		}
		last = idx
	}
}

func sampleResult() *models.AggregateResult {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(36 * time.Hour)
	return &models.AggregateResult{
		Source:        "https://example.org/replay.json",
		Metadata:      []models.MetadataField{{Key: "collection.name", Value: "Wang Fuk\nArchive"}},
		Origin:        models.OriginPageList,
		TotalPages:    1234,
		UniqueURLs:    1200,
		UniqueDomains: 2,
		TopDomains:    []models.CountEntry{{Key: "a.org", Count: 1000}, {Key: "b.org", Count: 234}},
		ContentTypes:  []models.CountEntry{{Key: "text/html", Count: 1234}},
		Extensions:    []models.CountEntry{{Key: "html", Count: 4}, {Key: models.NoneKey, Count: 1230}},
		StatusCodes:   []models.StatusCount{{Code: 200, Count: 1200}, {Code: 404, Count: 34}},
		WithSize:      2,
		TotalSize:     2048,
		TimeRange:     models.TimeRange{Earliest: &early, Latest: &late, WithTimestamps: 1234},
	}
}

func TestRender_FullResult(t *testing.T) {
	text := Render(sampleResult(), Options{GeneratedAt: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)})
	assertSkeleton(t, text)

	for _, want := range []string{
		"Generated: 2024-02-03 04:05:06",
		"Source: https://example.org/replay.json",
		"  collection.name: Wang Fuk Archive",
		"  Total Pages: 1,234",
		"  a.org: 1,000 pages",
		"  text/html: 1,234",
		"  .html: 4",
		"  (none): 1,230",
		"  404: 34",
		"  First: 2024-01-01T00:00:00Z",
		"  Span: 36h0m0s",
		"  Page Source: full page list",
		"  Total Size: 2.0 kB (2 pages with size)",
		"  No data available (language detection disabled)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(text, "Note: the full page list was unavailable") {
		t.Error("non-degraded report carries the degraded note")
	}
}

func TestRender_EmptyResultKeepsSkeleton(t *testing.T) {
	for name, r := range map[string]*models.AggregateResult{
		"nil":   nil,
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			text := Render(r, Options{})
			assertSkeleton(t, text)

			// Metadata, domains, content types, extensions, status and time range.
			if got := strings.Count(text, noData+"\n"); got != 6 {
				t.Errorf("no-data lines = %d, want 6\n%s", got, text)
			}
			if !strings.Contains(text, "Generated: N/A") || !strings.Contains(text, "Source: N/A") {
				t.Error("missing placeholders in header")
			}
		})
	}
}

func TestRender_DegradedNote(t *testing.T) {
	r := &models.AggregateResult{
		Origin:            models.OriginInline,
		PageListRequested: true,
		PageListError:     "page list unavailable: origin rejected page list request (status 500)",
		TotalPages:        2,
		SkippedRecords:    1,
		Truncated:         false,
	}
	text := Render(r, Options{})

	if !strings.Contains(text, "Note: the full page list was unavailable (page list unavailable: origin rejected page list request (status 500));") {
		t.Errorf("degraded note missing:\n%s", text)
	}
	if !strings.Contains(text, "statistics reflect inline manifest pages only.") {
		t.Error("degraded note missing fidelity line")
	}
	if !strings.Contains(text, "Note: 1 malformed entries were skipped.") {
		t.Error("skipped note missing")
	}
	if !strings.Contains(text, "Page Source: inline manifest pages") {
		t.Error("page source not reported")
	}
}

func TestRender_LanguagesEnabled(t *testing.T) {
	r := &models.AggregateResult{LanguageDetection: true}
	if !strings.Contains(Render(r, Options{}), "TITLE LANGUAGES\n"+strings.Repeat("-", width)+"\n"+noData+"\n") {
		t.Error("enabled detection without titles should render the no-data line")
	}

	r.Languages = []models.CountEntry{{Key: "en", Count: 3}}
	if !strings.Contains(Render(r, Options{}), "  en: 3") {
		t.Error("language distribution missing")
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), Options{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if buf.String() != Render(sampleResult(), Options{}) {
		t.Error("Write() output differs from Render()")
	}
}
