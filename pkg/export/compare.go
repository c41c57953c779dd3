package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dtnitsch/replay-analyzer/models"
)

// Delta is the change of one group between two exports.
type Delta struct {
	Key    string `json:"key" yaml:"key"`
	Before int    `json:"before" yaml:"before"`
	After  int    `json:"after" yaml:"after"`
	Delta  int    `json:"delta" yaml:"delta"`
}

// Comparison is the regression view of two successive exports.
type Comparison struct {
	Before string `json:"before" yaml:"before"`
	After  string `json:"after" yaml:"after"`

	Totals       []Delta `json:"totals" yaml:"totals"`
	Domains      []Delta `json:"domains" yaml:"domains"`
	ContentTypes []Delta `json:"content_types" yaml:"content_types"`
	Extensions   []Delta `json:"file_extensions" yaml:"file_extensions"`
	StatusCodes  []Delta `json:"http_status_codes" yaml:"http_status_codes"`
}

// Changed reports whether any group differs.
func (c *Comparison) Changed() bool {
	for _, group := range [][]Delta{c.Totals, c.Domains, c.ContentTypes, c.Extensions, c.StatusCodes} {
		for _, d := range group {
			if d.Delta != 0 {
				return true
			}
		}
	}
	return false
}

// Compare diffs two documents. Only groups whose count changed are listed,
// largest absolute change first, then by key.
func Compare(before, after *Document) *Comparison {
	c := &Comparison{
		Before: label(before),
		After:  label(after),
	}

	c.Totals = changed([]Delta{
		delta("total_pages", before.Overview.TotalPages, after.Overview.TotalPages),
		delta("unique_urls", before.Overview.UniqueURLs, after.Overview.UniqueURLs),
		delta("unique_domains", before.Overview.UniqueDomains, after.Overview.UniqueDomains),
		delta("skipped_records", before.Overview.SkippedRecords, after.Overview.SkippedRecords),
		delta("invalid_urls", before.Overview.InvalidURLs, after.Overview.InvalidURLs),
	})
	c.Domains = diffEntries(before.Domains, after.Domains)
	c.ContentTypes = diffEntries(before.ContentTypes, after.ContentTypes)
	c.Extensions = diffEntries(before.Extensions, after.Extensions)
	c.StatusCodes = diffEntries(statusEntries(before.StatusCodes), statusEntries(after.StatusCodes))

	return c
}

// WriteText prints the comparison in the report's plain style.
func (c *Comparison) WriteText(w io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("Comparing %s -> %s\n", c.Before, c.After)
	if !c.Changed() {
		printf("No differences in grouped counts.\n")
		return err
	}

	groups := []struct {
		title  string
		deltas []Delta
	}{
		{"TOTALS", c.Totals},
		{"DOMAINS", c.Domains},
		{"CONTENT TYPES", c.ContentTypes},
		{"FILE EXTENSIONS", c.Extensions},
		{"HTTP STATUS CODES", c.StatusCodes},
	}
	for _, g := range groups {
		if len(g.deltas) == 0 {
			continue
		}
		printf("\n%s\n", g.title)
		for _, d := range g.deltas {
			printf("  %s: %d -> %d (%+d)\n", d.Key, d.Before, d.After, d.Delta)
		}
	}
	return err
}

func label(d *Document) string {
	if d.RunID != "" {
		return d.RunID
	}
	if d.GeneratedAt != "" {
		return d.GeneratedAt
	}
	return d.Source
}

func delta(key string, before, after int) Delta {
	return Delta{Key: key, Before: before, After: after, Delta: after - before}
}

func changed(deltas []Delta) []Delta {
	out := make([]Delta, 0, len(deltas))
	for _, d := range deltas {
		if d.Delta != 0 {
			out = append(out, d)
		}
	}
	return out
}

func diffEntries(before, after []models.CountEntry) []Delta {
	counts := make(map[string][2]int)
	for _, e := range before {
		v := counts[e.Key]
		v[0] += e.Count
		counts[e.Key] = v
	}
	for _, e := range after {
		v := counts[e.Key]
		v[1] += e.Count
		counts[e.Key] = v
	}

	var out []Delta
	for k, v := range counts {
		if v[0] != v[1] {
			out = append(out, delta(k, v[0], v[1]))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := abs(out[i].Delta), abs(out[j].Delta)
		if ai != aj {
			return ai > aj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func statusEntries(codes []models.StatusCount) []models.CountEntry {
	out := make([]models.CountEntry, len(codes))
	for i, s := range codes {
		out[i] = models.CountEntry{Key: strconv.Itoa(s.Code), Count: s.Count}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
