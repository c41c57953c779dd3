package aggregate

import (
	"sort"

	"github.com/dtnitsch/replay-analyzer/models"
)

// Counter tallies keys and remembers the order in which each key was first
// seen, so that ranking never depends on map iteration order.
type Counter struct {
	counts map[string]int
	order  []string
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add increments key by one.
func (c *Counter) Add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// Len returns the number of distinct keys.
func (c *Counter) Len() int {
	return len(c.order)
}

// Entries returns every key sorted by count descending, ties broken by first
// appearance.
func (c *Counter) Entries() []models.CountEntry {
	entries := make([]models.CountEntry, len(c.order))
	for i, k := range c.order {
		entries[i] = models.CountEntry{Key: k, Count: c.counts[k]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// TopN limits an already ranked slice to n entries.
func TopN(entries []models.CountEntry, n int) []models.CountEntry {
	limit := n
	if len(entries) < n {
		limit = len(entries)
	}
	if limit < 0 {
		limit = 0
	}
	out := make([]models.CountEntry, limit)
	copy(out, entries[:limit])
	return out
}

// statusCounter groups integer status codes, reported in ascending code order.
type statusCounter map[int]int

func (s statusCounter) entries() []models.StatusCount {
	out := make([]models.StatusCount, 0, len(s))
	for code, n := range s {
		out = append(out, models.StatusCount{Code: code, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Code < out[j].Code
	})
	return out
}
