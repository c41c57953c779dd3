package models

import "time"

// UnknownKey groups records whose content type is absent.
const UnknownKey = "unknown"

// NoneKey groups URLs with no file extension.
const NoneKey = "none"

// CountEntry is one group of a distribution.
type CountEntry struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// StatusCount is one HTTP status group.
type StatusCount struct {
	Code  int `json:"code" yaml:"code"`
	Count int `json:"count" yaml:"count"`
}

// TimeRange is the span of parseable timestamps. Earliest and Latest are nil
// when no record carried one.
type TimeRange struct {
	Earliest       *time.Time
	Latest         *time.Time
	WithTimestamps int
}

// Empty reports whether no timestamp was observed.
func (t TimeRange) Empty() bool {
	return t.Earliest == nil || t.Latest == nil
}

// AggregateResult is the derived summary of one run. It is recomputed on
// every invocation and never treated as authoritative state.
type AggregateResult struct {
	Source   string
	Metadata []MetadataField

	Origin            PageOrigin
	PageListRequested bool
	PageListError     string
	Truncated         bool

	TotalPages     int
	UniqueURLs     int
	UniqueDomains  int
	UniqueSites    int
	InvalidURLs    int
	SkippedRecords int

	WithTitle int
	WithText  int
	WithSize  int
	TotalSize int64

	// Domains is the full per-domain grouping; TopDomains is its head.
	Domains      []CountEntry
	TopDomains   []CountEntry
	ContentTypes []CountEntry
	Extensions   []CountEntry
	StatusCodes  []StatusCount
	Languages    []CountEntry

	LanguageDetection bool

	TimeRange TimeRange
}

// Degraded reports whether full analysis was asked for but only inline pages
// could be aggregated.
func (r *AggregateResult) Degraded() bool {
	return r.PageListRequested && r.Origin != OriginPageList
}

// StatusTotal sums the status groups.
func (r *AggregateResult) StatusTotal() int {
	total := 0
	for _, s := range r.StatusCodes {
		total += s.Count
	}
	return total
}
