package models

import "encoding/json"

// SourceKind tags where a manifest's pages live.
type SourceKind int

const (
	// SourceInline means the pages are embedded in the manifest.
	SourceInline SourceKind = iota
	// SourceDeferred means the manifest references a separate page listing.
	SourceDeferred
)

func (k SourceKind) String() string {
	if k == SourceDeferred {
		return "deferred"
	}
	return "inline"
}

// PageSource is the unresolved page variant: Inline(records) or Deferred(url).
// Deferred sources keep the inline entries as the fallback.
type PageSource struct {
	Kind   SourceKind
	URL    string
	Inline []json.RawMessage
}

// PageOrigin names where the resolved records actually came from.
type PageOrigin string

const (
	OriginInline   PageOrigin = "inline"
	OriginPageList PageOrigin = "page_list"
)

// PageSet is the uniform record sequence handed to the aggregator, together
// with the ingestion facts the report needs to explain data fidelity.
type PageSet struct {
	Records []PageRecord
	Origin  PageOrigin

	// Skipped counts entries dropped because they could not be decoded.
	Skipped int

	// PageListRequested is set when full analysis was asked for.
	PageListRequested bool
	// PageListError explains why the page list could not be used. Empty when
	// the list was fetched or never requested.
	PageListError string
	// Truncated is set when pagination stopped at the page cap.
	Truncated bool
}

// Degraded reports whether full analysis was requested but only inline data
// could be used.
func (s PageSet) Degraded() bool {
	return s.PageListRequested && s.Origin != OriginPageList
}
