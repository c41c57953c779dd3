package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PageRecord is one archived resource from a manifest or page list.
// Everything except URL is optional; a record with no usable URL is still
// counted in totals.
type PageRecord struct {
	URL   string
	Title string

	// Timestamp is normalized to UTC at ingestion. Zero when the record
	// carried no timestamp or it could not be parsed.
	Timestamp    time.Time
	RawTimestamp string

	Status  *int
	Mime    string
	Size    *int64
	HasText bool
}

// HasTimestamp reports whether a parseable timestamp was found.
func (r PageRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// ParsePageRecord decodes a single page entry. Only entries that are not JSON
// objects are rejected; missing or odd-typed fields degrade to absent values.
func ParsePageRecord(raw []byte) (PageRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return PageRecord{}, fmt.Errorf("failed to decode page record: %w", err)
	}
	if fields == nil {
		return PageRecord{}, ErrNotObject
	}

	rec := PageRecord{
		URL:   strings.TrimSpace(scalarField(fields, "url", "uri")),
		Title: scalarField(fields, "title"),
		Mime:  scalarField(fields, "mime", "content-type", "mimetype", "mimeType"),
	}

	if ts := scalarField(fields, "ts", "timestamp"); ts != "" {
		rec.RawTimestamp = ts
		if t, ok := ParseTimestamp(ts); ok {
			rec.Timestamp = t
		}
	}

	if raw, ok := fields["status"]; ok {
		if n, ok := integerValue(raw); ok {
			status := int(n)
			rec.Status = &status
		}
	}

	if raw, ok := fields["size"]; ok {
		if n, ok := integerValue(raw); ok && n >= 0 {
			rec.Size = &n
		}
	}

	if raw, ok := fields["text"]; ok {
		if v, ok := scalarString(raw); ok && strings.TrimSpace(v) != "" {
			rec.HasText = true
		}
	}

	return rec, nil
}

// integerValue accepts a JSON number or a numeric string holding a whole number.
func integerValue(raw json.RawMessage) (int64, bool) {
	v, ok := scalarString(raw)
	if !ok {
		return 0, false
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
