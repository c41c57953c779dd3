package fetcher

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/dtnitsch/replay-analyzer/models"
)

// maxLineBytes bounds a single NDJSON line.
const maxLineBytes = 16 * 1024 * 1024

// listing is one decoded page-list body.
type listing struct {
	Entries []json.RawMessage
	// Paged is set for {"items": [...]} envelopes, which are one page of a
	// paginated listing.
	Paged bool
	// Malformed counts unreadable remainders of broken array bodies.
	Malformed int
}

// decodeListing accepts a JSON array, an {"items": [...]} envelope or
// newline-delimited JSON. It never fails: undecodable content surfaces as
// entries that are later skipped.
func decodeListing(body []byte) listing {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return listing{}
	}

	switch trimmed[0] {
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err == nil {
			return listing{Entries: entries}
		}
		entries, malformed := streamArray(json.NewDecoder(bytes.NewReader(trimmed)))
		return listing{Entries: entries, Malformed: malformed}
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if raw, ok := envelope["items"]; ok {
				var items []json.RawMessage
				if err := json.Unmarshal(raw, &items); err == nil {
					return listing{Entries: items, Paged: true}
				}
			}
			// A single object body is a one-line NDJSON document.
			return listing{Entries: []json.RawMessage{json.RawMessage(trimmed)}}
		}
		if l, ok := streamEnvelope(trimmed); ok {
			return l
		}
	}

	return listing{Entries: splitLines(trimmed)}
}

// streamArray reads array elements from dec, which must sit before the
// opening bracket. Elements read before a syntax error are kept and the
// unreadable remainder counts as one malformed entry.
func streamArray(dec *json.Decoder) ([]json.RawMessage, int) {
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('[') {
		return nil, 1
	}

	var entries []json.RawMessage
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return entries, 1
		}
		entries = append(entries, raw)
	}
	if _, err := dec.Token(); err != nil {
		return entries, 1
	}
	return entries, 0
}

// streamEnvelope recovers the items of a broken {"items": [...]} body. It
// reports false when the body is not recognisably an envelope, e.g. when it
// is NDJSON whose first line is an ordinary record.
func streamEnvelope(body []byte) (listing, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return listing{}, false
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return listing{}, false
		}
		if key, _ := tok.(string); key == "items" {
			entries, malformed := streamArray(dec)
			return listing{Entries: entries, Paged: true, Malformed: malformed}, true
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return listing{}, false
		}
	}
	return listing{}, false
}

func splitLines(body []byte) []json.RawMessage {
	var entries []json.RawMessage
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		entries = append(entries, json.RawMessage(bytes.Clone(line)))
	}
	if err := scanner.Err(); err != nil {
		// Whatever remains past the failure point counts as one bad entry.
		entries = append(entries, json.RawMessage(nil))
	}
	return entries
}

// DecodeEntries turns raw page entries into records. Entries that are not
// objects are skipped and counted; a pages.jsonl header line is ignored.
func DecodeEntries(entries []json.RawMessage, logger *slog.Logger) ([]models.PageRecord, int) {
	if logger == nil {
		logger = slog.Default()
	}

	records := make([]models.PageRecord, 0, len(entries))
	skipped := 0
	for i, raw := range entries {
		if isPagesHeader(raw) {
			continue
		}
		rec, err := models.ParsePageRecord(raw)
		if err != nil {
			skipped++
			logger.Debug("Skipping page entry", "index", i, "error", &Error{Kind: RecordMalformed, Cause: err})
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

// isPagesHeader detects the {"format": "json-pages-1.0", ...} first line of
// WACZ pages.jsonl files, which describes the file rather than a page.
func isPagesHeader(raw json.RawMessage) bool {
	var probe struct {
		Format *string          `json:"format"`
		URL    *json.RawMessage `json:"url"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Format != nil && probe.URL == nil
}
