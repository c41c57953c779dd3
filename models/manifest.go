package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrNotObject is returned when a manifest or record is valid JSON but not an object.
var ErrNotObject = errors.New("expected a JSON object")

// Collection identifies the archived collection a manifest describes.
type Collection struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Created     string `json:"created,omitempty" yaml:"created,omitempty"`
}

// CrawlMetadata describes the crawl run that produced the collection.
type CrawlMetadata struct {
	Tool       string `json:"tool,omitempty" yaml:"tool,omitempty"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	CrawlStart string `json:"crawl_start,omitempty" yaml:"crawl_start,omitempty"`
	CrawlEnd   string `json:"crawl_end,omitempty" yaml:"crawl_end,omitempty"`
	SeedURL    string `json:"seed_url,omitempty" yaml:"seed_url,omitempty"`
}

// Manifest is a parsed replay.json document. It is read-only input: nothing
// in this module mutates or persists it.
type Manifest struct {
	Collection Collection
	Metadata   CrawlMetadata

	// PageListURL is the reference to the full page listing, when the
	// producer exposes one (pagesQueryUrl).
	PageListURL string

	// InlinePages holds the undecoded inline page entries so that malformed
	// entries can be skipped and tallied individually.
	InlinePages []json.RawMessage

	// Extra holds every other top-level scalar field, stringified.
	Extra map[string]string
}

// MetadataField is one key/value pair of crawl metadata, in display order.
type MetadataField struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

var (
	collectionKeys  = []string{"id", "oid", "name", "title", "slug", "description", "caption", "created", "createdAt", "created_at"}
	inlinePageKeys  = []string{"pages", "resources"}
	pageListURLKeys = []string{"pagesQueryUrl", "pagesUrl", "pages_url"}
)

// knownKeys are consumed explicitly and never copied into Extra.
var knownKeys = map[string]bool{
	"collection":    true,
	"metadata":      true,
	"pages":         true,
	"resources":     true,
	"pagesQueryUrl": true,
	"pagesUrl":      true,
	"pages_url":     true,
}

// ParseManifest decodes a replay.json body. A top-level array is accepted and
// treated as a manifest with inline pages only.
func ParseManifest(data []byte) (*Manifest, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty manifest body")
	}

	if trimmed[0] == '[' {
		var pages []json.RawMessage
		if err := json.Unmarshal(trimmed, &pages); err != nil {
			return nil, fmt.Errorf("failed to decode manifest array: %w", err)
		}
		return &Manifest{InlinePages: pages, Extra: map[string]string{}}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if fields == nil {
		return nil, ErrNotObject
	}

	m := &Manifest{Extra: map[string]string{}}

	if raw, ok := fields["collection"]; ok {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			m.Collection = collectionFrom(obj)
		}
	}
	// Browsertrix puts the collection fields at the top level.
	consumed := map[string]bool{}
	if m.Collection == (Collection{}) {
		m.Collection = collectionFrom(fields)
		for _, k := range collectionKeys {
			consumed[k] = true
		}
	}

	if raw, ok := fields["metadata"]; ok {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			m.Metadata = CrawlMetadata{
				Tool:       scalarField(obj, "tool", "crawler"),
				Version:    scalarField(obj, "version", "crawlerVersion"),
				CrawlStart: scalarField(obj, "crawlStart", "crawl_start", "started"),
				CrawlEnd:   scalarField(obj, "crawlEnd", "crawl_end", "finished"),
				SeedURL:    scalarField(obj, "seedUrl", "seed_url", "seed"),
			}
		}
	}

	m.PageListURL = scalarField(fields, pageListURLKeys...)

	for _, key := range inlinePageKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var pages []json.RawMessage
		if err := json.Unmarshal(raw, &pages); err != nil {
			continue
		}
		if len(pages) > 0 {
			m.InlinePages = pages
			break
		}
	}

	for key, raw := range fields {
		if knownKeys[key] || consumed[key] {
			continue
		}
		if v, ok := scalarString(raw); ok {
			m.Extra[key] = v
		}
	}

	return m, nil
}

// Source returns the tagged page source of the manifest: Deferred when a
// page-list reference exists, Inline otherwise.
func (m *Manifest) Source() PageSource {
	if m.PageListURL != "" {
		return PageSource{Kind: SourceDeferred, URL: m.PageListURL, Inline: m.InlinePages}
	}
	return PageSource{Kind: SourceInline, Inline: m.InlinePages}
}

// MetadataFields flattens the collection, crawl metadata and extra scalar
// fields into a deterministic list for display and export.
func (m *Manifest) MetadataFields() []MetadataField {
	if m == nil {
		return nil
	}

	var out []MetadataField
	add := func(key, value string) {
		if value != "" {
			out = append(out, MetadataField{Key: key, Value: value})
		}
	}

	add("collection.id", m.Collection.ID)
	add("collection.name", m.Collection.Name)
	add("collection.description", m.Collection.Description)
	add("collection.created", m.Collection.Created)
	add("crawl.tool", m.Metadata.Tool)
	add("crawl.version", m.Metadata.Version)
	add("crawl.start", m.Metadata.CrawlStart)
	add("crawl.end", m.Metadata.CrawlEnd)
	add("crawl.seed_url", m.Metadata.SeedURL)

	keys := make([]string, 0, len(m.Extra))
	for k := range m.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, m.Extra[k])
	}

	return out
}

func collectionFrom(obj map[string]json.RawMessage) Collection {
	return Collection{
		ID:          scalarField(obj, "id", "oid"),
		Name:        scalarField(obj, "name", "title", "slug"),
		Description: scalarField(obj, "description", "caption"),
		Created:     scalarField(obj, "created", "createdAt", "created_at"),
	}
}

// scalarField returns the first present scalar value among keys, stringified.
func scalarField(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		if v, ok := scalarString(raw); ok && v != "" {
			return v
		}
	}
	return ""
}

// scalarString stringifies a JSON string, number or bool. Objects, arrays and
// null report false.
func scalarString(raw json.RawMessage) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
