// Package aggregate computes the descriptive statistics of a collection's
// page records. It performs no I/O.
package aggregate

import (
	"net"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/dtnitsch/replay-analyzer/models"
)

// DefaultTopDomains is the length of the top-domain list.
const DefaultTopDomains = 10

// Input is everything one aggregation run consumes.
type Input struct {
	Source   string
	Manifest *models.Manifest
	Pages    models.PageSet
}

// Options tunes aggregation.
type Options struct {
	TopDomains int
	// Detector enables the title-language distribution when non-nil.
	Detector LanguageDetector
}

// Aggregate derives the AggregateResult for one run. The same input always
// yields the same result: every ordering uses count then first appearance,
// or the numeric status code.
func Aggregate(in Input, opts Options) *models.AggregateResult {
	if opts.TopDomains <= 0 {
		opts.TopDomains = DefaultTopDomains
	}

	res := &models.AggregateResult{
		Source:            in.Source,
		Metadata:          in.Manifest.MetadataFields(),
		Origin:            in.Pages.Origin,
		PageListRequested: in.Pages.PageListRequested,
		PageListError:     in.Pages.PageListError,
		Truncated:         in.Pages.Truncated,
		SkippedRecords:    in.Pages.Skipped,
		TotalPages:        len(in.Pages.Records) + in.Pages.Skipped,
		LanguageDetection: opts.Detector != nil,
	}

	uniqueURLs := make(map[string]struct{})
	sites := make(map[string]struct{})
	domains := NewCounter()
	contentTypes := NewCounter()
	extensions := NewCounter()
	languages := NewCounter()
	statuses := statusCounter{}

	var earliest, latest time.Time

	for _, rec := range in.Pages.Records {
		if rec.URL != "" {
			uniqueURLs[rec.URL] = struct{}{}
		}

		if u, ok := parsePageURL(rec.URL); ok {
			domains.Add(strings.ToLower(u.Host))
			sites[siteOf(u)] = struct{}{}
			extensions.Add(extensionOf(u))
		} else {
			res.InvalidURLs++
		}

		if rec.Mime != "" {
			contentTypes.Add(rec.Mime)
		} else {
			contentTypes.Add(models.UnknownKey)
		}

		if rec.Status != nil {
			statuses[*rec.Status]++
		}

		if rec.HasTimestamp() {
			res.TimeRange.WithTimestamps++
			if earliest.IsZero() || rec.Timestamp.Before(earliest) {
				earliest = rec.Timestamp
			}
			if latest.IsZero() || rec.Timestamp.After(latest) {
				latest = rec.Timestamp
			}
		}

		if rec.Size != nil {
			res.WithSize++
			res.TotalSize += *rec.Size
		}
		if rec.HasText {
			res.WithText++
		}
		if title := strings.TrimSpace(rec.Title); title != "" {
			res.WithTitle++
			if opts.Detector != nil {
				languages.Add(opts.Detector.Detect(title))
			}
		}
	}

	res.UniqueURLs = len(uniqueURLs)
	res.UniqueDomains = domains.Len()
	res.UniqueSites = len(sites)
	res.Domains = domains.Entries()
	res.TopDomains = TopN(res.Domains, opts.TopDomains)
	res.ContentTypes = contentTypes.Entries()
	res.Extensions = extensions.Entries()
	res.StatusCodes = statuses.entries()
	res.Languages = languages.Entries()

	if !earliest.IsZero() {
		res.TimeRange.Earliest = &earliest
		res.TimeRange.Latest = &latest
	}

	return res
}

// parsePageURL accepts absolute URLs with a host.
func parsePageURL(raw string) (*url.URL, bool) {
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

// extensionOf returns the lower-cased extension of the last path segment, or
// "none".
func extensionOf(u *url.URL) string {
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return models.NoneKey
	}
	base := path.Base(u.Path)
	idx := strings.LastIndex(base, ".")
	if idx < 0 || idx == len(base)-1 {
		return models.NoneKey
	}
	ext := strings.ToLower(base[idx+1:])
	if ext == "" || strings.Contains(ext, "/") {
		return models.NoneKey
	}
	return ext
}

// siteOf returns the registrable domain (eTLD+1), falling back to the bare
// host for IPs, localhost and unknown suffixes.
func siteOf(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if net.ParseIP(host) != nil {
		return host
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return site
}
