package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/dtnitsch/replay-analyzer/models"
)

// PageListOptions controls pagination of the page listing.
type PageListOptions struct {
	PageSize          int
	MaxPages          int
	RequestsPerSecond float64
}

func (o PageListOptions) withDefaults() PageListOptions {
	if o.PageSize <= 0 {
		o.PageSize = models.DefaultPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = models.DefaultMaxPages
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = models.DefaultRequestsPerSecond
	}
	return o
}

// PageList is the decoded result of a page-list fetch.
type PageList struct {
	Entries []json.RawMessage
	// Malformed counts entries lost to broken array bodies.
	Malformed int
	Requests  int
	Truncated bool
}

// FetchPageList reads the listing behind listURL. Array and NDJSON bodies are
// read in one request; {"items": [...]} bodies are paginated until a short
// page, an empty page or the page cap. Any failed request fails the whole
// listing with PageListUnavailable.
func (f *Fetcher) FetchPageList(ctx context.Context, listURL string, opts PageListOptions) (*PageList, error) {
	opts = opts.withDefaults()
	limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)

	result := &PageList{}
	for page := 1; page <= opts.MaxPages; page++ {
		pageURL, err := withPageParams(listURL, page, opts.PageSize)
		if err != nil {
			return nil, &Error{Kind: PageListUnavailable, URL: listURL, Message: "invalid page list URL", Cause: err}
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: PageListUnavailable, URL: pageURL, Message: "page list fetch interrupted", Cause: err}
		}

		f.logger.Info("Fetching page list", "url", pageURL, "page", page)
		resp, err := f.get(ctx, pageURL)
		result.Requests++
		if err != nil {
			return nil, &Error{Kind: PageListUnavailable, URL: pageURL, Message: "request failed", Cause: err}
		}
		if !isSuccess(resp.StatusCode) {
			return nil, &Error{
				Kind:       PageListUnavailable,
				URL:        pageURL,
				StatusCode: resp.StatusCode,
				Message:    "origin rejected page list request",
			}
		}

		l := decodeListing(resp.Body)
		result.Entries = append(result.Entries, l.Entries...)
		result.Malformed += l.Malformed
		f.logger.Info("Fetched page list page", "page", page, "entries", len(l.Entries), "malformed", l.Malformed, "total", len(result.Entries))

		// A broken page says nothing about whether more pages follow.
		if !l.Paged || (l.Malformed == 0 && len(l.Entries) < opts.PageSize) {
			return result, nil
		}
		if page == opts.MaxPages {
			result.Truncated = true
			f.logger.Warn("Reached maximum page limit, stopping pagination", "max_pages", opts.MaxPages)
		}
	}

	return result, nil
}

// withPageParams sets page and pageSize on the listing URL, keeping any
// existing query parameters.
func withPageParams(rawURL string, page, pageSize int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse page list url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("page list url %q is not absolute", rawURL)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ResolvePages turns the manifest's page source into the uniform record
// sequence the aggregator consumes. The page list is only fetched when full
// is set; when it cannot be used the inline pages are the fallback and the
// PageSet records why.
func (f *Fetcher) ResolvePages(ctx context.Context, m *models.Manifest, full bool, opts PageListOptions) models.PageSet {
	source := m.Source()
	set := models.PageSet{PageListRequested: full}

	if full {
		switch source.Kind {
		case models.SourceDeferred:
			list, err := f.FetchPageList(ctx, source.URL, opts)
			if err == nil {
				records, skipped := DecodeEntries(list.Entries, f.logger)
				skipped += list.Malformed
				if len(records) > 0 || skipped == 0 {
					set.Records, set.Skipped = records, skipped
					set.Origin = models.OriginPageList
					set.Truncated = list.Truncated
					return set
				}
				err = &Error{
					Kind:    PageListUnavailable,
					URL:     source.URL,
					Message: fmt.Sprintf("page list had no decodable entries (%d malformed)", skipped),
				}
			}
			f.logger.Warn("Page list unavailable, falling back to inline pages", "error", err)
			set.PageListError = err.Error()
		default:
			f.logger.Info("No page list reference found in manifest")
			set.PageListError = "manifest exposes no page list reference"
		}
	}

	set.Records, set.Skipped = DecodeEntries(source.Inline, f.logger)
	set.Origin = models.OriginInline
	return set
}
