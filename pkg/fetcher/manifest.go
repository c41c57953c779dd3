package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/dtnitsch/replay-analyzer/models"
)

// Target identifies the manifest to fetch: either a full URL, or an
// organization/collection pair resolved against a base URL.
type Target struct {
	URL        string
	BaseURL    string
	Org        string
	Collection string
}

// ManifestURL builds {base}/orgs/{org}/collections/{collection}/public/replay.json.
func ManifestURL(base, org, collection string) string {
	return fmt.Sprintf("%s/orgs/%s/collections/%s/public/replay.json",
		strings.TrimRight(base, "/"), url.PathEscape(org), url.PathEscape(collection))
}

// Resolve returns the manifest URL for the target.
func (t Target) Resolve() (string, error) {
	if t.URL != "" {
		return t.URL, nil
	}
	if t.Org == "" || t.Collection == "" {
		return "", errors.New("either a manifest URL or both org and collection are required")
	}
	base := t.BaseURL
	if base == "" {
		base = models.DefaultBaseURL
	}
	return ManifestURL(base, t.Org, t.Collection), nil
}

// FetchManifest retrieves and parses the manifest. Failures are returned as
// *Error of kind ManifestUnavailable or ManifestMalformed and are not retried.
func (f *Fetcher) FetchManifest(ctx context.Context, target Target) (*models.Manifest, error) {
	manifestURL, err := target.Resolve()
	if err != nil {
		return nil, &Error{Kind: ManifestUnavailable, Message: "no manifest location", Cause: err}
	}

	f.logger.Info("Fetching manifest", "url", manifestURL)

	resp, err := f.get(ctx, manifestURL)
	if err != nil {
		return nil, &Error{
			Kind:    ManifestUnavailable,
			URL:     manifestURL,
			Message: "request failed for " + manifestURL,
			Hint:    "check network access to the origin; the request is not retried",
			Cause:   err,
		}
	}

	if !isSuccess(resp.StatusCode) {
		return nil, &Error{
			Kind:       ManifestUnavailable,
			URL:        manifestURL,
			StatusCode: resp.StatusCode,
			Message:    "origin rejected " + manifestURL,
			Hint:       remediationHint(target, manifestURL),
		}
	}

	if looksLikeHTML(resp.ContentType, resp.Body) {
		return nil, &Error{
			Kind:       ManifestMalformed,
			URL:        manifestURL,
			StatusCode: resp.StatusCode,
			Message:    "origin returned an HTML page instead of JSON",
			Hint:       htmlHint(resp.Body),
		}
	}

	manifest, err := models.ParseManifest(resp.Body)
	if err != nil {
		return nil, &Error{
			Kind:    ManifestMalformed,
			URL:     manifestURL,
			Message: "manifest body is not a replay.json document",
			Cause:   err,
		}
	}

	f.logger.Info("Manifest fetched",
		"collection", manifest.Collection.Name,
		"inline_pages", len(manifest.InlinePages),
		"page_list", manifest.PageListURL != "")

	return manifest, nil
}

// remediationHint names the identifier the caller supplied and points at the
// canonical-id form. It does not validate anything up front: the origin's
// rejection is the only signal.
func remediationHint(target Target, manifestURL string) string {
	collection := target.Collection
	if collection == "" {
		collection = collectionFromURL(manifestURL)
	}
	if collection == "" {
		return "verify the manifest URL and that the collection is public"
	}
	if _, err := uuid.Parse(collection); err != nil {
		return fmt.Sprintf("collection %q does not look like a canonical collection id; "+
			"retry with the collection's id (a UUID) instead of its name or slug", collection)
	}
	return fmt.Sprintf("collection %q was rejected; verify the org id and that the collection is public", collection)
}

// collectionFromURL extracts the segment after /collections/ in a manifest URL.
func collectionFromURL(manifestURL string) string {
	u, err := url.Parse(manifestURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "collections" && i+1 < len(parts) {
			seg, err := url.PathUnescape(parts[i+1])
			if err != nil {
				return parts[i+1]
			}
			return seg
		}
	}
	return ""
}

func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// htmlHint reads the page title of an HTML error/login page so the user sees
// what the origin actually served.
func htmlHint(body []byte) string {
	const generic = "the collection may be private or the URL may point at the web UI rather than the API"
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return generic
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return generic
	}
	return fmt.Sprintf("origin served a page titled %q; %s", title, generic)
}
