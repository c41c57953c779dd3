package analyze

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// markdownLink matches a pasted [text](url) link.
var markdownLink = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)

// cleanManifestArg strips copy-paste artifacts from a manifest URL argument.
// Example: "<https://host/replay.json>," -> "https://host/replay.json"
func cleanManifestArg(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if m := markdownLink.FindStringSubmatch(cleaned); len(m) > 1 {
		cleaned = m[1]
	}
	cleaned = strings.TrimRight(cleaned, ",.;)]}>\"'")
	cleaned = strings.TrimLeft(cleaned, "([<\"'")
	return strings.TrimSpace(cleaned)
}

// checkManifestURL requires an absolute http(s) URL. The collection segment
// is left to the origin to judge.
func checkManifestURL(raw string) error {
	if strings.ContainsAny(raw, " \t") {
		return fmt.Errorf("manifest URL %q contains spaces", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("manifest URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("manifest URL %q must use http or https", raw)
	}
	if u.Host == "" || strings.ContainsAny(u.Host, "{}[]<>\"'") {
		return fmt.Errorf("manifest URL %q has no valid host", raw)
	}
	return nil
}
