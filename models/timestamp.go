package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// compactLayout is the 14-digit WARC/CDX form: YYYYMMDDhhmmss.
const compactLayout = "20060102150405"

// isoDatePrefix gates the lenient fallback to values that start with a full
// calendar date, so fragments like "1:" or "1/1" are not read as year 0.
var isoDatePrefix = regexp.MustCompile(`^\d{4}[-/]\d{1,2}[-/]\d{1,2}`)

// ParseTimestamp normalizes the two timestamp forms found in page records
// (ISO-8601 and compact 14-digit) into a UTC time.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if len(s) == len(compactLayout) && allDigits(s) {
		t, err := time.ParseInLocation(compactLayout, s, time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return plausible(t)
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return plausible(t.UTC())
	}

	if !isoDatePrefix.MatchString(s) {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return plausible(t.UTC())
}

// plausible rejects year 0 and earlier, which no archived capture carries.
func plausible(t time.Time) (time.Time, bool) {
	if t.Year() < 1 {
		return time.Time{}, false
	}
	return t, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
