package fetcher

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes fetch and ingestion failures.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// ManifestUnavailable covers network failures, timeouts and non-2xx
	// responses for the manifest. Terminal for the run.
	ManifestUnavailable
	// ManifestMalformed means the manifest body is not the expected JSON
	// shape. Terminal for the run.
	ManifestMalformed
	// PageListUnavailable means the secondary page list could not be
	// fetched or decoded. The run continues on inline pages.
	PageListUnavailable
	// RecordMalformed means a single page entry could not be decoded. The
	// entry is skipped and tallied.
	RecordMalformed
)

func (k Kind) String() string {
	switch k {
	case ManifestUnavailable:
		return "manifest unavailable"
	case ManifestMalformed:
		return "manifest malformed"
	case PageListUnavailable:
		return "page list unavailable"
	case RecordMalformed:
		return "record malformed"
	default:
		return "unknown error"
	}
}

// Error carries a failure kind, the origin's status code when there was one,
// a remediation hint and the original cause.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int // HTTP status returned by the origin, 0 when none
	Message    string
	Hint       string
	Cause      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err wraps a fetcher Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}

// HintOf returns the remediation hint carried by err, if any.
func HintOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Hint
	}
	return ""
}
