package aggregate

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// minLanguageText is the shortest title worth classifying.
const minLanguageText = 12

// LanguageDetector classifies a short text. It must be deterministic.
type LanguageDetector interface {
	Detect(text string) string
}

// LinguaDetector wraps a lingua detector and reports ISO 639-1 codes.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector builds a detector over all languages. Low accuracy mode
// keeps model loading cheap; titles are short anyway.
func NewLinguaDetector() *LinguaDetector {
	return &LinguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithLowAccuracyMode().
			Build(),
	}
}

// Detect returns the lower-case ISO 639-1 code, or "unknown" for texts that
// are too short or ambiguous.
func (d *LinguaDetector) Detect(text string) string {
	if len(strings.TrimSpace(text)) < minLanguageText {
		return "unknown"
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "unknown"
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
