package typedetect

import "github.com/compliancecore/certextract/internal/model"

// FieldSource identifies what a pattern is matched against.
type FieldSource string

const (
	SourceFilename    FieldSource = "filename"
	SourceTextContent FieldSource = "textContent"
)

// Matcher is the comparison strategy a Pattern uses against its source text.
type Matcher string

const (
	MatcherContains   Matcher = "contains"
	MatcherStartsWith Matcher = "startsWith"
	MatcherEndsWith   Matcher = "endsWith"
	MatcherExact      Matcher = "exact"
	MatcherRegex      Matcher = "regex"
)

// Pattern is a single priority-ordered rule for recognising a certificate
// type from a filename or its extracted text.
type Pattern struct {
	CertType model.CertType
	Source   FieldSource
	Matcher  Matcher
	Pattern  string
	Priority int
}

// Detection is the result of matching a document against the active
// pattern set.
type Detection struct {
	Type       model.CertType
	Confidence float64
	Source     string // "database" or "fallback"
}
