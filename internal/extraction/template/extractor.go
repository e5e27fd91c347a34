// Package template implements Tier 1: per-certificate-type, field-level
// regex extraction with transforms and confidence scoring.
package template

import (
	"regexp"
	"strings"

	"github.com/compliancecore/certextract/internal/model"
)

// Transform normalises a raw captured value before it is assigned.
type Transform func(string) string

// FieldExtractor tries a sequence of patterns against the text, in order,
// and assigns the first match's capture group 1 (after Transform) to
// Field.
type FieldExtractor struct {
	Field     model.Field
	Patterns  []*regexp.Regexp
	Transform Transform
	Required  bool
}

// Result is the output of running the template extractor against one
// document: a populated record, the confidence score, and the
// counts it was derived from.
type Result struct {
	Success            bool
	Data               *model.ExtractedRecord
	Confidence         float64
	MatchedFields      int
	TotalExpectedFields int
}

// Extractor runs the field tables for a resolved certificate type against
// extracted text.
type Extractor struct{}

// NewExtractor builds a stateless Extractor; field tables are static data
// compiled once at package init.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract applies the built-in field table for certType, with any custom
// patterns (from settings) prepended per field so they take priority, then
// mines defects and appliances and computes the confidence score.
func (e *Extractor) Extract(certType model.CertType, textContent string, custom map[model.Field][]CompiledCustomPattern) Result {
	table := tableFor(certType)

	record := &model.ExtractedRecord{
		CertificateType:  certType,
		AdditionalFields: map[string]string{},
	}

	matched := 0
	anyRequiredMissed := false

	for _, fe := range table {
		patterns := fe.Patterns
		if cps, ok := custom[fe.Field]; ok && len(cps) > 0 {
			merged := make([]*regexp.Regexp, 0, len(cps)+len(fe.Patterns))
			for _, cp := range cps {
				merged = append(merged, cp.Regex)
			}
			merged = append(merged, fe.Patterns...)
			patterns = merged
		}

		value, ok := firstMatch(patterns, textContent)
		if !ok {
			if fe.Required {
				anyRequiredMissed = true
			}
			continue
		}
		if fe.Transform != nil {
			value = fe.Transform(value)
		}
		matched++
		assignField(record, fe.Field, value)
	}

	defects := mineDefects(textContent)
	record.Defects = defects

	appliances := mineAppliances(textContent)
	record.Appliances = appliances

	totalExpected := len(table)
	confidence := 0.0
	if totalExpected > 0 {
		confidence = float64(matched) / float64(totalExpected)
	}
	if anyRequiredMissed {
		confidence /= 2
	}
	if len(defects) > 0 {
		confidence += 0.10
	}
	if len(appliances) > 0 {
		confidence += 0.05
	}
	if confidence > 1 {
		confidence = 1
	}

	return Result{
		Success:             matched >= 2,
		Data:                record,
		Confidence:          confidence,
		MatchedFields:       matched,
		TotalExpectedFields: totalExpected,
	}
}

// CompiledCustomPattern adapts model.CompiledPattern to this package's
// regexp-centric field table shape.
type CompiledCustomPattern struct {
	Regex *regexp.Regexp
}

// CustomPatternsFor converts a settings snapshot's custom pattern map for a
// single certificate type into this package's shape.
func CustomPatternsFor(certType model.CertType, settingsPatterns map[model.CertType]map[model.Field][]model.CompiledPattern) map[model.Field][]CompiledCustomPattern {
	out := map[model.Field][]CompiledCustomPattern{}
	for field, patterns := range settingsPatterns[certType] {
		for _, p := range patterns {
			out[field] = append(out[field], CompiledCustomPattern{Regex: p.Regex})
		}
	}
	return out
}

func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil && len(m) > 1 {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

func assignField(record *model.ExtractedRecord, field model.Field, value string) {
	switch field {
	case "certificateNumber":
		record.CertificateNumber = &value
	case "issueDate":
		record.IssueDate = &value
	case "expiryDate":
		record.ExpiryDate = &value
	case "inspectionDate":
		record.InspectionDate = &value
	case "nextInspectionDate":
		record.NextInspectionDate = &value
	case "outcome":
		record.RawOutcome = &value
		normalised := normalizeOutcome(value)
		record.Outcome = &normalised
	case "propertyAddress":
		record.PropertyAddress = &value
	case "uprn":
		record.UPRN = &value
	case "engineerName":
		record.EngineerName = &value
	case "engineerRegistration":
		record.EngineerRegistration = &value
	case "contractorName":
		record.ContractorName = &value
	case "contractorRegistration":
		record.ContractorRegistration = &value
	default:
		record.AdditionalFields[string(field)] = value
	}
}
