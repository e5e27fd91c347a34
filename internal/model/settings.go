package model

import "regexp"

// Field identifies a single extractable field name within a certificate
// type's template (e.g. "certificateNumber", "engineerRegistration").
type Field string

// CompiledPattern pairs a custom regex (from the settings store) with the
// source string it was compiled from, for diagnostics.
type CompiledPattern struct {
	Source string
	Regex  *regexp.Regexp
}

// Settings is the immutable configuration snapshot materialised once per
// extraction call (4.1). It is never mutated after construction.
type Settings struct {
	AIEnabled bool

	Tier1Threshold float64
	Tier15Threshold float64
	Tier2Threshold float64
	Tier3Threshold float64

	MaxCostPerDocument float64
	AbortOnCostExceeded bool

	// DocumentTypeThresholds overrides the Tier 1 threshold per certificate
	// type; keys are canonical CertType codes.
	DocumentTypeThresholds map[CertType]float64

	// CustomPatterns overrides/extends the built-in template extractor
	// field tables per certificate type; outer key is CertType, inner key
	// is Field. Patterns here are prepended to the built-in list so they
	// take priority. Populated from the raw JSON via CompileCustomPatterns.
	CustomPatterns map[CertType]map[Field][]CompiledPattern

	// InvalidPatternWarnings records custom regexes dropped for failing to
	// compile, surfaced as ExtractionResult warnings.
	InvalidPatternWarnings []string
}

// EffectiveTier1Threshold resolves the per-type override, defaulting to the
// general Tier 1 threshold (4.5, 4.9 item 6).
func (s *Settings) EffectiveTier1Threshold(certType CertType) float64 {
	if s == nil {
		return Tier1.DefaultThreshold()
	}
	if v, ok := s.DocumentTypeThresholds[certType]; ok {
		return v
	}
	return s.Tier1Threshold
}

// DefaultSettings returns the fail-closed defaults applied when a settings
// key is absent from the store (4.1: a missing aiEnabled key resolves to
// false).
func DefaultSettings() *Settings {
	return &Settings{
		AIEnabled:              false,
		Tier1Threshold:         Tier1.DefaultThreshold(),
		Tier15Threshold:        Tier1.DefaultThreshold(),
		Tier2Threshold:         Tier2.DefaultThreshold(),
		Tier3Threshold:         Tier3.DefaultThreshold(),
		MaxCostPerDocument:     0.05,
		AbortOnCostExceeded:    false,
		DocumentTypeThresholds: map[CertType]float64{},
		CustomPatterns:         map[CertType]map[Field][]CompiledPattern{},
	}
}
