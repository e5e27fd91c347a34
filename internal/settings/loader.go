package settings

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"

	"github.com/compliancecore/certextract/internal/common"
	"github.com/compliancecore/certextract/internal/interfaces"
	"github.com/compliancecore/certextract/internal/model"
)

// Settings store keys, matching the external key/value store contract.
const (
	KeyAIEnabled                = "AI_ENABLED"
	KeyTier1Threshold           = "TIER1_CONFIDENCE_THRESHOLD"
	KeyTier15Threshold          = "TIER1_5_CONFIDENCE_THRESHOLD"
	KeyTier2Threshold           = "TIER2_CONFIDENCE_THRESHOLD"
	KeyTier3Threshold           = "TIER3_CONFIDENCE_THRESHOLD"
	KeyMaxCostPerDocument       = "MAX_COST_PER_DOCUMENT"
	KeyAbortOnCostExceeded      = "ABORT_ON_COST_EXCEEDED"
	KeyDocumentTypeThresholds   = "DOCUMENT_TYPE_THRESHOLDS"
	KeyCustomExtractionPatterns = "CUSTOM_EXTRACTION_PATTERNS"
)

// Loader materialises a Settings snapshot from the external key/value store,
// applying defaults and coercing raw string values to the typed fields the
// rest of the pipeline consumes.
type Loader struct {
	store interfaces.KeyValueStorage
}

// NewLoader builds a Loader over the given key/value store.
func NewLoader(store interfaces.KeyValueStorage) *Loader {
	return &Loader{store: store}
}

// Load reads the store once and returns an immutable snapshot (4.1). It
// never returns an error: individual key failures degrade to defaults with
// a logged warning, since a malformed settings value must never abort
// extraction.
func (l *Loader) Load(ctx context.Context) *model.Settings {
	logger := common.GetLogger()
	snap := model.DefaultSettings()

	values, err := l.store.GetAll(ctx)
	if err != nil {
		if !errors.Is(err, interfaces.ErrKeyNotFound) {
			logger.Warn().Err(err).Msg("settings: failed to read key/value store, using defaults")
		}
		return snap
	}

	if raw, ok := values[KeyAIEnabled]; ok {
		if b, err := strconv.ParseBool(raw); err == nil {
			snap.AIEnabled = b
		} else {
			logger.Warn().Str("key", KeyAIEnabled).Str("value", raw).Msg("settings: could not parse bool, defaulting to false")
		}
	}

	for _, pair := range []struct {
		key  string
		dest *float64
	}{
		{KeyTier1Threshold, &snap.Tier1Threshold},
		{KeyTier15Threshold, &snap.Tier15Threshold},
		{KeyTier2Threshold, &snap.Tier2Threshold},
		{KeyTier3Threshold, &snap.Tier3Threshold},
		{KeyMaxCostPerDocument, &snap.MaxCostPerDocument},
	} {
		if raw, ok := values[pair.key]; ok {
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				*pair.dest = f
			} else {
				logger.Warn().Str("key", pair.key).Str("value", raw).Msg("settings: could not parse float, keeping default")
			}
		}
	}

	if raw, ok := values[KeyAbortOnCostExceeded]; ok {
		if b, err := strconv.ParseBool(raw); err == nil {
			snap.AbortOnCostExceeded = b
		}
	}

	if raw, ok := values[KeyDocumentTypeThresholds]; ok && raw != "" {
		var parsed map[string]float64
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			logger.Warn().Err(err).Str("key", KeyDocumentTypeThresholds).Msg("settings: failed to parse JSON, ignoring")
		} else {
			for code, threshold := range parsed {
				snap.DocumentTypeThresholds[model.ResolveCertType(code)] = threshold
			}
		}
	}

	if raw, ok := values[KeyCustomExtractionPatterns]; ok && raw != "" {
		compiled, warnings := compileCustomPatterns(raw)
		snap.CustomPatterns = compiled
		snap.InvalidPatternWarnings = warnings
		for _, w := range warnings {
			logger.Warn().Str("key", KeyCustomExtractionPatterns).Msg(w)
		}
	}

	return snap
}

// rawCustomPatterns mirrors the JSON shape of CUSTOM_EXTRACTION_PATTERNS:
// {"GAS": {"certificateNumber": ["regex1", "regex2"]}, ...}
type rawCustomPatterns map[string]map[string][]string

func compileCustomPatterns(raw string) (map[model.CertType]map[model.Field][]model.CompiledPattern, []string) {
	result := map[model.CertType]map[model.Field][]model.CompiledPattern{}
	var warnings []string

	var parsed rawCustomPatterns
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return result, []string{"failed to parse CUSTOM_EXTRACTION_PATTERNS JSON: " + err.Error()}
	}

	for rawType, fields := range parsed {
		certType := model.ResolveCertType(rawType)
		fieldMap := map[model.Field][]model.CompiledPattern{}
		for rawField, patterns := range fields {
			var compiled []model.CompiledPattern
			for _, p := range patterns {
				re, err := regexp.Compile(p)
				if err != nil {
					warnings = append(warnings, "dropped invalid custom pattern for "+rawType+"."+rawField+": "+err.Error())
					continue
				}
				compiled = append(compiled, model.CompiledPattern{Source: p, Regex: re})
			}
			if len(compiled) > 0 {
				fieldMap[model.Field(rawField)] = compiled
			}
		}
		if len(fieldMap) > 0 {
			result[certType] = fieldMap
		}
	}
	return result, warnings
}
