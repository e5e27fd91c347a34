package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compliancecore/certextract/internal/kvstore"
	"github.com/compliancecore/certextract/internal/model"
)

func TestLoad_MissingAIEnabledDefaultsToFalse(t *testing.T) {
	store := kvstore.NewMemory()
	loader := NewLoader(store)

	snap := loader.Load(context.Background())

	assert.False(t, snap.AIEnabled, "a missing AI_ENABLED key must fail closed")
}

func TestLoad_ParsesScalarOverrides(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, KeyAIEnabled, "true", ""))
	require.NoError(t, store.Set(ctx, KeyTier1Threshold, "0.9", ""))
	require.NoError(t, store.Set(ctx, KeyMaxCostPerDocument, "0.10", ""))
	require.NoError(t, store.Set(ctx, KeyAbortOnCostExceeded, "true", ""))

	snap := NewLoader(store).Load(ctx)

	assert.True(t, snap.AIEnabled)
	assert.Equal(t, 0.9, snap.Tier1Threshold)
	assert.Equal(t, 0.10, snap.MaxCostPerDocument)
	assert.True(t, snap.AbortOnCostExceeded)
}

func TestLoad_MalformedScalarFallsBackToDefault(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, KeyTier1Threshold, "not-a-number", ""))

	snap := NewLoader(store).Load(ctx)

	assert.Equal(t, model.Tier1.DefaultThreshold(), snap.Tier1Threshold)
}

func TestLoad_DocumentTypeThresholds(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, KeyDocumentTypeThresholds, `{"FRA": 0.70, "GAS_SAFETY": 0.9}`, ""))

	snap := NewLoader(store).Load(ctx)

	assert.Equal(t, 0.70, snap.DocumentTypeThresholds["FRA"])
	assert.Equal(t, 0.9, snap.DocumentTypeThresholds["GAS"], "alias GAS_SAFETY must resolve to canonical GAS")
}

func TestLoad_DocumentTypeThresholdsMalformedJSONIgnored(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, KeyDocumentTypeThresholds, `{not json`, ""))

	snap := NewLoader(store).Load(ctx)

	assert.Empty(t, snap.DocumentTypeThresholds)
}

func TestLoad_CustomPatternsCompiledAndInvalidDropped(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()
	raw := `{"GAS": {"certificateNumber": ["LGSR-([0-9]+)", "(unterminated["]}}}`
	require.NoError(t, store.Set(ctx, KeyCustomExtractionPatterns, raw, ""))

	snap := NewLoader(store).Load(ctx)

	patterns := snap.CustomPatterns["GAS"]["certificateNumber"]
	require.Len(t, patterns, 1, "the invalid regex must be silently dropped")
	assert.Equal(t, "LGSR-([0-9]+)", patterns[0].Source)
	assert.NotEmpty(t, snap.InvalidPatternWarnings)
}

func TestEffectiveTier1Threshold(t *testing.T) {
	snap := model.DefaultSettings()
	snap.Tier1Threshold = 0.85
	snap.DocumentTypeThresholds["FRA"] = 0.70

	assert.Equal(t, 0.70, snap.EffectiveTier1Threshold("FRA"))
	assert.Equal(t, 0.85, snap.EffectiveTier1Threshold("GAS"))
}
