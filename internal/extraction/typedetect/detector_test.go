package typedetect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compliancecore/certextract/internal/kvstore"
	"github.com/compliancecore/certextract/internal/model"
)

func TestDetect_BuiltinFallback(t *testing.T) {
	d := NewDetector(kvstore.NewMemory())

	det := d.Detect(context.Background(), "cert.pdf", "This is a Gas Safety Record, LGSR-00123 issued by Corgi")

	assert.Equal(t, model.CertType("GAS"), det.Type)
	assert.Equal(t, "fallback", det.Source)
	assert.Greater(t, det.Confidence, 0.0)
}

func TestDetect_NoMatchReturnsUnknown(t *testing.T) {
	d := NewDetector(kvstore.NewMemory())

	det := d.Detect(context.Background(), "invoice.pdf", "this document contains nothing recognisable")

	assert.Equal(t, model.UnknownCertType, det.Type)
}

func TestDetect_DatabasePatternsTakePriorityOverBuiltin(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, PatternKey, `[{"certType":"EICR","patternType":"filename","matcher":"contains","pattern":"cert.pdf","priority":99}]`, ""))

	d := NewDetector(store)
	det := d.Detect(ctx, "cert.pdf", "LGSR mentioned here too")

	assert.Equal(t, model.CertType("EICR"), det.Type)
	assert.Equal(t, "database", det.Source)
}

func TestDetect_CacheServesWithinTTL(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, PatternKey, `[{"certType":"EPC","patternType":"filename","matcher":"contains","pattern":"cert","priority":80}]`, ""))

	d := NewDetector(store)
	first := d.Detect(ctx, "cert.pdf", "")
	require.Equal(t, model.CertType("EPC"), first.Type)

	// Mutate the store directly; the cached pattern list should still win
	// within the TTL window.
	require.NoError(t, store.Set(ctx, PatternKey, `[]`, ""))
	second := d.Detect(ctx, "cert.pdf", "")
	assert.Equal(t, model.CertType("EPC"), second.Type)
}
