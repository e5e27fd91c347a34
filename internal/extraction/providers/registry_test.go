package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compliancecore/certextract/internal/extraction/breaker"
)

type fakeTextProvider struct {
	name    string
	healthy bool
	result  TextExtractionResult
	err     error
}

func (f *fakeTextProvider) Name() string                  { return f.name }
func (f *fakeTextProvider) Capabilities() []Capability     { return []Capability{CapabilityTextExtraction} }
func (f *fakeTextProvider) Healthy(ctx context.Context) bool { return f.healthy }
func (f *fakeTextProvider) ExtractFromText(ctx context.Context, text string, schema map[string]interface{}, callCtx CallContext) (TextExtractionResult, error) {
	return f.result, f.err
}

func TestExtractFromText_SkipsUnhealthyTriesNextByPriority(t *testing.T) {
	r := NewRegistry(nil)
	unhealthy := &fakeTextProvider{name: "low-priority-down", healthy: false}
	healthy := &fakeTextProvider{name: "fallback", healthy: true, result: TextExtractionResult{Success: true, Confidence: 0.9}}

	r.Register(CapabilityTextExtraction, unhealthy, 10)
	r.Register(CapabilityTextExtraction, healthy, 5)

	result, providerName, err := r.ExtractFromText(context.Background(), "text", nil, CallContext{})

	require.NoError(t, err)
	assert.Equal(t, "fallback", providerName)
	assert.True(t, result.Success)
}

func TestExtractFromText_FailoverOnError(t *testing.T) {
	r := NewRegistry(nil)
	failing := &fakeTextProvider{name: "failing", healthy: true, err: assert.AnError}
	working := &fakeTextProvider{name: "working", healthy: true, result: TextExtractionResult{Success: true, Confidence: 0.7}}

	r.Register(CapabilityTextExtraction, failing, 10)
	r.Register(CapabilityTextExtraction, working, 5)

	result, providerName, err := r.ExtractFromText(context.Background(), "text", nil, CallContext{})

	require.NoError(t, err)
	assert.Equal(t, "working", providerName)
	assert.Equal(t, 0.7, result.Confidence)
}

func TestExtractFromText_NoHealthyProviderReturnsCompositeError(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(CapabilityTextExtraction, &fakeTextProvider{name: "down", healthy: false}, 10)

	_, _, err := r.ExtractFromText(context.Background(), "text", nil, CallContext{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no healthy provider")
}

type fakeOCRProvider struct {
	name   string
	result OCRResult
}

func (f *fakeOCRProvider) Name() string                  { return f.name }
func (f *fakeOCRProvider) Capabilities() []Capability     { return []Capability{CapabilityOCR} }
func (f *fakeOCRProvider) Healthy(ctx context.Context) bool { return true }
func (f *fakeOCRProvider) ExtractText(ctx context.Context, bytes []byte, mime string) (OCRResult, error) {
	return f.result, nil
}

func TestAnalyzeDocument_FallsBackToOCRWhenNoDIProvider(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(CapabilityOCR, &fakeOCRProvider{name: "tesseract", result: OCRResult{Success: true, Text: "scanned text", Confidence: 0.6, PageCount: 1}}, 1)

	result, providerName, err := r.AnalyzeDocument(context.Background(), []byte("x"), "image/png")

	require.NoError(t, err)
	assert.Equal(t, "tesseract", providerName)
	assert.Equal(t, "scanned text", result.Text)
}

func TestHas_ReportsRegisteredCapability(t *testing.T) {
	r := NewRegistry(nil)
	assert.False(t, r.Has(CapabilityDocumentIntelligence))

	r.Register(CapabilityDocumentIntelligence, &fakeOCRProvider{name: "x"}, 1)

	assert.True(t, r.Has(CapabilityDocumentIntelligence))
}

func TestExtractFromText_OpenCircuitSkipsProviderEvenWhenHealthy(t *testing.T) {
	brk := breaker.New(breaker.Config{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Second, ResetTimeout: time.Hour})
	r := NewRegistry(brk)

	failing := &fakeTextProvider{name: "flaky", healthy: true, err: assert.AnError}
	fallback := &fakeTextProvider{name: "fallback", healthy: true, result: TextExtractionResult{Success: true, Confidence: 0.8}}
	r.Register(CapabilityTextExtraction, failing, 10)
	r.Register(CapabilityTextExtraction, fallback, 5)

	_, _, err := r.ExtractFromText(context.Background(), "text", nil, CallContext{})
	require.NoError(t, err)
	assert.Equal(t, breaker.Open, brk.State("flaky"))

	result, providerName, err := r.ExtractFromText(context.Background(), "text", nil, CallContext{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", providerName)
	assert.True(t, result.Success)
}
