package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/compliancecore/certextract/internal/common"
	"github.com/compliancecore/certextract/internal/extraction/breaker"
)

// registration pairs a provider with the priority it was registered at for
// one capability; higher priority is tried first.
type registration struct {
	provider Provider
	priority int
}

// Registry is the capability-indexed provider catalogue: a switch over two
// hardcoded providers generalised into map[Capability][]Provider, ordered
// by priority, health-checked on every call, with ordered failover.
//
// A Registry is shared across concurrently-running orchestrator instances:
// registration happens once at startup, so the read path (ForCapability)
// only needs a read lock.
type Registry struct {
	mu     sync.RWMutex
	byCap  map[Capability][]registration
	logger arbor.ILogger
	brk    *breaker.Breaker
}

// NewRegistry builds an empty registry. Use Register to add providers. brk
// may be nil, in which case every provider call runs unwrapped (used by
// tests that don't care about breaker behaviour); the orchestrator always
// passes a real Breaker so every external call is gated by it.
func NewRegistry(brk *breaker.Breaker) *Registry {
	return &Registry{
		byCap:  make(map[Capability][]registration),
		logger: common.GetLogger(),
		brk:    brk,
	}
}

// call runs fn through the breaker keyed by providerName when a breaker is
// configured, otherwise runs it directly.
func (r *Registry) call(ctx context.Context, providerName string, fn func(ctx context.Context) error) error {
	if r.brk == nil {
		return fn(ctx)
	}
	return r.brk.Call(ctx, providerName, fn)
}

// Register adds a provider under one capability at the given priority
// (higher runs first). A provider offering several capabilities calls
// Register once per capability it actually implements.
func (r *Registry) Register(capability Capability, provider Provider, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := append(r.byCap[capability], registration{provider: provider, priority: priority})
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].priority > entries[j].priority })
	r.byCap[capability] = entries
}

// ordered returns a snapshot of the providers registered for a capability,
// highest priority first.
func (r *Registry) ordered(capability Capability) []registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]registration, len(r.byCap[capability]))
	copy(out, r.byCap[capability])
	return out
}

// Has reports whether at least one provider is registered for a capability,
// independent of current health — used by the orchestrator to decide
// whether Tier 2 / Tier 3 are reachable at all before spending budget.
func (r *Registry) Has(capability Capability) bool {
	return len(r.ordered(capability)) > 0
}

// noHealthyProviderError is returned when every registered provider for a
// capability was unhealthy or failed the call.
type noHealthyProviderError struct {
	capability Capability
	attempts   []string
}

func (e *noHealthyProviderError) Error() string {
	return fmt.Sprintf("no healthy provider for capability %q (tried: %v)", e.capability, e.attempts)
}

// ExtractFromText tries each TextExtraction-capable provider in priority
// order, skipping unhealthy ones, returning the first success.
func (r *Registry) ExtractFromText(ctx context.Context, text string, schema map[string]interface{}, callCtx CallContext) (TextExtractionResult, string, error) {
	var attempted []string
	for _, reg := range r.ordered(CapabilityTextExtraction) {
		te, ok := reg.provider.(TextExtraction)
		if !ok {
			continue
		}
		if !reg.provider.Healthy(ctx) {
			continue
		}
		attempted = append(attempted, reg.provider.Name())
		var result TextExtractionResult
		err := r.call(ctx, reg.provider.Name(), func(ctx context.Context) error {
			var callErr error
			result, callErr = te.ExtractFromText(ctx, text, schema, callCtx)
			return callErr
		})
		if err != nil {
			r.logger.Warn().Str("provider", reg.provider.Name()).Err(err).Msg("text extraction provider call failed")
			continue
		}
		return result, reg.provider.Name(), nil
	}
	return TextExtractionResult{}, "", &noHealthyProviderError{capability: CapabilityTextExtraction, attempts: attempted}
}

// ExtractFromImage tries each Vision-capable provider for an image input.
func (r *Registry) ExtractFromImage(ctx context.Context, bytes []byte, mime string, schema map[string]interface{}, callCtx CallContext) (VisionResult, string, error) {
	var attempted []string
	for _, reg := range r.ordered(CapabilityVision) {
		v, ok := reg.provider.(Vision)
		if !ok {
			continue
		}
		if !reg.provider.Healthy(ctx) {
			continue
		}
		attempted = append(attempted, reg.provider.Name())
		var result VisionResult
		err := r.call(ctx, reg.provider.Name(), func(ctx context.Context) error {
			var callErr error
			result, callErr = v.ExtractFromImage(ctx, bytes, mime, schema, callCtx)
			return callErr
		})
		if err != nil {
			r.logger.Warn().Str("provider", reg.provider.Name()).Err(err).Msg("vision provider call failed")
			continue
		}
		return result, reg.provider.Name(), nil
	}
	return VisionResult{}, "", &noHealthyProviderError{capability: CapabilityVision, attempts: attempted}
}

// ExtractFromPDF tries only Vision providers that advertise PDF support
// (PDFCapableVision).
func (r *Registry) ExtractFromPDF(ctx context.Context, pdfBytes []byte, schema map[string]interface{}, callCtx CallContext) (VisionResult, string, error) {
	var attempted []string
	for _, reg := range r.ordered(CapabilityVision) {
		v, ok := reg.provider.(PDFCapableVision)
		if !ok || !v.SupportsPDF() {
			continue
		}
		if !reg.provider.Healthy(ctx) {
			continue
		}
		attempted = append(attempted, reg.provider.Name())
		var result VisionResult
		err := r.call(ctx, reg.provider.Name(), func(ctx context.Context) error {
			var callErr error
			result, callErr = v.ExtractFromPDF(ctx, pdfBytes, schema, callCtx)
			return callErr
		})
		if err != nil {
			r.logger.Warn().Str("provider", reg.provider.Name()).Err(err).Msg("pdf vision provider call failed")
			continue
		}
		return result, reg.provider.Name(), nil
	}
	return VisionResult{}, "", &noHealthyProviderError{capability: CapabilityVision, attempts: attempted}
}

// ExtractText tries each OCR-capable provider in priority order.
func (r *Registry) ExtractText(ctx context.Context, bytes []byte, mime string) (OCRResult, string, error) {
	var attempted []string
	for _, reg := range r.ordered(CapabilityOCR) {
		o, ok := reg.provider.(OCR)
		if !ok {
			continue
		}
		if !reg.provider.Healthy(ctx) {
			continue
		}
		attempted = append(attempted, reg.provider.Name())
		var result OCRResult
		err := r.call(ctx, reg.provider.Name(), func(ctx context.Context) error {
			var callErr error
			result, callErr = o.ExtractText(ctx, bytes, mime)
			return callErr
		})
		if err != nil {
			r.logger.Warn().Str("provider", reg.provider.Name()).Err(err).Msg("ocr provider call failed")
			continue
		}
		return result, reg.provider.Name(), nil
	}
	return OCRResult{}, "", &noHealthyProviderError{capability: CapabilityOCR, attempts: attempted}
}

// AnalyzeDocument tries each DocumentIntelligence-capable provider; if none
// is registered or healthy, it falls back to the OCR capability.
func (r *Registry) AnalyzeDocument(ctx context.Context, bytes []byte, mime string) (DocumentIntelligenceResult, string, error) {
	var attempted []string
	for _, reg := range r.ordered(CapabilityDocumentIntelligence) {
		di, ok := reg.provider.(DocumentIntelligence)
		if !ok {
			continue
		}
		if !reg.provider.Healthy(ctx) {
			continue
		}
		attempted = append(attempted, reg.provider.Name())
		var result DocumentIntelligenceResult
		err := r.call(ctx, reg.provider.Name(), func(ctx context.Context) error {
			var callErr error
			result, callErr = di.AnalyzeDocument(ctx, bytes, mime)
			return callErr
		})
		if err != nil {
			r.logger.Warn().Str("provider", reg.provider.Name()).Err(err).Msg("document intelligence provider call failed")
			continue
		}
		return result, reg.provider.Name(), nil
	}

	ocrResult, providerName, err := r.ExtractText(ctx, bytes, mime)
	if err != nil {
		return DocumentIntelligenceResult{}, "", &noHealthyProviderError{capability: CapabilityDocumentIntelligence, attempts: attempted}
	}
	return DocumentIntelligenceResult{
		Success:   ocrResult.Success,
		Text:      ocrResult.Text,
		Confidence: ocrResult.Confidence,
		Cost:      ocrResult.Cost,
		PageCount: ocrResult.PageCount,
	}, providerName, nil
}
