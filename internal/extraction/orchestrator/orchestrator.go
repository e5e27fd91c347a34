// Package orchestrator runs one document through the nine-step escalating
// extraction pipeline: format analysis, QR/EXIF harvest, template
// extraction, then successively more expensive AI tiers, stopping at the
// first tier whose confidence clears its threshold and falling through to
// manual review when none does.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/compliancecore/certextract/internal/audit"
	"github.com/compliancecore/certextract/internal/extraction/cost"
	"github.com/compliancecore/certextract/internal/extraction/decision"
	"github.com/compliancecore/certextract/internal/extraction/format"
	"github.com/compliancecore/certextract/internal/extraction/providers"
	"github.com/compliancecore/certextract/internal/extraction/qrmeta"
	"github.com/compliancecore/certextract/internal/extraction/template"
	"github.com/compliancecore/certextract/internal/model"
	"github.com/compliancecore/certextract/internal/settings"
)

// Orchestrator wires the per-tier engines together behind the single
// Extract entry point. One Orchestrator is shared across concurrent
// extractions; all per-document state (cost tracker, audit entries) is
// scoped to a single Extract call.
type Orchestrator struct {
	settingsLoader    *settings.Loader
	analyser          *format.Analyser
	harvester         *qrmeta.Harvester
	templateExtractor *template.Extractor
	registry          *providers.Registry
	sink              audit.Sink
	logger            arbor.ILogger
}

// New builds an Orchestrator from its collaborators. None may be nil.
func New(settingsLoader *settings.Loader, analyser *format.Analyser, harvester *qrmeta.Harvester, templateExtractor *template.Extractor, registry *providers.Registry, sink audit.Sink, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		settingsLoader:    settingsLoader,
		analyser:          analyser,
		harvester:         harvester,
		templateExtractor: templateExtractor,
		registry:          registry,
		sink:              sink,
		logger:            logger,
	}
}

// Options carries per-call overrides to the settings snapshot.
type Options struct {
	// ForceAI, when set, replaces the settings store's AI_ENABLED value for
	// this call: true forces the AI tiers on, false forces them off.
	ForceAI *bool

	// MaxCost overrides settings.MaxCostPerDocument for this call only.
	MaxCost *float64

	// Timeout bounds the entire tier sequence, including every provider
	// call. Zero means no additional deadline beyond ctx's own.
	Timeout time.Duration
}

// Extract runs the full tier sequence against one document and returns
// exactly one terminal ExtractionResult.
func (o *Orchestrator) Extract(ctx context.Context, certificateID string, content []byte, mime, filename string, opts Options) *model.ExtractionResult {
	start := time.Now()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	settingsSnapshot := o.settingsLoader.Load(ctx)
	if opts.ForceAI != nil {
		settingsSnapshot.AIEnabled = *opts.ForceAI
	}
	if opts.MaxCost != nil {
		settingsSnapshot.MaxCostPerDocument = *opts.MaxCost
	}

	tracker := cost.NewTracker()
	result := &model.ExtractionResult{
		Success:   false,
		FinalTier: model.Tier0,
		Warnings:  []string{},
	}
	for _, w := range settingsSnapshot.InvalidPatternWarnings {
		result.AddWarning(w)
	}

	var best *model.ExtractedRecord
	var bestConfidence float64
	var bestTier model.Tier

	considerBest := func(record *model.ExtractedRecord, confidence float64, tier model.Tier) {
		if record == nil {
			return
		}
		if best == nil || confidence > bestConfidence || (confidence == bestConfidence && record.FieldCount() > best.FieldCount()) {
			best = record
			bestConfidence = confidence
			bestTier = tier
		}
	}

	// Tier 0: format analysis. Always attempted, never escalated away from —
	// its output only feeds what the later tiers are allowed to try.
	analysis, err := o.analyser.Analyze(ctx, content, mime, filename)
	tier0Entry := model.NewTierAuditEntry(certificateID, model.Tier0)
	if err != nil {
		reason := fmt.Sprintf("format analysis failed: %v", err)
		tier0Entry.EscalationReason = &reason
		tier0Entry.Complete(model.StatusFailed)
		o.sink.Record(ctx, *tier0Entry)
		result.TierAudit = append(result.TierAudit, *tier0Entry)

		tier4Entry := model.NewTierAuditEntry(certificateID, model.Tier4)
		tier4Entry.EscalationReason = &reason
		tier4Entry.Complete(model.StatusFailed)
		o.sink.Record(ctx, *tier4Entry)
		result.TierAudit = append(result.TierAudit, *tier4Entry)

		result.RequiresReview = true
		result.AddWarning(reason)
		result.FinalTier = model.Tier4
		result.TotalProcessingTimeMs = time.Since(start).Milliseconds()
		return result
	}
	tier0Entry.DocumentFormat = &analysis.Format
	tier0Entry.DocumentClassification = &analysis.Classification
	tier0Entry.PageCount = &analysis.PageCount
	tier0Entry.TextQuality = &analysis.TextQuality
	tier0Entry.Confidence = 1.0
	tier0Entry.Complete(model.StatusSuccess)
	o.sink.Record(ctx, *tier0Entry)
	result.TierAudit = append(result.TierAudit, *tier0Entry)

	result.DocumentFormat = analysis.Format
	result.DocumentClassification = analysis.Classification
	result.PageCount = analysis.PageCount
	result.RawText = analysis.TextContent
	result.FinalTier = model.Tier0
	result.Confidence = 1.0

	certType := model.ResolveCertType(analysis.CertificateType)
	isImage := analysis.Format == model.FormatImage
	isScanned := analysis.Format == model.FormatPDFScanned
	isPDF := analysis.Format == model.FormatPDFNative || analysis.Format == model.FormatPDFScanned || analysis.Format == model.FormatPDFHybrid

	// Tier 0.5: QR code / EXIF metadata harvest, only attempted against a
	// photograph or a scanned PDF page image.
	if isImage || isScanned {
		qrResult, qrErr := o.harvester.Harvest(ctx, content, analysis.Format)
		var outcome *decision.Outcome
		if qrErr == nil {
			confidence := 0.0
			if qrResult.HasVerificationData {
				confidence = 0.95
			}
			outcome = &decision.Outcome{Confidence: confidence}
		}
		var record *model.ExtractedRecord
		if qrResult != nil {
			result.QRCodes = qrResult.QRCodes
			result.Metadata = qrResult.Metadata
			if qrResult.HasVerificationData {
				record = recordFromQR(certType, qrResult)
			}
		}
		dec := o.evaluateTier(ctx, result, certificateID, model.Tier05, certType, settingsSnapshot, tracker, outcome, qrErr, 0, "", record)
		considerBest(record, confidenceOf(outcome), model.Tier05)
		if dec.Action == decision.ActionComplete {
			return o.finish(result, record, dec, model.Tier05, confidenceOf(outcome), start, tracker)
		}
		if dec.Action == decision.ActionAbort {
			return o.abort(result, best, bestTier, bestConfidence, dec, start, tracker)
		}
	} else {
		o.recordSkippedTier(ctx, result, certificateID, model.Tier05, "document is not a photograph or scanned page")
	}

	// Tier 1: per-certificate-type regex template extraction, only
	// attempted when a text layer exists.
	if analysis.HasTextLayer && analysis.TextContent != nil {
		custom := template.CustomPatternsFor(certType, settingsSnapshot.CustomPatterns)
		tmplResult := o.templateExtractor.Extract(certType, *analysis.TextContent, custom)
		outcome := &decision.Outcome{Confidence: tmplResult.Confidence}
		dec := o.evaluateTier(ctx, result, certificateID, model.Tier1, certType, settingsSnapshot, tracker, outcome, nil, 0, "", tmplResult.Data)
		considerBest(tmplResult.Data, tmplResult.Confidence, model.Tier1)
		if dec.Action == decision.ActionComplete {
			return o.finish(result, tmplResult.Data, dec, model.Tier1, tmplResult.Confidence, start, tracker)
		}
		if dec.Action == decision.ActionAbort {
			return o.abort(result, best, bestTier, bestConfidence, dec, start, tracker)
		}
	} else {
		o.recordSkippedTier(ctx, result, certificateID, model.Tier1, "no text layer to run template extraction against")
	}

	if !settingsSnapshot.AIEnabled {
		for _, tier := range []model.Tier{model.Tier15, model.Tier2, model.Tier3} {
			o.recordSkippedTier(ctx, result, certificateID, tier, "AI disabled")
		}
		return o.manualReview(ctx, result, best, bestTier, bestConfidence, "AI disabled", start, tracker, certificateID)
	}

	schema := extractionSchema()
	callCtx := providers.CallContext{CertificateType: string(certType), Filename: filename}

	// Tier 1.5: LLM text extraction against the already-extracted text
	// layer, the cheapest AI-backed tier.
	if analysis.HasTextLayer && analysis.TextContent != nil && o.registry.Has(providers.CapabilityTextExtraction) {
		teResult, providerName, callErr := o.registry.ExtractFromText(ctx, *analysis.TextContent, schema, callCtx)
		if callErr == nil {
			tracker.RecordCost(teResult.Cost, providerName)
		}
		outcome := outcomeFrom(callErr, teResult.Success, teResult.Confidence)
		record := recordFromData(certType, teResult.Data)
		considerBest(record, confidenceOf(outcome), model.Tier15)
		if callErr == nil && tracker.TotalCost() > settingsSnapshot.MaxCostPerDocument {
			o.recordCostExceeded(ctx, result, certificateID, model.Tier15, outcome, teResult.Cost, record, tracker.TotalCost(), settingsSnapshot.MaxCostPerDocument)
			return o.manualReview(ctx, result, best, bestTier, bestConfidence, "cost limit exceeded", start, tracker, certificateID)
		}
		dec := o.evaluateTier(ctx, result, certificateID, model.Tier15, certType, settingsSnapshot, tracker, outcome, callErr, teResult.Cost, providerName, record)
		if dec.Action == decision.ActionComplete {
			return o.finish(result, record, dec, model.Tier15, confidenceOf(outcome), start, tracker)
		}
		if dec.Action == decision.ActionAbort {
			return o.abort(result, best, bestTier, bestConfidence, dec, start, tracker)
		}
	} else {
		o.recordSkippedTier(ctx, result, certificateID, model.Tier15, "no text layer or no text-extraction provider registered")
	}

	// Tier 2: document intelligence (layout-aware structured extraction),
	// falling back to plain OCR inside the registry when no DI provider is
	// healthy.
	if o.registry.Has(providers.CapabilityDocumentIntelligence) || o.registry.Has(providers.CapabilityOCR) {
		diResult, providerName, callErr := o.registry.AnalyzeDocument(ctx, content, mime)
		spentCost := diResult.Cost * float64(maxInt(analysis.PageCount, 1))
		if callErr == nil {
			tracker.RecordCost(spentCost, providerName)
		}
		outcome := outcomeFrom(callErr, diResult.Success, diResult.Confidence)
		record := recordFromData(certType, diResult.StructuredData)
		if len(diResult.StructuredData) == 0 && diResult.Text != "" {
			custom := template.CustomPatternsFor(certType, settingsSnapshot.CustomPatterns)
			tmplResult := o.templateExtractor.Extract(certType, diResult.Text, custom)
			record = tmplResult.Data
		}
		considerBest(record, confidenceOf(outcome), model.Tier2)
		if callErr == nil && tracker.TotalCost() > settingsSnapshot.MaxCostPerDocument {
			o.recordCostExceeded(ctx, result, certificateID, model.Tier2, outcome, spentCost, record, tracker.TotalCost(), settingsSnapshot.MaxCostPerDocument)
			return o.manualReview(ctx, result, best, bestTier, bestConfidence, "cost limit exceeded", start, tracker, certificateID)
		}
		dec := o.evaluateTier(ctx, result, certificateID, model.Tier2, certType, settingsSnapshot, tracker, outcome, callErr, spentCost, providerName, record)
		if dec.Action == decision.ActionComplete {
			return o.finish(result, record, dec, model.Tier2, confidenceOf(outcome), start, tracker)
		}
		if dec.Action == decision.ActionAbort {
			return o.abort(result, best, bestTier, bestConfidence, dec, start, tracker)
		}
	} else {
		o.recordSkippedTier(ctx, result, certificateID, model.Tier2, "no document intelligence or OCR provider registered")
	}

	// Tier 3: vision, the most expensive tier, reading the page images
	// directly instead of any previously extracted text.
	if (isImage || isPDF) && o.registry.Has(providers.CapabilityVision) {
		var visionResult providers.VisionResult
		var providerName string
		var callErr error
		if isImage {
			visionResult, providerName, callErr = o.registry.ExtractFromImage(ctx, content, mime, schema, callCtx)
		} else {
			visionResult, providerName, callErr = o.registry.ExtractFromPDF(ctx, content, schema, callCtx)
		}
		if callErr == nil {
			tracker.RecordCost(visionResult.Cost, providerName)
		}
		outcome := outcomeFrom(callErr, visionResult.Success, visionResult.Confidence)
		record := recordFromData(certType, visionResult.Data)
		considerBest(record, confidenceOf(outcome), model.Tier3)
		if callErr == nil && tracker.TotalCost() > settingsSnapshot.MaxCostPerDocument {
			o.recordCostExceeded(ctx, result, certificateID, model.Tier3, outcome, visionResult.Cost, record, tracker.TotalCost(), settingsSnapshot.MaxCostPerDocument)
			return o.manualReview(ctx, result, best, bestTier, bestConfidence, "cost limit exceeded", start, tracker, certificateID)
		}
		dec := o.evaluateTier(ctx, result, certificateID, model.Tier3, certType, settingsSnapshot, tracker, outcome, callErr, visionResult.Cost, providerName, record)
		if dec.Action == decision.ActionComplete {
			return o.finish(result, record, dec, model.Tier3, confidenceOf(outcome), start, tracker)
		}
		if dec.Action == decision.ActionAbort {
			return o.abort(result, best, bestTier, bestConfidence, dec, start, tracker)
		}
	} else {
		o.recordSkippedTier(ctx, result, certificateID, model.Tier3, "document is not image/PDF or no vision provider registered")
	}

	// Tier 4: manual review. Every automated tier either escalated or was
	// skipped; surface whatever partial record scored highest.
	return o.manualReview(ctx, result, best, bestTier, bestConfidence, "exhausted every extraction tier without meeting its confidence threshold", start, tracker, certificateID)
}

// evaluateTier records cost/audit bookkeeping shared by every gated tier
// (0.5, 1, 1.5, 2, 3) and returns the decision engine's verdict.
func (o *Orchestrator) evaluateTier(ctx context.Context, result *model.ExtractionResult, certificateID string, tier model.Tier, certType model.CertType, settingsSnapshot *model.Settings, tracker *cost.Tracker, outcome *decision.Outcome, callErr error, spentCost float64, providerName string, record *model.ExtractedRecord) decision.Decision {
	entry := model.NewTierAuditEntry(certificateID, tier)
	entry.Cost = spentCost
	if outcome != nil {
		entry.Confidence = outcome.Confidence
	}
	if record != nil {
		fieldCount := record.FieldCount()
		entry.ExtractedFieldCount = fieldCount
	}

	dec := decision.Decide(decision.Input{
		CurrentResult: outcome,
		Err:           callErr,
		Settings:      settingsSnapshot,
		CostTracker:   tracker,
		CurrentTier:   tier,
		DocType:       certType,
	})

	reason := dec.Reason
	switch dec.Action {
	case decision.ActionComplete:
		entry.Complete(model.StatusSuccess)
	case decision.ActionEscalate:
		entry.EscalationReason = &reason
		entry.Complete(model.StatusEscalated)
	case decision.ActionAbort:
		entry.EscalationReason = &reason
		entry.Complete(model.StatusFailed)
	}

	o.sink.Record(ctx, *entry)
	result.TierAudit = append(result.TierAudit, *entry)
	if providerName != "" {
		o.logger.Debug().Str("certificateId", certificateID).Str("tier", string(tier)).Str("provider", providerName).Str("action", string(dec.Action)).Msg("tier evaluated")
	}
	return dec
}

// recordCostExceeded writes a tier's own audit entry as Escalated("cost
// limit exceeded") and appends a matching warning, used when a paid tier's
// call succeeds but pushes the running total past MaxCostPerDocument. The
// caller routes straight to manual review afterward instead of letting the
// decision engine accept the tier on confidence alone.
func (o *Orchestrator) recordCostExceeded(ctx context.Context, result *model.ExtractionResult, certificateID string, tier model.Tier, outcome *decision.Outcome, spentCost float64, record *model.ExtractedRecord, totalCost, maxCost float64) {
	entry := model.NewTierAuditEntry(certificateID, tier)
	entry.Cost = spentCost
	if outcome != nil {
		entry.Confidence = outcome.Confidence
	}
	if record != nil {
		entry.ExtractedFieldCount = record.FieldCount()
	}
	reason := "cost limit exceeded"
	entry.EscalationReason = &reason
	entry.Complete(model.StatusEscalated)
	o.sink.Record(ctx, *entry)
	result.TierAudit = append(result.TierAudit, *entry)
	result.AddWarning(fmt.Sprintf("cost limit exceeded after %s: total cost %.4f exceeds max %.4f", tier, totalCost, maxCost))
}

func (o *Orchestrator) recordSkippedTier(ctx context.Context, result *model.ExtractionResult, certificateID string, tier model.Tier, reason string) {
	skip := model.NewTierAuditEntry(certificateID, tier)
	skip.EscalationReason = &reason
	skip.Complete(model.StatusSkipped)
	o.sink.Record(ctx, *skip)
	result.TierAudit = append(result.TierAudit, *skip)
}

func (o *Orchestrator) finish(result *model.ExtractionResult, record *model.ExtractedRecord, dec decision.Decision, tier model.Tier, confidence float64, start time.Time, tracker *cost.Tracker) *model.ExtractionResult {
	result.Success = true
	result.Data = record
	result.FinalTier = tier
	result.Confidence = confidence
	result.TotalCost = tracker.TotalCost()
	result.TotalProcessingTimeMs = time.Since(start).Milliseconds()
	for _, msg := range record.Validate() {
		result.AddWarning("field validation: " + msg)
	}
	return result
}

func (o *Orchestrator) abort(result *model.ExtractionResult, best *model.ExtractedRecord, bestTier model.Tier, bestConfidence float64, dec decision.Decision, start time.Time, tracker *cost.Tracker) *model.ExtractionResult {
	result.Success = best != nil
	result.Data = best
	result.FinalTier = bestTier
	result.Confidence = bestConfidence
	result.RequiresReview = true
	result.AddWarning("aborted: " + dec.Reason)
	result.TotalCost = tracker.TotalCost()
	result.TotalProcessingTimeMs = time.Since(start).Milliseconds()
	return result
}

func (o *Orchestrator) manualReview(ctx context.Context, result *model.ExtractionResult, best *model.ExtractedRecord, bestTier model.Tier, bestConfidence float64, reason string, start time.Time, tracker *cost.Tracker, certificateID string) *model.ExtractionResult {
	reviewEntry := model.NewTierAuditEntry(certificateID, model.Tier4)
	reviewEntry.Confidence = bestConfidence
	if best != nil {
		reviewEntry.ExtractedFieldCount = best.FieldCount()
	}
	reviewEntry.Complete(model.StatusSuccess)
	o.sink.Record(ctx, *reviewEntry)
	result.TierAudit = append(result.TierAudit, *reviewEntry)

	result.Success = best != nil
	result.Data = best
	result.FinalTier = model.Tier4
	result.Confidence = bestConfidence
	result.RequiresReview = true
	result.AddWarning("requires manual review: " + reason)
	result.TotalCost = tracker.TotalCost()
	result.TotalProcessingTimeMs = time.Since(start).Milliseconds()
	return result
}

func outcomeFrom(callErr error, success bool, confidence float64) *decision.Outcome {
	if callErr != nil {
		return nil
	}
	if !success {
		return &decision.Outcome{Confidence: 0}
	}
	return &decision.Outcome{Confidence: confidence}
}

func confidenceOf(outcome *decision.Outcome) float64 {
	if outcome == nil {
		return 0
	}
	return outcome.Confidence
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
