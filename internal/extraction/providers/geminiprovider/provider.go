// Package geminiprovider adapts Google Gemini to the providers.TextExtraction,
// providers.Vision and providers.DocumentIntelligence capabilities,
// generalising free-text chat completion into schema-constrained structured
// extraction, reusing JSON-schema conversion and retry/backoff machinery.
package geminiprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/compliancecore/certextract/internal/common"
	"github.com/compliancecore/certextract/internal/extraction/providers"
	"github.com/compliancecore/certextract/internal/interfaces"
)

// costPerCall mirrors the flat per-call cost estimate used for the
// Anthropic provider; Gemini's Vision path is also used for Tier 2
// (Document Intelligence fallback) since the corpus carries no dedicated
// DI SDK.
const costPerCall = 0.003

// Provider implements providers.TextExtraction, providers.Vision and
// providers.DocumentIntelligence against the Gemini API.
type Provider struct {
	config    *common.GeminiConfig
	kvStorage interfaces.KeyValueStorage
	logger    arbor.ILogger

	client  *genai.Client
	apiKey  string
	limiter *rate.Limiter
}

// New builds a Gemini-backed provider. The client is created lazily on
// first call, mirroring ProviderFactory.GetGeminiClient.
func New(config *common.GeminiConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *Provider {
	return &Provider{config: config, kvStorage: kvStorage, logger: logger}
}

func (p *Provider) Name() string { return "google-gemini" }

func (p *Provider) Capabilities() []providers.Capability {
	return []providers.Capability{
		providers.CapabilityTextExtraction,
		providers.CapabilityVision,
		providers.CapabilityDocumentIntelligence,
	}
}

// SupportsPDF marks this provider as PDFCapableVision: Gemini accepts
// whole-PDF bytes as inline data with mime type application/pdf.
func (p *Provider) SupportsPDF() bool { return true }

func (p *Provider) Healthy(ctx context.Context) bool {
	_, err := p.resolveKey(ctx)
	return err == nil
}

func (p *Provider) resolveKey(ctx context.Context) (string, error) {
	if p.apiKey != "" {
		return p.apiKey, nil
	}
	key, err := common.ResolveAPIKey(ctx, p.kvStorage, "gemini_api_key", p.config.APIKey)
	if err != nil {
		return "", fmt.Errorf("resolve gemini api key: %w", err)
	}
	p.apiKey = key
	return key, nil
}

func (p *Provider) client0(ctx context.Context) (*genai.Client, error) {
	if p.client != nil {
		return p.client, nil
	}
	key, err := p.resolveKey(ctx)
	if err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	p.client = client
	return client, nil
}

// ExtractFromText asks Gemini for schema-constrained JSON extracted from a
// text layer (Tier 1.5).
func (p *Provider) ExtractFromText(ctx context.Context, text string, schema map[string]interface{}, callCtx providers.CallContext) (providers.TextExtractionResult, error) {
	prompt := buildExtractionPrompt(text, callCtx)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	raw, err := p.generate(ctx, contents, schema)
	if err != nil {
		return providers.TextExtractionResult{}, err
	}
	data, confidence := parseStructuredJSON(raw)
	return providers.TextExtractionResult{Success: len(data) > 0, Data: data, Confidence: confidence, Cost: costPerCall, RawResponse: raw}, nil
}

// ExtractFromImage sends image bytes inline and asks for schema-shaped JSON.
func (p *Provider) ExtractFromImage(ctx context.Context, imgBytes []byte, mime string, schema map[string]interface{}, callCtx providers.CallContext) (providers.VisionResult, error) {
	prompt := buildExtractionPrompt("", callCtx)
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(imgBytes, mime),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	raw, err := p.generate(ctx, contents, schema)
	if err != nil {
		return providers.VisionResult{}, err
	}
	data, confidence := parseStructuredJSON(raw)
	return providers.VisionResult{Success: len(data) > 0, Data: data, Confidence: confidence, Cost: costPerCall, RawResponse: raw}, nil
}

// ExtractFromPDF sends whole-PDF bytes inline as application/pdf.
func (p *Provider) ExtractFromPDF(ctx context.Context, pdfBytes []byte, schema map[string]interface{}, callCtx providers.CallContext) (providers.VisionResult, error) {
	prompt := buildExtractionPrompt("", callCtx)
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(pdfBytes, "application/pdf"),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	raw, err := p.generate(ctx, contents, schema)
	if err != nil {
		return providers.VisionResult{}, err
	}
	data, confidence := parseStructuredJSON(raw)
	return providers.VisionResult{Success: len(data) > 0, Data: data, Confidence: confidence, Cost: costPerCall, RawResponse: raw}, nil
}

// AnalyzeDocument is Tier 2's Document Intelligence call. The corpus has no
// dedicated layout-analysis SDK, so this reuses the same structured vision
// call over the whole document (PDF or image) and reports the page text
// alongside the structured fields.
func (p *Provider) AnalyzeDocument(ctx context.Context, docBytes []byte, mime string) (providers.DocumentIntelligenceResult, error) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"fullText": map[string]interface{}{"type": "string"},
		},
	}
	var result providers.VisionResult
	var err error
	if mime == "application/pdf" {
		result, err = p.ExtractFromPDF(ctx, docBytes, schema, providers.CallContext{})
	} else {
		result, err = p.ExtractFromImage(ctx, docBytes, mime, schema, providers.CallContext{})
	}
	if err != nil {
		return providers.DocumentIntelligenceResult{}, err
	}
	text, _ := result.Data["fullText"].(string)
	return providers.DocumentIntelligenceResult{
		Success:        result.Success,
		Text:           text,
		StructuredData: result.Data,
		Confidence:     result.Confidence,
		Cost:           result.Cost,
		PageCount:      1,
	}, nil
}

// rateLimiter lazily builds a token-bucket limiter from config.RateLimit
// (a minimum interval between calls, e.g. "4s"), mirroring the EODHD
// client's per-client rate.Limiter.
func (p *Provider) rateLimiter() *rate.Limiter {
	if p.limiter != nil {
		return p.limiter
	}
	interval := 4 * time.Second
	if p.config.RateLimit != "" {
		if d, err := time.ParseDuration(p.config.RateLimit); err == nil && d > 0 {
			interval = d
		}
	}
	p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	return p.limiter
}

func (p *Provider) generate(ctx context.Context, contents []*genai.Content, schema map[string]interface{}) (string, error) {
	if err := p.rateLimiter().Wait(ctx); err != nil {
		return "", fmt.Errorf("gemini rate limiter: %w", err)
	}

	client, err := p.client0(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(p.temperature())}
	if genaiSchema, err := convertToGenaiSchema(schema); err == nil && genaiSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = genaiSchema
	} else if err != nil {
		p.logger.Warn().Err(err).Msg("failed to convert extraction schema, continuing unconstrained")
	}

	model := p.modelOrDefault()
	retry := defaultRetryConfig()

	var resp *genai.GenerateContentResponse
	var apiErr error
	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		resp, apiErr = client.Models.GenerateContent(ctx, model, contents, config)
		if apiErr == nil {
			break
		}
		if attempt == retry.MaxRetries {
			break
		}

		var backoff time.Duration
		if isRateLimitError(apiErr) {
			backoff = retry.calculateBackoff(attempt, extractRetryDelay(apiErr))
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		p.logger.Warn().Int("attempt", attempt+1).Dur("backoff", backoff).Err(apiErr).Msg("retrying gemini extraction call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("gemini call failed after %d retries: %w", retry.MaxRetries, apiErr)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in gemini response")
	}
	return text, nil
}

func (p *Provider) modelOrDefault() string {
	if p.config.Model != "" {
		return p.config.Model
	}
	return "gemini-3-flash-preview"
}

func (p *Provider) temperature() float32 {
	if p.config.Temperature > 0 {
		return p.config.Temperature
	}
	return 0.2
}

func buildExtractionPrompt(text string, callCtx providers.CallContext) string {
	prompt := "Extract compliance certificate fields as JSON matching the configured response schema."
	if callCtx.CertificateType != "" {
		prompt += fmt.Sprintf(" Certificate type: %s.", callCtx.CertificateType)
	}
	if callCtx.Filename != "" {
		prompt += fmt.Sprintf(" Filename: %s.", callCtx.Filename)
	}
	if text != "" {
		prompt += "\n\nDocument text:\n" + text
	}
	return prompt
}

func parseStructuredJSON(raw string) (map[string]interface{}, float64) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, 0
	}
	if len(data) == 0 {
		return data, 0
	}
	populated := 0
	for _, v := range data {
		if v != nil && v != "" {
			populated++
		}
	}
	return data, float64(populated) / float64(len(data))
}
