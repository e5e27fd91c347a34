// Package anthropicprovider adapts the Anthropic Claude API to the
// providers.TextExtraction and providers.Vision capabilities, generalising
// a Claude retry loop from free-text chat completion into
// schema-constrained structured extraction.
package anthropicprovider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/compliancecore/certextract/internal/common"
	"github.com/compliancecore/certextract/internal/extraction/providers"
	"github.com/compliancecore/certextract/internal/interfaces"
)

// costPerCall is a flat per-request cost estimate in the same currency unit
// as Settings.MaxCostPerDocument; Claude's actual usage-based billing isn't
// exposed on every SDK response shape, so the cost tracker is fed a static
// per-tier estimate instead.
const costPerCall = 0.004

// Provider implements providers.TextExtraction and providers.Vision against
// the Anthropic Messages API.
type Provider struct {
	config    *common.ClaudeConfig
	kvStorage interfaces.KeyValueStorage
	logger    arbor.ILogger

	client    anthropic.Client
	apiKey    string
	clientSet bool
	limiter   *rate.Limiter
}

// New builds an Anthropic-backed provider. The client is created lazily on
// first call, mirroring ProviderFactory.GetClaudeClient.
func New(config *common.ClaudeConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *Provider {
	return &Provider{config: config, kvStorage: kvStorage, logger: logger}
}

func (p *Provider) Name() string { return "anthropic-claude" }

func (p *Provider) Capabilities() []providers.Capability {
	return []providers.Capability{providers.CapabilityTextExtraction, providers.CapabilityVision}
}

// Healthy reports whether an API key can be resolved; it does not make a
// network call on every health check.
func (p *Provider) Healthy(ctx context.Context) bool {
	_, err := p.resolveKey(ctx)
	return err == nil
}

func (p *Provider) resolveKey(ctx context.Context) (string, error) {
	if p.apiKey != "" {
		return p.apiKey, nil
	}
	key, err := common.ResolveAPIKey(ctx, p.kvStorage, "anthropic_api_key", p.config.APIKey)
	if err != nil {
		return "", fmt.Errorf("resolve anthropic api key: %w", err)
	}
	p.apiKey = key
	return key, nil
}

func (p *Provider) client0(ctx context.Context) (anthropic.Client, error) {
	key, err := p.resolveKey(ctx)
	if err != nil {
		return anthropic.Client{}, err
	}
	if !p.clientSet {
		p.client = anthropic.NewClient(option.WithAPIKey(key))
		p.clientSet = true
	}
	return p.client, nil
}

// ExtractFromText asks Claude to return JSON matching schema, extracted
// from the given text layer (Tier 1.5).
func (p *Provider) ExtractFromText(ctx context.Context, text string, schema map[string]interface{}, callCtx providers.CallContext) (providers.TextExtractionResult, error) {
	prompt := buildExtractionPrompt(text, schema, callCtx)
	raw, err := p.generate(ctx, prompt)
	if err != nil {
		return providers.TextExtractionResult{}, err
	}
	data, confidence := parseStructuredJSON(raw)
	return providers.TextExtractionResult{
		Success:     len(data) > 0,
		Data:        data,
		Confidence:  confidence,
		Cost:        costPerCall,
		RawResponse: raw,
	}, nil
}

// ExtractFromImage sends an image to Claude's vision input and asks for
// schema-shaped JSON back (Tier 3, image path).
func (p *Provider) ExtractFromImage(ctx context.Context, imgBytes []byte, mime string, schema map[string]interface{}, callCtx providers.CallContext) (providers.VisionResult, error) {
	client, err := p.client0(ctx)
	if err != nil {
		return providers.VisionResult{}, err
	}

	prompt := buildExtractionPrompt("", schema, callCtx)
	block := anthropic.NewImageBlockBase64(mime, encodeBase64(imgBytes))
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.modelOrDefault()),
		MaxTokens: int64(maxTokensOrDefault(p.config)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(block, anthropic.NewTextBlock(prompt)),
		},
	}

	raw, err := p.callWithRetry(ctx, client, params)
	if err != nil {
		return providers.VisionResult{}, err
	}
	data, confidence := parseStructuredJSON(raw)
	return providers.VisionResult{Success: len(data) > 0, Data: data, Confidence: confidence, Cost: costPerCall, RawResponse: raw}, nil
}

// ExtractFromPDF is not supported: Claude's Messages API does not accept
// whole-PDF input in the SDK version this module depends on, so this
// provider does not advertise PDFCapableVision.
func (p *Provider) ExtractFromPDF(ctx context.Context, pdfBytes []byte, schema map[string]interface{}, callCtx providers.CallContext) (providers.VisionResult, error) {
	return providers.VisionResult{}, fmt.Errorf("anthropic-claude: pdf vision not supported")
}

func (p *Provider) generate(ctx context.Context, prompt string) (string, error) {
	client, err := p.client0(ctx)
	if err != nil {
		return "", err
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.modelOrDefault()),
		MaxTokens: int64(maxTokensOrDefault(p.config)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	return p.callWithRetry(ctx, client, params)
}

// rateLimiter lazily builds a token-bucket limiter from config.RateLimit
// (a minimum interval between calls, e.g. "1s").
func (p *Provider) rateLimiter() *rate.Limiter {
	if p.limiter != nil {
		return p.limiter
	}
	interval := 1 * time.Second
	if p.config.RateLimit != "" {
		if d, err := time.ParseDuration(p.config.RateLimit); err == nil && d > 0 {
			interval = d
		}
	}
	p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	return p.limiter
}

// callWithRetry mirrors ProviderFactory.generateWithClaude's bounded retry
// loop, backing off linearly (2s, 4s, 6s) and honouring context
// cancellation between attempts.
func (p *Provider) callWithRetry(ctx context.Context, client anthropic.Client, params anthropic.MessageNewParams) (string, error) {
	if err := p.rateLimiter().Wait(ctx); err != nil {
		return "", fmt.Errorf("anthropic rate limiter: %w", err)
	}

	const maxRetries = 3
	var resp *anthropic.Message
	var apiErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, apiErr = client.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}
		if attempt == maxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		p.logger.Warn().Int("attempt", attempt+1).Dur("backoff", backoff).Err(apiErr).Msg("retrying anthropic extraction call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("anthropic call failed after %d retries: %w", maxRetries, apiErr)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from anthropic")
	}
	return text.String(), nil
}

func (p *Provider) modelOrDefault() string {
	if p.config.Model != "" {
		return p.config.Model
	}
	return "claude-haiku-3-5-20241022"
}

func maxTokensOrDefault(cfg *common.ClaudeConfig) int {
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 4096
}

func buildExtractionPrompt(text string, schema map[string]interface{}, callCtx providers.CallContext) string {
	schemaJSON, _ := json.MarshalIndent(schema, "", "  ")
	var b strings.Builder
	b.WriteString("Extract compliance certificate fields as JSON matching this schema. ")
	b.WriteString("Respond with JSON only, no prose.\n\n")
	if callCtx.CertificateType != "" {
		fmt.Fprintf(&b, "Certificate type: %s\n", callCtx.CertificateType)
	}
	if callCtx.Filename != "" {
		fmt.Fprintf(&b, "Filename: %s\n", callCtx.Filename)
	}
	b.WriteString("Schema:\n")
	b.Write(schemaJSON)
	if text != "" {
		b.WriteString("\n\nDocument text:\n")
		b.WriteString(text)
	}
	return b.String()
}

// parseStructuredJSON decodes the model's JSON response, tolerating a
// fenced ```json code block, and derives a confidence score from the
// fraction of the returned top-level keys whose value is non-empty.
func parseStructuredJSON(raw string) (map[string]interface{}, float64) {
	cleaned := stripCodeFence(raw)
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
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

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
