// Package tesseractprovider implements providers.OCR against a local
// Tesseract install via gosseract, adapted from
// adverant-Adverant-Nexus-Open-Core's TesseractOCR (fallback offline OCR,
// used there when their cloud OCR was unavailable; used here as the OCR
// capability behind Tier 2's Document Intelligence fallback).
package tesseractprovider

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/compliancecore/certextract/internal/extraction/providers"
)

// Provider implements providers.OCR using a local tesseract binary through
// gosseract. It is always "healthy" if the binary path is configured; the
// actual binary availability surfaces as a call error instead.
type Provider struct {
	tesseractPath string
}

// New builds a Tesseract-backed OCR provider. An empty path falls back to
// the system PATH lookup gosseract performs by default.
func New(tesseractPath string) *Provider {
	return &Provider{tesseractPath: tesseractPath}
}

func (p *Provider) Name() string { return "tesseract-ocr" }

func (p *Provider) Capabilities() []providers.Capability {
	return []providers.Capability{providers.CapabilityOCR}
}

func (p *Provider) Healthy(ctx context.Context) bool { return true }

// ExtractText runs Tesseract OCR over raw image bytes. mime is accepted for
// interface symmetry with the other capabilities; gosseract infers the
// image format from the bytes themselves.
func (p *Provider) ExtractText(ctx context.Context, imgBytes []byte, mime string) (providers.OCRResult, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(imgBytes); err != nil {
		return providers.OCRResult{}, fmt.Errorf("tesseract: set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return providers.OCRResult{}, fmt.Errorf("tesseract: recognize: %w", err)
	}

	return providers.OCRResult{
		Success:    text != "",
		Text:       text,
		Confidence: confidenceFromText(text),
		Cost:       0,
		PageCount:  1,
	}, nil
}

// confidenceFromText estimates OCR confidence from length, word count, and
// alphabetic-character ratio as proxies for recognition quality, capped at
// 0.85 (Tesseract never self-reports higher confidence than cloud OCR in
// this pipeline's tier ordering).
func confidenceFromText(text string) float64 {
	confidence := 0.5

	if len(text) > 1000 {
		confidence += 0.1
	}
	if len(text) > 5000 {
		confidence += 0.1
	}

	words := strings.Fields(text)
	if len(words) > 100 {
		confidence += 0.1
	}

	alphaCount := 0
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			alphaCount++
		}
	}
	if len(text) > 0 {
		alphaRatio := float64(alphaCount) / float64(len(text))
		if alphaRatio > 0.5 && alphaRatio < 0.9 {
			confidence += 0.1
		}
	}

	if confidence > 0.85 {
		confidence = 0.85
	}
	return confidence
}
