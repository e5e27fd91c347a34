// Package format implements Tier 0: container format detection, text-layer
// quality scoring, and certificate type/classification (delegated to
// typedetect).
package format

import (
	"context"
	"strings"

	"github.com/compliancecore/certextract/internal/extraction/typedetect"
	"github.com/compliancecore/certextract/internal/model"
	"github.com/compliancecore/certextract/pkg/pdfx"
)

// Analyser runs Tier 0 against raw document bytes.
type Analyser struct {
	pdf      *pdfx.Extractor
	detector *typedetect.Detector
}

// NewAnalyser builds an Analyser over a PDF extractor and a type detector.
func NewAnalyser(pdfExtractor *pdfx.Extractor, detector *typedetect.Detector) *Analyser {
	return &Analyser{pdf: pdfExtractor, detector: detector}
}

// Analyze detects format, extracts whatever text layer exists, scores its
// quality, and resolves the certificate type. Tier 0 always succeeds
// (confidence 1.0 is assigned by the caller, not here — Tier 0 has no
// concept of "failure").
func (a *Analyser) Analyze(ctx context.Context, content []byte, declaredMIME, filename string) (*model.FormatAnalysis, error) {
	docFormat := detectFormat(declaredMIME, filename)

	analysis := &model.FormatAnalysis{Format: docFormat}

	switch docFormat {
	case model.FormatPDFNative, model.FormatPDFScanned, model.FormatPDFHybrid:
		if err := a.analyzePDF(ctx, content, analysis); err != nil {
			return nil, err
		}
	case model.FormatImage:
		analysis.IsScanned = true
		analysis.PageCount = 1
		analysis.HasTextLayer = false
	case model.FormatDOCX:
		text := extractDOCXText(content)
		analysis.TextContent = &text
		analysis.HasTextLayer = text != ""
		analysis.PageCount = 1
	case model.FormatXLSX:
		text := extractXLSXText(content)
		analysis.TextContent = &text
		analysis.HasTextLayer = text != ""
		analysis.PageCount = 1
	case model.FormatHTML:
		text := stripHTMLTags(string(content))
		analysis.TextContent = &text
		analysis.HasTextLayer = text != ""
		analysis.PageCount = 1
	default:
		// CSV, plain text, email: assume a text layer exists.
		text := string(content)
		analysis.TextContent = &text
		analysis.HasTextLayer = true
		analysis.PageCount = 1
	}

	textContent := ""
	if analysis.TextContent != nil {
		textContent = *analysis.TextContent
	}

	detection := a.detector.Detect(ctx, filename, textContent)
	analysis.CertificateType = string(detection.Type)
	analysis.TypeDetectSource = detection.Source
	analysis.TypeDetectConf = detection.Confidence
	analysis.Classification = model.ClassifyCertType(detection.Type)

	return analysis, nil
}

func (a *Analyser) analyzePDF(ctx context.Context, content []byte, analysis *model.FormatAnalysis) error {
	pages, err := a.pdf.ExtractPages(ctx, content)
	if err != nil {
		// Degrade gracefully: empty text layer, continue.
		analysis.PageCount = 0
		analysis.HasTextLayer = false
		analysis.IsScanned = true
		empty := ""
		analysis.TextContent = &empty
		return nil
	}

	analysis.PageCount = len(pages)
	var b strings.Builder
	totalChars := 0
	totalWords := 0
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Text)
		totalChars += len(p.Text)
		totalWords += len(strings.Fields(p.Text))
	}
	text := b.String()
	analysis.TextContent = &text

	if analysis.PageCount == 0 {
		analysis.AvgCharsPerPage = 0
	} else {
		analysis.AvgCharsPerPage = float64(totalChars) / float64(analysis.PageCount)
	}

	// textQuality = min(1, (avg/500) * (wordCount/(pages*50)))
	quality := 0.0
	if analysis.PageCount > 0 {
		quality = (analysis.AvgCharsPerPage / 500) * (float64(totalWords) / (float64(analysis.PageCount) * 50))
	}
	if quality > 1 {
		quality = 1
	}
	if quality < 0 {
		quality = 0
	}
	analysis.TextQuality = quality

	switch {
	case analysis.AvgCharsPerPage < 50 || analysis.TextQuality < 0.1:
		analysis.IsScanned = true
		analysis.Format = model.FormatPDFScanned
	case analysis.AvgCharsPerPage <= 100:
		analysis.IsHybrid = true
		analysis.Format = model.FormatPDFHybrid
	default:
		analysis.Format = model.FormatPDFNative
	}

	analysis.HasTextLayer = !analysis.IsScanned && text != ""
	return nil
}

// detectFormat maps a declared MIME type to a DocumentFormat, falling back
// to the filename extension when the MIME is generic or absent.
func detectFormat(mime, filename string) model.DocumentFormat {
	if f := formatFromMIME(mime); f != model.FormatUnknown {
		return f
	}
	return formatFromExtension(filename)
}

func formatFromMIME(mime string) model.DocumentFormat {
	mime = strings.ToLower(strings.TrimSpace(mime))
	switch {
	case mime == "application/pdf":
		return model.FormatPDFNative // refined to scanned/hybrid after text extraction
	case mime == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return model.FormatDOCX
	case mime == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return model.FormatXLSX
	case mime == "text/csv":
		return model.FormatCSV
	case mime == "text/html":
		return model.FormatHTML
	case mime == "text/plain":
		return model.FormatPlainText
	case mime == "message/rfc822":
		return model.FormatEmail
	case strings.HasPrefix(mime, "image/"):
		return model.FormatImage
	default:
		return model.FormatUnknown
	}
}

func formatFromExtension(filename string) model.DocumentFormat {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return model.FormatPDFNative
	case strings.HasSuffix(lower, ".docx"):
		return model.FormatDOCX
	case strings.HasSuffix(lower, ".xlsx"):
		return model.FormatXLSX
	case strings.HasSuffix(lower, ".csv"):
		return model.FormatCSV
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return model.FormatHTML
	case strings.HasSuffix(lower, ".txt"):
		return model.FormatPlainText
	case strings.HasSuffix(lower, ".eml"):
		return model.FormatEmail
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"),
		strings.HasSuffix(lower, ".png"), strings.HasSuffix(lower, ".tiff"), strings.HasSuffix(lower, ".heic"):
		return model.FormatImage
	default:
		return model.FormatUnknown
	}
}
