// Package providers defines the capability-indexed contract every
// extraction backend (LLM text extraction, vision, OCR, document
// intelligence) implements, and the registry that dispatches calls to the
// first healthy provider advertising a capability.
package providers

import "context"

// Capability identifies one kind of extraction call a provider may support.
// A single provider implementation can advertise more than one.
type Capability string

const (
	CapabilityTextExtraction       Capability = "text-extraction"
	CapabilityVision               Capability = "vision"
	CapabilityOCR                  Capability = "ocr"
	CapabilityDocumentIntelligence Capability = "document-intelligence"
)

// CallContext carries the caller-supplied hints a provider may use to shape
// its prompt or request (certificate type, filename, free-form hints).
type CallContext struct {
	CertificateType string
	Filename        string
	Hints           map[string]string
}

// TextExtractionResult is the shape every TextExtraction call returns.
type TextExtractionResult struct {
	Success     bool
	Data        map[string]interface{}
	Confidence  float64
	Cost        float64
	RawResponse string
}

// VisionResult is the shape every Vision call returns.
type VisionResult struct {
	Success     bool
	Data        map[string]interface{}
	Confidence  float64
	Cost        float64
	RawResponse string
}

// OCRResult is the shape every OCR call returns.
type OCRResult struct {
	Success    bool
	Text       string
	Confidence float64
	Cost       float64
	PageCount  int
}

// DocumentIntelligenceResult is the shape every DocumentIntelligence call returns.
type DocumentIntelligenceResult struct {
	Success        bool
	Text           string
	StructuredData map[string]interface{}
	Confidence     float64
	Cost           float64
	PageCount      int
}

// TextExtraction is implemented by providers that turn a text layer plus a
// JSON schema into structured field data (Tier 1.5).
type TextExtraction interface {
	ExtractFromText(ctx context.Context, text string, schema map[string]interface{}, callCtx CallContext) (TextExtractionResult, error)
}

// Vision is implemented by providers that read an image or a PDF rendered
// as images and return structured field data (Tier 3).
type Vision interface {
	ExtractFromImage(ctx context.Context, bytes []byte, mime string, schema map[string]interface{}, callCtx CallContext) (VisionResult, error)
	ExtractFromPDF(ctx context.Context, pdfBytes []byte, schema map[string]interface{}, callCtx CallContext) (VisionResult, error)
}

// OCR is implemented by providers that return raw recognised text with no
// structured interpretation (feeds back into the template extractor).
type OCR interface {
	ExtractText(ctx context.Context, bytes []byte, mime string) (OCRResult, error)
}

// DocumentIntelligence is implemented by providers that combine layout
// analysis with structured extraction (Tier 2).
type DocumentIntelligence interface {
	AnalyzeDocument(ctx context.Context, bytes []byte, mime string) (DocumentIntelligenceResult, error)
}

// Provider is the minimum every registered backend must implement: a stable
// name (used for circuit-breaker keying and audit), the set of capabilities
// it advertises, and a cheap health check. A provider asserts the narrower
// capability interfaces (TextExtraction, Vision, OCR, DocumentIntelligence)
// it actually implements; the registry type-asserts before invoking.
type Provider interface {
	Name() string
	Capabilities() []Capability
	Healthy(ctx context.Context) bool
}

// PDFCapableVision is a marker implemented by Vision providers whose
// ExtractFromPDF does real PDF handling rather than rejecting the call —
// the registry only tries PDF-vision calls against providers asserting this.
type PDFCapableVision interface {
	Vision
	SupportsPDF() bool
}
