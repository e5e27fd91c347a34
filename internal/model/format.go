package model

// DocumentFormat is the detected container format of an ingested document.
type DocumentFormat string

const (
	FormatPDFNative  DocumentFormat = "pdf-native"
	FormatPDFScanned DocumentFormat = "pdf-scanned"
	FormatPDFHybrid  DocumentFormat = "pdf-hybrid"
	FormatDOCX       DocumentFormat = "docx"
	FormatXLSX       DocumentFormat = "xlsx"
	FormatCSV        DocumentFormat = "csv"
	FormatHTML       DocumentFormat = "html"
	FormatPlainText  DocumentFormat = "text"
	FormatEmail      DocumentFormat = "email"
	FormatImage      DocumentFormat = "image"
	FormatUnknown    DocumentFormat = "unknown"
)

// DocumentClassification is a coarse label derived from certificate type,
// used to set expectations for how reliable regex extraction will be.
type DocumentClassification string

const (
	ClassificationStructuredCertificate DocumentClassification = "structured_certificate"
	ClassificationComplexDocument       DocumentClassification = "complex_document"
	ClassificationHandwrittenContent    DocumentClassification = "handwritten_content"
	ClassificationSpreadsheet           DocumentClassification = "spreadsheet"
	ClassificationUnknown               DocumentClassification = "unknown"
)

// FormatAnalysis is the output of Tier 0.
type FormatAnalysis struct {
	Format             DocumentFormat
	Classification     DocumentClassification
	CertificateType    string
	HasTextLayer       bool
	IsScanned          bool
	IsHybrid           bool
	TextContent        *string
	PageCount          int
	TextQuality        float64
	AvgCharsPerPage    float64
	TypeDetectSource   string // "database" or "fallback"
	TypeDetectConf     float64
}
