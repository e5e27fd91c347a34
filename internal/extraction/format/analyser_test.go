package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compliancecore/certextract/internal/extraction/typedetect"
	"github.com/compliancecore/certextract/internal/kvstore"
	"github.com/compliancecore/certextract/internal/model"
	"github.com/compliancecore/certextract/pkg/pdfx"
)

func newAnalyser() *Analyser {
	return NewAnalyser(pdfx.NewExtractor(), typedetect.NewDetector(kvstore.NewMemory()))
}

func TestAnalyze_PlainTextAssumesTextLayer(t *testing.T) {
	a := newAnalyser()
	content := []byte("Gas Safety Record LGSR-00123, Gas Safe: 1234567, Overall: Satisfactory")

	analysis, err := a.Analyze(context.Background(), content, "text/plain", "cert.txt")

	require.NoError(t, err)
	assert.Equal(t, model.FormatPlainText, analysis.Format)
	assert.True(t, analysis.HasTextLayer)
	require.NotNil(t, analysis.TextContent)
	assert.Contains(t, *analysis.TextContent, "LGSR-00123")
	assert.Equal(t, model.CertType("GAS"), model.CertType(analysis.CertificateType))
}

func TestAnalyze_ImageFormatMarksScanned(t *testing.T) {
	a := newAnalyser()

	analysis, err := a.Analyze(context.Background(), []byte{0xff, 0xd8, 0xff}, "image/jpeg", "photo.jpg")

	require.NoError(t, err)
	assert.Equal(t, model.FormatImage, analysis.Format)
	assert.True(t, analysis.IsScanned)
	assert.Equal(t, 1, analysis.PageCount)
	assert.False(t, analysis.HasTextLayer)
}

func TestDetectFormat_FallsBackToExtensionWhenMIMEUnknown(t *testing.T) {
	assert.Equal(t, model.FormatDOCX, detectFormat("application/octet-stream", "report.docx"))
	assert.Equal(t, model.FormatCSV, detectFormat("", "schedule.csv"))
	assert.Equal(t, model.FormatUnknown, detectFormat("", "mystery.bin"))
}

func TestExtractTextFromHTML_StripsTagsAndScripts(t *testing.T) {
	html := `<html><head><style>.x{color:red}</style></head><body><script>alert(1)</script><p>Certificate Number: LGSR-999</p></body></html>`
	text := extractTextFromHTML(html)
	assert.Contains(t, text, "LGSR-999")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color:red")
}
