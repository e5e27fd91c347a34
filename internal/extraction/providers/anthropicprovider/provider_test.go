package anthropicprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compliancecore/certextract/internal/extraction/providers"
)

func TestParseStructuredJSON_StripsCodeFence(t *testing.T) {
	raw := "```json\n{\"outcome\": \"PASS\", \"engineerName\": \"\"}\n```"

	data, confidence := parseStructuredJSON(raw)

	assert.Equal(t, "PASS", data["outcome"])
	assert.Equal(t, 0.5, confidence) // one of two keys populated
}

func TestParseStructuredJSON_InvalidJSONReturnsZeroConfidence(t *testing.T) {
	data, confidence := parseStructuredJSON("not json")

	assert.Nil(t, data)
	assert.Equal(t, float64(0), confidence)
}

func TestBuildExtractionPrompt_IncludesCertTypeAndText(t *testing.T) {
	prompt := buildExtractionPrompt("some document text", map[string]interface{}{"type": "object"}, providers.CallContext{
		CertificateType: "GAS",
		Filename:        "cert.pdf",
	})

	assert.Contains(t, prompt, "GAS")
	assert.Contains(t, prompt, "cert.pdf")
	assert.Contains(t, prompt, "some document text")
}
