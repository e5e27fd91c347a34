package template

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compliancecore/certextract/internal/model"
)

func TestExtract_GasCertificateHappyPath(t *testing.T) {
	text := "Certificate No: LGSR-12345\n" +
		"Gas Safe: 1234567\n" +
		"Inspection Date: 03/07/2024\n" +
		"Overall: Satisfactory\n"

	result := NewExtractor().Extract("GAS", text, nil)

	require.NotNil(t, result.Data)
	require.NotNil(t, result.Data.CertificateNumber)
	assert.Equal(t, "LGSR-12345", *result.Data.CertificateNumber)
	require.NotNil(t, result.Data.InspectionDate)
	assert.Equal(t, "2024-07-03", *result.Data.InspectionDate)
	require.NotNil(t, result.Data.Outcome)
	assert.Equal(t, "SATISFACTORY", *result.Data.Outcome)
	require.NotNil(t, result.Data.EngineerRegistration)
	assert.Equal(t, "1234567", *result.Data.EngineerRegistration)
	assert.True(t, result.Success)
}

func TestExtract_RequiredFieldMissingHalvesConfidence(t *testing.T) {
	text := "Certificate No: LGSR-99999\n"

	result := NewExtractor().Extract("GAS", text, nil)

	assert.Less(t, result.Confidence, 0.5)
}

func TestExtract_DefectsBoostConfidence(t *testing.T) {
	text := "Certificate No: EICR-001\n" +
		"Date of Inspection: 01/01/2024\n" +
		"Overall Assessment: Unsatisfactory\n" +
		"C1 Exposed live conductor in consumer unit\n" +
		"C2 Missing RCD protection\n"

	result := NewExtractor().Extract("EICR", text, nil)

	require.Len(t, result.Data.Defects, 2)
	assert.Equal(t, "IMMEDIATE", *result.Data.Defects[0].Severity)
	assert.Equal(t, "URGENT", *result.Data.Defects[1].Severity)
	// 3 of the 8 EICR fields matched, no required field missed, plus the
	// 0.10 defect bonus.
	assert.InDelta(t, 3.0/8.0+0.10, result.Confidence, 1e-9)
}

func TestExtract_AppliancesMined(t *testing.T) {
	text := "appliance: Make: Worcester Model: Greenstar 30i Location: Kitchen PASS\n" +
		"appliance: Make: Baxi Model: 600 Location: Loft FAIL\n"

	result := NewExtractor().Extract("GAS", text, nil)

	require.Len(t, result.Data.Appliances, 2)
	assert.Equal(t, "Worcester", *result.Data.Appliances[0].Make)
	assert.Equal(t, "PASS", *result.Data.Appliances[0].Outcome)
	assert.Equal(t, "FAIL", *result.Data.Appliances[1].Outcome)
}

func TestExtract_GenericFallbackForUnknownType(t *testing.T) {
	text := "Test Date: 01/02/2023\nResult: Pass\n"

	result := NewExtractor().Extract("CRANE", text, nil)

	require.NotNil(t, result.Data)
	assert.Equal(t, model.CertType("CRANE"), result.Data.CertificateType)
}

func TestExtract_CustomPatternsTakePriority(t *testing.T) {
	text := "Certificate No: XYZ-OLD\nCERT-REF: ZZZ-999\n"

	custom := map[model.Field][]CompiledCustomPattern{
		"certificateNumber": {{Regex: regexp.MustCompile(`(?i)CERT-REF:\s*(\S+)`)}},
	}

	result := NewExtractor().Extract("GAS", text, custom)

	require.NotNil(t, result.Data.CertificateNumber)
	assert.Equal(t, "ZZZ-999", *result.Data.CertificateNumber)
}

func TestNormalizeDate_Forms(t *testing.T) {
	assert.Equal(t, "2024-07-03", normalizeDate("03/07/2024"))
	assert.Equal(t, "2024-07-03", normalizeDate("2024/07/03"))
	assert.Equal(t, "2024-07-03", normalizeDate("3 July 2024"))
	assert.Equal(t, "not-a-date", normalizeDate("not-a-date"))
}

func TestNormalizeOutcome_Mapping(t *testing.T) {
	assert.Equal(t, "PASS", normalizeOutcome("pass"))
	assert.Equal(t, "FAIL", normalizeOutcome("FAILED")) // contains FAIL
	assert.Equal(t, "SATISFACTORY", normalizeOutcome("Satisfactory"))
	assert.Equal(t, "UNSATISFACTORY", normalizeOutcome("Intolerable"))
	assert.Equal(t, "C", normalizeOutcome("c"))
}
