package qrmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compliancecore/certextract/internal/model"
)

func TestClassifyPayload_GasSafeURL(t *testing.T) {
	qr := classifyPayload("https://gassaferegister.co.uk/check/AB12CD")

	assert.Equal(t, model.QRProviderGasSafe, qr.Provider)
	assert.NotNil(t, qr.VerificationCode)
	assert.Equal(t, "AB12CD", *qr.VerificationCode)
}

func TestClassifyPayload_UnrecognisedPayloadIsOther(t *testing.T) {
	qr := classifyPayload("not a known verification scheme")
	assert.Equal(t, model.QRProviderOther, qr.Provider)
	assert.Nil(t, qr.VerificationCode)
}

func TestHasVerificationData_TrueOnKnownProvider(t *testing.T) {
	result := &model.QRMetadataResult{QRCodes: []model.QRCode{{Provider: model.QRProviderNICEIC}}}
	assert.True(t, hasVerificationData(result))
}

func TestHasVerificationData_TrueOnGasSoftwareMention(t *testing.T) {
	software := "GasCert Pro 2.1"
	result := &model.QRMetadataResult{Metadata: &model.ExifMetadata{GeneratingSoftware: &software}}
	assert.True(t, hasVerificationData(result))
}

func TestHasVerificationData_FalseOtherwise(t *testing.T) {
	result := &model.QRMetadataResult{QRCodes: []model.QRCode{{Provider: model.QRProviderOther}}}
	assert.False(t, hasVerificationData(result))
}

func TestNormalizeExifDate(t *testing.T) {
	assert.Equal(t, "2024-07-03", normalizeExifDate("2024:07:03 14:20:00"))
}

func TestPopulateFields_GasSafe(t *testing.T) {
	code := "AB12CD"
	url := "https://gassaferegister.co.uk/check/AB12CD"
	result := &model.QRMetadataResult{
		Fields:  map[string]string{},
		QRCodes: []model.QRCode{{Provider: model.QRProviderGasSafe, VerificationCode: &code, URL: &url}},
	}
	populateFields(result)
	assert.Equal(t, "AB12CD", result.Fields["gasSafeId"])
	assert.Equal(t, url, result.Fields["verificationUrl"])
}
