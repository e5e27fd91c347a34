// Package qrmeta implements Tier 0.5: QR code decoding and EXIF metadata
// harvesting for scanned/photographed certificates.
package qrmeta

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strconv"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/compliancecore/certextract/internal/common"
	"github.com/compliancecore/certextract/internal/model"
	"github.com/compliancecore/certextract/pkg/pdfx"
)

// providerPattern matches a decoded QR payload against a known
// verification scheme (Gas Safe register URL, Gas-Tag, NICEIC,
// Corgi).
type providerPattern struct {
	provider model.QRProvider
	regex    *regexp.Regexp
}

var providerPatterns = []providerPattern{
	{model.QRProviderGasSafe, regexp.MustCompile(`(?i)gassaferegister\.co\.uk/check/([A-Za-z0-9]+)`)},
	{model.QRProviderGasTag, regexp.MustCompile(`(?i)gas-?tag\.co(?:\.uk)?/(?:ref/)?([A-Za-z0-9]+)`)},
	{model.QRProviderNICEIC, regexp.MustCompile(`(?i)niceic\.com/(?:find-a-contractor/)?([A-Za-z0-9]+)`)},
	{model.QRProviderCorgi, regexp.MustCompile(`(?i)corgi-?hecp\.co\.uk/([A-Za-z0-9]+)`)},
}

// Harvester decodes QR codes and EXIF metadata out of image bytes (direct
// photographs, or rasterised PDF pages for scanned certificates).
type Harvester struct {
	pdf *pdfx.Extractor
}

// NewHarvester builds a Harvester over a PDF extractor used to pull page
// images out of scanned PDFs.
func NewHarvester(pdfExtractor *pdfx.Extractor) *Harvester {
	return &Harvester{pdf: pdfExtractor}
}

// Harvest runs Tier 0.5 against the document bytes. For format=image,
// content is decoded directly; for format=pdf-scanned, the first page's
// embedded image is rasterised via pdfx and decoded instead.
func (h *Harvester) Harvest(ctx context.Context, content []byte, docFormat model.DocumentFormat) (*model.QRMetadataResult, error) {
	logger := common.GetLogger()

	images := [][]byte{content}
	if docFormat == model.FormatPDFScanned || docFormat == model.FormatPDFHybrid {
		pageImages, err := h.pdf.ExtractImages(ctx, content)
		if err != nil {
			logger.Warn().Err(err).Msg("qrmeta: failed to rasterise PDF page images, no QR/EXIF to harvest")
			return &model.QRMetadataResult{}, nil
		}
		images = pageImages[1]
		if len(images) == 0 {
			return &model.QRMetadataResult{}, nil
		}
	}

	result := &model.QRMetadataResult{Fields: map[string]string{}}

	for _, imgBytes := range images {
		if qr, ok := decodeQR(imgBytes); ok {
			result.QRCodes = append(result.QRCodes, classifyPayload(qr))
		}
		if result.Metadata == nil {
			if meta := decodeEXIF(imgBytes); meta != nil {
				result.Metadata = meta
			}
		}
	}

	populateFields(result)
	result.HasVerificationData = hasVerificationData(result)

	return result, nil
}

func decodeQR(data []byte) (string, bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	reader := qrcode.NewQRCodeReader()
	res, err := reader.Decode(bmp, nil)
	if err != nil {
		return "", false
	}
	return res.GetText(), true
}

func classifyPayload(raw string) model.QRCode {
	for _, pp := range providerPatterns {
		if m := pp.regex.FindStringSubmatch(raw); m != nil {
			code := m[1]
			url := raw
			return model.QRCode{Provider: pp.provider, URL: &url, VerificationCode: &code, RawData: raw}
		}
	}
	return model.QRCode{Provider: model.QRProviderOther, RawData: raw}
}

func decodeEXIF(data []byte) *model.ExifMetadata {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	meta := &model.ExifMetadata{}
	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		if s, err := tag.StringVal(); err == nil {
			iso := normalizeExifDate(s)
			meta.DateTaken = &iso
		}
	}
	if lat, long, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &long
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			meta.Device = &s
		}
	}
	if tag, err := x.Get(exif.Software); err == nil {
		if s, err := tag.StringVal(); err == nil {
			meta.GeneratingSoftware = &s
		}
	}
	return meta
}

// normalizeExifDate converts EXIF's "YYYY:MM:DD HH:MM:SS" to an ISO date.
func normalizeExifDate(raw string) string {
	parts := strings.SplitN(raw, " ", 2)
	datePart := strings.ReplaceAll(parts[0], ":", "-")
	return datePart
}

func populateFields(result *model.QRMetadataResult) {
	for _, qr := range result.QRCodes {
		switch qr.Provider {
		case model.QRProviderGasSafe:
			if qr.VerificationCode != nil {
				result.Fields["gasSafeId"] = *qr.VerificationCode
			}
		case model.QRProviderGasTag:
			if qr.VerificationCode != nil {
				result.Fields["gasTagRef"] = *qr.VerificationCode
			}
		case model.QRProviderNICEIC:
			if qr.VerificationCode != nil {
				result.Fields["niceicRef"] = *qr.VerificationCode
			}
		}
		if qr.URL != nil {
			result.Fields["verificationUrl"] = *qr.URL
		}
	}
	if result.Metadata != nil {
		if result.Metadata.DateTaken != nil {
			result.Fields["photoDate"] = *result.Metadata.DateTaken
		}
		if result.Metadata.Latitude != nil {
			result.Fields["latitude"] = strconv.FormatFloat(*result.Metadata.Latitude, 'f', -1, 64)
		}
		if result.Metadata.Longitude != nil {
			result.Fields["longitude"] = strconv.FormatFloat(*result.Metadata.Longitude, 'f', -1, 64)
		}
		if result.Metadata.GeneratingSoftware != nil {
			result.Fields["generatingSoftware"] = *result.Metadata.GeneratingSoftware
		}
	}
}

func hasVerificationData(result *model.QRMetadataResult) bool {
	for _, qr := range result.QRCodes {
		if qr.Provider != model.QRProviderOther {
			return true
		}
	}
	if result.Metadata != nil && result.Metadata.GeneratingSoftware != nil {
		if strings.Contains(strings.ToLower(*result.Metadata.GeneratingSoftware), "gas") {
			return true
		}
	}
	return false
}
