package model

// QRProvider identifies the issuing verification scheme a QR payload matched.
type QRProvider string

const (
	QRProviderGasSafe QRProvider = "gas-safe"
	QRProviderGasTag  QRProvider = "gas-tag"
	QRProviderNICEIC  QRProvider = "niceic"
	QRProviderCorgi   QRProvider = "corgi"
	QRProviderOther   QRProvider = "other"
)

// QRCode is one decoded QR payload along with whichever verification scheme
// it was matched against.
type QRCode struct {
	Provider         QRProvider `json:"provider"`
	URL              *string    `json:"url,omitempty"`
	VerificationCode *string    `json:"verificationCode,omitempty"`
	RawData          string     `json:"rawData"`
}

// ExifMetadata is the subset of EXIF tags relevant to verifying a
// certificate photograph.
type ExifMetadata struct {
	DateTaken          *string  `json:"dateTaken,omitempty"` // ISO-8601
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	Device             *string  `json:"device,omitempty"`
	GeneratingSoftware *string  `json:"generatingSoftware,omitempty"`
}

// QRMetadataResult is the output of Tier 0.5.
type QRMetadataResult struct {
	QRCodes              []QRCode          `json:"qrCodes"`
	Metadata             *ExifMetadata     `json:"metadata,omitempty"`
	HasVerificationData  bool              `json:"hasVerificationData"`
	Fields               map[string]string `json:"fields,omitempty"`
}
