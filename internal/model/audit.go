package model

import "time"

// TierAuditEntry is one append-only record of a single tier attempt against
// a single certificate, written regardless of whether the attempt succeeded.
type TierAuditEntry struct {
	CertificateID   string  `json:"certificateId"`
	ExtractionRunID *string `json:"extractionRunId,omitempty"`

	Tier      Tier `json:"tier"`
	TierOrder int  `json:"tierOrder"`

	AttemptedAt       time.Time  `json:"attemptedAt"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	ProcessingTimeMs  int64      `json:"processingTimeMs"`

	Status              TierStatus `json:"status"`
	Confidence          float64    `json:"confidence"`
	Cost                float64    `json:"cost"`
	ExtractedFieldCount int        `json:"extractedFieldCount"`
	EscalationReason    *string    `json:"escalationReason,omitempty"`

	DocumentFormat         *DocumentFormat         `json:"documentFormat,omitempty"`
	DocumentClassification *DocumentClassification `json:"documentClassification,omitempty"`
	PageCount              *int                    `json:"pageCount,omitempty"`
	TextQuality            *float64                `json:"textQuality,omitempty"`

	QRCodesFound       *int  `json:"qrCodesFound,omitempty"`
	MetadataExtracted  *bool `json:"metadataExtracted,omitempty"`

	// RawOutput carries the unprocessed provider response for tiers that
	// call out to an LLM or OCR engine, kept for later reprocessing without
	// the cost of another provider call.
	RawOutput *string `json:"rawOutput,omitempty"`
}

// NewTierAuditEntry starts an entry at the moment a tier attempt begins.
// Callers fill in Status/Confidence/Cost/... and call Complete before
// handing the entry to the audit sink.
func NewTierAuditEntry(certificateID string, tier Tier) *TierAuditEntry {
	return &TierAuditEntry{
		CertificateID: certificateID,
		Tier:          tier,
		TierOrder:     tier.Order(),
		AttemptedAt:   time.Now().UTC(),
		Status:        StatusPending,
	}
}

// Complete stamps CompletedAt and ProcessingTimeMs from the entry's
// AttemptedAt, and sets the final status.
func (e *TierAuditEntry) Complete(status TierStatus) {
	now := time.Now().UTC()
	e.CompletedAt = &now
	e.ProcessingTimeMs = now.Sub(e.AttemptedAt).Milliseconds()
	e.Status = status
}
