package model

// Appliance is a single piece of equipment listed on a certificate (a gas
// appliance, an electrical circuit, a lift car, ...). Which fields are
// populated depends on the certificate type; unused fields stay nil.
type Appliance struct {
	Index       int     `json:"index"`
	Type        *string `json:"type,omitempty"`
	Location    *string `json:"location,omitempty"`
	Make        *string `json:"make,omitempty"`
	Model       *string `json:"model,omitempty"`
	SerialNumber *string `json:"serialNumber,omitempty"`
	Outcome     *string `json:"outcome,omitempty" validate:"omitempty,oneof=PASS FAIL NOT_TESTED ADVISORY"`
	RawOutcome  *string `json:"rawOutcome,omitempty"`
}

// Defect is a single observation, code, or remedial item raised against a
// certificate (an EICR C1/C2/C3 code, an FRA action point, ...).
type Defect struct {
	Index       int     `json:"index"`
	Code        *string `json:"code,omitempty"` // e.g. "C1", "C2", "C3", "FI"
	Description *string `json:"description,omitempty"`
	Severity    *string `json:"severity,omitempty" validate:"omitempty,oneof=IMMEDIATE URGENT ROUTINE ADVISORY"`
	Location    *string `json:"location,omitempty"`
}

// ExtractedRecord is the normalised result of running a certificate through
// one extraction tier: a flat set of header fields plus the appliance and
// defect line items discovered on the document.
type ExtractedRecord struct {
	CertificateType CertType `json:"certificateType" validate:"required"`

	IssueDate          *string `json:"issueDate,omitempty"` // ISO-8601 date, normalised from whatever format the source used
	ExpiryDate         *string `json:"expiryDate,omitempty"`
	InspectionDate     *string `json:"inspectionDate,omitempty"`
	NextInspectionDate *string `json:"nextInspectionDate,omitempty"`
	Outcome            *string `json:"outcome,omitempty"` // normalised: PASS | FAIL | SATISFACTORY | UNSATISFACTORY | N/A | an EPC band A..G
	RawOutcome         *string `json:"rawOutcome,omitempty"`

	PropertyAddress        *string `json:"propertyAddress,omitempty"`
	UPRN                   *string `json:"uprn,omitempty"`
	EngineerName           *string `json:"engineerName,omitempty"`
	EngineerRegistration   *string `json:"engineerRegistration,omitempty"` // Gas Safe / NICEIC / registration number
	ContractorName         *string `json:"contractorName,omitempty"`
	ContractorRegistration *string `json:"contractorRegistration,omitempty"`
	CertificateNumber      *string `json:"certificateNumber,omitempty"`

	Appliances []Appliance `json:"appliances,omitempty"`
	Defects    []Defect    `json:"defects,omitempty"`

	// AdditionalFields carries certificate-type-specific scalars that don't
	// warrant a dedicated struct field (e.g. EPC rating band, LOLER SWL).
	AdditionalFields map[string]string `json:"additionalFields,omitempty"`
}

// FieldCount returns the number of populated scalar header fields, plus 1
// if Appliances is non-empty, plus 1 if Defects is non-empty. Used to
// compute ExtractedFieldCount on a TierAuditEntry.
func (r *ExtractedRecord) FieldCount() int {
	if r == nil {
		return 0
	}
	count := 0
	scalars := []*string{
		r.IssueDate, r.ExpiryDate, r.InspectionDate, r.NextInspectionDate, r.Outcome, r.RawOutcome,
		r.PropertyAddress, r.UPRN, r.EngineerName, r.EngineerRegistration,
		r.ContractorName, r.ContractorRegistration, r.CertificateNumber,
	}
	for _, s := range scalars {
		if s != nil && *s != "" {
			count++
		}
	}
	if len(r.Appliances) > 0 {
		count++
	}
	if len(r.Defects) > 0 {
		count++
	}
	return count
}
