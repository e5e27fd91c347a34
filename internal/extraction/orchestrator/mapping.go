package orchestrator

import (
	"strconv"

	"github.com/compliancecore/certextract/internal/model"
)

// recordFromQR builds a minimal ExtractedRecord out of whatever Tier 0.5
// managed to harvest from a QR code or EXIF block. It never populates
// Appliances/Defects: those require reading the document's text or image
// content, which Tier 0.5 does not do.
func recordFromQR(certType model.CertType, qr *model.QRMetadataResult) *model.ExtractedRecord {
	record := &model.ExtractedRecord{
		CertificateType:  certType,
		AdditionalFields: map[string]string{},
	}
	for k, v := range qr.Fields {
		switch k {
		case "gasSafeId":
			record.EngineerRegistration = strPtr(v)
		case "niceicRef":
			record.ContractorRegistration = strPtr(v)
		case "gasTagRef":
			record.CertificateNumber = strPtr(v)
		default:
			record.AdditionalFields[k] = v
		}
	}
	return record
}

// recordFromData maps a provider's freeform JSON response (shaped by
// extractionSchema) onto an ExtractedRecord. Unrecognised keys fall through
// to AdditionalFields rather than being dropped, since a provider can
// legitimately surface certificate-type-specific scalars the header fields
// don't name.
func recordFromData(certType model.CertType, data map[string]interface{}) *model.ExtractedRecord {
	record := &model.ExtractedRecord{
		CertificateType:  certType,
		AdditionalFields: map[string]string{},
	}
	if data == nil {
		return record
	}

	scalarFields := map[string]**string{
		"issueDate":              &record.IssueDate,
		"expiryDate":             &record.ExpiryDate,
		"inspectionDate":         &record.InspectionDate,
		"nextInspectionDate":     &record.NextInspectionDate,
		"outcome":                &record.Outcome,
		"propertyAddress":        &record.PropertyAddress,
		"uprn":                   &record.UPRN,
		"engineerName":           &record.EngineerName,
		"engineerRegistration":   &record.EngineerRegistration,
		"contractorName":         &record.ContractorName,
		"contractorRegistration": &record.ContractorRegistration,
		"certificateNumber":      &record.CertificateNumber,
	}

	for key, value := range data {
		if dest, ok := scalarFields[key]; ok {
			if s, ok := value.(string); ok && s != "" {
				*dest = strPtr(s)
			}
			continue
		}
		switch key {
		case "appliances":
			record.Appliances = appliancesFromData(value)
		case "defects":
			record.Defects = defectsFromData(value)
		default:
			if s := scalarString(value); s != "" {
				record.AdditionalFields[key] = s
			}
		}
	}

	if record.Outcome != nil {
		record.RawOutcome = record.Outcome
	}

	return record
}

func appliancesFromData(value interface{}) []model.Appliance {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]model.Appliance, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		a := model.Appliance{Index: i}
		if v, ok := m["type"].(string); ok && v != "" {
			a.Type = strPtr(v)
		}
		if v, ok := m["location"].(string); ok && v != "" {
			a.Location = strPtr(v)
		}
		if v, ok := m["make"].(string); ok && v != "" {
			a.Make = strPtr(v)
		}
		if v, ok := m["model"].(string); ok && v != "" {
			a.Model = strPtr(v)
		}
		if v, ok := m["serialNumber"].(string); ok && v != "" {
			a.SerialNumber = strPtr(v)
		}
		if v, ok := m["outcome"].(string); ok && v != "" {
			a.RawOutcome = strPtr(v)
			a.Outcome = strPtr(v)
		}
		out = append(out, a)
	}
	return out
}

func defectsFromData(value interface{}) []model.Defect {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]model.Defect, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		d := model.Defect{Index: i}
		if v, ok := m["code"].(string); ok && v != "" {
			d.Code = strPtr(v)
		}
		if v, ok := m["description"].(string); ok && v != "" {
			d.Description = strPtr(v)
		}
		if v, ok := m["severity"].(string); ok && v != "" {
			d.Severity = strPtr(v)
		}
		if v, ok := m["location"].(string); ok && v != "" {
			d.Location = strPtr(v)
		}
		out = append(out, d)
	}
	return out
}

func scalarString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func strPtr(s string) *string { return &s }
