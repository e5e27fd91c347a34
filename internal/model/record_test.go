package model

import "testing"

func strPtr(s string) *string { return &s }

func TestFieldCount(t *testing.T) {
	t.Run("nil record", func(t *testing.T) {
		var r *ExtractedRecord
		if count := r.FieldCount(); count != 0 {
			t.Errorf("expected 0 for a nil record, got %d", count)
		}
	})

	t.Run("empty record", func(t *testing.T) {
		r := &ExtractedRecord{CertificateType: "GAS"}
		if count := r.FieldCount(); count != 0 {
			t.Errorf("expected 0 for a record with no populated scalars, got %d", count)
		}
	})

	t.Run("scalars plus appliances and defects", func(t *testing.T) {
		r := &ExtractedRecord{
			CertificateType:   "GAS",
			CertificateNumber: strPtr("GSR-998877"),
			EngineerName:      strPtr("J. Smith"),
			Appliances:        []Appliance{{Index: 0}},
			Defects:           []Defect{{Index: 0}},
		}
		// 2 populated scalars + 1 for Appliances + 1 for Defects.
		if count := r.FieldCount(); count != 4 {
			t.Errorf("expected 4, got %d", count)
		}
	})

	t.Run("blank string scalars do not count", func(t *testing.T) {
		r := &ExtractedRecord{
			CertificateType:   "GAS",
			CertificateNumber: strPtr(""),
		}
		if count := r.FieldCount(); count != 0 {
			t.Errorf("expected an empty-string scalar to not count, got %d", count)
		}
	})
}

func TestExtractedRecord_Validate(t *testing.T) {
	t.Run("nil record returns no messages", func(t *testing.T) {
		var r *ExtractedRecord
		if msgs := r.Validate(); msgs != nil {
			t.Errorf("expected nil for a nil record, got %v", msgs)
		}
	})

	t.Run("valid record returns no messages", func(t *testing.T) {
		r := &ExtractedRecord{
			CertificateType: "GAS",
			Appliances:      []Appliance{{Index: 0, Outcome: strPtr("PASS")}},
			Defects:         []Defect{{Index: 0, Severity: strPtr("ADVISORY")}},
		}
		if msgs := r.Validate(); len(msgs) != 0 {
			t.Errorf("expected no validation messages, got %v", msgs)
		}
	})

	t.Run("missing certificate type is flagged", func(t *testing.T) {
		r := &ExtractedRecord{}
		msgs := r.Validate()
		if len(msgs) == 0 {
			t.Fatal("expected a validation message for a missing CertificateType, got none")
		}
	})

	t.Run("out of vocabulary appliance outcome is flagged", func(t *testing.T) {
		r := &ExtractedRecord{
			CertificateType: "GAS",
			Appliances:      []Appliance{{Index: 0, Outcome: strPtr("maybe")}},
		}
		msgs := r.Validate()
		if len(msgs) == 0 {
			t.Fatal("expected a validation message for an out-of-vocabulary appliance outcome, got none")
		}
	})

	t.Run("out of vocabulary defect severity is flagged", func(t *testing.T) {
		r := &ExtractedRecord{
			CertificateType: "GAS",
			Defects:         []Defect{{Index: 0, Severity: strPtr("severe")}},
		}
		msgs := r.Validate()
		if len(msgs) == 0 {
			t.Fatal("expected a validation message for an out-of-vocabulary defect severity, got none")
		}
	})

	t.Run("does not block extraction on failure", func(t *testing.T) {
		r := &ExtractedRecord{
			CertificateType: "",
			Appliances:      []Appliance{{Index: 0, Outcome: strPtr("invalid")}},
		}
		msgs := r.Validate()
		if len(msgs) < 2 {
			t.Errorf("expected messages from both the record and appliance validation, got %v", msgs)
		}
		// Validate never panics or mutates the record; it stays usable.
		if r.CertificateType != "" {
			t.Error("Validate must not mutate the record")
		}
	})
}
