package orchestrator

// extractionSchema is the JSON schema every AI-backed tier (1.5, 2, 3) asks
// a provider to fill in, mirroring model.ExtractedRecord's scalar header
// fields plus the appliance and defect line-item arrays.
func extractionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"issueDate":              map[string]interface{}{"type": "string", "description": "ISO-8601 issue date"},
			"expiryDate":             map[string]interface{}{"type": "string", "description": "ISO-8601 expiry date"},
			"inspectionDate":         map[string]interface{}{"type": "string", "description": "ISO-8601 inspection date"},
			"nextInspectionDate":     map[string]interface{}{"type": "string", "description": "ISO-8601 next inspection due date"},
			"outcome":                map[string]interface{}{"type": "string", "description": "overall pass/fail/satisfactory outcome as printed on the certificate"},
			"propertyAddress":        map[string]interface{}{"type": "string"},
			"uprn":                   map[string]interface{}{"type": "string", "description": "Unique Property Reference Number, if present"},
			"engineerName":           map[string]interface{}{"type": "string"},
			"engineerRegistration":   map[string]interface{}{"type": "string", "description": "Gas Safe / NICEIC / registration number"},
			"contractorName":         map[string]interface{}{"type": "string"},
			"contractorRegistration": map[string]interface{}{"type": "string"},
			"certificateNumber":      map[string]interface{}{"type": "string"},
			"appliances": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"type":         map[string]interface{}{"type": "string"},
						"location":     map[string]interface{}{"type": "string"},
						"make":         map[string]interface{}{"type": "string"},
						"model":        map[string]interface{}{"type": "string"},
						"serialNumber": map[string]interface{}{"type": "string"},
						"outcome":      map[string]interface{}{"type": "string"},
					},
				},
			},
			"defects": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"code":        map[string]interface{}{"type": "string", "description": "e.g. C1, C2, C3, FI"},
						"description": map[string]interface{}{"type": "string"},
						"severity":    map[string]interface{}{"type": "string"},
						"location":    map[string]interface{}{"type": "string"},
					},
				},
			},
		},
	}
}
