package template

import (
	"regexp"
	"strings"

	"github.com/compliancecore/certextract/internal/model"
)

// applianceLineRe matches "appliance: <description>" repetitions, with
// make/model/outcome mined as sub-extractions from the description.
var applianceLineRe = regexp.MustCompile(`(?im)^\s*appliance\s*:\s*(.+)$`)

var (
	applianceMakeRe    = regexp.MustCompile(`(?i)make\s*[:\-]\s*([A-Za-z0-9 \-]+?)(?:,|;|$|\s+(?:make|model|location)\s*[:\-])`)
	applianceModelRe   = regexp.MustCompile(`(?i)model\s*[:\-]\s*([A-Za-z0-9 \-]+?)(?:,|;|$|\s+(?:make|model|location)\s*[:\-])`)
	applianceOutcomeRe = regexp.MustCompile(`(?i)\b(PASS|FAIL)\b`)
	applianceLocRe     = regexp.MustCompile(`(?i)location\s*[:\-]\s*([A-Za-z0-9 \-]+?)(?:,|;|$|\s+(?:make|model|location)\s*[:\-])`)
)

// mineAppliances extracts one Appliance per "appliance:" line, sub-parsing
// make, model, location, and PASS/FAIL outcome from the remainder.
func mineAppliances(text string) []model.Appliance {
	var appliances []model.Appliance
	matches := applianceLineRe.FindAllStringSubmatch(text, -1)
	for i, m := range matches {
		line := strings.TrimSpace(m[1])
		appliance := model.Appliance{Index: i}

		if sub := applianceMakeRe.FindStringSubmatch(line); sub != nil {
			v := strings.TrimSpace(sub[1])
			appliance.Make = &v
		}
		if sub := applianceModelRe.FindStringSubmatch(line); sub != nil {
			v := strings.TrimSpace(sub[1])
			appliance.Model = &v
		}
		if sub := applianceLocRe.FindStringSubmatch(line); sub != nil {
			v := strings.TrimSpace(sub[1])
			appliance.Location = &v
		}
		if sub := applianceOutcomeRe.FindStringSubmatch(line); sub != nil {
			raw := sub[1]
			upper := strings.ToUpper(raw)
			appliance.RawOutcome = &raw
			appliance.Outcome = &upper
		}

		appliances = append(appliances, appliance)
	}
	return appliances
}
