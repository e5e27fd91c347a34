package template

import (
	"regexp"
	"strings"

	"github.com/compliancecore/certextract/internal/model"
)

// defectCodeRe matches classification-code tokens at the start of a line
// codes: C1|C2|C3|FI|AR|ID|NCS|P1..P4|HIGH|MEDIUM|LOW.
var defectCodeRe = regexp.MustCompile(`(?im)^\s*(C1|C2|C3|FI|AR|ID|NCS|P[1-4]|HIGH|MEDIUM|LOW)\b[\s:\-]*(.*)$`)

var defectSeverity = map[string]string{
	"C1":     "IMMEDIATE",
	"HIGH":   "IMMEDIATE",
	"P1":     "IMMEDIATE",
	"C2":     "URGENT",
	"P2":     "URGENT",
	"MEDIUM": "URGENT",
	"C3":     "ROUTINE",
	"P3":     "ROUTINE",
	"LOW":    "ROUTINE",
	"FI":     "ADVISORY",
	"AR":     "ADVISORY",
	"ID":     "ADVISORY",
	"NCS":    "ADVISORY",
	"P4":     "ADVISORY",
}

// mineDefects scans line-by-line for classification-code prefixes and
// builds a Defect per match.
func mineDefects(text string) []model.Defect {
	var defects []model.Defect
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		m := defectCodeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		code := strings.ToUpper(m[1])
		description := strings.TrimSpace(m[2])
		severity := defectSeverity[code]

		defect := model.Defect{Index: len(defects), Code: &code, Severity: &severity}
		if description != "" {
			defect.Description = &description
		}
		defects = append(defects, defect)
	}
	return defects
}
