package template

import (
	"regexp"
	"strings"
)

var monthNames = map[string]string{
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
	"jan": "01", "feb": "02", "mar": "03", "apr": "04", "jun": "06", "jul": "07",
	"aug": "08", "sep": "09", "sept": "09", "oct": "10", "nov": "11", "dec": "12",
}

var (
	reDMY       = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})$`)
	reYMD       = regexp.MustCompile(`^(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})$`)
	reMonthName = regexp.MustCompile(`(?i)^(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})$`)
)

// normalizeDate converts DD/MM/YYYY, YYYY/MM/DD, and "D Month YYYY" forms
// to YYYY-MM-DD. Unrecognised input is returned unchanged.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)

	if m := reYMD.FindStringSubmatch(raw); m != nil {
		return m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3])
	}
	if m := reDMY.FindStringSubmatch(raw); m != nil {
		return m[3] + "-" + pad2(m[2]) + "-" + pad2(m[1])
	}
	if m := reMonthName.FindStringSubmatch(raw); m != nil {
		month, ok := monthNames[strings.ToLower(m[2])]
		if ok {
			return m[3] + "-" + month + "-" + pad2(m[1])
		}
	}
	return raw
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// normalizeOutcome maps raw outcome text onto the controlled vocabulary
// {PASS, FAIL, SATISFACTORY, UNSATISFACTORY, N/A} or an upper-cased EPC
// band letter. Text matching none of these (e.g. "Moderate", "Yes") is
// returned upper-cased, not mapped.
func normalizeOutcome(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(upper, "SATISFACTORY") && !strings.Contains(upper, "UNSATISFACTORY"):
		return "SATISFACTORY"
	case strings.Contains(upper, "UNSATISFACTORY") || strings.Contains(upper, "INTOLERABLE"):
		return "UNSATISFACTORY"
	case strings.Contains(upper, "PASS"):
		return "PASS"
	case strings.Contains(upper, "FAIL"):
		return "FAIL"
	case upper == "N/A", upper == "NA":
		return "N/A"
	case len(upper) == 1 && upper >= "A" && upper <= "G":
		return upper
	default:
		return upper
	}
}
