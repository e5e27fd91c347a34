package template

import (
	"regexp"

	"github.com/compliancecore/certextract/internal/model"
)

func re(pattern string) *regexp.Regexp { return regexp.MustCompile(pattern) }

// commonHeaderFields are extractors most certificate types share: address
// and registration numbers, prepended to every type-specific table so a
// generic document still yields header data even without a dedicated
// field set.
func commonHeaderFields() []FieldExtractor {
	return []FieldExtractor{
		{Field: "certificateNumber", Patterns: []*regexp.Regexp{
			re(`(?i)certificate\s*(?:no|number|ref)\.?\s*[:\-]\s*([A-Za-z0-9\-/]+)`),
		}},
		{Field: "propertyAddress", Patterns: []*regexp.Regexp{
			re(`(?i)(?:property\s*)?address\s*[:\-]\s*(.+)`),
		}},
		{Field: "uprn", Patterns: []*regexp.Regexp{
			re(`(?i)UPRN\s*[:\-]\s*([0-9]+)`),
		}},
	}
}

var gasTable = append(commonHeaderFields(),
	FieldExtractor{Field: "inspectionDate", Required: true, Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)inspection\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
		re(`(?i)date\s*of\s*inspection\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "expiryDate", Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)(?:expiry|next\s*inspection)\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Required: true, Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)overall\s*[:\-]\s*(Satisfactory|Unsatisfactory)`),
	}},
	FieldExtractor{Field: "engineerName", Patterns: []*regexp.Regexp{
		re(`(?i)engineer\s*name\s*[:\-]\s*(.+)`),
	}},
	FieldExtractor{Field: "engineerRegistration", Required: true, Patterns: []*regexp.Regexp{
		re(`(?i)gas\s*safe\s*(?:reg(?:istration)?\.?\s*(?:no\.?|number)?)?\s*[:\-]\s*([0-9]{6,7})`),
	}},
)

var eicrTable = append(commonHeaderFields(),
	FieldExtractor{Field: "inspectionDate", Required: true, Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)date\s*of\s*inspection\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "nextInspectionDate", Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)next\s*inspection\s*(?:date|due)\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Required: true, Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)overall\s*assessment\s*[:\-]\s*(Satisfactory|Unsatisfactory)`),
	}},
	FieldExtractor{Field: "engineerRegistration", Patterns: []*regexp.Regexp{
		re(`(?i)NICEIC\s*(?:reg(?:istration)?\.?\s*(?:no\.?)?)?\s*[:\-]\s*([A-Za-z0-9\-]+)`),
	}},
	FieldExtractor{Field: "contractorName", Patterns: []*regexp.Regexp{
		re(`(?i)contractor\s*(?:name)?\s*[:\-]\s*(.+)`),
	}},
)

var epcTable = append(commonHeaderFields(),
	FieldExtractor{Field: "issueDate", Required: true, Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)(?:issue|valid\s*from)\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "expiryDate", Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)(?:expiry|valid\s*until)\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Required: true, Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)energy\s*rating\s*[:\-]\s*([A-Ga-g])\b`),
		re(`(?i)current\s*rating\s*[:\-]\s*([A-Ga-g])\b`),
	}},
)

var fraTable = append(commonHeaderFields(),
	FieldExtractor{Field: "inspectionDate", Required: true, Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)assessment\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "nextInspectionDate", Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)review\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)risk\s*rating\s*[:\-]\s*(Trivial|Tolerable|Moderate|Substantial|Intolerable)`),
	}},
	FieldExtractor{Field: "engineerName", Patterns: []*regexp.Regexp{
		re(`(?i)assessor\s*(?:name)?\s*[:\-]\s*(.+)`),
	}},
)

var patTable = append(commonHeaderFields(),
	FieldExtractor{Field: "inspectionDate", Required: true, Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)test\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "nextInspectionDate", Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)retest\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Required: true, Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)overall\s*result\s*[:\-]\s*(Pass|Fail)`),
	}},
	FieldExtractor{Field: "engineerName", Patterns: []*regexp.Regexp{
		re(`(?i)tested\s*by\s*[:\-]\s*(.+)`),
	}},
)

var legionellaTable = append(commonHeaderFields(),
	FieldExtractor{Field: "inspectionDate", Required: true, Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)survey\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "nextInspectionDate", Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)review\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)risk\s*level\s*[:\-]\s*(Low|Medium|High)`),
	}},
)

var asbestosTable = append(commonHeaderFields(),
	FieldExtractor{Field: "inspectionDate", Required: true, Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)survey\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)materials\s*(?:present|found)\s*[:\-]\s*(Yes|No)`),
	}},
)

var liftTable = append(commonHeaderFields(),
	FieldExtractor{Field: "inspectionDate", Required: true, Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)(?:thorough\s*)?examination\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "nextInspectionDate", Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)next\s*examination\s*(?:date|due)\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Required: true, Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)result\s*[:\-]\s*(Satisfactory|Unsatisfactory)`),
	}},
	FieldExtractor{Field: "swl", Patterns: []*regexp.Regexp{
		re(`(?i)safe\s*working\s*load\s*[:\-]\s*([0-9.]+\s*(?:kg|t|tonnes?))`),
	}},
)

var emltTable = append(commonHeaderFields(),
	FieldExtractor{Field: "inspectionDate", Required: true, Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)test\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Required: true, Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)duration\s*test\s*result\s*[:\-]\s*(Pass|Fail)`),
	}},
)

var fireAlarmTable = append(commonHeaderFields(),
	FieldExtractor{Field: "inspectionDate", Required: true, Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)service\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Required: true, Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)system\s*status\s*[:\-]\s*(Satisfactory|Unsatisfactory)`),
	}},
)

var smokeCOTable = append(commonHeaderFields(),
	FieldExtractor{Field: "inspectionDate", Required: true, Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)test\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Required: true, Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)result\s*[:\-]\s*(Pass|Fail)`),
	}},
)

// genericTable is the fallback field set for certificate types with no
// dedicated table — the long tail of the controlled vocabulary.
var genericTable = append(commonHeaderFields(),
	FieldExtractor{Field: "inspectionDate", Transform: normalizeDate, Patterns: []*regexp.Regexp{
		re(`(?i)(?:inspection|test|survey|assessment)\s*date\s*[:\-]\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{4})`),
	}},
	FieldExtractor{Field: "outcome", Transform: normalizeOutcome, Patterns: []*regexp.Regexp{
		re(`(?i)(?:overall\s*)?(?:result|outcome|status)\s*[:\-]\s*(Pass|Fail|Satisfactory|Unsatisfactory)`),
	}},
)

var tablesByType = map[model.CertType][]FieldExtractor{
	"GAS":            gasTable,
	"GAS_COMMERCIAL": gasTable,
	"GAS_APPLIANCE":  gasTable,
	"EICR":           eicrTable,
	"EICR_COMMERCIAL": eicrTable,
	"EICR_MINOR_WORKS": eicrTable,
	"FIXED_WIRE":     eicrTable,
	"EPC":            epcTable,
	"EPC_COMMERCIAL": epcTable,
	"FRA":            fraTable,
	"PAT":            patTable,
	"LEGIONELLA":     legionellaTable,
	"WATER_HYGIENE":  legionellaTable,
	"ASBESTOS":       asbestosTable,
	"ASBESTOS_REINSPECTION": asbestosTable,
	"LIFT":           liftTable,
	"LOLER":          liftTable,
	"HOIST":          liftTable,
	"PLATFORM_LIFT":  liftTable,
	"EMLT":           emltTable,
	"EMERGENCY_LIGHTING": emltTable,
	"FIRE_ALARM":     fireAlarmTable,
	"SMOKE_CO":       smokeCOTable,
}

// tableFor returns the per-type field table, or genericTable when no
// dedicated table exists for the type (the long tail of the ~80-code
// vocabulary).
func tableFor(certType model.CertType) []FieldExtractor {
	if t, ok := tablesByType[certType]; ok {
		return t
	}
	return genericTable
}
