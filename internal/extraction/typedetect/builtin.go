package typedetect

// builtinPatterns is the hard-coded UK compliance keyword table used when
// the settings store has no active patterns (or fails to load). Entries are
// pre-sorted by descending priority so bestMatch never needs to re-sort
// them per call.
var builtinPatterns = []Pattern{
	{CertType: "GAS", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "LGSR", Priority: 90},
	{CertType: "GAS", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "CP12", Priority: 90},
	{CertType: "GAS", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "gas safety record", Priority: 85},
	{CertType: "GAS", Source: SourceFilename, Matcher: MatcherContains, Pattern: "gas_safety", Priority: 70},

	{CertType: "EICR", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "BS 7671", Priority: 90},
	{CertType: "EICR", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "electrical installation condition report", Priority: 88},
	{CertType: "EICR", Source: SourceFilename, Matcher: MatcherContains, Pattern: "eicr", Priority: 70},

	{CertType: "EPC", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "energy performance certificate", Priority: 88},
	{CertType: "EPC", Source: SourceFilename, Matcher: MatcherContains, Pattern: "epc", Priority: 65},

	{CertType: "FRA", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "PAS 79", Priority: 88},
	{CertType: "FRA", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "fire risk assessment", Priority: 86},
	{CertType: "FRA", Source: SourceFilename, Matcher: MatcherContains, Pattern: "fire_risk", Priority: 65},

	{CertType: "PAT", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "portable appliance test", Priority: 85},
	{CertType: "PAT", Source: SourceFilename, Matcher: MatcherContains, Pattern: "pat_test", Priority: 60},

	{CertType: "LEGIONELLA", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "legionella risk assessment", Priority: 87},
	{CertType: "LEGIONELLA", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "L8 ACOP", Priority: 82},

	{CertType: "ASBESTOS", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "asbestos management survey", Priority: 87},
	{CertType: "ASBESTOS", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "HSG264", Priority: 80},

	{CertType: "LIFT", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "LOLER", Priority: 86},
	{CertType: "LIFT", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "thorough examination of lifting equipment", Priority: 82},

	{CertType: "EMLT", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "emergency lighting test", Priority: 84},
	{CertType: "FIRE_ALARM", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "BS 5839", Priority: 86},
	{CertType: "SMOKE_CO", Source: SourceTextContent, Matcher: MatcherContains, Pattern: "smoke and carbon monoxide", Priority: 82},
}
