// Package cat062 decodes ASTERIX Category 062, SDPS system track data.
package cat062

import (
	"asterix_decoder/internal/asterix"
	"asterix_decoder/internal/registry"
)

// ID is the category number.
const ID = 62

func init() {
	registry.Register(Category())
}

// Category returns the CAT062 definition.
func Category() *asterix.Category {
	return &asterix.Category{
		ID:       ID,
		Name:     "SDPS Track Messages",
		UAP:      uap,
		Lengths:  lengths,
		Decoders: decoders,
	}
}

var uap = asterix.UAP{
	{{Name: "010", Length: 2}, {Name: asterix.Spare, Length: 0}, {Name: "015", Length: 1}, {Name: "070", Length: 3}, {Name: "105", Length: 8}, {Name: "100", Length: 6}, {Name: "185", Length: 4}},
	{{Name: "210", Length: 2}, {Name: "060", Length: 2}, {Name: "245", Length: 7}, {Name: "380", Length: asterix.Variable}, {Name: "040", Length: 2}, {Name: "080", Length: asterix.Variable}, {Name: "290", Length: asterix.Variable}},
	{{Name: "200", Length: 1}, {Name: "295", Length: asterix.Variable}, {Name: "136", Length: 2}, {Name: "130", Length: 2}, {Name: "135", Length: 2}, {Name: "220", Length: 2}, {Name: "390", Length: asterix.Variable}},
	{{Name: "270", Length: asterix.Variable}, {Name: "300", Length: 1}, {Name: "110", Length: asterix.Variable}, {Name: "120", Length: 2}, {Name: "510", Length: asterix.Variable}, {Name: "500", Length: asterix.Variable}, {Name: "340", Length: asterix.Variable}},
	{
		{Name: asterix.Spare, Length: 0}, {Name: asterix.Spare, Length: 0}, {Name: asterix.Spare, Length: 0}, {Name: asterix.Spare, Length: 0}, {Name: asterix.Spare, Length: 0},
		{Name: asterix.ReservedExpansion, Length: asterix.Variable}, {Name: asterix.SpecialPurpose, Length: asterix.Variable},
	},
}

// single builds a compound whose subfields are all one octet long.
func single(names ...string) asterix.LengthRule {
	subs := make([]asterix.Subfield, len(names))
	for i, name := range names {
		subs[i] = asterix.Fixed(name, 1)
	}
	return asterix.Compound(subs...)
}

var (
	mode5 = asterix.Compound(
		asterix.Fixed("SUM", 1),
		asterix.Fixed("PMN", 4),
		asterix.Fixed("POS", 6),
		asterix.Fixed("GA", 2),
		asterix.Fixed("EM1", 2),
		asterix.Fixed("TOS", 1),
		asterix.Fixed("XP", 1),
	)

	systemTrackUpdateAges = asterix.Compound(
		asterix.Fixed("TRK", 1), asterix.Fixed("PSR", 1), asterix.Fixed("SSR", 1), asterix.Fixed("MDS", 1),
		asterix.Fixed("ADS", 2), asterix.Fixed("ES", 1), asterix.Fixed("VDL", 1), asterix.Fixed("UAT", 1),
		asterix.Fixed("LOP", 1), asterix.Fixed("MLT", 1),
	)

	trackDataAges = single(
		"MFL", "MD1", "MD2", "MDA", "MD4", "MD5", "MHG",
		"IAS", "TAS", "SAL", "FSS", "TID", "COM", "SAB",
		"ACS", "BVR", "GVR", "RAN", "TAR", "TAN", "GSP",
		"VUN", "MET", "EMC", "POS", "GAL", "PUN", "MB",
		"IAR", "MAC", "BPS",
	)

	measuredInformation = asterix.Compound(
		asterix.Fixed("SID", 2),
		asterix.Fixed("POS", 4),
		asterix.Fixed("HEI", 2),
		asterix.Fixed("MDC", 2),
		asterix.Fixed("MDA", 2),
		asterix.Fixed("TYP", 1),
	)

	aircraftDerivedData = asterix.Compound(
		asterix.Fixed("ADR", 3), asterix.Fixed("ID", 6), asterix.Fixed("MHG", 2), asterix.Fixed("IAS", 2),
		asterix.Fixed("TAS", 2), asterix.Fixed("SAL", 2), asterix.Fixed("FSS", 2), asterix.Fixed("TIS", 1),
		asterix.Rep("TID", 15), asterix.Fixed("COM", 2), asterix.Fixed("SAB", 2), asterix.Fixed("ACS", 7),
		asterix.Fixed("BVR", 2), asterix.Fixed("GVR", 2), asterix.Fixed("RAN", 2), asterix.Fixed("TAR", 2),
		asterix.Fixed("TAN", 2), asterix.Fixed("GSP", 2), asterix.Fixed("VUN", 1), asterix.Fixed("MET", 8),
		asterix.Fixed("EMC", 1), asterix.Fixed("POS", 6), asterix.Fixed("GAL", 2), asterix.Fixed("PUN", 1),
		asterix.Rep("MB", 8), asterix.Fixed("IAR", 2), asterix.Fixed("MAC", 2), asterix.Fixed("BPS", 2),
	)

	flightPlanData = asterix.Compound(
		asterix.Fixed("TAG", 2), asterix.Fixed("CSN", 7), asterix.Fixed("IFI", 4), asterix.Fixed("FCT", 1),
		asterix.Fixed("TAC", 4), asterix.Fixed("WTC", 1), asterix.Fixed("DEP", 4), asterix.Fixed("DST", 4),
		asterix.Fixed("RDS", 3), asterix.Fixed("CFL", 2), asterix.Fixed("CTL", 2), asterix.Rep("TOD", 4),
		asterix.Fixed("AST", 6), asterix.Fixed("STS", 1), asterix.Fixed("STD", 7), asterix.Fixed("STA", 7),
		asterix.Fixed("PEM", 2), asterix.Fixed("PEC", 7),
	)

	estimatedAccuracies = asterix.Compound(
		asterix.Fixed("APC", 4), asterix.Fixed("COV", 2), asterix.Fixed("APW", 4), asterix.Fixed("AGA", 1),
		asterix.Fixed("ABA", 1), asterix.Fixed("ATV", 2), asterix.Fixed("AA", 2), asterix.Fixed("ARC", 1),
	)
)

var lengths = map[string]asterix.LengthRule{
	"080":                     asterix.Extended(),
	"270":                     asterix.Extended(),
	"110":                     mode5,
	"290":                     systemTrackUpdateAges,
	"295":                     trackDataAges,
	"340":                     measuredInformation,
	"380":                     aircraftDerivedData,
	"390":                     flightPlanData,
	"500":                     estimatedAccuracies,
	"510":                     asterix.Chained(3, 2),
	asterix.ReservedExpansion: asterix.Explicit(),
	asterix.SpecialPurpose:    asterix.Explicit(),
}
