// Package cat021 decodes ASTERIX Category 021, ADS-B target reports.
package cat021

import (
	"asterix_decoder/internal/asterix"
	"asterix_decoder/internal/registry"
)

// ID is the category number.
const ID = 21

func init() {
	registry.Register(Category())
}

// Category returns the CAT021 definition.
func Category() *asterix.Category {
	return &asterix.Category{
		ID:       ID,
		Name:     "ADS-B Target Reports",
		UAP:      uap,
		Lengths:  lengths,
		Decoders: decoders,
	}
}

var uap = asterix.UAP{
	{{Name: "010", Length: 2}, {Name: "040", Length: asterix.Variable}, {Name: "161", Length: 2}, {Name: "015", Length: 1}, {Name: "071", Length: 3}, {Name: "130", Length: 6}, {Name: "131", Length: 8}},
	{{Name: "072", Length: 3}, {Name: "150", Length: 2}, {Name: "151", Length: 2}, {Name: "080", Length: 3}, {Name: "073", Length: 3}, {Name: "074", Length: 4}, {Name: "075", Length: 3}},
	{{Name: "076", Length: 4}, {Name: "140", Length: 2}, {Name: "090", Length: asterix.Variable}, {Name: "210", Length: 1}, {Name: "070", Length: 2}, {Name: "230", Length: 2}, {Name: "145", Length: 2}},
	{{Name: "152", Length: 2}, {Name: "200", Length: 1}, {Name: "155", Length: 2}, {Name: "157", Length: 2}, {Name: "160", Length: 4}, {Name: "165", Length: 2}, {Name: "077", Length: 3}},
	{{Name: "170", Length: 6}, {Name: "020", Length: 1}, {Name: "220", Length: asterix.Variable}, {Name: "146", Length: 2}, {Name: "148", Length: 2}, {Name: "110", Length: asterix.Variable}, {Name: "016", Length: 1}},
	{{Name: "008", Length: 1}, {Name: "271", Length: asterix.Variable}, {Name: "132", Length: 1}, {Name: "250", Length: asterix.Variable}, {Name: "260", Length: 7}, {Name: "400", Length: 1}, {Name: "295", Length: asterix.Variable}},
	{
		{Name: asterix.Spare, Length: 0}, {Name: asterix.Spare, Length: 0}, {Name: asterix.Spare, Length: 0}, {Name: asterix.Spare, Length: 0}, {Name: asterix.Spare, Length: 0},
		{Name: asterix.ReservedExpansion, Length: asterix.Variable}, {Name: asterix.SpecialPurpose, Length: asterix.Variable},
	},
}

var (
	metInformation = asterix.Compound(
		asterix.Fixed("WS", 2),
		asterix.Fixed("WD", 2),
		asterix.Fixed("TMP", 2),
		asterix.Fixed("TRB", 1),
	)

	trajectoryIntent = asterix.Compound(
		asterix.Fixed("TIS", 1),
		asterix.Rep("TID", 15),
	)

	dataAges = asterix.Compound(
		asterix.Fixed("AOS", 1), asterix.Fixed("TRD", 1), asterix.Fixed("M3A", 1), asterix.Fixed("QI", 1),
		asterix.Fixed("TI", 1), asterix.Fixed("MAM", 1), asterix.Fixed("GH", 1), asterix.Fixed("FL", 1),
		asterix.Fixed("ISA", 1), asterix.Fixed("FSA", 1), asterix.Fixed("AS", 1), asterix.Fixed("TAS", 1),
		asterix.Fixed("MH", 1), asterix.Fixed("BVR", 1), asterix.Fixed("GVR", 1), asterix.Fixed("GV", 1),
		asterix.Fixed("TAR", 1), asterix.Fixed("TID", 1), asterix.Fixed("TS", 1), asterix.Fixed("MET", 1),
		asterix.Fixed("ROA", 1), asterix.Fixed("ARA", 1), asterix.Fixed("SCC", 1),
	)
)

var lengths = map[string]asterix.LengthRule{
	"040":                     asterix.Extended(),
	"090":                     asterix.Extended(),
	"271":                     asterix.Extended(),
	"220":                     metInformation,
	"110":                     trajectoryIntent,
	"250":                     asterix.Repetitive(8),
	"295":                     dataAges,
	asterix.ReservedExpansion: asterix.Explicit(),
	asterix.SpecialPurpose:    asterix.Explicit(),
}
