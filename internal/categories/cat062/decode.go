package cat062

import (
	"fmt"

	"asterix_decoder/internal/asterix"
	"asterix_decoder/internal/bits"
)

type subfields = map[string]asterix.DecodeFunc

var decoders = map[string]asterix.DecodeFunc{
	"010": decodeDataSource,
	"015": func(f asterix.Fields, p *asterix.Payload) { f.Set("SID", int(p.Uint8())) },
	"040": func(f asterix.Fields, p *asterix.Payload) { f.Set("TN", int(p.Uint(2))) },
	"060": decodeMode3A,
	"070": func(f asterix.Fields, p *asterix.Payload) { f.Set("TOTI", float64(p.Uint(3))/128) },
	"080": decodeTrackStatus,
	"100": decodeCartesianPosition,
	"105": decodeWGS84Position,
	"110": asterix.DecodeCompound(mode5, subfields{
		"SUM": decodeMode5Summary,
		"PMN": decodeMode5PIN,
		"POS": decodeLatLon24("LAT", "LON"),
		"GA":  decodeMode5Altitude,
		"EM1": func(f asterix.Fields, p *asterix.Payload) { f.Set("EM1", bits.OctalCode(p.Uint(2))) },
		"TOS": func(f asterix.Fields, p *asterix.Payload) { f.Set("TOS", float64(p.Int(1))/128) },
		"XP":  decodeMode5Pulses,
	}),
	"120": func(f asterix.Fields, p *asterix.Payload) { f.Set("MODE2", bits.OctalCode(p.Uint(2))) },
	"130": func(f asterix.Fields, p *asterix.Payload) { f.Set("ALT", float64(p.Int(2))*6.25) },
	"135": decodeBarometricAltitude,
	"136": func(f asterix.Fields, p *asterix.Payload) { f.Set("MFL", float64(p.Int(2))*0.25) },
	"185": decodeVelocity,
	"200": decodeModeOfMovement,
	"210": decodeAcceleration,
	"220": func(f asterix.Fields, p *asterix.Payload) { f.Set("ROCD", float64(p.Int(2))*6.25) },
	"245": decodeTargetID,
	"270": decodeTargetSize,
	"290": asterix.DecodeCompound(systemTrackUpdateAges, ageDecoders(systemTrackUpdateAges, 0.25)),
	"295": asterix.DecodeCompound(trackDataAges, ageDecoders(trackDataAges, 0.25)),
	"300": func(f asterix.Fields, p *asterix.Payload) { f.Set("VFI", int(p.Uint8())) },
	"340": asterix.DecodeCompound(measuredInformation, subfields{
		"SID": decodeDataSource,
		"POS": decodeMeasuredPosition,
		"HEI": func(f asterix.Fields, p *asterix.Payload) { f.Set("HEI", int(p.Int(2))*25) },
		"MDC": decodeMeasuredModeC,
		"MDA": decodeMeasuredMode3A,
		"TYP": decodeReportType,
	}),
	"380": asterix.DecodeCompound(aircraftDerivedData, aircraftDerivedDecoders),
	"390": asterix.DecodeCompound(flightPlanData, flightPlanDecoders),
	"500": asterix.DecodeCompound(estimatedAccuracies, subfields{
		"APC": decodeXY("APCX", "APCY", 2, 0.5),
		"COV": func(f asterix.Fields, p *asterix.Payload) { f.Set("COV", float64(p.Uint(2))*0.5) },
		"APW": decodeAccuracyWGS84,
		"AGA": func(f asterix.Fields, p *asterix.Payload) { f.Set("AGA", float64(p.Uint8())*6.25) },
		"ABA": func(f asterix.Fields, p *asterix.Payload) { f.Set("ABA", float64(p.Uint8())*0.25) },
		"ATV": decodeXY("ATVX", "ATVY", 1, 0.25),
		"AA":  decodeXY("AAX", "AAY", 1, 0.25),
		"ARC": func(f asterix.Fields, p *asterix.Payload) { f.Set("ARC", float64(p.Uint8())*6.25) },
	}),
	"510": decodeComposedTrackNumber,

	asterix.ReservedExpansion: asterix.Opaque,
	asterix.SpecialPurpose:    asterix.Opaque,
}

func flag(b uint8, n int) int {
	return bits.Bit(uint64(b), n)
}

func field(b uint8, high, low int) int {
	return int(bits.Field(uint64(b), high, low))
}

func decodeDataSource(f asterix.Fields, p *asterix.Payload) {
	f.Set("SAC", int(p.Uint8()))
	f.Set("SIC", int(p.Uint8()))
}

// I062/060 Track Mode 3/A Code.
func decodeMode3A(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	f.Set("V", bits.Bit(v, 15))
	f.Set("G", bits.Bit(v, 14))
	f.Set("CH", bits.Bit(v, 13))
	f.Set("M3A", bits.OctalCode(v))
}

// I062/080 Track Status. Up to six octets are defined; later extensions are
// consumed without being decoded.
func decodeTrackStatus(f asterix.Fields, p *asterix.Payload) {
	ext := p.Extent()
	for i, b := range ext {
		switch i {
		case 0:
			f.Set("MON", flag(b, 7))
			f.Set("SPI", flag(b, 6))
			f.Set("MRH", flag(b, 5))
			f.Set("SRC", field(b, 4, 2))
			f.Set("CNF", flag(b, 1))
		case 1:
			f.Set("SIM", flag(b, 7))
			f.Set("TSE", flag(b, 6))
			f.Set("TSB", flag(b, 5))
			f.Set("FPC", flag(b, 4))
			f.Set("AFF", flag(b, 3))
			f.Set("STP", flag(b, 2))
			f.Set("KOS", flag(b, 1))
		case 2:
			f.Set("AMA", flag(b, 7))
			f.Set("MD4", field(b, 6, 5))
			f.Set("ME", flag(b, 4))
			f.Set("MI", flag(b, 3))
			f.Set("MD5", field(b, 2, 1))
		case 3:
			f.Set("CST", flag(b, 7))
			f.Set("PSR", flag(b, 6))
			f.Set("SSR", flag(b, 5))
			f.Set("MDS", flag(b, 4))
			f.Set("ADS", flag(b, 3))
			f.Set("SUC", flag(b, 2))
			f.Set("AAC", flag(b, 1))
		case 4:
			f.Set("SDS", field(b, 7, 6))
			f.Set("EMS", field(b, 5, 3))
			f.Set("PFT", flag(b, 2))
			f.Set("FPLT", flag(b, 1))
		case 5:
			f.Set("DUPT", flag(b, 7))
			f.Set("DUPF", flag(b, 6))
			f.Set("DUPM", flag(b, 5))
			f.Set("SFC", flag(b, 4))
			f.Set("IDD", flag(b, 3))
			f.Set("IEC", flag(b, 2))
		}
	}
}

// I062/100 Calculated Track Position (Cartesian), metres.
func decodeCartesianPosition(f asterix.Fields, p *asterix.Payload) {
	f.Set("X", float64(p.Int(3))*0.5)
	f.Set("Y", float64(p.Int(3))*0.5)
}

// I062/105 Calculated Position in WGS-84 Coordinates.
func decodeWGS84Position(f asterix.Fields, p *asterix.Payload) {
	f.Set("LAT", float64(p.Int(4))*180/(1<<25))
	f.Set("LON", float64(p.Int(4))*180/(1<<25))
}

func decodeLatLon24(lat, lon string) asterix.DecodeFunc {
	return func(f asterix.Fields, p *asterix.Payload) {
		f.Set(lat, float64(p.Int(3))*180/(1<<23))
		f.Set(lon, float64(p.Int(3))*180/(1<<23))
	}
}

func decodeMode5Summary(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("M5", flag(b, 7))
	f.Set("ID", flag(b, 6))
	f.Set("DA", flag(b, 5))
	f.Set("M1", flag(b, 4))
	f.Set("M2", flag(b, 3))
	f.Set("M3", flag(b, 2))
	f.Set("MC", flag(b, 1))
}

func decodeMode5PIN(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(4)
	f.Set("PIN", int(bits.Field(v, 29, 16)))
	f.Set("NAT", int(bits.Field(v, 12, 8)))
	f.Set("MIS", int(bits.Field(v, 5, 0)))
}

// decodeMode5Altitude decodes the Mode 5 GNSS altitude in feet.
func decodeMode5Altitude(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	f.Set("RES", bits.Bit(v, 14))
	f.Set("GA", int(bits.Signed(bits.Field(v, 13, 0), 14))*25)
}

func decodeMode5Pulses(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("X5", flag(b, 4))
	f.Set("XC", flag(b, 3))
	f.Set("X3", flag(b, 2))
	f.Set("X2", flag(b, 1))
	f.Set("X1", flag(b, 0))
}

func decodeBarometricAltitude(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	f.Set("QNH", bits.Bit(v, 15))
	f.Set("ALT", float64(bits.Signed(bits.Field(v, 14, 0), 15))*0.25)
}

// I062/185 Calculated Track Velocity (Cartesian), m/s.
func decodeVelocity(f asterix.Fields, p *asterix.Payload) {
	f.Set("VX", float64(p.Int(2))*0.25)
	f.Set("VY", float64(p.Int(2))*0.25)
}

func decodeModeOfMovement(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("TRANS", field(b, 7, 6))
	f.Set("LONG", field(b, 5, 4))
	f.Set("VERT", field(b, 3, 2))
	f.Set("ADF", flag(b, 1))
}

// I062/210 Calculated Acceleration (Cartesian), m/s².
func decodeAcceleration(f asterix.Fields, p *asterix.Payload) {
	f.Set("AX", float64(p.Int(1))*0.25)
	f.Set("AY", float64(p.Int(1))*0.25)
}

// I062/245 Target Identification.
func decodeTargetID(f asterix.Fields, p *asterix.Payload) {
	f.Set("STI", field(p.Uint8(), 7, 6))
	f.Set("TI", bits.PackedString(p.Bytes(6), 8))
}

// I062/270 Target Size and Orientation.
func decodeTargetSize(f asterix.Fields, p *asterix.Payload) {
	ext := p.Extent()
	if len(ext) > 0 {
		f.Set("LENGTH", int(ext[0]>>1))
	}
	if len(ext) > 1 {
		f.Set("ORIENTATION", float64(ext[1]>>1)*360/128)
	}
	if len(ext) > 2 {
		f.Set("WIDTH", int(ext[2]>>1))
	}
}

// ageDecoders builds one decoder per subfield of a compound of ages, each
// subfield holding a single unsigned value.
func ageDecoders(rule asterix.LengthRule, lsb float64) subfields {
	decs := make(subfields, len(rule.Subfields))
	for _, sf := range rule.Subfields {
		name, size := sf.Name, sf.Size
		decs[name] = func(f asterix.Fields, p *asterix.Payload) {
			f.Set(name, float64(p.Uint(size))*lsb)
		}
	}
	return decs
}

func decodeMeasuredPosition(f asterix.Fields, p *asterix.Payload) {
	f.Set("RHO", float64(p.Uint(2))/256)
	f.Set("THETA", float64(p.Uint(2))*360/(1<<16))
}

func decodeMeasuredModeC(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	f.Set("MDCV", bits.Bit(v, 15))
	f.Set("MDCG", bits.Bit(v, 14))
	f.Set("MDC", float64(bits.Signed(bits.Field(v, 13, 0), 14))*0.25)
}

func decodeMeasuredMode3A(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	f.Set("MDAV", bits.Bit(v, 15))
	f.Set("MDAG", bits.Bit(v, 14))
	f.Set("MDAL", bits.Bit(v, 13))
	f.Set("MDA", bits.OctalCode(v))
}

func decodeReportType(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("TYP", field(b, 7, 5))
	f.Set("SIM", flag(b, 4))
	f.Set("RAB", flag(b, 3))
	f.Set("TST", flag(b, 2))
}

func decodeXY(x, y string, size int, lsb float64) asterix.DecodeFunc {
	return func(f asterix.Fields, p *asterix.Payload) {
		f.Set(x, float64(p.Uint(size))*lsb)
		f.Set(y, float64(p.Uint(size))*lsb)
	}
}

func decodeAccuracyWGS84(f asterix.Fields, p *asterix.Payload) {
	f.Set("APWLAT", float64(p.Uint(2))*180/(1<<25))
	f.Set("APWLON", float64(p.Uint(2))*180/(1<<25))
}

// I062/510 Composed Track Number: one system unit and track number per
// three octet chunk.
func decodeComposedTrackNumber(f asterix.Fields, p *asterix.Payload) {
	for n := 1; p.Remaining() > 0 && p.Err() == nil; n++ {
		f.SetIndexed("SUI", n, int(p.Uint8()))
		f.SetIndexed("STN", n, int(p.Uint(2)>>1))
	}
}

// formatAddress renders a 24 bit aircraft address.
func formatAddress(v uint64) string {
	return fmt.Sprintf("%06X", v)
}
