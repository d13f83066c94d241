package cat021

import (
	"fmt"

	"asterix_decoder/internal/asterix"
	"asterix_decoder/internal/bits"
)

var decoders = map[string]asterix.DecodeFunc{
	"008": decodeOperationalStatus,
	"010": decodeDataSource,
	"015": decodeServiceID,
	"016": decodeReportPeriod,
	"020": decodeEmitterCategory,
	"040": decodeTargetReportDescriptor,
	"070": decodeMode3A,
	"071": decodeTime("TAP"),
	"072": decodeTime("TAV"),
	"073": decodeTime("TMRP"),
	"074": decodeHighPrecisionTime("TMRP"),
	"075": decodeTime("TMRV"),
	"076": decodeHighPrecisionTime("TMRV"),
	"077": decodeTime("TART"),
	"080": decodeTargetAddress,
	"090": decodeQualityIndicators,
	"110": asterix.DecodeCompound(trajectoryIntent, map[string]asterix.DecodeFunc{
		"TIS": decodeIntentStatus,
		"TID": decodeIntentData,
	}),
	"130": decodePosition(3, 23),
	"131": decodePosition(4, 30),
	"132": decodeAmplitude,
	"140": decodeGeometricHeight,
	"145": decodeFlightLevel,
	"146": decodeSelectedAltitude,
	"148": decodeFinalStateAltitude,
	"150": decodeAirSpeed,
	"151": decodeTrueAirSpeed,
	"152": decodeMagneticHeading,
	"155": decodeVerticalRate("BVR"),
	"157": decodeVerticalRate("GVR"),
	"160": decodeGroundVector,
	"161": decodeTrackNumber,
	"165": decodeTrackAngleRate,
	"170": decodeTargetID,
	"200": decodeTargetStatus,
	"210": decodeMOPSVersion,
	"220": asterix.DecodeCompound(metInformation, map[string]asterix.DecodeFunc{
		"WS":  func(f asterix.Fields, p *asterix.Payload) { f.Set("WS", int(p.Uint(2))) },
		"WD":  func(f asterix.Fields, p *asterix.Payload) { f.Set("WD", int(p.Uint(2))) },
		"TMP": func(f asterix.Fields, p *asterix.Payload) { f.Set("TMP", float64(p.Int(2))*0.25) },
		"TRB": func(f asterix.Fields, p *asterix.Payload) { f.Set("TRB", int(p.Uint8())) },
	}),
	"230": decodeRollAngle,
	"250": decodeModeSMBData,
	"260": decodeResolutionAdvisory,
	"271": decodeSurfaceCapabilities,
	"295": asterix.DecodeCompound(dataAges, ageDecoders(dataAges, 0.1)),
	"400": decodeReceiverID,

	asterix.ReservedExpansion: asterix.Opaque,
	asterix.SpecialPurpose:    asterix.Opaque,
}

func flag(b uint8, n int) int {
	return bits.Bit(uint64(b), n)
}

func field(b uint8, high, low int) int {
	return int(bits.Field(uint64(b), high, low))
}

// I021/008 Aircraft Operational Status.
func decodeOperationalStatus(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("RA", flag(b, 7))
	f.Set("TC", field(b, 6, 5))
	f.Set("TS", flag(b, 4))
	f.Set("ARV", flag(b, 3))
	f.Set("CDTIA", flag(b, 2))
	f.Set("NOTTCAS", flag(b, 1))
	f.Set("SA", flag(b, 0))
}

// decodeDataSource handles the two octet SAC/SIC pair.
func decodeDataSource(f asterix.Fields, p *asterix.Payload) {
	f.Set("SAC", int(p.Uint8()))
	f.Set("SIC", int(p.Uint8()))
}

func decodeServiceID(f asterix.Fields, p *asterix.Payload) {
	f.Set("SID", int(p.Uint8()))
}

// I021/016 Service Management, report period in seconds. Zero means data
// driven mode.
func decodeReportPeriod(f asterix.Fields, p *asterix.Payload) {
	f.Set("RP", float64(p.Uint8())*0.5)
}

func decodeEmitterCategory(f asterix.Fields, p *asterix.Payload) {
	f.Set("ECAT", int(p.Uint8()))
}

// I021/040 Target Report Descriptor. Extensions past the third octet are
// consumed but not decoded.
func decodeTargetReportDescriptor(f asterix.Fields, p *asterix.Payload) {
	ext := p.Extent()
	if len(ext) == 0 {
		return
	}
	b := ext[0]
	f.Set("ATP", field(b, 7, 5))
	f.Set("ARC", field(b, 4, 3))
	f.Set("RC", flag(b, 2))
	f.Set("RAB", flag(b, 1))
	if len(ext) < 2 {
		return
	}
	b = ext[1]
	f.Set("DCR", flag(b, 7))
	f.Set("GBS", flag(b, 6))
	f.Set("SIM", flag(b, 5))
	f.Set("TST", flag(b, 4))
	f.Set("SAA", flag(b, 3))
	f.Set("CL", field(b, 2, 1))
	if len(ext) < 3 {
		return
	}
	b = ext[2]
	f.Set("LLC", flag(b, 6))
	f.Set("IPC", flag(b, 5))
	f.Set("NOGO", flag(b, 4))
	f.Set("CPR", flag(b, 3))
	f.Set("LDPJ", flag(b, 2))
	f.Set("RCF", flag(b, 1))
}

func decodeMode3A(f asterix.Fields, p *asterix.Payload) {
	f.Set("M3A", bits.OctalCode(p.Uint(2)))
}

// decodeTime handles the 3 octet times of day with an LSB of 1/128 s.
func decodeTime(sub string) asterix.DecodeFunc {
	return func(f asterix.Fields, p *asterix.Payload) {
		f.Set(sub, float64(p.Uint(3))/128)
	}
}

// decodeHighPrecisionTime handles I021/074 and I021/076: a full second
// indicator and the fractional part of the second with an LSB of 2^-30 s.
func decodeHighPrecisionTime(sub string) asterix.DecodeFunc {
	return func(f asterix.Fields, p *asterix.Payload) {
		v := p.Uint(4)
		f.Set("FSI", int(bits.Field(v, 31, 30)))
		f.Set(sub, float64(bits.Field(v, 29, 0))/(1<<30))
	}
}

func decodeTargetAddress(f asterix.Fields, p *asterix.Payload) {
	f.Set("TA", fmt.Sprintf("%06X", p.Uint(3)))
}

// I021/090 Quality Indicators.
func decodeQualityIndicators(f asterix.Fields, p *asterix.Payload) {
	ext := p.Extent()
	if len(ext) == 0 {
		return
	}
	b := ext[0]
	f.Set("NUCrorNACv", field(b, 7, 5))
	f.Set("NUCporNIC", field(b, 4, 1))
	if len(ext) < 2 {
		return
	}
	b = ext[1]
	f.Set("NICbaro", flag(b, 7))
	f.Set("SIL", field(b, 6, 5))
	f.Set("NACp", field(b, 4, 1))
	if len(ext) < 3 {
		return
	}
	b = ext[2]
	f.Set("SILS", flag(b, 5))
	f.Set("SDA", field(b, 4, 3))
	f.Set("GVA", field(b, 2, 1))
	if len(ext) < 4 {
		return
	}
	f.Set("PIC", field(ext[3], 7, 4))
}

func decodeIntentStatus(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("NAV", flag(b, 7))
	f.Set("NVB", flag(b, 6))
}

// decodeIntentData decodes the trajectory change points of I021/110.
func decodeIntentData(f asterix.Fields, p *asterix.Payload) {
	p.Repeat(15, func(n int, el *asterix.Payload) {
		b := el.Uint8()
		f.SetIndexed("TCA", n, flag(b, 7))
		f.SetIndexed("NC", n, flag(b, 6))
		f.SetIndexed("TCPN", n, field(b, 5, 0))
		f.SetIndexed("ALT", n, int(el.Int(2))*10)
		f.SetIndexed("LAT", n, float64(el.Int(3))*180/(1<<23))
		f.SetIndexed("LON", n, float64(el.Int(3))*180/(1<<23))
		b = el.Uint8()
		f.SetIndexed("PT", n, field(b, 7, 4))
		f.SetIndexed("TD", n, field(b, 3, 2))
		f.SetIndexed("TRA", n, flag(b, 1))
		f.SetIndexed("TOA", n, flag(b, 0))
		f.SetIndexed("TOV", n, int(el.Uint(3)))
		f.SetIndexed("TTR", n, float64(el.Uint(2))*0.01)
	})
}

// decodePosition decodes a WGS-84 latitude and longitude pair of size
// octets each with an LSB of 180/2^shift degrees.
func decodePosition(size int, shift uint) asterix.DecodeFunc {
	return func(f asterix.Fields, p *asterix.Payload) {
		f.Set("LAT", float64(p.Int(size))*180/float64(uint64(1)<<shift))
		f.Set("LON", float64(p.Int(size))*180/float64(uint64(1)<<shift))
	}
}

func decodeAmplitude(f asterix.Fields, p *asterix.Payload) {
	f.Set("MAM", int(p.Int(1)))
}

func decodeGeometricHeight(f asterix.Fields, p *asterix.Payload) {
	f.Set("GH", float64(p.Int(2))*6.25)
}

func decodeFlightLevel(f asterix.Fields, p *asterix.Payload) {
	f.Set("FL", float64(p.Int(2))*0.25)
}

// I021/146 Selected Altitude.
func decodeSelectedAltitude(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	f.Set("SAS", bits.Bit(v, 15))
	f.Set("SRC", int(bits.Field(v, 14, 13)))
	f.Set("ALT", int(bits.Signed(bits.Field(v, 12, 0), 13))*25)
}

// I021/148 Final State Selected Altitude.
func decodeFinalStateAltitude(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	f.Set("MV", bits.Bit(v, 15))
	f.Set("AH", bits.Bit(v, 14))
	f.Set("AM", bits.Bit(v, 13))
	f.Set("ALT", int(bits.Signed(bits.Field(v, 12, 0), 13))*25)
}

// I021/150 Air Speed: IAS in NM/s when IM is clear, Mach otherwise.
func decodeAirSpeed(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	im := bits.Bit(v, 15)
	speed := float64(bits.Field(v, 14, 0))
	f.Set("IM", im)
	if im == 0 {
		f.Set("AS", speed/(1<<14))
	} else {
		f.Set("AS", speed*0.001)
	}
}

func decodeTrueAirSpeed(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	f.Set("RE", bits.Bit(v, 15))
	f.Set("TAS", int(bits.Field(v, 14, 0)))
}

func decodeMagneticHeading(f asterix.Fields, p *asterix.Payload) {
	f.Set("MH", float64(p.Uint(2))*360/(1<<16))
}

// decodeVerticalRate handles I021/155 and I021/157, 15 bit signed rates in
// units of 6.25 ft/min.
func decodeVerticalRate(sub string) asterix.DecodeFunc {
	return func(f asterix.Fields, p *asterix.Payload) {
		v := p.Uint(2)
		f.Set("RE", bits.Bit(v, 15))
		f.Set(sub, float64(bits.Signed(bits.Field(v, 14, 0), 15))*6.25)
	}
}

// I021/160 Airborne Ground Vector.
func decodeGroundVector(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(4)
	f.Set("RE", bits.Bit(v, 31))
	f.Set("GS", float64(bits.Field(v, 30, 16))/(1<<14))
	f.Set("TA", float64(bits.Field(v, 15, 0))*360/(1<<16))
}

func decodeTrackNumber(f asterix.Fields, p *asterix.Payload) {
	f.Set("TN", int(bits.Field(p.Uint(2), 11, 0)))
}

// I021/165 Track Angle Rate in degrees per second.
func decodeTrackAngleRate(f asterix.Fields, p *asterix.Payload) {
	v := bits.Field(p.Uint(2), 9, 0)
	f.Set("TAR", float64(bits.Signed(v, 10))/32)
}

func decodeTargetID(f asterix.Fields, p *asterix.Payload) {
	f.Set("TI", bits.PackedString(p.Bytes(6), 8))
}

// I021/200 Target Status.
func decodeTargetStatus(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("ICF", flag(b, 7))
	f.Set("LNAV", flag(b, 6))
	f.Set("ME", flag(b, 5))
	f.Set("PS", field(b, 4, 2))
	f.Set("SS", field(b, 1, 0))
}

// I021/210 MOPS Version.
func decodeMOPSVersion(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("VNS", flag(b, 6))
	f.Set("VN", field(b, 5, 3))
	f.Set("LTT", field(b, 2, 0))
}

func decodeRollAngle(f asterix.Fields, p *asterix.Payload) {
	f.Set("RA", float64(p.Int(2))*0.01)
}

// I021/250 Mode S MB Data: 56 bit message plus the BDS register address.
func decodeModeSMBData(f asterix.Fields, p *asterix.Payload) {
	p.Repeat(8, func(n int, el *asterix.Payload) {
		f.SetIndexed("MB", n, el.Hex(7))
		b := el.Uint8()
		f.SetIndexed("BDS1", n, field(b, 7, 4))
		f.SetIndexed("BDS2", n, field(b, 3, 0))
	})
}

// I021/260 ACAS Resolution Advisory Report.
func decodeResolutionAdvisory(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(7)
	f.Set("TYP", int(bits.Field(v, 55, 51)))
	f.Set("STYP", int(bits.Field(v, 50, 48)))
	f.Set("ARA", int(bits.Field(v, 47, 34)))
	f.Set("RAC", int(bits.Field(v, 33, 30)))
	f.Set("RAT", bits.Bit(v, 29))
	f.Set("MTE", bits.Bit(v, 28))
	f.Set("TTI", int(bits.Field(v, 27, 26)))
	f.Set("TID", int(bits.Field(v, 25, 0)))
}

// I021/271 Surface Capabilities and Characteristics.
func decodeSurfaceCapabilities(f asterix.Fields, p *asterix.Payload) {
	ext := p.Extent()
	if len(ext) == 0 {
		return
	}
	b := ext[0]
	f.Set("POA", flag(b, 5))
	f.Set("CDTIS", flag(b, 4))
	f.Set("B2LOW", flag(b, 3))
	f.Set("RAS", flag(b, 2))
	f.Set("IDENT", flag(b, 1))
	if len(ext) < 2 {
		return
	}
	f.Set("LW", field(ext[1], 7, 4))
}

// ageDecoders builds one decoder per subfield of an all single octet
// compound of data ages.
func ageDecoders(rule asterix.LengthRule, lsb float64) map[string]asterix.DecodeFunc {
	decs := make(map[string]asterix.DecodeFunc, len(rule.Subfields))
	for _, sf := range rule.Subfields {
		name := sf.Name
		decs[name] = func(f asterix.Fields, p *asterix.Payload) {
			f.Set(name, float64(p.Uint8())*lsb)
		}
	}
	return decs
}

func decodeReceiverID(f asterix.Fields, p *asterix.Payload) {
	f.Set("RID", int(p.Uint8()))
}
