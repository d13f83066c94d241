package cat062

import (
	"asterix_decoder/internal/asterix"
	"asterix_decoder/internal/bits"
)

// aircraftDerivedDecoders covers the subfields of I062/380 Aircraft Derived
// Data.
var aircraftDerivedDecoders = subfields{
	"ADR": func(f asterix.Fields, p *asterix.Payload) { f.Set("ADR", formatAddress(p.Uint(3))) },
	"ID":  func(f asterix.Fields, p *asterix.Payload) { f.Set("ID", bits.PackedString(p.Bytes(6), 8)) },
	"MHG": func(f asterix.Fields, p *asterix.Payload) { f.Set("MHG", float64(p.Uint(2))*360/(1<<16)) },
	"IAS": decodeIndicatedAirspeed,
	"TAS": func(f asterix.Fields, p *asterix.Payload) { f.Set("TAS", int(p.Uint(2))) },
	"SAL": decodeSelectedAltitude,
	"FSS": decodeFinalStateAltitude,
	"TIS": decodeIntentStatus,
	"TID": decodeIntentData,
	"COM": decodeCommunications,
	"SAB": decodeStatusReported,
	"ACS": func(f asterix.Fields, p *asterix.Payload) { f.Set("ACS", p.Hex(7)) },
	"BVR": func(f asterix.Fields, p *asterix.Payload) { f.Set("BVR", float64(p.Int(2))*6.25) },
	"GVR": func(f asterix.Fields, p *asterix.Payload) { f.Set("GVR", float64(p.Int(2))*6.25) },
	"RAN": func(f asterix.Fields, p *asterix.Payload) { f.Set("RAN", float64(p.Int(2))*0.01) },
	"TAR": decodeTrackAngleRate,
	"TAN": func(f asterix.Fields, p *asterix.Payload) { f.Set("TAN", float64(p.Uint(2))*360/(1<<16)) },
	"GSP": func(f asterix.Fields, p *asterix.Payload) { f.Set("GSP", float64(p.Int(2))/(1<<14)) },
	"VUN": func(f asterix.Fields, p *asterix.Payload) { f.Set("VUN", int(p.Uint8())) },
	"MET": decodeMetData,
	"EMC": func(f asterix.Fields, p *asterix.Payload) { f.Set("EMC", int(p.Uint8())) },
	"POS": decodeLatLon24("LAT", "LON"),
	"GAL": func(f asterix.Fields, p *asterix.Payload) { f.Set("GAL", float64(p.Int(2))*6.25) },
	"PUN": func(f asterix.Fields, p *asterix.Payload) { f.Set("PUN", field(p.Uint8(), 3, 0)) },
	"MB":  decodeModeSMBData,
	"IAR": func(f asterix.Fields, p *asterix.Payload) { f.Set("IAR", int(p.Uint(2))) },
	"MAC": func(f asterix.Fields, p *asterix.Payload) { f.Set("MAC", float64(p.Uint(2))*0.008) },
	"BPS": decodeBarometricPressure,
}

// decodeIndicatedAirspeed stores IAS in NM/s, or Mach when IM is set.
func decodeIndicatedAirspeed(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	im := bits.Bit(v, 15)
	speed := float64(bits.Field(v, 14, 0))
	f.Set("IM", im)
	if im == 0 {
		f.Set("IAS", speed/(1<<14))
	} else {
		f.Set("IAS", speed*0.001)
	}
}

func decodeSelectedAltitude(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	f.Set("SAS", bits.Bit(v, 15))
	f.Set("SRC", int(bits.Field(v, 14, 13)))
	f.Set("SAL", int(bits.Signed(bits.Field(v, 12, 0), 13))*25)
}

func decodeFinalStateAltitude(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	f.Set("MV", bits.Bit(v, 15))
	f.Set("AH", bits.Bit(v, 14))
	f.Set("AM", bits.Bit(v, 13))
	f.Set("FSS", int(bits.Signed(bits.Field(v, 12, 0), 13))*25)
}

func decodeIntentStatus(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("NAV", flag(b, 7))
	f.Set("NVB", flag(b, 6))
}

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

// decodeCommunications decodes the communications and ACAS capability
// subfield.
func decodeCommunications(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("COM", field(b, 7, 5))
	f.Set("STAT", field(b, 4, 2))
	b = p.Uint8()
	f.Set("SSC", flag(b, 7))
	f.Set("ARC", flag(b, 6))
	f.Set("AIC", flag(b, 5))
	f.Set("B1A", flag(b, 4))
	f.Set("B1B", field(b, 3, 0))
}

// decodeStatusReported decodes the status reported by ADS-B.
func decodeStatusReported(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("AC", field(b, 7, 6))
	f.Set("MN", field(b, 5, 4))
	f.Set("DC", field(b, 3, 2))
	f.Set("GBS", flag(b, 1))
	f.Set("FS", field(p.Uint8(), 2, 0))
}

func decodeTrackAngleRate(f asterix.Fields, p *asterix.Payload) {
	f.Set("TI", field(p.Uint8(), 7, 6))
	f.Set("ROT", float64(bits.Signed(uint64(p.Uint8()>>1), 7))*0.25)
}

func decodeMetData(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("WSV", flag(b, 7))
	f.Set("WDV", flag(b, 6))
	f.Set("TMPV", flag(b, 5))
	f.Set("TRBV", flag(b, 4))
	f.Set("WS", int(p.Uint(2)))
	f.Set("WD", int(p.Uint(2)))
	f.Set("TMP", float64(p.Int(2))*0.25)
	f.Set("TRB", int(p.Uint8()))
}

func decodeModeSMBData(f asterix.Fields, p *asterix.Payload) {
	p.Repeat(8, func(n int, el *asterix.Payload) {
		f.SetIndexed("MB", n, el.Hex(7))
		b := el.Uint8()
		f.SetIndexed("BDS1", n, field(b, 7, 4))
		f.SetIndexed("BDS2", n, field(b, 3, 0))
	})
}

// decodeBarometricPressure stores the QNH setting in hPa.
func decodeBarometricPressure(f asterix.Fields, p *asterix.Payload) {
	f.Set("BPS", float64(bits.Field(p.Uint(2), 11, 0))*0.1+800)
}
