package cat062

import (
	"asterix_decoder/internal/asterix"
	"asterix_decoder/internal/bits"
)

// flightPlanDecoders covers the subfields of I062/390 Flight Plan Related
// Data. Text subfields are ASCII padded with spaces.
var flightPlanDecoders = subfields{
	"TAG": decodeDataSource,
	"CSN": decodeText("CS", 7),
	"IFI": decodeFlightPlanNumber,
	"FCT": decodeFlightCategory,
	"TAC": decodeText("TAC", 4),
	"WTC": decodeText("WTC", 1),
	"DEP": decodeText("ADEP", 4),
	"DST": decodeText("ADES", 4),
	"RDS": decodeText("RDS", 3),
	"CFL": func(f asterix.Fields, p *asterix.Payload) { f.Set("CFL", float64(p.Uint(2))*0.25) },
	"CTL": decodeControlPosition,
	"TOD": decodeTimesOfDeparture,
	"AST": decodeText("AST", 6),
	"STS": decodeStandStatus,
	"STD": decodeText("STD", 7),
	"STA": decodeText("STA", 7),
	"PEM": decodePreEmergencyMode3A,
	"PEC": decodeText("PEC", 7),
}

func decodeText(sub string, n int) asterix.DecodeFunc {
	return func(f asterix.Fields, p *asterix.Payload) {
		f.Set(sub, bits.ASCII(p.Bytes(n)))
	}
}

// decodeFlightPlanNumber decodes the IFPS flight ID.
func decodeFlightPlanNumber(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(4)
	f.Set("TYP", int(bits.Field(v, 31, 30)))
	f.Set("NBR", int(bits.Field(v, 26, 0)))
}

func decodeFlightCategory(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("GATOAT", field(b, 7, 6))
	f.Set("FR1FR2", field(b, 5, 4))
	f.Set("RVSM", field(b, 3, 2))
	f.Set("HPR", flag(b, 1))
}

func decodeControlPosition(f asterix.Fields, p *asterix.Payload) {
	f.Set("CENTRE", int(p.Uint8()))
	f.Set("POSITION", int(p.Uint8()))
}

func decodeTimesOfDeparture(f asterix.Fields, p *asterix.Payload) {
	p.Repeat(4, func(n int, el *asterix.Payload) {
		b := el.Uint8()
		f.SetIndexed("TYP", n, field(b, 7, 3))
		f.SetIndexed("DAY", n, field(b, 2, 1))
		f.SetIndexed("HOR", n, field(el.Uint8(), 4, 0))
		f.SetIndexed("MIN", n, field(el.Uint8(), 5, 0))
		b = el.Uint8()
		f.SetIndexed("AVS", n, flag(b, 7))
		f.SetIndexed("SEC", n, field(b, 5, 0))
	})
}

func decodeStandStatus(f asterix.Fields, p *asterix.Payload) {
	b := p.Uint8()
	f.Set("EMP", field(b, 7, 6))
	f.Set("AVL", field(b, 5, 4))
}

func decodePreEmergencyMode3A(f asterix.Fields, p *asterix.Payload) {
	v := p.Uint(2)
	f.Set("VA", bits.Bit(v, 12))
	f.Set("PEM", bits.OctalCode(v))
}
