package asterix

import "fmt"

// Shape identifies how a variable item encodes its own length.
type Shape int

const (
	// ShapeExtended is an FX-terminated chain of octets.
	ShapeExtended Shape = iota + 1
	// ShapeExplicit starts with an octet holding the total item length.
	ShapeExplicit
	// ShapeRepetitive starts with a repetition count N followed by N
	// elements of Size octets.
	ShapeRepetitive
	// ShapeCompound starts with a primary subfield indicator selecting
	// which Subfields follow.
	ShapeCompound
	// ShapeChained is a run of Size-octet chunks whose FX bit sits in the
	// octet at FXOffset of each chunk.
	ShapeChained
)

func (s Shape) String() string {
	switch s {
	case ShapeExtended:
		return "extended"
	case ShapeExplicit:
		return "explicit"
	case ShapeRepetitive:
		return "repetitive"
	case ShapeCompound:
		return "compound"
	case ShapeChained:
		return "chained"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Subfield is one slot of a compound item. An empty name marks a spare
// position. Repeated subfields are 1 + N*Size octets long, N being the
// first octet of the subfield.
type Subfield struct {
	Name     string
	Size     int
	Repeated bool
}

// Fixed declares a compound subfield of size octets.
func Fixed(name string, size int) Subfield {
	return Subfield{Name: name, Size: size}
}

// Rep declares a repetition-count-prefixed compound subfield.
func Rep(name string, size int) Subfield {
	return Subfield{Name: name, Size: size, Repeated: true}
}

// SpareSubfield reserves a compound position that must never be set.
func SpareSubfield() Subfield {
	return Subfield{}
}

// LengthRule resolves the length of a variable item without decoding it.
type LengthRule struct {
	Shape     Shape
	Size      int
	FXOffset  int
	Subfields []Subfield
}

// Extended returns the rule for FX-terminated items.
func Extended() LengthRule {
	return LengthRule{Shape: ShapeExtended}
}

// Explicit returns the rule for items led by their own length octet.
func Explicit() LengthRule {
	return LengthRule{Shape: ShapeExplicit}
}

// Repetitive returns the rule for items of N repetitions of size octets.
func Repetitive(size int) LengthRule {
	return LengthRule{Shape: ShapeRepetitive, Size: size}
}

// Compound returns the rule for indicator-driven items. Subfield i (0-based)
// is present when indicator position i+1 is set.
func Compound(subfields ...Subfield) LengthRule {
	return LengthRule{Shape: ShapeCompound, Subfields: subfields}
}

// Chained returns the rule for repeated size-octet chunks whose FX bit is
// bit 0 of the octet at fxOffset.
func Chained(size, fxOffset int) LengthRule {
	return LengthRule{Shape: ShapeChained, Size: size, FXOffset: fxOffset}
}

// Resolve returns the length in octets of the item starting at pos.
func (r LengthRule) Resolve(data []byte, pos int) (int, error) {
	switch r.Shape {
	case ShapeExtended:
		return ExtentLength(data, pos)

	case ShapeExplicit:
		if pos >= len(data) {
			return 0, fmt.Errorf("%w: length octet at %d", ErrTruncatedMessage, pos)
		}
		n := int(data[pos])
		if n == 0 {
			return 0, fmt.Errorf("%w: explicit length 0 at %d", ErrMalformedItem, pos)
		}
		return n, nil

	case ShapeRepetitive:
		if pos >= len(data) {
			return 0, fmt.Errorf("%w: repetition count at %d", ErrTruncatedMessage, pos)
		}
		return 1 + int(data[pos])*r.Size, nil

	case ShapeCompound:
		ind, err := ReadIndicator(data, pos)
		if err != nil {
			return 0, err
		}
		length := ind.Octets
		for i := 1; i <= ind.Width(); i++ {
			if !ind.Has(i) {
				continue
			}
			sf, err := r.Subfield(i)
			if err != nil {
				return 0, fmt.Errorf("%w at %d", err, pos)
			}
			n, err := sf.length(data, pos+length)
			if err != nil {
				return 0, err
			}
			length += n
		}
		return length, nil

	case ShapeChained:
		if r.Size < 1 || r.FXOffset < 0 || r.FXOffset >= r.Size {
			return 0, fmt.Errorf("%w: chained rule size %d fx offset %d", ErrMalformedUAP, r.Size, r.FXOffset)
		}
		length := 0
		for {
			at := pos + length + r.FXOffset
			if at >= len(data) {
				return 0, fmt.Errorf("%w: chained item at %d runs past %d", ErrTruncatedMessage, pos, len(data))
			}
			length += r.Size
			if data[at]&0x01 == 0 {
				return length, nil
			}
		}

	default:
		return 0, fmt.Errorf("%w: unknown length shape %v", ErrMalformedUAP, r.Shape)
	}
}

// Subfield returns the compound subfield at the 1-based indicator position.
func (r LengthRule) Subfield(position int) (Subfield, error) {
	if position < 1 || position > len(r.Subfields) || r.Subfields[position-1].Name == "" {
		return Subfield{}, fmt.Errorf("%w: undefined subfield %d", ErrMalformedItem, position)
	}
	return r.Subfields[position-1], nil
}

func (sf Subfield) length(data []byte, pos int) (int, error) {
	if !sf.Repeated {
		return sf.Size, nil
	}
	if pos >= len(data) {
		return 0, fmt.Errorf("%w: repetition count of %s at %d", ErrTruncatedMessage, sf.Name, pos)
	}
	return 1 + int(data[pos])*sf.Size, nil
}
