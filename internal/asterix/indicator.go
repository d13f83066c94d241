package asterix

import (
	"fmt"

	"asterix_decoder/internal/bits"
)

// maxIndicatorOctets keeps the packed 7-bit groups within a uint64.
const maxIndicatorOctets = 9

// Indicator is an FX-terminated chain of octets with the FX bits removed.
// Position 1 is the most significant of the Octets*7 bits.
type Indicator struct {
	Bits   uint64
	Octets int
}

// Has reports whether the 1-based position is set.
func (ind Indicator) Has(position int) bool {
	return bits.IsSet(ind.Bits, position, ind.Octets)
}

// Width returns the number of usable positions.
func (ind Indicator) Width() int {
	return ind.Octets * 7
}

// ReadIndicator reads an FX chain starting at pos. Each octet contributes its
// top seven bits; bit 0 set means another octet follows.
func ReadIndicator(data []byte, pos int) (Indicator, error) {
	var ind Indicator
	for {
		if pos+ind.Octets >= len(data) {
			return Indicator{}, fmt.Errorf("%w: indicator at %d runs past %d", ErrTruncatedMessage, pos, len(data))
		}
		if ind.Octets == maxIndicatorOctets {
			return Indicator{}, fmt.Errorf("%w: indicator at %d longer than %d octets", ErrMalformedItem, pos, maxIndicatorOctets)
		}
		b := data[pos+ind.Octets]
		ind.Bits = ind.Bits<<7 | uint64(b>>1)
		ind.Octets++
		if b&0x01 == 0 {
			return ind, nil
		}
	}
}

// ExtentLength returns the number of octets in the FX chain at pos.
func ExtentLength(data []byte, pos int) (int, error) {
	for n := 0; ; n++ {
		if pos+n >= len(data) {
			return 0, fmt.Errorf("%w: extended item at %d runs past %d", ErrTruncatedMessage, pos, len(data))
		}
		if data[pos+n]&0x01 == 0 {
			return n + 1, nil
		}
	}
}
