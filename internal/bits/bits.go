// Package bits provides the bit-level helpers shared by the ASTERIX decoders:
// indicator bit tests, bitfield extraction, two's complement sign extension
// and packed character decoding.
package bits

import (
	"fmt"
	"strings"
)

// IsSet reports whether the 1-based, MSB-first position is set within a value
// built from octets 7-bit groups (FX bits stripped). Positions outside
// 1..octets*7 are never set.
func IsSet(value uint64, position, octets int) bool {
	width := octets * 7
	if position < 1 || position > width || width > 64 {
		return false
	}
	shift := width - position
	return value&(1<<uint(shift)) != 0
}

// ExtractBitfield copies bits high..low (inclusive, 0 = LSB) of value into a
// result where bit high lands at position top and the following bits fill
// downwards. Bits that fall outside 0..63 on either side contribute nothing.
func ExtractBitfield(value uint64, high, low, top int) uint64 {
	var result uint64
	for i, pos := high, top; i >= low; i, pos = i-1, pos-1 {
		if i < 0 || i > 63 || pos < 0 || pos > 63 {
			continue
		}
		if value&(1<<uint(i)) != 0 {
			result |= 1 << uint(pos)
		}
	}
	return result
}

// Field returns bits high..low of value right-justified.
func Field(value uint64, high, low int) uint64 {
	return ExtractBitfield(value, high, low, high-low)
}

// SignExtend interprets the low width bits of value as a two's complement
// number. Widths outside 1..63 leave the value unchanged.
func SignExtend(value int64, width int) int64 {
	if width < 1 || width > 63 {
		return value
	}
	if value >= int64(1)<<uint(width-1) {
		return value - int64(1)<<uint(width)
	}
	return value
}

// Signed is SignExtend for unsigned raw fields.
func Signed(raw uint64, width int) int64 {
	return SignExtend(int64(raw), width)
}

// Uint assembles up to eight big-endian octets into an unsigned value.
func Uint(data []byte) uint64 {
	var v uint64
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	return v
}

// packedChars maps the ICAO 6-bit character set onto ASCII. Only letters
// (1-26) and digits (48-57) are defined; the rest stay empty.
var packedChars = [58]string{
	1: "A", 2: "B", 3: "C", 4: "D", 5: "E", 6: "F", 7: "G", 8: "H", 9: "I",
	10: "J", 11: "K", 12: "L", 13: "M", 14: "N", 15: "O", 16: "P", 17: "Q",
	18: "R", 19: "S", 20: "T", 21: "U", 22: "V", 23: "W", 24: "X", 25: "Y",
	26: "Z",
	48: "0", 49: "1", 50: "2", 51: "3", 52: "4", 53: "5", 54: "6", 55: "7",
	56: "8", 57: "9",
}

// PackedChar returns the character for a 6-bit code, or "" when the code has
// no mapping.
func PackedChar(code int) string {
	if code < 0 || code >= len(packedChars) {
		return ""
	}
	return packedChars[code]
}

// Bit returns bit n (0 = LSB) of value as 0 or 1.
func Bit(value uint64, n int) int {
	return int(Field(value, n, n))
}

// OctalCode formats the low 12 bits of value as a four digit octal code,
// the way Mode 1, Mode 2 and Mode 3/A codes are written.
func OctalCode(value uint64) string {
	return fmt.Sprintf("%04o", value&0x0FFF)
}

// ASCII returns data as text with surrounding spaces and NULs removed.
func ASCII(data []byte) string {
	return strings.Trim(string(data), " \x00")
}
