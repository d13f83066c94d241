package bits

import (
	"errors"
	"strings"
)

// ErrInsufficientBits is returned when there are not enough bits to read.
var ErrInsufficientBits = errors.New("insufficient bits in stream")

// Reader reads MSB-first bit groups from a byte slice.
type Reader struct {
	data   []byte
	offset int // Current bit offset.
	nbits  int // Total number of bits available.
}

// NewReader creates a new Reader from a byte slice.
func NewReader(data []byte) *Reader {
	return &Reader{
		data:  data,
		nbits: len(data) * 8,
	}
}

// Remaining returns the number of bits remaining.
func (br *Reader) Remaining() int {
	return br.nbits - br.offset
}

// ReadBits reads up to 32 bits from the stream.
func (br *Reader) ReadBits(nbits int) (uint32, error) {
	if nbits < 0 || nbits > 32 {
		return 0, errors.New("invalid bit count (must be 0-32)")
	}
	if nbits == 0 {
		return 0, nil
	}
	if br.offset+nbits > br.nbits {
		return 0, ErrInsufficientBits
	}

	byteOffset := br.offset / 8
	bitOffset := br.offset % 8

	var accum uint64
	bytesNeeded := (bitOffset + nbits + 7) / 8
	for i := 0; i < bytesNeeded; i++ {
		accum = accum<<8 | uint64(br.data[byteOffset+i])
	}

	shift := bytesNeeded*8 - bitOffset - nbits
	accum >>= uint(shift)
	accum &= 1<<uint(nbits) - 1

	br.offset += nbits
	return uint32(accum), nil
}

// ReadBit reads a single bit and returns it as a boolean.
func (br *Reader) ReadBit() (bool, error) {
	v, err := br.ReadBits(1)
	return v == 1, err
}

// PackedString decodes chars consecutive 6-bit character codes from data.
// Codes without a character (spaces, padding) are dropped.
func PackedString(data []byte, chars int) string {
	br := NewReader(data)
	var sb strings.Builder
	for i := 0; i < chars; i++ {
		code, err := br.ReadBits(6)
		if err != nil {
			break
		}
		sb.WriteString(PackedChar(int(code)))
	}
	return sb.String()
}
