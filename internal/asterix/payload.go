package asterix

import (
	"encoding/hex"
	"fmt"

	"asterix_decoder/internal/bits"
)

// Payload is the byte window of one data item handed to its decoder. Reads
// past the window leave the payload in an error state and return zero values,
// so decoders can read unconditionally and the engine checks Err once.
type Payload struct {
	data []byte
	base int // Offset of data[0] within the message.
	pos  int
	err  error
}

// NewPayload wraps data whose first octet sits at offset within the message.
func NewPayload(data []byte, offset int) *Payload {
	return &Payload{data: data, base: offset}
}

// Len returns the window size.
func (p *Payload) Len() int { return len(p.data) }

// Remaining returns the number of unread octets.
func (p *Payload) Remaining() int { return len(p.data) - p.pos }

// Offset returns the message offset of the next unread octet.
func (p *Payload) Offset() int { return p.base + p.pos }

// Err returns the first read error.
func (p *Payload) Err() error { return p.err }

func (p *Payload) take(n int) []byte {
	if p.err != nil {
		return nil
	}
	if n < 0 || n > p.Remaining() {
		p.err = fmt.Errorf("%w: read of %d octets at %d with %d left", ErrLengthMismatch, n, p.Offset(), p.Remaining())
		return nil
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b
}

// Uint8 reads one octet.
func (p *Payload) Uint8() uint8 {
	b := p.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Uint reads n big-endian octets (at most eight).
func (p *Payload) Uint(n int) uint64 {
	if n > 8 {
		p.fail(fmt.Errorf("%w: %d octet integer at %d", ErrMalformedItem, n, p.Offset()))
		return 0
	}
	return bits.Uint(p.take(n))
}

// Int reads n big-endian octets as a two's complement value.
func (p *Payload) Int(n int) int64 {
	return bits.Signed(p.Uint(n), n*8)
}

// Bytes reads n octets. The result aliases the message.
func (p *Payload) Bytes(n int) []byte {
	return p.take(n)
}

// Rest reads everything left in the window.
func (p *Payload) Rest() []byte {
	return p.take(p.Remaining())
}

// Skip discards n octets.
func (p *Payload) Skip(n int) {
	p.take(n)
}

// Hex reads n octets as lowercase hex.
func (p *Payload) Hex(n int) string {
	return hex.EncodeToString(p.take(n))
}

// Indicator reads an FX-terminated chain.
func (p *Payload) Indicator() Indicator {
	if p.err != nil {
		return Indicator{}
	}
	ind, err := ReadIndicator(p.data, p.pos)
	if err != nil {
		p.fail(fmt.Errorf("%w: indicator at %d", ErrLengthMismatch, p.Offset()))
		return Indicator{}
	}
	p.pos += ind.Octets
	return ind
}

// Extent reads an FX-terminated chain and returns its octets as they are.
func (p *Payload) Extent() []byte {
	if p.err != nil {
		return nil
	}
	n, err := ExtentLength(p.data, p.pos)
	if err != nil {
		p.fail(fmt.Errorf("%w: extent at %d", ErrLengthMismatch, p.Offset()))
		return nil
	}
	return p.take(n)
}

// Sub carves the next n octets into a payload of their own.
func (p *Payload) Sub(n int) *Payload {
	off := p.Offset()
	b := p.take(n)
	sub := NewPayload(b, off)
	if b == nil && n != 0 {
		sub.err = p.err
	}
	return sub
}

func (p *Payload) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Done reports an error unless the window was read exactly.
func (p *Payload) Done() error {
	if p.err != nil {
		return p.err
	}
	if p.pos != len(p.data) {
		return fmt.Errorf("%w: %d of %d octets left unread at %d", ErrLengthMismatch, p.Remaining(), len(p.data), p.Offset())
	}
	return nil
}

// Repeat reads a repetition count and calls fn for each size-octet element
// with its 1-based index.
func (p *Payload) Repeat(size int, fn func(n int, el *Payload)) {
	count := int(p.Uint8())
	for n := 1; n <= count && p.err == nil; n++ {
		el := p.Sub(size)
		fn(n, el)
		if err := el.Done(); err != nil {
			p.fail(fmt.Errorf("repetition %d: %w", n, err))
		}
	}
}
