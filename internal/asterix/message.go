// Package asterix implements the category-agnostic ASTERIX decoding engine:
// data block framing, FSPEC resolution against a UAP, variable item length
// resolution and the record loop that hands each item to its decoder.
package asterix

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HeaderLen is the size of the data block header (CAT + 2-octet LEN).
const HeaderLen = 3

// Message is a single ASTERIX data block. Data holds the whole block,
// header included, so offsets reported by the engine match the wire.
type Message struct {
	Category int
	Length   int
	Data     []byte
}

// Body returns the record area of the block.
func (m *Message) Body() []byte {
	return m.Data[HeaderLen:m.Length]
}

// Hex returns the block as lowercase hex.
func (m *Message) Hex() string {
	return hex.EncodeToString(m.Data[:m.Length])
}

// ParseHex converts the textual representation of one data block.
// Whitespace is ignored.
func ParseHex(s string) (*Message, error) {
	s = strings.Join(strings.Fields(s), "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of hex digits", ErrMalformedHeader)
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	msg, err := ParseBlock(data)
	if err != nil {
		return nil, err
	}
	if msg.Length != len(data) {
		return nil, fmt.Errorf("%w: declared length %d, got %d octets", ErrMalformedHeader, msg.Length, len(data))
	}
	return msg, nil
}

// ParseBlock reads the header at the start of data and returns the block it
// declares. Trailing octets beyond the declared length are not part of the
// block.
func ParseBlock(data []byte) (*Message, error) {
	if len(data) < HeaderLen {
		return nil, fmt.Errorf("%w: %d octets, need at least %d", ErrMalformedHeader, len(data), HeaderLen)
	}
	length := int(data[1])<<8 | int(data[2])
	if length <= HeaderLen {
		return nil, fmt.Errorf("%w: declared length %d", ErrMalformedHeader, length)
	}
	if length > len(data) {
		return nil, fmt.Errorf("%w: declared length %d exceeds %d available octets", ErrMalformedHeader, length, len(data))
	}
	return &Message{
		Category: int(data[0]),
		Length:   length,
		Data:     data[:length],
	}, nil
}

// SplitBlocks splits a buffer of back-to-back data blocks, as found in
// recordings and datagram payloads. On a framing error the blocks before it
// are returned with the error.
func SplitBlocks(data []byte) ([]*Message, error) {
	var msgs []*Message
	for off := 0; off < len(data); {
		msg, err := ParseBlock(data[off:])
		if err != nil {
			return msgs, fmt.Errorf("block at offset %d: %w", off, err)
		}
		msgs = append(msgs, msg)
		off += msg.Length
	}
	return msgs, nil
}
