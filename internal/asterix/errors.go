package asterix

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedHeader    = errors.New("malformed data block header")
	ErrMalformedUAP       = errors.New("malformed UAP")
	ErrMalformedFieldSpec = errors.New("malformed field specification")
	ErrTruncatedMessage   = errors.New("truncated message")
	ErrMalformedItem      = errors.New("malformed data item")
	ErrLengthMismatch     = errors.New("decoder length mismatch")
)

// DecodeError reports where in a message decoding failed.
type DecodeError struct {
	Category int
	Record   int    // 0-based record index within the message.
	Offset   int    // Byte offset of the failing FSPEC or item.
	Item     string // Empty while reading the FSPEC.
	Err      error
}

func (de *DecodeError) Error() string {
	if de.Item == "" {
		return fmt.Sprintf("cat %03d record %d offset %d: %v", de.Category, de.Record, de.Offset, de.Err)
	}
	return fmt.Sprintf("cat %03d record %d item %s offset %d: %v", de.Category, de.Record, de.Item, de.Offset, de.Err)
}

func (de *DecodeError) Unwrap() error {
	return de.Err
}
