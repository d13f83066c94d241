package asterix

import (
	"encoding/hex"
	"fmt"
)

// Trace describes how a message was walked.
type Trace struct {
	Category int           `json:"category"`
	Length   int           `json:"length"`
	Records  []RecordTrace `json:"records"`
}

// RecordTrace describes one record: its FSPEC and the items that followed.
type RecordTrace struct {
	Offset int         `json:"offset"`
	FSPEC  string      `json:"fspec"`
	Items  []ItemTrace `json:"items"`
}

// ItemTrace records where an item sat and whether a decoder ran for it.
type ItemTrace struct {
	Name     string `json:"name"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	Variable bool   `json:"variable"`
	Decoded  bool   `json:"decoded"`
}

// Decode decodes every record of msg with cat. Either all records or an
// error are returned.
func Decode(cat *Category, msg *Message) ([]*Record, error) {
	recs, _, err := decode(cat, msg, nil)
	return recs, err
}

// DecodeTrace is Decode that also reports the layout it walked. The trace
// covers everything up to a failure.
func DecodeTrace(cat *Category, msg *Message) ([]*Record, *Trace, error) {
	tr := &Trace{Category: msg.Category, Length: msg.Length}
	recs, tr, err := decode(cat, msg, tr)
	return recs, tr, err
}

func decode(cat *Category, msg *Message, tr *Trace) ([]*Record, *Trace, error) {
	if cat == nil {
		return nil, tr, fmt.Errorf("%w: no category", ErrMalformedUAP)
	}
	if msg.Category != cat.ID {
		return nil, tr, fmt.Errorf("%w: message category %d decoded as %d", ErrMalformedHeader, msg.Category, cat.ID)
	}
	if msg.Length <= HeaderLen || msg.Length > len(msg.Data) {
		return nil, tr, fmt.Errorf("%w: declared length %d with %d octets", ErrMalformedHeader, msg.Length, len(msg.Data))
	}

	data := msg.Data[:msg.Length]
	var records []*Record
	pos := HeaderLen

	for n := 0; pos < len(data); n++ {
		fs, err := ResolveFieldSpec(data, pos, cat.UAP)
		if err != nil {
			return nil, tr, &DecodeError{Category: cat.ID, Record: n, Offset: pos, Err: err}
		}

		var rt *RecordTrace
		if tr != nil {
			tr.Records = append(tr.Records, RecordTrace{
				Offset: fs.Start,
				FSPEC:  hex.EncodeToString(data[fs.Start:fs.End]),
			})
			rt = &tr.Records[len(tr.Records)-1]
		}

		rec := NewRecord(cat.ID)
		pos = fs.End
		for _, it := range fs.Items {
			length, err := cat.ItemLength(data, pos, it)
			if err != nil {
				return nil, tr, &DecodeError{Category: cat.ID, Record: n, Offset: pos, Item: it.Name, Err: err}
			}
			if pos+length > len(data) {
				err := fmt.Errorf("%w: %d octets at %d exceed declared length %d", ErrTruncatedMessage, length, pos, len(data))
				return nil, tr, &DecodeError{Category: cat.ID, Record: n, Offset: pos, Item: it.Name, Err: err}
			}

			dec, ok := cat.Decoders[it.Name]
			if ok {
				p := NewPayload(data[pos:pos+length], pos)
				dec(NewFields(rec, cat.ID, it.Name), p)
				if err := p.Done(); err != nil {
					return nil, tr, &DecodeError{Category: cat.ID, Record: n, Offset: pos, Item: it.Name, Err: err}
				}
			}
			if rt != nil {
				rt.Items = append(rt.Items, ItemTrace{
					Name:     it.Name,
					Offset:   pos,
					Length:   length,
					Variable: it.IsVariable(),
					Decoded:  ok,
				})
			}
			pos += length
		}
		records = append(records, rec.Copy())
	}
	return records, tr, nil
}
