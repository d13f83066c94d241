package asterix

import "fmt"

// FieldSpec is the resolved FSPEC of one record. Items are in wire order;
// Start is the first FSPEC octet and End the first item octet.
type FieldSpec struct {
	Items []Item
	Start int
	End   int
}

// Octets returns the number of FSPEC octets.
func (fs FieldSpec) Octets() int {
	return fs.End - fs.Start
}

// ResolveFieldSpec reads the FSPEC at pos and maps every set bit through uap.
// Bits 7..1 of each octet select FRN 1..7 of the current block; bit 0 clear
// ends the FSPEC.
func ResolveFieldSpec(data []byte, pos int, uap UAP) (FieldSpec, error) {
	fs := FieldSpec{Start: pos}
	for block := 1; ; block++ {
		if pos >= len(data) {
			return FieldSpec{}, fmt.Errorf("%w: FSPEC runs past %d", ErrTruncatedMessage, len(data))
		}
		if block > len(uap) {
			return FieldSpec{}, fmt.Errorf("%w: FSPEC octet %d beyond %d UAP blocks", ErrMalformedFieldSpec, block, len(uap))
		}
		b := data[pos]
		pos++
		for bit := 7; bit >= 1; bit-- {
			if b&(1<<uint(bit)) == 0 {
				continue
			}
			frn := 8 - bit
			it, err := uap.Lookup(block, frn)
			if err != nil {
				return FieldSpec{}, err
			}
			if it.Name == Spare {
				return FieldSpec{}, fmt.Errorf("%w: spare bit set at block %d FRN %d", ErrMalformedFieldSpec, block, frn)
			}
			fs.Items = append(fs.Items, it)
		}
		if b&0x01 == 0 {
			fs.End = pos
			return fs, nil
		}
	}
}
