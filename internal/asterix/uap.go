package asterix

import "fmt"

// Variable marks a UAP item whose length is resolved from its content.
const Variable = -1

// Reserved item names.
const (
	Spare             = "SPARE"
	ReservedExpansion = "RE"
	SpecialPurpose    = "SP"
)

// Item is one UAP slot: the data item name and its nominal length in octets.
type Item struct {
	Name   string
	Length int
}

// IsVariable reports whether the item length must be resolved dynamically.
func (it Item) IsVariable() bool {
	return it.Length == Variable
}

// UAP maps FSPEC positions to data items. Block b (0-based here) holds the
// items for FSPEC octet b+1, FRN 1 in index 0.
type UAP [][7]Item

// Lookup returns the item at the 1-based block and field reference number.
func (u UAP) Lookup(block, frn int) (Item, error) {
	if block < 1 || block > len(u) || frn < 1 || frn > 7 {
		return Item{}, fmt.Errorf("%w: no slot for block %d FRN %d", ErrMalformedUAP, block, frn)
	}
	it := u[block-1][frn-1]
	if it.Name == "" {
		return Item{}, fmt.Errorf("%w: empty slot at block %d FRN %d", ErrMalformedUAP, block, frn)
	}
	return it, nil
}

// Validate checks that every slot is named and has a usable length.
func (u UAP) Validate() error {
	if len(u) == 0 {
		return fmt.Errorf("%w: no blocks", ErrMalformedUAP)
	}
	for b := range u {
		for f, it := range u[b] {
			switch {
			case it.Name == "":
				return fmt.Errorf("%w: empty slot at block %d FRN %d", ErrMalformedUAP, b+1, f+1)
			case it.Name == Spare:
			case it.Length == 0 || it.Length < Variable:
				return fmt.Errorf("%w: item %s has length %d", ErrMalformedUAP, it.Name, it.Length)
			}
		}
	}
	return nil
}
