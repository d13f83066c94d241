package asterix

import (
	"fmt"
	"sort"
)

// DecodeFunc interprets the payload of one data item and writes its values
// through f. It must read the payload window exactly.
type DecodeFunc func(f Fields, p *Payload)

// Category bundles everything the engine needs for one ASTERIX category.
type Category struct {
	ID       int
	Name     string
	UAP      UAP
	Lengths  map[string]LengthRule
	Decoders map[string]DecodeFunc
}

// Validate checks the UAP and that every variable item has a length rule.
func (c *Category) Validate() error {
	if err := c.UAP.Validate(); err != nil {
		return fmt.Errorf("cat %03d: %w", c.ID, err)
	}
	for _, block := range c.UAP {
		for _, it := range block {
			if it.IsVariable() {
				if _, ok := c.Lengths[it.Name]; !ok {
					return fmt.Errorf("cat %03d: %w: no length rule for variable item %s", c.ID, ErrMalformedUAP, it.Name)
				}
			}
		}
	}
	return nil
}

// ItemLength resolves the length of it starting at pos.
func (c *Category) ItemLength(data []byte, pos int, it Item) (int, error) {
	if !it.IsVariable() {
		if it.Length < 1 {
			return 0, fmt.Errorf("%w: item %s has length %d", ErrMalformedUAP, it.Name, it.Length)
		}
		return it.Length, nil
	}
	rule, ok := c.Lengths[it.Name]
	if !ok {
		return 0, fmt.Errorf("%w: no length rule for variable item %s", ErrMalformedUAP, it.Name)
	}
	return rule.Resolve(data, pos)
}

// Items returns the names of all non-spare UAP items, sorted.
func (c *Category) Items() []string {
	var names []string
	for _, block := range c.UAP {
		for _, it := range block {
			if it.Name != Spare {
				names = append(names, it.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Opaque stores the whole item, length octet included, as hex under the bare
// item label.
func Opaque(f Fields, p *Payload) {
	f.Set("", p.Hex(p.Remaining()))
}

// DecodeCompound returns a decoder that walks a compound item with the
// subfield layout of rule and hands each present subfield to the decoder
// registered under its name. Subfields without a decoder are skipped.
func DecodeCompound(rule LengthRule, subfields map[string]DecodeFunc) DecodeFunc {
	return func(f Fields, p *Payload) {
		ind := p.Indicator()
		for i := 1; i <= ind.Width() && p.err == nil; i++ {
			if !ind.Has(i) {
				continue
			}
			sf, err := rule.Subfield(i)
			if err != nil {
				p.fail(err)
				return
			}
			n := sf.Size
			if sf.Repeated {
				if p.Remaining() < 1 {
					p.fail(fmt.Errorf("%w: repetition count of %s at %d", ErrLengthMismatch, sf.Name, p.Offset()))
					return
				}
				n = 1 + int(p.data[p.pos])*sf.Size
			}
			sub := p.Sub(n)
			if dec, ok := subfields[sf.Name]; ok {
				dec(f, sub)
			} else {
				sub.Skip(sub.Remaining())
			}
			if err := sub.Done(); err != nil {
				p.fail(fmt.Errorf("subfield %s: %w", sf.Name, err))
			}
		}
	}
}
