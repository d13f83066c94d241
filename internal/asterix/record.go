package asterix

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/elliotchance/orderedmap/v3"
)

// Label builds the record key for a category item and sub-label, e.g.
// "021_010_SAC". An empty sub-label yields "021_SP".
func Label(category int, item, sub string) string {
	if sub == "" {
		return fmt.Sprintf("%03d_%s", category, item)
	}
	return fmt.Sprintf("%03d_%s_%s", category, item, sub)
}

// IndexedLabel is Label with a 1-based repetition index appended.
func IndexedLabel(category int, item, sub string, n int) string {
	return fmt.Sprintf("%s_%d", Label(category, item, sub), n)
}

// Record holds the decoded values of one ASTERIX record in insertion order.
type Record struct {
	Category int
	values   *orderedmap.OrderedMap[string, any]
}

// NewRecord returns an empty record for category.
func NewRecord(category int) *Record {
	return &Record{
		Category: category,
		values:   orderedmap.NewOrderedMapWithCapacity[string, any](32),
	}
}

// Set stores v under label, keeping the position of an existing label.
func (r *Record) Set(label string, v any) {
	r.values.Set(label, v)
}

// Get returns the value stored under label.
func (r *Record) Get(label string) (any, bool) {
	return r.values.Get(label)
}

// Len returns the number of labels.
func (r *Record) Len() int {
	return r.values.Len()
}

// Keys returns the labels in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.values.Len())
	for el := r.values.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}

// Map returns the values as a plain map.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, r.values.Len())
	for el := r.values.Front(); el != nil; el = el.Next() {
		m[el.Key] = el.Value
	}
	return m
}

// Copy returns a shallow copy of the record.
func (r *Record) Copy() *Record {
	c := &Record{
		Category: r.Category,
		values:   orderedmap.NewOrderedMapWithCapacity[string, any](r.values.Len()),
	}
	for el := r.values.Front(); el != nil; el = el.Next() {
		c.values.Set(el.Key, el.Value)
	}
	return c
}

// MarshalJSON writes the record as an object with keys in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for el := r.values.Front(); el != nil; el = el.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(el.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(el.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", el.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Fields writes the values of one data item into a record.
type Fields struct {
	rec  *Record
	cat  int
	item string
}

// NewFields scopes rec to the item of category.
func NewFields(rec *Record, category int, item string) Fields {
	return Fields{rec: rec, cat: category, item: item}
}

// Item returns the data item name.
func (f Fields) Item() string { return f.item }

// Set stores v under the item's sub-label.
func (f Fields) Set(sub string, v any) {
	f.rec.Set(Label(f.cat, f.item, sub), v)
}

// SetIndexed stores v under the sub-label of the n-th (1-based) repetition.
func (f Fields) SetIndexed(sub string, n int, v any) {
	f.rec.Set(IndexedLabel(f.cat, f.item, sub, n), v)
}
