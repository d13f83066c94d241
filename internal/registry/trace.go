// Package registry provides tracing for decoder debugging.
package registry

import (
	"asterix_decoder/internal/asterix"
)

// TraceResult contains everything the trace command shows for one block.
type TraceResult struct {
	Category int               `json:"category"`
	Name     string            `json:"name,omitempty"` // Category name, empty when unknown.
	Hex      string            `json:"hex"`
	Layout   *asterix.Trace    `json:"layout,omitempty"`
	Records  []*asterix.Record `json:"records,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Matched reports whether the block decoded cleanly.
func (tr *TraceResult) Matched() bool {
	return tr.Error == ""
}

// Trace decodes msg and reports the item layout it walked. On failure the
// layout covers everything up to the failing item.
func (r *Registry) Trace(msg *asterix.Message) *TraceResult {
	tr := &TraceResult{
		Category: msg.Category,
		Hex:      msg.Hex(),
	}

	cat, err := r.Lookup(msg.Category)
	if err != nil {
		tr.Error = err.Error()
		return tr
	}
	tr.Name = cat.Name

	recs, layout, err := asterix.DecodeTrace(cat, msg)
	tr.Layout = layout
	tr.Records = recs
	if err != nil {
		tr.Error = err.Error()
	}
	return tr
}
