// Package registry provides the category registry used to dispatch ASTERIX
// data blocks to the category that can decode them.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"asterix_decoder/internal/asterix"
)

// ErrUnknownCategory is returned for data blocks of a category with no
// registered definition.
var ErrUnknownCategory = errors.New("unknown category")

// Result is the outcome of decoding one data block.
type Result struct {
	Message *asterix.Message
	Records []*asterix.Record
	Err     error
}

// Registry holds all registered categories keyed by category number.
type Registry struct {
	mu         sync.RWMutex
	categories map[int]*asterix.Category
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{
		categories: make(map[int]*asterix.Category),
	}
}

// Global default registry.
var defaultRegistry = New()

// Default returns the global registry instance.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a category to the default registry.
// Called during init() in each category package.
func Register(cat *asterix.Category) {
	if err := defaultRegistry.Register(cat); err != nil {
		panic(err)
	}
}

// Register adds a category to the registry. Categories are validated and a
// category number may only be registered once.
func (r *Registry) Register(cat *asterix.Category) error {
	if err := cat.Validate(); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[cat.ID]; ok {
		return fmt.Errorf("register: category %03d already registered", cat.ID)
	}
	r.categories[cat.ID] = cat
	return nil
}

// Lookup returns the category registered under id.
func (r *Registry) Lookup(id int) (*asterix.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cat, ok := r.categories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %03d", ErrUnknownCategory, id)
	}
	return cat, nil
}

// IDs returns the registered category numbers in ascending order.
func (r *Registry) IDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.categories))
	for id := range r.categories {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Categories returns all registered categories ordered by number.
func (r *Registry) Categories() []*asterix.Category {
	ids := r.IDs()

	r.mu.RLock()
	defer r.mu.RUnlock()

	cats := make([]*asterix.Category, 0, len(ids))
	for _, id := range ids {
		cats = append(cats, r.categories[id])
	}
	return cats
}

// Count returns the number of registered categories.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.categories)
}

// Decode decodes msg with the category its header names.
func (r *Registry) Decode(msg *asterix.Message) ([]*asterix.Record, error) {
	cat, err := r.Lookup(msg.Category)
	if err != nil {
		return nil, err
	}
	return asterix.Decode(cat, msg)
}

// DecodeHex parses and decodes one hex-encoded data block.
func (r *Registry) DecodeHex(s string) (*asterix.Message, []*asterix.Record, error) {
	msg, err := asterix.ParseHex(s)
	if err != nil {
		return nil, nil, err
	}
	recs, err := r.Decode(msg)
	if err != nil {
		return msg, nil, err
	}
	return msg, recs, nil
}

// DecodeStream splits data into data blocks and decodes each one. A block
// that fails to decode does not stop the others. A framing error ends the
// stream, since the next block boundary is unknown; the blocks before it are
// still decoded and returned with the error.
func (r *Registry) DecodeStream(data []byte) ([]Result, error) {
	msgs, splitErr := asterix.SplitBlocks(data)

	results := make([]Result, 0, len(msgs))
	for _, msg := range msgs {
		recs, err := r.Decode(msg)
		results = append(results, Result{Message: msg, Records: recs, Err: err})
	}
	return results, splitErr
}
