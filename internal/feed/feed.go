// Package feed consumes ASTERIX data blocks from NATS, decodes them and hands
// the results to storage sinks.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/patrickmn/go-cache"

	"asterix_decoder/internal/asterix"
	"asterix_decoder/internal/registry"
	"asterix_decoder/internal/storage"
)

// Config holds the feed settings.
type Config struct {
	URL           string        `yaml:"url"`
	Subject       string        `yaml:"subject"`
	Queue         string        `yaml:"queue"`          // Queue group, empty to receive every message.
	OutputSubject string        `yaml:"output_subject"` // Republish decoded JSON here when set.
	DedupeTTL     time.Duration `yaml:"dedupe_ttl"`     // Drop identical blocks seen within this window, 0 disables.
	Buffer        int           `yaml:"buffer"`
}

// DefaultConfig returns the settings for a local NATS server.
func DefaultConfig() Config {
	return Config{
		URL:       nats.DefaultURL,
		Subject:   "asterix.raw",
		DedupeTTL: 30 * time.Second,
		Buffer:    1024,
	}
}

// Sink stores a decoded data block.
type Sink interface {
	Store(ctx context.Context, e storage.Entry) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e storage.Entry) error

// Store calls f.
func (f SinkFunc) Store(ctx context.Context, e storage.Entry) error {
	return f(ctx, e)
}

// Publisher is the part of *nats.Conn used to republish decoded blocks.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Output is the JSON form of a decoded data block.
type Output struct {
	ID         string            `json:"id"`
	ReceivedAt time.Time         `json:"received_at"`
	Category   int               `json:"category"`
	Hex        string            `json:"hex"`
	Records    []*asterix.Record `json:"records,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// NewOutput converts an entry to its JSON form.
func NewOutput(e storage.Entry) Output {
	return Output{
		ID:         e.ID.String(),
		ReceivedAt: e.ReceivedAt,
		Category:   e.Category,
		Hex:        e.Hex,
		Records:    e.Records,
		Error:      e.Error,
	}
}

// Stats counts what the feed has processed.
type Stats struct {
	Payloads   int64 `json:"payloads"`
	Blocks     int64 `json:"blocks"`
	Records    int64 `json:"records"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`   // Blocks that did not decode.
	Rejected   int64 `json:"rejected"` // Payloads that could not be framed.
	SinkErrors int64 `json:"sink_errors"`
}

// Feed decodes payloads and fans the results out to its sinks.
type Feed struct {
	cfg   Config
	reg   *registry.Registry
	sinks []Sink
	seen  *cache.Cache
	pub   Publisher

	payloads, blocks, records              atomic.Int64
	duplicates, failed, rejected, sinkErrs atomic.Int64
}

// New creates a feed decoding with reg.
func New(cfg Config, reg *registry.Registry, sinks ...Sink) *Feed {
	f := &Feed{cfg: cfg, reg: reg, sinks: sinks}
	if cfg.DedupeTTL > 0 {
		f.seen = cache.New(cfg.DedupeTTL, 2*cfg.DedupeTTL)
	}
	return f
}

// SetPublisher sets where decoded blocks are republished.
func (f *Feed) SetPublisher(p Publisher) {
	f.pub = p
}

// Stats returns a snapshot of the counters.
func (f *Feed) Stats() Stats {
	return Stats{
		Payloads:   f.payloads.Load(),
		Blocks:     f.blocks.Load(),
		Records:    f.records.Load(),
		Duplicates: f.duplicates.Load(),
		Failed:     f.failed.Load(),
		Rejected:   f.rejected.Load(),
		SinkErrors: f.sinkErrs.Load(),
	}
}

// Handle decodes one payload received at the given time. The payload is
// either binary data blocks back to back or hex text with one block per
// line. Blocks that fail to decode are still stored with their error. A
// payload that does not frame cleanly returns the framing error after the
// blocks that did frame have been handled.
func (f *Feed) Handle(ctx context.Context, data []byte, receivedAt time.Time) ([]storage.Entry, error) {
	f.payloads.Add(1)

	msgs, splitErr := split(data)
	if splitErr != nil {
		f.rejected.Add(1)
	}

	var entries []storage.Entry
	for _, msg := range msgs {
		if f.duplicate(msg) {
			f.duplicates.Add(1)
			continue
		}
		f.blocks.Add(1)

		recs, decodeErr := f.reg.Decode(msg)
		if decodeErr != nil {
			f.failed.Add(1)
		}
		f.records.Add(int64(len(recs)))

		e := storage.NewEntry(msg, recs, decodeErr, receivedAt)
		for _, s := range f.sinks {
			if err := s.Store(ctx, e); err != nil {
				f.sinkErrs.Add(1)
				log.Printf("feed: store %s: %v", e.ID, err)
			}
		}
		f.publish(e)
		entries = append(entries, e)
	}
	return entries, splitErr
}

func (f *Feed) duplicate(msg *asterix.Message) bool {
	if f.seen == nil {
		return false
	}
	key := string(msg.Data[:msg.Length])
	if _, found := f.seen.Get(key); found {
		return true
	}
	f.seen.SetDefault(key, struct{}{})
	return false
}

func (f *Feed) publish(e storage.Entry) {
	if f.pub == nil || f.cfg.OutputSubject == "" {
		return
	}
	b, err := json.Marshal(NewOutput(e))
	if err != nil {
		log.Printf("feed: marshal %s: %v", e.ID, err)
		return
	}
	if err := f.pub.Publish(f.cfg.OutputSubject, b); err != nil {
		log.Printf("feed: publish %s: %v", e.ID, err)
	}
}

// split frames a payload into data blocks. Hex lines that do not parse are
// skipped and the first such error is returned with the blocks that did.
func split(data []byte) ([]*asterix.Message, error) {
	if !isHexText(data) {
		return asterix.SplitBlocks(data)
	}
	var msgs []*asterix.Message
	var firstErr error
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		msg, err := asterix.ParseHex(line)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("line %d: %w", n+1, err)
			}
			continue
		}
		msgs = append(msgs, msg)
	}
	if firstErr == nil && len(msgs) == 0 {
		firstErr = fmt.Errorf("%w: empty payload", asterix.ErrMalformedHeader)
	}
	return msgs, firstErr
}

// isHexText reports whether data holds only hex digits and whitespace. The
// category octets of 021 (0x15) and 062 (0x3e) are neither, so binary blocks
// of those categories are never mistaken for text.
func isHexText(data []byte) bool {
	digits := 0
	for _, b := range data {
		switch {
		case b >= '0' && b <= '9', b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
			digits++
		case b == ' ', b == '\t', b == '\r', b == '\n':
		default:
			return false
		}
	}
	return digits >= 2*asterix.HeaderLen
}

// Connect opens a NATS connection that keeps reconnecting.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("nats: disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats: reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	return nc, nil
}

// Run subscribes to the configured subject and handles messages until ctx is
// cancelled. Decoded blocks are republished on nc when an output subject is
// configured and no other publisher was set.
func (f *Feed) Run(ctx context.Context, nc *nats.Conn) error {
	if f.cfg.Subject == "" {
		return errors.New("feed: no subject configured")
	}
	if f.pub == nil && f.cfg.OutputSubject != "" {
		f.pub = nc
	}

	buffer := f.cfg.Buffer
	if buffer <= 0 {
		buffer = 1024
	}
	msgs := make(chan *nats.Msg, buffer)

	var sub *nats.Subscription
	var err error
	if f.cfg.Queue != "" {
		sub, err = nc.ChanQueueSubscribe(f.cfg.Subject, f.cfg.Queue, msgs)
	} else {
		sub, err = nc.ChanSubscribe(f.cfg.Subject, msgs)
	}
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", f.cfg.Subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	log.Printf("feed: subscribed to %s", f.cfg.Subject)
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-msgs:
			if _, err := f.Handle(ctx, m.Data, time.Now()); err != nil {
				log.Printf("feed: %s: %v", m.Subject, err)
			}
		}
	}
}
