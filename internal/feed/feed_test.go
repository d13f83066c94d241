package feed

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"asterix_decoder/internal/asterix"
	"asterix_decoder/internal/categories/cat021"
	"asterix_decoder/internal/categories/cat062"
	"asterix_decoder/internal/registry"
	"asterix_decoder/internal/storage"
)

type memorySink struct {
	entries []storage.Entry
	err     error
}

func (m *memorySink) Store(_ context.Context, e storage.Entry) error {
	m.entries = append(m.entries, e)
	return m.err
}

type published struct {
	subject string
	data    []byte
}

type memoryPublisher struct {
	msgs []published
}

func (m *memoryPublisher) Publish(subject string, data []byte) error {
	m.msgs = append(m.msgs, published{subject, data})
	return nil
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	for _, cat := range []*asterix.Category{cat021.Category(), cat062.Category()} {
		if err := r.Register(cat); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		payload  []byte
		blocks   int
		records  int
		failures int
		wantErr  error
	}{
		{
			name:    "binary blocks",
			payload: mustHex(t, "150006800101"+"3e0009800102800304"),
			blocks:  2,
			records: 3,
		},
		{
			name:    "hex lines",
			payload: []byte("150006800101\n3e0006800102\n"),
			blocks:  2,
			records: 2,
		},
		{
			name:     "undecodable block is kept",
			payload:  []byte("3e0006c00102"),
			blocks:   1,
			failures: 1,
		},
		{
			name:    "unframeable payload",
			payload: mustHex(t, "1500ff8001"),
			wantErr: asterix.ErrMalformedHeader,
		},
		{
			name:    "bad hex line is skipped",
			payload: []byte("150006800101\n1500\n3e0006800102\n"),
			blocks:  2,
			records: 2,
			wantErr: asterix.ErrMalformedHeader,
		},
		{
			name:    "truncated binary tail keeps complete blocks",
			payload: mustHex(t, "150006800101"+"3e0009800102800304"+"1500"),
			blocks:  2,
			records: 3,
			wantErr: asterix.ErrMalformedHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &memorySink{}
			f := New(Config{}, testRegistry(t), sink)

			entries, err := f.Handle(context.Background(), tt.payload, now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if f.Stats().Rejected != 1 {
					t.Errorf("Rejected = %d, want 1", f.Stats().Rejected)
				}
			} else if err != nil {
				t.Fatal(err)
			}
			if len(entries) != tt.blocks || len(sink.entries) != tt.blocks {
				t.Fatalf("got %d entries, stored %d, want %d", len(entries), len(sink.entries), tt.blocks)
			}
			st := f.Stats()
			if st.Blocks != int64(tt.blocks) || st.Records != int64(tt.records) || st.Failed != int64(tt.failures) {
				t.Errorf("stats = %+v", st)
			}
			for _, e := range entries {
				if !e.ReceivedAt.Equal(now) {
					t.Errorf("ReceivedAt = %v", e.ReceivedAt)
				}
				if (e.Error != "") != (tt.failures > 0) {
					t.Errorf("entry error = %q", e.Error)
				}
			}
		})
	}
}

func TestHandleDropsDuplicates(t *testing.T) {
	sink := &memorySink{}
	f := New(Config{DedupeTTL: time.Minute}, testRegistry(t), sink)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.Handle(ctx, []byte("150006800101"), time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.Handle(ctx, []byte("150006800102"), time.Now()); err != nil {
		t.Fatal(err)
	}

	st := f.Stats()
	if st.Payloads != 4 || st.Blocks != 2 || st.Duplicates != 2 {
		t.Errorf("stats = %+v", st)
	}
	if len(sink.entries) != 2 {
		t.Errorf("stored %d entries, want 2", len(sink.entries))
	}
}

func TestHandleSinkErrors(t *testing.T) {
	failing := &memorySink{err: errors.New("disk full")}
	ok := &memorySink{}
	f := New(Config{}, testRegistry(t), failing, ok)

	if _, err := f.Handle(context.Background(), []byte("150006800101"), time.Now()); err != nil {
		t.Fatal(err)
	}
	if f.Stats().SinkErrors != 1 {
		t.Errorf("SinkErrors = %d, want 1", f.Stats().SinkErrors)
	}
	if len(ok.entries) != 1 {
		t.Errorf("later sink got %d entries, want 1", len(ok.entries))
	}
}

func TestHandlePublishes(t *testing.T) {
	pub := &memoryPublisher{}
	f := New(Config{OutputSubject: "asterix.decoded"}, testRegistry(t))
	f.SetPublisher(pub)

	if _, err := f.Handle(context.Background(), []byte("150006800101"), time.Now()); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 1 || pub.msgs[0].subject != "asterix.decoded" {
		t.Fatalf("published = %+v", pub.msgs)
	}

	var out struct {
		Category int              `json:"category"`
		Hex      string           `json:"hex"`
		Records  []map[string]any `json:"records"`
	}
	if err := json.Unmarshal(pub.msgs[0].data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Category != 21 || out.Hex != "150006800101" || len(out.Records) != 1 {
		t.Errorf("output = %+v", out)
	}
	if out.Records[0]["021_010_SAC"] != float64(1) {
		t.Errorf("record = %v", out.Records[0])
	}
}

func TestIsHexText(t *testing.T) {
	tests := []struct {
		in   []byte
		want bool
	}{
		{[]byte("150006800101"), true},
		{[]byte(" 15 00 06 80 01 01\r\n"), true},
		{[]byte("1500"), false},
		{[]byte{0x15, 0x00, 0x06, 0x80, 0x01, 0x01}, false},
		{[]byte("15000680010g"), false},
	}
	for _, tt := range tests {
		if got := isHexText(tt.in); got != tt.want {
			t.Errorf("isHexText(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
