package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestReadInput(t *testing.T) {
	raw := []byte("150006800101\n3e0006800102\n")

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	compressed := enc.EncodeAll(raw, nil)
	_ = enc.Close()

	dir := t.TempDir()
	tests := []struct {
		name string
		data []byte
	}{
		{"plain.hex", raw},
		{"capture.hex.zst", compressed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, tt.data, 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := readInput(path)
			if err != nil {
				t.Fatalf("readInput: %v", err)
			}
			if !bytes.Equal(got, raw) {
				t.Errorf("got %q, want %q", got, raw)
			}
		})
	}
}

func TestReadInputCorruptZstd(t *testing.T) {
	data := append(append([]byte{}, zstdMagic...), 0x00, 0x01, 0x02)
	if _, err := decompress(data); err == nil {
		t.Error("expected an error for a corrupt zstd frame")
	}
}

func TestSplitHexLines(t *testing.T) {
	lines := splitHexLines([]byte("150006800101\r\n\n  # comment\n3e 00 06 80 01 02\n"))
	want := []string{"150006800101", "3e 00 06 80 01 02"}
	if len(lines) != len(want) {
		t.Fatalf("got %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
