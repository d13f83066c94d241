package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// readInput reads the whole input, stdin when path is empty, and
// decompresses it when it is a zstd frame.
func readInput(path string) ([]byte, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	contents, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decompress(contents)
}

func decompress(contents []byte) ([]byte, error) {
	if !bytes.HasPrefix(contents, zstdMagic) {
		return contents, nil
	}
	zr, err := zstd.NewReader(bytes.NewReader(contents), zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}
