// Package brotli decompresses Brotli streams, as used by the compressed
// glyph tables inside WOFF2 fonts and as an alternative HTTP content
// encoding.
//
// Unlike this module's other containers, Brotli is not reimplemented from
// scratch: context modeling and the large static dictionary it requires are
// out of proportion to a decoder this module only needs as a feed for font
// and image payloads, and the example pack already shows the idiomatic
// answer (tdewolff-font's woff2 reader decodes its glyph stream through
// github.com/andybalholm/brotli). This package typed-errors that dependency
// rather than reimplementing it.
package brotli

import (
	"bytes"
	"errors"
	"io"

	"github.com/andybalholm/brotli"
)

// ErrDecodeFailed wraps any error the underlying brotli reader reports,
// normalizing this package's error surface to match its sibling containers.
var ErrDecodeFailed = errors.New("brotli: decode failed")

// Decompress decodes a complete Brotli stream held entirely in memory.
func Decompress(source []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(source))
	output, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	return output, nil
}
