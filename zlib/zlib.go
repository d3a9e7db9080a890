// Package zlib decodes RFC 1950 zlib streams: a two-byte header, a raw
// DEFLATE payload, and a trailing big-endian Adler-32 checksum.
package zlib

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fenwick-engine/codec/deflate"
	"github.com/fenwick-engine/codec/internal/checksum"
)

var (
	// ErrHeaderCheckFailed is returned when (CMF<<8|FLG) mod 31 != 0.
	ErrHeaderCheckFailed = errors.New("zlib: header check bits failed")
	// ErrUnsupportedCompressionMethod is returned when CMF's low nibble is
	// not 8 (the only method RFC 1950 defines).
	ErrUnsupportedCompressionMethod = errors.New("zlib: unsupported compression method")
	// ErrUnsupportedFeature is returned for well-formed but unsupported
	// stream features, such as a preset dictionary (FDICT).
	ErrUnsupportedFeature = errors.New("zlib: unsupported feature")
	// ErrChecksumMismatch is returned when the trailing Adler-32 does not
	// match the decompressed payload.
	ErrChecksumMismatch = errors.New("zlib: adler-32 checksum mismatch")
	// ErrTruncatedStream is returned when the source ends before the header
	// or trailer can be read in full.
	ErrTruncatedStream = errors.New("zlib: truncated stream")
	// ErrOutputTooLarge is returned when WithMaxOutputSize's limit would be
	// exceeded by the decompressed payload.
	ErrOutputTooLarge = errors.New("zlib: decompressed output exceeds configured maximum")
)

// Option configures a single Decompress call.
type Option func(*options)

type options struct {
	maxOutputSize int
}

// WithMaxOutputSize bounds the decompressed payload size. Decompress returns
// ErrOutputTooLarge if the DEFLATE stream would produce more than n bytes.
// A non-positive n (the default) leaves the output unbounded, relying on
// whatever implicit bound the caller (e.g. png's IHDR-declared dimensions)
// already enforces.
func WithMaxOutputSize(n int) Option {
	return func(o *options) {
		o.maxOutputSize = n
	}
}

// Decompress validates the zlib header and trailer and returns the
// decompressed payload.
func Decompress(source []byte, opts ...Option) ([]byte, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if len(source) < 2+4 {
		return nil, ErrTruncatedStream
	}

	cmf, flg := source[0], source[1]
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return nil, ErrHeaderCheckFailed
	}
	if cmf&0x0F != 8 {
		return nil, ErrUnsupportedCompressionMethod
	}
	const fdictMask = 0x20
	if flg&fdictMask != 0 {
		return nil, ErrUnsupportedFeature
	}

	payload := source[2:]
	output, consumed, err := deflate.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	if o.maxOutputSize > 0 && len(output) > o.maxOutputSize {
		return nil, ErrOutputTooLarge
	}

	trailerStart := consumed
	if trailerStart+4 > len(payload) {
		return nil, ErrTruncatedStream
	}
	wantAdler := binary.BigEndian.Uint32(payload[trailerStart : trailerStart+4])
	gotAdler := checksum.Adler32(output)
	if gotAdler != wantAdler {
		return nil, ErrChecksumMismatch
	}

	return output, nil
}
