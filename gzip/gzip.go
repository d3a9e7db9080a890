// Package gzip decodes RFC 1952 gzip streams: a 10-byte fixed header, an
// optional set of fields gated by the header's flag byte, a raw DEFLATE
// payload, and a trailing CRC-32/ISIZE pair.
//
// The optional-field walk (FEXTRA/FNAME/FCOMMENT/FHCRC) follows the member
// boundary handling in jonjohnsonjr-targz's gsip reader, adapted from a
// streaming io.Reader shape to this module's single-buffer decode style.
package gzip

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fenwick-engine/codec/deflate"
	"github.com/fenwick-engine/codec/internal/checksum"
)

var (
	// ErrBadMagic is returned when the first two bytes are not 0x1F 0x8B.
	ErrBadMagic = errors.New("gzip: bad magic number")
	// ErrUnsupportedCompressionMethod is returned when CM is not 8 (DEFLATE).
	ErrUnsupportedCompressionMethod = errors.New("gzip: unsupported compression method")
	// ErrTruncatedStream is returned when the header, an optional field, or
	// the trailer runs past the end of the source.
	ErrTruncatedStream = errors.New("gzip: truncated stream")
	// ErrHeaderChecksumMismatch is returned when FHCRC is set and the
	// stored CRC16 doesn't match the header bytes read so far.
	ErrHeaderChecksumMismatch = errors.New("gzip: header checksum mismatch")
	// ErrChecksumMismatch is returned when the trailing CRC-32 does not
	// match the decompressed payload.
	ErrChecksumMismatch = errors.New("gzip: crc-32 checksum mismatch")
	// ErrSizeMismatch is returned when ISIZE does not match the
	// decompressed length modulo 2^32.
	ErrSizeMismatch = errors.New("gzip: size mismatch")
)

const (
	flagFTEXT    = 1 << 0
	flagFHCRC    = 1 << 1
	flagFEXTRA   = 1 << 2
	flagFNAME    = 1 << 3
	flagFCOMMENT = 1 << 4
)

// Member holds everything Decompress recovers beyond the decompressed
// payload: the metadata gzip carries in its header.
type Member struct {
	ModTime          uint32
	OS               byte
	Name             string
	Comment          string
	Extra            []byte
	Output           []byte
}

// Decompress parses and validates a single gzip member and returns the
// decompressed payload. Concatenated multi-member streams are not supported:
// any bytes after the first member's trailer are ignored, and the number of
// bytes the member used is not reported.
func Decompress(source []byte) ([]byte, error) {
	m, err := DecompressMember(source)
	if err != nil {
		return nil, err
	}
	return m.Output, nil
}

// DecompressMember parses a single gzip member and returns its full
// metadata alongside the decompressed payload.
func DecompressMember(source []byte) (*Member, error) {
	if len(source) < 10 {
		return nil, ErrTruncatedStream
	}
	if source[0] != 0x1F || source[1] != 0x8B {
		return nil, ErrBadMagic
	}
	if source[2] != 8 {
		return nil, ErrUnsupportedCompressionMethod
	}
	flags := source[3]
	modTime := binary.LittleEndian.Uint32(source[4:8])
	os := source[9]

	pos := 10
	headerStart := 0

	m := &Member{ModTime: modTime, OS: os}

	if flags&flagFEXTRA != 0 {
		if pos+2 > len(source) {
			return nil, ErrTruncatedStream
		}
		xlen := int(binary.LittleEndian.Uint16(source[pos : pos+2]))
		pos += 2
		if pos+xlen > len(source) {
			return nil, ErrTruncatedStream
		}
		m.Extra = append([]byte{}, source[pos:pos+xlen]...)
		pos += xlen
	}

	if flags&flagFNAME != 0 {
		end := bytes.IndexByte(source[pos:], 0)
		if end < 0 {
			return nil, ErrTruncatedStream
		}
		m.Name = string(source[pos : pos+end])
		pos += end + 1
	}

	if flags&flagFCOMMENT != 0 {
		end := bytes.IndexByte(source[pos:], 0)
		if end < 0 {
			return nil, ErrTruncatedStream
		}
		m.Comment = string(source[pos : pos+end])
		pos += end + 1
	}

	if flags&flagFHCRC != 0 {
		if pos+2 > len(source) {
			return nil, ErrTruncatedStream
		}
		wantCRC16 := binary.LittleEndian.Uint16(source[pos : pos+2])
		gotCRC32 := checksum.CRC32(source[headerStart:pos])
		if uint16(gotCRC32&0xFFFF) != wantCRC16 {
			return nil, ErrHeaderChecksumMismatch
		}
		pos += 2
	}

	payload := source[pos:]
	output, consumed, err := deflate.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	m.Output = output

	trailerStart := consumed
	if trailerStart+8 > len(payload) {
		return nil, ErrTruncatedStream
	}
	wantCRC32 := binary.LittleEndian.Uint32(payload[trailerStart : trailerStart+4])
	wantISIZE := binary.LittleEndian.Uint32(payload[trailerStart+4 : trailerStart+8])

	if gotCRC32 := checksum.CRC32(output); gotCRC32 != wantCRC32 {
		return nil, ErrChecksumMismatch
	}
	if gotISIZE := uint32(len(output)); gotISIZE != wantISIZE {
		return nil, ErrSizeMismatch
	}

	return m, nil
}
