// Package codec is a from-scratch binary-format decoding core for a
// browser engine's image and font pipeline: a bit-level reader, a
// canonical Huffman tree, a sliding-window back-reference copier, CRC-32
// and Adler-32 checksums, and an integer inverse DCT as shared leaf
// utilities, layered under DEFLATE/zlib/gzip/Brotli decompression and
// PNG, JPEG, BMP, and TrueType decoders.
//
// Every raster decoder registers itself with RegisterFormat and is
// reachable through the package-level Decode, which sniffs an input's
// magic bytes the same way image.RegisterFormat does for the standard
// library's image package:
//
//	tex, format, err := codec.Decode(data)
//
// This package implements decoding only; it does not produce compressed
// or re-encoded output.
package codec

import "log"

// logger receives this module's non-fatal observations: a malformed but
// recoverable ancillary chunk, an unrecognized segment, a font table this
// decoder skips. These are never promoted to errors — a caller that wants
// silence can install a logger that discards everything.
var logger = log.Default()

// SetLogger overrides the destination for this module's non-fatal
// warnings across every decoder package.
func SetLogger(l *log.Logger) { logger = l }

// Logger returns the current destination for non-fatal warnings, for
// decoder packages that need to log without importing "log" directly.
func Logger() *log.Logger { return logger }
