package bmp

import (
	"encoding/binary"
	"testing"

	codec "github.com/fenwick-engine/codec"
)

func le32b(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
func le16b(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// buildBMP24 builds a 2x2, bottom-up, 24bpp BI_RGB bitmap with distinct
// corner colors so row order and channel order can both be checked.
func buildBMP24(t *testing.T) []byte {
	t.Helper()
	const width, height = 2, 2
	stride := alignUp4(width * 3)

	var pixels []byte
	// Bottom-up: first scanline in the file is the *last* row of the image.
	// Bottom row: red, green. Top row: blue, white.
	bottomRow := []byte{0x00, 0x00, 0xFF /*red BGR*/, 0x00, 0xFF, 0x00 /*green BGR*/}
	topRow := []byte{0xFF, 0x00, 0x00 /*blue BGR*/, 0xFF, 0xFF, 0xFF /*white*/}
	bottomRow = append(bottomRow, make([]byte, stride-len(bottomRow))...)
	topRow = append(topRow, make([]byte, stride-len(topRow))...)
	pixels = append(pixels, bottomRow...)
	pixels = append(pixels, topRow...)

	const headerSize = 14 + 40
	var buf []byte
	buf = append(buf, 0x42, 0x4D)
	buf = append(buf, le32b(uint32(headerSize+len(pixels)))...)
	buf = append(buf, 0, 0, 0, 0) // reserved
	buf = append(buf, le32b(uint32(headerSize))...)

	buf = append(buf, le32b(40)...)          // info header size
	buf = append(buf, le32b(uint32(width))...)
	buf = append(buf, le32b(uint32(height))...) // positive: bottom-up
	buf = append(buf, le16b(1)...)            // planes
	buf = append(buf, le16b(24)...)           // bpp
	buf = append(buf, le32b(biRGB)...)
	buf = append(buf, le32b(uint32(len(pixels)))...)
	buf = append(buf, le32b(2835)...) // x ppm
	buf = append(buf, le32b(2835)...) // y ppm
	buf = append(buf, le32b(0)...)    // colors used
	buf = append(buf, le32b(0)...)    // important colors

	buf = append(buf, pixels...)
	return buf
}

func TestDecode24BitBottomUp(t *testing.T) {
	tex, err := Decode(buildBMP24(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tex.Width != 2 || tex.Height != 2 {
		t.Fatalf("dims = %dx%d, want 2x2", tex.Width, tex.Height)
	}
	// Bottom-up means the first scanline in the file (red, green) ends up
	// as the bottom (y=1) row in the texture.
	r, g, b, _ := tex.At(0, 1)
	if r != 255 || g != 0 || b != 0 {
		t.Fatalf("(0,1) = %d,%d,%d, want red", r, g, b)
	}
	r, g, b, _ = tex.At(0, 0)
	if r != 0 || g != 0 || b != 255 {
		t.Fatalf("(0,0) = %d,%d,%d, want blue", r, g, b)
	}
}

func buildBMP8Indexed(t *testing.T) []byte {
	t.Helper()
	const width, height = 2, 1
	palette := []byte{
		0x00, 0x00, 0xFF, 0x00, // index 0: red (BGR + reserved)
		0x00, 0xFF, 0x00, 0x00, // index 1: green
	}
	stride := alignUp4(width)
	row := []byte{0, 1}
	row = append(row, make([]byte, stride-len(row))...)

	headerSize := 14 + 40 + len(palette)
	var buf []byte
	buf = append(buf, 0x42, 0x4D)
	buf = append(buf, le32b(uint32(headerSize+len(row)))...)
	buf = append(buf, 0, 0, 0, 0)
	buf = append(buf, le32b(uint32(headerSize))...)

	buf = append(buf, le32b(40)...)
	buf = append(buf, le32b(uint32(width))...)
	buf = append(buf, le32b(uint32(height))...)
	buf = append(buf, le16b(1)...)
	buf = append(buf, le16b(8)...)
	buf = append(buf, le32b(biRGB)...)
	buf = append(buf, le32b(uint32(len(row)))...)
	buf = append(buf, le32b(0)...)
	buf = append(buf, le32b(0)...)
	buf = append(buf, le32b(2)...) // colors used
	buf = append(buf, le32b(0)...)

	buf = append(buf, palette...)
	buf = append(buf, row...)
	return buf
}

func TestDecode8BitIndexed(t *testing.T) {
	tex, err := Decode(buildBMP8Indexed(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	r, g, b, _ := tex.At(0, 0)
	if r != 255 || g != 0 || b != 0 {
		t.Fatalf("(0,0) = %d,%d,%d, want red", r, g, b)
	}
	r, g, b, _ = tex.At(1, 0)
	if r != 0 || g != 255 || b != 0 {
		t.Fatalf("(1,0) = %d,%d,%d, want green", r, g, b)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	source := buildBMP24(t)
	source[0] = 0x00
	if _, err := Decode(source); err != ErrNotABmp {
		t.Fatalf("err = %v, want ErrNotABmp", err)
	}
}

func TestDecodeRejectsEmbeddedJpeg(t *testing.T) {
	source := buildBMP8Indexed(t)
	// bpp=0 signals an embedded JPEG/PNG payload (format-specific bits).
	binary.LittleEndian.PutUint16(source[28:30], 0)
	binary.LittleEndian.PutUint32(source[30:34], biJPEG)
	_, err := Decode(source)
	if err == nil {
		t.Fatal("expected an error for an embedded-JPEG bitmap")
	}
}

func TestDecodeOversizedDimensionsRejected(t *testing.T) {
	source := buildBMP24(t)
	binary.LittleEndian.PutUint32(source[18:22], uint32(codec.MaxImageDimension+1))
	_, err := Decode(source)
	if err == nil {
		t.Fatal("expected oversized width to be rejected")
	}
}
