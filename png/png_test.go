package png

import (
	"encoding/binary"
	"testing"

	"github.com/fenwick-engine/codec/internal/checksum"
)

// appendChunk appends a length-prefixed, CRC-32-checked PNG chunk to buf,
// computing the checksum with this module's own CRC-32 rather than a
// hard-coded literal.
func appendChunk(buf []byte, typ string, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, []byte(typ)...)
	buf = append(buf, data...)

	h := checksum.NewCRC32Hasher()
	h.Write([]byte(typ))
	h.Write(data)
	crc := make([]byte, 4)
	binary.BigEndian.PutUint32(crc, h.Sum32())
	return append(buf, crc...)
}

// buildZlibStream wraps raw (a sequence of already-filter-prefixed
// scanlines, small enough for a single stored DEFLATE block) in a minimal
// valid zlib header/trailer.
func buildZlibStream(raw []byte) []byte {
	out := []byte{0x78, 0x01} // CMF/FLG satisfying the mod-31 check, no FDICT
	length := uint16(len(raw))
	out = append(out, 0x01) // final bit set, block type 0 (stored)
	out = append(out, byte(length), byte(length>>8))
	nlength := ^length
	out = append(out, byte(nlength), byte(nlength>>8))
	out = append(out, raw...)
	adler := checksum.Adler32(raw)
	trailer := make([]byte, 4)
	binary.BigEndian.PutUint32(trailer, adler)
	return append(out, trailer...)
}

func buildIHDR(width, height int, bitDepth, colorType byte) []byte {
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:4], uint32(width))
	binary.BigEndian.PutUint32(data[4:8], uint32(height))
	data[8] = bitDepth
	data[9] = colorType
	return data
}

func TestDecodeTrueColorOnePixel(t *testing.T) {
	raw := []byte{0x00, 0xAA, 0xBB, 0xCC} // filter None, one RGB pixel
	idat := buildZlibStream(raw)

	var png []byte
	png = append(png, pngSignature[:]...)
	png = appendChunk(png, "IHDR", buildIHDR(1, 1, 8, colorTypeTrueColor))
	png = appendChunk(png, "IDAT", idat)
	png = appendChunk(png, "IEND", nil)

	tex, err := Decode(png)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	r, g, b, a := tex.At(0, 0)
	if r != 0xAA || g != 0xBB || b != 0xCC || a != 0xFF {
		t.Fatalf("pixel = %d,%d,%d,%d, want 0xAA,0xBB,0xCC,0xFF", r, g, b, a)
	}
}

func TestDecodeIndexedColor(t *testing.T) {
	palette := []byte{
		0x10, 0x20, 0x30, // index 0
		0x40, 0x50, 0x60, // index 1
	}
	raw := []byte{0x00, 0x01} // filter None, one sample selecting palette index 1
	idat := buildZlibStream(raw)

	var png []byte
	png = append(png, pngSignature[:]...)
	png = appendChunk(png, "IHDR", buildIHDR(1, 1, 8, colorTypeIndexed))
	png = appendChunk(png, "PLTE", palette)
	png = appendChunk(png, "IDAT", idat)
	png = appendChunk(png, "IEND", nil)

	tex, err := Decode(png)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	r, g, b, a := tex.At(0, 0)
	if r != 0x40 || g != 0x50 || b != 0x60 || a != 0xFF {
		t.Fatalf("pixel = %d,%d,%d,%d, want 0x40,0x50,0x60,0xFF", r, g, b, a)
	}
}

func TestDecodeIndexedWithoutPaletteFails(t *testing.T) {
	raw := []byte{0x00, 0x00}
	idat := buildZlibStream(raw)

	var png []byte
	png = append(png, pngSignature[:]...)
	png = appendChunk(png, "IHDR", buildIHDR(1, 1, 8, colorTypeIndexed))
	png = appendChunk(png, "IDAT", idat)
	png = appendChunk(png, "IEND", nil)

	if _, err := Decode(png); err != ErrIndexedImageWithoutPalette {
		t.Fatalf("err = %v, want ErrIndexedImageWithoutPalette", err)
	}
}

func TestDecodeBadSignature(t *testing.T) {
	if _, err := Decode([]byte("not a png at all")); err != ErrNotAPng {
		t.Fatalf("err = %v, want ErrNotAPng", err)
	}
}

func TestDecodeRejectsInterlaced(t *testing.T) {
	ihdrData := buildIHDR(1, 1, 8, colorTypeTrueColor)
	ihdrData[12] = 1 // interlace method 1 (Adam7)

	var png []byte
	png = append(png, pngSignature[:]...)
	png = appendChunk(png, "IHDR", ihdrData)
	png = appendChunk(png, "IEND", nil)

	_, err := Decode(png)
	if err == nil {
		t.Fatal("expected an error for interlace method 1")
	}
}

func TestDecodeCrcMismatch(t *testing.T) {
	var png []byte
	png = append(png, pngSignature[:]...)
	chunk := appendChunk(nil, "IHDR", buildIHDR(1, 1, 8, colorTypeTrueColor))
	chunk[len(chunk)-1] ^= 0xFF
	png = append(png, chunk...)

	if _, err := Decode(png); err != ErrInvalidCrc {
		t.Fatalf("err = %v, want ErrInvalidCrc", err)
	}
}

func TestDecodeNonConsecutiveIdat(t *testing.T) {
	raw := []byte{0x00, 0xAA, 0xBB, 0xCC}
	idat := buildZlibStream(raw)
	half := len(idat) / 2

	var png []byte
	png = append(png, pngSignature[:]...)
	png = appendChunk(png, "IHDR", buildIHDR(1, 1, 8, colorTypeTrueColor))
	png = appendChunk(png, "IDAT", idat[:half])
	png = appendChunk(png, "tEXt", []byte("hello"))
	png = appendChunk(png, "IDAT", idat[half:])
	png = appendChunk(png, "IEND", nil)

	if _, err := Decode(png); err != ErrNonConsecutiveIdat {
		t.Fatalf("err = %v, want ErrNonConsecutiveIdat", err)
	}
}

func TestDecodeChunkOrderRejectsPlteAfterIdat(t *testing.T) {
	palette := []byte{0x10, 0x20, 0x30}
	raw := []byte{0x00, 0x00}
	idat := buildZlibStream(raw)

	var png []byte
	png = append(png, pngSignature[:]...)
	png = appendChunk(png, "IHDR", buildIHDR(1, 1, 8, colorTypeIndexed))
	png = appendChunk(png, "IDAT", idat)
	png = appendChunk(png, "PLTE", palette)
	png = appendChunk(png, "IEND", nil)

	if _, err := Decode(png); err != ErrInvalidChunkOrder {
		t.Fatalf("err = %v, want ErrInvalidChunkOrder", err)
	}
}
