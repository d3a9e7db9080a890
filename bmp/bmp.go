// Package bmp decodes Windows BMP images: the 14-byte file header, the
// 40-byte BITMAPINFOHEADER, indexed/direct-color pixel formats at 1, 4, 8,
// 16, 24 and 32 bits per pixel, and RLE4/RLE8 compression.
//
// Grounded on this module's own reference BMP implementation, which left
// RLE4/RLE8, 4bpp, 16bpp and BI_BITFIELDS unimplemented (`todo!()`); this
// package fills those in rather than carrying the gaps forward.
package bmp

import (
	"errors"
	"fmt"
	"math/bits"

	codec "github.com/fenwick-engine/codec"
)

const (
	biRGB       = 0
	biRLE8      = 1
	biRLE4      = 2
	biBitfields = 3
	biJPEG      = 4
	biPNG       = 5
)

func init() {
	codec.RegisterFormat("bmp", []byte{0x42, 0x4D}, Decode)
}

var (
	// ErrNotABmp is returned when the source doesn't start with the "BM"
	// magic bytes.
	ErrNotABmp = errors.New("bmp: not a bmp file")
	// ErrTruncated is returned when the source ends before a header or
	// pixel array the declared format requires.
	ErrTruncated = errors.New("bmp: truncated file")
	// ErrUnknownColorFormat is returned for a bits-per-pixel value this
	// decoder doesn't recognize.
	ErrUnknownColorFormat = errors.New("bmp: unknown color format")
	// ErrInvalidCompressionForFormat is returned when a compression mode
	// is paired with a bit depth that cannot use it.
	ErrInvalidCompressionForFormat = errors.New("bmp: compression mode invalid for this bit depth")
	// ErrMultiplePlanes is returned when the planes field isn't 1, the
	// only value the format allows.
	ErrMultiplePlanes = errors.New("bmp: unexpected number of color planes")
	// ErrPaletteTooSmall is returned when a pixel indexes past the end of
	// the palette.
	ErrPaletteTooSmall = errors.New("bmp: palette index out of range")
)

type direction int

const (
	bottomUp direction = iota
	topDown
)

type imageType int

const (
	typeMonochrome imageType = iota
	typePalette4
	typePalette8
	typeRLE4
	typeRLE8
	typeRGB16
	typeRGB24
	typeRGB32
	typeBitfields16
	typeBitfields32
)

type infoHeader struct {
	width, height int
	imgType       imageType
	direction     direction
	colorsUsed    int
	redMask, greenMask, blueMask uint32
}

func classify(bpp int, compression uint32) (imageType, error) {
	switch bpp {
	case 0:
		// Bits per pixel are determined by the embedded JPEG/PNG payload.
		if compression != biJPEG && compression != biPNG {
			return 0, ErrInvalidCompressionForFormat
		}
		return 0, fmt.Errorf("bmp: embedded JPEG/PNG payload: %w", codec.ErrUnsupportedFeature)
	case 1:
		if compression != biRGB {
			return 0, ErrInvalidCompressionForFormat
		}
		return typeMonochrome, nil
	case 4:
		switch compression {
		case biRGB:
			return typePalette4, nil
		case biRLE4:
			return typeRLE4, nil
		default:
			return 0, ErrInvalidCompressionForFormat
		}
	case 8:
		switch compression {
		case biRGB:
			return typePalette8, nil
		case biRLE8:
			return typeRLE8, nil
		default:
			return 0, ErrInvalidCompressionForFormat
		}
	case 16:
		switch compression {
		case biRGB:
			return typeRGB16, nil
		case biBitfields:
			return typeBitfields16, nil
		default:
			return 0, ErrInvalidCompressionForFormat
		}
	case 24:
		if compression != biRGB {
			return 0, ErrInvalidCompressionForFormat
		}
		return typeRGB24, nil
	case 32:
		switch compression {
		case biRGB:
			return typeRGB32, nil
		case biBitfields:
			return typeBitfields32, nil
		default:
			return 0, ErrInvalidCompressionForFormat
		}
	default:
		return 0, ErrUnknownColorFormat
	}
}

func (h *infoHeader) paletteSize() int {
	if h.colorsUsed != 0 {
		return h.colorsUsed
	}
	switch h.imgType {
	case typeMonochrome:
		return 2
	case typePalette4, typeRLE4:
		return 16
	case typePalette8, typeRLE8:
		return 256
	default:
		return 0
	}
}

func (h *infoHeader) scanlineWidth() int {
	var bitsPerPixel int
	switch h.imgType {
	case typeMonochrome:
		bitsPerPixel = 1
	case typePalette4, typeRLE4:
		bitsPerPixel = 4
	case typePalette8, typeRLE8:
		bitsPerPixel = 8
	case typeRGB16, typeBitfields16:
		bitsPerPixel = 16
	case typeRGB24:
		bitsPerPixel = 24
	case typeRGB32, typeBitfields32:
		bitsPerPixel = 32
	}
	bytesPerLine := (h.width*bitsPerPixel + 7) / 8
	return alignUp4(bytesPerLine)
}

func alignUp4(x int) int {
	return (x + 3) &^ 3
}

func le16(b []byte) int { return int(b[0]) | int(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// Decode parses a BMP file and returns its pixels as a Texture.
func Decode(source []byte) (*codec.Texture, error) {
	if len(source) < 54 {
		return nil, ErrTruncated
	}
	if source[0] != 0x42 || source[1] != 0x4D {
		return nil, ErrNotABmp
	}
	pixelOffset := int(le32(source[10:14]))

	infoHeaderSize := int(le32(source[14:18]))
	if infoHeaderSize < 40 {
		return nil, fmt.Errorf("bmp: info header size %d: %w", infoHeaderSize, ErrTruncated)
	}

	width := int(int32(le32(source[18:22])))
	if width < 0 {
		return nil, errors.New("bmp: negative width")
	}
	rawHeight := int32(le32(source[22:26]))
	dir := bottomUp
	height := int(rawHeight)
	if rawHeight < 0 {
		dir = topDown
		height = -height
	}
	if width > codec.MaxImageDimension || height > codec.MaxImageDimension {
		return nil, fmt.Errorf("bmp: %w", codec.ErrInvalidDimensions)
	}

	planes := le16(source[26:28])
	if planes != 1 {
		return nil, ErrMultiplePlanes
	}
	bpp := le16(source[28:30])
	compression := le32(source[30:34])

	imgType, err := classify(bpp, compression)
	if err != nil {
		return nil, err
	}
	if compression == biJPEG || compression == biPNG {
		return nil, fmt.Errorf("bmp: embedded JPEG/PNG payload: %w", codec.ErrUnsupportedFeature)
	}

	colorsUsed := int(le32(source[46:50]))

	header := &infoHeader{
		width:      width,
		height:     height,
		imgType:    imgType,
		direction:  dir,
		colorsUsed: colorsUsed,
	}

	pos := 14 + infoHeaderSize
	if imgType == typeBitfields16 || imgType == typeBitfields32 {
		if pos+12 > len(source) {
			return nil, ErrTruncated
		}
		header.redMask = le32(source[pos : pos+4])
		header.greenMask = le32(source[pos+4 : pos+8])
		header.blueMask = le32(source[pos+8 : pos+12])
		pos += 12
	} else if imgType == typeRGB16 {
		header.redMask = 0x7C00
		header.greenMask = 0x03E0
		header.blueMask = 0x001F
	}

	var palette [][3]byte
	if n := header.paletteSize(); n > 0 {
		if pos+n*4 > len(source) {
			return nil, ErrTruncated
		}
		palette = make([][3]byte, n)
		for i := 0; i < n; i++ {
			e := source[pos+i*4 : pos+i*4+4]
			palette[i] = [3]byte{e[2], e[1], e[0]} // BGR -> RGB
		}
		pos += n * 4
	}

	if pixelOffset >= 14 && pixelOffset <= len(source) {
		pos = pixelOffset
	}
	if pos > len(source) {
		return nil, ErrTruncated
	}
	pixelData := source[pos:]

	tex := codec.NewTexture(width, height)
	if width == 0 || height == 0 {
		return tex, nil
	}

	switch imgType {
	case typeRLE4:
		if err := decodeRLE(pixelData, header, palette, tex, 4); err != nil {
			return nil, err
		}
	case typeRLE8:
		if err := decodeRLE(pixelData, header, palette, tex, 8); err != nil {
			return nil, err
		}
	default:
		if err := decodeUncompressed(pixelData, header, palette, tex); err != nil {
			return nil, err
		}
	}

	return tex, nil
}

func destRow(header *infoHeader, scanlineIndex int) int {
	if header.direction == topDown {
		return scanlineIndex
	}
	return header.height - 1 - scanlineIndex
}

func decodeUncompressed(data []byte, header *infoHeader, palette [][3]byte, tex *codec.Texture) error {
	stride := header.scanlineWidth()
	for row := 0; row < header.height; row++ {
		start := row * stride
		if start+stride > len(data) {
			return ErrTruncated
		}
		scanline := data[start : start+stride]
		y := destRow(header, row)

		switch header.imgType {
		case typeMonochrome:
			for x := 0; x < header.width; x++ {
				byteIndex := x / 8
				bitIndex := 7 - uint(x%8)
				idx := (scanline[byteIndex] >> bitIndex) & 1
				if err := setFromPalette(tex, palette, int(idx), x, y); err != nil {
					return err
				}
			}
		case typePalette4:
			for x := 0; x < header.width; x++ {
				byteIndex := x / 2
				var idx byte
				if x%2 == 0 {
					idx = scanline[byteIndex] >> 4
				} else {
					idx = scanline[byteIndex] & 0x0F
				}
				if err := setFromPalette(tex, palette, int(idx), x, y); err != nil {
					return err
				}
			}
		case typePalette8:
			for x := 0; x < header.width; x++ {
				if err := setFromPalette(tex, palette, int(scanline[x]), x, y); err != nil {
					return err
				}
			}
		case typeRGB16, typeBitfields16:
			for x := 0; x < header.width; x++ {
				v := uint32(scanline[x*2]) | uint32(scanline[x*2+1])<<8
				r := extractChannel(v, header.redMask)
				g := extractChannel(v, header.greenMask)
				b := extractChannel(v, header.blueMask)
				tex.Set(x, y, r, g, b, 255)
			}
		case typeRGB24:
			for x := 0; x < header.width; x++ {
				p := scanline[x*3 : x*3+3]
				tex.Set(x, y, p[2], p[1], p[0], 255)
			}
		case typeRGB32:
			for x := 0; x < header.width; x++ {
				p := scanline[x*4 : x*4+4]
				tex.Set(x, y, p[2], p[1], p[0], 255)
			}
		case typeBitfields32:
			for x := 0; x < header.width; x++ {
				v := le32(scanline[x*4 : x*4+4])
				r := extractChannel(v, header.redMask)
				g := extractChannel(v, header.greenMask)
				b := extractChannel(v, header.blueMask)
				tex.Set(x, y, r, g, b, 255)
			}
		}
	}
	return nil
}

func setFromPalette(tex *codec.Texture, palette [][3]byte, idx, x, y int) error {
	if idx < 0 || idx >= len(palette) {
		return ErrPaletteTooSmall
	}
	p := palette[idx]
	tex.Set(x, y, p[0], p[1], p[2], 255)
	return nil
}

func extractChannel(v, mask uint32) byte {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	maxVal := uint32(1)<<uint(width) - 1
	sample := (v & mask) >> uint(shift)
	return byte(sample * 255 / maxVal)
}

// decodeRLE decodes BI_RLE4/BI_RLE8 compressed pixel data per the Windows
// BMP run-length encoding: pairs of (count, value) bytes for repeated runs,
// and a 0x00 escape byte introducing end-of-line (0x00), end-of-bitmap
// (0x01), a position delta (0x02 dx dy), or an absolute run of uncompressed
// indices.
func decodeRLE(data []byte, header *infoHeader, palette [][3]byte, tex *codec.Texture, bitsPerPixel int) error {
	x, row := 0, 0
	pos := 0
	for pos+1 < len(data) {
		count := data[pos]
		op := data[pos+1]
		pos += 2

		if count > 0 {
			if err := writeRun(tex, palette, header, row, x, int(count), op, bitsPerPixel); err != nil {
				return err
			}
			x += int(count)
			continue
		}

		switch op {
		case 0x00: // end of line
			x = 0
			row++
		case 0x01: // end of bitmap
			return nil
		case 0x02: // delta
			if pos+1 >= len(data) {
				return ErrTruncated
			}
			x += int(data[pos])
			row += int(data[pos+1])
			pos += 2
		default:
			n := int(op)
			literalBytes := rleLiteralByteCount(n, bitsPerPixel)
			if pos+literalBytes > len(data) {
				return ErrTruncated
			}
			literal := data[pos : pos+literalBytes]
			pos += literalBytes
			if literalBytes%2 == 1 {
				pos++ // word-align padding
			}
			if err := writeLiteralRun(tex, palette, header, row, x, n, literal, bitsPerPixel); err != nil {
				return err
			}
			x += n
		}
	}
	return nil
}

func rleLiteralByteCount(n, bitsPerPixel int) int {
	if bitsPerPixel == 4 {
		return (n + 1) / 2
	}
	return n
}

func writeRun(tex *codec.Texture, palette [][3]byte, header *infoHeader, row, x, count int, value byte, bitsPerPixel int) error {
	y := destRow(header, row)
	if y < 0 || y >= header.height {
		return nil
	}
	if bitsPerPixel == 8 {
		for i := 0; i < count; i++ {
			if x+i >= header.width {
				break
			}
			if err := setFromPalette(tex, palette, int(value), x+i, y); err != nil {
				return err
			}
		}
		return nil
	}
	hi, lo := int(value>>4), int(value&0x0F)
	for i := 0; i < count; i++ {
		if x+i >= header.width {
			break
		}
		idx := hi
		if i%2 == 1 {
			idx = lo
		}
		if err := setFromPalette(tex, palette, idx, x+i, y); err != nil {
			return err
		}
	}
	return nil
}

func writeLiteralRun(tex *codec.Texture, palette [][3]byte, header *infoHeader, row, x, n int, literal []byte, bitsPerPixel int) error {
	y := destRow(header, row)
	if y < 0 || y >= header.height {
		return nil
	}
	for i := 0; i < n; i++ {
		if x+i >= header.width {
			break
		}
		var idx int
		if bitsPerPixel == 8 {
			idx = int(literal[i])
		} else {
			b := literal[i/2]
			if i%2 == 0 {
				idx = int(b >> 4)
			} else {
				idx = int(b & 0x0F)
			}
		}
		if err := setFromPalette(tex, palette, idx, x+i, y); err != nil {
			return err
		}
	}
	return nil
}
