// Package jpeg decodes baseline sequential, 8-bit JPEG images: segment
// parsing, Huffman-coded MCU entropy decoding, dequantization, the inverse
// DCT, chroma upsampling, and YCbCr-to-RGB conversion.
//
// Progressive (SOF2), arithmetic-coded, and 12-bit JPEG are out of scope;
// their markers are reported via ErrUnsupportedFeature rather than
// misdecoded. Marker naming mirrors leijurv-lepton_jpeg_go's jpeg_header.go.
package jpeg

import (
	"errors"
	"fmt"

	codec "github.com/fenwick-engine/codec"
	"github.com/fenwick-engine/codec/internal/huffman"
	"github.com/fenwick-engine/codec/internal/idct"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerDQT  = 0xDB
	markerDHT  = 0xC4
	markerDRI  = 0xDD
	markerSOF0 = 0xC0
	markerRST0 = 0xD0
	markerRST7 = 0xD7
)

func init() {
	codec.RegisterFormat("jpeg", []byte{0xFF, 0xD8, 0xFF}, Decode)
}

var (
	// ErrNotAJpeg is returned when the source doesn't start with an SOI marker.
	ErrNotAJpeg = errors.New("jpeg: not a jpeg file")
	// ErrUnexpectedMarker is returned when a restart marker's sequence
	// number doesn't match what the decoder expected.
	ErrUnexpectedMarker = errors.New("jpeg: unexpected marker")
	// ErrTruncatedSegment is returned when a segment's declared length
	// runs past the end of the source.
	ErrTruncatedSegment = errors.New("jpeg: truncated segment")
	// ErrMissingScanData is returned when SOS is never followed by an
	// entropy-coded scan.
	ErrMissingScanData = errors.New("jpeg: missing scan data")
	// ErrInvalidComponentReference is returned when SOS references a
	// component id not declared by SOF0, or a Huffman table id not
	// defined by a preceding DHT.
	ErrInvalidComponentReference = errors.New("jpeg: scan references an undefined component or table")
	// ErrTooManyCoefficients is returned when an AC run overruns the
	// 63-coefficient data unit.
	ErrTooManyCoefficients = errors.New("jpeg: AC coefficient run exceeds block size")
)

type component struct {
	id          byte
	hSamp       int
	vSamp       int
	quantTable  int
	dcTable     int
	acTable     int
	dcPred      int32
	planeWidth  int
	planeHeight int
	plane       []byte
}

type frame struct {
	width, height int
	components    []component
	maxH, maxV    int
	mcusPerLine   int
	mcuLines      int
}

// Decode parses a baseline JPEG file and returns its pixels as a Texture.
func Decode(source []byte) (*codec.Texture, error) {
	if len(source) < 4 || source[0] != 0xFF || source[1] != markerSOI {
		return nil, ErrNotAJpeg
	}

	var (
		quantTables    [4][64]uint16
		dcTables       [4]*huffman.Tree
		acTables       [4]*huffman.Tree
		restartInterval int
		fr             *frame
		scanned        bool
	)

	pos := 2
	for pos < len(source) {
		if source[pos] != 0xFF {
			return nil, fmt.Errorf("jpeg: expected marker at offset %d: %w", pos, ErrTruncatedSegment)
		}
		marker := source[pos+1]
		pos += 2
		if marker == markerEOI {
			break
		}
		if marker == 0x01 || (marker >= markerRST0 && marker <= markerRST7) {
			continue
		}

		if pos+2 > len(source) {
			return nil, ErrTruncatedSegment
		}
		length := int(source[pos])<<8 | int(source[pos+1])
		if length < 2 || pos+length > len(source) {
			return nil, ErrTruncatedSegment
		}
		segment := source[pos+2 : pos+length]
		segEnd := pos + length

		switch {
		case marker == markerDQT:
			if err := parseDQT(segment, &quantTables); err != nil {
				return nil, err
			}
		case marker == markerDHT:
			if err := parseDHT(segment, &dcTables, &acTables); err != nil {
				return nil, err
			}
		case marker == markerDRI:
			if len(segment) != 2 {
				return nil, ErrTruncatedSegment
			}
			restartInterval = int(segment[0])<<8 | int(segment[1])
		case marker == markerSOF0:
			parsed, err := parseSOF0(segment)
			if err != nil {
				return nil, err
			}
			fr = parsed
		case marker >= 0xC1 && marker <= 0xCF && marker != markerDHT:
			return nil, fmt.Errorf("jpeg: frame marker %#x: %w", marker, codec.ErrUnsupportedFeature)
		case marker == markerSOS:
			if fr == nil {
				return nil, ErrInvalidComponentReference
			}
			consumed, err := decodeScan(source, segEnd, segment, fr, quantTables, dcTables, acTables, restartInterval)
			if err != nil {
				return nil, err
			}
			scanned = true
			pos = consumed
			continue
		default:
			// APPn, COM, DNL, and any other segment this decoder doesn't
			// need are skipped.
			if marker >= 0xE0 && marker <= 0xEF {
				codec.Logger().Printf("jpeg: skipping APPn segment %#x", marker)
			}
		}

		pos = segEnd
	}

	if fr == nil || !scanned {
		return nil, ErrMissingScanData
	}
	return assembleTexture(fr), nil
}

func parseDQT(segment []byte, quantTables *[4][64]uint16) error {
	pos := 0
	for pos < len(segment) {
		precision := segment[pos] >> 4
		id := segment[pos] & 0x0F
		pos++
		if id > 3 {
			return ErrInvalidComponentReference
		}
		for i := 0; i < 64; i++ {
			var v uint16
			if precision == 0 {
				if pos >= len(segment) {
					return ErrTruncatedSegment
				}
				v = uint16(segment[pos])
				pos++
			} else {
				if pos+1 >= len(segment) {
					return ErrTruncatedSegment
				}
				v = uint16(segment[pos])<<8 | uint16(segment[pos+1])
				pos += 2
			}
			quantTables[id][idct.ZigZag[i]] = v
		}
	}
	return nil
}

func parseDHT(segment []byte, dcTables, acTables *[4]*huffman.Tree) error {
	pos := 0
	for pos < len(segment) {
		class := segment[pos] >> 4
		id := segment[pos] & 0x0F
		pos++
		if id > 3 || pos+16 > len(segment) {
			return ErrTruncatedSegment
		}
		var counts [16]int
		total := 0
		for i := 0; i < 16; i++ {
			counts[i] = int(segment[pos+i])
			total += counts[i]
		}
		pos += 16
		if pos+total > len(segment) {
			return ErrTruncatedSegment
		}
		symbols := segment[pos : pos+total]
		pos += total

		tree, err := huffman.FromJPEGTable(counts, symbols)
		if err != nil {
			return err
		}
		if class == 0 {
			dcTables[id] = tree
		} else {
			acTables[id] = tree
		}
	}
	return nil
}

func parseSOF0(segment []byte) (*frame, error) {
	if len(segment) < 6 {
		return nil, ErrTruncatedSegment
	}
	precision := segment[0]
	if precision != 8 {
		return nil, fmt.Errorf("jpeg: %d-bit samples: %w", precision, codec.ErrUnsupportedFeature)
	}
	height := int(segment[1])<<8 | int(segment[2])
	width := int(segment[3])<<8 | int(segment[4])
	if width <= 0 || height <= 0 || width > codec.MaxImageDimension || height > codec.MaxImageDimension {
		return nil, fmt.Errorf("jpeg: %w", codec.ErrInvalidDimensions)
	}
	numComponents := int(segment[5])
	if len(segment) < 6+numComponents*3 {
		return nil, ErrTruncatedSegment
	}

	fr := &frame{width: width, height: height}
	for i := 0; i < numComponents; i++ {
		base := 6 + i*3
		c := component{
			id:         segment[base],
			hSamp:      int(segment[base+1] >> 4),
			vSamp:      int(segment[base+1] & 0x0F),
			quantTable: int(segment[base+2]),
		}
		if c.hSamp == 0 || c.vSamp == 0 || c.quantTable > 3 {
			return nil, ErrInvalidComponentReference
		}
		if c.hSamp > fr.maxH {
			fr.maxH = c.hSamp
		}
		if c.vSamp > fr.maxV {
			fr.maxV = c.vSamp
		}
		fr.components = append(fr.components, c)
	}

	mcuWidth := fr.maxH * 8
	mcuHeight := fr.maxV * 8
	fr.mcusPerLine = (width + mcuWidth - 1) / mcuWidth
	fr.mcuLines = (height + mcuHeight - 1) / mcuHeight

	for i := range fr.components {
		c := &fr.components[i]
		c.planeWidth = fr.mcusPerLine * c.hSamp * 8
		c.planeHeight = fr.mcuLines * c.vSamp * 8
		c.plane = make([]byte, c.planeWidth*c.planeHeight)
	}

	return fr, nil
}
