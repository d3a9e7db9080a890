package ttf

import "errors"

// ErrUnsupportedFeature is returned for a glyph encoding this decoder
// doesn't implement: point-matched composite components (as opposed to
// x/y offsets), the only composite placement mode in wide use.
var ErrUnsupportedFeature = errors.New("ttf: unsupported glyph feature")

// Point is one outline vertex in font design units. OnCurve is false for a
// quadratic Bezier control point; consecutive off-curve points imply an
// on-curve midpoint between them, which this decoder does not synthesize —
// callers that rasterize curves are expected to do so when walking Contour.
type Point struct {
	X, Y    float32
	OnCurve bool
}

// Contour is one closed outline loop.
type Contour []Point

// Outline is a glyph's complete vector shape: every contour, already
// flattened from composite glyph references.
type Outline struct {
	Contours               []Contour
	MinX, MinY, MaxX, MaxY int16
}

const (
	compArg1And2AreWords  = 1 << 0
	compArgsAreXYValues   = 1 << 1
	compWeHaveAScale      = 1 << 3
	compMoreComponents    = 1 << 5
	compWeHaveXYScale     = 1 << 6
	compWeHaveTwoByTwo    = 1 << 7
)

// Glyph returns the fully resolved outline for glyphID, recursively
// flattening composite glyphs into their referenced components' contours.
func (f *Font) Glyph(glyphID uint16) (*Outline, error) {
	return f.glyph(glyphID, 0)
}

func (f *Font) glyph(glyphID uint16, depth int) (*Outline, error) {
	if depth > maxCompositeDepth {
		return nil, ErrCompositeRecursionTooDeep
	}
	if int(glyphID)+1 >= len(f.loca) {
		return &Outline{}, nil
	}
	start, end := f.loca[glyphID], f.loca[glyphID+1]
	if start == end {
		return &Outline{}, nil // space glyph: no outline data
	}
	if int(end) > len(f.glyfData) {
		return nil, ErrTruncated
	}
	data := f.glyfData[start:end]
	if len(data) < 10 {
		return nil, ErrTruncated
	}

	numContours := int(beInt16(data, 0))
	outline := &Outline{
		MinX: beInt16(data, 2), MinY: beInt16(data, 4),
		MaxX: beInt16(data, 6), MaxY: beInt16(data, 8),
	}

	if numContours >= 0 {
		contours, err := parseSimpleGlyph(data, numContours)
		if err != nil {
			return nil, err
		}
		outline.Contours = contours
		return outline, nil
	}

	components, err := parseCompositeGlyph(data)
	if err != nil {
		return nil, err
	}
	for _, c := range components {
		refOutline, err := f.glyph(c.glyphIndex, depth+1)
		if err != nil {
			return nil, err
		}
		for _, contour := range refOutline.Contours {
			transformed := make(Contour, len(contour))
			for i, p := range contour {
				transformed[i] = Point{
					X:       c.scaleX*p.X + c.scale01*p.Y + c.dx,
					Y:       c.scale10*p.X + c.scaleY*p.Y + c.dy,
					OnCurve: p.OnCurve,
				}
			}
			outline.Contours = append(outline.Contours, transformed)
		}
	}
	return outline, nil
}

func parseSimpleGlyph(data []byte, numContours int) ([]Contour, error) {
	endPtsOffset := 10
	if endPtsOffset+numContours*2 > len(data) {
		return nil, ErrTruncated
	}
	endPts := make([]int, numContours)
	for i := 0; i < numContours; i++ {
		endPts[i] = int(be16(data, endPtsOffset+i*2))
	}
	numPoints := 0
	if numContours > 0 {
		numPoints = endPts[numContours-1] + 1
	}

	instrLenOffset := endPtsOffset + numContours*2
	if instrLenOffset+2 > len(data) {
		return nil, ErrTruncated
	}
	instructionLength := int(be16(data, instrLenOffset))
	flagsOffset := instrLenOffset + 2 + instructionLength

	flags := make([]byte, 0, numPoints)
	pos := flagsOffset
	for len(flags) < numPoints {
		if pos >= len(data) {
			return nil, ErrTruncated
		}
		flag := data[pos]
		pos++
		flags = append(flags, flag)
		if flag&0x08 != 0 { // REPEAT_FLAG
			if pos >= len(data) {
				return nil, ErrTruncated
			}
			repeatCount := int(data[pos])
			pos++
			for i := 0; i < repeatCount && len(flags) < numPoints; i++ {
				flags = append(flags, flag)
			}
		}
	}

	xs := make([]float32, numPoints)
	var x int32
	for i, flag := range flags {
		switch {
		case flag&0x02 != 0: // X_SHORT_VECTOR
			if pos >= len(data) {
				return nil, ErrTruncated
			}
			d := int32(data[pos])
			pos++
			if flag&0x10 == 0 { // sign bit: clear means negative
				d = -d
			}
			x += d
		case flag&0x10 == 0: // full int16 delta
			if pos+2 > len(data) {
				return nil, ErrTruncated
			}
			x += int32(beInt16(data, pos))
			pos += 2
		} // else: X_IS_SAME, delta 0
		xs[i] = float32(x)
	}

	ys := make([]float32, numPoints)
	var y int32
	for i, flag := range flags {
		switch {
		case flag&0x04 != 0: // Y_SHORT_VECTOR
			if pos >= len(data) {
				return nil, ErrTruncated
			}
			d := int32(data[pos])
			pos++
			if flag&0x20 == 0 {
				d = -d
			}
			y += d
		case flag&0x20 == 0:
			if pos+2 > len(data) {
				return nil, ErrTruncated
			}
			y += int32(beInt16(data, pos))
			pos += 2
		}
		ys[i] = float32(y)
	}

	contours := make([]Contour, numContours)
	start := 0
	for c, end := range endPts {
		contour := make(Contour, 0, end-start+1)
		for i := start; i <= end; i++ {
			contour = append(contour, Point{X: xs[i], Y: ys[i], OnCurve: flags[i]&0x01 != 0})
		}
		contours[c] = contour
		start = end + 1
	}
	return contours, nil
}

type compositeComponent struct {
	glyphIndex                         uint16
	dx, dy                             float32
	scaleX, scaleY, scale01, scale10   float32
}

func parseCompositeGlyph(data []byte) ([]compositeComponent, error) {
	var components []compositeComponent
	pos := 10
	for {
		if pos+4 > len(data) {
			return nil, ErrTruncated
		}
		flags := be16(data, pos)
		glyphIndex := be16(data, pos+2)
		pos += 4

		if flags&compArgsAreXYValues == 0 {
			return nil, ErrUnsupportedFeature
		}
		var dx, dy float32
		if flags&compArg1And2AreWords != 0 {
			if pos+4 > len(data) {
				return nil, ErrTruncated
			}
			dx = float32(beInt16(data, pos))
			dy = float32(beInt16(data, pos+2))
			pos += 4
		} else {
			if pos+2 > len(data) {
				return nil, ErrTruncated
			}
			dx = float32(int8(data[pos]))
			dy = float32(int8(data[pos+1]))
			pos += 2
		}

		comp := compositeComponent{glyphIndex: glyphIndex, dx: dx, dy: dy, scaleX: 1, scaleY: 1}
		switch {
		case flags&compWeHaveTwoByTwo != 0:
			if pos+8 > len(data) {
				return nil, ErrTruncated
			}
			comp.scaleX = f2dot14(data, pos)
			comp.scale01 = f2dot14(data, pos+2)
			comp.scale10 = f2dot14(data, pos+4)
			comp.scaleY = f2dot14(data, pos+6)
			pos += 8
		case flags&compWeHaveXYScale != 0:
			if pos+4 > len(data) {
				return nil, ErrTruncated
			}
			comp.scaleX = f2dot14(data, pos)
			comp.scaleY = f2dot14(data, pos+2)
			pos += 4
		case flags&compWeHaveAScale != 0:
			if pos+2 > len(data) {
				return nil, ErrTruncated
			}
			s := f2dot14(data, pos)
			comp.scaleX, comp.scaleY = s, s
			pos += 2
		}

		components = append(components, comp)
		if flags&compMoreComponents == 0 {
			break
		}
	}
	return components, nil
}

func f2dot14(data []byte, offset int) float32 {
	return float32(beInt16(data, offset)) / 16384
}
