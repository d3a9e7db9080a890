package ttf

// HeadTable is the font-wide metadata the head table carries: the design
// grid's resolution and the glyph-offset format loca uses.
type HeadTable struct {
	UnitsPerEm       uint16
	IndexToLocFormat int16
	XMin, YMin       int16
	XMax, YMax       int16
}

func parseHead(data []byte) (HeadTable, error) {
	if len(data) < 54 {
		return HeadTable{}, ErrTruncated
	}
	return HeadTable{
		UnitsPerEm:       be16(data, 18),
		XMin:             beInt16(data, 36),
		YMin:             beInt16(data, 38),
		XMax:             beInt16(data, 40),
		YMax:             beInt16(data, 42),
		IndexToLocFormat: beInt16(data, 50),
	}, nil
}

// HheaTable carries the font's horizontal layout metrics: the line-spacing
// triple and the count hmtx uses to know how many full metric records it
// stores before glyphs start sharing an advance width.
type HheaTable struct {
	Ascent, Descent, LineGap int16
	NumberOfHMetrics         uint16
}

func parseHhea(data []byte) (HheaTable, error) {
	if len(data) < 36 {
		return HheaTable{}, ErrTruncated
	}
	return HheaTable{
		Ascent:           beInt16(data, 4),
		Descent:          beInt16(data, 6),
		LineGap:          beInt16(data, 8),
		NumberOfHMetrics: be16(data, 34),
	}, nil
}

func parseMaxp(data []byte) (numGlyphs int, err error) {
	if len(data) < 6 {
		return 0, ErrTruncated
	}
	return int(be16(data, 4)), nil
}

// LongHorMetric is one glyph's horizontal advance width and left side
// bearing, as stored in hmtx.
type LongHorMetric struct {
	AdvanceWidth    uint16
	LeftSideBearing int16
}

// parseHmtx reads numberOfHMetrics full {advanceWidth, lsb} records, then
// one lsb-only record per remaining glyph, which all share the final
// advance width per the OpenType spec.
func parseHmtx(data []byte, numberOfHMetrics, numGlyphs int) ([]LongHorMetric, error) {
	if numberOfHMetrics > numGlyphs {
		numberOfHMetrics = numGlyphs
	}
	metrics := make([]LongHorMetric, 0, numGlyphs)

	pos := 0
	var lastAdvance uint16
	for i := 0; i < numberOfHMetrics; i++ {
		if pos+4 > len(data) {
			return nil, ErrTruncated
		}
		lastAdvance = be16(data, pos)
		metrics = append(metrics, LongHorMetric{
			AdvanceWidth:    lastAdvance,
			LeftSideBearing: beInt16(data, pos+2),
		})
		pos += 4
	}
	for i := numberOfHMetrics; i < numGlyphs; i++ {
		if pos+2 > len(data) {
			return nil, ErrTruncated
		}
		metrics = append(metrics, LongHorMetric{
			AdvanceWidth:    lastAdvance,
			LeftSideBearing: beInt16(data, pos),
		})
		pos += 2
	}
	return metrics, nil
}

// parseLoca reads numGlyphs+1 glyph offsets into the glyf table. Format 0
// stores each offset halved (as a uint16); format 1 stores full uint32
// offsets, selected by head.IndexToLocFormat.
func parseLoca(data []byte, indexToLocFormat int16, numGlyphs int) ([]uint32, error) {
	count := numGlyphs + 1
	offsets := make([]uint32, count)
	if indexToLocFormat == 0 {
		if len(data) < count*2 {
			return nil, ErrTruncated
		}
		for i := 0; i < count; i++ {
			offsets[i] = uint32(be16(data, i*2)) * 2
		}
		return offsets, nil
	}
	if len(data) < count*4 {
		return nil, ErrTruncated
	}
	for i := 0; i < count; i++ {
		offsets[i] = be32(data, i*4)
	}
	return offsets, nil
}
