package ttf

import codec "github.com/fenwick-engine/codec"

const trueTypeScalerType = 0x00010000

// Font is a parsed TrueType font. The head, hhea, maxp, hmtx, cmap, loca
// and name tables are decoded up front; glyf is kept as raw bytes, and each
// Glyph call parses the requested outline from them.
type Font struct {
	Head HeadTable
	Hhea HheaTable

	numGlyphs int
	hmtx      []LongHorMetric
	cmap      *format4
	loca      []uint32
	glyfData  []byte
	name      string
}

// Parse reads a TrueType font's table directory and required tables (head,
// cmap, loca, glyf, hhea, hmtx, maxp), and the optional name table.
func Parse(data []byte) (*Font, error) {
	records, scalerType, err := parseOffsetTable(data)
	if err != nil {
		return nil, err
	}
	if scalerType != trueTypeScalerType {
		return nil, ErrUnsupportedFormat
	}

	table := func(tag string) ([]byte, error) {
		rec, ok := records[tag]
		if !ok {
			return nil, ErrMissingTable
		}
		end := rec.offset + rec.length
		if int(end) > len(data) || int(rec.offset) > int(end) {
			return nil, ErrTruncated
		}
		return data[rec.offset:end], nil
	}

	headData, err := table("head")
	if err != nil {
		return nil, err
	}
	head, err := parseHead(headData)
	if err != nil {
		return nil, err
	}

	hheaData, err := table("hhea")
	if err != nil {
		return nil, err
	}
	hhea, err := parseHhea(hheaData)
	if err != nil {
		return nil, err
	}

	maxpData, err := table("maxp")
	if err != nil {
		return nil, err
	}
	numGlyphs, err := parseMaxp(maxpData)
	if err != nil {
		return nil, err
	}

	hmtxData, err := table("hmtx")
	if err != nil {
		return nil, err
	}
	hmtx, err := parseHmtx(hmtxData, int(hhea.NumberOfHMetrics), numGlyphs)
	if err != nil {
		return nil, err
	}

	locaData, err := table("loca")
	if err != nil {
		return nil, err
	}
	loca, err := parseLoca(locaData, head.IndexToLocFormat, numGlyphs)
	if err != nil {
		return nil, err
	}

	glyfData, err := table("glyf")
	if err != nil {
		return nil, err
	}

	cmapData, err := table("cmap")
	if err != nil {
		return nil, err
	}
	subtableOffset, err := findUnicodeCmapSubtable(cmapData)
	if err != nil {
		return nil, err
	}
	if subtableOffset > len(cmapData) {
		return nil, ErrTruncated
	}
	cmap, err := parseFormat4(cmapData[subtableOffset:])
	if err != nil {
		return nil, err
	}

	var name string
	if nameData, err := table("name"); err == nil {
		name = parseFullName(nameData)
	} else {
		codec.Logger().Printf("ttf: no name table present")
	}

	return &Font{
		Head:      head,
		Hhea:      hhea,
		numGlyphs: numGlyphs,
		hmtx:      hmtx,
		cmap:      cmap,
		loca:      loca,
		glyfData:  glyfData,
		name:      name,
	}, nil
}

// NumGlyphs returns the number of glyphs defined by maxp.
func (f *Font) NumGlyphs() int { return f.numGlyphs }

// Name returns the font's full name from the name table's nameID-4 record,
// or "" if the font carries no name table or no such record.
func (f *Font) Name() string { return f.name }

// UnitsPerEm returns the number of font design units per em square, the
// scale factor every glyph outline and metric is expressed in.
func (f *Font) UnitsPerEm() uint16 { return f.Head.UnitsPerEm }

// Ascent, Descent and LineGap are the font's recommended line-layout
// metrics, in font design units.
func (f *Font) Ascent() int16  { return f.Hhea.Ascent }
func (f *Font) Descent() int16 { return f.Hhea.Descent }
func (f *Font) LineGap() int16 { return f.Hhea.LineGap }

// GlyphIndex maps a Unicode codepoint to a glyph index via the font's
// format-4 cmap subtable. Unmapped codepoints return 0, the glyph index
// reserved for the ".notdef" / missing-character glyph.
func (f *Font) GlyphIndex(codepoint rune) uint16 {
	if codepoint < 0 || codepoint > 0xFFFF {
		return 0
	}
	return f.cmap.glyphIndex(uint16(codepoint))
}

// Metrics returns glyphID's advance width and left side bearing.
func (f *Font) Metrics(glyphID uint16) LongHorMetric {
	if int(glyphID) >= len(f.hmtx) {
		if len(f.hmtx) == 0 {
			return LongHorMetric{}
		}
		return LongHorMetric{AdvanceWidth: f.hmtx[len(f.hmtx)-1].AdvanceWidth}
	}
	return f.hmtx[glyphID]
}
