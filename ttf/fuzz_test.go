package ttf

import "testing"

// minimalOffsetTable is a bare sfnt header declaring the TrueType scaler
// type and zero tables: valid enough to exercise parseOffsetTable past its
// length check without requiring a full font.
var minimalOffsetTable = []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// FuzzParse ensures Parse never panics on arbitrary font bytes, whatever
// table directory or table contents they describe.
func FuzzParse(f *testing.F) {
	f.Add(minimalOffsetTable)
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		Parse(data) //nolint:errcheck
	})
}

// FuzzParseOffsetTable ensures the sfnt table directory parser never panics
// on a malformed or truncated directory.
func FuzzParseOffsetTable(f *testing.F) {
	f.Add(minimalOffsetTable)
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		parseOffsetTable(data) //nolint:errcheck
	})
}
