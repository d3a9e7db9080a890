package huffman

import (
	"testing"

	"github.com/fenwick-engine/codec/internal/bitio"
)

func TestFromCodeLengthsReachability(t *testing.T) {
	// RFC 1951 §3.2.2 worked example: symbols A-D with lengths 2,1,3,3.
	lengths := []uint16{2, 1, 3, 3}
	tree, err := FromCodeLengths(lengths)
	if err != nil {
		t.Fatal(err)
	}

	// Canonical codes: A=10, B=0, C=110, D=111
	cases := []struct {
		bits   []uint8
		symbol uint16
	}{
		{[]uint8{1, 0}, 0},
		{[]uint8{0}, 1},
		{[]uint8{1, 1, 0}, 2},
		{[]uint8{1, 1, 1}, 3},
	}
	for _, c := range cases {
		buf := packBits(c.bits)
		r := bitio.NewReader(buf)
		sym, err := tree.ReadSymbol(r)
		if err != nil {
			t.Fatalf("symbol %d: %v", c.symbol, err)
		}
		if sym != c.symbol {
			t.Fatalf("got symbol %d, want %d", sym, c.symbol)
		}
	}
}

func TestOverfullTableRejected(t *testing.T) {
	// Three symbols all of length 1 cannot coexist (only 2 codes of length 1).
	_, err := FromCodeLengths([]uint16{1, 1, 1})
	if err != ErrInvalidHuffmanTable {
		t.Fatalf("err = %v, want ErrInvalidHuffmanTable", err)
	}
}

func TestUnderfullTableSymbolNotFound(t *testing.T) {
	// A single symbol of length 2 leaves three quarters of the code space
	// unassigned.
	tree, err := FromCodeLengths([]uint16{2})
	if err != nil {
		t.Fatal(err)
	}
	r := bitio.NewReader(packBits([]uint8{1, 1}))
	if _, err := tree.ReadSymbol(r); err != ErrSymbolNotFound {
		t.Fatalf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestFromJPEGTablePreservesListedOrder(t *testing.T) {
	// Two symbols of length 2, listed in descending symbol-value order,
	// which FromCodeLengths's ascending tie-break would assign
	// differently: this checks FromJPEGTable keeps the listed order.
	var counts [16]int
	counts[1] = 2 // two codes of length 2
	symbols := []byte{0x05, 0x02}

	tree, err := FromJPEGTable(counts, symbols)
	if err != nil {
		t.Fatal(err)
	}

	r := bitio.NewReader(packBits([]uint8{0, 0}))
	sym, err := tree.ReadSymbol(r)
	if err != nil {
		t.Fatal(err)
	}
	if sym != 0x05 {
		t.Fatalf("code 00 -> symbol %#x, want 0x05 (first-listed)", sym)
	}

	r = bitio.NewReader(packBits([]uint8{0, 1}))
	sym, err = tree.ReadSymbol(r)
	if err != nil {
		t.Fatal(err)
	}
	if sym != 0x02 {
		t.Fatalf("code 01 -> symbol %#x, want 0x02 (second-listed)", sym)
	}
}

// packBits lays out a sequence of bits so that successive bitio.Reader.ReadBit
// calls return them in the given order: bit i of the sequence becomes bit
// (i%8) of byte (i/8), since the reader consumes each byte from its low bit
// to its high bit before moving to the next byte.
func packBits(bits []uint8) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
