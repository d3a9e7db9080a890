// Package huffman builds canonical Huffman decode trees from a vector of
// per-symbol code lengths and walks them one bit at a time.
//
// The tree is represented as a flat array of nodes rather than a
// heap-allocated graph of owning pointers, per the systems-language
// recommendation: this keeps construction and traversal cache-dense and
// makes teardown trivial (the whole tree is one slice).
package huffman

import (
	"errors"

	"github.com/fenwick-engine/codec/internal/bitio"
)

// ErrInvalidHuffmanTable is returned when the code lengths describe an
// over-full code space (more codes than the length vector has room for).
var ErrInvalidHuffmanTable = errors.New("huffman: invalid code length vector")

// ErrSymbolNotFound is returned when a bit walk reaches an absent branch.
// This can only happen with an under-full tree decoding malformed input.
var ErrSymbolNotFound = errors.New("huffman: no symbol at this code")

const noChild = -1

// node is one entry in the flat tree array. A negative child index means
// "absent"; children point to other node indices. leaf is true once both
// children are absent and the node carries a decoded symbol.
type node struct {
	children [2]int32
	leaf     bool
	symbol   uint16
}

// Tree is a canonical Huffman decode table, built once from a length vector
// and read-only thereafter.
type Tree struct {
	nodes []node
}

// FromCodeLengths performs the canonical Huffman construction described in
// RFC 1951 §3.2.2: count symbols per length, derive the first code for each
// length by left-shifting the running total, then walk symbols in order
// assigning consecutive codes within each length class.
//
// A length of 0 means the symbol is absent from the alphabet.
func FromCodeLengths(lengths []uint16) (*Tree, error) {
	var maxLen uint16
	for _, l := range lengths {
		if l > maxLen {
			maxLen = l
		}
	}

	blCount := make([]int, maxLen+1)
	for _, l := range lengths {
		if l > 0 {
			blCount[l]++
		}
	}

	nextCode := make([]uint32, maxLen+2)
	var code uint32
	for bits := uint16(1); bits <= maxLen; bits++ {
		code = (code + uint32(blCount[bits-1])) << 1
		nextCode[bits] = code
	}

	t := &Tree{nodes: []node{{children: [2]int32{noChild, noChild}}}}

	for symbol, l := range lengths {
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++
		if err := t.insert(c, int(l), uint16(symbol)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromJPEGTable builds a canonical Huffman tree from the BITS/HUFFVAL
// representation JPEG's DHT segments use (ITU-T.81 Annex C): counts[i]
// gives the number of symbols assigned a code of length i+1, and symbols
// lists every coded symbol in the exact order Annex C assigns codes —
// ascending code length, and within a length, the order the table listed
// them in. Unlike DEFLATE's canonical construction this does not resort
// same-length symbols by symbol value, since JPEG's own code-assignment
// order is not required to be ascending.
func FromJPEGTable(counts [16]int, symbols []byte) (*Tree, error) {
	t := &Tree{nodes: []node{{children: [2]int32{noChild, noChild}}}}

	var code uint32
	idx := 0
	for length := 1; length <= 16; length++ {
		for i := 0; i < counts[length-1]; i++ {
			if idx >= len(symbols) {
				return nil, ErrInvalidHuffmanTable
			}
			if err := t.insert(code, length, uint16(symbols[idx])); err != nil {
				return nil, err
			}
			idx++
			code++
		}
		code <<= 1
	}
	if idx != len(symbols) {
		return nil, ErrInvalidHuffmanTable
	}
	return t, nil
}

// insert walks/creates a path of length bits (MSB first, as RFC 1951
// mandates for Huffman codes) from the root and marks the final node as a
// leaf carrying symbol. It fails if that path is already a leaf (code space
// over-full) or already an interior node being asked to become a leaf.
func (t *Tree) insert(code uint32, length int, symbol uint16) error {
	cur := int32(0)
	for i := length - 1; i >= 0; i-- {
		bit := (code >> uint(i)) & 1
		if t.nodes[cur].leaf {
			return ErrInvalidHuffmanTable
		}
		child := t.nodes[cur].children[bit]
		if child == noChild {
			t.nodes = append(t.nodes, node{children: [2]int32{noChild, noChild}})
			child = int32(len(t.nodes) - 1)
			t.nodes[cur].children[bit] = child
		}
		cur = child
	}
	if !t.nodes[cur].leaf && (t.nodes[cur].children[0] != noChild || t.nodes[cur].children[1] != noChild) {
		return ErrInvalidHuffmanTable
	}
	if t.nodes[cur].leaf {
		return ErrInvalidHuffmanTable
	}
	t.nodes[cur].leaf = true
	t.nodes[cur].symbol = symbol
	return nil
}

// ReadSymbol walks the tree one bit at a time (MSB-first, matching how
// Huffman codes are written) until it reaches a leaf, and returns its
// symbol.
func (t *Tree) ReadSymbol(r *bitio.Reader) (uint16, error) {
	cur := int32(0)
	for {
		if t.nodes[cur].leaf {
			return t.nodes[cur].symbol, nil
		}
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		child := t.nodes[cur].children[bit]
		if child == noChild {
			return 0, ErrSymbolNotFound
		}
		cur = child
	}
}
