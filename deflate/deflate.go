// Package deflate implements a from-scratch RFC 1951 DEFLATE decoder.
//
// It is deliberately not built on top of the standard library's
// compress/flate: the whole point of this module is a decoder that owns its
// own bit-level parsing, Huffman construction, and back-reference copying,
// since those are exactly the primitives the rest of this module's
// container and image decoders are built from.
package deflate

import (
	"errors"
	"fmt"

	"github.com/fenwick-engine/codec/internal/bitio"
	"github.com/fenwick-engine/codec/internal/huffman"
	"github.com/fenwick-engine/codec/internal/window"
)

var (
	// ErrReservedBlockType is returned for a block type value of 3.
	ErrReservedBlockType = errors.New("deflate: reserved block type")
	// ErrInvalidStoredLength is returned when a stored block's LEN and NLEN
	// fields are not bitwise complements.
	ErrInvalidStoredLength = errors.New("deflate: stored block LEN/NLEN mismatch")
	// ErrRLELeadingRepeat is returned for code-length symbol 16 (repeat
	// previous) appearing before any length has been read.
	ErrRLELeadingRepeat = errors.New("deflate: repeat code length with no preceding value")
	// ErrRLEExceedsLength is returned when a run-length expansion would
	// produce more code lengths than HLIT+HDIST declares.
	ErrRLEExceedsLength = errors.New("deflate: run-length expansion exceeds declared length")
	// ErrUnexpectedEOF is returned when the bit stream ends mid-block.
	ErrUnexpectedEOF = bitio.ErrUnexpectedEOF
	// ErrInvalidDistance is returned when a back-reference distance exceeds
	// the bytes produced so far.
	ErrInvalidDistance = window.ErrInvalidDistance
	// ErrInvalidHuffmanTable is returned when a dynamic block's code
	// lengths describe an over-full code space.
	ErrInvalidHuffmanTable = huffman.ErrInvalidHuffmanTable
	// ErrSymbolNotFound is returned when a Huffman walk reaches an absent
	// branch (malformed, under-full tree).
	ErrSymbolNotFound = huffman.ErrSymbolNotFound
)

// codeLengthOrder is the fixed permutation RFC 1951 §3.2.7 uses to transmit
// the code-length alphabet's own code lengths.
var codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthBase and lengthExtra give the run-length base value and number of
// extra bits for length symbols 257-285 (index 0 == symbol 257).
var lengthBase = [29]int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
var lengthExtra = [29]int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}

// distBase and distExtra give the back-reference distance base value and
// number of extra bits for distance codes 0-29.
var distBase = [30]int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}
var distExtra = [30]int{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}

var fixedLiteralTree, fixedDistanceTree *huffman.Tree

func init() {
	lengths := make([]uint16, 288)
	for i := 0; i < 144; i++ {
		lengths[i] = 8
	}
	for i := 144; i < 256; i++ {
		lengths[i] = 9
	}
	for i := 256; i < 280; i++ {
		lengths[i] = 7
	}
	for i := 280; i < 288; i++ {
		lengths[i] = 8
	}
	var err error
	fixedLiteralTree, err = huffman.FromCodeLengths(lengths)
	if err != nil {
		panic("deflate: fixed literal tree construction failed: " + err.Error())
	}

	distLengths := make([]uint16, 32)
	for i := range distLengths {
		distLengths[i] = 5
	}
	fixedDistanceTree, err = huffman.FromCodeLengths(distLengths)
	if err != nil {
		panic("deflate: fixed distance tree construction failed: " + err.Error())
	}
}

// Decompress decodes a raw DEFLATE stream and returns the decompressed
// bytes along with the number of source bytes consumed (rounded up to the
// next whole byte, per the final block's last bit).
func Decompress(source []byte) ([]byte, int, error) {
	r := bitio.NewReader(source)
	output := make([]byte, 0, len(source)*2)

	for {
		final, err := r.ReadBit()
		if err != nil {
			return nil, 0, err
		}
		btype, err := r.ReadBits(2, bitio.LSBFirst)
		if err != nil {
			return nil, 0, err
		}

		switch btype {
		case 0:
			if err := decodeStored(r, &output); err != nil {
				return nil, 0, err
			}
		case 1:
			if err := decodeBlockBody(r, fixedLiteralTree, fixedDistanceTree, &output); err != nil {
				return nil, 0, err
			}
		case 2:
			litTree, distTree, err := readDynamicTrees(r)
			if err != nil {
				return nil, 0, err
			}
			if err := decodeBlockBody(r, litTree, distTree, &output); err != nil {
				return nil, 0, err
			}
		case 3:
			return nil, 0, ErrReservedBlockType
		}

		if final == 1 {
			break
		}
	}

	return output, r.BytesConsumed(), nil
}

func decodeStored(r *bitio.Reader, output *[]byte) error {
	r.AlignToByteBoundary()
	length, err := r.ReadBits(16, bitio.LSBFirst)
	if err != nil {
		return err
	}
	nlength, err := r.ReadBits(16, bitio.LSBFirst)
	if err != nil {
		return err
	}
	if length^0xFFFF != nlength {
		return ErrInvalidStoredLength
	}
	for i := uint32(0); i < length; i++ {
		b, err := r.ReadBits(8, bitio.LSBFirst)
		if err != nil {
			return err
		}
		*output = append(*output, byte(b))
	}
	return nil
}

func readDynamicTrees(r *bitio.Reader) (*huffman.Tree, *huffman.Tree, error) {
	hlitField, err := r.ReadBits(5, bitio.LSBFirst)
	if err != nil {
		return nil, nil, err
	}
	hlit := int(hlitField) + 257

	hdistField, err := r.ReadBits(5, bitio.LSBFirst)
	if err != nil {
		return nil, nil, err
	}
	hdist := int(hdistField) + 1

	hclenField, err := r.ReadBits(4, bitio.LSBFirst)
	if err != nil {
		return nil, nil, err
	}
	hclen := int(hclenField) + 4

	clLengths := make([]uint16, 19)
	for i := 0; i < hclen; i++ {
		v, err := r.ReadBits(3, bitio.LSBFirst)
		if err != nil {
			return nil, nil, err
		}
		clLengths[codeLengthOrder[i]] = uint16(v)
	}

	clTree, err := huffman.FromCodeLengths(clLengths)
	if err != nil {
		return nil, nil, err
	}

	total := hlit + hdist
	codes := make([]uint16, 0, total)
	for len(codes) < total {
		symbol, err := clTree.ReadSymbol(r)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case symbol <= 15:
			codes = append(codes, symbol)
		case symbol == 16:
			if len(codes) == 0 {
				return nil, nil, ErrRLELeadingRepeat
			}
			repeatValue := codes[len(codes)-1]
			extra, err := r.ReadBits(2, bitio.LSBFirst)
			if err != nil {
				return nil, nil, err
			}
			repeatFor := int(extra) + 3
			if len(codes)+repeatFor > total {
				return nil, nil, ErrRLEExceedsLength
			}
			for i := 0; i < repeatFor; i++ {
				codes = append(codes, repeatValue)
			}
		case symbol == 17:
			extra, err := r.ReadBits(3, bitio.LSBFirst)
			if err != nil {
				return nil, nil, err
			}
			repeatFor := int(extra) + 3
			if len(codes)+repeatFor > total {
				return nil, nil, ErrRLEExceedsLength
			}
			for i := 0; i < repeatFor; i++ {
				codes = append(codes, 0)
			}
		case symbol == 18:
			extra, err := r.ReadBits(7, bitio.LSBFirst)
			if err != nil {
				return nil, nil, err
			}
			repeatFor := int(extra) + 11
			if len(codes)+repeatFor > total {
				return nil, nil, ErrRLEExceedsLength
			}
			for i := 0; i < repeatFor; i++ {
				codes = append(codes, 0)
			}
		default:
			return nil, nil, fmt.Errorf("deflate: impossible code-length symbol %d", symbol)
		}
	}

	litTree, err := huffman.FromCodeLengths(codes[:hlit])
	if err != nil {
		return nil, nil, err
	}
	distTree, err := huffman.FromCodeLengths(codes[hlit:])
	if err != nil {
		return nil, nil, err
	}
	return litTree, distTree, nil
}

func decodeBlockBody(r *bitio.Reader, litTree, distTree *huffman.Tree, output *[]byte) error {
	for {
		symbol, err := litTree.ReadSymbol(r)
		if err != nil {
			return err
		}

		switch {
		case symbol < 256:
			*output = append(*output, byte(symbol))
		case symbol == 256:
			return nil
		default:
			idx := symbol - 257
			if int(idx) >= len(lengthBase) {
				return fmt.Errorf("deflate: invalid length symbol %d", symbol)
			}
			length := lengthBase[idx]
			if n := lengthExtra[idx]; n > 0 {
				extra, err := r.ReadBits(n, bitio.LSBFirst)
				if err != nil {
					return err
				}
				length += int(extra)
			}

			distSymbol, err := distTree.ReadSymbol(r)
			if err != nil {
				return err
			}
			if int(distSymbol) >= len(distBase) {
				return fmt.Errorf("deflate: invalid distance symbol %d", distSymbol)
			}
			distance := distBase[distSymbol]
			if n := distExtra[distSymbol]; n > 0 {
				extra, err := r.ReadBits(n, bitio.LSBFirst)
				if err != nil {
					return err
				}
				distance += int(extra)
			}

			if err := window.Copy(output, distance, length); err != nil {
				return err
			}
		}
	}
}
