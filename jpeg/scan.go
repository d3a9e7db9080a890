package jpeg

import (
	codec "github.com/fenwick-engine/codec"
	"github.com/fenwick-engine/codec/internal/bitio"
	"github.com/fenwick-engine/codec/internal/huffman"
	"github.com/fenwick-engine/codec/internal/idct"
)

type scanComponent struct {
	comp    *component
	dcTable *huffman.Tree
	acTable *huffman.Tree
}

// decodeScan parses an SOS segment's header, then entropy-decodes the scan
// data that follows (up to the next real marker), writing reconstructed
// samples into fr's component planes. It returns the source offset just
// past the scan data.
func decodeScan(source []byte, scanDataStart int, sosSegment []byte, fr *frame, quantTables [4][64]uint16, dcTables, acTables [4]*huffman.Tree, restartInterval int) (int, error) {
	if len(sosSegment) < 1 {
		return 0, ErrTruncatedSegment
	}
	numScanComponents := int(sosSegment[0])
	if len(sosSegment) < 1+numScanComponents*2+3 {
		return 0, ErrTruncatedSegment
	}

	scanComps := make([]scanComponent, 0, numScanComponents)
	for i := 0; i < numScanComponents; i++ {
		base := 1 + i*2
		id := sosSegment[base]
		dcID := sosSegment[base+1] >> 4
		acID := sosSegment[base+1] & 0x0F
		if dcID > 3 || acID > 3 {
			return 0, ErrInvalidComponentReference
		}

		var comp *component
		for j := range fr.components {
			if fr.components[j].id == id {
				comp = &fr.components[j]
				break
			}
		}
		if comp == nil || dcTables[dcID] == nil || acTables[acID] == nil {
			return 0, ErrInvalidComponentReference
		}
		scanComps = append(scanComps, scanComponent{comp: comp, dcTable: dcTables[dcID], acTable: acTables[acID]})
	}

	chunks, restarts, endPos := splitEntropyData(source, scanDataStart)

	totalMCUs := fr.mcusPerLine * fr.mcuLines
	mcuIndex := 0
	expectedRestart := byte(0)
	for idx, chunk := range chunks {
		if mcuIndex >= totalMCUs {
			break
		}
		if idx > 0 {
			if restarts[idx-1] != expectedRestart {
				return 0, ErrUnexpectedMarker
			}
			expectedRestart = (expectedRestart + 1) % 8
		}
		r := bitio.NewMSBFirstReader(chunk)
		for i := range scanComps {
			scanComps[i].comp.dcPred = 0
		}

		target := restartInterval
		if target <= 0 || mcuIndex+target > totalMCUs {
			target = totalMCUs - mcuIndex
		}

		for i := 0; i < target; i++ {
			mcuX := mcuIndex % fr.mcusPerLine
			mcuY := mcuIndex / fr.mcusPerLine
			if err := decodeMCU(r, scanComps, quantTables, mcuX, mcuY); err != nil {
				return 0, err
			}
			mcuIndex++
		}
	}

	return endPos, nil
}

// splitEntropyData scans source starting at pos for JPEG entropy-coded scan
// data, removing 0xFF 0x00 byte stuffing and splitting the result into
// chunks at each restart marker (0xFF D0-D7). The returned restarts slice
// holds, for each boundary between chunks[i] and chunks[i+1], the marker's
// low 3 bits (its cyclic restart number) so the caller can verify the
// sequence 0,1,...,7,0,... against what it expects. splitEntropyData stops
// at the first marker that is neither stuffing nor a restart marker and
// returns its offset.
func splitEntropyData(source []byte, pos int) ([][]byte, []byte, int) {
	var chunks [][]byte
	var restarts []byte
	var current []byte

	for pos < len(source) {
		b := source[pos]
		if b != 0xFF {
			current = append(current, b)
			pos++
			continue
		}
		if pos+1 >= len(source) {
			pos = len(source)
			break
		}
		next := source[pos+1]
		switch {
		case next == 0x00:
			current = append(current, 0xFF)
			pos += 2
		case next >= markerRST0 && next <= markerRST7:
			chunks = append(chunks, current)
			restarts = append(restarts, next-markerRST0)
			current = nil
			pos += 2
		default:
			chunks = append(chunks, current)
			return chunks, restarts, pos
		}
	}
	chunks = append(chunks, current)
	return chunks, restarts, pos
}

// decodeMCU entropy-decodes, dequantizes, and inverse-transforms every data
// unit in one minimum coded unit, writing the reconstructed 8x8 sample
// blocks into each component's plane.
func decodeMCU(r *bitio.Reader, scanComps []scanComponent, quantTables [4][64]uint16, mcuX, mcuY int) error {
	for i := range scanComps {
		sc := &scanComps[i]
		for vy := 0; vy < sc.comp.vSamp; vy++ {
			for vx := 0; vx < sc.comp.hSamp; vx++ {
				var coeffs [64]int16
				if err := decodeDataUnit(r, sc, &coeffs); err != nil {
					return err
				}

				var block [64]uint8
				quant := quantTables[sc.comp.quantTable]
				idct.Inverse(&coeffs, &quant, &block)

				blockX := (mcuX*sc.comp.hSamp + vx) * 8
				blockY := (mcuY*sc.comp.vSamp + vy) * 8
				for row := 0; row < 8; row++ {
					dstOff := (blockY+row)*sc.comp.planeWidth + blockX
					copy(sc.comp.plane[dstOff:dstOff+8], block[row*8:row*8+8])
				}
			}
		}
	}
	return nil
}

func decodeDataUnit(r *bitio.Reader, sc *scanComponent, coeffs *[64]int16) error {
	dcSymbol, err := sc.dcTable.ReadSymbol(r)
	if err != nil {
		return err
	}
	size := int(dcSymbol)
	var diff int32
	if size > 0 {
		bits, err := r.ReadBits(size, bitio.MSBFirst)
		if err != nil {
			return err
		}
		diff = extend(bits, size)
	}
	sc.comp.dcPred += diff
	coeffs[0] = int16(sc.comp.dcPred)

	k := 1
	for k <= 63 {
		acSymbol, err := sc.acTable.ReadSymbol(r)
		if err != nil {
			return err
		}
		run := int(acSymbol >> 4)
		size := int(acSymbol & 0x0F)

		if size == 0 {
			if run == 15 {
				k += 16
				continue
			}
			break // EOB: remainder of the block stays zero
		}

		k += run
		if k > 63 {
			return ErrTooManyCoefficients
		}

		bits, err := r.ReadBits(size, bitio.MSBFirst)
		if err != nil {
			return err
		}
		coeffs[idct.ZigZag[k]] = int16(extend(bits, size))
		k++
	}
	return nil
}

// extend implements JPEG Annex F.2.2.1's sign extension: a category-size
// magnitude whose leading bit is 0 represents a negative difference.
func extend(bits uint32, size int) int32 {
	vt := int32(1) << uint(size-1)
	v := int32(bits)
	if v < vt {
		return v - (1 << uint(size)) + 1
	}
	return v
}

// assembleTexture upsamples every component plane to the frame's full
// resolution (nearest-neighbor, scaled by each component's sampling factor
// relative to the frame's maximum) and converts YCbCr to RGB.
func assembleTexture(fr *frame) *codec.Texture {
	tex := codec.NewTexture(fr.width, fr.height)

	if len(fr.components) == 1 {
		comp := &fr.components[0]
		for y := 0; y < fr.height; y++ {
			for x := 0; x < fr.width; x++ {
				v := comp.plane[y*comp.planeWidth+x]
				tex.Set(x, y, v, v, v, 255)
			}
		}
		return tex
	}

	y0 := &fr.components[0]
	cb := &fr.components[1]
	cr := &fr.components[2]

	for py := 0; py < fr.height; py++ {
		for px := 0; px < fr.width; px++ {
			yVal := int32(y0.plane[py*y0.planeWidth+px])
			cbX := px * cb.hSamp / fr.maxH
			cbY := py * cb.vSamp / fr.maxV
			crX := px * cr.hSamp / fr.maxH
			crY := py * cr.vSamp / fr.maxV
			cbVal := int32(cb.plane[cbY*cb.planeWidth+cbX]) - 128
			crVal := int32(cr.plane[crY*cr.planeWidth+crX]) - 128

			r := clamp8(yVal + (1402*crVal)/1000)
			g := clamp8(yVal - (344136*cbVal)/1000000 - (714136*crVal)/1000000)
			b := clamp8(yVal + (1772*cbVal)/1000)
			tex.Set(px, py, r, g, b, 255)
		}
	}
	return tex
}

func clamp8(v int32) byte {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return byte(v)
	}
}
