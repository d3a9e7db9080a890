package png

import "github.com/fenwick-engine/codec"

// unpackPixels reads bit-packed samples out of raw (height scanlines of
// scanlineBytes each, already filter-reversed) and writes RGBA pixels into
// tex, dispatching on header's color type. Sub-byte bit depths (1/2/4, valid
// for grayscale and indexed color) are unpacked MSB-first within each byte,
// per the PNG spec's bit-packing rule; samples narrower or wider than 8
// bits are linearly rescaled to 0-255 since Texture is 8-bit-per-channel.
func unpackPixels(raw []byte, header ihdr, channels, scanlineBytes int, palette []byte, tex *codec.Texture) error {
	depth := int(header.bitDepth)
	maxSample := (uint32(1) << uint32(depth)) - 1

	for y := 0; y < header.height; y++ {
		row := raw[y*scanlineBytes : (y+1)*scanlineBytes]
		for x := 0; x < header.width; x++ {
			var samples [4]uint32
			for c := 0; c < channels; c++ {
				sampleIndex := x*channels + c
				samples[c] = readSample(row, sampleIndex, depth)
			}

			var r, g, b, a byte
			switch header.colorType {
			case colorTypeGrayscale:
				v := scaleSample(samples[0], maxSample)
				r, g, b, a = v, v, v, 255
			case colorTypeGrayscaleAlpha:
				v := scaleSample(samples[0], maxSample)
				alpha := scaleSample(samples[1], maxSample)
				r, g, b, a = v, v, v, alpha
			case colorTypeTrueColor:
				r = scaleSample(samples[0], maxSample)
				g = scaleSample(samples[1], maxSample)
				b = scaleSample(samples[2], maxSample)
				a = 255
			case colorTypeTrueColorAlpha:
				r = scaleSample(samples[0], maxSample)
				g = scaleSample(samples[1], maxSample)
				b = scaleSample(samples[2], maxSample)
				a = scaleSample(samples[3], maxSample)
			case colorTypeIndexed:
				idx := int(samples[0])
				if idx*3+2 >= len(palette) {
					return ErrInvalidPlte
				}
				r, g, b, a = palette[idx*3], palette[idx*3+1], palette[idx*3+2], 255
			}

			tex.Set(x, y, r, g, b, a)
		}
	}
	return nil
}

// readSample extracts the sampleIndex-th bitDepth-wide sample from row,
// samples packed MSB-first with no sample crossing a byte boundary for
// depths that divide evenly into 8 (1, 2, 4, 8); 16-bit samples span two
// bytes, big-endian.
func readSample(row []byte, sampleIndex, bitDepth int) uint32 {
	if bitDepth == 16 {
		i := sampleIndex * 2
		return uint32(row[i])<<8 | uint32(row[i+1])
	}
	if bitDepth == 8 {
		return uint32(row[sampleIndex])
	}

	bitOffset := sampleIndex * bitDepth
	byteIndex := bitOffset / 8
	shift := 8 - bitDepth - (bitOffset % 8)
	mask := byte((1 << bitDepth) - 1)
	return uint32((row[byteIndex] >> shift) & mask)
}

func scaleSample(v, maxSample uint32) byte {
	if maxSample == 0 {
		return 0
	}
	return byte(v * 255 / maxSample)
}
