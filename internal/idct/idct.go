// Package idct implements the 8x8 integer inverse discrete cosine transform
// used by baseline JPEG decoding, including dequantization.
//
// The constants and two-pass structure (columns, then rows) are the
// Loeffler-Ligtenberg-Moschytz factorization as popularized by stb_image's
// stbi__idct_block, with an AC-all-zero short circuit per column. Go's
// signed integer arithmetic already wraps on overflow (unlike Rust's debug
// builds), so the fixed-point intermediate values need no explicit
// wrapping wrapper type.
package idct

// ZigZag maps zig-zag scan order to row-major 8x8 index, used to place
// entropy-decoded JPEG coefficients into natural order before the IDCT.
var ZigZag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

func f2f(x float64) int32 {
	return int32(x*4096.0 + 0.5)
}

func fsh(x int32) int32 {
	return x << 12
}

func clamp(x int32) uint8 {
	switch {
	case x < 0:
		return 0
	case x > 255:
		return 255
	default:
		return uint8(x)
	}
}

// Inverse dequantizes coeffs (in natural, row-major order) against quant and
// writes the resulting 8x8 sample block into out, row-major.
func Inverse(coeffs *[64]int16, quant *[64]uint16, out *[64]uint8) {
	var tmp [64]int32

	for i := 0; i < 8; i++ {
		if coeffs[i+8] == 0 && coeffs[i+16] == 0 && coeffs[i+24] == 0 &&
			coeffs[i+32] == 0 && coeffs[i+40] == 0 && coeffs[i+48] == 0 && coeffs[i+56] == 0 {
			dc := dequantize(coeffs[i], quant[i]) << 2
			tmp[i] = dc
			tmp[i+8] = dc
			tmp[i+16] = dc
			tmp[i+24] = dc
			tmp[i+32] = dc
			tmp[i+40] = dc
			tmp[i+48] = dc
			tmp[i+56] = dc
			continue
		}

		s0 := dequantize(coeffs[i], quant[i])
		s1 := dequantize(coeffs[i+8], quant[i+8])
		s2 := dequantize(coeffs[i+16], quant[i+16])
		s3 := dequantize(coeffs[i+24], quant[i+24])
		s4 := dequantize(coeffs[i+32], quant[i+32])
		s5 := dequantize(coeffs[i+40], quant[i+40])
		s6 := dequantize(coeffs[i+48], quant[i+48])
		s7 := dequantize(coeffs[i+56], quant[i+56])

		x0, x1, x2, x3 := kernelX(s0, s2, s4, s6, 512)
		t0, t1, t2, t3 := kernelY(s1, s3, s5, s7)

		tmp[i] = (x0 + t3) >> 10
		tmp[i+8] = (x1 + t2) >> 10
		tmp[i+16] = (x2 + t1) >> 10
		tmp[i+24] = (x3 + t0) >> 10
		tmp[i+32] = (x3 - t0) >> 10
		tmp[i+40] = (x2 - t1) >> 10
		tmp[i+48] = (x1 - t2) >> 10
		tmp[i+56] = (x0 - t3) >> 10
	}

	// Constants scaled things up by 1<<12 in the column pass, plus 1<<2 from
	// the DC short circuit, plus 1<<3 total from the two sqrt(8) row/column
	// scale factors: 1<<17 to remove, rounded by adding half of that, plus
	// 128<<17 to re-bias the -128..127 range into 0..255 before the shift.
	const xScale int32 = 65536 + (128 << 17)

	for row := 0; row < 8; row++ {
		base := row * 8
		s0 := tmp[base]
		allZero := true
		for k := 1; k < 8; k++ {
			if tmp[base+k] != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			dc := clamp((fsh(s0) + xScale) >> 17)
			for k := 0; k < 8; k++ {
				out[base+k] = dc
			}
			continue
		}

		x0, x1, x2, x3 := kernelX(tmp[base], tmp[base+2], tmp[base+4], tmp[base+6], xScale)
		t0, t1, t2, t3 := kernelY(tmp[base+1], tmp[base+3], tmp[base+5], tmp[base+7])

		out[base+0] = clamp((x0 + t3) >> 17)
		out[base+1] = clamp((x1 + t2) >> 17)
		out[base+2] = clamp((x2 + t1) >> 17)
		out[base+3] = clamp((x3 + t0) >> 17)
		out[base+4] = clamp((x3 - t0) >> 17)
		out[base+5] = clamp((x2 - t1) >> 17)
		out[base+6] = clamp((x1 - t2) >> 17)
		out[base+7] = clamp((x0 - t3) >> 17)
	}
}

func dequantize(coeff int16, quant uint16) int32 {
	return int32(coeff) * int32(quant)
}

func kernelX(s0, s2, s4, s6, xScale int32) (x0, x1, x2, x3 int32) {
	p2 := s2
	p3 := s6
	p1 := (p2 + p3) * f2f(0.5411961)
	t2 := p1 + p3*f2f(-1.847759065)
	t3 := p1 + p2*f2f(0.765366865)

	t0 := fsh(s0 + s4)
	t1 := fsh(s0 - s4)

	x0 = t0 + t3 + xScale
	x3 = t0 - t3 + xScale
	x1 = t1 + t2 + xScale
	x2 = t1 - t2 + xScale
	return
}

func kernelY(s1, s3, s5, s7 int32) (t0, t1, t2, t3 int32) {
	p1 := s7 + s1
	p2 := s5 + s3
	p3 := s7 + s3
	p4 := s5 + s1
	p5 := (p3 + p4) * f2f(1.175875602)

	p1 = p5 + p1*f2f(-0.899976223)
	p2 = p5 + p2*f2f(-2.562915447)
	p3 = p3 * f2f(-1.961570560)
	p4 = p4 * f2f(-0.390180644)

	t0 = s7*f2f(0.298631336) + p1 + p3
	t1 = s5*f2f(2.053119869) + p2 + p4
	t2 = s3*f2f(3.072711026) + p2 + p3
	t3 = s1*f2f(1.501321110) + p1 + p4
	return
}
