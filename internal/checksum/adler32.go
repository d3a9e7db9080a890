package checksum

// adler32Mod is the modulus defined by RFC 1950 §8, the largest prime
// smaller than 2^16.
const adler32Mod = 65521

// Adler32 computes the Adler-32 checksum used by zlib streams (RFC 1950).
func Adler32(data []byte) uint32 {
	var a, b uint32 = 1, 0
	// Process in chunks small enough that a and b cannot overflow uint32
	// before the next modulo reduction (5552 is the standard bound for
	// this checksum at 8-bit input).
	const nmax = 5552
	for len(data) > 0 {
		n := len(data)
		if n > nmax {
			n = nmax
		}
		for _, c := range data[:n] {
			a += uint32(c)
			b += a
		}
		a %= adler32Mod
		b %= adler32Mod
		data = data[n:]
	}
	return b<<16 | a
}
