// Package codec is a from-scratch binary-format decoding core: DEFLATE,
// zlib, gzip and Brotli decompression, and PNG/BMP/JPEG/TTF decoding, all
// built on the bit-level and Huffman-coding primitives in this module's
// internal packages.
//
// Subpackages import this root package only for shared pieces (the Texture
// type, the error taxonomy, MaxImageDimension, Logger and RegisterFormat),
// and this package never imports them back; the raster decoders register
// themselves with RegisterFormat from init, so callers wire one in with a
// blank import, the same pattern the standard library's image package uses
// for image/png, image/jpeg, and so on.
package codec

// Texture is a decoded raster image: a width x height array of 8-bit RGBA
// pixels stored row-major, top-down (row 0 is the top row), four bytes per
// pixel.
type Texture struct {
	Width  int
	Height int
	Pixels []byte

	// Chromaticities holds the PNG cHRM chunk's white point and primary
	// chromaticities, when the source declared one. Nil otherwise.
	Chromaticities *Chromaticities
}

// Chromaticities is the CIE xy chromaticity pair set carried by a PNG cHRM
// chunk, each component scaled by the PNG spec's fixed 100000.
type Chromaticities struct {
	WhiteX, WhiteY uint32
	RedX, RedY     uint32
	GreenX, GreenY uint32
	BlueX, BlueY   uint32
}

// NewTexture allocates a zeroed Texture of the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]byte, width*height*4),
	}
}

// At returns the RGBA channel values at (x, y).
func (t *Texture) At(x, y int) (r, g, b, a uint8) {
	i := (y*t.Width + x) * 4
	return t.Pixels[i], t.Pixels[i+1], t.Pixels[i+2], t.Pixels[i+3]
}

// Set writes the RGBA channel values at (x, y).
func (t *Texture) Set(x, y int, r, g, b, a uint8) {
	i := (y*t.Width + x) * 4
	t.Pixels[i], t.Pixels[i+1], t.Pixels[i+2], t.Pixels[i+3] = r, g, b, a
}
