// Package cache is a content-addressed decode cache for this module's
// raster and font decoders. A browser engine re-decodes the same embedded
// image or font every time it's referenced on a page; Decoder keys a
// TinyLFU admission cache by the xxhash-64 of the source bytes so repeat
// decodes of identical content are a cache hit instead of a full re-parse.
package cache

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"

	codec "github.com/fenwick-engine/codec"
)

// DecodeFunc decodes source bytes into a texture, matching the signature
// every format package in this module registers with codec.RegisterFormat.
type DecodeFunc func([]byte) (*codec.Texture, error)

type entry struct {
	tex    *codec.Texture
	format string
	err    error
}

// Decoder wraps a decode function with a content-addressed cache keyed by
// the xxhash-64 digest of the source bytes. It is safe for concurrent use:
// the underlying tinylfu.T handles its own locking.
type Decoder struct {
	decode func([]byte) (*codec.Texture, string, error)
	hits   *tinylfu.T[uint64, entry]
}

// New builds a Decoder around decode (typically codec.Decode), admitting
// up to capacity distinct source digests into the cache. Sample size
// follows elliotnunn-BeHierarchic's block-cache convention of 10x capacity.
func New(capacity int, decode func([]byte) (*codec.Texture, string, error)) *Decoder {
	return &Decoder{
		decode: decode,
		hits:   tinylfu.New[uint64, entry](capacity, capacity*10, hashKey),
	}
}

func hashKey(k uint64) uint64 { return k }

// Decode returns the cached texture for data's content if present, or
// decodes it via the wrapped decode function and stores the result
// (including a decode failure, so a persistently malformed input doesn't
// re-pay the full parse cost on every call).
func (d *Decoder) Decode(data []byte) (*codec.Texture, string, error) {
	key := xxhash.Sum64(data)
	if e, ok := d.hits.Get(key); ok {
		return e.tex, e.format, e.err
	}
	tex, format, err := d.decode(data)
	d.hits.Add(key, entry{tex: tex, format: format, err: err})
	return tex, format, err
}
