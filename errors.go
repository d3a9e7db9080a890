package codec

import "errors"

// Shared error taxonomy. Each decoder package also defines its own
// narrower sentinels (e.g. png.ErrNonConsecutiveIdat) for failures specific
// to its format. The bmp, jpeg and png decoders wrap ErrUnsupportedFeature
// and ErrInvalidDimensions, so a caller deciding whether to retry or
// substitute a placeholder image can check those regardless of which of
// them produced the error. No decoder in this module wraps ErrMalformed;
// each reports malformed input through its own sentinels.
var (
	// ErrUnsupportedFeature marks a well-formed input that uses a feature
	// this decoder intentionally does not implement (e.g. interlaced PNG,
	// progressive JPEG). The zlib and ttf packages report their unsupported
	// features through their own ErrUnsupportedFeature sentinels instead.
	ErrUnsupportedFeature = errors.New("codec: unsupported feature")
	// ErrInvalidDimensions marks an image whose declared width or height
	// is zero or exceeds this module's size cap.
	ErrInvalidDimensions = errors.New("codec: invalid or oversized image dimensions")
	// ErrMalformed marks a structurally invalid input: a bad signature, a
	// truncated record, or a field that violates the format's own
	// invariants.
	ErrMalformed = errors.New("codec: malformed input")
)

// MaxImageDimension is the width/height cap enforced by the raster
// decoders, matching this module's memory budget.
const MaxImageDimension = 8096
