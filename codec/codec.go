package codec

import "errors"

// ErrUnsupported is returned when a backend cannot read or write a format.
var ErrUnsupported = errors.New("unsupported image format")

// Metadata describes a decoded image. Width and Height are orientation corrected.
type Metadata struct {
	Width       int
	Height      int
	Orientation int
	Format      Format
}

// Encode is the final encoder request. Quality, in [0, 100], only applies to
// the lossy formats.
type Encode struct {
	Format  Format
	Quality int
}

// EncoderQuality is Quality clamped to [1, 100], the range libjpeg and libwebp
// accept. Both treat 0 as "unset".
func (e Encode) EncoderQuality() int {
	switch {
	case e.Quality < 1:
		return 1
	case e.Quality > 100:
		return 100
	}
	return e.Quality
}

// Codec opens source buffers.
type Codec interface {
	// Probe reads the metadata without running any transformation.
	Probe(buf []byte) (Metadata, error)
	// Decode returns a canvas the transformations are applied to.
	Decode(buf []byte) (Canvas, error)
}

// Canvas is the mutable state of one transformation. It is owned by a single
// request and is not safe for concurrent use.
type Canvas interface {
	// AutoRotate applies the EXIF orientation.
	AutoRotate() error
	// Flatten keeps the first frame as a static image.
	Flatten() error
	// Extract crops the current image to r.
	Extract(r Rect) error
	// Resize resamples the current image.
	Resize(r Resize) error
	// Snapshot returns the current image as an encoded buffer.
	Snapshot() ([]byte, error)
	// Encode produces the output buffer.
	Encode(e Encode) ([]byte, Metadata, error)
}
