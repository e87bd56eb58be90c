// Package codec holds the vocabulary shared by the pixel codec backends: formats,
// geometry, colours and the Codec/Canvas contract the pipeline drives.
package codec

import (
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
)

// Format is the short name of an image container, e.g. "jpeg".
type Format string

// Known formats.
const (
	Unknown Format = ""
	JPEG    Format = "jpeg"
	PNG     Format = "png"
	WEBP    Format = "webp"
	GIF     Format = "gif"
	TIFF    Format = "tiff"
	AVIF    Format = "avif"
	HEIF    Format = "heif"
)

// TypeAvif is not part of the filetype defaults.
var TypeAvif = types.NewType("avif", "image/avif")

func init() {
	filetype.AddMatcher(TypeAvif, func(data []byte) bool {
		if len(data) < 12 {
			return false
		}

		return data[4] == 'f' &&
			data[5] == 't' &&
			data[6] == 'y' &&
			data[7] == 'p' &&
			data[8] == 'a' &&
			data[9] == 'v' &&
			data[10] == 'i' &&
			(data[11] == 'f' || data[11] == 's')
	})
}

// MIME returns the content type of the format.
func (f Format) MIME() string {
	if f == Unknown {
		return "application/octet-stream"
	}
	return "image/" + string(f)
}

// IsLossy reports whether the encoder of f accepts a quality setting.
func (f Format) IsLossy() bool {
	return f == JPEG || f == WEBP
}

// IsPalette reports whether f belongs to the lossless raster family that the
// general purpose encoders compress poorly.
func (f Format) IsPalette() bool {
	return f == PNG
}

// IsAnimated reports whether only the first frame of f is kept.
func (f Format) IsAnimated() bool {
	return f == GIF
}

// DetectFormat sniffs the container from the magic bytes.
func DetectFormat(buf []byte) Format {
	t, err := filetype.Match(buf)
	if err != nil {
		return Unknown
	}

	switch t {
	case matchers.TypeJpeg:
		return JPEG
	case matchers.TypePng:
		return PNG
	case matchers.TypeWebp:
		return WEBP
	case matchers.TypeGif:
		return GIF
	case matchers.TypeTiff:
		return TIFF
	case matchers.TypeHeif:
		return HEIF
	case TypeAvif:
		return AVIF
	}

	return Unknown
}
