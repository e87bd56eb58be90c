// Package smartcrop proposes the most salient region of an image for a given
// aspect ratio.
package smartcrop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // decoder
	_ "image/jpeg" // decoder
	_ "image/png"  // decoder

	"github.com/greut/resizer/codec"
	"github.com/muesli/smartcrop"
	"github.com/muesli/smartcrop/options"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // decoder
)

// Finder returns the salient region of buf for a width x height target, or nil
// when it has no suggestion.
type Finder interface {
	Find(ctx context.Context, buf []byte, width, height int) (*codec.Rect, error)
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(ctx context.Context, buf []byte, width, height int) (*codec.Rect, error)

// Find implements Finder.
func (f FinderFunc) Find(ctx context.Context, buf []byte, width, height int) (*codec.Rect, error) {
	return f(ctx, buf, width, height)
}

type nfntResizer struct {
	interp resize.InterpolationFunction
}

func (r nfntResizer) Resize(img image.Image, width, height uint) image.Image {
	return resize.Resize(width, height, img, r.interp)
}

// Analyzer implements Finder over muesli/smartcrop.
type Analyzer struct {
	analyzer smartcrop.Analyzer
}

// New returns an Analyzer scaling its working copy with a bilinear filter.
func New() *Analyzer {
	var r options.Resizer = nfntResizer{interp: resize.Bilinear}
	return &Analyzer{analyzer: smartcrop.NewAnalyzer(r)}
}

// Find implements Finder.
func (a *Analyzer) Find(ctx context.Context, buf []byte, width, height int) (*codec.Rect, error) {
	if width <= 0 || height <= 0 {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("smartcrop: %w", err)
	}

	crop, err := a.analyzer.FindBestCrop(img, width, height)
	if errors.Is(err, smartcrop.ErrInvalidDimensions) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("smartcrop: %w", err)
	}

	b := img.Bounds()
	crop = crop.Intersect(b)
	if crop.Empty() {
		return nil, nil
	}

	return &codec.Rect{
		Left:   crop.Min.X - b.Min.X,
		Top:    crop.Min.Y - b.Min.Y,
		Width:  crop.Dx(),
		Height: crop.Dy(),
	}, nil
}
