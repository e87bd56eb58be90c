package compress

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Optimizer re-encodes a PNG in-process. Images with at most 256 distinct
// colours are stored as a palette, which is lossless; the others are only
// re-encoded at the best compression level.
type Optimizer struct{}

// Compress implements Compressor.
func (o *Optimizer) Compress(ctx context.Context, buf []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}

	if p, ok := paletted(img); ok {
		img = p
	}

	var out bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}

	return smallest(buf, out.Bytes()), nil
}

// paletted returns img as an image.Paletted when it fits in 256 colours. The
// palette is in scan order so the output is stable.
func paletted(img image.Image) (*image.Paletted, bool) {
	if p, ok := img.(*image.Paletted); ok {
		return p, true
	}

	b := img.Bounds()
	index := make(map[color.NRGBA]uint8, 256)
	palette := make(color.Palette, 0, 256)
	pixels := make([]uint8, 0, b.Dx()*b.Dy())

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i, ok := index[c]
			if !ok {
				if len(palette) == 256 {
					return nil, false
				}
				i = uint8(len(palette))
				index[c] = i
				palette = append(palette, c)
			}
			pixels = append(pixels, i)
		}
	}

	p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette)
	copy(p.Pix, pixels)
	return p, true
}
