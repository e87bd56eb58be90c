// Package native is a pure Go codec built on disintegration/imaging. It does not
// need libvips, which makes it handy for development and tests, but it cannot
// encode WebP.
package native

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // decoder
	_ "image/jpeg" // decoder
	_ "image/png"  // decoder

	"github.com/disintegration/imaging"
	"github.com/greut/resizer/codec"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // decoder
)

// Codec implements codec.Codec.
type Codec struct {
	// Filter is the resampling filter, Lanczos by default.
	Filter imaging.ResampleFilter
}

// New returns a codec using the Lanczos filter.
func New() *Codec {
	return &Codec{Filter: imaging.Lanczos}
}

// Probe implements codec.Codec.
func (c *Codec) Probe(buf []byte) (codec.Metadata, error) {
	format := codec.DetectFormat(buf)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if errors.Is(err, image.ErrFormat) {
		return codec.Metadata{}, fmt.Errorf("%w: %v", codec.ErrUnsupported, err)
	}
	if err != nil {
		return codec.Metadata{}, err
	}

	meta := codec.Metadata{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Orientation: orientation(buf),
		Format:      format,
	}

	// 5 to 8 swap the axes
	if meta.Orientation >= 5 && meta.Orientation <= 8 {
		meta.Width, meta.Height = meta.Height, meta.Width
	}

	return meta, nil
}

// Decode implements codec.Codec.
func (c *Codec) Decode(buf []byte) (codec.Canvas, error) {
	format := codec.DetectFormat(buf)

	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(false))
	if err != nil {
		return nil, err
	}

	filter := c.Filter
	if filter.Support == 0 {
		filter = imaging.Lanczos
	}

	return &canvas{
		img:         img,
		format:      format,
		orientation: orientation(buf),
		filter:      filter,
	}, nil
}

func orientation(buf []byte) int {
	x, err := exif.Decode(bytes.NewReader(buf))
	if err != nil {
		return 0
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}

	o, err := tag.Int(0)
	if err != nil {
		return 0
	}

	return o
}

type canvas struct {
	img         image.Image
	format      codec.Format
	orientation int
	filter      imaging.ResampleFilter
}

func (c *canvas) AutoRotate() error {
	switch c.orientation {
	case 2:
		c.img = imaging.FlipH(c.img)
	case 3:
		c.img = imaging.Rotate180(c.img)
	case 4:
		c.img = imaging.FlipV(c.img)
	case 5:
		c.img = imaging.Transpose(c.img)
	case 6:
		c.img = imaging.Rotate270(c.img)
	case 7:
		c.img = imaging.Transverse(c.img)
	case 8:
		c.img = imaging.Rotate90(c.img)
	}

	c.orientation = 1
	return nil
}

// Flatten is a no-op beyond the format: the standard decoders only return the
// first frame.
func (c *canvas) Flatten() error {
	c.format = codec.PNG
	return nil
}

func (c *canvas) Extract(r codec.Rect) error {
	b := c.img.Bounds()
	if !r.In(b.Dx(), b.Dy()) {
		return fmt.Errorf("extract area %v is out of the %dx%d image", r, b.Dx(), b.Dy())
	}

	c.img = imaging.Crop(c.img, image.Rect(
		b.Min.X+r.Left,
		b.Min.Y+r.Top,
		b.Min.X+r.Left+r.Width,
		b.Min.Y+r.Top+r.Height,
	))
	return nil
}

func (c *canvas) Resize(r codec.Resize) error {
	b := c.img.Bounds()
	l := r.Layout(b.Dx(), b.Dy())
	if err := l.Check(); err != nil {
		return err
	}

	if l.Noop(b.Dx(), b.Dy()) {
		return nil
	}

	img := c.img
	if l.Width != b.Dx() || l.Height != b.Dy() {
		img = imaging.Resize(img, l.Width, l.Height, c.filter)
	}

	if l.Crop != nil {
		img = imaging.Crop(img, image.Rect(
			l.Crop.Left,
			l.Crop.Top,
			l.Crop.Left+l.Crop.Width,
			l.Crop.Top+l.Crop.Height,
		))
	}

	if l.Canvas != nil {
		bg := imaging.New(l.Canvas.Width, l.Canvas.Height, rgba(r.Background))
		img = imaging.Paste(bg, img, image.Pt(l.Canvas.Left, l.Canvas.Top))
	}

	c.img = img
	return nil
}

func (c *canvas) Snapshot() ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, c.img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *canvas) Encode(e codec.Encode) ([]byte, codec.Metadata, error) {
	format := e.Format
	if format == codec.Unknown {
		format = c.format
	}

	var opts []imaging.EncodeOption
	var f imaging.Format

	switch format {
	case codec.JPEG:
		f = imaging.JPEG
		opts = append(opts, imaging.JPEGQuality(e.EncoderQuality()))
	case codec.PNG:
		f = imaging.PNG
	case codec.GIF:
		f = imaging.GIF
	case codec.TIFF:
		f = imaging.TIFF
	default:
		return nil, codec.Metadata{}, fmt.Errorf("%w: cannot encode %#v", codec.ErrUnsupported, string(format))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, c.img, f, opts...); err != nil {
		return nil, codec.Metadata{}, err
	}

	b := c.img.Bounds()
	return buf.Bytes(), codec.Metadata{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
	}, nil
}

func rgba(c codec.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}
