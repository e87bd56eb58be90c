// Package vips is the libvips codec, through bimg.
package vips

import (
	"errors"
	"fmt"

	"github.com/greut/resizer/codec"
	"gopkg.in/h2non/bimg.v1"
)

// Codec implements codec.Codec.
type Codec struct{}

// New returns the libvips codec.
func New() *Codec {
	return &Codec{}
}

// Probe implements codec.Codec.
func (c *Codec) Probe(buf []byte) (meta codec.Metadata, err error) {
	defer recoverVips(&err)

	imageType := bimg.DetermineImageType(buf)
	if !bimg.IsTypeSupported(imageType) {
		return meta, fmt.Errorf("%w: cannot read %#v", codec.ErrUnsupported, bimg.ImageTypeName(imageType))
	}

	m, err := bimg.Metadata(buf)
	if err != nil {
		return meta, err
	}

	meta = codec.Metadata{
		Width:       m.Size.Width,
		Height:      m.Size.Height,
		Orientation: m.Orientation,
		Format:      formatOf(imageType),
	}

	if meta.Orientation >= 5 && meta.Orientation <= 8 {
		meta.Width, meta.Height = meta.Height, meta.Width
	}

	return meta, nil
}

// Decode implements codec.Codec.
func (c *Codec) Decode(buf []byte) (codec.Canvas, error) {
	imageType := bimg.DetermineImageType(buf)
	if !bimg.IsTypeSupported(imageType) {
		return nil, fmt.Errorf("%w: cannot read %#v", codec.ErrUnsupported, bimg.ImageTypeName(imageType))
	}

	return &canvas{
		image:  bimg.NewImage(buf),
		format: formatOf(imageType),
	}, nil
}

func formatOf(t bimg.ImageType) codec.Format {
	switch t {
	case bimg.JPEG:
		return codec.JPEG
	case bimg.PNG:
		return codec.PNG
	case bimg.WEBP:
		return codec.WEBP
	case bimg.GIF:
		return codec.GIF
	case bimg.TIFF:
		return codec.TIFF
	}

	return codec.Format(bimg.ImageTypeName(t))
}

func typeOf(f codec.Format) (bimg.ImageType, error) {
	switch f {
	case codec.JPEG:
		return bimg.JPEG, nil
	case codec.PNG:
		return bimg.PNG, nil
	case codec.WEBP:
		return bimg.WEBP, nil
	case codec.GIF:
		return bimg.GIF, nil
	case codec.TIFF:
		return bimg.TIFF, nil
	}

	return bimg.UNKNOWN, fmt.Errorf("%w: cannot encode %#v", codec.ErrUnsupported, string(f))
}

// recoverVips turns a libvips panic into an error.
func recoverVips(err *error) {
	if r := recover(); r != nil {
		switch value := r.(type) {
		case error:
			*err = value
		case string:
			*err = errors.New(value)
		default:
			*err = errors.New("libvips internal error")
		}
	}
}

// canvas keeps the intermediate state as a lossless PNG buffer. Only the
// AutoRotate step lets libvips read the EXIF orientation.
type canvas struct {
	image  *bimg.Image
	format codec.Format
}

func (c *canvas) process(opts bimg.Options) (err error) {
	defer recoverVips(&err)

	if opts.Type == bimg.UNKNOWN {
		opts.Type = bimg.PNG
	}

	_, err = c.image.Process(opts)
	return err
}

func (c *canvas) AutoRotate() error {
	return c.process(bimg.Options{})
}

func (c *canvas) Flatten() error {
	if err := c.process(bimg.Options{NoAutoRotate: true}); err != nil {
		return err
	}
	c.format = codec.PNG
	return nil
}

func (c *canvas) size() (int, int, error) {
	size, err := c.image.Size()
	if err != nil {
		return 0, 0, err
	}
	return size.Width, size.Height, nil
}

func (c *canvas) Extract(r codec.Rect) (err error) {
	defer recoverVips(&err)

	w, h, err := c.size()
	if err != nil {
		return err
	}
	if !r.In(w, h) {
		return fmt.Errorf("extract area %v is out of the %dx%d image", r, w, h)
	}

	return c.process(bimg.Options{
		NoAutoRotate: true,
		Top:          r.Top,
		Left:         r.Left,
		AreaWidth:    r.Width,
		AreaHeight:   r.Height,
	})
}

func (c *canvas) Resize(r codec.Resize) error {
	w, h, err := c.size()
	if err != nil {
		return err
	}

	l := r.Layout(w, h)
	if err := l.Check(); err != nil {
		return err
	}
	if l.Noop(w, h) {
		return nil
	}

	// libvips finds the salient region itself.
	if l.Crop != nil && r.Position.IsStrategy() {
		if l.Width != w || l.Height != h {
			if err := c.process(bimg.Options{
				NoAutoRotate: true,
				Width:        l.Width,
				Height:       l.Height,
				Force:        true,
			}); err != nil {
				return err
			}
		}

		return c.process(bimg.Options{
			NoAutoRotate: true,
			Width:        l.Crop.Width,
			Height:       l.Crop.Height,
			Crop:         true,
			Gravity:      bimg.GravitySmart,
		})
	}

	if l.Width != w || l.Height != h {
		if err := c.process(bimg.Options{
			NoAutoRotate: true,
			Width:        l.Width,
			Height:       l.Height,
			Force:        true,
		}); err != nil {
			return err
		}
	}

	if l.Crop != nil {
		if err := c.Extract(*l.Crop); err != nil {
			return err
		}
	}

	if l.Canvas != nil {
		return c.process(bimg.Options{
			NoAutoRotate: true,
			Width:        l.Canvas.Width,
			Height:       l.Canvas.Height,
			Embed:        true,
			Extend:       bimg.ExtendBackground,
			Background:   bimg.Color{R: r.Background.R, G: r.Background.G, B: r.Background.B},
		})
	}

	return nil
}

func (c *canvas) Snapshot() ([]byte, error) {
	return c.image.Image(), nil
}

func (c *canvas) Encode(e codec.Encode) (buf []byte, meta codec.Metadata, err error) {
	defer recoverVips(&err)

	format := e.Format
	if format == codec.Unknown {
		format = c.format
	}

	t, err := typeOf(format)
	if err != nil {
		return nil, meta, err
	}

	if !bimg.IsTypeSupportedSave(t) {
		return nil, meta, fmt.Errorf("%w: cannot encode %#v", codec.ErrUnsupported, string(format))
	}

	opts := bimg.Options{
		NoAutoRotate: true,
		Type:         t,
	}
	if format.IsLossy() {
		opts.Quality = e.EncoderQuality()
	}

	buf, err = c.image.Process(opts)
	if err != nil {
		return nil, meta, err
	}

	size, err := bimg.Size(buf)
	if err != nil {
		return nil, meta, err
	}

	return buf, codec.Metadata{
		Width:  size.Width,
		Height: size.Height,
		Format: format,
	}, nil
}
