package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/greut/resizer/codec"
	"github.com/greut/resizer/codec/native"
	"github.com/greut/resizer/compress"
	"github.com/greut/resizer/pipeline"
	"github.com/greut/resizer/smartcrop"
)

func gradient(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 255 / width), uint8(y * 255 / height), 64, 255})
		}
	}
	return img
}

func pngFixture(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(width, height)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegFixture(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(width, height), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTransform(t *testing.T) {
	p := pipeline.New(native.New(), pipeline.WithFinder(smartcrop.New()))

	var tests = []struct {
		raw    pipeline.RawParameters
		width  int
		height int
	}{
		{pipeline.RawParameters{}, 200, 100},
		{pipeline.RawParameters{"w": "100"}, 100, 50},
		{pipeline.RawParameters{"w": "50", "zoom": "2"}, 100, 50},
		{pipeline.RawParameters{"w": "400"}, 200, 100},
		{pipeline.RawParameters{"resize": "50,50"}, 50, 50},
		{pipeline.RawParameters{"resize": "50,50", "crop_strategy": "smart"}, 50, 50},
		{pipeline.RawParameters{"fit": "50,50"}, 50, 25},
		{pipeline.RawParameters{"lb": "50,50", "background": "#fff"}, 50, 50},
		{pipeline.RawParameters{"crop": "10px,10px,50%,50%"}, 100, 50},
		{pipeline.RawParameters{"crop": "0,0,50,100", "w": "50", "h": "50"}, 50, 50},
	}

	src := jpegFixture(t, 200, 100)

	for _, test := range tests {
		result, warnings, err := p.Transform(context.Background(), test.raw, src)
		if err != nil {
			t.Errorf("%v: unexpected error %v", test.raw, err)
			continue
		}
		if len(warnings) != 0 {
			t.Errorf("%v: unexpected warnings %v", test.raw, warnings)
		}

		if result.Format != codec.JPEG {
			t.Errorf("%v: got format %v want jpeg", test.raw, result.Format)
		}

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(result.Buffer))
		if err != nil {
			t.Errorf("%v: output is not a jpeg: %v", test.raw, err)
			continue
		}
		if cfg.Width != test.width || cfg.Height != test.height {
			t.Errorf("%v: got %dx%d want %dx%d", test.raw, cfg.Width, cfg.Height, test.width, test.height)
		}
		if result.ByteSize != len(result.Buffer) {
			t.Errorf("%v: byte size %d for %d bytes", test.raw, result.ByteSize, len(result.Buffer))
		}
	}
}

func TestTransformIdempotent(t *testing.T) {
	p := pipeline.New(native.New())
	raw := pipeline.RawParameters{"resize": "60,40", "gravity": "east", "quality": "70"}
	src := jpegFixture(t, 200, 100)

	a, _, err := p.Transform(context.Background(), raw, src)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := p.Transform(context.Background(), raw, src)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(a.Buffer, b.Buffer) {
		t.Errorf("two runs gave different outputs")
	}
}

func TestTransformPNGByteSize(t *testing.T) {
	src := pngFixture(t, 64, 64)

	var raw int
	spy := compress.Func(func(ctx context.Context, buf []byte) ([]byte, error) {
		raw = len(buf)
		return (&compress.Optimizer{}).Compress(ctx, buf)
	})

	p := pipeline.New(native.New(), pipeline.WithCompressor(spy))
	result, _, err := p.Transform(context.Background(), pipeline.RawParameters{"w": "32"}, src)
	if err != nil {
		t.Fatal(err)
	}

	if result.Format != codec.PNG {
		t.Errorf("got format %v want png", result.Format)
	}
	if raw == 0 {
		t.Fatalf("the compressor was not called")
	}
	if result.ByteSize != len(result.Buffer) || result.ByteSize > raw {
		t.Errorf("got byte size %d, buffer %d, raw encode %d", result.ByteSize, len(result.Buffer), raw)
	}
}

func TestTransformWebpUnsupported(t *testing.T) {
	p := pipeline.New(native.New())
	_, _, err := p.Transform(context.Background(), pipeline.RawParameters{"webp": "1"}, jpegFixture(t, 10, 10))

	var te *pipeline.TransformError
	if !errors.As(err, &te) || !errors.Is(err, codec.ErrUnsupported) {
		t.Errorf("got %#v want an unsupported TransformError", err)
	}
}

func TestTransformCropOutOfBounds(t *testing.T) {
	p := pipeline.New(native.New())
	_, _, err := p.Transform(context.Background(), pipeline.RawParameters{"crop": "150px,0,100px,10px"}, jpegFixture(t, 200, 100))

	var te *pipeline.TransformError
	if !errors.As(err, &te) {
		t.Errorf("got %#v want a TransformError", err)
	}
}

func TestTransformGarbage(t *testing.T) {
	p := pipeline.New(native.New())
	_, _, err := p.Transform(context.Background(), pipeline.RawParameters{}, []byte("not an image"))

	var de *pipeline.DecodeError
	if !errors.As(err, &de) {
		t.Errorf("got %#v want a DecodeError", err)
	}
}

func TestTransformQualityZero(t *testing.T) {
	p := pipeline.New(native.New())
	src := jpegFixture(t, 128, 128)

	sizes := map[string]int{}
	for _, q := range []string{"0", "1", "95"} {
		result, warnings, err := p.Transform(context.Background(), pipeline.RawParameters{"quality": q}, src)
		if err != nil || len(warnings) != 0 {
			t.Fatalf("%s: got %v, %v", q, warnings, err)
		}
		sizes[q] = result.ByteSize
	}

	if sizes["0"] > sizes["1"] || sizes["0"] >= sizes["95"] {
		t.Errorf("got sizes %v, quality 0 should be the smallest", sizes)
	}
}

func TestTransformLetterboxTooLarge(t *testing.T) {
	p := pipeline.New(native.New())
	_, _, err := p.Transform(context.Background(), pipeline.RawParameters{"lb": "2000000000,1"}, jpegFixture(t, 200, 100))

	var te *pipeline.TransformError
	if !errors.As(err, &te) || !errors.Is(err, codec.ErrTooLarge) {
		t.Errorf("got %#v want a too large TransformError", err)
	}
}

func TestTransformOrientedCrop(t *testing.T) {
	p := pipeline.New(native.New())

	// 200x100 pixels tagged with orientation 6, 100x200 once upright
	src := jpegFixture(t, 200, 100)
	payload := []byte("Exif\x00\x00MM\x00\x2a\x00\x00\x00\x08\x00\x01\x01\x12\x00\x03\x00\x00\x00\x01\x00\x06\x00\x00\x00\x00\x00\x00")
	n := len(payload) + 2
	tagged := append([]byte{0xff, 0xd8, 0xff, 0xe1, byte(n >> 8), byte(n)}, payload...)
	tagged = append(tagged, src[2:]...)

	result, _, err := p.Transform(context.Background(), pipeline.RawParameters{"crop": "50%,50%,50%,50%"}, tagged)
	if err != nil {
		t.Fatal(err)
	}
	if result.Width != 50 || result.Height != 100 {
		t.Errorf("got %dx%d want 50x100", result.Width, result.Height)
	}
}
