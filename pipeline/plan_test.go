package pipeline

import (
	"reflect"
	"testing"

	"github.com/greut/resizer/codec"
)

func plan(t *testing.T, raw RawParameters, meta codec.Metadata) *Plan {
	t.Helper()

	opts, warnings := Validate(raw)
	if len(warnings) != 0 {
		t.Fatalf("%v: unexpected warnings %v", raw, warnings)
	}
	return NewPlan(opts, meta)
}

var jpeg200x100 = codec.Metadata{Width: 200, Height: 100, Format: codec.JPEG}

func TestPlanSteps(t *testing.T) {
	var tests = []struct {
		raw   RawParameters
		meta  codec.Metadata
		steps []Step
	}{
		{
			RawParameters{},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
		{
			RawParameters{"crop": "10px,10px,50%,50%", "resize": "50,50"},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				CropStep{codec.Rect{Left: 10, Top: 10, Width: 100, Height: 50}},
				ResizeStep{ModeResize, codec.Resize{Width: 50, Height: 50, Fit: codec.FitCover, Position: codec.PositionCentre}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
		{
			// a 200x100 sensor image tagged "rotate 90 CW" is 100x200 upright
			RawParameters{"crop": "50%,50%,50%,50%"},
			codec.Metadata{Width: 100, Height: 200, Orientation: 6, Format: codec.JPEG},
			[]Step{
				AutoRotateStep{},
				CropStep{codec.Rect{Left: 50, Top: 100, Width: 50, Height: 100}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
		{
			RawParameters{"resize": "100,50", "crop_strategy": "smart", "zoom": "2"},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				SmartCropStep{Width: 100, Height: 50},
				ResizeStep{ModeResize, codec.Resize{Width: 200, Height: 100, Fit: codec.FitCover, Position: codec.PositionCentre}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 51}},
			},
		},
		{
			RawParameters{"resize": "100,0", "crop_strategy": "smart"},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				ResizeStep{ModeResize, codec.Resize{Width: 100, Fit: codec.FitCover, Position: codec.PositionCentre}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
		{
			RawParameters{"resize": "100,100", "crop_strategy": "smart", "crop": "0,0,50,50"},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				CropStep{codec.Rect{Width: 100, Height: 50}},
				ResizeStep{ModeResize, codec.Resize{Width: 100, Height: 100, Fit: codec.FitCover, Position: codec.PositionCentre}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
		{
			RawParameters{"resize": "100,100", "crop_strategy": "entropy", "gravity": "north"},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				ResizeStep{ModeResize, codec.Resize{Width: 100, Height: 100, Fit: codec.FitCover, Position: codec.PositionEntropy}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
		{
			RawParameters{"resize": "100,100", "gravity": "north"},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				ResizeStep{ModeResize, codec.Resize{Width: 100, Height: 100, Fit: codec.FitCover, Position: codec.PositionNorth}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
		{
			RawParameters{"fit": "100,100", "lb": "50,50", "w": "10"},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				ResizeStep{ModeFit, codec.Resize{Width: 100, Height: 100, Fit: codec.FitInside}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
		{
			RawParameters{"lb": "50,50", "w": "10"},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				ResizeStep{ModeLetterbox, codec.Resize{Width: 50, Height: 50, Fit: codec.FitLetterbox, Background: codec.Black}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
		{
			RawParameters{"lb": "50,50", "background": "#ff0000"},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				ResizeStep{ModeLetterbox, codec.Resize{Width: 50, Height: 50, Fit: codec.FitLetterbox, Background: codec.Color{R: 255}}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
		{
			RawParameters{"w": "100", "zoom": "1.5"},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				ResizeStep{ModeDimensions, codec.Resize{Width: 150, Fit: codec.FitInside}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 70}},
			},
		},
		{
			RawParameters{"w": "50", "h": "50", "crop": "0,0,50,50"},
			jpeg200x100,
			[]Step{
				AutoRotateStep{},
				CropStep{codec.Rect{Width: 100, Height: 50}},
				ResizeStep{ModeDimensions, codec.Resize{Width: 50, Height: 50, Fit: codec.FitCover}},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
		{
			RawParameters{"w": "50", "quality": "40"},
			codec.Metadata{Width: 200, Height: 100, Format: codec.PNG},
			[]Step{
				AutoRotateStep{},
				ResizeStep{ModeDimensions, codec.Resize{Width: 50, Fit: codec.FitInside}},
				EncodeStep{codec.Encode{Format: codec.PNG}},
			},
		},
		{
			RawParameters{"webp": "1", "quality": "40"},
			codec.Metadata{Width: 200, Height: 100, Format: codec.PNG},
			[]Step{
				AutoRotateStep{},
				EncodeStep{codec.Encode{Format: codec.WEBP, Quality: 40}},
			},
		},
		{
			RawParameters{"w": "50"},
			codec.Metadata{Width: 200, Height: 100, Format: codec.GIF},
			[]Step{
				AutoRotateStep{},
				FlattenStep{},
				ResizeStep{ModeDimensions, codec.Resize{Width: 50, Fit: codec.FitInside}},
				EncodeStep{codec.Encode{Format: codec.PNG}},
			},
		},
		{
			RawParameters{},
			codec.Metadata{Width: 200, Height: 100, Format: codec.HEIF},
			[]Step{
				AutoRotateStep{},
				EncodeStep{codec.Encode{Format: codec.JPEG, Quality: 82}},
			},
		},
	}

	for _, test := range tests {
		got := plan(t, test.raw, test.meta).Steps()
		if !reflect.DeepEqual(got, test.steps) {
			t.Errorf("%v: got %v want %v", test.raw, got, test.steps)
		}
	}
}

func TestPlanSingleResize(t *testing.T) {
	raw := RawParameters{
		"crop":   "0,0,50,50",
		"resize": "10,10",
		"fit":    "20,20",
		"lb":     "30,30",
		"w":      "40",
		"h":      "40",
	}

	steps := plan(t, raw, jpeg200x100).Steps()

	resizes := 0
	crop := -1
	resize := -1
	for i, s := range steps {
		switch s.(type) {
		case ResizeStep:
			resizes++
			resize = i
		case CropStep:
			crop = i
		}
	}

	if resizes != 1 {
		t.Errorf("got %d resize steps want 1", resizes)
	}
	if crop < 0 || crop > resize {
		t.Errorf("crop should come before the resize: %v", steps)
	}
	if _, ok := steps[len(steps)-1].(EncodeStep); !ok {
		t.Errorf("encode should come last: %v", steps)
	}
}
