package pipeline

import (
	"fmt"

	"github.com/greut/resizer/codec"
)

// Step is one operation of a Plan. The set of steps is closed.
type Step interface {
	fmt.Stringer
	isStep()
}

// AutoRotateStep applies the EXIF orientation.
type AutoRotateStep struct{}

// FlattenStep keeps the first frame of an animated source as a static image.
type FlattenStep struct{}

// CropStep extracts a fixed region.
type CropStep struct {
	Rect codec.Rect
}

// SmartCropStep extracts the most salient region for the aspect ratio of
// Width x Height, when the finder has a suggestion.
type SmartCropStep struct {
	Width  int
	Height int
}

// Mode is the resize parameter a ResizeStep comes from.
type Mode int

// Resize modes, in precedence order.
const (
	ModeResize Mode = iota
	ModeFit
	ModeLetterbox
	ModeDimensions
)

func (m Mode) String() string {
	switch m {
	case ModeResize:
		return "resize"
	case ModeFit:
		return "fit"
	case ModeLetterbox:
		return "lb"
	case ModeDimensions:
		return "wh"
	default:
		return fmt.Sprintf("UNKNOWN MODE %d", int(m))
	}
}

// ResizeStep resamples the image.
type ResizeStep struct {
	Mode   Mode
	Resize codec.Resize
}

// EncodeStep produces the output buffer.
type EncodeStep struct {
	Encode codec.Encode
}

func (AutoRotateStep) isStep() {}
func (FlattenStep) isStep()    {}
func (CropStep) isStep()       {}
func (SmartCropStep) isStep()  {}
func (ResizeStep) isStep()     {}
func (EncodeStep) isStep()     {}

func (AutoRotateStep) String() string { return "autorotate" }
func (FlattenStep) String() string    { return "flatten" }
func (s CropStep) String() string     { return fmt.Sprintf("crop %v", s.Rect) }
func (s SmartCropStep) String() string {
	return fmt.Sprintf("smartcrop %dx%d", s.Width, s.Height)
}
func (s ResizeStep) String() string {
	return fmt.Sprintf("%v %dx%d %v", s.Mode, s.Resize.Width, s.Resize.Height, s.Resize.Fit)
}
func (s EncodeStep) String() string {
	return fmt.Sprintf("encode %s q=%d", s.Encode.Format, s.Encode.Quality)
}

// Plan is the ordered list of operations for one source. It holds at most one
// crop, at most one resize and exactly one encode.
type Plan struct {
	Flatten   bool
	Crop      *CropStep
	SmartCrop *SmartCropStep
	Resize    *ResizeStep
	Encode    EncodeStep
}

// Steps returns the operations in execution order. The orientation is always
// corrected first.
func (p *Plan) Steps() []Step {
	steps := []Step{AutoRotateStep{}}

	if p.Flatten {
		steps = append(steps, FlattenStep{})
	}
	if p.Crop != nil {
		steps = append(steps, *p.Crop)
	}
	if p.SmartCrop != nil {
		steps = append(steps, *p.SmartCrop)
	}
	if p.Resize != nil {
		steps = append(steps, *p.Resize)
	}

	return append(steps, p.Encode)
}

// writable are the formats every codec backend can produce.
var writable = map[codec.Format]bool{
	codec.JPEG: true,
	codec.PNG:  true,
	codec.WEBP: true,
	codec.GIF:  true,
	codec.TIFF: true,
}

// NewPlan derives the operations from the options and the source metadata.
// The crop comes first; then the first of resize, fit, lb and w/h wins.
func NewPlan(opts ValidatedOptions, meta codec.Metadata) *Plan {
	zoom := opts.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	p := &Plan{
		Flatten: meta.Format.IsAnimated(),
	}

	if opts.Crop != nil {
		p.Crop = &CropStep{Rect: ResolveCrop(*opts.Crop, meta.Width, meta.Height)}
	}

	switch {
	case opts.Resize != nil:
		if opts.CropStrategy == StrategySmart && opts.Crop == nil &&
			opts.Resize.Width > 0 && opts.Resize.Height > 0 {
			p.SmartCrop = &SmartCropStep{Width: opts.Resize.Width, Height: opts.Resize.Height}
		}

		w, h := ResolveDims(*opts.Resize, zoom)
		p.Resize = &ResizeStep{
			Mode: ModeResize,
			Resize: codec.Resize{
				Width:    w,
				Height:   h,
				Fit:      codec.FitCover,
				Position: position(opts),
			},
		}

	case opts.Fit != nil:
		w, h := ResolveDims(*opts.Fit, zoom)
		p.Resize = &ResizeStep{
			Mode:   ModeFit,
			Resize: codec.Resize{Width: w, Height: h, Fit: codec.FitInside},
		}

	case opts.Letterbox != nil:
		w, h := ResolveDims(*opts.Letterbox, zoom)
		background, err := codec.ParseColor(opts.Background)
		if err != nil {
			background = codec.Black
		}
		p.Resize = &ResizeStep{
			Mode: ModeLetterbox,
			Resize: codec.Resize{
				Width:      w,
				Height:     h,
				Fit:        codec.FitLetterbox,
				Background: background,
			},
		}

	case opts.Width > 0 || opts.Height > 0:
		w, h := ResolveDims(Dims{Width: opts.Width, Height: opts.Height}, zoom)
		fit := codec.FitInside
		if p.Crop != nil {
			fit = codec.FitCover
		}
		p.Resize = &ResizeStep{
			Mode:   ModeDimensions,
			Resize: codec.Resize{Width: w, Height: h, Fit: fit},
		}
	}

	p.Encode = EncodeStep{Encode: encoding(opts, meta.Format, zoom)}
	return p
}

// position is the crop strategy unless it is smart, else the gravity, else
// the centre.
func position(opts ValidatedOptions) codec.Position {
	switch {
	case opts.CropStrategy != "" && opts.CropStrategy != StrategySmart:
		return codec.Position(opts.CropStrategy)
	case opts.Gravity != "":
		return opts.Gravity
	default:
		return codec.PositionCentre
	}
}

func encoding(opts ValidatedOptions, source codec.Format, zoom float64) codec.Encode {
	quality := ResolveQuality(opts.Quality, zoom)

	switch {
	case opts.UseWebp:
		return codec.Encode{Format: codec.WEBP, Quality: quality}
	case source.IsAnimated():
		return codec.Encode{Format: codec.PNG}
	case source.IsLossy():
		return codec.Encode{Format: source, Quality: quality}
	case !writable[source]:
		return codec.Encode{Format: codec.JPEG, Quality: quality}
	default:
		return codec.Encode{Format: source}
	}
}
