package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rect is an area in pixels.
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// In reports whether r fits in a width x height image.
func (r Rect) In(width, height int) bool {
	return r.Left >= 0 && r.Top >= 0 && r.Width > 0 && r.Height > 0 &&
		r.Left+r.Width <= width && r.Top+r.Height <= height
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.Left, r.Top)
}

// Fit is how an image is laid into the target box.
type Fit int

// Fit modes.
const (
	// FitInside scales the image to fit within the box.
	FitInside Fit = iota
	// FitCover scales the image to cover the box, cropping the overflow.
	FitCover
	// FitLetterbox fits the image within the box and pads the rest.
	FitLetterbox
)

func (f Fit) String() string {
	switch f {
	case FitInside:
		return "inside"
	case FitCover:
		return "cover"
	case FitLetterbox:
		return "letterbox"
	default:
		return fmt.Sprintf("UNKNOWN FIT %d", int(f))
	}
}

// Position anchors the cover crop.
type Position string

// Positions, the compass points plus the two saliency strategies.
const (
	PositionCentre    Position = "centre"
	PositionNorth     Position = "north"
	PositionNorthEast Position = "northeast"
	PositionEast      Position = "east"
	PositionSouthEast Position = "southeast"
	PositionSouth     Position = "south"
	PositionSouthWest Position = "southwest"
	PositionWest      Position = "west"
	PositionNorthWest Position = "northwest"
	PositionEntropy   Position = "entropy"
	PositionAttention Position = "attention"
)

// IsStrategy reports whether p asks the codec to find the region itself.
func (p Position) IsStrategy() bool {
	return p == PositionEntropy || p == PositionAttention
}

// Offset returns the top-left corner of a box placed in the free space dx, dy.
func (p Position) Offset(dx, dy int) (left, top int) {
	switch p {
	case PositionNorth:
		return dx / 2, 0
	case PositionNorthEast:
		return dx, 0
	case PositionEast:
		return dx, dy / 2
	case PositionSouthEast:
		return dx, dy
	case PositionSouth:
		return dx / 2, dy
	case PositionSouthWest:
		return 0, dy
	case PositionWest:
		return 0, dy / 2
	case PositionNorthWest:
		return 0, 0
	default:
		return dx / 2, dy / 2
	}
}

// Color is an opaque RGB colour.
type Color struct {
	R, G, B uint8
}

// Black is the letterbox default.
var Black = Color{}

// ParseColor reads "black", "#rgb" or "#rrggbb".
func ParseColor(s string) (Color, error) {
	if s == "" || s == "black" {
		return Black, nil
	}

	hex := strings.TrimPrefix(strings.ToLower(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Black, fmt.Errorf("invalid color %#v", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Black, fmt.Errorf("invalid color %#v: %w", s, err)
	}

	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Resize is a resampling request. A zero Width or Height is derived from the
// aspect ratio.
type Resize struct {
	Width      int
	Height     int
	Fit        Fit
	Position   Position
	Background Color
	Enlarge    bool
}

// Layout is the concrete geometry of a Resize against a given source size.
type Layout struct {
	// Width and Height of the resampled image.
	Width  int
	Height int
	// Crop is the area kept from the resampled image (cover).
	Crop *Rect
	// Canvas is the padded output size (letterbox); the image is pasted at Left, Top.
	Canvas *Rect
}

// Noop reports whether applying the layout leaves a w x h image untouched.
func (l Layout) Noop(w, h int) bool {
	return l.Width == w && l.Height == h && l.Crop == nil && l.Canvas == nil
}

// MaxDimension bounds every side of a resize output.
const MaxDimension = 16384

// ErrTooLarge is returned for a layout with a side above MaxDimension.
var ErrTooLarge = errors.New("output too large")

// Check rejects a layout with a side above MaxDimension.
func (l Layout) Check() error {
	w, h := l.Width, l.Height
	if l.Canvas != nil {
		w, h = l.Canvas.Width, l.Canvas.Height
	}
	if w > MaxDimension || h > MaxDimension {
		return fmt.Errorf("%w: %dx%d, the limit is %d", ErrTooLarge, w, h, MaxDimension)
	}
	return nil
}

// Layout computes the geometry of r for a srcW x srcH image.
func (r Resize) Layout(srcW, srcH int) Layout {
	if srcW <= 0 || srcH <= 0 {
		return Layout{Width: srcW, Height: srcH}
	}

	both := r.Width > 0 && r.Height > 0
	cover := r.Fit == FitCover && both

	scale := scaleFactor(srcW, srcH, r.Width, r.Height, cover)
	if !r.Enlarge && scale > 1 {
		scale = 1
	}

	l := Layout{
		Width:  scaled(srcW, scale),
		Height: scaled(srcH, scale),
	}

	switch {
	case cover:
		w := min(r.Width, l.Width)
		h := min(r.Height, l.Height)
		if w != l.Width || h != l.Height {
			left, top := r.Position.Offset(l.Width-w, l.Height-h)
			l.Crop = &Rect{Left: left, Top: top, Width: w, Height: h}
		}
	case r.Fit == FitLetterbox && both:
		if l.Width == r.Width && l.Height == r.Height {
			break
		}
		if !r.Enlarge && srcW <= r.Width && srcH <= r.Height {
			break
		}
		l.Canvas = &Rect{
			Left:   (r.Width - l.Width) / 2,
			Top:    (r.Height - l.Height) / 2,
			Width:  r.Width,
			Height: r.Height,
		}
	}

	return l
}

func scaleFactor(srcW, srcH, w, h int, cover bool) float64 {
	sx := float64(w) / float64(srcW)
	sy := float64(h) / float64(srcH)

	switch {
	case w <= 0 && h <= 0:
		return 1
	case w <= 0:
		return sy
	case h <= 0:
		return sx
	case cover:
		return math.Max(sx, sy)
	default:
		return math.Min(sx, sy)
	}
}

func scaled(v int, scale float64) int {
	s := int(math.Floor(float64(v)*scale + 0.5))
	if s < 1 {
		return 1
	}
	return s
}
