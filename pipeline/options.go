package pipeline

import (
	"fmt"

	"github.com/greut/resizer/codec"
)

// RawParameters are the query parameters as received, one value per name.
type RawParameters map[string]string

// Dims is a two component dimension, before the zoom. A zero component means
// the axis is derived from the aspect ratio.
type Dims struct {
	Width  int
	Height int
}

// CropComponent is one value of a crop box, in pixels or in percent.
type CropComponent struct {
	Value  int
	Pixels bool
}

// CropBox is left, top, width, height.
type CropBox [4]CropComponent

// CropStrategy picks how the salient region of a resize is found.
type CropStrategy string

// Crop strategies.
const (
	StrategySmart     CropStrategy = "smart"
	StrategyEntropy   CropStrategy = "entropy"
	StrategyAttention CropStrategy = "attention"
)

// ValidatedOptions holds the parameters that passed validation. A zero value
// (or nil pointer) means the parameter was absent or invalid.
type ValidatedOptions struct {
	Width     int
	Height    int
	Quality   *int
	Resize    *Dims
	Fit       *Dims
	Letterbox *Dims
	Crop      *CropBox

	CropStrategy CropStrategy
	Gravity      codec.Position

	// Zoom is always set, 1 by default.
	Zoom       float64
	UseWebp    bool
	Background string
}

// Warning reports a dropped parameter.
type Warning struct {
	Field string
	Value string
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s arg is not valid", w.Field)
}
