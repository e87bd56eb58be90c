package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/greut/resizer/codec"
)

// round is half away from zero for the positive values used here.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// ParseDims reads "W,H" where each component may carry a px suffix.
func ParseDims(s string) (Dims, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Dims{}, fmt.Errorf("dimensions %#v: want two components", s)
	}

	var values [2]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSuffix(p, "px"))
		if err != nil || v < 0 {
			return Dims{}, fmt.Errorf("dimensions %#v: invalid component %#v", s, p)
		}
		values[i] = v
	}

	return Dims{Width: values[0], Height: values[1]}, nil
}

// ResolveDims applies the zoom to d. A zero component stays zero, "auto".
func ResolveDims(d Dims, zoom float64) (width, height int) {
	if zoom <= 0 {
		zoom = 1
	}
	return round(float64(d.Width) * zoom), round(float64(d.Height) * zoom)
}

// ParseCrop reads four comma separated components. "Npx" is in pixels, "N"
// and "N%" are percentages.
func ParseCrop(s string) (CropBox, error) {
	var box CropBox

	parts := strings.Split(s, ",")
	if len(parts) != len(box) {
		return box, fmt.Errorf("crop %#v: want four components", s)
	}

	for i, p := range parts {
		c := CropComponent{}
		switch {
		case strings.HasSuffix(p, "px"):
			c.Pixels = true
			p = strings.TrimSuffix(p, "px")
		case strings.HasSuffix(p, "%"):
			p = strings.TrimSuffix(p, "%")
		}

		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return box, fmt.Errorf("crop %#v: invalid component %#v", s, parts[i])
		}
		c.Value = v
		box[i] = c
	}

	return box, nil
}

// ResolveCrop converts the box to pixels. Percentages of the even components
// are of the source width, the odd ones of the source height.
func ResolveCrop(box CropBox, srcWidth, srcHeight int) codec.Rect {
	var px [4]int

	for i, c := range box {
		if c.Pixels {
			px[i] = c.Value
			continue
		}

		ref := srcWidth
		if i%2 == 1 {
			ref = srcHeight
		}
		px[i] = round(float64(ref) * float64(c.Value) / 100)
	}

	return codec.Rect{Left: px[0], Top: px[1], Width: px[2], Height: px[3]}
}
