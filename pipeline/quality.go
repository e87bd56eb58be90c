package pipeline

import "math"

// DefaultQuality is the baseline at zoom 1.
const DefaultQuality = 82

// ZoomQuality lowers the baseline quality as the zoom grows, on a logarithmic
// curve. The result is within [round(baseline/zoom), baseline].
//
//	baseline = 100, zoom = 2   -> 65
//	baseline = 80,  zoom = 2   -> 50
//	baseline = 100, zoom = 1.5 -> 86
//	baseline = 80,  zoom = 1.5 -> 68
func ZoomQuality(baseline int, zoom float64) int {
	if zoom <= 0 {
		zoom = 1
	}

	b := float64(baseline)
	value := math.Floor(b - (math.Log(zoom)/math.Log(b/zoom))*(b*zoom) + 0.5)
	low := math.Floor(b/zoom + 0.5)

	return int(math.Min(math.Max(value, low), b))
}

// ResolveQuality returns the explicit quality clamped to [0, 100], or the zoom
// adjusted default.
func ResolveQuality(explicit *int, zoom float64) int {
	if explicit == nil {
		return ZoomQuality(DefaultQuality, zoom)
	}

	q := *explicit
	switch {
	case q < 0:
		return 0
	case q > 100:
		return 100
	}
	return q
}
