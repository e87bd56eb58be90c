package pipeline

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/greut/resizer/codec"
	"github.com/mitchellh/mapstructure"
)

var (
	positiveRe     = regexp.MustCompile(`^[1-9]\d*$`)
	qualityRe      = regexp.MustCompile(`^[0-9]{1,3}$`)
	dimsRe         = regexp.MustCompile(`^\d+(px)?,\d+(px)?$`)
	cropStrategyRe = regexp.MustCompile(`^(smart|entropy|attention)$`)
	gravityRe      = regexp.MustCompile(`^(north|northeast|east|southeast|south|southwest|west|northwest|center)$`)
	cropRe         = regexp.MustCompile(`^\d+(px|%)?(,\d+(px|%)?){3}$`)
	zoomRe         = regexp.MustCompile(`^\d+(\.\d+)?$`)
	webpRe         = regexp.MustCompile(`^(0|1|true|false)$`)
	backgroundRe   = regexp.MustCompile(`^#[0-9a-f]{3}([0-9a-f]{3})?$`)
)

// query is the raw string record of the recognized parameters.
type query struct {
	W            string `mapstructure:"w"`
	H            string `mapstructure:"h"`
	Quality      string `mapstructure:"quality"`
	Resize       string `mapstructure:"resize"`
	CropStrategy string `mapstructure:"crop_strategy"`
	Gravity      string `mapstructure:"gravity"`
	Fit          string `mapstructure:"fit"`
	Crop         string `mapstructure:"crop"`
	Zoom         string `mapstructure:"zoom"`
	Webp         string `mapstructure:"webp"`
	Lb           string `mapstructure:"lb"`
	Background   string `mapstructure:"background"`
}

// decodeQuery splits raw into the recognized parameters and the sorted names
// of the unused ones.
func decodeQuery(raw RawParameters) (query, []string, error) {
	var q query
	var md mapstructure.Metadata

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata: &md,
		Result:   &q,
	})
	if err != nil {
		return q, nil, err
	}

	if err := decoder.Decode(map[string]string(raw)); err != nil {
		return q, nil, err
	}

	sort.Strings(md.Unused)
	return q, md.Unused, nil
}

// Validate checks every recognized parameter on its own. A parameter failing
// its check is dropped and reported as a Warning; the other ones are kept.
// Empty values are ignored.
func Validate(raw RawParameters) (ValidatedOptions, []Warning) {
	opts := ValidatedOptions{Zoom: 1}
	var warnings []Warning

	q, _, err := decodeQuery(raw)
	if err != nil {
		// Nothing can be trusted, every parameter is dropped.
		for _, name := range sortedNames(raw) {
			if raw[name] != "" {
				warnings = append(warnings, Warning{Field: name, Value: raw[name]})
			}
		}
		return opts, warnings
	}

	check := func(field, value string, ok bool) bool {
		if value == "" {
			return false
		}
		if !ok {
			warnings = append(warnings, Warning{Field: field, Value: value})
		}
		return ok
	}

	if w, err := strconv.Atoi(q.W); check("w", q.W, positiveRe.MatchString(q.W) && err == nil) {
		opts.Width = w
	}

	if h, err := strconv.Atoi(q.H); check("h", q.H, positiveRe.MatchString(q.H) && err == nil) {
		opts.Height = h
	}

	if q.Quality != "" {
		v, err := strconv.Atoi(q.Quality)
		if check("quality", q.Quality, qualityRe.MatchString(q.Quality) && err == nil && v >= 0 && v <= 100) {
			opts.Quality = &v
		}
	}

	if check("resize", q.Resize, validDims(q.Resize)) {
		opts.Resize = mustDims(q.Resize)
	}

	if check("crop_strategy", q.CropStrategy, cropStrategyRe.MatchString(q.CropStrategy)) {
		opts.CropStrategy = CropStrategy(q.CropStrategy)
	}

	if check("gravity", q.Gravity, gravityRe.MatchString(q.Gravity)) {
		opts.Gravity = gravity(q.Gravity)
	}

	if check("fit", q.Fit, validDims(q.Fit)) {
		opts.Fit = mustDims(q.Fit)
	}

	if q.Crop != "" {
		box, err := ParseCrop(q.Crop)
		if check("crop", q.Crop, cropRe.MatchString(q.Crop) && err == nil) {
			opts.Crop = &box
		}
	}

	if check("zoom", q.Zoom, zoomRe.MatchString(q.Zoom)) {
		if z, err := strconv.ParseFloat(q.Zoom, 64); err == nil && z > 0 {
			opts.Zoom = z
		}
	}

	if check("webp", q.Webp, webpRe.MatchString(q.Webp)) {
		opts.UseWebp = q.Webp == "1" || q.Webp == "true"
	}

	if check("lb", q.Lb, validDims(q.Lb)) {
		opts.Letterbox = mustDims(q.Lb)
	}

	if check("background", q.Background, backgroundRe.MatchString(q.Background)) {
		opts.Background = q.Background
	}

	return opts, warnings
}

func validDims(s string) bool {
	if !dimsRe.MatchString(s) {
		return false
	}
	_, err := ParseDims(s)
	return err == nil
}

// mustDims parses a value that passed validDims.
func mustDims(s string) *Dims {
	d, err := ParseDims(s)
	if err != nil {
		return nil
	}
	return &d
}

func gravity(s string) codec.Position {
	if s == "center" {
		return codec.PositionCentre
	}
	return codec.Position(s)
}

// Unrecognized returns the sorted names of the parameters Validate ignores.
func Unrecognized(raw RawParameters) []string {
	_, unused, err := decodeQuery(raw)
	if err != nil {
		return sortedNames(raw)
	}
	return unused
}

func sortedNames(raw RawParameters) []string {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
