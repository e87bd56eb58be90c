package pipeline

import (
	"reflect"
	"testing"

	"github.com/greut/resizer/codec"
)

func intp(v int) *int { return &v }

func TestValidate(t *testing.T) {
	var tests = []struct {
		raw  RawParameters
		want ValidatedOptions
	}{
		{RawParameters{}, ValidatedOptions{Zoom: 1}},
		{RawParameters{"w": "100", "h": "50"}, ValidatedOptions{Width: 100, Height: 50, Zoom: 1}},
		{RawParameters{"quality": "0"}, ValidatedOptions{Quality: intp(0), Zoom: 1}},
		{RawParameters{"quality": "100"}, ValidatedOptions{Quality: intp(100), Zoom: 1}},
		{RawParameters{"resize": "100px,200"}, ValidatedOptions{Resize: &Dims{100, 200}, Zoom: 1}},
		{RawParameters{"fit": "0,200"}, ValidatedOptions{Fit: &Dims{0, 200}, Zoom: 1}},
		{RawParameters{"lb": "300,200", "background": "#fff"}, ValidatedOptions{Letterbox: &Dims{300, 200}, Background: "#fff", Zoom: 1}},
		{RawParameters{"crop_strategy": "attention", "gravity": "center"}, ValidatedOptions{CropStrategy: StrategyAttention, Gravity: codec.PositionCentre, Zoom: 1}},
		{RawParameters{"gravity": "southwest"}, ValidatedOptions{Gravity: codec.PositionSouthWest, Zoom: 1}},
		{RawParameters{"zoom": "1.5"}, ValidatedOptions{Zoom: 1.5}},
		{RawParameters{"zoom": "0"}, ValidatedOptions{Zoom: 1}},
		{RawParameters{"webp": "1"}, ValidatedOptions{UseWebp: true, Zoom: 1}},
		{RawParameters{"webp": "true"}, ValidatedOptions{UseWebp: true, Zoom: 1}},
		{RawParameters{"webp": "0"}, ValidatedOptions{Zoom: 1}},
		{RawParameters{"webp": "false"}, ValidatedOptions{Zoom: 1}},
		{RawParameters{"w": "", "crop": ""}, ValidatedOptions{Zoom: 1}},
		{RawParameters{"unknown": "x"}, ValidatedOptions{Zoom: 1}},
		{
			RawParameters{"crop": "10px,10px,50%,50"},
			ValidatedOptions{
				Crop: &CropBox{{10, true}, {10, true}, {50, false}, {50, false}},
				Zoom: 1,
			},
		},
	}

	for _, test := range tests {
		got, warnings := Validate(test.raw)
		if len(warnings) != 0 {
			t.Errorf("%v: unexpected warnings %v", test.raw, warnings)
		}
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("%v: got %#v want %#v", test.raw, got, test.want)
		}
	}
}

func TestValidateInvalid(t *testing.T) {
	var tests = []struct {
		field string
		value string
	}{
		{"w", "0"},
		{"w", "-1"},
		{"w", "10.5"},
		{"h", "abc"},
		{"quality", "101"},
		{"quality", "1000"},
		{"quality", "-5"},
		{"resize", "100"},
		{"resize", "100,200,300"},
		{"fit", "100x200"},
		{"lb", "100em,200"},
		{"crop", "1,2,3"},
		{"crop", "1,2,3,4em"},
		{"crop_strategy", "smartest"},
		{"gravity", "centre"},
		{"gravity", "up"},
		{"zoom", "2x"},
		{"zoom", ".5"},
		{"webp", "yes"},
		{"webp", "10"},
		{"background", "#FFF"},
		{"background", "red"},
		{"background", "#ffff"},
	}

	valid := RawParameters{"w": "10", "h": "20", "quality": "50", "resize": "1,2", "fit": "3,4",
		"lb": "5,6", "crop": "1,2,3,4", "crop_strategy": "smart", "gravity": "north",
		"zoom": "2", "webp": "1", "background": "#000"}

	for _, test := range tests {
		raw := RawParameters{}
		for k, v := range valid {
			raw[k] = v
		}
		raw[test.field] = test.value

		got, warnings := Validate(raw)
		if len(warnings) != 1 {
			t.Errorf("%s=%#v: got %d warnings want 1", test.field, test.value, len(warnings))
			continue
		}
		if warnings[0].Field != test.field {
			t.Errorf("%s=%#v: got warning for %#v", test.field, test.value, warnings[0].Field)
		}

		// the other fields are still there
		expected, _ := Validate(valid)
		switch test.field {
		case "w":
			expected.Width = 0
		case "h":
			expected.Height = 0
		case "quality":
			expected.Quality = nil
		case "resize":
			expected.Resize = nil
		case "fit":
			expected.Fit = nil
		case "lb":
			expected.Letterbox = nil
		case "crop":
			expected.Crop = nil
		case "crop_strategy":
			expected.CropStrategy = ""
		case "gravity":
			expected.Gravity = ""
		case "zoom":
			expected.Zoom = 1
		case "webp":
			expected.UseWebp = false
		case "background":
			expected.Background = ""
		}

		if !reflect.DeepEqual(got, expected) {
			t.Errorf("%s=%#v: got %#v want %#v", test.field, test.value, got, expected)
		}
	}
}

func TestWarning(t *testing.T) {
	_, warnings := Validate(RawParameters{"w": "x", "h": "y"})
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings want 2", len(warnings))
	}
	if warnings[0].Error() != "w arg is not valid" {
		t.Errorf("got %#v", warnings[0].Error())
	}
	if warnings[1].Field != "h" || warnings[1].Value != "y" {
		t.Errorf("got %#v", warnings[1])
	}
}

func TestUnrecognized(t *testing.T) {
	var tests = []struct {
		raw  RawParameters
		want []string
	}{
		{RawParameters{"w": "1", "foo": "bar"}, []string{"foo"}},
		{RawParameters{"zz": "1", "w": "1", "aa": "", "mm": "x"}, []string{"aa", "mm", "zz"}},
		{RawParameters{"w": "1", "crop_strategy": "smart"}, nil},
	}

	for _, test := range tests {
		got := Unrecognized(test.raw)
		if len(got) == 0 && len(test.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("%v: got %#v want %#v", test.raw, got, test.want)
		}
	}
}

func TestDecodeQuery(t *testing.T) {
	q, unused, err := decodeQuery(RawParameters{
		"w":       "10",
		"quality": "0",
		"lb":      "5,5",
		"other":   "1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if q.W != "10" || q.Quality != "0" || q.Lb != "5,5" || q.H != "" {
		t.Errorf("got %#v", q)
	}
	if !reflect.DeepEqual(unused, []string{"other"}) {
		t.Errorf("got %#v", unused)
	}
}
