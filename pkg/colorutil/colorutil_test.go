package colorutil

import (
	"image/color"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{in: "#f00", want: color.RGBA{R: 255, A: 255}},
		{in: "#1E88E5", want: color.RGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 255}},
		{in: "#00000080", want: color.RGBA{A: 0x80}},
		{in: " White ", want: White},
		{in: "transparent", want: Transparent},
		{in: "#12345", wantErr: true},
		{in: "#gggggg", wantErr: true},
		{in: "rgb(1,2,3)", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseOr(t *testing.T) {
	if got := ParseOr("nope", Black); got != Black {
		t.Errorf("ParseOr fallback = %+v", got)
	}
}

func TestPremultiply(t *testing.T) {
	got := Premultiply(color.RGBA{R: 255, G: 100, A: 128})
	if got.R != 128 || got.G != 50 || got.A != 128 {
		t.Errorf("Premultiply() = %+v", got)
	}
}
