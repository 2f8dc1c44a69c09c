// Package colorutil provides shared color utilities for the composer.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Common colors used throughout the application.
var (
	Black        = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White        = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Transparent  = color.RGBA{}
	GuideMagenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	SliceCyan    = color.RGBA{R: 0, G: 200, B: 255, A: 255}
)

var named = map[string]color.RGBA{
	"black":       Black,
	"white":       White,
	"transparent": Transparent,
	"red":         {R: 255, A: 255},
	"green":       {G: 128, A: 255},
	"lime":        {G: 255, A: 255},
	"blue":        {B: 255, A: 255},
	"yellow":      {R: 255, G: 255, A: 255},
	"orange":      {R: 255, G: 165, A: 255},
	"purple":      {R: 128, B: 128, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
}

// Parse converts a CSS-style fill string into a color.
// Accepted forms: named colors, #rgb, #rrggbb and #rrggbbaa.
func Parse(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := named[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("unsupported color %q", s)
	}

	hex := s[1:]
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// ParseOr returns the parsed color, or fallback if s cannot be parsed.
func ParseOr(s string, fallback color.RGBA) color.RGBA {
	c, err := Parse(s)
	if err != nil {
		return fallback
	}
	return c
}

// Premultiply converts a straight-alpha RGBA (as written in CSS) into the
// premultiplied form image/color expects.
func Premultiply(c color.RGBA) color.RGBA {
	a := uint32(c.A)
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: c.A,
	}
}
