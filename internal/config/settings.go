// Package config holds the tunable editor settings and their defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Settings controls editor behaviour. The zero value is not useful; start
// from Default.
type Settings struct {
	// Snapping
	SnapThreshold float64 `json:"snap_threshold"` // Screen units, divided by zoom
	SameSizeDelta float64 `json:"same_size_delta"`
	GridEnabled   bool    `json:"grid_enabled"`
	GridSize      float64 `json:"grid_size"`

	// Geometry floors
	MinSize     float64 `json:"min_size"`
	MinFontSize float64 `json:"min_font_size"`

	// Background layer must be dragged this far before it moves
	BackgroundDragThreshold float64 `json:"background_drag_threshold"`

	// Offset applied to pasted and duplicated layers
	PasteOffset float64 `json:"paste_offset"`

	// Maximum undo entries; 0 keeps everything
	HistoryLimit int `json:"history_limit"`

	// Canvas used when no background image defines one
	CanvasWidth  float64 `json:"canvas_width"`
	CanvasHeight float64 `json:"canvas_height"`

	// Default slicing grid
	SliceRows int `json:"slice_rows"`
	SliceCols int `json:"slice_cols"`
}

// Default returns the stock settings.
func Default() Settings {
	return Settings{
		SnapThreshold:           5,
		SameSizeDelta:           2,
		GridSize:                20,
		MinSize:                 5,
		MinFontSize:             8,
		BackgroundDragThreshold: 10,
		PasteOffset:             10,
		CanvasWidth:             800,
		CanvasHeight:            600,
		SliceRows:               1,
		SliceCols:               1,
	}
}

// Validate checks the settings for values the editor cannot work with.
func (s Settings) Validate() error {
	switch {
	case s.SnapThreshold < 0:
		return fmt.Errorf("snap threshold must not be negative, got %v", s.SnapThreshold)
	case s.GridSize <= 0:
		return fmt.Errorf("grid size must be positive, got %v", s.GridSize)
	case s.MinSize <= 0:
		return fmt.Errorf("minimum size must be positive, got %v", s.MinSize)
	case s.MinFontSize <= 0:
		return fmt.Errorf("minimum font size must be positive, got %v", s.MinFontSize)
	case s.HistoryLimit < 0:
		return fmt.Errorf("history limit must not be negative, got %d", s.HistoryLimit)
	case s.CanvasWidth <= 0 || s.CanvasHeight <= 0:
		return fmt.Errorf("canvas must have a positive size, got %vx%v", s.CanvasWidth, s.CanvasHeight)
	case s.SliceRows < 1 || s.SliceCols < 1:
		return fmt.Errorf("slice grid must be at least 1x1, got %dx%d", s.SliceRows, s.SliceCols)
	}
	return nil
}

// Environment variables read by FromEnv.
const (
	EnvSnapThreshold = "COMPOSER_SNAP_THRESHOLD"
	EnvGridEnabled   = "COMPOSER_GRID"
	EnvGridSize      = "COMPOSER_GRID_SIZE"
	EnvHistoryLimit  = "COMPOSER_HISTORY_LIMIT"
	EnvCanvasWidth   = "COMPOSER_CANVAS_WIDTH"
	EnvCanvasHeight  = "COMPOSER_CANVAS_HEIGHT"
	EnvSliceRows     = "COMPOSER_SLICE_ROWS"
	EnvSliceCols     = "COMPOSER_SLICE_COLS"
)

// FromEnv returns base with any COMPOSER_* overrides applied. Malformed
// values are logged and ignored.
func FromEnv(base Settings) Settings {
	s := base
	envFloat(EnvSnapThreshold, &s.SnapThreshold)
	envBool(EnvGridEnabled, &s.GridEnabled)
	envFloat(EnvGridSize, &s.GridSize)
	envInt(EnvHistoryLimit, &s.HistoryLimit)
	envFloat(EnvCanvasWidth, &s.CanvasWidth)
	envFloat(EnvCanvasHeight, &s.CanvasHeight)
	envInt(EnvSliceRows, &s.SliceRows)
	envInt(EnvSliceCols, &s.SliceCols)
	return s
}

func envFloat(key string, dst *float64) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("ignoring malformed setting")
		return
	}
	*dst = f
}

func envInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("ignoring malformed setting")
		return
	}
	*dst = n
}

func envBool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("ignoring malformed setting")
		return
	}
	*dst = b
}
