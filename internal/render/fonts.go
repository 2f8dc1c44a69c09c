package render

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"layer-composer/internal/layer"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Fonts caches parsed font families and sized faces.
type Fonts struct {
	mu       sync.Mutex
	families map[string]*sfnt.Font
	faces    map[faceKey]font.Face
}

type faceKey struct {
	family string
	size   float64
}

// NewFonts creates a cache with the bundled Go fonts.
func NewFonts() *Fonts {
	return &Fonts{
		families: make(map[string]*sfnt.Font),
		faces:    make(map[faceKey]font.Face),
	}
}

// familyData maps a family name to bundled font data. Unknown families fall
// back to the proportional Go font.
func familyData(family string) (string, []byte) {
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "go mono", "monospace", "mono", "courier", "courier new":
		return "gomono", gomono.TTF
	default:
		return "goregular", goregular.TTF
	}
}

// Face returns a face for the family at the given pixel size.
func (f *Fonts) Face(family string, size float64) (font.Face, error) {
	name, data := familyData(family)
	key := faceKey{family: name, size: math.Round(size*4) / 4}

	f.mu.Lock()
	defer f.mu.Unlock()

	if face, ok := f.faces[key]; ok {
		return face, nil
	}

	parsed, ok := f.families[name]
	if !ok {
		var err error
		parsed, err = opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
		}
		f.families[name] = parsed
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    key.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face %s@%v: %w", name, key.size, err)
	}
	f.faces[key] = face
	return face, nil
}

// WrapText breaks text into lines no wider than width, honouring explicit
// newlines. Words longer than the box are kept on their own line.
func WrapText(face font.Face, text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if measure(face, candidate) <= width {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}
	return lines
}

func measure(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

// TextHeight returns the height a text layer occupies once wrapped into its
// box.
func (f *Fonts) TextHeight(l layer.Layer) (float64, error) {
	face, err := f.Face(l.FontFamily, l.FontSize)
	if err != nil {
		return 0, err
	}
	lines := WrapText(face, l.Text, l.BoxWidth)
	return float64(len(lines)) * l.FontSize * layer.LineHeight, nil
}
