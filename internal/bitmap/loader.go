// Package bitmap resolves serializable bitmap sources into decoded images.
package bitmap

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedURI is returned for sources the loader cannot resolve.
var ErrUnsupportedURI = errors.New("unsupported bitmap source")

// Loader turns a bitmap source URI into a decoded image.
type Loader interface {
	Load(ctx context.Context, uri string) (image.Image, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, uri string) (image.Image, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, uri string) (image.Image, error) {
	return f(ctx, uri)
}

// FileLoader resolves data: URIs, file:// URIs and plain paths. Relative
// paths are resolved against BaseDir. Decoded images are cached by URI so
// repeated undo/redo does not decode the same source twice; a file whose
// modification time changed is decoded again.
type FileLoader struct {
	BaseDir string

	mu    sync.Mutex
	cache map[string]cached
}

type cached struct {
	img     image.Image
	modTime time.Time
}

// NewFileLoader creates a loader rooted at baseDir.
func NewFileLoader(baseDir string) *FileLoader {
	return &FileLoader{BaseDir: baseDir, cache: make(map[string]cached)}
}

// Load implements Loader.
func (l *FileLoader) Load(ctx context.Context, uri string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var path string
	switch {
	case strings.HasPrefix(uri, "data:"):
	case strings.HasPrefix(uri, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", uri, err)
		}
		path = l.resolve(u.Path)
	case strings.Contains(uri, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURI, schemeOf(uri))
	case uri == "":
		return nil, fmt.Errorf("%w: empty source", ErrUnsupportedURI)
	default:
		path = l.resolve(uri)
	}

	var modTime time.Time
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		modTime = info.ModTime()
	}

	l.mu.Lock()
	if c, ok := l.cache[uri]; ok && c.modTime.Equal(modTime) {
		l.mu.Unlock()
		return c.img, nil
	}
	l.mu.Unlock()

	var (
		img image.Image
		err error
	)
	if path == "" {
		img, err = decodeDataURI(uri)
	} else {
		img, err = decodeFile(path)
	}
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if l.cache == nil {
		l.cache = make(map[string]cached)
	}
	l.cache[uri] = cached{img: img, modTime: modTime}
	l.mu.Unlock()
	return img, nil
}

func (l *FileLoader) resolve(path string) string {
	if !filepath.IsAbs(path) && l.BaseDir != "" {
		return filepath.Join(l.BaseDir, path)
	}
	return path
}

func decodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"path":   path,
		"format": format,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	}).Debug("Bitmap decoded")
	return img, nil
}

func schemeOf(uri string) string {
	if i := strings.Index(uri, "://"); i > 0 {
		return uri[:i]
	}
	return uri
}

// decodeDataURI decodes "data:<mime>;base64,<payload>".
func decodeDataURI(uri string) (image.Image, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: malformed data URI", ErrUnsupportedURI)
	}
	meta, payload := uri[len("data:"):comma], uri[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URI is not base64", ErrUnsupportedURI)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI payload: %w", err)
	}
	return Decode(raw)
}

// Decode decodes an image blob in any registered format.
func Decode(blob []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DataURI wraps an encoded image blob as a data URI, sniffing its type.
func DataURI(blob []byte) string {
	mime := "application/octet-stream"
	switch {
	case bytes.HasPrefix(blob, []byte("\x89PNG")):
		mime = "image/png"
	case bytes.HasPrefix(blob, []byte("\xff\xd8")):
		mime = "image/jpeg"
	case bytes.HasPrefix(blob, []byte("GIF8")):
		mime = "image/gif"
	case bytes.HasPrefix(blob, []byte("RIFF")) && len(blob) >= 12 && string(blob[8:12]) == "WEBP":
		mime = "image/webp"
	case bytes.HasPrefix(blob, []byte("BM")):
		mime = "image/bmp"
	case bytes.HasPrefix(blob, []byte("II*\x00")), bytes.HasPrefix(blob, []byte("MM\x00*")):
		mime = "image/tiff"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(blob)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
