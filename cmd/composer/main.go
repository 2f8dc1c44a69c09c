// Command composer renders a saved scene to a composite PNG and an R x C
// set of slices with the HTML table that reassembles them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"layer-composer/internal/app"
	"layer-composer/internal/config"
	"layer-composer/internal/document"
	"layer-composer/internal/export"
	"layer-composer/internal/version"
	"layer-composer/ui/mainwindow"
	"layer-composer/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// compositeName is the whole-canvas PNG written next to the slices.
const compositeName = "composite.png"

type options struct {
	doc    string
	rows   int // 0 uses the scene's grid
	cols   int
	out    string
	inline bool
	prefix string
	strict bool
}

// errBroken is returned in strict mode when an image could not be loaded.
var errBroken = errors.New("scene has missing images")

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	var opts options
	flag.StringVar(&opts.doc, "doc", "", "Scene file to render (required)")
	flag.IntVar(&opts.rows, "rows", 0, "Slice rows (default: the scene's grid)")
	flag.IntVar(&opts.cols, "cols", 0, "Slice columns (default: the scene's grid)")
	flag.StringVar(&opts.out, "out", "out", "Output directory")
	flag.BoolVar(&opts.inline, "inline", false, "Inline tiles into the HTML as data URIs")
	flag.StringVar(&opts.prefix, "prefix", "", "URL prefix for tile sources, e.g. a CDN path")
	flag.BoolVar(&opts.strict, "strict", false, "Fail if any image cannot be loaded")
	preview := flag.Bool("preview", false, "Open the scene in the editor after exporting")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if opts.doc == "" {
		fmt.Fprintln(os.Stderr, "Usage: composer -doc scene.json [-rows R -cols C] [-out dir] [-inline] [-prefix url] [-preview]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := run(ctx, opts)
	if err != nil {
		logrus.WithError(err).Fatal("Export failed")
	}

	if *preview {
		a := fyneapp.New()
		a.Settings().SetTheme(&app.ComposerTheme{})
		win := mainwindow.New(a, session, prefs.Load(), nil)
		win.ShowAndRun()
	}
}

// run opens the scene, writes the composite and the slices, and returns
// the session for previewing.
func run(ctx context.Context, opts options) (*app.Session, error) {
	doc, err := document.Load(opts.doc)
	if err != nil {
		return nil, err
	}
	settings := config.Default()
	if doc.Settings != nil {
		settings = *doc.Settings
	}
	settings = config.FromEnv(settings)

	session := app.NewSession(settings)
	if err := session.OpenScene(ctx, opts.doc); err != nil {
		return nil, err
	}

	broken := 0
	for _, l := range session.Editor.Layers() {
		if l.Broken {
			broken++
			logrus.WithFields(logrus.Fields{
				"layer":  l.Name,
				"source": l.BitmapSource,
			}).Warn("Image could not be loaded")
		}
	}
	if broken > 0 && opts.strict {
		return nil, fmt.Errorf("%w: %d", errBroken, broken)
	}

	grid := session.Slices()
	if opts.rows > 0 {
		grid.Rows = opts.rows
	}
	if opts.cols > 0 {
		grid.Cols = opts.cols
	}
	if err := session.SetSlices(grid); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return nil, err
	}
	raw, err := session.Editor.Export(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(opts.out, compositeName), raw, 0o644); err != nil {
		return nil, err
	}

	source := export.FileSource
	switch {
	case opts.inline:
		source = export.DataURISource
	case opts.prefix != "":
		source = export.PrefixSource(opts.prefix)
	}
	set, err := session.Editor.Slice(ctx, grid, source)
	if err != nil {
		return nil, err
	}
	if err := export.WriteDir(set, opts.out, opts.inline); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"scene": opts.doc,
		"out":   opts.out,
		"grid":  fmt.Sprintf("%dx%d", grid.Rows, grid.Cols),
		"id":    set.ID,
	}).Info("Export complete")
	return session, nil
}
