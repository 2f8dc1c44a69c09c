// Package main provides the entry point for the Layer Composer desktop editor.
package main

import (
	"flag"
	"time"

	"layer-composer/internal/app"
	"layer-composer/internal/config"
	"layer-composer/internal/version"
	"layer-composer/ui/mainwindow"
	"layer-composer/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const appID = "io.layercomposer.editor"

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.Info("Starting " + version.String())

	appPrefs := prefs.Load()

	// Preferences seed the settings; the environment has the last word.
	base := config.Default()
	base.SliceRows = appPrefs.Int(prefs.KeySliceRows, base.SliceRows)
	base.SliceCols = appPrefs.Int(prefs.KeySliceCols, base.SliceCols)
	settings := config.FromEnv(base)

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.ComposerTheme{})

	session := app.NewSession(settings)

	watcher, err := app.NewSceneWatcher(500 * time.Millisecond)
	if err != nil {
		logrus.WithError(err).Warn("Scene watching disabled")
		watcher = nil
	}

	win := mainwindow.New(fyneApp, session, appPrefs, watcher)

	// Handle command line arguments
	scene := flag.Arg(0)
	if scene == "" {
		scene = win.LastScene()
	}
	if scene != "" {
		win.OpenScene(scene)
	}

	win.ShowAndRun()
}
