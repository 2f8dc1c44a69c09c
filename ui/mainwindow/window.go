// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"layer-composer/internal/app"
	"layer-composer/internal/editor"
	"layer-composer/internal/export"
	"layer-composer/internal/layer"
	"layer-composer/internal/version"
	"layer-composer/pkg/geometry"
	"layer-composer/ui/canvas"
	"layer-composer/ui/panels"
	"layer-composer/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

const defaultFill = "#1e88e5"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	session   *app.Session
	ed        *editor.Editor
	prefs     *prefs.Prefs
	watcher   *app.SceneWatcher
	canvas    *canvas.EditorCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	zoomLabel *widget.Label

	// Editor work that may wait on bitmap loads runs here, one job at a
	// time in the order the user asked for it.
	tasks chan func()

	// Menu items that need state tracking
	fitToWindowItem *fyne.MenuItem
	gridItem        *fyne.MenuItem
}

// New creates a new main window. watcher may be nil.
func New(fyneApp fyne.App, session *app.Session, p *prefs.Prefs, watcher *app.SceneWatcher) *MainWindow {
	win := fyneApp.NewWindow("Layer Composer")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		ed:      session.Editor,
		prefs:   p,
		watcher: watcher,
		tasks:   make(chan func(), 64),
	}
	go mw.runTasks()

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()
	mw.updateTitle()

	w := float32(p.FloatWithFallback(prefs.KeyWindowWidth, 1200))
	h := float32(p.FloatWithFallback(prefs.KeyWindowHeight, 800))
	mw.Resize(fyne.NewSize(w, h))
	mw.SetCloseIntercept(mw.onClose)
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewEditorCanvas(mw.ed)

	mw.sidePanel = panels.NewSidePanel(mw.ed, mw.canvas)
	ep := mw.sidePanel.Export()
	ep.SetGrid(mw.session.Slices())
	ep.OnExportPNG(mw.onExportPNG)
	ep.OnExportSlices(mw.exportSlices)

	mw.statusBar = widget.NewLabel("Ready")
	mw.zoomLabel = widget.NewLabel("100%")
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
	})

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,               // top
		nil,                   // bottom
		nil,                   // left
		nil,                   // right
		mw.canvas.Container(), // center
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.28)

	content := container.NewBorder(
		nil, // top
		container.NewPadded(container.NewBorder(nil, nil, nil, mw.zoomLabel, mw.statusBar)), // bottom
		nil,   // left
		nil,   // right
		split, // center
	)

	mw.SetContent(content)
	mw.SetOnDropped(mw.onDropped)
}

// createToolbar creates the toolbar with insert and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	return container.NewHBox(
		widget.NewButton("Text", mw.onInsertText),
		widget.NewButton("Rect", func() { mw.ed.AddRectangle(defaultFill) }),
		widget.NewButton("Circle", func() { mw.ed.AddCircle(defaultFill) }),
		widget.NewButton("Image", mw.onAddImages),
		widget.NewSeparator(),
		widget.NewButton("Undo", mw.onUndo),
		widget.NewButton("Redo", mw.onRedo),
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.onZoomOut),
		widget.NewButton("+", mw.onZoomIn),
		widget.NewButton("Fit", mw.onToggleFitToWindow),
		widget.NewButton("1:1", mw.onActualSize),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Scene", mw.onNewScene),
		fyne.NewMenuItem("Open Scene...", mw.onOpenScene),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Background...", mw.onImportBackground),
		fyne.NewMenuItem("Add Images...", mw.onAddImages),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Scene", mw.onSaveScene),
		fyne.NewMenuItem("Save Scene As...", mw.onSaveSceneAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PNG...", mw.onExportPNG),
		fyne.NewMenuItem("Export Slices...", func() {
			mw.exportSlices(mw.sidePanel.Export().Grid(), mw.prefs.Bool(prefs.KeyInlineHTML, false))
		}),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Redo", mw.onRedo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Copy", func() { mw.queue(func() { mw.ed.Copy() }) }),
		fyne.NewMenuItem("Paste", func() { mw.queue(func() { mw.ed.Paste() }) }),
		fyne.NewMenuItem("Duplicate", func() { mw.queue(func() { mw.ed.Duplicate() }) }),
		fyne.NewMenuItem("Delete", func() { mw.queue(func() { mw.ed.DeleteSelected() }) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Bring to Front", func() { mw.forSelected(mw.ed.BringToFront) }),
		fyne.NewMenuItem("Send to Back", func() { mw.forSelected(mw.ed.SendToBack) }),
	)

	insertMenu := fyne.NewMenu("Insert",
		fyne.NewMenuItem("Text...", mw.onInsertText),
		fyne.NewMenuItem("Rectangle", func() { mw.ed.AddRectangle(defaultFill) }),
		fyne.NewMenuItem("Circle", func() { mw.ed.AddCircle(defaultFill) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Embedded Image...", mw.onEmbedImage),
	)

	mw.fitToWindowItem = fyne.NewMenuItem("Fit to Window", mw.onToggleFitToWindow)
	mw.gridItem = fyne.NewMenuItem("Snap to Grid", mw.onToggleGrid)
	mw.gridItem.Checked = mw.ed.Settings().GridEnabled

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
		fyne.NewMenuItemSeparator(),
		mw.gridItem,
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, insertMenu, viewMenu, helpMenu))
}

// setupShortcuts routes keyboard input to the editor.
func (mw *MainWindow) setupShortcuts() {
	c := mw.Canvas()
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		mw.handleKey(editor.KeyEvent{Key: string(ev.Name)})
	})

	for _, key := range []fyne.KeyName{fyne.KeyZ, fyne.KeyY, fyne.KeyC, fyne.KeyV, fyne.KeyD, fyne.KeyA} {
		for _, shift := range []bool{false, true} {
			mod := fyne.KeyModifierShortcutDefault
			if shift {
				mod |= fyne.KeyModifierShift
			}
			ev := editor.KeyEvent{Key: string(key), Ctrl: true, Shift: shift}
			c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: mod}, func(fyne.Shortcut) {
				mw.handleKey(ev)
			})
		}
	}
}

func (mw *MainWindow) handleKey(ev editor.KeyEvent) {
	mw.queue(func() {
		if mw.ed.HandleKey(context.Background(), ev) && ev.Key == string(fyne.KeyG) {
			mw.syncGridItem()
		}
	})
}

// queue hands fn to the task goroutine.
func (mw *MainWindow) queue(fn func()) {
	mw.tasks <- fn
}

func (mw *MainWindow) runTasks() {
	for fn := range mw.tasks {
		fn()
	}
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(app.EventSceneLoaded, func(data interface{}) {
		mw.sidePanel.Export().SetGrid(mw.session.Slices())
		mw.updateTitle()
		if path, _ := data.(string); path != "" {
			mw.watch(path)
			mw.updateStatus("Scene loaded: " + path)
		}
		if mw.canvas.GetFitToWindow() {
			mw.canvas.FitToWindow()
		}
	})

	mw.session.On(app.EventSceneSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.watch(path)
			mw.updateStatus("Saved " + path)
		}
	})

	mw.session.On(app.EventModified, func(interface{}) {
		mw.updateTitle()
	})

	mw.ed.On(editor.EventLoadFailed, func(data interface{}) {
		if f, ok := data.(editor.LoadFailure); ok {
			mw.updateStatus(fmt.Sprintf("Could not load %s: %v", filepath.Base(f.Source), f.Err))
		}
	})

	mw.ed.On(editor.EventDragStart, func(data interface{}) {
		if t, ok := data.(layer.Type); ok {
			mw.updateStatus(fmt.Sprintf("Moving %s layer", t))
		}
	})

	mw.ed.On(editor.EventDragEnd, func(interface{}) {
		mw.updateStatus("Ready")
	})

	mw.ed.On(editor.EventExported, func(data interface{}) {
		switch v := data.(type) {
		case int:
			mw.updateStatus(fmt.Sprintf("Exported PNG (%d bytes)", v))
		case *export.SliceSet:
			mw.updateStatus(fmt.Sprintf("Exported %d slices", len(v.Tiles)))
		}
	})

	if mw.watcher != nil {
		mw.watcher.OnChange(mw.onSceneChangedOnDisk)
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateTitle() {
	title := "Layer Composer - " + mw.session.Name()
	if mw.session.Modified() {
		title += " *"
	}
	mw.SetTitle(title)
}

func (mw *MainWindow) watch(path string) {
	if mw.watcher == nil {
		return
	}
	if err := mw.watcher.Watch(path); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("Cannot watch scene")
	}
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(filePath))
}

func (mw *MainWindow) openFile(exts []string, fn func(path string)) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		fn(path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(exts))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) forSelected(fn func(id string) bool) {
	mw.queue(func() {
		for _, id := range mw.ed.Selection() {
			fn(id)
		}
	})
}

// OpenScene loads a scene in the background and reports failures.
func (mw *MainWindow) OpenScene(path string) {
	go func() {
		if err := mw.session.OpenScene(context.Background(), path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.SetString(prefs.KeyLastScene, path)
	}()
}

// Menu action handlers

func (mw *MainWindow) onNewScene() {
	mw.confirmDiscard(func() {
		s := mw.ed.Settings()
		mw.session.NewScene(geometry.NewSize(s.CanvasWidth, s.CanvasHeight))
		mw.watch("")
		mw.updateStatus(fmt.Sprintf("New %gx%g scene", s.CanvasWidth, s.CanvasHeight))
	})
}

func (mw *MainWindow) onOpenScene() {
	mw.confirmDiscard(func() {
		mw.openFile([]string{app.SceneExt}, mw.OpenScene)
	})
}

func (mw *MainWindow) onImportBackground() {
	mw.confirmDiscard(func() {
		mw.openFile(imageExtensions, func(path string) {
			go func() {
				if err := mw.session.ImportBackground(context.Background(), path); err != nil {
					dialog.ShowError(err, mw.Window)
				}
			}()
		})
	})
}

func (mw *MainWindow) onAddImages() {
	mw.openFile(imageExtensions, func(path string) {
		mw.queue(func() { mw.ed.AddImages(context.Background(), path) })
	})
}

func (mw *MainWindow) onDropped(_ fyne.Position, uris []fyne.URI) {
	var paths []string
	for _, u := range uris {
		if u.Scheme() == "file" {
			paths = append(paths, u.Path())
		}
	}
	if len(paths) == 0 {
		return
	}
	mw.queue(func() { mw.ed.AddImages(context.Background(), paths...) })
}

// onEmbedImage adds an image whose bytes are stored in the scene itself.
func (mw *MainWindow) onEmbedImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		data, err := io.ReadAll(reader)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.queue(func() {
			if _, err := mw.ed.PasteImage(data); err != nil {
				dialog.ShowError(err, mw.Window)
			}
		})
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onInsertText() {
	entry := widget.NewEntry()
	entry.SetText("Text")
	dialog.ShowForm("Insert Text", "Insert", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(ok bool) {
			if ok && entry.Text != "" {
				mw.ed.AddText(entry.Text)
			}
		}, mw.Window)
}

func (mw *MainWindow) onSaveScene() {
	if mw.session.Path() == "" {
		mw.onSaveSceneAs()
		return
	}
	mw.saveScene(mw.session.Path())
}

func (mw *MainWindow) onSaveSceneAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		mw.saveScene(writer.URI().Path())
	}, mw.Window)
	fd.SetFileName(mw.session.Name() + app.SceneExt)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) saveScene(path string) {
	if err := mw.session.SetSlices(mw.sidePanel.Export().Grid()); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	saved, err := mw.session.SaveScene(path)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.saveLastDir(saved)
	mw.prefs.SetString(prefs.KeyLastScene, saved)
}

func (mw *MainWindow) onExportPNG() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		raw, err := mw.ed.Export(context.Background())
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if _, err := writer.Write(raw); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName(mw.session.Name() + ".png")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) exportSlices(grid export.Grid, inline bool) {
	if err := grid.Validate(); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.prefs.SetInt(prefs.KeySliceRows, grid.Rows)
	mw.prefs.SetInt(prefs.KeySliceCols, grid.Cols)
	mw.prefs.SetBool(prefs.KeyInlineHTML, inline)
	if err := mw.session.SetSlices(grid); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}

	fd := dialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil || dir == nil {
			return
		}
		source := export.FileSource
		if inline {
			source = export.DataURISource
		}
		set, err := mw.ed.Slice(context.Background(), grid, source)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if err := export.WriteDir(set, dir.Path(), inline); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.sidePanel.Export().SetStatus(fmt.Sprintf("%d slices written to %s", len(set.Tiles), dir.Path()))
	}, mw.Window)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onUndo() {
	mw.queue(func() { mw.ed.Undo(context.Background()) })
}

func (mw *MainWindow) onRedo() {
	mw.queue(func() { mw.ed.Redo(context.Background()) })
}

func (mw *MainWindow) onZoomIn() {
	mw.disableFitToWindow()
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.disableFitToWindow()
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	enabled := !mw.canvas.GetFitToWindow()
	mw.canvas.SetFitToWindow(enabled)
	mw.fitToWindowItem.Checked = enabled
}

func (mw *MainWindow) onActualSize() {
	mw.disableFitToWindow()
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) disableFitToWindow() {
	if mw.canvas.GetFitToWindow() {
		mw.canvas.SetFitToWindow(false)
		mw.fitToWindowItem.Checked = false
	}
}

func (mw *MainWindow) onToggleGrid() {
	mw.ed.ToggleGrid()
	mw.syncGridItem()
}

func (mw *MainWindow) syncGridItem() {
	on := mw.ed.Settings().GridEnabled
	mw.gridItem.Checked = on
	if on {
		mw.updateStatus("Grid snapping on")
	} else {
		mw.updateStatus("Grid snapping off")
	}
}

func (mw *MainWindow) onSceneChangedOnDisk(path string) {
	dialog.ShowConfirm("Scene Changed",
		fmt.Sprintf("%s was changed by another program.\nReload it and lose unsaved edits?", filepath.Base(path)),
		func(ok bool) {
			if ok {
				mw.OpenScene(path)
			}
		}, mw.Window)
}

// confirmDiscard runs fn, asking first when there are unsaved changes.
func (mw *MainWindow) confirmDiscard(fn func()) {
	if !mw.session.Modified() {
		fn()
		return
	}
	dialog.ShowConfirm("Unsaved Changes", "Discard unsaved changes?", func(ok bool) {
		if ok {
			fn()
		}
	}, mw.Window)
}

func (mw *MainWindow) onClose() {
	mw.confirmDiscard(func() {
		mw.SavePreferences()
		mw.ed.Close()
		if mw.watcher != nil {
			_ = mw.watcher.Close()
		}
		mw.Close()
	})
}

// SavePreferences writes window geometry and export choices to disk.
func (mw *MainWindow) SavePreferences() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	if grid := mw.sidePanel.Export().Grid(); grid.Validate() == nil {
		mw.prefs.SetInt(prefs.KeySliceRows, grid.Rows)
		mw.prefs.SetInt(prefs.KeySliceCols, grid.Cols)
	}
	if err := mw.prefs.Save(); err != nil {
		logrus.WithError(err).Warn("Failed to save preferences")
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Layer Composer",
		fmt.Sprintf("Layer Composer v%s\n\n"+
			"Compose banners from images, text and shapes,\n"+
			"then slice them into an email-safe HTML table.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// Preferences returns the window's preference store.
func (mw *MainWindow) Preferences() *prefs.Prefs {
	return mw.prefs
}

// LastScene returns the scene opened or saved most recently, if it still
// exists.
func (mw *MainWindow) LastScene() string {
	path := mw.prefs.String(prefs.KeyLastScene)
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
