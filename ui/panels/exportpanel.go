package panels

import (
	"strconv"

	"layer-composer/internal/editor"
	"layer-composer/internal/export"
	"layer-composer/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// ExportPanel chooses the slice grid and triggers exports.
type ExportPanel struct {
	ed        *editor.Editor
	canvas    *canvas.EditorCanvas
	container fyne.CanvasObject

	rowsEntry   *widget.Entry
	colsEntry   *widget.Entry
	inlineCheck *widget.Check
	status      *widget.Label

	onExportPNG    func()
	onExportSlices func(grid export.Grid, inline bool)
}

// NewExportPanel creates a new export panel.
func NewExportPanel(ed *editor.Editor, cvs *canvas.EditorCanvas) *ExportPanel {
	ep := &ExportPanel{
		ed:          ed,
		canvas:      cvs,
		rowsEntry:   widget.NewEntry(),
		colsEntry:   widget.NewEntry(),
		inlineCheck: widget.NewCheck("Inline images in HTML", nil),
		status:      widget.NewLabel(""),
	}
	settings := ed.Settings()
	ep.rowsEntry.SetText(strconv.Itoa(settings.SliceRows))
	ep.colsEntry.SetText(strconv.Itoa(settings.SliceCols))

	update := func(string) { ep.canvas.SetSlices(ep.Grid()) }
	ep.rowsEntry.OnChanged = update
	ep.colsEntry.OnChanged = update

	pngBtn := widget.NewButton("Export PNG...", func() {
		if ep.onExportPNG != nil {
			ep.onExportPNG()
		}
	})
	sliceBtn := widget.NewButton("Export Slices...", func() {
		grid := ep.Grid()
		if err := grid.Validate(); err != nil {
			ep.status.SetText("Rows and columns must be at least 1")
			return
		}
		if ep.onExportSlices != nil {
			ep.onExportSlices(grid, ep.inlineCheck.Checked)
		}
	})

	ep.container = container.NewVBox(
		widget.NewCard("Slice Grid", "", widget.NewForm(
			widget.NewFormItem("Rows", ep.rowsEntry),
			widget.NewFormItem("Columns", ep.colsEntry),
		)),
		ep.inlineCheck,
		container.NewHBox(pngBtn, sliceBtn),
		ep.status,
	)

	ed.On(editor.EventExported, func(data interface{}) {
		if set, ok := data.(*export.SliceSet); ok {
			ep.status.SetText(strconv.Itoa(len(set.Tiles)) + " slices exported")
		}
	})

	cvs.SetSlices(ep.Grid())
	return ep
}

// Container returns the panel container.
func (ep *ExportPanel) Container() fyne.CanvasObject {
	return ep.container
}

// Grid returns the grid typed into the panel; unparsable values read as 0.
func (ep *ExportPanel) Grid() export.Grid {
	rows, _ := strconv.Atoi(ep.rowsEntry.Text)
	cols, _ := strconv.Atoi(ep.colsEntry.Text)
	return export.Grid{Rows: rows, Cols: cols}
}

// SetGrid fills the grid entries.
func (ep *ExportPanel) SetGrid(grid export.Grid) {
	ep.rowsEntry.SetText(strconv.Itoa(grid.Rows))
	ep.colsEntry.SetText(strconv.Itoa(grid.Cols))
}

// OnExportPNG sets the handler for whole-canvas export.
func (ep *ExportPanel) OnExportPNG(fn func()) {
	ep.onExportPNG = fn
}

// OnExportSlices sets the handler for slice export.
func (ep *ExportPanel) OnExportSlices(fn func(grid export.Grid, inline bool)) {
	ep.onExportSlices = fn
}

// SetStatus shows a message under the export buttons.
func (ep *ExportPanel) SetStatus(text string) {
	ep.status.SetText(text)
}
