// Package panels provides UI panels for the application.
package panels

import (
	"layer-composer/internal/editor"
	"layer-composer/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	ed        *editor.Editor
	canvas    *canvas.EditorCanvas
	container *container.AppTabs

	// Tab content
	layersPanel   *LayersPanel
	propertySheet *PropertySheet
	exportPanel   *ExportPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(ed *editor.Editor, cvs *canvas.EditorCanvas) *SidePanel {
	sp := &SidePanel{
		ed:     ed,
		canvas: cvs,
	}

	sp.layersPanel = NewLayersPanel(ed)
	sp.propertySheet = NewPropertySheet(ed)
	sp.exportPanel = NewExportPanel(ed, cvs)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Layers", container.NewBorder(nil, sp.propertySheet.Container(), nil, nil, sp.layersPanel.Container())),
		container.NewTabItem("Export", sp.exportPanel.Container()),
	)
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// Export returns the export panel.
func (sp *SidePanel) Export() *ExportPanel {
	return sp.exportPanel
}
