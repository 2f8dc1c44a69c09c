package panels

import (
	"layer-composer/internal/editor"
	"layer-composer/internal/layer"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// LayersPanel lists layers top-most first and edits order, visibility and
// locking.
type LayersPanel struct {
	ed        *editor.Editor
	list      *widget.List
	container fyne.CanvasObject

	layers  []layer.Layer // Top-most first
	syncing bool
}

// NewLayersPanel creates a new layers panel.
func NewLayersPanel(ed *editor.Editor) *LayersPanel {
	lp := &LayersPanel{ed: ed}

	lp.list = widget.NewList(
		func() int { return len(lp.layers) },
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewIcon(theme.VisibilityIcon()),
				widget.NewIcon(theme.CheckButtonIcon()),
				widget.NewLabel("layer name"),
			)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(lp.layers) {
				return
			}
			l := lp.layers[id]
			row := obj.(*fyne.Container)

			vis := row.Objects[0].(*widget.Icon)
			if l.Visible {
				vis.SetResource(theme.VisibilityIcon())
			} else {
				vis.SetResource(theme.VisibilityOffIcon())
			}
			lock := row.Objects[1].(*widget.Icon)
			if l.Locked {
				lock.SetResource(theme.CheckButtonCheckedIcon())
			} else {
				lock.SetResource(theme.CheckButtonIcon())
			}

			name := l.Name
			if l.Broken {
				name += " (missing image)"
			}
			row.Objects[2].(*widget.Label).SetText(name + " [" + string(l.Type) + "]")
		},
	)
	lp.list.OnSelected = func(id widget.ListItemID) {
		if lp.syncing || id < 0 || id >= len(lp.layers) {
			return
		}
		lp.ed.Select(false, lp.layers[id].ID)
	}

	up := widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() {
		lp.forSelected(func(id string) { lp.ed.Reorder(id, layer.Up) })
	})
	down := widget.NewButtonWithIcon("", theme.MoveDownIcon(), func() {
		lp.forSelected(func(id string) { lp.ed.Reorder(id, layer.Down) })
	})
	visible := widget.NewButtonWithIcon("", theme.VisibilityIcon(), func() {
		lp.forSelected(func(id string) {
			if l, ok := lp.ed.Layer(id); ok {
				lp.ed.SetVisible(id, !l.Visible)
			}
		})
	})
	lock := widget.NewButton("Lock", func() {
		lp.forSelected(func(id string) {
			if l, ok := lp.ed.Layer(id); ok {
				lp.ed.SetLocked(id, !l.Locked)
			}
		})
	})
	del := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		lp.ed.DeleteSelected()
	})

	lp.container = container.NewBorder(
		nil,
		container.NewHBox(up, down, visible, lock, del),
		nil, nil,
		lp.list,
	)

	sync := func(interface{}) { lp.SyncLayers() }
	ed.On(editor.EventLayersChanged, sync)
	ed.On(editor.EventSelectionChanged, sync)
	ed.On(editor.EventDocumentLoaded, sync)
	ed.On(editor.EventClosed, sync)

	lp.SyncLayers()
	return lp
}

// Container returns the panel container.
func (lp *LayersPanel) Container() fyne.CanvasObject {
	return lp.container
}

// SyncLayers reloads the list from the editor.
func (lp *LayersPanel) SyncLayers() {
	layers := lp.ed.Layers()
	lp.layers = lp.layers[:0]
	for i := len(layers) - 1; i >= 0; i-- {
		lp.layers = append(lp.layers, layers[i])
	}

	lp.syncing = true
	defer func() { lp.syncing = false }()

	lp.list.UnselectAll()
	if sel := lp.ed.Selection(); len(sel) > 0 {
		for i, l := range lp.layers {
			if l.ID == sel[len(sel)-1] {
				lp.list.Select(i)
				break
			}
		}
	}
	lp.list.Refresh()
}

func (lp *LayersPanel) forSelected(fn func(id string)) {
	for _, id := range lp.ed.Selection() {
		fn(id)
	}
}
