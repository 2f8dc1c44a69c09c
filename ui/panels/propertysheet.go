package panels

import (
	"fmt"
	"strconv"

	"layer-composer/internal/editor"
	"layer-composer/internal/layer"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// PropertySheet edits the geometry and payload of the selected layer.
type PropertySheet struct {
	ed        *editor.Editor
	container fyne.CanvasObject
	form      *widget.Form
	status    *widget.Label

	id string // Layer being edited; empty when nothing is selected

	nameEntry     *widget.Entry
	xEntry        *widget.Entry
	yEntry        *widget.Entry
	widthEntry    *widget.Entry
	heightEntry   *widget.Entry
	radiusEntry   *widget.Entry
	rotationEntry *widget.Entry
	fillEntry     *widget.Entry
	textEntry     *widget.Entry
	fontSizeEntry *widget.Entry
	alignSelect   *widget.Select
}

// NewPropertySheet creates a new property sheet panel.
func NewPropertySheet(ed *editor.Editor) *PropertySheet {
	ps := &PropertySheet{
		ed:            ed,
		status:        widget.NewLabel(""),
		nameEntry:     widget.NewEntry(),
		xEntry:        widget.NewEntry(),
		yEntry:        widget.NewEntry(),
		widthEntry:    widget.NewEntry(),
		heightEntry:   widget.NewEntry(),
		radiusEntry:   widget.NewEntry(),
		rotationEntry: widget.NewEntry(),
		fillEntry:     widget.NewEntry(),
		textEntry:     widget.NewMultiLineEntry(),
		fontSizeEntry: widget.NewEntry(),
		alignSelect:   widget.NewSelect([]string{layer.AlignLeft, layer.AlignCenter, layer.AlignRight}, nil),
	}
	ps.fillEntry.SetPlaceHolder("#rrggbb")

	ps.form = widget.NewForm(
		widget.NewFormItem("Name", ps.nameEntry),
		widget.NewFormItem("X", ps.xEntry),
		widget.NewFormItem("Y", ps.yEntry),
		widget.NewFormItem("Width", ps.widthEntry),
		widget.NewFormItem("Height", ps.heightEntry),
		widget.NewFormItem("Radius", ps.radiusEntry),
		widget.NewFormItem("Rotation", ps.rotationEntry),
		widget.NewFormItem("Fill", ps.fillEntry),
		widget.NewFormItem("Text", ps.textEntry),
		widget.NewFormItem("Font size", ps.fontSizeEntry),
		widget.NewFormItem("Align", ps.alignSelect),
	)
	ps.form.SubmitText = "Apply"
	ps.form.OnSubmit = ps.apply

	ps.container = widget.NewCard("Properties", "", container.NewVBox(ps.form, ps.status))

	refresh := func(interface{}) { ps.load() }
	ed.On(editor.EventSelectionChanged, refresh)
	ed.On(editor.EventHistoryChanged, refresh)
	ed.On(editor.EventDragEnd, refresh)

	ps.load()
	return ps
}

// Container returns the panel container.
func (ps *PropertySheet) Container() fyne.CanvasObject {
	return ps.container
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// load fills the form from the last selected layer.
func (ps *PropertySheet) load() {
	sel := ps.ed.Selection()
	if len(sel) == 0 {
		ps.id = ""
		ps.form.Hide()
		ps.status.SetText("No layer selected")
		return
	}
	l, ok := ps.ed.Layer(sel[len(sel)-1])
	if !ok {
		return
	}
	ps.id = l.ID
	ps.form.Show()
	ps.status.SetText(fmt.Sprintf("%s layer", l.Type))

	ps.nameEntry.SetText(l.Name)
	ps.xEntry.SetText(formatFloat(l.X))
	ps.yEntry.SetText(formatFloat(l.Y))
	ps.widthEntry.SetText(formatFloat(l.Width))
	ps.heightEntry.SetText(formatFloat(l.Height))
	ps.radiusEntry.SetText(formatFloat(l.Radius))
	ps.rotationEntry.SetText(formatFloat(l.Rotation))
	ps.fillEntry.SetText(l.Fill)
	ps.textEntry.SetText(l.Text)
	ps.fontSizeEntry.SetText(formatFloat(l.FontSize))
	ps.alignSelect.SetSelected(l.Align)

	show := func(w fyne.CanvasObject, on bool) {
		if on {
			w.Show()
		} else {
			w.Hide()
		}
	}
	boxed := l.Type == layer.TypeImage || l.Type == layer.TypeRectangle
	show(ps.widthEntry, boxed)
	show(ps.heightEntry, boxed)
	show(ps.radiusEntry, l.Type == layer.TypeCircle)
	show(ps.fillEntry, l.Type != layer.TypeImage)
	show(ps.textEntry, l.Type == layer.TypeText)
	show(ps.fontSizeEntry, l.Type == layer.TypeText)
	show(ps.alignSelect, l.Type == layer.TypeText)
}

// apply writes the form back through the editor so the change is clamped
// and recorded in history.
func (ps *PropertySheet) apply() {
	if ps.id == "" {
		return
	}
	var bad []string
	num := func(e *widget.Entry, label string, dst *float64) {
		if e.Hidden || e.Text == "" {
			return
		}
		v, err := strconv.ParseFloat(e.Text, 64)
		if err != nil {
			bad = append(bad, label)
			return
		}
		*dst = v
	}

	ok := ps.ed.UpdateLayer(ps.id, func(l *layer.Layer) {
		if name := ps.nameEntry.Text; name != "" {
			l.Name = name
		}
		num(ps.xEntry, "X", &l.X)
		num(ps.yEntry, "Y", &l.Y)
		num(ps.widthEntry, "Width", &l.Width)
		num(ps.heightEntry, "Height", &l.Height)
		num(ps.radiusEntry, "Radius", &l.Radius)
		num(ps.rotationEntry, "Rotation", &l.Rotation)
		num(ps.fontSizeEntry, "Font size", &l.FontSize)
		if !ps.fillEntry.Hidden {
			l.Fill = ps.fillEntry.Text
		}
		if !ps.textEntry.Hidden {
			l.Text = ps.textEntry.Text
			l.Align = ps.alignSelect.Selected
		}
	})
	switch {
	case !ok:
		ps.status.SetText("Layer no longer exists")
	case len(bad) > 0:
		ps.status.SetText(fmt.Sprintf("Ignored invalid %v", bad))
	}
}
