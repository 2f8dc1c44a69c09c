package export

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
)

// SourceFunc returns the value of a tile's img src attribute.
type SourceFunc func(t Tile) string

// FileSource references tiles by file name, relative to the HTML document.
func FileSource(t Tile) string {
	return t.Name
}

// PrefixSource references tiles under a base URL or directory.
func PrefixSource(prefix string) SourceFunc {
	prefix = strings.TrimSuffix(prefix, "/")
	return func(t Tile) string {
		if prefix == "" {
			return t.Name
		}
		return prefix + "/" + t.Name
	}
}

// DataURISource inlines each tile as a base64 PNG.
func DataURISource(t Tile) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(t.Raster)
}

var tableTmpl = template.Must(template.New("slices").Parse(
	`<table border="0" cellpadding="0" cellspacing="0" style="border-collapse:collapse;border-spacing:0;">
{{- range .}}
<tr>
{{- range .}}
<td style="padding:0;line-height:0;font-size:0;"><img src="{{.Src}}" width="{{.Width}}" height="{{.Height}}" alt="" style="display:block;border:0;width:{{.Width}}px;height:{{.Height}}px;"></td>
{{- end}}
</tr>
{{- end}}
</table>`))

type cell struct {
	Src    template.URL
	Width  int
	Height int
}

// Table renders the row-major table that reassembles set's tiles.
func Table(set *SliceSet, source SourceFunc) (string, error) {
	rows := make([][]cell, set.Grid.Rows)
	for _, t := range set.Tiles {
		rows[t.Row] = append(rows[t.Row], cell{
			Src:    template.URL(source(t)),
			Width:  t.Width,
			Height: t.Height,
		})
	}

	var b strings.Builder
	if err := tableTmpl.Execute(&b, rows); err != nil {
		return "", fmt.Errorf("render slice table: %w", err)
	}
	return b.String(), nil
}
