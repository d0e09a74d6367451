package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// KeyValues renders a single resource description, one header per line, or
// as a JSON object when asJSON is set. headers and values must have the same
// length.
func KeyValues(w io.Writer, headers []string, values []any, asJSON bool) error {
	if len(headers) != len(values) {
		return fmt.Errorf("render: %d headers for %d values", len(headers), len(values))
	}

	if asJSON {
		obj := make(map[string]any, len(headers))
		for i, h := range headers {
			obj[h] = values[i]
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(obj)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	style := table.StyleDefault
	style.Options.SeparateRows = true
	tw.SetStyle(style)
	for i, h := range headers {
		tw.AppendRow(table.Row{h, FormatValue(values[i])})
	}
	tw.Render()
	return nil
}

// Records renders a list of homogeneous records either as a grid or as a
// JSON array of objects.
func Records(w io.Writer, headers []string, rows [][]any, asJSON bool) error {
	cols := make([]Column, len(headers))
	for i, h := range headers {
		cols[i] = Column{Name: h}
	}
	t := &Table{Columns: cols, Rows: rows}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(t.Records())
	}
	return renderGrid(w, t)
}
