package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Supported output formats.
const (
	FormatGrid     = "grid"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

// Formatter renders a result set to w.
type Formatter interface {
	Render(w io.Writer, t *Table) error
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(w io.Writer, t *Table) error

// Render implements Formatter.
func (f FormatterFunc) Render(w io.Writer, t *Table) error {
	return f(w, t)
}

// Formats lists the accepted format names.
func Formats() []string {
	return []string{FormatGrid, FormatCSV, FormatJSON, FormatMarkdown}
}

// NewFormatter returns the formatter for a format name. An empty name selects
// the grid formatter.
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", FormatGrid, "table":
		return FormatterFunc(renderGrid), nil
	case FormatCSV:
		return FormatterFunc(renderCSV), nil
	case FormatJSON:
		return FormatterFunc(renderJSON), nil
	case FormatMarkdown, "markdown":
		return FormatterFunc(renderMarkdown), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected one of: %s)", format, strings.Join(Formats(), ", "))
	}
}

func renderGrid(w io.Writer, t *Table) error {
	if !t.HasResultSet() {
		return nil
	}
	if len(t.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)

	style := table.StyleDefault
	style.Format.Header = text.FormatDefault
	style.Options.SeparateRows = true
	tw.SetStyle(style)

	headerRow := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		headerRow[i] = col.Name
	}
	tw.AppendHeader(headerRow)

	for _, values := range t.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = FormatValue(v)
		}
		tw.AppendRow(row)
	}

	tw.Render()
	return nil
}

func renderCSV(w io.Writer, t *Table) error {
	if !t.HasResultSet() {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}
	for _, values := range t.Rows {
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = csvValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvValue leaves NULL cells empty, as spreadsheet tools expect.
func csvValue(v any) string {
	if v == nil {
		return ""
	}
	return FormatValue(v)
}

func renderJSON(w io.Writer, t *Table) error {
	if !t.HasResultSet() {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.Records())
}

func renderMarkdown(w io.Writer, t *Table) error {
	if !t.HasResultSet() {
		return nil
	}
	if len(t.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(t.ColumnNames(), " | "))
	seps := make([]string, len(t.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, values := range t.Rows {
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = strings.ReplaceAll(FormatValue(v), "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}
