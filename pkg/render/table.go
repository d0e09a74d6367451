// Package render turns query results into text for the terminal.
package render

import (
	"database/sql"
	"fmt"
	"time"
)

// Column describes one column of a result set.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Stats carries optional execution statistics reported by the server.
type Stats struct {
	Elapsed   time.Duration `json:"elapsed"`
	RowsRead  int64         `json:"rows_read"`
	BytesRead int64         `json:"bytes_read"`
}

// Table is a fully materialized result set.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Stats   *Stats   `json:"stats,omitempty"`
}

// HasResultSet reports whether the statement produced columns at all.
// DDL and DML statements usually do not.
func (t *Table) HasResultSet() bool {
	return t != nil && len(t.Columns) > 0
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Records returns the rows keyed by column name.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(row) {
				rec[c.Name] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// FromRows materializes database/sql rows into a Table. The caller keeps
// ownership of rows and must close them.
func FromRows(rows *sql.Rows) (*Table, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	t := &Table{Columns: make([]Column, len(cols))}
	for i, c := range cols {
		t.Columns[i] = Column{Name: c.Name(), Type: c.DatabaseTypeName()}
	}

	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		for i, val := range values {
			// Convert []byte to string for readability
			if b, ok := val.([]byte); ok {
				values[i] = string(b)
			}
		}
		t.Rows = append(t.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// FormatValue renders a single cell.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", v)
	}
}
