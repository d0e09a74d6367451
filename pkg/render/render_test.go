package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	return &Table{
		Columns: []Column{{Name: "path", Type: "TEXT"}, {Name: "name", Type: "TEXT"}},
		Rows: [][]any{
			{"marts.dim_customers", "dim_customers"},
			{"staging.stg_orders", nil},
		},
	}
}

func renderWith(t *testing.T, format string, tbl *Table) string {
	t.Helper()
	f, err := NewFormatter(format)
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	require.NoError(t, f.Render(buf, tbl))
	return buf.String()
}

func TestGridFormat(t *testing.T) {
	out := renderWith(t, FormatGrid, sampleTable())

	assert.Contains(t, out, "+--")
	assert.Contains(t, out, "| path")
	assert.Contains(t, out, "marts.dim_customers")
	assert.Contains(t, out, "NULL")
}

func TestGridFormat_EmptyResults(t *testing.T) {
	tbl := &Table{Columns: []Column{{Name: "id"}}}
	assert.Contains(t, renderWith(t, FormatGrid, tbl), "(0 rows)")
}

func TestFormats_NoResultSet(t *testing.T) {
	for _, format := range Formats() {
		t.Run(format, func(t *testing.T) {
			assert.Empty(t, renderWith(t, format, &Table{}))
		})
	}
}

func TestCSVFormat(t *testing.T) {
	out := renderWith(t, FormatCSV, sampleTable())

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3) // header + 2 rows
	assert.Equal(t, "path,name", lines[0])
	assert.Equal(t, "marts.dim_customers,dim_customers", lines[1])
	assert.Equal(t, "staging.stg_orders,", lines[2])
}

func TestCSVFormat_Escaping(t *testing.T) {
	tbl := &Table{
		Columns: []Column{{Name: "v"}},
		Rows:    [][]any{{"with,comma"}, {`with"quote`}},
	}
	out := renderWith(t, FormatCSV, tbl)

	assert.Contains(t, out, `"with,comma"`)
	assert.Contains(t, out, `"with""quote"`)
}

func TestJSONFormat(t *testing.T) {
	out := renderWith(t, FormatJSON, sampleTable())

	assert.Contains(t, out, `"path"`)
	assert.Contains(t, out, `"marts.dim_customers"`)
	assert.Contains(t, out, `"name": null`)
}

func TestMarkdownFormat(t *testing.T) {
	out := renderWith(t, FormatMarkdown, sampleTable())

	assert.Contains(t, out, "| path | name |")
	assert.Contains(t, out, "| --- | --- |")
	assert.Contains(t, out, "| marts.dim_customers | dim_customers |")
}

func TestNewFormatter_Unknown(t *testing.T) {
	_, err := NewFormatter("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		input    any
		expected string
	}{
		{nil, "NULL"},
		{"hello", "hello"},
		{42, "42"},
		{3.14, "3.14"},
		{true, "true"},
		{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "2024-01-02 03:04:05"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatValue(tt.input))
	}
}

func TestFromRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT id, name FROM users").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, []byte("alice")).
			AddRow(2, nil),
	)

	rows, err := db.Query("SELECT id, name FROM users")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	tbl, err := FromRows(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, tbl.ColumnNames())
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "alice", tbl.Rows[0][1])
	assert.Nil(t, tbl.Rows[1][1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyValues(t *testing.T) {
	headers := []string{"name", "is_read_only"}
	values := []any{"engine_1", true}

	t.Run("grid", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, KeyValues(buf, headers, values, false))
		assert.Contains(t, buf.String(), "engine_1")
		assert.Contains(t, buf.String(), "is_read_only")
	})

	t.Run("json", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, KeyValues(buf, headers, values, true))
		assert.Contains(t, buf.String(), `"name": "engine_1"`)
		assert.Contains(t, buf.String(), `"is_read_only": true`)
	})

	t.Run("length mismatch", func(t *testing.T) {
		require.Error(t, KeyValues(new(bytes.Buffer), headers, values[:1], false))
	})
}

func TestRecordsJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, Records(buf, []string{"name", "status"}, [][]any{
		{"engine_mock1", "Running"},
		{"engine_mock2", "Stopped"},
	}, true))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "["))
	assert.Contains(t, out, `"name": "engine_mock1"`)
}
