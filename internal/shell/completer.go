package shell

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/firebolt-db/firebolt-cli/pkg/render"
)

// suggestion is one completion candidate.
type suggestion struct {
	label string
	meta  string
}

// columnInfo is a column known to the connected database.
type columnInfo struct {
	table    string
	column   string
	dataType string
}

// Completer completes SQL keywords, function names, and the
// table and column names of the connected database. It satisfies
// readline.AutoCompleter.
type Completer struct {
	logger *slog.Logger

	mu      sync.RWMutex
	static  []suggestion
	tables  []suggestion
	columns []columnInfo
}

// NewCompleter returns a completer that knows keywords and functions only.
// Call Load to add schema names.
func NewCompleter(logger *slog.Logger) *Completer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Completer{logger: logger}
	for _, kw := range keywords {
		c.static = append(c.static, suggestion{label: kw, meta: "KEYWORD"})
	}
	for _, fn := range functions {
		c.static = append(c.static, suggestion{label: fn, meta: "FUNCTION"})
	}
	return c
}

// Load fetches table and column names. The query must return table name,
// column name and data type, in that order. Failures are logged and leave the
// completer with its static suggestions.
func (c *Completer) Load(ctx context.Context, exec Executor, query string) {
	t, err := exec.Execute(ctx, query)
	if err != nil {
		c.logger.Debug("failed to load completion metadata", slog.String("error", err.Error()))
		return
	}
	c.SetColumns(t)
}

// SetColumns replaces the known schema with the rows of t.
func (c *Completer) SetColumns(t *render.Table) {
	var cols []columnInfo
	seen := make(map[string]bool)
	var tables []suggestion

	for _, row := range t.Rows {
		if len(row) < 3 {
			continue
		}
		ci := columnInfo{
			table:    render.FormatValue(row[0]),
			column:   render.FormatValue(row[1]),
			dataType: render.FormatValue(row[2]),
		}
		cols = append(cols, ci)
		if !seen[ci.table] {
			seen[ci.table] = true
			tables = append(tables, suggestion{label: ci.table, meta: "TABLE"})
		}
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].label < tables[j].label })

	c.mu.Lock()
	c.columns = cols
	c.tables = tables
	c.mu.Unlock()

	c.logger.Debug("loaded completion metadata", slog.Int("tables", len(tables)), slog.Int("columns", len(cols)))
}

// lastWordDelimiters separate the word being completed from the text before it.
const lastWordDelimiters = " ,\n);(."

// extractLastWord returns the text after the last delimiter.
func extractLastWord(text string) string {
	return text[strings.LastIndexAny(text, lastWordDelimiters)+1:]
}

// Suggest returns the labels that complete the word at the end of text.
func (c *Completer) Suggest(text string) []string {
	word := strings.ToUpper(extractLastWord(text))
	if word == "" {
		return nil
	}

	c.mu.RLock()
	candidates := make([]suggestion, 0, len(c.static)+len(c.tables))
	candidates = append(candidates, c.static...)
	candidates = append(candidates, c.tables...)
	for _, col := range c.columns {
		// Columns are only offered for tables already mentioned in the text.
		if strings.Contains(text, col.table) {
			candidates = append(candidates, suggestion{
				label: col.column,
				meta:  "COLUMN (" + col.dataType + ", " + col.table + ")",
			})
		}
	}
	c.mu.RUnlock()

	var out []string
	seen := make(map[string]bool)
	for _, s := range candidates {
		if seen[s.label] || !strings.HasPrefix(strings.ToUpper(s.label), word) {
			continue
		}
		seen[s.label] = true
		out = append(out, s.label)
	}
	return out
}

// Do implements readline.AutoCompleter. It returns the remaining characters
// of each candidate and the length of the word being completed.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	word := extractLastWord(text)
	wordLen := len([]rune(word))

	var out [][]rune
	for _, label := range c.Suggest(text) {
		out = append(out, []rune(label)[wordLen:])
	}
	return out, wordLen
}
