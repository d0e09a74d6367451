package duckdb

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/firebolt-db/firebolt-cli/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

const columnsQuery = `SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'main'
ORDER BY table_name, ordinal_position`

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger}}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
// Options are applied as session settings, e.g. threads or memory_limit.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	if err := a.OpenAndPing(ctx, "duckdb", path, cfg); err != nil {
		return err
	}

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmt := fmt.Sprintf("SET %s = '%s'", k, cfg.Options[k])
		if _, err := a.DB.ExecContext(ctx, stmt); err != nil {
			_ = a.Close()
			a.DB = nil
			return fmt.Errorf("failed to apply duckdb setting %s: %w", k, err)
		}
	}

	a.Logger.Debug("connected to duckdb", slog.String("path", path))
	return nil
}

// TablesQuery uses DuckDB's SHOW TABLES.
func (a *Adapter) TablesQuery() string {
	return "SHOW TABLES"
}

// ColumnsQuery restricts completion metadata to the main schema.
func (a *Adapter) ColumnsQuery() string {
	return columnsQuery
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
