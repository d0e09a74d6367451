package sqlite

import (
	"context"
	"log/slog"

	"github.com/firebolt-db/firebolt-cli/pkg/adapter"

	_ "modernc.org/sqlite" // sqlite driver
)

const (
	tablesQuery = `SELECT name FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`

	columnsQuery = `SELECT m.name, p.name, p.type
FROM sqlite_master m JOIN pragma_table_info(m.name) p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
ORDER BY m.name, p.cid`
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger}}
}

// Connect opens the database file at cfg.Path, or an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	if err := a.OpenAndPing(ctx, "sqlite", path, cfg); err != nil {
		return err
	}
	// An in-memory database lives only as long as its connection.
	a.DB.SetMaxOpenConns(1)
	a.Logger.Debug("connected to sqlite", slog.String("path", path))
	return nil
}

func (a *Adapter) TablesQuery() string { return tablesQuery }

func (a *Adapter) ColumnsQuery() string { return columnsQuery }

var _ adapter.Adapter = (*Adapter)(nil)
