package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/firebolt-db/firebolt-cli/pkg/render"
)

// InformationSchemaTables lists user tables through information_schema.
const InformationSchemaTables = `SELECT table_schema, table_name, table_type
FROM information_schema.tables
WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
ORDER BY table_schema, table_name`

// InformationSchemaColumns lists every column through information_schema.
const InformationSchemaColumns = `SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema NOT IN ('information_schema', 'pg_catalog')`

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close and Execute implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Execute runs a statement and materializes whatever rows it returns.
func (b *BaseSQLAdapter) Execute(ctx context.Context, statement string) (*render.Table, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := b.DB.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return render.FromRows(rows)
}

// TablesQuery implements Adapter for information_schema compatible engines.
func (b *BaseSQLAdapter) TablesQuery() string {
	return InformationSchemaTables
}

// ColumnsQuery implements Adapter for information_schema compatible engines.
func (b *BaseSQLAdapter) ColumnsQuery() string {
	return InformationSchemaColumns
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// OpenAndPing opens a database/sql handle and verifies it with a ping.
func (b *BaseSQLAdapter) OpenAndPing(ctx context.Context, driver, dsn string, cfg Config) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	b.DB = db
	b.Cfg = cfg
	return nil
}
