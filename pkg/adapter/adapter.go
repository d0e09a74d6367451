// Package adapter defines the query execution backends the shell can talk to.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves in their init() functions. Import them with a blank identifier
// to make them available:
//
//	import _ "github.com/firebolt-db/firebolt-cli/pkg/adapters/postgres"
package adapter

import (
	"context"

	"github.com/firebolt-db/firebolt-cli/pkg/render"
)

// Config holds connection settings. Each adapter reads the fields it needs.
type Config struct {
	Type string
	// Path is the database file for embedded engines.
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	// Engine is an engine name or URL for remote warehouses.
	Engine      string
	Account     string
	APIEndpoint string
	Options     map[string]string
}

// Adapter executes SQL statements against one database.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection.
	Close() error

	// Execute runs one statement and materializes its result set.
	// Statements without a result set return a Table with no columns.
	Execute(ctx context.Context, statement string) (*render.Table, error)

	// TablesQuery is the statement behind the .tables shell command.
	TablesQuery() string

	// ColumnsQuery returns table name, column name and data type for every
	// column, for auto-completion.
	ColumnsQuery() string
}
