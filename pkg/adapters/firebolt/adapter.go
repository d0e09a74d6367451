package firebolt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/firebolt-db/firebolt-cli/internal/api"
	"github.com/firebolt-db/firebolt-cli/pkg/adapter"
	"github.com/firebolt-db/firebolt-cli/pkg/render"
)

const (
	tablesQuery  = "SHOW TABLES"
	columnsQuery = `SELECT table_name, column_name, data_type FROM information_schema.columns`
)

// ErrEngineNotRunning is returned by Connect when the selected engine is not
// running.
var ErrEngineNotRunning = errors.New("engine is not running")

// Adapter implements adapter.Adapter on top of the warehouse API.
type Adapter struct {
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client

	logger    *slog.Logger
	client    *api.Client
	engineURL string
	database  string
}

// New creates an unconnected adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{logger: logger}
}

// IsEngineURL reports whether an engine reference is a URL rather than a name.
// Engine names never contain dots.
func IsEngineURL(engine string) bool {
	return strings.Contains(engine, ".")
}

// Connect authenticates and resolves the engine endpoint. cfg.Engine may be
// an engine name, an engine URL, or empty to use the database's default
// engine.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	if cfg.Database == "" {
		return fmt.Errorf("database name is required")
	}

	client := api.New(api.Options{
		Endpoint:    cfg.APIEndpoint,
		Username:    cfg.Username,
		Password:    cfg.Password,
		AccountName: cfg.Account,
		HTTPClient:  a.HTTPClient,
		Logger:      a.logger,
	})
	if err := client.Login(ctx); err != nil {
		return err
	}

	engineURL, err := a.resolveEngine(ctx, client, cfg)
	if err != nil {
		return err
	}

	a.client = client
	a.engineURL = engineURL
	a.database = cfg.Database
	a.logger.Debug("connected to engine", slog.String("engine_url", engineURL), slog.String("database", cfg.Database))
	return nil
}

func (a *Adapter) resolveEngine(ctx context.Context, client *api.Client, cfg adapter.Config) (string, error) {
	switch {
	case cfg.Engine == "":
		return client.EngineURLForDatabase(ctx, cfg.Database)
	case IsEngineURL(cfg.Engine):
		return cfg.Engine, nil
	}

	engine, err := client.GetEngineByName(ctx, cfg.Engine)
	if err != nil {
		return "", err
	}
	if engine.CurrentStatusSummary != api.EngineStatusRunning {
		return "", fmt.Errorf("engine %s: %w, the current engine state is %s",
			engine.Name, ErrEngineNotRunning, engine.CurrentStatusSummary.Short())
	}
	return engine.Endpoint, nil
}

// Close drops the session. The HTTP transport needs no teardown.
func (a *Adapter) Close() error {
	a.client = nil
	return nil
}

// Execute runs one statement on the connected engine.
func (a *Adapter) Execute(ctx context.Context, statement string) (*render.Table, error) {
	if a.client == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	return a.client.Query(ctx, a.engineURL, a.database, statement)
}

// EngineURL returns the endpoint statements are sent to.
func (a *Adapter) EngineURL() string {
	return a.engineURL
}

func (a *Adapter) TablesQuery() string { return tablesQuery }

func (a *Adapter) ColumnsQuery() string { return columnsQuery }

var _ adapter.Adapter = (*Adapter)(nil)
