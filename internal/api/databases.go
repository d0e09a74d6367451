package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DatabaseKey identifies a database.
type DatabaseKey struct {
	AccountID  string `json:"account_id"`
	DatabaseID string `json:"database_id"`
}

// Database is a logical database stored in the warehouse.
type Database struct {
	ID              DatabaseKey `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	ComputeRegionID RegionKey   `json:"compute_region_id"`
	DataSizeFull    string      `json:"data_size_full,omitempty"`
	CreateTime      time.Time   `json:"create_time"`
	CreateActor     string      `json:"create_actor,omitempty"`
}

type databaseEnvelope struct {
	Database Database `json:"database"`
}

// GetDatabase fetches a database by id.
func (c *Client) GetDatabase(ctx context.Context, id string) (*Database, error) {
	path, err := c.accountPath(ctx, "/databases/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var resp databaseEnvelope
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp.Database, nil
}

// GetDatabaseByName fetches a database by its name. A missing database yields
// an error matching ErrNotFound.
func (c *Client) GetDatabaseByName(ctx context.Context, name string) (*Database, error) {
	path, err := c.accountPath(ctx, "/databases:getIdByName")
	if err != nil {
		return nil, err
	}
	var resp struct {
		DatabaseID DatabaseKey `json:"database_id"`
	}
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   path,
		query:  url.Values{"database_name": {name}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("database %s: %w", name, err)
	}
	if resp.DatabaseID.DatabaseID == "" {
		return nil, fmt.Errorf("database %s: %w", name, ErrNotFound)
	}
	return c.GetDatabase(ctx, resp.DatabaseID.DatabaseID)
}

// ListDatabases returns all databases whose name contains nameContains.
func (c *Client) ListDatabases(ctx context.Context, nameContains string) ([]Database, error) {
	path, err := c.accountPath(ctx, "/databases")
	if err != nil {
		return nil, err
	}

	var databases []Database
	after := ""
	for {
		q := url.Values{"page.first": {fmt.Sprint(pageSize)}}
		if nameContains != "" {
			q.Set("filter.name_contains", nameContains)
		}
		if after != "" {
			q.Set("page.after", after)
		}
		var resp struct {
			PageInfo pageInfo `json:"page_info"`
			Edges    []struct {
				Cursor string   `json:"cursor"`
				Node   Database `json:"node"`
			} `json:"edges"`
		}
		if err := c.do(ctx, request{method: http.MethodGet, path: path, query: q}, &resp); err != nil {
			return nil, fmt.Errorf("failed to list databases: %w", err)
		}
		for _, e := range resp.Edges {
			databases = append(databases, e.Node)
			after = e.Cursor
		}
		if !resp.PageInfo.HasNextPage || len(resp.Edges) == 0 {
			return databases, nil
		}
	}
}

// CreateDatabase creates a database in the named region.
func (c *Client) CreateDatabase(ctx context.Context, name, region, description string) (*Database, error) {
	r, err := c.RegionByName(ctx, region)
	if err != nil {
		return nil, err
	}
	path, err := c.accountPath(ctx, "/databases")
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"database": map[string]any{
			"name":              name,
			"description":       description,
			"compute_region_id": r.ID,
		},
	}
	var resp databaseEnvelope
	if err := c.do(ctx, request{method: http.MethodPost, path: path, body: body}, &resp); err != nil {
		return nil, fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return &resp.Database, nil
}

// DeleteDatabase deletes a database.
func (c *Client) DeleteDatabase(ctx context.Context, id string) error {
	path, err := c.accountPath(ctx, "/databases/"+url.PathEscape(id))
	if err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}

// Binding attaches an engine to a database.
type Binding struct {
	ID struct {
		AccountID  string `json:"account_id"`
		DatabaseID string `json:"database_id"`
		EngineID   string `json:"engine_id"`
	} `json:"id"`
	IsDefaultEngine bool `json:"is_default_engine"`
}

// AttachEngine binds an engine to a database, optionally as its default.
func (c *Client) AttachEngine(ctx context.Context, databaseID, engineID string, isDefault bool) error {
	path, err := c.accountPath(ctx, "/databases/"+url.PathEscape(databaseID)+"/bindings/"+url.PathEscape(engineID))
	if err != nil {
		return err
	}
	var b Binding
	b.ID.AccountID, _ = c.AccountID(ctx)
	b.ID.DatabaseID = databaseID
	b.ID.EngineID = engineID
	b.IsDefaultEngine = isDefault

	err = c.do(ctx, request{
		method: http.MethodPost,
		path:   path,
		body:   map[string]any{"binding": b},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to attach engine: %w", err)
	}
	return nil
}

// Bindings lists the engines attached to a database.
func (c *Client) Bindings(ctx context.Context, databaseID string) ([]Binding, error) {
	path, err := c.accountPath(ctx, "/bindings")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Edges []struct {
			Node Binding `json:"node"`
		} `json:"edges"`
	}
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   path,
		query:  url.Values{"filter.id_database_id_eq": {databaseID}, "page.first": {fmt.Sprint(pageSize)}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	bindings := make([]Binding, 0, len(resp.Edges))
	for _, e := range resp.Edges {
		bindings = append(bindings, e.Node)
	}
	return bindings, nil
}
