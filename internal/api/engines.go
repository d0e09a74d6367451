package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// EngineKey identifies an engine.
type EngineKey struct {
	AccountID string `json:"account_id"`
	EngineID  string `json:"engine_id"`
}

// RegionKey identifies a compute region.
type RegionKey struct {
	ProviderID string `json:"provider_id"`
	RegionID   string `json:"region_id"`
}

// Warm-up methods.
const (
	WarmUpMinimal = "ENGINE_SETTINGS_WARM_UP_MINIMAL"
	WarmUpIndexes = "ENGINE_SETTINGS_WARM_UP_INDEXES"
	WarmUpAll     = "ENGINE_SETTINGS_WARM_UP_ALL"
)

// Engine presets.
const (
	PresetGeneralPurpose = "ENGINE_SETTINGS_PRESET_GENERAL_PURPOSE"
	PresetDataAnalytics  = "ENGINE_SETTINGS_PRESET_DATA_ANALYTICS"
)

// EngineSettings are the user-facing engine options.
type EngineSettings struct {
	Preset                string `json:"preset"`
	AutoStopDelayDuration string `json:"auto_stop_delay_duration"`
	IsReadOnly            bool   `json:"is_read_only"`
	WarmUp                string `json:"warm_up"`
}

// Engine is a compute cluster that executes queries.
type Engine struct {
	ID                   EngineKey      `json:"id"`
	Name                 string         `json:"name"`
	Description          string         `json:"description"`
	ComputeRegionID      RegionKey      `json:"compute_region_id"`
	Settings             EngineSettings `json:"settings"`
	Endpoint             string         `json:"endpoint"`
	CurrentStatusSummary EngineStatus   `json:"current_status_summary"`
	CreateTime           time.Time      `json:"create_time"`
}

// EngineSpec describes the instances behind an engine.
type EngineSpec struct {
	InstanceType string `json:"db_compute_instances_type_name"`
	Scale        int    `json:"db_compute_instances_count"`
}

// CreateEngineInput holds the parameters of a new engine.
type CreateEngineInput struct {
	Name        string
	Description string
	Region      string
	Spec        string
	Scale       int
	AutoStop    time.Duration
	ReadOnly    bool
	WarmUp      string
}

type engineCreate struct {
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	ComputeRegionID RegionKey      `json:"compute_region_id"`
	Settings        EngineSettings `json:"settings"`
}

type engineEnvelope struct {
	Engine Engine `json:"engine"`
}

type pageInfo struct {
	HasNextPage bool `json:"has_next_page"`
}

type engineList struct {
	PageInfo pageInfo `json:"page_info"`
	Edges    []struct {
		Cursor string `json:"cursor"`
		Node   Engine `json:"node"`
	} `json:"edges"`
}

const pageSize = 100

// GetEngine fetches an engine by id.
func (c *Client) GetEngine(ctx context.Context, id string) (*Engine, error) {
	path, err := c.accountPath(ctx, "/engines/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var resp engineEnvelope
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp.Engine, nil
}

// GetEngineByName fetches an engine by its name. A missing engine yields an
// error matching ErrNotFound.
func (c *Client) GetEngineByName(ctx context.Context, name string) (*Engine, error) {
	path, err := c.accountPath(ctx, "/engines:getIdByName")
	if err != nil {
		return nil, err
	}
	var resp struct {
		EngineID EngineKey `json:"engine_id"`
	}
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   path,
		query:  url.Values{"engine_name": {name}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", name, err)
	}
	if resp.EngineID.EngineID == "" {
		return nil, fmt.Errorf("engine %s: %w", name, ErrNotFound)
	}
	return c.GetEngine(ctx, resp.EngineID.EngineID)
}

// ListEngines returns all engines whose name contains nameContains.
func (c *Client) ListEngines(ctx context.Context, nameContains string) ([]Engine, error) {
	path, err := c.accountPath(ctx, "/engines")
	if err != nil {
		return nil, err
	}

	var engines []Engine
	after := ""
	for {
		q := url.Values{"page.first": {fmt.Sprint(pageSize)}}
		if nameContains != "" {
			q.Set("filter.name_contains", nameContains)
		}
		if after != "" {
			q.Set("page.after", after)
		}
		var resp engineList
		if err := c.do(ctx, request{method: http.MethodGet, path: path, query: q}, &resp); err != nil {
			return nil, fmt.Errorf("failed to list engines: %w", err)
		}
		for _, e := range resp.Edges {
			engines = append(engines, e.Node)
			after = e.Cursor
		}
		if !resp.PageInfo.HasNextPage || len(resp.Edges) == 0 {
			return engines, nil
		}
	}
}

// CreateEngine creates a stopped engine.
func (c *Client) CreateEngine(ctx context.Context, in CreateEngineInput) (*Engine, error) {
	region, err := c.RegionByName(ctx, in.Region)
	if err != nil {
		return nil, err
	}
	path, err := c.accountPath(ctx, "/engines")
	if err != nil {
		return nil, err
	}

	preset := PresetDataAnalytics
	if !in.ReadOnly {
		preset = PresetGeneralPurpose
	}
	body := map[string]any{
		"engine": engineCreate{
			Name:            in.Name,
			Description:     in.Description,
			ComputeRegionID: region.ID,
			Settings: EngineSettings{
				Preset:                preset,
				AutoStopDelayDuration: fmt.Sprintf("%ds", int64(in.AutoStop/time.Second)),
				IsReadOnly:            in.ReadOnly,
				WarmUp:                in.WarmUp,
			},
		},
		"engine_revision": map[string]any{
			"specification": EngineSpec{InstanceType: in.Spec, Scale: in.Scale},
		},
	}

	var resp engineEnvelope
	if err := c.do(ctx, request{method: http.MethodPost, path: path, body: body}, &resp); err != nil {
		return nil, fmt.Errorf("failed to create engine %s: %w", in.Name, err)
	}
	c.logger.Debug("engine created", "name", resp.Engine.Name, "id", resp.Engine.ID.EngineID)
	return &resp.Engine, nil
}

func (c *Client) engineAction(ctx context.Context, id, action string) (*Engine, error) {
	path, err := c.accountPath(ctx, "/engines/"+url.PathEscape(id)+action)
	if err != nil {
		return nil, err
	}
	method := http.MethodPost
	if action == "" {
		method = http.MethodDelete
	}
	var resp engineEnvelope
	if err := c.do(ctx, request{method: method, path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp.Engine, nil
}

// StartEngine requests an engine start and returns immediately.
func (c *Client) StartEngine(ctx context.Context, id string) (*Engine, error) {
	return c.engineAction(ctx, id, ":start")
}

// StopEngine requests an engine stop and returns immediately.
func (c *Client) StopEngine(ctx context.Context, id string) (*Engine, error) {
	return c.engineAction(ctx, id, ":stop")
}

// RestartEngine requests an engine restart and returns immediately.
func (c *Client) RestartEngine(ctx context.Context, id string) (*Engine, error) {
	return c.engineAction(ctx, id, ":restart")
}

// DeleteEngine deletes an engine.
func (c *Client) DeleteEngine(ctx context.Context, id string) (*Engine, error) {
	return c.engineAction(ctx, id, "")
}

// WaitForStatus polls the engine until its status is in targets or is
// terminal, or ctx is done. The last observed engine is returned in all cases
// where one was fetched.
func (c *Client) WaitForStatus(ctx context.Context, id string, poll time.Duration, targets StatusSet) (*Engine, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		engine, err := c.GetEngine(ctx, id)
		if err != nil {
			return nil, err
		}
		status := engine.CurrentStatusSummary
		if targets.Has(status) || status == EngineStatusFailed || status == EngineStatusDeleted {
			return engine, nil
		}
		c.logger.Debug("waiting for engine", "name", engine.Name, "status", status.Short())

		select {
		case <-ctx.Done():
			return engine, ctx.Err()
		case <-ticker.C:
		}
	}
}

// EngineURLForDatabase returns the endpoint of the database's default engine.
func (c *Client) EngineURLForDatabase(ctx context.Context, database string) (string, error) {
	path, err := c.accountPath(ctx, "/engines:getURLByDatabaseName")
	if err != nil {
		return "", err
	}
	var resp struct {
		EngineURL string `json:"engine_url"`
	}
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   path,
		query:  url.Values{"database_name": {database}},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to find default engine of database %s: %w", database, err)
	}
	if resp.EngineURL == "" {
		return "", fmt.Errorf("database %s has no default engine: %w", database, ErrNotFound)
	}
	return resp.EngineURL, nil
}
