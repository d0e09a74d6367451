package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/firebolt-db/firebolt-cli/pkg/render"
	"github.com/google/uuid"
)

// cancelTimeout bounds the cancel request sent after an interrupted query.
const cancelTimeout = 5 * time.Second

// compactResult is the JSON_Compact output format of the query endpoint.
type compactResult struct {
	Meta []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"meta"`
	Data       [][]any `json:"data"`
	Statistics *struct {
		Elapsed   float64 `json:"elapsed"`
		RowsRead  int64   `json:"rows_read"`
		BytesRead int64   `json:"bytes_read"`
	} `json:"statistics"`
}

// engineBaseURL turns an engine endpoint into a base URL.
func engineBaseURL(engineURL string) string {
	if !strings.Contains(engineURL, "://") {
		engineURL = "https://" + engineURL
	}
	return strings.TrimRight(engineURL, "/")
}

// Query runs one statement on the engine at engineURL against database.
// When ctx is canceled while the statement runs, a cancel request for its
// query id is sent before returning.
func (c *Client) Query(ctx context.Context, engineURL, database, statement string) (*render.Table, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	queryID := uuid.NewString()
	q := url.Values{
		"database":      {database},
		"output_format": {"JSON_Compact"},
		"query_id":      {queryID},
	}
	base := engineBaseURL(engineURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/?"+q.Encode(), strings.NewReader(statement))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/plain")

	c.logger.Debug("executing query", "query_id", queryID, "engine", base)
	resp, err := c.queryHTTP().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			c.cancelQuery(base, database, token, queryID)
			return nil, fmt.Errorf("query canceled: %w", ctx.Err())
		}
		return nil, &NetworkError{Op: "query", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return nil, newAPIError(resp)
	}
	return decodeCompact(resp.Body)
}

// queryHTTP returns a client without the management timeout; long queries
// are bounded by the caller's context.
func (c *Client) queryHTTP() *http.Client {
	if c.http.Timeout == 0 {
		return c.http
	}
	clone := *c.http
	clone.Timeout = 0
	return &clone
}

func (c *Client) cancelQuery(base, database, token, queryID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()

	q := url.Values{"database": {database}, "query_id": {queryID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/cancel?"+q.Encode(), nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("failed to cancel query", "query_id", queryID, "error", err)
		return
	}
	_ = resp.Body.Close()
	c.logger.Debug("query canceled", "query_id", queryID, "status", resp.StatusCode)
}

// decodeCompact reads a JSON_Compact body. Statements without a result set
// return an empty body, which yields a Table without columns.
func decodeCompact(r io.Reader) (*render.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read query response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &render.Table{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var res compactResult
	if err := dec.Decode(&res); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("unexpected query response: %s", truncate(string(raw), 200))
		}
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	t := &render.Table{Columns: make([]render.Column, len(res.Meta)), Rows: res.Data}
	for i, m := range res.Meta {
		t.Columns[i] = render.Column{Name: m.Name, Type: m.Type}
	}
	if res.Statistics != nil {
		t.Stats = &render.Stats{
			Elapsed:   time.Duration(res.Statistics.Elapsed * float64(time.Second)),
			RowsRead:  res.Statistics.RowsRead,
			BytesRead: res.Statistics.BytesRead,
		}
	}
	return t, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
