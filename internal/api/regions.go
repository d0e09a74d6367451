package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Region is a cloud region engines and databases run in.
type Region struct {
	ID   RegionKey `json:"id"`
	Name string    `json:"name"`
}

// maxRegionLookups bounds concurrent region requests.
const maxRegionLookups = 8

// Regions lists the available compute regions.
func (c *Client) Regions(ctx context.Context) ([]Region, error) {
	var resp struct {
		Edges []struct {
			Node Region `json:"node"`
		} `json:"edges"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/compute/v1/regions",
		query:  url.Values{"page.first": {"5000"}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	regions := make([]Region, 0, len(resp.Edges))
	for _, e := range resp.Edges {
		regions = append(regions, e.Node)
	}
	return regions, nil
}

// RegionByName finds a compute region by its name, e.g. us-east-1.
func (c *Client) RegionByName(ctx context.Context, name string) (*Region, error) {
	regions, err := c.Regions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range regions {
		if regions[i].Name == name {
			return &regions[i], nil
		}
	}
	return nil, fmt.Errorf("region %s: %w", name, ErrNotFound)
}

// RegionName fetches the name of one region.
func (c *Client) RegionName(ctx context.Context, key RegionKey) (string, error) {
	var resp struct {
		Region Region `json:"region"`
	}
	path := "/compute/v1/regions/" + url.PathEscape(key.RegionID)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &resp); err != nil {
		return "", fmt.Errorf("failed to get region %s: %w", key.RegionID, err)
	}
	return resp.Region.Name, nil
}

// RegionNames resolves the distinct regions of the given keys concurrently.
// The result maps region id to region name.
func (c *Client) RegionNames(ctx context.Context, keys []RegionKey) (map[string]string, error) {
	ids := make(map[string]RegionKey)
	for _, k := range keys {
		if k.RegionID != "" {
			ids[k.RegionID] = k
		}
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	names := make([]string, len(sorted))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxRegionLookups)
	for i, id := range sorted {
		g.Go(func() error {
			name, err := c.RegionName(ctx, ids[id])
			if err != nil {
				return err
			}
			names[i] = name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(sorted))
	for i, id := range sorted {
		out[id] = names[i]
	}
	return out, nil
}
