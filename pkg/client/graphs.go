package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
)

// ListGraphsOptions filters and pages a graph listing.
type ListGraphsOptions struct {
	Category string
	Tags     []string
	Limit    int
	Offset   int
}

// ListGraphs lists the executable graph definitions.
func (c *Client) ListGraphs(ctx context.Context, opts ListGraphsOptions) (*api.GraphList, error) {
	q := url.Values{}
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}
	if len(opts.Tags) > 0 {
		q.Set("tags", strings.Join(opts.Tags, ","))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	return get[api.GraphList](ctx, c, "/graphs", q)
}

// GetGraph fetches one graph definition by name.
func (c *Client) GetGraph(ctx context.Context, name string) (*api.Graph, error) {
	return get[api.Graph](ctx, c, "/graphs/"+url.PathEscape(name), nil)
}

// ExecuteGraph executes a graph with the given input state. With Async set
// the response carries an execution id to poll; otherwise the call blocks
// until the graph completes and the response carries the final outputs.
func (c *Client) ExecuteGraph(ctx context.Context, name string, req api.ExecuteGraphRequest) (*api.ExecuteResponse, error) {
	if req.Config == nil {
		req.Config = map[string]any{}
	}
	return post[api.ExecuteResponse](ctx, c, "/graphs/"+url.PathEscape(name)+"/execute", req)
}
