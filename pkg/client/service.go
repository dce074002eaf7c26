package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
)

// CheckHealth reports whether the API is reachable and healthy. Unlike the
// other operations it swallows the error: an unreachable service is simply
// not healthy.
func (c *Client) CheckHealth(ctx context.Context) bool {
	health, err := get[api.Health](ctx, c, "/health", nil)
	if err != nil {
		return false
	}
	return health.Status == "healthy"
}

// ServiceHealth fetches per-component service health.
func (c *Client) ServiceHealth(ctx context.Context) (*api.ServiceHealth, error) {
	return get[api.ServiceHealth](ctx, c, "/service/health", nil)
}

// ServiceMetrics fetches service performance metrics.
func (c *Client) ServiceMetrics(ctx context.Context) (map[string]any, error) {
	out, err := get[map[string]any](ctx, c, "/service/metrics", nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// GetWorkspaceInfo fetches workspace directory information.
func (c *Client) GetWorkspaceInfo(ctx context.Context) (*api.WorkspaceInfo, error) {
	return get[api.WorkspaceInfo](ctx, c, "/workspace/directories", nil)
}

// ListWorkspaces lists the available workspaces.
func (c *Client) ListWorkspaces(ctx context.Context) (*api.WorkspaceInfo, error) {
	return get[api.WorkspaceInfo](ctx, c, "/service/workspaces", nil)
}

// ListWorkspaceFilesOptions filters a workspace file listing.
type ListWorkspaceFilesOptions struct {
	Directory string
	Extension string
	Limit     int
}

// ListWorkspaceFiles lists files in a workspace. An empty workspace name
// selects the default workspace.
func (c *Client) ListWorkspaceFiles(ctx context.Context, workspace string, opts ListWorkspaceFilesOptions) (*api.WorkspaceFileList, error) {
	if workspace == "" {
		workspace = "default"
	}
	q := url.Values{}
	if opts.Directory != "" {
		q.Set("directory", opts.Directory)
	}
	if opts.Extension != "" {
		q.Set("extension", opts.Extension)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	return get[api.WorkspaceFileList](ctx, c, "/service/workspaces/"+url.PathEscape(workspace)+"/files", q)
}

// GetWorkspaceConfig fetches workspace configuration settings.
func (c *Client) GetWorkspaceConfig(ctx context.Context) (map[string]any, error) {
	out, err := get[map[string]any](ctx, c, "/service/workspace-config", nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}
