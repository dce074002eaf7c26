package client

import (
	"context"
	"net/url"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
)

// ListMCPServers lists the configured MCP tool-provider integrations.
func (c *Client) ListMCPServers(ctx context.Context) (*api.MCPServerList, error) {
	return get[api.MCPServerList](ctx, c, "/mcp-servers", nil)
}

// ListMCPTools lists tools exposed by MCP servers, optionally filtered to
// one server.
func (c *Client) ListMCPTools(ctx context.Context, server string) (*api.MCPToolList, error) {
	q := url.Values{}
	if server != "" {
		q.Set("server", server)
	}
	return get[api.MCPToolList](ctx, c, "/mcp-servers/tools", q)
}

// GetMCPStatus fetches the connection status of all MCP servers.
func (c *Client) GetMCPStatus(ctx context.Context) (*api.MCPStatus, error) {
	return get[api.MCPStatus](ctx, c, "/mcp-servers/status", nil)
}

// GetMCPSettings fetches the MCP integration settings.
func (c *Client) GetMCPSettings(ctx context.Context) (map[string]any, error) {
	out, err := get[map[string]any](ctx, c, "/mcp-servers/settings", nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// ExecuteMCPTool invokes one MCP tool directly, outside a workflow.
func (c *Client) ExecuteMCPTool(ctx context.Context, toolID string, input, config map[string]any) (*api.MCPToolResult, error) {
	body := api.ExecuteMCPToolRequest{
		ToolID: toolID,
		Input:  input,
		Config: config,
	}
	if body.Config == nil {
		body.Config = map[string]any{}
	}
	return post[api.MCPToolResult](ctx, c, "/mcp-tools/execute", body)
}
