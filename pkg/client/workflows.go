package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
)

// ListWorkflowsOptions filters and pages a workflow listing. Zero values
// are omitted from the query; the server applies its own defaults.
type ListWorkflowsOptions struct {
	Category string
	Tags     []string
	Search   string
	Status   string
	Limit    int
	Offset   int
}

func (o ListWorkflowsOptions) query() url.Values {
	q := url.Values{}
	if o.Category != "" {
		q.Set("category", o.Category)
	}
	if len(o.Tags) > 0 {
		q.Set("tags", strings.Join(o.Tags, ","))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	return q
}

// ListWorkflows lists workflows, optionally filtered by category, tags,
// search text, and status.
func (c *Client) ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*api.WorkflowList, error) {
	return get[api.WorkflowList](ctx, c, "/workflows", opts.query())
}

// GetWorkflow fetches one workflow definition by slug.
func (c *Client) GetWorkflow(ctx context.Context, slug string) (*api.Workflow, error) {
	return get[api.Workflow](ctx, c, "/workflows/"+url.PathEscape(slug), nil)
}

// GetWorkflowInputSchema fetches the input field schema of a workflow.
func (c *Client) GetWorkflowInputSchema(ctx context.Context, slug string) (*api.InputSchema, error) {
	return get[api.InputSchema](ctx, c, "/workflows/"+url.PathEscape(slug)+"/input-fields", nil)
}

// ValidateWorkflowInput asks the server to validate inputs against the
// workflow's schema without executing anything.
func (c *Client) ValidateWorkflowInput(ctx context.Context, slug string, inputs map[string]any) (*api.ValidationResult, error) {
	body := map[string]any{"inputs": inputs}
	return post[api.ValidationResult](ctx, c, "/workflows/"+url.PathEscape(slug)+"/validate-input", body)
}

// ExecuteWorkflow starts a workflow execution. The response carries the
// execution id (prefixed "wfexec_") used for all subsequent status, wait,
// and cancel calls.
func (c *Client) ExecuteWorkflow(ctx context.Context, slug string, req api.ExecuteRequest) (*api.ExecuteResponse, error) {
	if req.Config == nil {
		req.Config = map[string]any{}
	}
	if req.Metadata == nil {
		req.Metadata = map[string]any{}
	}
	return post[api.ExecuteResponse](ctx, c, "/workflows/"+url.PathEscape(slug)+"/execute", req)
}

// GetWorkflowSteps fetches the strategy steps of a workflow definition.
func (c *Client) GetWorkflowSteps(ctx context.Context, slug string) (*api.WorkflowStepList, error) {
	return get[api.WorkflowStepList](ctx, c, "/workflows/"+url.PathEscape(slug)+"/steps", nil)
}

// GetWorkflowStep fetches one step of a workflow definition by its
// 1-indexed step number.
func (c *Client) GetWorkflowStep(ctx context.Context, slug string, stepNumber int) (*api.WorkflowStep, error) {
	path := "/workflows/" + url.PathEscape(slug) + "/steps/" + strconv.Itoa(stepNumber)
	return get[api.WorkflowStep](ctx, c, path, nil)
}

// AnalyticsOptions bounds a workflow analytics query. Dates are ISO-8601.
type AnalyticsOptions struct {
	StartDate   string
	EndDate     string
	Granularity string // hour, day, week, month; defaults to day
}

// GetWorkflowAnalytics fetches execution analytics for a workflow.
func (c *Client) GetWorkflowAnalytics(ctx context.Context, slug string, opts AnalyticsOptions) (*api.AnalyticsReport, error) {
	q := url.Values{}
	if opts.Granularity == "" {
		opts.Granularity = "day"
	}
	q.Set("granularity", opts.Granularity)
	if opts.StartDate != "" {
		q.Set("start_date", opts.StartDate)
	}
	if opts.EndDate != "" {
		q.Set("end_date", opts.EndDate)
	}
	return get[api.AnalyticsReport](ctx, c, "/workflows/"+url.PathEscape(slug)+"/analytics", q)
}

// ListCheckpointsOptions filters a checkpoint listing.
type ListCheckpointsOptions struct {
	WorkflowSlug string
	ExecutionID  string
	Limit        int
	Offset       int
}

// ListCheckpoints lists persisted execution checkpoints.
func (c *Client) ListCheckpoints(ctx context.Context, opts ListCheckpointsOptions) (*api.CheckpointList, error) {
	q := url.Values{}
	if opts.WorkflowSlug != "" {
		q.Set("workflow_slug", opts.WorkflowSlug)
	}
	if opts.ExecutionID != "" {
		q.Set("execution_id", opts.ExecutionID)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	return get[api.CheckpointList](ctx, c, "/workflows/checkpoints", q)
}
