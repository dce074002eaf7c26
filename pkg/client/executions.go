package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
)

// ListExecutionsOptions filters an execution listing.
type ListExecutionsOptions struct {
	WorkflowSlug string
	Status       api.ExecutionStatus
	Limit        int
}

// ListExecutions lists executions, optionally filtered by workflow and
// status.
func (c *Client) ListExecutions(ctx context.Context, opts ListExecutionsOptions) (*api.ExecutionList, error) {
	q := url.Values{}
	if opts.WorkflowSlug != "" {
		q.Set("workflow_slug", opts.WorkflowSlug)
	}
	if opts.Status != "" {
		q.Set("status", string(opts.Status))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	return get[api.ExecutionList](ctx, c, "/executions", q)
}

// GetExecutionStatus fetches the current status of an execution. Reading
// status has no side effects; repeated calls for a terminal execution
// return the same status and outputs.
func (c *Client) GetExecutionStatus(ctx context.Context, executionID string) (*api.Execution, error) {
	return get[api.Execution](ctx, c, "/executions/"+url.PathEscape(executionID), nil)
}

// GetExecutionInfo fetches the detailed execution record, including inputs,
// outputs, and timing.
func (c *Client) GetExecutionInfo(ctx context.Context, executionID string) (*api.Execution, error) {
	return get[api.Execution](ctx, c, "/executions/"+url.PathEscape(executionID)+"/info", nil)
}

// ExecutionEventsOptions filters an execution event listing.
type ExecutionEventsOptions struct {
	EventType string
	Limit     int
	Offset    int
}

// GetExecutionEvents fetches lifecycle events recorded for an execution.
func (c *Client) GetExecutionEvents(ctx context.Context, executionID string, opts ExecutionEventsOptions) (*api.ExecutionEventList, error) {
	q := url.Values{}
	if opts.EventType != "" {
		q.Set("event_type", opts.EventType)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	return get[api.ExecutionEventList](ctx, c, "/executions/"+url.PathEscape(executionID)+"/events", q)
}

// GetExecutionSteps fetches step-level execution details for an execution.
func (c *Client) GetExecutionSteps(ctx context.Context, executionID string) (*api.StepExecutionList, error) {
	return get[api.StepExecutionList](ctx, c, "/executions/"+url.PathEscape(executionID)+"/steps", nil)
}

// GetExecutionNodeExecutions fetches graph-node invocations recorded for an
// execution.
func (c *Client) GetExecutionNodeExecutions(ctx context.Context, executionID string) (*api.NodeExecutionList, error) {
	return get[api.NodeExecutionList](ctx, c, "/executions/"+url.PathEscape(executionID)+"/node-executions", nil)
}

// CancelExecution requests cancellation of a running execution. A non-empty
// reason requests a graceful stop.
func (c *Client) CancelExecution(ctx context.Context, executionID, reason string) (*api.CancelResponse, error) {
	body := api.CancelRequest{}
	if reason != "" {
		body.Reason = reason
		body.Graceful = true
	}
	return post[api.CancelResponse](ctx, c, "/executions/"+url.PathEscape(executionID)+"/cancel", body)
}

// ListStepExecutionsOptions filters a step-execution listing.
type ListStepExecutionsOptions struct {
	ExecutionID  string
	WorkflowSlug string
	Status       api.ExecutionStatus
	Limit        int
	Offset       int
}

// ListStepExecutions lists step executions across executions.
func (c *Client) ListStepExecutions(ctx context.Context, opts ListStepExecutionsOptions) (*api.StepExecutionList, error) {
	q := url.Values{}
	if opts.ExecutionID != "" {
		q.Set("execution_id", opts.ExecutionID)
	}
	if opts.WorkflowSlug != "" {
		q.Set("workflow_slug", opts.WorkflowSlug)
	}
	if opts.Status != "" {
		q.Set("status", string(opts.Status))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	return get[api.StepExecutionList](ctx, c, "/step-executions", q)
}

// GetStepExecution fetches one step execution by id (prefixed "stepexec_").
func (c *Client) GetStepExecution(ctx context.Context, stepExecutionID string) (*api.StepExecution, error) {
	return get[api.StepExecution](ctx, c, "/step-executions/"+url.PathEscape(stepExecutionID), nil)
}

// CancelStepExecution requests cancellation of a running step execution.
func (c *Client) CancelStepExecution(ctx context.Context, stepExecutionID string) (*api.CancelResponse, error) {
	return post[api.CancelResponse](ctx, c, "/step-executions/"+url.PathEscape(stepExecutionID)+"/cancel", nil)
}

// StepExecutionMetricsOptions bounds an aggregated step metrics query.
type StepExecutionMetricsOptions struct {
	WorkflowSlug string
	StartDate    string
	EndDate      string
}

// GetStepExecutionMetrics fetches aggregated metrics for step executions.
func (c *Client) GetStepExecutionMetrics(ctx context.Context, opts StepExecutionMetricsOptions) (*api.StepExecutionMetrics, error) {
	q := url.Values{}
	if opts.WorkflowSlug != "" {
		q.Set("workflow_slug", opts.WorkflowSlug)
	}
	if opts.StartDate != "" {
		q.Set("start_date", opts.StartDate)
	}
	if opts.EndDate != "" {
		q.Set("end_date", opts.EndDate)
	}
	return get[api.StepExecutionMetrics](ctx, c, "/metrics/step-executions", q)
}
