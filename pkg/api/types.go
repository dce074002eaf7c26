// Package api defines the JSON request and response types exchanged with the
// Ouroboros Compute API. The types are shared by the client library, the oo
// CLI, and the webhook relay.
//
// Identifiers are opaque prefixed strings: workflow executions use the
// "wfexec_" prefix, step executions "stepexec_", and checkpoints "cp_".
// Timestamps are ISO-8601 strings and are kept as time.Time via the standard
// RFC 3339 JSON encoding.
package api

import (
	"strings"
	"time"
)

// ID prefixes used by the service.
const (
	ExecutionIDPrefix     = "wfexec_"
	StepExecutionIDPrefix = "stepexec_"
	CheckpointIDPrefix    = "cp_"
)

// ExecutionStatus is the lifecycle status of a workflow or graph execution.
type ExecutionStatus string

const (
	ExecutionStatusInitializing ExecutionStatus = "initializing"
	ExecutionStatusRunning      ExecutionStatus = "running"
	ExecutionStatusCompleted    ExecutionStatus = "completed"
	ExecutionStatusFailed       ExecutionStatus = "failed"
	ExecutionStatusCancelled    ExecutionStatus = "cancelled"
	ExecutionStatusPaused       ExecutionStatus = "paused"
)

// IsTerminal reports whether the status is a terminal state. Paused
// executions are not terminal; they may resume.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	}
	return false
}

// Valid reports whether the status is one of the documented values.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecutionStatusInitializing, ExecutionStatusRunning,
		ExecutionStatusCompleted, ExecutionStatusFailed,
		ExecutionStatusCancelled, ExecutionStatusPaused:
		return true
	}
	return false
}

// IsExecutionID reports whether id carries the workflow execution prefix.
func IsExecutionID(id string) bool {
	return strings.HasPrefix(id, ExecutionIDPrefix)
}

// ErrorEnvelope is the standard error body returned on non-2xx responses:
//
//	{"error": {"type": ..., "message": ..., "code": ..., "details": ...,
//	           "timestamp": ..., "request_id": ...}}
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the server-side error description.
type ErrorBody struct {
	Type      string         `json:"type,omitempty"`
	Message   string         `json:"message,omitempty"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// Health is the response of GET /health.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Version string `json:"version,omitempty"`
}

// ServiceHealth is the response of GET /service/health.
type ServiceHealth struct {
	Healthy    bool                       `json:"healthy"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth is the per-component entry in a ServiceHealth response.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Workflow describes a named, versioned, multi-step task definition.
type Workflow struct {
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Version     string         `json:"version,omitempty"`
	Category    string         `json:"category,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Status      string         `json:"status,omitempty"`
	StepCount   int            `json:"step_count,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
}

// WorkflowList is the response of GET /workflows.
type WorkflowList struct {
	Workflows []Workflow `json:"workflows"`
	Total     int        `json:"total"`
}

// WorkflowStep is one strategy step of a workflow definition.
type WorkflowStep struct {
	Number      int            `json:"number"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        string         `json:"type,omitempty"`
	Tools       []string       `json:"tools,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

// WorkflowStepList is the response of GET /workflows/{slug}/steps.
type WorkflowStepList struct {
	WorkflowSlug string         `json:"workflow_slug"`
	Steps        []WorkflowStep `json:"steps"`
	Total        int            `json:"total"`
}

// InputField describes one field of a workflow input schema.
type InputField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
}

// InputSchema is the response of GET /workflows/{slug}/input-fields.
type InputSchema struct {
	WorkflowSlug string       `json:"workflow_slug"`
	Fields       []InputField `json:"fields"`
}

// ValidationResult is the response of POST /workflows/{slug}/validate-input.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue names a single rejected input field.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Graph describes a lower-level executable state-machine definition.
type Graph struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Nodes       []string       `json:"nodes,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// GraphList is the response of GET /graphs.
type GraphList struct {
	Graphs []Graph `json:"graphs"`
	Total  int     `json:"total"`
}

// ExecuteRequest is the body of POST /workflows/{slug}/execute.
type ExecuteRequest struct {
	Inputs   map[string]any `json:"inputs"`
	Config   map[string]any `json:"config,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ExecuteGraphRequest is the body of POST /graphs/{name}/execute.
type ExecuteGraphRequest struct {
	Input  map[string]any `json:"input"`
	Config map[string]any `json:"config,omitempty"`
	Async  bool           `json:"async"`
}

// ExecuteResponse is the acknowledgement returned by an execute call. For
// synchronous executions Outputs carries the final result; asynchronous
// executions return an execution id to poll.
type ExecuteResponse struct {
	ExecutionID string          `json:"execution_id,omitempty"`
	Status      ExecutionStatus `json:"status,omitempty"`
	Outputs     map[string]any  `json:"outputs,omitempty"`
}

// Execution is one run instance of a workflow or graph.
type Execution struct {
	ID           string          `json:"id"`
	WorkflowSlug string          `json:"workflow_slug,omitempty"`
	GraphName    string          `json:"graph_name,omitempty"`
	Status       ExecutionStatus `json:"status"`
	Progress     float64         `json:"progress,omitempty"`
	CurrentStep  int             `json:"current_step,omitempty"`
	TotalSteps   int             `json:"total_steps,omitempty"`
	Inputs       map[string]any  `json:"inputs,omitempty"`
	Outputs      map[string]any  `json:"outputs,omitempty"`
	Error        string          `json:"error,omitempty"`
	ErrorDetails map[string]any  `json:"error_details,omitempty"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// ExecutionList is the response of GET /executions.
type ExecutionList struct {
	Executions []Execution `json:"executions"`
	Total      int         `json:"total"`
}

// ExecutionEvent is one lifecycle event of an execution. EventType values
// include execution_started, step_started, llm_call_started,
// llm_call_completed, step_completed, execution_progress,
// execution_completed, execution_failed, and interactive_prompt.
type ExecutionEvent struct {
	ID          string         `json:"id,omitempty"`
	ExecutionID string         `json:"execution_id"`
	EventType   string         `json:"event_type"`
	Message     string         `json:"message,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Timestamp   *time.Time     `json:"timestamp,omitempty"`
}

// ExecutionEventList is the response of GET /executions/{id}/events.
type ExecutionEventList struct {
	Events []ExecutionEvent `json:"events"`
	Total  int              `json:"total"`
}

// StepExecution tracks the execution of one step within a workflow
// execution. Step executions are independently queryable and cancellable.
type StepExecution struct {
	ID          string          `json:"id"`
	ExecutionID string          `json:"execution_id"`
	StepNumber  int             `json:"step_number"`
	StepName    string          `json:"step_name,omitempty"`
	Status      ExecutionStatus `json:"status"`
	Outputs     map[string]any  `json:"outputs,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// StepExecutionList is returned by step-execution listing endpoints.
type StepExecutionList struct {
	StepExecutions []StepExecution `json:"step_executions"`
	Total          int             `json:"total"`
}

// NodeExecution tracks one graph-node invocation within an execution.
type NodeExecution struct {
	ID          string          `json:"id"`
	ExecutionID string          `json:"execution_id"`
	NodeName    string          `json:"node_name"`
	Status      ExecutionStatus `json:"status"`
	Attempt     int             `json:"attempt,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// NodeExecutionList is the response of GET /executions/{id}/node-executions.
type NodeExecutionList struct {
	NodeExecutions []NodeExecution `json:"node_executions"`
	Total          int             `json:"total"`
}

// Checkpoint is a persisted snapshot of in-progress execution state.
type Checkpoint struct {
	ID           string     `json:"id"`
	ExecutionID  string     `json:"execution_id"`
	WorkflowSlug string     `json:"workflow_slug,omitempty"`
	StepNumber   int        `json:"step_number,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// CheckpointList is the response of GET /workflows/checkpoints.
type CheckpointList struct {
	Checkpoints []Checkpoint `json:"checkpoints"`
	Total       int          `json:"total"`
}

// MCPServer describes one configured MCP tool-provider integration.
type MCPServer struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Transport   string   `json:"transport,omitempty"`
	Tools       []string `json:"tools,omitempty"`
	Connected   bool     `json:"connected"`
}

// MCPServerList is the response of GET /mcp-servers.
type MCPServerList struct {
	MCPServers []MCPServer `json:"mcp_servers"`
}

// MCPTool describes one tool exposed by an MCP server.
type MCPTool struct {
	ID          string         `json:"id"`
	Server      string         `json:"server"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// MCPToolList is the response of GET /mcp-servers/tools.
type MCPToolList struct {
	Tools []MCPTool `json:"tools"`
}

// MCPStatus is the response of GET /mcp-servers/status.
type MCPStatus struct {
	Healthy bool                       `json:"healthy"`
	Servers map[string]ComponentHealth `json:"servers,omitempty"`
}

// ExecuteMCPToolRequest is the body of POST /mcp-tools/execute.
type ExecuteMCPToolRequest struct {
	ToolID string         `json:"tool_id"`
	Input  map[string]any `json:"input"`
	Config map[string]any `json:"config,omitempty"`
}

// MCPToolResult is the result of a direct MCP tool invocation.
type MCPToolResult struct {
	ToolID   string         `json:"tool_id"`
	Output   map[string]any `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration float64        `json:"duration_seconds,omitempty"`
}

// WorkspaceInfo is the response of GET /workspace/directories.
type WorkspaceInfo struct {
	Workspaces  []string          `json:"workspaces"`
	Directories map[string]string `json:"directories,omitempty"`
}

// WorkspaceFile describes one file inside a workspace.
type WorkspaceFile struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Size       int64      `json:"size"`
	Extension  string     `json:"extension,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}

// WorkspaceFileList is the response of workspace file listings.
type WorkspaceFileList struct {
	Files []WorkspaceFile `json:"files"`
	Total int             `json:"total"`
}

// AnalyticsReport is the response of GET /workflows/{slug}/analytics.
type AnalyticsReport struct {
	WorkflowSlug    string           `json:"workflow_slug"`
	Granularity     string           `json:"granularity"`
	TotalExecutions int              `json:"total_executions"`
	SuccessRate     float64          `json:"success_rate"`
	AvgDuration     float64          `json:"avg_duration_seconds"`
	Buckets         []AnalyticsPoint `json:"buckets,omitempty"`
}

// AnalyticsPoint is one time bucket of an analytics report.
type AnalyticsPoint struct {
	Period     string  `json:"period"`
	Executions int     `json:"executions"`
	Failures   int     `json:"failures"`
	AvgSeconds float64 `json:"avg_seconds"`
}

// StepExecutionMetrics is the response of GET /metrics/step-executions.
type StepExecutionMetrics struct {
	TotalSteps     int                `json:"total_steps"`
	CompletedSteps int                `json:"completed_steps"`
	FailedSteps    int                `json:"failed_steps"`
	AvgDuration    float64            `json:"avg_duration_seconds"`
	ByWorkflow     map[string]float64 `json:"by_workflow,omitempty"`
}

// CancelRequest is the optional body of execution cancel endpoints.
type CancelRequest struct {
	Reason   string `json:"reason,omitempty"`
	Graceful bool   `json:"graceful,omitempty"`
}

// CancelResponse acknowledges a cancellation request.
type CancelResponse struct {
	ID        string          `json:"id"`
	Status    ExecutionStatus `json:"status"`
	Cancelled bool            `json:"cancelled"`
}
