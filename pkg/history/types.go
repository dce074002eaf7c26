package history

// TargetKind distinguishes what the CLI executed.
type TargetKind string

const (
	TargetKindWorkflow TargetKind = "workflow"
	TargetKindGraph    TargetKind = "graph"
)

// RunStatus mirrors the server-side execution status for recorded runs.
type RunStatus string

const (
	RunStatusSubmitted RunStatus = "submitted"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)
