package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
)

const (
	// DefaultPollInterval is the default delay between status checks.
	DefaultPollInterval = 5 * time.Second

	// DefaultMaxWait is the default maximum wait for an execution to reach
	// a terminal status.
	DefaultMaxWait = time.Hour
)

// WaitOptions configures WaitForExecution. Zero values select defaults.
type WaitOptions struct {
	// PollInterval is the delay between status checks.
	PollInterval time.Duration

	// MaxWait bounds the total wait. Exceeding it raises a wait-timeout
	// error, never a false completion.
	MaxWait time.Duration

	// OnPoll, when set, is invoked with every polled status. It lets
	// callers surface intermediate progress without a second goroutine.
	OnPoll func(execution *api.Execution)
}

// WaitForExecution blocks until the execution reaches a terminal status,
// polling the status endpoint between sleeps. It returns the final
// execution record on completion. A failed or cancelled execution raises an
// APIError with class ErrorClassExecutionFailed carrying the server's
// failure details; exceeding MaxWait raises ErrorClassWaitTimeout.
// Cancelling ctx aborts the wait between poll iterations.
func (c *Client) WaitForExecution(ctx context.Context, executionID string, opts WaitOptions) (*api.Execution, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWait
	}

	deadline := c.now().Add(opts.MaxWait)
	for {
		execution, err := c.GetExecutionStatus(ctx, executionID)
		if err != nil {
			return nil, err
		}
		if opts.OnPoll != nil {
			opts.OnPoll(execution)
		}

		switch execution.Status {
		case api.ExecutionStatusCompleted:
			return c.GetExecutionInfo(ctx, executionID)

		case api.ExecutionStatusFailed, api.ExecutionStatusCancelled:
			message := execution.Error
			if message == "" {
				message = fmt.Sprintf("execution %s", execution.Status)
			}
			return nil, &APIError{
				Class:   ErrorClassExecutionFailed,
				Message: message,
				Details: failureDetails(execution),
			}
		}

		if !c.now().Add(opts.PollInterval).Before(deadline) {
			return nil, &APIError{
				Class:   ErrorClassWaitTimeout,
				Message: fmt.Sprintf("execution %s did not reach a terminal status within %s", executionID, opts.MaxWait),
			}
		}
		if err := c.sleep(ctx, opts.PollInterval); err != nil {
			return nil, &APIError{
				Class:   ErrorClassTransient,
				Message: fmt.Sprintf("wait aborted: %v", err),
				Err:     err,
			}
		}
	}
}

// failureDetails assembles the details payload attached to an
// execution-failure error.
func failureDetails(execution *api.Execution) map[string]any {
	details := map[string]any{
		"execution_id": execution.ID,
		"status":       string(execution.Status),
	}
	if execution.Error != "" {
		details["error"] = execution.Error
	}
	for k, v := range execution.ErrorDetails {
		details[k] = v
	}
	return details
}
