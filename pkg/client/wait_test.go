package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
)

// fakeClock drives the wait loop deterministically: the stubbed sleep
// advances the stubbed clock, so no test ever blocks on real time.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) install(c *Client) {
	c.now = func() time.Time { return f.now }
	c.sleep = func(ctx context.Context, d time.Duration) error {
		f.now = f.now.Add(d)
		return nil
	}
}

// statusSequenceServer serves GetExecutionStatus from a fixed status
// sequence, repeating the last entry, and a separate info response.
func statusSequenceServer(t *testing.T, executionID string, statuses []api.ExecutionStatus, finalBody string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/executions/" + executionID:
			i := int(polls.Add(1)) - 1
			if i >= len(statuses) {
				i = len(statuses) - 1
			}
			fmt.Fprintf(w, `{"id": %q, "status": %q}`, executionID, statuses[i])
		case "/executions/" + executionID + "/info":
			_, _ = w.Write([]byte(finalBody))
		default:
			http.NotFound(w, r)
		}
	})
	return httptest.NewServer(handler), &polls
}

func TestWaitForExecutionCompleted(t *testing.T) {
	server, polls := statusSequenceServer(t, "wfexec_ok",
		[]api.ExecutionStatus{
			api.ExecutionStatusInitializing,
			api.ExecutionStatusRunning,
			api.ExecutionStatusCompleted,
		},
		`{"id": "wfexec_ok", "status": "completed", "outputs": {"plan": "done"}}`)
	defer server.Close()

	c := newTestClient(t, server.URL)
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	clock.install(c)

	var seen []api.ExecutionStatus
	execution, err := c.WaitForExecution(context.Background(), "wfexec_ok", WaitOptions{
		PollInterval: time.Second,
		MaxWait:      time.Minute,
		OnPoll: func(e *api.Execution) {
			seen = append(seen, e.Status)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, api.ExecutionStatusCompleted, execution.Status)
	assert.Equal(t, "done", execution.Outputs["plan"])
	assert.Equal(t, int32(3), polls.Load())
	assert.Equal(t, []api.ExecutionStatus{
		api.ExecutionStatusInitializing,
		api.ExecutionStatusRunning,
		api.ExecutionStatusCompleted,
	}, seen)
}

func TestWaitForExecutionFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "wfexec_bad",
			"status": "failed",
			"error": "step 3 exceeded its budget",
			"error_details": {"step": 3}
		}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	(&fakeClock{now: time.Unix(1700000000, 0)}).install(c)

	_, err := c.WaitForExecution(context.Background(), "wfexec_bad", WaitOptions{})
	require.Error(t, err)
	assert.True(t, IsExecutionFailed(err))

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "step 3 exceeded its budget", apiErr.Message)
	assert.Equal(t, "wfexec_bad", apiErr.Details["execution_id"])
	assert.Equal(t, "failed", apiErr.Details["status"])
	assert.Equal(t, float64(3), apiErr.Details["step"])
}

func TestWaitForExecutionCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "wfexec_c", "status": "cancelled"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	(&fakeClock{now: time.Unix(1700000000, 0)}).install(c)

	_, err := c.WaitForExecution(context.Background(), "wfexec_c", WaitOptions{})
	require.Error(t, err)
	assert.True(t, IsExecutionFailed(err))

	apiErr, _ := AsAPIError(err)
	assert.Contains(t, apiErr.Message, "cancelled")
}

func TestWaitForExecutionTimeout(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		_, _ = w.Write([]byte(`{"id": "wfexec_slow", "status": "running"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	clock.install(c)

	_, err := c.WaitForExecution(context.Background(), "wfexec_slow", WaitOptions{
		PollInterval: 10 * time.Second,
		MaxWait:      35 * time.Second,
	})
	require.Error(t, err)
	assert.True(t, IsWaitTimeout(err))

	// Polls at t=0s, 10s, 20s, 30s; the next poll would land past the
	// 35s deadline, so the wait gives up instead of reporting success.
	assert.Equal(t, int32(4), polls.Load())
}

func TestWaitForExecutionPausedKeepsPolling(t *testing.T) {
	server, polls := statusSequenceServer(t, "wfexec_p",
		[]api.ExecutionStatus{
			api.ExecutionStatusPaused,
			api.ExecutionStatusPaused,
			api.ExecutionStatusRunning,
			api.ExecutionStatusCompleted,
		},
		`{"id": "wfexec_p", "status": "completed"}`)
	defer server.Close()

	c := newTestClient(t, server.URL)
	(&fakeClock{now: time.Unix(1700000000, 0)}).install(c)

	execution, err := c.WaitForExecution(context.Background(), "wfexec_p", WaitOptions{
		PollInterval: time.Second,
		MaxWait:      time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, api.ExecutionStatusCompleted, execution.Status)
	assert.Equal(t, int32(4), polls.Load())
}

func TestWaitForExecutionPollError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"message": "unknown execution"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	(&fakeClock{now: time.Unix(1700000000, 0)}).install(c)

	_, err := c.WaitForExecution(context.Background(), "wfexec_missing", WaitOptions{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestWaitForExecutionContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "wfexec_x", "status": "running"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := c.WaitForExecution(ctx, "wfexec_x", WaitOptions{
		PollInterval: time.Second,
		MaxWait:      time.Hour,
	})
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorClassTransient, apiErr.Class)
	assert.ErrorIs(t, apiErr.Unwrap(), context.Canceled)
}
