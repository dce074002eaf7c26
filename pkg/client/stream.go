package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
)

// maxEventBytes bounds a single SSE frame.
const maxEventBytes = 1024 * 1024

// Stream is an open server-sent-events channel for one workflow execution.
// Callers must Close the stream when done.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// ExecuteWorkflowStream starts a workflow execution and streams its
// lifecycle events as they arrive. The stream is not retried: a broken
// connection surfaces as an error from Next, and the caller decides whether
// to fall back to polling via WaitForExecution. The configured request
// timeout does not apply; cancel ctx to abort the stream.
func (c *Client) ExecuteWorkflowStream(ctx context.Context, slug string, req api.ExecuteRequest) (*Stream, error) {
	if req.Config == nil {
		req.Config = map[string]any{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &APIError{
			Class:   ErrorClassPermanent,
			Message: fmt.Sprintf("encode request body: %v", err),
			Err:     err,
		}
	}

	target := c.baseURL + "/workflows/" + url.PathEscape(slug) + "/execute/stream"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(string(payload)))
	if err != nil {
		return nil, &APIError{
			Class:   ErrorClassPermanent,
			Message: fmt.Sprintf("build request: %v", err),
			Err:     err,
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, newTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, newStatusError(resp.StatusCode, data)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), maxEventBytes)
	return &Stream{body: resp.Body, scanner: scanner}, nil
}

// Next returns the next event from the stream. It returns io.EOF when the
// server closes the stream after the terminal event.
func (s *Stream) Next() (*api.ExecutionEvent, error) {
	payload, err := s.nextPayload()
	if err != nil {
		return nil, err
	}

	var event api.ExecutionEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("decode stream event: %w", err)
	}
	if event.EventType == "" {
		return nil, fmt.Errorf("decode stream event: event_type is required")
	}
	return &event, nil
}

// nextPayload reads one SSE frame, joining multi-line data fields and
// skipping comments and keep-alive blanks.
func (s *Stream) nextPayload() (string, error) {
	var data string
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		switch {
		case line == "":
			if data != "" {
				return data, nil
			}
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "data:"):
			part := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" {
				data = part
			} else {
				data += "\n" + part
			}
		case strings.HasPrefix(line, "event:") || strings.HasPrefix(line, "id:"):
			// The payload itself identifies the event; these fields add
			// nothing the client needs.
		default:
			return "", fmt.Errorf("decode stream event: unsupported SSE field %q", line)
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	if data != "" {
		return data, nil
	}
	return "", io.EOF
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	return s.body.Close()
}
