// Package webhook relays execution lifecycle notifications to an external
// HTTP endpoint. The sender polls the executions listing on a fixed
// interval and POSTs one JSON payload per execution that reached a terminal
// status; it can additionally watch a spool directory and relay dropped
// *.json payload files as-is.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
	"github.com/ouroboros-ai/ouroboros-go/pkg/client"
)

// DeliveryRecorder counts delivery outcomes. pkg/telemetry's Metrics
// satisfies it.
type DeliveryRecorder interface {
	RecordWebhookDelivery(outcome string)
}

// Config configures a Sender.
type Config struct {
	// TargetURL is where payloads are POSTed.
	TargetURL string

	// PollInterval is the delay between execution listing polls.
	PollInterval time.Duration

	// SpoolDir, when non-empty, is watched for *.json payload files.
	SpoolDir string

	// MaxRetries bounds delivery attempts per payload after the first.
	MaxRetries int

	// Timeout is the per-delivery HTTP timeout.
	Timeout time.Duration
}

// Payload is the JSON body delivered for a terminal execution.
type Payload struct {
	DeliveryID string         `json:"delivery_id"`
	EventType  string         `json:"event_type"`
	Execution  *api.Execution `json:"execution"`
	SentAt     time.Time      `json:"sent_at"`
}

// Sender polls for terminal executions and delivers webhook payloads.
type Sender struct {
	cfg      Config
	api      *client.Client
	http     *http.Client
	log      zerolog.Logger
	recorder DeliveryRecorder

	// reported tracks executions already delivered, so each terminal
	// execution is announced exactly once per process lifetime.
	reported map[string]struct{}
}

// NewSender creates a Sender. The API client is required; recorder may be
// nil.
func NewSender(cfg Config, apiClient *client.Client, log zerolog.Logger, recorder DeliveryRecorder) (*Sender, error) {
	if cfg.TargetURL == "" {
		return nil, fmt.Errorf("target URL is required")
	}
	if apiClient == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Sender{
		cfg:      cfg,
		api:      apiClient,
		http:     &http.Client{Timeout: cfg.Timeout},
		log:      log,
		recorder: recorder,
		reported: make(map[string]struct{}),
	}, nil
}

// Run polls and relays until ctx is cancelled.
func (s *Sender) Run(ctx context.Context) error {
	var watcher *fsnotify.Watcher
	if s.cfg.SpoolDir != "" {
		var err error
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create spool watcher: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(s.cfg.SpoolDir); err != nil {
			return fmt.Errorf("watch spool dir %s: %w", s.cfg.SpoolDir, err)
		}
		// Relay anything already waiting before the watch started.
		s.drainSpool(ctx)
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.log.Info().
		Str("target_url", s.cfg.TargetURL).
		Dur("poll_interval", s.cfg.PollInterval).
		Str("spool_dir", s.cfg.SpoolDir).
		Msg("webhook sender started")

	for {
		var events chan fsnotify.Event
		var watchErrs chan error
		if watcher != nil {
			events = watcher.Events
			watchErrs = watcher.Errors
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			s.pollOnce(ctx)

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op.Has(fsnotify.Create) && strings.HasSuffix(event.Name, ".json") {
				s.relaySpoolFile(ctx, event.Name)
			}

		case err, ok := <-watchErrs:
			if ok && err != nil {
				s.log.Warn().Err(err).Msg("spool watcher error")
			}
		}
	}
}

// pollOnce lists executions and reports newly terminal ones.
func (s *Sender) pollOnce(ctx context.Context) {
	list, err := s.api.ListExecutions(ctx, client.ListExecutionsOptions{})
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to list executions")
		return
	}

	for i := range list.Executions {
		execution := &list.Executions[i]
		if !execution.Status.IsTerminal() {
			continue
		}
		if _, seen := s.reported[execution.ID]; seen {
			continue
		}

		payload := Payload{
			DeliveryID: uuid.NewString(),
			EventType:  "execution_" + string(execution.Status),
			Execution:  execution,
			SentAt:     time.Now().UTC(),
		}
		body, err := json.Marshal(payload)
		if err != nil {
			s.log.Error().Err(err).Str("execution_id", execution.ID).Msg("failed to encode payload")
			continue
		}

		if err := s.deliver(ctx, payload.DeliveryID, payload.EventType, body); err != nil {
			s.log.Error().Err(err).Str("execution_id", execution.ID).Msg("webhook delivery failed")
			continue
		}
		s.reported[execution.ID] = struct{}{}
		s.log.Info().
			Str("execution_id", execution.ID).
			Str("event_type", payload.EventType).
			Msg("webhook delivered")
	}
}

// drainSpool relays payload files already present in the spool directory.
func (s *Sender) drainSpool(ctx context.Context) {
	entries, err := os.ReadDir(s.cfg.SpoolDir)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read spool dir")
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		s.relaySpoolFile(ctx, filepath.Join(s.cfg.SpoolDir, entry.Name()))
	}
}

// relaySpoolFile posts one spooled payload file and removes it on success.
func (s *Sender) relaySpoolFile(ctx context.Context, path string) {
	body, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to read spool file")
		return
	}
	if !json.Valid(body) {
		s.log.Warn().Str("path", path).Msg("spool file is not valid JSON, skipping")
		return
	}

	if err := s.deliver(ctx, uuid.NewString(), "spooled_payload", body); err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("spool delivery failed")
		return
	}
	if err := os.Remove(path); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to remove delivered spool file")
	}
}

// deliver POSTs one payload with retries.
func (s *Sender) deliver(ctx context.Context, deliveryID, eventType string, body []byte) error {
	operation := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TargetURL, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Delivery-ID", deliveryID)
		req.Header.Set("X-Event-Type", eventType)

		resp, err := s.http.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return struct{}{}, nil
		}
		err = fmt.Errorf("webhook returned status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(s.cfg.MaxRetries+1)),
	)
	s.recordDelivery(err)
	return err
}

func (s *Sender) recordDelivery(err error) {
	if s.recorder == nil {
		return
	}
	if err != nil {
		s.recorder.RecordWebhookDelivery("failed")
	} else {
		s.recorder.RecordWebhookDelivery("delivered")
	}
}
