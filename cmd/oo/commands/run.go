package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
	"github.com/ouroboros-ai/ouroboros-go/pkg/client"
	"github.com/ouroboros-ai/ouroboros-go/pkg/config"
	"github.com/ouroboros-ai/ouroboros-go/pkg/history"
	"github.com/ouroboros-ai/ouroboros-go/pkg/telemetry"
)

func newRunCommand() *cobra.Command {
	var (
		inputFile    string
		inputVars    []string
		validateOnly bool
		wait         bool
		pollInterval time.Duration
		maxWait      time.Duration
		noHistory    bool
	)

	cmd := &cobra.Command{
		Use:       "run <workflow|graph> <name>",
		Short:     "Execute a workflow or graph",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"workflow", "graph"},
		Long: `Execute a workflow or graph through the compute API.

Inputs come from --input (a JSON file) and --input-var key=value pairs;
--input-var values are coerced to booleans, numbers, or JSON when they
parse as such, and kept as strings otherwise. Pairs override file values
on key collisions.`,
		Example: `  # Execute a workflow and wait for the result
  oo run workflow business-plan-optimization \
      --input-var business_type=retail --input-var budget=50000 --wait

  # Execute a graph with an input state file
  oo run graph complexity_level_1 --input input_state.json

  # Validate inputs without executing
  oo run workflow sample_workflow --input inputs.json --validate-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, name := args[0], args[1]
			if kind != "workflow" && kind != "graph" {
				return fmt.Errorf("unknown target kind %q, expected workflow or graph", kind)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tracer, err := newRunTracer(cfg)
			if err != nil {
				return err
			}
			defer shutdownTracer(tracer)

			c, _, err := newAPIClient(client.WithTracer(tracer.Tracer()))
			if err != nil {
				return err
			}

			inputs, err := collectInputs(inputFile, inputVars)
			if err != nil {
				return err
			}

			ctx, span := tracer.StartExecutionSpan(cmd.Context(), kind, name)
			defer span.End()

			flags := runFlags{
				validateOnly: validateOnly,
				wait:         wait,
				pollInterval: pollInterval,
				maxWait:      maxWait,
				noHistory:    noHistory,
			}
			if kind == "workflow" {
				err = runWorkflow(ctx, c, cfg, name, inputs, flags)
			} else {
				err = runGraph(ctx, c, cfg, name, inputs, flags)
			}
			telemetry.RecordError(span, err)
			return err
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "JSON file with input values")
	cmd.Flags().StringSliceVar(&inputVars, "input-var", nil, "input value as key=value (repeatable)")
	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "validate inputs without executing (workflows only)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "block until the execution reaches a terminal status")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 5*time.Second, "delay between status checks with --wait")
	cmd.Flags().DurationVar(&maxWait, "max-wait", time.Hour, "maximum wait with --wait")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "skip recording the run in the local history journal")

	return cmd
}

// newRunTracer builds the tracer for one CLI invocation. With tracing
// disabled in the configuration this yields a no-op provider.
func newRunTracer(cfg config.Config) (*telemetry.Tracer, error) {
	return telemetry.NewTracer(telemetry.TracingConfig{
		Enabled:       cfg.Telemetry.TracingEnabled,
		Exporter:      cfg.Telemetry.TraceExporter,
		Endpoint:      cfg.Telemetry.TraceEndpoint,
		Insecure:      true,
		SamplingRate:  cfg.Telemetry.SampleRate,
		ExportTimeout: 30 * time.Second,
	}, "oo", "", "dev")
}

// shutdownTracer flushes pending spans with a short grace period.
func shutdownTracer(tracer *telemetry.Tracer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracer.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("tracer shutdown failed")
	}
}

type runFlags struct {
	validateOnly bool
	wait         bool
	pollInterval time.Duration
	maxWait      time.Duration
	noHistory    bool
}

func runWorkflow(ctx context.Context, c *client.Client, cfg config.Config, slug string, inputs map[string]any, flags runFlags) error {
	if flags.validateOnly {
		result, err := c.ValidateWorkflowInput(ctx, slug, inputs)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printResult(result)
		}
		if result.Valid {
			fmt.Println("inputs are valid")
			return nil
		}
		for _, issue := range result.Errors {
			fmt.Printf("  %s: %s\n", issue.Field, issue.Message)
		}
		return fmt.Errorf("input validation failed")
	}

	resp, err := c.ExecuteWorkflow(ctx, slug, api.ExecuteRequest{Inputs: inputs})
	if err != nil {
		return err
	}

	log.Info().
		Str("workflow", slug).
		Str("execution_id", resp.ExecutionID).
		Msg("workflow execution started")

	journal := openJournal(ctx, cfg, flags.noHistory)
	if journal != nil {
		defer journal.Close()
	}
	recordStart(ctx, journal, history.TargetKindWorkflow, slug, resp.ExecutionID, inputs)

	if !flags.wait {
		return printResult(resp)
	}
	return waitAndReport(ctx, c, journal, resp.ExecutionID, flags)
}

func runGraph(ctx context.Context, c *client.Client, cfg config.Config, name string, inputs map[string]any, flags runFlags) error {
	resp, err := c.ExecuteGraph(ctx, name, api.ExecuteGraphRequest{
		Input: inputs,
		Async: flags.wait,
	})
	if err != nil {
		return err
	}

	// Synchronous graph execution returns the outputs directly.
	if resp.ExecutionID == "" {
		return printResult(resp)
	}

	log.Info().
		Str("graph", name).
		Str("execution_id", resp.ExecutionID).
		Msg("graph execution started")

	journal := openJournal(ctx, cfg, flags.noHistory)
	if journal != nil {
		defer journal.Close()
	}
	recordStart(ctx, journal, history.TargetKindGraph, name, resp.ExecutionID, inputs)

	if !flags.wait {
		return printResult(resp)
	}
	return waitAndReport(ctx, c, journal, resp.ExecutionID, flags)
}

// waitAndReport blocks until the execution terminates, updates the journal,
// and prints the final record.
func waitAndReport(ctx context.Context, c *client.Client, journal *history.Store, executionID string, flags runFlags) error {
	execution, err := c.WaitForExecution(ctx, executionID, client.WaitOptions{
		PollInterval: flags.pollInterval,
		MaxWait:      flags.maxWait,
		OnPoll: func(e *api.Execution) {
			log.Debug().
				Str("execution_id", e.ID).
				Str("status", string(e.Status)).
				Float64("progress", e.Progress).
				Msg("polled execution status")
		},
	})
	if err != nil {
		recordEnd(ctx, journal, executionID, history.RunStatusFailed, err.Error())
		return err
	}

	recordEnd(ctx, journal, executionID, history.RunStatusCompleted, "")
	return printResult(execution)
}

// openJournal opens the local history store, or returns nil when history is
// disabled. Journal failures are logged, never fatal: they must not fail a
// run that the server accepted.
func openJournal(ctx context.Context, cfg config.Config, noHistory bool) *history.Store {
	if noHistory || !cfg.History.Enabled {
		return nil
	}
	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		log.Warn().Err(err).Msg("history journal unavailable")
		return nil
	}
	if err := store.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("history journal unavailable")
		return nil
	}
	if err := store.Migrate(ctx); err != nil {
		log.Warn().Err(err).Msg("history journal migration failed")
		_ = store.Close()
		return nil
	}
	return store
}

func recordStart(ctx context.Context, journal *history.Store, kind history.TargetKind, name, executionID string, inputs map[string]any) {
	if journal == nil {
		return
	}
	encoded, err := json.Marshal(inputs)
	if err != nil {
		encoded = []byte("{}")
	}
	now := time.Now().UTC()
	err = journal.CreateRun(ctx, &history.Run{
		ID:          uuid.NewString(),
		TargetKind:  kind,
		TargetName:  name,
		ExecutionID: executionID,
		Status:      history.RunStatusSubmitted,
		Inputs:      string(encoded),
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to record run in history")
	}
}

func recordEnd(ctx context.Context, journal *history.Store, executionID string, status history.RunStatus, errMsg string) {
	if journal == nil {
		return
	}
	var msg *string
	if errMsg != "" {
		msg = &errMsg
	}
	if err := journal.UpdateRunStatusByExecutionID(ctx, executionID, status, msg); err != nil {
		log.Warn().Err(err).Msg("failed to update run history")
	}
}

// collectInputs merges the input file and --input-var pairs, pairs winning.
func collectInputs(inputFile string, inputVars []string) (map[string]any, error) {
	inputs := map[string]any{}

	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return nil, fmt.Errorf("read input file: %w", err)
		}
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, fmt.Errorf("parse input file %s: %w", inputFile, err)
		}
	}

	for _, pair := range inputVars {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --input-var %q, expected key=value", pair)
		}
		inputs[key] = coerceValue(value)
	}
	return inputs, nil
}

// coerceValue converts a flag value to a bool, number, or JSON structure
// when it parses as one, keeping it a string otherwise.
func coerceValue(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if strings.HasPrefix(value, "{") || strings.HasPrefix(value, "[") {
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			return parsed
		}
	}
	return value
}
