package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
	"github.com/ouroboros-ai/ouroboros-go/pkg/client"
)

func newExecutionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "executions",
		Aliases: []string{"exec"},
		Short:   "Inspect and manage executions",
	}

	cmd.AddCommand(newExecutionsListCommand())
	cmd.AddCommand(newExecutionsGetCommand())
	cmd.AddCommand(newExecutionsEventsCommand())
	cmd.AddCommand(newExecutionsStepsCommand())
	cmd.AddCommand(newExecutionsCancelCommand())

	return cmd
}

func newExecutionsListCommand() *cobra.Command {
	var (
		workflowSlug string
		status       string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			list, err := c.ListExecutions(cmd.Context(), client.ListExecutionsOptions{
				WorkflowSlug: workflowSlug,
				Status:       api.ExecutionStatus(status),
				Limit:        limit,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printResult(list)
			}
			fmt.Printf("%d execution(s):\n", list.Total)
			for _, e := range list.Executions {
				fmt.Printf("  %-30s %-30s %s\n", e.ID, e.WorkflowSlug, e.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workflowSlug, "workflow", "", "filter by workflow slug")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results")

	return cmd
}

func newExecutionsGetCommand() *cobra.Command {
	var info bool

	cmd := &cobra.Command{
		Use:   "get <execution-id>",
		Short: "Show the status of an execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			var execution *api.Execution
			if info {
				execution, err = c.GetExecutionInfo(cmd.Context(), args[0])
			} else {
				execution, err = c.GetExecutionStatus(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printResult(execution)
		},
	}

	cmd.Flags().BoolVar(&info, "info", false, "fetch the detailed execution record")

	return cmd
}

func newExecutionsEventsCommand() *cobra.Command {
	var (
		eventType string
		limit     int
		offset    int
	)

	cmd := &cobra.Command{
		Use:   "events <execution-id>",
		Short: "Show lifecycle events of an execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			events, err := c.GetExecutionEvents(cmd.Context(), args[0], client.ExecutionEventsOptions{
				EventType: eventType,
				Limit:     limit,
				Offset:    offset,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printResult(events)
			}
			for _, e := range events.Events {
				fmt.Printf("  %-25s %s\n", e.EventType, e.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&eventType, "type", "", "filter by event type")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum events")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")

	return cmd
}

func newExecutionsStepsCommand() *cobra.Command {
	var nodes bool

	cmd := &cobra.Command{
		Use:   "steps <execution-id>",
		Short: "Show step-level details of an execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			if nodes {
				list, err := c.GetExecutionNodeExecutions(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printResult(list)
			}
			list, err := c.GetExecutionSteps(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printResult(list)
			}
			for _, s := range list.StepExecutions {
				fmt.Printf("  %2d %-30s %s\n", s.StepNumber, s.StepName, s.Status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&nodes, "nodes", false, "show graph-node executions instead of steps")

	return cmd
}

func newExecutionsCancelCommand() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "cancel <execution-id>",
		Short: "Cancel a running execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := c.CancelExecution(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			return printResult(resp)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason; requests a graceful stop")

	return cmd
}

func newStepExecutionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step-executions",
		Short: "Inspect and manage step executions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List step executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			executionID, _ := cmd.Flags().GetString("execution")
			list, err := c.ListStepExecutions(cmd.Context(), client.ListStepExecutionsOptions{
				ExecutionID: executionID,
			})
			if err != nil {
				return err
			}
			return printResult(list)
		},
	}
	listCmd.Flags().String("execution", "", "filter by execution id")

	getCmd := &cobra.Command{
		Use:   "get <step-execution-id>",
		Short: "Show one step execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			step, err := c.GetStepExecution(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(step)
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel <step-execution-id>",
		Short: "Cancel a running step execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := c.CancelStepExecution(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(resp)
		},
	}

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show aggregated step execution metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			workflowSlug, _ := cmd.Flags().GetString("workflow")
			metrics, err := c.GetStepExecutionMetrics(cmd.Context(), client.StepExecutionMetricsOptions{
				WorkflowSlug: workflowSlug,
			})
			if err != nil {
				return err
			}
			return printResult(metrics)
		},
	}
	metricsCmd.Flags().String("workflow", "", "filter by workflow slug")

	cmd.AddCommand(listCmd, getCmd, cancelCmd, metricsCmd)
	return cmd
}
