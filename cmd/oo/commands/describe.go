package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDescribeCommand() *cobra.Command {
	var (
		showSchema bool
		showSteps  bool
	)

	cmd := &cobra.Command{
		Use:       "describe <workflow|graph> <name>",
		Short:     "Show details of a workflow or graph",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"workflow", "graph"},
		Example: `  # Show a workflow definition
  oo describe workflow business-plan-optimization

  # Include the input schema and steps
  oo describe workflow business-plan-optimization --schema --steps

  # Show a graph definition
  oo describe graph complexity_level_1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			kind, name := args[0], args[1]

			switch kind {
			case "workflow":
				workflow, err := c.GetWorkflow(ctx, name)
				if err != nil {
					return err
				}
				result := map[string]any{"workflow": workflow}

				if showSchema {
					schema, err := c.GetWorkflowInputSchema(ctx, name)
					if err != nil {
						return err
					}
					result["input_schema"] = schema
				}
				if showSteps {
					steps, err := c.GetWorkflowSteps(ctx, name)
					if err != nil {
						return err
					}
					result["steps"] = steps
				}

				if jsonOutput {
					return printResult(result)
				}
				fmt.Printf("workflow: %s (%s)\n", workflow.Slug, workflow.Version)
				fmt.Printf("  %s\n", workflow.Description)
				if showSchema {
					schema := result["input_schema"]
					if err := printResult(schema); err != nil {
						return err
					}
				}
				if showSteps {
					if err := printResult(result["steps"]); err != nil {
						return err
					}
				}
				return nil

			case "graph":
				graph, err := c.GetGraph(ctx, name)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printResult(graph)
				}
				fmt.Printf("graph: %s\n", graph.Name)
				fmt.Printf("  %s\n", graph.Description)
				for _, node := range graph.Nodes {
					fmt.Printf("  node: %s\n", node)
				}
				return nil

			default:
				return fmt.Errorf("unknown target kind %q, expected workflow or graph", kind)
			}
		},
	}

	cmd.Flags().BoolVar(&showSchema, "schema", false, "include the workflow input schema")
	cmd.Flags().BoolVar(&showSteps, "steps", false, "include the workflow steps")

	return cmd
}
