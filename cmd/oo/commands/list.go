package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ouroboros-ai/ouroboros-go/pkg/client"
)

func newListCommand() *cobra.Command {
	var (
		category string
		tags     []string
		search   string
		status   string
		limit    int
		offset   int
	)

	cmd := &cobra.Command{
		Use:       "list <workflows|graphs>",
		Short:     "List available workflows or graphs",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"workflows", "graphs"},
		Example: `  # List active workflows
  oo list workflows

  # Search workflows by text and tag
  oo list workflows --search optimization --tag finance

  # List graphs in a category
  oo list graphs --category reasoning`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			switch args[0] {
			case "workflows":
				list, err := c.ListWorkflows(ctx, client.ListWorkflowsOptions{
					Category: category,
					Tags:     tags,
					Search:   search,
					Status:   status,
					Limit:    limit,
					Offset:   offset,
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					return printResult(list)
				}
				fmt.Printf("%d workflow(s):\n", list.Total)
				for _, w := range list.Workflows {
					fmt.Printf("  %-40s %s\n", w.Slug, w.Description)
				}
				return nil

			case "graphs":
				list, err := c.ListGraphs(ctx, client.ListGraphsOptions{
					Category: category,
					Tags:     tags,
					Limit:    limit,
					Offset:   offset,
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					return printResult(list)
				}
				fmt.Printf("%d graph(s):\n", list.Total)
				for _, g := range list.Graphs {
					fmt.Printf("  %-40s %s\n", g.Name, g.Description)
				}
				return nil

			default:
				return fmt.Errorf("unknown target type %q, expected workflows or graphs", args[0])
			}
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "filter by tag (repeatable)")
	cmd.Flags().StringVar(&search, "search", "", "search names and descriptions (workflows only)")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (workflows only)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")

	return cmd
}
