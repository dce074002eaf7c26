package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMCPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Inspect MCP servers and execute tools",
	}

	serversCmd := &cobra.Command{
		Use:   "servers",
		Short: "List configured MCP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			list, err := c.ListMCPServers(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printResult(list)
			}
			for _, s := range list.MCPServers {
				state := "disconnected"
				if s.Connected {
					state = "connected"
				}
				fmt.Printf("  %-25s %-12s %s\n", s.Name, state, s.Description)
			}
			return nil
		},
	}

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List tools exposed by MCP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			server, _ := cmd.Flags().GetString("server")
			list, err := c.ListMCPTools(cmd.Context(), server)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printResult(list)
			}
			for _, t := range list.Tools {
				fmt.Printf("  %-40s %-20s %s\n", t.ID, t.Server, t.Description)
			}
			return nil
		},
	}
	toolsCmd.Flags().String("server", "", "filter by MCP server name")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show MCP server connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			status, err := c.GetMCPStatus(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(status)
		},
	}

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show MCP integration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			settings, err := c.GetMCPSettings(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(settings)
		},
	}

	execCmd := &cobra.Command{
		Use:     "exec <tool-id>",
		Short:   "Execute one MCP tool directly",
		Args:    cobra.ExactArgs(1),
		Example: `  oo mcp exec search.web --input-var query="golang retry patterns"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			inputFile, _ := cmd.Flags().GetString("input")
			inputVars, _ := cmd.Flags().GetStringSlice("input-var")
			input, err := collectInputs(inputFile, inputVars)
			if err != nil {
				return err
			}
			result, err := c.ExecuteMCPTool(cmd.Context(), args[0], input, nil)
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}
	execCmd.Flags().StringP("input", "i", "", "JSON file with tool input")
	execCmd.Flags().StringSlice("input-var", nil, "tool input as key=value (repeatable)")

	cmd.AddCommand(serversCmd, toolsCmd, statusCmd, settingsCmd, execCmd)
	return cmd
}
