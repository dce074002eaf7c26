package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ouroboros-ai/ouroboros-go/pkg/client"
)

func newWorkspaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Inspect service workspaces",
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show workspace directory layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			info, err := c.GetWorkspaceInfo(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(info)
		},
	}

	filesCmd := &cobra.Command{
		Use:   "files [workspace]",
		Short: "List files in a workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			workspace := ""
			if len(args) == 1 {
				workspace = args[0]
			}
			directory, _ := cmd.Flags().GetString("directory")
			extension, _ := cmd.Flags().GetString("extension")
			list, err := c.ListWorkspaceFiles(cmd.Context(), workspace, client.ListWorkspaceFilesOptions{
				Directory: directory,
				Extension: extension,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printResult(list)
			}
			for _, f := range list.Files {
				fmt.Printf("  %10d  %s\n", f.Size, f.Path)
			}
			return nil
		},
	}
	filesCmd.Flags().String("directory", "", "filter by subdirectory")
	filesCmd.Flags().String("extension", "", "filter by file extension")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the service workspace configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			cfg, err := c.GetWorkspaceConfig(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cfg)
		},
	}

	cmd.AddCommand(infoCmd, filesCmd, configCmd)
	return cmd
}
