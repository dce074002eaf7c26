package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ouroboros-ai/ouroboros-go/pkg/client"
	"github.com/ouroboros-ai/ouroboros-go/pkg/config"
)

var (
	// Global flags
	apiURL     string
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oo",
		Short: "Ouroboros - unified workflow and graph execution runner",
		Long: `oo drives the Ouroboros Compute API: discover workflows and graphs,
execute them with inputs from flags or JSON files, follow executions to
completion, and inspect executions, steps, MCP tools, and workspaces.

The API address resolves from --api-url, the OO_API_URL environment
variable, or the config file, in that order of precedence.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "base URL of the compute API (default http://localhost:5001)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newHealthCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newDescribeCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newExecutionsCommand())
	rootCmd.AddCommand(newStepExecutionsCommand())
	rootCmd.AddCommand(newMCPCommand())
	rootCmd.AddCommand(newWorkspaceCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

// loadConfig resolves the layered configuration and applies the --api-url
// flag override.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	return cfg, nil
}

// newAPIClient builds the API client from the resolved configuration.
// Callers with extra wiring needs (the run command hands in a tracer)
// append their own options.
func newAPIClient(extra ...client.Option) (*client.Client, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}

	opts := []client.Option{
		client.WithTimeout(cfg.API.Timeout.Std()),
		client.WithMaxRetries(cfg.API.MaxRetries),
	}
	if verbose {
		opts = append(opts, client.WithLogger(log.Logger.Level(zerolog.DebugLevel)))
	}
	opts = append(opts, extra...)

	c, err := client.New(cfg.API.BaseURL, opts...)
	if err != nil {
		return nil, config.Config{}, err
	}
	return c, cfg, nil
}

// printResult writes v as indented JSON to stdout. Human-oriented commands
// print their own summaries and call this only under --json.
func printResult(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
