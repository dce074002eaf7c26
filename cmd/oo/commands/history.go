package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ouroboros-ai/ouroboros-go/pkg/history"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the local run journal",
		Long: `Inspect the local run journal.

Every run started through this CLI is recorded in a local SQLite
database, independent of the server. These commands read and prune
that journal; they never contact the API.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			return withJournal(cmd.Context(), func(ctx context.Context, store *history.Store) error {
				runs, err := store.ListRuns(ctx, limit, offset)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printResult(runs)
				}
				for _, run := range runs {
					fmt.Printf("  %-38s %-8s %-30s %-10s %s\n",
						run.ID, run.TargetKind, run.TargetName, run.Status,
						run.StartedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			})
		},
	}
	listCmd.Flags().Int("limit", 20, "maximum runs to show")
	listCmd.Flags().Int("offset", 0, "pagination offset")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(cmd.Context(), func(ctx context.Context, store *history.Store) error {
				run, err := store.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				return printResult(run)
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(cmd.Context(), func(ctx context.Context, store *history.Store) error {
				if err := store.DeleteRun(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("deleted run %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}

// withJournal opens the journal, runs fn, and closes it. Unlike the run
// command, a missing or broken journal is fatal here: the journal is the
// subject of the command, not a side effect.
func withJournal(ctx context.Context, fn func(context.Context, *history.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled in configuration")
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return fn(ctx, store)
}
