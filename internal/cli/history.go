package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/history"
)

var errNoHistory = errors.New("job history is disabled (history_db is empty)")

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished operations",
	}

	listCmd := newHistoryListCmd(opts)
	cmd.RunE = listCmd.RunE
	cmd.Flags().AddFlagSet(listCmd.Flags())

	cmd.AddCommand(listCmd, newHistoryShowCmd(opts), newHistoryPruneCmd(opts))
	return cmd
}

func newHistoryListCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent operations",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			if a.store == nil {
				return errNoHistory
			}

			records, err := a.store.List(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(a.out, "%s No operations recorded\n", dim("○"))
				return nil
			}

			for _, r := range records {
				fmt.Fprintf(a.out, "%s %s %s %s\n",
					stateMark(r.State),
					dim(shortID(r.ID)),
					bold(describeRecord(r)),
					dim(r.FinishedAt.Local().Format(time.DateTime)))
			}
			return nil
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of operations to show (0 for all)")
	return cmd
}

func newHistoryShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the output of an operation",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			if a.store == nil {
				return errNoHistory
			}

			r, err := a.store.Get(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s %s\n", stateMark(r.State), bold(describeRecord(r)))
			fmt.Fprintf(a.out, "  %s %s\n", cyan("id:"), r.ID)
			fmt.Fprintf(a.out, "  %s %s %d\n", cyan("state:"), r.State, r.Code)
			fmt.Fprintf(a.out, "  %s %s\n", cyan("started:"), r.SubmittedAt.Local().Format(time.DateTime))
			fmt.Fprintf(a.out, "  %s %s\n", cyan("took:"), r.FinishedAt.Sub(r.SubmittedAt).Round(time.Millisecond))
			fmt.Fprintln(a.out)
			for _, line := range r.Output {
				fmt.Fprintln(a.out, line)
			}
			return nil
		}),
	}
}

func newHistoryPruneCmd(opts *rootOptions) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest operations",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			if a.store == nil {
				return errNoHistory
			}
			if !cmd.Flags().Changed("keep") {
				keep = a.cfg.HistoryKeep
			}

			n, err := a.store.Prune(keep)
			if err != nil {
				return fmt.Errorf("failed to prune history: %w", err)
			}
			fmt.Fprintf(a.out, "%s %d operation(s) removed\n", green("✓"), n)
			return nil
		}),
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Number of operations to keep (default history_keep)")
	return cmd
}

func stateMark(state string) string {
	switch state {
	case domain.JobSucceeded.String():
		return green("✓")
	case domain.JobCancelled.String():
		return yellow("!")
	default:
		return red("✗")
	}
}

func describeRecord(r *history.Record) string {
	if r.Target == "" {
		return r.Class
	}
	return r.Class + " " + r.Target
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
