package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/linebrew/internal/domain"
)

func newUpgradeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade [formula...]",
		Short: "Upgrade outdated formulae",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			if err := a.refresh(ctx, domain.CategoryOutdated); err != nil {
				return err
			}

			outdated := a.mgr.Category(domain.CategoryOutdated).Records
			if len(outdated) == 0 {
				fmt.Fprintf(a.out, "%s Everything is up-to-date\n", dim("○"))
				return nil
			}

			fmt.Fprintf(a.out, "%s\n\n", bold("Outdated formulae:"))
			for _, r := range outdated {
				printRecord(a.out, r)
			}
			fmt.Fprintln(a.out)

			// No names upgrades everything in a single invocation.
			err := a.perform(ctx, domain.ClassUpgrade, args)
			if rerr := a.refreshStale(ctx); rerr != nil {
				logWarn("Refresh after upgrade failed: %v", rerr)
				return err
			}

			if left := a.mgr.Category(domain.CategoryOutdated).Records; len(left) > 0 {
				fmt.Fprintf(a.out, "%s %d formulae still outdated\n", yellow("!"), len(left))
			}
			return err
		}),
	}

	return cmd
}
