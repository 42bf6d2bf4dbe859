package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/linebrew/internal/domain"
)

func newUninstallCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:     "uninstall <formula>...",
		Aliases: []string{"remove", "rm"},
		Short:   "Uninstall formulae",
		Args:    cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			if err := a.refresh(ctx, domain.CategoryInstalled); err != nil {
				return err
			}

			installed := make(map[string]bool)
			for _, r := range a.mgr.Category(domain.CategoryInstalled).Records {
				installed[r.Name] = true
			}

			for _, name := range args {
				if !installed[name] {
					fmt.Fprintf(a.out, "%s %s is not installed\n", yellow("!"), bold(name))
				}
			}

			if dryRun {
				fmt.Fprintf(a.out, "Would uninstall %d formula(e)\n", len(args))
				return nil
			}

			err := a.perform(ctx, domain.ClassUninstall, args)
			if rerr := a.refreshStale(ctx); rerr != nil {
				logWarn("Refresh after uninstall failed: %v", rerr)
				return err
			}
			fmt.Fprintf(a.out, "%s %d formulae installed\n", dim("○"),
				len(a.mgr.Category(domain.CategoryInstalled).Records))
			return err
		}),
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only report what would be uninstalled")
	return cmd
}
