package cli

import (
	"github.com/spf13/cobra"

	"github.com/teamcutter/linebrew/internal/domain"
)

// newTargetCmd builds a command that runs class once per named target.
// Distinct targets run concurrently.
func newTargetCmd(opts *rootOptions, class domain.CommandClass, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			err := a.perform(cmd.Context(), class, args)
			if rerr := a.refreshStale(cmd.Context()); rerr != nil {
				logWarn("Refresh after %s failed: %v", class, rerr)
			}
			return err
		}),
	}
}

func newInstallCmd(opts *rootOptions) *cobra.Command {
	return newTargetCmd(opts, domain.ClassInstall, "install <formula>...", "Install formulae")
}

func newPinCmd(opts *rootOptions) *cobra.Command {
	return newTargetCmd(opts, domain.ClassPin, "pin <formula>...", "Exclude formulae from upgrades")
}

func newUnpinCmd(opts *rootOptions) *cobra.Command {
	return newTargetCmd(opts, domain.ClassUnpin, "unpin <formula>...", "Allow pinned formulae to be upgraded again")
}

func newTapCmd(opts *rootOptions) *cobra.Command {
	return newTargetCmd(opts, domain.ClassTap, "tap <user/repo>...", "Add formula repositories")
}

func newUntapCmd(opts *rootOptions) *cobra.Command {
	return newTargetCmd(opts, domain.ClassUntap, "untap <user/repo>...", "Remove formula repositories")
}
