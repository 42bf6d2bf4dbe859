package cli

import (
	"github.com/spf13/cobra"

	"github.com/teamcutter/linebrew/internal/domain"
)

// newClassCmd builds a command for a class that takes no target.
func newClassCmd(opts *rootOptions, class domain.CommandClass, short string) *cobra.Command {
	return &cobra.Command{
		Use:   class.String(),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			return a.perform(cmd.Context(), class, nil)
		}),
	}
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	return newClassCmd(opts, domain.ClassUpdate, "Fetch the newest Homebrew and formula definitions")
}

func newCleanupCmd(opts *rootOptions) *cobra.Command {
	return newClassCmd(opts, domain.ClassCleanup, "Remove old versions and stale downloads")
}

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	return newClassCmd(opts, domain.ClassDoctor, "Check the Homebrew installation for problems")
}
