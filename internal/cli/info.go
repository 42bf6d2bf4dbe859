package cli

import (
	"github.com/spf13/cobra"
)

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <formula>",
		Short: "Show details of a formula",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			stop := withSpinner(cmd.Context(), "Looking up "+args[0]+"...")
			rec, err := a.mgr.Info(cmd.Context(), args[0])
			stop()
			if err != nil {
				return err
			}

			printDetail(a.out, rec)
			return nil
		}),
	}
}
