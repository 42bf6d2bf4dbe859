package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/index"
	"github.com/teamcutter/linebrew/internal/manager"
)

// categoriesFor returns what has to be loaded to show category: the category
// itself and the ones overlaid onto it.
func categoriesFor(category domain.Category) []domain.Category {
	return append([]domain.Category{category}, manager.Layers(category)...)
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:       "list [installed|outdated|all|leaves|pinned|taps]",
		Short:     "List formulae in a category",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"installed", "outdated", "all", "leaves", "pinned", "taps"},
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			name := a.cfg.DefaultCategory
			if len(args) == 1 {
				name = args[0]
			}
			category, err := domain.ParseCategory(name)
			if err != nil {
				return err
			}
			key, err := index.ParseSortKey(sortBy)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a.updateOnLaunch(ctx)
			if err := a.refresh(ctx, categoriesFor(category)...); err != nil {
				return err
			}

			entry := a.mgr.Category(category)

			if category == domain.CategoryTaps {
				if len(entry.Taps) == 0 {
					fmt.Fprintf(a.out, "%s No taps\n", dim("○"))
					return nil
				}
				fmt.Fprintf(a.out, "%s\n\n", bold("Taps:"))
				for _, t := range entry.Taps {
					fmt.Fprintf(a.out, " %s\n", bold(t))
				}
				printWarnings(a.out, entry.Warnings)
				return nil
			}

			if len(entry.Records) == 0 {
				fmt.Fprintf(a.out, "%s No %s formulae\n", dim("○"), category)
				printWarnings(a.out, entry.Warnings)
				return nil
			}

			fmt.Fprintf(a.out, "%s %s\n\n", bold(fmt.Sprintf("%d %s formulae", len(entry.Records), category)),
				dim("(by "+key.String()+")"))
			for _, r := range a.mgr.Sort(entry.Records, key) {
				printRecord(a.out, r)
			}
			printWarnings(a.out, entry.Warnings)
			return nil
		}),
	}

	cmd.Flags().StringVar(&sortBy, "sort", "name", "Sort by name or status")
	return cmd
}
