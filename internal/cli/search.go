package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/index"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var show int
	var categoryName string
	var fuzzy bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search formulae by name and description",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			if show < 0 {
				return fmt.Errorf("--show must not be negative, got %d", show)
			}

			category, err := domain.ParseCategory(categoryName)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a.updateOnLaunch(ctx)
			if err := a.refresh(ctx, categoriesFor(category)...); err != nil {
				return err
			}

			query := args[0]
			var results []domain.FormulaRecord
			if fuzzy {
				results = index.Rank(a.mgr.Category(category).Records, query)
			} else {
				results = index.ByRelevance(slices.Collect(a.mgr.Search(category, query)), query)
			}

			if len(results) == 0 {
				fmt.Fprintf(a.out, "%s No results found for %q\n", dim("○"), query)
				return nil
			}

			size := min(len(results), show)

			fmt.Fprintf(a.out, "\nShowing %s of %s results for %q\n\n", green(size), green(len(results)), query)

			for _, r := range results[:size] {
				printRecord(a.out, r)
				if r.Description != "" {
					fmt.Fprintf(a.out, "  %s %s\n", cyan("desc:"), r.Description)
				}
			}

			if len(results) > size {
				fmt.Fprintf(a.out, "\n%s %d more available, use %s to see all\n", dim("..."), len(results)-size, cyan(fmt.Sprintf("--show %d", len(results))))
			}

			return nil
		}),
	}

	cmd.Flags().IntVarP(&show, "show", "s", 50, "Shows first n formulae")
	cmd.Flags().StringVarP(&categoryName, "category", "c", "all", "Category to search")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Rank names by fuzzy match instead of substring")
	return cmd
}
