package cmd

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/bookfinder/internal/models"
	"github.com/lehigh-university-libraries/bookfinder/internal/resolve"
	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	var category, sortFlag, output string

	cmd := &cobra.Command{
		Use:   "search <title or author>",
		Short: "Search for books by title or author",
		Long: `Sends the text as a single query to the lookup service. Results are capped
at 30 and sorted by first publish year, newest first unless --sort says
otherwise.`,
		Example: `  bookfinder search the hobbit
  bookfinder search --category fantasy --sort oldest tolkien
  bookfinder search -o json "ursula le guin"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			order, err := models.ParseSortOrder(sortFlag, models.SortNewest)
			if err != nil {
				return err
			}

			svc, err := a.service()
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			rs, err := svc.Resolver.FromQuery(cmd.Context(), query, models.NormalizeCategory(category), order)
			if err != nil {
				return userError(err)
			}

			return writeResults(cmd.OutOrStdout(), output, resultOutput{
				Query: strings.TrimSpace(query),
				Books: models.NewBookViews(rs, svc.Config.Catalog.CoversURL, svc.Config.Catalog.PlaceholderURL),
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", models.CategoryAll,
		fmt.Sprintf("Subject filter (%s)", strings.Join(models.Categories, ", ")))
	cmd.Flags().StringVarP(&sortFlag, "sort", "s", string(models.SortNewest), "Sort by publish year: newest, oldest or none")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")

	return cmd
}

// userError keeps the cause for --verbose readers but leads with the message
// a user would see in the web interface
func userError(err error) error {
	return fmt.Errorf("%s (%w)", resolve.UserMessage(err), err)
}
