package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var topN int

	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Summarize the dataset",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			cfg, err := rootOpts.workspace()
			if err != nil {
				return err
			}
			st, err := rootOpts.loadStore(cfg)
			if err != nil {
				return err
			}

			stats := st.Stats(topN)
			if formatter.JSON() {
				return formatter.Success(stats)
			}

			fmt.Fprintf(formatter.Writer, "recipes:      %d\n", stats.Recipes)
			fmt.Fprintf(formatter.Writer, "ingredients:  %d\n", stats.Ingredients)
			fmt.Fprintf(formatter.Writer, "aliases:      %d\n", stats.Aliases)
			fmt.Fprintf(formatter.Writer, "entries:      %d\n", stats.Entries)
			fmt.Fprintf(formatter.Writer, "provenances:  %d\n", stats.Provenances)
			fmt.Fprintf(formatter.Writer, "removals:     %d\n", stats.Removals)

			if len(stats.IngredientsByLanguage) > 0 {
				fmt.Fprintln(formatter.Writer, "ingredients by language:")
				langs := make([]string, 0, len(stats.IngredientsByLanguage))
				for lang := range stats.IngredientsByLanguage {
					langs = append(langs, lang)
				}
				sort.Strings(langs)
				for _, lang := range langs {
					fmt.Fprintf(formatter.Writer, "  %s: %d\n", lang, stats.IngredientsByLanguage[lang])
				}
			}
			if len(stats.TopIngredients) > 0 {
				fmt.Fprintln(formatter.Writer, "most cited ingredients:")
				for _, u := range stats.TopIngredients {
					fmt.Fprintf(formatter.Writer, "  %s (%s): %d entries\n", u.Slug, u.Label, u.Entries)
				}
			}
			if len(stats.LargestRecipes) > 0 {
				fmt.Fprintln(formatter.Writer, "largest recipes:")
				for _, u := range stats.LargestRecipes {
					fmt.Fprintf(formatter.Writer, "  %s (%s): %d entries\n", u.Slug, u.Label, u.Entries)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topN, "top", 10, "size of the usage rankings")
	return cmd
}
