package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alchemiesofscent/recipe-aligner/internal/store"
	"github.com/alchemiesofscent/recipe-aligner/internal/textutil"
)

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	var threshold float64
	var language string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy-search ingredients by label, slug, or alias",
		Long: `Rank every ingredient against the query by edit-distance similarity,
case- and diacritic-insensitive, matching labels, slugs, and alias
variant labels. Scores are advisory; the operator decides whether a hit
denotes the same substance.`,
		Args:          cobra.ExactArgs(1),
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

			matches := st.RankSimilar(args[0], threshold)
			if formatter.JSON() {
				if len(matches) == 0 {
					return formatter.Success(map[string]any{
						"matches":        []store.Match{},
						"slug_candidate": textutil.SuggestSlug(args[0], language),
					})
				}
				return formatter.Success(matches)
			}
			if len(matches) == 0 {
				fmt.Fprintln(formatter.Writer, "no matches")
				if candidate := textutil.SuggestSlug(args[0], language); candidate != "" {
					fmt.Fprintf(formatter.Writer, "slug candidate for a new ingredient: %s\n", candidate)
				}
				return nil
			}
			for _, m := range matches {
				fmt.Fprintf(formatter.Writer, "%.2f  %s  %q", m.Score, m.Slug, m.Label)
				if m.Language != "" {
					fmt.Fprintf(formatter.Writer, " (%s)", m.Language)
				}
				fmt.Fprintf(formatter.Writer, "  via %s\n", m.MatchedVia)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0.6, "minimum similarity score")
	cmd.Flags().StringVar(&language, "language", "", "language code for the slug candidate on a miss")
	return cmd
}
