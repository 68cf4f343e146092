package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/alchemiesofscent/recipe-aligner/internal/dataset"
	"github.com/alchemiesofscent/recipe-aligner/internal/equiv"
	"github.com/alchemiesofscent/recipe-aligner/internal/schema"
)

// NewEquivCommand creates the equiv command group.
func NewEquivCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equiv",
		Short: "Maintain the semantic-equivalence index",
		Long: `Maintain the equivalence index: named groups of terms (slugs,
labels, alias variants) asserted to denote the same substance across
languages and sources.

Group edits are plain data changes; consistency with the canonical
store is checked only by 'equiv validate', because equivalence
judgments may legitimately precede the corresponding merge.`,
	}
	cmd.AddCommand(newEquivValidateCommand(rootOpts))
	cmd.AddCommand(newEquivSuggestCommand(rootOpts))
	cmd.AddCommand(newEquivListCommand(rootOpts))
	cmd.AddCommand(newEquivCreateCommand(rootOpts))
	cmd.AddCommand(newEquivAddCommand(rootOpts))
	return cmd
}

func loadIndex(opts *RootOptions) (*equiv.Index, string, error) {
	cfg, err := opts.workspace()
	if err != nil {
		return nil, "", err
	}
	ix, err := equiv.Load(cfg.Equivalences)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "cannot load equivalence index", err)
	}
	return ix, cfg.Equivalences, nil
}

func newEquivValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate",
		Short:         "Cross-check every group term against the store",
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
			ix, err := equiv.Load(cfg.Equivalences)
			if err != nil {
				return WrapExitError(ExitCommandError, "cannot load equivalence index", err)
			}

			problems := ix.Validate(st.AllTerms())
			if formatter.JSON() {
				status := "ok"
				if len(problems) > 0 {
					status = "error"
				}
				if err := formatter.encode(Response{Status: status, Data: problems}); err != nil {
					return err
				}
			} else if len(problems) == 0 {
				fmt.Fprintf(formatter.Writer, "all %d group(s) valid\n", ix.Len())
			} else {
				for _, p := range problems {
					fmt.Fprintf(formatter.Writer, "%s: term %q %s\n", p.Group, p.Term, p.Problem)
				}
			}
			if len(problems) > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d unresolved term(s)", len(problems)))
			}
			return nil
		},
	}
}

func newEquivSuggestCommand(rootOpts *RootOptions) *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "suggest <diff.json>",
		Short: "Suggest groups for a diff's new ingredients",
		Long: `For each ingredient a diff introduces, rank existing groups by exact
term overlap (case- and diacritic-insensitive). When no group overlaps,
fall back to fuzzy similarity and flag those candidates as tentative;
an empty result means a new group should be created.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			ix, _, err := loadIndex(rootOpts)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "cannot read diff", err)
			}
			if violations := schema.CheckShape(args[0], data); len(violations) > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("diff failed shape validation with %d violation(s)", len(violations)))
			}
			diff, err := dataset.ParseDiff(data)
			if err != nil {
				return WrapExitError(ExitCommandError, "cannot parse diff", err)
			}

			type suggestion struct {
				Slug       string                   `json:"slug"`
				Terms      []string                 `json:"terms"`
				Candidates []equiv.Candidate        `json:"candidates,omitempty"`
				Similar    []equiv.SimilarCandidate `json:"similar,omitempty"`
			}
			byIngredient := equiv.TermsFromDiff(diff)
			slugs := make([]string, 0, len(byIngredient))
			for slug := range byIngredient {
				slugs = append(slugs, slug)
			}
			sort.Strings(slugs)

			var suggestions []suggestion
			for _, slug := range slugs {
				terms := byIngredient[slug]
				s := suggestion{Slug: slug, Terms: terms}
				s.Candidates = ix.SuggestGroupFor(terms)
				if len(s.Candidates) == 0 {
					s.Similar = ix.SuggestSimilar(terms, threshold)
				}
				suggestions = append(suggestions, s)
			}

			if formatter.JSON() {
				return formatter.Success(suggestions)
			}
			for _, s := range suggestions {
				fmt.Fprintf(formatter.Writer, "%s (%d term(s))\n", s.Slug, len(s.Terms))
				switch {
				case len(s.Candidates) > 0:
					for _, c := range s.Candidates {
						fmt.Fprintf(formatter.Writer, "  add to %q (overlap %d: %v)\n", c.Group, c.Overlap, c.Matched)
					}
				case len(s.Similar) > 0:
					for _, c := range s.Similar {
						fmt.Fprintf(formatter.Writer, "  consider %q (%q ~ %q, %.2f)\n", c.Group, c.CandidateTerm, c.GroupTerm, c.Score)
					}
				default:
					fmt.Fprintln(formatter.Writer, "  no matching group; create a new one")
				}
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0.6, "similarity threshold for tentative matches")
	return cmd
}

func newEquivListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all groups and their terms",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			ix, _, err := loadIndex(rootOpts)
			if err != nil {
				return err
			}
			if formatter.JSON() {
				groups := map[string][]string{}
				for _, name := range ix.Groups() {
					terms, _ := ix.Terms(name)
					groups[name] = terms
				}
				return formatter.Success(groups)
			}
			for _, name := range ix.Groups() {
				terms, _ := ix.Terms(name)
				fmt.Fprintf(formatter.Writer, "%s (%d)\n", name, len(terms))
				for _, term := range terms {
					fmt.Fprintf(formatter.Writer, "  %s\n", term)
				}
			}
			return nil
		},
	}
}

func newEquivCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "create <group> <term>...",
		Short:         "Create a new equivalence group",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			ix, path, err := loadIndex(rootOpts)
			if err != nil {
				return err
			}
			if err := ix.CreateGroup(args[0], args[1:]); err != nil {
				return WrapExitError(ExitFailure, "create rejected", err)
			}
			if err := ix.Save(path); err != nil {
				return WrapExitError(ExitCommandError, "cannot save equivalence index", err)
			}
			if formatter.JSON() {
				return formatter.Success(map[string]any{"group": args[0], "terms": len(args) - 1})
			}
			fmt.Fprintf(formatter.Writer, "created %q with %d term(s)\n", args[0], len(args)-1)
			fmt.Fprintln(formatter.Writer, "run 'equiv validate' to cross-check against the store")
			return nil
		},
	}
}

func newEquivAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "add <group> <term>...",
		Short:         "Add terms to an existing group",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			ix, path, err := loadIndex(rootOpts)
			if err != nil {
				return err
			}
			if err := ix.AddTerms(args[0], args[1:]...); err != nil {
				return WrapExitError(ExitFailure, "add rejected", err)
			}
			if err := ix.Save(path); err != nil {
				return WrapExitError(ExitCommandError, "cannot save equivalence index", err)
			}
			if formatter.JSON() {
				return formatter.Success(map[string]any{"group": args[0], "terms": len(args) - 1})
			}
			fmt.Fprintf(formatter.Writer, "added %d term(s) to %q\n", len(args)-1, args[0])
			fmt.Fprintln(formatter.Writer, "run 'equiv validate' to cross-check against the store")
			return nil
		},
	}
}
