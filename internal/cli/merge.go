package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alchemiesofscent/recipe-aligner/internal/schema"
	"github.com/alchemiesofscent/recipe-aligner/internal/store"
)

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	var source string
	var allowRestated bool

	cmd := &cobra.Command{
		Use:   "merge <diff.json>",
		Short: "Validate and merge a diff into the canonical store",
		Long: `Merge a diff submission into the canonical store.

The diff is validated first; on any violation nothing is merged. New
recipes and ingredients get freshly allocated ids, restated ingredients
reuse their existing id, duplicate aliases are suppressed, and entries
are inserted unconditionally. The merge is recorded under a provenance
key (--source, defaulting to the diff file name) so it can be reversed
later with 'remove'.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(rootOpts, args[0], source, allowRestated, cmd)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "provenance key for this merge (default: diff file name)")
	cmd.Flags().BoolVar(&allowRestated, "allow-restated", false, "permit identical re-declaration of an existing recipe")
	return cmd
}

func runMerge(opts *RootOptions, diffPath, source string, allowRestated bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.workspace()
	if err != nil {
		return err
	}
	st, err := opts.loadStore(cfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(diffPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot read diff", err)
	}
	diff, violations, err := schema.Check(diffPath, data, st)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot validate diff", err)
	}
	if len(violations) > 0 {
		_ = formatter.Error(string(store.ErrCodeValidation), fmt.Sprintf("%s failed validation", diffPath), violations)
		if !formatter.JSON() {
			for _, v := range violations {
				fmt.Fprintf(formatter.Writer, "  %s\n", v.Error())
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d violation(s)", len(violations)))
	}

	if source == "" {
		source = strings.TrimSuffix(filepath.Base(diffPath), filepath.Ext(diffPath))
	}

	result, err := st.Merge(diff, source, store.MergeOptions{
		Actor:         cfg.Actor,
		AllowRestated: allowRestated,
	})
	if err != nil {
		return mergeFailure(formatter, err)
	}

	if err := st.Save(); err != nil {
		return WrapExitError(ExitCommandError, "merge applied but store could not be persisted", err)
	}
	logrus.WithField("source", result.Source).Debug("merge persisted")

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "merged %s as %q\n", diffPath, result.Source)
	fmt.Fprintf(formatter.Writer, "  added: %d recipes, %d ingredients, %d aliases, %d entries\n",
		result.RecipesAdded, result.IngredientsAdded, result.AliasesAdded, result.EntriesAdded)
	if result.IngredientsReused+result.AliasesSkipped+result.RecipesRestated > 0 {
		fmt.Fprintf(formatter.Writer, "  reused: %d ingredients; skipped: %d aliases; restated: %d recipes\n",
			result.IngredientsReused, result.AliasesSkipped, result.RecipesRestated)
	}
	for _, conflict := range result.LabelConflicts {
		fmt.Fprintf(formatter.Writer, "  label conflict: %s\n", conflict)
	}
	return nil
}

func mergeFailure(formatter *OutputFormatter, err error) error {
	var se *store.Error
	if errors.As(err, &se) {
		_ = formatter.Error(string(se.Code), se.Message, storeValidationDetails(se))
		if !formatter.JSON() {
			for _, v := range se.Violations {
				fmt.Fprintf(formatter.Writer, "  %s\n", v.Error())
			}
		}
		return WrapExitError(ExitFailure, "merge rejected", err)
	}
	return WrapExitError(ExitCommandError, "merge failed", err)
}
