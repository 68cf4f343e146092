package cli

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alchemiesofscent/recipe-aligner/internal/store"
)

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "remove <provenance-key>",
		Short: "Reverse a previously merged diff",
		Long: `Remove exactly the entities a merge introduced, identified by its
provenance key (the --source given at merge time).

Entities still referenced by other merges survive: an ingredient this
diff introduced that a later diff's entries cite is retained, along with
its aliases, and stays removable through that later diff. Freed ids are
never reallocated. A removal note is appended to the audit trail.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(rootOpts, args[0], reason, cmd)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "note recorded on the audit trail")
	return cmd
}

func runRemove(opts *RootOptions, key, reason string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.workspace()
	if err != nil {
		return err
	}
	st, err := opts.loadStore(cfg)
	if err != nil {
		return err
	}

	result, err := st.Remove(key, reason, store.RemoveOptions{Actor: cfg.Actor})
	if err != nil {
		var se *store.Error
		if errors.As(err, &se) && se.Code == store.ErrCodeUnknownProvenance {
			_ = formatter.Error(string(se.Code), se.Message, se.Key)
			return WrapExitError(ExitFailure, "remove rejected", err)
		}
		return WrapExitError(ExitCommandError, "remove failed", err)
	}

	if err := st.Save(); err != nil {
		return WrapExitError(ExitCommandError, "removal applied but store could not be persisted", err)
	}
	logrus.WithField("key", key).Debug("removal persisted")

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "removed %q\n", key)
	fmt.Fprintf(formatter.Writer, "  removed: %d entries, %d aliases, %d ingredients, %d recipes\n",
		result.EntriesRemoved, result.AliasesRemoved, result.IngredientsRemoved, result.RecipesRemoved)
	if result.IngredientsRetained+result.RecipesRetained > 0 {
		fmt.Fprintf(formatter.Writer, "  retained (still referenced elsewhere): %d ingredients, %d recipes\n",
			result.IngredientsRetained, result.RecipesRetained)
	}
	return nil
}
