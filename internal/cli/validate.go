package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alchemiesofscent/recipe-aligner/internal/schema"
	"github.com/alchemiesofscent/recipe-aligner/internal/store"
)

// ValidationResult holds one file's validation outcome.
type ValidationResult struct {
	File       string             `json:"file"`
	Valid      bool               `json:"valid"`
	Violations []schema.Violation `json:"violations,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var standalone bool

	cmd := &cobra.Command{
		Use:   "validate <diff.json>...",
		Short: "Validate diff files without merging",
		Long: `Validate diff submissions: JSON shape against the diff schema, slug
uniqueness within each diff, and that every alias/entry reference
resolves against the diff or the canonical store.

Nothing is mutated and nothing is repaired; every violation is reported
with its document path so the author can fix the source diff.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, standalone, cmd)
		},
	}

	cmd.Flags().BoolVar(&standalone, "standalone", false, "skip store lookups; references must resolve within each diff")
	return cmd
}

func runValidate(opts *RootOptions, paths []string, standalone bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var resolver schema.Resolver
	if !standalone {
		cfg, err := opts.workspace()
		if err != nil {
			return err
		}
		st, err := opts.loadStore(cfg)
		if err != nil {
			return err
		}
		resolver = st
	}

	results := make([]ValidationResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		res := validateOne(path, resolver)
		if !res.Valid {
			failed++
		}
		results = append(results, res)
	}

	if formatter.JSON() {
		status := "ok"
		if failed > 0 {
			status = "error"
		}
		if err := formatter.encode(Response{Status: status, Data: results}); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Valid {
				fmt.Fprintf(formatter.Writer, "%s: ok\n", res.File)
				continue
			}
			fmt.Fprintf(formatter.Writer, "%s: %d violation(s)\n", res.File, len(res.Violations))
			for _, v := range res.Violations {
				fmt.Fprintf(formatter.Writer, "  %s\n", v.Error())
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d of %d file(s)", failed, len(paths)))
	}
	return nil
}

func validateOne(path string, resolver schema.Resolver) ValidationResult {
	logrus.WithField("diff", path).Debug("validating")
	data, err := os.ReadFile(path)
	if err != nil {
		return ValidationResult{File: path, Violations: []schema.Violation{{
			Message: err.Error(),
			Code:    schema.ErrNotJSON,
		}}}
	}
	_, violations, err := schema.Check(path, data, resolver)
	if err != nil {
		return ValidationResult{File: path, Violations: []schema.Violation{{
			Message: err.Error(),
			Code:    schema.ErrShape,
		}}}
	}
	return ValidationResult{File: path, Valid: len(violations) == 0, Violations: violations}
}

// storeValidationDetails renders a store merge VALIDATION error for the
// formatter's details field.
func storeValidationDetails(err *store.Error) any {
	if len(err.Violations) > 0 {
		return err.Violations
	}
	return nil
}
