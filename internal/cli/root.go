// Package cli implements the recipe-aligner command surface: validate,
// merge, remove, export, equivalence maintenance, fuzzy search, and
// dataset statistics. Commands load the store at the start of an
// operation and persist (or discard) it on every exit path; no state
// survives between invocations outside the documents themselves.
package cli

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alchemiesofscent/recipe-aligner/internal/config"
	"github.com/alchemiesofscent/recipe-aligner/internal/store"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath   string
	Master       string // overrides config when set
	Equivalences string // overrides config when set
	Actor        string // overrides config when set
	Format       string // "json" | "text"
	Verbose      bool

	configExplicit bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "recipe-aligner",
		Short: "Curate the historical recipe dataset",
		Long: `recipe-aligner maintains the canonical recipe/ingredient dataset:
it validates and merges slug-referenced diff submissions, reverses a
merge by provenance key, reconciles the equivalence index, and exports
the flattened view consumed by the read-only viewer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.configExplicit = cmd.Flags().Changed("config")
			logrus.SetOutput(cmd.ErrOrStderr())
			if opts.Verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultFile, "workspace config file")
	cmd.PersistentFlags().StringVar(&opts.Master, "master", "", "canonical store document (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Equivalences, "equivalences", "", "equivalence index document (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Actor, "actor", "", "name stamped on merges and removals (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose diagnostics on stderr")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewEquivCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

// workspace resolves the effective configuration: defaults, overlaid by
// the config file, overlaid by flags.
func (o *RootOptions) workspace() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath, o.configExplicit)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot load workspace config", err)
	}
	if o.Master != "" {
		cfg.Master = o.Master
	}
	if o.Equivalences != "" {
		cfg.Equivalences = o.Equivalences
	}
	if o.Actor != "" {
		cfg.Actor = o.Actor
	}
	return cfg, nil
}

// loadStore loads and integrity-checks the canonical store.
func (o *RootOptions) loadStore(cfg *config.Config) (*store.Store, error) {
	logrus.WithField("path", cfg.Master).Debug("loading canonical store")
	st, err := store.Load(cfg.Master)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot load canonical store", err)
	}
	doc := st.Document()
	logrus.WithFields(logrus.Fields{
		"recipes":     len(doc.Recipes),
		"ingredients": len(doc.Ingredients),
		"aliases":     len(doc.Aliases),
		"entries":     len(doc.Entries),
	}).Debug("store loaded")
	return st, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
