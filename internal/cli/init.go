package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alchemiesofscent/recipe-aligner/internal/equiv"
	"github.com/alchemiesofscent/recipe-aligner/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an empty workspace",
		Long: `Write an empty canonical store and an empty equivalence index at the
configured paths. Existing documents are left untouched unless --force
is given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			cfg, err := rootOpts.workspace()
			if err != nil {
				return err
			}

			wroteMaster, err := initMaster(cfg.Master, force)
			if err != nil {
				return WrapExitError(ExitCommandError, "init failed", err)
			}
			wroteEquiv, err := initEquivalences(cfg.Equivalences, force)
			if err != nil {
				return WrapExitError(ExitCommandError, "init failed", err)
			}

			if formatter.JSON() {
				return formatter.Success(map[string]any{
					"master":               cfg.Master,
					"master_written":       wroteMaster,
					"equivalences":         cfg.Equivalences,
					"equivalences_written": wroteEquiv,
				})
			}
			report := func(path string, wrote bool) {
				if wrote {
					fmt.Fprintf(formatter.Writer, "wrote %s\n", path)
				} else {
					fmt.Fprintf(formatter.Writer, "kept existing %s\n", path)
				}
			}
			report(cfg.Master, wroteMaster)
			report(cfg.Equivalences, wroteEquiv)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing documents")
	return cmd
}

func initMaster(path string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	return true, store.New().SaveTo(path)
}

func initEquivalences(path string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	return true, equiv.New().Save(path)
}
