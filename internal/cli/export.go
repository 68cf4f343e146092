package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alchemiesofscent/recipe-aligner/internal/export"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var out string
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the flattened, label-resolved view",
		Long: `Project the canonical store into the denormalized view consumed by
the read-only viewer: one row per entry with the recipe and ingredient
resolved to labels, ordered by recipe id then entry id. The projection
is deterministic: the same store state always produces the same rows.

With --sqlite, additionally write a SQLite database carrying the
normalized tables and a flat_entries view.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, out, sqlitePath, cmd)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "flat JSON output path (default: config export path; '-' for stdout)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also write a SQLite database at this path")
	return cmd
}

func runExport(opts *RootOptions, out, sqlitePath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.workspace()
	if err != nil {
		return err
	}
	st, err := opts.loadStore(cfg)
	if err != nil {
		return err
	}

	rows, err := export.Rows(st.Document())
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	if out == "" {
		out = cfg.Export
	}
	if out == "-" {
		if err := export.WriteJSON(cmd.OutOrStdout(), rows); err != nil {
			return WrapExitError(ExitCommandError, "export failed", err)
		}
	} else {
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return WrapExitError(ExitCommandError, "export failed", err)
			}
		}
		f, err := os.Create(out)
		if err != nil {
			return WrapExitError(ExitCommandError, "export failed", err)
		}
		werr := export.WriteJSON(f, rows)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return WrapExitError(ExitCommandError, "export failed", werr)
		}
		logrus.WithFields(logrus.Fields{"rows": len(rows), "path": out}).Debug("flat export written")
	}

	if sqlitePath != "" {
		if err := export.WriteSQLite(sqlitePath, st.Document()); err != nil {
			return WrapExitError(ExitCommandError, "sqlite export failed", err)
		}
		logrus.WithField("path", sqlitePath).Debug("sqlite export written")
	}

	if formatter.JSON() {
		return formatter.Success(map[string]any{"rows": len(rows), "out": out, "sqlite": sqlitePath})
	}
	if out != "-" {
		fmt.Fprintf(formatter.Writer, "exported %d row(s) to %s\n", len(rows), out)
		if sqlitePath != "" {
			fmt.Fprintf(formatter.Writer, "sqlite database written to %s\n", sqlitePath)
		}
	}
	return nil
}
