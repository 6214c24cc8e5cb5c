package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aitools-hub/catalog-cli/internal/catalog"
	"github.com/aitools-hub/catalog-cli/internal/tabular"
)

var importCmd = &cobra.Command{
	Use:   "import <tools.csv|tools.tsv|tools.xlsx>",
	Short: "Convert a spreadsheet export into catalog JSON",
	Long: `Reads a CSV, TSV or XLSX export with a header row and writes it as catalog
JSON. Columns such as name, description, category, features and pricing map
onto record fields; other columns are kept as extra fields. The result can
then be reconciled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		sheet, _ := cmd.Flags().GetString("sheet")
		force, _ := cmd.Flags().GetBool("force")
		return runImport(cmd.Context(), os.Stdout, afero.NewOsFs(), args[0], output, sheet, force)
	},
}

// runImport converts input to catalog JSON at output, which defaults to the
// input path with a .json extension. An existing output is only replaced
// when force is set.
func runImport(ctx context.Context, out io.Writer, fs afero.Fs, input, output, sheet string, force bool) error {
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".json"
	}
	if !force {
		exists, err := afero.Exists(fs, output)
		if err != nil {
			return eris.Wrapf(err, "import: stat %s", output)
		}
		if exists {
			return eris.Errorf("import: %s already exists (use --force to overwrite)", output)
		}
	}

	table, err := tabular.Read(ctx, fs, input, tabular.Options{Sheet: sheet})
	if err != nil {
		return eris.Wrap(err, "import")
	}

	cat, warnings, err := catalog.NewLoader(fs, cfg.CatalogDefaults()).FromTable(table)
	if err != nil {
		return eris.Wrapf(err, "import %s", input)
	}

	if err := catalog.WriteAtomic(fs, output, cat); err != nil {
		return eris.Wrap(err, "import")
	}

	zap.L().Info("import complete",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("records", len(cat)),
		zap.Int("warnings", len(warnings)),
	)
	fmt.Fprintf(out, "imported %d records (%d warnings) to %s\n", len(cat), len(warnings), output) //nolint:errcheck
	return nil
}

func init() {
	importCmd.Flags().String("output", "", "catalog JSON path (default: input with .json extension)")
	importCmd.Flags().String("sheet", "", "XLSX sheet name (default: first sheet)")
	importCmd.Flags().Bool("force", false, "overwrite an existing output file")
	rootCmd.AddCommand(importCmd)
}
