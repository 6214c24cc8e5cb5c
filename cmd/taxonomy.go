package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/aitools-hub/catalog-cli/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Inspect the category taxonomy",
}

var taxonomyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print categories in priority order with their keywords",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tax, err := taxonomy.Load(taxonomyPath(cmd))
		if err != nil {
			return err
		}
		formatTaxonomy(os.Stdout, tax)
		return nil
	},
}

var taxonomyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a taxonomy file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := taxonomyPath(cmd)
		tax, err := taxonomy.Load(path)
		if err != nil {
			return eris.Wrap(err, "taxonomy check")
		}
		if path == "" {
			path = "embedded default"
		}
		fmt.Fprintf(os.Stdout, "%s: ok (%d categories, default %q, %d overrides)\n", //nolint:errcheck
			path, len(tax.Categories), tax.Default, len(tax.Overrides))
		return nil
	},
}

func taxonomyPath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("taxonomy") {
		p, _ := cmd.Flags().GetString("taxonomy")
		return p
	}
	return cfg.Taxonomy.Path
}

// formatTaxonomy writes the priority-ordered category table, the default
// category and any overrides to w.
func formatTaxonomy(out io.Writer, tax *taxonomy.Taxonomy) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tCATEGORY\tKEYWORDS")
	_, _ = fmt.Fprintln(w, "-\t--------\t--------")
	for i, c := range tax.Categories {
		kw := strings.Join(c.Keywords, ", ")
		if kw == "" {
			kw = "(none)"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, c.Name, kw)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nDefault: %s\n", tax.Default)

	if len(tax.Overrides) == 0 {
		return
	}
	keys := make([]string, 0, len(tax.Overrides))
	for k := range tax.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	_, _ = fmt.Fprintln(out, "\nOverrides:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s\t%s\n", k, tax.Overrides[k])
	}
	_ = w.Flush()
}

func init() {
	taxonomyCmd.PersistentFlags().String("taxonomy", "", "taxonomy file (YAML or JSON); defaults to the embedded taxonomy")

	taxonomyCmd.AddCommand(taxonomyShowCmd)
	taxonomyCmd.AddCommand(taxonomyCheckCmd)
	rootCmd.AddCommand(taxonomyCmd)
}
