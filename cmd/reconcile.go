package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aitools-hub/catalog-cli/internal/catalog"
	"github.com/aitools-hub/catalog-cli/internal/classify"
	"github.com/aitools-hub/catalog-cli/internal/detect"
	"github.com/aitools-hub/catalog-cli/internal/reconcile"
	"github.com/aitools-hub/catalog-cli/internal/taxonomy"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <input.json>",
	Short: "Reconcile a tools catalog in place",
	Long: `Loads the catalog, normalizes text fields, classifies every record into the
taxonomy, removes duplicates and scraping artifacts, and atomically rewrites
the catalog. A count summary is printed to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := reconcileOptionsFromFlags(cmd, args[0])
		if err != nil {
			return err
		}
		return runReconcile(cmd.Context(), os.Stdout, afero.NewOsFs(), opts)
	},
}

// reconcileOptions carries the effective settings after merging flags over
// config.
type reconcileOptions struct {
	Pipeline     reconcile.Options
	Threshold    float64
	KeepExisting bool
}

// thresholdFlag returns --threshold when set, else fallback. Explicit values
// outside (0, 1] are rejected.
func thresholdFlag(cmd *cobra.Command, fallback float64) (float64, error) {
	if !cmd.Flags().Changed("threshold") {
		return fallback, nil
	}
	v, err := cmd.Flags().GetFloat64("threshold")
	if err != nil {
		return 0, eris.Wrap(err, "--threshold")
	}
	if v <= 0 || v > 1 {
		return 0, eris.Errorf("--threshold must be in (0, 1], got %g", v)
	}
	return v, nil
}

func reconcileOptionsFromFlags(cmd *cobra.Command, input string) (reconcileOptions, error) {
	opts := reconcileOptions{
		Pipeline: reconcile.Options{
			InputPath:    input,
			TaxonomyPath: cfg.Taxonomy.Path,
			ReportPath:   cfg.Report.Path,
		},
		Threshold:    cfg.Detect.SimilarityThreshold,
		KeepExisting: cfg.Taxonomy.KeepExisting,
	}

	flags := cmd.Flags()
	if flags.Changed("taxonomy") {
		opts.Pipeline.TaxonomyPath, _ = flags.GetString("taxonomy")
	}
	if flags.Changed("report") {
		opts.Pipeline.ReportPath, _ = flags.GetString("report")
	}
	threshold, err := thresholdFlag(cmd, opts.Threshold)
	if err != nil {
		return opts, err
	}
	opts.Threshold = threshold
	if flags.Changed("keep-valid") {
		opts.KeepExisting, _ = flags.GetBool("keep-valid")
	}
	opts.Pipeline.OutputPath, _ = flags.GetString("output")
	opts.Pipeline.DryRun, _ = flags.GetBool("dry-run")
	return opts, nil
}

// runReconcile wires the pipeline from config and runs it once.
func runReconcile(ctx context.Context, out io.Writer, fs afero.Fs, opts reconcileOptions) error {
	tax, err := taxonomy.Load(opts.Pipeline.TaxonomyPath)
	if err != nil {
		return eris.Wrap(err, "reconcile")
	}

	detOpts := cfg.DetectOptions()
	detOpts.Threshold = opts.Threshold
	clOpts := cfg.ClassifyOptions()
	clOpts.KeepExisting = opts.KeepExisting

	// Run history is optional; a store that cannot be opened never blocks
	// reconciliation.
	st, err := initStore(ctx)
	if err != nil {
		zap.L().Warn("reconcile: run history unavailable; continuing without it",
			zap.String("driver", cfg.Store.Driver), zap.Error(err))
		st = nil
	}
	if st != nil {
		defer st.Close() //nolint:errcheck
	}

	p := reconcile.New(
		fs,
		catalog.NewLoader(fs, cfg.CatalogDefaults()),
		classify.New(tax, clOpts),
		detect.New(detOpts),
		st,
	)

	res, err := p.Run(ctx, opts.Pipeline)
	if err != nil {
		return eris.Wrap(err, "reconcile")
	}

	fmt.Fprint(out, reconcile.FormatSummary(res.Report)) //nolint:errcheck
	switch {
	case res.WrittenTo != "":
		fmt.Fprintf(out, "catalog written to %s\n", res.WrittenTo) //nolint:errcheck
	case opts.Pipeline.DryRun:
		fmt.Fprintln(out, "dry run: catalog not written") //nolint:errcheck
	}
	if res.ReportPath != "" {
		fmt.Fprintf(out, "report written to %s\n", res.ReportPath) //nolint:errcheck
	}
	if res.RunID != "" {
		zap.L().Debug("reconcile: run recorded", zap.String("run_id", res.RunID))
	}
	return nil
}

func addReconcileFlags(c *cobra.Command) {
	c.Flags().String("taxonomy", "", "taxonomy file (YAML or JSON); defaults to the embedded taxonomy")
	c.Flags().Bool("dry-run", false, "compute changes without replacing the input catalog")
	c.Flags().String("output", "", "write the reconciled catalog here instead of over the input")
	c.Flags().String("report", "", "write the change report (.json, .xlsx, or text)")
	c.Flags().Float64("threshold", detect.DefaultThreshold, "fuzzy duplicate similarity threshold in (0, 1]")
	c.Flags().Bool("keep-valid", false, "keep categories that are already taxonomy members")
}

func init() {
	addReconcileFlags(reconcileCmd)
	rootCmd.AddCommand(reconcileCmd)
}
