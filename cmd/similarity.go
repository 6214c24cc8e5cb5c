package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aitools-hub/catalog-cli/internal/detect"
)

var similarityCmd = &cobra.Command{
	Use:   "similarity <name-a> <name-b>",
	Short: "Score two tool names the way duplicate detection does",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimilarity(cmd, os.Stdout, args[0], args[1])
	},
}

func runSimilarity(cmd *cobra.Command, out io.Writer, a, b string) error {
	threshold, err := thresholdFlag(cmd, cfg.Detect.SimilarityThreshold)
	if err != nil {
		return err
	}
	opts := cfg.DetectOptions()
	opts.Threshold = threshold
	formatSimilarity(out, detect.New(opts), a, b)
	return nil
}

// formatSimilarity prints the normalized keys, the score and whether the
// detector would flag the pair.
func formatSimilarity(out io.Writer, det *detect.Detector, a, b string) {
	score, dup := det.IsDuplicate(a, b)
	verdict := "distinct"
	if dup {
		verdict = "duplicate"
	}
	_, _ = fmt.Fprintf(out, "%q -> %q\n%q -> %q\nsimilarity: %.3f (threshold %.2f): %s\n",
		a, detect.Key(a), b, detect.Key(b), score, det.Threshold(), verdict)
}

func addSimilarityFlags(c *cobra.Command) {
	c.Flags().Float64("threshold", detect.DefaultThreshold, "similarity threshold in (0, 1]")
}

func init() {
	addSimilarityFlags(similarityCmd)
	rootCmd.AddCommand(similarityCmd)
}
