package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"loopback-bench/internal/baseline"
	"loopback-bench/internal/config"
	"loopback-bench/internal/diagnostics"
	"loopback-bench/internal/pipeline"
)

var variantNames = map[string]string{
	config.VariantPCIe: "PCIe",
	config.VariantECI:  "ECI",
}

func printBaseline(w io.Writer, variant string, b baseline.Baseline) {
	name, ok := variantNames[variant]
	if !ok {
		name = "baseline"
	}
	fmt.Fprintf(w, "%s round trip latency (%d samples): %s\n", name, b.Samples, b)
}

// printReport writes the baseline headline, one row per stage and size, and
// the warning summary.
func printReport(w io.Writer, result *pipeline.Result) {
	printBaseline(w, result.Variant, result.Baseline)
	fmt.Fprintf(w, "trials: %d\n\n", result.Trials)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "stage\tsize (B)\tmedian (us)\t-ci\t+ci\tn\t")
	if est := result.Estimates; est != nil {
		sizes := est.SortedSizes()
		for _, dir := range result.Directions() {
			for _, stage := range est.Stages {
				if stage.Direction != dir {
					continue
				}
				for _, size := range sizes {
					p, ok := est.Get(size, stage)
					if !ok {
						continue
					}
					fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%d\t\n", stage, size, p.Median, p.CILow, p.CIHigh, p.Samples)
				}
			}
		}
	}
	tw.Flush()

	fmt.Fprintf(w, "\nwarnings: %s\n", diagnostics.FormatSummary(result.Warnings))
}
