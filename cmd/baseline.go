package cmd

import (
	"fmt"

	"loopback-bench/internal/baseline"
	"loopback-bench/internal/cycles"
	"loopback-bench/internal/diagnostics"
	"loopback-bench/internal/ingest"
	"loopback-bench/internal/logging"
	"loopback-bench/internal/stats"

	"github.com/spf13/cobra"
)

func newBaselineCmd() *cobra.Command {
	var flags analysisFlags
	baselineCmd := &cobra.Command{
		Use:   "baseline",
		Short: "Estimate only the baseline round trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := flags.buildConfig(cmd)
			if err != nil {
				return err
			}
			applyConfigLogLevel(cmd, cfg)
			exp := cfg.Experiment

			raw, err := ingest.ReadColumnFile(exp.Baseline.File, exp.Baseline.Column)
			if err != nil {
				return fmt.Errorf("failed to read baseline: %w", err)
			}
			conv, err := cycles.NewConverter(exp.Clock.FrequencyHz)
			if err != nil {
				return err
			}
			est, err := stats.NewEstimator(exp.Bootstrap.Resamples, exp.Bootstrap.Confidence, exp.Bootstrap.Seed,
				diagnostics.NewLogReporter(logging.GetDiagnosticsLogger()))
			if err != nil {
				return err
			}
			b, err := baseline.Estimate(raw, conv, est)
			if err != nil {
				return err
			}
			printBaseline(cmd.OutOrStdout(), exp.Variant, b)
			return nil
		},
	}
	flags.register(baselineCmd)
	return baselineCmd
}
