package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"loopback-bench/internal/config"
	"loopback-bench/internal/database"
	"loopback-bench/internal/diagnostics"
	"loopback-bench/internal/logging"
	"loopback-bench/internal/pipeline"
	"loopback-bench/internal/plot"
	"loopback-bench/internal/spool"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var flags analysisFlags
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute the latency breakdown of a loopback experiment",
		Long: "Reads the baseline and loopback CSV files, estimates per-stage medians with " +
			"bootstrap confidence intervals and writes plots, a result artifact and optionally InfluxDB points",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, content, err := flags.buildConfig(cmd)
			if err != nil {
				return err
			}
			applyConfigLogLevel(cmd, cfg)
			return runAnalysis(cmd, cfg, content)
		},
	}
	flags.register(analyzeCmd)
	return analyzeCmd
}

func applyConfigLogLevel(cmd *cobra.Command, cfg *config.AnalysisConfig) {
	if cfg.Experiment.LogLevel == "" || cmd.Flags().Changed("log-level") {
		return
	}
	if err := logging.SetLogLevel(cfg.Experiment.LogLevel); err != nil {
		logging.GetLogger().WithError(err).Warn("Ignoring invalid log level from config")
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	logger := logging.GetLogger()
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			logger.Info("Received interrupt signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func runAnalysis(cmd *cobra.Command, cfg *config.AnalysisConfig, configContent string) error {
	logger := logging.GetLogger()
	exp := cfg.Experiment

	ctx, cancel := signalContext()
	defer cancel()

	checksum, err := config.AnalysisChecksum(cfg)
	if err != nil {
		return fmt.Errorf("failed to compute checksum: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"experiment": exp.Name,
		"variant":    exp.Variant,
		"checksum":   checksum,
		"resamples":  exp.Bootstrap.Resamples,
		"workers":    exp.Bootstrap.Workers,
	}).Info("Starting analysis")

	p, err := pipeline.New(cfg, diagnostics.NewLogReporter(logging.GetDiagnosticsLogger()))
	if err != nil {
		return err
	}
	result, err := p.Analyze(ctx)
	if err != nil {
		logger.WithError(err).Error("Analysis failed")
		return err
	}

	printReport(cmd.OutOrStdout(), result)

	if len(exp.Output.Formats) > 0 {
		if _, err := plot.NewPlotManager(cfg).WriteAll(result, checksum); err != nil {
			logger.WithError(err).Error("Failed to write plots")
			return fmt.Errorf("failed to write plots: %w", err)
		}
	}

	host := database.CollectHostInfo()

	if exp.Output.Artifact {
		artifact := spool.BuildArtifact(result, checksum, configContent, &host)
		path, err := spool.WriteArtifact(exp.Output.Dir, artifact)
		if err != nil {
			logger.WithError(err).Error("Failed to write result artifact")
			return fmt.Errorf("failed to write result artifact: %w", err)
		}
		logger.WithField("path", path).Info("Result artifact written")
	}

	if exp.Data.DB.Enabled() {
		if err := writeDatabase(ctx, exp.Data.DB, result, checksum, host); err != nil {
			return err
		}
	}

	logger.WithFields(logrus.Fields{
		"experiment": exp.Name,
		"duration":   result.Finished.Sub(result.Started),
	}).Info("Analysis completed")
	return nil
}

func writeDatabase(ctx context.Context, db config.DatabaseConfig, result *pipeline.Result, checksum string, host database.HostInfo) error {
	logger := logging.GetLogger()
	logger.Info("Writing estimates to database")

	client, err := database.NewInfluxDBClient(db)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer client.Close()

	if err := client.WriteResult(ctx, result, checksum, host); err != nil {
		logger.WithError(err).Error("Failed to export estimates")
		return fmt.Errorf("failed to export estimates: %w", err)
	}
	return nil
}
