package cmd

import (
	"fmt"

	"loopback-bench/internal/config"
	"loopback-bench/internal/logging"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var configFile string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an analysis configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd, configFile)
		},
	}
	validateCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to analysis configuration file")
	validateCmd.MarkFlagRequired("config")
	return validateCmd
}

func validateConfig(cmd *cobra.Command, configFile string) error {
	logger := logging.GetLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logger.WithField("config_file", configFile).WithError(err).Error("Configuration validation failed")
		return err
	}
	checksum, err := config.AnalysisChecksum(cfg)
	if err != nil {
		return err
	}
	logger.WithField("config_file", configFile).Info("Configuration is valid")
	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (experiment %s, checksum %s)\n", configFile, cfg.Experiment.Name, checksum)
	return nil
}
