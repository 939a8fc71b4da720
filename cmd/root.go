package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"loopback-bench/internal/logging"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const Version = "1.0.0"

func loadEnvironment() {
	logger := logging.GetLogger()

	// Try to load .env file from current directory
	envFile := ".env"
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.WithField("file", envFile).WithError(err).Warn("Error loading .env file")
		} else {
			logger.WithField("file", envFile).Debug("Loaded environment variables")
		}
	} else {
		// Try to load from the application directory
		if execPath, err := os.Executable(); err == nil {
			appDir := filepath.Dir(execPath)
			envFile = filepath.Join(appDir, ".env")
			if _, err := os.Stat(envFile); err == nil {
				if err := godotenv.Load(envFile); err != nil {
					logger.WithField("file", envFile).WithError(err).Warn("Error loading .env file")
				} else {
					logger.WithField("file", envFile).Debug("Loaded environment variables")
				}
			}
		}
	}
}

func newRootCmd() *cobra.Command {
	var logLevel, diagLevel string
	var logJSON bool

	rootCmd := &cobra.Command{
		Use:   "loopback-bench",
		Short: "Loopback latency breakdown tool",
		Long: "Decomposes NIC loopback cycle counter traces into per-stage latencies, " +
			"corrects them by the measured PCIe/ECI round trip and reports bootstrap confidence intervals",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel != "" {
				if err := logging.SetLogLevel(logLevel); err != nil {
					return fmt.Errorf("invalid log level: %w", err)
				}
			}
			if diagLevel != "" {
				if err := logging.SetDiagnosticsLogLevel(diagLevel); err != nil {
					return fmt.Errorf("invalid diagnostics level: %w", err)
				}
			}
			if logJSON {
				logging.SetFormatter(&logrus.JSONFormatter{})
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&diagLevel, "diag-level", "", "Set level of data quality warnings (error hides them)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newBaselineCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "loopback-bench %s\n", Version)
		},
	})

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	loadEnvironment()
	return newRootCmd().Execute()
}
