package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"loopback-bench/internal/logging"
	"loopback-bench/internal/stats"

	"gopkg.in/yaml.v3"
)

func LoadConfig(filepath string) (*AnalysisConfig, error) {
	config, _, err := LoadConfigWithContent(filepath)
	return config, err
}

func LoadConfigWithContent(filepath string) (*AnalysisConfig, string, error) {
	logger := logging.GetLogger()

	data, err := os.ReadFile(filepath)
	if err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to read config file")
		return nil, "", err
	}

	originalContent := string(data)

	config, err := Parse(originalContent)
	if err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to parse config file")
		return nil, "", err
	}

	return config, originalContent, nil
}

// Parse expands ${VAR} references, overlays the YAML on Default and
// validates the result.
func Parse(content string) (*AnalysisConfig, error) {
	expanded := expandEnvVars(content)

	config := Default()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, err
	}

	if err := Finalize(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// Finalize fills variant dependent defaults and validates.
func Finalize(config *AnalysisConfig) error {
	exp := &config.Experiment
	exp.Variant = strings.ToLower(strings.TrimSpace(exp.Variant))

	if defaults, ok := variantBaselines[exp.Variant]; ok {
		if exp.Baseline.Column == "" {
			exp.Baseline.Column = defaults.Column
		}
		if exp.Baseline.File == "" {
			exp.Baseline.File = defaults.File
		}
	}

	return validateConfig(config)
}

func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		envVar := strings.Trim(match, "${}")
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})
}

func validateConfig(config *AnalysisConfig) error {
	exp := config.Experiment

	if exp.Name == "" {
		return fmt.Errorf("experiment name is required")
	}

	if exp.Variant != "" {
		if _, ok := variantBaselines[exp.Variant]; !ok {
			return fmt.Errorf("unknown variant %q (want %s or %s)", exp.Variant, VariantPCIe, VariantECI)
		}
	}

	if exp.Clock.FrequencyHz <= 0 {
		return fmt.Errorf("clock frequency_hz must be greater than 0")
	}

	if exp.Baseline.File == "" || exp.Baseline.Column == "" {
		return fmt.Errorf("baseline file and column are required")
	}

	if exp.Loopback.File == "" {
		return fmt.Errorf("loopback file is required")
	}

	if exp.Loopback.RequiredFields < 0 {
		return fmt.Errorf("loopback required_fields must not be negative")
	}

	if len(exp.Stages.Directions) == 0 {
		return fmt.Errorf("stages: at least one direction is required")
	}
	if _, err := config.StageDirections(); err != nil {
		return fmt.Errorf("stages: %w", err)
	}

	bs := exp.Bootstrap
	if err := stats.ValidateBootstrap(bs.Resamples, bs.Confidence); err != nil {
		return err
	}
	if bs.Workers < 1 {
		return fmt.Errorf("bootstrap workers must be at least 1")
	}

	for _, f := range exp.Output.Formats {
		switch f {
		case FormatTikZ, FormatPNG, FormatSVG:
		default:
			return fmt.Errorf("unknown output format %q", f)
		}
	}

	// Validate database config
	db := exp.Data.DB
	if db.Enabled() && (db.Name == "" || db.Password == "" || db.Org == "") {
		return fmt.Errorf("incomplete database configuration")
	}

	return nil
}
