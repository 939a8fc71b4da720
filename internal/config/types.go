package config

import (
	"loopback-bench/internal/cycles"
	"loopback-bench/internal/stages"
	"loopback-bench/internal/stats"
)

type AnalysisConfig struct {
	Experiment ExperimentInfo `yaml:"experiment"`
}

type ExperimentInfo struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Variant     string          `yaml:"variant"`
	LogLevel    string          `yaml:"log_level"`
	Clock       ClockConfig     `yaml:"clock"`
	Baseline    BaselineConfig  `yaml:"baseline"`
	Loopback    LoopbackConfig  `yaml:"loopback"`
	Stages      StagesConfig    `yaml:"stages"`
	Bootstrap   BootstrapConfig `yaml:"bootstrap"`
	Output      OutputConfig    `yaml:"output"`
	Data        DataConfig      `yaml:"data"`
}

type ClockConfig struct {
	FrequencyHz float64 `yaml:"frequency_hz"`
}

type BaselineConfig struct {
	File   string `yaml:"file"`
	Column string `yaml:"column"`
}

type LoopbackConfig struct {
	File           string `yaml:"file"`
	RequiredFields int    `yaml:"required_fields"`
}

type StagesConfig struct {
	Totals     bool     `yaml:"totals"`
	Directions []string `yaml:"directions"`
}

type BootstrapConfig struct {
	Resamples  int     `yaml:"resamples"`
	Confidence float64 `yaml:"confidence"`
	Seed       uint64  `yaml:"seed"`
	Workers    int     `yaml:"workers"`
}

type OutputConfig struct {
	Dir      string   `yaml:"dir"`
	Formats  []string `yaml:"formats"`
	Artifact bool     `yaml:"artifact"`
}

type DataConfig struct {
	DB DatabaseConfig `yaml:"db"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Org      string `yaml:"org"`
}

// Enabled reports whether an InfluxDB export target is configured.
func (db DatabaseConfig) Enabled() bool {
	return db.Host != ""
}

const (
	VariantPCIe = "pcie"
	VariantECI  = "eci"

	FormatTikZ = "tikz"
	FormatPNG  = "png"
	FormatSVG  = "svg"
)

var variantBaselines = map[string]BaselineConfig{
	VariantPCIe: {File: "pcie_lat.csv", Column: "pcie_lat_cyc"},
	VariantECI:  {File: "eci_lat.csv", Column: "eci_lat_cyc"},
}

// Default mirrors the PCIe PIO experiment as it is usually run.
func Default() *AnalysisConfig {
	return &AnalysisConfig{
		Experiment: ExperimentInfo{
			Name:     "loopback",
			Variant:  VariantPCIe,
			LogLevel: "info",
			Clock:    ClockConfig{FrequencyHz: cycles.DefaultFrequencyHz},
			Loopback: LoopbackConfig{
				File:           "loopback.csv",
				RequiredFields: stages.RequiredFields(),
			},
			Stages: StagesConfig{Directions: []string{"rx", "tx"}},
			Bootstrap: BootstrapConfig{
				Resamples:  stats.DefaultResamples,
				Confidence: stats.DefaultConfidence,
				Seed:       1,
				Workers:    1,
			},
			Output: OutputConfig{
				Dir:      ".",
				Formats:  []string{FormatTikZ},
				Artifact: true,
			},
		},
	}
}

// StageDirections parses Stages.Directions.
func (c *AnalysisConfig) StageDirections() ([]stages.Direction, error) {
	var out []stages.Direction
	for _, d := range c.Experiment.Stages.Directions {
		dir, err := stages.ParseDirection(d)
		if err != nil {
			return nil, err
		}
		out = append(out, dir)
	}
	return out, nil
}

func (c *AnalysisConfig) WantsFormat(format string) bool {
	for _, f := range c.Experiment.Output.Formats {
		if f == format {
			return true
		}
	}
	return false
}
