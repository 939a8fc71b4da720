package cmd

import (
	"loopback-bench/internal/config"

	"github.com/spf13/cobra"
)

// analysisFlags override values from the config file. Only flags that were
// set on the command line are applied.
type analysisFlags struct {
	configFile     string
	name           string
	variant        string
	loopback       string
	baseline       string
	baselineColumn string
	frequency      float64
	requiredFields int
	resamples      int
	confidence     float64
	seed           uint64
	workers        int
	totals         bool
	directions     []string
	out            string
	formats        []string
	noArtifact     bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	def := config.Default().Experiment

	flags := cmd.Flags()
	flags.StringVarP(&f.configFile, "config", "c", "", "Path to analysis configuration file")
	flags.StringVar(&f.name, "name", def.Name, "Experiment name")
	flags.StringVar(&f.variant, "variant", def.Variant, "Experiment variant (pcie, eci)")
	flags.StringVar(&f.loopback, "loopback", def.Loopback.File, "CSV file for loopback time measurements")
	flags.StringVar(&f.baseline, "baseline", "", "CSV file for baseline round trip measurements (default per variant)")
	flags.StringVar(&f.baselineColumn, "baseline-column", "", "Baseline column name (default per variant)")
	flags.Float64Var(&f.frequency, "frequency", def.Clock.FrequencyHz, "Cycle counter frequency in Hz")
	flags.IntVar(&f.requiredFields, "required-fields", def.Loopback.RequiredFields, "Minimum populated fields per loopback row")
	flags.IntVar(&f.resamples, "resamples", def.Bootstrap.Resamples, "Bootstrap resamples")
	flags.Float64Var(&f.confidence, "confidence", def.Bootstrap.Confidence, "Confidence level")
	flags.Uint64Var(&f.seed, "seed", def.Bootstrap.Seed, "Bootstrap seed")
	flags.IntVar(&f.workers, "workers", def.Bootstrap.Workers, "Parallel stage group estimators")
	flags.BoolVar(&f.totals, "totals", def.Stages.Totals, "Also compute rx/tx total stages")
	flags.StringSliceVar(&f.directions, "directions", def.Stages.Directions, "Directions to decompose")
	flags.StringVar(&f.out, "out", def.Output.Dir, "Output directory")
	flags.StringSliceVar(&f.formats, "formats", def.Output.Formats, "Plot formats (tikz, png, svg)")
	flags.BoolVar(&f.noArtifact, "no-artifact", false, "Do not write the compressed result artifact")
}

// buildConfig loads the config file if one was given, applies changed flags
// and validates the result. It also returns the raw config file content.
func (f *analysisFlags) buildConfig(cmd *cobra.Command) (*config.AnalysisConfig, string, error) {
	cfg := config.Default()
	content := ""
	if f.configFile != "" {
		loaded, raw, err := config.LoadConfigWithContent(f.configFile)
		if err != nil {
			return nil, "", err
		}
		cfg, content = loaded, raw
	}

	exp := &cfg.Experiment
	changed := cmd.Flags().Changed

	if changed("name") {
		exp.Name = f.name
	}
	if changed("variant") {
		exp.Variant = f.variant
		// variant defaults apply again unless set explicitly
		if !changed("baseline") {
			exp.Baseline.File = ""
		}
		if !changed("baseline-column") {
			exp.Baseline.Column = ""
		}
	}
	if changed("loopback") {
		exp.Loopback.File = f.loopback
	}
	if changed("baseline") {
		exp.Baseline.File = f.baseline
	}
	if changed("baseline-column") {
		exp.Baseline.Column = f.baselineColumn
	}
	if changed("frequency") {
		exp.Clock.FrequencyHz = f.frequency
	}
	if changed("required-fields") {
		exp.Loopback.RequiredFields = f.requiredFields
	}
	if changed("resamples") {
		exp.Bootstrap.Resamples = f.resamples
	}
	if changed("confidence") {
		exp.Bootstrap.Confidence = f.confidence
	}
	if changed("seed") {
		exp.Bootstrap.Seed = f.seed
	}
	if changed("workers") {
		exp.Bootstrap.Workers = f.workers
	}
	if changed("totals") {
		exp.Stages.Totals = f.totals
	}
	if changed("directions") {
		exp.Stages.Directions = f.directions
	}
	if changed("out") {
		exp.Output.Dir = f.out
	}
	if changed("formats") {
		exp.Output.Formats = f.formats
	}
	if f.noArtifact {
		exp.Output.Artifact = false
	}

	if err := config.Finalize(cfg); err != nil {
		return nil, "", err
	}
	return cfg, content, nil
}
