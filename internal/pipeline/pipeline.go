package pipeline

import (
	"context"
	"fmt"
	"time"

	"loopback-bench/internal/aggregate"
	"loopback-bench/internal/baseline"
	"loopback-bench/internal/config"
	"loopback-bench/internal/cycles"
	"loopback-bench/internal/diagnostics"
	"loopback-bench/internal/ingest"
	"loopback-bench/internal/logging"
	"loopback-bench/internal/series"
	"loopback-bench/internal/stages"
	"loopback-bench/internal/stats"

	"github.com/sirupsen/logrus"
)

// Input is the already-ingested data of one experiment.
type Input struct {
	BaselineCycles []int64
	Trials         []stages.RawTrial
}

// Result is everything handed to presentation and export.
type Result struct {
	Experiment string                            `json:"experiment"`
	Variant    string                            `json:"variant"`
	Baseline   baseline.Baseline                 `json:"baseline"`
	Trials     int                               `json:"trials"`
	Estimates  *aggregate.Estimates              `json:"-"`
	Tables     map[stages.Direction]series.Table `json:"-"`
	Warnings   map[string]int                    `json:"warnings"`
	Started    time.Time                         `json:"started"`
	Finished   time.Time                         `json:"finished"`
}

// Directions returns the directions with a table, RX first.
func (r *Result) Directions() []stages.Direction {
	var out []stages.Direction
	for _, d := range stages.Directions {
		if _, ok := r.Tables[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

type Pipeline struct {
	cfg      *config.AnalysisConfig
	conv     cycles.Converter
	recorder *diagnostics.Recorder
	logger   *logrus.Logger
}

func New(cfg *config.AnalysisConfig, reporter diagnostics.Reporter) (*Pipeline, error) {
	conv, err := cycles.NewConverter(cfg.Experiment.Clock.FrequencyHz)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:      cfg,
		conv:     conv,
		recorder: diagnostics.NewRecorder(reporter),
		logger:   logging.GetLogger(),
	}, nil
}

func (p *Pipeline) Recorder() *diagnostics.Recorder {
	return p.recorder
}

// Load reads the baseline and loopback files named in the config.
func (p *Pipeline) Load() (*Input, error) {
	exp := p.cfg.Experiment

	raw, err := ingest.ReadColumnFile(exp.Baseline.File, exp.Baseline.Column)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}

	trials, err := ingest.ReadTrialsFile(exp.Loopback.File, ingest.TrialOptions{
		RequiredFields: exp.Loopback.RequiredFields,
	}, p.recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to read loopback trials: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"baseline_file":    exp.Baseline.File,
		"baseline_samples": len(raw),
		"loopback_file":    exp.Loopback.File,
		"trials":           len(trials),
	}).Info("Input loaded")

	return &Input{BaselineCycles: raw, Trials: trials}, nil
}

// Run makes the single forward pass: baseline, decomposition, aggregation,
// assembly. The baseline is complete before any trial is decomposed.
func (p *Pipeline) Run(ctx context.Context, in *Input) (*Result, error) {
	exp := p.cfg.Experiment
	started := time.Now()

	est, err := stats.NewEstimator(exp.Bootstrap.Resamples, exp.Bootstrap.Confidence, exp.Bootstrap.Seed, p.recorder)
	if err != nil {
		return nil, err
	}

	base, err := baseline.Estimate(in.BaselineCycles, p.conv, est)
	if err != nil {
		return nil, err
	}
	p.logger.WithFields(logrus.Fields{
		"median_us": base.Point.Median,
		"ci_low":    base.Low,
		"ci_high":   base.High,
	}).Info("Baseline round trip")

	dirs, err := p.cfg.StageDirections()
	if err != nil {
		return nil, err
	}
	opts := stages.Options{Directions: dirs, Totals: exp.Stages.Totals}

	groups := aggregate.NewGroups()
	halfRTT := base.HalfRoundTrip()
	for _, trial := range in.Trials {
		durations, err := stages.Decompose(trial, halfRTT, p.conv, opts, p.recorder)
		if err != nil {
			return nil, err
		}
		groups.AddAll(trial.Size, durations)
	}

	if p.logger.IsLevelEnabled(logrus.DebugLevel) {
		for _, key := range groups.Keys() {
			p.logger.WithField("group", key.String()).Debugf("values: %v", groups.Values(key))
		}
	}

	// groups get their own streams, separate from the baseline's
	estimates, err := aggregate.EstimateAll(ctx, groups, est.WithStream(1<<32), exp.Bootstrap.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate stage groups: %w", err)
	}

	tables := make(map[stages.Direction]series.Table, len(dirs))
	for _, d := range dirs {
		tables[d] = series.Assemble(estimates, d)
	}

	result := &Result{
		Experiment: exp.Name,
		Variant:    exp.Variant,
		Baseline:   base,
		Trials:     len(in.Trials),
		Estimates:  estimates,
		Tables:     tables,
		Warnings:   p.recorder.Summary(),
		Started:    started,
		Finished:   time.Now(),
	}

	p.logger.WithFields(logrus.Fields{
		"trials":   result.Trials,
		"groups":   len(estimates.Keys),
		"warnings": diagnostics.FormatSummary(result.Warnings),
	}).Info("Latency breakdown computed")
	return result, nil
}

// Analyze loads the configured inputs and runs the pipeline over them.
func (p *Pipeline) Analyze(ctx context.Context) (*Result, error) {
	in, err := p.Load()
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, in)
}
