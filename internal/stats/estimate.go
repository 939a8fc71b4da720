package stats

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"loopback-bench/internal/diagnostics"

	mstats "github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
)

const (
	DefaultResamples  = 9999
	MinResamples      = 1000
	DefaultConfidence = 0.95
)

var ErrEmptySeries = errors.New("cannot estimate an empty series")

// EstimatePoint is a median with its confidence interval expressed as
// distances below and above the median.
type EstimatePoint struct {
	Median float64 `json:"median"`
	CILow  float64 `json:"ci_low"`
	CIHigh float64 `json:"ci_high"`

	Samples int `json:"samples"`
	// Degenerate is set when the interval is a zero-width placeholder
	// for a single-sample series rather than a computed one.
	Degenerate bool `json:"degenerate,omitempty"`
}

// Lower and Upper give the absolute interval bounds.
func (p EstimatePoint) Lower() float64 { return p.Median - p.CILow }
func (p EstimatePoint) Upper() float64 { return p.Median + p.CIHigh }

// Estimator computes percentile bootstrap intervals of the median.
type Estimator struct {
	Resamples  int
	Confidence float64
	Seed       uint64
	Reporter   diagnostics.Reporter
}

// ValidateBootstrap checks that resamples and confidence give both interval
// percentiles at least one resample of tail.
func ValidateBootstrap(resamples int, confidence float64) error {
	if resamples < MinResamples {
		return fmt.Errorf("bootstrap needs at least %d resamples, got %d", MinResamples, resamples)
	}
	if confidence <= 0 || confidence >= 1 {
		return fmt.Errorf("confidence level must be in (0, 1), got %v", confidence)
	}
	// same index arithmetic as mstats.Percentile
	alpha := (1 - confidence) / 2
	if index := (alpha * 100 / 100) * float64(resamples); index < 1 {
		return fmt.Errorf("%d resamples are too few for confidence %v, need at least %v",
			resamples, confidence, math.Ceil(1/alpha))
	}
	return nil
}

func NewEstimator(resamples int, confidence float64, seed uint64, reporter diagnostics.Reporter) (*Estimator, error) {
	if err := ValidateBootstrap(resamples, confidence); err != nil {
		return nil, err
	}
	if reporter == nil {
		reporter = diagnostics.Discard
	}
	return &Estimator{
		Resamples:  resamples,
		Confidence: confidence,
		Seed:       seed,
		Reporter:   reporter,
	}, nil
}

// WithStream returns a copy drawing from an independent random stream, so
// separately estimated groups do not share RNG state.
func (e *Estimator) WithStream(stream uint64) *Estimator {
	cp := *e
	cp.Seed = e.Seed ^ (stream+1)*0x9e3779b97f4a7c15
	return &cp
}

// Estimate returns the median of values and its bootstrap interval. A
// single-sample series yields a zero-width dummy interval and a warning.
func (e *Estimator) Estimate(values []float64, label string) (EstimatePoint, error) {
	if len(values) == 0 {
		return EstimatePoint{}, fmt.Errorf("%s: %w", label, ErrEmptySeries)
	}

	med, err := mstats.Median(values)
	if err != nil {
		return EstimatePoint{}, fmt.Errorf("%s: median: %w", label, err)
	}

	if len(values) == 1 {
		e.reporter().Warn(diagnostics.Warning{
			Kind:    diagnostics.DegenerateSample,
			Message: fmt.Sprintf("series %q has only 1 element, generating dummy CI", label),
			Fields:  logrus.Fields{"series": label, "samples": 1},
		})
		return EstimatePoint{Median: med, Samples: 1, Degenerate: true}, nil
	}

	lo, hi, err := e.bootstrapMedian(values)
	if err != nil {
		return EstimatePoint{}, fmt.Errorf("%s: bootstrap: %w", label, err)
	}

	// inverted or asymmetric intervals are passed through unclamped
	return EstimatePoint{
		Median:  med,
		CILow:   med - lo,
		CIHigh:  hi - med,
		Samples: len(values),
	}, nil
}

func (e *Estimator) bootstrapMedian(values []float64) (float64, float64, error) {
	rng := rand.New(rand.NewPCG(e.Seed, uint64(len(values))))

	n := len(values)
	resample := make([]float64, n)
	medians := make([]float64, e.Resamples)
	for i := range medians {
		for j := range resample {
			resample[j] = values[rng.IntN(n)]
		}
		m, err := mstats.Median(resample)
		if err != nil {
			return 0, 0, err
		}
		medians[i] = m
	}

	alpha := (1 - e.Confidence) / 2
	lo, err := mstats.Percentile(medians, alpha*100)
	if err != nil {
		return 0, 0, fmt.Errorf("lower percentile: %w", err)
	}
	hi, err := mstats.Percentile(medians, (1-alpha)*100)
	if err != nil {
		return 0, 0, fmt.Errorf("upper percentile: %w", err)
	}
	return lo, hi, nil
}

func (e *Estimator) reporter() diagnostics.Reporter {
	if e.Reporter == nil {
		return diagnostics.Discard
	}
	return e.Reporter
}
