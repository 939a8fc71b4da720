package baseline

import (
	"errors"
	"fmt"

	"loopback-bench/internal/cycles"
	"loopback-bench/internal/logging"
	"loopback-bench/internal/stats"

	"github.com/sirupsen/logrus"
)

var ErrNoSamples = errors.New("baseline has no samples")

// Baseline is the fabric round trip (PCIe or ECI) measured outside the
// loopback path.
type Baseline struct {
	Samples int                 `json:"samples"`
	Point   stats.EstimatePoint `json:"point"`
	// Absolute interval bounds, as reported to the operator.
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	Confidence float64 `json:"confidence"`
}

// HalfRoundTrip is the latency attributed to a single host/device hop.
func (b Baseline) HalfRoundTrip() float64 {
	return b.Point.Median / 2
}

func (b Baseline) String() string {
	return fmt.Sprintf("median %.4f us; %.0f%% CI: [%.4f, %.4f]", b.Point.Median, 100*b.Confidence, b.Low, b.High)
}

// Estimate converts raw round trip cycle counts and estimates their median.
func Estimate(raw []int64, conv cycles.Converter, est *stats.Estimator) (Baseline, error) {
	logger := logging.GetLogger()

	if len(raw) == 0 {
		return Baseline{}, ErrNoSamples
	}

	us := make([]float64, len(raw))
	for i, c := range raw {
		us[i] = conv.Micros(c)
	}

	point, err := est.Estimate(us, "baseline")
	if err != nil {
		return Baseline{}, fmt.Errorf("failed to estimate baseline: %w", err)
	}

	b := Baseline{
		Samples:    len(raw),
		Point:      point,
		Low:        point.Lower(),
		High:       point.Upper(),
		Confidence: est.Confidence,
	}

	logger.WithFields(logrus.Fields{
		"samples": b.Samples,
		"median":  b.Point.Median,
		"ci_low":  b.Low,
		"ci_high": b.High,
	}).Debug("Baseline round trip estimated")

	return b, nil
}
