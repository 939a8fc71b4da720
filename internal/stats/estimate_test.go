package stats

import (
	"errors"
	"math/rand/v2"
	"testing"

	"loopback-bench/internal/diagnostics"

	"github.com/stretchr/testify/require"
)

func newTestEstimator(t *testing.T, resamples int, rec diagnostics.Reporter) *Estimator {
	t.Helper()
	e, err := NewEstimator(resamples, DefaultConfidence, 42, rec)
	require.NoError(t, err)
	return e
}

func TestEstimate_SingleSampleDummyInterval(t *testing.T) {
	rec := diagnostics.NewRecorder(nil)
	e := newTestEstimator(t, MinResamples, rec)

	p, err := e.Estimate([]float64{5.0}, "x")
	require.NoError(t, err)
	require.Equal(t, 5.0, p.Median)
	require.Equal(t, 0.0, p.CILow)
	require.Equal(t, 0.0, p.CIHigh)
	require.True(t, p.Degenerate)
	require.Equal(t, 1, p.Samples)

	require.Equal(t, 1, rec.Count(diagnostics.DegenerateSample))
	w := rec.Warnings()[0]
	require.Equal(t, "x", w.Fields["series"])
}

func TestEstimate_ConstantSeriesIsNotDegenerate(t *testing.T) {
	rec := diagnostics.NewRecorder(nil)
	e := newTestEstimator(t, MinResamples, rec)

	p, err := e.Estimate([]float64{3, 3, 3, 3}, "flat")
	require.NoError(t, err)
	require.Equal(t, 3.0, p.Median)
	require.Equal(t, 0.0, p.CILow)
	require.Equal(t, 0.0, p.CIHigh)
	// a genuine zero-width interval is distinguishable from the dummy one
	require.False(t, p.Degenerate)
	require.Zero(t, rec.Count(diagnostics.DegenerateSample))
}

func TestEstimate_Empty(t *testing.T) {
	e := newTestEstimator(t, MinResamples, nil)
	_, err := e.Estimate(nil, "empty")
	require.True(t, errors.Is(err, ErrEmptySeries))
}

func TestEstimate_EvenLengthMedianAveragesMiddle(t *testing.T) {
	e := newTestEstimator(t, MinResamples, nil)
	p, err := e.Estimate([]float64{4, 1, 3, 2}, "even")
	require.NoError(t, err)
	require.Equal(t, 2.5, p.Median)
}

func TestEstimate_IntervalBracketsMedian(t *testing.T) {
	e := newTestEstimator(t, MinResamples, nil)

	values := make([]float64, 0, 200)
	for i := 0; i < 200; i++ {
		values = append(values, float64(i%50))
	}
	p, err := e.Estimate(values, "sawtooth")
	require.NoError(t, err)
	require.GreaterOrEqual(t, p.CILow, 0.0)
	require.GreaterOrEqual(t, p.CIHigh, 0.0)
	require.LessOrEqual(t, p.Lower(), p.Median)
	require.GreaterOrEqual(t, p.Upper(), p.Median)
	require.Equal(t, 200, p.Samples)
}

func TestEstimate_DeterministicForSeed(t *testing.T) {
	values := []float64{1.2, 3.4, 0.7, 9.1, 4.4, 2.2, 5.0, 6.3}

	a, err := newTestEstimator(t, MinResamples, nil).Estimate(values, "a")
	require.NoError(t, err)
	b, err := newTestEstimator(t, MinResamples, nil).Estimate(values, "b")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestWithStream_ChangesSeed(t *testing.T) {
	e := newTestEstimator(t, MinResamples, nil)
	require.NotEqual(t, e.WithStream(0).Seed, e.WithStream(1).Seed)
	require.Equal(t, e.WithStream(3).Seed, e.WithStream(3).Seed)
	require.Equal(t, uint64(42), e.Seed)
}

func TestNewEstimator_Validation(t *testing.T) {
	_, err := NewEstimator(10, DefaultConfidence, 0, nil)
	require.Error(t, err)
	_, err = NewEstimator(DefaultResamples, 1.0, 0, nil)
	require.Error(t, err)
	_, err = NewEstimator(DefaultResamples, 0, 0, nil)
	require.Error(t, err)
}

func TestNewEstimator_TailNeedsOneResample(t *testing.T) {
	// 1024 resamples put exactly one resample below the 1/1024 percentile
	e, err := NewEstimator(1024, 1-2.0/1024, 1, nil)
	require.NoError(t, err)
	p, err := e.Estimate([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, "edge")
	require.NoError(t, err)
	require.GreaterOrEqual(t, p.CILow, 0.0)
	require.GreaterOrEqual(t, p.CIHigh, 0.0)

	_, err = NewEstimator(1024, 1-1.0/1024, 1, nil)
	require.Error(t, err)
	_, err = NewEstimator(MinResamples, 0.999, 1, nil)
	require.Error(t, err)
}

func TestEstimate_LargeSymmetricSampleNarrowInterval(t *testing.T) {
	if testing.Short() {
		t.Skip("bootstrap over 10k samples")
	}
	rng := rand.New(rand.NewPCG(7, 7))
	values := make([]float64, 10000)
	for i := range values {
		values[i] = 10 + rng.NormFloat64()
	}

	p, err := newTestEstimator(t, MinResamples, nil).Estimate(values, "normal")
	require.NoError(t, err)
	require.InDelta(t, 10.0, p.Median, 0.06)
	require.Greater(t, p.CILow, 0.0)
	require.Greater(t, p.CIHigh, 0.0)
	require.Less(t, p.CILow+p.CIHigh, 0.2)
}

func TestEstimate_CoverageNearNominal(t *testing.T) {
	if testing.Short() {
		t.Skip("repeated bootstrap coverage run")
	}
	const (
		reps = 200
		n    = 101
	)
	rng := rand.New(rand.NewPCG(1, 2))
	covered := 0
	for r := 0; r < reps; r++ {
		values := make([]float64, n)
		for i := range values {
			values[i] = rng.NormFloat64()
		}
		e, err := NewEstimator(MinResamples, DefaultConfidence, uint64(r), nil)
		require.NoError(t, err)
		p, err := e.Estimate(values, "coverage")
		require.NoError(t, err)
		if p.Lower() <= 0 && p.Upper() >= 0 {
			covered++
		}
	}
	coverage := float64(covered) / reps
	require.GreaterOrEqual(t, coverage, 0.85, "coverage %v", coverage)
	require.LessOrEqual(t, coverage, 0.99, "coverage %v", coverage)
}
