package series

import (
	"loopback-bench/internal/aggregate"
	"loopback-bench/internal/stages"
	"loopback-bench/internal/stats"
)

// StageSeries is one stage's estimates, index-aligned to Table.Sizes.
type StageSeries struct {
	Stage  stages.Stage          `json:"stage"`
	Points []stats.EstimatePoint `json:"points"`
}

// Medians returns the per-size medians.
func (s StageSeries) Medians() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Median
	}
	return out
}

// ErrorBar is one overlay error bar on top of the stacked series.
type ErrorBar struct {
	Size int     `json:"size"`
	Y    float64 `json:"y"`
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Table is the stacked-plot layout of one direction. It is not modified
// after Assemble returns; Top, ErrorBars and Medians return fresh slices.
type Table struct {
	Direction stages.Direction `json:"direction"`
	Sizes     []int            `json:"sizes"`
	// Stacked holds the additive breakdown in first-encounter order.
	Stacked []StageSeries `json:"stacked"`
	// Cumulative[i][j] is the sum of the medians of Stacked[0..i] at Sizes[j].
	Cumulative [][]float64 `json:"cumulative"`
	// Totals are summary stages, plotted unstacked.
	Totals []StageSeries `json:"totals,omitempty"`
}

// Assemble lays out the estimates of one direction for a stacked plot.
// Summary stages go to Totals. Intermittent stages get no layer of their
// own; their median is folded into the issue cmd layer of the same size,
// which keeps its own interval.
func Assemble(est *aggregate.Estimates, dir stages.Direction) Table {
	sizes := est.SortedSizes()
	t := Table{
		Direction: dir,
		Sizes:     sizes,
	}

	var folded []stages.Stage
	for _, stage := range est.Stages {
		if stage.Direction != dir {
			continue
		}
		switch {
		case stage.Summary():
			t.Totals = append(t.Totals, buildSeries(est, stage, sizes))
		case stage.Intermittent():
			folded = append(folded, stage)
		default:
			t.Stacked = append(t.Stacked, buildSeries(est, stage, sizes))
		}
	}
	for _, stage := range folded {
		foldInto(t.Stacked, est, stage, sizes)
	}

	running := make([]float64, len(sizes))
	for _, s := range t.Stacked {
		for j, p := range s.Points {
			running[j] += p.Median
		}
		row := make([]float64, len(running))
		copy(row, running)
		t.Cumulative = append(t.Cumulative, row)
	}
	return t
}

// a stage with no samples at some size gets a zero point there
func buildSeries(est *aggregate.Estimates, stage stages.Stage, sizes []int) StageSeries {
	s := StageSeries{Stage: stage, Points: make([]stats.EstimatePoint, len(sizes))}
	for j, size := range sizes {
		if p, ok := est.Get(size, stage); ok {
			s.Points[j] = p
		}
	}
	return s
}

// foldInto adds the medians of an intermittent stage to the issue cmd layer
// of its direction. Nothing is added if that layer is absent.
func foldInto(stacked []StageSeries, est *aggregate.Estimates, stage stages.Stage, sizes []int) {
	for i := range stacked {
		if stacked[i].Stage.Kind != stages.IssueCmd {
			continue
		}
		for j, size := range sizes {
			if p, ok := est.Get(size, stage); ok {
				stacked[i].Points[j].Median += p.Median
			}
		}
		return
	}
}

// ErrorBars pairs each cumulative median with the CI distances of the stage
// that was stacked last at that height.
func (t Table) ErrorBars() [][]ErrorBar {
	out := make([][]ErrorBar, len(t.Stacked))
	for i, s := range t.Stacked {
		bars := make([]ErrorBar, len(t.Sizes))
		for j, size := range t.Sizes {
			bars[j] = ErrorBar{
				Size: size,
				Y:    t.Cumulative[i][j],
				Low:  s.Points[j].CILow,
				High: s.Points[j].CIHigh,
			}
		}
		out[i] = bars
	}
	return out
}

// Top returns the stacked total at each size.
func (t Table) Top() []float64 {
	if len(t.Cumulative) == 0 {
		return make([]float64, len(t.Sizes))
	}
	last := t.Cumulative[len(t.Cumulative)-1]
	out := make([]float64, len(last))
	copy(out, last)
	return out
}

func (t Table) Empty() bool {
	return len(t.Sizes) == 0 || (len(t.Stacked) == 0 && len(t.Totals) == 0)
}
