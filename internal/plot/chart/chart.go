package chart

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"loopback-bench/internal/plot/breakdown"
	"loopback-bench/internal/plot/breakdown/mappings"
	"loopback-bench/internal/series"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	FormatPNG = "png"
	FormatSVG = "svg"

	DefaultWidth  = 1024
	DefaultHeight = 854
)

type Renderer struct {
	Width  int
	Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: DefaultWidth, Height: DefaultHeight}
}

func rendererProvider(format string) (gochart.RendererProvider, error) {
	switch format {
	case FormatPNG:
		return gochart.PNG, nil
	case FormatSVG:
		return gochart.SVG, nil
	default:
		return nil, fmt.Errorf("unsupported chart format %q", format)
	}
}

func stageColor(hex string) drawing.Color {
	return drawing.ColorFromHex(hex)
}

// errorBarSeries draws one vertical segment per size. Bars are not named so
// they stay out of the legend.
func errorBarSeries(bars []series.ErrorBar) []gochart.Series {
	style := gochart.Style{StrokeWidth: 1.5, StrokeColor: drawing.ColorBlack}
	out := make([]gochart.Series, 0, len(bars))
	for _, bar := range bars {
		x := float64(bar.Size)
		out = append(out, gochart.ContinuousSeries{
			XValues: []float64{x, x},
			YValues: []float64{bar.Y - bar.Low, bar.Y + bar.High},
			Style:   style,
		})
	}
	return out
}

func xTicks(sizes []int) []gochart.Tick {
	ticks := make([]gochart.Tick, len(sizes))
	for i, s := range sizes {
		ticks[i] = gochart.Tick{Value: float64(s), Label: strconv.Itoa(s)}
	}
	return ticks
}

func xValues(sizes []int) []float64 {
	xs := make([]float64, len(sizes))
	for i, s := range sizes {
		xs[i] = float64(s)
	}
	return xs
}

func (r *Renderer) baseChart(table series.Table, title string, yMin, yMax float64) gochart.Chart {
	dir := strings.ToUpper(table.Direction.String())
	xMin, xMax := breakdown.XRange(table.Sizes)
	lo, hi := breakdown.YRange(yMin, yMax)
	return gochart.Chart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:  dir + " Payload Length (B)",
			Range: &gochart.ContinuousRange{Min: xMin, Max: xMax},
			Ticks: xTicks(table.Sizes),
		},
		YAxis: gochart.YAxis{
			Name:           dir + " Latency (us)",
			Range:          &gochart.ContinuousRange{Min: lo, Max: hi},
			GridMajorStyle: gochart.Style{StrokeWidth: 0.5, StrokeColor: drawing.ColorFromHex("cccccc")},
		},
	}
}

// RenderBreakdown writes the stacked breakdown of one direction. Areas are
// cumulative and drawn from the top layer down.
func (r *Renderer) RenderBreakdown(w io.Writer, table series.Table, format string) error {
	provider, err := rendererProvider(format)
	if err != nil {
		return err
	}
	if len(table.Sizes) == 0 || len(table.Stacked) == 0 {
		return fmt.Errorf("no stacked stages for direction %s", table.Direction)
	}

	xs := xValues(table.Sizes)
	var areas []gochart.Series
	for i := len(table.Stacked) - 1; i >= 0; i-- {
		s := table.Stacked[i]
		style := mappings.GetStageStyle(s.Stage)
		col := stageColor(style.Hex)
		areas = append(areas, gochart.ContinuousSeries{
			Name:    s.Stage.Label(),
			XValues: xs,
			YValues: table.Cumulative[i],
			Style: gochart.Style{
				StrokeWidth: 1,
				StrokeColor: col,
				FillColor:   col.WithAlpha(220),
			},
		})
	}

	yMin, yMax := 0.0, 0.0
	var bars []gochart.Series
	for _, row := range table.ErrorBars() {
		for _, bar := range row {
			yMin = min(yMin, bar.Y, bar.Y-bar.Low)
			yMax = max(yMax, bar.Y, bar.Y+bar.High)
		}
		bars = append(bars, errorBarSeries(row)...)
	}

	title := strings.ToUpper(table.Direction.String()) + " Latency Breakdown (PIO)"
	ch := r.baseChart(table, title, yMin, yMax)
	ch.Series = append(areas, bars...)

	// the legend only lists the stage areas
	legendSource := gochart.Chart{Series: areas}
	ch.Elements = []gochart.Renderable{gochart.LegendLeft(&legendSource)}

	return ch.Render(provider, w)
}

// RenderTotals writes the summary stages of one direction as lines.
func (r *Renderer) RenderTotals(w io.Writer, table series.Table, format string) error {
	provider, err := rendererProvider(format)
	if err != nil {
		return err
	}
	if len(table.Sizes) == 0 || len(table.Totals) == 0 {
		return fmt.Errorf("no total stages for direction %s", table.Direction)
	}

	xs := xValues(table.Sizes)
	var lines, bars []gochart.Series
	yMin, yMax := 0.0, 0.0
	for _, s := range table.Totals {
		style := mappings.GetStageStyle(s.Stage)
		col := stageColor(style.Hex)
		lines = append(lines, gochart.ContinuousSeries{
			Name:    s.Stage.String(),
			XValues: xs,
			YValues: s.Medians(),
			Style: gochart.Style{
				StrokeWidth: 2,
				StrokeColor: col,
				DotWidth:    4,
				DotColor:    col,
			},
		})
		row := make([]series.ErrorBar, len(table.Sizes))
		for j, size := range table.Sizes {
			p := s.Points[j]
			row[j] = series.ErrorBar{Size: size, Y: p.Median, Low: p.CILow, High: p.CIHigh}
			yMin = min(yMin, p.Median, p.Lower())
			yMax = max(yMax, p.Median, p.Upper())
		}
		bars = append(bars, errorBarSeries(row)...)
	}

	title := strings.ToUpper(table.Direction.String()) + " Total Latency (PIO)"
	ch := r.baseChart(table, title, yMin, yMax)
	ch.Series = append(lines, bars...)

	legendSource := gochart.Chart{Series: lines}
	ch.Elements = []gochart.Renderable{gochart.LegendLeft(&legendSource)}

	return ch.Render(provider, w)
}
