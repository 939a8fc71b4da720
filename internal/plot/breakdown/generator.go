package breakdown

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"
	"time"

	"loopback-bench/internal/baseline"
	"loopback-bench/internal/plot/breakdown/mappings"
	plotTemplate "loopback-bench/internal/plot/breakdown/templates/plot"
	wrapperTemplate "loopback-bench/internal/plot/breakdown/templates/wrapper"
	"loopback-bench/internal/series"
	"loopback-bench/internal/stages"

	"github.com/sirupsen/logrus"
)

const (
	KindBreakdown = "lat-breakdown"
	KindTotal     = "lat-total"
)

type BreakdownPlotGenerator struct {
	logger *logrus.Logger
}

func NewBreakdownPlotGenerator(logger *logrus.Logger) *BreakdownPlotGenerator {
	return &BreakdownPlotGenerator{logger: logger}
}

type PlotOptions struct {
	Experiment string
	Variant    string
	Checksum   string
	Trials     int
	Baseline   baseline.Baseline
	Table      series.Table
	// YMaxOverride pins the upper y limit when set.
	YMaxOverride *float64
}

// FileName is "<dir>-<kind>.tikz".
func FileName(dir stages.Direction, kind string) string {
	return fmt.Sprintf("%s-%s.tikz", dir, kind)
}

// WrapperFileName is "<dir>-<kind>-wrapper.tex".
func WrapperFileName(dir stages.Direction, kind string) string {
	return fmt.Sprintf("%s-%s-wrapper.tex", dir, kind)
}

// Generate renders the stacked breakdown of one direction.
func (g *BreakdownPlotGenerator) Generate(opts PlotOptions) (string, string, error) {
	table := opts.Table
	g.logger.WithFields(logrus.Fields{
		"direction": table.Direction.String(),
		"sizes":     len(table.Sizes),
		"stages":    len(table.Stacked),
	}).Info("Generating breakdown plot")

	if len(table.Sizes) == 0 || len(table.Stacked) == 0 {
		return "", "", fmt.Errorf("no stacked stages for direction %s", table.Direction)
	}

	data := g.prepareHeader(opts)
	bars := table.ErrorBars()

	yMin, yMax := 0.0, math.Inf(-1)
	for i := len(table.Stacked) - 1; i >= 0; i-- {
		s := table.Stacked[i]
		style := mappings.GetStageStyle(s.Stage)
		area := plotTemplate.PlotSeries{
			Stage:       s.Stage.String(),
			Style:       style.ToTikzAreaOptions(),
			LegendEntry: s.Stage.Label(),
		}
		for j, size := range table.Sizes {
			area.Coordinates = append(area.Coordinates, coordinate(size, table.Cumulative[i][j]))
		}
		data.Areas = append(data.Areas, area)
	}

	for i, row := range bars {
		eb := plotTemplate.PlotSeries{Stage: table.Stacked[i].Stage.String()}
		for _, bar := range row {
			eb.Coordinates = append(eb.Coordinates, errorCoordinate(bar))
			yMin = math.Min(yMin, math.Min(bar.Y, bar.Y-bar.Low))
			yMax = math.Max(yMax, math.Max(bar.Y, bar.Y+bar.High))
		}
		data.ErrorBars = append(data.ErrorBars, eb)
	}

	g.applyLimits(data, table, yMin, yMax, opts.YMaxOverride)
	data.Title = strings.ToUpper(table.Direction.String()) + " Latency Breakdown (PIO)"

	plotOutput, err := g.renderPlot(plotTemplate.BreakdownTemplate, data)
	if err != nil {
		return "", "", fmt.Errorf("failed to render plot: %w", err)
	}

	wrapperOutput, err := g.renderWrapper(g.prepareWrapperData(opts, KindBreakdown,
		fmt.Sprintf("%s latency breakdown", strings.ToUpper(table.Direction.String())),
		fmt.Sprintf("Median %s latency per stage over payload length, stacked, with %.0f%% bootstrap confidence intervals of each stage",
			strings.ToUpper(table.Direction.String()), 100*opts.Baseline.Confidence)))
	if err != nil {
		return "", "", fmt.Errorf("failed to render wrapper: %w", err)
	}

	g.logger.Info("Breakdown plot generated successfully")
	return plotOutput, wrapperOutput, nil
}

// GenerateTotals renders the summary stages of one direction as lines.
func (g *BreakdownPlotGenerator) GenerateTotals(opts PlotOptions) (string, string, error) {
	table := opts.Table
	if len(table.Sizes) == 0 || len(table.Totals) == 0 {
		return "", "", fmt.Errorf("no total stages for direction %s", table.Direction)
	}

	data := g.prepareHeader(opts)
	yMin, yMax := 0.0, math.Inf(-1)
	for _, s := range table.Totals {
		style := mappings.GetStageStyle(s.Stage)
		line := plotTemplate.PlotSeries{
			Stage:       s.Stage.String(),
			Style:       style.ToTikzOptions(),
			LegendEntry: s.Stage.String(),
		}
		for j, size := range table.Sizes {
			p := s.Points[j]
			line.Coordinates = append(line.Coordinates, errorCoordinate(series.ErrorBar{
				Size: size, Y: p.Median, Low: p.CILow, High: p.CIHigh,
			}))
			yMin = math.Min(yMin, p.Lower())
			yMax = math.Max(yMax, math.Max(p.Upper(), p.Median))
		}
		data.Lines = append(data.Lines, line)
	}

	g.applyLimits(data, table, yMin, yMax, opts.YMaxOverride)
	data.Title = strings.ToUpper(table.Direction.String()) + " Total Latency (PIO)"

	plotOutput, err := g.renderPlot(plotTemplate.TotalsTemplate, data)
	if err != nil {
		return "", "", fmt.Errorf("failed to render plot: %w", err)
	}

	wrapperOutput, err := g.renderWrapper(g.prepareWrapperData(opts, KindTotal,
		fmt.Sprintf("%s total latency", strings.ToUpper(table.Direction.String())),
		fmt.Sprintf("Median end-to-end %s latency over payload length", strings.ToUpper(table.Direction.String()))))
	if err != nil {
		return "", "", fmt.Errorf("failed to render wrapper: %w", err)
	}
	return plotOutput, wrapperOutput, nil
}

func (g *BreakdownPlotGenerator) prepareHeader(opts PlotOptions) *plotTemplate.PlotData {
	dir := strings.ToUpper(opts.Table.Direction.String())
	return &plotTemplate.PlotData{
		GeneratedDate:    time.Now().Format("2006-01-02 15:04:05"),
		Experiment:       opts.Experiment,
		Variant:          opts.Variant,
		Checksum:         opts.Checksum,
		BaselineSummary:  opts.Baseline.String(),
		BaselineSamples:  opts.Baseline.Samples,
		Trials:           opts.Trials,
		ColorDefinitions: mappings.ColorDefinitions,
		XLabel:           dir + " Payload Length (B)",
		YLabel:           dir + " Latency (us)",
	}
}

func (g *BreakdownPlotGenerator) applyLimits(data *plotTemplate.PlotData, table series.Table, yMin, yMax float64, yMaxOverride *float64) {
	xMin, xMax := XRange(table.Sizes)
	data.XMin = formatFloat(xMin)
	data.XMax = formatFloat(xMax)

	ticks := make([]string, len(table.Sizes))
	for i, s := range table.Sizes {
		ticks[i] = strconv.Itoa(s)
	}
	data.XTicks = strings.Join(ticks, ",")

	lo, hi := YRange(yMin, yMax)
	if yMaxOverride != nil {
		hi = *yMaxOverride
	}
	data.YMin = formatFloat(lo)
	data.YMax = formatFloat(hi)
}

// XRange pads a single size so the axis never collapses.
func XRange(sizes []int) (float64, float64) {
	if len(sizes) == 0 {
		return 0, 1
	}
	lo, hi := float64(sizes[0]), float64(sizes[len(sizes)-1])
	if lo == hi {
		return lo - 1, hi + 1
	}
	return lo, hi
}

// YRange includes zero and leaves 5% headroom.
func YRange(dataMin, dataMax float64) (float64, float64) {
	lo := math.Min(0, dataMin)
	if math.IsInf(dataMax, -1) || dataMax <= lo {
		return lo, lo + 1
	}
	hi := dataMax * 1.05
	if dataMax <= 0 {
		hi = 0
	}
	if lo < 0 {
		lo *= 1.05
	}
	return lo, hi
}

func coordinate(size int, y float64) string {
	return fmt.Sprintf("(%d,%.6f)", size, y)
}

// pgfplots explicit asymmetric error: (x,y) += (0,high) -= (0,low)
func errorCoordinate(bar series.ErrorBar) string {
	return fmt.Sprintf("(%d,%.6f) += (0,%.6f) -= (0,%.6f)", bar.Size, bar.Y, bar.High, bar.Low)
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func (g *BreakdownPlotGenerator) prepareWrapperData(opts PlotOptions, kind, short, caption string) *wrapperTemplate.WrapperData {
	return &wrapperTemplate.WrapperData{
		GeneratedDate: time.Now().Format("2006-01-02 15:04:05"),
		Experiment:    opts.Experiment,
		Direction:     opts.Table.Direction.String(),
		Kind:          kind,
		PlotFileName:  FileName(opts.Table.Direction, kind),
		ShortCaption:  short,
		Caption:       caption,
	}
}

func (g *BreakdownPlotGenerator) renderPlot(tmplText string, data *plotTemplate.PlotData) (string, error) {
	tmpl, err := template.New("plot").Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("failed to parse plot template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute plot template: %w", err)
	}

	return buf.String(), nil
}

func (g *BreakdownPlotGenerator) renderWrapper(data *wrapperTemplate.WrapperData) (string, error) {
	tmpl, err := template.New("wrapper").Parse(wrapperTemplate.WrapperTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse wrapper template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute wrapper template: %w", err)
	}

	return buf.String(), nil
}
