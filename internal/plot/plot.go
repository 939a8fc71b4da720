package plot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"loopback-bench/internal/config"
	"loopback-bench/internal/logging"
	"loopback-bench/internal/pipeline"
	"loopback-bench/internal/plot/breakdown"
	"loopback-bench/internal/plot/chart"
	"loopback-bench/internal/series"
	"loopback-bench/internal/stages"

	"github.com/sirupsen/logrus"
)

type PlotType string

const (
	PlotTypeBreakdown PlotType = breakdown.KindBreakdown
	PlotTypeTotal     PlotType = breakdown.KindTotal
)

type PlotManager struct {
	outDir             string
	formats            []string
	breakdownGenerator *breakdown.BreakdownPlotGenerator
	chartRenderer      *chart.Renderer
	logger             *logrus.Logger
}

func NewPlotManager(cfg *config.AnalysisConfig) *PlotManager {
	logger := logging.GetLogger()
	return &PlotManager{
		outDir:             cfg.Experiment.Output.Dir,
		formats:            cfg.Experiment.Output.Formats,
		breakdownGenerator: breakdown.NewBreakdownPlotGenerator(logger),
		chartRenderer:      chart.NewRenderer(),
		logger:             logger,
	}
}

// WriteAll renders every configured format for every direction of the
// result and returns the written paths. Totals plots are only produced for
// tables that carry summary stages.
func (pm *PlotManager) WriteAll(result *pipeline.Result, checksum string) ([]string, error) {
	if err := os.MkdirAll(pm.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var written []string
	for _, dir := range result.Directions() {
		table := result.Tables[dir]
		if table.Empty() {
			pm.logger.WithField("direction", dir.String()).Warn("No estimates for direction, skipping plots")
			continue
		}

		kinds := []PlotType{}
		if len(table.Stacked) > 0 {
			kinds = append(kinds, PlotTypeBreakdown)
		}
		if len(table.Totals) > 0 {
			kinds = append(kinds, PlotTypeTotal)
		}

		for _, kind := range kinds {
			for _, format := range pm.formats {
				paths, err := pm.write(result, checksum, table, kind, format)
				if err != nil {
					return written, err
				}
				written = append(written, paths...)
			}
		}
	}

	pm.logger.WithFields(logrus.Fields{
		"dir":   pm.outDir,
		"files": len(written),
	}).Info("Plots written")
	return written, nil
}

func (pm *PlotManager) write(result *pipeline.Result, checksum string, table series.Table, kind PlotType, format string) ([]string, error) {
	switch format {
	case config.FormatTikZ:
		plotTikz, wrapperTex, err := pm.GenerateTikz(result, checksum, table, kind)
		if err != nil {
			return nil, err
		}
		plotPath := filepath.Join(pm.outDir, breakdown.FileName(table.Direction, string(kind)))
		wrapperPath := filepath.Join(pm.outDir, breakdown.WrapperFileName(table.Direction, string(kind)))
		if err := os.WriteFile(plotPath, []byte(plotTikz), 0o644); err != nil {
			return nil, err
		}
		if err := os.WriteFile(wrapperPath, []byte(wrapperTex), 0o644); err != nil {
			return nil, err
		}
		return []string{plotPath, wrapperPath}, nil

	case config.FormatPNG, config.FormatSVG:
		var buf bytes.Buffer
		var err error
		if kind == PlotTypeTotal {
			err = pm.chartRenderer.RenderTotals(&buf, table, format)
		} else {
			err = pm.chartRenderer.RenderBreakdown(&buf, table, format)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to render %s %s chart: %w", table.Direction, kind, err)
		}
		path := filepath.Join(pm.outDir, ImageFileName(table.Direction, kind, format))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, err
		}
		return []string{path}, nil

	default:
		return nil, fmt.Errorf("unsupported plot format %q", format)
	}
}

// GenerateTikz returns the pgfplots figure and its LaTeX wrapper.
func (pm *PlotManager) GenerateTikz(result *pipeline.Result, checksum string, table series.Table, kind PlotType) (plotTikz, wrapperTex string, err error) {
	opts := breakdown.PlotOptions{
		Experiment: result.Experiment,
		Variant:    result.Variant,
		Checksum:   checksum,
		Trials:     result.Trials,
		Baseline:   result.Baseline,
		Table:      table,
	}
	if kind == PlotTypeTotal {
		return pm.breakdownGenerator.GenerateTotals(opts)
	}
	return pm.breakdownGenerator.Generate(opts)
}

// ImageFileName is "<dir>-<kind>.<format>".
func ImageFileName(dir stages.Direction, kind PlotType, format string) string {
	return fmt.Sprintf("%s-%s.%s", dir, kind, strings.ToLower(format))
}
