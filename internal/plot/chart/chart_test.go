package chart

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"loopback-bench/internal/aggregate"
	"loopback-bench/internal/series"
	"loopback-bench/internal/stages"
	"loopback-bench/internal/stats"
)

func testTable(sizes ...int) series.Table {
	queue := stages.Stage{Direction: stages.TX, Kind: stages.Queue}
	write := stages.Stage{Direction: stages.TX, Kind: stages.WritePacket}
	total := stages.Stage{Direction: stages.TX, Kind: stages.Total}
	est := &aggregate.Estimates{
		Points: map[aggregate.Key]stats.EstimatePoint{},
		Sizes:  sizes,
		Stages: []stages.Stage{write, queue, total},
	}
	for i, size := range sizes {
		f := float64(i + 1)
		est.Points[aggregate.Key{Size: size, Stage: write}] = stats.EstimatePoint{Median: f, CILow: 0.1, CIHigh: 0.1, Samples: 3}
		est.Points[aggregate.Key{Size: size, Stage: queue}] = stats.EstimatePoint{Median: 0.5, CILow: 0.05, CIHigh: 0.1, Samples: 3}
		est.Points[aggregate.Key{Size: size, Stage: total}] = stats.EstimatePoint{Median: f + 0.5, CILow: 0.2, CIHigh: 0.2, Samples: 3}
	}
	return series.Assemble(est, stages.TX)
}

func TestRenderBreakdown_PNG(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer().RenderBreakdown(&buf, testTable(64, 128, 256), FormatPNG); err != nil {
		t.Fatalf("RenderBreakdown: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != DefaultWidth || img.Bounds().Dy() != DefaultHeight {
		t.Fatalf("unexpected image size %v", img.Bounds())
	}
}

func TestRenderBreakdown_SingleSizeSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer().RenderBreakdown(&buf, testTable(64), FormatSVG); err != nil {
		t.Fatalf("RenderBreakdown: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatalf("expected svg output")
	}
}

func TestRenderTotals(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer().RenderTotals(&buf, testTable(64, 128), FormatPNG); err != nil {
		t.Fatalf("RenderTotals: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected png bytes")
	}
}

func TestRender_Errors(t *testing.T) {
	r := NewRenderer()
	if err := r.RenderBreakdown(&bytes.Buffer{}, testTable(64), "pdf"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if err := r.RenderBreakdown(&bytes.Buffer{}, series.Table{Direction: stages.RX}, FormatPNG); err == nil {
		t.Fatalf("expected error for empty table")
	}
}
