package spool

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"loopback-bench/internal/aggregate"
	"loopback-bench/internal/baseline"
	"loopback-bench/internal/database"
	"loopback-bench/internal/pipeline"
	"loopback-bench/internal/series"
	"loopback-bench/internal/stages"
	"loopback-bench/internal/stats"

	"github.com/stretchr/testify/require"
)

func testResult() *pipeline.Result {
	rxQueue := stages.Stage{Direction: stages.RX, Kind: stages.Queue}
	est := &aggregate.Estimates{
		Points: map[aggregate.Key]stats.EstimatePoint{
			{Size: 64, Stage: rxQueue}: {Median: 0.5, CILow: 0.1, CIHigh: 0.2, Samples: 10},
		},
		Keys:   []aggregate.Key{{Size: 64, Stage: rxQueue}},
		Sizes:  []int{64},
		Stages: []stages.Stage{rxQueue},
	}
	return &pipeline.Result{
		Experiment: "pcie pio/1",
		Variant:    "pcie",
		Baseline:   baseline.Baseline{Samples: 3, Point: stats.EstimatePoint{Median: 4}, Low: 4, High: 4, Confidence: 0.95},
		Trials:     10,
		Estimates:  est,
		Tables:     map[stages.Direction]series.Table{stages.RX: series.Assemble(est, stages.RX)},
		Warnings:   map[string]int{},
		Started:    time.Now().Add(-time.Second),
		Finished:   time.Now(),
	}
}

func TestWriteArtifact_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := BuildArtifact(testResult(), "abc123", "experiment:\n  name: x\n", &database.HostInfo{Hostname: "node1"})

	path, err := WriteArtifact(dir, a)
	require.NoError(t, err)

	base := filepath.Base(path)
	require.True(t, strings.HasPrefix(base, "results_pcie-pio-1_"), base)
	require.True(t, strings.HasSuffix(base, "_abc123.json.zst"), base)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file left behind")

	got, err := ReadArtifact(path)
	require.NoError(t, err)
	require.Equal(t, a.Name, got.Name)
	require.Equal(t, a.ConfigContent, got.ConfigContent)
	require.Equal(t, a.Estimates, got.Estimates)
	require.Len(t, got.Tables, 1)
	require.Equal(t, stages.RX, got.Tables[0].Direction)
	require.Equal(t, "node1", got.Host.Hostname)
}

func TestWriteArtifact_Nil(t *testing.T) {
	_, err := WriteArtifact(t.TempDir(), nil)
	require.Error(t, err)
}

func TestReadArtifact_NotZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.json.zst")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1}`), 0o644))
	_, err := ReadArtifact(path)
	require.Error(t, err)
}

func TestDefaultSpoolDir(t *testing.T) {
	t.Setenv("LOOPBACK_BENCH_SPOOL_DIR", "/tmp/lb-spool")
	require.Equal(t, "/tmp/lb-spool", DefaultSpoolDir())
	t.Setenv("LOOPBACK_BENCH_SPOOL_DIR", "")
	require.Equal(t, "spool", DefaultSpoolDir())
}
