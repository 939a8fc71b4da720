package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const loopbackCSV = "size,acquire_cyc,after_tx_commit_cyc,after_dma_read_cyc,exit_cyc,host_got_tx_buf_cyc," +
	"entry_cyc,after_rx_queue_cyc,after_dma_write_cyc,read_start_cyc,after_read_cyc,after_rx_commit_cyc,host_read_complete_cyc\n" +
	"64,0,2000,2100,2200,1000,0,40,100,150,300,1750,1000\n" +
	"64,0,2010,2100,2200,1000,0,40,100,160,300,1750,1000\n" +
	"128,0,2000,2100,2200,1000,0,40,100,150,300,1750,1000\n" +
	"128,0,2000,2120,2200,1000,0,44,100,150,300,1750,1000\n"

func writeInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "eci_lat.csv"), []byte("eci_lat_cyc\n1000\n1010\n990\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loopback.csv"), []byte(loopbackCSV), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyze_WritesReportPlotsAndArtifact(t *testing.T) {
	dir := writeInputs(t)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "analyze",
		"--variant", "eci",
		"--baseline", filepath.Join(dir, "eci_lat.csv"),
		"--loopback", filepath.Join(dir, "loopback.csv"),
		"--resamples", "1000",
		"--totals",
		"--out", outDir,
	)
	require.NoError(t, err)
	require.Contains(t, out, "ECI round trip latency (3 samples): median 4.0000 us")
	require.Contains(t, out, "rx process commit")
	require.Contains(t, out, "tx total")
	require.Contains(t, out, "warnings: none")

	for _, name := range []string{"rx-lat-breakdown.tikz", "tx-lat-breakdown.tikz", "rx-lat-total.tikz"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, err, name)
	}

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	artifacts := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "results_loopback_") && strings.HasSuffix(e.Name(), ".json.zst") {
			artifacts++
		}
	}
	require.Equal(t, 1, artifacts)
}

func TestBaseline_DefaultsFollowVariant(t *testing.T) {
	dir := writeInputs(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	out, err := execute(t, "baseline", "--variant", "eci", "--resamples", "1000")
	require.NoError(t, err)
	require.Contains(t, out, "ECI round trip latency")

	// pcie_lat.csv does not exist here
	_, err = execute(t, "baseline", "--resamples", "1000")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := writeInputs(t)
	path := filepath.Join(dir, "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte("experiment:\n  name: eci-pio\n  variant: eci\n"), 0o644))

	out, err := execute(t, "validate", "-c", path)
	require.NoError(t, err)
	require.Contains(t, out, "valid (experiment eci-pio")

	require.NoError(t, os.WriteFile(path, []byte("experiment:\n  name: x\n  variant: usb\n"), 0o644))
	_, err = execute(t, "validate", "-c", path)
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, "loopback-bench "+Version+"\n", out)
}

func TestBuildConfig_FlagsOverrideFile(t *testing.T) {
	dir := writeInputs(t)
	path := filepath.Join(dir, "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
experiment:
  name: from-file
  variant: pcie
  bootstrap: {resamples: 2000, seed: 7}
`), 0o644))

	var flags analysisFlags
	c := &cobra.Command{Use: "analyze"}
	flags.register(c)
	require.NoError(t, c.ParseFlags([]string{"-c", path, "--variant", "eci", "--seed", "9"}))

	cfg, content, err := flags.buildConfig(c)
	require.NoError(t, err)
	require.Contains(t, content, "from-file")
	require.Equal(t, "from-file", cfg.Experiment.Name)
	require.Equal(t, "eci_lat_cyc", cfg.Experiment.Baseline.Column)
	require.Equal(t, 2000, cfg.Experiment.Bootstrap.Resamples)
	require.EqualValues(t, 9, cfg.Experiment.Bootstrap.Seed)
}

func TestBuildConfig_RejectsEmptyDirections(t *testing.T) {
	var flags analysisFlags
	c := &cobra.Command{Use: "analyze"}
	flags.register(c)
	require.NoError(t, c.ParseFlags([]string{"--directions", ""}))

	_, _, err := flags.buildConfig(c)
	require.Error(t, err)
	require.Contains(t, err.Error(), "direction")
}
