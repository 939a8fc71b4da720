package stages

import (
	"testing"

	"loopback-bench/internal/cycles"
	"loopback-bench/internal/diagnostics"

	"github.com/stretchr/testify/require"
)

func testConverter(t *testing.T) cycles.Converter {
	t.Helper()
	conv, err := cycles.NewConverter(cycles.DefaultFrequencyHz)
	require.NoError(t, err)
	return conv
}

// syntheticTrial has a well-ordered checkpoint sequence on both paths.
func syntheticTrial(readStart int64) RawTrial {
	return RawTrial{
		Size: 64,
		Cycles: map[Checkpoint]int64{
			Acquire:          0,
			HostGotTxBuf:     1000,
			AfterTxCommit:    1400,
			AfterDMARead:     1500,
			Exit:             1600,
			Entry:            0,
			AfterRxQueue:     40,
			AfterDMAWrite:    100,
			ReadStart:        readStart,
			AfterRead:        300,
			HostReadComplete: 700,
			AfterRxCommit:    1000,
		},
	}
}

func byStage(durations []Duration) map[Stage]float64 {
	m := make(map[Stage]float64, len(durations))
	for _, d := range durations {
		m[d.Stage] = d.Micros
	}
	return m
}

func TestDecompose_WaitPositiveEmitsWaitAndIssue(t *testing.T) {
	conv := testConverter(t)
	got, err := Decompose(syntheticTrial(150), 0, conv, Options{Directions: []Direction{RX}}, nil)
	require.NoError(t, err)

	m := byStage(got)
	require.Contains(t, m, Stage{RX, WaitHost})
	require.Contains(t, m, Stage{RX, IssueCmd})
	require.InDelta(t, conv.Micros(50), m[Stage{RX, WaitHost}], 1e-12)
	require.InDelta(t, conv.Micros(150), m[Stage{RX, IssueCmd}], 1e-12)
}

func TestDecompose_WaitNonPositiveEmitsOnlyIssue(t *testing.T) {
	conv := testConverter(t)
	for _, readStart := range []int64{90, 100} {
		got, err := Decompose(syntheticTrial(readStart), 0, conv, Options{Directions: []Direction{RX}}, nil)
		require.NoError(t, err)

		m := byStage(got)
		require.NotContains(t, m, Stage{RX, WaitHost}, "read_start=%d", readStart)
		require.Equal(t, conv.Micros(300-100), m[Stage{RX, IssueCmd}], "read_start=%d", readStart)
	}
}

func TestDecompose_HalfRoundTripCorrection(t *testing.T) {
	conv := testConverter(t)
	const halfRTT = 0.5

	got, err := Decompose(syntheticTrial(150), halfRTT, conv, Options{Totals: true}, nil)
	require.NoError(t, err)
	m := byStage(got)

	tests := []struct {
		stage Stage
		want  float64
	}{
		{Stage{TX, WritePacket}, conv.Micros(400) - halfRTT},
		{Stage{TX, StreamBuf}, conv.Micros(100)},
		{Stage{TX, Queue}, conv.Micros(100)},
		{Stage{RX, Queue}, conv.Micros(40)},
		{Stage{RX, StreamBuf}, conv.Micros(60)},
		{Stage{RX, ReadPacket}, conv.Micros(400) - halfRTT},
		{Stage{RX, ProcessCommit}, conv.Micros(300) - halfRTT},
		{Stage{TX, Total}, conv.Micros(600) - halfRTT},
		{Stage{RX, Total}, conv.Micros(700) - halfRTT},
	}
	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			require.InDelta(t, tt.want, m[tt.stage], 1e-12)
		})
	}
}

func TestDecompose_EmissionOrder(t *testing.T) {
	got, err := Decompose(syntheticTrial(150), 0, testConverter(t), Options{Totals: true}, nil)
	require.NoError(t, err)

	var names []string
	for _, d := range got {
		names = append(names, d.Stage.String())
	}
	require.Equal(t, []string{
		"tx write packet", "tx stream buf", "tx queue",
		"rx queue", "rx stream buf", "rx wait host", "rx issue cmd",
		"rx read packet", "rx process commit",
		"tx total", "rx total",
	}, names)
}

func TestDecompose_NegativeDurationWarnsAndKeepsValue(t *testing.T) {
	rec := diagnostics.NewRecorder(nil)
	conv := testConverter(t)

	// a baseline larger than the read leg over-corrects it
	halfRTT := conv.Micros(1000)
	got, err := Decompose(syntheticTrial(150), halfRTT, conv, Options{Directions: []Direction{RX}}, rec)
	require.NoError(t, err)

	m := byStage(got)
	require.Less(t, m[Stage{RX, ReadPacket}], 0.0)
	require.Less(t, m[Stage{RX, ProcessCommit}], 0.0)
	require.Equal(t, 2, rec.Count(diagnostics.NegativeDuration))

	w := rec.Warnings()[0]
	require.Equal(t, "rx read packet", w.Fields["stage"])
	require.Equal(t, 64, w.Fields["size"])
}

func TestDecompose_MissingCheckpoint(t *testing.T) {
	trial := syntheticTrial(150)
	delete(trial.Cycles, Exit)

	_, err := Decompose(trial, 0, testConverter(t), Options{}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exit_cyc")

	// rx only does not touch exit
	_, err = Decompose(trial, 0, testConverter(t), Options{Directions: []Direction{RX}}, nil)
	require.NoError(t, err)
}

func TestStage_NamesAndFlags(t *testing.T) {
	s := Stage{RX, WaitHost}
	require.Equal(t, "rx wait host", s.String())
	require.Equal(t, "wait host", s.Label())
	require.True(t, s.Intermittent())
	require.False(t, s.Stacked())

	total := Stage{TX, Total}
	require.True(t, total.Summary())
	require.False(t, total.Stacked())

	require.True(t, Stage{TX, WritePacket}.Stacked())
}

func TestParseStage_RoundTrip(t *testing.T) {
	for _, d := range Directions {
		for k := range kindLabels {
			s := Stage{Direction: d, Kind: k}
			parsed, err := ParseStage(s.String())
			require.NoError(t, err)
			require.Equal(t, s, parsed)
		}
	}
	_, err := ParseStage("rx nonsense")
	require.Error(t, err)
	_, err = ParseStage("queue")
	require.Error(t, err)
}

func TestCheckpointColumns(t *testing.T) {
	require.Equal(t, "host_read_complete_cyc", HostReadComplete.Column())
	require.Equal(t, 13, RequiredFields())
}
