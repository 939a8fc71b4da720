package diagnostics

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsAndForwards(t *testing.T) {
	inner := NewRecorder(nil)
	r := NewRecorder(inner)

	r.Warn(Warning{Kind: DegenerateSample, Message: "one"})
	r.Warn(Warning{Kind: NegativeDuration, Message: "two"})
	r.Warn(Warning{Kind: DegenerateSample, Message: "three"})

	require.Equal(t, 2, r.Count(DegenerateSample))
	require.Equal(t, 1, r.Count(NegativeDuration))
	require.Equal(t, 0, r.Count(MalformedRow))
	require.Len(t, inner.Warnings(), 3)
	require.Equal(t, "degenerate_sample=2 negative_duration=1", FormatSummary(r.Summary()))
}

func TestFormatSummary_Empty(t *testing.T) {
	require.Equal(t, "none", FormatSummary(nil))
}

func TestLogReporter_WritesKind(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	NewLogReporter(l).Warn(Warning{
		Kind:    MalformedRow,
		Message: "short row",
		Fields:  logrus.Fields{"size": 64},
	})

	out := buf.String()
	require.Contains(t, out, "kind=malformed_row")
	require.Contains(t, out, "size=64")
	require.Contains(t, out, "short row")
}
