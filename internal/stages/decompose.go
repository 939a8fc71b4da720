package stages

import (
	"fmt"

	"loopback-bench/internal/cycles"
	"loopback-bench/internal/diagnostics"

	"github.com/sirupsen/logrus"
)

// Duration is one derived stage duration of a trial, in microseconds.
type Duration struct {
	Stage  Stage
	Micros float64
}

type Options struct {
	// Directions restricts emission; empty means both.
	Directions []Direction
	// Totals adds the rx/tx total summary stages.
	Totals bool
}

func (o Options) wants(d Direction) bool {
	if len(o.Directions) == 0 {
		return true
	}
	for _, x := range o.Directions {
		if x == d {
			return true
		}
	}
	return false
}

// Decompose splits one trial into stage durations. halfRTT is half the
// baseline round trip median and is subtracted from every stage that crosses
// one host/device hop. Negative durations are reported and kept.
func Decompose(trial RawTrial, halfRTT float64, conv cycles.Converter, opts Options, reporter diagnostics.Reporter) ([]Duration, error) {
	if reporter == nil {
		reporter = diagnostics.Discard
	}

	var missing []string
	delta := func(from, to Checkpoint) float64 {
		start, ok := trial.Cycles[from]
		if !ok {
			missing = append(missing, from.Column())
		}
		end, ok := trial.Cycles[to]
		if !ok {
			missing = append(missing, to.Column())
		}
		return conv.Delta(start, end)
	}

	out := make([]Duration, 0, 10)
	emit := func(d Direction, k Kind, us float64) {
		out = append(out, Duration{Stage: Stage{Direction: d, Kind: k}, Micros: us})
	}

	if opts.wants(TX) {
		emit(TX, WritePacket, delta(HostGotTxBuf, AfterTxCommit)-halfRTT)
		emit(TX, StreamBuf, delta(AfterTxCommit, AfterDMARead))
		emit(TX, Queue, delta(AfterDMARead, Exit))
	}

	if opts.wants(RX) {
		emit(RX, Queue, delta(Entry, AfterRxQueue))
		emit(RX, StreamBuf, delta(AfterRxQueue, AfterDMAWrite))

		// the host may issue its read before the DMA write lands; then
		// there is no wait and the command covers the whole gap
		wait := delta(AfterDMAWrite, ReadStart)
		if wait > 0 {
			emit(RX, WaitHost, wait)
			emit(RX, IssueCmd, delta(ReadStart, AfterRead))
		} else {
			emit(RX, IssueCmd, delta(AfterDMAWrite, AfterRead))
		}

		emit(RX, ReadPacket, delta(AfterRead, HostReadComplete)-halfRTT)
		emit(RX, ProcessCommit, delta(HostReadComplete, AfterRxCommit)-halfRTT)
	}

	if opts.Totals {
		if opts.wants(TX) {
			emit(TX, Total, delta(HostGotTxBuf, Exit)-halfRTT)
		}
		if opts.wants(RX) {
			emit(RX, Total, delta(Entry, HostReadComplete)-halfRTT)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("trial size %d: missing checkpoints %v", trial.Size, missing)
	}

	for _, d := range out {
		if d.Micros < 0 {
			reporter.Warn(diagnostics.Warning{
				Kind:    diagnostics.NegativeDuration,
				Message: fmt.Sprintf("stage %q has negative duration %.3f us", d.Stage, d.Micros),
				Fields: logrus.Fields{
					"stage":  d.Stage.String(),
					"size":   trial.Size,
					"line":   trial.Line,
					"micros": d.Micros,
				},
			})
		}
	}

	return out, nil
}
