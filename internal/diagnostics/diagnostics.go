package diagnostics

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"loopback-bench/internal/logging"

	"github.com/sirupsen/logrus"
)

// Kind classifies a non-fatal data quality warning.
type Kind int

const (
	MalformedRow Kind = iota
	DegenerateSample
	NegativeDuration
)

func (k Kind) String() string {
	switch k {
	case MalformedRow:
		return "malformed_row"
	case DegenerateSample:
		return "degenerate_sample"
	case NegativeDuration:
		return "negative_duration"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Warning is one observation on the diagnostics channel. Warnings never
// change computed values.
type Warning struct {
	Kind    Kind
	Message string
	Fields  logrus.Fields
}

type Reporter interface {
	Warn(w Warning)
}

// LogReporter writes warnings to the diagnostics logger.
type LogReporter struct {
	logger *logrus.Logger
}

func NewLogReporter(logger *logrus.Logger) *LogReporter {
	if logger == nil {
		logger = logging.GetDiagnosticsLogger()
	}
	return &LogReporter{logger: logger}
}

func (lr *LogReporter) Warn(w Warning) {
	lr.logger.WithFields(w.Fields).WithField("kind", w.Kind.String()).Warn(w.Message)
}

type discard struct{}

func (discard) Warn(Warning) {}

// Discard drops every warning.
var Discard Reporter = discard{}

// Recorder keeps every warning it sees and forwards it to an optional
// downstream reporter. It is safe for concurrent use.
type Recorder struct {
	next     Reporter
	warnings []Warning
	mutex    sync.Mutex
}

func NewRecorder(next Reporter) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Warn(w Warning) {
	r.mutex.Lock()
	r.warnings = append(r.warnings, w)
	r.mutex.Unlock()

	if r.next != nil {
		r.next.Warn(w)
	}
}

func (r *Recorder) Warnings() []Warning {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

func (r *Recorder) Count(kind Kind) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	n := 0
	for _, w := range r.warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// Summary returns warning counts keyed by kind name.
func (r *Recorder) Summary() map[string]int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	counts := make(map[string]int)
	for _, w := range r.warnings {
		counts[w.Kind.String()]++
	}
	return counts
}

// FormatSummary renders Summary as "kind=n" pairs in name order.
func FormatSummary(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
