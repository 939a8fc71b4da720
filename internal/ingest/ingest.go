package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"loopback-bench/internal/cycles"
	"loopback-bench/internal/diagnostics"
	"loopback-bench/internal/logging"
	"loopback-bench/internal/stages"

	"github.com/sirupsen/logrus"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrNoRows        = errors.New("no data rows")
)

// ReadColumn reads one integer column of a headered CSV, e.g. the
// pcie_lat_cyc baseline samples.
func ReadColumn(r io.Reader, column string) ([]int64, error) {
	reader := newReader(r)

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty file", ErrNoRows)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx := indexOf(header, column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s (have %v)", ErrMissingColumn, column, header)
	}

	var values []int64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if idx >= len(record) || strings.TrimSpace(record[idx]) == "" {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w: %s is empty", line, ErrMissingColumn, column)
		}
		v, err := cycles.ParseCount(record[idx])
		if err != nil {
			line, _ := reader.FieldPos(idx)
			return nil, fmt.Errorf("line %d column %s: %w", line, column, err)
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%w: column %s", ErrNoRows, column)
	}
	return values, nil
}

type TrialOptions struct {
	// RequiredFields is the minimum number of populated fields per row.
	// Zero means the full loopback schema.
	RequiredFields int
}

// ReadTrials reads loopback trials keyed by header names. The first row with
// fewer populated fields than required stops ingestion: it and every row after
// it are dropped, the trials read so far are returned.
func ReadTrials(r io.Reader, opts TrialOptions, reporter diagnostics.Reporter) ([]stages.RawTrial, error) {
	logger := logging.GetLogger()
	if reporter == nil {
		reporter = diagnostics.Discard
	}
	required := opts.RequiredFields
	if required <= 0 {
		required = stages.RequiredFields()
	}

	reader := newReader(r)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty file", ErrNoRows)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	sizeIdx := indexOf(header, stages.SizeColumn)
	if sizeIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, stages.SizeColumn)
	}
	columns := make(map[stages.Checkpoint]int, len(stages.Checkpoints))
	for _, cp := range stages.Checkpoints {
		idx := indexOf(header, cp.Column())
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, cp.Column())
		}
		columns[cp] = idx
	}

	var trials []stages.RawTrial
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return trials, fmt.Errorf("failed to read row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		populated := populatedFields(header, record)
		if populated < required {
			size := "unknown"
			if sizeIdx < len(record) && strings.TrimSpace(record[sizeIdx]) != "" {
				size = strings.TrimSpace(record[sizeIdx])
			}
			reporter.Warn(diagnostics.Warning{
				Kind: diagnostics.MalformedRow,
				Message: fmt.Sprintf("row has fewer elements (%d) than required (%d); stopping parsing, later rows are discarded",
					populated, required),
				Fields: logrus.Fields{
					"size":      size,
					"line":      line,
					"populated": populated,
					"required":  required,
				},
			})
			break
		}

		trial, err := parseTrial(record, sizeIdx, columns)
		if err != nil {
			return trials, fmt.Errorf("line %d: %w", line, err)
		}
		trial.Line = line
		trials = append(trials, trial)
	}

	logger.WithField("trials", len(trials)).Debug("Loopback trials ingested")
	return trials, nil
}

func parseTrial(record []string, sizeIdx int, columns map[stages.Checkpoint]int) (stages.RawTrial, error) {
	size, err := strconv.Atoi(strings.TrimSpace(record[sizeIdx]))
	if err != nil {
		return stages.RawTrial{}, fmt.Errorf("invalid size %q: %w", record[sizeIdx], err)
	}

	trial := stages.RawTrial{
		Size:   size,
		Cycles: make(map[stages.Checkpoint]int64, len(columns)),
	}
	for cp, idx := range columns {
		if idx >= len(record) {
			return stages.RawTrial{}, fmt.Errorf("column %s: %w", cp.Column(), ErrMissingColumn)
		}
		v, err := cycles.ParseCount(record[idx])
		if err != nil {
			return stages.RawTrial{}, fmt.Errorf("column %s: %w", cp.Column(), err)
		}
		trial.Cycles[cp] = v
	}
	return trial, nil
}

// populatedFields counts header columns that carry a value in record.
func populatedFields(header, record []string) int {
	n := 0
	for i := range header {
		if i < len(record) && strings.TrimSpace(record[i]) != "" {
			n++
		}
	}
	return n
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	// short rows are handled by the populated-field check, not the parser
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

func indexOf(header []string, column string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == column {
			return i
		}
	}
	return -1
}

func ReadColumnFile(path, column string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	values, err := ReadColumn(f, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

func ReadTrialsFile(path string, opts TrialOptions, reporter diagnostics.Reporter) ([]stages.RawTrial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	trials, err := ReadTrials(f, opts, reporter)
	if err != nil {
		return trials, fmt.Errorf("%s: %w", path, err)
	}
	return trials, nil
}
