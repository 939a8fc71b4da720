package config

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
)

type analysisChecksumPayload struct {
	Variant        string   `json:"variant"`
	FrequencyHz    float64  `json:"frequency_hz"`
	BaselineColumn string   `json:"baseline_column"`
	RequiredFields int      `json:"required_fields"`
	Totals         bool     `json:"totals"`
	Directions     []string `json:"directions"`
	Resamples      int      `json:"resamples"`
	Confidence     float64  `json:"confidence"`
	Seed           uint64   `json:"seed"`
}

// AnalysisChecksum returns a short, stable checksum of the settings that
// influence computed estimates. Output paths, worker count and database
// settings do not contribute.
//
// It computes MD5 over a canonical JSON representation and returns the first 6 hex
// characters (equivalent to `md5sum | cut -c1-6`).
func AnalysisChecksum(cfg *AnalysisConfig) (string, error) {
	if cfg == nil {
		return "", nil
	}
	exp := cfg.Experiment

	dirs := append([]string(nil), exp.Stages.Directions...)
	sort.Strings(dirs)

	payload := analysisChecksumPayload{
		Variant:        exp.Variant,
		FrequencyHz:    exp.Clock.FrequencyHz,
		BaselineColumn: exp.Baseline.Column,
		RequiredFields: exp.Loopback.RequiredFields,
		Totals:         exp.Stages.Totals,
		Directions:     dirs,
		Resamples:      exp.Bootstrap.Resamples,
		Confidence:     exp.Bootstrap.Confidence,
		Seed:           exp.Bootstrap.Seed,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	sum := md5.Sum(b)
	hexStr := hex.EncodeToString(sum[:])
	if len(hexStr) > 6 {
		hexStr = hexStr[:6]
	}
	return hexStr, nil
}
