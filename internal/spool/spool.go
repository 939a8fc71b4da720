package spool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"loopback-bench/internal/aggregate"
	"loopback-bench/internal/baseline"
	"loopback-bench/internal/database"
	"loopback-bench/internal/pipeline"
	"loopback-bench/internal/series"

	"github.com/klauspost/compress/zstd"
)

const ArtifactVersion = 1

// Artifact is the self-describing record of one analysis run.
type Artifact struct {
	Version int `json:"version"`

	CreatedAt time.Time `json:"created_at"`

	Name     string `json:"name"`
	Variant  string `json:"variant"`
	Checksum string `json:"checksum"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	ConfigContent string `json:"config_content,omitempty"`

	Baseline  baseline.Baseline  `json:"baseline"`
	Trials    int                `json:"trials"`
	Estimates []aggregate.Entry  `json:"estimates"`
	Tables    []series.Table     `json:"tables"`
	Warnings  map[string]int     `json:"warnings"`
	Host      *database.HostInfo `json:"host,omitempty"`
}

func DefaultSpoolDir() string {
	if v := strings.TrimSpace(os.Getenv("LOOPBACK_BENCH_SPOOL_DIR")); v != "" {
		return v
	}
	return "spool"
}

// BuildArtifact constructs an artifact from the in-memory result.
func BuildArtifact(result *pipeline.Result, checksum, configContent string, host *database.HostInfo) *Artifact {
	a := &Artifact{
		Version:       ArtifactVersion,
		CreatedAt:     time.Now(),
		Name:          result.Experiment,
		Variant:       result.Variant,
		Checksum:      checksum,
		StartTime:     result.Started,
		EndTime:       result.Finished,
		ConfigContent: configContent,
		Baseline:      result.Baseline,
		Trials:        result.Trials,
		Warnings:      result.Warnings,
		Host:          host,
	}
	if result.Estimates != nil {
		a.Estimates = result.Estimates.Entries()
	}
	for _, d := range result.Directions() {
		a.Tables = append(a.Tables, result.Tables[d])
	}
	return a
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is results_<name>_<timestamp>_<checksum>.json.zst.
func (a *Artifact) FileName() string {
	name := unsafeName.ReplaceAllString(a.Name, "-")
	if name == "" {
		name = "unnamed"
	}
	checksum := a.Checksum
	if checksum == "" {
		checksum = "nocsum"
	}
	return fmt.Sprintf(
		"results_%s_%s_%s.json.zst",
		name,
		a.CreatedAt.UTC().Format("20060102T150405Z"),
		checksum,
	)
}

// WriteArtifact writes a zstd-compressed JSON artifact to disk atomically.
// It returns the final file path.
func WriteArtifact(dir string, artifact *Artifact) (string, error) {
	if artifact == nil {
		return "", fmt.Errorf("artifact is nil")
	}
	if dir == "" {
		dir = DefaultSpoolDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := artifact.FileName()
	finalPath := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, name+".tmp.*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	ok := false
	defer func() {
		_ = tmp.Close()
		if !ok {
			_ = os.Remove(tmpPath)
		}
	}()

	zw, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return "", err
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(artifact); err != nil {
		_ = zw.Close()
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", err
	}
	ok = true
	return finalPath, nil
}

// ReadArtifact decodes an artifact written by WriteArtifact.
func ReadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var a Artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %d", a.Version)
	}
	return &a, nil
}
