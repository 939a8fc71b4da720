package database

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"loopback-bench/internal/config"
	"loopback-bench/internal/logging"
	"loopback-bench/internal/pipeline"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"
)

const (
	MeasurementStage    = "stage_estimates"
	MeasurementBaseline = "baseline_rtt"
	MeasurementRun      = "analysis_meta"
)

// HostInfo describes the machine the analysis ran on.
type HostInfo struct {
	Hostname      string `json:"hostname"`
	OSInfo        string `json:"os_info"`
	KernelVersion string `json:"kernel_version"`
	CPUModel      string `json:"cpu_model"`
}

// CollectHostInfo gathers host information, falling back to "unknown".
func CollectHostInfo() HostInfo {
	info := HostInfo{OSInfo: runtime.GOOS + "/" + runtime.GOARCH}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	info.Hostname = hostname

	if data, err := os.ReadFile("/proc/version"); err == nil {
		parts := strings.Fields(string(data))
		if len(parts) >= 3 {
			info.KernelVersion = parts[2]
		}
	}
	if info.KernelVersion == "" {
		info.KernelVersion = "unknown"
	}

	if data, err := os.ReadFile("/proc/cpuinfo"); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(line, "model name") {
				if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
					info.CPUModel = strings.TrimSpace(parts[1])
					break
				}
			}
		}
	}
	if info.CPUModel == "" {
		info.CPUModel = "unknown"
	}
	return info
}

type InfluxDBClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

func NewInfluxDBClient(config config.DatabaseConfig) (*InfluxDBClient, error) {
	logger := logging.GetLogger()

	client := influxdb2.NewClient(config.Host, config.Password)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		logger.WithField("host", config.Host).WithError(err).Error("Failed to connect to InfluxDB")
		client.Close()
		return nil, err
	}

	if health.Status != "pass" {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		logger.WithFields(logrus.Fields{
			"host":    config.Host,
			"status":  health.Status,
			"message": msg,
		}).Error("InfluxDB health check failed")
		client.Close()
		return nil, fmt.Errorf("influxdb health check failed: %s", health.Status)
	}

	writeAPI := client.WriteAPIBlocking(config.Org, config.Name)

	logger.WithFields(logrus.Fields{
		"host":   config.Host,
		"bucket": config.Name,
		"org":    config.Org,
	}).Info("Connected to InfluxDB")

	return &InfluxDBClient{
		client:   client,
		writeAPI: writeAPI,
		bucket:   config.Name,
		org:      config.Org,
	}, nil
}

// WriteResult writes the baseline, every stage estimate and one run
// metadata point. All points share the run's finish time.
func (idb *InfluxDBClient) WriteResult(ctx context.Context, result *pipeline.Result, checksum string, host HostInfo) error {
	logger := logging.GetLogger()

	points := BuildPoints(result, checksum)
	points = append(points, runPoint(result, checksum, host))

	if err := idb.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("failed to write data points: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"bucket": idb.bucket,
		"points": len(points),
	}).Info("Estimates written to InfluxDB")
	return nil
}

// BuildPoints converts a result into InfluxDB points: one baseline point and
// one point per estimated (size, stage) group in encounter order.
func BuildPoints(result *pipeline.Result, checksum string) []*write.Point {
	ts := result.Finished
	if ts.IsZero() {
		ts = time.Now()
	}

	base := result.Baseline
	points := []*write.Point{
		influxdb2.NewPoint(MeasurementBaseline,
			map[string]string{
				"experiment": result.Experiment,
				"variant":    result.Variant,
				"checksum":   checksum,
			},
			map[string]interface{}{
				"median":     base.Point.Median,
				"ci_low":     base.Low,
				"ci_high":    base.High,
				"samples":    base.Samples,
				"confidence": base.Confidence,
			},
			ts),
	}

	if result.Estimates == nil {
		return points
	}
	for _, entry := range result.Estimates.Entries() {
		points = append(points, influxdb2.NewPoint(MeasurementStage,
			map[string]string{
				"experiment": result.Experiment,
				"variant":    result.Variant,
				"checksum":   checksum,
				"direction":  entry.Stage.Direction.String(),
				"stage":      entry.Stage.Kind.String(),
				"size":       strconv.Itoa(entry.Size),
			},
			map[string]interface{}{
				"median":     entry.Point.Median,
				"ci_low":     entry.Point.CILow,
				"ci_high":    entry.Point.CIHigh,
				"samples":    entry.Point.Samples,
				"degenerate": entry.Point.Degenerate,
			},
			ts))
	}
	return points
}

func runPoint(result *pipeline.Result, checksum string, host HostInfo) *write.Point {
	fields := map[string]interface{}{
		"trials":           result.Trials,
		"duration_seconds": result.Finished.Sub(result.Started).Seconds(),
		"started":          result.Started.Format(time.RFC3339),
		"finished":         result.Finished.Format(time.RFC3339),
		"hostname":         host.Hostname,
		"os_info":          host.OSInfo,
		"kernel_version":   host.KernelVersion,
		"cpu_model":        host.CPUModel,
	}
	for kind, n := range result.Warnings {
		fields["warnings_"+kind] = n
	}
	return influxdb2.NewPoint(MeasurementRun,
		map[string]string{
			"experiment": result.Experiment,
			"checksum":   checksum,
		},
		fields,
		result.Finished)
}

func (idb *InfluxDBClient) Close() {
	if idb.client != nil {
		idb.client.Close()
	}
}
