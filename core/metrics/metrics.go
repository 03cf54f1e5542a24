// Package metrics defines the sink interface through which the optimizer
// reports operational measurements. Implementations live under
// infra/metrics.
package metrics

import "time"

// SolveRecord summarizes one solve/commit cycle.
type SolveRecord struct {
	SolveID    string
	Epoch      uint64
	Assigned   int
	Unassigned int
	// Conflicts counts reservations lost to concurrent capacity changes
	// during commit.
	Conflicts int
	TotalCost float64
	Duration  time.Duration
	// Outcome is one of "committed", "stale", "timeout", "failed".
	Outcome string
}

// StationLoad is the load ratio of one station after a commit.
type StationLoad struct {
	StationID string
	Ratio     float64
}

// MetricsSink receives optimizer measurements.
type MetricsSink interface {
	RecordSolve(SolveRecord) error
	RecordStationLoad([]StationLoad) error
	RecordFleetSize(int) error
}

// NopSink discards all measurements.
type NopSink struct{}

func (NopSink) RecordSolve(SolveRecord) error        { return nil }
func (NopSink) RecordStationLoad([]StationLoad) error { return nil }
func (NopSink) RecordFleetSize(int) error             { return nil }

// Config defines the metrics backends to enable.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = "9090"
	}
}
