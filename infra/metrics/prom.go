package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/greenmove/evcharge/core/metrics"
)

// PromSink records optimization activity in Prometheus metrics.
type PromSink struct {
	solves      *prometheus.CounterVec
	duration    prometheus.Histogram
	assigned    prometheus.Gauge
	unassigned  prometheus.Gauge
	conflicts   prometheus.Counter
	totalCost   prometheus.Gauge
	stationLoad *prometheus.GaugeVec
	fleet       prometheus.Gauge
}

// NewPromSink registers optimizer metrics on the default Prometheus
// registerer.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optimizer_solves_total",
			Help: "Total number of solve cycles by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "optimizer_solve_duration_seconds",
			Help:    "Wall time of one solve/commit cycle",
			Buckets: prometheus.DefBuckets,
		}),
		assigned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "optimizer_assigned_vehicles",
			Help: "Vehicles assigned in the last committed epoch",
		}),
		unassigned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "optimizer_unassigned_vehicles",
			Help: "Vehicles left unassigned in the last committed epoch",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optimizer_capacity_conflicts_total",
			Help: "Reservations lost to concurrent capacity changes during commit",
		}),
		totalCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "optimizer_total_cost",
			Help: "Total assignment cost of the last committed epoch",
		}),
		stationLoad: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "station_load_ratio",
			Help: "Occupied slots over capacity per station",
		}, []string{"station_id"}),
		fleet: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_vehicles_total",
			Help: "Number of vehicles in the last fleet snapshot",
		}),
	}

	collectors := []prometheus.Collector{
		s.solves, s.duration, s.assigned, s.unassigned, s.conflicts, s.totalCost, s.stationLoad, s.fleet,
	}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			collectors[i] = are.ExistingCollector
		}
	}
	s.solves = collectors[0].(*prometheus.CounterVec)
	s.duration = collectors[1].(prometheus.Histogram)
	s.assigned = collectors[2].(prometheus.Gauge)
	s.unassigned = collectors[3].(prometheus.Gauge)
	s.conflicts = collectors[4].(prometheus.Counter)
	s.totalCost = collectors[5].(prometheus.Gauge)
	s.stationLoad = collectors[6].(*prometheus.GaugeVec)
	s.fleet = collectors[7].(prometheus.Gauge)
	return s, nil
}

// RecordSolve updates the per-cycle metrics.
func (s *PromSink) RecordSolve(rec coremetrics.SolveRecord) error {
	s.solves.WithLabelValues(rec.Outcome).Inc()
	s.duration.Observe(rec.Duration.Seconds())
	if rec.Outcome == "committed" {
		s.assigned.Set(float64(rec.Assigned))
		s.unassigned.Set(float64(rec.Unassigned))
		s.totalCost.Set(rec.TotalCost)
	}
	if rec.Conflicts > 0 {
		s.conflicts.Add(float64(rec.Conflicts))
	}
	return nil
}

// RecordStationLoad sets the per-station load gauges.
func (s *PromSink) RecordStationLoad(loads []coremetrics.StationLoad) error {
	for _, l := range loads {
		s.stationLoad.WithLabelValues(l.StationID).Set(l.Ratio)
	}
	return nil
}

// RecordFleetSize sets the fleet size gauge.
func (s *PromSink) RecordFleetSize(size int) error {
	s.fleet.Set(float64(size))
	return nil
}
