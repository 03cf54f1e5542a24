package metrics

import (
	"errors"

	coremetrics "github.com/greenmove/evcharge/core/metrics"
)

// MultiSink fans records out to several sinks, collecting errors.
type MultiSink struct {
	sinks []coremetrics.MetricsSink
}

// NewMultiSink combines the given sinks into one.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordSolve(rec coremetrics.SolveRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordSolve(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordStationLoad(loads []coremetrics.StationLoad) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordStationLoad(loads); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordFleetSize(size int) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordFleetSize(size); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
