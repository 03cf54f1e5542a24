// Package cost evaluates the feasibility and scalar cost of assigning a
// vehicle to a charging station. Evaluation is pure and deterministic: the
// same inputs always produce the same output, which the solver relies on
// for reproducible matchings.
package cost

import (
	"math"

	"github.com/greenmove/evcharge/core/geo"
	"github.com/greenmove/evcharge/core/model"
)

// Reason explains why a pair is infeasible.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonNoNeed: the vehicle's battery is above the charging threshold.
	ReasonNoNeed
	// ReasonOutOfRadius: the station is beyond the service radius.
	ReasonOutOfRadius
	// ReasonNoCapacity: the station has no free slot left.
	ReasonNoCapacity
)

func (r Reason) String() string {
	switch r {
	case ReasonNoNeed:
		return "no_need"
	case ReasonOutOfRadius:
		return "out_of_radius"
	case ReasonNoCapacity:
		return "no_capacity"
	default:
		return "feasible"
	}
}

// Evaluation is the outcome of scoring one (vehicle, station) pair.
type Evaluation struct {
	Feasible bool
	Cost     float64
	Reason   Reason
}

// Model computes assignment costs from distance, expected wait and station
// load.
type Model struct {
	cfg Config
}

// NewModel returns a cost model for the given configuration. The
// configuration is assumed validated.
func NewModel(cfg Config) Model {
	return Model{cfg: cfg}
}

// Threshold exposes the charging-need battery threshold.
func (m Model) Threshold() float64 { return m.cfg.NeedThreshold }

// Evaluate scores assigning v to s given the station's current free slot
// count. freeSlots must already account for committed occupancy and any
// in-flight reservations.
func (m Model) Evaluate(v model.Vehicle, s model.Station, freeSlots int) Evaluation {
	if !v.NeedsCharge(m.cfg.NeedThreshold) {
		return Evaluation{Reason: ReasonNoNeed}
	}
	dist := geo.Distance(v.Position, s.Position)
	if dist > m.cfg.MaxRadiusMeters {
		return Evaluation{Reason: ReasonOutOfRadius}
	}
	if freeSlots <= 0 || s.Capacity <= 0 {
		return Evaluation{Reason: ReasonNoCapacity}
	}

	occupied := s.Capacity - freeSlots
	if occupied < 0 {
		occupied = 0
	}

	distNorm := dist / m.cfg.MaxRadiusMeters
	waitNorm := 1 - math.Exp(-float64(occupied)*m.cfg.AvgServiceMinutes/30.0)
	loadAfter := float64(occupied+1) / float64(s.Capacity)

	c := m.cfg.Weights.Distance*distNorm +
		m.cfg.Weights.Wait*waitNorm +
		m.cfg.Weights.Load*loadAfter
	return Evaluation{Feasible: true, Cost: c}
}
