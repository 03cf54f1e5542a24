// Package solver computes minimum-cost assignments of vehicles to charging
// stations. Stations with free capacity greater than one are expanded into
// virtual slots so the problem reduces to one-to-one minimum-weight
// bipartite matching, solved as a min-cost max-flow: as many vehicles as
// possible are placed, at the lowest total cost.
package solver

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/greenmove/evcharge/core/cost"
	"github.com/greenmove/evcharge/core/model"
)

// tieEpsilon scales the load-balancing perturbation used to break cost
// ties. It is far below any meaningful cost difference, so genuinely
// distinct costs are never reordered.
const tieEpsilon = 1e-9

// StationSlots pairs a station's snapshot state with its free slot count at
// solve time.
type StationSlots struct {
	Station model.Station
	Free    int
}

// EvalFunc scores one (vehicle, station) pair given the station's free slot
// count. It must be pure and deterministic.
type EvalFunc func(v model.Vehicle, s model.Station, freeSlots int) cost.Evaluation

// Assignment pairs one vehicle with one station at the cost computed at
// solve time.
type Assignment struct {
	VehicleID string  `json:"vehicle"`
	StationID string  `json:"station"`
	Cost      float64 `json:"cost"`
}

// Result is the outcome of one solve. Unassigned vehicles are a valid
// terminal outcome, not an error.
type Result struct {
	Assignments []Assignment `json:"assignments"`
	Unassigned  []string     `json:"unassigned"`
	TotalCost   float64      `json:"total_cost"`
}

// Options tunes solver behavior across epochs.
type Options struct {
	// Previous maps vehicle ID to the station committed in the last epoch.
	// Edges matching it are discounted by up to ChurnEpsilon so a vehicle
	// is only moved when a strictly better alternative exists.
	Previous     map[string]string
	ChurnEpsilon float64
}

// Solve matches vehicles needing charge to station slots. Callers pass only
// vehicles eligible for matching; solving an unchanged input twice yields
// an identical result.
func Solve(vehicles []model.Vehicle, stations []StationSlots, eval EvalFunc, opts Options) Result {
	res := Result{Assignments: []Assignment{}, Unassigned: []string{}}
	if len(vehicles) == 0 {
		return res
	}

	vs := make([]model.Vehicle, len(vehicles))
	copy(vs, vehicles)
	sort.Slice(vs, func(i, j int) bool { return vs[i].ID < vs[j].ID })

	sts := make([]StationSlots, len(stations))
	copy(sts, stations)
	sort.Slice(sts, func(i, j int) bool { return sts[i].Station.ID < sts[j].Station.ID })

	// Expand stations into virtual slots. Each slot inherits the station's
	// cost; the k-th slot carries a slightly larger tie-break term so equal
	// cost alternatives favor the emptier station.
	type slot struct {
		station int
		tie     float64
	}
	var slotList []slot
	for si, ss := range sts {
		free := ss.Free
		if free <= 0 {
			continue
		}
		occupied := ss.Station.Capacity - free
		if occupied < 0 {
			occupied = 0
		}
		for k := 0; k < free; k++ {
			loadAfter := float64(occupied+k+1) / float64(ss.Station.Capacity)
			slotList = append(slotList, slot{station: si, tie: tieEpsilon * loadAfter})
		}
	}

	n, m := len(vs), len(slotList)
	if m == 0 {
		for _, v := range vs {
			res.Unassigned = append(res.Unassigned, v.ID)
		}
		return res
	}

	// base holds the true pair costs; adjusted is the matrix actually
	// matched on (tie-break perturbation and churn discount applied).
	base := mat.NewDense(n, m, nil)
	adjusted := mat.NewDense(n, m, nil)
	for i, v := range vs {
		for j, sl := range slotList {
			ss := sts[sl.station]
			ev := eval(v, ss.Station, ss.Free)
			if !ev.Feasible {
				base.Set(i, j, math.Inf(1))
				adjusted.Set(i, j, math.Inf(1))
				continue
			}
			adj := ev.Cost + sl.tie
			if opts.Previous != nil && opts.Previous[v.ID] == ss.Station.ID {
				disc := opts.ChurnEpsilon
				if disc > ev.Cost {
					disc = ev.Cost
				}
				adj -= disc
			}
			base.Set(i, j, ev.Cost)
			adjusted.Set(i, j, adj)
		}
	}

	match := minCostMatch(adjusted)
	for i, v := range vs {
		j := match[i]
		if j < 0 {
			res.Unassigned = append(res.Unassigned, v.ID)
			continue
		}
		c := base.At(i, j)
		res.Assignments = append(res.Assignments, Assignment{
			VehicleID: v.ID,
			StationID: sts[slotList[j].station].Station.ID,
			Cost:      c,
		})
		res.TotalCost += c
	}
	sort.Strings(res.Unassigned)
	return res
}
