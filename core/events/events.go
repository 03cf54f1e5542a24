// Package events defines the typed events exchanged on the internal bus.
package events

import "github.com/greenmove/evcharge/core/model"

// TelemetryEvent is published when a vehicle update arrives.
type TelemetryEvent struct {
	Vehicle model.Vehicle
	// CrossedThreshold marks the update that moved the vehicle across the
	// charging-need threshold, a material state change that should trigger
	// a re-solve.
	CrossedThreshold bool
}

// StationsEvent is published when the station set or a capacity changes.
type StationsEvent struct {
	Stations []model.Station
}

// SolveEvent is published once per completed solve/commit cycle.
type SolveEvent struct {
	SolveID    string
	Epoch      uint64
	Assigned   int
	Unassigned int
	Conflicts  int
	TotalCost  float64
}

// ReleaseEvent is published when a charge completes or an assignment is
// cancelled and the slot is freed.
type ReleaseEvent struct {
	VehicleID string
	StationID string
	Cancelled bool
}
