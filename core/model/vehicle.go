package model

import (
	"fmt"
	"math"
)

// Position is a WGS84 coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both coordinates are finite numbers.
func (p Position) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lon) && !math.IsInf(p.Lon, 0)
}

// Vehicle represents an electric vehicle in the managed fleet.
type Vehicle struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Battery  float64  `json:"battery"` // state of charge, percent 0-100

	// AssignedStation holds the station ID of the vehicle's current
	// assignment, empty when unassigned. Set by the optimizer on commit
	// and cleared on completion, cancellation or reassignment.
	AssignedStation string `json:"assigned_station,omitempty"`

	// Charging marks a vehicle actively drawing power at its assigned
	// station. Charging vehicles are excluded from re-matching until
	// their slot is released.
	Charging bool `json:"charging,omitempty"`
}

// NeedsCharge reports whether the vehicle should be matched to a station.
// A vehicle already assigned or mid-charge stays where it is.
func (v Vehicle) NeedsCharge(threshold float64) bool {
	if v.Charging || v.AssignedStation != "" {
		return false
	}
	return v.Battery < threshold
}

// Validate checks that the vehicle record is structurally sound.
func (v Vehicle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	if v.Battery < 0 || v.Battery > 100 {
		return fmt.Errorf("vehicle %s: battery %.2f outside [0,100]", v.ID, v.Battery)
	}
	if !v.Position.Valid() {
		return fmt.Errorf("vehicle %s: invalid position", v.ID)
	}
	return nil
}
