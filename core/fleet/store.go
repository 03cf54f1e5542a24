// Package fleet holds the current in-memory fleet and station state. The
// Store is the snapshot provider for the optimizer: telemetry flows in,
// read-only snapshots flow out.
package fleet

import (
	"sort"
	"sync"
	"time"

	"github.com/greenmove/evcharge/core/events"
	"github.com/greenmove/evcharge/core/model"
	"github.com/greenmove/evcharge/internal/eventbus"
)

// Store keeps the latest known vehicle and station state.
type Store struct {
	mu       sync.RWMutex
	vehicles map[string]model.Vehicle
	stations map[string]model.Station
	epoch    uint64

	needThreshold float64
	bus           eventbus.EventBus
}

// NewStore creates an empty store. The need threshold is used to flag
// telemetry updates that cross the charging-need boundary; bus may be nil.
func NewStore(needThreshold float64, bus eventbus.EventBus) *Store {
	return &Store{
		vehicles:      make(map[string]model.Vehicle),
		stations:      make(map[string]model.Station),
		needThreshold: needThreshold,
		bus:           bus,
	}
}

// UpsertVehicle applies a telemetry update, preserving any assignment the
// optimizer has committed for the vehicle.
func (s *Store) UpsertVehicle(v model.Vehicle) {
	s.mu.Lock()
	old, existed := s.vehicles[v.ID]
	if existed {
		v.AssignedStation = old.AssignedStation
		v.Charging = old.Charging
	}
	s.vehicles[v.ID] = v
	s.epoch++
	s.mu.Unlock()

	if s.bus == nil {
		return
	}
	crossed := existed &&
		(old.Battery < s.needThreshold) != (v.Battery < s.needThreshold)
	if !existed && v.Battery < s.needThreshold {
		crossed = true
	}
	s.bus.Publish(events.TelemetryEvent{Vehicle: v, CrossedThreshold: crossed})
}

// SetStations replaces the station set.
func (s *Store) SetStations(stations []model.Station) {
	s.mu.Lock()
	s.stations = make(map[string]model.Station, len(stations))
	for _, st := range stations {
		s.stations[st.ID] = st
	}
	s.epoch++
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(events.StationsEvent{Stations: stations})
	}
}

// SetAssignment records a committed assignment on the vehicle.
func (s *Store) SetAssignment(vehicleID, stationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return
	}
	v.AssignedStation = stationID
	v.Charging = true
	s.vehicles[vehicleID] = v
	s.epoch++
}

// ClearAssignment removes the vehicle's assignment reference.
func (s *Store) ClearAssignment(vehicleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return
	}
	v.AssignedStation = ""
	v.Charging = false
	s.vehicles[vehicleID] = v
	s.epoch++
}

// Vehicle returns the current state of one vehicle.
func (s *Store) Vehicle(id string) (model.Vehicle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	return v, ok
}

// Snapshot returns a deep, sorted copy of the current state tagged with the
// store's change epoch.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.Snapshot{
		Epoch:    s.epoch,
		Taken:    time.Now().UTC(),
		Vehicles: make([]model.Vehicle, 0, len(s.vehicles)),
		Stations: make([]model.Station, 0, len(s.stations)),
	}
	for _, v := range s.vehicles {
		snap.Vehicles = append(snap.Vehicles, v)
	}
	for _, st := range s.stations {
		cp := st
		cp.Occupied = append([]string(nil), st.Occupied...)
		snap.Stations = append(snap.Stations, cp)
	}
	sort.Slice(snap.Vehicles, func(i, j int) bool { return snap.Vehicles[i].ID < snap.Vehicles[j].ID })
	sort.Slice(snap.Stations, func(i, j int) bool { return snap.Stations[i].ID < snap.Stations[j].ID })
	return snap
}

// Epoch returns the change counter.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}
