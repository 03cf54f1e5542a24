// Package capacity owns charging slot occupancy. The Tracker is the sole
// mutable authority over which vehicle holds which slot; the solver only
// reads free-slot snapshots and the optimizer commits reservations through
// it. All operations are safe for concurrent use.
package capacity

import (
	"errors"
	"sort"
	"sync"

	"github.com/greenmove/evcharge/core/model"
)

var (
	// ErrUnknownStation is returned for a station ID the tracker has not
	// been synced with.
	ErrUnknownStation = errors.New("capacity: unknown station")
	// ErrSlotUnavailable is returned when a reservation would exceed the
	// station's capacity.
	ErrSlotUnavailable = errors.New("capacity: no free slot")
	// ErrVehicleElsewhere is returned when the vehicle already holds a
	// slot at a different station. A vehicle occupies at most one slot
	// system-wide.
	ErrVehicleElsewhere = errors.New("capacity: vehicle occupies another station")
	// ErrNotOccupied is returned by Release when the vehicle does not hold
	// a slot at the given station. The call has no side effects.
	ErrNotOccupied = errors.New("capacity: vehicle not occupying station")
)

type slots struct {
	capacity  int
	occupants map[string]struct{}
}

// Tracker holds per-station slot capacity and occupancy.
type Tracker struct {
	mu       sync.RWMutex
	stations map[string]*slots
	holder   map[string]string // vehicle ID -> station ID
	epoch    uint64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		stations: make(map[string]*slots),
		holder:   make(map[string]string),
	}
}

// Sync reconciles the tracker with the station set of a snapshot: new
// stations are added, capacities updated and occupants adopted for stations
// the tracker has not seen. Existing occupancy is authoritative and kept.
// Stations absent from the list are removed and their occupants released.
func (t *Tracker) Sync(stations []model.Station) {
	t.mu.Lock()
	defer t.mu.Unlock()

	keep := make(map[string]struct{}, len(stations))
	changed := false
	for _, st := range stations {
		keep[st.ID] = struct{}{}
		sl, ok := t.stations[st.ID]
		if !ok {
			sl = &slots{capacity: st.Capacity, occupants: make(map[string]struct{})}
			for _, occ := range st.Occupied {
				if _, held := t.holder[occ]; held {
					continue
				}
				sl.occupants[occ] = struct{}{}
				t.holder[occ] = st.ID
			}
			t.stations[st.ID] = sl
			changed = true
			continue
		}
		if sl.capacity != st.Capacity {
			sl.capacity = st.Capacity
			changed = true
		}
	}
	for id, sl := range t.stations {
		if _, ok := keep[id]; ok {
			continue
		}
		for occ := range sl.occupants {
			delete(t.holder, occ)
		}
		delete(t.stations, id)
		changed = true
	}
	if changed {
		t.epoch++
	}
}

// Reserve claims a slot at the station for the vehicle. Reserving a slot
// the vehicle already holds at the same station is a no-op.
func (t *Tracker) Reserve(stationID, vehicleID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sl, ok := t.stations[stationID]
	if !ok {
		return ErrUnknownStation
	}
	if held, ok := t.holder[vehicleID]; ok {
		if held == stationID {
			return nil
		}
		return ErrVehicleElsewhere
	}
	if len(sl.occupants) >= sl.capacity {
		return ErrSlotUnavailable
	}
	sl.occupants[vehicleID] = struct{}{}
	t.holder[vehicleID] = stationID
	t.epoch++
	return nil
}

// Release frees the slot the vehicle holds at the station.
func (t *Tracker) Release(stationID, vehicleID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sl, ok := t.stations[stationID]
	if !ok {
		return ErrUnknownStation
	}
	if _, occ := sl.occupants[vehicleID]; !occ {
		return ErrNotOccupied
	}
	delete(sl.occupants, vehicleID)
	delete(t.holder, vehicleID)
	t.epoch++
	return nil
}

// ReleaseVehicle frees whatever slot the vehicle holds, returning the
// station it occupied. It reports ErrNotOccupied when the vehicle holds no
// slot anywhere.
func (t *Tracker) ReleaseVehicle(vehicleID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stationID, ok := t.holder[vehicleID]
	if !ok {
		return "", ErrNotOccupied
	}
	delete(t.stations[stationID].occupants, vehicleID)
	delete(t.holder, vehicleID)
	t.epoch++
	return stationID, nil
}

// FreeSlots returns the number of unreserved slots at the station, zero for
// unknown stations.
func (t *Tracker) FreeSlots(stationID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sl, ok := t.stations[stationID]
	if !ok {
		return 0
	}
	free := sl.capacity - len(sl.occupants)
	if free < 0 {
		return 0
	}
	return free
}

// StationOf returns the station the vehicle currently occupies, if any.
func (t *Tracker) StationOf(vehicleID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.holder[vehicleID]
	return id, ok
}

// Occupants returns a sorted copy of the vehicle IDs holding slots at the
// station.
func (t *Tracker) Occupants(stationID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sl, ok := t.stations[stationID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(sl.occupants))
	for id := range sl.occupants {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Epoch returns a counter incremented on every successful mutation. The
// optimizer compares epochs before and after a solve to detect stale
// results.
func (t *Tracker) Epoch() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.epoch
}
