package model

import (
	"math"
	"testing"
)

func TestVehicleNeedsCharge(t *testing.T) {
	v := Vehicle{ID: "v1", Battery: 30}
	if !v.NeedsCharge(40) {
		t.Fatalf("battery 30 below threshold 40 should need charge")
	}
	v.Battery = 60
	if v.NeedsCharge(40) {
		t.Fatalf("battery 60 above threshold 40 should stay idle")
	}
	v.Battery = 30
	v.Charging = true
	if v.NeedsCharge(40) {
		t.Fatalf("charging vehicle must not be re-matched")
	}
	v.Charging = false
	v.AssignedStation = "s1"
	if v.NeedsCharge(40) {
		t.Fatalf("assigned vehicle must not be re-matched")
	}
}

func TestVehicleValidate(t *testing.T) {
	cases := []struct {
		name string
		v    Vehicle
		ok   bool
	}{
		{"valid", Vehicle{ID: "v1", Battery: 50}, true},
		{"missing id", Vehicle{Battery: 50}, false},
		{"battery high", Vehicle{ID: "v1", Battery: 101}, false},
		{"battery low", Vehicle{ID: "v1", Battery: -1}, false},
		{"nan position", Vehicle{ID: "v1", Battery: 50, Position: Position{Lat: math.NaN()}}, false},
	}
	for _, c := range cases {
		if err := c.v.Validate(); (err == nil) != c.ok {
			t.Fatalf("%s: got err=%v want ok=%v", c.name, err, c.ok)
		}
	}
}

func TestStationFreeAndLoad(t *testing.T) {
	s := Station{ID: "s1", Capacity: 4, Occupied: []string{"a", "b", "c"}}
	if got := s.Free(); got != 1 {
		t.Fatalf("expected 1 free slot got %d", got)
	}
	if got := s.LoadRatio(); got != 0.75 {
		t.Fatalf("expected load 0.75 got %v", got)
	}
}

func TestSnapshotValidate(t *testing.T) {
	snap := Snapshot{
		Vehicles: []Vehicle{{ID: "v1", Battery: 30}},
		Stations: []Station{{ID: "s1", Capacity: 2, Occupied: []string{"v9"}}},
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}

	snap.Vehicles = append(snap.Vehicles, Vehicle{ID: "v1", Battery: 40})
	if err := snap.Validate(); err == nil {
		t.Fatalf("duplicate vehicle id should be rejected")
	}

	snap.Vehicles = snap.Vehicles[:1]
	snap.Stations = append(snap.Stations, Station{ID: "s2", Capacity: 1, Occupied: []string{"v9"}})
	if err := snap.Validate(); err == nil {
		t.Fatalf("vehicle occupying two stations should be rejected")
	}

	if err := (Snapshot{}).Validate(); err != nil {
		t.Fatalf("empty snapshot is valid, got %v", err)
	}

	snap = Snapshot{Stations: []Station{{ID: "s1", Capacity: 1, Occupied: []string{"a", "b"}}}}
	if err := snap.Validate(); err == nil {
		t.Fatalf("over-occupied station should be rejected")
	}
}
