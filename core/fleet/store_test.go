package fleet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/greenmove/evcharge/core/events"
	"github.com/greenmove/evcharge/core/model"
	"github.com/greenmove/evcharge/internal/eventbus"
)

func TestUpsertPreservesAssignment(t *testing.T) {
	s := NewStore(40, nil)
	s.UpsertVehicle(model.Vehicle{ID: "v1", Battery: 30})
	s.SetAssignment("v1", "s1")

	// Fresh telemetry must not wipe the committed assignment.
	s.UpsertVehicle(model.Vehicle{ID: "v1", Battery: 28})
	v, ok := s.Vehicle("v1")
	if !ok || v.AssignedStation != "s1" || !v.Charging {
		t.Fatalf("assignment lost on telemetry update: %+v", v)
	}

	s.ClearAssignment("v1")
	v, _ = s.Vehicle("v1")
	if v.AssignedStation != "" || v.Charging {
		t.Fatalf("assignment not cleared: %+v", v)
	}
}

func TestSnapshotIsDeepSortedCopy(t *testing.T) {
	s := NewStore(40, nil)
	s.SetStations([]model.Station{
		{ID: "b", Capacity: 2, Occupied: []string{"x"}},
		{ID: "a", Capacity: 1},
	})
	s.UpsertVehicle(model.Vehicle{ID: "v2", Battery: 50})
	s.UpsertVehicle(model.Vehicle{ID: "v1", Battery: 20})

	snap := s.Snapshot()
	if snap.Vehicles[0].ID != "v1" || snap.Stations[0].ID != "a" {
		t.Fatalf("snapshot must be sorted by ID")
	}

	snap.Stations[1].Occupied[0] = "mutated"
	again := s.Snapshot()
	if again.Stations[1].Occupied[0] != "x" {
		t.Fatalf("snapshot shares occupant slice with the store")
	}
}

func TestSnapshotEpochAdvances(t *testing.T) {
	s := NewStore(40, nil)
	e0 := s.Snapshot().Epoch
	s.UpsertVehicle(model.Vehicle{ID: "v1", Battery: 50})
	if e := s.Snapshot().Epoch; e <= e0 {
		t.Fatalf("epoch must advance on mutation: %d -> %d", e0, e)
	}
}

func TestThresholdCrossingEvent(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe()
	s := NewStore(40, bus)

	s.UpsertVehicle(model.Vehicle{ID: "v1", Battery: 60})
	ev := (<-sub).(events.TelemetryEvent)
	if ev.CrossedThreshold {
		t.Fatalf("60%% arrival is not a crossing")
	}

	s.UpsertVehicle(model.Vehicle{ID: "v1", Battery: 35})
	ev = (<-sub).(events.TelemetryEvent)
	if !ev.CrossedThreshold {
		t.Fatalf("60 -> 35 crosses the 40%% threshold")
	}

	s.UpsertVehicle(model.Vehicle{ID: "v1", Battery: 30})
	ev = (<-sub).(events.TelemetryEvent)
	if ev.CrossedThreshold {
		t.Fatalf("35 -> 30 stays below threshold, no crossing")
	}

	// A vehicle arriving already below threshold is material.
	s.UpsertVehicle(model.Vehicle{ID: "v2", Battery: 10})
	ev = (<-sub).(events.TelemetryEvent)
	if !ev.CrossedThreshold {
		t.Fatalf("new vehicle below threshold must flag a material change")
	}
}

func TestLoadSeedYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "fleet.yaml")
	yamlBody := `
vehicles:
  - id: UNO
    battery: 30
    position: {lat: 40.7128, lon: -74.0060}
stations:
  - id: Station-A
    capacity: 2
    position: {lat: 40.7200, lon: -74.0100}
`
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0o600); err != nil {
		t.Fatal(err)
	}
	seed, err := LoadSeed(yamlPath)
	if err != nil {
		t.Fatalf("yaml seed: %v", err)
	}
	if len(seed.Vehicles) != 1 || seed.Vehicles[0].ID != "UNO" {
		t.Fatalf("unexpected vehicles: %+v", seed.Vehicles)
	}

	jsonPath := filepath.Join(dir, "fleet.json")
	jsonBody := `{"vehicles":[{"id":"DUO","battery":20,"position":{"lat":1,"lon":2}}],"stations":[{"id":"S","capacity":1,"position":{"lat":1,"lon":2}}]}`
	if err := os.WriteFile(jsonPath, []byte(jsonBody), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSeed(jsonPath); err != nil {
		t.Fatalf("json seed: %v", err)
	}

	badPath := filepath.Join(dir, "fleet.toml")
	if err := os.WriteFile(badPath, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSeed(badPath); err == nil {
		t.Fatalf("unsupported extension must fail")
	}
}

func TestLoadSeedRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	body := `
stations:
  - id: S
    capacity: 0
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSeed(path); err == nil {
		t.Fatalf("zero-capacity station must be rejected")
	}
}
