package simulator

import (
	"testing"

	"github.com/greenmove/evcharge/core/fleet"
	"github.com/greenmove/evcharge/core/model"
	"github.com/greenmove/evcharge/infra/logger"
)

type fakeReleaser struct {
	released []string
}

func (f *fakeReleaser) CompleteCharge(id string) error {
	f.released = append(f.released, id)
	return nil
}

func TestTickMovesAndDrains(t *testing.T) {
	store := fleet.NewStore(40, nil)
	store.UpsertVehicle(model.Vehicle{ID: "v1", Battery: 80, Position: model.Position{Lat: 40.7, Lon: -74.0}})

	sim := New(Config{Seed: 42}, store, nil, logger.NopLogger{})
	for i := 0; i < 20; i++ {
		sim.Tick()
	}
	v, _ := store.Vehicle("v1")
	if v.Battery >= 80 {
		t.Fatalf("battery should drain over 20 ticks, got %v", v.Battery)
	}
	if v.Position.Lat == 40.7 && v.Position.Lon == -74.0 {
		t.Fatalf("vehicle should have moved")
	}
}

func TestTickDeterministicWithSeed(t *testing.T) {
	run := func() model.Vehicle {
		store := fleet.NewStore(40, nil)
		store.UpsertVehicle(model.Vehicle{ID: "v1", Battery: 80, Position: model.Position{Lat: 40.7, Lon: -74.0}})
		sim := New(Config{Seed: 7}, store, nil, logger.NopLogger{})
		for i := 0; i < 10; i++ {
			sim.Tick()
		}
		v, _ := store.Vehicle("v1")
		return v
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("same seed must reproduce the same state: %+v vs %+v", a, b)
	}
}

func TestBatteryResetReleasesSlot(t *testing.T) {
	store := fleet.NewStore(40, nil)
	store.UpsertVehicle(model.Vehicle{ID: "v1", Battery: 1, Position: model.Position{Lat: 40.7, Lon: -74.0}})
	store.SetAssignment("v1", "s1")

	rel := &fakeReleaser{}
	sim := New(Config{Seed: 3, DrainMax: 2}, store, rel, logger.NopLogger{})
	for i := 0; i < 100 && len(rel.released) == 0; i++ {
		sim.Tick()
	}

	v, _ := store.Vehicle("v1")
	if v.Battery <= 0 {
		t.Fatalf("battery should have reset, got %v", v.Battery)
	}
	if len(rel.released) == 0 || rel.released[0] != "v1" {
		t.Fatalf("assigned vehicle hitting 0%% must be released: %v", rel.released)
	}
}
