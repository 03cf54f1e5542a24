// Package simulator drives synthetic fleet movement for demos and load
// exercise: vehicles drift around the map, batteries drain, and a battery
// hitting zero is treated as a completed charge cycle.
package simulator

import (
	"context"
	"math/rand"
	"time"

	"github.com/greenmove/evcharge/core/fleet"
	"github.com/greenmove/evcharge/core/logger"
	"github.com/greenmove/evcharge/core/model"
)

// Config defines the simulator tunables.
type Config struct {
	Enabled     bool  `json:"enabled"`
	TickSeconds int   `json:"tick_seconds"`
	Seed        int64 `json:"seed"`
	// DrainMax is the maximum battery percentage lost per tick.
	DrainMax int `json:"drain_max"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TickSeconds == 0 {
		c.TickSeconds = 5
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.DrainMax == 0 {
		c.DrainMax = 2
	}
}

// Releaser frees a vehicle's charging slot when its cycle completes.
type Releaser interface {
	CompleteCharge(vehicleID string) error
}

// Simulator mutates the fleet store on a fixed tick.
type Simulator struct {
	cfg      Config
	store    *fleet.Store
	releaser Releaser
	rng      *rand.Rand
	log      logger.Logger
}

// New creates a simulator over the given store. releaser may be nil.
func New(cfg Config, store *fleet.Store, releaser Releaser, log logger.Logger) *Simulator {
	cfg.SetDefaults()
	return &Simulator{
		cfg:      cfg,
		store:    store,
		releaser: releaser,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		log:      log,
	}
}

// Run ticks until the context is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.cfg.TickSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick advances every vehicle one simulation step.
func (s *Simulator) Tick() {
	snap := s.store.Snapshot()
	for _, v := range snap.Vehicles {
		v.Position.Lat += (s.rng.Float64() - 0.5) * 0.001
		v.Position.Lon += (s.rng.Float64() - 0.5) * 0.001
		v.Battery -= float64(s.rng.Intn(s.cfg.DrainMax + 1))
		if v.Battery <= 0 {
			// Treat an empty battery as a completed charge: back to full
			// and the slot, if any, is freed.
			v.Battery = 100
			if s.releaser != nil && v.AssignedStation != "" {
				if err := s.releaser.CompleteCharge(v.ID); err != nil {
					s.log.Warnf("simulator release %s: %v", v.ID, err)
				}
			}
		}
		s.store.UpsertVehicle(model.Vehicle{
			ID:       v.ID,
			Position: v.Position,
			Battery:  v.Battery,
		})
	}
}
