package cost

import (
	"fmt"
	"math"
)

// Weights balances the three cost terms. They must be non-negative and sum
// to 1 so costs stay comparable across runs and configurations.
type Weights struct {
	Distance float64 `json:"distance"`
	Wait     float64 `json:"wait"`
	Load     float64 `json:"load"`
}

// Sum returns the total weight mass.
func (w Weights) Sum() float64 { return w.Distance + w.Wait + w.Load }

// Config defines the tunables of the cost model. The exact weighting is a
// deployment tunable, not a fixed contract.
type Config struct {
	// NeedThreshold is the battery percentage below which a vehicle is
	// considered in need of charging.
	NeedThreshold float64 `json:"need_threshold"`
	// MaxRadiusMeters bounds the service radius; pairs beyond it are
	// infeasible.
	MaxRadiusMeters float64 `json:"max_radius_meters"`
	// AvgServiceMinutes is the expected duration of one charging session,
	// used to estimate queue wait.
	AvgServiceMinutes float64 `json:"avg_service_minutes"`
	Weights           Weights `json:"weights"`
}

// SetDefaults applies sane defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.NeedThreshold == 0 {
		c.NeedThreshold = 40
	}
	if c.MaxRadiusMeters == 0 {
		c.MaxRadiusMeters = 10000
	}
	if c.AvgServiceMinutes == 0 {
		c.AvgServiceMinutes = 30
	}
	if c.Weights.Sum() == 0 {
		c.Weights = Weights{Distance: 0.6, Wait: 0.25, Load: 0.15}
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.NeedThreshold < 0 || c.NeedThreshold > 100 {
		return fmt.Errorf("need_threshold %.2f outside [0,100]", c.NeedThreshold)
	}
	if c.MaxRadiusMeters <= 0 {
		return fmt.Errorf("max_radius_meters must be positive")
	}
	if c.AvgServiceMinutes <= 0 {
		return fmt.Errorf("avg_service_minutes must be positive")
	}
	if c.Weights.Distance < 0 || c.Weights.Wait < 0 || c.Weights.Load < 0 {
		return fmt.Errorf("cost weights must be non-negative")
	}
	if math.Abs(c.Weights.Sum()-1) > 1e-6 {
		return fmt.Errorf("cost weights must sum to 1, got %.6f", c.Weights.Sum())
	}
	return nil
}
