// Package optimizer orchestrates repeated assignment solves as fleet and
// station state change. It owns the solve/commit cycle: snapshot, solve,
// reserve, emit. Only one cycle runs at a time; triggers arriving while a
// cycle is in flight coalesce into a single pending re-solve.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greenmove/evcharge/core/capacity"
	"github.com/greenmove/evcharge/core/cost"
	"github.com/greenmove/evcharge/core/events"
	"github.com/greenmove/evcharge/core/fleet"
	"github.com/greenmove/evcharge/core/logger"
	"github.com/greenmove/evcharge/core/metrics"
	"github.com/greenmove/evcharge/core/model"
	"github.com/greenmove/evcharge/core/solver"
	"github.com/greenmove/evcharge/internal/eventbus"
)

// State is the controller's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateSolving
	StateCommitting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSolving:
		return "solving"
	case StateCommitting:
		return "committing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SnapshotProvider supplies point-in-time fleet state.
type SnapshotProvider interface {
	Snapshot() model.Snapshot
}

// ResultSink consumes committed epoch results.
type ResultSink interface {
	Publish(Result) error
}

// Result is the outcome of one committed solve/commit cycle.
type Result struct {
	SolveID     string              `json:"solve_id"`
	Epoch       uint64              `json:"epoch"`
	Assignments []solver.Assignment `json:"assignments"`
	Unassigned  []string            `json:"unassigned"`
	TotalCost   float64             `json:"total_cost"`
	Elapsed     time.Duration       `json:"elapsed"`
}

// Config defines the controller tunables.
type Config struct {
	SolveTimeoutSeconds    int     `json:"solve_timeout_seconds"`
	ResolveIntervalSeconds int     `json:"resolve_interval_seconds"`
	ChurnEpsilon           float64 `json:"churn_epsilon"`
	// MaxStaleRetries bounds how often a discarded stale solve is retried
	// within one RunOptimization call.
	MaxStaleRetries int `json:"max_stale_retries"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.SolveTimeoutSeconds == 0 {
		c.SolveTimeoutSeconds = 5
	}
	if c.ResolveIntervalSeconds == 0 {
		c.ResolveIntervalSeconds = 30
	}
	if c.ChurnEpsilon == 0 {
		c.ChurnEpsilon = 0.05
	}
	if c.MaxStaleRetries == 0 {
		c.MaxStaleRetries = 3
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.SolveTimeoutSeconds < 0 || c.ResolveIntervalSeconds < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	if c.ChurnEpsilon < 0 {
		return fmt.Errorf("churn_epsilon must be non-negative")
	}
	return nil
}

// Controller runs the re-optimization protocol.
type Controller struct {
	cfg      Config
	provider SnapshotProvider
	store    *fleet.Store
	tracker  *capacity.Tracker
	model    cost.Model
	sink     ResultSink
	log      logger.Logger
	metrics  metrics.MetricsSink
	bus      eventbus.EventBus

	mu      sync.Mutex // serializes solve/commit cycles
	state   State
	stateMu sync.RWMutex
	epoch   uint64
	// prev maps vehicle -> station committed in the last epoch, used for
	// churn damping.
	prev map[string]string

	trigger chan struct{} // capacity 1: pending re-solve flag

	// solveFn can be overridden in tests to inject slow or failing solves.
	solveFn func([]model.Vehicle, []solver.StationSlots, solver.EvalFunc, solver.Options) solver.Result
}

// New creates a Controller. Store doubles as the default snapshot provider;
// sink, metrics and bus may be nil.
func New(cfg Config, store *fleet.Store, tracker *capacity.Tracker, m cost.Model, sink ResultSink, sinkMetrics metrics.MetricsSink, bus eventbus.EventBus, log logger.Logger) (*Controller, error) {
	if store == nil || tracker == nil || log == nil {
		return nil, fmt.Errorf("optimizer: nil parameter provided to New")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sinkMetrics == nil {
		sinkMetrics = metrics.NopSink{}
	}
	return &Controller{
		cfg:      cfg,
		provider: store,
		store:    store,
		tracker:  tracker,
		model:    m,
		sink:     sink,
		log:      log,
		metrics:  sinkMetrics,
		bus:      bus,
		state:    StateIdle,
		prev:     make(map[string]string),
		trigger:  make(chan struct{}, 1),
		solveFn:  solver.Solve,
	}, nil
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// Epoch returns the last committed epoch number.
func (c *Controller) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Trigger requests a re-solve. Triggers arriving while a cycle is running
// coalesce: at most one re-solve stays pending.
func (c *Controller) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Run processes periodic and explicit triggers until the context is
// cancelled. Material state changes published on the bus (threshold
// crossings, station changes, slot releases) also trigger re-solves.
func (c *Controller) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.ResolveIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var busCh <-chan eventbus.Event
	if c.bus != nil {
		busCh = c.bus.Subscribe()
		defer c.bus.Unsubscribe(busCh)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAndLog(ctx)
		case <-c.trigger:
			c.runAndLog(ctx)
		case ev, ok := <-busCh:
			if !ok {
				busCh = nil
				continue
			}
			if materialChange(ev) {
				c.runAndLog(ctx)
			}
		}
	}
}

func materialChange(ev eventbus.Event) bool {
	switch e := ev.(type) {
	case events.TelemetryEvent:
		return e.CrossedThreshold
	case events.StationsEvent:
		return true
	case events.ReleaseEvent:
		return true
	default:
		return false
	}
}

func (c *Controller) runAndLog(ctx context.Context) {
	if _, err := c.RunOptimization(ctx); err != nil {
		c.log.Errorf("optimization cycle: %v", err)
	}
}

// RunOptimization executes one solve/commit cycle and returns the committed
// result. Stale solves are retried up to MaxStaleRetries times within the
// call. Concurrent calls serialize.
func (c *Controller) RunOptimization(ctx context.Context) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxStaleRetries; attempt++ {
		res, err := c.cycle(ctx)
		if errors.Is(err, ErrStaleSolve) {
			lastErr = err
			continue
		}
		return res, err
	}
	return Result{}, lastErr
}

// cycle performs one Solving -> Committing pass. Caller holds c.mu.
func (c *Controller) cycle(ctx context.Context) (Result, error) {
	start := time.Now()
	solveID := uuid.NewString()
	c.setState(StateSolving)

	snap := c.provider.Snapshot()
	if err := snap.Validate(); err != nil {
		c.setState(StateFailed)
		c.record(metrics.SolveRecord{SolveID: solveID, Outcome: "failed", Duration: time.Since(start)})
		c.log.Errorf("snapshot rejected: %v", err)
		c.setState(StateIdle)
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	_ = c.metrics.RecordFleetSize(len(snap.Vehicles))

	// Reconcile station capacities before reading free slots. This is the
	// only tracker mutation before commit and happens before the epoch is
	// recorded, so it cannot mark the solve stale.
	c.tracker.Sync(snap.Stations)
	trackerEpoch := c.tracker.Epoch()

	candidates := matchable(snap.Vehicles, c.model.Threshold())
	slots := make([]solver.StationSlots, 0, len(snap.Stations))
	for _, st := range snap.Stations {
		slots = append(slots, solver.StationSlots{Station: st, Free: c.tracker.FreeSlots(st.ID)})
	}

	proposed, err := c.solveWithTimeout(ctx, candidates, slots)
	if err != nil {
		c.setState(StateFailed)
		c.record(metrics.SolveRecord{SolveID: solveID, Outcome: "timeout", Duration: time.Since(start)})
		c.setState(StateIdle)
		return Result{}, err
	}

	// A capacity change during the solve means the proposal was computed
	// against stale free-slot counts. Discard rather than commit.
	if c.tracker.Epoch() != trackerEpoch {
		c.record(metrics.SolveRecord{SolveID: solveID, Outcome: "stale", Duration: time.Since(start)})
		c.log.Warnf("capacity changed during solve %s, discarding result", solveID)
		c.setState(StateIdle)
		return Result{}, ErrStaleSolve
	}

	c.setState(StateCommitting)
	res := Result{
		SolveID:     solveID,
		Assignments: make([]solver.Assignment, 0, len(proposed.Assignments)),
		Unassigned:  append([]string(nil), proposed.Unassigned...),
	}
	committed := make(map[string]string, len(proposed.Assignments))
	conflicts := 0
	for _, a := range proposed.Assignments {
		if err := c.tracker.Reserve(a.StationID, a.VehicleID); err != nil {
			// Lost the race for the slot: this vehicle stays unassigned
			// for the epoch. Partial success is the norm.
			conflicts++
			res.Unassigned = append(res.Unassigned, a.VehicleID)
			c.log.Warnf("reservation %s@%s lost: %v", a.VehicleID, a.StationID, err)
			continue
		}
		c.store.SetAssignment(a.VehicleID, a.StationID)
		res.Assignments = append(res.Assignments, a)
		res.TotalCost += a.Cost
		committed[a.VehicleID] = a.StationID
	}

	c.epoch++
	res.Epoch = c.epoch
	res.Elapsed = time.Since(start)
	c.prev = committed

	c.record(metrics.SolveRecord{
		SolveID:    solveID,
		Epoch:      res.Epoch,
		Assigned:   len(res.Assignments),
		Unassigned: len(res.Unassigned),
		Conflicts:  conflicts,
		TotalCost:  res.TotalCost,
		Duration:   res.Elapsed,
		Outcome:    "committed",
	})
	c.recordLoads(snap.Stations)

	if c.bus != nil {
		c.bus.Publish(events.SolveEvent{
			SolveID:    solveID,
			Epoch:      res.Epoch,
			Assigned:   len(res.Assignments),
			Unassigned: len(res.Unassigned),
			Conflicts:  conflicts,
			TotalCost:  res.TotalCost,
		})
	}
	if c.sink != nil {
		if err := c.sink.Publish(res); err != nil {
			c.log.Errorf("result sink: %v", err)
		}
	}
	c.log.Infof("epoch %d committed: %d assigned, %d unassigned, cost %.4f",
		res.Epoch, len(res.Assignments), len(res.Unassigned), res.TotalCost)

	c.setState(StateIdle)
	return res, nil
}

// solveWithTimeout runs the solver under the configured budget. The solve
// itself is single-threaded; the timeout bounds the cycle rather than
// interrupting the computation mid-flight.
func (c *Controller) solveWithTimeout(ctx context.Context, vehicles []model.Vehicle, slots []solver.StationSlots) (solver.Result, error) {
	timeout := time.Duration(c.cfg.SolveTimeoutSeconds) * time.Second
	opts := solver.Options{Previous: c.prev, ChurnEpsilon: c.cfg.ChurnEpsilon}

	done := make(chan solver.Result, 1)
	go func() {
		done <- c.solveFn(vehicles, slots, c.model.Evaluate, opts)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-done:
		return res, nil
	case <-timer.C:
		return solver.Result{}, ErrSolveTimeout
	case <-ctx.Done():
		return solver.Result{}, ctx.Err()
	}
}

// CompleteCharge releases the slot held by the vehicle after a finished
// charging session and schedules a re-solve.
func (c *Controller) CompleteCharge(vehicleID string) error {
	return c.release(vehicleID, false)
}

// CancelAssignment aborts the vehicle's assignment, freeing its slot, and
// schedules a re-solve.
func (c *Controller) CancelAssignment(vehicleID string) error {
	return c.release(vehicleID, true)
}

func (c *Controller) release(vehicleID string, cancelled bool) error {
	stationID, err := c.tracker.ReleaseVehicle(vehicleID)
	if err != nil {
		return err
	}
	c.store.ClearAssignment(vehicleID)
	if c.bus != nil {
		c.bus.Publish(events.ReleaseEvent{VehicleID: vehicleID, StationID: stationID, Cancelled: cancelled})
	}
	c.Trigger()
	return nil
}

func (c *Controller) record(rec metrics.SolveRecord) {
	if err := c.metrics.RecordSolve(rec); err != nil {
		c.log.Errorf("metrics: %v", err)
	}
}

func (c *Controller) recordLoads(stations []model.Station) {
	loads := make([]metrics.StationLoad, 0, len(stations))
	for _, st := range stations {
		occupied := st.Capacity - c.tracker.FreeSlots(st.ID)
		loads = append(loads, metrics.StationLoad{
			StationID: st.ID,
			Ratio:     float64(occupied) / float64(st.Capacity),
		})
	}
	if err := c.metrics.RecordStationLoad(loads); err != nil {
		c.log.Errorf("metrics: %v", err)
	}
}

// matchable filters the snapshot to vehicles eligible for matching:
// needing charge, not mid-charge and not already assigned.
func matchable(vehicles []model.Vehicle, threshold float64) []model.Vehicle {
	var out []model.Vehicle
	for _, v := range vehicles {
		if v.NeedsCharge(threshold) {
			out = append(out, v)
		}
	}
	return out
}
