package optimizer

import "errors"

var (
	// ErrMalformedSnapshot marks a structurally invalid snapshot. The call
	// fails without touching the capacity tracker.
	ErrMalformedSnapshot = errors.New("optimizer: malformed snapshot")
	// ErrSolveTimeout marks a solve that exceeded its time budget. The
	// epoch is aborted and retried on the next trigger.
	ErrSolveTimeout = errors.New("optimizer: solve timeout")
	// ErrStaleSolve marks a solve whose result was discarded because
	// capacity changed while it ran. A re-solve is scheduled automatically;
	// callers of RunOptimization receive the retried result, not this
	// error, unless retries are exhausted.
	ErrStaleSolve = errors.New("optimizer: stale solve discarded")
	// ErrBusy is returned when a synchronous optimization request arrives
	// while another cycle holds the controller and the context expires
	// before it frees up.
	ErrBusy = errors.New("optimizer: busy")
)
