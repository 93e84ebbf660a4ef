/*
This pkg persists experiment output: which run produced what assignments
and metrics. Two backends exist; sqlite for keeping results across runs
(see sqlite.go) and an in-memory one for tests and throwaway runs.

*/

package results

import (
	"errors"
	"time"

	"seqclu/core/engine"
)

var ErrUnknownRun = errors.New("no such run")

// Run describes one stored experiment run.
type Run struct {
	// ID is the run uuid (see engine.RunContext).
	ID string
	// Seed is what the run's rng was seeded with.
	Seed int64
	// Profile names the experiment profile the run used.
	Profile string
	// CreatedAt is when the run was stored.
	CreatedAt time.Time
}

// Store is the persistence capability for experiment output.
type Store interface {
	// SaveRun registers a run. Must be called before saving anything
	// else for that run id.
	SaveRun(run Run) error
	// SaveAssignments stores the assignments of a run.
	SaveAssignments(runID string, assignments []engine.Assignment) error
	// SaveMetrics stores named metric values for a run.
	SaveMetrics(runID string, metrics map[string]float64) error
	// Assignments gives back the stored assignments of a run, in
	// insertion order.
	Assignments(runID string) ([]engine.Assignment, error)
	// Metrics gives back the stored metrics of a run.
	Metrics(runID string) (map[string]float64, error)
	// Close releases the backend.
	Close() error
}
