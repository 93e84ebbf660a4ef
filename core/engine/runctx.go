package engine

import (
	"math/rand"

	"github.com/google/uuid"
)

// RunContext identifies one experiment run and carries its seeded rng.
// Everything random in a run (stream order, synthetic noise) draws from
// RNG, so a run is reproducible from its seed alone.
type RunContext struct {
	// ID is a fresh uuid per run, used to key results in storage.
	ID string
	// Seed is what RNG was seeded with.
	Seed int64
	RNG  *rand.Rand
}

// NewRunContext sets up a RunContext with the given seed.
func NewRunContext(seed int64) RunContext {
	return RunContext{
		ID:   uuid.New().String(),
		Seed: seed,
		RNG:  rand.New(rand.NewSource(seed)),
	}
}
