package engine

import (
	"seqclu/pkg/cluster"
	"seqclu/pkg/cluster/common"
)

// Source is where the engine pulls sequences from. NextTick gives the
// arrivals for the given tick, plus whether the source holds more data
// for later ticks.
type Source interface {
	NextTick(tick int) ([]common.Sequence, bool)
}

type engineInternal struct {
	stopped bool
	tick    int

	assignments []Assignment
	labels      map[string]string
	dropped     int
}

type EngineConfig struct {
	// Registry owns all clusters of the run.
	Registry *cluster.Registry
	// Policy decides exact vs approximated distances per cluster.
	Policy cluster.Policy
	// Scheduler gates per-tick admission.
	Scheduler *Scheduler
	// Source is where sequences come from.
	Source Source

	// FormationFactor controls new-cluster formation: a sequence whose
	// distance to its nearest cluster exceeds FormationFactor times that
	// cluster's mean pairwise prototype distance starts a cluster of its
	// own. <= 0 falls back to 2.
	FormationFactor float64

	// Run identifies this run and carries its seeded rng.
	Run RunContext

	L Logger

	// Added by the engine.
	internal engineInternal
}

func (cfg *EngineConfig) validate() {
	if cfg == nil {
		panic("nil engine cfg")
	}
	if cfg.Registry == nil {
		panic("engine cfg without a registry")
	}
	if cfg.Scheduler == nil {
		panic("engine cfg without a scheduler")
	}
	if cfg.Source == nil {
		panic("engine cfg without a source")
	}
	if cfg.L == nil {
		cfg.L = &defaultLogger{}
	}
	if cfg.FormationFactor <= 0 {
		cfg.FormationFactor = 2
	}
	if cfg.internal.labels == nil {
		cfg.internal.labels = make(map[string]string)
	}
}
