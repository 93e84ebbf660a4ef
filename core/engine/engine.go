/*
File contains the streaming engine itself. The engine is tick-driven: each
step pulls arrivals from the source, pushes them through the scheduler gate,
and assigns every admitted sequence to a cluster (or forms a new one if
nothing is close enough). Everything is deterministic given the source and
the run seed; ties always resolve by cluster creation order.

*/

package engine

import (
	"fmt"

	"seqclu/pkg/cluster"
	"seqclu/pkg/cluster/common"
)

// Assignment records where one sequence ended up.
type Assignment struct {
	SeqID     string
	ClusterID string
	// Tick at which the sequence was processed (not necessarily its
	// arrival tick, buffering can delay it).
	Tick     int
	Distance float64
	// Approximated is whether the deciding distance went through the
	// representative subset instead of the full prototype pool.
	Approximated bool
}

// Result is what a completed run gives back.
type Result struct {
	Assignments []Assignment
	// Labels maps sequence id to cluster id, the final clustering.
	Labels map[string]string
	// Ticks is how many ticks the run took.
	Ticks int
	// Dropped counts sequences that never got assigned (gate overflow
	// with buffering off, buffer overflow, or distance errs).
	Dropped int
}

// Step processes a single tick: pull arrivals, gate them, assign what got
// through. Returns false once the source is exhausted and nothing is
// buffered anymore.
func Step(cfg *EngineConfig) bool {
	cfg.validate()
	if cfg.internal.stopped {
		return false
	}

	tick := cfg.internal.tick
	arrivals, more := cfg.Source.NextTick(tick)
	admitted, dropped := cfg.Scheduler.Admit(arrivals)

	for _, drop := range dropped {
		cfg.internal.dropped++
		cfg.L.LogTask(fmt.Sprintf("[tick %4d] drop %v | %v", tick, drop.Seq.ID(), drop.Reason))
	}
	for _, seq := range admitted {
		assign(cfg, seq, tick)
	}

	cfg.L.LogMeta(metaData(cfg))
	cfg.internal.tick++
	return more || cfg.Scheduler.Pending() > 0
}

// Execute runs Step until the stream is drained (or Stop is called) and
// gives back the run result.
func Execute(cfg *EngineConfig) Result {
	cfg.validate()
	for Step(cfg) {
	}
	return Result{
		Assignments: cfg.internal.assignments,
		Labels:      cfg.internal.labels,
		Ticks:       cfg.internal.tick,
		Dropped:     cfg.internal.dropped,
	}
}

// Stop aborts the run; the next Step becomes a no-op.
func Stop(cfg *EngineConfig) {
	cfg.internal.stopped = true
}

// assign places one sequence: nearest cluster by policy distance, or a
// fresh cluster when nothing exists yet or the nearest one is too far out
// (see EngineConfig.FormationFactor). Distance errs drop the sequence with
// a logged reason instead of aborting the run.
func assign(cfg *EngineConfig, seq common.Sequence, tick int) {
	if cfg.Registry.Len() == 0 {
		c := cfg.Registry.CreateCluster(tick)
		record(cfg, seq, c, tick, 0, false)
		return
	}

	var nearest *cluster.Cluster
	var nearestDist float64
	var nearestApprox bool
	for _, c := range cfg.Registry.Clusters() {
		d, approximated, err := cfg.Policy.DistanceToCluster(c, seq)
		if err != nil {
			cfg.internal.dropped++
			s := "[tick %4d] drop %v | distance to %v failed: %v"
			cfg.L.LogTask(fmt.Sprintf(s, tick, seq.ID(), c.ID(), err))
			return
		}
		// Strict < keeps ties on the earliest created cluster.
		if nearest == nil || d < nearestDist {
			nearest, nearestDist, nearestApprox = c, d, approximated
		}
	}

	if tooFarOut(cfg, nearest, nearestDist) {
		c := cfg.Registry.CreateCluster(tick)
		record(cfg, seq, c, tick, nearestDist, nearestApprox)
		return
	}
	record(cfg, seq, nearest, tick, nearestDist, nearestApprox)
}

// tooFarOut is the new-cluster formation check. Clusters with fewer than
// two prototypes have no pairwise spread yet and absorb everything.
func tooFarOut(cfg *EngineConfig, c *cluster.Cluster, dist float64) bool {
	mean, ok, err := c.MeanPrototypeDistance()
	if err != nil || !ok {
		return false
	}
	return dist > cfg.FormationFactor*mean
}

// record admits the sequence into its cluster and appends the assignment.
func record(cfg *EngineConfig, seq common.Sequence, c *cluster.Cluster, tick int, dist float64, approximated bool) {
	res, err := c.Admit(seq)
	if err != nil {
		cfg.internal.dropped++
		s := "[tick %4d] drop %v | admission to %v failed: %v"
		cfg.L.LogTask(fmt.Sprintf(s, tick, seq.ID(), c.ID(), err))
		return
	}

	switch {
	case res.Voted:
		s := "[tick %4d] %v -> %v | vote for %v (score %.3f)"
		cfg.L.LogTask(fmt.Sprintf(s, tick, seq.ID(), c.ID(), res.VotedFor, res.Score))
	case res.Evicted != "":
		s := "[tick %4d] %v -> %v | new prototype, evicted %v"
		cfg.L.LogTask(fmt.Sprintf(s, tick, seq.ID(), c.ID(), res.Evicted))
	default:
		s := "[tick %4d] %v -> %v | new prototype"
		cfg.L.LogTask(fmt.Sprintf(s, tick, seq.ID(), c.ID()))
	}

	cfg.internal.assignments = append(cfg.internal.assignments, Assignment{
		SeqID:        seq.ID(),
		ClusterID:    c.ID(),
		Tick:         tick,
		Distance:     dist,
		Approximated: approximated,
	})
	cfg.internal.labels[seq.ID()] = c.ID()
}

// metaData snapshots the registry for Logger.LogMeta.
func metaData(cfg *EngineConfig) MetaData {
	items := make(map[string]MetaDataItem, cfg.Registry.Len())
	for _, c := range cfg.Registry.Clusters() {
		items[c.ID()] = MetaDataItem{
			LenPrototypes: c.Len(),
			MeanRep:       c.MeanRepresentativeness(),
			Approximating: cfg.Policy.UseApproximation(c),
		}
	}
	return MetaData{Items: items}
}
