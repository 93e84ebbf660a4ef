/*
This pkg holds the two comparison baselines the voting engine is measured
against. The online baseline in this file is the distance-only streaming
variant: the same tick-driven admission gate as the live engine, but no
voting and no representativeness -- each admitted sequence joins its
nearest cluster and either grows the prototype pool or replaces the
prototype furthest from itself.

*/

package baseline

import (
	"seqclu/core/engine"
	"seqclu/pkg/cluster"
	"seqclu/pkg/cluster/common"
)

// Source is where baselines pull sequences from. Same contract as the
// engine's source: arrivals for a tick plus whether more ticks follow.
type Source interface {
	NextTick(tick int) ([]common.Sequence, bool)
}

// OnlineConfig configures an online baseline run.
type OnlineConfig struct {
	// Registry owns the baseline's clusters. Must be fresh (empty) and
	// not shared with an engine run.
	Registry *cluster.Registry
	// Source is where sequences come from.
	Source Source
	// Scheduler gates per-tick admission, exactly as in the live
	// engine. Must be fresh and not shared with an engine run.
	Scheduler *engine.Scheduler
	// NumClusters is how many clusters to seed before nearest-cluster
	// assignment starts.
	NumClusters int
}

// OnlineResult is what an online baseline run gives back.
type OnlineResult struct {
	// Labels maps sequence id to cluster id.
	Labels map[string]string
	// Dropped counts sequences lost at the admission gate or to
	// distance errs.
	Dropped int
}

// RunOnline drains the source through the distance-only baseline. Each
// tick the scheduler admits at most its per-tick cap (buffering or
// dropping the rest); the first NumClusters admitted sequences seed one
// cluster each, everything after joins its nearest cluster (exact mean
// distance, no approximation).
func RunOnline(cfg OnlineConfig) OnlineResult {
	if cfg.Registry == nil || cfg.Source == nil || cfg.Scheduler == nil {
		panic("online baseline cfg without registry, source or scheduler")
	}

	res := OnlineResult{Labels: make(map[string]string)}
	for tick := 0; ; tick++ {
		arrivals, more := cfg.Source.NextTick(tick)
		admitted, dropped := cfg.Scheduler.Admit(arrivals)
		res.Dropped += len(dropped)
		for _, seq := range admitted {
			onlineStep(&cfg, &res, seq)
		}
		if !more && cfg.Scheduler.Pending() == 0 {
			return res
		}
	}
}

func onlineStep(cfg *OnlineConfig, res *OnlineResult, seq common.Sequence) {
	if cfg.Registry.Len() < cfg.NumClusters {
		c := cfg.Registry.CreateCluster(seq.Tick())
		if _, err := c.ReplaceFurthest(seq); err != nil {
			res.Dropped++
			return
		}
		res.Labels[seq.ID()] = c.ID()
		return
	}

	var nearest *cluster.Cluster
	var nearestDist float64
	for _, c := range cfg.Registry.Clusters() {
		d, err := c.MeanDistance(seq, false)
		if err != nil {
			res.Dropped++
			return
		}
		// Strict < keeps ties on the earliest created cluster.
		if nearest == nil || d < nearestDist {
			nearest, nearestDist = c, d
		}
	}

	if _, err := nearest.ReplaceFurthest(seq); err != nil {
		res.Dropped++
		return
	}
	res.Labels[seq.ID()] = nearest.ID()
}
