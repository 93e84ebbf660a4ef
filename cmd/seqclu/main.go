package main

import (
	"log"
	"os"
	"time"

	"seqclu/cfg"
	"seqclu/core/baseline"
	"seqclu/core/engine"
	"seqclu/core/results"
	"seqclu/core/source"
	"seqclu/pkg/cluster"
	"seqclu/pkg/cluster/common"
	"seqclu/pkg/evalutils"
	"seqclu/pkg/seqdist"
)

func main() {
	args, err := ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	profiles, err := cfg.Profiles()
	if err != nil {
		log.Fatal(err)
	}
	profile, ok := profiles[args.Experiment]
	if !ok {
		log.Fatal(&ConfigError{Arg: "experimentName", Reason: "no such profile: " + args.Experiment})
	}

	run := engine.NewRunContext(profile.Seed)
	stream := buildStream(args, profile, run)

	store := openStore()
	defer store.Close()
	err = store.SaveRun(results.Run{
		ID:        run.ID,
		Seed:      run.Seed,
		Profile:   profile.Name,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Fatal(err)
	}

	metrics := map[string]float64{}
	var enginePrototypes [][]string

	if args.SeqClu != nil {
		enginePrototypes = runEngine(args, profile, run, stream, store, metrics)
	}
	if !args.OnlySeqClu {
		runBaseline(args, profile, stream, enginePrototypes, metrics)
	}

	if err := store.SaveMetrics(run.ID, metrics); err != nil {
		log.Fatal(err)
	}
	log.Printf("run %v done", run.ID)
	for name, value := range metrics {
		log.Printf("  %v = %.4f", name, value)
	}
}

func buildStream(args Args, profile cfg.Profile, run engine.RunContext) *source.Stream {
	var classes []source.Class
	switch {
	case args.DataSource.Letters != "":
		chars, ok := source.CharClasses(source.CharClassesArgs{
			Letters: args.DataSource.Letters,
			Steps:   profile.Steps,
			Noise:   profile.Noise,
		})
		if !ok {
			log.Fatal(&ConfigError{Arg: "dataSourceParameters", Reason: "letters outside the alphabet"})
		}
		classes = chars
	case args.DataSource.Bench == "pebble" || args.DataSource.Bench == "plaid":
		benchArgs := source.BenchClassesArgs{
			NumClasses: profile.NumClasses,
			Steps:      profile.Steps,
			Noise:      profile.Noise,
		}
		if !args.DataSource.Noise {
			benchArgs.Noise = 0
		}
		if args.DataSource.Bench == "pebble" {
			classes = source.PebbleClasses(benchArgs)
		} else {
			classes = source.PlaidClasses(benchArgs)
		}
	}

	stream, ok := source.NewStream(source.NewStreamArgs{
		Classes:  classes,
		PerClass: profile.PerClass,
		PerTick:  profile.PerTick,
		RNG:      run.RNG,
	})
	if !ok {
		log.Fatal(&ConfigError{Arg: "dataSourceParameters", Reason: "no stream classes could be built"})
	}
	return stream
}

func openStore() results.Store {
	path := cfg.DBPath()
	if path == "" {
		return results.NewMemoryStore()
	}
	store, err := results.OpenSQLite(path)
	if err != nil {
		log.Fatal(err)
	}
	return store
}

// newScheduler assembles the admission gate shared by the live engine
// and the online baseline. Buffering only applies when the engine
// parameters carry it; baseline-only runs gate without a buffer.
func newScheduler(args Args) (*engine.Scheduler, error) {
	schedArgs := engine.NewSchedulerArgs{MaxPerTick: args.MaxPerTick}
	if args.SeqClu != nil {
		schedArgs.Buffering = args.SeqClu.Buffering
		schedArgs.BufferSize = args.SeqClu.BufferSize
	}
	scheduler, ok := engine.NewScheduler(schedArgs)
	if !ok {
		return nil, &ConfigError{Arg: "seqCluParameters", Reason: "scheduler rejected the buffering setup"}
	}
	return scheduler, nil
}

// newEngineConfig assembles the live engine's configuration. The voting
// parameters come from argv, the formation factor from the profile.
func newEngineConfig(args Args, profile cfg.Profile, run engine.RunContext, src engine.Source, dist common.DistanceMeasure) (*engine.EngineConfig, error) {
	registry, ok := cluster.NewRegistry(cluster.NewRegistryArgs{
		NumPrototypes:     args.NumPrototypes,
		NumRepresentative: args.NumRepresentative,
		Ratio:             args.SeqClu.Ratio,
		Distance:          dist,
	})
	if !ok {
		return nil, &ConfigError{Arg: "numPrototypes", Reason: "registry rejected the prototype bounds"}
	}
	scheduler, err := newScheduler(args)
	if err != nil {
		return nil, err
	}

	return &engine.EngineConfig{
		Registry: registry,
		Policy: cluster.Policy{
			ClusterAssignment:         args.SeqClu.ClusterAssignment,
			MinimumRepresentativeness: args.SeqClu.MinRep,
		},
		Scheduler:       scheduler,
		Source:          src,
		FormationFactor: profile.FormationFactor,
		Run:             run,
	}, nil
}

// runEngine drives the live voting engine over the stream, stores its
// output, and gives back the per-cluster prototype id sets for the
// overlap metric.
func runEngine(args Args, profile cfg.Profile, run engine.RunContext, stream *source.Stream, store results.Store, metrics map[string]float64) [][]string {
	dtw := seqdist.NewDTW(seqdist.NewDTWArgs{})
	engineCfg, err := newEngineConfig(args, profile, run, stream, dtw)
	if err != nil {
		log.Fatal(err)
	}
	registry := engineCfg.Registry
	res := engine.Execute(engineCfg)

	if err := store.SaveAssignments(run.ID, res.Assignments); err != nil {
		log.Fatal(err)
	}
	scoreLabels("seqclu", stream.Labels(), res.Labels, metrics)
	metrics["seqclu_distance_calls"] = float64(dtw.Calls())
	metrics["seqclu_dropped"] = float64(res.Dropped)
	metrics["seqclu_clusters"] = float64(registry.Len())

	prototypes := make([][]string, 0, registry.Len())
	for _, c := range registry.Clusters() {
		ids := make([]string, 0, c.Len())
		for _, p := range c.Ranked() {
			ids = append(ids, p.Seq.ID())
		}
		prototypes = append(prototypes, ids)
	}
	return prototypes
}

// runBaseline runs the comparison variant picked by the online flag and
// scores it, including prototype overlap against the live engine if that
// one ran too.
func runBaseline(args Args, profile cfg.Profile, stream *source.Stream, enginePrototypes [][]string, metrics map[string]float64) {
	dtw := seqdist.NewDTW(seqdist.NewDTWArgs{})

	if args.Online {
		registry, ok := cluster.NewRegistry(cluster.NewRegistryArgs{
			NumPrototypes:     args.NumPrototypes,
			NumRepresentative: args.NumRepresentative,
			Ratio:             cfg.DefaultRatio,
			Distance:          dtw,
		})
		if !ok {
			log.Fatal(&ConfigError{Arg: "numPrototypes", Reason: "registry rejected the prototype bounds"})
		}
		scheduler, err := newScheduler(args)
		if err != nil {
			log.Fatal(err)
		}
		res := baseline.RunOnline(baseline.OnlineConfig{
			Registry:    registry,
			Source:      stream,
			Scheduler:   scheduler,
			NumClusters: profile.NumClusters,
		})
		scoreLabels("online", stream.Labels(), res.Labels, metrics)
		metrics["online_distance_calls"] = float64(dtw.Calls())
		metrics["online_dropped"] = float64(res.Dropped)

		if enginePrototypes != nil {
			got := make([][]string, 0, registry.Len())
			for _, c := range registry.Clusters() {
				ids := make([]string, 0, c.Len())
				for _, p := range c.Ranked() {
					ids = append(ids, p.Seq.ID())
				}
				got = append(got, ids)
			}
			metrics["prototype_overlap"] = evalutils.PrototypeOverlap(got, enginePrototypes)
		}
		return
	}

	res, err := baseline.RunOffline(baseline.OfflineConfig{
		Sequences:   drain(stream),
		NumClusters: profile.NumClusters,
		MaxIter:     args.MaxIter,
		Distance:    dtw,
	})
	if err != nil {
		log.Fatal(err)
	}
	if !res.Converged {
		log.Printf("offline baseline did not converge within %d iterations", args.MaxIter)
	}
	scoreLabels("offline", stream.Labels(), res.Labels, metrics)
	metrics["offline_distance_calls"] = float64(dtw.Calls())
	metrics["offline_iterations"] = float64(res.Iterations)

	if enginePrototypes != nil {
		medoids := make([][]string, len(res.Medoids))
		for i, id := range res.Medoids {
			medoids[i] = []string{id}
		}
		metrics["prototype_overlap"] = evalutils.PrototypeOverlap(medoids, enginePrototypes)
	}
}

func scoreLabels(prefix string, actual, predicted map[string]string, metrics map[string]float64) {
	micro, err := evalutils.F1Score(actual, predicted, evalutils.Micro)
	if err != nil {
		log.Printf("%v: f1 not computable: %v", prefix, err)
		return
	}
	macro, _ := evalutils.F1Score(actual, predicted, evalutils.Macro)
	metrics[prefix+"_f1_micro"] = micro
	metrics[prefix+"_f1_macro"] = macro
}

// drain flattens the stream into arrival order for the offline baseline.
func drain(stream *source.Stream) []common.Sequence {
	res := make([]common.Sequence, 0, stream.Len())
	for tick := 0; ; tick++ {
		arrivals, more := stream.NextTick(tick)
		res = append(res, arrivals...)
		if !more {
			return res
		}
	}
}
