package engine

import (
	"math"
	"strings"
	"testing"

	"seqclu/pkg/cluster"
	"seqclu/pkg/cluster/common"
)

/*
--------------------------------------------------------------------------
Test helpers.
--------------------------------------------------------------------------
*/

type absDist struct{ calls int }

func (m *absDist) Distance(a, b common.Sequence) (float64, error) {
	m.calls++
	return math.Abs(a.Samples()[0][0] - b.Samples()[0][0]), nil
}

func (m *absDist) Calls() int { return m.calls }
func (m *absDist) Reset()     { m.calls = 0 }

// sliceSource feeds pre-baked ticks.
type sliceSource struct {
	ticks [][]common.Sequence
}

func (s *sliceSource) NextTick(tick int) ([]common.Sequence, bool) {
	if tick >= len(s.ticks) {
		return nil, false
	}
	return s.ticks[tick], tick < len(s.ticks)-1
}

// recordLogger captures task lines so tests can assert on drop reasons.
type recordLogger struct {
	tasks []string
}

func (l *recordLogger) LogTask(s string)  { l.tasks = append(l.tasks, s) }
func (l *recordLogger) LogMeta(MetaData) {}

func newTestCfg(src Source, sched *Scheduler) *EngineConfig {
	registry, ok := cluster.NewRegistry(cluster.NewRegistryArgs{
		NumPrototypes:     3,
		NumRepresentative: 1,
		Ratio:             1,
		Distance:          new(absDist),
	})
	if !ok {
		panic("invalid test registry args")
	}
	return &EngineConfig{
		Registry:  registry,
		Policy:    cluster.Policy{ClusterAssignment: true, MinimumRepresentativeness: 0.5},
		Scheduler: sched,
		Source:    src,
		Run:       NewRunContext(1),
		L:         &recordLogger{},
	}
}

func eseq(v float64, tick int) common.Sequence {
	return common.NewSequence(common.NewSequenceConfig{
		Samples: [][]float64{{v}},
		Tick:    tick,
	})
}

/*
--------------------------------------------------------------------------
Engine.
--------------------------------------------------------------------------
*/

func TestFirstSequenceFormsCluster(t *testing.T) {
	src := &sliceSource{ticks: [][]common.Sequence{{eseq(0, 0)}}}
	sched, _ := NewScheduler(NewSchedulerArgs{MaxPerTick: 1})
	cfg := newTestCfg(src, sched)

	res := Execute(cfg)
	if cfg.Registry.Len() != 1 {
		t.Fatalf("clusters: want 1, got %v", cfg.Registry.Len())
	}
	if len(res.Assignments) != 1 || res.Assignments[0].ClusterID != "c0" {
		t.Fatalf("assignments: %+v", res.Assignments)
	}

	c, _ := cfg.Registry.Get("c0")
	if c.Len() != 1 {
		t.Fatalf("prototypes: want 1, got %v", c.Len())
	}
}

func TestNearIdenticalSequenceVotes(t *testing.T) {
	// One sequence per tick, the second nearly identical to the first:
	// it must strengthen the existing prototype, not become one.
	src := &sliceSource{ticks: [][]common.Sequence{
		{eseq(0, 0)},
		{eseq(0.1, 1)},
	}}
	sched, _ := NewScheduler(NewSchedulerArgs{MaxPerTick: 1})
	cfg := newTestCfg(src, sched)

	res := Execute(cfg)
	if len(res.Assignments) != 2 {
		t.Fatalf("assignments: want 2, got %v", len(res.Assignments))
	}
	if res.Assignments[1].ClusterID != "c0" {
		t.Fatal("second sequence should land in the existing cluster")
	}

	c, _ := cfg.Registry.Get("c0")
	if c.Len() != 1 {
		t.Fatalf("prototypes after vote: want 1, got %v", c.Len())
	}
	p := c.Ranked()[0]
	if p.Weight != 2 {
		t.Fatalf("weight after vote: want 2, got %v", p.Weight)
	}
	if p.Rep <= 0 {
		t.Fatalf("rep should rise after a vote, got %v", p.Rep)
	}
}

func TestFarSequenceFormsNewCluster(t *testing.T) {
	// Prototypes settle around 0 and 2 (pairwise mean 2); the sequence
	// at 10 is far beyond FormationFactor*2 and must start a cluster.
	src := &sliceSource{ticks: [][]common.Sequence{
		{eseq(0, 0)},
		{eseq(2, 1)},
		{eseq(10, 2)},
	}}
	sched, _ := NewScheduler(NewSchedulerArgs{MaxPerTick: 1})
	cfg := newTestCfg(src, sched)

	res := Execute(cfg)
	if cfg.Registry.Len() != 2 {
		t.Fatalf("clusters: want 2, got %v", cfg.Registry.Len())
	}
	last := res.Assignments[len(res.Assignments)-1]
	if last.ClusterID != "c1" {
		t.Fatalf("far sequence should form c1, got %v", last.ClusterID)
	}
}

func TestGateDropsWithoutBuffering(t *testing.T) {
	// Three arrivals in one tick through a gate of one, buffering off:
	// exactly one assignment, two drops, and the drops are logged.
	src := &sliceSource{ticks: [][]common.Sequence{
		{eseq(0, 0), eseq(5, 0), eseq(9, 0)},
	}}
	sched, _ := NewScheduler(NewSchedulerArgs{MaxPerTick: 1})
	cfg := newTestCfg(src, sched)

	res := Execute(cfg)
	if len(res.Assignments) != 1 {
		t.Fatalf("assignments: want 1, got %v", len(res.Assignments))
	}
	if res.Dropped != 2 {
		t.Fatalf("dropped: want 2, got %v", res.Dropped)
	}

	logged := cfg.L.(*recordLogger)
	drops := 0
	for _, line := range logged.tasks {
		if strings.Contains(line, "gate overflow") {
			drops++
		}
	}
	if drops != 2 {
		t.Fatalf("logged drop reasons: want 2, got %v", drops)
	}
}

func TestBufferCapacityDropIsLoggedDistinctly(t *testing.T) {
	// Gate of one with a buffer of one: three same-tick arrivals mean
	// one admitted, one buffered, one dropped -- and the drop reason
	// must name the buffer, not the gate.
	src := &sliceSource{ticks: [][]common.Sequence{
		{eseq(0, 0), eseq(0.1, 0), eseq(0.2, 0)},
	}}
	sched, _ := NewScheduler(NewSchedulerArgs{MaxPerTick: 1, Buffering: true, BufferSize: 1})
	cfg := newTestCfg(src, sched)

	res := Execute(cfg)
	if len(res.Assignments) != 2 {
		t.Fatalf("assignments: want 2, got %v", len(res.Assignments))
	}
	if res.Dropped != 1 {
		t.Fatalf("dropped: want 1, got %v", res.Dropped)
	}

	logged := cfg.L.(*recordLogger)
	capacity, gate := 0, 0
	for _, line := range logged.tasks {
		if strings.Contains(line, "buffer capacity exceeded") {
			capacity++
		}
		if strings.Contains(line, "gate overflow") {
			gate++
		}
	}
	if capacity != 1 {
		t.Fatalf("buffer capacity reasons logged: want 1, got %v", capacity)
	}
	if gate != 0 {
		t.Fatalf("gate overflow reasons logged: want 0, got %v", gate)
	}
}

func TestGateBuffersAcrossTicks(t *testing.T) {
	src := &sliceSource{ticks: [][]common.Sequence{
		{eseq(0, 0), eseq(0.1, 0), eseq(0.2, 0)},
	}}
	sched, _ := NewScheduler(NewSchedulerArgs{MaxPerTick: 1, Buffering: true, BufferSize: 5})
	cfg := newTestCfg(src, sched)

	res := Execute(cfg)
	if len(res.Assignments) != 3 {
		t.Fatalf("assignments: want 3, got %v", len(res.Assignments))
	}
	if res.Dropped != 0 {
		t.Fatalf("dropped: want 0, got %v", res.Dropped)
	}
	if res.Ticks != 3 {
		t.Fatalf("draining the buffer should take 3 ticks, took %v", res.Ticks)
	}

	// Buffered sequences keep their arrival order when processed later.
	for i := 1; i < len(res.Assignments); i++ {
		if res.Assignments[i].Tick != res.Assignments[i-1].Tick+1 {
			t.Fatalf("assignments not one per tick: %+v", res.Assignments)
		}
	}
}

func TestStopAbortsRun(t *testing.T) {
	src := &sliceSource{ticks: [][]common.Sequence{
		{eseq(0, 0)},
		{eseq(1, 1)},
	}}
	sched, _ := NewScheduler(NewSchedulerArgs{MaxPerTick: 1})
	cfg := newTestCfg(src, sched)

	if !Step(cfg) {
		t.Fatal("first step should report more data")
	}
	Stop(cfg)
	if Step(cfg) {
		t.Fatal("step after stop should be a no-op")
	}
}

func TestRunDeterminism(t *testing.T) {
	build := func() *EngineConfig {
		src := &sliceSource{ticks: [][]common.Sequence{
			{eseq(0, 0), eseq(0.1, 0)},
			{eseq(5, 1)},
			{eseq(0.2, 2), eseq(5.1, 2)},
		}}
		sched, _ := NewScheduler(NewSchedulerArgs{MaxPerTick: 2, Buffering: true, BufferSize: 4})
		return newTestCfg(src, sched)
	}

	a, b := Execute(build()), Execute(build())
	if len(a.Assignments) != len(b.Assignments) {
		t.Fatalf("runs differ in length: %v vs %v", len(a.Assignments), len(b.Assignments))
	}
	for i := range a.Assignments {
		if a.Assignments[i] != b.Assignments[i] {
			t.Fatalf("runs diverge at %v: %+v vs %+v", i, a.Assignments[i], b.Assignments[i])
		}
	}
}
