package cluster

import (
	"errors"
	"math"
	"testing"

	"seqclu/pkg/cluster/common"
)

/*
--------------------------------------------------------------------------
Test helpers. Distances in here use a trivial 1d measure (abs diff of the
first sample value) so expected values are easy to derive by hand.
--------------------------------------------------------------------------
*/

type absDist struct{ calls int }

func (m *absDist) Distance(a, b common.Sequence) (float64, error) {
	m.calls++
	return math.Abs(a.Samples()[0][0] - b.Samples()[0][0]), nil
}

func (m *absDist) Calls() int { return m.calls }
func (m *absDist) Reset()     { m.calls = 0 }

var _ common.DistanceMeasure = new(absDist)

func seq(v float64, tick int) common.Sequence {
	return common.NewSequence(common.NewSequenceConfig{
		Samples: [][]float64{{v}},
		Tick:    tick,
	})
}

func newTestCluster(numProto, numRepr int) *Cluster {
	c, ok := NewCluster(NewClusterArgs{
		ID:                "c0",
		NumPrototypes:     numProto,
		NumRepresentative: numRepr,
		Ratio:             1,
		Distance:          new(absDist),
	})
	if !ok {
		panic("invalid test cluster args")
	}
	return c
}

/*
--------------------------------------------------------------------------
Pool.
--------------------------------------------------------------------------
*/

func TestNewPoolInvalidArgs(t *testing.T) {
	if _, ok := NewPool(NewPoolArgs{Capacity: 0, Ratio: 1}); ok {
		t.Fatal("accepted zero capacity")
	}
	if _, ok := NewPool(NewPoolArgs{Capacity: 2, Ratio: -1}); ok {
		t.Fatal("accepted negative ratio")
	}
}

func TestPoolAddBelowCapacity(t *testing.T) {
	p, _ := NewPool(NewPoolArgs{Capacity: 2, Ratio: 1})

	if _, evicted := p.Add(seq(1, 0)); evicted {
		t.Fatal("evicted while below capacity")
	}
	if _, evicted := p.Add(seq(2, 0)); evicted {
		t.Fatal("evicted while below capacity")
	}
	if p.Len() != 2 {
		t.Fatalf("len: want 2, got %v", p.Len())
	}
}

func TestPoolAddEvictsLeastValuable(t *testing.T) {
	p, _ := NewPool(NewPoolArgs{Capacity: 2, Ratio: 1})
	p.Add(seq(1, 0))
	p.Add(seq(2, 0))
	// Boost the first prototype so the second is the least valuable.
	p.At(0).Weight = 5
	weak := p.At(1).Seq.ID()

	evicted, ok := p.Add(seq(3, 1))
	if !ok {
		t.Fatal("expected an eviction at capacity")
	}
	if evicted.Seq.ID() != weak {
		t.Fatalf("evicted %v, want %v", evicted.Seq.ID(), weak)
	}
}

func TestPoolAddEvictsOldestOnTie(t *testing.T) {
	p, _ := NewPool(NewPoolArgs{Capacity: 2, Ratio: 1})
	p.Add(seq(1, 3))
	p.Add(seq(2, 7))
	older := p.At(0).Seq.ID()

	evicted, ok := p.Add(seq(3, 9))
	if !ok {
		t.Fatal("expected an eviction at capacity")
	}
	if evicted.Seq.ID() != older {
		t.Fatalf("tie should evict oldest arrival, evicted %v", evicted.Seq.ID())
	}
}

func TestPoolRankedAndRepresentative(t *testing.T) {
	p, _ := NewPool(NewPoolArgs{Capacity: 3, Ratio: 1})
	p.Add(seq(1, 0))
	p.Add(seq(2, 0))
	p.Add(seq(3, 0))
	p.At(1).Weight = 9
	p.At(2).Weight = 5
	best := p.At(1).Seq.ID()

	ranked := p.Ranked()
	if ranked[0].Seq.ID() != best {
		t.Fatalf("rank[0]: want %v, got %v", best, ranked[0].Seq.ID())
	}

	repr := p.Representative(2)
	if len(repr) != 2 {
		t.Fatalf("representative: want 2, got %v", len(repr))
	}
	if repr[0].Seq.ID() != best {
		t.Fatal("representative subset must be the best-ranked prefix")
	}

	// Asking for more than the pool holds is not an err.
	if len(p.Representative(10)) != 3 {
		t.Fatal("oversized representative request should cap at pool len")
	}
}

/*
--------------------------------------------------------------------------
Cluster admission / voting.
--------------------------------------------------------------------------
*/

func TestAdmitEmptyClusterInserts(t *testing.T) {
	c := newTestCluster(2, 1)

	res, err := c.Admit(seq(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Inserted || res.Voted {
		t.Fatalf("first sequence must become a prototype, got %+v", res)
	}
	if c.Len() != 1 {
		t.Fatalf("len: want 1, got %v", c.Len())
	}
}

func TestAdmitSingletonPoolVotesWhenClose(t *testing.T) {
	c := newTestCluster(2, 1)
	c.Admit(seq(0, 0))

	res, err := c.Admit(seq(0.5, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Voted {
		t.Fatalf("close sequence should vote, got %+v", res)
	}

	p := c.Ranked()[0]
	if p.Weight != 2 {
		t.Fatalf("weight after vote: want 2, got %v", p.Weight)
	}
	if p.Rep <= 0 {
		t.Fatalf("rep should rise after a vote, got %v", p.Rep)
	}
}

func TestAdmitSingletonPoolInsertsWhenFar(t *testing.T) {
	c := newTestCluster(2, 1)
	c.Admit(seq(0, 0))

	res, err := c.Admit(seq(10, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Inserted {
		t.Fatalf("far sequence should become a prototype, got %+v", res)
	}
	if c.Len() != 2 {
		t.Fatalf("len: want 2, got %v", c.Len())
	}
}

func TestAdmitVoteWithinRadius(t *testing.T) {
	c := newTestCluster(2, 1)
	c.Admit(seq(0, 0))
	c.Admit(seq(10, 1))
	// Mean pairwise distance is 10, so the vote radius is 5.

	res, err := c.Admit(seq(0.5, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Voted {
		t.Fatalf("sequence inside the radius should vote, got %+v", res)
	}
	if res.Score <= 0 || res.Score > 1 {
		t.Fatalf("score out of range: %v", res.Score)
	}

	voted, ok := c.pool.Find(res.VotedFor)
	if !ok {
		t.Fatal("voted-for prototype not in pool")
	}
	if voted.Weight != 2 {
		t.Fatalf("weight: want 2, got %v", voted.Weight)
	}
	if voted.Rep != res.Score/2 {
		// Running mean over 2 votes where the first (self) scored 0.
		t.Fatalf("rep: want %v, got %v", res.Score/2, voted.Rep)
	}
}

func TestAdmitInsertEvictsAtCapacity(t *testing.T) {
	c := newTestCluster(2, 1)
	c.Admit(seq(0, 0))
	c.Admit(seq(10, 1))
	c.Admit(seq(0.5, 2)) // votes for the prototype at 0

	// Outside the radius and the pool is full: eviction. The prototype
	// at 10 never received a vote so it is the least valuable.
	res, err := c.Admit(seq(20, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Inserted || res.Evicted == "" {
		t.Fatalf("expected insert with eviction, got %+v", res)
	}
	if _, stillThere := c.pool.Find(res.Evicted); stillThere {
		t.Fatal("evicted prototype still in pool")
	}
	if c.Len() != 2 {
		t.Fatalf("len: want 2, got %v", c.Len())
	}
}

// breakAfterDist works like absDist until a set amount of calls, then
// fails every call. Lets tests break the measure partway through an
// admission.
type breakAfterDist struct {
	absDist
	failAfter int
}

func (m *breakAfterDist) Distance(a, b common.Sequence) (float64, error) {
	if m.absDist.calls >= m.failAfter {
		m.absDist.calls++
		return 0, errBrokenMeasure
	}
	return m.absDist.Distance(a, b)
}

var errBrokenMeasure = errors.New("measure broke")

func TestAdmitReportsPairwiseDistanceError(t *testing.T) {
	// The measure survives the sequence-to-prototype distances (one for
	// the singleton admission below, two for the final one) but fails on
	// the prototype pair behind the vote radius. Admit must surface that
	// err, not quietly insert a prototype.
	dm := &breakAfterDist{failAfter: 3}
	c, ok := NewCluster(NewClusterArgs{
		ID:                "c0",
		NumPrototypes:     3,
		NumRepresentative: 1,
		Ratio:             1,
		Distance:          dm,
	})
	if !ok {
		panic("invalid test cluster args")
	}
	c.Admit(seq(0, 0))
	c.Admit(seq(10, 1)) // singleton path, no pairwise distance yet

	res, err := c.Admit(seq(0.5, 2))
	if err == nil {
		t.Fatal("expected the pairwise distance err to surface")
	}
	if res.Voted || res.Inserted {
		t.Fatalf("failed admission must not change the pool, got %+v", res)
	}
	if c.Len() != 2 {
		t.Fatalf("prototypes after failed admission: want 2, got %v", c.Len())
	}
}

func TestMeanPrototypeDistance(t *testing.T) {
	c := newTestCluster(3, 1)

	if _, ok, _ := c.MeanPrototypeDistance(); ok {
		t.Fatal("empty cluster cannot have a pairwise mean")
	}
	c.Admit(seq(0, 0))
	if _, ok, _ := c.MeanPrototypeDistance(); ok {
		t.Fatal("one prototype cannot have a pairwise mean")
	}

	c.Admit(seq(10, 1))
	d, ok, err := c.MeanPrototypeDistance()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || d != 10 {
		t.Fatalf("pairwise mean: want 10, got %v (ok=%v)", d, ok)
	}
}

func TestMeanDistanceExactVsRepresentative(t *testing.T) {
	c := newTestCluster(2, 1)
	c.Admit(seq(0, 0))
	c.Admit(seq(10, 1))
	c.Admit(seq(0.5, 2)) // vote makes the prototype at 0 the best ranked

	probe := seq(4, 3)
	exact, err := c.MeanDistance(probe, false)
	if err != nil {
		t.Fatal(err)
	}
	if exact != 5 {
		t.Fatalf("exact mean: want 5, got %v", exact)
	}

	approx, err := c.MeanDistance(probe, true)
	if err != nil {
		t.Fatal(err)
	}
	if approx != 4 {
		t.Fatalf("approximated mean: want 4 (only best prototype), got %v", approx)
	}
}

func TestMeanDistanceEmptyCluster(t *testing.T) {
	c := newTestCluster(2, 1)
	if _, err := c.MeanDistance(seq(0, 0), false); err != ErrEmptyCluster {
		t.Fatalf("want ErrEmptyCluster, got %v", err)
	}
}

func TestReplaceFurthest(t *testing.T) {
	c := newTestCluster(2, 1)
	c.Admit(seq(0, 0))

	// Below capacity: grows, nothing replaced.
	replaced, err := c.ReplaceFurthest(seq(10, 1))
	if err != nil {
		t.Fatal(err)
	}
	if replaced != "" {
		t.Fatalf("pool below capacity should grow, replaced %v", replaced)
	}

	// At capacity: the prototype furthest from the newcomer goes.
	far := seq(10, 1)
	replaced, err = c.ReplaceFurthest(seq(9, 2))
	if err != nil {
		t.Fatal(err)
	}
	if replaced == far.ID() {
		t.Fatal("replaced the nearest prototype instead of the furthest")
	}
	if _, ok := c.pool.Find(replaced); ok {
		t.Fatal("replaced prototype still in pool")
	}
}

/*
--------------------------------------------------------------------------
Policy.
--------------------------------------------------------------------------
*/

func TestPolicyDisabledAssignment(t *testing.T) {
	c := newTestCluster(2, 1)
	c.Admit(seq(0, 0))
	c.pool.At(0).Rep = 1

	p := Policy{ClusterAssignment: false, MinimumRepresentativeness: 0}
	if p.UseApproximation(c) {
		t.Fatal("approximation must be off when cluster assignment is off")
	}
}

func TestPolicyThreshold(t *testing.T) {
	c := newTestCluster(2, 1)
	c.Admit(seq(0, 0))
	c.Admit(seq(10, 1))
	c.pool.At(0).Rep = 0.6
	c.pool.At(1).Rep = 0.2
	// The representative subset holds only the best-ranked prototype,
	// which is the one with rep 0.6.

	p := Policy{ClusterAssignment: true, MinimumRepresentativeness: 0.6}
	if !p.UseApproximation(c) {
		t.Fatal("subset rep at the threshold should enable approximation")
	}

	p.MinimumRepresentativeness = 0.7
	if p.UseApproximation(c) {
		t.Fatal("subset rep below the threshold should stay exact")
	}
}

func TestPolicyDistanceToCluster(t *testing.T) {
	c := newTestCluster(2, 1)
	c.Admit(seq(0, 0))
	c.Admit(seq(10, 1))
	c.pool.At(0).Rep = 1
	c.pool.At(1).Rep = 1

	p := Policy{ClusterAssignment: true, MinimumRepresentativeness: 0.5}
	d, approximated, err := p.DistanceToCluster(c, seq(4, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !approximated {
		t.Fatal("fully represented cluster should be approximated")
	}
	// Only the best-ranked prototype is consulted. Both have equal value
	// here, so the tie-break (earlier tick) picks the prototype at 0.
	if d != 4 {
		t.Fatalf("approximated distance: want 4, got %v", d)
	}

	// Forcing rep just below the threshold must flip back to exact on
	// the next call.
	c.pool.At(0).Rep = 0.49
	c.pool.At(1).Rep = 0.49
	d, approximated, err = p.DistanceToCluster(c, seq(4, 2))
	if err != nil {
		t.Fatal(err)
	}
	if approximated {
		t.Fatal("rep below the threshold should force exact distances")
	}
	if d != 5 {
		t.Fatalf("exact distance: want 5, got %v", d)
	}
}

/*
--------------------------------------------------------------------------
Registry.
--------------------------------------------------------------------------
*/

func TestRegistryCreateAndGet(t *testing.T) {
	r, ok := NewRegistry(NewRegistryArgs{
		NumPrototypes:     2,
		NumRepresentative: 1,
		Ratio:             1,
		Distance:          new(absDist),
	})
	if !ok {
		t.Fatal("valid registry args rejected")
	}

	c0 := r.CreateCluster(0)
	c1 := r.CreateCluster(3)
	if c0.ID() != "c0" || c1.ID() != "c1" {
		t.Fatalf("ids: got %v, %v", c0.ID(), c1.ID())
	}
	if r.Len() != 2 {
		t.Fatalf("len: want 2, got %v", r.Len())
	}

	got, ok := r.Get("c1")
	if !ok || got != c1 {
		t.Fatal("Get did not give back the created cluster")
	}
	if _, ok := r.Get("nope"); ok {
		t.Fatal("Get found a cluster that does not exist")
	}

	order := r.Clusters()
	if order[0] != c0 || order[1] != c1 {
		t.Fatal("Clusters not in creation order")
	}
}

func TestNewRegistryInvalidArgs(t *testing.T) {
	if _, ok := NewRegistry(NewRegistryArgs{}); ok {
		t.Fatal("accepted zero args")
	}
	args := NewRegistryArgs{
		NumPrototypes:     2,
		NumRepresentative: 3, // more representatives than prototypes
		Ratio:             1,
		Distance:          new(absDist),
	}
	if _, ok := NewRegistry(args); ok {
		t.Fatal("accepted representative count above prototype count")
	}
}
