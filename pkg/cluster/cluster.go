/*
File contains the Cluster type; a bounded pool of prototypes plus the voting
logic that maintains it. The lifecycle for a new sequence is Admit(...):
either the sequence is close enough to an existing prototype and votes for
it (rep and weight go up), or it is inserted as a new prototype, evicting
the least valuable one if the pool is full.

Pairwise prototype distances are memoized per cluster since the pool changes
far less often than sequences arrive; cache entries are dropped when their
prototype is evicted.

*/

package cluster

import (
	"errors"
	"strings"

	"seqclu/pkg/cluster/common"
)

// ErrEmptyCluster is returned when a distance to a cluster without any
// prototypes is requested.
var ErrEmptyCluster = errors.New("cluster has no prototypes")

// Cluster groups sequences through a bounded pool of voted prototypes.
// The zero value is not usable, use NewCluster.
type Cluster struct {
	id   string
	tick int

	pool     *Pool
	numRepr  int
	distance common.DistanceMeasure

	// Memoized pairwise prototype distances, keyed by ordered id pair.
	pairCache map[string]float64
}

// NewClusterArgs are arguments for NewCluster.
type NewClusterArgs struct {
	// ID is the stable identity of the cluster.
	ID string
	// Tick is the tick at which the cluster was created.
	Tick int
	// NumPrototypes bounds the prototype pool. Must be > 0.
	NumPrototypes int
	// NumRepresentative is how many of the best-ranked prototypes make up
	// the representative subset. Must be in [1, NumPrototypes].
	NumRepresentative int
	// Ratio is the representativeness multiplier for prototype value.
	// Must be >= 0.
	Ratio float64
	// Distance computes sequence dissimilarity. Must not be nil.
	Distance common.DistanceMeasure
}

// Bool checks validity of args, as specified in the NewClusterArgs docs.
func (args *NewClusterArgs) Bool() bool {
	ok := args.ID != ""
	ok = ok && args.NumPrototypes > 0
	ok = ok && args.NumRepresentative > 0
	ok = ok && args.NumRepresentative <= args.NumPrototypes
	ok = ok && args.Ratio >= 0
	ok = ok && args.Distance != nil
	return ok
}

// NewCluster sets up a Cluster with the given args. Returns (nil, false)
// if the args are invalid, as specified in the NewClusterArgs docs.
func NewCluster(args NewClusterArgs) (*Cluster, bool) {
	if !args.Bool() {
		return nil, false
	}

	pool, ok := NewPool(NewPoolArgs{Capacity: args.NumPrototypes, Ratio: args.Ratio})
	if !ok {
		return nil, false
	}
	res := Cluster{
		id:        args.ID,
		tick:      args.Tick,
		pool:      pool,
		numRepr:   args.NumRepresentative,
		distance:  args.Distance,
		pairCache: make(map[string]float64),
	}
	return &res, true
}

// ID gives the stable identity of the cluster.
func (c *Cluster) ID() string { return c.id }

// Tick gives the tick at which the cluster was created.
func (c *Cluster) Tick() int { return c.tick }

// Len gives the current amount of prototypes.
func (c *Cluster) Len() int { return c.pool.Len() }

// Ranked gives all prototypes ordered best-first by value.
func (c *Cluster) Ranked() []*Prototype {
	return c.pool.Ranked()
}

// Representative gives the representative subset: the best-ranked prefix
// of the prototype pool.
func (c *Cluster) Representative() []*Prototype {
	return c.pool.Representative(c.numRepr)
}

// MeanRepresentativeness gives the mean rep over all prototypes, 0 for an
// empty cluster.
func (c *Cluster) MeanRepresentativeness() float64 {
	if c.pool.Len() == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < c.pool.Len(); i++ {
		sum += c.pool.At(i).Rep
	}
	return sum / float64(c.pool.Len())
}

// RepresentativeRep gives the mean rep over the representative subset
// only, 0 for an empty cluster. This is the confidence signal the
// distance policy switches on.
func (c *Cluster) RepresentativeRep() float64 {
	repr := c.Representative()
	if len(repr) == 0 {
		return 0
	}
	var sum float64
	for _, p := range repr {
		sum += p.Rep
	}
	return sum / float64(len(repr))
}

// MeanPrototypeDistance gives the mean distance over all unordered
// prototype pairs. Second return is false when the pool holds fewer than
// two prototypes (no pairs exist).
func (c *Cluster) MeanPrototypeDistance() (float64, bool, error) {
	n := c.pool.Len()
	if n < 2 {
		return 0, false, nil
	}

	var sum float64
	var pairs int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := c.pairDist(c.pool.At(i), c.pool.At(j))
			if err != nil {
				return 0, false, err
			}
			sum += d
			pairs++
		}
	}
	return sum / float64(pairs), true, nil
}

// MeanDistance gives the mean distance from a sequence to the prototypes
// of this cluster. With representative=true only the representative subset
// is consulted, which is the cheap, approximated variant.
func (c *Cluster) MeanDistance(s common.Sequence, representative bool) (float64, error) {
	var protos []*Prototype
	if representative {
		protos = c.Representative()
	} else {
		protos = c.Ranked()
	}
	if len(protos) == 0 {
		return 0, ErrEmptyCluster
	}

	var sum float64
	for _, p := range protos {
		d, err := c.distance.Distance(s, p.Seq)
		if err != nil {
			return 0, err
		}
		sum += d
	}
	return sum / float64(len(protos)), nil
}

// AdmitResult describes what happened to a sequence admitted to a cluster.
type AdmitResult struct {
	// Voted is true if the sequence voted for an existing prototype
	// instead of becoming one.
	Voted bool
	// VotedFor is the id of the prototype voted for (if Voted).
	VotedFor string
	// Inserted is true if the sequence became a new prototype.
	Inserted bool
	// Evicted is the id of the prototype pushed out to make room
	// (empty if nothing was evicted).
	Evicted string
	// Score is the closeness score of the vote (if Voted).
	Score float64
}

// Admit runs the voting step for one sequence. Close enough to the nearest
// prototype means a vote (rep and weight of that prototype increase);
// otherwise the sequence is inserted as a new prototype, evicting the
// least valuable one when the pool is full.
func (c *Cluster) Admit(s common.Sequence) (AdmitResult, error) {
	if c.pool.Len() == 0 {
		c.insert(s)
		return AdmitResult{Inserted: true}, nil
	}

	dists, err := c.distancesTo(s)
	if err != nil {
		return AdmitResult{}, err
	}

	nearest := 0
	for i := 1; i < len(dists); i++ {
		if closerThan(dists[i], c.pool.At(i), dists[nearest], c.pool.At(nearest)) {
			nearest = i
		}
	}

	vote, score, err := c.voteDecision(dists, nearest)
	if err != nil {
		return AdmitResult{}, err
	}
	if vote {
		p := c.pool.At(nearest)
		// Running mean of closeness scores, weighted by prior votes.
		p.Rep = (p.Rep*p.Weight + score) / (p.Weight + 1)
		p.Weight++
		return AdmitResult{Voted: true, VotedFor: p.Seq.ID(), Score: score}, nil
	}

	evicted := c.insert(s)
	return AdmitResult{Inserted: true, Evicted: evicted}, nil
}

// ReplaceFurthest swaps the prototype furthest from the given sequence for
// the sequence itself. Pools below capacity simply grow instead. Used by
// the non-voting online baseline, where prototype quality is distance-only.
func (c *Cluster) ReplaceFurthest(s common.Sequence) (replaced string, err error) {
	if c.pool.Len() < c.pool.Capacity() {
		c.insert(s)
		return "", nil
	}

	dists, err := c.distancesTo(s)
	if err != nil {
		return "", err
	}

	furthest := 0
	for i := 1; i < len(dists); i++ {
		if closerThan(dists[furthest], c.pool.At(furthest), dists[i], c.pool.At(i)) {
			furthest = i
		}
	}

	victim := c.pool.At(furthest)
	replaced = victim.Seq.ID()
	*victim = Prototype{Seq: s, Rep: 0, Weight: 1}
	c.dropFromCache(replaced)
	return replaced, nil
}

// voteDecision decides whether the sequence at the given distances votes
// for the nearest prototype, and with what score. A single-prototype pool
// has no pairwise spread to derive a radius from, so closeness alone
// decides there.
func (c *Cluster) voteDecision(dists []float64, nearest int) (bool, float64, error) {
	if len(dists) == 1 {
		score := 1 / (1 + dists[0])
		return score >= 0.5, score, nil
	}

	mean, ok, err := c.MeanPrototypeDistance()
	if err != nil {
		return false, 0, err
	}
	if !ok || dists[nearest] > mean/2 {
		return false, 0, nil
	}
	return true, closenessScore(dists[nearest], dists), nil
}

// closenessScore maps a distance to [0, 1] relative to the mean distance
// of the candidate to all prototypes. A distance of 0 scores 1; a distance
// equal to the mean scores 0.5.
func closenessScore(d float64, all []float64) float64 {
	if d == 0 {
		return 1
	}
	var sum float64
	for _, v := range all {
		sum += v
	}
	avg := sum / float64(len(all))

	score := avg / (2 * d)
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// insert puts the sequence into the pool as a fresh prototype and cleans
// the pair cache if something got evicted. Returns the evicted id, or "".
func (c *Cluster) insert(s common.Sequence) string {
	evicted, ok := c.pool.Add(s)
	if !ok {
		return ""
	}
	id := evicted.Seq.ID()
	c.dropFromCache(id)
	return id
}

// distancesTo computes distances from a sequence to each prototype, in
// pool (insertion) order.
func (c *Cluster) distancesTo(s common.Sequence) ([]float64, error) {
	res := make([]float64, c.pool.Len())
	for i := 0; i < c.pool.Len(); i++ {
		d, err := c.distance.Distance(s, c.pool.At(i).Seq)
		if err != nil {
			return nil, err
		}
		res[i] = d
	}
	return res, nil
}

// pairDist gives the memoized distance between two prototypes.
func (c *Cluster) pairDist(a, b *Prototype) (float64, error) {
	key := pairKey(a.Seq.ID(), b.Seq.ID())
	if d, ok := c.pairCache[key]; ok {
		return d, nil
	}
	d, err := c.distance.Distance(a.Seq, b.Seq)
	if err != nil {
		return 0, err
	}
	c.pairCache[key] = d
	return d, nil
}

// dropFromCache removes all memoized pairs involving the given id.
func (c *Cluster) dropFromCache(id string) {
	for key := range c.pairCache {
		if strings.HasPrefix(key, id+"|") || strings.HasSuffix(key, "|"+id) {
			delete(c.pairCache, key)
		}
	}
}

// pairKey gives a symmetric cache key for two ids.
func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

// closerThan reports whether distance a (to prototype pa) should be
// preferred over distance b (to prototype pb) when picking the nearest
// prototype. Ties go to the older arrival, then the smaller id, so the
// pick is deterministic.
func closerThan(a float64, pa *Prototype, b float64, pb *Prototype) bool {
	if a != b {
		return a < b
	}
	if pa.Seq.Tick() != pb.Seq.Tick() {
		return pa.Seq.Tick() < pb.Seq.Tick()
	}
	return pa.Seq.ID() < pb.Seq.ID()
}
