/*
File contains the prototype type and the bounded prototype pool. A pool holds
at most 'capacity' prototypes; when a new one is admitted into a full pool,
the least valuable prototype is evicted. Value is a linear combination of
representativeness and accumulated vote weight, see Prototype.Value.

*/

package cluster

import (
	"seqclu/pkg/cluster/common"
	"seqclu/pkg/rankutils"
)

// Prototype is a sequence elected to stand in for (part of) a cluster.
type Prototype struct {
	Seq common.Sequence
	// Rep is the running mean of closeness scores of votes received.
	// Starts at 0 for a freshly inserted prototype.
	Rep float64
	// Weight counts votes. A fresh prototype has weight 1 (it voted
	// for itself by being inserted).
	Weight float64
}

// Value gives the ranking value of a prototype: ratio*Rep + Weight. A
// higher ratio favours prototypes that receive strong votes over ones
// that merely receive many.
func (p *Prototype) Value(ratio float64) float64 {
	return ratio*p.Rep + p.Weight
}

// Pool is a bounded, value-ordered set of prototypes. The zero value is
// not usable, use NewPool.
type Pool struct {
	capacity int
	ratio    float64
	items    []Prototype
}

// NewPoolArgs are arguments for NewPool. Capacity must be > 0 and ratio
// must be >= 0 for the args to be valid.
type NewPoolArgs struct {
	// Capacity is the max amount of prototypes held at any time.
	Capacity int
	// Ratio is the representativeness multiplier used in Prototype.Value.
	Ratio float64
}

// Bool checks validity of args: capacity > 0, ratio >= 0.
func (args *NewPoolArgs) Bool() bool {
	return args.Capacity > 0 && args.Ratio >= 0
}

// NewPool sets up a Pool with the given args. Returns (nil, false) if the
// args are invalid, as specified in the NewPoolArgs docs.
func NewPool(args NewPoolArgs) (*Pool, bool) {
	if !args.Bool() {
		return nil, false
	}
	return &Pool{capacity: args.Capacity, ratio: args.Ratio}, true
}

// Len gives the current amount of prototypes in the pool.
func (p *Pool) Len() int { return len(p.items) }

// Capacity gives the max amount of prototypes the pool will hold.
func (p *Pool) Capacity() int { return p.capacity }

// At gives a pointer to the prototype at index i, so callers can update
// rep/weight in place. Index order is insertion order, not rank order.
func (p *Pool) At(i int) *Prototype { return &p.items[i] }

// Find gives a pointer to the prototype whose sequence has the given id,
// or (nil, false) if the pool holds no such prototype.
func (p *Pool) Find(id string) (*Prototype, bool) {
	for i := range p.items {
		if p.items[i].Seq.ID() == id {
			return &p.items[i], true
		}
	}
	return nil, false
}

// Ranked gives all prototypes ordered best-first by value (then rep, then
// arrival tick, then id -- always the same order for the same pool state).
func (p *Pool) Ranked() []*Prototype {
	items := make([]rankutils.Item, len(p.items))
	for i := range p.items {
		items[i] = rankutils.Item{
			ID:    p.items[i].Seq.ID(),
			Value: p.items[i].Value(p.ratio),
			Rep:   p.items[i].Rep,
			Tick:  p.items[i].Seq.Tick(),
		}
	}

	res := make([]*Prototype, 0, len(p.items))
	for _, index := range rankutils.RankDesc(items) {
		res = append(res, &p.items[index])
	}
	return res
}

// Representative gives the n best-ranked prototypes (fewer if the pool
// holds fewer). These are the ones used for approximated distances.
func (p *Pool) Representative(n int) []*Prototype {
	ranked := p.Ranked()
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Add inserts a new prototype for the given sequence. If the pool is at
// capacity, the least valuable prototype is evicted and returned with
// ok=true (ties evict the oldest arrival, then the lexically smallest id).
func (p *Pool) Add(seq common.Sequence) (evicted Prototype, ok bool) {
	fresh := Prototype{Seq: seq, Rep: 0, Weight: 1}
	if len(p.items) < p.capacity {
		p.items = append(p.items, fresh)
		return Prototype{}, false
	}

	victim := 0
	for i := 1; i < len(p.items); i++ {
		if evictBefore(&p.items[i], &p.items[victim], p.ratio) {
			victim = i
		}
	}

	evicted = p.items[victim]
	p.items[victim] = fresh
	return evicted, true
}

// evictBefore reports whether a should be evicted before b: lower value
// first, then older arrival, then smaller id.
func evictBefore(a, b *Prototype, ratio float64) bool {
	av, bv := a.Value(ratio), b.Value(ratio)
	if av != bv {
		return av < bv
	}
	if a.Seq.Tick() != b.Seq.Tick() {
		return a.Seq.Tick() < b.Seq.Tick()
	}
	return a.Seq.ID() < b.Seq.ID()
}
