/*
This pkg generates the sequence streams experiments run on. A Stream is a
pre-baked, tick-ordered schedule of sequences drawn from a set of named
classes. Construction is deterministic given the rng: one seed sequence per
class goes first (in class order), then the remainder is shuffled. That way
every class is represented early, which matters for stream clustering
where the first arrivals shape the clusters.

*/

package source

import (
	"math/rand"

	"seqclu/pkg/cluster/common"
)

// Class is a named generator of sequences. Gen is called once per sequence
// and must only draw randomness from the given rng.
type Class struct {
	Name string
	Gen  func(rng *rand.Rand) [][]float64
}

// Stream is a tick-ordered schedule of labeled sequences. The zero value
// is not usable, use NewStream.
type Stream struct {
	ticks   [][]common.Sequence
	labels  map[string]string
	classes []string
	total   int
}

// NewStreamArgs are arguments for NewStream.
type NewStreamArgs struct {
	// Classes the stream draws from. Must not be empty.
	Classes []Class
	// PerClass is how many sequences each class contributes. Must be > 0.
	PerClass int
	// PerTick is how many sequences arrive per tick. <= 0 means 1.
	PerTick int
	// RNG drives generation and shuffling. Must not be nil.
	RNG *rand.Rand
}

// Bool checks validity of args: at least one class, PerClass > 0, an rng.
func (args *NewStreamArgs) Bool() bool {
	return len(args.Classes) > 0 && args.PerClass > 0 && args.RNG != nil
}

// NewStream bakes a stream with the given args. Returns (nil, false) if
// the args are invalid, as specified in the NewStreamArgs docs.
func NewStream(args NewStreamArgs) (*Stream, bool) {
	if !args.Bool() {
		return nil, false
	}
	perTick := args.PerTick
	if perTick <= 0 {
		perTick = 1
	}

	type labeled struct {
		samples [][]float64
		class   string
	}

	// One seed per class first, then everything else shuffled.
	seeds := make([]labeled, 0, len(args.Classes))
	rest := make([]labeled, 0, len(args.Classes)*(args.PerClass-1))
	for _, class := range args.Classes {
		seeds = append(seeds, labeled{class.Gen(args.RNG), class.Name})
		for i := 1; i < args.PerClass; i++ {
			rest = append(rest, labeled{class.Gen(args.RNG), class.Name})
		}
	}
	args.RNG.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	ordered := append(seeds, rest...)

	res := Stream{
		labels:  make(map[string]string, len(ordered)),
		classes: make([]string, 0, len(args.Classes)),
		total:   len(ordered),
	}
	for _, class := range args.Classes {
		res.classes = append(res.classes, class.Name)
	}
	for i, item := range ordered {
		tick := i / perTick
		seq := common.NewSequence(common.NewSequenceConfig{
			Samples: item.samples,
			Tick:    tick,
		})
		if tick >= len(res.ticks) {
			res.ticks = append(res.ticks, nil)
		}
		res.ticks[tick] = append(res.ticks[tick], seq)
		res.labels[seq.ID()] = item.class
	}
	return &res, true
}

// NextTick gives the arrivals for a tick, plus whether later ticks hold
// more data.
func (s *Stream) NextTick(tick int) ([]common.Sequence, bool) {
	if tick >= len(s.ticks) {
		return nil, false
	}
	return s.ticks[tick], tick < len(s.ticks)-1
}

// Labels gives the ground truth: sequence id to class name.
func (s *Stream) Labels() map[string]string { return s.labels }

// Classes gives the class names, in construction order.
func (s *Stream) Classes() []string { return s.classes }

// Len gives the total amount of sequences in the stream.
func (s *Stream) Len() int { return s.total }

// Ticks gives the amount of ticks the stream spans.
func (s *Stream) Ticks() int { return len(s.ticks) }
