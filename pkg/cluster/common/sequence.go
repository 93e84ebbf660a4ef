/*
File contains the sequence type that is common to this project.
*/
package common

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Iface hint:
var _ SequenceContainer = new(Sequence)

// Sequence is an ingested, immutable series of feature samples over time.
// Identity is content-derived (xxhash over the samples), so the same data
// always hashes to the same id regardless of where it came from.
type Sequence struct {
	id      string
	samples [][]float64
	tick    int
}

// NewSequenceConfig is solely for the NewSequence func. This is used to
// create a new Sequence which needs its fields unexported such that it
// stays immutable after ingestion.
type NewSequenceConfig struct {
	Samples [][]float64
	Tick    int
}

// NewSequence uses NewSequenceConfig to create a new Sequence.
func NewSequence(cfg NewSequenceConfig) Sequence {
	return Sequence{
		id:      HashSamples(cfg.Samples),
		samples: cfg.Samples,
		tick:    cfg.Tick,
	}
}

// ID gives the content hash of a sequence (hex).
func (s *Sequence) ID() string { return s.id }

// Samples gives the internal samples of a sequence.
func (s *Sequence) Samples() [][]float64 { return s.samples }

// Tick gives the tick at which the sequence arrived.
func (s *Sequence) Tick() int { return s.tick }

// Len gives the number of time steps.
func (s *Sequence) Len() int { return len(s.samples) }

// Dims gives the number of feature dimensions per time step
// (0 for an empty sequence).
func (s *Sequence) Dims() int {
	if len(s.samples) == 0 {
		return 0
	}
	return len(s.samples[0])
}

// HashSamples hashes raw samples the same way NewSequence derives identity.
// Exposed so callers can check whether data was seen before constructing
// a full Sequence.
func HashSamples(samples [][]float64) string {
	d := xxhash.New()
	var buf [8]byte
	for _, sample := range samples {
		for _, v := range sample {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			// Hash.Write never fails.
			d.Write(buf[:])
		}
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
