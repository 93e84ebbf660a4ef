/*
This pkg wraps dynamic-time-warping into the DistanceMeasure capability used
by the rest of the system (pkg/cluster/common). Sequences are warped per
feature dimension and the per-dimension distances are summed, so 1d series
get plain DTW while multivariate series (e.g pen strokes) are handled
without any extra config.

*/
package seqdist

import (
	"errors"
	"fmt"
	"math"

	"seqclu/pkg/cluster/common"

	"github.com/lvlath/go/dtw"
)

// Iface hint:
var _ common.DistanceMeasure = new(DTW)

var ErrDimMismatch = errors.New("sequences have different feature dimensions")
var ErrEmptySequence = errors.New("cannot compute distance for an empty sequence")
var ErrNonFinite = errors.New("distance computation returned a non-finite value")

// DTW computes dynamic-time-warping dissimilarity between two sequences.
// The zero value is not usable, use NewDTW.
type DTW struct {
	// Window is the Sakoe-Chiba band radius. <= 0 means unconstrained
	// (the full warping matrix is always allowed).
	Window int
	// SlopePenalty penalizes insertions/deletions in the alignment.
	SlopePenalty float64

	calls int
}

// NewDTWArgs contain arguments for NewDTW. The zero value is valid and
// gives an unconstrained, penalty-free measure.
type NewDTWArgs struct {
	Window       int
	SlopePenalty float64
}

// NewDTW sets up a DTW distance measure.
func NewDTW(args NewDTWArgs) *DTW {
	return &DTW{Window: args.Window, SlopePenalty: args.SlopePenalty}
}

// Distance computes the summed per-dimension DTW distance between two
// sequences. Returns an err for empty sequences, mismatched feature
// dimensions, or a non-finite result.
func (d *DTW) Distance(a, b common.Sequence) (float64, error) {
	d.calls++

	if a.Len() == 0 || b.Len() == 0 {
		return 0, ErrEmptySequence
	}
	if a.Dims() != b.Dims() {
		return 0, ErrDimMismatch
	}

	window := d.Window
	if window <= 0 {
		// Wide enough to never constrain the alignment.
		window = a.Len() + b.Len()
	}

	var res float64
	for dim := 0; dim < a.Dims(); dim++ {
		opts := dtw.Options{
			Window:       window,
			SlopePenalty: d.SlopePenalty,
			ReturnPath:   false,
			MemoryMode:   dtw.FullMatrix,
		}
		dist, _, err := dtw.DTW(column(a.Samples(), dim), column(b.Samples(), dim), &opts)
		if err != nil {
			return 0, fmt.Errorf("dtw on dim %d: %w", dim, err)
		}
		res += dist
	}

	if math.IsNaN(res) || math.IsInf(res, 0) {
		return 0, ErrNonFinite
	}
	return res, nil
}

// Calls gives the amount of raw distance computations made so far.
func (d *DTW) Calls() int { return d.calls }

// Reset sets the call counter back to zero.
func (d *DTW) Reset() { d.calls = 0 }

// column extracts one feature dimension of a sample series as a flat vector.
func column(samples [][]float64, dim int) []float64 {
	res := make([]float64, len(samples))
	for i, sample := range samples {
		res[i] = sample[dim]
	}
	return res
}
