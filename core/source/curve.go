/*
File contains the 1d curve classes: plain sine waves at class-specific
frequencies. Mostly useful in tests and quick sanity runs, where 2d pen
trajectories are overkill.

*/

package source

import (
	"fmt"
	"math"
	"math/rand"
)

// CurveClassesArgs are arguments for CurveClasses.
type CurveClassesArgs struct {
	// Freqs gives one class per frequency. Must not be empty.
	Freqs []float64
	// Steps is the curve length. <= 0 means 32.
	Steps int
	// Noise is the stddev of per-sample gaussian jitter. < 0 means 0.05.
	Noise float64
}

// CurveClasses gives one sine-curve class per frequency, named f<freq>.
// Returns (nil, false) for empty args.Freqs.
func CurveClasses(args CurveClassesArgs) ([]Class, bool) {
	if len(args.Freqs) == 0 {
		return nil, false
	}
	steps := args.Steps
	if steps <= 0 {
		steps = 32
	}
	noise := args.Noise
	if noise < 0 {
		noise = 0.05
	}

	res := make([]Class, 0, len(args.Freqs))
	for _, freq := range args.Freqs {
		res = append(res, Class{
			Name: fmt.Sprintf("f%v", freq),
			Gen:  curveGen(freq, steps, noise),
		})
	}
	return res, true
}

func curveGen(freq float64, steps int, noise float64) func(rng *rand.Rand) [][]float64 {
	return func(rng *rand.Rand) [][]float64 {
		samples := make([][]float64, steps)
		for t := 0; t < steps; t++ {
			u := 2 * math.Pi * freq * float64(t) / float64(steps)
			samples[t] = []float64{math.Sin(u) + rng.NormFloat64()*noise}
		}
		return samples
	}
}
