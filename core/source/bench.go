/*
File contains the two benchmark-style stream families, pebble and plaid.
Pebble classes are smooth localized bumps (position/width vary per class),
plaid classes are square-wave patterns (period/duty vary per class). The
two families stress different things: pebble rewards alignment, plaid
rewards shape.

*/

package source

import (
	"fmt"
	"math"
	"math/rand"
)

// BenchClassesArgs are arguments for PebbleClasses and PlaidClasses.
type BenchClassesArgs struct {
	// NumClasses is how many distinct classes to generate. <= 0 means 3.
	NumClasses int
	// Steps is the sequence length. <= 0 means 64.
	Steps int
	// Noise is the stddev of per-sample gaussian jitter. < 0 means 0.05.
	Noise float64
}

func (args *BenchClassesArgs) defaults() (numClasses, steps int, noise float64) {
	numClasses = args.NumClasses
	if numClasses <= 0 {
		numClasses = 3
	}
	steps = args.Steps
	if steps <= 0 {
		steps = 64
	}
	noise = args.Noise
	if noise < 0 {
		noise = 0.05
	}
	return
}

// PebbleClasses gives classes of smooth localized bumps, named pebble<i>.
func PebbleClasses(args BenchClassesArgs) []Class {
	numClasses, steps, noise := args.defaults()

	res := make([]Class, 0, numClasses)
	for i := 0; i < numClasses; i++ {
		center := float64(steps) * (float64(i) + 0.5) / float64(numClasses)
		width := float64(steps) / float64(4*(i+1))
		res = append(res, Class{
			Name: fmt.Sprintf("pebble%d", i),
			Gen:  pebbleGen(center, width, steps, noise),
		})
	}
	return res
}

// PlaidClasses gives classes of square-wave patterns, named plaid<i>.
func PlaidClasses(args BenchClassesArgs) []Class {
	numClasses, steps, noise := args.defaults()

	res := make([]Class, 0, numClasses)
	for i := 0; i < numClasses; i++ {
		period := 4 * (i + 1)
		duty := 0.25 + 0.5*float64(i)/float64(numClasses)
		res = append(res, Class{
			Name: fmt.Sprintf("plaid%d", i),
			Gen:  plaidGen(period, duty, steps, noise),
		})
	}
	return res
}

func pebbleGen(center, width float64, steps int, noise float64) func(rng *rand.Rand) [][]float64 {
	return func(rng *rand.Rand) [][]float64 {
		samples := make([][]float64, steps)
		for t := 0; t < steps; t++ {
			d := (float64(t) - center) / width
			samples[t] = []float64{math.Exp(-d*d) + rng.NormFloat64()*noise}
		}
		return samples
	}
}

func plaidGen(period int, duty float64, steps int, noise float64) func(rng *rand.Rand) [][]float64 {
	return func(rng *rand.Rand) [][]float64 {
		samples := make([][]float64, steps)
		for t := 0; t < steps; t++ {
			v := 0.0
			if float64(t%period) < duty*float64(period) {
				v = 1
			}
			samples[t] = []float64{v + rng.NormFloat64()*noise}
		}
		return samples
	}
}
