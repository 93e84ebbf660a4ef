/*
File contains the handwritten-character surrogate: 2d pen trajectories. Each
letter in the alphabet maps to a fixed parametric stroke (frequencies and
phases derived from the letter index), so different letters are shaped
differently while samples of the same letter only differ by noise.

*/

package source

import (
	"math"
	"math/rand"
)

// CharAlphabet is the fixed set of letters character streams draw from.
const CharAlphabet = "abcdeghlmnopqrsuvwyz"

// CharClassesArgs are arguments for CharClasses.
type CharClassesArgs struct {
	// Letters picks which letters to generate classes for. Each must be
	// in CharAlphabet. Empty means the whole alphabet.
	Letters string
	// Steps is the trajectory length. <= 0 means 32.
	Steps int
	// Noise is the stddev of per-sample gaussian jitter. < 0 means 0.05.
	Noise float64
}

// CharClasses gives one class per requested letter. Returns (nil, false)
// if any letter is outside CharAlphabet.
func CharClasses(args CharClassesArgs) ([]Class, bool) {
	letters := args.Letters
	if letters == "" {
		letters = CharAlphabet
	}
	steps := args.Steps
	if steps <= 0 {
		steps = 32
	}
	noise := args.Noise
	if noise < 0 {
		noise = 0.05
	}

	res := make([]Class, 0, len(letters))
	for _, letter := range letters {
		index := charIndex(letter)
		if index < 0 {
			return nil, false
		}
		res = append(res, Class{
			Name: string(letter),
			Gen:  charGen(index, steps, noise),
		})
	}
	return res, true
}

// charIndex gives the position of a letter in CharAlphabet, or -1.
func charIndex(letter rune) int {
	for i, l := range CharAlphabet {
		if l == letter {
			return i
		}
	}
	return -1
}

// charGen makes the stroke generator for one letter. The stroke is a
// lissajous-style 2d curve; frequency and phase come from the letter
// index so no two letters trace the same path.
func charGen(index, steps int, noise float64) func(rng *rand.Rand) [][]float64 {
	fx := 1 + float64(index%4)
	fy := 1 + float64((index/4)%4)
	phase := float64(index) * math.Pi / float64(len(CharAlphabet))

	return func(rng *rand.Rand) [][]float64 {
		samples := make([][]float64, steps)
		for t := 0; t < steps; t++ {
			u := 2 * math.Pi * float64(t) / float64(steps)
			samples[t] = []float64{
				math.Cos(fx*u+phase) + rng.NormFloat64()*noise,
				math.Sin(fy*u) + rng.NormFloat64()*noise,
			}
		}
		return samples
	}
}
