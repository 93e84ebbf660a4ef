/*
This pkg scores clustering output against ground truth. Cluster ids and
class names live in different vocabularies, so every metric first maps each
predicted cluster to the class it mostly contains (majority mapping, ties
resolved by lexically smallest class for determinism) and then scores the
result as a classification.

*/

package evalutils

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var ErrNoOverlap = errors.New("actual and predicted labels share no ids")

// Average selects how per-class F1 scores are combined.
type Average int

const (
	// Micro pools true/false positives over all classes before scoring.
	// Frequent classes dominate.
	Micro Average = iota
	// Macro scores each class separately and takes the unweighted mean.
	// Rare classes count as much as frequent ones.
	Macro
)

// F1Score computes the F1 of a clustering against ground truth. Both maps
// key by sequence id; actual holds class names, predicted holds cluster
// ids. Only ids present in both are scored.
func F1Score(actual, predicted map[string]string, avg Average) (float64, error) {
	ids := sharedIDs(actual, predicted)
	if len(ids) == 0 {
		return 0, ErrNoOverlap
	}

	mapping := majorityMapping(actual, predicted, ids)

	// Per-class confusion counts, keyed by class name.
	type counts struct{ tp, fp, fn float64 }
	perClass := map[string]*counts{}
	classFor := func(name string) *counts {
		c, ok := perClass[name]
		if !ok {
			c = &counts{}
			perClass[name] = c
		}
		return c
	}
	for _, id := range ids {
		want := actual[id]
		got := mapping[predicted[id]]
		if want == got {
			classFor(want).tp++
			continue
		}
		classFor(got).fp++
		classFor(want).fn++
	}

	if avg == Micro {
		var tp, fp, fn float64
		for _, c := range perClass {
			tp += c.tp
			fp += c.fp
			fn += c.fn
		}
		return f1(tp, fp, fn), nil
	}

	// Deterministic iteration for macro, map order is not.
	names := make([]string, 0, len(perClass))
	for name := range perClass {
		names = append(names, name)
	}
	sort.Strings(names)

	scores := make([]float64, 0, len(names))
	for _, name := range names {
		c := perClass[name]
		scores = append(scores, f1(c.tp, c.fp, c.fn))
	}
	return stat.Mean(scores, nil), nil
}

// PrototypeOverlap scores how well discovered prototype sets match the
// expected ones: for each expected set, the best Jaccard overlap with any
// discovered set, averaged. 1 means every expected set was found exactly.
func PrototypeOverlap(expected, got [][]string) float64 {
	if len(expected) == 0 {
		return 0
	}

	best := make([]float64, 0, len(expected))
	for _, want := range expected {
		var max float64
		for _, have := range got {
			if j := jaccard(want, have); j > max {
				max = j
			}
		}
		best = append(best, max)
	}
	return stat.Mean(best, nil)
}

func f1(tp, fp, fn float64) float64 {
	if tp == 0 {
		return 0
	}
	precision := tp / (tp + fp)
	recall := tp / (tp + fn)
	return 2 * precision * recall / (precision + recall)
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	var inter int
	for _, s := range b {
		if set[s] {
			inter++
		}
	}
	union := len(set) + len(b) - inter
	return float64(inter) / float64(union)
}

func sharedIDs(actual, predicted map[string]string) []string {
	ids := make([]string, 0, len(actual))
	for id := range actual {
		if _, ok := predicted[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// majorityMapping maps each cluster id to the class it mostly contains.
// Ties go to the lexically smallest class name.
func majorityMapping(actual, predicted map[string]string, ids []string) map[string]string {
	tally := map[string]map[string]int{}
	for _, id := range ids {
		clusterID := predicted[id]
		if tally[clusterID] == nil {
			tally[clusterID] = map[string]int{}
		}
		tally[clusterID][actual[id]]++
	}

	res := make(map[string]string, len(tally))
	for clusterID, classes := range tally {
		bestClass, bestCount := "", -1
		for class, count := range classes {
			if count > bestCount || (count == bestCount && class < bestClass) {
				bestClass, bestCount = class, count
			}
		}
		res[clusterID] = bestClass
	}
	return res
}
