/*
File contains the offline baseline: k-medoids through PAM (partitioning
around medoids) with best-improvement swaps. Unlike the online variant it
sees the whole dataset at once, so it is the quality ceiling the streaming
approaches get compared to. Distances are computed once into a full
pairwise matrix up front.

*/

package baseline

import (
	"errors"
	"log"

	"seqclu/pkg/cluster/common"
)

var ErrTooFewSequences = errors.New("fewer sequences than requested clusters")

// OfflineConfig configures a PAM run.
type OfflineConfig struct {
	// Sequences is the full dataset, in stream order. The first
	// NumClusters of them seed the initial medoids, so runs are
	// deterministic.
	Sequences []common.Sequence
	// NumClusters is k. Must be > 0 and <= len(Sequences).
	NumClusters int
	// MaxIter caps swap iterations. 0 skips the swap phase entirely
	// (initial medoids only), which is logged since it is rarely what
	// an experiment wants.
	MaxIter int
	// Distance computes sequence dissimilarity. Must not be nil.
	Distance common.DistanceMeasure
}

// OfflineResult is what a PAM run gives back.
type OfflineResult struct {
	// Labels maps sequence id to medoid (cluster) id.
	Labels map[string]string
	// Medoids holds the final medoid sequence ids.
	Medoids []string
	// Iterations is how many swap iterations ran.
	Iterations int
	// Converged is whether the run stopped because no swap improved
	// anything (as opposed to hitting MaxIter).
	Converged bool
}

// RunOffline clusters the whole dataset with PAM.
func RunOffline(cfg OfflineConfig) (OfflineResult, error) {
	if cfg.Distance == nil {
		panic("offline baseline cfg without a distance measure")
	}
	if cfg.NumClusters <= 0 || cfg.NumClusters > len(cfg.Sequences) {
		return OfflineResult{}, ErrTooFewSequences
	}

	n := len(cfg.Sequences)
	matrix, err := pairwiseMatrix(cfg.Sequences, cfg.Distance)
	if err != nil {
		return OfflineResult{}, err
	}

	medoids := make([]int, cfg.NumClusters)
	for i := range medoids {
		medoids[i] = i
	}

	res := OfflineResult{}
	if cfg.MaxIter == 0 {
		log.Printf("offline baseline: max iterations is 0, keeping initial medoids")
	}

	for iter := 0; iter < cfg.MaxIter; iter++ {
		res.Iterations = iter + 1

		// Best-improvement: evaluate every (medoid, candidate) swap and
		// apply the single best one, if it helps.
		current := totalCost(matrix, medoids)
		bestCost := current
		bestMedoid, bestCandidate := -1, -1
		for mi := range medoids {
			for candidate := 0; candidate < n; candidate++ {
				if isMedoid(medoids, candidate) {
					continue
				}
				old := medoids[mi]
				medoids[mi] = candidate
				if cost := totalCost(matrix, medoids); cost < bestCost {
					bestCost, bestMedoid, bestCandidate = cost, mi, candidate
				}
				medoids[mi] = old
			}
		}

		if bestMedoid < 0 {
			res.Converged = true
			break
		}
		medoids[bestMedoid] = bestCandidate
	}

	res.Labels = make(map[string]string, n)
	res.Medoids = make([]string, len(medoids))
	for i, m := range medoids {
		res.Medoids[i] = cfg.Sequences[m].ID()
	}
	for i := range cfg.Sequences {
		m := nearestMedoid(matrix, medoids, i)
		res.Labels[cfg.Sequences[i].ID()] = cfg.Sequences[medoids[m]].ID()
	}
	return res, nil
}

// pairwiseMatrix computes the symmetric distance matrix once.
func pairwiseMatrix(seqs []common.Sequence, dm common.DistanceMeasure) ([][]float64, error) {
	n := len(seqs)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := dm.Distance(seqs[i], seqs[j])
			if err != nil {
				return nil, err
			}
			matrix[i][j], matrix[j][i] = d, d
		}
	}
	return matrix, nil
}

// totalCost sums, over all sequences, the distance to the nearest medoid.
func totalCost(matrix [][]float64, medoids []int) float64 {
	var sum float64
	for i := range matrix {
		sum += matrix[i][medoids[nearestMedoid(matrix, medoids, i)]]
	}
	return sum
}

// nearestMedoid gives the index (into medoids) of the medoid nearest to
// sequence i. Ties keep the earliest medoid.
func nearestMedoid(matrix [][]float64, medoids []int, i int) int {
	best := 0
	for m := 1; m < len(medoids); m++ {
		if matrix[i][medoids[m]] < matrix[i][medoids[best]] {
			best = m
		}
	}
	return best
}

func isMedoid(medoids []int, i int) bool {
	for _, m := range medoids {
		if m == i {
			return true
		}
	}
	return false
}
