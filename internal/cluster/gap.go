package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

var ErrOptimalKNotFound = errors.New("cluster: no k satisfied the gap statistic rule")

// gapResult holds one candidate k's gap statistic inputs: the real
// dataset's log within-cluster dispersion and the mean/stddev of the same
// quantity over B uniform reference datasets.
type gapResult struct {
	k          int
	logWk      float64
	meanLogRef float64
	sk         float64
}

// optimalK implements spec.md §4.8's gap-statistic selection: for each
// k in [1, maxK], compute W_k on the real data and W*_k on B uniform
// reference datasets over the feature bounding box; the selected k is the
// smallest one where Gap(k) >= Gap(k+1) - s_{k+1}. Returns
// ErrOptimalKNotFound(maxK) if no k in range satisfies the rule.
func optimalK(points [][]float64, maxK, referenceSets int, rng *rand.Rand, algorithm Algorithm) (int, error) {
	bounds := boundingBox(points)

	results := make([]gapResult, maxK)

	for k := 1; k <= maxK; k++ {
		_, logWk := runAlgorithm(points, k, rng, algorithm)

		refLogW := make([]float64, referenceSets)

		for b := 0; b < referenceSets; b++ {
			reference := uniformReference(points, bounds, rng)
			_, refW := runAlgorithm(reference, k, rng, algorithm)
			refLogW[b] = refW
		}

		mean := stat.Mean(refLogW, nil)
		sd := stat.StdDev(refLogW, nil)
		sk := sd * math.Sqrt(1+1/float64(referenceSets))

		results[k-1] = gapResult{k: k, logWk: logWk, meanLogRef: mean, sk: sk}
	}

	gap := func(r gapResult) float64 { return r.meanLogRef - r.logWk }

	for i := 0; i < len(results)-1; i++ {
		if gap(results[i]) >= gap(results[i+1])-results[i+1].sk {
			return results[i].k, nil
		}
	}

	// The last candidate k has no k+1 to compare against; it's accepted
	// only if it's also the single candidate requested.
	if len(results) == 1 {
		return results[0].k, nil
	}

	return 0, fmt.Errorf("%w: max_k=%d", ErrOptimalKNotFound, maxK)
}

// runAlgorithm runs one clustering pass at k and returns its assignments
// plus log(W_k), the quantity the gap statistic compares across real and
// reference datasets.
func runAlgorithm(points [][]float64, k int, rng *rand.Rand, algorithm Algorithm) (assignments []int, logWk float64) {
	if k >= len(points) {
		k = len(points)
	}

	switch algorithm {
	case AlgorithmGMM:
		assigned, components := gmm(points, k, rng)
		centroids := make([][]float64, len(components))

		for i, c := range components {
			centroids[i] = c.mean
		}

		w := dispersion(points, assigned, centroids)

		return assigned, math.Log(w + tinyEpsilon)
	default:
		assigned, centroids := kmeans(points, k, rng)
		w := dispersion(points, assigned, centroids)

		return assigned, math.Log(w + tinyEpsilon)
	}
}

// tinyEpsilon keeps log(0) finite for a k equal to the point count, where
// dispersion collapses to zero.
const tinyEpsilon = 1e-12

// box is the per-dimension [min, max] range of a feature matrix.
type box struct{ min, max []float64 }

func boundingBox(points [][]float64) box {
	width := len(points[0])
	min := make([]float64, width)
	max := make([]float64, width)
	copy(min, points[0])
	copy(max, points[0])

	for _, p := range points[1:] {
		for d := 0; d < width; d++ {
			if p[d] < min[d] {
				min[d] = p[d]
			}

			if p[d] > max[d] {
				max[d] = p[d]
			}
		}
	}

	return box{min: min, max: max}
}

// uniformReference generates a reference dataset of the same size as
// points, drawn uniformly over the real data's bounding box -- the gap
// statistic's null-reference distribution.
func uniformReference(points [][]float64, bounds box, rng *rand.Rand) [][]float64 {
	width := len(bounds.min)
	out := make([][]float64, len(points))

	for i := range out {
		p := make([]float64, width)

		for d := 0; d < width; d++ {
			span := bounds.max[d] - bounds.min[d]
			p[d] = bounds.min[d] + rng.Float64()*span
		}

		out[i] = p
	}

	return out
}
