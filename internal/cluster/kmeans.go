package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// kmeans runs Lloyd's algorithm to convergence (or maxIterations,
// whichever comes first) and returns each point's cluster assignment.
// points are square-Euclidean-distance-compared against k centroids
// seeded by k-means++ for a stable, well-spread initial placement.
func kmeans(points [][]float64, k int, rng *rand.Rand) (assignments []int, centroids [][]float64) {
	const maxIterations = 100

	centroids = seedPlusPlus(points, k, rng)
	assignments = make([]int, len(points))

	for iter := 0; iter < maxIterations; iter++ {
		changed := false

		for i, p := range points {
			nearest := nearestCentroid(p, centroids)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed = true
			}
		}

		centroids = recomputeCentroids(points, assignments, k, centroids)

		if !changed && iter > 0 {
			break
		}
	}

	return assignments, centroids
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)

	for i, c := range centroids {
		d := sqDistance(p, c)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}

	return best
}

func recomputeCentroids(points [][]float64, assignments []int, k int, prev [][]float64) [][]float64 {
	width := len(points[0])
	sums := make([][]float64, k)
	counts := make([]int, k)

	for i := range sums {
		sums[i] = make([]float64, width)
	}

	for i, p := range points {
		cluster := assignments[i]
		counts[cluster]++
		floats.Add(sums[cluster], p)
	}

	next := make([][]float64, k)

	for i := range next {
		if counts[i] == 0 {
			// An emptied cluster keeps its previous centroid rather than
			// collapsing to the origin.
			next[i] = prev[i]

			continue
		}

		mean := make([]float64, width)
		copy(mean, sums[i])
		floats.Scale(1/float64(counts[i]), mean)
		next[i] = mean
	}

	return next
}

// seedPlusPlus picks k initial centroids with the k-means++ distribution:
// the first uniformly at random, each subsequent one with probability
// proportional to its squared distance from the nearest already-chosen
// centroid. This avoids the pathological all-in-one-cluster starts that
// pure-random seeding can produce.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.Intn(len(points))]))

	for len(centroids) < k {
		weights := make([]float64, len(points))

		var total float64

		for i, p := range points {
			d := sqDistance(p, centroids[nearestCentroid(p, centroids)])
			weights[i] = d
			total += d
		}

		if total == 0 {
			centroids = append(centroids, clone(points[rng.Intn(len(points))]))

			continue
		}

		target := rng.Float64() * total

		var cum float64

		chosen := len(points) - 1

		for i, w := range weights {
			cum += w
			if cum >= target {
				chosen = i

				break
			}
		}

		centroids = append(centroids, clone(points[chosen]))
	}

	return centroids
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)

	return out
}

func sqDistance(a, b []float64) float64 {
	var sum float64

	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return sum
}

// dispersion computes the gap statistic's within-cluster dispersion W_k:
// the pooled sum, over clusters, of (1/(2*n_r)) times the sum of pairwise
// squared distances within cluster r -- equivalently the sum of squared
// distances to the cluster centroid (Tibshirani, Walther & Hastie 2001).
func dispersion(points [][]float64, assignments []int, centroids [][]float64) float64 {
	var w float64

	for i, p := range points {
		w += sqDistance(p, centroids[assignments[i]])
	}

	return w
}
