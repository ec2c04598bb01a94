package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// gmmComponent is one Gaussian in the mixture: a mean vector, a diagonal
// covariance matrix (stored as a full mat.Dense so the determinant/inverse
// arithmetic below reads as ordinary linear algebra rather than a
// hand-rolled vector special case), and a mixture weight.
type gmmComponent struct {
	mean   []float64
	cov    *mat.Dense
	weight float64
}

// gmm runs expectation-maximization to convergence (or maxIterations) and
// returns each point's most-likely component assignment. The covariance
// is constrained diagonal: off-diagonal terms are not estimated, trading
// some expressiveness for numerical stability at personal-library sample
// sizes, where a full covariance matrix per cluster is frequently
// singular.
func gmm(points [][]float64, k int, rng *rand.Rand) (assignments []int, components []gmmComponent) {
	const (
		maxIterations = 50
		minVariance   = 1e-6
	)

	width := len(points[0])
	n := len(points)

	components = initComponents(points, k, width, rng)
	responsibilities := make([][]float64, n)

	for i := range responsibilities {
		responsibilities[i] = make([]float64, k)
	}

	for iter := 0; iter < maxIterations; iter++ {
		// E-step: responsibility of component j for point i.
		for i, p := range points {
			var total float64

			for j, c := range components {
				responsibilities[i][j] = c.weight * gaussianDensity(p, c.mean, c.cov)
				total += responsibilities[i][j]
			}

			if total > 0 {
				for j := range components {
					responsibilities[i][j] /= total
				}
			} else {
				for j := range components {
					responsibilities[i][j] = 1 / float64(k)
				}
			}
		}

		// M-step: refit each component's weight, mean and diagonal
		// variance from the responsibilities.
		for j := range components {
			var weightSum float64

			mean := make([]float64, width)

			for i, p := range points {
				r := responsibilities[i][j]
				weightSum += r

				for d := 0; d < width; d++ {
					mean[d] += r * p[d]
				}
			}

			if weightSum == 0 {
				continue
			}

			for d := range mean {
				mean[d] /= weightSum
			}

			variance := make([]float64, width)

			for i, p := range points {
				r := responsibilities[i][j]

				for d := 0; d < width; d++ {
					diff := p[d] - mean[d]
					variance[d] += r * diff * diff
				}
			}

			diag := mat.NewDiagDense(width, nil)

			for d := range variance {
				v := variance[d] / weightSum
				if v < minVariance {
					v = minVariance
				}

				diag.SetDiag(d, v)
			}

			components[j].mean = mean
			components[j].cov = mat.DenseCopyOf(diag)
			components[j].weight = weightSum / float64(n)
		}
	}

	assignments = make([]int, n)

	for i := range points {
		best := 0

		for j := 1; j < k; j++ {
			if responsibilities[i][j] > responsibilities[i][best] {
				best = j
			}
		}

		assignments[i] = best
	}

	return assignments, components
}

func initComponents(points [][]float64, k, width int, rng *rand.Rand) []gmmComponent {
	centroids := seedPlusPlus(points, k, rng)
	components := make([]gmmComponent, k)

	for j, mean := range centroids {
		diag := mat.NewDiagDense(width, nil)
		for d := 0; d < width; d++ {
			diag.SetDiag(d, 1.0)
		}

		components[j] = gmmComponent{mean: mean, cov: mat.DenseCopyOf(diag), weight: 1 / float64(k)}
	}

	return components
}

// gaussianDensity evaluates a diagonal-covariance multivariate normal
// density at x. Because cov is diagonal, the determinant and the
// quadratic form both reduce to per-dimension products/sums, but they are
// still read off cov via gonum/mat so a future move to a full covariance
// model only touches this function.
func gaussianDensity(x, mean []float64, cov *mat.Dense) float64 {
	width := len(x)

	var (
		logDet    float64
		quadratic float64
	)

	for d := 0; d < width; d++ {
		v := cov.At(d, d)
		logDet += math.Log(v)

		diff := x[d] - mean[d]
		quadratic += diff * diff / v
	}

	logNorm := -0.5 * (float64(width)*math.Log(2*math.Pi) + logDet)

	return math.Exp(logNorm - 0.5*quadratic)
}
