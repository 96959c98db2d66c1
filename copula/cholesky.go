package copula

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// pivotFloor replaces non-positive pivots of matrices that are not quite
// positive definite after clamping.
const pivotFloor = 1e-12

// Cholesky returns lower-triangular L with L*Lᵀ ≈ r. It never fails: a
// pivot at or below 1e-12 is floored to 1e-12.
func Cholesky(r mat.Symmetric) *mat.TriDense {
	n := r.SymmetricDim()
	l := mat.NewTriDense(n, mat.Lower, nil)

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			s := r.At(i, j)
			for k := 0; k < j; k++ {
				s -= l.At(i, k) * l.At(j, k)
			}
			if i == j {
				if s <= pivotFloor {
					s = pivotFloor
				}
				l.SetTri(i, i, math.Sqrt(s))
				continue
			}
			l.SetTri(i, j, s/l.At(j, j))
		}
	}
	return l
}

// packLower flattens the lower triangle row by row for the sampling loop.
func packLower(l *mat.TriDense) []float64 {
	n, _ := l.Dims()
	out := make([]float64, 0, n*(n+1)/2)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			out = append(out, l.At(i, j))
		}
	}
	return out
}
