package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultAlpha is the VaR/ES tail probability.
const DefaultAlpha = 0.05

// Tail holds the Value-at-Risk and Expected Shortfall of a P&L sample.
type Tail struct {
	Alpha float64
	VaR   float64
	ES    float64
	Count int // paths averaged into ES
}

// VaRES returns the alpha quantile of paths (index max(0, floor(alpha*n)-1)
// of the sorted sample) and the mean of every path at or below it. ES is
// never above VaR.
func VaRES(paths []float64, alpha float64) Tail {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	n := len(paths)
	if n == 0 {
		return Tail{Alpha: alpha}
	}

	sorted := append([]float64(nil), paths...)
	sort.Float64s(sorted)

	idx := int(alpha*float64(n)) - 1
	if idx < 0 {
		idx = 0
	}
	v := sorted[idx]

	end := idx + 1
	for end < n && sorted[end] == v {
		end++
	}
	tail := sorted[:end]
	return Tail{Alpha: alpha, VaR: v, ES: stat.Mean(tail, nil), Count: len(tail)}
}

// MeanStd returns the mean and population standard deviation.
func MeanStd(paths []float64) (mean, std float64) {
	if len(paths) == 0 {
		return 0, 0
	}
	mean, std = stat.PopMeanStdDev(paths, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}
