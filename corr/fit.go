package corr

import (
	"math"
	"sort"
)

// HitRecord is one settled observation of a leg: whether the leg hit on a
// given date.
type HitRecord struct {
	Date string `json:"date" yaml:"date"`
	Leg  string `json:"leg_key" yaml:"leg_key"`
	Hit  bool   `json:"hit" yaml:"hit"`
}

// FitStat describes one fitted pair.
type FitStat struct {
	N   int     `json:"n" yaml:"n"`
	Rho float64 `json:"rho" yaml:"rho"`
}

// Fit estimates pairwise phi coefficients from hit histories aligned on
// shared dates. Pairs with fewer than minOverlap shared dates are skipped.
// Coefficients are clamped like every other stored correlation.
func Fit(records []HitRecord, minOverlap int) (*Table, map[string]FitStat) {
	if minOverlap < 2 {
		minOverlap = 2
	}

	byLeg := make(map[string]map[string]bool)
	for _, r := range records {
		if r.Leg == "" {
			continue
		}
		m, ok := byLeg[r.Leg]
		if !ok {
			m = make(map[string]bool)
			byLeg[r.Leg] = m
		}
		m[r.Date] = r.Hit
	}

	legs := make([]string, 0, len(byLeg))
	for k := range byLeg {
		legs = append(legs, k)
	}
	sort.Strings(legs)

	t := NewTable()
	stats := make(map[string]FitStat)
	for i := 0; i < len(legs); i++ {
		for j := i + 1; j < len(legs); j++ {
			a, b := byLeg[legs[i]], byLeg[legs[j]]
			var xs, ys []bool
			for d, hit := range a {
				if other, ok := b[d]; ok {
					xs = append(xs, hit)
					ys = append(ys, other)
				}
			}
			if len(xs) < minOverlap {
				continue
			}
			rho := Clamp(Phi(xs, ys))
			t.Set(legs[i], legs[j], rho)
			stats[PairKey(legs[i], legs[j])] = FitStat{N: len(xs), Rho: rho}
		}
	}
	return t, stats
}

// Phi is the correlation of two equal-length binary series. A constant
// series has no defined correlation and yields 0.
func Phi(xs, ys []bool) float64 {
	var n11, n10, n01, n00 float64
	for i := range xs {
		switch {
		case xs[i] && ys[i]:
			n11++
		case xs[i]:
			n10++
		case ys[i]:
			n01++
		default:
			n00++
		}
	}
	x1, x0 := n11+n10, n01+n00
	y1, y0 := n11+n01, n10+n00
	denom := math.Sqrt(x1 * x0 * y1 * y0)
	if denom == 0 {
		return 0
	}
	return (n11*n00 - n10*n01) / denom
}
