package sim

import "math"

// ThrottlePolicy turns a VaR breach into an advisory multiplier for
// exploratory ("spray") stakes. Limit is the tolerated |VaR|/bankroll.
type ThrottlePolicy struct {
	Limit float64 `json:"limit" yaml:"limit"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
}

func DefaultThrottle() ThrottlePolicy {
	return ThrottlePolicy{Limit: 0.05, Min: 0.25, Max: 1.0}
}

// Factor returns the throttle multiplier and the breach ratio
// |min(VaR,0)|/bankroll. Within Limit the factor is Max; beyond it the
// factor falls linearly and reaches Min at twice the limit.
func (t ThrottlePolicy) Factor(valueAtRisk, bankroll float64) (factor, breach float64) {
	hi, lo := t.Max, t.Min
	if hi <= 0 {
		hi = 1
	}
	if lo > hi {
		lo = hi
	}
	if bankroll <= 0 {
		return hi, 0
	}

	breach = math.Abs(math.Min(valueAtRisk, 0)) / bankroll
	if t.Limit <= 0 || breach <= t.Limit {
		return hi, breach
	}

	ratio := math.Min(breach/t.Limit, 2)
	factor = hi - (hi-lo)*(ratio-1)
	return math.Max(lo, math.Min(hi, factor)), breach
}
