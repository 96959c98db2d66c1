package copula

import "math"

const (
	// MinProb and MaxProb bound every probability used as a threshold.
	MinProb = 0.01
	MaxProb = 0.99

	// tailBound replaces the infinite quantiles of 0 and 1.
	tailBound = 10.0
)

// Acklam's rational approximation coefficients.
var (
	acklamA = [6]float64{
		-39.69683028665376, 220.9460984245205, -275.9285104469687,
		138.3577518672690, -30.66479806614716, 2.506628277459239,
	}
	acklamB = [5]float64{
		-54.47609879822406, 161.5858368580409, -155.6989798598866,
		66.80131188771972, -13.28068155288572,
	}
	acklamC = [6]float64{
		-0.007784894002430293, -0.3223964580411365, -2.400758277161838,
		-2.549732539343734, 4.374664141464968, 2.938163982698783,
	}
	acklamD = [4]float64{
		0.007784695709041462, 0.3224671290700398, 2.445134137142996, 3.754408661907416,
	}
)

const (
	pLow  = 0.02425
	pHigh = 1 - pLow
)

// ClampProb bounds p to [MinProb, MaxProb].
func ClampProb(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0.5
	case p < MinProb:
		return MinProb
	case p > MaxProb:
		return MaxProb
	}
	return p
}

// NormInv is the standard normal quantile function. Relative error is
// around 1e-9. p <= 0 and p >= 1 return -10 and +10.
func NormInv(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0
	case p <= 0:
		return -tailBound
	case p >= 1:
		return tailBound
	case p < pLow:
		return lowerTail(math.Sqrt(-2 * math.Log(p)))
	case p > pHigh:
		return -lowerTail(math.Sqrt(-2 * math.Log(1-p)))
	}

	q := p - 0.5
	r := q * q
	a, b := acklamA, acklamB
	num := (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q
	den := ((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1
	return num / den
}

func lowerTail(q float64) float64 {
	c, d := acklamC, acklamD
	num := ((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]
	den := (((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1
	return num / den
}
