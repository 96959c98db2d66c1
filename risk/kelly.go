package risk

// Edge is the expected profit per unit staked: b*p - (1-p).
func Edge(p, decimal float64) float64 {
	b := decimal - 1
	return b*p - (1 - p)
}

// FullKelly returns f* = (b*p - (1-p)) / b for decimal odds. Anything
// without a positive edge, including b <= 0, is a no-bet and returns 0.
func FullKelly(p, decimal float64) float64 {
	b := decimal - 1
	if b <= 0 || p != p {
		return 0
	}
	edge := Edge(p, decimal)
	if edge <= 0 {
		return 0
	}
	return edge / b
}
