package sim

import (
	"github.com/rustyeddy/sliprisk/odds"
	"github.com/rustyeddy/sliprisk/risk"
)

// Position is a validated slip ready to be replayed: its resolved legs and
// combined payout.
type Position struct {
	Slip    risk.Slip
	Legs    []odds.Leg
	Decimal float64
}

// NewPosition prices a slip from its resolved legs.
func NewPosition(s risk.Slip, legs []odds.Leg) Position {
	return Position{Slip: s, Legs: legs, Decimal: odds.Combined(legs)}
}

// SlipPL is the profit of a settled slip: stake*(D-1) when every leg won,
// otherwise the stake is lost.
func SlipPL(stake, decimal float64, won bool) float64 {
	if !won {
		return -stake
	}
	return stake * (decimal - 1)
}

// Tally counts simulated wins and losses of one slip.
type Tally struct {
	Wins   int `json:"wins" yaml:"wins"`
	Losses int `json:"losses" yaml:"losses"`
}

func (t Tally) WinRate() float64 {
	n := t.Wins + t.Losses
	if n == 0 {
		return 0
	}
	return float64(t.Wins) / float64(n)
}
