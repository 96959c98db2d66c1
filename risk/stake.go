package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/sliprisk/odds"
)

// Cap names reported in StakeResult.CappedBy.
const (
	CapBankroll     = "bankroll_cap"
	CapUnit         = "unit_cap"
	CapTierUnit     = "tier_unit_cap"
	CapTierBankroll = "tier_bankroll_cap"
	CapTemplateMax  = "template_max"
)

// StakeResult keeps every number used to size a slip so the stake can be
// audited later.
type StakeResult struct {
	SlipID    string  `json:"slip_id" yaml:"slip_id"`
	Stake     float64 `json:"stake" yaml:"stake"`
	JointProb float64 `json:"joint_probability" yaml:"joint_probability"`
	FullKelly float64 `json:"full_kelly_fraction" yaml:"full_kelly_fraction"`
	KellyUsed float64 `json:"kelly_fraction_used" yaml:"kelly_fraction_used"`
	Decimal   float64 `json:"combined_decimal_payout" yaml:"combined_decimal_payout"`
	Edge      float64 `json:"edge" yaml:"edge"`
	CappedBy  string  `json:"capped_by,omitempty" yaml:"capped_by,omitempty"`
	Tier      string  `json:"tier,omitempty" yaml:"tier,omitempty"`
}

// Size stakes a slip whose legs combine into one payout.
func Size(p Policy, slipID string, legs []odds.Leg, joint float64) StakeResult {
	return SizeDecimal(p, slipID, odds.Combined(legs), joint)
}

// SizeDecimal converts a joint probability and combined decimal payout
// into a stake: fractional Kelly against bankroll, clamped down by every
// active ceiling, floored at 0 and rounded down to cents.
func SizeDecimal(p Policy, slipID string, dec, joint float64) StakeResult {
	res := StakeResult{
		SlipID:    slipID,
		JointProb: joint,
		Decimal:   dec,
		Edge:      Edge(joint, dec),
		FullKelly: FullKelly(joint, dec),
	}
	res.KellyUsed = res.FullKelly * math.Max(p.KellyFraction, 0)
	if res.KellyUsed == 0 || p.Bankroll <= 0 {
		return res
	}

	stake := res.KellyUsed * p.Bankroll
	for _, c := range p.ceilings() {
		if c.amount < stake {
			stake = c.amount
			res.CappedBy = c.name
		}
	}
	res.Tier, _, _ = p.TierCaps()

	if t := p.Template; t != nil && p.Unit > 0 {
		if floor := t.MinUnit * p.Unit; stake < floor {
			stake = floor
			if c, ok := p.lowest(); ok && c.amount <= floor {
				stake = c.amount
				res.CappedBy = c.name
			}
		}
	}

	res.Stake = roundDown(math.Max(stake, 0))
	return res
}

// roundDown truncates to cents.
func roundDown(v float64) float64 {
	return decimal.NewFromFloat(v).RoundFloor(2).InexactFloat64()
}

type ceiling struct {
	name   string
	amount float64
}

func (p Policy) ceilings() []ceiling {
	var out []ceiling
	if p.BankrollCap > 0 {
		out = append(out, ceiling{CapBankroll, p.BankrollCap * p.Bankroll})
	}
	if p.UnitCap > 0 && p.Unit > 0 {
		out = append(out, ceiling{CapUnit, p.UnitCap * p.Unit})
	}
	if _, tc, ok := p.TierCaps(); ok {
		if tc.UnitCap > 0 && p.Unit > 0 {
			out = append(out, ceiling{CapTierUnit, tc.UnitCap * p.Unit})
		}
		if tc.BankrollCap > 0 {
			out = append(out, ceiling{CapTierBankroll, tc.BankrollCap * p.Bankroll})
		}
	}
	if t := p.Template; t != nil && t.MaxUnit > 0 && p.Unit > 0 {
		out = append(out, ceiling{CapTemplateMax, t.MaxUnit * p.Unit})
	}
	return out
}

// lowest is the binding ceiling, if any cap is active.
func (p Policy) lowest() (ceiling, bool) {
	cs := p.ceilings()
	if len(cs) == 0 {
		return ceiling{}, false
	}
	low := cs[0]
	for _, c := range cs[1:] {
		if c.amount < low.amount {
			low = c
		}
	}
	return low, true
}

// Ceiling is the largest stake the policy allows on any slip, or +Inf
// when no cap is active.
func (p Policy) Ceiling() float64 {
	if c, ok := p.lowest(); ok {
		return c.amount
	}
	return math.Inf(1)
}
