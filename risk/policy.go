package risk

// DefaultTier is used when a policy names no tier or an unknown one.
const DefaultTier = "medium"

// FallbackTier applies when even DefaultTier is missing from Tiers.
var FallbackTier = TierCaps{UnitCap: 0.75, BankrollCap: 0.015}

// TierCaps are the per-slip ceilings of one risk tier: UnitCap in base
// units, BankrollCap as a fraction of bankroll.
type TierCaps struct {
	UnitCap     float64 `json:"unit_cap" yaml:"unit_cap"`
	BankrollCap float64 `json:"br_cap" yaml:"br_cap"`
}

// DefaultTiers returns a fresh copy of the stock tier table.
func DefaultTiers() map[string]TierCaps {
	return map[string]TierCaps{
		"low":    {UnitCap: 1.0, BankrollCap: 0.02},
		"medium": {UnitCap: 0.75, BankrollCap: 0.015},
		"high":   {UnitCap: 0.5, BankrollCap: 0.01},
	}
}

// Template bounds a stake in base units. MinUnit lifts a positive stake
// but never past the policy ceilings; MaxUnit only lowers.
type Template struct {
	Name    string  `json:"name,omitempty" yaml:"name,omitempty"`
	MinUnit float64 `json:"min_unit" yaml:"min_unit"`
	MaxUnit float64 `json:"max_unit" yaml:"max_unit"`
}

// Policy carries everything needed to size one slip.
type Policy struct {
	Bankroll      float64 // e.g. 10000
	Unit          float64 // base unit, e.g. 100
	KellyFraction float64 // 0.5 = half Kelly

	// Per-slip ceilings. Zero disables a cap.
	BankrollCap float64 // 0.05 of bankroll
	UnitCap     float64 // 1.2 units

	// Risk tier caps. With no Tier and no Tiers there are no tier caps.
	Tier  string
	Tiers map[string]TierCaps

	Template *Template
}

// TierCaps resolves the active tier, falling back to DefaultTier and then
// FallbackTier.
func (p Policy) TierCaps() (name string, caps TierCaps, ok bool) {
	if p.Tier == "" && len(p.Tiers) == 0 {
		return "", TierCaps{}, false
	}
	if c, found := p.Tiers[p.Tier]; found && p.Tier != "" {
		return p.Tier, c, true
	}
	if c, found := p.Tiers[DefaultTier]; found {
		return DefaultTier, c, true
	}
	return DefaultTier, FallbackTier, true
}
