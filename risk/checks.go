package risk

import (
	"fmt"

	"github.com/rustyeddy/sliprisk/odds"
)

// Violation codes for slips that cannot be priced.
const (
	CodeNoSlipID      = "NO_SLIP_ID"
	CodeUnknownLeg    = "UNKNOWN_LEG"
	CodeTooFewLegs    = "TOO_FEW_LEGS"
	CodeBadLeg        = "BAD_LEG"
	CodeNegativeStake = "NEGATIVE_STAKE"
	CodeDuplicateSlip = "DUPLICATE_SLIP"
	CodeDuplicateLeg  = "DUPLICATE_LEG"
)

type Violation struct {
	Code string `json:"code" yaml:"code"`
	Msg  string `json:"msg" yaml:"msg"`
}

func (v Violation) String() string {
	return v.Code + ": " + v.Msg
}

// Slip is a parlay: every leg must win for it to pay. Stake is only set
// when replaying a previously sized slip.
type Slip struct {
	ID    string   `json:"slip_id" yaml:"slip_id"`
	Legs  []string `json:"legs" yaml:"legs"`
	Stake float64  `json:"stake,omitempty" yaml:"stake,omitempty"`
}

// CheckSlip resolves a slip's legs, dropping repeated ids. The slip is
// unusable when any violation is returned.
func CheckSlip(s Slip, legs map[string]odds.Leg) ([]odds.Leg, []Violation) {
	var vs []Violation
	add := func(code, format string, args ...any) {
		vs = append(vs, Violation{Code: code, Msg: fmt.Sprintf(format, args...)})
	}

	if s.ID == "" {
		add(CodeNoSlipID, "slip id is empty")
	}
	if s.Stake < 0 {
		add(CodeNegativeStake, "stake %.2f is negative", s.Stake)
	}

	seen := make(map[string]bool, len(s.Legs))
	out := make([]odds.Leg, 0, len(s.Legs))
	for _, id := range s.Legs {
		if seen[id] {
			continue
		}
		seen[id] = true

		leg, ok := legs[id]
		if !ok {
			add(CodeUnknownLeg, "leg %q has no record", id)
			continue
		}
		if err := leg.Valid(); err != nil {
			add(CodeBadLeg, "%v", err)
			continue
		}
		out = append(out, leg)
	}

	if len(seen) < 2 {
		add(CodeTooFewLegs, "%d distinct legs, need at least 2", len(seen))
	}
	return out, vs
}

// CheckUnique flags a slip whose id is already in seen, or that uses a
// leg id listed more than once in the run's leg records. The slip's id is
// added to seen.
func CheckUnique(s Slip, seen, dupLegs map[string]bool) []Violation {
	var vs []Violation
	if s.ID != "" {
		if seen[s.ID] {
			vs = append(vs, Violation{Code: CodeDuplicateSlip, Msg: fmt.Sprintf("slip id %q already used in this run", s.ID)})
		}
		seen[s.ID] = true
	}
	reported := make(map[string]bool)
	for _, id := range s.Legs {
		if dupLegs[id] && !reported[id] {
			reported[id] = true
			vs = append(vs, Violation{Code: CodeDuplicateLeg, Msg: fmt.Sprintf("leg %q has more than one record", id)})
		}
	}
	return vs
}
