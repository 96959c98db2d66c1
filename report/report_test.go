package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/sliprisk/copula"
	"github.com/rustyeddy/sliprisk/engine"
	"github.com/rustyeddy/sliprisk/journal"
	"github.com/rustyeddy/sliprisk/risk"
	"github.com/rustyeddy/sliprisk/sim"
)

func TestPrintJoint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintJoint(&buf, 3, copula.JointResult{Prob: 0.1234, Samples: 12000})
	assert.Contains(t, buf.String(), "Probability:   0.1234")
	assert.Contains(t, buf.String(), "Samples:       12000")

	buf.Reset()
	PrintJoint(&buf, 1, copula.JointResult{Prob: 0.5})
	assert.Contains(t, buf.String(), "single leg")
}

func TestPrintStakes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintStakes(&buf, &engine.StakeReport{
		RunID:      "01HRUN",
		Accepted:   1,
		Dropped:    1,
		TotalStake: 75,
		Results: []risk.StakeResult{
			{SlipID: "S1", Stake: 75, JointProb: 0.36, Decimal: 4, Edge: 0.44, KellyUsed: 0.0733, CappedBy: risk.CapTierUnit, Tier: "medium"},
		},
		Drops: []engine.Drop{
			{SlipID: "S2", Reason: risk.CodeUnknownLeg, Violations: []risk.Violation{{Code: risk.CodeUnknownLeg, Msg: `leg "X" has no record`}}},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Run ID:        01HRUN")
	assert.Contains(t, out, "Accepted:      1")
	assert.Contains(t, out, "Dropped:       1")
	assert.Contains(t, out, "tier_unit_cap")
	assert.Contains(t, out, "+44.00%")
	assert.Contains(t, out, `- S2: UNKNOWN_LEG (leg "X" has no record)`)
}

func TestPrintStress(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintStress(&buf, &engine.StressReport{
		RunID:    "01HSTRESS",
		Accepted: 2,
		Risk: &sim.Result{
			RiskSummary: sim.RiskSummary{Samples: 20000, Slips: 2, Legs: 3, Alpha: 0.05, VaR: -125, ES: -125, Throttle: 1},
			PerSlip: map[string]sim.Tally{
				"S2": {Wins: 5000, Losses: 15000},
				"S1": {Wins: 8000, Losses: 12000},
			},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "VaR (5%):     -125.00")
	assert.Contains(t, out, "Throttle:      1.00")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("S1")), bytes.Index(buf.Bytes(), []byte("S2")))
	assert.Contains(t, out, "40.00%")
	assert.NotContains(t, out, "Dropped Slips")
}

func TestPrintRun(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	PrintRun(&buf,
		journal.RunRecord{RunID: "R1", Op: "stake", CreatedAt: at, Seed: 7, Accepted: 1, Dropped: 1, TotalStake: 75},
		[]journal.StakeRecord{{RunID: "R1", StakeResult: risk.StakeResult{SlipID: "S1", Stake: 75, JointProb: 0.36}}},
		[]journal.DropRecord{{RunID: "R1", SlipID: "S2", Reason: risk.CodeTooFewLegs}},
	)
	out := buf.String()
	assert.Contains(t, out, "Run R1")
	assert.Contains(t, out, "2024-01-02T03:04:05Z")
	assert.Contains(t, out, "- S1: 75.00 (p=0.3600, -)")
	assert.Contains(t, out, "- S2: TOO_FEW_LEGS")

	buf.Reset()
	PrintRuns(&buf, []journal.RunRecord{{RunID: "R1", Op: "joint", CreatedAt: at}})
	assert.Contains(t, buf.String(), "RUN ID")
	assert.Contains(t, buf.String(), "joint")
}
