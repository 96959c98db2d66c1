package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/sliprisk/copula"
	"github.com/rustyeddy/sliprisk/odds"
	"github.com/rustyeddy/sliprisk/risk"
)

// StakeOptions override the configured tier and template for one run.
type StakeOptions struct {
	Tier     string `json:"tier,omitempty" yaml:"tier,omitempty"`
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
}

// StakeReport lists the sized slips and the ones that were skipped.
type StakeReport struct {
	RunID      string             `json:"run_id" yaml:"run_id"`
	Results    []risk.StakeResult `json:"stakes" yaml:"stakes"`
	Drops      []Drop             `json:"drops,omitempty" yaml:"drops,omitempty"`
	Accepted   int                `json:"accepted" yaml:"accepted"`
	Dropped    int                `json:"dropped" yaml:"dropped"`
	TotalStake float64            `json:"total_stake" yaml:"total_stake"`
}

// Slips returns the accepted slips carrying their sized stakes, ready to
// be stressed. Only the first slip with a given id is taken, matching the
// one that was sized.
func (r *StakeReport) Slips(in []risk.Slip) []risk.Slip {
	stakes := make(map[string]float64, len(r.Results))
	for _, res := range r.Results {
		stakes[res.SlipID] = res.Stake
	}
	out := make([]risk.Slip, 0, len(r.Results))
	for _, s := range in {
		stake, ok := stakes[s.ID]
		if !ok {
			continue
		}
		delete(stakes, s.ID)
		s.Stake = stake
		out = append(out, s)
	}
	return out
}

// StakeSlips estimates each slip's joint probability and sizes it with
// the configured policy. Every slip is sampled with the same seed, so a
// slip's stake does not depend on the other slips in the batch.
func (e *Engine) StakeSlips(ctx context.Context, legs []odds.Leg, slips []risk.Slip, opts StakeOptions) (*StakeReport, error) {
	defer e.observe(OpStake, time.Now())

	index, err := e.indexLegs(legs)
	if err != nil {
		return nil, err
	}
	if len(slips) == 0 {
		return nil, ErrNoSlips
	}

	ctx, cancel := e.budget(ctx)
	defer cancel()

	positions, drops := e.resolve(slips, index)
	policy := e.cfg.Policy(opts.Tier, opts.Template)
	sampler := e.cfg.JointSampler()

	run := newRun(OpStake)
	rep := &StakeReport{RunID: run.RunID, Drops: drops, Dropped: len(drops)}
	samples := 0
	for _, p := range positions {
		joint, err := copula.Estimate(ctx, sampler, p.Legs, e.lookup)
		if err != nil {
			return nil, err
		}
		e.metrics.AddSamples(joint.Samples)
		samples += joint.Samples

		res := risk.SizeDecimal(policy, p.Slip.ID, p.Decimal, joint.Prob)
		rep.Results = append(rep.Results, res)
		rep.TotalStake += res.Stake
		e.log.Debug("slip sized",
			zap.String("slip_id", res.SlipID),
			zap.Float64("joint_probability", res.JointProb),
			zap.Float64("stake", res.Stake),
			zap.String("capped_by", res.CappedBy))
	}
	rep.Accepted = len(rep.Results)

	run.Seed, run.Samples = sampler.Seed, samples
	run.Accepted, run.Dropped, run.TotalStake = rep.Accepted, rep.Dropped, rep.TotalStake
	e.record(run, rep.Results, rep.Drops)

	e.log.Info("stake run",
		zap.String("run_id", rep.RunID),
		zap.Int("accepted", rep.Accepted),
		zap.Int("dropped", rep.Dropped),
		zap.Float64("total_stake", rep.TotalStake))
	return rep, nil
}
