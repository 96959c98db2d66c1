package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/sliprisk/odds"
	"github.com/rustyeddy/sliprisk/risk"
	"github.com/rustyeddy/sliprisk/sim"
)

// StressReport is a portfolio stress result plus the slips left out of it.
type StressReport struct {
	RunID    string      `json:"run_id" yaml:"run_id"`
	Risk     *sim.Result `json:"risk" yaml:"risk"`
	Drops    []Drop      `json:"drops,omitempty" yaml:"drops,omitempty"`
	Accepted int         `json:"accepted" yaml:"accepted"`
	Dropped  int         `json:"dropped" yaml:"dropped"`
}

// Stress simulates the P&L of slips at their given stakes against the
// configured bankroll. It fails with ErrNoSlips when no slip survives
// validation.
func (e *Engine) Stress(ctx context.Context, legs []odds.Leg, slips []risk.Slip) (*StressReport, error) {
	defer e.observe(OpStress, time.Now())

	index, err := e.indexLegs(legs)
	if err != nil {
		return nil, err
	}
	if len(slips) == 0 {
		return nil, ErrNoSlips
	}

	positions, drops := e.resolve(slips, index)
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: all %d slips dropped", ErrNoSlips, len(drops))
	}

	ctx, cancel := e.budget(ctx)
	defer cancel()

	res, err := e.cfg.Simulator().Run(ctx, positions, e.lookup, e.cfg.Bankroll.Amount)
	if err != nil {
		return nil, err
	}
	e.metrics.AddSamples(res.Samples)
	e.metrics.SetThrottle(res.Throttle)

	run := newRun(OpStress)
	run.Seed, run.Samples = e.cfg.Stress.Seed, res.Samples
	run.Accepted, run.Dropped, run.TotalStake = len(positions), len(drops), res.TotalStake
	run.Risk = &res.RiskSummary
	e.record(run, nil, drops)

	rep := &StressReport{RunID: run.RunID, Risk: res, Drops: drops, Accepted: len(positions), Dropped: len(drops)}
	e.log.Info("stress run",
		zap.String("run_id", rep.RunID),
		zap.Int("accepted", rep.Accepted),
		zap.Int("dropped", rep.Dropped),
		zap.Int("legs", res.Legs),
		zap.Float64("mean_pnl", res.MeanPnL),
		zap.Float64("var", res.VaR),
		zap.Float64("es", res.ES),
		zap.Float64("throttle_factor", res.Throttle))
	if res.Throttle < e.cfg.Stress.Throttle.Max {
		e.log.Warn("VaR beyond limit, spray stakes throttled",
			zap.Float64("breach_ratio", res.Breach),
			zap.Float64("throttle_factor", res.Throttle))
	}
	return rep, nil
}

// Plan sizes slips and then stresses the accepted ones at their new
// stakes.
func (e *Engine) Plan(ctx context.Context, legs []odds.Leg, slips []risk.Slip, opts StakeOptions) (*StakeReport, *StressReport, error) {
	staked, err := e.StakeSlips(ctx, legs, slips, opts)
	if err != nil {
		return nil, nil, err
	}
	stressed, err := e.Stress(ctx, legs, staked.Slips(slips))
	if err != nil {
		return staked, nil, err
	}
	stressed.Drops = append(append([]Drop(nil), staked.Drops...), stressed.Drops...)
	stressed.Dropped = len(stressed.Drops)
	return staked, stressed, nil
}
