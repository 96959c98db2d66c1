// Package engine is the entry point of the risk engine. It validates
// inputs, skips unusable slips with a recorded reason and runs the joint
// probability, staking and stress operations under one configuration.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/sliprisk/config"
	"github.com/rustyeddy/sliprisk/copula"
	"github.com/rustyeddy/sliprisk/corr"
	"github.com/rustyeddy/sliprisk/internal/metrics"
	"github.com/rustyeddy/sliprisk/journal"
	"github.com/rustyeddy/sliprisk/odds"
	"github.com/rustyeddy/sliprisk/risk"
	"github.com/rustyeddy/sliprisk/sim"
)

var (
	ErrNoLegs  = corr.ErrNoLegs
	ErrNoSlips = errors.New("engine: no slips")

	ErrDuplicateLeg = errors.New("engine: duplicate leg")
)

// LegError reports a leg that cannot be priced.
type LegError struct {
	Err error
}

func (e *LegError) Error() string { return e.Err.Error() }
func (e *LegError) Unwrap() error { return e.Err }

// Operation names used in logs, metrics and the journal.
const (
	OpJoint  = "joint"
	OpStake  = "stake"
	OpStress = "stress"
)

type Engine struct {
	cfg     *config.Config
	lookup  corr.Lookup
	log     *zap.Logger
	metrics *metrics.Metrics
	journal journal.Journal
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLookup sets the correlation source. Without one every pair is
// independent.
func WithLookup(l corr.Lookup) Option {
	return func(e *Engine) { e.lookup = l }
}

// New validates cfg and builds an engine. A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	e := &Engine{cfg: cfg, log: zap.NewNop(), journal: journal.Nop{}}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Using returns a copy of the engine that reads correlations from l.
func (e *Engine) Using(l corr.Lookup) *Engine {
	c := *e
	c.lookup = l
	return &c
}

// Drop records a slip that was skipped and why.
type Drop struct {
	SlipID     string           `json:"slip_id" yaml:"slip_id"`
	Reason     string           `json:"reason" yaml:"reason"`
	Violations []risk.Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// budget applies the configured time budget to ctx.
func (e *Engine) budget(ctx context.Context) (context.Context, context.CancelFunc) {
	d, err := e.cfg.MonteCarlo.ParseBudget()
	if err != nil || d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (e *Engine) observe(op string, start time.Time) {
	e.metrics.ObserveRun(op, time.Since(start))
}

// JointProbability estimates the probability that every leg wins. Legs
// repeated by id are counted once; a repeated id with different odds or
// probability is a LegError.
func (e *Engine) JointProbability(ctx context.Context, legs []odds.Leg) (copula.JointResult, error) {
	defer e.observe(OpJoint, time.Now())

	if len(legs) == 0 {
		return copula.JointResult{}, ErrNoLegs
	}
	uniq := make([]odds.Leg, 0, len(legs))
	seen := make(map[string]odds.Leg, len(legs))
	for _, leg := range legs {
		if err := leg.Valid(); err != nil {
			return copula.JointResult{}, &LegError{Err: err}
		}
		if prev, ok := seen[leg.ID]; ok {
			if prev.Prob != leg.Prob || prev.Decimal != leg.Decimal {
				return copula.JointResult{}, &LegError{Err: fmt.Errorf("%w: leg %q has conflicting records", ErrDuplicateLeg, leg.ID)}
			}
			continue
		}
		seen[leg.ID] = leg
		uniq = append(uniq, leg)
	}

	ctx, cancel := e.budget(ctx)
	defer cancel()

	res, err := copula.Estimate(ctx, e.cfg.JointSampler(), uniq, e.lookup)
	if err != nil {
		return copula.JointResult{}, err
	}
	e.metrics.AddSamples(res.Samples)

	run := newRun(OpJoint)
	run.Seed, run.Samples, run.Accepted = e.cfg.MonteCarlo.Seed, res.Samples, 1
	e.record(run, nil, nil)

	e.log.Info("joint probability",
		zap.String("run_id", run.RunID),
		zap.Int("legs", len(uniq)),
		zap.Float64("joint_probability", res.Prob),
		zap.Int("sample_count", res.Samples))
	return res, nil
}

// resolve checks every slip against the leg index. Unusable slips become
// drops; the rest are returned with their resolved legs. A slip id may be
// used once per run: later slips reusing it are dropped.
func (e *Engine) resolve(slips []risk.Slip, idx legIndex) ([]sim.Position, []Drop) {
	var ok []sim.Position
	var drops []Drop
	seen := make(map[string]bool, len(slips))
	for _, s := range slips {
		vs := risk.CheckUnique(s, seen, idx.dups)
		legs, bad := risk.CheckSlip(s, idx.legs)
		vs = append(vs, bad...)
		if len(vs) > 0 {
			d := Drop{SlipID: s.ID, Reason: vs[0].Code, Violations: vs}
			drops = append(drops, d)
			e.metrics.Drop(d.Reason)
			e.log.Warn("slip dropped",
				zap.String("slip_id", s.ID),
				zap.String("reason", d.Reason),
				zap.String("detail", vs[0].Msg))
			continue
		}
		ok = append(ok, sim.NewPosition(s, legs))
	}
	return ok, drops
}

// legIndex is the run's leg records by id, plus the ids that have more
// than one record.
type legIndex struct {
	legs map[string]odds.Leg
	dups map[string]bool
}

func (e *Engine) indexLegs(legs []odds.Leg) (legIndex, error) {
	if len(legs) == 0 {
		return legIndex{}, ErrNoLegs
	}
	idx := legIndex{legs: odds.Index(legs), dups: map[string]bool{}}
	for _, id := range odds.Duplicates(legs) {
		idx.dups[id] = true
		e.log.Warn("leg listed more than once", zap.String("leg_id", id))
	}
	return idx, nil
}
