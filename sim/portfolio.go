package sim

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/sliprisk/copula"
	"github.com/rustyeddy/sliprisk/corr"
)

var ErrNoPositions = errors.New("sim: no positions")

const (
	DefaultSamples    = 20000
	DefaultPathSample = 50
)

// Simulator replays sized slips against one shared correlated sample set.
type Simulator struct {
	Sampler    copula.Sampler
	Alpha      float64
	Throttle   ThrottlePolicy
	PathSample int // raw path P&L values kept for inspection
}

// RiskSummary is the headline of a stress run.
type RiskSummary struct {
	Samples    int     `json:"sample_count" yaml:"sample_count"`
	Slips      int     `json:"slips" yaml:"slips"`
	Legs       int     `json:"legs" yaml:"legs"`
	TotalStake float64 `json:"total_stake" yaml:"total_stake"`
	MeanPnL    float64 `json:"mean_pnl" yaml:"mean_pnl"`
	StdPnL     float64 `json:"std_pnl" yaml:"std_pnl"`
	Alpha      float64 `json:"alpha" yaml:"alpha"`
	VaR        float64 `json:"var" yaml:"var"`
	ES         float64 `json:"es" yaml:"es"`
	Breach     float64 `json:"breach_ratio" yaml:"breach_ratio"`
	Throttle   float64 `json:"throttle_factor" yaml:"throttle_factor"`
}

// Result adds per-slip tallies and a sample of raw paths to the summary.
type Result struct {
	RiskSummary
	PerSlip    map[string]Tally `json:"per_slip" yaml:"per_slip"`
	PathSample []float64        `json:"path_sample,omitempty" yaml:"path_sample,omitempty"`

	// Paths is the full P&L distribution, one value per simulated path.
	Paths []float64 `json:"-" yaml:"-"`
}

// Run simulates total portfolio P&L. Legs shared between positions come
// from the same sampled column, so a leg that loses sinks every slip that
// holds it on that path.
func (s Simulator) Run(ctx context.Context, positions []Position, l corr.Lookup, bankroll float64) (*Result, error) {
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}

	legIDs, marginals := unionLegs(positions)
	m, err := corr.Build(legIDs, l)
	if err != nil {
		return nil, err
	}

	sampler := s.Sampler
	if sampler.Samples <= 0 {
		sampler.Samples = DefaultSamples
	}
	set, err := sampler.Sample(ctx, marginals, m)
	if err != nil {
		return nil, err
	}
	if set.Len() < sampler.Samples {
		return nil, fmt.Errorf("%w: %d of %d paths", copula.ErrInsufficientSamples, set.Len(), sampler.Samples)
	}

	cols := make([][]int, len(positions))
	for i, p := range positions {
		ids := make([]string, len(p.Legs))
		for j, leg := range p.Legs {
			ids[j] = leg.ID
		}
		if cols[i], err = set.Columns(ids); err != nil {
			return nil, err
		}
	}

	paths, tallies, err := replay(ctx, set, positions, cols, sampler.Shards)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Paths:   paths,
		PerSlip: make(map[string]Tally, len(positions)),
	}
	for i, p := range positions {
		t := res.PerSlip[p.Slip.ID]
		t.Wins += tallies[i].Wins
		t.Losses += tallies[i].Losses
		res.PerSlip[p.Slip.ID] = t
		res.TotalStake += p.Slip.Stake
	}

	res.Samples = len(paths)
	res.Slips = len(positions)
	res.Legs = len(legIDs)
	res.MeanPnL, res.StdPnL = MeanStd(paths)

	tail := VaRES(paths, s.Alpha)
	res.Alpha, res.VaR, res.ES = tail.Alpha, tail.VaR, tail.ES
	res.Throttle, res.Breach = s.Throttle.Factor(tail.VaR, bankroll)

	keep := s.PathSample
	if keep > len(paths) {
		keep = len(paths)
	}
	if keep > 0 {
		res.PathSample = append([]float64(nil), paths[:keep]...)
	}
	return res, nil
}

// replay computes per-path P&L shard by shard. Each shard writes only its
// own block of paths and its own tallies; tallies are summed after Wait.
func replay(ctx context.Context, set *copula.SampleSet, positions []Position, cols [][]int, shards int) ([]float64, []Tally, error) {
	n := set.Len()
	paths := make([]float64, n)
	blocks := copula.ShardRanges(n, shards)
	local := make([][]Tally, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	for k, blk := range blocks {
		k, blk := k, blk
		g.Go(func() error {
			tallies := make([]Tally, len(positions))
			for r := blk[0]; r < blk[1]; r++ {
				if (r-blk[0])%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				var pnl float64
				for i, p := range positions {
					won := set.AllWin(r, cols[i])
					pnl += SlipPL(p.Slip.Stake, p.Decimal, won)
					if won {
						tallies[i].Wins++
					} else {
						tallies[i].Losses++
					}
				}
				paths[r] = pnl
			}
			local[k] = tallies
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", copula.ErrInsufficientSamples, err)
	}

	total := make([]Tally, len(positions))
	for _, tallies := range local {
		for i, t := range tallies {
			total[i].Wins += t.Wins
			total[i].Losses += t.Losses
		}
	}
	return paths, total, nil
}

// unionLegs lists distinct legs across positions in first-seen order.
func unionLegs(positions []Position) ([]string, []float64) {
	seen := make(map[string]bool)
	var ids []string
	var marg []float64
	for _, p := range positions {
		for _, leg := range p.Legs {
			if seen[leg.ID] {
				continue
			}
			seen[leg.ID] = true
			ids = append(ids, leg.ID)
			marg = append(marg, leg.Prob)
		}
	}
	return ids, marg
}
