package copula

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/sliprisk/corr"
)

var (
	ErrInsufficientSamples = errors.New("copula: insufficient samples")
	ErrShape               = errors.New("copula: marginals do not match matrix")
)

const (
	DefaultSamples = 12000
	DefaultShards  = 4

	// ctxCheckEvery is how many rows a shard draws between context checks.
	ctxCheckEvery = 1024
)

// Sampler draws correlated binary outcomes with a Gaussian copula.
//
// Output is a pure function of (Seed, Samples, Shards) and the inputs:
// rows are split into Shards contiguous blocks, block k draws from its own
// PCG stream seeded with (Seed, k), and blocks are stored in order. The
// number of goroutines and their scheduling never change the result.
type Sampler struct {
	Samples int
	Seed    uint64
	Shards  int
}

// Sample returns Samples outcome rows over the legs of m. marginals[i] is
// the win probability of m.IDs[i]. A cancelled ctx yields
// ErrInsufficientSamples instead of a partial set.
func (s Sampler) Sample(ctx context.Context, marginals []float64, m *corr.Matrix) (*SampleSet, error) {
	if m == nil || m.Size() == 0 {
		return nil, corr.ErrNoLegs
	}
	n := m.Size()
	if len(marginals) != n {
		return nil, fmt.Errorf("%w: %d marginals for %d legs", ErrShape, len(marginals), n)
	}

	total := s.Samples
	if total <= 0 {
		total = DefaultSamples
	}

	thresholds := make([]float64, n)
	for i, p := range marginals {
		thresholds[i] = NormInv(ClampProb(p))
	}
	lower := packLower(Cholesky(m.Sym))

	set := newSampleSet(m.IDs, total)
	blocks := shardRanges(total, s.Shards)
	drawn := make([]int, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	for k, blk := range blocks {
		k, blk := k, blk
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(s.Seed, uint64(k)))
			z0 := make([]float64, n)
			for row := blk.start; row < blk.end; row++ {
				if (row-blk.start)%ctxCheckEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				for i := range z0 {
					z0[i] = rng.NormFloat64()
				}
				out := set.bits[row*n : (row+1)*n]
				off := 0
				for i := 0; i < n; i++ {
					var z float64
					for j := 0; j <= i; j++ {
						z += lower[off+j] * z0[j]
					}
					off += i + 1
					if z <= thresholds[i] {
						out[i] = 1
					}
				}
				drawn[k]++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		done := 0
		for _, d := range drawn {
			done += d
		}
		return nil, fmt.Errorf("%w: drew %d of %d: %w", ErrInsufficientSamples, done, total, err)
	}
	return set, nil
}

type span struct {
	start, end int
}

// shardRanges splits [0,total) into contiguous blocks, the first
// total%shards blocks one row longer.
func shardRanges(total, shards int) []span {
	if shards <= 0 {
		shards = 1
	}
	if shards > total {
		shards = total
	}
	out := make([]span, 0, shards)
	base, extra := total/shards, total%shards
	start := 0
	for k := 0; k < shards; k++ {
		size := base
		if k < extra {
			size++
		}
		out = append(out, span{start: start, end: start + size})
		start += size
	}
	return out
}

// ShardRanges exposes the block layout for callers that reduce per-path
// values with the same sharding.
func ShardRanges(total, shards int) [][2]int {
	spans := shardRanges(total, shards)
	out := make([][2]int, len(spans))
	for i, sp := range spans {
		out[i] = [2]int{sp.start, sp.end}
	}
	return out
}
