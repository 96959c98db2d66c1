package copula

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rustyeddy/sliprisk/corr"
	"github.com/rustyeddy/sliprisk/odds"
)

func TestNormInvMatchesReference(t *testing.T) {
	t.Parallel()

	for _, p := range []float64{1e-6, 0.001, 0.01, 0.02425, 0.05, 0.2, 0.5, 0.7, 0.95, 0.97575, 0.99, 0.999999} {
		want := distuv.UnitNormal.Quantile(p)
		assert.InDelta(t, want, NormInv(p), 1e-8, "p=%v", p)
	}
}

func TestNormInvBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -10.0, NormInv(0))
	assert.Equal(t, -10.0, NormInv(-0.5))
	assert.Equal(t, 10.0, NormInv(1))
	assert.Equal(t, 10.0, NormInv(2))
	assert.Equal(t, 0.0, NormInv(0.5))
	assert.InDelta(t, -NormInv(0.3), NormInv(0.7), 1e-12)
}

func TestClampProb(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.01, ClampProb(0))
	assert.Equal(t, 0.99, ClampProb(1))
	assert.Equal(t, 0.42, ClampProb(0.42))
	assert.Equal(t, 0.5, ClampProb(math.NaN()))
}

func buildMatrix(t *testing.T, ids []string, pairs map[string]float64) *corr.Matrix {
	t.Helper()
	tbl, bad := corr.FromMap(pairs)
	require.Empty(t, bad)
	m, err := corr.Build(ids, tbl)
	require.NoError(t, err)
	return m
}

func TestCholeskyRecoversMatrix(t *testing.T) {
	t.Parallel()

	m := buildMatrix(t, []string{"a", "b", "c", "d"}, map[string]float64{
		"a|b": 0.6,
		"a|c": 0.2,
		"b|c": 0.3,
		"c|d": -0.4,
		"a|d": 0.1,
	})

	l := Cholesky(m.Sym)
	var got mat.Dense
	got.Mul(l, l.T())

	n := m.Size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.InDelta(t, m.At(i, j), got.At(i, j), 1e-6, "entry %d,%d", i, j)
		}
	}
}

func TestCholeskyFloorsNonPSD(t *testing.T) {
	t.Parallel()

	// a~b and a~c strongly positive, b~c strongly negative: not PSD.
	m := buildMatrix(t, []string{"a", "b", "c"}, map[string]float64{
		"a|b": 0.95,
		"a|c": 0.95,
		"b|c": -0.95,
	})

	l := Cholesky(m.Sym)
	for i := 0; i < 3; i++ {
		for j := 0; j <= i; j++ {
			v := l.At(i, j)
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "entry %d,%d = %v", i, j, v)
		}
		assert.Greater(t, l.At(i, i), 0.0)
	}
}

func sampleJoint(t *testing.T, rho float64, samples int) float64 {
	t.Helper()
	m := buildMatrix(t, []string{"x", "y"}, map[string]float64{"x|y": rho})
	set, err := Sampler{Samples: samples, Seed: 42, Shards: 4}.Sample(context.Background(), []float64{0.5, 0.5}, m)
	require.NoError(t, err)
	p, err := set.Joint("x", "y")
	require.NoError(t, err)
	return p
}

func TestIndependenceBaseline(t *testing.T) {
	t.Parallel()

	p := sampleJoint(t, 0, 50000)
	assert.InDelta(t, 0.25, p, 0.01)
}

func TestCorrelationRaisesJoint(t *testing.T) {
	t.Parallel()

	p0 := sampleJoint(t, 0, 20000)
	p4 := sampleJoint(t, 0.4, 20000)
	p8 := sampleJoint(t, 0.8, 20000)

	assert.Greater(t, p4, p0)
	assert.Greater(t, p8, p4)

	// Bivariate normal orthant probability: 1/4 + asin(rho)/(2*pi).
	assert.InDelta(t, 0.25+math.Asin(0.8)/(2*math.Pi), p8, 0.015)
}

func TestMarginalsMatchInputs(t *testing.T) {
	t.Parallel()

	m := buildMatrix(t, []string{"a", "b", "c"}, map[string]float64{"a|b": 0.5, "b|c": -0.3})
	probs := []float64{0.2, 0.55, 0.8}
	set, err := Sampler{Samples: 40000, Seed: 7, Shards: 3}.Sample(context.Background(), probs, m)
	require.NoError(t, err)
	assert.Equal(t, 40000, set.Len())

	for i, id := range []string{"a", "b", "c"} {
		got, err := set.Marginal(id)
		require.NoError(t, err)
		assert.InDelta(t, probs[i], got, 0.01, id)
	}
}

func TestSamplerDeterministic(t *testing.T) {
	t.Parallel()

	m := buildMatrix(t, []string{"a", "b"}, map[string]float64{"a|b": 0.3})
	s := Sampler{Samples: 5000, Seed: 99, Shards: 4}

	first, err := s.Sample(context.Background(), []float64{0.4, 0.6}, m)
	require.NoError(t, err)
	second, err := s.Sample(context.Background(), []float64{0.4, 0.6}, m)
	require.NoError(t, err)
	assert.Equal(t, first.bits, second.bits)

	s.Seed = 100
	third, err := s.Sample(context.Background(), []float64{0.4, 0.6}, m)
	require.NoError(t, err)
	assert.NotEqual(t, first.bits, third.bits)
}

func TestSamplerCancelled(t *testing.T) {
	t.Parallel()

	m := buildMatrix(t, []string{"a", "b"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sampler{Samples: 10000, Seed: 1, Shards: 2}.Sample(ctx, []float64{0.5, 0.5}, m)
	assert.ErrorIs(t, err, ErrInsufficientSamples)
	assert.ErrorIs(t, err, context.Canceled)

	expired, stop := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer stop()
	_, err = Sampler{Samples: 10000, Seed: 1, Shards: 2}.Sample(expired, []float64{0.5, 0.5}, m)
	assert.ErrorIs(t, err, ErrInsufficientSamples)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, context.Canceled)
}

func TestSamplerShapeMismatch(t *testing.T) {
	t.Parallel()

	m := buildMatrix(t, []string{"a", "b"}, nil)
	_, err := Sampler{Samples: 10}.Sample(context.Background(), []float64{0.5}, m)
	assert.ErrorIs(t, err, ErrShape)

	_, err = Sampler{}.Sample(context.Background(), nil, nil)
	assert.ErrorIs(t, err, corr.ErrNoLegs)
}

func TestJointErrors(t *testing.T) {
	t.Parallel()

	m := buildMatrix(t, []string{"a", "b"}, nil)
	set, err := Sampler{Samples: 100, Seed: 3}.Sample(context.Background(), []float64{0.5, 0.5}, m)
	require.NoError(t, err)

	_, err = set.Joint()
	assert.ErrorIs(t, err, corr.ErrNoLegs)

	_, err = set.Joint("a", "zzz")
	assert.Error(t, err)
}

func TestEstimate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Sampler{Samples: 20000, Seed: 5, Shards: 2}

	single, err := Estimate(ctx, s, []odds.Leg{{ID: "a", Prob: 0.37, Decimal: 2.5}}, nil)
	require.NoError(t, err)
	assert.Equal(t, JointResult{Prob: 0.37, Samples: 0}, single)

	tbl := corr.NewTable()
	tbl.Set("a", "b", 0.6)
	legs := []odds.Leg{{ID: "a", Prob: 0.5, Decimal: 2}, {ID: "b", Prob: 0.5, Decimal: 2}}

	res, err := Estimate(ctx, s, legs, tbl)
	require.NoError(t, err)
	assert.Equal(t, 20000, res.Samples)
	assert.Greater(t, res.Prob, 0.3)

	_, err = Estimate(ctx, s, nil, tbl)
	assert.ErrorIs(t, err, corr.ErrNoLegs)
}

func TestEstimateRepeatedLegs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Sampler{Samples: 20000, Seed: 5, Shards: 2}
	tbl := corr.NewTable()
	tbl.Set("a", "b", 0.6)

	a := odds.Leg{ID: "a", Prob: 0.5, Decimal: 2}
	b := odds.Leg{ID: "b", Prob: 0.5, Decimal: 2}

	want, err := Estimate(ctx, s, []odds.Leg{a, b}, tbl)
	require.NoError(t, err)
	got, err := Estimate(ctx, s, []odds.Leg{a, b, a}, tbl)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	solo, err := Estimate(ctx, s, []odds.Leg{a, a}, tbl)
	require.NoError(t, err)
	assert.Equal(t, JointResult{Prob: 0.5, Samples: 0}, solo)
}

func TestShardRanges(t *testing.T) {
	t.Parallel()

	assert.Equal(t, [][2]int{{0, 4}, {4, 7}, {7, 10}}, ShardRanges(10, 3))
	assert.Equal(t, [][2]int{{0, 10}}, ShardRanges(10, 0))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, ShardRanges(2, 8))
}
