package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rustyeddy/sliprisk/config"
	"github.com/rustyeddy/sliprisk/journal"
	"github.com/rustyeddy/sliprisk/risk"
)

func TestRunsAreJournaled(t *testing.T) {
	t.Parallel()

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	e := newEngine(t, WithJournal(j))
	ctx := context.Background()

	slips := []risk.Slip{
		{ID: "S1", Legs: []string{"A", "B"}},
		{ID: "S2", Legs: []string{"A", "X"}},
	}
	staked, stressed, err := e.Plan(ctx, testLegs(), slips, StakeOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, staked.RunID, stressed.RunID)

	run, err := j.GetRun(staked.RunID)
	require.NoError(t, err)
	assert.Equal(t, OpStake, run.Op)
	assert.Equal(t, uint64(7), run.Seed)
	assert.Equal(t, 12000, run.Samples)
	assert.Equal(t, 1, run.Accepted)
	assert.Equal(t, 1, run.Dropped)
	assert.Nil(t, run.Risk)

	stakes, err := j.ListStakes(staked.RunID)
	require.NoError(t, err)
	require.Len(t, stakes, 1)
	assert.Equal(t, staked.Results[0], stakes[0].StakeResult)

	drops, err := j.ListDrops(staked.RunID)
	require.NoError(t, err)
	require.Len(t, drops, 1)
	assert.Equal(t, risk.CodeUnknownLeg, drops[0].Reason)
	assert.Contains(t, drops[0].Detail, `"X"`)

	srun, err := j.GetRun(stressed.RunID)
	require.NoError(t, err)
	assert.Equal(t, OpStress, srun.Op)
	require.NotNil(t, srun.Risk)
	assert.Equal(t, stressed.Risk.VaR, srun.Risk.VaR)
	assert.Equal(t, stressed.Risk.Throttle, srun.Risk.Throttle)
}

func TestDuplicateSlipJournaledAsDrop(t *testing.T) {
	t.Parallel()

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	core, logs := observer.New(zapcore.ErrorLevel)
	e, err := New(config.Default(), WithJournal(j), WithLogger(zap.New(core)))
	require.NoError(t, err)

	slips := []risk.Slip{
		{ID: "S1", Legs: []string{"A", "B"}},
		{ID: "S1", Legs: []string{"B", "C"}},
	}
	rep, err := e.StakeSlips(context.Background(), testLegs(), slips, StakeOptions{})
	require.NoError(t, err)
	assert.Zero(t, logs.Len())

	stakes, err := j.ListStakes(rep.RunID)
	require.NoError(t, err)
	require.Len(t, stakes, 1)
	assert.Equal(t, rep.Results[0], stakes[0].StakeResult)

	drops, err := j.ListDrops(rep.RunID)
	require.NoError(t, err)
	require.Len(t, drops, 1)
	assert.Equal(t, risk.CodeDuplicateSlip, drops[0].Reason)
}
