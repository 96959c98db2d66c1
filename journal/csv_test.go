package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/sliprisk/config"
	"github.com/rustyeddy/sliprisk/risk"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runsPath := filepath.Join(dir, "runs.csv")
	stakesPath := filepath.Join(dir, "stakes.csv")

	j, err := NewCSV(runsPath, stakesPath)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.Equal(t, [][]string{runsHeader}, readCSV(t, runsPath))
	assert.Equal(t, [][]string{stakesHeader}, readCSV(t, stakesPath))
}

func TestCSVJournalRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runsPath := filepath.Join(dir, "runs.csv")
	stakesPath := filepath.Join(dir, "stakes.csv")

	j, err := NewCSV(runsPath, stakesPath)
	require.NoError(t, err)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, j.RecordRun(RunRecord{RunID: "R1", Op: "stake", CreatedAt: at, Seed: 7, Samples: 12000, Accepted: 1, Dropped: 1, TotalStake: 75}))
	require.NoError(t, j.RecordRun(stressRun("R2", at)))
	require.NoError(t, j.RecordStake(StakeRecord{RunID: "R1", StakeResult: risk.StakeResult{SlipID: "S1", Stake: 75, JointProb: 0.36, Decimal: 4, CappedBy: risk.CapTierUnit, Tier: "medium"}}))
	require.NoError(t, j.RecordDrop(DropRecord{RunID: "R1", SlipID: "S2", Reason: risk.CodeUnknownLeg, Detail: "leg X"}))
	require.NoError(t, j.Close())

	runs := readCSV(t, runsPath)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"R1", "stake", "2024-01-02T03:04:05Z", "7", "12000", "1", "1", "75.000000", "", "", "", "", "", ""}, runs[1])
	assert.Equal(t, "-125.000000", runs[2][11])
	assert.Equal(t, "1.000000", runs[2][13])

	stakes := readCSV(t, stakesPath)
	require.Len(t, stakes, 3)
	assert.Equal(t, "75.000000", stakes[1][2])
	assert.Equal(t, risk.CapTierUnit, stakes[1][8])
	assert.Equal(t, "", stakes[1][10])
	assert.Equal(t, "", stakes[2][2])
	assert.Equal(t, risk.CodeUnknownLeg, stakes[2][10])
}

func TestOpen(t *testing.T) {
	t.Parallel()

	j, err := Open(config.JournalConfig{})
	require.NoError(t, err)
	assert.Equal(t, Nop{}, j)
	assert.NoError(t, j.RecordRun(RunRecord{}))

	dir := t.TempDir()
	j, err = Open(config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(dir, "j.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteJournal{}, j)
	require.NoError(t, j.Close())

	j, err = Open(config.JournalConfig{Type: "csv", RunsFile: filepath.Join(dir, "r.csv"), StakesFile: filepath.Join(dir, "s.csv")})
	require.NoError(t, err)
	assert.IsType(t, &CSVJournal{}, j)
	require.NoError(t, j.Close())

	_, err = Open(config.JournalConfig{Type: "kafka"})
	assert.Error(t, err)
}
