package slipio

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/sliprisk/corr"
	"github.com/rustyeddy/sliprisk/odds"
	"github.com/rustyeddy/sliprisk/risk"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestParseLegs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"yaml list", "- leg_id: A\n  marginal_p: 0.55\n  decimal_odds: 1.91\n- leg_id: B\n  marginal_p: 0.4\n  american: 150\n"},
		{"yaml doc", "legs:\n  - leg_id: A\n    marginal_p: 0.55\n    decimal_odds: 1.91\n  - leg_id: B\n    marginal_p: 0.4\n    american: 150\n"},
		{"json list", `[{"leg_id":"A","marginal_p":0.55,"decimal_odds":1.91},{"leg_id":"B","marginal_p":0.4,"american":150}]`},
		{"json doc", `{"legs":[{"leg_id":"A","marginal_p":0.55,"decimal_odds":1.91},{"leg_id":"B","marginal_p":0.4,"american":150}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			legs, err := ParseLegs([]byte(tt.body))
			require.NoError(t, err)
			require.Len(t, legs, 2)
			assert.Equal(t, "A", legs[0].ID)
			assert.Equal(t, 1.91, legs[0].Decimal)
			assert.InDelta(t, 2.5, legs[1].Decimal, 1e-12)
		})
	}
}

func TestParseLegsErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseLegs([]byte("- leg_id: A\n  marginal_p: 0.5\n  american: 50\n"))
	assert.ErrorIs(t, err, odds.ErrBadQuote)

	_, err = ParseLegs([]byte("{{{"))
	assert.Error(t, err)
}

func TestLoadSlips(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "slips.yaml", "slips:\n  - slip_id: S1\n    legs: [A, B]\n  - slip_id: S2\n    legs: [B, C]\n    stake: 40\n")
	slips, err := LoadSlips(path)
	require.NoError(t, err)
	assert.Equal(t, []risk.Slip{
		{ID: "S1", Legs: []string{"A", "B"}},
		{ID: "S2", Legs: []string{"B", "C"}, Stake: 40},
	}, slips)

	_, err = LoadSlips(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadLegsFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "legs.json", `[{"leg_id":"A","marginal_p":0.5,"decimal_odds":2}]`)
	legs, err := LoadLegs(path)
	require.NoError(t, err)
	assert.Equal(t, []odds.Leg{{ID: "A", Prob: 0.5, Decimal: 2}}, legs)
}

func TestLoadCorr(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "corr.json", `{"B|A": 0.4, "A|C": 1.5, "junk": 0.2}`)
	tbl, bad, err := LoadCorr(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"junk"}, bad)

	rho, ok := tbl.Rho("A", "B")
	assert.True(t, ok)
	assert.Equal(t, 0.4, rho)

	rho, _ = tbl.Rho("C", "A")
	assert.Equal(t, corr.MaxRho, rho)
}

func TestReadHits(t *testing.T) {
	t.Parallel()

	in := "date,leg_key,hit\n2024-01-01,A,1\n2024-01-01,B,0\n2024-01-02,A,true\n"
	hits, err := ReadHits(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []corr.HitRecord{
		{Date: "2024-01-01", Leg: "A", Hit: true},
		{Date: "2024-01-01", Leg: "B", Hit: false},
		{Date: "2024-01-02", Leg: "A", Hit: true},
	}, hits)

	noHeader, err := ReadHits(strings.NewReader("2024-01-01,A,0\n"))
	require.NoError(t, err)
	assert.Len(t, noHeader, 1)

	_, err = ReadHits(strings.NewReader("2024-01-01,A,maybe\n"))
	assert.ErrorContains(t, err, "line 1")

	_, err = ReadHits(strings.NewReader("2024-01-01,A\n"))
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]float64{"joint_probability": 0.25}))

	var got map[string]float64
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 0.25, got["joint_probability"])
}

func TestSaveFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	slips := []risk.Slip{{ID: "S1", Legs: []string{"A", "B"}, Stake: 12.5}}

	for _, name := range []string{"out.yaml", "out.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveFile(path, slips))
		back, err := LoadSlips(path)
		require.NoError(t, err)
		assert.Equal(t, slips, back, name)
	}
}
