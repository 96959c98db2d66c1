package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/sliprisk/sim"
)

var ErrNotFound = errors.New("journal: not found")

const runColumns = `run_id, op, created_at, seed, samples, accepted, dropped, total_stake`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var rec RunRecord
	var seed int64
	err := s.Scan(
		&rec.RunID,
		&rec.Op,
		&rec.CreatedAt,
		&seed,
		&rec.Samples,
		&rec.Accepted,
		&rec.Dropped,
		&rec.TotalStake,
	)
	rec.Seed = uint64(seed)
	return rec, err
}

// GetRun returns a run and its risk summary, if any.
func (j *SQLiteJournal) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("%w: run %q", ErrNotFound, runID)
		}
		return RunRecord{}, err
	}

	var s sim.RiskSummary
	err = j.db.QueryRow(`
		SELECT sample_count, legs, mean_pnl, std_pnl, alpha, var, es, breach_ratio, throttle_factor
		FROM risk WHERE run_id = ?`, runID).Scan(
		&s.Samples, &s.Legs, &s.MeanPnL, &s.StdPnL, &s.Alpha,
		&s.VaR, &s.ES, &s.Breach, &s.Throttle,
	)
	switch {
	case err == nil:
		s.Slips = rec.Accepted
		s.TotalStake = rec.TotalStake
		rec.Risk = &s
	case !errors.Is(err, sql.ErrNoRows):
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns runs created within [start, end), oldest first.
// Risk summaries are not loaded.
func (j *SQLiteJournal) ListRuns(start, end time.Time) ([]RunRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+runColumns+`
		FROM runs
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at ASC, run_id ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListStakes returns the stakes of a run ordered by slip id.
func (j *SQLiteJournal) ListStakes(runID string) ([]StakeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, slip_id, stake, joint_p, full_kelly, kelly_used, decimal_payout, edge, capped_by, tier
		FROM stakes
		WHERE run_id = ?
		ORDER BY slip_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StakeRecord
	for rows.Next() {
		var s StakeRecord
		if err := rows.Scan(
			&s.RunID,
			&s.SlipID,
			&s.Stake,
			&s.JointProb,
			&s.FullKelly,
			&s.KellyUsed,
			&s.Decimal,
			&s.Edge,
			&s.CappedBy,
			&s.Tier,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListDrops returns the skipped slips of a run in insertion order.
func (j *SQLiteJournal) ListDrops(runID string) ([]DropRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, slip_id, reason, detail
		FROM drops
		WHERE run_id = ?
		ORDER BY rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DropRecord
	for rows.Next() {
		var d DropRecord
		if err := rows.Scan(&d.RunID, &d.SlipID, &d.Reason, &d.Detail); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
