package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// RecordRun stores the run and, for stress runs, its risk summary in one
// transaction.
func (j *SQLiteJournal) RecordRun(r RunRecord) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs
		(run_id, op, created_at, seed, samples, accepted, dropped, total_stake)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Op, r.CreatedAt.UTC(), int64(r.Seed), r.Samples,
		r.Accepted, r.Dropped, r.TotalStake,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	if s := r.Risk; s != nil {
		_, err = tx.Exec(`
			INSERT INTO risk
			(run_id, sample_count, legs, mean_pnl, std_pnl, alpha, var, es, breach_ratio, throttle_factor)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, s.Samples, s.Legs, s.MeanPnL, s.StdPnL, s.Alpha,
			s.VaR, s.ES, s.Breach, s.Throttle,
		)
		if err != nil {
			return fmt.Errorf("insert risk %s: %w", r.RunID, err)
		}
	}
	return tx.Commit()
}

func (j *SQLiteJournal) RecordStake(s StakeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO stakes
		(run_id, slip_id, stake, joint_p, full_kelly, kelly_used, decimal_payout, edge, capped_by, tier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.SlipID, s.Stake, s.JointProb, s.FullKelly, s.KellyUsed,
		s.Decimal, s.Edge, s.CappedBy, s.Tier,
	)
	return err
}

func (j *SQLiteJournal) RecordDrop(d DropRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO drops (run_id, slip_id, reason, detail)
		VALUES (?, ?, ?, ?)`,
		d.RunID, d.SlipID, d.Reason, d.Detail,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
