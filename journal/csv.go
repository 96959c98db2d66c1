package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var (
	runsHeader   = []string{"run_id", "op", "created_at", "seed", "samples", "accepted", "dropped", "total_stake", "mean_pnl", "std_pnl", "alpha", "var", "es", "throttle_factor"}
	stakesHeader = []string{"run_id", "slip_id", "stake", "joint_p", "full_kelly", "kelly_used", "decimal_payout", "edge", "capped_by", "tier", "drop_reason", "drop_detail"}
)

// CSVJournal appends runs to one file and per-slip rows to another.
// Dropped slips share the stakes file with an empty stake and a
// drop_reason.
type CSVJournal struct {
	runs   *csv.Writer
	stakes *csv.Writer
	rf, sf *os.File
}

func NewCSV(runsPath, stakesPath string) (*CSVJournal, error) {
	rf, err := os.Create(runsPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(stakesPath)
	if err != nil {
		rf.Close()
		return nil, err
	}

	rw := csv.NewWriter(rf)
	sw := csv.NewWriter(sf)

	if err := rw.Write(runsHeader); err != nil {
		return nil, err
	}
	if err := sw.Write(stakesHeader); err != nil {
		return nil, err
	}

	rw.Flush()
	if err := rw.Error(); err != nil {
		return nil, err
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{rw, sw, rf, sf}, nil
}

func (j *CSVJournal) RecordRun(r RunRecord) error {
	row := []string{
		r.RunID,
		r.Op,
		r.CreatedAt.UTC().Format(time.RFC3339),
		strconv.FormatUint(r.Seed, 10),
		strconv.Itoa(r.Samples),
		strconv.Itoa(r.Accepted),
		strconv.Itoa(r.Dropped),
		f(r.TotalStake),
	}
	if s := r.Risk; s != nil {
		row = append(row, f(s.MeanPnL), f(s.StdPnL), f(s.Alpha), f(s.VaR), f(s.ES), f(s.Throttle))
	} else {
		row = append(row, "", "", "", "", "", "")
	}
	return write(j.runs, row)
}

func (j *CSVJournal) RecordStake(s StakeRecord) error {
	return write(j.stakes, []string{
		s.RunID,
		s.SlipID,
		f(s.Stake),
		f(s.JointProb),
		f(s.FullKelly),
		f(s.KellyUsed),
		f(s.Decimal),
		f(s.Edge),
		s.CappedBy,
		s.Tier,
		"",
		"",
	})
}

func (j *CSVJournal) RecordDrop(d DropRecord) error {
	return write(j.stakes, []string{
		d.RunID, d.SlipID, "", "", "", "", "", "", "", "", d.Reason, d.Detail,
	})
}

func (j *CSVJournal) Close() error {
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}
	j.stakes.Flush()
	if err := j.stakes.Error(); err != nil {
		return err
	}

	if err := j.rf.Close(); err != nil {
		return err
	}
	return j.sf.Close()
}

func write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
