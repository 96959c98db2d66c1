package journal

import (
	"fmt"
	"time"

	"github.com/rustyeddy/sliprisk/config"
	"github.com/rustyeddy/sliprisk/risk"
	"github.com/rustyeddy/sliprisk/sim"
)

// RunRecord is one engine invocation. Risk is set for stress runs only.
type RunRecord struct {
	RunID      string
	Op         string
	CreatedAt  time.Time
	Seed       uint64
	Samples    int
	Accepted   int
	Dropped    int
	TotalStake float64
	Risk       *sim.RiskSummary
}

// StakeRecord is one sized slip of a run.
type StakeRecord struct {
	RunID string
	risk.StakeResult
}

// DropRecord is a slip a run skipped.
type DropRecord struct {
	RunID  string
	SlipID string
	Reason string
	Detail string
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordStake(StakeRecord) error
	RecordDrop(DropRecord) error
	Close() error
}

// Nop discards every record.
type Nop struct{}

func (Nop) RecordRun(RunRecord) error     { return nil }
func (Nop) RecordStake(StakeRecord) error { return nil }
func (Nop) RecordDrop(DropRecord) error   { return nil }
func (Nop) Close() error                  { return nil }

// Open returns the journal described by cfg. An empty type yields Nop.
func Open(cfg config.JournalConfig) (Journal, error) {
	switch cfg.Type {
	case "":
		return Nop{}, nil
	case "csv":
		return NewCSV(cfg.RunsFile, cfg.StakesFile)
	case "sqlite":
		return NewSQLite(cfg.DBPath)
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
}
