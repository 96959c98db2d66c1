package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/sliprisk/journal"
	"github.com/rustyeddy/sliprisk/pkg/id"
	"github.com/rustyeddy/sliprisk/risk"
)

// WithJournal records every run. Journal failures are logged and never
// fail the run that produced the records.
func WithJournal(j journal.Journal) Option {
	return func(e *Engine) {
		if j != nil {
			e.journal = j
		}
	}
}

func (e *Engine) record(run journal.RunRecord, stakes []risk.StakeResult, drops []Drop) {
	if _, ok := e.journal.(journal.Nop); ok {
		return
	}
	log := e.log.With(zap.String("run_id", run.RunID), zap.String("op", run.Op))

	if err := e.journal.RecordRun(run); err != nil {
		log.Error("journal run", zap.Error(err))
		return
	}
	for _, s := range stakes {
		if err := e.journal.RecordStake(journal.StakeRecord{RunID: run.RunID, StakeResult: s}); err != nil {
			log.Error("journal stake", zap.String("slip_id", s.SlipID), zap.Error(err))
		}
	}
	for _, d := range drops {
		rec := journal.DropRecord{RunID: run.RunID, SlipID: d.SlipID, Reason: d.Reason}
		if len(d.Violations) > 0 {
			rec.Detail = d.Violations[0].Msg
		}
		if err := e.journal.RecordDrop(rec); err != nil {
			log.Error("journal drop", zap.String("slip_id", d.SlipID), zap.Error(err))
		}
	}
}

func newRun(op string) journal.RunRecord {
	now := time.Now().UTC()
	return journal.RunRecord{RunID: id.NewAt(now), Op: op, CreatedAt: now}
}
