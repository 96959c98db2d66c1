package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	op TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	seed INTEGER NOT NULL,
	samples INTEGER NOT NULL,
	accepted INTEGER NOT NULL,
	dropped INTEGER NOT NULL,
	total_stake REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS risk (
	run_id TEXT PRIMARY KEY REFERENCES runs(run_id),
	sample_count INTEGER NOT NULL,
	legs INTEGER NOT NULL,
	mean_pnl REAL NOT NULL,
	std_pnl REAL NOT NULL,
	alpha REAL NOT NULL,
	var REAL NOT NULL,
	es REAL NOT NULL,
	breach_ratio REAL NOT NULL,
	throttle_factor REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS stakes (
	run_id TEXT NOT NULL,
	slip_id TEXT NOT NULL,
	stake REAL NOT NULL,
	joint_p REAL NOT NULL,
	full_kelly REAL NOT NULL,
	kelly_used REAL NOT NULL,
	decimal_payout REAL NOT NULL,
	edge REAL NOT NULL,
	capped_by TEXT NOT NULL,
	tier TEXT NOT NULL,
	PRIMARY KEY (run_id, slip_id)
);

CREATE TABLE IF NOT EXISTS drops (
	run_id TEXT NOT NULL,
	slip_id TEXT NOT NULL,
	reason TEXT NOT NULL,
	detail TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_drops_run ON drops(run_id);
`
