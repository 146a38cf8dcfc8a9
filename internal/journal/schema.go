package journal

const Schema = `
CREATE TABLE IF NOT EXISTS stop_executions (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	shares TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	exit_price TEXT NOT NULL,
	pnl TEXT NOT NULL,
	pnl_pct TEXT NOT NULL,
	stop_mode TEXT NOT NULL,
	days_held INTEGER NOT NULL,
	order_id TEXT NOT NULL DEFAULT '',
	closed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stop_executions_closed_at ON stop_executions(closed_at);

CREATE TABLE IF NOT EXISTS portfolio_snapshots (
	date TEXT PRIMARY KEY,
	portfolio_value TEXT NOT NULL,
	cash TEXT NOT NULL,
	positions_value TEXT NOT NULL,
	positions_count INTEGER NOT NULL,
	total_return TEXT NOT NULL,
	total_return_pct TEXT NOT NULL,
	benchmarks TEXT NOT NULL DEFAULT '{}',
	taken_at DATETIME NOT NULL
);
`
