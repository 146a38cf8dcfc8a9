package journal

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"stop_guard/internal/models"
)

// Snapshot stores s, replacing any snapshot already taken on the same date.
func (j *SQLite) Snapshot(s models.PortfolioSnapshot) error {
	benchmarks := s.Benchmarks
	if benchmarks == nil {
		benchmarks = map[string]decimal.Decimal{}
	}
	bm, err := json.Marshal(benchmarks)
	if err != nil {
		return fmt.Errorf("encode benchmarks: %w", err)
	}

	_, err = j.db.Exec(`
		INSERT INTO portfolio_snapshots
		(date, portfolio_value, cash, positions_value, positions_count, total_return, total_return_pct, benchmarks, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			portfolio_value = excluded.portfolio_value,
			cash = excluded.cash,
			positions_value = excluded.positions_value,
			positions_count = excluded.positions_count,
			total_return = excluded.total_return,
			total_return_pct = excluded.total_return_pct,
			benchmarks = excluded.benchmarks,
			taken_at = excluded.taken_at`,
		s.Date, s.PortfolioValue, s.Cash, s.PositionsValue, s.PositionsCount,
		s.TotalReturn, s.TotalReturnPct, string(bm), s.TakenAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record snapshot %s: %w", s.Date, err)
	}
	return nil
}

// Snapshots returns every daily snapshot, oldest first.
func (j *SQLite) Snapshots() ([]models.PortfolioSnapshot, error) {
	rows, err := j.db.Query(`
		SELECT date, portfolio_value, cash, positions_value, positions_count, total_return, total_return_pct, benchmarks, taken_at
		FROM portfolio_snapshots
		ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PortfolioSnapshot{}
	for rows.Next() {
		var (
			s  models.PortfolioSnapshot
			bm string
		)
		if err := rows.Scan(
			&s.Date,
			&s.PortfolioValue,
			&s.Cash,
			&s.PositionsValue,
			&s.PositionsCount,
			&s.TotalReturn,
			&s.TotalReturnPct,
			&bm,
			&s.TakenAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(bm), &s.Benchmarks); err != nil {
			return nil, fmt.Errorf("decode benchmarks for %s: %w", s.Date, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
