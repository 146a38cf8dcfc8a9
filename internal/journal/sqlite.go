package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stop_guard/internal/models"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Record stores a closed trade, assigning an ID when it has none. It returns the stored record.
func (j *SQLite) Record(t models.ClosedTrade) (models.ClosedTrade, error) {
	if t.ClosedAt.IsZero() {
		t.ClosedAt = time.Now()
	}
	t.ClosedAt = t.ClosedAt.UTC()
	if t.ID == "" {
		t.ID = NewID(t.ClosedAt)
	}

	_, err := j.db.Exec(`
		INSERT INTO stop_executions
		(id, symbol, shares, entry_price, exit_price, pnl, pnl_pct, stop_mode, days_held, order_id, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, t.Shares, t.EntryPrice, t.ExitPrice, t.PnL, t.PnLPct,
		string(t.StopMode), t.DaysHeld, t.OrderID, t.ClosedAt,
	)
	if err != nil {
		return t, fmt.Errorf("record stop execution %s: %w", t.Symbol, err)
	}
	return t, nil
}

const selectColumns = `
	SELECT id, symbol, shares, entry_price, exit_price, pnl, pnl_pct, stop_mode, days_held, order_id, closed_at
	FROM stop_executions`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (models.ClosedTrade, error) {
	var (
		rec  models.ClosedTrade
		mode string
	)
	err := s.Scan(
		&rec.ID,
		&rec.Symbol,
		&rec.Shares,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.PnL,
		&rec.PnLPct,
		&mode,
		&rec.DaysHeld,
		&rec.OrderID,
		&rec.ClosedAt,
	)
	rec.StopMode = models.StopMode(mode)
	return rec, err
}

// Get returns a single execution by ID.
func (j *SQLite) Get(id string) (models.ClosedTrade, error) {
	rec, err := scanTrade(j.db.QueryRow(selectColumns+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ClosedTrade{}, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return models.ClosedTrade{}, err
	}
	return rec, nil
}

// List returns every execution, oldest first.
func (j *SQLite) List() ([]models.ClosedTrade, error) {
	return j.query(selectColumns + ` ORDER BY closed_at ASC, id ASC`)
}

// ListBetween returns executions whose closed_at is within [start, end).
func (j *SQLite) ListBetween(start, end time.Time) ([]models.ClosedTrade, error) {
	return j.query(selectColumns+`
		WHERE closed_at >= ? AND closed_at < ?
		ORDER BY closed_at ASC, id ASC`, start.UTC(), end.UTC())
}

func (j *SQLite) query(q string, args ...any) ([]models.ClosedTrade, error) {
	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ClosedTrade{}
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
