package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stop_guard/internal/models"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history", "stops.sqlite")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func trade(symbol string, pnl string, mode models.StopMode, closed time.Time) models.ClosedTrade {
	return models.ClosedTrade{
		Symbol:     symbol,
		Shares:     decimal.NewFromInt(10),
		EntryPrice: decimal.NewFromInt(50),
		ExitPrice:  decimal.NewFromInt(45),
		PnL:        decimal.RequireFromString(pnl),
		PnLPct:     decimal.RequireFromString("-0.1"),
		StopMode:   mode,
		DaysHeld:   7,
		ClosedAt:   closed,
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='stop_executions'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "stop_executions", name)
}

func TestSQLiteRecordAndGet(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	closed := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)

	in := trade("CRNX", "-50.00", models.StopModeInitial, closed)
	in.OrderID = "ord-1"
	stored, err := j.Record(in)
	require.NoError(t, err)
	require.Len(t, stored.ID, 26, "ULID assigned")

	got, err := j.Get(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "CRNX", got.Symbol)
	assert.Equal(t, models.StopModeInitial, got.StopMode)
	assert.Equal(t, 7, got.DaysHeld)
	assert.Equal(t, "ord-1", got.OrderID)
	assert.True(t, got.PnL.Equal(decimal.NewFromInt(-50)))
	assert.True(t, got.ClosedAt.Equal(closed))

	_, err = j.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteListBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, sym := range []string{"A", "B", "C"} {
		_, err := j.Record(trade(sym, "10", models.StopModeTrailing, base.AddDate(0, 0, i)))
		require.NoError(t, err)
	}

	all, err := j.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A", all[0].Symbol)
	assert.Equal(t, "C", all[2].Symbol)

	mid, err := j.ListBetween(base.AddDate(0, 0, 1), base.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, mid, 1)
	assert.Equal(t, "B", mid[0].Symbol)
}

func TestSQLiteListEmpty(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	all, err := j.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}
