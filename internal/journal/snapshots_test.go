package journal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stop_guard/internal/models"
)

func TestSnapshotFromState(t *testing.T) {
	t.Parallel()

	state := models.PortfolioState{
		Cash: decimal.NewFromInt(675),
		Positions: []models.Position{
			{Symbol: "CRNX", Shares: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(36)},
		},
		Benchmarks: map[string]decimal.Decimal{"SPY": decimal.RequireFromString("512.3")},
	}
	now := time.Date(2025, 3, 3, 21, 0, 0, 0, time.UTC)

	s := SnapshotFromState(state, decimal.NewFromInt(1000), now)
	assert.Equal(t, "2025-03-03", s.Date)
	assert.Equal(t, "1035", s.PortfolioValue.String())
	assert.Equal(t, "360", s.PositionsValue.String())
	assert.Equal(t, "35", s.TotalReturn.String())
	assert.Equal(t, "0.035", s.TotalReturnPct.String())
	assert.Equal(t, 1, s.PositionsCount)

	zero := SnapshotFromState(state, decimal.Zero, now)
	assert.True(t, zero.TotalReturnPct.IsZero())
}

func TestSQLiteSnapshotUpsertsPerDay(t *testing.T) {
	t.Parallel()
	j, _ := newTestSQLite(t)

	day := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)
	state := models.PortfolioState{
		Cash:       decimal.NewFromInt(1000),
		Benchmarks: map[string]decimal.Decimal{"QQQ": decimal.RequireFromString("440.10")},
	}

	require.NoError(t, j.Snapshot(SnapshotFromState(state, decimal.NewFromInt(1000), day)))
	state.Cash = decimal.NewFromInt(990)
	require.NoError(t, j.Snapshot(SnapshotFromState(state, decimal.NewFromInt(1000), day.Add(2*time.Hour))))
	require.NoError(t, j.Snapshot(SnapshotFromState(state, decimal.NewFromInt(1000), day.Add(24*time.Hour))))

	got, err := j.Snapshots()
	require.NoError(t, err)
	require.Len(t, got, 2, "same day replaces, next day appends")

	assert.Equal(t, "2025-03-03", got[0].Date)
	assert.Equal(t, "990", got[0].Cash.String())
	assert.Equal(t, "-10", got[0].TotalReturn.String())
	assert.Equal(t, "440.1", got[0].Benchmarks["QQQ"].String())
	assert.Equal(t, "2025-03-04", got[1].Date)
}

func TestSQLiteSnapshotsEmpty(t *testing.T) {
	t.Parallel()
	j, _ := newTestSQLite(t)

	got, err := j.Snapshots()
	require.NoError(t, err)
	assert.Empty(t, got)
}
