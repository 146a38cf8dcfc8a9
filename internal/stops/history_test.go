package stops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stop_guard/internal/models"
)

func trade(symbol, pnl, pct string, mode models.StopMode, days int) models.ClosedTrade {
	return models.ClosedTrade{Symbol: symbol, PnL: d(pnl), PnLPct: d(pct), StopMode: mode, DaysHeld: days}
}

func TestAnalyze_EmptyHistory(t *testing.T) {
	t.Parallel()

	stats := Analyze(nil)
	assert.Equal(t, 0, stats.Count)
	assert.True(t, stats.SuccessRate.IsZero())
	assert.NotNil(t, stats.ByMode)
	assert.Empty(t, stats.ByMode)
}

func TestAnalyze_Breakdown(t *testing.T) {
	t.Parallel()

	stats := Analyze([]models.ClosedTrade{
		trade("A", "-130", "-0.13", models.StopModeInitial, 10),
		trade("B", "-50", "-0.05", models.StopModeInitial, 4),
		trade("C", "200", "0.2", models.StopModeTrailing, 30),
	})

	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 2, stats.Losses)
	assert.True(t, stats.AvgPnL.Equal(d("20").Div(d("3"))))
	assert.True(t, stats.SuccessRate.Equal(d("1").Div(d("3"))))
	assert.True(t, stats.AvgDaysHeld.Equal(d("44").Div(d("3"))))
	assertDec(t, "-130", stats.MinPnL)
	assertDec(t, "200", stats.MaxPnL)

	require.Len(t, stats.ByMode, 2)
	initial := stats.ByMode[models.StopModeInitial]
	assert.Equal(t, 2, initial.Count)
	assert.Equal(t, 0, initial.Wins)
	assertDec(t, "-90", initial.AvgPnL)
	assertDec(t, "-0.09", initial.AvgPnLPct)
	assertDec(t, "0", initial.SuccessRate)

	trailing := stats.ByMode[models.StopModeTrailing]
	assert.Equal(t, 1, trailing.Count)
	assertDec(t, "1", trailing.SuccessRate)
	assertDec(t, "200", trailing.MinPnL)
}

func TestAnalyze_BreakEvenIsALoss(t *testing.T) {
	t.Parallel()

	stats := Analyze([]models.ClosedTrade{trade("Z", "0", "0", models.StopModeTrailing, 1)})
	assert.Equal(t, 0, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
}
