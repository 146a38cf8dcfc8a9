package stops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stop_guard/internal/models"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		price, stop string
		want        bool
	}{
		{"above", "31.69", "31.68", false},
		{"exact match triggers", "31.68", "31.68", true},
		{"below", "31.5", "31.68", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Check(d(tt.price), d(tt.stop)))
		})
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	pos := models.Position{
		Symbol:       "CRNX",
		Shares:       d("10"),
		EntryPrice:   d("32.5"),
		CurrentPrice: d("31.5"),
		StopLevel:    d("31.68"),
		StopMode:     models.StopModeTrailing,
	}

	v, hit := Detect(pos)
	require.True(t, hit)
	assert.Equal(t, "CRNX", v.Symbol)
	assert.Equal(t, models.StopModeTrailing, v.StopMode)
	assertDec(t, "315", v.EstimatedProceeds)
	assertDec(t, "0.18", v.ViolationAmount)
	assert.True(t, v.ViolationPct.Equal(d("0.18").Div(d("31.68"))))
	assertDec(t, "32.5", v.EntryPrice)
}

func TestDetect_NoStopNoTrigger(t *testing.T) {
	t.Parallel()

	_, hit := Detect(models.Position{Symbol: "X", Shares: d("1"), CurrentPrice: d("5")})
	assert.False(t, hit)

	_, hit = Detect(models.Position{Symbol: "X", Shares: d("1"), StopLevel: d("5")})
	assert.False(t, hit)
}
