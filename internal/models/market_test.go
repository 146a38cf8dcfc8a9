package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQuotePrice(t *testing.T) {
	t.Parallel()

	d := decimal.RequireFromString
	tests := []struct {
		name   string
		quote  Quote
		want   string
		wantOK bool
	}{
		{"mid", Quote{BidPrice: d("10.00"), AskPrice: d("10.10"), LastTrade: d("9")}, "10.05", true},
		{"one sided falls back to trade", Quote{BidPrice: d("10"), LastTrade: d("9.5")}, "9.5", true},
		{"nothing", Quote{}, "0", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.quote.Price()
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}
}
