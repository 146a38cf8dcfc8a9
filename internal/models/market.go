package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the broker's view of a liquidation order.
type Order struct {
	ID             string          `json:"id"`
	Symbol         string          `json:"symbol"`
	Qty            decimal.Decimal `json:"qty"`
	Side           string          `json:"side"`   // buy, sell
	Status         string          `json:"status"` // new, filled, canceled, expired, rejected
	FilledAvgPrice decimal.Decimal `json:"filled_avg_price"`
	CreatedAt      time.Time       `json:"created_at"`
	FilledAt       *time.Time      `json:"filled_at,omitempty"`
}

// Quote is a bid/ask snapshot plus the last trade, used to derive a single price.
type Quote struct {
	Symbol    string
	BidPrice  decimal.Decimal
	AskPrice  decimal.Decimal
	LastTrade decimal.Decimal
	Timestamp time.Time
}

// Price returns the bid/ask midpoint when both sides are quoted, otherwise the last trade.
// ok is false when neither is available.
func (q Quote) Price() (price decimal.Decimal, ok bool) {
	if q.BidPrice.IsPositive() && q.AskPrice.IsPositive() {
		return q.BidPrice.Add(q.AskPrice).Div(decimal.NewFromInt(2)), true
	}
	if q.LastTrade.IsPositive() {
		return q.LastTrade, true
	}
	return decimal.Zero, false
}

// Clock represents the market status.
type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}
