package alpaca

import (
	"context"
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"stop_guard/internal/market"
	"stop_guard/internal/models"
)

// Provider implements the market interfaces for Alpaca.
type Provider struct {
	mdClient    *marketdata.Client
	tradeClient *alpaca.Client
	feed        marketdata.Feed
	limiter     *rate.Limiter
}

// Ensure Provider implements the interfaces
var (
	_ market.PriceFeed  = (*Provider)(nil)
	_ market.Liquidator = (*Provider)(nil)
	_ market.Clock      = (*Provider)(nil)
)

// NewProvider returns a new Alpaca provider. Credentials come from the APCA_* environment
// variables read by the SDK.
func NewProvider() *Provider {
	return newProvider(marketdata.ClientOpts{}, alpaca.ClientOpts{})
}

func newProvider(mdOpts marketdata.ClientOpts, tradeOpts alpaca.ClientOpts) *Provider {
	return &Provider{
		mdClient:    marketdata.NewClient(mdOpts),
		tradeClient: alpaca.NewClient(tradeOpts),
		feed:        marketdata.IEX,
		// Alpaca allows 200 requests per minute on the free plan.
		limiter: rate.NewLimiter(rate.Limit(3), 5),
	}
}

// --- Market Data ---

// Prices fetches latest quotes and trades concurrently and reduces them to one price per
// symbol: the bid/ask midpoint, or the last trade when the quote is one-sided.
func (p *Provider) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	if len(symbols) == 0 {
		return out, nil
	}

	var (
		quotes map[string]marketdata.Quote
		trades map[string]marketdata.Trade
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		q, err := p.mdClient.GetLatestQuotes(symbols, marketdata.GetLatestQuoteRequest{Feed: p.feed})
		if err != nil {
			return fmt.Errorf("latest quotes: %w", err)
		}
		quotes = q
		return nil
	})
	g.Go(func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		t, err := p.mdClient.GetLatestTrades(symbols, marketdata.GetLatestTradeRequest{Feed: p.feed})
		if err != nil {
			return fmt.Errorf("latest trades: %w", err)
		}
		trades = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, sym := range symbols {
		q := models.Quote{Symbol: sym}
		if quote, ok := quotes[sym]; ok {
			q.BidPrice = decimal.NewFromFloat(quote.BidPrice)
			q.AskPrice = decimal.NewFromFloat(quote.AskPrice)
			q.Timestamp = quote.Timestamp
		}
		if trade, ok := trades[sym]; ok {
			q.LastTrade = decimal.NewFromFloat(trade.Price)
		}
		if price, ok := q.Price(); ok {
			out[sym] = price
		}
	}
	return out, nil
}

func (p *Provider) Clock(ctx context.Context) (*models.Clock, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	c, err := p.tradeClient.GetClock()
	if err != nil {
		return nil, err
	}
	return &models.Clock{
		Timestamp: c.Timestamp,
		IsOpen:    c.IsOpen,
		NextOpen:  c.NextOpen,
		NextClose: c.NextClose,
	}, nil
}

// --- Execution ---

// Liquidate submits a market sell day order for the violated position.
func (p *Provider) Liquidate(ctx context.Context, v models.Violation) (string, error) {
	o, err := p.PlaceOrder(ctx, v.Symbol, v.Shares, "sell")
	if err != nil {
		return "", fmt.Errorf("liquidate %s: %w", v.Symbol, err)
	}
	return o.ID, nil
}

// PlaceOrder executes a market order. Side should be "buy" or "sell".
func (p *Provider) TakeProfit(ctx context.Context, t models.ProfitTarget) (string, error) {
	o, err := p.PlaceOrder(ctx, t.Symbol, t.SharesToSell, "sell")
	if err != nil {
		return "", fmt.Errorf("take profit %s: %w", t.Symbol, err)
	}
	return o.ID, nil
}

func (p *Provider) PlaceOrder(ctx context.Context, ticker string, qty decimal.Decimal, side string) (*models.Order, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req := alpaca.PlaceOrderRequest{
		Symbol:      strings.ToUpper(ticker),
		Qty:         &qty,
		Side:        alpaca.Side(side),
		Type:        alpaca.Market,
		TimeInForce: alpaca.Day,
	}

	o, err := p.tradeClient.PlaceOrder(req)
	if err != nil {
		return nil, err
	}
	return mapOrder(o), nil
}

func (p *Provider) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	o, err := p.tradeClient.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	return mapOrder(o), nil
}

func (p *Provider) CancelOrder(ctx context.Context, orderID string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return p.tradeClient.CancelOrder(orderID)
}

// Helpers

func mapOrder(o *alpaca.Order) *models.Order {
	if o == nil {
		return nil
	}

	res := &models.Order{
		ID:        o.ID,
		Symbol:    o.Symbol,
		Side:      string(o.Side),
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		FilledAt:  o.FilledAt,
	}
	if o.Qty != nil {
		res.Qty = *o.Qty
	}
	if o.FilledAvgPrice != nil {
		res.FilledAvgPrice = *o.FilledAvgPrice
	}
	return res
}
