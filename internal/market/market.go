package market

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"stop_guard/internal/models"
)

// PriceFeed supplies the latest price per symbol.
// Symbols the feed has no price for are absent from the returned map.
// Interfaces define *behavior*, so the watcher can run against Alpaca, a file, or a fake in tests.
type PriceFeed interface {
	Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// Liquidator closes a position whose stop was hit, and sells the partial quantity owed
// when a target price is reached. Both return the broker order ID.
type Liquidator interface {
	Liquidate(ctx context.Context, v models.Violation) (string, error)
	TakeProfit(ctx context.Context, t models.ProfitTarget) (string, error)
}

// Clock reports whether the market is open.
type Clock interface {
	Clock(ctx context.Context) (*models.Clock, error)
}

// FileFeed reads prices from a YAML or JSON file shaped as {"SYMBOL": price}.
// The file is re-read on every call so it can be edited between cycles.
type FileFeed struct {
	Path string
}

var _ PriceFeed = (*FileFeed)(nil)

func (f *FileFeed) Prices(_ context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read prices: %w", err)
	}

	raw := map[string]string{}
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".json":
		var nums map[string]json.Number
		if err := json.Unmarshal(b, &nums); err != nil {
			return nil, fmt.Errorf("parse prices %s: %w", f.Path, err)
		}
		for k, v := range nums {
			raw[k] = v.String()
		}
	default:
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("parse prices %s: %w", f.Path, err)
		}
	}

	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}

	out := make(map[string]decimal.Decimal, len(symbols))
	for sym, v := range raw {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if !wanted[sym] {
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("price for %s: %w", sym, err)
		}
		out[sym] = price
	}
	return out, nil
}
