package audit

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/pkg/logger"
)

// Quoter provides optional live prices
type Quoter interface {
	Current(ctx context.Context, stockCode string) (decimal.Decimal, bool)
}

// HoldingValue is one position marked to market
type HoldingValue struct {
	StockCode string          `json:"stock_code"`
	Qty       int64           `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Value     decimal.Decimal `json:"value"`
	Live      bool            `json:"live"` // false when valued at avg buy price
}

// Valuation is the net worth of a wallet and its holdings
type Valuation struct {
	Cash          decimal.Decimal `json:"cash"`
	HoldingsValue decimal.Decimal `json:"holdings_value"`
	NetWorth      decimal.Decimal `json:"net_worth"`
	Holdings      []HoldingValue  `json:"holdings"`
}

// Valuator marks positions to market
// ⭐ SSOT: net worth is only computed here
type Valuator struct {
	quoter Quoter
	logger *logger.Logger
}

// NewValuator creates a new valuator
func NewValuator(quoter Quoter, log *logger.Logger) *Valuator {
	return &Valuator{quoter: quoter, logger: log}
}

// Value prices every position live, falling back to its avg buy price
func (v *Valuator) Value(ctx context.Context, cash decimal.Decimal, positions []contracts.Position) Valuation {
	val := Valuation{
		Cash:          cash,
		HoldingsValue: decimal.Zero,
		Holdings:      make([]HoldingValue, 0, len(positions)),
	}

	fallbacks := 0
	for _, p := range positions {
		price, live := v.quoter.Current(ctx, p.StockCode)
		if !live {
			price = p.AvgBuyPrice
			fallbacks++
		}

		value := price.Mul(decimal.NewFromInt(p.Qty))
		val.HoldingsValue = val.HoldingsValue.Add(value)
		val.Holdings = append(val.Holdings, HoldingValue{
			StockCode: p.StockCode,
			Qty:       p.Qty,
			Price:     price,
			Value:     value,
			Live:      live,
		})
	}
	val.NetWorth = cash.Add(val.HoldingsValue)

	v.logger.WithFields(map[string]interface{}{
		"positions": len(positions),
		"fallbacks": fallbacks,
		"cash":      cash.String(),
		"holdings":  val.HoldingsValue.String(),
		"net_worth": val.NetWorth.String(),
	}).Info("Valuation completed")

	return val
}
