package execution

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wonny/papertrade/pkg/logger"
)

// PriceSource is the subset of the metrics provider used for live quotes
type PriceSource interface {
	FetchCurrentPrice(ctx context.Context, stockCode string) (float64, error)
}

// PriceLookup turns live price fetches into an optional value.
// Network errors, timeouts, parse failures and non-positive prices all mean "no price".
type PriceLookup struct {
	source PriceSource
	logger *logger.Logger
}

// NewPriceLookup creates a PriceLookup
func NewPriceLookup(source PriceSource, log *logger.Logger) *PriceLookup {
	return &PriceLookup{source: source, logger: log}
}

// Current returns the live price of stockCode, if one could be obtained
func (l *PriceLookup) Current(ctx context.Context, stockCode string) (decimal.Decimal, bool) {
	price, err := l.source.FetchCurrentPrice(ctx, stockCode)
	if err != nil {
		l.logger.WithError(err).WithField("stock_code", stockCode).Warn("Live price unavailable")
		return decimal.Zero, false
	}
	if price <= 0 {
		l.logger.WithFields(map[string]interface{}{
			"stock_code": stockCode,
			"price":      price,
		}).Warn("Ignoring non-positive live price")
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(price), true
}
