package contracts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the cash account of one strategy
// ⭐ SSOT: CashBalance is never negative after a run
type Wallet struct {
	StrategyID  uuid.UUID       `json:"strategy_id"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	LastUpdated time.Time       `json:"last_updated"`
}

// Position is a holding keyed by (StrategyID, StockCode).
// Created on buy, deleted on full sell, never resized in between.
type Position struct {
	StrategyID  uuid.UUID       `json:"strategy_id"`
	StockCode   string          `json:"stock_code"`
	CompanyName string          `json:"company_name"`
	Qty         int64           `json:"qty"`
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CostBasis returns Qty * AvgBuyPrice
func (p *Position) CostBasis() decimal.Decimal {
	return p.AvgBuyPrice.Mul(decimal.NewFromInt(p.Qty))
}

// TradeAction is the side of a transaction
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// Transaction is an append-only ledger entry. Price is the gross per-share price.
type Transaction struct {
	ID         int64           `json:"id"`
	StrategyID uuid.UUID       `json:"strategy_id"`
	RunID      uuid.UUID       `json:"run_id"`
	StockCode  string          `json:"stock_code"`
	Action     TradeAction     `json:"action"`
	Qty        int64           `json:"qty"`
	Price      decimal.Decimal `json:"price"`
	Fees       decimal.Decimal `json:"fees"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// Gross returns Qty * Price
func (t *Transaction) Gross() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Qty))
}

// CashDelta is the signed effect on the wallet: +gross-fee on sells, -(gross+fee) on buys
func (t *Transaction) CashDelta() decimal.Decimal {
	if t.Action == ActionSell {
		return t.Gross().Sub(t.Fees)
	}
	return t.Gross().Add(t.Fees).Neg()
}

// NetWorthSnapshot is one point of a strategy's equity curve, appended per completed run
type NetWorthSnapshot struct {
	ID            int64           `json:"id"`
	StrategyID    uuid.UUID       `json:"strategy_id"`
	RunID         uuid.UUID       `json:"run_id"`
	TotalNetWorth decimal.Decimal `json:"total_net_worth"`
	CashBalance   decimal.Decimal `json:"cash_balance"`
	HoldingsValue decimal.Decimal `json:"holdings_value"`
	RecordedAt    time.Time       `json:"recorded_at"`
}
