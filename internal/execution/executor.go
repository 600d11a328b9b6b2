package execution

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/internal/portfolio"
	"github.com/wonny/papertrade/pkg/logger"
)

// Quoter provides optional live prices
type Quoter interface {
	Current(ctx context.Context, stockCode string) (decimal.Decimal, bool)
}

// Config defines the trading constants
type Config struct {
	FeeRate            decimal.Decimal // charged on gross, both sides
	SellFallbackMarkup decimal.Decimal // sell at avgBuyPrice * (1 + markup) without a live price
}

// DefaultConfig returns the default execution configuration (1% fee, 5% fallback markup)
func DefaultConfig() Config {
	return Config{
		FeeRate:            decimal.RequireFromString("0.01"),
		SellFallbackMarkup: decimal.RequireFromString("0.05"),
	}
}

// SkipReason explains why an entrant was not bought
type SkipReason string

const (
	SkipNoPrice            SkipReason = "no_price"
	SkipInsufficientBudget SkipReason = "insufficient_budget"
)

// Skip records an entrant that was left unbought. Its budget is not redistributed.
type Skip struct {
	StockCode string          `json:"stock_code"`
	Reason    SkipReason      `json:"reason"`
	Price     decimal.Decimal `json:"price,omitempty"`
	Budget    decimal.Decimal `json:"budget"`
}

// BuyResult is the outcome of the buy phase
type BuyResult struct {
	Transactions []contracts.Transaction
	Opened       []contracts.Position
	Skipped      []Skip
}

// SellResult is the outcome of the sell phase
type SellResult struct {
	Transactions []contracts.Transaction
	Closed       []contracts.Position
	// Fallback lists stock codes sold at the fallback price
	Fallback []string
}

// Executor applies sell and buy phases to a Book
// ⭐ SSOT: trade pricing and fee math live here only
type Executor struct {
	quoter Quoter
	config Config
	logger *logger.Logger
	now    func() time.Time
}

// NewExecutor creates a new trade executor
func NewExecutor(quoter Quoter, config Config, log *logger.Logger) *Executor {
	return &Executor{
		quoter: quoter,
		config: config,
		logger: log,
		now:    time.Now,
	}
}

// Sell closes every position in sells at the live price, falling back to
// avgBuyPrice * (1 + markup). Net proceeds (gross - fee) are credited to the book.
func (e *Executor) Sell(ctx context.Context, book *portfolio.Book, sells []contracts.Position, runID uuid.UUID) SellResult {
	var result SellResult
	one := decimal.NewFromInt(1)

	for _, held := range sells {
		pos, found := book.Close(held.StockCode)
		if !found {
			e.logger.WithField("stock_code", held.StockCode).Warn("Sell skipped, position not in book")
			continue
		}

		price, ok := e.quoter.Current(ctx, pos.StockCode)
		if !ok {
			price = pos.AvgBuyPrice.Mul(one.Add(e.config.SellFallbackMarkup))
			result.Fallback = append(result.Fallback, pos.StockCode)
		}

		gross := price.Mul(decimal.NewFromInt(pos.Qty))
		fee := gross.Mul(e.config.FeeRate)
		book.Credit(gross.Sub(fee))

		result.Closed = append(result.Closed, pos)
		result.Transactions = append(result.Transactions, contracts.Transaction{
			StrategyID: pos.StrategyID,
			RunID:      runID,
			StockCode:  pos.StockCode,
			Action:     contracts.ActionSell,
			Qty:        pos.Qty,
			Price:      price,
			Fees:       fee,
			ExecutedAt: e.now(),
		})

		e.logger.WithFields(map[string]interface{}{
			"stock_code": pos.StockCode,
			"qty":        pos.Qty,
			"price":      price.String(),
			"fee":        fee.String(),
			"fallback":   !ok,
		}).Info("Sold position")
	}

	return result
}

// Buy splits the post-sell cash equally across buys and opens a position in each
// entrant it can afford. Price is the candidate's cmp, else a live lookup, else skipped.
func (e *Executor) Buy(ctx context.Context, book *portfolio.Book, buys []contracts.RankedCandidate, runID uuid.UUID) BuyResult {
	var result BuyResult
	if len(buys) == 0 {
		return result
	}

	one := decimal.NewFromInt(1)
	feeFactor := one.Add(e.config.FeeRate)
	budget := book.Cash().Div(decimal.NewFromInt(int64(len(buys))))
	strategyID := book.Wallet().StrategyID

	for _, entrant := range buys {
		price, ok := e.entryPrice(ctx, entrant)
		if !ok {
			result.Skipped = append(result.Skipped, Skip{StockCode: entrant.StockCode, Reason: SkipNoPrice, Budget: budget})
			continue
		}

		qty := budget.Div(price.Mul(feeFactor)).Floor().IntPart()

		// Never overdraw: rounding in the budget split may leave cash a hair short
		gross, fee, total := e.cost(price, qty)
		for qty > 0 && total.GreaterThan(book.Cash()) {
			qty--
			gross, fee, total = e.cost(price, qty)
		}

		if qty < 1 {
			result.Skipped = append(result.Skipped, Skip{StockCode: entrant.StockCode, Reason: SkipInsufficientBudget, Price: price, Budget: budget})
			continue
		}

		if err := book.Debit(total); err != nil {
			result.Skipped = append(result.Skipped, Skip{StockCode: entrant.StockCode, Reason: SkipInsufficientBudget, Price: price, Budget: budget})
			continue
		}

		now := e.now()
		position := contracts.Position{
			StrategyID:  strategyID,
			StockCode:   entrant.StockCode,
			CompanyName: entrant.CompanyName,
			Qty:         qty,
			AvgBuyPrice: price,
			CreatedAt:   now,
		}
		if err := book.Open(position); err != nil {
			// Refund; the diff guarantees entrants are unheld, so this is unexpected
			book.Credit(total)
			e.logger.WithError(err).WithField("stock_code", entrant.StockCode).Warn("Buy skipped")
			continue
		}

		result.Opened = append(result.Opened, position)
		result.Transactions = append(result.Transactions, contracts.Transaction{
			StrategyID: strategyID,
			RunID:      runID,
			StockCode:  entrant.StockCode,
			Action:     contracts.ActionBuy,
			Qty:        qty,
			Price:      price,
			Fees:       fee,
			ExecutedAt: now,
		})

		e.logger.WithFields(map[string]interface{}{
			"stock_code": entrant.StockCode,
			"qty":        qty,
			"price":      price.String(),
			"fee":        fee.String(),
			"gross":      gross.String(),
		}).Info("Bought entrant")
	}

	for _, s := range result.Skipped {
		e.logger.WithFields(map[string]interface{}{
			"stock_code": s.StockCode,
			"reason":     s.Reason,
		}).Warn("Entrant skipped")
	}

	return result
}

func (e *Executor) entryPrice(ctx context.Context, entrant contracts.RankedCandidate) (decimal.Decimal, bool) {
	if entrant.CMP > 0 {
		return decimal.NewFromFloat(entrant.CMP), true
	}
	return e.quoter.Current(ctx, entrant.StockCode)
}

func (e *Executor) cost(price decimal.Decimal, qty int64) (gross, fee, total decimal.Decimal) {
	gross = price.Mul(decimal.NewFromInt(qty))
	fee = gross.Mul(e.config.FeeRate)
	return gross, fee, gross.Add(fee)
}
