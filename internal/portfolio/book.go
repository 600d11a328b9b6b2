package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wonny/papertrade/internal/contracts"
)

// Book is the in-memory working copy of a strategy's wallet and holdings during a run.
// Trade phases mutate the Book; the run persists the resulting ledger in one transaction.
type Book struct {
	wallet    contracts.Wallet
	positions []contracts.Position
	index     map[string]int
}

// NewBook creates a Book from a wallet and its positions (order is preserved)
func NewBook(wallet contracts.Wallet, positions []contracts.Position) *Book {
	b := &Book{
		wallet: wallet,
		index:  make(map[string]int, len(positions)),
	}
	for _, p := range positions {
		b.positions = append(b.positions, p)
		b.index[p.StockCode] = len(b.positions) - 1
	}
	return b
}

// Wallet returns a copy of the wallet
func (b *Book) Wallet() contracts.Wallet {
	return b.wallet
}

// Cash returns the current cash balance
func (b *Book) Cash() decimal.Decimal {
	return b.wallet.CashBalance
}

// Positions returns a copy of the held positions
func (b *Book) Positions() []contracts.Position {
	out := make([]contracts.Position, len(b.positions))
	copy(out, b.positions)
	return out
}

// Has reports whether a stock is held
func (b *Book) Has(stockCode string) bool {
	_, ok := b.index[stockCode]
	return ok
}

// Credit adds to cash
func (b *Book) Credit(amount decimal.Decimal) {
	b.wallet.CashBalance = b.wallet.CashBalance.Add(amount)
}

// Debit removes from cash. The balance may never go negative.
func (b *Book) Debit(amount decimal.Decimal) error {
	if amount.GreaterThan(b.wallet.CashBalance) {
		return fmt.Errorf("insufficient cash: need %s, have %s", amount, b.wallet.CashBalance)
	}
	b.wallet.CashBalance = b.wallet.CashBalance.Sub(amount)
	return nil
}

// Open adds a new position. Existing positions are never resized.
func (b *Book) Open(p contracts.Position) error {
	if b.Has(p.StockCode) {
		return fmt.Errorf("position %s already held", p.StockCode)
	}
	if p.Qty < 1 {
		return fmt.Errorf("position %s qty must be positive, got %d", p.StockCode, p.Qty)
	}
	b.positions = append(b.positions, p)
	b.index[p.StockCode] = len(b.positions) - 1
	return nil
}

// Close removes a position entirely and returns it
func (b *Book) Close(stockCode string) (contracts.Position, bool) {
	i, ok := b.index[stockCode]
	if !ok {
		return contracts.Position{}, false
	}
	p := b.positions[i]

	b.positions = append(b.positions[:i], b.positions[i+1:]...)
	delete(b.index, stockCode)
	for j := i; j < len(b.positions); j++ {
		b.index[b.positions[j].StockCode] = j
	}
	return p, true
}
