package portfolio

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/papertrade/internal/contracts"
)

func pos(code string) contracts.Position {
	return contracts.Position{StockCode: code, Qty: 10, AvgBuyPrice: decimal.NewFromInt(50)}
}

func cand(code string) contracts.RankedCandidate {
	return contracts.RankedCandidate{StockMetrics: contracts.StockMetrics{StockCode: code}}
}

func codesOfPositions(ps []contracts.Position) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.StockCode)
	}
	return out
}

func TestCompute(t *testing.T) {
	held := []contracts.Position{pos("A"), pos("B"), pos("C")}
	target := []contracts.RankedCandidate{cand("C"), cand("D"), cand("A"), cand("E")}

	d := Compute(held, target)

	assert.Equal(t, []string{"B"}, codesOfPositions(d.Sell))
	assert.Equal(t, []string{"A", "C"}, codesOfPositions(d.Keep))
	require.Len(t, d.Buy, 2)
	assert.Equal(t, "D", d.Buy[0].StockCode)
	assert.Equal(t, "E", d.Buy[1].StockCode)
	assert.False(t, d.Empty())
}

func TestCompute_Unchanged(t *testing.T) {
	held := []contracts.Position{pos("A"), pos("B")}
	target := []contracts.RankedCandidate{cand("B"), cand("A")}

	d := Compute(held, target)
	assert.True(t, d.Empty())
	assert.Len(t, d.Keep, 2)
}

func TestCompute_FromEmpty(t *testing.T) {
	d := Compute(nil, []contracts.RankedCandidate{cand("X"), cand("Y")})
	assert.Empty(t, d.Sell)
	assert.Len(t, d.Buy, 2)
}

func TestBook_CashAndPositions(t *testing.T) {
	wallet := contracts.Wallet{StrategyID: uuid.New(), CashBalance: decimal.NewFromInt(100)}
	book := NewBook(wallet, []contracts.Position{pos("A"), pos("B"), pos("C")})

	book.Credit(decimal.NewFromInt(50))
	assert.True(t, decimal.NewFromInt(150).Equal(book.Cash()))

	require.NoError(t, book.Debit(decimal.NewFromInt(150)))
	assert.True(t, book.Cash().IsZero())
	assert.Error(t, book.Debit(decimal.NewFromInt(1)))
	assert.True(t, book.Cash().IsZero())

	closed, ok := book.Close("A")
	require.True(t, ok)
	assert.Equal(t, "A", closed.StockCode)
	assert.False(t, book.Has("A"))
	assert.Equal(t, []string{"B", "C"}, codesOfPositions(book.Positions()))

	_, ok = book.Close("A")
	assert.False(t, ok)

	// Index stays consistent after removal
	_, ok = book.Close("C")
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, codesOfPositions(book.Positions()))

	require.NoError(t, book.Open(pos("D")))
	assert.Error(t, book.Open(pos("D")), "positions are never resized")
	assert.Error(t, book.Open(contracts.Position{StockCode: "Z"}))
	assert.Equal(t, []string{"B", "D"}, codesOfPositions(book.Positions()))
	assert.Equal(t, wallet.StrategyID, book.Wallet().StrategyID)
}
