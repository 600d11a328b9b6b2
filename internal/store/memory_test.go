package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/papertrade/internal/contracts"
)

func seedStrategy(t *testing.T, m *Memory) *contracts.Strategy {
	t.Helper()
	s := &contracts.Strategy{Name: "quality", SourceURL: "https://www.screener.in/screens/1/"}
	require.NoError(t, m.CreateStrategy(context.Background(), s))
	return s
}

func TestMemory_StrategyCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s := seedStrategy(t, m)
	assert.NotEqual(t, uuid.Nil, s.ID)

	got, err := m.GetStrategy(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "quality", got.Name)
	assert.Nil(t, got.Weights)

	w := contracts.Weights{ROCE: 1}
	got.Weights = &w
	require.NoError(t, m.UpdateStrategy(ctx, got))

	got, err = m.GetStrategy(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Weights)
	assert.Equal(t, 1.0, got.Weights.ROCE)

	_, err = m.GetStrategy(ctx, uuid.New())
	assert.True(t, errors.Is(err, contracts.ErrNotFound))

	err = m.UpdateStrategy(ctx, &contracts.Strategy{ID: uuid.New(), Name: "x"})
	assert.True(t, errors.Is(err, contracts.ErrNotFound))

	list, err := m.ListStrategies(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemory_PositionsAndWallet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id := seedStrategy(t, m).ID

	_, err := m.GetWallet(ctx, id)
	assert.True(t, errors.Is(err, contracts.ErrNotFound))

	require.NoError(t, m.UpsertWallet(ctx, &contracts.Wallet{StrategyID: id, CashBalance: decimal.NewFromInt(500)}))
	assert.Error(t, m.UpsertWallet(ctx, &contracts.Wallet{StrategyID: id, CashBalance: decimal.NewFromInt(-1)}))

	wallet, err := m.GetWallet(ctx, id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(wallet.CashBalance))

	p := &contracts.Position{StrategyID: id, StockCode: "TCS", Qty: 5, AvgBuyPrice: decimal.NewFromInt(100)}
	require.NoError(t, m.CreatePosition(ctx, p))
	assert.Error(t, m.CreatePosition(ctx, p), "duplicate (strategy, code)")
	assert.Error(t, m.CreatePosition(ctx, &contracts.Position{StrategyID: id, StockCode: "Z", Qty: 0, AvgBuyPrice: decimal.NewFromInt(1)}))

	held, err := m.ListPositions(ctx, id)
	require.NoError(t, err)
	assert.Len(t, held, 1)

	require.NoError(t, m.DeletePosition(ctx, id, "TCS"))
	assert.True(t, errors.Is(m.DeletePosition(ctx, id, "TCS"), contracts.ErrNotFound))
}

func TestMemory_LedgerOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id := seedStrategy(t, m).ID
	other := uuid.New()

	for _, code := range []string{"A", "B", "C"} {
		require.NoError(t, m.InsertTransaction(ctx, &contracts.Transaction{StrategyID: id, StockCode: code, Action: contracts.ActionBuy, Qty: 1}))
	}
	require.NoError(t, m.InsertTransaction(ctx, &contracts.Transaction{StrategyID: other, StockCode: "X", Action: contracts.ActionBuy, Qty: 1}))

	txns, err := m.ListTransactions(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "C", txns[0].StockCode)
	assert.Equal(t, "B", txns[1].StockCode)

	for i := 1; i <= 3; i++ {
		require.NoError(t, m.InsertSnapshot(ctx, &contracts.NetWorthSnapshot{StrategyID: id, TotalNetWorth: decimal.NewFromInt(int64(i))}))
	}

	snaps, err := m.ListSnapshots(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.True(t, decimal.NewFromInt(2).Equal(snaps[0].TotalNetWorth))
	assert.True(t, decimal.NewFromInt(3).Equal(snaps[1].TotalNetWorth))
}

func TestMemory_WithinTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id := seedStrategy(t, m).ID
	require.NoError(t, m.UpsertWallet(ctx, &contracts.Wallet{StrategyID: id, CashBalance: decimal.NewFromInt(100)}))

	m.FailOn(OpInsertSnapshot, errors.New("disk full"))

	err := m.WithinTx(ctx, func(ctx context.Context, tx contracts.Repository) error {
		if err := tx.CreatePosition(ctx, &contracts.Position{StrategyID: id, StockCode: "TCS", Qty: 1, AvgBuyPrice: decimal.NewFromInt(10)}); err != nil {
			return err
		}
		if err := tx.UpsertWallet(ctx, &contracts.Wallet{StrategyID: id, CashBalance: decimal.NewFromInt(90)}); err != nil {
			return err
		}
		return tx.InsertSnapshot(ctx, &contracts.NetWorthSnapshot{StrategyID: id})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	held, err := m.ListPositions(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, held)

	wallet, err := m.GetWallet(ctx, id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(wallet.CashBalance))
}

func TestMemory_WithinTx_Commits(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id := seedStrategy(t, m).ID

	err := m.WithinTx(ctx, func(ctx context.Context, tx contracts.Repository) error {
		return tx.CreatePosition(ctx, &contracts.Position{StrategyID: id, StockCode: "TCS", Qty: 1, AvgBuyPrice: decimal.NewFromInt(10)})
	})
	require.NoError(t, err)

	held, err := m.ListPositions(ctx, id)
	require.NoError(t, err)
	assert.Len(t, held, 1)
}

func TestMemory_WithinTx_FailOnDuringTx(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id := seedStrategy(t, m).ID
	m.FailOn(OpInsertSnapshot, errors.New("disk full"))

	tests := []struct {
		name    string
		during  func()
		wantErr string
	}{
		{"cleared while running keeps the armed failure", func() { m.FailOn(OpInsertSnapshot, nil) }, "disk full"},
		{"armed while running does not reach the working copy", func() { m.FailOn(OpInsertSnapshot, errors.New("late")) }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.WithinTx(ctx, func(ctx context.Context, tx contracts.Repository) error {
				var wg sync.WaitGroup
				wg.Add(1)
				go func() {
					defer wg.Done()
					tt.during()
				}()
				wg.Wait()
				return tx.InsertSnapshot(ctx, &contracts.NetWorthSnapshot{StrategyID: id})
			})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	// the failure armed during the second run applies from the next call on
	err := m.InsertSnapshot(ctx, &contracts.NetWorthSnapshot{StrategyID: id})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "late")
}
