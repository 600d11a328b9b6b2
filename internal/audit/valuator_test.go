package audit

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/pkg/logger"
)

type mapQuoter map[string]decimal.Decimal

func (q mapQuoter) Current(ctx context.Context, code string) (decimal.Decimal, bool) {
	p, ok := q[code]
	return p, ok
}

func TestValuator_Value(t *testing.T) {
	positions := []contracts.Position{
		{StockCode: "LIVE", Qty: 10, AvgBuyPrice: decimal.NewFromInt(100)},
		{StockCode: "STALE", Qty: 4, AvgBuyPrice: decimal.NewFromInt(250)},
	}
	quoter := mapQuoter{"LIVE": decimal.NewFromInt(120)}

	val := NewValuator(quoter, logger.Nop()).Value(context.Background(), decimal.NewFromInt(500), positions)

	// 10*120 + 4*250
	assert.True(t, decimal.NewFromInt(2200).Equal(val.HoldingsValue), "holdings %s", val.HoldingsValue)
	assert.True(t, decimal.NewFromInt(2700).Equal(val.NetWorth), "net worth %s", val.NetWorth)
	assert.True(t, decimal.NewFromInt(500).Equal(val.Cash))

	require.Len(t, val.Holdings, 2)
	assert.True(t, val.Holdings[0].Live)
	assert.False(t, val.Holdings[1].Live)
	assert.True(t, decimal.NewFromInt(250).Equal(val.Holdings[1].Price))
}

func TestValuator_NoPositions(t *testing.T) {
	val := NewValuator(mapQuoter{}, logger.Nop()).Value(context.Background(), decimal.NewFromInt(1000000), nil)

	assert.True(t, val.HoldingsValue.IsZero())
	assert.True(t, decimal.NewFromInt(1000000).Equal(val.NetWorth))
	assert.Empty(t, val.Holdings)
}
