package ranking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/pkg/logger"
)

func TestBounds_Normalize(t *testing.T) {
	b := Bounds{Min: 10, Max: 30}
	assert.Equal(t, 0.0, b.Normalize(10))
	assert.Equal(t, 0.5, b.Normalize(20))
	assert.Equal(t, 1.0, b.Normalize(30))

	// Degenerate range
	assert.Equal(t, 0.0, Bounds{Min: 5, Max: 5}.Normalize(5))
}

func TestNormalize_RangeAndInvertedPE(t *testing.T) {
	candidates := []contracts.StockMetrics{
		{StockCode: "A", PE: 10, ROCE: 10, MarketCap: 100, DividendYield: 1},
		{StockCode: "B", PE: 20, ROCE: 25, MarketCap: 100, DividendYield: 3},
		{StockCode: "C", PE: 40, ROCE: -5, MarketCap: 100, DividendYield: 2},
	}

	norm := Normalize(candidates)
	require.Len(t, norm, 3)

	for i, n := range norm {
		for name, v := range map[string]float64{
			"roce": n.ROCE, "roce3yr": n.ROCE3Yr, "qtrProfit": n.QtrProfitVar,
			"qtrSales": n.QtrSalesVar, "profit3": n.ProfitVar3Yrs, "sales3": n.SalesVar3Yrs,
			"div": n.DividendYield, "mcap": n.MarketCap, "invPE": n.InvertedPE,
		} {
			assert.GreaterOrEqual(t, v, 0.0, "candidate %d field %s", i, name)
			assert.LessOrEqual(t, v, 1.0, "candidate %d field %s", i, name)
		}
	}

	// Lowest P/E gets the highest inverted score
	assert.Equal(t, 1.0, norm[0].InvertedPE)
	assert.Equal(t, 0.0, norm[2].InvertedPE)
	assert.Greater(t, norm[0].InvertedPE, norm[1].InvertedPE)
	assert.Greater(t, norm[1].InvertedPE, norm[2].InvertedPE)

	assert.Equal(t, 1.0, norm[1].ROCE)
	assert.Equal(t, 0.0, norm[2].ROCE)
	assert.Equal(t, 0.5, norm[0].ROCE)

	// Every market cap equal: degenerate field is 0 for everyone
	for _, n := range norm {
		assert.Equal(t, 0.0, n.MarketCap)
		assert.Equal(t, 0.0, n.QtrSalesVar)
	}
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
}

func makeCandidates(n int) []contracts.StockMetrics {
	out := make([]contracts.StockMetrics, n)
	for i := 0; i < n; i++ {
		out[i] = contracts.StockMetrics{
			StockCode: fmt.Sprintf("S%02d", i),
			ROCE:      float64(i),
			PE:        float64(100 - i),
			CMP:       100,
		}
	}
	return out
}

func TestRanker_TopNSortedUnique(t *testing.T) {
	ranker := NewRanker(10, logger.Nop())

	candidates := makeCandidates(25)
	// Duplicate code appearing on a later page
	candidates = append(candidates, contracts.StockMetrics{StockCode: "S24", ROCE: 1000})

	ranked := ranker.Rank(candidates, contracts.DefaultWeights())
	require.Len(t, ranked, 10)

	seen := map[string]bool{}
	for i, rc := range ranked {
		assert.Equal(t, i+1, rc.Rank)
		assert.False(t, seen[rc.StockCode], "duplicate %s", rc.StockCode)
		seen[rc.StockCode] = true
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Score, rc.Score)
		}
	}

	// Highest ROCE and lowest P/E wins; the duplicate row was ignored
	assert.Equal(t, "S24", ranked[0].StockCode)
	assert.Equal(t, 24.0, ranked[0].ROCE)
}

func TestRanker_FewerThanTopN(t *testing.T) {
	ranker := NewRanker(10, logger.Nop())

	ranked := ranker.Rank(makeCandidates(3), contracts.DefaultWeights())
	assert.Len(t, ranked, 3)
}

func TestRanker_EmptyInput(t *testing.T) {
	ranker := NewRanker(10, logger.Nop())
	assert.Empty(t, ranker.Rank(nil, contracts.DefaultWeights()))
}

func TestRanker_TiesKeepFetchOrder(t *testing.T) {
	ranker := NewRanker(10, logger.Nop())

	candidates := []contracts.StockMetrics{
		{StockCode: "FIRST", ROCE: 10},
		{StockCode: "SECOND", ROCE: 10},
		{StockCode: "LOW", ROCE: 0},
	}
	ranked := ranker.Rank(candidates, contracts.Weights{ROCE: 1})

	require.Len(t, ranked, 3)
	assert.Equal(t, "FIRST", ranked[0].StockCode)
	assert.Equal(t, "SECOND", ranked[1].StockCode)
	assert.Equal(t, "LOW", ranked[2].StockCode)
}

func TestRanker_WeightsChangeOrder(t *testing.T) {
	ranker := NewRanker(1, logger.Nop())

	candidates := []contracts.StockMetrics{
		{StockCode: "CHEAP", PE: 5, ROCE: 10},
		{StockCode: "QUALITY", PE: 50, ROCE: 40},
	}

	byValue := ranker.Rank(candidates, contracts.Weights{InvertedPE: 1})
	require.Len(t, byValue, 1)
	assert.Equal(t, "CHEAP", byValue[0].StockCode)

	byQuality := ranker.Rank(candidates, contracts.Weights{ROCE: 1})
	require.Len(t, byQuality, 1)
	assert.Equal(t, "QUALITY", byQuality[0].StockCode)
}

func TestNewRanker_DefaultTopN(t *testing.T) {
	assert.Equal(t, DefaultTopN, NewRanker(0, logger.Nop()).topN)
}
