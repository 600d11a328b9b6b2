package ranking

import (
	"gonum.org/v1/gonum/floats"

	"github.com/wonny/papertrade/internal/contracts"
)

// Bounds is the min/max of one field across a candidate set
type Bounds struct {
	Min float64
	Max float64
}

// Normalize rescales v into [0,1]. A degenerate range (min == max) maps to 0.
func (b Bounds) Normalize(v float64) float64 {
	if b.Max == b.Min {
		return 0
	}
	return (v - b.Min) / (b.Max - b.Min)
}

func boundsOf(values []float64) Bounds {
	return Bounds{Min: floats.Min(values), Max: floats.Max(values)}
}

// SetBounds holds per-field bounds of one run's candidate set
type SetBounds struct {
	PE            Bounds
	MarketCap     Bounds
	DividendYield Bounds
	ROCE          Bounds
	QtrProfitVar  Bounds
	QtrSalesVar   Bounds
	ROCE3Yr       Bounds
	ProfitVar3Yrs Bounds
	SalesVar3Yrs  Bounds
}

// ComputeBounds derives bounds from the full candidate set. Empty input yields zero bounds.
func ComputeBounds(candidates []contracts.StockMetrics) SetBounds {
	if len(candidates) == 0 {
		return SetBounds{}
	}

	column := func(get func(m *contracts.StockMetrics) float64) Bounds {
		values := make([]float64, len(candidates))
		for i := range candidates {
			values[i] = get(&candidates[i])
		}
		return boundsOf(values)
	}

	return SetBounds{
		PE:            column(func(m *contracts.StockMetrics) float64 { return m.PE }),
		MarketCap:     column(func(m *contracts.StockMetrics) float64 { return m.MarketCap }),
		DividendYield: column(func(m *contracts.StockMetrics) float64 { return m.DividendYield }),
		ROCE:          column(func(m *contracts.StockMetrics) float64 { return m.ROCE }),
		QtrProfitVar:  column(func(m *contracts.StockMetrics) float64 { return m.QtrProfitVar }),
		QtrSalesVar:   column(func(m *contracts.StockMetrics) float64 { return m.QtrSalesVar }),
		ROCE3Yr:       column(func(m *contracts.StockMetrics) float64 { return m.ROCE3Yr }),
		ProfitVar3Yrs: column(func(m *contracts.StockMetrics) float64 { return m.ProfitVar3Yrs }),
		SalesVar3Yrs:  column(func(m *contracts.StockMetrics) float64 { return m.SalesVar3Yrs }),
	}
}

// Apply normalizes one candidate against the set bounds
func (b SetBounds) Apply(m contracts.StockMetrics) contracts.NormalizedMetrics {
	return contracts.NormalizedMetrics{
		ROCE:          b.ROCE.Normalize(m.ROCE),
		ROCE3Yr:       b.ROCE3Yr.Normalize(m.ROCE3Yr),
		QtrProfitVar:  b.QtrProfitVar.Normalize(m.QtrProfitVar),
		QtrSalesVar:   b.QtrSalesVar.Normalize(m.QtrSalesVar),
		ProfitVar3Yrs: b.ProfitVar3Yrs.Normalize(m.ProfitVar3Yrs),
		SalesVar3Yrs:  b.SalesVar3Yrs.Normalize(m.SalesVar3Yrs),
		DividendYield: b.DividendYield.Normalize(m.DividendYield),
		MarketCap:     b.MarketCap.Normalize(m.MarketCap),
		// Lower P/E is better
		InvertedPE: 1 - b.PE.Normalize(m.PE),
	}
}

// Normalize returns the normalized metrics of every candidate, index-aligned with the input
func Normalize(candidates []contracts.StockMetrics) []contracts.NormalizedMetrics {
	bounds := ComputeBounds(candidates)

	out := make([]contracts.NormalizedMetrics, len(candidates))
	for i, c := range candidates {
		out[i] = bounds.Apply(c)
	}
	return out
}
