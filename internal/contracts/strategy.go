package contracts

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// WeightStep is the granularity every weight must be a multiple of
	WeightStep = 0.05

	// WeightSumTolerance is how far Σw may drift from 1.0
	WeightSumTolerance = 1e-6
)

// Strategy is a named screening source plus the weighting applied to its candidates
// ⭐ SSOT: strategy definition
type Strategy struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SourceURL string    `json:"url"`
	Weights   *Weights  `json:"weights,omitempty"` // nil means DefaultWeights()
	OwnerID   string    `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveWeights returns the strategy's weights or the default vector
func (s *Strategy) EffectiveWeights() Weights {
	if s.Weights == nil {
		return DefaultWeights()
	}
	return *s.Weights
}

// Weights is the per-metric weighting of the composite score.
// P/E is weighted through its inverted normalization (lower P/E scores higher).
type Weights struct {
	ROCE          float64 `json:"roce"`
	ROCE3Yr       float64 `json:"roce_3yr"`
	QtrProfitVar  float64 `json:"qtr_profit_var"`
	QtrSalesVar   float64 `json:"qtr_sales_var"`
	ProfitVar3Yrs float64 `json:"profit_var_3yrs"`
	SalesVar3Yrs  float64 `json:"sales_var_3yrs"`
	DividendYield float64 `json:"div_yld"`
	MarketCap     float64 `json:"mar_cap"`
	InvertedPE    float64 `json:"inverted_pe"`
}

// DefaultWeights is the vector used when a strategy supplies none
func DefaultWeights() Weights {
	return Weights{
		ROCE:          0.15,
		ROCE3Yr:       0.15,
		QtrProfitVar:  0.10,
		QtrSalesVar:   0.10,
		ProfitVar3Yrs: 0.10,
		SalesVar3Yrs:  0.10,
		DividendYield: 0.05,
		MarketCap:     0.05,
		InvertedPE:    0.20,
	}
}

// Named returns the weights keyed by their JSON field names, in a fixed order
func (w Weights) Named() []NamedWeight {
	return []NamedWeight{
		{"roce", w.ROCE},
		{"roce_3yr", w.ROCE3Yr},
		{"qtr_profit_var", w.QtrProfitVar},
		{"qtr_sales_var", w.QtrSalesVar},
		{"profit_var_3yrs", w.ProfitVar3Yrs},
		{"sales_var_3yrs", w.SalesVar3Yrs},
		{"div_yld", w.DividendYield},
		{"mar_cap", w.MarketCap},
		{"inverted_pe", w.InvertedPE},
	}
}

// NamedWeight pairs a weight with its field name
type NamedWeight struct {
	Name  string
	Value float64
}

// Sum returns Σw
func (w Weights) Sum() float64 {
	var sum float64
	for _, nw := range w.Named() {
		sum += nw.Value
	}
	return sum
}

// Validate checks every weight is a multiple of WeightStep in [0,1] and Σw = 1.
// The returned error names the offending field.
func (w Weights) Validate() error {
	for _, nw := range w.Named() {
		// NaN compares false against every bound below
		if math.IsNaN(nw.Value) || math.IsInf(nw.Value, 0) {
			return &WeightError{Field: nw.Name, Message: fmt.Sprintf("must be a finite number, got %v", nw.Value)}
		}
		if nw.Value < 0 || nw.Value > 1 {
			return &WeightError{Field: nw.Name, Message: fmt.Sprintf("must be between 0 and 1, got %v", nw.Value)}
		}
		steps := nw.Value / WeightStep
		if math.Abs(steps-math.Round(steps)) > 1e-6 {
			return &WeightError{Field: nw.Name, Message: fmt.Sprintf("must be a multiple of %v, got %v", WeightStep, nw.Value)}
		}
	}

	if sum := w.Sum(); math.IsNaN(sum) || math.Abs(sum-1.0) > WeightSumTolerance {
		return &WeightError{Field: "weights", Message: fmt.Sprintf("must sum to 1.00, got %.4f", sum)}
	}
	return nil
}

// WeightError describes an invalid weight vector
type WeightError struct {
	Field   string
	Message string
}

func (e *WeightError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
