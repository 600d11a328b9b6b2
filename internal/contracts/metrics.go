package contracts

// StockMetrics is one row of the screener result table. Unparsable cells are 0.
type StockMetrics struct {
	StockCode     string  `json:"stock_code"`
	CompanyName   string  `json:"company_name"`
	CMP           float64 `json:"cmp"` // current market price
	PE            float64 `json:"pe"`
	MarketCap     float64 `json:"market_cap"`
	DividendYield float64 `json:"div_yld"`
	ROCE          float64 `json:"roce"`
	QtrProfitVar  float64 `json:"qtr_profit_var"`
	QtrSalesVar   float64 `json:"qtr_sales_var"`
	ROCE3Yr       float64 `json:"roce_3yr"`
	ProfitVar3Yrs float64 `json:"profit_var_3yrs"`
	SalesVar3Yrs  float64 `json:"sales_var_3yrs"`
}

// NormalizedMetrics holds each scored field rescaled to [0,1] within one candidate set.
// InvertedPE is 1 - normalized P/E.
type NormalizedMetrics struct {
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

// Score returns Σ weight_i * normalized_i
func (n NormalizedMetrics) Score(w Weights) float64 {
	return w.ROCE*n.ROCE +
		w.ROCE3Yr*n.ROCE3Yr +
		w.QtrProfitVar*n.QtrProfitVar +
		w.QtrSalesVar*n.QtrSalesVar +
		w.ProfitVar3Yrs*n.ProfitVar3Yrs +
		w.SalesVar3Yrs*n.SalesVar3Yrs +
		w.DividendYield*n.DividendYield +
		w.MarketCap*n.MarketCap +
		w.InvertedPE*n.InvertedPE
}

// RankedCandidate is a scored candidate with its 1-based rank
type RankedCandidate struct {
	StockMetrics
	Normalized NormalizedMetrics `json:"normalized"`
	Score      float64           `json:"score"`
	Rank       int               `json:"rank"`
}

// CandidatePage is one fetched page of screener rows
type CandidatePage struct {
	Page    int            `json:"page"`
	Rows    []StockMetrics `json:"rows"`
	HasNext bool           `json:"has_next"`
}
