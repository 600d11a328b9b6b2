package contracts

import "context"

// MetricsSource is the external screening provider
// ⭐ SSOT: the only boundary to upstream market data
type MetricsSource interface {
	// FetchPage returns one page of candidate rows for a screen URL (page is 1-based)
	FetchPage(ctx context.Context, sourceURL string, page int) (*CandidatePage, error)

	// FetchCurrentPrice returns the live price of a stock
	FetchCurrentPrice(ctx context.Context, stockCode string) (float64, error)
}
