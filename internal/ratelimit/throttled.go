package ratelimit

import (
	"context"

	"github.com/wonny/papertrade/internal/contracts"
)

// ThrottledSource wraps a MetricsSource so every upstream call passes through a Gate.
// Page fetches and price lookups have separate gates.
type ThrottledSource struct {
	next      contracts.MetricsSource
	pageGate  *Gate
	priceGate *Gate
}

// Throttle decorates source with the given gates
func Throttle(source contracts.MetricsSource, pageGate, priceGate *Gate) *ThrottledSource {
	return &ThrottledSource{
		next:      source,
		pageGate:  pageGate,
		priceGate: priceGate,
	}
}

// FetchPage waits on the page gate, then delegates
func (t *ThrottledSource) FetchPage(ctx context.Context, sourceURL string, page int) (*contracts.CandidatePage, error) {
	if err := t.pageGate.Wait(ctx); err != nil {
		return nil, err
	}
	return t.next.FetchPage(ctx, sourceURL, page)
}

// FetchCurrentPrice waits on the price gate, then delegates
func (t *ThrottledSource) FetchCurrentPrice(ctx context.Context, stockCode string) (float64, error) {
	if err := t.priceGate.Wait(ctx); err != nil {
		return 0, err
	}
	return t.next.FetchCurrentPrice(ctx, stockCode)
}
