package screener

import (
	"context"

	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/pkg/logger"
)

// Paginator walks a screen page by page.
// It stops on an empty page, a missing next-page signal, a fetch error, or the page cap.
// A fetch error ends the sequence and is never returned: it means "fewer candidates".
type Paginator struct {
	source    contracts.MetricsSource
	sourceURL string
	maxPages  int
	logger    *logger.Logger

	page int
	done bool
}

// NewPaginator creates a Paginator starting at page 1
func NewPaginator(source contracts.MetricsSource, sourceURL string, maxPages int, log *logger.Logger) *Paginator {
	return &Paginator{
		source:    source,
		sourceURL: sourceURL,
		maxPages:  maxPages,
		logger:    log,
	}
}

// Next returns the rows of the next page, or false once the sequence is exhausted
func (p *Paginator) Next(ctx context.Context) ([]contracts.StockMetrics, bool) {
	if p.done {
		return nil, false
	}
	if p.maxPages > 0 && p.page >= p.maxPages {
		p.logger.WithField("max_pages", p.maxPages).Warn("Screen page cap reached")
		p.done = true
		return nil, false
	}

	p.page++
	result, err := p.source.FetchPage(ctx, p.sourceURL, p.page)
	if err != nil {
		p.logger.WithError(err).WithField("page", p.page).Warn("Screen page fetch failed, stopping pagination")
		p.done = true
		return nil, false
	}

	if len(result.Rows) == 0 {
		p.done = true
		return nil, false
	}

	if !result.HasNext {
		p.done = true
	}
	return result.Rows, true
}

// Pages returns how many pages were requested so far
func (p *Paginator) Pages() int {
	return p.page
}

// Collect drains the paginator and returns every row gathered
func Collect(ctx context.Context, p *Paginator) []contracts.StockMetrics {
	var all []contracts.StockMetrics
	for {
		rows, ok := p.Next(ctx)
		if !ok {
			break
		}
		all = append(all, rows...)
	}
	return all
}
