package ranking

import (
	"sort"

	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/pkg/logger"
)

// DefaultTopN is how many candidates a strategy holds
const DefaultTopN = 10

// Ranker scores candidates by a weight vector and keeps the top N
// ⭐ SSOT: ranking logic lives here only
type Ranker struct {
	topN   int
	logger *logger.Logger
}

// NewRanker creates a new ranker. topN < 1 falls back to DefaultTopN.
func NewRanker(topN int, log *logger.Logger) *Ranker {
	if topN < 1 {
		topN = DefaultTopN
	}
	return &Ranker{
		topN:   topN,
		logger: log,
	}
}

// Rank normalizes the candidate set, scores it with weights and returns at most topN,
// sorted by score descending. Ties keep fetch order. Empty input returns nil.
func (r *Ranker) Rank(candidates []contracts.StockMetrics, weights contracts.Weights) []contracts.RankedCandidate {
	candidates = dedupe(candidates)
	if len(candidates) == 0 {
		return nil
	}

	normalized := Normalize(candidates)

	ranked := make([]contracts.RankedCandidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = contracts.RankedCandidate{
			StockMetrics: c,
			Normalized:   normalized[i],
			Score:        normalized[i].Score(weights),
		}
	}

	// Sort by score (descending)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > r.topN {
		ranked = ranked[:r.topN]
	}

	// Assign ranks
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	r.logger.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"selected":   len(ranked),
		"top_score":  ranked[0].Score,
		"top_code":   ranked[0].StockCode,
	}).Info("Ranking completed")

	return ranked
}

// dedupe keeps the first occurrence of each stock code
func dedupe(candidates []contracts.StockMetrics) []contracts.StockMetrics {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]contracts.StockMetrics, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.StockCode]; ok {
			continue
		}
		seen[c.StockCode] = struct{}{}
		out = append(out, c)
	}
	return out
}
