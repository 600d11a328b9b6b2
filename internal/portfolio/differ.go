package portfolio

import "github.com/wonny/papertrade/internal/contracts"

// Diff is the rebalancing delta between holdings H and the ranked target T
type Diff struct {
	Sell []contracts.Position        // H \ T
	Buy  []contracts.RankedCandidate // T \ H, in rank order
	Keep []contracts.Position        // H ∩ T, never resized
}

// Compute diffs holdings against the target by stock code
func Compute(held []contracts.Position, target []contracts.RankedCandidate) Diff {
	targetCodes := make(map[string]struct{}, len(target))
	for _, t := range target {
		targetCodes[t.StockCode] = struct{}{}
	}
	heldCodes := make(map[string]struct{}, len(held))

	var d Diff
	for _, h := range held {
		heldCodes[h.StockCode] = struct{}{}
		if _, ok := targetCodes[h.StockCode]; ok {
			d.Keep = append(d.Keep, h)
		} else {
			d.Sell = append(d.Sell, h)
		}
	}

	for _, t := range target {
		if _, ok := heldCodes[t.StockCode]; !ok {
			d.Buy = append(d.Buy, t)
		}
	}
	return d
}

// Empty reports whether no trades are needed
func (d Diff) Empty() bool {
	return len(d.Sell) == 0 && len(d.Buy) == 0
}
