package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/internal/engine"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command prints runs and rankings the same way
// ═══════════════════════════════════════════════════════════

const (
	ruleHeavy = "═══════════════════════════════════════════════════════════"
	ruleLight = "───────────────────────────────────────────────────────────"
)

// PrintHeader prints a titled section header
func PrintHeader(title string) {
	fmt.Println()
	fmt.Println(ruleHeavy)
	fmt.Printf("  %s\n", title)
	fmt.Println(ruleLight)
}

// PrintRunResult prints one run outcome
func PrintRunResult(r *engine.RunResult) {
	PrintHeader(fmt.Sprintf("Run %s", r.RunID))
	fmt.Printf("  Strategy  : %s\n", r.StrategyID)
	fmt.Printf("  State     : %s\n", r.State)
	fmt.Printf("  Duration  : %.2fs\n", r.Duration.Seconds())

	if !r.Success {
		fmt.Println(ruleLight)
		fmt.Printf("❌ %s: %s\n", r.ErrorKind, r.Error)
		return
	}

	fmt.Printf("  Candidates: %d\n", r.Candidates)
	fmt.Printf("  Target    : %s\n", joinOrDash(r.Target))
	fmt.Printf("  Sold      : %s\n", joinOrDash(r.Sold))
	if len(r.FallbackSells) > 0 {
		fmt.Printf("  Fallback  : %s\n", joinOrDash(r.FallbackSells))
	}
	fmt.Printf("  Bought    : %s\n", joinOrDash(r.Bought))
	for _, s := range r.Skipped {
		fmt.Printf("  Skipped   : %s (%s)\n", s.StockCode, s.Reason)
	}
	fmt.Println(ruleLight)

	for _, h := range r.Holdings {
		marker := ""
		if !h.Live {
			marker = " (at cost)"
		}
		fmt.Printf("  %-14s %6d × %12s = %14s%s\n", h.StockCode, h.Qty, h.Price.StringFixed(2), h.Value.StringFixed(2), marker)
	}
	fmt.Printf("  %-14s %37s\n", "Cash", r.Cash.StringFixed(2))
	fmt.Printf("  %-14s %37s\n", "Net worth", r.NetWorth.StringFixed(2))
	fmt.Println()
	fmt.Printf("✅ Completed with %d transactions\n", r.Transactions)
}

// PrintRanking prints ranked candidates as a table
func PrintRanking(ranked []contracts.RankedCandidate) {
	fmt.Printf("%-4s %-14s %-30s %10s %8s %8s\n", "#", "Code", "Company", "CMP", "P/E", "Score")
	fmt.Println(ruleLight)
	for _, c := range ranked {
		fmt.Printf("%-4d %-14s %-30s %10.2f %8.2f %8.4f\n",
			c.Rank, c.StockCode, truncate(c.CompanyName, 30), c.CMP, c.PE, c.Score)
	}
}

func joinOrDash(codes []string) string {
	if len(codes) == 0 {
		return "-"
	}
	return strings.Join(codes, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
