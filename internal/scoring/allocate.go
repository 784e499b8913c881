package scoring

import (
	"math"

	"github.com/wonny/smart-portfolio/internal/contracts"
)

// AllocateSell spreads dailyTarget over score-sorted candidates in a single
// left-to-right pass. Each candidate may claim 60/30/10% of the original
// target depending on its score tier, capped by what is still remaining and
// by the quantity held. Rounding the quantity up may overshoot; the overshoot
// is charged against the remaining budget.
//
// The input is not modified.
// ⭐ SSOT: 일일 목표 수익 배분
func AllocateSell(candidates []contracts.ScoredStock, dailyTarget float64) []contracts.ScoredStock {
	out := make([]contracts.ScoredStock, len(candidates))
	remaining := dailyTarget

	for i, c := range candidates {
		c.SellQty, c.SellAmount, c.ExpectedProfit = 0, 0, 0
		out[i] = c

		if remaining <= 0 || c.ProfitRate <= 0 {
			continue
		}

		perShare := c.CurrentPrice - c.AvgPrice
		if perShare <= 0 {
			continue
		}

		target := math.Min(remaining, dailyTarget*allocationRatio(c.TotalScore))
		qty := math.Min(math.Ceil(target/perShare), c.Quantity)

		out[i].SellQty = qty
		out[i].ExpectedProfit = qty * perShare
		out[i].SellAmount = qty * c.CurrentPrice

		remaining -= out[i].ExpectedProfit
	}

	return out
}

func allocationRatio(total int) float64 {
	switch {
	case total >= 90:
		return 0.6
	case total >= 70:
		return 0.3
	default:
		return 0.1
	}
}
