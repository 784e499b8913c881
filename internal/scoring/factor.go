// Package scoring turns a position or watch item plus a market snapshot into
// a weighted 0..100 score with a per-factor breakdown.
//
// Every factor follows the same shape: compute a raw metric, clamp it into a
// 0..100 sub-score, then scale by the configured weight. The total is rounded
// once from the unrounded contributions; each breakdown entry is rounded on
// its own, so the breakdown sum may drift from the total by up to n×0.5.
package scoring

import (
	"fmt"
	"math"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/internal/indicators"
)

// Display colors of the breakdown bars
const (
	colorRed    = "#EF4444"
	colorAmber  = "#F59E0B"
	colorGreen  = "#22C55E"
	colorBlue   = "#3B82F6"
	colorPurple = "#8B5CF6"
)

// 수급 점수 환산 단위 (1백억)
const flowUnit = 1e10

// factor is one normalize-then-weight term
type factor struct {
	name   string
	sub    float64 // 0..100
	weight float64
	detail string
	color  string
}

func (f factor) contribution() float64 {
	return f.sub / 100 * f.weight
}

// compose sums the factors into a total and an ordered breakdown
func compose(factors []factor) (int, []contracts.ScoreBreakdown) {
	sum := 0.0
	breakdown := make([]contracts.ScoreBreakdown, 0, len(factors))
	for _, f := range factors {
		c := f.contribution()
		sum += c
		breakdown = append(breakdown, contracts.ScoreBreakdown{
			Name:     f.name,
			Weight:   f.weight,
			Score:    roundHalfUp(c),
			MaxScore: f.weight,
			Detail:   f.detail,
			Color:    f.color,
		})
	}
	return roundHalfUp(sum), breakdown
}

// roundHalfUp rounds .5 toward +Inf
func roundHalfUp(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Floor(v + 0.5))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// profitRate is the % gain over cost basis, 0 when the cost basis is 0
func profitRate(price, avg float64) float64 {
	if avg == 0 {
		return 0
	}
	return (price - avg) / avg * 100
}

// mcapTrendRate compares the mean of the last 5 samples with the 5 before.
// When headFallback is set and there is no preceding window, the first 5
// samples are the baseline instead.
func mcapTrendRate(mcaps []float64, headFallback bool) float64 {
	if len(mcaps) < 5 {
		return 0
	}

	recent := indicators.MA(mcaps[len(mcaps)-5:], 5)

	start := len(mcaps) - 10
	if start < 0 {
		start = 0
	}
	prevWindow := mcaps[start : len(mcaps)-5]
	if len(prevWindow) == 0 && headFallback {
		prevWindow = mcaps[:5]
	}
	prev := indicators.MA(prevWindow, 5)

	if prev <= 0 {
		return 0
	}
	return (recent - prev) / prev * 100
}

func mcapTrendScore(rate float64) float64 {
	return clamp(rate*15+50, 0, 100)
}

// mcapStability scores low coefficient of variation higher
func mcapStability(mcaps []float64) (score, cv float64) {
	mean := indicators.Mean(mcaps)
	if mean > 0 {
		cv = indicators.StdDev(mcaps) / mean
	}
	return clamp((1-cv*20)*100, 0, 100), cv
}

func sectorScore(sectorReturn20d float64) float64 {
	return clamp(sectorReturn20d*10+50, 0, 100)
}

func signedPct(v float64) string {
	return fmt.Sprintf("%+.1f%%", v)
}
