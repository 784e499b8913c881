package contracts

import (
	"fmt"
	"math"
	"time"
)

// Settings holds the user-tunable scoring weights and sell policy.
// Each weight is the max points its factor can contribute.
// ⭐ SSOT: 점수 가중치/정책은 이 구조체에서만 정의
type Settings struct {
	DailySellTarget   float64 `json:"daily_sell_target"`    // 일일 목표 수익 (통화)
	MinSellProfitRate float64 `json:"min_sell_profit_rate"` // %
	StopLossRate      float64 `json:"stop_loss_rate"`       // %, 아직 점수에 쓰이지 않음

	SellWPeak   float64 `json:"sell_w_peak"`
	SellWProfit float64 `json:"sell_w_profit"`
	SellWRSI    float64 `json:"sell_w_rsi"`
	SellWTrend  float64 `json:"sell_w_trend"`

	AvgWMcapTrend     float64 `json:"avg_w_mcap_trend"`
	AvgWMcapStability float64 `json:"avg_w_mcap_stability"`
	AvgWSector        float64 `json:"avg_w_sector"`
	AvgWFlow          float64 `json:"avg_w_flow"`
	AvgWTechnical     float64 `json:"avg_w_technical"`

	BuyWTargetGap     float64 `json:"buy_w_target_gap"`
	BuyWMcapTrend     float64 `json:"buy_w_mcap_trend"`
	BuyWMcapStability float64 `json:"buy_w_mcap_stability"`
	BuyWRSI           float64 `json:"buy_w_rsi"`
	BuyWSector        float64 `json:"buy_w_sector"`
	BuyWFlow          float64 `json:"buy_w_flow"`

	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// DefaultSettings is used when no settings record has been saved yet
func DefaultSettings() Settings {
	return Settings{
		DailySellTarget:   100000,
		MinSellProfitRate: 5,
		StopLossRate:      -10,

		SellWPeak:   40,
		SellWProfit: 30,
		SellWRSI:    20,
		SellWTrend:  10,

		AvgWMcapTrend:     30,
		AvgWMcapStability: 20,
		AvgWSector:        20,
		AvgWFlow:          15,
		AvgWTechnical:     15,

		BuyWTargetGap:     25,
		BuyWMcapTrend:     20,
		BuyWMcapStability: 15,
		BuyWRSI:           15,
		BuyWSector:        15,
		BuyWFlow:          10,
	}
}

// WeightGroup is one scorer's set of weights
type WeightGroup struct {
	Name    string
	Weights []float64
}

// Sum adds up the group's weights
func (g WeightGroup) Sum() float64 {
	total := 0.0
	for _, w := range g.Weights {
		total += w
	}
	return total
}

// WeightGroups returns the sell/averaging/buy groups
func (s Settings) WeightGroups() []WeightGroup {
	return []WeightGroup{
		{Name: "sell", Weights: []float64{s.SellWPeak, s.SellWProfit, s.SellWRSI, s.SellWTrend}},
		{Name: "averaging", Weights: []float64{s.AvgWMcapTrend, s.AvgWMcapStability, s.AvgWSector, s.AvgWFlow, s.AvgWTechnical}},
		{Name: "buy", Weights: []float64{s.BuyWTargetGap, s.BuyWMcapTrend, s.BuyWMcapStability, s.BuyWRSI, s.BuyWSector, s.BuyWFlow}},
	}
}

// Validate enforces the 100-point convention. Only the settings-edit path
// calls this; scorers accept whatever weights they are given.
func (s Settings) Validate() error {
	for _, g := range s.WeightGroups() {
		for _, w := range g.Weights {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("%s weights must be finite and non-negative", g.Name)
			}
		}
		if sum := g.Sum(); math.Abs(sum-100) > 1e-9 {
			return fmt.Errorf("%s weights must sum to 100 (got %g)", g.Name, sum)
		}
	}
	if s.DailySellTarget < 0 {
		return fmt.Errorf("daily_sell_target must not be negative")
	}
	return nil
}
