package contracts

// ScoreBreakdown is one weighted factor of a composite score
type ScoreBreakdown struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Score    int     `json:"score"` // round(contribution), independently of the total
	MaxScore float64 `json:"maxScore"`
	Detail   string  `json:"detail"`
	Color    string  `json:"color"`
}

// SellStatus is the qualitative label of a sell score
type SellStatus string

const (
	StatusStrongRecommend SellStatus = "strong-recommend" // 강력추천
	StatusRecommend       SellStatus = "recommend"        // 추천
	StatusConsider        SellStatus = "consider"         // 고려
	StatusHold            SellStatus = "hold"             // 보유
)

// BuySignal is the qualitative label of a buy score
type BuySignal string

const (
	SignalBuyNear BuySignal = "buy-near" // 매수 근접
	SignalWatch   BuySignal = "watch"    // 관심
	SignalClose   BuySignal = "close"    // 근접
	SignalWait    BuySignal = "wait"     // 대기
)

// ScoredStock is a held position plus its derived sell/averaging view.
// Never persisted.
type ScoredStock struct {
	Stock

	CurrentPrice float64          `json:"currentPrice"`
	ProfitRate   float64          `json:"profitRate"`
	ProfitAmount float64          `json:"profitAmount"`
	TotalScore   int              `json:"totalScore"`
	Breakdown    []ScoreBreakdown `json:"breakdown"`
	High52w      float64          `json:"high52w,omitempty"`
	RSI          float64          `json:"rsi"`

	// sell only
	Status         SellStatus `json:"status,omitempty"`
	SellQty        float64    `json:"sellQty"`
	SellAmount     float64    `json:"sellAmount"`
	ExpectedProfit float64    `json:"expectedProfit"`
}

// BreakdownSum adds up the individually rounded factor scores
func (s ScoredStock) BreakdownSum() int {
	return sumBreakdown(s.Breakdown)
}

// ScoredWatchItem is a watchlist entry plus its buy-timing view
type ScoredWatchItem struct {
	WatchlistItem

	CurrentPrice float64          `json:"currentPrice"`
	ChangeRate   float64          `json:"changeRate"`
	GapRate      float64          `json:"gapRate"`
	TotalScore   int              `json:"totalScore"`
	Breakdown    []ScoreBreakdown `json:"breakdown"`
	Signal       BuySignal        `json:"signal"`
}

// BreakdownSum adds up the individually rounded factor scores
func (s ScoredWatchItem) BreakdownSum() int {
	return sumBreakdown(s.Breakdown)
}

func sumBreakdown(items []ScoreBreakdown) int {
	total := 0
	for _, b := range items {
		total += b.Score
	}
	return total
}
