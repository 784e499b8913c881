package contracts

// DayCandle is one daily OHLCV bar
type DayCandle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// McapPoint is one market capitalisation sample
type McapPoint struct {
	Date string  `json:"date"`
	Mcap float64 `json:"mcap"`
}

// MarketData is the per-symbol snapshot the scorers consume.
// History and McapHistory are oldest-first.
// ⭐ SSOT: 시세 스냅샷 계약 (provider → scoring)
type MarketData struct {
	CurrentPrice    float64     `json:"currentPrice"`
	PreviousClose   float64     `json:"previousClose"`
	ChangeRate      float64     `json:"changeRate"`
	High52w         float64     `json:"high52w"`
	Low52w          float64     `json:"low52w"`
	Volume          float64     `json:"volume"`
	MarketCap       float64     `json:"marketCap"`
	History         []DayCandle `json:"history"`
	McapHistory     []McapPoint `json:"mcapHistory"`
	SectorName      string      `json:"sectorName"`
	SectorReturn20d float64     `json:"sectorReturn20d"` // %
	ForeignNetBuy5d float64     `json:"foreignNetBuy5d"` // 통화 단위
	InstNetBuy5d    float64     `json:"instNetBuy5d"`
}

// DefaultMarketData is the all-zero snapshot returned when a fetch fails
func DefaultMarketData() MarketData {
	return MarketData{
		History:     []DayCandle{},
		McapHistory: []McapPoint{},
	}
}

// Closes extracts closing prices, oldest first
func (m MarketData) Closes() []float64 {
	out := make([]float64, len(m.History))
	for i, c := range m.History {
		out[i] = c.Close
	}
	return out
}

// Lows extracts daily lows, oldest first
func (m MarketData) Lows() []float64 {
	out := make([]float64, len(m.History))
	for i, c := range m.History {
		out[i] = c.Low
	}
	return out
}

// Mcaps extracts market cap samples, oldest first
func (m MarketData) Mcaps() []float64 {
	out := make([]float64, len(m.McapHistory))
	for i, p := range m.McapHistory {
		out[i] = p.Mcap
	}
	return out
}

// NetFlow5d is foreign + institutional net buying over 5 sessions
func (m MarketData) NetFlow5d() float64 {
	return m.ForeignNetBuy5d + m.InstNetBuy5d
}
