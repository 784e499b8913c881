package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Market identifies the exchange family a symbol trades on
type Market string

const (
	MarketKR Market = "KR"
	MarketUS Market = "US"
)

// ParseMarket normalises "kr"/"US"/... into a Market
func ParseMarket(s string) (Market, error) {
	switch Market(strings.ToUpper(strings.TrimSpace(s))) {
	case MarketKR:
		return MarketKR, nil
	case MarketUS:
		return MarketUS, nil
	default:
		return "", fmt.Errorf("unknown market %q (want KR or US)", s)
	}
}

// Stock is a held position
// ⭐ SSOT: 보유 종목 엔티티
type Stock struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Market    Market    `json:"market"`
	AvgPrice  float64   `json:"avg_price"` // 평단가
	Quantity  float64   `json:"quantity"`
	BuyDate   string    `json:"buy_date,omitempty"` // YYYY-MM-DD
	Memo      string    `json:"memo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields a caller must supply on create/update
func (s *Stock) Validate() error {
	if strings.TrimSpace(s.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := ParseMarket(string(s.Market)); err != nil {
		return err
	}
	if s.AvgPrice < 0 {
		return fmt.Errorf("avg_price must not be negative")
	}
	if s.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	return validateDate("buy_date", s.BuyDate, true)
}

// WatchCategory classifies a watchlist entry
type WatchCategory string

const (
	CategoryBuyInterest WatchCategory = "buy_interest" // 매수 관심
	CategoryMonitoring  WatchCategory = "monitoring"   // 단순 모니터링
)

// WatchlistItem is a watched (not held) symbol
type WatchlistItem struct {
	ID          string        `json:"id"`
	Symbol      string        `json:"symbol"`
	Name        string        `json:"name"`
	Market      Market        `json:"market"`
	TargetPrice *float64      `json:"target_price,omitempty"`
	Category    WatchCategory `json:"category"`
	Memo        string        `json:"memo,omitempty"`
	Tags        []string      `json:"tags"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Validate checks required fields and defaults the category
func (w *WatchlistItem) Validate() error {
	if strings.TrimSpace(w.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := ParseMarket(string(w.Market)); err != nil {
		return err
	}
	if w.Category == "" {
		w.Category = CategoryMonitoring
	}
	if w.Category != CategoryBuyInterest && w.Category != CategoryMonitoring {
		return fmt.Errorf("category must be buy_interest or monitoring")
	}
	if w.TargetPrice != nil && *w.TargetPrice < 0 {
		return fmt.Errorf("target_price must not be negative")
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	return nil
}

// BuyType distinguishes a fresh position from 물타기
type BuyType string

const (
	BuyTypeNew           BuyType = "new_buy"
	BuyTypeAveragingDown BuyType = "averaging_down"
)

// BuyRecord is a journal entry for a purchase
type BuyRecord struct {
	ID        string    `json:"id"`
	StockID   *string   `json:"stock_id,omitempty"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	BuyPrice  float64   `json:"buy_price"`
	Quantity  float64   `json:"quantity"`
	Type      BuyType   `json:"type"`
	BuyDate   string    `json:"buy_date"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks a buy record before insert
func (b *BuyRecord) Validate() error {
	if strings.TrimSpace(b.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if b.BuyPrice <= 0 || b.Quantity <= 0 {
		return fmt.Errorf("buy_price and quantity must be positive")
	}
	if b.Type != BuyTypeNew && b.Type != BuyTypeAveragingDown {
		return fmt.Errorf("type must be new_buy or averaging_down")
	}
	return validateDate("buy_date", b.BuyDate, false)
}

// SellRecord is a journal entry for a (partial) sale
type SellRecord struct {
	ID         string    `json:"id"`
	StockID    *string   `json:"stock_id,omitempty"`
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	SellPrice  float64   `json:"sell_price"`
	Quantity   float64   `json:"quantity"`
	Profit     float64   `json:"profit"`
	ProfitRate float64   `json:"profit_rate"`
	SellDate   string    `json:"sell_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks a sell record before insert
func (s *SellRecord) Validate() error {
	if strings.TrimSpace(s.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if s.SellPrice <= 0 || s.Quantity <= 0 {
		return fmt.Errorf("sell_price and quantity must be positive")
	}
	return validateDate("sell_date", s.SellDate, false)
}

func validateDate(field, value string, optional bool) error {
	if value == "" {
		if optional {
			return nil
		}
		return fmt.Errorf("%s is required", field)
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("%s must be YYYY-MM-DD", field)
	}
	return nil
}
