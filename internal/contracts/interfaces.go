package contracts

import "context"

// MarketDataProvider supplies per-symbol snapshots.
// It never fails: on any error it returns DefaultMarketData().
// ⭐ SSOT: 시세 조회 인터페이스
type MarketDataProvider interface {
	Fetch(ctx context.Context, symbol string, market Market) MarketData
}

// StockRepository persists held positions
type StockRepository interface {
	List(ctx context.Context) ([]Stock, error)
	Get(ctx context.Context, id string) (*Stock, error)
	Create(ctx context.Context, s *Stock) error
	Update(ctx context.Context, s *Stock) error
	Delete(ctx context.Context, id string) error
}

// WatchlistRepository persists watched symbols
type WatchlistRepository interface {
	List(ctx context.Context) ([]WatchlistItem, error)
	ListByCategory(ctx context.Context, category WatchCategory) ([]WatchlistItem, error)
	Get(ctx context.Context, id string) (*WatchlistItem, error)
	Create(ctx context.Context, w *WatchlistItem) error
	Update(ctx context.Context, w *WatchlistItem) error
	Delete(ctx context.Context, id string) error
}

// SettingsRepository persists the single settings record.
// Get returns (nil, nil) when nothing has been saved yet.
type SettingsRepository interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

// RecordRepository persists the trade journal and applies its side effects
// on the referenced stock (average-down recompute, quantity reduction).
type RecordRepository interface {
	RecordBuy(ctx context.Context, r *BuyRecord) error
	RecordSell(ctx context.Context, r *SellRecord) error
	ListBuys(ctx context.Context) ([]BuyRecord, error)
	ListSells(ctx context.Context) ([]SellRecord, error)
}
