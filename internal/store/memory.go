package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/smart-portfolio/internal/contracts"
)

// Memory is an in-process implementation of every repository with the same
// limits and record side effects as the PostgreSQL one. Used by tests and by
// `portfolio api --memory` for local runs without a database.
type Memory struct {
	mu        sync.Mutex
	stocks    []contracts.Stock // insertion order
	watchlist []contracts.WatchlistItem
	settings  *contracts.Settings
	buys      []contracts.BuyRecord
	sells     []contracts.SellRecord

	Stocks    *MemoryStocks
	Watchlist *MemoryWatchlist
	Settings  *MemorySettings
	Records   *MemoryRecords
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	m := &Memory{}
	m.Stocks = &MemoryStocks{m: m}
	m.Watchlist = &MemoryWatchlist{m: m}
	m.Settings = &MemorySettings{m: m}
	m.Records = &MemoryRecords{m: m}
	return m
}

// MemoryStocks implements contracts.StockRepository
type MemoryStocks struct{ m *Memory }

func (r *MemoryStocks) List(ctx context.Context) ([]contracts.Stock, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := make([]contracts.Stock, 0, len(r.m.stocks))
	for i := len(r.m.stocks) - 1; i >= 0; i-- {
		out = append(out, r.m.stocks[i])
	}
	return out, nil
}

func (r *MemoryStocks) Get(ctx context.Context, id string) (*contracts.Stock, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if i := r.m.stockIndex(id); i >= 0 {
		s := r.m.stocks[i]
		return &s, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryStocks) Create(ctx context.Context, s *contracts.Stock) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if len(r.m.stocks) >= MaxStocks {
		return errStockLimit
	}
	now := time.Now()
	s.ID = uuid.NewString()
	s.CreatedAt, s.UpdatedAt = now, now
	r.m.stocks = append(r.m.stocks, *s)
	return nil
}

func (r *MemoryStocks) Update(ctx context.Context, s *contracts.Stock) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	i := r.m.stockIndex(s.ID)
	if i < 0 {
		return ErrNotFound
	}
	s.CreatedAt = r.m.stocks[i].CreatedAt
	s.UpdatedAt = time.Now()
	r.m.stocks[i] = *s
	return nil
}

func (r *MemoryStocks) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	i := r.m.stockIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	r.m.stocks = append(r.m.stocks[:i], r.m.stocks[i+1:]...)
	return nil
}

// MemoryWatchlist implements contracts.WatchlistRepository
type MemoryWatchlist struct{ m *Memory }

func (r *MemoryWatchlist) List(ctx context.Context) ([]contracts.WatchlistItem, error) {
	return r.filter(func(contracts.WatchlistItem) bool { return true }), nil
}

func (r *MemoryWatchlist) ListByCategory(ctx context.Context, category contracts.WatchCategory) ([]contracts.WatchlistItem, error) {
	return r.filter(func(w contracts.WatchlistItem) bool { return w.Category == category }), nil
}

func (r *MemoryWatchlist) Get(ctx context.Context, id string) (*contracts.WatchlistItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if i := r.m.watchIndex(id); i >= 0 {
		w := r.m.watchlist[i]
		return &w, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryWatchlist) Create(ctx context.Context, w *contracts.WatchlistItem) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if len(r.m.watchlist) >= MaxWatchlist {
		return errWatchlistLimit
	}
	now := time.Now()
	w.ID = uuid.NewString()
	w.CreatedAt, w.UpdatedAt = now, now
	r.m.watchlist = append(r.m.watchlist, *w)
	return nil
}

func (r *MemoryWatchlist) Update(ctx context.Context, w *contracts.WatchlistItem) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	i := r.m.watchIndex(w.ID)
	if i < 0 {
		return ErrNotFound
	}
	w.CreatedAt = r.m.watchlist[i].CreatedAt
	w.UpdatedAt = time.Now()
	r.m.watchlist[i] = *w
	return nil
}

func (r *MemoryWatchlist) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	i := r.m.watchIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	r.m.watchlist = append(r.m.watchlist[:i], r.m.watchlist[i+1:]...)
	return nil
}

func (r *MemoryWatchlist) filter(keep func(contracts.WatchlistItem) bool) []contracts.WatchlistItem {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := make([]contracts.WatchlistItem, 0, len(r.m.watchlist))
	for i := len(r.m.watchlist) - 1; i >= 0; i-- {
		if keep(r.m.watchlist[i]) {
			out = append(out, r.m.watchlist[i])
		}
	}
	return out
}

// MemorySettings implements contracts.SettingsRepository
type MemorySettings struct{ m *Memory }

func (r *MemorySettings) Get(ctx context.Context) (*contracts.Settings, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if r.m.settings == nil {
		return nil, nil
	}
	s := *r.m.settings
	return &s, nil
}

func (r *MemorySettings) Save(ctx context.Context, s *contracts.Settings) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	now := time.Now()
	s.UpdatedAt = &now
	saved := *s
	r.m.settings = &saved
	return nil
}

// MemoryRecords implements contracts.RecordRepository
type MemoryRecords struct{ m *Memory }

func (r *MemoryRecords) RecordBuy(ctx context.Context, rec *contracts.BuyRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now()
	r.m.buys = append(r.m.buys, *rec)

	if rec.StockID != nil && rec.Type == contracts.BuyTypeAveragingDown {
		if i := r.m.stockIndex(*rec.StockID); i >= 0 {
			s := &r.m.stocks[i]
			s.AvgPrice, s.Quantity = AverageDown(s.AvgPrice, s.Quantity, rec.BuyPrice, rec.Quantity)
			s.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *MemoryRecords) RecordSell(ctx context.Context, rec *contracts.SellRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now()
	r.m.sells = append(r.m.sells, *rec)

	if rec.StockID != nil {
		if i := r.m.stockIndex(*rec.StockID); i >= 0 {
			remaining := RemainingQuantity(r.m.stocks[i].Quantity, rec.Quantity)
			if remaining <= 0 {
				r.m.stocks = append(r.m.stocks[:i], r.m.stocks[i+1:]...)
			} else {
				r.m.stocks[i].Quantity = remaining
				r.m.stocks[i].UpdatedAt = time.Now()
			}
		}
	}
	return nil
}

func (r *MemoryRecords) ListBuys(ctx context.Context) ([]contracts.BuyRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := make([]contracts.BuyRecord, 0, len(r.m.buys))
	for i := len(r.m.buys) - 1; i >= 0; i-- {
		out = append(out, r.m.buys[i])
	}
	return out, nil
}

func (r *MemoryRecords) ListSells(ctx context.Context) ([]contracts.SellRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := make([]contracts.SellRecord, 0, len(r.m.sells))
	for i := len(r.m.sells) - 1; i >= 0; i-- {
		out = append(out, r.m.sells[i])
	}
	return out, nil
}

func (m *Memory) stockIndex(id string) int {
	for i := range m.stocks {
		if m.stocks[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) watchIndex(id string) int {
	for i := range m.watchlist {
		if m.watchlist[i].ID == id {
			return i
		}
	}
	return -1
}
