// Package dashboard fans scoring out over every held or watched symbol and
// assembles the ranked candidate lists the UI shows.
package dashboard

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/internal/scoring"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// Kind selects the scorer used for a held position
type Kind string

const (
	KindSell      Kind = "sell"
	KindAveraging Kind = "averaging"
)

// ParseKind validates a kind from a URL or CLI argument
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSell, KindAveraging:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown score kind %q", s)
	}
}

// Service orchestrates market fetch → score → rank
// ⭐ SSOT: 점수 후보 목록 조립은 여기서만
type Service struct {
	stocks      contracts.StockRepository
	watchlist   contracts.WatchlistRepository
	settings    contracts.SettingsRepository
	market      contracts.MarketDataProvider
	concurrency int
	logger      *logger.Logger
}

// NewService creates a dashboard service.
// concurrency bounds the number of symbols fetched/scored at once.
func NewService(
	stocks contracts.StockRepository,
	watchlist contracts.WatchlistRepository,
	settings contracts.SettingsRepository,
	market contracts.MarketDataProvider,
	concurrency int,
	log *logger.Logger,
) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		stocks:      stocks,
		watchlist:   watchlist,
		settings:    settings,
		market:      market,
		concurrency: concurrency,
		logger:      log,
	}
}

// Settings returns the saved settings, or the defaults when none exist
func (s *Service) Settings(ctx context.Context) (contracts.Settings, error) {
	saved, err := s.settings.Get(ctx)
	if err != nil {
		return contracts.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if saved == nil {
		return contracts.DefaultSettings(), nil
	}
	return *saved, nil
}

// SellCandidates scores every held stock for selling, keeps those at or
// above the minimum profit rate, ranks them and allocates the daily target.
func (s *Service) SellCandidates(ctx context.Context) ([]contracts.ScoredStock, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	scored, err := s.scoreStocks(ctx, settings, scoring.Sell)
	if err != nil {
		return nil, err
	}

	candidates := filterStocks(scored, func(st contracts.ScoredStock) bool {
		return st.ProfitRate >= settings.MinSellProfitRate
	})
	sortStocks(candidates)

	allocated := scoring.AllocateSell(candidates, settings.DailySellTarget)

	s.logger.WithFields(map[string]interface{}{
		"held":       len(scored),
		"candidates": len(allocated),
		"target":     settings.DailySellTarget,
	}).Debug("Sell candidates scored")

	return allocated, nil
}

// AveragingCandidates scores losing positions for 물타기
func (s *Service) AveragingCandidates(ctx context.Context) ([]contracts.ScoredStock, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	scored, err := s.scoreStocks(ctx, settings, scoring.Averaging)
	if err != nil {
		return nil, err
	}

	candidates := filterStocks(scored, func(st contracts.ScoredStock) bool {
		return st.ProfitRate < 0
	})
	sortStocks(candidates)

	return candidates, nil
}

// BuyCandidates scores the buy_interest watchlist
func (s *Service) BuyCandidates(ctx context.Context) ([]contracts.ScoredWatchItem, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.watchlist.ListByCategory(ctx, contracts.CategoryBuyInterest)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}

	scored := make([]contracts.ScoredWatchItem, len(items))
	err = s.fanOut(ctx, len(items), func(ctx context.Context, i int) {
		md := s.market.Fetch(ctx, items[i].Symbol, items[i].Market)
		scored[i] = scoring.Buy(items[i], settings, md)
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].TotalScore > scored[j].TotalScore
	})

	return scored, nil
}

// ScoreStock scores a single held stock (detail view). No filtering and,
// for sell, no allocation.
func (s *Service) ScoreStock(ctx context.Context, id string, kind Kind) (*contracts.ScoredStock, error) {
	stock, err := s.stocks.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	md := s.market.Fetch(ctx, stock.Symbol, stock.Market)

	var scored contracts.ScoredStock
	switch kind {
	case KindAveraging:
		scored = scoring.Averaging(*stock, settings, md)
	default:
		scored = scoring.Sell(*stock, settings, md)
	}
	return &scored, nil
}

// ScoreWatchItem scores a single watchlist entry regardless of category
func (s *Service) ScoreWatchItem(ctx context.Context, id string) (*contracts.ScoredWatchItem, error) {
	item, err := s.watchlist.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	md := s.market.Fetch(ctx, item.Symbol, item.Market)
	scored := scoring.Buy(*item, settings, md)
	return &scored, nil
}

type stockScorer func(contracts.Stock, contracts.Settings, contracts.MarketData) contracts.ScoredStock

func (s *Service) scoreStocks(ctx context.Context, settings contracts.Settings, score stockScorer) ([]contracts.ScoredStock, error) {
	stocks, err := s.stocks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}

	scored := make([]contracts.ScoredStock, len(stocks))
	err = s.fanOut(ctx, len(stocks), func(ctx context.Context, i int) {
		md := s.market.Fetch(ctx, stocks[i].Symbol, stocks[i].Market)
		scored[i] = score(stocks[i], settings, md)
	})
	if err != nil {
		return nil, err
	}
	return scored, nil
}

// fanOut runs fn for 0..n-1 with bounded parallelism. Each call owns its
// slot; Wait is the only synchronisation point.
func (s *Service) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("score fan-out: %w", err)
	}
	return nil
}

func filterStocks(in []contracts.ScoredStock, keep func(contracts.ScoredStock) bool) []contracts.ScoredStock {
	out := make([]contracts.ScoredStock, 0, len(in))
	for _, st := range in {
		if keep(st) {
			out = append(out, st)
		}
	}
	return out
}

func sortStocks(list []contracts.ScoredStock) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].TotalScore > list[j].TotalScore
	})
}
