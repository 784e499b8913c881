package jobs

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// Refresher re-fetches a snapshot bypassing the cache
type Refresher interface {
	Refresh(ctx context.Context, symbol string, market contracts.Market) contracts.MarketData
}

// MarketWarmupJob refreshes market data for every held and watched symbol
// so dashboard requests hit a warm cache
type MarketWarmupJob struct {
	stocks      contracts.StockRepository
	watchlist   contracts.WatchlistRepository
	market      Refresher
	schedule    string
	concurrency int
	logger      *logger.Logger
}

// NewMarketWarmupJob creates a new market warm-up job
func NewMarketWarmupJob(
	stocks contracts.StockRepository,
	watchlist contracts.WatchlistRepository,
	market Refresher,
	schedule string,
	concurrency int,
	log *logger.Logger,
) *MarketWarmupJob {
	if concurrency < 1 {
		concurrency = 1
	}
	return &MarketWarmupJob{
		stocks:      stocks,
		watchlist:   watchlist,
		market:      market,
		schedule:    schedule,
		concurrency: concurrency,
		logger:      log,
	}
}

// Name returns the job name
func (j *MarketWarmupJob) Name() string {
	return "market_warmup"
}

// Schedule returns the cron schedule
func (j *MarketWarmupJob) Schedule() string {
	return j.schedule
}

type symbolKey struct {
	symbol string
	market contracts.Market
}

// Run refreshes each distinct (symbol, market) once
func (j *MarketWarmupJob) Run(ctx context.Context) error {
	targets, err := j.targets(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, t := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			j.market.Refresh(gctx, t.symbol, t.market)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("market warmup: %w", err)
	}

	j.logger.WithField("symbols", len(targets)).Debug("Market data warmed up")
	return nil
}

func (j *MarketWarmupJob) targets(ctx context.Context) ([]symbolKey, error) {
	stocks, err := j.stocks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	items, err := j.watchlist.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}

	seen := make(map[symbolKey]bool, len(stocks)+len(items))
	var out []symbolKey
	add := func(symbol string, market contracts.Market) {
		k := symbolKey{symbol: symbol, market: market}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, s := range stocks {
		add(s.Symbol, s.Market)
	}
	for _, w := range items {
		add(w.Symbol, w.Market)
	}
	return out, nil
}
