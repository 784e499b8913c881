package commands

import (
	"fmt"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/internal/external/naver"
	"github.com/wonny/smart-portfolio/internal/external/yahoo"
	"github.com/wonny/smart-portfolio/internal/market"
	"github.com/wonny/smart-portfolio/internal/store"
	"github.com/wonny/smart-portfolio/pkg/config"
	"github.com/wonny/smart-portfolio/pkg/database"
	"github.com/wonny/smart-portfolio/pkg/httputil"
	"github.com/wonny/smart-portfolio/pkg/logger"
	"github.com/wonny/smart-portfolio/pkg/redis"
)

// repositories is the storage backend chosen at startup
type repositories struct {
	stocks    contracts.StockRepository
	watchlist contracts.WatchlistRepository
	settings  contracts.SettingsRepository
	records   contracts.RecordRepository
	close     func()
}

// loadConfig loads config and a logger; --verbose forces debug level
func loadConfig(opts ...config.Option) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// openRepositories connects to PostgreSQL, or uses the in-memory store
func openRepositories(cfg *config.Config, memory bool) (*repositories, error) {
	if memory {
		mem := store.NewMemory()
		return &repositories{
			stocks:    mem.Stocks,
			watchlist: mem.Watchlist,
			settings:  mem.Settings,
			records:   mem.Records,
			close:     func() {},
		}, nil
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &repositories{
		stocks:    store.NewStockRepository(db.Pool),
		watchlist: store.NewWatchlistRepository(db.Pool),
		settings:  store.NewSettingsRepository(db.Pool),
		records:   store.NewRecordRepository(db.Pool),
		close:     db.Close,
	}, nil
}

// newMarketProvider wires Naver/Yahoo behind the shared HTTP client and cache
func newMarketProvider(cfg *config.Config, log *logger.Logger) (*market.Provider, func(), error) {
	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	httpClient := httputil.New(cfg, log)
	provider := market.NewProvider(
		naver.NewClient(httpClient, cfg.Naver, log),
		yahoo.NewClient(httpClient, cfg.Yahoo, log),
		redis.NewCache(redisClient, "portfolio"),
		cfg.Market.CacheTTL,
		log,
	)

	return provider, func() { redisClient.Close() }, nil
}
