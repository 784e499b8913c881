package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/smart-portfolio/internal/api"
	"github.com/wonny/smart-portfolio/internal/api/handlers"
	"github.com/wonny/smart-portfolio/internal/auth"
	"github.com/wonny/smart-portfolio/internal/dashboard"
	"github.com/wonny/smart-portfolio/internal/scheduler"
	"github.com/wonny/smart-portfolio/internal/scheduler/jobs"
	"github.com/wonny/smart-portfolio/pkg/config"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버와 백그라운드 스케줄러를 시작합니다.

Endpoints:
  GET  /health
  POST /api/auth/login | /api/auth/logout
  CRUD /api/stocks, /api/watchlist
  GET  /api/settings   PUT /api/settings
  GET  /api/records/{buy|sell}   POST /api/records/{buy|sell}
  GET  /api/score/{sell|averaging|buy}[/{id}]
  GET  /api/market/{market}/{symbol}
  WS   /ws/scores

Example:
  go run ./cmd/portfolio api
  go run ./cmd/portfolio api --port 9000 --memory`,
	RunE: runAPIServer,
}

var (
	apiPort   string
	apiMemory bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값: PORT)")
	apiCmd.Flags().BoolVar(&apiMemory, "memory", false, "DB 없이 메모리 저장소로 실행 (재시작 시 초기화)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	var opts []config.Option
	if apiMemory {
		opts = append(opts, config.WithoutDatabase())
	}

	cfg, log, err := loadConfig(opts...)
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":   cfg.Port,
		"env":    cfg.Env,
		"memory": apiMemory,
	}).Info("Initializing API server")

	// 1. Storage
	repos, err := openRepositories(cfg, apiMemory)
	if err != nil {
		return err
	}
	defer repos.close()

	// 2. Market data
	provider, closeProvider, err := newMarketProvider(cfg, log)
	if err != nil {
		return err
	}
	defer closeProvider()

	// 3. Services
	svc := dashboard.NewService(repos.stocks, repos.watchlist, repos.settings, provider, cfg.Market.ScoreConcurrency, log)
	authn := auth.New(cfg, log)
	hub := handlers.NewHub(log)

	// 4. Router + server
	router := api.NewRouter(api.Handlers{
		Auth:      handlers.NewAuthHandler(authn, log),
		Stocks:    handlers.NewStockHandler(repos.stocks, log),
		Watchlist: handlers.NewWatchlistHandler(repos.watchlist, log),
		Settings:  handlers.NewSettingsHandler(repos.settings, log),
		Records:   handlers.NewRecordHandler(repos.records, log),
		Scores:    handlers.NewScoreHandler(svc, log),
		Market:    handlers.NewMarketHandler(provider, log),
		Hub:       hub,
	}, authn, log)
	server := api.New(cfg, log, router)

	// 5. Scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(log)
		for _, job := range []scheduler.Job{
			jobs.NewMarketWarmupJob(repos.stocks, repos.watchlist, provider, cfg.Scheduler.WarmupSchedule, cfg.Market.ScoreConcurrency, log),
			jobs.NewScoreBroadcastJob(svc, hub, cfg.Scheduler.BroadcastSchedule, log),
			jobs.NewCacheCleanupJob(provider, log),
		} {
			if err := sched.AddJob(job); err != nil {
				return fmt.Errorf("register job: %w", err)
			}
		}
		sched.Start()
	}

	// 6. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if sched != nil {
			sched.Stop()
		}
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	if sched != nil {
		sched.Stop()
		stats := sched.GetJobStats()
		for _, name := range sched.GetAllJobs() {
			st := stats[name]
			log.WithFields(map[string]interface{}{
				"job":          name,
				"runs":         st.TotalRuns,
				"failures":     st.FailureCount,
				"success_rate": st.SuccessRate,
			}).Info("Job summary")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
