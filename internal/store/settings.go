package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/smart-portfolio/internal/contracts"
)

// SettingsRepository handles the single settings row (id = 1)
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the saved settings, or (nil, nil) if none were saved yet
func (r *SettingsRepository) Get(ctx context.Context) (*contracts.Settings, error) {
	var s contracts.Settings
	err := r.pool.QueryRow(ctx, `
		SELECT daily_sell_target, min_sell_profit_rate, stop_loss_rate,
			sell_w_peak, sell_w_profit, sell_w_rsi, sell_w_trend,
			avg_w_mcap_trend, avg_w_mcap_stability, avg_w_sector, avg_w_flow, avg_w_technical,
			buy_w_target_gap, buy_w_mcap_trend, buy_w_mcap_stability, buy_w_rsi, buy_w_sector, buy_w_flow,
			updated_at
		FROM settings WHERE id = 1
	`).Scan(
		&s.DailySellTarget, &s.MinSellProfitRate, &s.StopLossRate,
		&s.SellWPeak, &s.SellWProfit, &s.SellWRSI, &s.SellWTrend,
		&s.AvgWMcapTrend, &s.AvgWMcapStability, &s.AvgWSector, &s.AvgWFlow, &s.AvgWTechnical,
		&s.BuyWTargetGap, &s.BuyWMcapTrend, &s.BuyWMcapStability, &s.BuyWRSI, &s.BuyWSector, &s.BuyWFlow,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &s, nil
}

// Save upserts the settings row
func (r *SettingsRepository) Save(ctx context.Context, s *contracts.Settings) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO settings (
			id, daily_sell_target, min_sell_profit_rate, stop_loss_rate,
			sell_w_peak, sell_w_profit, sell_w_rsi, sell_w_trend,
			avg_w_mcap_trend, avg_w_mcap_stability, avg_w_sector, avg_w_flow, avg_w_technical,
			buy_w_target_gap, buy_w_mcap_trend, buy_w_mcap_stability, buy_w_rsi, buy_w_sector, buy_w_flow,
			updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
		ON CONFLICT (id) DO UPDATE SET
			daily_sell_target = EXCLUDED.daily_sell_target,
			min_sell_profit_rate = EXCLUDED.min_sell_profit_rate,
			stop_loss_rate = EXCLUDED.stop_loss_rate,
			sell_w_peak = EXCLUDED.sell_w_peak,
			sell_w_profit = EXCLUDED.sell_w_profit,
			sell_w_rsi = EXCLUDED.sell_w_rsi,
			sell_w_trend = EXCLUDED.sell_w_trend,
			avg_w_mcap_trend = EXCLUDED.avg_w_mcap_trend,
			avg_w_mcap_stability = EXCLUDED.avg_w_mcap_stability,
			avg_w_sector = EXCLUDED.avg_w_sector,
			avg_w_flow = EXCLUDED.avg_w_flow,
			avg_w_technical = EXCLUDED.avg_w_technical,
			buy_w_target_gap = EXCLUDED.buy_w_target_gap,
			buy_w_mcap_trend = EXCLUDED.buy_w_mcap_trend,
			buy_w_mcap_stability = EXCLUDED.buy_w_mcap_stability,
			buy_w_rsi = EXCLUDED.buy_w_rsi,
			buy_w_sector = EXCLUDED.buy_w_sector,
			buy_w_flow = EXCLUDED.buy_w_flow,
			updated_at = NOW()
		RETURNING updated_at
	`,
		s.DailySellTarget, s.MinSellProfitRate, s.StopLossRate,
		s.SellWPeak, s.SellWProfit, s.SellWRSI, s.SellWTrend,
		s.AvgWMcapTrend, s.AvgWMcapStability, s.AvgWSector, s.AvgWFlow, s.AvgWTechnical,
		s.BuyWTargetGap, s.BuyWMcapTrend, s.BuyWMcapStability, s.BuyWRSI, s.BuyWSector, s.BuyWFlow,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
