package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/smart-portfolio/internal/contracts"
)

// RecordRepository handles the trade journal and its effect on holdings
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// RecordBuy inserts a buy record. For averaging_down against an existing
// stock the cost basis and quantity are recomputed in the same transaction.
func (r *RecordRepository) RecordBuy(ctx context.Context, rec *contracts.BuyRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rec.ID = uuid.NewString()
	err = tx.QueryRow(ctx, `
		INSERT INTO buy_records (id, stock_id, symbol, name, buy_price, quantity, type, buy_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, rec.ID, rec.StockID, rec.Symbol, rec.Name, rec.BuyPrice, rec.Quantity, string(rec.Type), rec.BuyDate,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert buy record: %w", err)
	}

	if rec.StockID != nil && rec.Type == contracts.BuyTypeAveragingDown {
		var avg, qty float64
		err := tx.QueryRow(ctx,
			`SELECT avg_price, quantity FROM stocks WHERE id = $1 FOR UPDATE`, *rec.StockID,
		).Scan(&avg, &qty)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// 종목이 이미 삭제됨 → 기록만 남김
		case err != nil:
			return fmt.Errorf("failed to load stock: %w", err)
		default:
			newAvg, newQty := AverageDown(avg, qty, rec.BuyPrice, rec.Quantity)
			_, err := tx.Exec(ctx,
				`UPDATE stocks SET avg_price = $2, quantity = $3, updated_at = NOW() WHERE id = $1`,
				*rec.StockID, newAvg, newQty,
			)
			if err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecordSell inserts a sell record and reduces the referenced holding.
// A holding that drops to zero or below is removed.
func (r *RecordRepository) RecordSell(ctx context.Context, rec *contracts.SellRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rec.ID = uuid.NewString()
	err = tx.QueryRow(ctx, `
		INSERT INTO sell_records (id, stock_id, symbol, name, sell_price, quantity, profit, profit_rate, sell_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, rec.ID, rec.StockID, rec.Symbol, rec.Name, rec.SellPrice, rec.Quantity, rec.Profit, rec.ProfitRate, rec.SellDate,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sell record: %w", err)
	}

	if rec.StockID != nil {
		var qty float64
		err := tx.QueryRow(ctx,
			`SELECT quantity FROM stocks WHERE id = $1 FOR UPDATE`, *rec.StockID,
		).Scan(&qty)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to load stock: %w", err)
		default:
			remaining := RemainingQuantity(qty, rec.Quantity)
			if remaining <= 0 {
				_, err = tx.Exec(ctx, `DELETE FROM stocks WHERE id = $1`, *rec.StockID)
			} else {
				_, err = tx.Exec(ctx,
					`UPDATE stocks SET quantity = $2, updated_at = NOW() WHERE id = $1`,
					*rec.StockID, remaining,
				)
			}
			if err != nil {
				return fmt.Errorf("failed to apply sell to stock: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListBuys returns buy records, newest first
func (r *RecordRepository) ListBuys(ctx context.Context) ([]contracts.BuyRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stock_id, symbol, name, buy_price, quantity, type, buy_date, created_at
		FROM buy_records ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query buy records: %w", err)
	}
	defer rows.Close()

	records := make([]contracts.BuyRecord, 0)
	for rows.Next() {
		var rec contracts.BuyRecord
		var typ string
		if err := rows.Scan(&rec.ID, &rec.StockID, &rec.Symbol, &rec.Name, &rec.BuyPrice,
			&rec.Quantity, &typ, &rec.BuyDate, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan buy record: %w", err)
		}
		rec.Type = contracts.BuyType(typ)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating buy records: %w", err)
	}
	return records, nil
}

// ListSells returns sell records, newest first
func (r *RecordRepository) ListSells(ctx context.Context) ([]contracts.SellRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stock_id, symbol, name, sell_price, quantity, profit, profit_rate, sell_date, created_at
		FROM sell_records ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sell records: %w", err)
	}
	defer rows.Close()

	records := make([]contracts.SellRecord, 0)
	for rows.Next() {
		var rec contracts.SellRecord
		if err := rows.Scan(&rec.ID, &rec.StockID, &rec.Symbol, &rec.Name, &rec.SellPrice,
			&rec.Quantity, &rec.Profit, &rec.ProfitRate, &rec.SellDate, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sell record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sell records: %w", err)
	}
	return records, nil
}

// AverageDown returns the new cost basis and quantity after buying addQty
// more shares at price. Computed in decimal to keep the basis stable over
// repeated 물타기.
func AverageDown(avg, qty, price, addQty float64) (float64, float64) {
	totalQty := decimal.NewFromFloat(qty).Add(decimal.NewFromFloat(addQty))
	if totalQty.IsZero() {
		return avg, qty
	}

	totalCost := decimal.NewFromFloat(avg).Mul(decimal.NewFromFloat(qty)).
		Add(decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(addQty)))

	return totalCost.DivRound(totalQty, 8).InexactFloat64(), totalQty.InexactFloat64()
}

// RemainingQuantity is held minus sold, in decimal
func RemainingQuantity(held, sold float64) float64 {
	return decimal.NewFromFloat(held).Sub(decimal.NewFromFloat(sold)).InexactFloat64()
}
