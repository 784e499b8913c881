// Package store persists stocks, the watchlist, settings and the trade
// journal in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/smart-portfolio/internal/contracts"
)

const stockColumns = `id, symbol, name, market, avg_price, quantity, buy_date, memo, created_at, updated_at`

// StockRepository handles held positions
// ⭐ SSOT: 보유 종목 저장/조회는 여기서만
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository creates a new stock repository
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

// List returns all stocks, newest first
func (r *StockRepository) List(ctx context.Context) ([]contracts.Stock, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+stockColumns+` FROM stocks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	stocks := make([]contracts.Stock, 0)
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}

	return stocks, nil
}

// Get returns one stock or ErrNotFound
func (r *StockRepository) Get(ctx context.Context, id string) (*contracts.Stock, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+stockColumns+` FROM stocks WHERE id = $1`, id)
	return scanStock(row)
}

// Create inserts a stock, enforcing MaxStocks
func (r *StockRepository) Create(ctx context.Context, s *contracts.Stock) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// 동시 등록 시 개수 제한이 깨지지 않도록 테이블 잠금
	if _, err := tx.Exec(ctx, `LOCK TABLE stocks IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock stocks: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM stocks`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count stocks: %w", err)
	}
	if count >= MaxStocks {
		return errStockLimit
	}

	s.ID = uuid.NewString()
	err = tx.QueryRow(ctx, `
		INSERT INTO stocks (id, symbol, name, market, avg_price, quantity, buy_date, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, s.ID, s.Symbol, s.Name, string(s.Market), s.AvgPrice, s.Quantity, s.BuyDate, s.Memo,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of a stock
func (r *StockRepository) Update(ctx context.Context, s *contracts.Stock) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE stocks SET
			symbol = $2, name = $3, market = $4, avg_price = $5, quantity = $6,
			buy_date = $7, memo = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, s.ID, s.Symbol, s.Name, string(s.Market), s.AvgPrice, s.Quantity, s.BuyDate, s.Memo,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return nil
}

// Delete removes a stock
func (r *StockRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStock(row pgx.Row) (*contracts.Stock, error) {
	var s contracts.Stock
	var market string
	err := row.Scan(&s.ID, &s.Symbol, &s.Name, &market, &s.AvgPrice, &s.Quantity,
		&s.BuyDate, &s.Memo, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock: %w", err)
	}
	s.Market = contracts.Market(market)
	return &s, nil
}
