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

const watchColumns = `id, symbol, name, market, target_price, category, memo, tags, created_at, updated_at`

// WatchlistRepository handles watched symbols
type WatchlistRepository struct {
	pool *pgxpool.Pool
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(pool *pgxpool.Pool) *WatchlistRepository {
	return &WatchlistRepository{pool: pool}
}

// List returns all items, newest first
func (r *WatchlistRepository) List(ctx context.Context) ([]contracts.WatchlistItem, error) {
	return r.query(ctx, `SELECT `+watchColumns+` FROM watchlist ORDER BY created_at DESC`)
}

// ListByCategory returns the items of one category, newest first
func (r *WatchlistRepository) ListByCategory(ctx context.Context, category contracts.WatchCategory) ([]contracts.WatchlistItem, error) {
	return r.query(ctx,
		`SELECT `+watchColumns+` FROM watchlist WHERE category = $1 ORDER BY created_at DESC`,
		string(category),
	)
}

// Get returns one item or ErrNotFound
func (r *WatchlistRepository) Get(ctx context.Context, id string) (*contracts.WatchlistItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+watchColumns+` FROM watchlist WHERE id = $1`, id)
	return scanWatchItem(row)
}

// Create inserts an item, enforcing MaxWatchlist
func (r *WatchlistRepository) Create(ctx context.Context, w *contracts.WatchlistItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE watchlist IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock watchlist: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM watchlist`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count watchlist: %w", err)
	}
	if count >= MaxWatchlist {
		return errWatchlistLimit
	}

	w.ID = uuid.NewString()
	err = tx.QueryRow(ctx, `
		INSERT INTO watchlist (id, symbol, name, market, target_price, category, memo, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, w.ID, w.Symbol, w.Name, string(w.Market), w.TargetPrice, string(w.Category), w.Memo, w.Tags,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert watchlist item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of an item
func (r *WatchlistRepository) Update(ctx context.Context, w *contracts.WatchlistItem) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE watchlist SET
			symbol = $2, name = $3, market = $4, target_price = $5, category = $6,
			memo = $7, tags = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, w.ID, w.Symbol, w.Name, string(w.Market), w.TargetPrice, string(w.Category), w.Memo, w.Tags,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update watchlist item: %w", err)
	}
	return nil
}

// Delete removes an item
func (r *WatchlistRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM watchlist WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WatchlistRepository) query(ctx context.Context, sql string, args ...interface{}) ([]contracts.WatchlistItem, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	items := make([]contracts.WatchlistItem, 0)
	for rows.Next() {
		w, err := scanWatchItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist: %w", err)
	}
	return items, nil
}

func scanWatchItem(row pgx.Row) (*contracts.WatchlistItem, error) {
	var w contracts.WatchlistItem
	var market, category string
	err := row.Scan(&w.ID, &w.Symbol, &w.Name, &market, &w.TargetPrice, &category,
		&w.Memo, &w.Tags, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
	}
	w.Market = contracts.Market(market)
	w.Category = contracts.WatchCategory(category)
	if w.Tags == nil {
		w.Tags = []string{}
	}
	return &w, nil
}
