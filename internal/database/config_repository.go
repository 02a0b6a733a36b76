package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ohlcx/candlefeed/internal/models"
)

// ConfigRepository owns the enable/disable reference tables for trading
// pairs and sampling intervals. These tables are the single source of truth
// for pair/interval availability; everything else consumes them through the
// cached scheduler config.
type ConfigRepository struct {
	pool DatabasePool
}

// NewConfigRepository creates a new config registry repository.
func NewConfigRepository(pool DatabasePool) *ConfigRepository {
	return &ConfigRepository{pool: pool}
}

// ListPairs returns all pairs, enabled or not.
func (r *ConfigRepository) ListPairs(ctx context.Context) ([]models.SupportedPair, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, base_asset, quote_asset, enabled, created_at FROM supported_pairs ORDER BY symbol`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}
	defer rows.Close()

	var pairs []models.SupportedPair
	for rows.Next() {
		var p models.SupportedPair
		if err := rows.Scan(&p.ID, &p.Symbol, &p.BaseAsset, &p.QuoteAsset, &p.Enabled, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// AddPair inserts a new pair, enabled by default.
func (r *ConfigRepository) AddPair(ctx context.Context, symbol, baseAsset, quoteAsset string) (*models.SupportedPair, error) {
	var p models.SupportedPair
	err := r.pool.QueryRow(ctx,
		`INSERT INTO supported_pairs (symbol, base_asset, quote_asset, enabled)
		 VALUES ($1, $2, $3, true)
		 RETURNING id, symbol, base_asset, quote_asset, enabled, created_at`,
		symbol, baseAsset, quoteAsset,
	).Scan(&p.ID, &p.Symbol, &p.BaseAsset, &p.QuoteAsset, &p.Enabled, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add pair %s: %w", symbol, err)
	}
	return &p, nil
}

// SetPairEnabled flips the enabled flag for a pair.
func (r *ConfigRepository) SetPairEnabled(ctx context.Context, id int64, enabled bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE supported_pairs SET enabled = $2 WHERE id = $1`, id, enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to update pair %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: pair %d", models.ErrNotFound, id)
	}
	return nil
}

// DeletePair removes a pair from the registry.
func (r *ConfigRepository) DeletePair(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM supported_pairs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pair %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: pair %d", models.ErrNotFound, id)
	}
	return nil
}

// ListIntervals returns all intervals, enabled or not.
func (r *ConfigRepository) ListIntervals(ctx context.Context) ([]models.SupportedInterval, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, interval_code, enabled, created_at FROM supported_intervals ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list intervals: %w", err)
	}
	defer rows.Close()

	var intervals []models.SupportedInterval
	for rows.Next() {
		var i models.SupportedInterval
		if err := rows.Scan(&i.ID, &i.IntervalCode, &i.Enabled, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		intervals = append(intervals, i)
	}
	return intervals, rows.Err()
}

// SetIntervalEnabled flips the enabled flag for an interval.
func (r *ConfigRepository) SetIntervalEnabled(ctx context.Context, id int64, enabled bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE supported_intervals SET enabled = $2 WHERE id = $1`, id, enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to update interval %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: interval %d", models.ErrNotFound, id)
	}
	return nil
}

// SchedulerConfig assembles the enabled-pairs and enabled-intervals read
// model served to the scheduler and to query validation.
func (r *ConfigRepository) SchedulerConfig(ctx context.Context) (*models.SchedulerConfig, error) {
	cfg := &models.SchedulerConfig{
		Pairs:     []models.SchedulerPair{},
		Intervals: []models.SchedulerInterval{},
	}

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, base_asset, quote_asset FROM supported_pairs WHERE enabled = true ORDER BY symbol`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query enabled pairs: %w", err)
	}
	for rows.Next() {
		var p models.SchedulerPair
		if err := rows.Scan(&p.Symbol, &p.BaseAsset, &p.QuoteAsset); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan enabled pair: %w", err)
		}
		cfg.Pairs = append(cfg.Pairs, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx,
		`SELECT interval_code FROM supported_intervals WHERE enabled = true ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query enabled intervals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var i models.SchedulerInterval
		if err := rows.Scan(&i.IntervalCode); err != nil {
			return nil, fmt.Errorf("failed to scan enabled interval: %w", err)
		}
		cfg.Intervals = append(cfg.Intervals, i)
	}

	return cfg, rows.Err()
}

// IsNoRows reports whether err is the pgx no-rows sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
