package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/catalyst-alpha/internal/contracts"
)

// PriceRepository stores adjusted daily closes in market.daily_closes
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// DailyCloses returns the stored closes of symbol over [from, to), oldest first
func (r *PriceRepository) DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error) {
	query := `
		SELECT trade_date, adj_close
		FROM market.daily_closes
		WHERE symbol = $1 AND trade_date >= $2 AND trade_date < $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, contracts.CivilDate(from), contracts.CivilDate(to))
	if err != nil {
		return nil, fmt.Errorf("query closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	points := []contracts.PricePoint{}
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Date, &p.AdjClose); err != nil {
			return nil, fmt.Errorf("scan close for %s: %w", symbol, err)
		}
		p.Date = contracts.CivilDate(p.Date)
		points = append(points, p)
	}
	return points, rows.Err()
}

// UpsertCloses saves closes for one symbol (bulk upsert)
func (r *PriceRepository) UpsertCloses(ctx context.Context, symbol, source string, points []contracts.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	query := `
		INSERT INTO market.daily_closes (symbol, trade_date, adj_close, source, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			adj_close = EXCLUDED.adj_close,
			source = EXCLUDED.source,
			updated_at = NOW()
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range points {
		if _, err := tx.Exec(ctx, query, symbol, contracts.CivilDate(p.Date), p.AdjClose, source); err != nil {
			return fmt.Errorf("upsert close for %s on %s: %w", symbol, p.Date.Format(contracts.DateLayout), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Symbols lists every symbol with stored closes
func (r *PriceRepository) Symbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT symbol FROM market.daily_closes ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}
