package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/catalyst-alpha/internal/contracts"
)

// ErrRunNotFound is returned when a run id is not stored
var ErrRunNotFound = errors.New("study run not found")

// ResultRepository stores study runs and their per-event records
// ⭐ SSOT: 스터디 결과 저장/조회는 여기서만
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new result repository
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveRun writes the run header and its records in one transaction.
// Record order is kept in the seq column.
func (r *ResultRepository) SaveRun(ctx context.Context, run contracts.StudyRun, records []contracts.ResultRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO study.runs (
			run_id, benchmark, estimation_window, lead_days, lag_days,
			event_count, skipped_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.RunID, run.Benchmark, run.EstimationWindow, run.LeadDays, run.LagDays,
		run.EventCount, run.SkippedCount, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	query := `
		INSERT INTO study.car_results (
			run_id, seq, ticker, event_date, quality_score, catalyst_type, car, realized_return
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, rec := range records {
		_, err := tx.Exec(ctx, query, run.RunID, i, rec.Ticker, rec.EventDate,
			rec.QualityScore, rec.CatalystType, rec.CAR, rec.RealizedReturn)
		if err != nil {
			return fmt.Errorf("insert result for %s: %w", rec.Ticker, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetRun retrieves a run header
func (r *ResultRepository) GetRun(ctx context.Context, runID string) (*contracts.StudyRun, error) {
	query := `
		SELECT run_id, benchmark, estimation_window, lead_days, lag_days,
		       event_count, skipped_count, created_at
		FROM study.runs
		WHERE run_id = $1
	`

	var run contracts.StudyRun
	err := r.pool.QueryRow(ctx, query, runID).Scan(
		&run.RunID, &run.Benchmark, &run.EstimationWindow, &run.LeadDays, &run.LagDays,
		&run.EventCount, &run.SkippedCount, &run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first
func (r *ResultRepository) ListRuns(ctx context.Context, limit int) ([]contracts.StudyRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, benchmark, estimation_window, lead_days, lag_days,
		       event_count, skipped_count, created_at
		FROM study.runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []contracts.StudyRun{}
	for rows.Next() {
		var run contracts.StudyRun
		if err := rows.Scan(&run.RunID, &run.Benchmark, &run.EstimationWindow, &run.LeadDays,
			&run.LagDays, &run.EventCount, &run.SkippedCount, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListResults returns the records of a run in their original order
func (r *ResultRepository) ListResults(ctx context.Context, runID string) ([]contracts.ResultRecord, error) {
	if _, err := r.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	query := `
		SELECT ticker, event_date, quality_score, catalyst_type, car, realized_return
		FROM study.car_results
		WHERE run_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query results for %s: %w", runID, err)
	}
	defer rows.Close()

	records := []contracts.ResultRecord{}
	for rows.Next() {
		var rec contracts.ResultRecord
		if err := rows.Scan(&rec.Ticker, &rec.EventDate, &rec.QualityScore, &rec.CatalystType,
			&rec.CAR, &rec.RealizedReturn); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		rec.EventDate = contracts.CivilDate(rec.EventDate)
		records = append(records, rec)
	}
	return records, rows.Err()
}
