package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"campaign-forecast/internal/domain"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertRunSQL = `INSERT INTO runs (
        id,
        seed,
        baseline_start,
        campaign_start,
        campaign_end,
        total_orders,
        total_revenue,
        total_tickets,
        baseline_avg_daily,
        campaign_avg_daily,
        lift_absolute,
        lift_percent,
        skipped_orders,
        mismatched_totals,
        completed,
        created_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
    )
    ON CONFLICT (id) DO UPDATE
    SET
        total_orders       = EXCLUDED.total_orders,
        total_revenue      = EXCLUDED.total_revenue,
        total_tickets      = EXCLUDED.total_tickets,
        baseline_avg_daily = EXCLUDED.baseline_avg_daily,
        campaign_avg_daily = EXCLUDED.campaign_avg_daily,
        lift_absolute      = EXCLUDED.lift_absolute,
        lift_percent       = EXCLUDED.lift_percent,
        skipped_orders     = EXCLUDED.skipped_orders,
        mismatched_totals  = EXCLUDED.mismatched_totals,
        completed          = EXCLUDED.completed;`

	upsertRunDaySQL = `INSERT INTO run_days (
        run_id,
        day,
        orders,
        revenue,
        tickets
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    ON CONFLICT (run_id, day) DO UPDATE
    SET orders  = EXCLUDED.orders,
        revenue = EXCLUDED.revenue,
        tickets = EXCLUDED.tickets;`

	listRecentRunsSQL = `SELECT
        id,
        seed,
        campaign_start,
        campaign_end,
        total_orders,
        total_revenue::text,
        total_tickets,
        lift_absolute::text,
        lift_percent::text,
        completed,
        created_at
    FROM runs
    ORDER BY created_at DESC
    LIMIT $1;`

	latestRunIDSQL = `SELECT id FROM runs ORDER BY created_at DESC LIMIT 1;`

	listRunDaysSQL = `SELECT
        day,
        orders,
        revenue::text,
        tickets
    FROM run_days
    WHERE run_id = $1
    ORDER BY day;`
)

// RunSummary is the listing projection of a persisted run.
type RunSummary struct {
	ID            uuid.UUID
	Seed          uint64
	CampaignStart time.Time
	CampaignEnd   time.Time
	TotalOrders   int
	TotalRevenue  decimal.Decimal
	TotalTickets  int
	LiftAbsolute  decimal.Decimal
	LiftPercent   decimal.Decimal
	Completed     bool
	CreatedAt     time.Time
}

// RunStore defines operations for run persistence.
type RunStore interface {
	SaveRun(ctx context.Context, result domain.RunResult) error
	ListRecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
	LatestRunID(ctx context.Context) (uuid.UUID, error)
	ListRunDays(ctx context.Context, runID uuid.UUID) ([]domain.DailyTotal, error)
}

// Store persists simulation results in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool exposes the underlying pgx pool for read paths that compose their
// own queries, such as the customer loader.
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// SaveRun upserts a run summary and its full daily series.
func (s *Store) SaveRun(ctx context.Context, result domain.RunResult) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertRunSQL,
		result.ID,
		int64(result.Seed),
		result.BaselineStart,
		result.CampaignStart,
		result.CampaignEnd,
		result.TotalOrders,
		result.TotalRevenue.String(),
		result.TotalTickets,
		result.BaselineAvgDaily.String(),
		result.CampaignAvgDaily.String(),
		result.LiftAbsolute.String(),
		result.LiftPercent.String(),
		result.Quality.SkippedOrders,
		result.Quality.MismatchedTotals,
		result.Completed,
		result.CreatedAt,
	)
	if execErr != nil {
		return fmt.Errorf("upsert run: %w", execErr)
	}

	for _, day := range result.Days {
		if _, execErr := pool.Exec(ctx, upsertRunDaySQL,
			result.ID,
			day.Date,
			day.Orders,
			day.Revenue.String(),
			day.Tickets,
		); execErr != nil {
			return fmt.Errorf("upsert run day: %w", execErr)
		}
	}

	return nil
}

// ListRecentRuns lists the most recent runs, newest first.
func (s *Store) ListRecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentRunsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent runs: %w", queryErr)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0, limit)
	for rows.Next() {
		run, scanErr := scanRunSummary(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, run)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return runs, nil
}

// LatestRunID returns the id of the most recently persisted run.
func (s *Store) LatestRunID(ctx context.Context) (uuid.UUID, error) {
	pool, err := s.getPool()
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	if scanErr := pool.QueryRow(ctx, latestRunIDSQL).Scan(&id); scanErr != nil {
		return uuid.Nil, fmt.Errorf("latest run id: %w", scanErr)
	}
	return id, nil
}

// ListRunDays returns the full daily series of one run in date order.
func (s *Store) ListRunDays(ctx context.Context, runID uuid.UUID) ([]domain.DailyTotal, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRunDaysSQL, runID)
	if queryErr != nil {
		return nil, fmt.Errorf("list run days: %w", queryErr)
	}
	defer rows.Close()

	days := make([]domain.DailyTotal, 0)
	for rows.Next() {
		var (
			day        domain.DailyTotal
			revenueStr string
		)
		if err := rows.Scan(&day.Date, &day.Orders, &revenueStr, &day.Tickets); err != nil {
			return nil, err
		}
		revenue, convErr := decimal.NewFromString(revenueStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse day revenue: %w", convErr)
		}
		day.Revenue = revenue
		days = append(days, day)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return days, nil
}

func scanRunSummary(rows pgx.Rows) (RunSummary, error) {
	var (
		run        RunSummary
		seed       int64
		revenueStr string
		liftAbsStr string
		liftPctStr string
	)

	if err := rows.Scan(
		&run.ID,
		&seed,
		&run.CampaignStart,
		&run.CampaignEnd,
		&run.TotalOrders,
		&revenueStr,
		&run.TotalTickets,
		&liftAbsStr,
		&liftPctStr,
		&run.Completed,
		&run.CreatedAt,
	); err != nil {
		return RunSummary{}, err
	}

	run.Seed = uint64(seed)

	var convErr error
	run.TotalRevenue, convErr = decimal.NewFromString(revenueStr)
	if convErr != nil {
		return RunSummary{}, fmt.Errorf("parse total revenue: %w", convErr)
	}
	run.LiftAbsolute, convErr = decimal.NewFromString(liftAbsStr)
	if convErr != nil {
		return RunSummary{}, fmt.Errorf("parse lift absolute: %w", convErr)
	}
	run.LiftPercent, convErr = decimal.NewFromString(liftPctStr)
	if convErr != nil {
		return RunSummary{}, fmt.Errorf("parse lift percent: %w", convErr)
	}

	return run, nil
}
