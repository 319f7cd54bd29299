package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

const ingestRunColumns = `id, snapshot_id, source, from_cache, record_count, ticket_count, started_at, finished_at, error`

// IngestRunRepository records every snapshot build attempt.
type IngestRunRepository struct {
	pool *pgxpool.Pool
}

var _ ports.IngestRunRepository = (*IngestRunRepository)(nil)

// NewIngestRunRepository creates a new ingest run repository.
func NewIngestRunRepository(pool *pgxpool.Pool) *IngestRunRepository {
	return &IngestRunRepository{pool: pool}
}

// Record inserts run. It joins a transaction carried by ctx.
func (r *IngestRunRepository) Record(ctx context.Context, run domain.IngestRun) error {
	_, err := GetDBTX(ctx, r.pool).Exec(ctx,
		`INSERT INTO ingest_runs (`+ingestRunColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.SnapshotID, run.Source, run.FromCache, run.RecordCount, run.TicketCount,
		run.StartedAt, run.FinishedAt, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record ingest run: %w", err)
	}
	return nil
}

// Latest returns the most recently started run.
func (r *IngestRunRepository) Latest(ctx context.Context) (*domain.IngestRun, error) {
	row := GetDBTX(ctx, r.pool).QueryRow(ctx,
		`SELECT `+ingestRunColumns+` FROM ingest_runs ORDER BY started_at DESC LIMIT 1`)

	run, err := scanIngestRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoIngestRuns
		}
		return nil, fmt.Errorf("failed to read latest ingest run: %w", err)
	}
	return &run, nil
}

// List returns up to limit runs, newest first.
func (r *IngestRunRepository) List(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx,
		`SELECT `+ingestRunColumns+` FROM ingest_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingest runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.IngestRun, 0, limit)
	for rows.Next() {
		run, err := scanIngestRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingest run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ingest runs: %w", err)
	}
	return runs, nil
}

func scanIngestRun(row pgx.Row) (domain.IngestRun, error) {
	var run domain.IngestRun
	err := row.Scan(
		&run.ID, &run.SnapshotID, &run.Source, &run.FromCache, &run.RecordCount,
		&run.TicketCount, &run.StartedAt, &run.FinishedAt, &run.Error,
	)
	return run, err
}
