package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// SourceName identifies the Postgres store as a snapshot source.
const SourceName = "postgres:raw_incidents"

// IncidentRepository stores raw export rows unchanged as JSONB, in export
// order. It doubles as a RawIncidentSource for the snapshot service.
type IncidentRepository struct {
	pool *pgxpool.Pool
	tm   *TransactionManager
}

var (
	_ ports.IncidentRepository = (*IncidentRepository)(nil)
	_ ports.RawIncidentSource  = (*IncidentRepository)(nil)
)

// NewIncidentRepository creates a new raw incident repository.
func NewIncidentRepository(pool *pgxpool.Pool, tm *TransactionManager) *IncidentRepository {
	return &IncidentRepository{pool: pool, tm: tm}
}

// ReplaceAll swaps the stored export for records in one transaction, so
// readers see either the old or the new export, never a mix.
func (r *IncidentRepository) ReplaceAll(ctx context.Context, records []domain.RawIncidentRecord) (int64, error) {
	var copied int64
	err := r.tm.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM raw_incidents`); err != nil {
			return fmt.Errorf("failed to clear raw incidents: %w", err)
		}

		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"raw_incidents"},
			[]string{"position", "number", "record"},
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				doc, err := json.Marshal(records[i])
				if err != nil {
					return nil, fmt.Errorf("failed to encode record %d: %w", i, err)
				}
				return []any{i, records[i].Number.String(), doc}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to copy raw incidents: %w", err)
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}

// ListAll returns every stored row in export order.
func (r *IncidentRepository) ListAll(ctx context.Context) ([]domain.RawIncidentRecord, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, `SELECT record FROM raw_incidents ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw incidents: %w", err)
	}
	defer rows.Close()

	var records []domain.RawIncidentRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan raw incident: %w", err)
		}
		var rec domain.RawIncidentRecord
		// Rows were written from RawIncidentRecord; lenient decoding keeps
		// a hand-edited row from failing the whole load.
		_ = json.Unmarshal(doc, &rec)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read raw incidents: %w", err)
	}
	return records, nil
}

// Count returns the number of stored rows.
func (r *IncidentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := GetDBTX(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM raw_incidents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count raw incidents: %w", err)
	}
	return n, nil
}

// Name implements ports.RawIncidentSource.
func (r *IncidentRepository) Name() string { return SourceName }

// FetchIncidents implements ports.RawIncidentSource. An empty table is an
// error: it means nothing was ever imported.
func (r *IncidentRepository) FetchIncidents(ctx context.Context) ([]domain.RawIncidentRecord, error) {
	records, err := r.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no raw incidents imported", apperrors.ErrSourceUnavailable)
	}
	return records, nil
}
