package ports

import (
	"context"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// RawIncidentSource reads a full raw incident export.
type RawIncidentSource interface {
	// Name identifies the source in logs, ingest runs and events.
	Name() string
	FetchIncidents(ctx context.Context) ([]domain.RawIncidentRecord, error)
}

// RawIncidentCache keeps the last raw export so restarts skip the source.
// Get reports false on a miss.
type RawIncidentCache interface {
	Get(ctx context.Context) ([]domain.RawIncidentRecord, bool, error)
	Set(ctx context.Context, records []domain.RawIncidentRecord) error
	Invalidate(ctx context.Context) error
}

// IncidentRepository persists raw export rows in their original shape.
type IncidentRepository interface {
	ReplaceAll(ctx context.Context, records []domain.RawIncidentRecord) (int64, error)
	ListAll(ctx context.Context) ([]domain.RawIncidentRecord, error)
	Count(ctx context.Context) (int64, error)
}

// IngestRunRepository records snapshot load attempts.
type IngestRunRepository interface {
	Record(ctx context.Context, run domain.IngestRun) error
	Latest(ctx context.Context) (*domain.IngestRun, error)
	List(ctx context.Context, limit int) ([]domain.IngestRun, error)
}

// EventBroadcaster defines the port for broadcasting real-time events.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
