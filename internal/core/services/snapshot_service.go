package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

const (
	loadKey   = "load"
	reloadKey = "reload"
)

// SnapshotServiceConfig wires the snapshot service. Only Source is
// required.
type SnapshotServiceConfig struct {
	Source      ports.RawIncidentSource
	Cache       ports.RawIncidentCache
	Runs        ports.IngestRunRepository
	Broadcaster ports.EventBroadcaster
	Observer    ports.IngestObserver
	Location    *time.Location
	Clock       func() time.Time
	Logger      *slog.Logger
}

// SnapshotService builds the ticket snapshot once and hands the same
// immutable value to every reader until a reload swaps it.
type SnapshotService struct {
	source      ports.RawIncidentSource
	cache       ports.RawIncidentCache
	runs        ports.IngestRunRepository
	broadcaster ports.EventBroadcaster
	observer    ports.IngestObserver
	location    *time.Location
	clock       func() time.Time
	logger      *slog.Logger

	current atomic.Pointer[domain.Snapshot]
	group   singleflight.Group
}

var _ ports.SnapshotService = (*SnapshotService)(nil)

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(cfg SnapshotServiceConfig) *SnapshotService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &SnapshotService{
		source:      cfg.Source,
		cache:       cfg.Cache,
		runs:        cfg.Runs,
		broadcaster: cfg.Broadcaster,
		observer:    cfg.Observer,
		location:    cfg.Location,
		clock:       cfg.Clock,
		logger:      cfg.Logger.With("component", "snapshot_service"),
	}
}

// Load returns the current snapshot, building it from the cache or the
// source on first use. A failed build leaves nothing behind, so the next
// call tries again.
func (s *SnapshotService) Load(ctx context.Context) (*domain.Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	return s.do(ctx, loadKey, func(ctx context.Context) (*domain.Snapshot, error) {
		if snap := s.current.Load(); snap != nil {
			return snap, nil
		}
		return s.build(ctx, true)
	})
}

// Reload rebuilds from the source, skipping the cache, and swaps the
// snapshot on success. On failure the previous snapshot stays in place.
func (s *SnapshotService) Reload(ctx context.Context) (*domain.Snapshot, error) {
	return s.do(ctx, reloadKey, func(ctx context.Context) (*domain.Snapshot, error) {
		return s.build(ctx, false)
	})
}

// Current returns the loaded snapshot without building one.
func (s *SnapshotService) Current() (*domain.Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperrors.ErrSnapshotNotLoaded
	}
	return snap, nil
}

// LatestRun returns the most recent recorded ingest run.
func (s *SnapshotService) LatestRun(ctx context.Context) (*domain.IngestRun, error) {
	if s.runs == nil {
		return nil, apperrors.ErrNoIngestRuns
	}
	return s.runs.Latest(ctx)
}

// RecentRuns lists the most recent ingest runs, newest first.
func (s *SnapshotService) RecentRuns(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	if s.runs == nil {
		return nil, apperrors.ErrNoIngestRuns
	}
	return s.runs.List(ctx, limit)
}

// do runs fn at most once per key at a time. The build is detached from
// the caller's cancellation; a caller that gives up only stops waiting.
func (s *SnapshotService) do(ctx context.Context, key string, fn func(context.Context) (*domain.Snapshot, error)) (*domain.Snapshot, error) {
	buildCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return fn(buildCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Snapshot), nil
	}
}

func (s *SnapshotService) build(ctx context.Context, useCache bool) (*domain.Snapshot, error) {
	run := domain.IngestRun{
		ID:        uuid.New(),
		Source:    s.source.Name(),
		StartedAt: s.clock(),
	}

	records, fromCache, err := s.fetch(ctx, useCache)
	run.FromCache = fromCache
	if err != nil {
		run.FinishedAt = s.clock()
		run.Error = err.Error()
		s.finish(ctx, run, domain.NewSnapshotFailedEvent(run.Source, err))
		return nil, err
	}

	snap := domain.NewSnapshot(run.Source, records, s.clock().In(s.location))
	if useCache {
		// A reload may have finished while this load was reading; its
		// snapshot is newer.
		if !s.current.CompareAndSwap(nil, snap) {
			current := s.current.Load()
			s.logger.Info("discarding stale snapshot load", "snapshot_id", current.ID())
			return current, nil
		}
	} else {
		s.current.Store(snap)
	}

	id := snap.ID()
	run.SnapshotID = &id
	run.RecordCount = len(records)
	run.TicketCount = snap.Len()
	run.FinishedAt = s.clock()

	s.logger.Info("snapshot loaded",
		"snapshot_id", id,
		"source", run.Source,
		"from_cache", fromCache,
		"tickets", snap.Len(),
		"duration", run.Duration(),
	)
	s.finish(ctx, run, domain.NewSnapshotLoadedEvent(snap.Info()))
	return snap, nil
}

// fetch reads the raw export, preferring the cache. Cache failures are
// logged and fall through to the source.
func (s *SnapshotService) fetch(ctx context.Context, useCache bool) ([]domain.RawIncidentRecord, bool, error) {
	if useCache && s.cache != nil {
		records, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.logger.Warn("incident cache read failed", "error", err)
		case ok:
			return records, true, nil
		}
	}

	records, err := s.source.FetchIncidents(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrSourceUnavailable) && !errors.Is(err, apperrors.ErrSourceMalformed) {
			err = fmt.Errorf("%w: %s: %w", apperrors.ErrSourceUnavailable, s.source.Name(), err)
		}
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, records); err != nil {
			s.logger.Warn("incident cache write failed", "error", err)
		}
	}
	return records, false, nil
}

// finish records, observes and announces a run. None of these steps can
// fail the build.
func (s *SnapshotService) finish(ctx context.Context, run domain.IngestRun, event domain.Event) {
	if !run.Succeeded() {
		s.logger.Error("snapshot load failed",
			"source", run.Source,
			"error", run.Error,
		)
	}

	if s.runs != nil {
		if err := s.runs.Record(ctx, run); err != nil {
			s.logger.Warn("failed to record ingest run", "run_id", run.ID, "error", err)
		}
	}
	if s.observer != nil {
		s.observer.ObserveIngest(run)
	}
	if s.broadcaster != nil {
		if err := s.broadcaster.Broadcast(event); err != nil {
			s.logger.Warn("failed to broadcast snapshot event", "event_type", event.Type, "error", err)
		}
	}
}
