package mocks

import (
	"context"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockRawIncidentSource is a mock implementation of ports.RawIncidentSource
type MockRawIncidentSource struct {
	mock.Mock
}

var _ ports.RawIncidentSource = (*MockRawIncidentSource)(nil)

func NewMockRawIncidentSource() *MockRawIncidentSource {
	return &MockRawIncidentSource{}
}

func (m *MockRawIncidentSource) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRawIncidentSource) FetchIncidents(ctx context.Context) ([]domain.RawIncidentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawIncidentRecord), args.Error(1)
}

// MockRawIncidentCache is a mock implementation of ports.RawIncidentCache
type MockRawIncidentCache struct {
	mock.Mock
}

var _ ports.RawIncidentCache = (*MockRawIncidentCache)(nil)

func NewMockRawIncidentCache() *MockRawIncidentCache {
	return &MockRawIncidentCache{}
}

func (m *MockRawIncidentCache) Get(ctx context.Context) ([]domain.RawIncidentRecord, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.RawIncidentRecord), args.Bool(1), args.Error(2)
}

func (m *MockRawIncidentCache) Set(ctx context.Context, records []domain.RawIncidentRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockRawIncidentCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockIncidentRepository is a mock implementation of ports.IncidentRepository
type MockIncidentRepository struct {
	mock.Mock
}

var _ ports.IncidentRepository = (*MockIncidentRepository)(nil)

func NewMockIncidentRepository() *MockIncidentRepository {
	return &MockIncidentRepository{}
}

func (m *MockIncidentRepository) ReplaceAll(ctx context.Context, records []domain.RawIncidentRecord) (int64, error) {
	args := m.Called(ctx, records)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIncidentRepository) ListAll(ctx context.Context) ([]domain.RawIncidentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawIncidentRecord), args.Error(1)
}

func (m *MockIncidentRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockIngestRunRepository is a mock implementation of ports.IngestRunRepository
type MockIngestRunRepository struct {
	mock.Mock
}

var _ ports.IngestRunRepository = (*MockIngestRunRepository)(nil)

func NewMockIngestRunRepository() *MockIngestRunRepository {
	return &MockIngestRunRepository{}
}

func (m *MockIngestRunRepository) Record(ctx context.Context, run domain.IngestRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockIngestRunRepository) Latest(ctx context.Context) (*domain.IngestRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestRun), args.Error(1)
}

func (m *MockIngestRunRepository) List(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IngestRun), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

var _ ports.EventBroadcaster = (*MockEventBroadcaster)(nil)

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockSnapshotService is a mock implementation of ports.SnapshotService
type MockSnapshotService struct {
	mock.Mock
}

var _ ports.SnapshotService = (*MockSnapshotService)(nil)

func NewMockSnapshotService() *MockSnapshotService {
	return &MockSnapshotService{}
}

func (m *MockSnapshotService) Load(ctx context.Context) (*domain.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *MockSnapshotService) Reload(ctx context.Context) (*domain.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *MockSnapshotService) Current() (*domain.Snapshot, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *MockSnapshotService) LatestRun(ctx context.Context) (*domain.IngestRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestRun), args.Error(1)
}

func (m *MockSnapshotService) RecentRuns(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IngestRun), args.Error(1)
}
