package ports

import (
	"context"

	"github.com/lorrc/service-desk-insights/internal/core/analytics"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// SnapshotService owns the lifecycle of the shared ticket snapshot.
type SnapshotService interface {
	// Load returns the current snapshot, building it on first use.
	// Concurrent callers share one build.
	Load(ctx context.Context) (*domain.Snapshot, error)
	// Reload bypasses the cache, rebuilds from the source and swaps the
	// snapshot when the build succeeds.
	Reload(ctx context.Context) (*domain.Snapshot, error)
	// Current returns the loaded snapshot without triggering a build.
	Current() (*domain.Snapshot, error)
	LatestRun(ctx context.Context) (*domain.IngestRun, error)
	// RecentRuns lists up to limit runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]domain.IngestRun, error)
}

// TrendKind names a time series.
type TrendKind string

const (
	TrendInflow  TrendKind = "inflow"
	TrendBacklog TrendKind = "backlog"
	TrendMTTR    TrendKind = "mttr"
	TrendReopen  TrendKind = "reopen"
)

// BreakdownKind names a categorical aggregation.
type BreakdownKind string

const (
	BreakdownPriority       BreakdownKind = "priority"
	BreakdownGroups         BreakdownKind = "groups"
	BreakdownAssignees      BreakdownKind = "assignees"
	BreakdownSLA            BreakdownKind = "sla"
	BreakdownSLARisk        BreakdownKind = "sla-risk"
	BreakdownMTTRByPriority BreakdownKind = "mttr-by-priority"
	BreakdownAgeing         BreakdownKind = "ageing"
	BreakdownRegions        BreakdownKind = "regions"
	BreakdownStatus         BreakdownKind = "status"
	BreakdownResolvers      BreakdownKind = "resolvers"
)

// KPIReport is the KPI row with its period comparison.
type KPIReport struct {
	KPIs       analytics.KPISet            `json:"kpis"`
	Comparison *analytics.PeriodComparison `json:"comparison,omitempty"`
}

// TicketQueryParams defines the input for listing the ticket table.
type TicketQueryParams struct {
	Filters   analytics.FilterSelection
	DrillDown *analytics.DrillDown
	Table     analytics.TableQuery
}

// AnalyticsService answers dashboard queries against the current snapshot.
type AnalyticsService interface {
	Dashboard(ctx context.Context, f analytics.FilterSelection) (*analytics.Dashboard, error)
	KPIs(ctx context.Context, f analytics.FilterSelection) (*KPIReport, error)
	Trend(ctx context.Context, kind TrendKind, f analytics.FilterSelection) (any, error)
	Breakdown(ctx context.Context, kind BreakdownKind, f analytics.FilterSelection, limit int) (any, error)
	Leaderboard(ctx context.Context, f analytics.FilterSelection, q analytics.LeaderboardQuery) ([]analytics.LeaderboardRow, error)
	Tickets(ctx context.Context, params TicketQueryParams) (*analytics.TicketPage, error)
	Ticket(ctx context.Context, ticketID string) (*domain.Ticket, error)
}

// CSVExport is a rendered CSV document.
type CSVExport struct {
	FileName string
	Data     []byte
}

// ExportService renders dashboard data as CSV.
type ExportService interface {
	DashboardCSV(ctx context.Context, f analytics.FilterSelection) (*CSVExport, error)
	TicketsCSV(ctx context.Context, params TicketQueryParams) (*CSVExport, error)
}

// IngestObserver receives the outcome of every snapshot build.
type IngestObserver interface {
	ObserveIngest(run domain.IngestRun)
}
