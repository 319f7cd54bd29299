package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/analytics"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/mocks"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
	"github.com/lorrc/service-desk-insights/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedSnapshots(t *testing.T) *mocks.MockSnapshotService {
	t.Helper()
	snapshots := mocks.NewMockSnapshotService()
	snapshots.On("Current").Return(domain.NewSnapshot("test", sampleRecords(), fixedNow), nil)
	return snapshots
}

func emptySnapshots() *mocks.MockSnapshotService {
	snapshots := mocks.NewMockSnapshotService()
	snapshots.On("Current").Return(nil, apperrors.ErrSnapshotNotLoaded)
	return snapshots
}

func ticketIDs(tickets []domain.Ticket) []string {
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.TicketID)
	}
	return ids
}

func TestAnalyticsService_NotLoaded(t *testing.T) {
	ctx := context.Background()
	svc := services.NewAnalyticsService(emptySnapshots(), "", fixedClock)
	f := analytics.DefaultFilters()

	_, err := svc.Dashboard(ctx, f)
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotLoaded)
	_, err = svc.KPIs(ctx, f)
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotLoaded)
	_, err = svc.Trend(ctx, ports.TrendInflow, f)
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotLoaded)
	_, err = svc.Breakdown(ctx, ports.BreakdownPriority, f, 0)
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotLoaded)
	_, err = svc.Leaderboard(ctx, f, analytics.LeaderboardQuery{})
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotLoaded)
	_, err = svc.Tickets(ctx, ports.TicketQueryParams{Filters: f})
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotLoaded)
	_, err = svc.Ticket(ctx, "INC001")
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotLoaded)
}

func TestAnalyticsService_Ticket(t *testing.T) {
	ctx := context.Background()
	svc := services.NewAnalyticsService(loadedSnapshots(t), "", fixedClock)

	got, err := svc.Ticket(ctx, "INC002")
	require.NoError(t, err)
	assert.Equal(t, "Bo Chen", got.Resolver)

	_, err = svc.Ticket(ctx, "INC999")
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestAnalyticsService_KPIs(t *testing.T) {
	ctx := context.Background()

	t.Run("all time has no comparison", func(t *testing.T) {
		svc := services.NewAnalyticsService(loadedSnapshots(t), "", fixedClock)

		report, err := svc.KPIs(ctx, analytics.DefaultFilters())

		require.NoError(t, err)
		assert.Equal(t, 3, report.KPIs.TotalTickets)
		assert.Equal(t, 1, report.KPIs.BacklogTickets)
		assert.Nil(t, report.Comparison)
	})

	t.Run("dated range compares with the previous period", func(t *testing.T) {
		svc := services.NewAnalyticsService(loadedSnapshots(t), "", fixedClock)
		f := analytics.DefaultFilters()
		f.DateRange = analytics.Range7d

		report, err := svc.KPIs(ctx, f)

		require.NoError(t, err)
		assert.Equal(t, 2, report.KPIs.TotalTickets)
		require.NotNil(t, report.Comparison)
		assert.Equal(t, 0, report.Comparison.Previous.TotalTickets)
	})
}

func TestAnalyticsService_Dashboard(t *testing.T) {
	svc := services.NewAnalyticsService(loadedSnapshots(t), "", fixedClock)
	f := analytics.DefaultFilters()
	f.Priority = "P1"

	d, err := svc.Dashboard(context.Background(), f)

	require.NoError(t, err)
	assert.Equal(t, f, d.Filters)
	assert.Equal(t, 1, d.KPIs.TotalTickets)
	assert.Len(t, d.ByPriority, len(domain.Priorities))
}

func TestAnalyticsService_Trend(t *testing.T) {
	ctx := context.Background()
	svc := services.NewAnalyticsService(loadedSnapshots(t), "", fixedClock)
	f := analytics.DefaultFilters()

	tests := []struct {
		name    string
		kind    ports.TrendKind
		wantErr error
	}{
		{name: "inflow", kind: ports.TrendInflow},
		{name: "backlog", kind: ports.TrendBacklog},
		{name: "mttr", kind: ports.TrendMTTR},
		{name: "reopen", kind: ports.TrendReopen},
		{name: "unknown", kind: "velocity", wantErr: apperrors.ErrUnknownTrend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Trend(ctx, tt.kind, f)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}

	t.Run("inflow sums to the filtered count", func(t *testing.T) {
		got, err := svc.Trend(ctx, ports.TrendInflow, f)
		require.NoError(t, err)

		points, ok := got.([]analytics.TrendPoint)
		require.True(t, ok)
		sum := 0.0
		for _, p := range points {
			sum += p.Value
		}
		assert.InDelta(t, 3, sum, 1e-9)
	})
}

func TestAnalyticsService_Breakdown(t *testing.T) {
	ctx := context.Background()
	svc := services.NewAnalyticsService(loadedSnapshots(t), "", fixedClock)
	f := analytics.DefaultFilters()

	t.Run("every kind resolves", func(t *testing.T) {
		kinds := []ports.BreakdownKind{
			ports.BreakdownPriority, ports.BreakdownGroups, ports.BreakdownAssignees,
			ports.BreakdownSLA, ports.BreakdownSLARisk, ports.BreakdownMTTRByPriority,
			ports.BreakdownAgeing, ports.BreakdownRegions, ports.BreakdownStatus,
			ports.BreakdownResolvers,
		}
		for _, kind := range kinds {
			got, err := svc.Breakdown(ctx, kind, f, 0)
			require.NoError(t, err, kind)
			assert.NotNil(t, got, kind)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := svc.Breakdown(ctx, "weather", f, 0)
		assert.ErrorIs(t, err, apperrors.ErrUnknownBreakdown)
	})

	t.Run("sla tracking counts per priority", func(t *testing.T) {
		got, err := svc.Breakdown(ctx, ports.BreakdownSLA, f, 0)
		require.NoError(t, err)

		rows := got.([]analytics.SLAPriorityRow)
		require.Len(t, rows, 4)
		assert.Equal(t, 1, rows[1].Breached)
		assert.Equal(t, 1, rows[3].Met)
	})

	t.Run("groups only count open tickets", func(t *testing.T) {
		got, err := svc.Breakdown(ctx, ports.BreakdownGroups, f, 0)
		require.NoError(t, err)

		groups := got.([]analytics.GroupCount)
		require.Len(t, groups, 1)
		assert.Equal(t, "Network", groups[0].Group)
	})

	t.Run("limit caps resolvers", func(t *testing.T) {
		got, err := svc.Breakdown(ctx, ports.BreakdownResolvers, f, 1)
		require.NoError(t, err)
		assert.Len(t, got.([]analytics.ResolverCount), 1)
	})
}

func TestAnalyticsService_Leaderboard(t *testing.T) {
	ctx := context.Background()
	svc := services.NewAnalyticsService(loadedSnapshots(t), "", fixedClock)

	rows, err := svc.Leaderboard(ctx, analytics.DefaultFilters(), analytics.LeaderboardQuery{})

	require.NoError(t, err)
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "Bo Chen")
	assert.Contains(t, names, analytics.UnspecifiedName)
}

func TestAnalyticsService_Tickets(t *testing.T) {
	ctx := context.Background()
	svc := services.NewAnalyticsService(loadedSnapshots(t), "", fixedClock)

	tests := []struct {
		name    string
		params  ports.TicketQueryParams
		want    []string
		wantErr error
	}{
		{
			name:   "filters only",
			params: ports.TicketQueryParams{Filters: analytics.DefaultFilters()},
			want:   []string{"INC001", "INC002", "INC003"},
		},
		{
			name: "drill down on priority",
			params: ports.TicketQueryParams{
				Filters:   analytics.DefaultFilters(),
				DrillDown: &analytics.DrillDown{Dimension: analytics.DimPriority, Value: "P2"},
			},
			want: []string{"INC002"},
		},
		{
			name: "drill down inside a filtered range",
			params: ports.TicketQueryParams{
				Filters:   analytics.FilterSelection{DateRange: analytics.Range7d},
				DrillDown: &analytics.DrillDown{Dimension: analytics.DimRegion, Value: string(domain.RegionAPAC)},
			},
			want: []string{},
		},
		{
			name: "search and sort",
			params: ports.TicketQueryParams{
				Filters: analytics.DefaultFilters(),
				Table:   analytics.TableQuery{SortKey: "ticketId", Direction: analytics.SortDesc},
			},
			want: []string{"INC003", "INC002", "INC001"},
		},
		{
			name: "unknown dimension",
			params: ports.TicketQueryParams{
				DrillDown: &analytics.DrillDown{Dimension: "colour", Value: "red"},
			},
			wantErr: apperrors.ErrUnknownDimension,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Tickets(ctx, tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ticketIDs(page.Rows))
			assert.Equal(t, len(tt.want), page.Total)
			assert.Equal(t, 1, page.Page)
			assert.Equal(t, analytics.DefaultPageSize, page.PageSize)
		})
	}
}

func TestAnalyticsService_UsesSnapshotLocation(t *testing.T) {
	// 23:30 UTC on the 14th is already the 15th in UTC+2.
	east := time.FixedZone("UTC+2", 2*60*60)
	clock := func() time.Time { return time.Date(2024, time.March, 14, 23, 30, 0, 0, time.UTC) }
	snapshots := mocks.NewMockSnapshotService()
	snapshots.On("Current").Return(domain.NewSnapshot("test", []domain.RawIncidentRecord{
		{Number: "INC100", State: "New", Opened: "2024-03-15 00:30:00"},
	}, clock().In(east)), nil)
	svc := services.NewAnalyticsService(snapshots, "", clock)
	f := analytics.DefaultFilters()
	f.DateRange = analytics.RangeToday

	report, err := svc.KPIs(context.Background(), f)

	require.NoError(t, err)
	assert.Equal(t, 1, report.KPIs.TotalTickets)
}

func TestAnalyticsService_AgesOpenTicketsAtQueryTime(t *testing.T) {
	ctx := context.Background()
	builtAt := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	snapshots := mocks.NewMockSnapshotService()
	snapshots.On("Current").Return(domain.NewSnapshot("test", []domain.RawIncidentRecord{
		{Number: "INC100", Priority: "3 - Moderate", State: "New", AssignedTo: "Ana Ruiz", Opened: "2024-02-29 09:00:00"},
	}, builtAt), nil)
	clock := func() time.Time { return builtAt.AddDate(0, 0, 20) }
	svc := services.NewAnalyticsService(snapshots, "", clock)

	got, err := svc.Breakdown(ctx, ports.BreakdownAssignees, analytics.DefaultFilters(), 0)
	require.NoError(t, err)
	assert.Equal(t, "0/0/1", got.([]analytics.AssigneeBacklog)[0].Ageing)

	ticket, err := svc.Ticket(ctx, "INC100")
	require.NoError(t, err)
	assert.Equal(t, 21, ticket.AgeDays)

	page, err := svc.Tickets(ctx, ports.TicketQueryParams{Filters: analytics.DefaultFilters()})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, 21, page.Rows[0].AgeDays)
}
