package services

import (
	"context"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/analytics"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// AnalyticsService runs the pure aggregations over the current snapshot.
type AnalyticsService struct {
	snapshots ports.SnapshotService
	riskBasis analytics.RiskAgeBasis
	clock     func() time.Time
}

var _ ports.AnalyticsService = (*AnalyticsService)(nil)

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	snapshots ports.SnapshotService,
	riskBasis analytics.RiskAgeBasis,
	clock func() time.Time,
) *AnalyticsService {
	if clock == nil {
		clock = time.Now
	}
	if riskBasis == "" {
		riskBasis = analytics.RiskAgeDays
	}
	return &AnalyticsService{
		snapshots: snapshots,
		riskBasis: riskBasis,
		clock:     clock,
	}
}

// view is the input every query works on: the full collection aged at
// the reference time, and that time in the snapshot's location.
type view struct {
	all  []domain.Ticket
	now  time.Time
	risk analytics.RiskOptions
}

func currentView(snapshots ports.SnapshotService, basis analytics.RiskAgeBasis, clock func() time.Time) (view, error) {
	snap, err := snapshots.Current()
	if err != nil {
		return view{}, err
	}
	now := clock().In(snap.Location())
	return view{
		all:  domain.AgeTickets(snap.Tickets(), now),
		now:  now,
		risk: analytics.RiskOptions{Basis: basis, Now: now},
	}, nil
}

// selectTickets applies the filters and the optional drill-down.
func (v view) selectTickets(params ports.TicketQueryParams) ([]domain.Ticket, error) {
	tickets := analytics.FilterTickets(v.all, params.Filters, v.now)
	if params.DrillDown == nil {
		return tickets, nil
	}

	selected, ok := analytics.SelectTickets(tickets, *params.DrillDown, v.now, v.risk)
	if !ok {
		return nil, apperrors.ErrUnknownDimension
	}
	return selected, nil
}

func (s *AnalyticsService) current() (view, error) {
	return currentView(s.snapshots, s.riskBasis, s.clock)
}

// Dashboard computes every panel of the overview page.
func (s *AnalyticsService) Dashboard(ctx context.Context, f analytics.FilterSelection) (*analytics.Dashboard, error) {
	v, err := s.current()
	if err != nil {
		return nil, err
	}
	d := analytics.BuildDashboard(v.all, f, v.now, v.risk)
	return &d, nil
}

// KPIs computes the KPI row and, for dated ranges, its trend against the
// previous period.
func (s *AnalyticsService) KPIs(ctx context.Context, f analytics.FilterSelection) (*ports.KPIReport, error) {
	v, err := s.current()
	if err != nil {
		return nil, err
	}
	kpis := analytics.CalculateKPIs(analytics.FilterTickets(v.all, f, v.now))
	return &ports.KPIReport{
		KPIs:       kpis,
		Comparison: analytics.ComparePeriods(v.all, kpis, f, v.now),
	}, nil
}

// Trend computes one time series over the filtered tickets.
func (s *AnalyticsService) Trend(ctx context.Context, kind ports.TrendKind, f analytics.FilterSelection) (any, error) {
	v, err := s.current()
	if err != nil {
		return nil, err
	}
	tickets := analytics.FilterTickets(v.all, f, v.now)

	switch kind {
	case ports.TrendInflow:
		return analytics.InflowTrend(tickets, f.DateRange), nil
	case ports.TrendBacklog:
		return analytics.BacklogTrend(tickets, f.DateRange), nil
	case ports.TrendMTTR:
		return analytics.MTTRTrend(tickets, f.DateRange), nil
	case ports.TrendReopen:
		return analytics.ReopenTrend(tickets, v.now), nil
	default:
		return nil, apperrors.ErrUnknownTrend
	}
}

// Breakdown computes one categorical aggregation over the filtered
// tickets. A positive limit caps ranked results further.
func (s *AnalyticsService) Breakdown(ctx context.Context, kind ports.BreakdownKind, f analytics.FilterSelection, limit int) (any, error) {
	v, err := s.current()
	if err != nil {
		return nil, err
	}
	tickets := analytics.FilterTickets(v.all, f, v.now)

	switch kind {
	case ports.BreakdownPriority:
		return analytics.TicketsByPriority(tickets), nil
	case ports.BreakdownGroups:
		if limit <= 0 {
			limit = analytics.GroupLimit
		}
		return analytics.TopN(analytics.TicketsByGroup(analytics.OpenTickets(tickets)), limit), nil
	case ports.BreakdownAssignees:
		return analytics.TopN(analytics.BacklogByAssignee(tickets), limit), nil
	case ports.BreakdownSLA:
		return analytics.SLATracking(tickets), nil
	case ports.BreakdownSLARisk:
		return analytics.SLABreachRisk(tickets, v.risk), nil
	case ports.BreakdownMTTRByPriority:
		return analytics.MTTRByPriority(tickets), nil
	case ports.BreakdownAgeing:
		return analytics.AgeingBuckets(tickets), nil
	case ports.BreakdownRegions:
		return analytics.RegionalDistribution(tickets), nil
	case ports.BreakdownStatus:
		return analytics.StatusSplit(tickets), nil
	case ports.BreakdownResolvers:
		return analytics.TopN(analytics.LeadResolvers(tickets), limit), nil
	default:
		return nil, apperrors.ErrUnknownBreakdown
	}
}

// Leaderboard ranks resolvers or assignees over the filtered tickets.
func (s *AnalyticsService) Leaderboard(ctx context.Context, f analytics.FilterSelection, q analytics.LeaderboardQuery) ([]analytics.LeaderboardRow, error) {
	v, err := s.current()
	if err != nil {
		return nil, err
	}
	if q.Mode == "" {
		q.Mode = analytics.ModeResolver
	}
	return analytics.Leaderboard(analytics.FilterTickets(v.all, f, v.now), q), nil
}

// Tickets lists one page of the ticket table, optionally narrowed to a
// drill-down selection.
func (s *AnalyticsService) Tickets(ctx context.Context, params ports.TicketQueryParams) (*analytics.TicketPage, error) {
	v, err := s.current()
	if err != nil {
		return nil, err
	}

	tickets, err := v.selectTickets(params)
	if err != nil {
		return nil, err
	}
	page := analytics.PaginateTickets(tickets, params.Table)
	return &page, nil
}

// Ticket returns one normalized ticket by id.
func (s *AnalyticsService) Ticket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	snap, err := s.snapshots.Current()
	if err != nil {
		return nil, err
	}
	t, ok := snap.Find(ticketID)
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	t.AgeDays = t.AgeDaysAt(s.clock().In(snap.Location()))
	return &t, nil
}
