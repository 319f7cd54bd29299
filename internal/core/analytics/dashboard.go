package analytics

import (
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// Dashboard is every panel of the overview page computed from one filter
// selection.
type Dashboard struct {
	Filters           FilterSelection   `json:"filters"`
	KPIs              KPISet            `json:"kpis"`
	Comparison        *PeriodComparison `json:"comparison,omitempty"`
	Inflow            []TrendPoint      `json:"inflow"`
	Backlog           []TrendPoint      `json:"backlog"`
	MTTR              []TrendPoint      `json:"mttr"`
	ReopenTrend       []ReopenWeekPoint `json:"reopenTrend"`
	ByPriority        []PriorityCount   `json:"byPriority"`
	MTTRByPriority    []PriorityHours   `json:"mttrByPriority"`
	Ageing            []AgeingBucket    `json:"ageing"`
	BacklogByGroup    []GroupCount      `json:"backlogByGroup"`
	BacklogByAssignee []AssigneeBacklog `json:"backlogByAssignee"`
	SLATracking       []SLAPriorityRow  `json:"slaTracking"`
	SLABreachRisk     []BreachRiskRow   `json:"slaBreachRisk"`
	StatusSplit       []StatusCount     `json:"statusSplit"`
	Regions           []RegionCount     `json:"regions"`
	LeadResolvers     []ResolverCount   `json:"leadResolvers"`
}

// BuildDashboard filters all once and computes every panel from the
// result. Open tickets are aged at now. The previous period is taken from
// all, not from the filtered subset.
func BuildDashboard(all []domain.Ticket, f FilterSelection, now time.Time, risk RiskOptions) Dashboard {
	if risk.Now.IsZero() {
		risk.Now = now
	}

	all = domain.AgeTickets(all, now)
	tickets := FilterTickets(all, f, now)
	kpis := CalculateKPIs(tickets)

	return Dashboard{
		Filters:           f,
		KPIs:              kpis,
		Comparison:        ComparePeriods(all, kpis, f, now),
		Inflow:            InflowTrend(tickets, f.DateRange),
		Backlog:           BacklogTrend(tickets, f.DateRange),
		MTTR:              MTTRTrend(tickets, f.DateRange),
		ReopenTrend:       ReopenTrend(tickets, now),
		ByPriority:        TicketsByPriority(tickets),
		MTTRByPriority:    MTTRByPriority(tickets),
		Ageing:            AgeingBuckets(tickets),
		BacklogByGroup:    TopN(TicketsByGroup(OpenTickets(tickets)), GroupLimit),
		BacklogByAssignee: BacklogByAssignee(tickets),
		SLATracking:       SLATracking(tickets),
		SLABreachRisk:     SLABreachRisk(tickets, risk),
		StatusSplit:       StatusSplit(tickets),
		Regions:           RegionalDistribution(tickets),
		LeadResolvers:     LeadResolvers(tickets),
	}
}
