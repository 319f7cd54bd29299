package analytics

import (
	"fmt"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// defaultTrendDays is used for date ranges with no natural length.
const defaultTrendDays = 15

var trendRangeDays = map[DateRange]int{
	Range7d:  7,
	Range15d: 15,
	Range30d: 30,
	Range90d: 90,
	RangeYTD: 365,
}

// PeriodWindow is the current reporting period used for period over
// period comparison: Days calendar days starting at Start.
type PeriodWindow struct {
	Start time.Time `json:"start"`
	Days  int       `json:"days"`
}

// Label describes the comparison, e.g. "vs previous 7 days".
func (w PeriodWindow) Label() string {
	if w.Days == 1 {
		return "vs previous day"
	}
	return fmt.Sprintf("vs previous %d days", w.Days)
}

// Previous returns the equally long period ending right before Start.
// The end bound is exclusive of Start itself.
func (w PeriodWindow) Previous() DateWindow {
	return DateWindow{
		Start: w.Start.AddDate(0, 0, -w.Days),
		End:   w.Start.Add(-time.Nanosecond),
	}
}

// TrendWindow derives the current period from the selected date range.
// It returns false for "all", which has nothing to compare against.
func TrendWindow(f FilterSelection, now time.Time) (PeriodWindow, bool) {
	today := domain.StartOfDay(now)

	switch f.DateRange {
	case RangeAll, "":
		return PeriodWindow{}, false
	case RangeToday:
		return PeriodWindow{Start: today, Days: 1}, true
	case RangeMTD:
		start := startOfMonth(now)
		return PeriodWindow{Start: start, Days: calendarDaysInclusive(start, now)}, true
	case RangeQTD:
		start := startOfQuarter(now)
		return PeriodWindow{Start: start, Days: calendarDaysInclusive(start, now)}, true
	case RangeCustom:
		if start, end, ok := customBounds(f, now.Location()); ok {
			return PeriodWindow{Start: start, Days: calendarDaysInclusive(start, end)}, true
		}
	}

	days, ok := trendRangeDays[f.DateRange]
	if !ok {
		days = defaultTrendDays
	}
	return PeriodWindow{Start: today.AddDate(0, 0, -(days - 1)), Days: days}, true
}

// PreviousPeriodTickets selects the tickets of the period preceding the
// current one. Categorical filters still apply, the date filter is
// replaced by the previous window.
func PreviousPeriodTickets(tickets []domain.Ticket, f FilterSelection, now time.Time) ([]domain.Ticket, PeriodWindow, bool) {
	window, ok := TrendWindow(f, now)
	if !ok {
		return nil, PeriodWindow{}, false
	}

	prev := window.Previous()
	categorical := f.WithoutDateRange()

	out := make([]domain.Ticket, 0)
	for _, t := range tickets {
		if !MatchesCategorical(t, categorical) || !t.HasCreatedTime() {
			continue
		}
		if prev.Contains(t.CreatedTime) {
			out = append(out, t)
		}
	}
	return out, window, true
}

// TrendDirection says which way a KPI moved.
type TrendDirection string

const (
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendNeutral TrendDirection = "neutral"
)

// KPITrend is the change of one KPI against the previous period.
type KPITrend struct {
	Value     float64        `json:"value"`
	Direction TrendDirection `json:"direction"`
	Label     string         `json:"label"`
}

// KPITrends holds one KPITrend per KPISet field.
type KPITrends struct {
	TotalTickets   KPITrend `json:"totalTickets"`
	BacklogTickets KPITrend `json:"backlogTickets"`
	ReopenRate     KPITrend `json:"reopenRate"`
	MTTR           KPITrend `json:"mttr"`
	HighHopTickets KPITrend `json:"highHopTickets"`
	SLAMetRate     KPITrend `json:"slaMetRate"`
}

// CompareKPIs compares every KPI of current against previous.
func CompareKPIs(current, previous KPISet, label string) KPITrends {
	return KPITrends{
		TotalTickets:   ComputeTrend(float64(current.TotalTickets), float64(previous.TotalTickets), label),
		BacklogTickets: ComputeTrend(float64(current.BacklogTickets), float64(previous.BacklogTickets), label),
		ReopenRate:     ComputeTrend(rateValue(current.ReopenRate), rateValue(previous.ReopenRate), label),
		MTTR:           ComputeTrend(rateValue(current.MTTR), rateValue(previous.MTTR), label),
		HighHopTickets: ComputeTrend(float64(current.HighHopTickets), float64(previous.HighHopTickets), label),
		SLAMetRate:     ComputeTrend(rateValue(current.SLAMetRate), rateValue(previous.SLAMetRate), label),
	}
}

// ComputeTrend returns the absolute percentage change from previous to
// current, rounded to one decimal. A zero baseline reads as +100% when
// anything appeared and as no change otherwise.
func ComputeTrend(current, previous float64, label string) KPITrend {
	if previous == 0 {
		if current > 0 {
			return KPITrend{Value: 100, Direction: TrendUp, Label: label}
		}
		return KPITrend{Value: 0, Direction: TrendNeutral, Label: label}
	}

	change := (current - previous) / previous * 100
	direction := TrendNeutral
	switch {
	case change > 0:
		direction = TrendUp
	case change < 0:
		direction = TrendDown
		change = -change
	}
	return KPITrend{Value: domain.RoundTo(change, 1), Direction: direction, Label: label}
}

// PeriodComparison bundles current KPIs with their previous period.
type PeriodComparison struct {
	Window   PeriodWindow `json:"window"`
	Previous KPISet       `json:"previous"`
	Trends   KPITrends    `json:"trends"`
}

// ComparePeriods computes the previous period KPIs for f and the trend
// of each KPI. It returns nil when the date range has no comparison.
func ComparePeriods(all []domain.Ticket, current KPISet, f FilterSelection, now time.Time) *PeriodComparison {
	prevTickets, window, ok := PreviousPeriodTickets(all, f, now)
	if !ok {
		return nil
	}
	previous := CalculateKPIs(prevTickets)
	return &PeriodComparison{
		Window:   window,
		Previous: previous,
		Trends:   CompareKPIs(current, previous, window.Label()),
	}
}
