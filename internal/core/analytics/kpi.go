package analytics

import (
	"strconv"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// zeroRate is returned for every rate and average over an empty set.
const zeroRate = "0.0"

// KPISet is the headline metric row of the dashboard. Rates keep the
// fixed-decimal string form the exporters print verbatim.
type KPISet struct {
	TotalTickets   int    `json:"totalTickets"`
	BacklogTickets int    `json:"backlogTickets"`
	ReopenRate     string `json:"reopenRate"`
	MTTR           string `json:"mttr"`
	HighHopTickets int    `json:"highHopTickets"`
	SLAMetRate     string `json:"slaMetRate"`
}

// CalculateKPIs computes the KPI row over an already filtered subset.
func CalculateKPIs(tickets []domain.Ticket) KPISet {
	kpis := KPISet{
		TotalTickets: len(tickets),
		ReopenRate:   zeroRate,
		MTTR:         zeroRate,
		SLAMetRate:   zeroRate,
	}

	var (
		resolvedCount int
		resolvedSum   float64
		reopened      int
		met           int
	)
	for _, t := range tickets {
		if t.IsOpen() {
			kpis.BacklogTickets++
		}
		if t.ResolvedHours != nil {
			resolvedCount++
			resolvedSum += *t.ResolvedHours
		}
		if t.IsReopened() {
			reopened++
		}
		if t.SLAStatus == domain.SLAMet {
			met++
		}
		if t.IsHighHop() {
			kpis.HighHopTickets++
		}
	}

	if resolvedCount > 0 {
		kpis.MTTR = domain.FormatFixed(resolvedSum/float64(resolvedCount), 1)
	}
	if total := len(tickets); total > 0 {
		kpis.ReopenRate = domain.FormatFixed(percent(reopened, total), 2)
		kpis.SLAMetRate = domain.FormatFixed(percent(met, total), 1)
	}
	return kpis
}

// percent returns part/whole*100, or 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// rateValue reads back a fixed-decimal rate string.
func rateValue(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
