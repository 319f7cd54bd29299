package analytics_test

import (
	"strconv"
	"testing"

	"github.com/lorrc/service-desk-insights/internal/core/analytics"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateKPIs_Empty(t *testing.T) {
	got := analytics.CalculateKPIs(nil)

	assert.Equal(t, analytics.KPISet{
		TotalTickets:   0,
		BacklogTickets: 0,
		ReopenRate:     "0.0",
		MTTR:           "0.0",
		HighHopTickets: 0,
		SLAMetRate:     "0.0",
	}, got)
}

func TestCalculateKPIs_Backlog(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("INC-1", priority(domain.PriorityP1), status("Open")),
		newTicket("INC-2", priority(domain.PriorityP1), status(domain.StatusResolved)),
		newTicket("INC-3", priority(domain.PriorityP2), status(domain.StatusClosed)),
	}

	got := analytics.CalculateKPIs(tickets)

	assert.Equal(t, 3, got.TotalTickets)
	assert.Equal(t, 1, got.BacklogTickets)
}

func TestCalculateKPIs_Rates(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("INC-1", priority(domain.PriorityP1), hours(3), status(domain.StatusResolved), reopens(1)),
		newTicket("INC-2", priority(domain.PriorityP1), hours(6), status(domain.StatusClosed), hops(3)),
		newTicket("INC-3", priority(domain.PriorityP2), hops(2), title("Printer REOPENED again")),
	}

	got := analytics.CalculateKPIs(tickets)

	assert.Equal(t, "66.67", got.ReopenRate)
	assert.Equal(t, "4.5", got.MTTR)
	assert.Equal(t, 1, got.HighHopTickets)
	// INC-2 breached; the open ticket still counts as met.
	assert.Equal(t, "66.7", got.SLAMetRate)
}

func TestCalculateKPIs_ReopenCounterWinsOverText(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("INC-1", title("reopened by user"), reopens(0)),
		newTicket("INC-2"),
	}

	assert.Equal(t, "0.00", analytics.CalculateKPIs(tickets).ReopenRate)
}

func TestCalculateKPIs_RatesStayInBounds(t *testing.T) {
	sets := map[string][]domain.Ticket{
		"all reopened": {
			newTicket("INC-1", reopens(2), breached()),
			newTicket("INC-2", reopens(1), breached()),
		},
		"mixed": {
			newTicket("INC-1", reopens(1)),
			newTicket("INC-2", breached()),
			newTicket("INC-3"),
		},
	}

	for name, tickets := range sets {
		t.Run(name, func(t *testing.T) {
			got := analytics.CalculateKPIs(tickets)
			for _, rate := range []string{got.ReopenRate, got.SLAMetRate} {
				v, err := strconv.ParseFloat(rate, 64)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 100.0)
			}
			assert.LessOrEqual(t, got.BacklogTickets, got.TotalTickets)
			assert.LessOrEqual(t, got.HighHopTickets, got.TotalTickets)
		})
	}
}
