package analytics_test

import (
	"testing"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/analytics"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDateWindow(t *testing.T) {
	tests := []struct {
		name      string
		filters   analytics.FilterSelection
		wantOK    bool
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:    "all",
			filters: analytics.FilterSelection{DateRange: analytics.RangeAll},
		},
		{
			name:      "today",
			filters:   analytics.FilterSelection{DateRange: analytics.RangeToday},
			wantOK:    true,
			wantStart: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   now,
		},
		{
			name:      "7d starts six days before midnight",
			filters:   analytics.FilterSelection{DateRange: analytics.Range7d},
			wantOK:    true,
			wantStart: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
			wantEnd:   now,
		},
		{
			name:      "15d crosses the leap day",
			filters:   analytics.FilterSelection{DateRange: analytics.Range15d},
			wantOK:    true,
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   now,
		},
		{
			name:      "30d",
			filters:   analytics.FilterSelection{DateRange: analytics.Range30d},
			wantOK:    true,
			wantStart: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   now,
		},
		{
			name:      "month to date",
			filters:   analytics.FilterSelection{DateRange: analytics.RangeMTD},
			wantOK:    true,
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   now,
		},
		{
			name:      "quarter to date",
			filters:   analytics.FilterSelection{DateRange: analytics.RangeQTD},
			wantOK:    true,
			wantStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   now,
		},
		{
			name: "custom end is inclusive",
			filters: analytics.FilterSelection{
				DateRange:       analytics.RangeCustom,
				CustomStartDate: "2024-03-01",
				CustomEndDate:   "2024-03-05",
			},
			wantOK:    true,
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 5, 23, 59, 59, int(999*time.Millisecond), time.UTC),
		},
		{
			name:    "custom missing end",
			filters: analytics.FilterSelection{DateRange: analytics.RangeCustom, CustomStartDate: "2024-03-01"},
		},
		{
			name: "custom malformed",
			filters: analytics.FilterSelection{
				DateRange:       analytics.RangeCustom,
				CustomStartDate: "03/01/2024",
				CustomEndDate:   "2024-03-05",
			},
		},
		{
			name:    "unknown range",
			filters: analytics.FilterSelection{DateRange: "fortnight"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, ok := analytics.ResolveDateWindow(tt.filters, now)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.True(t, tt.wantStart.Equal(window.Start), "start %s", window.Start)
			assert.True(t, tt.wantEnd.Equal(window.End), "end %s", window.End)
		})
	}
}

func TestFilterTickets_SevenDayBoundary(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("INC-6D", created("2024-03-09 00:00:00")),
		newTicket("INC-JUST-BEFORE", created("2024-03-08 23:59:59")),
		newTicket("INC-8D", created("2024-03-07 00:00:00")),
		newTicket("INC-NOW", created("2024-03-15 12:00:00")),
		newTicket("INC-FUTURE", created("2024-03-15 12:00:01")),
	}

	got := analytics.FilterTickets(tickets, analytics.FilterSelection{DateRange: analytics.Range7d}, now)

	assert.Equal(t, []string{"INC-6D", "INC-NOW"}, ids(got))
}

func TestFilterTickets_CustomRange(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("INC-1", created("2024-03-01 00:00")),
		newTicket("INC-2", created("2024-03-05 23:59:59")),
		newTicket("INC-3", created("2024-03-06 00:00")),
		newTicket("INC-4", created("2024-02-29 23:00")),
	}

	t.Run("inclusive bounds", func(t *testing.T) {
		f := analytics.FilterSelection{
			DateRange:       analytics.RangeCustom,
			CustomStartDate: "2024-03-01",
			CustomEndDate:   "2024-03-05",
		}
		assert.Equal(t, []string{"INC-1", "INC-2"}, ids(analytics.FilterTickets(tickets, f, now)))
	})

	t.Run("incomplete range disables date filtering", func(t *testing.T) {
		f := analytics.FilterSelection{DateRange: analytics.RangeCustom, CustomStartDate: "2024-03-01"}
		assert.Len(t, analytics.FilterTickets(tickets, f, now), len(tickets))
	})
}

func TestFilterTickets_UnparseableCreated(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("INC-OK", created("2024-03-14 09:00")),
		newTicket("INC-BAD", created("yesterday-ish")),
	}

	assert.Equal(t, []string{"INC-OK", "INC-BAD"},
		ids(analytics.FilterTickets(tickets, analytics.DefaultFilters(), now)))
	assert.Equal(t, []string{"INC-OK"},
		ids(analytics.FilterTickets(tickets, analytics.FilterSelection{DateRange: analytics.Range7d}, now)))
}

func TestFilterTickets_Categorical(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("INC-1", priority(domain.PriorityP1), region(domain.RegionEMEA), assignee("Ana Ruiz", "Network"), created("2024-03-14 10:00")),
		newTicket("INC-2", priority(domain.PriorityP1), region(domain.RegionNA), assignee("Ana Ruiz", "Network"), status(domain.StatusResolved), created("2024-03-14 10:00")),
		newTicket("INC-3", priority(domain.PriorityP2), region(domain.RegionEMEA), assignee("Bo Chen", "Desktop"), status(domain.StatusClosed), created("2024-03-14 10:00")),
		newTicket("INC-4", priority(domain.PriorityP3), region(domain.RegionAPAC), created("2024-03-14 10:00")),
	}

	tests := []struct {
		name    string
		filters analytics.FilterSelection
		want    []string
	}{
		{"defaults keep everything", analytics.DefaultFilters(), []string{"INC-1", "INC-2", "INC-3", "INC-4"}},
		{"blank fields mean all", analytics.FilterSelection{}, []string{"INC-1", "INC-2", "INC-3", "INC-4"}},
		{"priority is case insensitive", analytics.FilterSelection{Priority: "p1"}, []string{"INC-1", "INC-2"}},
		{"open", analytics.FilterSelection{TicketStatus: analytics.StatusFilterOpen}, []string{"INC-1", "INC-4"}},
		{"closed covers resolved and closed", analytics.FilterSelection{TicketStatus: analytics.StatusFilterClosed}, []string{"INC-2", "INC-3"}},
		{"region", analytics.FilterSelection{Region: "emea"}, []string{"INC-1", "INC-3"}},
		{"group", analytics.FilterSelection{AssignmentGroup: "Network"}, []string{"INC-1", "INC-2"}},
		{"assignee", analytics.FilterSelection{AssignedTo: "Bo Chen"}, []string{"INC-3"}},
		{"conjunction", analytics.FilterSelection{Priority: "P1", Region: "emea", TicketStatus: analytics.StatusFilterOpen}, []string{"INC-1"}},
		{"no match", analytics.FilterSelection{Priority: "P4"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analytics.FilterTickets(tickets, tt.filters, now)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterTickets_DoesNotAliasInput(t *testing.T) {
	tickets := []domain.Ticket{newTicket("INC-1"), newTicket("INC-2")}

	got := analytics.FilterTickets(tickets, analytics.DefaultFilters(), now)
	got[0].TicketID = "changed"

	assert.Equal(t, "INC-1", tickets[0].TicketID)
}

func TestFilterSelection_WithoutDateRange(t *testing.T) {
	f := analytics.FilterSelection{
		DateRange:       analytics.RangeCustom,
		CustomStartDate: "2024-03-01",
		CustomEndDate:   "2024-03-05",
		Priority:        "P2",
	}

	got := f.WithoutDateRange()

	assert.Equal(t, analytics.RangeAll, got.DateRange)
	assert.Empty(t, got.CustomStartDate)
	assert.Empty(t, got.CustomEndDate)
	assert.Equal(t, "P2", got.Priority)
	assert.Equal(t, analytics.RangeCustom, f.DateRange)
}
