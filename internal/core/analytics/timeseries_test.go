package analytics_test

import (
	"testing"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/analytics"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectGranularity(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		hint     analytics.DateRange
		instants []time.Time
		want     analytics.Granularity
	}{
		{"today is hourly", analytics.RangeToday, nil, analytics.Hourly},
		{"all is monthly", analytics.RangeAll, nil, analytics.Monthly},
		{"7d is daily", analytics.Range7d, nil, analytics.Daily},
		{"mtd is daily", analytics.RangeMTD, nil, analytics.Daily},
		{"custom without data is daily", analytics.RangeCustom, nil, analytics.Daily},
		{"custom under 48h is hourly", analytics.RangeCustom, []time.Time{base.Add(47 * time.Hour), base}, analytics.Hourly},
		{"custom of exactly 48h is daily", analytics.RangeCustom, []time.Time{base, base.Add(48 * time.Hour)}, analytics.Daily},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analytics.SelectGranularity(tt.hint, tt.instants))
		})
	}
}

func TestBucketKey_Shapes(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		g       analytics.Granularity
		want    string
		wantLen int
	}{
		{analytics.Hourly, "2024-03-01T10", 13},
		{analytics.Daily, "2024-03-01", 10},
		{analytics.Monthly, "2024-03", 7},
	}

	for _, tt := range tests {
		t.Run(string(tt.g), func(t *testing.T) {
			key := analytics.BucketKey(at, tt.g)
			assert.Equal(t, tt.want, key)
			assert.Len(t, key, tt.wantLen)
			assert.Equal(t, tt.g, analytics.GranularityOfKey(key))
		})
	}
}

func TestBucketKey_UsesUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	at := time.Date(2024, 3, 1, 5, 0, 0, 0, tokyo)

	assert.Equal(t, "2024-02-29", analytics.BucketKey(at, analytics.Daily))
}

func TestInflowTrend_AllIsMonthly(t *testing.T) {
	tickets := []domain.Ticket{newTicket("INC-1", created("2024-03-01 10:00"))}

	got := analytics.InflowTrend(tickets, analytics.RangeAll)

	require.Len(t, got, 1)
	assert.Equal(t, analytics.TrendPoint{Date: "Mar 2024", FullDate: "2024-03", Value: 1}, got[0])
}

func TestInflowTrend_TodayIsHourly(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("INC-1", created("2024-03-15 09:05")),
		newTicket("INC-2", created("2024-03-15 09:55")),
		newTicket("INC-3", created("2024-03-15 11:00")),
	}

	got := analytics.InflowTrend(tickets, analytics.RangeToday)

	assert.Equal(t, []analytics.TrendPoint{
		{Date: "09:00", FullDate: "2024-03-15T09", Value: 2},
		{Date: "11:00", FullDate: "2024-03-15T11", Value: 1},
	}, got)
}

func TestInflowTrend_SortedAndSumsToInput(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("INC-1", created("2024-03-12 10:00")),
		newTicket("INC-2", created("2024-03-10 10:00")),
		newTicket("INC-3", created("2024-03-12 23:00")),
		newTicket("INC-4", created("2024-03-11 01:00")),
		newTicket("INC-5", created("not a date")),
	}

	got := analytics.InflowTrend(tickets, analytics.Range7d)

	require.Len(t, got, 3)
	assert.Equal(t, "2024-03-10", got[0].FullDate)
	assert.Equal(t, "Mar 10, 2024", got[0].Date)
	assert.Equal(t, "2024-03-11", got[1].FullDate)
	assert.Equal(t, "2024-03-12", got[2].FullDate)

	var sum float64
	for _, p := range got {
		sum += p.Value
	}
	assert.Equal(t, 4.0, sum)
}

func TestBacklogTrend_CountsOpenTicketsOnly(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("INC-1", created("2024-03-12 10:00")),
		newTicket("INC-2", created("2024-03-12 11:00"), status(domain.StatusResolved)),
		newTicket("INC-3", created("2024-03-13 11:00"), status("In Progress")),
	}

	got := analytics.BacklogTrend(tickets, analytics.Range7d)

	assert.Equal(t, []analytics.TrendPoint{
		{Date: "Mar 12, 2024", FullDate: "2024-03-12", Value: 1},
		{Date: "Mar 13, 2024", FullDate: "2024-03-13", Value: 1},
	}, got)
}

func TestMTTRTrend(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("INC-1", created("2024-03-10 08:00"), resolvedAt("2024-03-12 09:00"), hours(2)),
		newTicket("INC-2", created("2024-03-10 08:00"), resolvedAt("2024-03-12 18:00"), hours(3.25)),
		newTicket("INC-3", created("2024-03-10 08:00"), resolvedAt("2024-03-13 18:00")),
		newTicket("INC-4", created("2024-03-10 08:00"), hours(8)),
	}

	got := analytics.MTTRTrend(tickets, analytics.Range7d)

	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-12", got[0].FullDate)
	assert.InDelta(t, 2.6, got[0].Value, 1e-9)
}

func TestTrends_EmptyInput(t *testing.T) {
	assert.Empty(t, analytics.InflowTrend(nil, analytics.RangeAll))
	assert.NotNil(t, analytics.InflowTrend(nil, analytics.RangeAll))
	assert.Empty(t, analytics.MTTRTrend(nil, analytics.RangeCustom))
}

func TestReopenTrend(t *testing.T) {
	tickets := []domain.Ticket{
		newTicket("W1-REOPENED", created("2024-03-13 12:00"), reopens(1)),
		newTicket("W1-CLEAN", created("2024-03-15 08:00"), reopens(0)),
		newTicket("W2-REOPENED", created("2024-03-05 12:00"), reopens(2)),
		newTicket("W4-CLEAN", created("2024-02-17 12:00")),
		newTicket("TOO-OLD", created("2024-02-16 11:00"), reopens(1)),
		newTicket("FUTURE", created("2024-03-16 08:00"), reopens(1)),
	}

	got := analytics.ReopenTrend(tickets, now)

	assert.Equal(t, []analytics.ReopenWeekPoint{
		{Week: "W1", Rate: 50, Reopened: 1, Total: 2},
		{Week: "W2", Rate: 100, Reopened: 1, Total: 1},
		{Week: "W3", Rate: 0, Reopened: 0, Total: 0},
		{Week: "W4", Rate: 0, Reopened: 0, Total: 1},
	}, got)
}
