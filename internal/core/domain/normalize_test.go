package domain_test

import (
	"testing"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestMapPriority(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.Priority
	}{
		{"1 - Critical", domain.PriorityP1},
		{"2 - High", domain.PriorityP2},
		{"3 - Moderate", domain.PriorityP3},
		{"4 - Low", domain.PriorityP4},
		{"5 - Planning", domain.PriorityP4},
		{"", domain.PriorityP4},
		{"Critical", domain.PriorityP4},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.MapPriority(tt.raw))
		})
	}
}

func TestClassifyRegion(t *testing.T) {
	tests := []struct {
		name    string
		region  string
		country string
		want    domain.Region
	}{
		{"emea hub", "Europe/EMEA Hub", "", domain.RegionEMEA},
		{"latam keyword", "LATAM", "", domain.RegionLATAM},
		{"latam country beats americas", "Americas", "Brazil", domain.RegionLATAM},
		{"latam country beats europe", "Europe", "Mexico", domain.RegionLATAM},
		{"north america", "North America", "United States", domain.RegionNA},
		{"apac", "APAC", "", domain.RegionAPAC},
		{"amea counts as apac", "AMEA", "", domain.RegionAPAC},
		{"asia pacific", "Asia Pacific", "", domain.RegionAPAC},
		{"na keyword", "NA", "", domain.RegionNA},
		{"unknown", "Global", "", domain.RegionOther},
		{"blank", "", "", domain.RegionOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ClassifyRegion(tt.region, tt.country))
		})
	}
}

func TestClassifySLA(t *testing.T) {
	assert.Equal(t, domain.SLAMet, domain.ClassifySLA(domain.PriorityP1, 4.0))
	assert.Equal(t, domain.SLABreached, domain.ClassifySLA(domain.PriorityP1, 4.1))
	assert.Equal(t, domain.SLAMet, domain.ClassifySLA(domain.PriorityP4, 48))
	assert.Equal(t, domain.SLABreached, domain.ClassifySLA(domain.PriorityP3, 24.5))
}

func TestNormalize(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		raw := domain.RawIncidentRecord{
			Number:               "INC0001",
			ShortDescription:     "Outlook crashes",
			State:                "Resolved",
			Priority:             "2 - High",
			AssignmentGroup:      "Service Desk",
			AssignedTo:           "Jane Doe",
			ResolvedBy:           "Jane Doe",
			Region:               "Europe",
			BusinessOwnerCountry: "Germany",
			BusinessUnit:         "Finance",
			Opened:               "2024-03-01 10:00:00",
			Resolved:             "2024-03-03 16:00:00",
			ResolveTime:          domain.NewFlexNumber(36000),
			ReassignmentCount:    domain.NewFlexNumber(3),
			ReopenCount:          domain.NewFlexNumber(0),
		}

		ticket := domain.Normalize(raw, fixedNow)

		assert.Equal(t, "INC0001", ticket.TicketID)
		assert.Equal(t, domain.PriorityP2, ticket.Priority)
		assert.Equal(t, domain.RegionEMEA, ticket.Region)
		assert.Equal(t, "Finance", ticket.BusinessUnit)
		assert.Equal(t, 2, ticket.AgeDays)
		assert.Equal(t, "10.0 hrs", ticket.Resolved)
		require.NotNil(t, ticket.ResolvedHours)
		assert.Equal(t, 10.0, *ticket.ResolvedHours)
		assert.Equal(t, domain.SLABreached, ticket.SLAStatus)
		require.NotNil(t, ticket.ReassignmentCount)
		assert.Equal(t, 3, *ticket.ReassignmentCount)
		assert.True(t, ticket.HasCreatedTime())
		assert.True(t, ticket.HasResolvedAtTime())
		assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), ticket.CreatedTime)
	})

	t.Run("blank record falls back to defaults", func(t *testing.T) {
		ticket := domain.Normalize(domain.RawIncidentRecord{}, fixedNow)

		assert.Equal(t, domain.PriorityP4, ticket.Priority)
		assert.Equal(t, domain.RegionOther, ticket.Region)
		assert.Equal(t, domain.UnassignedLabel, ticket.Assignee)
		assert.Equal(t, domain.UnassignedLabel, ticket.AssignmentGroup)
		assert.Equal(t, domain.DefaultBusinessUnit, ticket.BusinessUnit)
		assert.Equal(t, domain.SLAMet, ticket.SLAStatus)
		assert.Equal(t, 0, ticket.AgeDays)
		assert.Empty(t, ticket.Resolved)
		assert.Nil(t, ticket.ResolvedHours)
		assert.Nil(t, ticket.ReopenCount)
		assert.Nil(t, ticket.ReassignmentCount)
		assert.False(t, ticket.HasCreatedTime())
	})

	t.Run("exactly at threshold is met", func(t *testing.T) {
		raw := domain.RawIncidentRecord{Priority: "1", ResolveTime: domain.NewFlexNumber(14400)}
		ticket := domain.Normalize(raw, fixedNow)

		assert.Equal(t, "4.0 hrs", ticket.Resolved)
		assert.Equal(t, domain.SLAMet, ticket.SLAStatus)
	})

	t.Run("just over threshold is breached", func(t *testing.T) {
		raw := domain.RawIncidentRecord{Priority: "1", ResolveTime: domain.NewFlexNumber(14760)}
		ticket := domain.Normalize(raw, fixedNow)

		assert.Equal(t, "4.1 hrs", ticket.Resolved)
		assert.Equal(t, domain.SLABreached, ticket.SLAStatus)
	})

	t.Run("zero resolve time is treated as absent", func(t *testing.T) {
		raw := domain.RawIncidentRecord{ResolveTime: domain.NewFlexNumber(0)}
		ticket := domain.Normalize(raw, fixedNow)

		assert.False(t, ticket.HasResolution())
		assert.Equal(t, domain.SLAMet, ticket.SLAStatus)
	})

	t.Run("unresolved age runs to now", func(t *testing.T) {
		raw := domain.RawIncidentRecord{Opened: "2024-03-05 13:00:00"}
		ticket := domain.Normalize(raw, fixedNow)

		// 9 days and 23 hours
		assert.Equal(t, 9, ticket.AgeDays)
	})

	t.Run("created in the future still has positive age", func(t *testing.T) {
		raw := domain.RawIncidentRecord{Opened: "2024-03-18 12:00:00"}
		ticket := domain.Normalize(raw, fixedNow)

		assert.Equal(t, 3, ticket.AgeDays)
	})

	t.Run("falls back to Created when Opened is blank", func(t *testing.T) {
		raw := domain.RawIncidentRecord{Created: "2024-03-10 08:00"}
		ticket := domain.Normalize(raw, fixedNow)

		assert.Equal(t, "2024-03-10 08:00", ticket.Created)
		assert.True(t, ticket.HasCreatedTime())
	})

	t.Run("unparseable resolved timestamp zeroes age", func(t *testing.T) {
		raw := domain.RawIncidentRecord{Opened: "2024-03-01 10:00:00", Resolved: "yesterday"}
		ticket := domain.Normalize(raw, fixedNow)

		assert.Equal(t, 0, ticket.AgeDays)
		assert.False(t, ticket.HasResolvedAtTime())
		assert.Equal(t, "yesterday", ticket.ResolvedAt)
	})

	t.Run("timestamps are read in the location of now", func(t *testing.T) {
		loc := time.FixedZone("CET", 3600)
		raw := domain.RawIncidentRecord{Opened: "2024-03-01 10:00:00"}
		ticket := domain.Normalize(raw, fixedNow.In(loc))

		assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), ticket.CreatedTime.UTC())
	})
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	records := []domain.RawIncidentRecord{{Number: "A"}, {Number: "B"}, {Number: "C"}}

	tickets := domain.NormalizeAll(records, fixedNow)

	require.Len(t, tickets, 3)
	assert.Equal(t, "A", tickets[0].TicketID)
	assert.Equal(t, "C", tickets[2].TicketID)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2024-03-01 10:00:00", true},
		{"2024-03-01 10:00", true},
		{"2024-03-01T10:00:00", true},
		{"2024-03-01T10:00:00Z", true},
		{"2024-03-01T10:00:00+02:00", true},
		{"2024-03-01", true},
		{"", false},
		{"not a date", false},
		{"2024-13-01 10:00:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, ok := domain.ParseTimestamp(tt.input, time.UTC)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestRoundingHelpers(t *testing.T) {
	assert.Equal(t, "4.0", domain.FormatFixed(4, 1))
	assert.Equal(t, "33.33", domain.FormatFixed(100.0/3, 2))
	assert.Equal(t, 2.5, domain.RoundTo(2.46, 1))
	assert.Equal(t, "0.0", domain.FormatFixed(0, 1))
}
