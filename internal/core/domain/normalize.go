package domain

import (
	"strings"
	"time"
)

// latamCountries are matched against the business owner country before
// any region keyword, so Latin American tickets booked under an
// "Americas" region do not fall into NA.
var latamCountries = []string{"mexico", "brazil", "argentina", "colombia"}

// Normalize maps one raw export row into a canonical Ticket. It never
// fails: unknown codes fall back to defaults and absent numbers stay nil.
// Timestamps without an offset are read in now's location, and now is
// the end point of the age of unresolved tickets.
func Normalize(raw RawIncidentRecord, now time.Time) Ticket {
	loc := now.Location()
	priority := MapPriority(raw.Priority.String())

	created := raw.Opened.String()
	if strings.TrimSpace(created) == "" {
		created = raw.Created.String()
	}
	createdTime, _ := ParseTimestamp(created, loc)

	resolvedAt := raw.Resolved.String()
	resolvedAtTime, _ := ParseTimestamp(resolvedAt, loc)

	t := Ticket{
		TicketID:          raw.Number.String(),
		Title:             raw.ShortDescription.String(),
		Priority:          priority,
		Status:            raw.State.String(),
		Assignee:          orDefault(raw.AssignedTo.String(), UnassignedLabel),
		Created:           created,
		AssignmentGroup:   orDefault(raw.AssignmentGroup.String(), UnassignedLabel),
		Region:            ClassifyRegion(raw.Region.String(), raw.BusinessOwnerCountry.String()),
		BusinessUnit:      orDefault(raw.BusinessUnit.String(), DefaultBusinessUnit),
		ResolvedAt:        resolvedAt,
		Resolver:          raw.ResolvedBy.String(),
		SLAStatus:         SLAMet,
		ReopenCount:       raw.ReopenCount.IntPtr(),
		ReassignmentCount: raw.ReassignmentCount.IntPtr(),
		CreatedTime:       createdTime,
		ResolvedAtTime:    resolvedAtTime,
	}

	t.AgeDays = ageInDays(createdTime, resolvedAt, resolvedAtTime, now)

	// A zero resolve time means the export never measured one.
	if raw.ResolveTime.Valid && raw.ResolveTime.Value != 0 {
		hours := RoundTo(raw.ResolveTime.Value/3600, 1)
		t.ResolvedHours = &hours
		t.Resolved = FormatFixed(hours, 1) + " hrs"
		t.SLAStatus = ClassifySLA(priority, hours)
	}

	return t
}

// NormalizeAll normalizes every record, preserving order.
func NormalizeAll(records []RawIncidentRecord, now time.Time) []Ticket {
	tickets := make([]Ticket, len(records))
	for i, r := range records {
		tickets[i] = Normalize(r, now)
	}
	return tickets
}

// MapPriority buckets a raw priority code such as "2 - High" by its
// first character.
func MapPriority(raw string) Priority {
	switch {
	case strings.HasPrefix(raw, "1"):
		return PriorityP1
	case strings.HasPrefix(raw, "2"):
		return PriorityP2
	case strings.HasPrefix(raw, "3"):
		return PriorityP3
	default:
		return PriorityP4
	}
}

// ClassifyRegion maps free-text region and country values onto a Region.
// The checks run in a fixed order: LATAM, EMEA, APAC, NA.
func ClassifyRegion(region, country string) Region {
	r := strings.ToLower(region)
	c := strings.ToLower(country)

	if strings.Contains(r, "latam") {
		return RegionLATAM
	}
	for _, name := range latamCountries {
		if strings.Contains(c, name) {
			return RegionLATAM
		}
	}

	switch {
	case strings.Contains(r, "europe"), strings.Contains(r, "emea"):
		return RegionEMEA
	case strings.Contains(r, "asia"), strings.Contains(r, "apac"), strings.Contains(r, "amea"):
		return RegionAPAC
	case strings.Contains(r, "america"), strings.Contains(r, "na"):
		return RegionNA
	default:
		return RegionOther
	}
}

// ClassifySLA compares a resolution duration with the priority's target.
// Hitting the target exactly still counts as met.
func ClassifySLA(priority Priority, hours float64) SLAStatus {
	if hours > priority.SLAThresholdHours() {
		return SLABreached
	}
	return SLAMet
}

// ageInDays is 0 when created, or a recorded resolution, does not parse.
func ageInDays(created time.Time, resolvedAt string, resolved, now time.Time) int {
	if created.IsZero() {
		return 0
	}

	end := now
	if strings.TrimSpace(resolvedAt) != "" {
		if resolved.IsZero() {
			return 0
		}
		end = resolved
	}

	diff := end.Sub(created)
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
