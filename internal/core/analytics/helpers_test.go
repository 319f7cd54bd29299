package analytics_test

import (
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// now is Friday 2024-03-15 12:00 UTC.
var now = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

type ticketOpt func(*domain.Ticket)

func newTicket(id string, opts ...ticketOpt) domain.Ticket {
	t := domain.Ticket{
		TicketID:        id,
		Title:           "Ticket " + id,
		Priority:        domain.PriorityP4,
		Status:          "Open",
		Assignee:        domain.UnassignedLabel,
		AssignmentGroup: domain.UnassignedLabel,
		Region:          domain.RegionOther,
		BusinessUnit:    domain.DefaultBusinessUnit,
		SLAStatus:       domain.SLAMet,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func created(ts string) ticketOpt {
	return func(t *domain.Ticket) {
		t.Created = ts
		t.CreatedTime, _ = domain.ParseTimestamp(ts, time.UTC)
	}
}

func resolvedAt(ts string) ticketOpt {
	return func(t *domain.Ticket) {
		t.ResolvedAt = ts
		t.ResolvedAtTime, _ = domain.ParseTimestamp(ts, time.UTC)
	}
}

func hours(h float64) ticketOpt {
	return func(t *domain.Ticket) {
		t.ResolvedHours = &h
		t.Resolved = domain.FormatFixed(h, 1) + " hrs"
		t.SLAStatus = domain.ClassifySLA(t.Priority, h)
	}
}

func status(s string) ticketOpt {
	return func(t *domain.Ticket) { t.Status = s }
}

func priority(p domain.Priority) ticketOpt {
	return func(t *domain.Ticket) { t.Priority = p }
}

func assignee(name, group string) ticketOpt {
	return func(t *domain.Ticket) {
		t.Assignee = name
		t.AssignmentGroup = group
	}
}

func region(r domain.Region) ticketOpt {
	return func(t *domain.Ticket) { t.Region = r }
}

func resolver(name string) ticketOpt {
	return func(t *domain.Ticket) { t.Resolver = name }
}

func age(days int) ticketOpt {
	return func(t *domain.Ticket) { t.AgeDays = days }
}

func reopens(n int) ticketOpt {
	return func(t *domain.Ticket) { t.ReopenCount = &n }
}

func hops(n int) ticketOpt {
	return func(t *domain.Ticket) { t.ReassignmentCount = &n }
}

func breached() ticketOpt {
	return func(t *domain.Ticket) { t.SLAStatus = domain.SLABreached }
}

func title(s string) ticketOpt {
	return func(t *domain.Ticket) { t.Title = s }
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.TicketID
	}
	return out
}
