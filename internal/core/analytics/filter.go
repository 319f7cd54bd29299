// Package analytics holds the pure aggregation core: filtering, KPI
// calculation, time series and categorical breakdowns. Every function
// takes its ticket subset and reference time explicitly and returns a
// freshly allocated result. Nothing here logs, blocks or returns errors.
package analytics

import (
	"math"
	"strings"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// All is the sentinel meaning "no constraint" for every filter field.
const All = "all"

// DateRange names a dashboard date window.
type DateRange string

const (
	RangeAll    DateRange = "all"
	RangeToday  DateRange = "today"
	Range7d     DateRange = "7d"
	Range15d    DateRange = "15d"
	Range30d    DateRange = "30d"
	Range90d    DateRange = "90d"
	RangeMTD    DateRange = "mtd"
	RangeQTD    DateRange = "qtd"
	RangeYTD    DateRange = "ytd"
	RangeCustom DateRange = "custom"
)

// FilterRanges are the date ranges accepted by FilterTickets.
var FilterRanges = []DateRange{RangeAll, RangeToday, Range7d, Range15d, Range30d, RangeMTD, RangeQTD, RangeCustom}

// Ticket status filter values.
const (
	StatusFilterOpen   = "open"
	StatusFilterClosed = "closed"
)

// FilterSelection is the dashboard filter state. Blank fields behave
// like All.
type FilterSelection struct {
	DateRange       DateRange `json:"dateRange"`
	TicketStatus    string    `json:"ticketStatus"`
	Priority        string    `json:"priority"`
	Region          string    `json:"region"`
	AssignmentGroup string    `json:"assignmentGroup"`
	AssignedTo      string    `json:"assignedTo"`
	CustomStartDate string    `json:"customStartDate,omitempty"`
	CustomEndDate   string    `json:"customEndDate,omitempty"`
}

// DefaultFilters returns a selection with every field set to All.
func DefaultFilters() FilterSelection {
	return FilterSelection{
		DateRange:       RangeAll,
		TicketStatus:    All,
		Priority:        All,
		Region:          All,
		AssignmentGroup: All,
		AssignedTo:      All,
	}
}

// WithoutDateRange returns a copy that keeps only the categorical
// constraints.
func (f FilterSelection) WithoutDateRange() FilterSelection {
	f.DateRange = RangeAll
	f.CustomStartDate = ""
	f.CustomEndDate = ""
	return f
}

func isAll(v string) bool {
	return v == "" || v == All
}

// DateWindow is an inclusive [Start, End] interval.
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies inside the window, bounds included.
func (w DateWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ResolveDateWindow turns the selected date range into concrete bounds
// in now's location. It returns false when no date constraint applies:
// for "all", for unknown ranges, and for a custom range missing either
// bound or carrying a malformed one.
func ResolveDateWindow(f FilterSelection, now time.Time) (DateWindow, bool) {
	today := domain.StartOfDay(now)

	switch f.DateRange {
	case RangeToday:
		return DateWindow{Start: today, End: now}, true
	case Range7d:
		return DateWindow{Start: today.AddDate(0, 0, -6), End: now}, true
	case Range15d:
		return DateWindow{Start: today.AddDate(0, 0, -14), End: now}, true
	case Range30d:
		return DateWindow{Start: today.AddDate(0, 0, -29), End: now}, true
	case RangeMTD:
		return DateWindow{Start: startOfMonth(now), End: now}, true
	case RangeQTD:
		return DateWindow{Start: startOfQuarter(now), End: now}, true
	case RangeCustom:
		start, end, ok := customBounds(f, now.Location())
		if !ok {
			return DateWindow{}, false
		}
		return DateWindow{Start: start, End: domain.EndOfDay(end)}, true
	default:
		return DateWindow{}, false
	}
}

// FilterTickets returns the tickets satisfying every active predicate of
// f. Categorical predicates run first; once a date window applies, a
// ticket whose created timestamp did not parse is excluded.
func FilterTickets(tickets []domain.Ticket, f FilterSelection, now time.Time) []domain.Ticket {
	window, dated := ResolveDateWindow(f, now)

	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if !MatchesCategorical(t, f) {
			continue
		}
		if dated && (!t.HasCreatedTime() || !window.Contains(t.CreatedTime)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// MatchesCategorical applies the non-date predicates of f to one ticket.
func MatchesCategorical(t domain.Ticket, f FilterSelection) bool {
	if !isAll(f.Priority) && !strings.EqualFold(string(t.Priority), f.Priority) {
		return false
	}

	switch f.TicketStatus {
	case StatusFilterOpen:
		if !t.IsOpen() {
			return false
		}
	case StatusFilterClosed:
		if !t.IsTerminal() {
			return false
		}
	}

	if !isAll(f.Region) && string(t.Region) != f.Region {
		return false
	}
	if !isAll(f.AssignmentGroup) && t.AssignmentGroup != f.AssignmentGroup {
		return false
	}
	if !isAll(f.AssignedTo) && t.Assignee != f.AssignedTo {
		return false
	}
	return true
}

func customBounds(f FilterSelection, loc *time.Location) (time.Time, time.Time, bool) {
	if f.CustomStartDate == "" || f.CustomEndDate == "" {
		return time.Time{}, time.Time{}, false
	}
	start, ok := domain.ParseCalendarDate(f.CustomStartDate, loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok := domain.ParseCalendarDate(f.CustomEndDate, loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfQuarter(t time.Time) time.Time {
	first := time.Month((int(t.Month())-1)/3*3 + 1)
	return time.Date(t.Year(), first, 1, 0, 0, 0, 0, t.Location())
}

// calendarDaysInclusive counts calendar days from a to b, both included,
// never less than one.
func calendarDaysInclusive(a, b time.Time) int {
	a, b = domain.StartOfDay(a), domain.StartOfDay(b)
	days := int(math.Round(b.Sub(a).Hours()/24)) + 1
	if days < 1 {
		return 1
	}
	return days
}
