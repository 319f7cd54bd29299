package analytics

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// Dimension is a chart category a user can click to list its tickets.
type Dimension string

const (
	DimPriority       Dimension = "priority"
	DimStatus         Dimension = "status"
	DimRegion         Dimension = "region"
	DimGroup          Dimension = "assignmentGroup"
	DimAssignee       Dimension = "assignee"
	DimResolver       Dimension = "resolver"
	DimSLAStatus      Dimension = "slaStatus"
	DimRisk           Dimension = "risk"
	DimAgeing         Dimension = "ageing"
	DimReopenWeek     Dimension = "reopenWeek"
	DimCreatedBucket  Dimension = "created"
	DimBacklogBucket  Dimension = "backlog"
	DimResolvedBucket Dimension = "resolved"
)

// Dimensions lists every drill-down dimension.
var Dimensions = []Dimension{
	DimPriority, DimStatus, DimRegion, DimGroup, DimAssignee, DimResolver,
	DimSLAStatus, DimRisk, DimAgeing, DimReopenWeek,
	DimCreatedBucket, DimBacklogBucket, DimResolvedBucket,
}

// DrillDown selects the tickets behind one chart element. Priority, when
// set, narrows any dimension further (stacked bars are per priority).
type DrillDown struct {
	Dimension Dimension
	Value     string
	Priority  string
}

// SelectTickets returns the tickets of the clicked element. The boolean
// is false for an unknown dimension.
func SelectTickets(tickets []domain.Ticket, d DrillDown, now time.Time, risk RiskOptions) ([]domain.Ticket, bool) {
	match, ok := drillMatcher(d, now, risk)
	if !ok {
		return nil, false
	}

	out := make([]domain.Ticket, 0)
	for _, t := range tickets {
		if d.Priority != "" && !strings.EqualFold(string(t.Priority), d.Priority) {
			continue
		}
		if match(t) {
			out = append(out, t)
		}
	}
	return out, true
}

func drillMatcher(d DrillDown, now time.Time, risk RiskOptions) (func(domain.Ticket) bool, bool) {
	v := d.Value
	switch d.Dimension {
	case DimPriority:
		return func(t domain.Ticket) bool { return strings.EqualFold(string(t.Priority), v) }, true
	case DimStatus:
		return func(t domain.Ticket) bool {
			switch strings.ToLower(v) {
			case StatusFilterOpen:
				return t.IsOpen()
			case StatusFilterClosed:
				return t.IsTerminal()
			default:
				return t.Status == v
			}
		}, true
	case DimRegion:
		return func(t domain.Ticket) bool {
			return string(t.Region) == v || t.Region.DisplayName() == v
		}, true
	case DimGroup:
		return func(t domain.Ticket) bool { return t.AssignmentGroup == v }, true
	case DimAssignee:
		return func(t domain.Ticket) bool { return t.Assignee == v }, true
	case DimResolver:
		return func(t domain.Ticket) bool { return t.Resolver == v }, true
	case DimSLAStatus:
		return func(t domain.Ticket) bool { return string(t.SLAStatus) == v }, true
	case DimRisk:
		if risk.Now.IsZero() {
			risk.Now = now
		}
		return func(t domain.Ticket) bool {
			level, _ := ClassifyRisk(t, risk)
			return level != RiskNone && string(level) == v
		}, true
	case DimAgeing:
		band := slices.IndexFunc(ageBands, func(b ageBand) bool { return b.label == v })
		return func(t domain.Ticket) bool {
			return band >= 0 && t.IsOpen() && ageBandOf(t.AgeDays) == band
		}, true
	case DimReopenWeek:
		week := slices.Index(ReopenWeekLabels, v)
		return func(t domain.Ticket) bool {
			return week >= 0 && reopenWeekIndex(t, now) == week && t.IsReopened()
		}, true
	case DimCreatedBucket:
		g := GranularityOfKey(v)
		return func(t domain.Ticket) bool {
			return t.HasCreatedTime() && BucketKey(t.CreatedTime, g) == v
		}, true
	case DimBacklogBucket:
		g := GranularityOfKey(v)
		return func(t domain.Ticket) bool {
			return t.IsOpen() && t.HasCreatedTime() && BucketKey(t.CreatedTime, g) == v
		}, true
	case DimResolvedBucket:
		g := GranularityOfKey(v)
		return func(t domain.Ticket) bool {
			return t.HasResolvedAtTime() && t.ResolvedHours != nil && BucketKey(t.ResolvedAtTime, g) == v
		}, true
	default:
		return nil, false
	}
}

// Page sizes offered by the ticket table.
var PageSizes = []int{20, 50, 100, 250}

// DefaultPageSize is used when no valid page size is requested.
const DefaultPageSize = 50

// TableQuery searches, sorts and pages a ticket list. Page is 1-based.
type TableQuery struct {
	Search    string
	SortKey   string
	Direction SortDirection
	Page      int
	PageSize  int
}

// TicketPage is one page of a ticket table.
type TicketPage struct {
	Rows       []domain.Ticket `json:"rows"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// SortableColumns lists the columns PaginateTickets can sort by.
var SortableColumns = []string{
	"ticketId", "title", "priority", "status", "assignee", "assignmentGroup",
	"region", "resolver", "created", "slaStatus", "age", "resolved", "reassignmentCount",
}

var numericColumns = map[string]func(domain.Ticket) (float64, bool){
	"age": func(t domain.Ticket) (float64, bool) {
		return float64(t.AgeDays), true
	},
	"resolved": func(t domain.Ticket) (float64, bool) {
		if t.ResolvedHours == nil {
			return 0, false
		}
		return *t.ResolvedHours, true
	},
	"reassignmentCount": func(t domain.Ticket) (float64, bool) {
		if t.ReassignmentCount == nil {
			return 0, false
		}
		return float64(*t.ReassignmentCount), true
	},
}

func textColumn(t domain.Ticket, key string) string {
	switch key {
	case "ticketId":
		return t.TicketID
	case "title":
		return t.Title
	case "priority":
		return string(t.Priority)
	case "status":
		return t.Status
	case "assignee":
		return t.Assignee
	case "assignmentGroup":
		return t.AssignmentGroup
	case "region":
		return string(t.Region)
	case "resolver":
		return t.Resolver
	case "created":
		return t.Created
	case "slaStatus":
		return string(t.SLAStatus)
	}
	return ""
}

// SearchAndSort applies the search and sort of q to a copy of tickets.
// Search is a trimmed, case-insensitive substring match over the
// displayed columns.
func SearchAndSort(tickets []domain.Ticket, q TableQuery) []domain.Ticket {
	rows := searchTickets(tickets, q.Search)
	sortTickets(rows, q.SortKey, q.Direction)
	return rows
}

// PaginateTickets applies search, sort and paging. A page past the end
// falls back to the first page.
func PaginateTickets(tickets []domain.Ticket, q TableQuery) TicketPage {
	rows := SearchAndSort(tickets, q)

	size := q.PageSize
	if !slices.Contains(PageSizes, size) {
		size = DefaultPageSize
	}
	totalPages := max(1, (len(rows)+size-1)/size)
	page := q.Page
	if page < 1 || page > totalPages {
		page = 1
	}

	start := (page - 1) * size
	end := min(len(rows), start+size)
	return TicketPage{
		Rows:       rows[start:end],
		Total:      len(rows),
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}
}

func searchTickets(tickets []domain.Ticket, search string) []domain.Ticket {
	query := strings.ToLower(strings.TrimSpace(search))
	if query == "" {
		return append(make([]domain.Ticket, 0, len(tickets)), tickets...)
	}

	out := make([]domain.Ticket, 0)
	for _, t := range tickets {
		fields := []string{
			t.TicketID, t.Title, string(t.Priority), t.Status, t.Assignee,
			t.AssignmentGroup, string(t.Region), t.Resolver, t.Created,
			strconv.Itoa(t.AgeDays) + "d",
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), query) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// sortTickets sorts in place. Missing numeric values sort last in both
// directions; an unknown key keeps the input order.
func sortTickets(rows []domain.Ticket, key string, dir SortDirection) {
	if !slices.Contains(SortableColumns, key) {
		return
	}
	sign := 1
	if dir == SortDesc {
		sign = -1
	}

	if numeric, ok := numericColumns[key]; ok {
		slices.SortStableFunc(rows, func(a, b domain.Ticket) int {
			av, aok := numeric(a)
			bv, bok := numeric(b)
			switch {
			case !aok && !bok:
				return 0
			case !aok:
				return 1
			case !bok:
				return -1
			}
			return sign * cmp.Compare(av, bv)
		})
		return
	}

	slices.SortStableFunc(rows, func(a, b domain.Ticket) int {
		return sign * compareNames(textColumn(a, key), textColumn(b, key))
	})
}
