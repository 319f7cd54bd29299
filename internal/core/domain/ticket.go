package domain

import (
	"strings"
	"time"
)

// Priority is the canonical P1..P4 urgency bucket.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

// Priorities lists every priority in display order.
var Priorities = []Priority{PriorityP1, PriorityP2, PriorityP3, PriorityP4}

// slaThresholdHours is the maximum resolution time per priority.
var slaThresholdHours = map[Priority]float64{
	PriorityP1: 4,
	PriorityP2: 8,
	PriorityP3: 24,
	PriorityP4: 48,
}

var priorityLabels = map[Priority]string{
	PriorityP1: "P1 Critical",
	PriorityP2: "P2 High",
	PriorityP3: "P3 Moderate",
	PriorityP4: "P4 Low",
}

// IsValid checks if the priority is one of P1..P4.
func (p Priority) IsValid() bool {
	_, ok := slaThresholdHours[p]
	return ok
}

// SLAThresholdHours returns the SLA resolution target for the priority.
// Unknown priorities get the P4 target.
func (p Priority) SLAThresholdHours() float64 {
	if h, ok := slaThresholdHours[p]; ok {
		return h
	}
	return slaThresholdHours[PriorityP4]
}

// Label returns the display label, e.g. "P1 Critical".
func (p Priority) Label() string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return string(p)
}

// ParsePriority matches P1..P4 case-insensitively.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	return p, p.IsValid()
}

// Region is the coarse geography a ticket is reported against.
type Region string

const (
	RegionNA    Region = "na"
	RegionEMEA  Region = "emea"
	RegionAPAC  Region = "apac"
	RegionLATAM Region = "latam"
	RegionOther Region = "Other"
)

// Regions lists every region in display order.
var Regions = []Region{RegionNA, RegionEMEA, RegionAPAC, RegionLATAM, RegionOther}

// IsValid checks if the region is one of the five known values.
func (r Region) IsValid() bool {
	switch r {
	case RegionNA, RegionEMEA, RegionAPAC, RegionLATAM, RegionOther:
		return true
	}
	return false
}

// DisplayName returns the upper-case label used in charts.
func (r Region) DisplayName() string {
	if r == RegionOther {
		return "Other"
	}
	return strings.ToUpper(string(r))
}

// SLAStatus records whether a ticket met its resolution target.
type SLAStatus string

const (
	SLAMet      SLAStatus = "met"
	SLABreached SLAStatus = "breached"
)

// Terminal statuses. Everything else counts as open backlog.
const (
	StatusResolved = "Resolved"
	StatusClosed   = "Closed"
)

// Defaults applied by the normalizer to blank fields.
const (
	UnassignedLabel     = "Unassigned"
	DefaultBusinessUnit = "Other"
)

// Ticket is the canonical incident produced by Normalize. Tickets are
// values: nothing in the analytics pipeline mutates one after creation.
type Ticket struct {
	TicketID          string    `json:"ticketId"`
	Title             string    `json:"title"`
	Priority          Priority  `json:"priority"`
	Status            string    `json:"status"`
	Assignee          string    `json:"assignee"`
	Created           string    `json:"created"`
	AgeDays           int       `json:"age"`
	AssignmentGroup   string    `json:"assignmentGroup"`
	Region            Region    `json:"region"`
	BusinessUnit      string    `json:"businessUnit"`
	Resolved          string    `json:"resolved,omitempty"`
	ResolvedHours     *float64  `json:"resolvedHours,omitempty"`
	ResolvedAt        string    `json:"resolvedAt,omitempty"`
	Resolver          string    `json:"resolver,omitempty"`
	SLAStatus         SLAStatus `json:"slaStatus"`
	ReopenCount       *int      `json:"reopenCount,omitempty"`
	ReassignmentCount *int      `json:"reassignmentCount,omitempty"`

	// Parsed forms of Created and ResolvedAt. Zero when the raw text
	// could not be parsed.
	CreatedTime    time.Time `json:"-"`
	ResolvedAtTime time.Time `json:"-"`
}

// AgeDaysAt returns the age in whole days with now as the end point of
// an unresolved ticket. Tickets with a recorded resolution, or without a
// parsed creation time, keep the stored AgeDays.
func (t Ticket) AgeDaysAt(now time.Time) int {
	if t.CreatedTime.IsZero() || strings.TrimSpace(t.ResolvedAt) != "" {
		return t.AgeDays
	}
	return ageInDays(t.CreatedTime, "", time.Time{}, now)
}

// AgeTickets returns the tickets with AgeDays measured at now. The input
// is returned as is when no age changes, otherwise a copy is made.
func AgeTickets(tickets []Ticket, now time.Time) []Ticket {
	var out []Ticket
	for i, t := range tickets {
		age := t.AgeDaysAt(now)
		if age == t.AgeDays {
			continue
		}
		if out == nil {
			out = make([]Ticket, len(tickets))
			copy(out, tickets)
		}
		out[i].AgeDays = age
	}
	if out == nil {
		return tickets
	}
	return out
}

// IsTerminal reports whether the ticket is resolved or closed.
func (t Ticket) IsTerminal() bool {
	return t.Status == StatusResolved || t.Status == StatusClosed
}

// IsOpen reports whether the ticket is still part of the backlog.
func (t Ticket) IsOpen() bool {
	return !t.IsTerminal()
}

// HasResolution reports whether a resolution duration was recorded.
func (t Ticket) HasResolution() bool {
	return t.ResolvedHours != nil
}

// Reassignments returns the reassignment count, 0 when unknown.
func (t Ticket) Reassignments() int {
	if t.ReassignmentCount == nil {
		return 0
	}
	return *t.ReassignmentCount
}

// HighHopThreshold is the reassignment count from which a ticket counts
// as bouncing between teams.
const HighHopThreshold = 3

// IsHighHop reports whether the ticket was reassigned HighHopThreshold
// times or more.
func (t Ticket) IsHighHop() bool {
	return t.Reassignments() >= HighHopThreshold
}

// ReopenEvidence names which signal decided a reopen classification.
type ReopenEvidence string

const (
	// ReopenByCounter means the export carried a reopen count.
	ReopenByCounter ReopenEvidence = "counter"
	// ReopenByText means no count was present and the title or status
	// text was inspected instead.
	ReopenByText ReopenEvidence = "text"
)

// ReopenDecision classifies the ticket as reopened and says which path
// was taken. The structured counter always wins when present.
func (t Ticket) ReopenDecision() (bool, ReopenEvidence) {
	if t.ReopenCount != nil {
		return *t.ReopenCount > 0, ReopenByCounter
	}

	title := strings.ToLower(t.Title)
	status := strings.ToLower(t.Status)
	reopened := strings.Contains(title, "reopen") ||
		strings.Contains(title, "re-open") ||
		strings.Contains(status, "reopen")
	return reopened, ReopenByText
}

// IsReopened reports whether the ticket was reopened.
func (t Ticket) IsReopened() bool {
	reopened, _ := t.ReopenDecision()
	return reopened
}

// HasCreatedTime reports whether Created parsed to an instant.
func (t Ticket) HasCreatedTime() bool {
	return !t.CreatedTime.IsZero()
}

// HasResolvedAtTime reports whether ResolvedAt parsed to an instant.
func (t Ticket) HasResolvedAtTime() bool {
	return !t.ResolvedAtTime.IsZero()
}
