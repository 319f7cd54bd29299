package analytics

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// Result caps used by the dashboard.
const (
	AssigneeBacklogLimit = 10
	GroupLimit           = 10
	LeadResolverLimit    = 5
)

// counter tallies keys in first-seen order.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// sortedDesc returns keys by descending count. Equal counts keep their
// first-seen order.
func (c *counter) sortedDesc() []string {
	keys := slices.Clone(c.order)
	slices.SortStableFunc(keys, func(a, b string) int {
		return c.counts[b] - c.counts[a]
	})
	return keys
}

// TopN returns the first n items, or all of them when n <= 0.
func TopN[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

// AssigneeBacklog is one row of the open backlog per assignee. Ageing
// renders the <3d, 3-6d and >=7d counts as "a/b/c".
type AssigneeBacklog struct {
	Name    string `json:"name"`
	Group   string `json:"group"`
	Backlog int    `json:"backlog"`
	Ageing  string `json:"ageing"`
}

// BacklogByAssignee ranks assignees by open tickets, top ten. Group is the
// assignment group of the assignee's first open ticket.
func BacklogByAssignee(tickets []domain.Ticket) []AssigneeBacklog {
	type entry struct {
		group  string
		ageing [3]int
	}

	c := newCounter()
	entries := make(map[string]*entry)
	for _, t := range tickets {
		if !t.IsOpen() {
			continue
		}
		e, ok := entries[t.Assignee]
		if !ok {
			e = &entry{group: t.AssignmentGroup}
			entries[t.Assignee] = e
		}
		c.add(t.Assignee)

		switch {
		case t.AgeDays < 3:
			e.ageing[0]++
		case t.AgeDays < 7:
			e.ageing[1]++
		default:
			e.ageing[2]++
		}
	}

	names := TopN(c.sortedDesc(), AssigneeBacklogLimit)
	out := make([]AssigneeBacklog, len(names))
	for i, name := range names {
		e := entries[name]
		out[i] = AssigneeBacklog{
			Name:    name,
			Group:   e.group,
			Backlog: c.counts[name],
			Ageing:  fmt.Sprintf("%d/%d/%d", e.ageing[0], e.ageing[1], e.ageing[2]),
		}
	}
	return out
}

// GroupCount is a ticket count per assignment group.
type GroupCount struct {
	Group   string `json:"group"`
	Tickets int    `json:"tickets"`
}

// TicketsByGroup counts tickets per assignment group, largest first.
// Callers pre-filter (usually to open tickets) and cap with TopN.
func TicketsByGroup(tickets []domain.Ticket) []GroupCount {
	c := newCounter()
	for _, t := range tickets {
		if t.AssignmentGroup != "" {
			c.add(t.AssignmentGroup)
		}
	}

	keys := c.sortedDesc()
	out := make([]GroupCount, len(keys))
	for i, k := range keys {
		out[i] = GroupCount{Group: k, Tickets: c.counts[k]}
	}
	return out
}

// OpenTickets returns the non-terminal tickets.
func OpenTickets(tickets []domain.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}

// PriorityCount is a ticket count for one priority.
type PriorityCount struct {
	Priority domain.Priority `json:"priority"`
	Label    string          `json:"label"`
	Count    int             `json:"count"`
}

// TicketsByPriority counts tickets per priority in P1..P4 order.
func TicketsByPriority(tickets []domain.Ticket) []PriorityCount {
	counts := countByPriority(tickets, func(domain.Ticket) bool { return true })
	out := make([]PriorityCount, len(domain.Priorities))
	for i, p := range domain.Priorities {
		out[i] = PriorityCount{Priority: p, Label: p.Label(), Count: counts[p]}
	}
	return out
}

func countByPriority(tickets []domain.Ticket, keep func(domain.Ticket) bool) map[domain.Priority]int {
	counts := make(map[domain.Priority]int, len(domain.Priorities))
	for _, t := range tickets {
		if keep(t) {
			counts[t.Priority]++
		}
	}
	return counts
}

// SLAPriorityRow is the SLA outcome for one priority.
type SLAPriorityRow struct {
	Priority domain.Priority `json:"priority"`
	Met      int             `json:"met"`
	Breached int             `json:"breached"`
	MetRate  string          `json:"metRate"`
}

// SLATracking reports met and breached counts per priority.
func SLATracking(tickets []domain.Ticket) []SLAPriorityRow {
	met := countByPriority(tickets, func(t domain.Ticket) bool { return t.SLAStatus == domain.SLAMet })
	breached := countByPriority(tickets, func(t domain.Ticket) bool { return t.SLAStatus == domain.SLABreached })
	total := countByPriority(tickets, func(domain.Ticket) bool { return true })

	out := make([]SLAPriorityRow, len(domain.Priorities))
	for i, p := range domain.Priorities {
		rate := zeroRate
		if total[p] > 0 {
			rate = domain.FormatFixed(percent(met[p], total[p]), 1)
		}
		out[i] = SLAPriorityRow{Priority: p, Met: met[p], Breached: breached[p], MetRate: rate}
	}
	return out
}

// RiskAgeBasis selects how the breach-risk view measures ticket age.
type RiskAgeBasis string

const (
	// RiskAgeDays uses the whole-day age times 24. With the standard
	// targets no open ticket falls inside a band under this basis.
	RiskAgeDays RiskAgeBasis = "days"
	// RiskAgeElapsed uses the hours elapsed since creation.
	RiskAgeElapsed RiskAgeBasis = "elapsed"
)

// RiskOptions configures SLABreachRisk.
type RiskOptions struct {
	Basis RiskAgeBasis
	Now   time.Time
}

// RiskLevel classifies an open ticket approaching its SLA target.
type RiskLevel string

const (
	RiskNone     RiskLevel = ""
	RiskAtRisk   RiskLevel = "atRisk"
	RiskCritical RiskLevel = "critical"
)

// Risk band bounds as fractions of the SLA target.
const (
	atRiskFraction   = 0.8
	criticalFraction = 0.9
)

// AgeHours returns the ticket age in hours under the given basis.
func AgeHours(t domain.Ticket, opts RiskOptions) float64 {
	if opts.Basis == RiskAgeElapsed && t.HasCreatedTime() && !opts.Now.IsZero() {
		elapsed := opts.Now.Sub(t.CreatedTime)
		if elapsed < 0 {
			return 0
		}
		return elapsed.Hours()
	}
	return float64(t.AgeDays * 24)
}

// ClassifyRisk places an open ticket into the at-risk band [80%, 90%) or
// the critical band [90%, 100%) of its SLA target. Terminal tickets and
// tickets past the target get RiskNone.
func ClassifyRisk(t domain.Ticket, opts RiskOptions) (RiskLevel, float64) {
	if t.IsTerminal() {
		return RiskNone, 0
	}

	age := AgeHours(t, opts)
	threshold := t.Priority.SLAThresholdHours()
	remaining := threshold - age
	switch {
	case age >= threshold:
		return RiskNone, 0
	case age >= threshold*criticalFraction:
		return RiskCritical, remaining
	case age >= threshold*atRiskFraction:
		return RiskAtRisk, remaining
	default:
		return RiskNone, remaining
	}
}

// BreachRiskRow counts open tickets nearing their target per priority.
type BreachRiskRow struct {
	Priority domain.Priority `json:"priority"`
	Label    string          `json:"label"`
	AtRisk   int             `json:"atRisk"`
	Critical int             `json:"critical"`
	Total    int             `json:"total"`
}

// SLABreachRisk counts at-risk and critical open tickets per priority.
func SLABreachRisk(tickets []domain.Ticket, opts RiskOptions) []BreachRiskRow {
	rows := make(map[domain.Priority]*BreachRiskRow, len(domain.Priorities))
	out := make([]BreachRiskRow, len(domain.Priorities))
	for i, p := range domain.Priorities {
		out[i] = BreachRiskRow{Priority: p, Label: p.Label()}
		rows[p] = &out[i]
	}

	for _, t := range tickets {
		row, ok := rows[t.Priority]
		if !ok {
			continue
		}
		switch level, _ := ClassifyRisk(t, opts); level {
		case RiskAtRisk:
			row.AtRisk++
			row.Total++
		case RiskCritical:
			row.Critical++
			row.Total++
		}
	}
	return out
}

// PriorityHours is a mean resolution time for one priority.
type PriorityHours struct {
	Priority domain.Priority `json:"priority"`
	Hours    float64         `json:"hours"`
}

// MTTRByPriority averages resolution hours per priority, one decimal,
// 0 where nothing was resolved.
func MTTRByPriority(tickets []domain.Ticket) []PriorityHours {
	sums := make(map[domain.Priority]float64)
	counts := make(map[domain.Priority]int)
	for _, t := range tickets {
		if t.ResolvedHours == nil {
			continue
		}
		sums[t.Priority] += *t.ResolvedHours
		counts[t.Priority]++
	}

	out := make([]PriorityHours, len(domain.Priorities))
	for i, p := range domain.Priorities {
		out[i] = PriorityHours{Priority: p}
		if counts[p] > 0 {
			out[i].Hours = domain.RoundTo(sums[p]/float64(counts[p]), 1)
		}
	}
	return out
}

// AgeingBucket is one age band of the open backlog split by priority.
type AgeingBucket struct {
	Bucket string `json:"bucket"`
	P1     int    `json:"p1"`
	P2     int    `json:"p2"`
	P3     int    `json:"p3"`
	P4     int    `json:"p4"`
}

type ageBand struct {
	label    string
	min, max int
}

var ageBands = []ageBand{
	{"0-2 days", 0, 2},
	{"3-7 days", 3, 7},
	{"8-15 days", 8, 15},
	{"16-30 days", 16, 30},
	{">30 days", 31, -1},
}

// AgeingBucketLabels lists the age band labels in order.
func AgeingBucketLabels() []string {
	labels := make([]string, len(ageBands))
	for i, b := range ageBands {
		labels[i] = b.label
	}
	return labels
}

func (b ageBand) contains(days int) bool {
	return days >= b.min && (b.max < 0 || days <= b.max)
}

func ageBandOf(days int) int {
	for i, b := range ageBands {
		if b.contains(days) {
			return i
		}
	}
	return -1
}

// AgeingBuckets splits open tickets into five age bands per priority.
func AgeingBuckets(tickets []domain.Ticket) []AgeingBucket {
	out := make([]AgeingBucket, len(ageBands))
	for i, b := range ageBands {
		out[i].Bucket = b.label
	}

	for _, t := range tickets {
		if !t.IsOpen() {
			continue
		}
		i := ageBandOf(t.AgeDays)
		if i < 0 {
			continue
		}
		switch t.Priority {
		case domain.PriorityP1:
			out[i].P1++
		case domain.PriorityP2:
			out[i].P2++
		case domain.PriorityP3:
			out[i].P3++
		default:
			out[i].P4++
		}
	}
	return out
}

// RegionCount is a ticket count for one region.
type RegionCount struct {
	Region domain.Region `json:"region"`
	Name   string        `json:"name"`
	Count  int           `json:"count"`
}

// RegionalDistribution counts tickets per region in NA, EMEA, APAC, LATAM,
// Other order, dropping empty regions.
func RegionalDistribution(tickets []domain.Ticket) []RegionCount {
	counts := make(map[domain.Region]int)
	for _, t := range tickets {
		counts[t.Region]++
	}

	out := make([]RegionCount, 0, len(domain.Regions))
	for _, r := range domain.Regions {
		if counts[r] > 0 {
			out = append(out, RegionCount{Region: r, Name: r.DisplayName(), Count: counts[r]})
		}
	}
	return out
}

// StatusCount is the size of the open or closed population.
type StatusCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StatusSplit returns the Open and Closed counts, both always present.
func StatusSplit(tickets []domain.Ticket) []StatusCount {
	open := 0
	for _, t := range tickets {
		if t.IsOpen() {
			open++
		}
	}
	return []StatusCount{
		{Name: "Open", Count: open},
		{Name: "Closed", Count: len(tickets) - open},
	}
}

// ResolverCount is a resolved ticket count for one resolver.
type ResolverCount struct {
	Name      string `json:"name"`
	Count     int    `json:"count"`
	ShortName string `json:"shortName"`
}

// LeadResolvers ranks resolvers by resolved tickets, top five.
func LeadResolvers(tickets []domain.Ticket) []ResolverCount {
	c := newCounter()
	for _, t := range tickets {
		if t.Resolver != "" {
			c.add(t.Resolver)
		}
	}

	names := TopN(c.sortedDesc(), LeadResolverLimit)
	out := make([]ResolverCount, len(names))
	for i, name := range names {
		out[i] = ResolverCount{Name: name, Count: c.counts[name], ShortName: Initials(name)}
	}
	return out
}

// Initials returns the first letters of the first two words of name, or
// its first two characters when it has no words.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range TopN(strings.Fields(name), 2) {
		r := []rune(word)
		b.WriteRune(r[0])
	}
	if b.Len() > 0 {
		return b.String()
	}
	r := []rune(name)
	return string(TopN(r, 2))
}
