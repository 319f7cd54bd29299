package analytics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// LeaderboardMode selects whose name a leaderboard groups by.
type LeaderboardMode string

const (
	ModeResolver LeaderboardMode = "resolver"
	ModeAssignee LeaderboardMode = "assignee"
)

// LeaderboardSortKey is a sortable leaderboard column.
type LeaderboardSortKey string

const (
	SortByTotal      LeaderboardSortKey = "total"
	SortBySLAMetRate LeaderboardSortKey = "slaMetRate"
	SortByReopened   LeaderboardSortKey = "reopened"
	SortByHighHop    LeaderboardSortKey = "highHop"
	SortByName       LeaderboardSortKey = "name"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// DefaultDirection is ascending for names and descending for numbers.
func (k LeaderboardSortKey) DefaultDirection() SortDirection {
	if k == SortByName {
		return SortAsc
	}
	return SortDesc
}

// UnspecifiedName labels tickets without a resolver or assignee.
const UnspecifiedName = "Unspecified"

// Tone grades a leaderboard figure for display.
type Tone string

const (
	ToneGood Tone = "good"
	ToneWarn Tone = "warn"
	ToneBad  Tone = "bad"
)

// LeaderboardRow aggregates the tickets of one person.
type LeaderboardRow struct {
	Rank       int      `json:"rank"`
	Name       string   `json:"name"`
	Initials   string   `json:"initials"`
	Total      int      `json:"total"`
	Reopened   int      `json:"reopened"`
	HighHop    int      `json:"highHop"`
	SLAMet     int      `json:"slaMet"`
	SLAMetRate float64  `json:"slaMetRate"`
	SLATone    Tone     `json:"slaTone"`
	ReopenTone Tone     `json:"reopenTone"`
	HopTone    Tone     `json:"hopTone"`
	TicketIDs  []string `json:"ticketIds"`
}

// LeaderboardQuery configures Leaderboard.
type LeaderboardQuery struct {
	Mode      LeaderboardMode
	SortKey   LeaderboardSortKey
	Direction SortDirection
}

// Leaderboard ranks people by their ticket outcomes. Ties on the sort
// column fall back to name order.
func Leaderboard(tickets []domain.Ticket, q LeaderboardQuery) []LeaderboardRow {
	if q.SortKey == "" {
		q.SortKey = SortByTotal
	}
	if q.Direction == "" {
		q.Direction = q.SortKey.DefaultDirection()
	}

	byName := make(map[string]*LeaderboardRow)
	order := make([]string, 0)
	for _, t := range tickets {
		name := leaderboardName(t, q.Mode)
		row, ok := byName[name]
		if !ok {
			row = &LeaderboardRow{Name: name, Initials: Initials(name)}
			byName[name] = row
			order = append(order, name)
		}
		row.Total++
		row.TicketIDs = append(row.TicketIDs, t.TicketID)
		if t.IsReopened() {
			row.Reopened++
		}
		if t.IsHighHop() {
			row.HighHop++
		}
		if t.SLAStatus == domain.SLAMet {
			row.SLAMet++
		}
	}

	rows := make([]LeaderboardRow, len(order))
	for i, name := range order {
		row := byName[name]
		row.SLAMetRate = domain.RoundTo(percent(row.SLAMet, row.Total), 1)
		row.SLATone = slaTone(row.SLAMetRate)
		row.ReopenTone = ratioTone(row.Reopened, row.Total)
		row.HopTone = ratioTone(row.HighHop, row.Total)
		rows[i] = *row
	}

	sign := 1
	if q.Direction == SortDesc {
		sign = -1
	}
	slices.SortStableFunc(rows, func(a, b LeaderboardRow) int {
		if q.SortKey == SortByName {
			return sign * compareNames(a.Name, b.Name)
		}
		if c := cmp.Compare(leaderboardValue(a, q.SortKey), leaderboardValue(b, q.SortKey)); c != 0 {
			return sign * c
		}
		return compareNames(a.Name, b.Name)
	})

	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

func leaderboardName(t domain.Ticket, mode LeaderboardMode) string {
	name := t.Resolver
	if mode == ModeAssignee {
		name = t.Assignee
	}
	if name = strings.TrimSpace(name); name == "" {
		return UnspecifiedName
	}
	return name
}

func leaderboardValue(r LeaderboardRow, key LeaderboardSortKey) float64 {
	switch key {
	case SortBySLAMetRate:
		return r.SLAMetRate
	case SortByReopened:
		return float64(r.Reopened)
	case SortByHighHop:
		return float64(r.HighHop)
	default:
		return float64(r.Total)
	}
}

func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func slaTone(rate float64) Tone {
	switch {
	case rate >= 95:
		return ToneGood
	case rate >= 85:
		return ToneWarn
	default:
		return ToneBad
	}
}

func ratioTone(part, whole int) Tone {
	if whole <= 0 {
		return ToneWarn
	}
	switch pct := percent(part, whole); {
	case pct <= 2:
		return ToneGood
	case pct <= 8:
		return ToneWarn
	default:
		return ToneBad
	}
}
