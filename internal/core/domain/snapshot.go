package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable, fully normalized ticket collection. It is
// built once per load and shared by reference with every aggregation.
type Snapshot struct {
	id       uuid.UUID
	source   string
	loadedAt time.Time
	location *time.Location
	tickets  []Ticket
}

// NewSnapshot normalizes records into a new snapshot stamped at now.
func NewSnapshot(source string, records []RawIncidentRecord, now time.Time) *Snapshot {
	return NewSnapshotFromTickets(source, NormalizeAll(records, now), now)
}

// NewSnapshotFromTickets wraps already normalized tickets. The slice is
// copied so later writes by the caller cannot leak in.
func NewSnapshotFromTickets(source string, tickets []Ticket, now time.Time) *Snapshot {
	return &Snapshot{
		id:       uuid.New(),
		source:   source,
		loadedAt: now,
		location: now.Location(),
		tickets:  slices.Clone(tickets),
	}
}

func (s *Snapshot) ID() uuid.UUID { return s.id }
func (s *Snapshot) Source() string { return s.source }
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }
func (s *Snapshot) Location() *time.Location { return s.location }
func (s *Snapshot) Len() int { return len(s.tickets) }

// Tickets returns the collection. The result is capacity-clipped so an
// append by the caller reallocates instead of writing into the snapshot;
// callers must not assign through the returned slice.
func (s *Snapshot) Tickets() []Ticket {
	return slices.Clip(s.tickets)
}

// Find returns the ticket with the given id.
func (s *Snapshot) Find(ticketID string) (Ticket, bool) {
	for _, t := range s.tickets {
		if t.TicketID == ticketID {
			return t, true
		}
	}
	return Ticket{}, false
}

// Info summarises the snapshot for status endpoints and events.
func (s *Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{
		ID:          s.id,
		Source:      s.source,
		LoadedAt:    s.loadedAt,
		TicketCount: len(s.tickets),
	}
}

// SnapshotInfo is the serializable summary of a Snapshot.
type SnapshotInfo struct {
	ID          uuid.UUID `json:"id"`
	Source      string    `json:"source"`
	LoadedAt    time.Time `json:"loadedAt"`
	TicketCount int       `json:"ticketCount"`
}

// IngestRun records one attempt to build a snapshot.
type IngestRun struct {
	ID          uuid.UUID
	SnapshotID  *uuid.UUID
	Source      string
	FromCache   bool
	RecordCount int
	TicketCount int
	StartedAt   time.Time
	FinishedAt  time.Time
	Error       string
}

// Succeeded reports whether the run produced a snapshot.
func (r IngestRun) Succeeded() bool {
	return r.Error == ""
}

// Duration returns how long the run took.
func (r IngestRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
