package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventSnapshotLoaded EventType = "SNAPSHOT_LOADED"
	EventSnapshotFailed EventType = "SNAPSHOT_FAILED"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

// SnapshotFailedPayload describes a load that did not produce a snapshot.
type SnapshotFailedPayload struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// NewSnapshotLoadedEvent announces a freshly swapped snapshot.
func NewSnapshotLoadedEvent(info SnapshotInfo) Event {
	return Event{Type: EventSnapshotLoaded, Payload: info}
}

// NewSnapshotFailedEvent announces a failed load or reload.
func NewSnapshotFailedEvent(source string, err error) Event {
	return Event{
		Type:    EventSnapshotFailed,
		Payload: SnapshotFailedPayload{Source: source, Error: err.Error()},
	}
}
