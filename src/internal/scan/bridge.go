package scan

import "gitlab.com/mipimipi/dbupdate/src/internal/dbtree"

// EventKind identifies which of the two events the bridge carries.
type EventKind int

const (
	// EventDeleteRequest bears a song published in the delete broker's slot,
	// awaiting acknowledgement from the service thread (§4.5).
	EventDeleteRequest EventKind = iota
	// EventJobFinished tells the service thread an UpdateJob has completed.
	EventJobFinished
)

// Event is the single typed payload EventBridge carries from the scanner
// thread to the service thread.
type Event struct {
	Kind EventKind

	// valid for EventDeleteRequest
	Dir  *dbtree.Directory
	Song *dbtree.Song

	// valid for EventJobFinished
	Job *Job
}

// Bridge is the only approved cross-thread interaction between the scanner
// thread and the service thread apart from the ack signal inside
// DeleteBroker (§4.9). The channel is unbuffered: the scanner thread
// blocks on emit until the service thread is ready to receive, which is
// exactly the handshake DeleteBroker needs before it starts waiting on its
// condition variable.
type Bridge struct {
	events chan Event
}

// NewBridge creates an empty event bridge.
func NewBridge() *Bridge {
	return &Bridge{events: make(chan Event)}
}

// Events returns the channel the service thread consumes from, in FIFO
// order.
func (b *Bridge) Events() <-chan Event {
	return b.events
}

func (b *Bridge) emit(e Event) {
	b.events <- e
}
