package playlist

import "sync"

// Event identifies the kind of idle notification delivered to subscribers,
// mirroring MPD's "idle" subsystem names.
type Event string

// IdleDatabase is emitted whenever a completed update job modified the
// tree (§4.8: "emit an idle-database event").
const IdleDatabase Event = "database"

// IdleBus is the narrow, named collaborator the service thread uses to
// tell idle long-poll clients that something changed. This package's
// implementation is a minimal pub-sub of one event kind; subscribers that
// are slow to drain their channel do not block the publisher.
type IdleBus struct {
	mu   sync.Mutex
	subs []chan Event
}

// NewIdleBus creates an empty idle bus.
func NewIdleBus() *IdleBus {
	return &IdleBus{}
}

// Subscribe registers a new subscriber and returns its event channel. The
// channel is buffered so Emit never blocks on a slow subscriber.
func (b *IdleBus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 8)
	b.subs = append(b.subs, ch)
	return ch
}

// Emit delivers ev to every current subscriber, dropping it for any
// subscriber whose channel is full.
func (b *IdleBus) Emit(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
