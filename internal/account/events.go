// ABOUTME: Event types emitted by a live account and the per-account emitter
// ABOUTME: Events flow through a buffered channel; a full buffer drops the event with a warning

package account

// Kind classifies an account event.
type Kind string

const (
	KindInfo                Kind = "info"
	KindWarning             Kind = "warning"
	KindError               Kind = "error"
	KindConnectivityChanged Kind = "connectivity-changed"
	KindIncomingMsg         Kind = "incoming-msg"
	KindMsgsChanged         Kind = "msgs-changed"
	KindImexProgress        Kind = "imex-progress"
)

// Event is one notification from a live account.
type Event struct {
	Kind Kind
	Msg  string

	// ChatID and MsgID are set for message-related events, 0 otherwise.
	ChatID int64
	MsgID  int64

	// Progress is set for imex-progress events, 0..1000.
	Progress int
}

// EventEmitter consumes the event stream of one account. The stream ends
// when the account shuts down.
type EventEmitter struct {
	ch <-chan Event
}

// C exposes the underlying channel, for select loops and fan-in consumers.
func (e *EventEmitter) C() <-chan Event {
	return e.ch
}

// Recv blocks until an event arrives. It reports false when the account has
// shut down and the stream is drained.
func (e *EventEmitter) Recv() (Event, bool) {
	ev, ok := <-e.ch
	return ev, ok
}

// TryRecv returns the next event without blocking. It reports false when
// nothing is ready or the stream has ended.
func (e *EventEmitter) TryRecv() (Event, bool) {
	select {
	case ev, ok := <-e.ch:
		if !ok {
			return Event{}, false
		}
		return ev, true
	default:
		return Event{}, false
	}
}
