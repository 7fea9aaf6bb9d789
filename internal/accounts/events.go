// ABOUTME: Fan-in event emitter merging per-account event streams into one channel
// ABOUTME: Each event carries the originating account id; the stream ends when all sources end

package accounts

import (
	"sync"

	"github.com/2389/driftmail/internal/account"
)

// Event is an account event tagged with the account it came from.
type Event struct {
	AccountID uint64
	account.Event
}

// EventEmitter merges the event streams of several accounts. One pump
// goroutine per source forwards events into a shared channel; the channel
// closes once every source channel has closed.
type EventEmitter struct {
	out  chan Event
	once sync.Once
	stop chan struct{}
}

func newEventEmitter(sources map[uint64]*account.EventEmitter) *EventEmitter {
	e := &EventEmitter{
		out:  make(chan Event, 1000),
		stop: make(chan struct{}),
	}

	var wg sync.WaitGroup
	for id, src := range sources {
		wg.Add(1)
		go func(id uint64, src *account.EventEmitter) {
			defer wg.Done()
			for {
				select {
				case ev, ok := <-src.C():
					if !ok {
						return
					}
					select {
					case e.out <- Event{AccountID: id, Event: ev}:
					case <-e.stop:
						return
					}
				case <-e.stop:
					return
				}
			}
		}(id, src)
	}
	go func() {
		wg.Wait()
		close(e.out)
	}()
	return e
}

// C returns the merged event channel.
func (e *EventEmitter) C() <-chan Event {
	return e.out
}

// Recv blocks until the next event. ok is false once all sources have
// closed and the buffer is drained.
func (e *EventEmitter) Recv() (Event, bool) {
	ev, ok := <-e.out
	return ev, ok
}

// TryRecv returns a buffered event without blocking.
func (e *EventEmitter) TryRecv() (Event, bool) {
	select {
	case ev, ok := <-e.out:
		if !ok {
			return Event{}, false
		}
		return ev, true
	default:
		return Event{}, false
	}
}

// Close detaches the emitter from its sources. Pending buffered events may
// be lost; the sources themselves stay open.
func (e *EventEmitter) Close() {
	e.once.Do(func() { close(e.stop) })
}
