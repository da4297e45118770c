package engine

import (
	"sync"

	"github.com/roach88/canvas/internal/gesture"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventTypeInput carries a pointer, key, wheel or blur event.
	EventTypeInput EventType = iota + 1
	// EventTypeCommand carries a session command.
	EventTypeCommand
	// EventTypeRemote carries an encoded update from another replica.
	EventTypeRemote
)

func (t EventType) String() string {
	switch t {
	case EventTypeInput:
		return "input"
	case EventTypeCommand:
		return "command"
	case EventTypeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Event is one unit of work for the Run loop. Seq is assigned on enqueue.
type Event struct {
	Type    EventType
	Seq     int64
	Input   gesture.Event
	Command *Command
	Update  []byte
}

// InputEvent wraps a gesture event.
func InputEvent(ev gesture.Event) Event {
	return Event{Type: EventTypeInput, Input: ev}
}

// CommandEvent wraps a command.
func CommandEvent(cmd Command) Event {
	return Event{Type: EventTypeCommand, Command: &cmd}
}

// RemoteEvent wraps an encoded document update.
func RemoteEvent(update []byte) Event {
	return Event{Type: EventTypeRemote, Update: update}
}

// eventQueue is an unbounded thread-safe FIFO.
//
// The signal channel (buffered, size 1) lets the Run loop wait for work
// and for context cancellation in the same select.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue. Returns false once the
// queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)

	// Buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]

	// Clear the slot so the backing array does not pin event payloads.
	q.events[0] = Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns a channel that fires when events may be available. It is
// closed when the queue is closed.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued events.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Closed reports whether Close has been called.
func (q *eventQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further enqueues and wakes waiters. Queued events can still
// be dequeued.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
