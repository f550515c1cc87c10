package stream

import (
	"errors"
	"sync"

	"github.com/tesselslate/deskctl/internal/input"
)

// DefaultQueueSize is the number of pending events an InputQueue holds.
const DefaultQueueSize = 1024

// ErrQueueFull is returned when an event is submitted to a full queue.
var ErrQueueFull = errors.New("input queue full")

// InputQueue is a FIFO of input events waiting to be dispatched.
type InputQueue struct {
	mu     sync.Mutex
	events []input.Event
	limit  int
	ready  chan struct{}
}

// NewInputQueue creates a queue holding up to limit events.
func NewInputQueue(limit int) *InputQueue {
	if limit < 1 {
		limit = DefaultQueueSize
	}
	return &InputQueue{
		limit: limit,
		ready: make(chan struct{}, 1),
	}
}

// Push appends an event to the queue.
func (q *InputQueue) Push(e input.Event) error {
	q.mu.Lock()
	if len(q.events) >= q.limit {
		q.mu.Unlock()
		return ErrQueueFull
	}
	q.events = append(q.events, e)
	q.mu.Unlock()
	q.notify()
	return nil
}

// Pop removes and returns the oldest event.
func (q *InputQueue) Pop() (input.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return input.Event{}, false
	}
	e := q.events[0]
	q.events[0] = input.Event{}
	q.events = q.events[1:]
	if len(q.events) == 0 {
		q.events = nil
	}
	return e, true
}

// Len returns the number of pending events.
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Ready receives a value after events are pushed. A single value may stand
// for several pushes, so receivers should drain the queue with Pop.
func (q *InputQueue) Ready() <-chan struct{} {
	return q.ready
}

func (q *InputQueue) notify() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
