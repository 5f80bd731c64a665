package button

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DebounceTime matches the hardware layer's contact-bounce window.
const DebounceTime = 200 * time.Millisecond

// Event is one clean, debounced button press.
type Event struct {
	PressedAt time.Time
}

// Queue turns raw press signals into a debounced single-producer/
// single-consumer event stream. The producer side never blocks; the core
// loop drains one event per tick.
type Queue struct {
	clock    clockwork.Clock
	debounce time.Duration
	events   chan Event

	mu        sync.Mutex
	lastPress time.Time
}

func NewQueue(clock clockwork.Clock) *Queue {
	return &Queue{
		clock:    clock,
		debounce: DebounceTime,
		events:   make(chan Event, 8),
	}
}

// Press registers a raw press. Presses inside the debounce window, and
// presses that arrive faster than the consumer drains, are dropped.
func (q *Queue) Press() bool {
	now := q.clock.Now()

	q.mu.Lock()
	if !q.lastPress.IsZero() && now.Sub(q.lastPress) < q.debounce {
		q.mu.Unlock()
		return false
	}
	q.lastPress = now
	q.mu.Unlock()

	select {
	case q.events <- Event{PressedAt: now}:
		return true
	default:
		log.Warn().Msg("button queue full, dropping press")
		return false
	}
}

// Events returns the consumer side of the queue.
func (q *Queue) Events() <-chan Event { return q.events }
