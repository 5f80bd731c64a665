package button

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestDebounce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := NewQueue(clock)

	if !q.Press() {
		t.Fatal("first press rejected")
	}
	if q.Press() {
		t.Error("bounce inside debounce window accepted")
	}

	clock.Advance(DebounceTime)
	if !q.Press() {
		t.Error("press after debounce window rejected")
	}

	if got := len(q.Events()); got != 2 {
		t.Errorf("queued events = %d, want 2", got)
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := NewQueue(clock)

	accepted := 0
	for i := 0; i < 20; i++ {
		if q.Press() {
			accepted++
		}
		clock.Advance(time.Second)
	}
	if accepted != cap(q.events) {
		t.Errorf("accepted = %d, want buffer capacity %d", accepted, cap(q.events))
	}

	// Draining frees capacity again.
	<-q.Events()
	if !q.Press() {
		t.Error("press rejected after drain")
	}
}
