package containers

import "testing"

func TestEventQueueWriteThenNextEventPreservesOrder(t *testing.T) {
	q := NewEventQueue()
	q.Write(Event{Type: EventKey, Key: 1})
	q.Write(Event{Type: EventKey, Key: 2})

	first, ok := q.NextEvent()
	if !ok || first.Key != 1 {
		t.Fatalf("expected first event key 1, got %+v ok=%v", first, ok)
	}
	second, ok := q.NextEvent()
	if !ok || second.Key != 2 {
		t.Fatalf("expected second event key 2, got %+v ok=%v", second, ok)
	}
}

func TestEventQueueEmptyAfterDraining(t *testing.T) {
	q := NewEventQueue()
	if !q.Empty() {
		t.Fatal("expected new queue to be empty")
	}

	q.Write(Event{Type: EventWindowClose})
	if q.Empty() {
		t.Fatal("expected queue to be non-empty after a write")
	}

	if _, ok := q.NextEvent(); !ok {
		t.Fatal("expected a pending event")
	}
	if !q.Empty() {
		t.Fatal("expected queue to be empty after draining its only event")
	}
	if _, ok := q.NextEvent(); ok {
		t.Fatal("expected NextEvent on an empty queue to report ok=false")
	}
}

func TestEventQueueHoldsCapacityMinusOneBeforeOverflow(t *testing.T) {
	q := NewEventQueue()
	for i := 0; i < EventQueueCapacity-1; i++ {
		q.Write(Event{Type: EventKey, Key: i})
	}
	// The queue is now full (one slot deliberately left empty); draining
	// one event and writing one more should not overflow.
	if _, ok := q.NextEvent(); !ok {
		t.Fatal("expected a pending event after filling to capacity-1")
	}
	q.Write(Event{Type: EventKey, Key: 999})
}
