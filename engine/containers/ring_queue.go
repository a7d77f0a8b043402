package containers

import "github.com/felipeagc/rgrender/engine/core"

// EventQueueCapacity is the fixed number of slots the event queue holds;
// one slot is always kept empty to disambiguate full from empty, so at
// most EventQueueCapacity-1 events may be pending at once, per §4.14.
const EventQueueCapacity = 1024

// EventType tags which of Event's fields are populated.
type EventType uint8

const (
	EventKey EventType = iota
	EventMouseButton
	EventCursorPos
	EventScroll
	EventFramebufferSize
	EventWindowClose
	EventMonitor
	EventJoystick
)

// Event is the tagged-union payload of §4.14's event queue: one struct
// wide enough to carry every input/window/monitor/joystick variant the
// windowing layer's callbacks produce, discriminated by Type.
type Event struct {
	Type EventType

	// EventKey
	Key      int
	Scancode int
	Action   int
	Mods     int

	// EventMouseButton reuses Button/Action/Mods; EventCursorPos and
	// EventScroll reuse X/Y.
	Button int
	X, Y   float64

	// EventFramebufferSize
	Width, Height int32

	// EventMonitor/EventJoystick
	DeviceID  int
	Connected bool
}

// EventQueue is a bounded ring buffer of Events: the windowing layer is
// the sole producer (one Write per native callback), the application is
// the sole consumer (NextEvent), per §4.14.
//
// Grounded on the teacher's generic RingQueue (interface{}-backed)
// generalized into this fixed-capacity, fixed-payload form: head
// advances on Write, tail on NextEvent, head==tail means empty, and a
// Write that would make them re-equal is a fatal overflow rather than a
// returned error, matching §4.14's contract exactly.
type EventQueue struct {
	events     [EventQueueCapacity]Event
	head, tail uint32
}

// NewEventQueue returns an empty event queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Write appends e to the queue. A write that would collide the head back
// into the tail is a fatal overflow: the windowing layer is producing
// events faster than the application drains them, a programming error
// this module does not try to recover from.
func (q *EventQueue) Write(e Event) {
	next := (q.head + 1) % EventQueueCapacity
	if next == q.tail {
		core.LogFatal("containers: event queue overflow, capacity %d exceeded", EventQueueCapacity)
	}
	q.events[q.head] = e
	q.head = next
}

// NextEvent dequeues and returns the oldest pending event. ok is false
// when the queue is empty.
func (q *EventQueue) NextEvent() (Event, bool) {
	if q.head == q.tail {
		return Event{}, false
	}
	e := q.events[q.tail]
	q.tail = (q.tail + 1) % EventQueueCapacity
	return e, true
}

// Empty reports whether the queue currently holds no events.
func (q *EventQueue) Empty() bool {
	return q.head == q.tail
}
