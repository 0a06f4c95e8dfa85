package sim

import "container/heap"

// EventHeap is the event calendar: a min-heap keyed by
// (time, kind priority, sequence number). The three-part key makes
// extraction a strict total order, so two runs with the same seed dispatch
// events in exactly the same sequence.
type EventHeap struct {
	events []Event
}

// NewEventHeap returns an empty calendar.
func NewEventHeap() *EventHeap {
	h := &EventHeap{
		events: make([]Event, 0),
	}
	heap.Init(h)
	return h
}

func (h *EventHeap) Len() int { return len(h.events) }

// Less compares two pending events under the calendar key. Time first; at
// equal times the kind priority decides (escapes resolve before digestions,
// digestions before phase transitions, arrivals always last); insertion
// sequence breaks whatever remains.
func (h *EventHeap) Less(i, j int) bool {
	ei, ej := h.events[i], h.events[j]

	if ei.Time() != ej.Time() {
		return ei.Time() < ej.Time()
	}

	pi, pj := KindPriority(ei.Kind()), KindPriority(ej.Kind())
	if pi != pj {
		return pi < pj
	}

	return ei.Seq() < ej.Seq()
}

func (h *EventHeap) Swap(i, j int) {
	h.events[i], h.events[j] = h.events[j], h.events[i]
}

func (h *EventHeap) Push(x interface{}) {
	h.events = append(h.events, x.(Event))
}

func (h *EventHeap) Pop() interface{} {
	old := h.events
	n := len(old)
	item := old[n-1]
	h.events = old[0 : n-1]
	return item
}

// Schedule inserts a pending event.
func (h *EventHeap) Schedule(e Event) {
	heap.Push(h, e)
}

// PopNext removes and returns the minimum-key event, or nil when the
// calendar is empty. An empty calendar is a normal termination condition,
// not an error.
func (h *EventHeap) PopNext() Event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(Event)
}

// Peek returns the minimum-key event without removing it, or nil when empty.
func (h *EventHeap) Peek() Event {
	if h.Len() == 0 {
		return nil
	}
	return h.events[0]
}
