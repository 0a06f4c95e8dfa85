package sim

// EventKind identifies what a scheduled event does when it fires.
//
// The declaration order doubles as the calendar tie-break priority: at equal
// timestamps an escape is resolved before a digestion, a digestion before a
// phase transition, and arrivals always go last. KindPriority relies on the
// iota values below, so the order here is load-bearing.
type EventKind int

const (
	KindEscape EventKind = iota
	KindDigestion
	KindEndG0
	KindEndMitosis
	KindDeparture
	KindArrival

	// kindNone marks a symbiont with no scheduled future event
	// (evicted or otherwise outside the grid).
	kindNone
)

// String returns a stable label used in logs and exit records.
func (k EventKind) String() string {
	switch k {
	case KindEscape:
		return "Escape"
	case KindDigestion:
		return "Digestion"
	case KindEndG0:
		return "EndG0"
	case KindEndMitosis:
		return "EndMitosis"
	case KindDeparture:
		return "Departure"
	case KindArrival:
		return "Arrival"
	default:
		return "None"
	}
}

// KindPriority gives the calendar ordering for simultaneous events.
// Lower values are dispatched first.
func KindPriority(k EventKind) int {
	return int(k)
}

// Event is a single entry in the event calendar.
type Event interface {
	Time() float64
	Kind() EventKind
	Seq() uint64
	Execute(sim *Simulator)
}

// baseEvent provides the common calendar-key fields.
type baseEvent struct {
	time float64
	kind EventKind
	seq  uint64
}

func (e *baseEvent) Time() float64   { return e.time }
func (e *baseEvent) Kind() EventKind { return e.kind }
func (e *baseEvent) Seq() uint64     { return e.seq }

// arrivalEvent brings the next pool symbiont into the grid and chains the
// arrival process by scheduling its successor.
type arrivalEvent struct {
	baseEvent
}

func (e *arrivalEvent) Execute(sim *Simulator) {
	sim.handleArrival(e.time)
}

// symbiontEvent fires one of the per-agent lifecycle events. Exactly one
// symbiontEvent per resident symbiont is live in the calendar at any time.
type symbiontEvent struct {
	baseEvent
	sym *Symbiont
}

func (e *symbiontEvent) Execute(sim *Simulator) {
	switch e.kind {
	case KindEndG0:
		sim.handleEndG0(e.sym, e.time)
	case KindEndMitosis:
		sim.handleEndMitosis(e.sym, e.time)
	case KindEscape:
		sim.handleEscape(e.sym, e.time)
	case KindDigestion:
		sim.handleDigestion(e.sym, e.time)
	case KindDeparture:
		sim.handleDeparture(e.sym, e.time)
	default:
		panicInvariant("symbiont %d dispatched with unknown event kind %v", e.sym.id, e.kind)
	}
}
