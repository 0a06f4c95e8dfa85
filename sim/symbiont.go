package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// never marks a candidate event time that is not scheduled.
var never = math.Inf(1)

// Phase is the two-state symbiont cycle: G0 banks photosynthate, mitosis
// (G1/S/G2/M) is the committed division period that additionally pays the
// mitotic cost rate.
type Phase int

const (
	PhaseG0 Phase = iota
	PhaseMitosis
)

func (p Phase) String() string {
	if p == PhaseMitosis {
		return "Mitosis"
	}
	return "G0"
}

// ArrivalMode tags how a symbiont entered the simulation.
type ArrivalMode int

const (
	ArrivedFromPool ArrivalMode = iota
	ArrivedViaDivision
)

func (m ArrivalMode) String() string {
	if m == ArrivedViaDivision {
		return "ViaDivision"
	}
	return "FromPool"
}

// Symbiont is one alga resident in at most one grid slot. All of its future
// event times are kept here; the calendar only ever holds the single
// earliest of them (see Simulator.scheduleNextFor).
type Symbiont struct {
	id         int64
	cladeIndex int
	clade      *Clade
	slot       *Slot // nil once evicted or otherwise outside the grid

	mode      ArrivalMode
	parentID  int64 // -1 for pool arrivals
	agentZero int64 // ultimate ancestor (self for pool arrivals)

	arrivalTime      float64
	productionRate   float64
	mitoticCostRate  float64
	surplus          float64
	surplusOnArrival float64
	divisions        int

	// Candidate future event times, each `never` until scheduled. At most
	// one of timeEndG0/timeEndMitosis is finite (one phase at a time).
	timeEndG0      float64
	timeEndMitosis float64
	timeEscape     float64
	timeDigestion  float64
	timeDeparture  float64

	prevEventTime float64
	prevEventKind EventKind
	nextEventTime float64
	nextEventKind EventKind

	// Residence and cycle history, dumped in the exit record.
	slotsInhabited   []string
	inhabitTimes     []float64
	slotDemands      []float64
	g0Durations      []float64
	mitosisDurations []float64
}

func (s *Symbiont) ID() int64               { return s.id }
func (s *Symbiont) Slot() *Slot             { return s.slot }
func (s *Symbiont) Surplus() float64        { return s.surplus }
func (s *Symbiont) Divisions() int          { return s.divisions }
func (s *Symbiont) ProductionRate() float64 { return s.productionRate }

// newPoolSymbiont constructs a fresh arrival from the external pool and
// schedules its initial candidate events.
func (sim *Simulator) newPoolSymbiont(cladeIndex int, slot *Slot, now float64) *Symbiont {
	clade := &sim.Config.Clades[cladeIndex]
	s := &Symbiont{
		id:             sim.nextAgentID(),
		cladeIndex:     cladeIndex,
		clade:          clade,
		slot:           slot,
		mode:           ArrivedFromPool,
		parentID:       -1,
		arrivalTime:    now,
		prevEventTime:  now,
		prevEventKind:  KindArrival,
		timeEndG0:      never,
		timeEndMitosis: never,
		timeEscape:     never,
		timeDigestion:  never,
		timeDeparture:  never,
		nextEventTime:  never,
		nextEventKind:  kindNone,
	}
	s.agentZero = s.id

	s.mitoticCostRate = sim.RNG.Fuzz(clade.MitoticCostRate, clade.MitoticCostFuzz, StreamMitoticCostRate)
	s.productionRate = s.arrivalProductionRate(sim)

	// Initial banked surplus: gamma-distributed, redrawn until it respects
	// the clade cap.
	s.surplus = math.Inf(1)
	for s.surplus > clade.MaxInitialSurplus {
		s.surplus = sim.RNG.Gamma(clade.InitialSurplusShape, clade.InitialSurplusScale, StreamPhotosynthate)
	}
	s.surplusOnArrival = s.surplus

	s.recordResidence(slot, now)
	s.scheduleInitialEvents(sim, now)
	s.setNextEvent()
	return s
}

// newChildSymbiont constructs the division child as a fully-formed value
// from the parent's heritable fields plus fresh mutation draws. slot may be
// nil when the child is evicted or infects outside the modeled grid; such
// children receive no events. The parent's surplus is decremented here so
// that parent+child surplus is conserved exactly.
func (sim *Simulator) newChildSymbiont(parent *Symbiont, slot *Slot, now float64) *Symbiont {
	clade := parent.clade
	s := &Symbiont{
		id:             sim.nextAgentID(),
		cladeIndex:     parent.cladeIndex,
		clade:          clade,
		slot:           slot,
		mode:           ArrivedViaDivision,
		parentID:       parent.id,
		agentZero:      parent.agentZero,
		arrivalTime:    now,
		prevEventTime:  now,
		prevEventKind:  KindArrival,
		timeEndG0:      never,
		timeEndMitosis: never,
		timeEscape:     never,
		timeDigestion:  never,
		timeDeparture:  never,
		nextEventTime:  never,
		nextEventKind:  kindNone,
	}

	// Inherited mitotic cost rate, possibly mutated. Deleterious raises
	// the cost, beneficial lowers it.
	s.mitoticCostRate = parent.mitoticCostRate
	if amt, kind := sim.RNG.MutationAmount(parent.mitoticCostRate, clade, StreamMCRMutation); kind != MutationNone {
		if kind == MutationDeleterious {
			s.mitoticCostRate += amt
		} else {
			s.mitoticCostRate -= amt
		}
		logrus.Debugf("symbiont %d: mcr mutation %v: %f -> %f", s.id, kind, parent.mitoticCostRate, s.mitoticCostRate)
	}

	// The child takes roughly half of the parent's bank. A mutation shifts
	// the split point, never the total: deleterious means the child
	// inherits slightly less than half, beneficial slightly more.
	half := parent.surplus / 2
	inherited := half
	if amt, kind := sim.RNG.MutationAmount(half, clade, StreamSurplusMutation); kind != MutationNone {
		if kind == MutationDeleterious {
			inherited -= amt
		} else {
			inherited += amt
		}
	}
	s.surplus = inherited
	parent.surplus -= inherited
	s.surplusOnArrival = s.surplus

	// Production rate transfers as-is unless the child lands in a slot, in
	// which case it is re-derived for the new row and mutation-fuzzed.
	s.productionRate = parent.productionRate
	if slot != nil {
		s.productionRate = s.divisionProductionRate(sim)
		s.recordResidence(slot, now)
		s.scheduleInitialEvents(sim, now)
		s.setNextEvent()
	}
	return s
}

// rowAdjustedRate applies the light gradient: production decreases linearly
// from the full rate rho at the top row to rho/k at the bottom row.
func rowAdjustedRate(rho, k float64, row, rows int) float64 {
	if rows == 1 {
		return rho
	}
	return rho + ((1-k)/k)*(float64(row)*rho/float64(rows-1))
}

// arrivalProductionRate derives a pool arrival's production rate from the
// clade baseline, the slot's row, and normal fuzz.
func (s *Symbiont) arrivalProductionRate(sim *Simulator) float64 {
	rate := rowAdjustedRate(s.clade.ProductionRate, s.clade.PhotosyntheticReduction, s.slot.Row(), sim.Grid.Rows())
	return sim.RNG.Fuzz(rate, s.clade.ProductionFuzz, StreamProductionRate)
}

// divisionProductionRate derives a child's production rate from the
// parent's realized rate re-anchored at the child's row, with a mutation
// draw instead of plain fuzz. Deleterious lowers production, beneficial
// raises it.
func (s *Symbiont) divisionProductionRate(sim *Simulator) float64 {
	rate := rowAdjustedRate(s.productionRate, s.clade.PhotosyntheticReduction, s.slot.Row(), sim.Grid.Rows())
	if amt, kind := sim.RNG.MutationAmount(rate, s.clade, StreamProductionMutation); kind != MutationNone {
		if kind == MutationDeleterious {
			rate -= amt
		} else {
			rate += amt
		}
	}
	return rate
}

// projection is the result of projecting the surplus trajectory to a
// candidate time. When the projected surplus is non-negative both optional
// times are `never`; when negative, digestion is the exact zero-crossing
// and escape is finite only if the escape coin won.
type projection struct {
	surplus   float64
	digestion float64
	escape    float64
}

// doomed reports whether the trajectory crosses zero before the candidate
// time.
func (p projection) doomed() bool {
	return !math.IsInf(p.digestion, 1)
}

// balanceAt computes the surplus at `to` under the locally linear
// trajectory from `from`: production minus slot demand, minus the mitotic
// cost rate while in mitosis.
func (s *Symbiont) balanceAt(from, to float64, phase Phase) float64 {
	dt := to - from
	produced := dt * s.productionRate
	demanded := dt * s.slot.Demand()
	expended := 0.0
	if phase == PhaseMitosis {
		expended = dt * s.mitoticCostRate
	}
	return s.surplus + produced - demanded - expended
}

// projectSurplus projects the surplus to a candidate future time. If the
// projection is negative the symbiont will not survive to the candidate
// time: the exact crossing follows from the two endpoints of the linear
// trajectory, and a clade- and phase-specific coin decides whether the
// symbiont escapes at a uniform instant before that crossing instead of
// being digested at it.
func (s *Symbiont) projectSurplus(sim *Simulator, from, to float64, phase Phase) projection {
	p := projection{
		surplus:   s.balanceAt(from, to, phase),
		digestion: never,
		escape:    never,
	}
	if p.surplus >= 0 {
		return p
	}

	if to-from <= 0 {
		panicInvariant("symbiont %d: negative projected surplus %f over non-positive interval [%f,%f]",
			s.id, p.surplus, from, to)
	}
	// Two points on the line: (from, surplus) and (to, projected). Solve
	// for the zero-crossing.
	m := (p.surplus - s.surplus) / (to - from)
	p.digestion = from - s.surplus/m

	coinStream, timeStream := StreamEscapeCoinG0, StreamEscapeTimeG0
	escapeProb := s.clade.EscapeProbG0
	if phase == PhaseMitosis {
		coinStream, timeStream = StreamEscapeCoinMitosis, StreamEscapeTimeMitosis
		escapeProb = s.clade.EscapeProbMitosis
	}
	if sim.RNG.Uniform(0, 1, coinStream) < escapeProb {
		p.escape = sim.RNG.Uniform(from, p.digestion, timeStream)
	}
	return p
}

// settle folds the surplus accrued since the previous event into the bank.
// Events are only scheduled when the symbiont was projected to survive to
// them, so a negative balance here means the state machine is broken.
func (s *Symbiont) settle(now float64, phase Phase) {
	bal := s.balanceAt(s.prevEventTime, now, phase)
	if bal < 0 {
		panicInvariant("symbiont %d at t=%f: surplus %f negative settling %v since t=%f",
			s.id, now, bal, phase, s.prevEventTime)
	}
	s.surplus = bal
}

// scheduleInitialEvents sets up the departure time and the first G0 period
// for a symbiont that just entered a slot, falling back to
// digestion/escape when the first G0 cannot be survived.
func (s *Symbiont) scheduleInitialEvents(sim *Simulator, now float64) {
	// Long-term departure: the symbiont eventually leaves of its own
	// accord. May be superseded by an earlier exit below.
	s.timeDeparture = now + sim.RNG.Fuzz(s.clade.ResidenceMean, s.clade.ResidenceFuzz, StreamDepartureTime)

	s.timeEndG0 = s.computeNextEndOfG0(sim, now)

	// The G0 end stays on the books even when superseded: digestion and
	// escape land strictly before it, so next-event selection never picks
	// it, and it marks the symbiont as being in G0.
	p := s.projectSurplus(sim, now, s.timeEndG0, PhaseG0)
	if p.surplus < 0 {
		s.timeDigestion = p.digestion
		if !math.IsInf(p.escape, 1) {
			s.timeEscape = p.escape
		}
	}
}

// computeNextEndOfG0 draws the next G0 duration and records it.
func (s *Symbiont) computeNextEndOfG0(sim *Simulator, now float64) float64 {
	d := sim.RNG.Fuzz(s.clade.G0Mean, s.clade.G0Fuzz, StreamEndG0)
	s.g0Durations = append(s.g0Durations, d)
	return now + d
}

// computeNextEndOfMitosis draws the committed mitosis duration and records it.
func (s *Symbiont) computeNextEndOfMitosis(sim *Simulator, now float64) float64 {
	d := sim.RNG.Fuzz(s.clade.MitosisMean, s.clade.MitosisFuzz, StreamEndMitosis)
	s.mitosisDurations = append(s.mitosisDurations, d)
	return now + d
}

// endOfG0 handles the G0 → mitosis transition. The surplus is settled to
// now, then projected through a freshly drawn mitosis period: if the
// symbiont cannot pay the mitotic cost all the way, digestion or escape is
// scheduled instead and the division never happens.
func (s *Symbiont) endOfG0(sim *Simulator, now float64) {
	s.timeEndG0 = never
	if s.prevEventKind != KindArrival && s.prevEventKind != KindEndMitosis {
		panicInvariant("symbiont %d at t=%f: end of G0 after %v", s.id, now, s.prevEventKind)
	}

	s.settle(now, PhaseG0)

	endOfMitosis := s.computeNextEndOfMitosis(sim, now)
	p := s.projectSurplus(sim, now, endOfMitosis, PhaseMitosis)
	if p.surplus < 0 {
		s.timeDigestion = p.digestion
		if !math.IsInf(p.escape, 1) {
			s.timeEscape = p.escape
		}
	} else {
		s.timeEndMitosis = endOfMitosis
	}

	s.prevEventTime = now
	s.prevEventKind = KindEndG0
	s.setNextEvent()
}

// digestion: the host cell consumes the symbiont. By construction the
// trajectory hits exactly zero here.
func (s *Symbiont) digestion(now float64) {
	s.surplus = 0
	s.vacate(now)
}

// escape: the symbiont flees the host cell just ahead of digestion,
// surrendering its remaining bank.
func (s *Symbiont) escape(now float64) {
	s.surplus = 0
	s.vacate(now)
}

// departure: the symbiont leaves on its own schedule. The settlement never
// charges the mitotic cost, even when leaving mid-mitosis: an abandoned
// division is not paid for. The bank must still be non-negative, otherwise
// an earlier digestion/escape would have fired.
func (s *Symbiont) departure(now float64) {
	bal := s.balanceAt(s.prevEventTime, now, PhaseG0)
	if bal < 0 {
		panicInvariant("symbiont %d at t=%f: departing with negative surplus %f", s.id, now, bal)
	}
	s.surplus = bal
	s.vacate(now)
}

// phaseSincePrevEvent reports which phase the symbiont has been in since
// its previous event: mitosis begins at end-of-G0 and ends at
// end-of-mitosis.
func (s *Symbiont) phaseSincePrevEvent() Phase {
	if s.prevEventKind == KindEndG0 {
		return PhaseMitosis
	}
	return PhaseG0
}

func (s *Symbiont) vacate(now float64) {
	if s.slot != nil {
		s.slot.ClearOccupant(now)
		s.slot = nil
	}
}

func (s *Symbiont) recordResidence(slot *Slot, now float64) {
	s.slotsInhabited = append(s.slotsInhabited, slot.Key())
	s.inhabitTimes = append(s.inhabitTimes, now)
	s.slotDemands = append(s.slotDemands, slot.Demand())
}

// setNextEvent selects the symbiont's single authoritative next event from
// its candidate times. The order below is the precedence at equal times:
// an event earlier in the order wins ties (strict < throughout).
func (s *Symbiont) setNextEvent() {
	s.nextEventTime = s.timeEndG0
	s.nextEventKind = KindEndG0

	if s.timeEndMitosis < s.nextEventTime {
		s.nextEventTime = s.timeEndMitosis
		s.nextEventKind = KindEndMitosis
	}
	if s.timeEscape < s.nextEventTime {
		s.nextEventTime = s.timeEscape
		s.nextEventKind = KindEscape
	}
	if s.timeDigestion < s.nextEventTime {
		s.nextEventTime = s.timeDigestion
		s.nextEventKind = KindDigestion
	}
	if s.timeDeparture < s.nextEventTime {
		s.nextEventTime = s.timeDeparture
		s.nextEventKind = KindDeparture
	}
	if math.IsInf(s.nextEventTime, 1) {
		s.nextEventKind = kindNone
	}
}

// nextEvent returns the symbiont's authoritative next event time and kind.
func (s *Symbiont) nextEvent() (float64, EventKind) {
	return s.nextEventTime, s.nextEventKind
}
