package sim

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/symbiont-sim/symbiont-sim/sim/report"
)

// panicInvariant aborts the run on a broken-state-machine condition. These
// are programming errors, not recoverable simulation outcomes.
func panicInvariant(format string, args ...interface{}) {
	logrus.Panicf(format, args...)
}

// Simulator owns the clock, the event calendar, the grid, the variate
// source and all per-run counters. Counters live here (not in package
// globals) so every run starts from a clean, deterministic state.
type Simulator struct {
	Clock   float64
	Horizon float64

	Config   Config
	Calendar *EventHeap
	Grid     *Grid
	RNG      *PartitionedRNG
	Metrics  *Metrics
	Recorder *report.Recorder

	cumProportions []float64
	agentCount     int64
	eventSeq       uint64
}

// NewSimulator validates the configuration and assembles a ready-to-run
// simulator: initial population placed, first pool arrival scheduled.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := NewPartitionedRNG(cfg.Seed)
	sim := &Simulator{
		Horizon:        cfg.MaxTime,
		Config:         cfg,
		Calendar:       NewEventHeap(),
		Grid:           NewGrid(cfg.Rows, cfg.Cols, cfg.HostCellDemand, cfg.HostCellDemandFuzz, rng),
		RNG:            rng,
		Metrics:        NewMetrics(),
		Recorder:       report.NewRecorder(),
		cumProportions: cfg.cumulativeProportions(),
	}
	sim.placeInitialPopulation()
	sim.scheduleNextArrival(0)
	return sim, nil
}

func (sim *Simulator) nextAgentID() int64 {
	id := sim.agentCount
	sim.agentCount++
	return id
}

func (sim *Simulator) nextSeq() uint64 {
	sim.eventSeq++
	return sim.eventSeq
}

// Run drives the simulation: extract the minimum event, advance the clock,
// dispatch, until the calendar empties or the next event lies beyond the
// horizon (checked before dispatching).
func (sim *Simulator) Run() {
	for {
		ev := sim.Calendar.PopNext()
		if ev == nil {
			break
		}
		if ev.Time() > sim.Horizon {
			sim.Clock = sim.Horizon
			break
		}
		sim.Clock = ev.Time()
		logrus.Debugf("[t=%10.4f] dispatch %v (seq %d)", sim.Clock, ev.Kind(), ev.Seq())
		ev.Execute(sim)
		sim.samplePopulation()
	}
	sim.finalize()
}

// scheduleNextFor inserts the symbiont's single authoritative next event
// into the calendar. Exactly one live calendar entry exists per resident
// symbiont, so superseded candidates simply never reach the calendar.
func (sim *Simulator) scheduleNextFor(sym *Symbiont) {
	t, kind := sym.nextEvent()
	if kind == kindNone {
		panicInvariant("symbiont %d: resident with no next event", sym.id)
	}
	sim.Calendar.Schedule(&symbiontEvent{
		baseEvent: baseEvent{time: t, kind: kind, seq: sim.nextSeq()},
		sym:       sym,
	})
}

func (sim *Simulator) scheduleNextArrival(now float64) {
	t := now + sim.RNG.Exponential(sim.Config.MeanTimeBetweenArrivals, StreamInterarrival)
	sim.Calendar.Schedule(&arrivalEvent{
		baseEvent: baseEvent{time: t, kind: KindArrival, seq: sim.nextSeq()},
	})
}

// placeInitialPopulation seeds the grid at t=0 according to the configured
// placement strategy. Initial residents skip the arrival-affinity gate:
// they are presumed already established.
func (sim *Simulator) placeInitialPopulation() {
	n := sim.Config.InitialSymbionts
	if n == 0 {
		return
	}
	slots := sim.initialSlots(n)
	for _, slot := range slots {
		sym := sim.newPoolSymbiont(sim.drawClade(), slot, 0)
		slot.SetOccupant(sym, 0)
		sim.Metrics.PoolArrivals++
		sim.scheduleNextFor(sym)
	}
	sim.Metrics.PeakPopulation = sim.Grid.Occupancy()
}

// initialSlots picks the slots for the initial population: shuffled for
// randomize, column-major for vertical stripes, row-major for horizontal.
func (sim *Simulator) initialSlots(n int) []*Slot {
	var slots []*Slot
	switch sim.Config.InitialPlacement {
	case PlacementVertical:
		for c := 0; c < sim.Grid.Cols(); c++ {
			for r := 0; r < sim.Grid.Rows(); r++ {
				s, _ := sim.Grid.Slot(r, c)
				slots = append(slots, s)
			}
		}
	case PlacementHorizontal:
		slots = sim.Grid.OpenSlots() // row-major on an empty grid
	default:
		slots = sim.Grid.OpenSlots()
		sim.RNG.Shuffle(len(slots), StreamInitialPlacement, func(i, j int) {
			slots[i], slots[j] = slots[j], slots[i]
		})
	}
	return slots[:n]
}

// drawClade picks a clade index via the cumulative arrival proportions.
func (sim *Simulator) drawClade() int {
	u := sim.RNG.Uniform(0, 1, StreamCladeChoice)
	for i, cum := range sim.cumProportions {
		if u < cum {
			return i
		}
	}
	return len(sim.cumProportions) - 1
}

// handleArrival processes a pool-arrival event and chains the next one.
func (sim *Simulator) handleArrival(now float64) {
	sim.scheduleNextArrival(now)

	sym := sim.generateArrival(now)
	if sym == nil {
		return
	}
	logrus.Debugf("[t=%10.4f] symbiont %d arrives from pool at %s", now, sym.id, sym.slot.Key())
	sim.Metrics.PoolArrivals++
	sim.scheduleNextFor(sym)
}

// generateArrival attempts one pool arrival: full grid drops the attempt
// (not an error), then the clade draw, then the arrival-affinity gate, then
// a uniformly chosen open slot.
func (sim *Simulator) generateArrival(now float64) *Symbiont {
	open := sim.Grid.OpenSlots()
	if len(open) == 0 {
		sim.Metrics.BlockedArrivals++
		return nil
	}

	cladeIndex := sim.drawClade()
	clade := &sim.Config.Clades[cladeIndex]
	if sim.RNG.Uniform(0, 1, StreamArrivalAffinity) >= clade.ArrivalAffinityProb {
		sim.Metrics.NoAffinityArrivals++
		return nil
	}

	slot := open[sim.RNG.Intn(len(open), StreamOpenSlotOnArrival)]
	sym := sim.newPoolSymbiont(cladeIndex, slot, now)
	slot.SetOccupant(sym, now)
	return sym
}

func (sim *Simulator) handleEndG0(sym *Symbiont, now float64) {
	sym.endOfG0(sim, now)
	sim.scheduleNextFor(sym)
}

func (sim *Simulator) handleEndMitosis(sym *Symbiont, now float64) {
	outcome, child := sym.endOfMitosis(sim, now)
	sim.Metrics.Divisions++
	sim.Metrics.DivisionArrivals++
	logrus.Debugf("[t=%10.4f] symbiont %d divides -> %d (%v)", now, sym.id, child.id, outcome)

	switch outcome {
	case BothStay:
		sim.scheduleNextFor(child)
	case ParentEvicted:
		sim.Metrics.Evictions++
		sim.recordExit(sym, now, report.ExitParentEvicted)
		sim.scheduleNextFor(child)
	case ParentNoAffinity:
		sim.Metrics.Evictions++
		sim.recordExit(sym, now, report.ExitParentNoAffinity)
		sim.scheduleNextFor(child)
	case ParentInfectsOutside:
		sim.Metrics.OutsideInfections++
		sim.recordExit(sym, now, report.ExitParentInfectsOutside)
		sim.scheduleNextFor(child)
	case ChildEvicted:
		sim.Metrics.Evictions++
		sim.recordExit(child, now, report.ExitChildEvicted)
	case ChildNoAffinity:
		sim.Metrics.Evictions++
		sim.recordExit(child, now, report.ExitChildNoAffinity)
	case ChildInfectsOutside:
		sim.Metrics.OutsideInfections++
		sim.recordExit(child, now, report.ExitChildInfectsOutside)
	}

	if outcome.parentKeepsSlot() {
		sim.scheduleNextFor(sym)
	}
}

func (sim *Simulator) handleDigestion(sym *Symbiont, now float64) {
	reason := report.ExitDigestionInG0
	if sym.phaseSincePrevEvent() == PhaseMitosis {
		reason = report.ExitDigestionInMitosis
	}
	sym.digestion(now)
	sim.Metrics.Digestions++
	sim.recordExit(sym, now, reason)
}

func (sim *Simulator) handleEscape(sym *Symbiont, now float64) {
	reason := report.ExitEscapeInG0
	if sym.phaseSincePrevEvent() == PhaseMitosis {
		reason = report.ExitEscapeInMitosis
	}
	sym.escape(now)
	sim.Metrics.Escapes++
	sim.recordExit(sym, now, reason)
}

func (sim *Simulator) handleDeparture(sym *Symbiont, now float64) {
	reason := report.ExitDepartureInG0
	if sym.phaseSincePrevEvent() == PhaseMitosis {
		reason = report.ExitDepartureInMitosis
	}
	sym.departure(now)
	sim.Metrics.Departures++
	sim.recordExit(sym, now, reason)
}

func (sim *Simulator) samplePopulation() {
	pop := sim.Grid.Occupancy()
	if pop > sim.Metrics.PeakPopulation {
		sim.Metrics.PeakPopulation = pop
	}
	sim.Recorder.RecordPopulation(report.PopulationSample{
		Time:      sim.Clock,
		Residents: pop,
	})
}

// finalize emits exit records for symbionts still in residence and closes
// out the run totals.
func (sim *Simulator) finalize() {
	end := math.Min(sim.Clock, sim.Horizon)
	for _, sym := range sim.Grid.Residents() {
		sim.recordExit(sym, end, report.ExitStillResident)
	}
	sim.Metrics.FinalPopulation = sim.Grid.Occupancy()
	sim.Metrics.SimEndedTime = end
	logrus.Infof("[t=%10.4f] simulation ended: %d resident, %d records",
		end, sim.Metrics.FinalPopulation, len(sim.Recorder.Exits))
}

// recordExit snapshots a symbiont into the run's exit records.
func (sim *Simulator) recordExit(sym *Symbiont, now float64, reason report.ExitReason) {
	sim.Recorder.RecordExit(report.ExitRecord{
		ID:               sym.id,
		ArrivalMode:      sym.mode.String(),
		ParentID:         sym.parentID,
		AgentZero:        sym.agentZero,
		Clade:            sym.clade.Name,
		MitoticCostRate:  sym.mitoticCostRate,
		ProductionRate:   sym.productionRate,
		ArrivalTime:      sym.arrivalTime,
		ExitTime:         now,
		ExitReason:       reason,
		LastEventTime:    sym.prevEventTime,
		LastEventKind:    sym.prevEventKind.String(),
		ResidenceTime:    now - sym.arrivalTime,
		SurplusOnArrival: sym.surplusOnArrival,
		SurplusAtExit:    sym.surplus,
		Divisions:        sym.divisions,
		TimeOfEscape:     sym.timeEscape,
		TimeOfDigestion:  sym.timeDigestion,
		TimeOfDeparture:  sym.timeDeparture,
		SlotsInhabited:   report.JoinStrings(sym.slotsInhabited),
		InhabitTimes:     report.JoinFloats(sym.inhabitTimes),
		SlotDemands:      report.JoinFloats(sym.slotDemands),
		G0Durations:      report.JoinFloats(sym.g0Durations),
		MitosisDurations: report.JoinFloats(sym.mitosisDurations),
	})
}
