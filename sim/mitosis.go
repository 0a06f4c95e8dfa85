package sim

import "math"

// MitosisOutcome enumerates how a completed division resolved. It is a
// transient signal consumed by the driver, distinct from the exit reasons
// used in output records.
type MitosisOutcome int

const (
	// BothStay: parent and child each occupy a slot afterwards.
	BothStay MitosisOutcome = iota
	// ParentEvicted: no open neighbor; the child took the parent's slot
	// and the parent was pushed back into the external pool.
	ParentEvicted
	// ChildEvicted: no open neighbor; the parent kept its slot and the
	// child went straight into the external pool.
	ChildEvicted
	// ParentInfectsOutside: the parent dispersed beyond the modeled grid;
	// the child took over its slot.
	ParentInfectsOutside
	// ChildInfectsOutside: the child dispersed beyond the modeled grid;
	// the parent kept its slot.
	ChildInfectsOutside
	// ParentNoAffinity: the parent failed the division-affinity gate while
	// moving to an open neighbor and was evicted; the child took the
	// parent's slot.
	ParentNoAffinity
	// ChildNoAffinity: the child failed the division-affinity gate while
	// moving to an open neighbor and was evicted; the parent stayed put.
	ChildNoAffinity
)

func (o MitosisOutcome) String() string {
	switch o {
	case BothStay:
		return "BothStay"
	case ParentEvicted:
		return "ParentEvicted"
	case ChildEvicted:
		return "ChildEvicted"
	case ParentInfectsOutside:
		return "ParentInfectsOutside"
	case ChildInfectsOutside:
		return "ChildInfectsOutside"
	case ParentNoAffinity:
		return "ParentNoAffinity"
	case ChildNoAffinity:
		return "ChildNoAffinity"
	default:
		return "Unknown"
	}
}

// parentKeepsSlot reports whether the parent still occupies some slot after
// resolution, i.e. whether it gets a next G0 period.
func (o MitosisOutcome) parentKeepsSlot() bool {
	switch o {
	case ParentEvicted, ParentInfectsOutside, ParentNoAffinity:
		return false
	default:
		return true
	}
}

// outsideGrid is the fixed probability that an open neighbor of a
// boundary-row slot is classified as lying beyond the modeled region: 3 of
// the 8 Moore neighbors of a top- or bottom-row slot fall outside the grid.
const outsideGridProb = 3.0 / 8.0

// mooreOffsets is the 8-connected neighborhood around a slot.
var mooreOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// findOpenNeighbor searches the parent's Moore neighborhood in random order
// for an unoccupied slot. Columns wrap, rows do not. When the parent sits
// on the first or last row and an open slot was found, a weighted draw may
// reclassify the candidate as lying outside the modeled grid.
func (s *Symbiont) findOpenNeighbor(sim *Simulator) (*Slot, bool) {
	row, col := s.slot.Row(), s.slot.Col()
	rows, cols := sim.Grid.Rows(), sim.Grid.Cols()

	order := mooreOffsets
	sim.RNG.Shuffle(len(order), StreamNeighborShuffle, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	var open *Slot
	for _, off := range order {
		r := row + off[0]
		if r < 0 || r >= rows {
			continue
		}
		c := ((col+off[1])%cols + cols) % cols
		slot, err := sim.Grid.Slot(r, c)
		if err != nil {
			panicInvariant("symbiont %d: neighbor lookup (%d,%d): %v", s.id, r, c, err)
		}
		if !slot.Occupied() {
			open = slot
			break
		}
	}

	if open != nil && (row == 0 || row == rows-1) {
		if sim.RNG.Uniform(0, 1, StreamInfectOutside) < outsideGridProb {
			return nil, true
		}
	}
	return open, false
}

// endOfMitosis handles a completed division: settle the mitosis-period
// surplus, split the bank with a newly constructed child, and resolve who
// occupies which slot. Returns the resolution outcome and the child (always
// created, even when immediately evicted, so the split stays conserved).
// Only a parent still holding a slot afterwards gets its next G0 scheduled.
func (s *Symbiont) endOfMitosis(sim *Simulator, now float64) (MitosisOutcome, *Symbiont) {
	s.timeEndMitosis = never
	if s.prevEventKind != KindEndG0 {
		panicInvariant("symbiont %d at t=%f: end of mitosis after %v", s.id, now, s.prevEventKind)
	}

	// endOfG0 already projected this period as survivable; settle to now.
	s.settle(now, PhaseMitosis)
	s.divisions++

	candidate, outside := s.findOpenNeighbor(sim)
	parentOut := sim.RNG.Uniform(0, 1, StreamEviction) < s.clade.ParentEvictionProb

	var outcome MitosisOutcome
	var child *Symbiont

	switch {
	case outside:
		// Dispersal beyond the modeled region: not an eviction, one of
		// the two is presumed to settle in an unmodeled host cell.
		if parentOut {
			child = sim.newChildSymbiont(s, s.slot, now)
			s.slot.ReplaceOccupant(child, now)
			s.slot = nil
			outcome = ParentInfectsOutside
		} else {
			child = sim.newChildSymbiont(s, nil, now)
			outcome = ChildInfectsOutside
		}

	case candidate != nil:
		if parentOut {
			// Child inherits the old slot; the parent tries to move into
			// the open neighbor, gated by division affinity.
			child = sim.newChildSymbiont(s, s.slot, now)
			s.slot.ReplaceOccupant(child, now)
			if sim.RNG.Uniform(0, 1, StreamDivisionAffinity) < s.clade.DivisionAffinityProb {
				s.slot = candidate
				candidate.SetOccupant(s, now)
				s.recordResidence(candidate, now)
				outcome = BothStay
			} else {
				s.slot = nil
				outcome = ParentNoAffinity
			}
		} else {
			// Parent keeps its slot; the child tries the open neighbor.
			if sim.RNG.Uniform(0, 1, StreamDivisionAffinity) < s.clade.DivisionAffinityProb {
				child = sim.newChildSymbiont(s, candidate, now)
				candidate.SetOccupant(child, now)
				outcome = BothStay
			} else {
				child = sim.newChildSymbiont(s, nil, now)
				outcome = ChildNoAffinity
			}
		}

	default:
		// No room anywhere in the neighborhood: someone goes back to the
		// pool.
		if parentOut {
			child = sim.newChildSymbiont(s, s.slot, now)
			s.slot.ReplaceOccupant(child, now)
			s.slot = nil
			outcome = ParentEvicted
		} else {
			child = sim.newChildSymbiont(s, nil, now)
			outcome = ChildEvicted
		}
	}

	// A parent still in residence must survive to its next G0 end; if not,
	// digestion or escape is scheduled instead of the G0 period.
	if outcome.parentKeepsSlot() {
		endOfG0 := s.computeNextEndOfG0(sim, now)
		p := s.projectSurplus(sim, now, endOfG0, PhaseG0)
		if p.surplus < 0 {
			s.timeDigestion = p.digestion
			if !math.IsInf(p.escape, 1) {
				s.timeEscape = p.escape
			}
		} else {
			s.timeEndG0 = endOfG0
		}
	}

	s.prevEventTime = now
	s.prevEventKind = KindEndMitosis
	s.setNextEvent()

	return outcome, child
}
