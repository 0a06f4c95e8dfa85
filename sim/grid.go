package sim

import (
	"fmt"
	"math"
)

// ErrOutOfBounds is returned by Grid.Slot for coordinates outside the grid.
// Callers walking a neighborhood are expected to pre-filter rows and wrap
// columns, so hitting this during a simulation indicates a broken caller.
var ErrOutOfBounds = fmt.Errorf("grid coordinates out of bounds")

// Slot is one host-cell position in the grid. A slot holds at most one
// symbiont and carries a photosynthate demand rate fixed at construction.
type Slot struct {
	row, col int
	demand   float64
	occupant *Symbiont
}

func (s *Slot) Row() int            { return s.row }
func (s *Slot) Col() int            { return s.col }
func (s *Slot) Demand() float64     { return s.demand }
func (s *Slot) Occupied() bool      { return s.occupant != nil }
func (s *Slot) Occupant() *Symbiont { return s.occupant }

// Key returns the "row,col" label used in residence histories.
func (s *Slot) Key() string {
	return fmt.Sprintf("(%d,%d)", s.row, s.col)
}

// SetOccupant places a symbiont in this slot. Occupied slots must be
// cleared (or handed over via ReplaceOccupant) first.
func (s *Slot) SetOccupant(sym *Symbiont, now float64) {
	if s.occupant != nil {
		panicInvariant("slot %s at t=%f: setting occupant %d over resident %d",
			s.Key(), now, sym.id, s.occupant.id)
	}
	s.occupant = sym
}

// ClearOccupant vacates the slot.
func (s *Slot) ClearOccupant(now float64) {
	s.occupant = nil
}

// ReplaceOccupant swaps the resident for a new symbiont in one step, used
// when a division hands the parent's slot to the child.
func (s *Slot) ReplaceOccupant(sym *Symbiont, now float64) {
	s.occupant = sym
}

// Grid is the bounded 2D matrix of host-cell slots. Columns wrap around
// (the modeled region is a ring slice), rows do not. The wrap itself is the
// caller's job: Slot only accepts in-bounds coordinates.
type Grid struct {
	rows, cols int
	slots      [][]*Slot
}

// NewGrid builds a rows×cols grid. Each slot's demand rate is drawn once
// from Fuzz(demand, demandFuzz) and never changes afterwards.
func NewGrid(rows, cols int, demand, demandFuzz float64, rng *PartitionedRNG) *Grid {
	g := &Grid{rows: rows, cols: cols}
	g.slots = make([][]*Slot, rows)
	for r := 0; r < rows; r++ {
		g.slots[r] = make([]*Slot, cols)
		for c := 0; c < cols; c++ {
			d := rng.Fuzz(demand, demandFuzz, StreamHostCellDemand)
			g.slots[r][c] = &Slot{row: r, col: c, demand: math.Max(d, 0)}
		}
	}
	return g
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// Slot returns the slot at (row, col) or ErrOutOfBounds.
func (g *Grid) Slot(row, col int) (*Slot, error) {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return nil, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, row, col, g.rows, g.cols)
	}
	return g.slots[row][col], nil
}

// OpenSlots returns all unoccupied slots in row-major order.
func (g *Grid) OpenSlots() []*Slot {
	open := make([]*Slot, 0)
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if !g.slots[r][c].Occupied() {
				open = append(open, g.slots[r][c])
			}
		}
	}
	return open
}

// Occupancy counts resident symbionts.
func (g *Grid) Occupancy() int {
	n := 0
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.slots[r][c].Occupied() {
				n++
			}
		}
	}
	return n
}

// Residents returns all resident symbionts in row-major order, used for the
// end-of-run dump.
func (g *Grid) Residents() []*Symbiont {
	res := make([]*Symbiont, 0)
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if sym := g.slots[r][c].Occupant(); sym != nil {
				res = append(res, sym)
			}
		}
	}
	return res
}
