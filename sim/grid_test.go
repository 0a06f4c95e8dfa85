package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid_SlotBounds(t *testing.T) {
	g := NewGrid(3, 4, 1.0, 0, NewPartitionedRNG(1))

	s, err := g.Slot(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Row())
	assert.Equal(t, 3, s.Col())

	for _, rc := range [][2]int{{-1, 0}, {3, 0}, {0, -1}, {0, 4}} {
		_, err := g.Slot(rc[0], rc[1])
		assert.True(t, errors.Is(err, ErrOutOfBounds), "(%d,%d) should be out of bounds", rc[0], rc[1])
	}
}

func TestGrid_FixedDemandWhenFuzzIsZero(t *testing.T) {
	g := NewGrid(4, 4, 2.5, 0, NewPartitionedRNG(7))
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			s, err := g.Slot(r, c)
			require.NoError(t, err)
			assert.Equal(t, 2.5, s.Demand())
		}
	}
}

func TestGrid_DemandNeverNegative(t *testing.T) {
	// A huge fuzz fraction would produce negative draws without the clamp.
	g := NewGrid(10, 10, 0.1, 50.0, NewPartitionedRNG(3))
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			s, _ := g.Slot(r, c)
			assert.GreaterOrEqual(t, s.Demand(), 0.0)
		}
	}
}

func TestGrid_OccupancyAndOpenSlots(t *testing.T) {
	g := NewGrid(2, 2, 1.0, 0, NewPartitionedRNG(1))
	assert.Equal(t, 0, g.Occupancy())
	assert.Len(t, g.OpenSlots(), 4)

	sym := &Symbiont{id: 1}
	s, _ := g.Slot(0, 1)
	s.SetOccupant(sym, 0)

	assert.Equal(t, 1, g.Occupancy())
	assert.Len(t, g.OpenSlots(), 3)
	require.Len(t, g.Residents(), 1)
	assert.Same(t, sym, g.Residents()[0])

	s.ClearOccupant(1.0)
	assert.Equal(t, 0, g.Occupancy())
	assert.Len(t, g.OpenSlots(), 4)
}

func TestGrid_OpenSlotsRowMajor(t *testing.T) {
	g := NewGrid(2, 3, 1.0, 0, NewPartitionedRNG(1))
	open := g.OpenSlots()
	require.Len(t, open, 6)
	assert.Equal(t, "(0,0)", open[0].Key())
	assert.Equal(t, "(0,2)", open[2].Key())
	assert.Equal(t, "(1,0)", open[3].Key())
	assert.Equal(t, "(1,2)", open[5].Key())
}

func TestSlot_SetOccupantPanicsWhenOccupied(t *testing.T) {
	g := NewGrid(1, 1, 1.0, 0, NewPartitionedRNG(1))
	s, _ := g.Slot(0, 0)
	s.SetOccupant(&Symbiont{id: 1}, 0)
	assert.Panics(t, func() {
		s.SetOccupant(&Symbiont{id: 2}, 0)
	})
}

func TestSlot_ReplaceOccupantHandsOver(t *testing.T) {
	g := NewGrid(1, 1, 1.0, 0, NewPartitionedRNG(1))
	s, _ := g.Slot(0, 0)
	parent := &Symbiont{id: 1}
	child := &Symbiont{id: 2}
	s.SetOccupant(parent, 0)
	s.ReplaceOccupant(child, 1.0)
	assert.Same(t, child, s.Occupant())
}
