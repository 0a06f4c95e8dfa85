package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowAdjustedRate(t *testing.T) {
	// Top row gets the full rate, bottom row gets rate/k, in between is
	// linear. k=2 halves production at the bottom.
	assert.Equal(t, 1.4, rowAdjustedRate(1.4, 2.0, 0, 20))
	assert.InDelta(t, 0.7, rowAdjustedRate(1.4, 2.0, 19, 20), 1e-12)
	assert.InDelta(t, 1.05, rowAdjustedRate(1.4, 2.0, 1, 3), 1e-12)

	// A single-row grid has no gradient.
	assert.Equal(t, 1.4, rowAdjustedRate(1.4, 2.0, 0, 1))
}

func TestBalanceAt(t *testing.T) {
	sim := newTestSimulator(t, testConfig())
	slot := mustSlot(t, sim.Grid, 0, 0)
	s := makeSymbiont(sim, slot, 5.0, 1.0, 0.3)

	// Production exactly covers demand in G0.
	assert.Equal(t, 5.0, s.balanceAt(0, 10, PhaseG0))

	// Mitosis additionally pays the mitotic cost rate.
	assert.InDelta(t, 5.0-3.0, s.balanceAt(0, 10, PhaseMitosis), 1e-12)
}

func TestProjectSurplus_BreakEven(t *testing.T) {
	// Production 1.0 against slot demand 1.0 with no mitotic cost: a
	// starting bank of 5.0 projects to exactly 5.0 at the end of a 10-day
	// G0 period, so neither digestion nor escape is scheduled.
	sim := newTestSimulator(t, testConfig())
	slot := mustSlot(t, sim.Grid, 0, 0)
	s := makeSymbiont(sim, slot, 5.0, 1.0, 0)

	p := s.projectSurplus(sim, 0, 10, PhaseG0)
	assert.Equal(t, 5.0, p.surplus)
	assert.True(t, math.IsInf(p.digestion, 1))
	assert.True(t, math.IsInf(p.escape, 1))
	assert.False(t, p.doomed())
}

func TestProjectSurplus_ZeroCrossing(t *testing.T) {
	// Demand 2.0 against production 1.0 drains the 5.0 bank at rate 1.0:
	// the trajectory crosses zero at exactly t=5.0.
	cfg := testConfig()
	cfg.HostCellDemand = 2.0
	cfg.Clades[0].EscapeProbG0 = 0
	sim := newTestSimulator(t, cfg)
	slot := mustSlot(t, sim.Grid, 0, 0)
	s := makeSymbiont(sim, slot, 5.0, 1.0, 0)

	p := s.projectSurplus(sim, 0, 10, PhaseG0)
	assert.Equal(t, -5.0, p.surplus)
	assert.Equal(t, 5.0, p.digestion)
	assert.True(t, math.IsInf(p.escape, 1), "escape coin cannot win at probability zero")
	assert.True(t, p.doomed())
}

func TestProjectSurplus_EscapePrecedesDigestion(t *testing.T) {
	cfg := testConfig()
	cfg.HostCellDemand = 2.0
	cfg.Clades[0].EscapeProbG0 = 1.0
	sim := newTestSimulator(t, cfg)
	slot := mustSlot(t, sim.Grid, 0, 0)
	s := makeSymbiont(sim, slot, 5.0, 1.0, 0)

	p := s.projectSurplus(sim, 0, 10, PhaseG0)
	require.False(t, math.IsInf(p.escape, 1))
	assert.Greater(t, p.escape, 0.0)
	assert.Less(t, p.escape, p.digestion)
}

func TestSettle_PanicsOnNegativeBalance(t *testing.T) {
	cfg := testConfig()
	cfg.HostCellDemand = 2.0
	sim := newTestSimulator(t, cfg)
	slot := mustSlot(t, sim.Grid, 0, 0)
	s := makeSymbiont(sim, slot, 1.0, 1.0, 0)
	s.prevEventTime = 0

	assert.Panics(t, func() {
		s.settle(2.0, PhaseG0)
	})
}

func TestEndOfG0_EntersMitosis(t *testing.T) {
	cfg := testConfig()
	cfg.Clades[0].MitosisMean = 1.0
	cfg.Clades[0].MitosisFuzz = 0
	sim := newTestSimulator(t, cfg)
	slot := mustSlot(t, sim.Grid, 0, 0)
	s := makeSymbiont(sim, slot, 5.0, 1.0, 0)
	s.timeEndG0 = 10.0

	s.endOfG0(sim, 10.0)

	assert.Equal(t, 5.0, s.surplus)
	assert.True(t, math.IsInf(s.timeEndG0, 1))
	assert.Equal(t, 11.0, s.timeEndMitosis)
	assert.Equal(t, KindEndG0, s.prevEventKind)
	assert.Equal(t, KindEndMitosis, s.nextEventKind)
	assert.Equal(t, 11.0, s.nextEventTime)
	require.Len(t, s.mitosisDurations, 1)
	assert.Equal(t, 1.0, s.mitosisDurations[0])
}

func TestEndOfG0_DoomedInMitosis(t *testing.T) {
	// The mitotic cost rate alone overruns the bank during the committed
	// period, so the division never completes: digestion replaces the end
	// of mitosis.
	cfg := testConfig()
	cfg.Clades[0].MitosisMean = 10.0
	cfg.Clades[0].MitosisFuzz = 0
	cfg.Clades[0].EscapeProbMitosis = 0
	sim := newTestSimulator(t, cfg)
	slot := mustSlot(t, sim.Grid, 0, 0)
	s := makeSymbiont(sim, slot, 5.0, 1.0, 1.0)
	s.timeEndG0 = 10.0

	s.endOfG0(sim, 10.0)

	assert.True(t, math.IsInf(s.timeEndMitosis, 1))
	assert.Equal(t, 15.0, s.timeDigestion)
	assert.Equal(t, KindDigestion, s.nextEventKind)
}

func TestEndOfG0_PanicsAfterWrongEvent(t *testing.T) {
	sim := newTestSimulator(t, testConfig())
	slot := mustSlot(t, sim.Grid, 0, 0)
	s := makeSymbiont(sim, slot, 5.0, 1.0, 0)
	s.prevEventKind = KindEndG0

	assert.Panics(t, func() {
		s.endOfG0(sim, 10.0)
	})
}

func TestScheduleInitialEvents_Doomed(t *testing.T) {
	// The doomed first G0 keeps its end time on the books; digestion lands
	// strictly earlier and wins next-event selection.
	cfg := testConfig()
	cfg.HostCellDemand = 2.0
	cfg.Clades[0].G0Mean = 10.0
	cfg.Clades[0].G0Fuzz = 0
	cfg.Clades[0].ResidenceMean = 100.0
	cfg.Clades[0].ResidenceFuzz = 0
	cfg.Clades[0].EscapeProbG0 = 0
	sim := newTestSimulator(t, cfg)
	slot := mustSlot(t, sim.Grid, 0, 0)
	s := makeSymbiont(sim, slot, 5.0, 1.0, 0)

	s.scheduleInitialEvents(sim, 0)
	s.setNextEvent()

	assert.Equal(t, 10.0, s.timeEndG0)
	assert.Equal(t, 100.0, s.timeDeparture)
	assert.Equal(t, 5.0, s.timeDigestion)
	assert.Equal(t, KindDigestion, s.nextEventKind)
	assert.Equal(t, 5.0, s.nextEventTime)
}

func TestTerminalEventsZeroTheBankAndVacate(t *testing.T) {
	cases := []struct {
		name string
		fire func(*Symbiont, float64)
	}{
		{"digestion", (*Symbiont).digestion},
		{"escape", (*Symbiont).escape},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sim := newTestSimulator(t, testConfig())
			slot := mustSlot(t, sim.Grid, 0, 0)
			s := makeSymbiont(sim, slot, 5.0, 1.0, 0)

			tc.fire(s, 3.0)

			assert.Equal(t, 0.0, s.surplus)
			assert.Nil(t, s.slot)
			assert.False(t, slot.Occupied())
		})
	}
}

func TestDeparture_SettlesAndVacates(t *testing.T) {
	sim := newTestSimulator(t, testConfig())
	slot := mustSlot(t, sim.Grid, 0, 0)
	s := makeSymbiont(sim, slot, 5.0, 1.5, 0)
	s.prevEventTime = 0
	s.prevEventKind = KindArrival

	s.departure(10.0)

	// Production 1.5 against demand 1.0 banks 5.0 over ten days.
	assert.InDelta(t, 10.0, s.surplus, 1e-12)
	assert.Nil(t, s.slot)
	assert.False(t, slot.Occupied())
}

func TestDeparture_MidMitosisSkipsMitoticCost(t *testing.T) {
	// Leaving during a committed division abandons it unpaid: production
	// 1.0 exactly covers demand 1.0, so the bank stays at 5.0 even though
	// the mitotic cost rate alone would have drained it to zero.
	sim := newTestSimulator(t, testConfig())
	slot := mustSlot(t, sim.Grid, 0, 0)
	s := makeSymbiont(sim, slot, 5.0, 1.0, 0.5)
	s.prevEventTime = 0
	s.prevEventKind = KindEndG0

	s.departure(10.0)

	assert.Equal(t, 5.0, s.surplus)
	assert.Nil(t, s.slot)
	assert.False(t, slot.Occupied())
}

func TestPhaseSincePrevEvent(t *testing.T) {
	s := &Symbiont{prevEventKind: KindEndG0}
	assert.Equal(t, PhaseMitosis, s.phaseSincePrevEvent())

	for _, k := range []EventKind{KindArrival, KindEndMitosis} {
		s.prevEventKind = k
		assert.Equal(t, PhaseG0, s.phaseSincePrevEvent())
	}
}

func TestSetNextEvent_Precedence(t *testing.T) {
	mk := func() *Symbiont {
		return &Symbiont{
			timeEndG0:      never,
			timeEndMitosis: never,
			timeEscape:     never,
			timeDigestion:  never,
			timeDeparture:  never,
		}
	}

	t.Run("all unset", func(t *testing.T) {
		s := mk()
		s.setNextEvent()
		assert.Equal(t, kindNone, s.nextEventKind)
		assert.True(t, math.IsInf(s.nextEventTime, 1))
	})

	t.Run("earliest wins", func(t *testing.T) {
		s := mk()
		s.timeEndG0 = 10
		s.timeDeparture = 4
		s.setNextEvent()
		assert.Equal(t, KindDeparture, s.nextEventKind)
		assert.Equal(t, 4.0, s.nextEventTime)
	})

	t.Run("phase end beats departure at equal times", func(t *testing.T) {
		s := mk()
		s.timeEndG0 = 7
		s.timeDeparture = 7
		s.setNextEvent()
		assert.Equal(t, KindEndG0, s.nextEventKind)
	})

	t.Run("escape beats digestion at equal times", func(t *testing.T) {
		s := mk()
		s.timeEscape = 3
		s.timeDigestion = 3
		s.setNextEvent()
		assert.Equal(t, KindEscape, s.nextEventKind)
	})
}

func TestNewChildSymbiont_SurplusConserved(t *testing.T) {
	cfg := testConfig()
	cfg.Clades[0].DeleteriousProb = 0
	cfg.Clades[0].BeneficialProb = 0
	sim := newTestSimulator(t, cfg)
	slot := mustSlot(t, sim.Grid, 0, 0)
	parent := makeSymbiont(sim, slot, 5.0, 1.0, 0.2)

	child := sim.newChildSymbiont(parent, nil, 10.0)

	assert.Equal(t, 2.5, child.surplus)
	assert.Equal(t, 2.5, parent.surplus)
	assert.Equal(t, parent.id, child.parentID)
	assert.Equal(t, parent.agentZero, child.agentZero)
	assert.Equal(t, ArrivedViaDivision, child.mode)
	assert.Equal(t, parent.mitoticCostRate, child.mitoticCostRate)

	// A slotless child holds no candidate events.
	assert.Equal(t, kindNone, child.nextEventKind)
	assert.True(t, math.IsInf(child.timeDeparture, 1))
}

func TestNewChildSymbiont_MutationShiftsSplitNotTotal(t *testing.T) {
	cfg := testConfig()
	cfg.Clades[0].DeleteriousProb = 1.0
	cfg.Clades[0].BeneficialProb = 0
	sim := newTestSimulator(t, cfg)
	slot := mustSlot(t, sim.Grid, 0, 0)
	parent := makeSymbiont(sim, slot, 5.0, 1.0, 0.2)

	before := parent.surplus
	child := sim.newChildSymbiont(parent, nil, 10.0)

	assert.Less(t, child.surplus, 2.5, "a deleterious split gives the child less than half")
	assert.InDelta(t, before, parent.surplus+child.surplus, 1e-12)
	assert.Greater(t, child.mitoticCostRate, parent.mitoticCostRate,
		"a deleterious cost mutation raises the child's mitotic cost rate")
}
