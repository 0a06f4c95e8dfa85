package sim

import "testing"

// testConfig returns a small, fuzz-free configuration so tests can reason
// about exact rates. Slot demand is exactly 1.0 everywhere.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Rows = 3
	cfg.Cols = 3
	cfg.InitialSymbionts = 0
	cfg.HostCellDemand = 1.0
	cfg.HostCellDemandFuzz = 0
	cfg.MaxTime = 100.0
	return cfg
}

func newTestSimulator(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	sim, err := NewSimulator(cfg)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return sim
}

// makeSymbiont hand-builds a resident symbiont with exact rates, bypassing
// the stochastic constructors.
func makeSymbiont(sim *Simulator, slot *Slot, surplus, prod, mcr float64) *Symbiont {
	s := &Symbiont{
		id:               sim.nextAgentID(),
		cladeIndex:       0,
		clade:            &sim.Config.Clades[0],
		slot:             slot,
		mode:             ArrivedFromPool,
		parentID:         -1,
		surplus:          surplus,
		surplusOnArrival: surplus,
		productionRate:   prod,
		mitoticCostRate:  mcr,
		timeEndG0:        never,
		timeEndMitosis:   never,
		timeEscape:       never,
		timeDigestion:    never,
		timeDeparture:    never,
		nextEventTime:    never,
		nextEventKind:    kindNone,
		prevEventKind:    KindArrival,
	}
	s.agentZero = s.id
	slot.SetOccupant(s, 0)
	s.recordResidence(slot, 0)
	return s
}

func mustSlot(t *testing.T, g *Grid, row, col int) *Slot {
	t.Helper()
	slot, err := g.Slot(row, col)
	if err != nil {
		t.Fatalf("Slot(%d,%d): %v", row, col, err)
	}
	return slot
}

// fillGrid occupies every open slot with a throwaway symbiont.
func fillGrid(sim *Simulator) {
	for _, slot := range sim.Grid.OpenSlots() {
		makeSymbiontNoTest(sim, slot)
	}
}

func makeSymbiontNoTest(sim *Simulator, slot *Slot) *Symbiont {
	s := &Symbiont{
		id:              sim.nextAgentID(),
		clade:           &sim.Config.Clades[0],
		slot:            slot,
		parentID:        -1,
		surplus:         1,
		productionRate:  1,
		mitoticCostRate: 0,
		timeEndG0:       never,
		timeEndMitosis:  never,
		timeEscape:      never,
		timeDigestion:   never,
		timeDeparture:   never,
		nextEventTime:   never,
		nextEventKind:   kindNone,
		prevEventKind:   KindArrival,
	}
	slot.SetOccupant(s, 0)
	return s
}
