package sim

import "fmt"

// Metrics aggregates run-wide totals for final reporting.
type Metrics struct {
	PoolArrivals       int // symbionts that entered from the pool (incl. initial placement)
	DivisionArrivals   int // children created by divisions
	BlockedArrivals    int // arrival attempts dropped because the grid was full
	NoAffinityArrivals int // arrival attempts that failed the affinity gate

	Divisions         int
	Digestions        int
	Escapes           int
	Departures        int
	Evictions         int // parent or child pushed back to the pool during division
	OutsideInfections int // parent or child dispersed beyond the modeled grid

	PeakPopulation  int
	FinalPopulation int
	SimEndedTime    float64
}

// NewMetrics creates a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Print displays the aggregated totals at the end of the simulation.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Simulated time        : %.4f\n", m.SimEndedTime)
	fmt.Printf("Pool arrivals         : %d\n", m.PoolArrivals)
	fmt.Printf("Division arrivals     : %d\n", m.DivisionArrivals)
	fmt.Printf("Blocked arrivals      : %d\n", m.BlockedArrivals)
	fmt.Printf("No-affinity arrivals  : %d\n", m.NoAffinityArrivals)
	fmt.Printf("Divisions             : %d\n", m.Divisions)
	fmt.Printf("Digestions            : %d\n", m.Digestions)
	fmt.Printf("Escapes               : %d\n", m.Escapes)
	fmt.Printf("Departures            : %d\n", m.Departures)
	fmt.Printf("Evictions             : %d\n", m.Evictions)
	fmt.Printf("Outside infections    : %d\n", m.OutsideInfections)
	fmt.Printf("Peak population       : %d\n", m.PeakPopulation)
	fmt.Printf("Final population      : %d\n", m.FinalPopulation)
}
