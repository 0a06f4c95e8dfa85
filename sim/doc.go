// Package sim provides the core discrete-event simulation engine for
// symbiont-sim.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event_heap.go / events.go: the ordered event calendar and the event
//     kinds that drive the simulation
//   - symbiont.go: the per-agent resource-trajectory and phase machine
//     (G0 → mitosis → G0)
//   - simulator.go: the event loop, pool arrivals, and run bookkeeping
//
// # Architecture
//
// Biology advances only at the instants something changes for an agent: each
// resident symbiont keeps a full set of candidate future event times
// (end-of-G0, end-of-mitosis, escape, digestion, departure) and exposes the
// single earliest of them. Only that one event per symbiont is ever live in
// the calendar; every dispatch recomputes the candidates and schedules the
// new authoritative next event, so superseded entries are never inserted in
// the first place.
//
// All randomness flows through PartitionedRNG (rng.go): every conceptual use
// has its own named stream with a deterministically derived seed, so two runs
// with the same master seed replay identically and unrelated draws never
// perturb one another.
//
// Output records live in the sub-package sim/report, which stores pure data
// types and the CSV serialization.
package sim
