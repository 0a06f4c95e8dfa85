package sim

import (
	"hash/fnv"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Stream labels one conceptual use of randomness. Every draw the simulation
// makes goes through a named stream so that adding or reordering draws for
// one purpose never perturbs another (variance reduction across runs with
// the same seed).
type Stream string

const (
	StreamMitoticCostRate    Stream = "mitotic_cost_rate"
	StreamPhotosynthate      Stream = "photosynthate"
	StreamProductionRate     Stream = "production_rate"
	StreamEndG0              Stream = "end_g0"
	StreamEndMitosis         Stream = "end_mitosis"
	StreamDepartureTime      Stream = "departure_time"
	StreamEscapeCoinG0       Stream = "escape_coin_g0"
	StreamEscapeCoinMitosis  Stream = "escape_coin_mitosis"
	StreamEscapeTimeG0       Stream = "escape_time_g0"
	StreamEscapeTimeMitosis  Stream = "escape_time_mitosis"
	StreamEviction           Stream = "eviction"
	StreamArrivalAffinity    Stream = "arrival_affinity"
	StreamDivisionAffinity   Stream = "division_affinity"
	StreamCladeChoice        Stream = "clade_choice"
	StreamOpenSlotOnArrival  Stream = "open_slot_on_arrival"
	StreamNeighborShuffle    Stream = "neighbor_shuffle"
	StreamInfectOutside      Stream = "infect_outside"
	StreamHostCellDemand     Stream = "host_cell_demand"
	StreamInterarrival       Stream = "interarrival"
	StreamInitialPlacement   Stream = "initial_placement"
	StreamMCRMutation        Stream = "mcr_mutation"
	StreamSurplusMutation    Stream = "surplus_mutation"
	StreamProductionMutation Stream = "production_mutation"
)

// MutationKind tags the outcome of a division mutation draw.
type MutationKind int

const (
	MutationNone MutationKind = iota
	MutationDeleterious
	MutationBeneficial
)

// fuzzZ is the two-sided 95% normal quantile: Fuzz draws keep ~95% of their
// mass within mean ± mean·fraction.
const fuzzZ = 1.959963984540054

// PartitionedRNG provides deterministic, isolated RNG instances per stream.
//
// Derivation formula: streamSeed = masterSeed XOR fnv1a64(streamLabel).
// The same label always yields the same cached *rand.Rand, so two runs with
// the same seed replay identical draws per stream regardless of how draws
// on other streams interleave.
//
// Thread-safety: NOT thread-safe. The simulation loop is single-threaded.
type PartitionedRNG struct {
	masterSeed int64
	streams    map[Stream]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(masterSeed int64) *PartitionedRNG {
	return &PartitionedRNG{
		masterSeed: masterSeed,
		streams:    make(map[Stream]*rand.Rand),
	}
}

// forStream returns the deterministically-seeded RNG for the named stream,
// creating and caching it on first use. Never returns nil.
func (p *PartitionedRNG) forStream(s Stream) *rand.Rand {
	if rng, ok := p.streams[s]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.masterSeed ^ fnv1a64(string(s))))
	p.streams[s] = rng
	return rng
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// Uniform draws from U(lo, hi) on the given stream.
func (p *PartitionedRNG) Uniform(lo, hi float64, s Stream) float64 {
	return lo + (hi-lo)*p.forStream(s).Float64()
}

// Intn draws an integer in [0, n) on the given stream.
func (p *PartitionedRNG) Intn(n int, s Stream) int {
	return p.forStream(s).Intn(n)
}

// Exponential draws an exponentially distributed value with the given mean.
func (p *PartitionedRNG) Exponential(mean float64, s Stream) float64 {
	return p.forStream(s).ExpFloat64() * mean
}

// Shuffle permutes n elements on the given stream via the swap callback.
func (p *PartitionedRNG) Shuffle(n int, s Stream, swap func(i, j int)) {
	p.forStream(s).Shuffle(n, swap)
}

// Fuzz draws a normal variate clustered so that ~95% of the mass lies within
// mean ± mean·fraction. A zero fraction returns the mean unperturbed.
func (p *PartitionedRNG) Fuzz(mean, fraction float64, s Stream) float64 {
	if fraction == 0 {
		return mean
	}
	n := distuv.Normal{
		Mu:    mean,
		Sigma: mean * fraction / fuzzZ,
		Src:   streamSource{p.forStream(s)},
	}
	return n.Rand()
}

// Gamma draws from Gamma(shape, scale) on the given stream.
func (p *PartitionedRNG) Gamma(shape, scale float64, s Stream) float64 {
	g := distuv.Gamma{
		Alpha: shape,
		Beta:  1 / scale,
		Src:   streamSource{p.forStream(s)},
	}
	return g.Rand()
}

// MutationAmount resolves a division mutation for an inherited quantity.
// With the clade's deleterious/beneficial probabilities it returns a
// magnitude proportional to the base value (scaled by a gamma variate) and
// the kind of mutation; otherwise (MutationNone, 0). The caller decides the
// sign convention: deleterious worsens the quantity, whatever "worse" means
// for it.
func (p *PartitionedRNG) MutationAmount(base float64, clade *Clade, s Stream) (float64, MutationKind) {
	u := p.Uniform(0, 1, s)
	switch {
	case u < clade.DeleteriousProb:
		return base * p.Gamma(clade.MutationShape, clade.MutationScale, s), MutationDeleterious
	case u < clade.DeleteriousProb+clade.BeneficialProb:
		return base * p.Gamma(clade.MutationShape, clade.MutationScale, s), MutationBeneficial
	default:
		return 0, MutationNone
	}
}

// streamSource adapts a math/rand stream to the rand source interface the
// gonum distributions consume, so distribution draws stay on their stream.
type streamSource struct {
	r *rand.Rand
}

func (s streamSource) Uint64() uint64 { return s.r.Uint64() }
func (s streamSource) Seed(uint64)    {}
