package sim

import "fmt"

// Clade bundles the species-level stochastic parameters shared by a
// population of symbionts. Rates are photosynthate per unit time; durations
// are simulated days; fuzz values are fractions of the mean (see
// PartitionedRNG.Fuzz); probabilities are in [0,1].
type Clade struct {
	Name       string  `yaml:"name"`
	Proportion float64 `yaml:"proportion"` // share of pool arrivals drawn from this clade

	ProductionRate  float64 `yaml:"production_rate"`
	ProductionFuzz  float64 `yaml:"production_fuzz"`
	MitoticCostRate float64 `yaml:"mitotic_cost_rate"`
	MitoticCostFuzz float64 `yaml:"mitotic_cost_fuzz"`

	// PhotosyntheticReduction is the factor k by which production shrinks
	// from the top row to the bottom row (production falls off linearly
	// moving away from the light).
	PhotosyntheticReduction float64 `yaml:"photosynthetic_reduction"`

	G0Mean        float64 `yaml:"g0_mean"`
	G0Fuzz        float64 `yaml:"g0_fuzz"`
	MitosisMean   float64 `yaml:"mitosis_mean"`
	MitosisFuzz   float64 `yaml:"mitosis_fuzz"`
	ResidenceMean float64 `yaml:"residence_mean"`
	ResidenceFuzz float64 `yaml:"residence_fuzz"`

	EscapeProbG0      float64 `yaml:"escape_prob_g0"`
	EscapeProbMitosis float64 `yaml:"escape_prob_mitosis"`

	ParentEvictionProb   float64 `yaml:"parent_eviction_prob"`
	ArrivalAffinityProb  float64 `yaml:"arrival_affinity_prob"`
	DivisionAffinityProb float64 `yaml:"division_affinity_prob"`

	InitialSurplusShape float64 `yaml:"initial_surplus_shape"`
	InitialSurplusScale float64 `yaml:"initial_surplus_scale"`
	MaxInitialSurplus   float64 `yaml:"max_initial_surplus"`

	DeleteriousProb float64 `yaml:"deleterious_prob"`
	BeneficialProb  float64 `yaml:"beneficial_prob"`
	MutationShape   float64 `yaml:"mutation_shape"`
	MutationScale   float64 `yaml:"mutation_scale"`
}

// Validate reports the first malformed parameter, identified by clade index.
func (c *Clade) Validate(idx int) error {
	probs := map[string]float64{
		"escape_prob_g0":         c.EscapeProbG0,
		"escape_prob_mitosis":    c.EscapeProbMitosis,
		"parent_eviction_prob":   c.ParentEvictionProb,
		"arrival_affinity_prob":  c.ArrivalAffinityProb,
		"division_affinity_prob": c.DivisionAffinityProb,
		"deleterious_prob":       c.DeleteriousProb,
		"beneficial_prob":        c.BeneficialProb,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("clade %d: %s = %f outside [0,1]", idx, name, p)
		}
	}
	if c.DeleteriousProb+c.BeneficialProb > 1 {
		return fmt.Errorf("clade %d: deleterious_prob + beneficial_prob > 1", idx)
	}
	if c.Proportion < 0 {
		return fmt.Errorf("clade %d: proportion must be non-negative", idx)
	}
	if c.ProductionRate <= 0 {
		return fmt.Errorf("clade %d: production_rate must be positive", idx)
	}
	if c.MitoticCostRate < 0 {
		return fmt.Errorf("clade %d: mitotic_cost_rate must be non-negative", idx)
	}
	if c.PhotosyntheticReduction <= 0 {
		return fmt.Errorf("clade %d: photosynthetic_reduction must be positive", idx)
	}
	if c.G0Mean <= 0 || c.MitosisMean <= 0 || c.ResidenceMean <= 0 {
		return fmt.Errorf("clade %d: g0_mean, mitosis_mean and residence_mean must be positive", idx)
	}
	if c.InitialSurplusShape <= 0 || c.InitialSurplusScale <= 0 {
		return fmt.Errorf("clade %d: initial surplus gamma parameters must be positive", idx)
	}
	if c.MaxInitialSurplus <= 0 {
		return fmt.Errorf("clade %d: max_initial_surplus must be positive", idx)
	}
	if c.MutationShape <= 0 || c.MutationScale <= 0 {
		return fmt.Errorf("clade %d: mutation gamma parameters must be positive", idx)
	}
	return nil
}
