package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Placement selects how the initial population is laid out at t=0.
type Placement string

const (
	PlacementRandomize  Placement = "randomize"
	PlacementVertical   Placement = "vertical"
	PlacementHorizontal Placement = "horizontal"
)

// Config holds the run-level simulation parameters. Clade parameters live
// in Clades; everything else describes the environment and the arrival
// process.
type Config struct {
	Seed    int64   `yaml:"seed"`
	MaxTime float64 `yaml:"max_time"` // simulated days

	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`

	HostCellDemand     float64 `yaml:"host_cell_demand"`
	HostCellDemandFuzz float64 `yaml:"host_cell_demand_fuzz"`

	MeanTimeBetweenArrivals float64 `yaml:"mean_time_between_arrivals"`

	InitialSymbionts int       `yaml:"initial_symbionts"`
	InitialPlacement Placement `yaml:"initial_placement"`

	Clades []Clade `yaml:"clades"`
}

// DefaultConfig returns a single-clade baseline configuration that runs out
// of the box.
func DefaultConfig() Config {
	return Config{
		Seed:                    42,
		MaxTime:                 365.0,
		Rows:                    20,
		Cols:                    20,
		HostCellDemand:          1.0,
		HostCellDemandFuzz:      0.05,
		MeanTimeBetweenArrivals: 1.0,
		InitialSymbionts:        16,
		InitialPlacement:        PlacementRandomize,
		Clades: []Clade{
			{
				Name:                    "clade-a",
				Proportion:              1.0,
				ProductionRate:          1.4,
				ProductionFuzz:          0.05,
				MitoticCostRate:         0.2,
				MitoticCostFuzz:         0.05,
				PhotosyntheticReduction: 2.0,
				G0Mean:                  8.0,
				G0Fuzz:                  0.1,
				MitosisMean:             1.0,
				MitosisFuzz:             0.1,
				ResidenceMean:           120.0,
				ResidenceFuzz:           0.1,
				EscapeProbG0:            0.3,
				EscapeProbMitosis:       0.3,
				ParentEvictionProb:      0.5,
				ArrivalAffinityProb:     0.8,
				DivisionAffinityProb:    0.9,
				InitialSurplusShape:     2.0,
				InitialSurplusScale:     0.75,
				MaxInitialSurplus:       3.0,
				DeleteriousProb:         0.02,
				BeneficialProb:          0.02,
				MutationShape:           2.0,
				MutationScale:           0.05,
			},
		},
	}
}

// LoadConfig reads a YAML configuration file over the defaults, so partial
// files only override what they mention.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	// A file that lists clades replaces the default clade list outright.
	var probe struct {
		Clades []Clade `yaml:"clades"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if len(probe.Clades) > 0 {
		cfg.Clades = nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate reports the first invalid run-level or clade parameter.
func (c *Config) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", c.Rows, c.Cols)
	}
	if c.MaxTime <= 0 {
		return fmt.Errorf("max_time must be positive, got %f", c.MaxTime)
	}
	if c.HostCellDemand < 0 {
		return fmt.Errorf("host_cell_demand must be non-negative, got %f", c.HostCellDemand)
	}
	if c.MeanTimeBetweenArrivals <= 0 {
		return fmt.Errorf("mean_time_between_arrivals must be positive, got %f", c.MeanTimeBetweenArrivals)
	}
	if c.InitialSymbionts < 0 || c.InitialSymbionts > c.Rows*c.Cols {
		return fmt.Errorf("initial_symbionts must be within [0, %d], got %d", c.Rows*c.Cols, c.InitialSymbionts)
	}
	switch c.InitialPlacement {
	case PlacementRandomize, PlacementVertical, PlacementHorizontal:
	default:
		return fmt.Errorf("initial_placement must be randomize, vertical or horizontal, got %q", c.InitialPlacement)
	}
	if len(c.Clades) == 0 {
		return fmt.Errorf("at least one clade is required")
	}
	total := 0.0
	for i := range c.Clades {
		if err := c.Clades[i].Validate(i); err != nil {
			return err
		}
		total += c.Clades[i].Proportion
	}
	if total <= 0 {
		return fmt.Errorf("clade proportions must sum to a positive value")
	}
	return nil
}

// cumulativeProportions normalizes the clade proportions into a cumulative
// distribution used when drawing the clade of a pool arrival. The final
// entry is pinned to 1.0 to absorb roundoff.
func (c *Config) cumulativeProportions() []float64 {
	total := 0.0
	for i := range c.Clades {
		total += c.Clades[i].Proportion
	}
	cum := make([]float64, len(c.Clades))
	running := 0.0
	for i := range c.Clades {
		running += c.Clades[i].Proportion / total
		cum[i] = running
	}
	cum[len(cum)-1] = 1.0
	return cum
}
