package cmd

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/symbiont-sim/symbiont-sim/sim"
)

var (
	// CLI flags; zero values defer to the config file / defaults
	configPath string  // YAML configuration file
	seed       int64   // master seed for all variate streams
	horizon    float64 // maximum simulated time (days)
	logLevel   string  // log verbosity level
	rows       int     // grid rows
	cols       int     // grid columns
	initial    int     // initial population size
	placement  string  // initial placement strategy

	exitCSVPath       string // per-symbiont exit records output
	populationCSVPath string // population time-series output
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "symbiont-sim",
	Short: "Discrete-event simulator of symbiotic algae colonizing a host-cell grid",
}

// runCmd executes one simulation using the config file plus flag overrides
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the symbiont simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := sim.DefaultConfig()
		if configPath != "" {
			cfg, err = sim.LoadConfig(configPath)
			if err != nil {
				logrus.Fatalf("unable to read config: %v", err)
			}
		}
		applyOverrides(cmd, &cfg)

		logrus.Infof("Starting simulation: %dx%d grid, %d clades, horizon=%.2f, seed=%d",
			cfg.Rows, cfg.Cols, len(cfg.Clades), cfg.MaxTime, cfg.Seed)

		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("invalid configuration: %v", err)
		}
		s.Run()
		s.Metrics.Print()

		if exitCSVPath != "" {
			writeCSV(exitCSVPath, s.Recorder.WriteExits)
		}
		if populationCSVPath != "" {
			writeCSV(populationCSVPath, s.Recorder.WritePopulation)
		}

		logrus.Info("Simulation complete.")
	},
}

// applyOverrides copies explicitly-set flags over the loaded config.
func applyOverrides(cmd *cobra.Command, cfg *sim.Config) {
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("horizon") {
		cfg.MaxTime = horizon
	}
	if cmd.Flags().Changed("rows") {
		cfg.Rows = rows
	}
	if cmd.Flags().Changed("cols") {
		cfg.Cols = cols
	}
	if cmd.Flags().Changed("initial") {
		cfg.InitialSymbionts = initial
	}
	if cmd.Flags().Changed("placement") {
		cfg.InitialPlacement = sim.Placement(placement)
	}
}

func writeCSV(path string, write func(w io.Writer) error) {
	f, err := os.Create(path)
	if err != nil {
		logrus.Fatalf("unable to create %s: %v", path, err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		logrus.Fatalf("unable to write %s: %v", path, err)
	}
	logrus.Infof("wrote %s", path)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for all variate streams")
	runCmd.Flags().Float64Var(&horizon, "horizon", 365.0, "Maximum simulated time (days)")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().IntVar(&rows, "rows", 20, "Number of grid rows")
	runCmd.Flags().IntVar(&cols, "cols", 20, "Number of grid columns")
	runCmd.Flags().IntVar(&initial, "initial", 16, "Initial population size")
	runCmd.Flags().StringVar(&placement, "placement", "randomize", "Initial placement (randomize, vertical, horizontal)")
	runCmd.Flags().StringVar(&exitCSVPath, "csv", "", "Write per-symbiont exit records to this CSV file")
	runCmd.Flags().StringVar(&populationCSVPath, "population-csv", "", "Write the population time series to this CSV file")

	rootCmd.AddCommand(runCmd)
}
