package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jacdac-sim/jdbus-sim/sim/scenario"
)

var (
	// CLI flags for the bus population
	seed          int64 // Seed for all random draws
	busCount      int   // Number of independent buses
	devicesPerBus int   // Devices created on each bus
	merge         bool  // Merge all buses after resolving them

	// CLI flags for the protocol run
	maxRounds  int    // Round cap (0 = run until convergence)
	traceLevel string // Allocation trace verbosity

	// CLI flags for configuration sources and output
	preset           string // Named scenario from the defaults file
	defaultsFilePath string // Path to defaults.yaml
	scenarioPath     string // Path to a scenario YAML file
	resultsPath      string // File to save the JSON report to
	logLevel         string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "jdbus-sim",
	Short: "Simulator for decentralized bus address allocation",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the address allocation simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		logrus.Infof("Starting simulation with %d buses x %d devices, seed=%d, merge=%v, maxRounds=%d",
			cfg.BusCount, cfg.DevicesPerBus, cfg.Seed, cfg.Merge, cfg.MaxRounds)

		startTime := time.Now()

		s, err := scenario.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		report, err := s.Run()
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		report.Print(os.Stdout)

		if resultsPath != "" {
			if err := report.SaveJSON(resultsPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}

		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// resolveConfig layers configuration sources: built-in defaults, then the
// preset, then the scenario file, then flags the user explicitly set.
func resolveConfig(cmd *cobra.Command) (scenario.Config, error) {
	cfg := scenario.DefaultConfig()

	if preset != "" {
		p, err := GetPreset(preset, defaultsFilePath)
		if err != nil {
			return cfg, err
		}
		cfg = p
	}

	if scenarioPath != "" {
		loaded, err := scenario.LoadConfigOnto(scenarioPath, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	// Flags override file values only when explicitly passed.
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("buses") {
		cfg.BusCount = busCount
	}
	if flags.Changed("devices-per-bus") {
		cfg.DevicesPerBus = devicesPerBus
	}
	if flags.Changed("merge") {
		cfg.Merge = merge
	}
	if flags.Changed("max-rounds") {
		cfg.MaxRounds = maxRounds
	}
	if flags.Changed("trace-level") {
		cfg.TraceLevel = traceLevel
	}
	return cfg, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	def := scenario.DefaultConfig()

	runCmd.Flags().Int64Var(&seed, "seed", def.Seed, "Seed for device creation and collision resolution")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Bus population
	runCmd.Flags().IntVar(&busCount, "buses", def.BusCount, "Number of independent buses")
	runCmd.Flags().IntVar(&devicesPerBus, "devices-per-bus", def.DevicesPerBus, "Number of devices on each bus")
	runCmd.Flags().BoolVar(&merge, "merge", def.Merge, "Merge all buses into one after resolving them")

	// Protocol
	runCmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "Round cap; 0 runs until convergence")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Allocation trace verbosity (none, rounds, collisions)")

	// Configuration sources and output
	runCmd.Flags().StringVar(&preset, "preset", "", "Named scenario from the defaults file")
	runCmd.Flags().StringVar(&defaultsFilePath, "defaults", "defaults.yaml", "Path to the defaults file holding presets")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a scenario YAML file")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "Save the JSON report to this file")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
