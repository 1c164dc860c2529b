package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/stockyard-sim/stockyard-sim/sim"
	"github.com/stockyard-sim/stockyard-sim/sim/policy"
	"github.com/stockyard-sim/stockyard-sim/sim/workload"
)

var (
	// CLI flags shared by run and generate
	configPath string // Yard config YAML; empty uses the default yard
	seed       int64  // Overrides the config seed when set
	logLevel   string // Log verbosity level

	// CLI flags for run
	workloadPath string  // Workload tables YAML; empty generates one
	policyName   string  // Decision policy driving the run
	horizon      float64 // Overrides the config horizon when set
	eventsPath   string  // Where to write the event log; empty disables recording

	// CLI flags for generate
	outPath string // Where to write the generated workload
	genCfg  = workload.DefaultGeneratorConfig()
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "stockyard-sim",
	Short: "Discrete-event simulator for a two-crane steel-plate stockyard",
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadConfig reads the yard config and applies flag overrides.
func loadConfig(cmd *cobra.Command) sim.YardConfig {
	cfg, err := LoadYardConfig(configPath)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("horizon") {
		cfg.Horizon = horizon
	}
	return cfg
}

// runCmd executes the simulation with a reference policy answering decisions
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the stockyard simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if !policy.IsValid(policyName) {
			logrus.Fatalf("Unknown policy %q; valid policies: %v", policyName, policy.ValidNames())
		}
		cfg := loadConfig(cmd)
		cfg.RecordEvents = cfg.RecordEvents || eventsPath != ""

		wl, err := loadOrGenerateWorkload(cfg, workloadPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		s, err := sim.NewSimulator(cfg, wl)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).ForSubsystem(sim.SubsystemPolicy)
		if err := s.Run(policy.New(policyName, rng)); err != nil {
			logrus.Fatalf("Simulation aborted: %v", err)
		}
		if err := s.CheckConservation(); err != nil {
			logrus.Fatalf("Plate conservation check failed: %v", err)
		}
		s.Metrics().Print(os.Stdout)

		if eventsPath != "" {
			if err := writeEvents(s, eventsPath); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Event log written to %s", eventsPath)
		}
	},
}

// generateCmd samples a synthetic workload for the yard and writes it as YAML
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic workload for the yard",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg := loadConfig(cmd)
		rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).ForSubsystem(sim.SubsystemWorkload)
		wl, err := workload.Generate(cfg, genCfg, rng)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := workload.Save(outPath, wl); err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("Wrote %d plates to %s\n", wl.Len(), outPath)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	for _, c := range []*cobra.Command{runCmd, generateCmd} {
		c.Flags().StringVar(&configPath, "config", "", "Yard config YAML (default: built-in yard)")
		c.Flags().Int64Var(&seed, "seed", 42, "Seed for demand arrivals, workload generation and the random policy")
		c.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	}

	runCmd.Flags().StringVar(&workloadPath, "workload", "", "Workload tables YAML (default: generate one from the seed)")
	runCmd.Flags().StringVar(&policyName, "policy", "greedy", "Decision policy (greedy, random)")
	runCmd.Flags().Float64Var(&horizon, "horizon", 0, "Simulation horizon in time units (0 = until all work is done)")
	runCmd.Flags().StringVar(&eventsPath, "events", "", "Write the event log as YAML to this path")

	generateCmd.Flags().StringVar(&outPath, "out", "workload.yaml", "Output path for the generated workload")
	generateCmd.Flags().IntVar(&genCfg.StoragePlates, "storage-plates", genCfg.StoragePlates, "Nominal plates per input point")
	generateCmd.Flags().IntVar(&genCfg.ReshufflePlates, "reshuffle-plates", genCfg.ReshufflePlates, "Nominal plates per reshuffle origin pile")
	generateCmd.Flags().IntVar(&genCfg.ReshuffleFromPiles, "reshuffle-piles", genCfg.ReshuffleFromPiles, "Number of reshuffle origin piles")
	generateCmd.Flags().IntVar(&genCfg.RetrievalPlates, "retrieval-plates", genCfg.RetrievalPlates, "Nominal plates per retrieval pile")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateCmd)
}
