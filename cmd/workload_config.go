package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	sim "github.com/stockyard-sim/stockyard-sim/sim"
	"github.com/stockyard-sim/stockyard-sim/sim/workload"
)

// loadOrGenerateWorkload reads the workload tables at path, or samples the
// default synthetic workload for cfg when path is empty.
func loadOrGenerateWorkload(cfg sim.YardConfig, path string) (sim.Workload, error) {
	if path != "" {
		wl, err := workload.Load(path)
		if err != nil {
			return sim.Workload{}, err
		}
		logrus.Infof("Loaded %d plates from %s", wl.Len(), path)
		return wl, nil
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).ForSubsystem(sim.SubsystemWorkload)
	return workload.Generate(cfg, workload.DefaultGeneratorConfig(), rng)
}

// writeEvents exports the simulator's event log to path.
func writeEvents(s *sim.Simulator, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating event log: %w", err)
	}
	defer f.Close()
	if err := s.Events().WriteYAML(f); err != nil {
		return fmt.Errorf("writing event log: %w", err)
	}
	return nil
}
