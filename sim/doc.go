// Package sim provides the core discrete-event simulation engine for a two-crane
// steel-plate stockyard.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - clock.go: the time-ordered event queue and interruptible timeouts
//   - location.go: input points, piles and output points (plate stacks)
//   - crane.go: the crane state machine (idle → loading → unloading → idle)
//   - motion.go: travel-time, position integration and conflict prediction
//   - yard.go: workload loading, reservations, readiness and batch validation
//   - broker.go: pending sequencing/loading/prioritizing decisions
//   - simulator.go: orchestration and the decision interface used by policies
//
// # Architecture
//
// Every crane and location is a logical process multiplexed onto one Clock. A
// process suspends by scheduling a continuation: a timeout for a motion leg, a
// Broker entry for an external decision, or a park slot (idle, avoidance wait,
// hold). Nothing runs concurrently, so ordering is fully determined by the event
// queue: earliest timestamp first, FIFO among equal timestamps.
//
// Sub-packages:
//   - sim/trace/: the optional event log and per-crane time accounting
//   - sim/workload/: workload tables (YAML) and the synthetic generator
//   - sim/policy/: reference decision policies for CLI runs
//
// The interference algorithm is a two-agent algorithm: crane 0 is the left crane,
// crane 1 the right one. Before every leg a crane compares its straight run to
// the target with the rest of the other crane's current leg; a parked crane in
// the way is pushed aside and only a moving one is interrupted.
package sim
