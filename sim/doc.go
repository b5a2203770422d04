// Package sim provides the core model of decentralized bus address allocation.
//
// # Reading Guide
//
// Start with these three files to understand the model:
//   - device.go: Device lifecycle (uninitialized → proposing → allocated) and reinitialization
//   - bus.go: Bus container, move counter and merge of resolved buses
//   - protocol.go: The round loop (snapshot, advance, collision resolution)
//
// # Architecture
//
// The sim package holds the allocation core; drivers and records live in
// sub-packages:
//   - sim/scenario/: Builds buses from a Config, resolves, merges and reports
//   - sim/trace/: Round and collision trace recording
//
// All randomness flows through the Rand interface. PartitionedRNG hands out
// one seeded *rand.Rand per subsystem so a run is reproducible from its seed.
//
// # Invariants
//
// After Protocol.Resolve returns without error, every device on every
// resolved bus is allocated and no two devices on the same bus share an
// address. Addresses are always in [MinAddress, MaxAddress].
package sim
