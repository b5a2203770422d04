package sim

import (
	"hash/fnv"
	"math/rand"
)

// Rand is the random source the allocation model draws from.
// *rand.Rand satisfies it; tests substitute scripted sources to force outcomes.
type Rand interface {
	Intn(n int) int
}

// SimulationKey is the master seed of a run. Two runs with the same key and
// the same scenario produce the same addresses, states and move counts.
type SimulationKey int64

// NewSimulationKey wraps a --seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Random streams used by a run. Each stream is independent, so adding serial
// draws or trace levels never shifts the addresses the devices pick.
const (
	// SubsystemDevices feeds device construction: initial guesses and the
	// pre-allocation coin. It is seeded with the master key unchanged.
	SubsystemDevices = "devices"

	// SubsystemProtocol feeds collision coin flips and reinit draws.
	SubsystemProtocol = "protocol"

	// SubsystemSerials feeds device serial generation.
	SubsystemSerials = "serials"
)

// PartitionedRNG hands out one seeded stream per subsystem name.
// Streams are created on first use and cached for the life of the run.
//
// Thread-safety: NOT thread-safe. A run owns its PartitionedRNG.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates an empty set of streams for key.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, streams: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the stream for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	r, ok := p.streams[name]
	if !ok {
		r = rand.New(rand.NewSource(subsystemSeed(p.key, name)))
		p.streams[name] = r
	}
	return r
}

// Key returns the master seed.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// subsystemSeed is the master key for the device stream and the key mixed
// with an FNV-1a hash of the name for every other stream.
func subsystemSeed(key SimulationKey, name string) int64 {
	if name == SubsystemDevices {
		return int64(key)
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(key) ^ int64(h.Sum64())
}
