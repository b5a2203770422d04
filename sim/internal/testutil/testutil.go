// Package testutil provides shared test infrastructure for the bus allocation simulator.
// It consolidates scripted random sources and bus assertion helpers used across
// sim/ and sim/scenario/ test packages.
package testutil

import (
	"math/rand"
	"testing"

	"github.com/jacdac-sim/jdbus-sim/sim"
)

// ScriptedRand replays fixed Intn results, then falls back to a seeded source.
// Scripted values are returned as-is and must already be in [0, n) for the call they answer.
type ScriptedRand struct {
	values   []int
	fallback *rand.Rand
}

// NewScriptedRand creates a ScriptedRand that replays values before using seed.
func NewScriptedRand(seed int64, values ...int) *ScriptedRand {
	return &ScriptedRand{values: values, fallback: rand.New(rand.NewSource(seed))}
}

// Intn returns the next scripted value, or a fallback draw once the script is exhausted.
// Panics if a scripted value is outside [0, n).
func (s *ScriptedRand) Intn(n int) int {
	if len(s.values) == 0 {
		return s.fallback.Intn(n)
	}
	v := s.values[0]
	s.values = s.values[1:]
	if v < 0 || v >= n {
		panic("ScriptedRand: scripted value out of range for Intn")
	}
	return v
}

// Remaining returns the number of scripted values not yet consumed.
func (s *ScriptedRand) Remaining() int {
	return len(s.values)
}

// UninitializedDevice returns the Intn script that makes NewDevice produce an
// uninitialized device holding addr.
func UninitializedDevice(addr sim.Address) []int {
	return []int{int(addr - sim.MinAddress), 1}
}

// AllocatedDevice returns the Intn script that makes NewDevice produce an
// allocated device holding addr, provided addr is not already allocated on the bus.
func AllocatedDevice(addr sim.Address) []int {
	return []int{0, 0, int(addr - sim.MinAddress)}
}

// AssertUniqueAddresses fails the test if two devices on the bus share an address.
func AssertUniqueAddresses(t *testing.T, b *sim.Bus) {
	t.Helper()
	seen := make(map[sim.Address]int, b.Len())
	for i, d := range b.Devices() {
		if j, ok := seen[d.Address]; ok {
			t.Errorf("%s: devices %d and %d share address %d", b.ID(), j, i, d.Address)
		}
		seen[d.Address] = i
	}
}

// AssertAllAllocated fails the test if any device on the bus is not allocated.
func AssertAllAllocated(t *testing.T, b *sim.Bus) {
	t.Helper()
	for i, d := range b.Devices() {
		if d.State != sim.StateAllocated {
			t.Errorf("%s: device %d state = %q, want %q", b.ID(), i, d.State, sim.StateAllocated)
		}
	}
}

// AssertAddressesInRange fails the test if any device holds an address outside [1, 255].
func AssertAddressesInRange(t *testing.T, b *sim.Bus) {
	t.Helper()
	for i, d := range b.Devices() {
		if d.Address < sim.MinAddress || d.Address > sim.MaxAddress {
			t.Errorf("%s: device %d address %d out of range", b.ID(), i, d.Address)
		}
	}
}

// Snapshot copies the devices' values so later mutation can be detected.
func Snapshot(b *sim.Bus) []sim.Device {
	out := make([]sim.Device, 0, b.Len())
	for _, d := range b.Devices() {
		out = append(out, *d)
	}
	return out
}
