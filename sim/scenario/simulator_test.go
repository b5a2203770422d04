package scenario

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacdac-sim/jdbus-sim/sim"
	"github.com/jacdac-sim/jdbus-sim/sim/internal/testutil"
)

func mustRun(t *testing.T, cfg Config) (*Simulator, *Report) {
	t.Helper()
	s, err := NewSimulator(cfg)
	require.NoError(t, err)
	report, err := s.Run()
	require.NoError(t, err)
	return s, report
}

func TestSimulator_ReferenceRun_MergesAndResolves(t *testing.T) {
	// GIVEN the reference scenario: two buses of 120 devices, merged
	cfg := DefaultConfig()

	// WHEN run
	s, report := mustRun(t, cfg)

	// THEN both independent buses were resolved and reported
	require.Len(t, report.Buses, 2)
	for i, b := range report.Buses {
		assert.Equal(t, 120, b.Devices, "bus %d devices", i)
		assert.Equal(t, 120, b.Allocated, "bus %d allocated", i)
		assert.Positive(t, b.Rounds)
	}
	assert.Equal(t, "bus_1", report.Buses[0].ID)
	assert.Equal(t, "bus_2", report.Buses[1].ID)

	// AND the merged bus holds all 240 devices, unique and allocated
	require.NotNil(t, report.Merge)
	assert.Empty(t, report.MergeRejected)
	assert.Equal(t, string(MergedBusID), report.Merge.ID)
	assert.Equal(t, 240, report.Merge.Devices)
	assert.Equal(t, 240, report.Merge.Allocated)
	merged := s.MergedBus()
	require.NotNil(t, merged)
	testutil.AssertUniqueAddresses(t, merged)
	testutil.AssertAllAllocated(t, merged)
	testutil.AssertAddressesInRange(t, merged)
	for _, b := range s.Buses() {
		assert.True(t, b.Consumed())
	}

	_, err := uuid.Parse(report.RunID)
	assert.NoError(t, err)
}

func TestSimulator_OversizedMerge_RejectedWithoutMutation(t *testing.T) {
	// GIVEN two buses of 130 devices (260 total)
	cfg := DefaultConfig()
	cfg.DevicesPerBus = 130

	// WHEN run
	s, report := mustRun(t, cfg)

	// THEN the merge is rejected and reported, not fatal
	assert.Nil(t, report.Merge)
	assert.Contains(t, report.MergeRejected, "260")
	assert.Nil(t, s.MergedBus())

	// AND the independent buses are still intact and resolved
	for _, b := range s.Buses() {
		assert.False(t, b.Consumed())
		assert.Equal(t, 130, b.Len())
		testutil.AssertUniqueAddresses(t, b)
		testutil.AssertAllAllocated(t, b)
	}
}

func TestSimulator_NoMerge_SkipsMergeStep(t *testing.T) {
	cfg := Config{BusCount: 3, DevicesPerBus: 20, Seed: 9}

	s, report := mustRun(t, cfg)

	assert.Len(t, report.Buses, 3)
	assert.Nil(t, report.Merge)
	assert.Empty(t, report.MergeRejected)
	for _, b := range s.Buses() {
		testutil.AssertUniqueAddresses(t, b)
		testutil.AssertAllAllocated(t, b)
	}
}

func TestSimulator_SameSeed_IdenticalReports(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceLevel = "collisions"

	s1, r1 := mustRun(t, cfg)
	s2, r2 := mustRun(t, cfg)

	// Run IDs are unique per run; everything else is determined by the seed.
	assert.NotEqual(t, r1.RunID, r2.RunID)
	r1.RunID, r2.RunID = "", ""
	assert.Equal(t, r1, r2)
	assert.Equal(t, testutil.Snapshot(s1.MergedBus()), testutil.Snapshot(s2.MergedBus()))
	assert.Equal(t, s1.Trace().Collisions, s2.Trace().Collisions)
}

func TestSimulator_DifferentSeeds_DifferentAddresses(t *testing.T) {
	cfg := Config{BusCount: 1, DevicesPerBus: 50, Seed: 1}
	s1, _ := mustRun(t, cfg)
	cfg.Seed = 2
	s2, _ := mustRun(t, cfg)

	assert.NotEqual(t, testutil.Snapshot(s1.Buses()[0]), testutil.Snapshot(s2.Buses()[0]))
}

func TestSimulator_DeviceSerials_SetAndDistinct(t *testing.T) {
	s, _ := mustRun(t, Config{BusCount: 2, DevicesPerBus: 30, Seed: 3})

	seen := map[uuid.UUID]bool{}
	for _, b := range s.Buses() {
		for _, d := range b.Devices() {
			assert.NotEqual(t, uuid.Nil, d.Serial)
			assert.False(t, seen[d.Serial], "duplicate serial %s", d.Serial)
			seen[d.Serial] = true
		}
	}
	assert.Len(t, seen, 60)
}

func TestSimulator_CollisionTrace_VictimSerialsBelongToDevices(t *testing.T) {
	cfg := Config{BusCount: 2, DevicesPerBus: 60, Seed: 11, TraceLevel: "collisions"}
	s, _ := mustRun(t, cfg)

	serials := map[string]bool{}
	for _, b := range s.Buses() {
		for _, d := range b.Devices() {
			serials[d.Serial.String()] = true
		}
	}
	require.NotEmpty(t, s.Trace().Collisions)
	for _, c := range s.Trace().Collisions {
		assert.True(t, serials[c.VictimSerial], "collision on %s names unknown serial %q", c.Bus, c.VictimSerial)
	}
}

func TestSimulator_Trace_MovesMatchCollisions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceLevel = "collisions"

	s, report := mustRun(t, cfg)

	require.NotNil(t, report.Trace)
	require.NotNil(t, s.Trace())
	assert.Equal(t, report.TotalMoves(), report.Trace.TotalCollisions)
	assert.Equal(t, len(s.Trace().Collisions), report.Trace.TotalCollisions)
	for _, b := range report.Buses {
		assert.Equal(t, b.Moves, report.Trace.BusCollisions[b.ID], "bus %s", b.ID)
	}
	assert.Equal(t, report.Merge.Moves, report.Trace.BusCollisions[string(MergedBusID)])
}

func TestSimulator_TraceDisabled_NoSummary(t *testing.T) {
	_, report := mustRun(t, Config{BusCount: 1, DevicesPerBus: 5, Seed: 1})
	assert.Nil(t, report.Trace)
}

func TestSimulator_RoundCap_ReturnsNotConverged(t *testing.T) {
	// GIVEN a cap too small for any uninitialized device to commit
	cfg := Config{BusCount: 1, DevicesPerBus: 100, Seed: 4, MaxRounds: 1}

	s, err := NewSimulator(cfg)
	require.NoError(t, err)

	// WHEN run
	report, err := s.Run()

	// THEN the run fails with ErrNotConverged
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, sim.ErrNotConverged), "got %v", err)
}

func TestNewSimulator_InvalidConfig_ReturnsError(t *testing.T) {
	_, err := NewSimulator(Config{BusCount: 0, DevicesPerBus: 10})
	var cfgErr *sim.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSimulator_RunTwice_Panics(t *testing.T) {
	s, _ := mustRun(t, Config{BusCount: 1, DevicesPerBus: 2, Seed: 1})
	assert.Panics(t, func() { _, _ = s.Run() })
}

func TestSimulator_ReportBeforeRun_Panics(t *testing.T) {
	s, err := NewSimulator(Config{BusCount: 1, DevicesPerBus: 2, Seed: 1})
	require.NoError(t, err)
	assert.Panics(t, func() { s.Report() })
}
