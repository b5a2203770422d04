package scenario

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jacdac-sim/jdbus-sim/sim"
	"github.com/jacdac-sim/jdbus-sim/sim/trace"
)

// MergedBusID is the identifier of the bus built by the merge step.
const MergedBusID sim.BusID = "bus_merged"

// Simulator orchestrates one run: N independent buses resolved in lockstep
// by a shared protocol, then optionally merged and resolved again.
// All randomness comes from one PartitionedRNG keyed by Config.Seed.
type Simulator struct {
	config Config
	rng    *sim.PartitionedRNG
	buses  []*sim.Bus
	merged *sim.Bus
	trace  *trace.SimulationTrace
	hasRun bool
	report *Report
}

// NewSimulator creates a Simulator for a validated copy of cfg.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		config: cfg,
		rng:    sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)),
	}
	if level := trace.TraceLevel(cfg.TraceLevel); level != "" && level != trace.TraceLevelNone {
		s.trace = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
	}
	return s, nil
}

// Run populates the buses, resolves them, then performs the merge step.
// An oversized merge is not an error: it is recorded in Report.MergeRejected
// and no device is touched. Returns an error if the protocol hits its round cap.
// Panics if called more than once.
func (s *Simulator) Run() (*Report, error) {
	if s.hasRun {
		panic("Simulator.Run() called more than once")
	}
	s.hasRun = true

	report := &Report{
		RunID: uuid.New().String(),
		Seed:  s.config.Seed,
	}

	// 1. Create and populate buses.
	s.populate()

	// 2. Resolve all independent buses in one lockstep protocol run.
	logrus.Info("Allocating/resolving addresses")
	protocol := sim.NewProtocol(s.rng.ForSubsystem(sim.SubsystemProtocol), sim.ProtocolConfig{
		MaxRounds: s.config.MaxRounds,
		Trace:     s.trace,
	})
	out, err := protocol.Resolve(s.buses)
	if err != nil {
		return nil, fmt.Errorf("resolving %d buses: %w", len(s.buses), err)
	}
	for _, b := range s.buses {
		report.Buses = append(report.Buses, newBusReport(b, out.Rounds))
	}

	// 3. Merge step.
	if s.config.Merge {
		if err := s.merge(protocol, report); err != nil {
			return nil, err
		}
	}

	if s.trace != nil {
		report.Trace = trace.Summarize(s.trace)
	}
	s.report = report
	return report, nil
}

func (s *Simulator) populate() {
	devRNG := s.rng.ForSubsystem(sim.SubsystemDevices)
	serialRNG := s.rng.ForSubsystem(sim.SubsystemSerials)
	s.buses = make([]*sim.Bus, s.config.BusCount)
	for i := range s.buses {
		b := sim.NewBus(sim.BusID(fmt.Sprintf("bus_%d", i+1)))
		for j := 0; j < s.config.DevicesPerBus; j++ {
			d := b.AddDevice(devRNG)
			serial, err := uuid.NewRandomFromReader(serialRNG)
			if err != nil {
				// math/rand readers never fail.
				panic(fmt.Sprintf("Simulator: drawing device serial: %v", err))
			}
			d.Serial = serial
		}
		logrus.Debugf("%s: populated %d devices, %d pre-allocated", b.ID(), b.Len(), len(b.AllocatedAddresses()))
		s.buses[i] = b
	}
}

func (s *Simulator) merge(protocol *sim.Protocol, report *Report) error {
	if err := sim.CheckMergeCapacity(s.buses...); err != nil {
		if errors.Is(err, sim.ErrMergeCapacity) {
			logrus.Warnf("cannot merge buses: %v", err)
			report.MergeRejected = err.Error()
			return nil
		}
		return fmt.Errorf("merging buses: %w", err)
	}

	logrus.Info("merging buses")
	merged, err := sim.MergeBuses(MergedBusID, s.buses...)
	if err != nil {
		return fmt.Errorf("merging buses: %w", err)
	}
	s.merged = merged
	out, err := protocol.Resolve([]*sim.Bus{merged})
	if err != nil {
		return fmt.Errorf("resolving merged bus: %w", err)
	}
	br := newBusReport(merged, out.Rounds)
	report.Merge = &br
	return nil
}

// Buses returns the independent buses. After a merge they are consumed and empty.
func (s *Simulator) Buses() []*sim.Bus {
	return s.buses
}

// MergedBus returns the merged bus, or nil if no merge happened.
func (s *Simulator) MergedBus() *sim.Bus {
	return s.merged
}

// Trace returns the collected trace, or nil when tracing is disabled.
func (s *Simulator) Trace() *trace.SimulationTrace {
	return s.trace
}

// Report returns the run report.
// Panics if called before Run() has completed.
func (s *Simulator) Report() *Report {
	if s.report == nil {
		panic("Simulator.Report() called before Run() completed")
	}
	return s.report
}
