package sim

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jacdac-sim/jdbus-sim/sim/trace"
)

// ProtocolConfig groups the optional knobs of the allocation protocol.
type ProtocolConfig struct {
	MaxRounds int                    // 0 = run until convergence (no cap)
	Trace     *trace.SimulationTrace // nil = no tracing
}

// Protocol drives buses through synchronous allocation rounds until every
// address on every bus is unique and no device is still proposing.
//
// Thread-safety: NOT thread-safe. A Protocol and the buses it resolves must
// only be touched from a single goroutine.
type Protocol struct {
	rng       Rand
	maxRounds int
	trace     *trace.SimulationTrace
}

// Outcome summarizes one Resolve call.
type Outcome struct {
	Rounds     int // passes executed, including the final quiet pass
	Collisions int // collisions resolved across all buses
}

// NewProtocol creates a Protocol drawing coin flips and reinit addresses from rng.
// Panics if rng is nil or MaxRounds is negative.
func NewProtocol(rng Rand, cfg ProtocolConfig) *Protocol {
	if rng == nil {
		panic("NewProtocol: rng must not be nil")
	}
	if cfg.MaxRounds < 0 {
		panic(fmt.Sprintf("NewProtocol: MaxRounds must be >= 0, got %d", cfg.MaxRounds))
	}
	return &Protocol{rng: rng, maxRounds: cfg.MaxRounds, trace: cfg.Trace}
}

// Resolve runs rounds across all buses in lockstep until one pass sees zero
// collisions and zero proposing devices. Bus move counters and device state
// are mutated in place.
//
// Returns a *ConfigError before touching any device if buses is empty or
// contains a nil, duplicate or consumed bus. With a round cap, returns an
// error wrapping ErrNotConverged once the cap is reached.
func (p *Protocol) Resolve(buses []*Bus) (Outcome, error) {
	if err := validateBuses(buses); err != nil {
		return Outcome{}, err
	}

	var out Outcome
	for {
		out.Rounds++
		done := true
		for _, b := range buses {
			collisions, settled := p.round(b, out.Rounds)
			out.Collisions += collisions
			if !settled {
				done = false
			}
		}
		logrus.Debugf("allocation round %d: %d collisions so far", out.Rounds, out.Collisions)
		if done {
			break
		}
		if p.maxRounds > 0 && out.Rounds >= p.maxRounds {
			return out, fmt.Errorf("%w after %d rounds (%d collisions)", ErrNotConverged, out.Rounds, out.Collisions)
		}
	}

	logrus.Infof("address allocation converged on %d bus(es) after %d rounds, %d collisions",
		len(buses), out.Rounds, out.Collisions)
	return out, nil
}

// round applies one snapshot / advance / collision pass to a single bus.
// It returns the number of collisions resolved and whether the bus is settled.
func (p *Protocol) round(b *Bus, roundNum int) (int, bool) {
	// 1. Snapshot committed addresses before any mutation this round.
	known := b.AllocatedAddresses()

	// 2. Advance device states.
	for _, d := range b.devices {
		d.advance()
	}

	// 3. Detect and resolve collisions over ordered index pairs.
	settled := true
	collisions := 0
	proposing := 0
	for i, d1 := range b.devices {
		for j, d2 := range b.devices {
			if i == j || d1.Address != d2.Address {
				continue
			}
			settled = false
			addr := d1.Address

			victim, vd := j, d2
			if p.rng.Intn(2) == 1 && d1.State != StateAllocated {
				victim, vd = i, d1
			}
			wasAllocated := vd.State == StateAllocated
			vd.Reinit(p.rng, known)

			b.moveCount++
			collisions++

			if p.trace.RecordsCollisions() {
				p.trace.RecordCollision(trace.CollisionRecord{
					Round:              roundNum,
					Bus:                string(b.id),
					Address:            uint8(addr),
					First:              i,
					Second:             j,
					Victim:             victim,
					VictimWasAllocated: wasAllocated,
					NewAddress:         uint8(vd.Address),
					VictimSerial:       serialString(vd),
				})
			}
		}
		if d1.State == StateProposing {
			settled = false
			proposing++
		}
	}

	if p.trace.RecordsRounds() {
		p.trace.RecordRound(trace.RoundRecord{
			Round:      roundNum,
			Bus:        string(b.id),
			Devices:    len(b.devices),
			Proposing:  proposing,
			Collisions: collisions,
			Moves:      b.moveCount,
		})
	}
	return collisions, settled
}

func serialString(d *Device) string {
	if d.Serial == uuid.Nil {
		return ""
	}
	return d.Serial.String()
}

func validateBuses(buses []*Bus) error {
	if len(buses) == 0 {
		return &ConfigError{Field: "buses", Reason: "at least one bus is required"}
	}
	seen := make(map[*Bus]bool, len(buses))
	for i, b := range buses {
		if b == nil {
			return &ConfigError{Field: "buses", Reason: fmt.Sprintf("bus %d is nil", i)}
		}
		if seen[b] {
			return &ConfigError{Field: "buses", Reason: fmt.Sprintf("bus %s listed more than once", b.id)}
		}
		if b.consumed {
			return &ConfigError{Field: "buses", Reason: fmt.Sprintf("bus %s", b.id), Err: ErrBusConsumed}
		}
		seen[b] = true
	}
	return nil
}
