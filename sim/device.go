// Defines the Device struct that models a single addressable entity on a bus.
// Tracks the candidate address, the allocation state and how long a proposal has been stable.

package sim

import (
	"fmt"

	"github.com/google/uuid"
)

// DeviceState represents the allocation state of a device.
type DeviceState string

const (
	StateUninitialized DeviceState = "uninitialized"
	StateProposing     DeviceState = "proposing"
	StateAllocated     DeviceState = "allocated"
)

// ProposalRoundsToAllocate is the number of undisturbed rounds a proposing
// device needs before its address is committed.
const ProposalRoundsToAllocate = 3

type Device struct {
	Serial uuid.UUID // Identity tag for traces and String; zero when unset. Never used for comparisons.

	Address        Address     // Candidate or committed address, always in [MinAddress, MaxAddress]
	State          DeviceState // uninitialized, proposing, allocated
	ProposalRounds int         // Consecutive rounds survived in proposing without a reinit
}

// NewDevice creates a device against the devices already present on its bus.
//
// Half of all devices start pre-allocated: they know the bus's committed
// addresses and pick one that avoids them. The rest start uninitialized with
// an unchecked guess, which the protocol later promotes to a proposal.
func NewDevice(rng Rand, existing []*Device) *Device {
	d := &Device{Address: DrawAddress(rng)}
	if rng.Intn(2) == 0 {
		d.Address = DrawAddressAvoiding(rng, AllocatedAddresses(existing))
		d.State = StateAllocated
	} else {
		d.State = StateUninitialized
	}
	return d
}

// Reinit restarts the device's proposal. When known is non-nil the new
// address avoids every member of known; otherwise it is drawn unchecked.
func (d *Device) Reinit(rng Rand, known AddressSet) {
	d.ProposalRounds = 0
	if known != nil {
		d.Address = DrawAddressAvoiding(rng, known)
	} else {
		d.Address = DrawAddress(rng)
	}
	d.State = StateProposing
}

// advance applies the per-round state progression. Allocated devices are untouched.
func (d *Device) advance() {
	switch d.State {
	case StateUninitialized:
		d.ProposalRounds = 0
		d.State = StateProposing
	case StateProposing:
		d.ProposalRounds++
		if d.ProposalRounds == ProposalRoundsToAllocate {
			d.State = StateAllocated
		}
	}
}

// This method returns a human-readable string representation of a Device.
func (d Device) String() string {
	return fmt.Sprintf("Device %s: (Address: %d, State: %s, ProposalRounds: %d)", d.Serial, d.Address, d.State, d.ProposalRounds)
}
