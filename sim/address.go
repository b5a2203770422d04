package sim

import "fmt"

// Address is a device address on a bus. Valid addresses are in [MinAddress, MaxAddress].
type Address uint8

const (
	MinAddress Address = 1
	MaxAddress Address = 255

	// MaxBusDevices is the largest device count that can hold pairwise-distinct addresses.
	MaxBusDevices = 254

	addressSpan = int(MaxAddress-MinAddress) + 1
)

// AddressSet is the avoidance set consulted by collision-checked address draws.
type AddressSet map[Address]struct{}

// Contains reports whether addr is a member of the set. A nil set contains nothing.
func (s AddressSet) Contains(addr Address) bool {
	_, ok := s[addr]
	return ok
}

// AllocatedAddresses collects the addresses held by Allocated devices.
// Devices in other states are ignored even though they still hold an address.
func AllocatedAddresses(devices []*Device) AddressSet {
	set := make(AddressSet, len(devices))
	for _, d := range devices {
		if d.State == StateAllocated {
			set[d.Address] = struct{}{}
		}
	}
	return set
}

// DrawAddress draws an address uniformly from [MinAddress, MaxAddress].
func DrawAddress(rng Rand) Address {
	return MinAddress + Address(rng.Intn(addressSpan))
}

// DrawAddressAvoiding redraws uniformly until the address is not in avoid.
// Panics if avoid covers the whole address space, since the draw could never finish.
func DrawAddressAvoiding(rng Rand, avoid AddressSet) Address {
	if len(avoid) >= addressSpan {
		panic(fmt.Sprintf("DrawAddressAvoiding: avoidance set covers all %d addresses", addressSpan))
	}
	addr := DrawAddress(rng)
	for avoid.Contains(addr) {
		addr = DrawAddress(rng)
	}
	return addr
}
