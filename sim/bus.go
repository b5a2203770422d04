package sim

import "fmt"

// BusID identifies a bus in logs, traces and reports.
type BusID string

// Bus is an ordered set of devices sharing one address space.
// Devices are only ever added, never removed; a merge moves them to a new bus.
type Bus struct {
	id        BusID
	devices   []*Device
	moveCount int
	consumed  bool
}

// NewBus creates an empty bus.
func NewBus(id BusID) *Bus {
	return &Bus{id: id}
}

// ID returns the bus identifier.
func (b *Bus) ID() BusID {
	return b.id
}

// AddDevice constructs a device against the bus's current devices and appends it.
// A bus holds at most MaxBusDevices devices. Panics if the bus is full or was
// consumed by a merge.
func (b *Bus) AddDevice(rng Rand) *Device {
	if b.consumed {
		panic(fmt.Sprintf("Bus.AddDevice: bus %s was consumed by a merge", b.id))
	}
	if len(b.devices) >= MaxBusDevices {
		panic(fmt.Sprintf("Bus.AddDevice: bus %s already holds %d devices (max %d)", b.id, len(b.devices), MaxBusDevices))
	}
	d := NewDevice(rng, b.devices)
	b.devices = append(b.devices, d)
	return d
}

// Devices returns the bus's devices in insertion order.
// The slice is shared; callers must not append to it.
func (b *Bus) Devices() []*Device {
	return b.devices
}

// Len returns the number of devices on the bus.
func (b *Bus) Len() int {
	return len(b.devices)
}

// MoveCount returns the number of collisions resolved on this bus.
// It stays readable after the bus is consumed by a merge.
func (b *Bus) MoveCount() int {
	return b.moveCount
}

// Consumed reports whether the bus's devices were moved into a merged bus.
func (b *Bus) Consumed() bool {
	return b.consumed
}

// AllocatedAddresses returns the addresses currently committed on the bus.
func (b *Bus) AllocatedAddresses() AddressSet {
	return AllocatedAddresses(b.devices)
}

// CheckMergeCapacity verifies that the sources can be merged: at least one
// source, no nil, duplicate or consumed source, and a combined device count
// that fits the address space. Nothing is mutated.
func CheckMergeCapacity(sources ...*Bus) error {
	if len(sources) == 0 {
		return &ConfigError{Field: "merge sources", Reason: "at least one bus is required"}
	}
	seen := make(map[*Bus]bool, len(sources))
	total := 0
	for i, src := range sources {
		if src == nil {
			return &ConfigError{Field: "merge sources", Reason: fmt.Sprintf("source %d is nil", i)}
		}
		if seen[src] {
			return &ConfigError{Field: "merge sources", Reason: fmt.Sprintf("bus %s listed more than once", src.id)}
		}
		if src.consumed {
			return &ConfigError{Field: "merge sources", Reason: fmt.Sprintf("bus %s", src.id), Err: ErrBusConsumed}
		}
		seen[src] = true
		total += len(src.devices)
	}
	if total > MaxBusDevices {
		return &ConfigError{
			Field:  "merge sources",
			Reason: fmt.Sprintf("total device count %d is greater than the maximum supported device amount (%d)", total, MaxBusDevices),
			Err:    ErrMergeCapacity,
		}
	}
	return nil
}

// MergeBuses builds a new bus from the devices of sources, concatenated in
// source order. Devices keep their address and state. On success every
// source is consumed: it drops its devices and must not be resolved again.
// On error no bus is modified.
func MergeBuses(id BusID, sources ...*Bus) (*Bus, error) {
	if err := CheckMergeCapacity(sources...); err != nil {
		return nil, err
	}
	total := 0
	for _, src := range sources {
		total += len(src.devices)
	}
	merged := &Bus{id: id, devices: make([]*Device, 0, total)}
	for _, src := range sources {
		merged.devices = append(merged.devices, src.devices...)
		src.devices = nil
		src.consumed = true
	}
	return merged, nil
}
