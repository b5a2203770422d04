package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConverged is returned when a round cap is hit before the buses reach a fixed point.
	ErrNotConverged = errors.New("address allocation did not converge")

	// ErrMergeCapacity is wrapped by merge validation when the combined device count
	// cannot be given pairwise-distinct addresses.
	ErrMergeCapacity = errors.New("merged device count exceeds address space")

	// ErrBusConsumed is wrapped when a bus that was merged into another is used again.
	ErrBusConsumed = errors.New("bus was consumed by a merge")
)

// ConfigError reports invalid input detected before any device is mutated.
type ConfigError struct {
	Field  string
	Reason string
	Err    error // optional sentinel for errors.Is
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
