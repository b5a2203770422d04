// Package trace provides decision-trace recording for address allocation runs.
// This package has no dependencies on sim/ or sim/scenario/; it stores pure data types.
package trace

// RoundRecord captures the state of one bus at the end of one protocol round.
type RoundRecord struct {
	Round      int
	Bus        string
	Devices    int
	Proposing  int // devices still in proposing after collision resolution
	Collisions int // collisions resolved on this bus during the round
	Moves      int // bus move count after the round
}

// CollisionRecord captures a single collision and the device chosen to reinitialize.
type CollisionRecord struct {
	Round              int
	Bus                string
	Address            uint8  // address both devices held when the collision was seen
	First              int    // index of the first compared device
	Second             int    // index of the second compared device
	Victim             int    // index of the reinitialized device (First or Second)
	VictimWasAllocated bool   // true when a committed device was forced back to proposing
	NewAddress         uint8  // victim's address after reinit
	VictimSerial       string // victim's serial; empty when the device has none
}
