package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jacdac-sim/jdbus-sim/sim"
	"github.com/jacdac-sim/jdbus-sim/sim/trace"
)

// BusReport is the outcome of resolving one bus.
type BusReport struct {
	ID        string `json:"id"`
	Devices   int    `json:"devices"`
	Moves     int    `json:"moves"`
	Rounds    int    `json:"rounds"` // passes of the protocol run that resolved this bus
	Allocated int    `json:"allocated"`
}

// Report is the outcome of a Simulator run.
type Report struct {
	RunID         string              `json:"run_id"`
	Seed          int64               `json:"seed"`
	Buses         []BusReport         `json:"buses"`
	Merge         *BusReport          `json:"merge,omitempty"`
	MergeRejected string              `json:"merge_rejected,omitempty"`
	Trace         *trace.TraceSummary `json:"trace,omitempty"`
}

func newBusReport(b *sim.Bus, rounds int) BusReport {
	allocated := 0
	for _, d := range b.Devices() {
		if d.State == sim.StateAllocated {
			allocated++
		}
	}
	return BusReport{
		ID:        string(b.ID()),
		Devices:   b.Len(),
		Moves:     b.MoveCount(),
		Rounds:    rounds,
		Allocated: allocated,
	}
}

// TotalMoves sums the moves of the independent buses and the merged bus.
func (r *Report) TotalMoves() int {
	total := 0
	for _, b := range r.Buses {
		total += b.Moves
	}
	if r.Merge != nil {
		total += r.Merge.Moves
	}
	return total
}

// Print writes a human-readable summary to w.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Allocation Report ===")
	fmt.Fprintf(w, "Run ID               : %s\n", r.RunID)
	fmt.Fprintf(w, "Seed                 : %d\n", r.Seed)
	for i, b := range r.Buses {
		fmt.Fprintf(w, "Bus %d allocation of addresses took %d moves (%d devices, %d rounds)\n",
			i+1, b.Moves, b.Devices, b.Rounds)
	}
	switch {
	case r.Merge != nil:
		fmt.Fprintf(w, "Merging of buses took %d moves (%d devices, %d rounds)\n",
			r.Merge.Moves, r.Merge.Devices, r.Merge.Rounds)
	case r.MergeRejected != "":
		fmt.Fprintf(w, "cannot merge buses: %s\n", r.MergeRejected)
	}
	if r.Trace != nil {
		fmt.Fprintf(w, "Collisions           : %d\n", r.Trace.TotalCollisions)
		fmt.Fprintf(w, "Max per round        : %d\n", r.Trace.MaxRoundCollisions)
		fmt.Fprintf(w, "Allocated reinits    : %d\n", r.Trace.ForcedAllocatedMoves)
	}
}

// SaveJSON writes the report as indented JSON to path.
func (r *Report) SaveJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	logrus.Infof("Report written to %s", path)
	return nil
}
