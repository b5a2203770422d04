package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	BusRounds            int            `json:"bus_rounds"` // one per bus per round
	TotalCollisions      int            `json:"total_collisions"`
	MaxRoundCollisions   int            `json:"max_round_collisions"`   // most collisions resolved on one bus in one round
	ForcedAllocatedMoves int            `json:"forced_allocated_moves"` // collisions that reinitialized an allocated device
	BusCollisions        map[string]int `json:"bus_collisions"`         // bus ID → collisions resolved
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		BusCollisions: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.BusRounds = len(st.Rounds)
	for _, r := range st.Rounds {
		summary.TotalCollisions += r.Collisions
		summary.BusCollisions[r.Bus] += r.Collisions
		if r.Collisions > summary.MaxRoundCollisions {
			summary.MaxRoundCollisions = r.Collisions
		}
	}

	for _, c := range st.Collisions {
		if c.VictimWasAllocated {
			summary.ForcedAllocatedMoves++
		}
	}

	return summary
}
