package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelCollisions})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.BusRounds != 0 {
		t.Errorf("expected 0 bus rounds, got %d", summary.BusRounds)
	}
	if summary.TotalCollisions != 0 || summary.MaxRoundCollisions != 0 {
		t.Error("expected 0 collisions")
	}
	if summary.ForcedAllocatedMoves != 0 {
		t.Errorf("expected 0 forced allocated moves, got %d", summary.ForcedAllocatedMoves)
	}
	if len(summary.BusCollisions) != 0 {
		t.Error("expected empty bus collision map")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with two buses over two rounds
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelCollisions})
	st.RecordRound(RoundRecord{Round: 1, Bus: "bus_1", Collisions: 3})
	st.RecordRound(RoundRecord{Round: 1, Bus: "bus_2", Collisions: 1})
	st.RecordRound(RoundRecord{Round: 2, Bus: "bus_1", Collisions: 0})
	st.RecordRound(RoundRecord{Round: 2, Bus: "bus_2", Collisions: 2})
	st.RecordCollision(CollisionRecord{Bus: "bus_1", VictimWasAllocated: true})
	st.RecordCollision(CollisionRecord{Bus: "bus_1"})
	st.RecordCollision(CollisionRecord{Bus: "bus_2", VictimWasAllocated: true})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.BusRounds != 4 {
		t.Errorf("expected 4 bus rounds, got %d", summary.BusRounds)
	}
	if summary.TotalCollisions != 6 {
		t.Errorf("expected 6 collisions, got %d", summary.TotalCollisions)
	}
	if summary.MaxRoundCollisions != 3 {
		t.Errorf("expected max 3 collisions in a round, got %d", summary.MaxRoundCollisions)
	}
	if summary.ForcedAllocatedMoves != 2 {
		t.Errorf("expected 2 forced allocated moves, got %d", summary.ForcedAllocatedMoves)
	}
	if summary.BusCollisions["bus_1"] != 3 || summary.BusCollisions["bus_2"] != 3 {
		t.Errorf("unexpected per-bus collisions: %v", summary.BusCollisions)
	}
}

func TestSummarize_NilTrace_ReturnsZeroSummary(t *testing.T) {
	// GIVEN a nil trace
	// WHEN summarized
	summary := Summarize(nil)

	// THEN a zero-valued summary with an initialized map is returned
	if summary == nil {
		t.Fatal("expected non-nil summary")
	}
	if summary.BusCollisions == nil {
		t.Error("expected initialized bus collision map")
	}
	if summary.TotalCollisions != 0 {
		t.Errorf("expected 0 collisions, got %d", summary.TotalCollisions)
	}
}
