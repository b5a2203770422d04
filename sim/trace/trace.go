package trace

// TraceLevel controls the verbosity of allocation tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelRounds captures one record per bus per round.
	TraceLevelRounds TraceLevel = "rounds"
	// TraceLevelCollisions captures round records plus every resolved collision.
	TraceLevelCollisions TraceLevel = "collisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:       true,
	TraceLevelRounds:     true,
	TraceLevelCollisions: true,
	"":                   true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects allocation records during a run.
type SimulationTrace struct {
	Config     TraceConfig
	Rounds     []RoundRecord
	Collisions []CollisionRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		Rounds:     make([]RoundRecord, 0),
		Collisions: make([]CollisionRecord, 0),
	}
}

// RecordsRounds reports whether round records should be collected.
// Safe on a nil trace.
func (st *SimulationTrace) RecordsRounds() bool {
	if st == nil {
		return false
	}
	return st.Config.Level == TraceLevelRounds || st.Config.Level == TraceLevelCollisions
}

// RecordsCollisions reports whether collision records should be collected.
// Safe on a nil trace.
func (st *SimulationTrace) RecordsCollisions() bool {
	return st != nil && st.Config.Level == TraceLevelCollisions
}

// RecordRound appends a round record.
func (st *SimulationTrace) RecordRound(record RoundRecord) {
	st.Rounds = append(st.Rounds, record)
}

// RecordCollision appends a collision record.
func (st *SimulationTrace) RecordCollision(record CollisionRecord) {
	st.Collisions = append(st.Collisions, record)
}
