package models

// LatestReport is the report cache artifact written after every analysis,
// regardless of delivery outcome. It is a fixed-location file that external
// consumers (skills, MCP clients) read for the most recent match.
type LatestReport struct {
	Timestamp  string         `json:"timestamp"`
	WorkoutID  string         `json:"workout_id"`
	RawWorkout map[string]any `json:"raw_workout"`
	AIReport   string         `json:"ai_report"`
}

// ProcessedState is the persisted dedup state: the ordered list of workout
// IDs that have been analyzed and successfully delivered. The list is capped;
// oldest entries are dropped first.
type ProcessedState struct {
	ProcessedWorkoutIDs []string `json:"processed_workout_ids"`
}
