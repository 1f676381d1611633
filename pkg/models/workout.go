package models

// WorkoutRecord is a single exercise session extracted from a Health Auto
// Export document. Only the fields needed for filtering and the analyzer's
// validity gate are lifted out; the full document entry is carried in Raw so
// downstream consumers see every measurement series unchanged.
type WorkoutRecord struct {
	ID           string
	Name         string
	Duration     float64 // seconds
	Start        string  // ISO-like, lexicographically sortable
	AvgHeartRate float64 // bpm, 0 when absent

	Raw map[string]any
}

// WorkoutFromMap builds a WorkoutRecord from one entry of the export's
// data.workouts list. Missing or mistyped fields fall back to zero values;
// the entry itself is never mutated.
func WorkoutFromMap(entry map[string]any) WorkoutRecord {
	w := WorkoutRecord{Raw: entry}
	if id, ok := entry["id"].(string); ok {
		w.ID = id
	}
	if name, ok := entry["name"].(string); ok {
		w.Name = name
	}
	w.Duration = numberField(entry, "duration")
	if start, ok := entry["start"].(string); ok {
		w.Start = start
	}
	w.AvgHeartRate = numberField(entry, "avgHeartRate")
	return w
}

// numberField reads a numeric field that JSON decoding may have produced as
// float64 or int.
func numberField(entry map[string]any, key string) float64 {
	switch v := entry[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
