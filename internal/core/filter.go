// Package core contains the business logic for the courtwatch daemon:
// configuration loading, tennis workout filtering, and the watch handler
// that drives the analyze-and-deliver pipeline.
package core

import (
	"sort"
	"strings"

	"github.com/dbin-w/courtwatch/pkg/models"
)

const (
	// TennisMarker must appear in a workout's name for it to qualify.
	TennisMarker = "网球"

	// MinDurationSeconds is the minimum length of a valid tennis session.
	// Shorter records are treated as accidental starts.
	MinDurationSeconds = 180
)

// FilterTennisWorkouts extracts the valid tennis sessions from a parsed
// Health Auto Export document. A record qualifies when its name contains
// TennisMarker and its duration exceeds MinDurationSeconds. The result is
// sorted ascending by start time (missing start sorts first); records with
// equal start times keep their input order.
//
// The function is pure: it performs no I/O and never mutates the document.
func FilterTennisWorkouts(doc map[string]any) []models.WorkoutRecord {
	var tennis []models.WorkoutRecord
	for _, entry := range workoutEntries(doc) {
		w := models.WorkoutFromMap(entry)
		if !strings.Contains(w.Name, TennisMarker) {
			continue
		}
		if w.Duration <= MinDurationSeconds {
			continue
		}
		tennis = append(tennis, w)
	}

	sort.SliceStable(tennis, func(i, j int) bool {
		return tennis[i].Start < tennis[j].Start
	})
	return tennis
}

// workoutEntries digs out the data.workouts list. Any missing level or
// unexpected shape yields an empty list, which callers treat as nothing to do.
func workoutEntries(doc map[string]any) []map[string]any {
	data, ok := doc["data"].(map[string]any)
	if !ok {
		return nil
	}
	list, ok := data["workouts"].([]any)
	if !ok {
		return nil
	}
	entries := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			entries = append(entries, m)
		}
	}
	return entries
}
