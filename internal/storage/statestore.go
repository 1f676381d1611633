// Package storage provides the file-backed persistence layer for courtwatch:
// the processed-workout state tracker and the latest-report cache artifact.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbin-w/courtwatch/pkg/models"
)

// MaxProcessedIDs bounds the persisted dedup history. When the list grows
// past this, the oldest entries are dropped.
const MaxProcessedIDs = 200

// StateTracker deduplicates workouts across events and process restarts by
// persisting the IDs that have already been analyzed and delivered.
type StateTracker interface {
	// IsProcessed reports whether the given workout ID has been committed.
	// An empty ID is a valid non-matching key.
	IsProcessed(workoutID string) bool
	// MarkProcessed appends the ID (no-op if present), truncates the history
	// to MaxProcessedIDs keeping the most recent entries, and rewrites the
	// state file. A persistence error is returned so the caller can decide
	// to log and continue; the in-memory set is updated either way.
	MarkProcessed(workoutID string) error
	// ProcessedIDs returns a copy of the current history, oldest first.
	ProcessedIDs() []string
	// Load reads the state file. A missing or unreadable file yields an
	// empty set, never an error that would block startup.
	Load() error
}

type fileStateTracker struct {
	path         string
	processedIDs []string
}

// NewStateTracker creates a StateTracker backed by a flat JSON file at the
// given path. Call Load before first use.
func NewStateTracker(path string) StateTracker {
	return &fileStateTracker{path: path}
}

// Load reads the persisted ID list. Read or parse failures start the tracker
// from an empty set: losing the dedup history risks re-processing, which is
// preferable to refusing to start.
func (t *fileStateTracker) Load() error {
	t.processedIDs = nil

	data, err := os.ReadFile(t.path)
	if err != nil {
		return nil
	}
	var state models.ProcessedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil
	}
	t.processedIDs = state.ProcessedWorkoutIDs
	return nil
}

func (t *fileStateTracker) IsProcessed(workoutID string) bool {
	for _, id := range t.processedIDs {
		if id == workoutID {
			return true
		}
	}
	return false
}

func (t *fileStateTracker) MarkProcessed(workoutID string) error {
	if t.IsProcessed(workoutID) {
		return nil
	}
	t.processedIDs = append(t.processedIDs, workoutID)
	if len(t.processedIDs) > MaxProcessedIDs {
		t.processedIDs = t.processedIDs[len(t.processedIDs)-MaxProcessedIDs:]
	}
	return t.save()
}

func (t *fileStateTracker) ProcessedIDs() []string {
	ids := make([]string, len(t.processedIDs))
	copy(ids, t.processedIDs)
	return ids
}

// save rewrites the full state file. The file is rewritten wholesale on each
// mutation; there is no append path.
func (t *fileStateTracker) save() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := json.Marshal(models.ProcessedState{ProcessedWorkoutIDs: t.processedIDs})
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}
