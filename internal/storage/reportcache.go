package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dbin-w/courtwatch/pkg/models"
)

// ReportCache stores the most recent analysis result at a fixed location for
// external consumers. It is a best-effort side artifact, not the system of
// record: callers log write failures and continue.
type ReportCache interface {
	// WriteLatest overwrites the cache artifact with the given report.
	WriteLatest(workoutID string, raw map[string]any, report string) error
	// ReadLatest returns the current artifact, or an error if none exists.
	ReadLatest() (*models.LatestReport, error)
}

type fileReportCache struct {
	path string
	now  func() time.Time
}

// NewReportCache creates a ReportCache writing to the given path. Parent
// directories are created on demand.
func NewReportCache(path string) ReportCache {
	return &fileReportCache{path: path, now: time.Now}
}

func (c *fileReportCache) WriteLatest(workoutID string, raw map[string]any, report string) error {
	doc := models.LatestReport{
		Timestamp:  c.now().Format("2006-01-02 15:04:05"),
		WorkoutID:  workoutID,
		RawWorkout: raw,
		AIReport:   report,
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating report cache directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling report cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing report cache: %w", err)
	}
	return nil
}

func (c *fileReportCache) ReadLatest() (*models.LatestReport, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("reading report cache: %w", err)
	}
	var doc models.LatestReport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing report cache: %w", err)
	}
	return &doc, nil
}
