package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestReportCache_WriteAndReadLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context", "latest_match.json")
	cache := NewReportCache(path).(*fileReportCache)
	cache.now = func() time.Time {
		return time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)
	}

	raw := map[string]any{"id": "w1", "name": "网球单打", "duration": 1200.0}
	if err := cache.WriteLatest("w1", raw, "战术分析报告"); err != nil {
		t.Fatalf("writing report: %v", err)
	}

	latest, err := cache.ReadLatest()
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}

	if latest.Timestamp != "2026-08-24 09:30:00" {
		t.Errorf("Timestamp = %q, want 2026-08-24 09:30:00", latest.Timestamp)
	}
	if latest.WorkoutID != "w1" {
		t.Errorf("WorkoutID = %q, want w1", latest.WorkoutID)
	}
	if latest.AIReport != "战术分析报告" {
		t.Errorf("AIReport = %q, want the report text", latest.AIReport)
	}
	if latest.RawWorkout["name"] != "网球单打" {
		t.Errorf("RawWorkout lost the original entry: %v", latest.RawWorkout)
	}
}

func TestReportCache_WriteOverwritesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest_match.json")
	cache := NewReportCache(path)

	if err := cache.WriteLatest("w1", nil, "first"); err != nil {
		t.Fatalf("writing first report: %v", err)
	}
	if err := cache.WriteLatest("w2", nil, "second"); err != nil {
		t.Fatalf("writing second report: %v", err)
	}

	latest, err := cache.ReadLatest()
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if latest.WorkoutID != "w2" || latest.AIReport != "second" {
		t.Errorf("expected only the second report, got %+v", latest)
	}
}

func TestReportCache_ReadLatestMissingFile(t *testing.T) {
	cache := NewReportCache(filepath.Join(t.TempDir(), "latest_match.json"))

	if _, err := cache.ReadLatest(); err == nil {
		t.Fatal("expected an error when no report has been cached")
	}
}

func TestReportCache_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "latest_match.json")
	cache := NewReportCache(path)

	if err := cache.WriteLatest("w1", nil, "report"); err != nil {
		t.Fatalf("writing into nested path: %v", err)
	}
	if _, err := cache.ReadLatest(); err != nil {
		t.Fatalf("reading back: %v", err)
	}
}
