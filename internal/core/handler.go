package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbin-w/courtwatch/internal/observability"
	"github.com/dbin-w/courtwatch/pkg/models"
)

// ChangeEvent is a file-change notification as seen by the handler.
type ChangeEvent struct {
	Path string
	// Write is true for content modifications; other notification kinds are
	// ignored.
	Write bool
}

// DocumentReader loads an export document from disk.
type DocumentReader interface {
	ReadDocument(path string) (doc map[string]any, usedFallback bool, err error)
}

// StateStore is the dedup state consulted and committed by the handler.
type StateStore interface {
	IsProcessed(workoutID string) bool
	MarkProcessed(workoutID string) error
}

// ReportCacheWriter persists the most recent analysis result.
type ReportCacheWriter interface {
	WriteLatest(workoutID string, raw map[string]any, report string) error
}

// MatchAnalyzer turns one workout into a report. It never fails: failure
// modes come back as sentinel report text.
type MatchAnalyzer interface {
	AnalyzeMatch(workout models.WorkoutRecord) string
}

// Deliverer pushes report text to the messaging channel. delivered is false
// on a non-zero exit or timeout; err means the CLI could not run at all.
type Deliverer interface {
	Deliver(ctx context.Context, message string) (delivered bool, err error)
}

// EventLogger records pipeline events. It may be nil-backed; implementations
// must tolerate failures silently so observability can never break the loop.
type EventLogger interface {
	LogEvent(level, eventType, message string, data map[string]any)
}

// WatchHandler reacts to file-change events: it filters them down to today's
// export file, debounces, re-reads the document, selects new tennis sessions,
// and drives one analyze-and-deliver attempt per new workout. Events are
// handled strictly sequentially; the handler is never called concurrently.
type WatchHandler struct {
	fileExtension string
	debounce      time.Duration

	reader    DocumentReader
	state     StateStore
	cache     ReportCacheWriter
	analyzer  MatchAnalyzer
	deliverer Deliverer
	events    EventLogger

	// now is the clock used for the today's-date file filter; overridable in
	// tests.
	now func() time.Time
	// logf writes human-readable progress lines, defaulting to stderr.
	logf func(format string, args ...any)
}

// WatchHandlerDeps bundles the collaborators for NewWatchHandler.
type WatchHandlerDeps struct {
	Reader    DocumentReader
	State     StateStore
	Cache     ReportCacheWriter
	Analyzer  MatchAnalyzer
	Deliverer Deliverer
	Events    EventLogger
}

// NewWatchHandler creates a WatchHandler for files with the given extension,
// waiting debounce between a notification and the read.
func NewWatchHandler(fileExtension string, debounce time.Duration, deps WatchHandlerDeps) *WatchHandler {
	h := &WatchHandler{
		fileExtension: fileExtension,
		debounce:      debounce,
		reader:        deps.Reader,
		state:         deps.State,
		cache:         deps.Cache,
		analyzer:      deps.Analyzer,
		deliverer:     deps.Deliverer,
		events:        deps.Events,
		now:           time.Now,
		logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}
	return h
}

// Run consumes change events until the channel closes or ctx is cancelled.
// The current event always finishes before shutdown completes.
func (h *WatchHandler) Run(ctx context.Context, events <-chan ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.HandleEvent(ctx, ev)
		}
	}
}

// ShouldHandle reports whether a change to path is interesting: right
// extension, and the file name contains today's date. The exporter rewrites
// one file per day; stale-day files are skipped so historical data is not
// reprocessed on every save.
func (h *WatchHandler) ShouldHandle(path string) bool {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, h.fileExtension) {
		return false
	}
	today := h.now().Format("2006-01-02")
	return strings.Contains(name, today)
}

// HandleEvent runs the full per-event state machine. The debounce wait is a
// context-aware delay so shutdown is not blocked by it.
func (h *WatchHandler) HandleEvent(ctx context.Context, ev ChangeEvent) {
	if !ev.Write || !h.ShouldHandle(ev.Path) {
		return
	}

	h.logf("检测到健康数据文件更新: %s", filepath.Base(ev.Path))

	// Let the sync mechanism finish writing before reading.
	select {
	case <-time.After(h.debounce):
	case <-ctx.Done():
		return
	}

	h.ProcessFile(ctx, ev.Path)
}

// ProcessFile reads the document, filters it to new tennis workouts, and
// runs the per-record pipeline for each. Failures for one record never abort
// the rest of the batch.
func (h *WatchHandler) ProcessFile(ctx context.Context, path string) {
	doc, usedFallback, err := h.reader.ReadDocument(path)
	if usedFallback {
		level, eventType := "WARN", observability.EventReaderFallback
		if err != nil {
			level, eventType = "ERROR", observability.EventReaderFailed
		}
		h.logEvent(level, eventType, filepath.Base(path), map[string]any{"path": path})
	}
	if err != nil {
		h.logf("文件读取失败: %v", err)
		return
	}

	allTennis := FilterTennisWorkouts(doc)

	var newWorkouts []models.WorkoutRecord
	for _, w := range allTennis {
		if !h.state.IsProcessed(w.ID) {
			newWorkouts = append(newWorkouts, w)
		}
	}
	if len(newWorkouts) == 0 {
		h.logf("未发现新的有效网球记录: %s", filepath.Base(path))
		return
	}

	for _, w := range newWorkouts {
		h.processRecord(ctx, w)
	}
}

// processRecord runs one analyze → cache → deliver → commit attempt. The id
// is committed only after a successful delivery; a failed delivery leaves it
// eligible for retry on the next event that re-surfaces it.
func (h *WatchHandler) processRecord(ctx context.Context, w models.WorkoutRecord) {
	h.logEvent("INFO", observability.EventWorkoutDetected, w.Name, map[string]any{
		"workout_id": w.ID,
		"start":      w.Start,
		"duration":   w.Duration,
	})

	report := h.analyzer.AnalyzeMatch(w)
	h.logEvent("INFO", observability.EventWorkoutAnalyzed, w.ID, map[string]any{"workout_id": w.ID})

	// The cache artifact is written whatever the report says, even a
	// sentinel, and whatever delivery does afterwards.
	if err := h.cache.WriteLatest(w.ID, w.Raw, report); err != nil {
		h.logf("缓存写入失败 (%s): %v", w.ID, err)
		h.logEvent("WARN", observability.EventCacheWriteError, w.ID, map[string]any{"workout_id": w.ID, "error": err.Error()})
	} else {
		h.logEvent("INFO", observability.EventReportCached, w.ID, map[string]any{"workout_id": w.ID})
	}

	delivered, err := h.deliverer.Deliver(ctx, report)
	if err != nil {
		h.logf("推送流程异常 (%s): %v", w.ID, err)
		h.logEvent("ERROR", observability.EventDeliveryFailed, w.ID, map[string]any{"workout_id": w.ID, "error": err.Error()})
		return
	}
	if !delivered {
		h.logf("推送失败: %s", w.ID)
		h.logEvent("ERROR", observability.EventDeliveryFailed, w.ID, map[string]any{"workout_id": w.ID})
		return
	}

	h.logf("推送成功: %s", w.ID)
	h.logEvent("INFO", observability.EventDeliverySucceeded, w.ID, map[string]any{"workout_id": w.ID})

	if err := h.state.MarkProcessed(w.ID); err != nil {
		// The in-memory set is updated even when the write fails, so this
		// process will not re-deliver; only a restart risks a duplicate.
		h.logf("状态持久化失败 (%s): %v", w.ID, err)
		h.logEvent("WARN", observability.EventStatePersistError, w.ID, map[string]any{"workout_id": w.ID, "error": err.Error()})
	}
}

func (h *WatchHandler) logEvent(level, eventType, message string, data map[string]any) {
	if h.events == nil {
		return
	}
	h.events.LogEvent(level, eventType, message, data)
}
