package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dbin-w/courtwatch/internal/observability"
	"github.com/dbin-w/courtwatch/pkg/models"
)

// --- collaborator fakes ---

type fakeReader struct {
	doc      map[string]any
	fallback bool
	err      error
	calls    int
}

func (f *fakeReader) ReadDocument(path string) (map[string]any, bool, error) {
	f.calls++
	return f.doc, f.fallback, f.err
}

type fakeState struct {
	processed map[string]bool
	marked    []string
	markErr   error
}

func newFakeState(ids ...string) *fakeState {
	s := &fakeState{processed: make(map[string]bool)}
	for _, id := range ids {
		s.processed[id] = true
	}
	return s
}

func (f *fakeState) IsProcessed(workoutID string) bool { return f.processed[workoutID] }

func (f *fakeState) MarkProcessed(workoutID string) error {
	f.processed[workoutID] = true
	f.marked = append(f.marked, workoutID)
	return f.markErr
}

type cacheWrite struct {
	workoutID string
	report    string
}

type fakeCache struct {
	writes []cacheWrite
	err    error
}

func (f *fakeCache) WriteLatest(workoutID string, raw map[string]any, report string) error {
	f.writes = append(f.writes, cacheWrite{workoutID: workoutID, report: report})
	return f.err
}

type fakeAnalyzer struct {
	report string
}

func (f *fakeAnalyzer) AnalyzeMatch(w models.WorkoutRecord) string { return f.report }

type fakeDeliverer struct {
	delivered bool
	err       error
	messages  []string
	// perCall overrides delivered per invocation when non-empty.
	perCall []bool
}

func (f *fakeDeliverer) Deliver(ctx context.Context, message string) (bool, error) {
	f.messages = append(f.messages, message)
	if len(f.perCall) > 0 {
		result := f.perCall[0]
		f.perCall = f.perCall[1:]
		return result, f.err
	}
	return f.delivered, f.err
}

type loggedEvent struct {
	level     string
	eventType string
	message   string
}

type fakeEvents struct {
	events []loggedEvent
}

func (f *fakeEvents) LogEvent(level, eventType, message string, data map[string]any) {
	f.events = append(f.events, loggedEvent{level: level, eventType: eventType, message: message})
}

func (f *fakeEvents) countType(eventType string) int {
	n := 0
	for _, e := range f.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}

// --- test wiring ---

type handlerFixture struct {
	handler   *WatchHandler
	reader    *fakeReader
	state     *fakeState
	cache     *fakeCache
	analyzer  *fakeAnalyzer
	deliverer *fakeDeliverer
	events    *fakeEvents
}

func newFixture(doc map[string]any) *handlerFixture {
	fx := &handlerFixture{
		reader:    &fakeReader{doc: doc},
		state:     newFakeState(),
		cache:     &fakeCache{},
		analyzer:  &fakeAnalyzer{report: "战术分析报告"},
		deliverer: &fakeDeliverer{delivered: true},
		events:    &fakeEvents{},
	}
	fx.handler = NewWatchHandler(".json", 0, WatchHandlerDeps{
		Reader:    fx.reader,
		State:     fx.state,
		Cache:     fx.cache,
		Analyzer:  fx.analyzer,
		Deliverer: fx.deliverer,
		Events:    fx.events,
	})
	fx.handler.logf = func(format string, args ...any) {}
	return fx
}

func tennisDoc(ids ...string) map[string]any {
	list := make([]any, len(ids))
	for i, id := range ids {
		list[i] = any(map[string]any{
			"id":       id,
			"name":     "网球单打",
			"duration": 1200.0,
			"start":    "2026-08-24 09:00",
		})
	}
	return map[string]any{"data": map[string]any{"workouts": list}}
}

// --- event filtering ---

func TestShouldHandle(t *testing.T) {
	fx := newFixture(nil)
	fx.handler.now = func() time.Time {
		return time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"today's export file", "/sync/HealthAutoExport-2026-08-24.json", true},
		{"wrong extension", "/sync/HealthAutoExport-2026-08-24.json.tmp", false},
		{"yesterday's file", "/sync/HealthAutoExport-2026-08-23.json", false},
		{"no date in name", "/sync/export.json", false},
		{"date in directory not name", "/sync/2026-08-24/export.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fx.handler.ShouldHandle(tt.path); got != tt.want {
				t.Errorf("ShouldHandle(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestHandleEvent_IgnoresNonWriteEvents(t *testing.T) {
	fx := newFixture(tennisDoc("w1"))
	fx.handler.now = func() time.Time {
		return time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)
	}

	fx.handler.HandleEvent(context.Background(), ChangeEvent{
		Path:  "/sync/HealthAutoExport-2026-08-24.json",
		Write: false,
	})

	if fx.reader.calls != 0 {
		t.Errorf("expected no read for a non-write event, got %d", fx.reader.calls)
	}
}

func TestHandleEvent_DebounceCancelledByContext(t *testing.T) {
	fx := newFixture(tennisDoc("w1"))
	fx.handler.debounce = 5 * time.Second
	fx.handler.now = func() time.Time {
		return time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fx.handler.HandleEvent(ctx, ChangeEvent{
			Path:  "/sync/HealthAutoExport-2026-08-24.json",
			Write: true,
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("HandleEvent did not return promptly on a cancelled context")
	}
	if fx.reader.calls != 0 {
		t.Errorf("expected no read after cancellation, got %d", fx.reader.calls)
	}
}

// --- pipeline behavior ---

func TestProcessFile_DeliversAndCommitsNewWorkout(t *testing.T) {
	fx := newFixture(tennisDoc("w1"))

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if len(fx.deliverer.messages) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(fx.deliverer.messages))
	}
	if fx.deliverer.messages[0] != "战术分析报告" {
		t.Errorf("delivered message = %q, want the analyzer report", fx.deliverer.messages[0])
	}
	if len(fx.state.marked) != 1 || fx.state.marked[0] != "w1" {
		t.Errorf("expected w1 committed, got %v", fx.state.marked)
	}
	if len(fx.cache.writes) != 1 || fx.cache.writes[0].workoutID != "w1" {
		t.Errorf("expected cache write for w1, got %v", fx.cache.writes)
	}
}

func TestProcessFile_SkipsAlreadyProcessedWorkouts(t *testing.T) {
	fx := newFixture(tennisDoc("w1", "w2"))
	fx.state.processed["w1"] = true

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if len(fx.deliverer.messages) != 1 {
		t.Fatalf("expected 1 delivery for the new workout only, got %d", len(fx.deliverer.messages))
	}
	if len(fx.state.marked) != 1 || fx.state.marked[0] != "w2" {
		t.Errorf("expected only w2 committed, got %v", fx.state.marked)
	}
}

func TestProcessFile_NothingNewDoesNothing(t *testing.T) {
	fx := newFixture(tennisDoc("w1"))
	fx.state.processed["w1"] = true

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if len(fx.deliverer.messages) != 0 {
		t.Errorf("expected no deliveries, got %d", len(fx.deliverer.messages))
	}
	if len(fx.cache.writes) != 0 {
		t.Errorf("expected no cache writes, got %d", len(fx.cache.writes))
	}
}

func TestProcessFile_ReadFailureAbortsQuietly(t *testing.T) {
	fx := newFixture(nil)
	fx.reader.fallback = true
	fx.reader.err = errors.New("permission denied")

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if len(fx.deliverer.messages) != 0 {
		t.Errorf("expected no deliveries after a read failure")
	}
	if fx.events.countType(observability.EventReaderFailed) != 1 {
		t.Errorf("expected a reader.failed event, got %v", fx.events.events)
	}
}

func TestProcessFile_FallbackReadIsRecorded(t *testing.T) {
	fx := newFixture(tennisDoc("w1"))
	fx.reader.fallback = true

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if fx.events.countType(observability.EventReaderFallback) != 1 {
		t.Errorf("expected a reader.fallback event, got %v", fx.events.events)
	}
	if len(fx.state.marked) != 1 {
		t.Errorf("fallback read should still feed the pipeline, marked %v", fx.state.marked)
	}
}

func TestProcessRecord_SentinelReportStillCachedAndDelivered(t *testing.T) {
	fx := newFixture(tennisDoc("w1"))
	fx.analyzer.report = "**数据无效**"

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if len(fx.cache.writes) != 1 || fx.cache.writes[0].report != "**数据无效**" {
		t.Errorf("sentinel report should be cached, got %v", fx.cache.writes)
	}
	if len(fx.deliverer.messages) != 1 || fx.deliverer.messages[0] != "**数据无效**" {
		t.Errorf("sentinel report should be delivered, got %v", fx.deliverer.messages)
	}
	if len(fx.state.marked) != 1 {
		t.Errorf("successful sentinel delivery should commit the id, got %v", fx.state.marked)
	}
}

func TestProcessRecord_FailedDeliveryLeavesWorkoutEligible(t *testing.T) {
	fx := newFixture(tennisDoc("w1"))
	fx.deliverer.delivered = false

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if len(fx.state.marked) != 0 {
		t.Fatalf("failed delivery must not commit the id, got %v", fx.state.marked)
	}
	if fx.events.countType(observability.EventDeliveryFailed) != 1 {
		t.Errorf("expected a delivery.failed event, got %v", fx.events.events)
	}

	// The next event that re-surfaces the workout retries it.
	fx.deliverer.delivered = true
	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if len(fx.state.marked) != 1 || fx.state.marked[0] != "w1" {
		t.Errorf("expected w1 committed on retry, got %v", fx.state.marked)
	}
	if len(fx.deliverer.messages) != 2 {
		t.Errorf("expected 2 delivery attempts, got %d", len(fx.deliverer.messages))
	}
}

func TestProcessRecord_DeliveryErrorLeavesWorkoutEligible(t *testing.T) {
	fx := newFixture(tennisDoc("w1"))
	fx.deliverer.err = errors.New("CLI not found")

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if len(fx.state.marked) != 0 {
		t.Errorf("delivery error must not commit the id, got %v", fx.state.marked)
	}
	if fx.events.countType(observability.EventDeliveryFailed) != 1 {
		t.Errorf("expected a delivery.failed event, got %v", fx.events.events)
	}
}

func TestProcessRecord_CacheWriteFailureStillDelivers(t *testing.T) {
	fx := newFixture(tennisDoc("w1"))
	fx.cache.err = errors.New("disk full")

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if len(fx.deliverer.messages) != 1 {
		t.Errorf("cache failure must not block delivery, got %d deliveries", len(fx.deliverer.messages))
	}
	if len(fx.state.marked) != 1 {
		t.Errorf("expected the id committed despite cache failure, got %v", fx.state.marked)
	}
	if fx.events.countType(observability.EventCacheWriteError) != 1 {
		t.Errorf("expected a cache.write_failed event, got %v", fx.events.events)
	}
}

func TestProcessRecord_PersistFailureIsLoggedNotFatal(t *testing.T) {
	fx := newFixture(tennisDoc("w1", "w2"))
	fx.state.markErr = errors.New("read-only filesystem")

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	// Both records still flow through the pipeline.
	if len(fx.deliverer.messages) != 2 {
		t.Errorf("expected both workouts delivered, got %d", len(fx.deliverer.messages))
	}
	if fx.events.countType(observability.EventStatePersistError) != 2 {
		t.Errorf("expected 2 state.persist_failed events, got %v", fx.events.events)
	}
}

func TestProcessFile_OneFailureDoesNotAbortTheBatch(t *testing.T) {
	fx := newFixture(tennisDoc("w1", "w2", "w3"))
	fx.deliverer.perCall = []bool{true, false, true}

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if len(fx.deliverer.messages) != 3 {
		t.Fatalf("expected all 3 workouts attempted, got %d", len(fx.deliverer.messages))
	}
	if len(fx.state.marked) != 2 {
		t.Errorf("expected 2 commits (w1 and w3), got %v", fx.state.marked)
	}
}

func TestProcessRecord_NilEventLoggerIsTolerated(t *testing.T) {
	fx := newFixture(tennisDoc("w1"))
	fx.handler.events = nil

	fx.handler.ProcessFile(context.Background(), "/sync/export.json")

	if len(fx.state.marked) != 1 {
		t.Errorf("pipeline should run without an event log, marked %v", fx.state.marked)
	}
}

// --- consumer loop ---

func TestRun_ConsumesUntilChannelCloses(t *testing.T) {
	fx := newFixture(tennisDoc("w1"))
	fx.handler.now = func() time.Time {
		return time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)
	}

	events := make(chan ChangeEvent, 1)
	events <- ChangeEvent{Path: "/sync/HealthAutoExport-2026-08-24.json", Write: true}
	close(events)

	done := make(chan struct{})
	go func() {
		defer close(done)
		fx.handler.Run(context.Background(), events)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the channel closed")
	}
	if len(fx.state.marked) != 1 {
		t.Errorf("expected the queued event processed, marked %v", fx.state.marked)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	fx := newFixture(nil)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan ChangeEvent)

	done := make(chan struct{})
	go func() {
		defer close(done)
		fx.handler.Run(ctx, events)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
