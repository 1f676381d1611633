// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the courtwatch state and latest match report as MCP tools for AI
// assistants (skills that answer questions about recent matches).
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/dbin-w/courtwatch/internal/observability"
	"github.com/dbin-w/courtwatch/internal/storage"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps courtwatch services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	state       storage.StateTracker
	cache       storage.ReportCache
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server with the given service dependencies.
// metricsCalc and alertEngine may be nil if observability is disabled.
func NewServer(state storage.StateTracker, cache storage.ReportCache, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		state:       state,
		cache:       cache,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "courtwatch", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type getLatestReportInput struct{}

type latestReportOutput struct {
	Timestamp  string         `json:"timestamp"`
	WorkoutID  string         `json:"workout_id"`
	AIReport   string         `json:"ai_report"`
	RawWorkout map[string]any `json:"raw_workout,omitempty"`
}

type listProcessedInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of IDs to return, most recent last. Defaults to all."`
}

type listProcessedOutput struct {
	WorkoutIDs []string `json:"workout_ids"`
	Count      int      `json:"count"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	WorkoutsDetected    int    `json:"workouts_detected"`
	ReportsGenerated    int    `json:"reports_generated"`
	DeliveriesSucceeded int    `json:"deliveries_succeeded"`
	DeliveriesFailed    int    `json:"deliveries_failed"`
	FallbackReads       int    `json:"fallback_reads"`
	PersistFailures     int    `json:"persist_failures"`
	EventCount          int    `json:"event_count"`
	OldestEvent         string `json:"oldest_event,omitempty"`
	NewestEvent         string `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_latest_report",
		Description: "Get the most recent tennis match analysis: the AI report text, the workout ID, and the raw workout data it was generated from.",
	}, s.handleGetLatestReport)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_processed_workouts",
		Description: "List workout IDs that have already been analyzed and delivered, oldest first.",
	}, s.handleListProcessed)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated pipeline metrics from the event log: workouts detected, reports generated, delivery successes and failures.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (delivery failure streaks, stale export data, state persistence failures).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleGetLatestReport(_ context.Context, _ *gomcp.CallToolRequest, _ getLatestReportInput) (*gomcp.CallToolResult, latestReportOutput, error) {
	if s.cache == nil {
		return errorResult("report cache not available"), latestReportOutput{}, nil
	}

	latest, err := s.cache.ReadLatest()
	if err != nil {
		return errorResult("no report cached yet"), latestReportOutput{}, nil
	}

	out := latestReportOutput{
		Timestamp:  latest.Timestamp,
		WorkoutID:  latest.WorkoutID,
		AIReport:   latest.AIReport,
		RawWorkout: latest.RawWorkout,
	}
	return nil, out, nil
}

func (s *Server) handleListProcessed(_ context.Context, _ *gomcp.CallToolRequest, input listProcessedInput) (*gomcp.CallToolResult, listProcessedOutput, error) {
	if s.state == nil {
		return errorResult("state tracker not available"), listProcessedOutput{}, nil
	}

	ids := s.state.ProcessedIDs()
	if input.Limit > 0 && len(ids) > input.Limit {
		ids = ids[len(ids)-input.Limit:]
	}

	out := listProcessedOutput{
		WorkoutIDs: ids,
		Count:      len(ids),
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), metricsOutput{}, nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), metricsOutput{}, nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), metricsOutput{}, nil
	}

	out := metricsOutput{
		WorkoutsDetected:    metrics.WorkoutsDetected,
		ReportsGenerated:    metrics.ReportsGenerated,
		DeliveriesSucceeded: metrics.DeliveriesSucceeded,
		DeliveriesFailed:    metrics.DeliveriesFailed,
		FallbackReads:       metrics.FallbackReads,
		PersistFailures:     metrics.PersistFailures,
		EventCount:          metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or
// "24h" into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
