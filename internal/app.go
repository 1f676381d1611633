// Package internal provides the App struct that wires all components of the
// courtwatch daemon together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dbin-w/courtwatch/internal/cli"
	"github.com/dbin-w/courtwatch/internal/core"
	"github.com/dbin-w/courtwatch/internal/integration"
	"github.com/dbin-w/courtwatch/internal/observability"
	"github.com/dbin-w/courtwatch/internal/storage"
	"github.com/dbin-w/courtwatch/pkg/models"
)

// App holds all service dependencies for the courtwatch daemon.
type App struct {
	BasePath string
	Config   *models.Config

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	State storage.StateTracker
	Cache storage.ReportCache

	// Integration services
	Reader    integration.RecordReader
	WatchSrc  integration.WatchSource
	Deliverer integration.Deliverer
	Analyzer  integration.Analyzer

	// Core pipeline
	Handler *core.WatchHandler

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components. basePath is the root directory
// where configuration and state live (typically ~/.courtwatch).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = cfg

	// --- Storage layer ---
	app.State = storage.NewStateTracker(cfg.StateFile)
	_ = app.State.Load() // Non-fatal: empty set on first use or corrupt file.
	app.Cache = storage.NewReportCache(cfg.ReportCachePath)

	// --- Integration services ---
	app.Reader = integration.NewRecordReader(cfg.DumpCommand)
	app.WatchSrc = integration.NewWatchSource(cfg.WatchDir)
	app.Deliverer = integration.NewDeliverer(cfg.Delivery)

	profile, profileErr := models.LoadPlayerProfile(cfg.Analyzer.ProfilePath)
	if profileErr != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using default profile)\n", profileErr)
	}
	app.Analyzer = integration.NewAnalyzer(cfg.Analyzer, profile)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".courtwatch_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if the log can't be created.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		thresholds := observability.DefaultAlertThresholds()
		if cfg.Notifications.Alerts.MaxDeliveryFailures > 0 {
			thresholds.MaxDeliveryFailures = cfg.Notifications.Alerts.MaxDeliveryFailures
		}
		if cfg.Notifications.Alerts.StaleDays > 0 {
			thresholds.StaleDays = cfg.Notifications.Alerts.StaleDays
		}
		if cfg.Notifications.Alerts.MaxPersistFailures > 0 {
			thresholds.MaxPersistFailures = cfg.Notifications.Alerts.MaxPersistFailures
		}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, thresholds)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL)
	}

	// --- Core pipeline ---
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}
	app.Handler = core.NewWatchHandler(
		cfg.FileExtension,
		time.Duration(cfg.DebounceSeconds)*time.Second,
		core.WatchHandlerDeps{
			Reader:    app.Reader,
			State:     app.State,
			Cache:     app.Cache,
			Analyzer:  app.Analyzer,
			Deliverer: &delivererAdapter{d: app.Deliverer},
			Events:    evtAdapter,
		},
	)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.State = app.State
	cli.Cache = app.Cache
	cli.Reader = app.Reader
	cli.Analyzer = app.Analyzer
	cli.Handler = app.Handler
	cli.WatchSrc = app.WatchSrc
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log handle.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for courtwatch data. It checks
// the COURTWATCH_HOME env var, then falls back to ~/.courtwatch, then the
// current directory.
func ResolveBasePath() string {
	if home := os.Getenv("COURTWATCH_HOME"); home != "" {
		return home
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".courtwatch")
	}
	cwd, _ := os.Getwd()
	return cwd
}

// --- Adapters ---

// delivererAdapter adapts integration.Deliverer to core.Deliverer.
type delivererAdapter struct {
	d integration.Deliverer
}

func (a *delivererAdapter) Deliver(ctx context.Context, message string) (bool, error) {
	result, err := a.d.Deliver(ctx, message)
	if err != nil {
		return false, err
	}
	if !result.Delivered && result.Stderr != "" {
		fmt.Fprintf(os.Stderr, "messaging CLI 错误: %s\n", result.Stderr)
	}
	return result.Delivered, nil
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
// Write failures are dropped so observability can never break the loop.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(level, eventType, message string, data map[string]any) {
	_ = a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   level,
		Type:    eventType,
		Message: message,
		Data:    data,
	})
}
