package cli

import (
	"github.com/dbin-w/courtwatch/internal/core"
	"github.com/dbin-w/courtwatch/internal/integration"
	"github.com/dbin-w/courtwatch/internal/observability"
	"github.com/dbin-w/courtwatch/internal/storage"
	"github.com/dbin-w/courtwatch/pkg/models"
)

// Service instances, set during app initialization in internal/app.go.
var (
	BasePath string
	Config   *models.Config

	State    storage.StateTracker
	Cache    storage.ReportCache
	Reader   integration.RecordReader
	Analyzer integration.Analyzer
	Handler  *core.WatchHandler
	WatchSrc integration.WatchSource

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
