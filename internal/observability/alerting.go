package observability

import (
	"fmt"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	// MaxDeliveryFailures is the number of consecutive failed deliveries
	// (without an intervening success) that triggers a high-severity alert.
	MaxDeliveryFailures int
	// StaleDays triggers when no workout has been detected for this many
	// days, which usually means the export pipeline upstream has stopped.
	StaleDays int
	// MaxPersistFailures triggers when the state file could not be written
	// this many times in the window, risking duplicate deliveries.
	MaxPersistFailures int
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MaxDeliveryFailures: 3,
		StaleDays:           7,
		MaxPersistFailures:  1,
	}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine with the given EventLog and thresholds.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Evaluate reads events and checks all alert conditions.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now().UTC()
	var alerts []Alert

	failureAlerts, err := ae.checkDeliveryFailures(now)
	if err != nil {
		return nil, fmt.Errorf("checking delivery failures: %w", err)
	}
	alerts = append(alerts, failureAlerts...)

	staleAlerts, err := ae.checkStaleData(now)
	if err != nil {
		return nil, fmt.Errorf("checking stale data: %w", err)
	}
	alerts = append(alerts, staleAlerts...)

	persistAlerts, err := ae.checkPersistFailures(now)
	if err != nil {
		return nil, fmt.Errorf("checking persist failures: %w", err)
	}
	alerts = append(alerts, persistAlerts...)

	return alerts, nil
}

// checkDeliveryFailures counts failed deliveries since the last success.
func (ae *alertEngine) checkDeliveryFailures(now time.Time) ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{})
	if err != nil {
		return nil, err
	}

	streak := 0
	for _, event := range events {
		switch event.Type {
		case EventDeliveryFailed:
			streak++
		case EventDeliverySucceeded:
			streak = 0
		}
	}

	if ae.thresholds.MaxDeliveryFailures <= 0 || streak < ae.thresholds.MaxDeliveryFailures {
		return nil, nil
	}
	return []Alert{{
		ID:          "delivery-failure-streak",
		Condition:   "consecutive_delivery_failures",
		Severity:    SeverityHigh,
		Message:     fmt.Sprintf("%d consecutive delivery failures; check the messaging CLI", streak),
		TriggeredAt: now,
	}}, nil
}

// checkStaleData alerts when no workout has been detected recently.
func (ae *alertEngine) checkStaleData(now time.Time) ([]Alert, error) {
	if ae.thresholds.StaleDays <= 0 {
		return nil, nil
	}
	events, err := ae.eventLog.Read(EventFilter{Type: EventWorkoutDetected})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		// Nothing ever detected; not an alert on a fresh install.
		return nil, nil
	}

	last := events[len(events)-1].Time
	staleAfter := time.Duration(ae.thresholds.StaleDays) * 24 * time.Hour
	if now.Sub(last) < staleAfter {
		return nil, nil
	}
	return []Alert{{
		ID:          "stale-export-data",
		Condition:   "no_workouts_detected",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("no tennis workouts detected since %s; the export pipeline may have stopped", last.Format("2006-01-02")),
		TriggeredAt: now,
	}}, nil
}

// checkPersistFailures alerts when state writes are failing, since that risks
// re-delivering already-pushed reports after a restart.
func (ae *alertEngine) checkPersistFailures(now time.Time) ([]Alert, error) {
	if ae.thresholds.MaxPersistFailures <= 0 {
		return nil, nil
	}
	since := now.AddDate(0, 0, -1)
	events, err := ae.eventLog.Read(EventFilter{Type: EventStatePersistError, Since: &since})
	if err != nil {
		return nil, err
	}
	if len(events) < ae.thresholds.MaxPersistFailures {
		return nil, nil
	}
	return []Alert{{
		ID:          "state-persist-failures",
		Condition:   "state_persist_failed",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("%d state persist failures in the last 24h; duplicate deliveries possible after restart", len(events)),
		TriggeredAt: now,
	}}, nil
}
