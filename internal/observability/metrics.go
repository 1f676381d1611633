package observability

import (
	"fmt"
	"time"
)

// Metrics holds pipeline counters derived from the event log.
type Metrics struct {
	WorkoutsDetected    int        `json:"workouts_detected"`
	ReportsGenerated    int        `json:"reports_generated"`
	DeliveriesSucceeded int        `json:"deliveries_succeeded"`
	DeliveriesFailed    int        `json:"deliveries_failed"`
	FallbackReads       int        `json:"fallback_reads"`
	PersistFailures     int        `json:"persist_failures"`
	EventCount          int        `json:"event_count"`
	OldestEvent         *time.Time `json:"oldest_event,omitempty"`
	NewestEvent         *time.Time `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{EventCount: len(events)}

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case EventWorkoutDetected:
			m.WorkoutsDetected++
		case EventWorkoutAnalyzed:
			m.ReportsGenerated++
		case EventDeliverySucceeded:
			m.DeliveriesSucceeded++
		case EventDeliveryFailed:
			m.DeliveriesFailed++
		case EventReaderFallback:
			m.FallbackReads++
		case EventStatePersistError:
			m.PersistFailures++
		}
	}

	return m, nil
}
