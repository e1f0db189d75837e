package observability

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"sftledger/core/events"
	"sftledger/core/types"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured ledger and royalty
// events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "sft",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of emitted events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// RecordEvent increments the emitted counter for the supplied event type.
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.emitted.WithLabelValues(eventType).Inc()
}

// attributed is satisfied by event payloads that expose a flattened attribute
// view for off-process observers.
type attributed interface {
	Event() *types.Event
}

// LogEmitter forwards events to the structured logger and the event metrics.
// It is the emitter the daemon wires into the ledger, registry and minter.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates an emitter logging through the supplied logger. A nil
// logger falls back to the process default.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit implements the events.Emitter interface.
func (e *LogEmitter) Emit(event events.Event) {
	if e == nil || event == nil {
		return
	}
	Events().RecordEvent(event.EventType())
	attrs := []any{slog.String("type", event.EventType())}
	if withAttrs, ok := event.(attributed); ok {
		if evt := withAttrs.Event(); evt != nil {
			for key, value := range evt.Attributes {
				attrs = append(attrs, slog.String(key, value))
			}
		}
	}
	e.logger.Info("event", attrs...)
}
