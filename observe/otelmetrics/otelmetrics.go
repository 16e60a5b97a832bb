// Package otelmetrics records lazy cell lifecycle events as OpenTelemetry
// metrics.
package otelmetrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	lazy "github.com/probablyarth/lazy-go"
)

const instrumentationName = "github.com/probablyarth/lazy-go"

const (
	// EventsMetric counts every event, by event, mode and cell group. Cells
	// of a lazy.Map share their Map's name, so per-key cells do not add
	// series.
	EventsMetric = "lazy_cell_events"
	// InitDurationMetric records factory run time in seconds for created,
	// faulted and discarded results.
	InitDurationMetric = "lazy_cell_init_duration"
)

// Observer turns events into metric recordings.
type Observer struct {
	events       metric.Int64Counter
	initDuration metric.Float64Histogram
}

var _ lazy.Observer = (*Observer)(nil)

// New creates the instruments on a meter from meterProvider.
func New(meterProvider metric.MeterProvider) (*Observer, error) {
	meter := meterProvider.Meter(instrumentationName)

	events, err := meter.Int64Counter(
		EventsMetric,
		metric.WithDescription("Number of lazy cell lifecycle events"))
	if err != nil {
		return nil, fmt.Errorf("failed to create events counter: %w", err)
	}
	initDuration, err := meter.Float64Histogram(
		InitDurationMetric,
		metric.WithDescription("Duration of lazy cell factory runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create init duration histogram: %w", err)
	}

	return &Observer{events: events, initDuration: initDuration}, nil
}

func (o *Observer) On(eventData lazy.EventData) {
	// Events carry no context; recordings are not tied to a span.
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("event", eventData.Event.String()),
		attribute.String("mode", eventData.Mode.String()),
		attribute.String("cell", eventData.Group),
	)
	o.events.Add(ctx, 1, attrs)

	switch eventData.Event {
	case lazy.EventCreated, lazy.EventFaulted, lazy.EventDiscarded:
		o.initDuration.Record(ctx, eventData.Duration.Seconds(), attrs)
	}
}
