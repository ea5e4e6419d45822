package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/hohotang/shortlink-service"

// Recorder turns named service events into OpenTelemetry counters.
// Every event gets its own Int64Counter named "shortlink.<event>".
type Recorder struct {
	counters map[string]metric.Int64Counter
}

// NewRecorder creates one counter per event on meter
func NewRecorder(meter metric.Meter, events ...string) (*Recorder, error) {
	r := &Recorder{counters: make(map[string]metric.Int64Counter, len(events))}
	for _, event := range events {
		counter, err := meter.Int64Counter("shortlink."+event,
			metric.WithDescription(fmt.Sprintf("Number of %s events", event)),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create counter for %s: %w", event, err)
		}
		r.counters[event] = counter
	}

	return r, nil
}

// Meter returns the named meter from a provider
func Meter(provider metric.MeterProvider) metric.Meter {
	return provider.Meter(meterName)
}

// Record adds one to the counter of event. Unknown events are ignored.
func (r *Recorder) Record(ctx context.Context, event string) {
	if counter, ok := r.counters[event]; ok {
		counter.Add(ctx, 1)
	}
}
