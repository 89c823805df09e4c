package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/opd-ai/go-flightsim/pkg/physics"
)

const instrumentationName = "github.com/opd-ai/go-flightsim/pkg/engine"

// simMetrics records to the global meter provider, which is a no-op until
// the host installs one.
type simMetrics struct {
	ticks        metric.Int64Counter
	crashes      metric.Int64Counter
	resets       metric.Int64Counter
	tickDuration metric.Float64Histogram
}

func newSimMetrics() (*simMetrics, error) {
	m := otel.Meter(instrumentationName)
	sm := &simMetrics{}

	var err error
	sm.ticks, err = m.Int64Counter(
		"flightsim.ticks",
		metric.WithDescription("Total simulation ticks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	sm.crashes, err = m.Int64Counter(
		"flightsim.crashes",
		metric.WithDescription("Total crashes by collision cause"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating crash counter: %w", err)
	}

	sm.resets, err = m.Int64Counter(
		"flightsim.resets",
		metric.WithDescription("Total resets after a crash"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reset counter: %w", err)
	}

	sm.tickDuration, err = m.Float64Histogram(
		"flightsim.tick.duration",
		metric.WithDescription("Wall time spent in one tick"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}
	return sm, nil
}

func (m *simMetrics) ticked(ctx context.Context, d time.Duration) {
	m.ticks.Add(ctx, 1)
	m.tickDuration.Record(ctx, d.Seconds())
}

func (m *simMetrics) crashed(ctx context.Context, c physics.Collision) {
	attrs := []attribute.KeyValue{attribute.String("cause", c.Kind.String())}
	if c.Zone != "" {
		attrs = append(attrs, attribute.String("zone", c.Zone))
	}
	m.crashes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *simMetrics) reset(ctx context.Context) {
	m.resets.Add(ctx, 1)
}
