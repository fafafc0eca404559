package gate

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/abhisek/readgate/internal/gate"

// Metrics records workflow outcomes and stage latencies. A nil *Metrics
// records nothing.
type Metrics struct {
	outcomes metric.Int64Counter
	stage    metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

// NewMetrics creates instruments on mp, or on the global provider when mp
// is nil.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	outcomes, err := meter.Int64Counter("readgate.gate.outcomes",
		metric.WithDescription("Gate workflows by terminal outcome"),
		metric.WithUnit("{workflow}"))
	if err != nil {
		return nil, err
	}
	stage, err := meter.Float64Histogram("readgate.gate.stage.duration",
		metric.WithDescription("Time spent in each workflow state"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300))
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64UpDownCounter("readgate.gate.active",
		metric.WithDescription("Workflows currently running"),
		metric.WithUnit("{workflow}"))
	if err != nil {
		return nil, err
	}
	return &Metrics{outcomes: outcomes, stage: stage, active: active}, nil
}

func (m *Metrics) recordOutcome(ctx context.Context, intent string, v Verdict) {
	if m == nil {
		return
	}
	m.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", string(v.Outcome)),
		attribute.String("reason", v.Reason),
		attribute.String("intent", intent),
	))
}

func (m *Metrics) recordStage(ctx context.Context, s State, d time.Duration) {
	if m == nil {
		return
	}
	m.stage.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("state", s.String())))
}

func (m *Metrics) addActive(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.active.Add(ctx, n)
}
