package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "ruleengine"

// Metrics is an Observer backed by OpenTelemetry instruments:
// ruleengine.op.count, ruleengine.op.latency_ms and ruleengine.op.errors.
type Metrics struct {
	count   metric.Int64Counter
	latency metric.Float64Histogram
	errors  metric.Int64Counter
}

// NewMetrics registers the instruments on provider, or on the global meter
// provider when provider is nil.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(instrumentationName)

	count, err := meter.Int64Counter("ruleengine.op.count",
		metric.WithDescription("Number of rule engine operations"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("ruleengine.op.latency_ms",
		metric.WithDescription("Rule engine operation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("ruleengine.op.errors",
		metric.WithDescription("Number of failed rule engine operations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{count: count, latency: latency, errors: errs}, nil
}

func (m *Metrics) ObserveOperation(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("op", op))

	m.count.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(duration.Microseconds())/1000.0, attrs)
	if err != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("code", errorCode(err)),
		))
	}
}
