package observability

import (
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// NewNoopTracer creates a tracer that does nothing.
func NewNoopTracer() *Tracer {
	return &Tracer{
		tracer:      tracenoop.NewTracerProvider().Tracer(""),
		serviceName: "",
	}
}

// NewNoopMetrics creates metrics that do nothing.
func NewNoopMetrics() *Metrics {
	meter := noop.NewMeterProvider().Meter("")
	m := &Metrics{}

	// The noop meter never returns errors.
	m.parseDuration, _ = meter.Float64Histogram("odata.parse.duration")         //nolint:errcheck
	m.parseErrors, _ = meter.Int64Counter("odata.parse.errors")                 //nolint:errcheck
	m.translateCount, _ = meter.Int64Counter("odata.translate.count")           //nolint:errcheck
	m.translateDuration, _ = meter.Float64Histogram("odata.translate.duration") //nolint:errcheck
	m.filterNodes, _ = meter.Int64Histogram("odata.filter.nodes")               //nolint:errcheck
	m.dbQueryDuration, _ = meter.Float64Histogram("odata.db.query.duration")   //nolint:errcheck

	return m
}
