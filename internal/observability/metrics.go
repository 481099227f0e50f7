package observability

import (
	"context"
	"errors"
	"time"

	"github.com/nlstn/go-odata-query/internal/query"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the parser and translator metric instruments.
type Metrics struct {
	parseDuration     metric.Float64Histogram
	parseErrors       metric.Int64Counter
	translateCount    metric.Int64Counter
	translateDuration metric.Float64Histogram
	filterNodes       metric.Int64Histogram
	dbQueryDuration   metric.Float64Histogram
}

// NewMetrics creates the instruments on mp. buckets, when given, are the
// boundaries of the parse and translate duration histograms.
func NewMetrics(mp metric.MeterProvider, buckets ...float64) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}
	var durationOpts []metric.Float64HistogramOption
	if len(buckets) > 0 {
		durationOpts = append(durationOpts, metric.WithExplicitBucketBoundaries(buckets...))
	}

	// Instrument creation only fails on invalid parameters; fall back to a bare
	// instrument so recording never hits a nil.
	var err error

	m.parseDuration, err = meter.Float64Histogram(
		"odata.parse.duration",
		append(durationOpts,
			metric.WithDescription("Duration of query parsing in milliseconds"),
			metric.WithUnit("ms"),
		)...,
	)
	if err != nil {
		m.parseDuration, _ = meter.Float64Histogram("odata.parse.duration")
	}

	m.parseErrors, err = meter.Int64Counter(
		"odata.parse.errors",
		metric.WithDescription("Total number of rejected queries by error kind"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.parseErrors, _ = meter.Int64Counter("odata.parse.errors")
	}

	m.translateCount, err = meter.Int64Counter(
		"odata.translate.count",
		metric.WithDescription("Total number of filter translations"),
		metric.WithUnit("{translation}"),
	)
	if err != nil {
		m.translateCount, _ = meter.Int64Counter("odata.translate.count")
	}

	m.translateDuration, err = meter.Float64Histogram(
		"odata.translate.duration",
		append(durationOpts,
			metric.WithDescription("Duration of filter translation in milliseconds"),
			metric.WithUnit("ms"),
		)...,
	)
	if err != nil {
		m.translateDuration, _ = meter.Float64Histogram("odata.translate.duration")
	}

	m.filterNodes, err = meter.Int64Histogram(
		"odata.filter.nodes",
		metric.WithDescription("Number of nodes in parsed filter trees"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		m.filterNodes, _ = meter.Int64Histogram("odata.filter.nodes")
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		"odata.db.query.duration",
		metric.WithDescription("Duration of database queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.dbQueryDuration, _ = meter.Float64Histogram("odata.db.query.duration")
	}

	return m
}

// RecordParse records a completed parse. A failure is counted by error kind.
func (m *Metrics) RecordParse(ctx context.Context, op string, duration time.Duration, err error) {
	m.parseDuration.Record(ctx, durationMillis(duration), metric.WithAttributes(OperationAttr(op)))
	if err != nil {
		m.parseErrors.Add(ctx, 1, metric.WithAttributes(OperationAttr(op), ErrorKindAttr(kindName(err))))
	}
}

// RecordFilter records the size of a parsed filter tree.
func (m *Metrics) RecordFilter(ctx context.Context, nodes int) {
	m.filterNodes.Record(ctx, int64(nodes))
}

// RecordTranslate records a translation attempt for a backend.
func (m *Metrics) RecordTranslate(ctx context.Context, backend string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{BackendAttr(backend), attribute.Bool("success", err == nil)}
	if err != nil {
		attrs = append(attrs, ErrorKindAttr(kindName(err)))
	}
	m.translateCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.translateDuration.Record(ctx, durationMillis(duration), metric.WithAttributes(BackendAttr(backend)))
}

// RecordDBQuery records metrics for a database query.
func (m *Metrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	m.dbQueryDuration.Record(ctx, durationMillis(duration), attrs)
}

func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func kindName(err error) string {
	var qerr *query.Error
	if errors.As(err, &qerr) {
		return qerr.Kind.String()
	}
	return "other"
}
