package observability

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nlstn/go-odata-query/internal/query"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with query-specific span creation methods.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
	maxAttrLen  int
}

// NewTracer creates a new Tracer using the given TracerProvider.
func NewTracer(tp trace.TracerProvider, serviceName string) *Tracer {
	return &Tracer{
		tracer:      tp.Tracer(TracerName),
		serviceName: serviceName,
	}
}

// StartSpan starts a new span with the given name and attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}

// StartParse starts a span covering the parsing of a raw query.
func (t *Tracer) StartParse(ctx context.Context, op string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "odata.parse", trace.WithAttributes(OperationAttr(op)))
}

// StartTranslate starts a span for translating a filter tree for a backend.
func (t *Tracer) StartTranslate(ctx context.Context, backend string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "odata.translate", trace.WithAttributes(
		OperationAttr(OpTranslate),
		BackendAttr(backend),
	))
}

// RecordError records an error on the span. Query errors also carry their kind
// and option.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	var qerr *query.Error
	if errors.As(err, &qerr) {
		span.SetAttributes(ErrorKindAttr(qerr.Kind.String()))
		if qerr.Option != "" {
			span.SetAttributes(attribute.String(AttrErrorOption, qerr.Option))
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddFilter adds the shape of a filter tree to a span.
func (t *Tracer) AddFilter(span trace.Span, node query.Node) {
	if node == nil {
		return
	}
	span.SetAttributes(
		attribute.String(AttrFilterHash, strconv.FormatUint(query.Hash(node), 16)),
		attribute.Int(AttrFilterNodes, query.CountNodes(node)),
	)
}

// AddQueryOptions adds query option attributes to a span.
// truncate cuts s to at most n bytes on a rune boundary. n <= 0 keeps s.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func (t *Tracer) AddQueryOptions(span trace.Span, opts *query.QueryOptions) {
	if opts == nil {
		return
	}
	var attrs []attribute.KeyValue
	if opts.Filter != nil {
		attrs = append(attrs, QueryFilterAttr(truncate(query.Print(opts.Filter), t.maxAttrLen)))
	}
	if len(opts.Expand) > 0 {
		attrs = append(attrs, QueryExpandAttr(joinPaths(opts.Expand)))
	}
	if len(opts.Select) > 0 {
		attrs = append(attrs, QuerySelectAttr(joinPaths(opts.Select)))
	}
	if len(opts.OrderBy) > 0 {
		items := make([]string, len(opts.OrderBy))
		for i, item := range opts.OrderBy {
			items[i] = item.String()
		}
		attrs = append(attrs, QueryOrderByAttr(strings.Join(items, ",")))
	}
	if opts.Search != nil {
		attrs = append(attrs, QuerySearchAttr(truncate(*opts.Search, t.maxAttrLen)))
	}
	if opts.Top != nil {
		attrs = append(attrs, QueryTopAttr(*opts.Top))
	}
	if opts.Skip != nil {
		attrs = append(attrs, QuerySkipAttr(*opts.Skip))
	}
	if opts.Count {
		attrs = append(attrs, attribute.Bool(AttrQueryCount, true))
	}
	if opts.Format != "" {
		attrs = append(attrs, attribute.String(AttrQueryFormat, string(opts.Format)))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

func joinPaths(paths []query.Path) string {
	items := make([]string, len(paths))
	for i, p := range paths {
		items[i] = p.String()
	}
	return strings.Join(items, ",")
}

// LoggerWithTrace returns a logger enriched with trace context.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}
	return logger.With(
		slog.String(LogFieldTraceID, span.SpanContext().TraceID().String()),
		slog.String(LogFieldSpanID, span.SpanContext().SpanID().String()),
	)
}
