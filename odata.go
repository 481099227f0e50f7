// Package odata parses OData V4 query options into a backend-agnostic record and
// translates $filter expressions into relational (gorm) or document (MongoDB)
// predicates.
//
// A Parser carries the ambient configuration: logger, observability and the
// accepted $format values. Parsing and translation themselves are pure and the
// Parser is safe for concurrent use.
package odata

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/nlstn/go-odata-query/internal/backend"
	"github.com/nlstn/go-odata-query/internal/observability"
	"github.com/nlstn/go-odata-query/internal/query"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// ObservabilityConfig configures tracing, metrics and Server-Timing for a Parser.
// Providers left nil disable the corresponding signal.
type ObservabilityConfig struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	ServiceName    string
	ServiceVersion string

	// EnableQueryOptionTracing adds the parsed options as span attributes.
	EnableQueryOptionTracing bool

	// EnableDetailedDBTracing traces statements run through databases passed to
	// Parser.InstrumentDB.
	EnableDetailedDBTracing bool

	// EnableServerTiming adds parse, translate and db metrics to the
	// Server-Timing response header of requests going through Middleware.
	EnableServerTiming bool

	// MaxAttributeLength truncates $filter and $search span attributes. Zero
	// keeps the default of 512 bytes; a negative value disables truncation.
	MaxAttributeLength int

	// DurationBuckets sets the parse and translate histogram boundaries in
	// milliseconds.
	DurationBuckets []float64
}

func (c ObservabilityConfig) build() *observability.Config {
	var opts []observability.Option
	if c.TracerProvider != nil {
		opts = append(opts, observability.WithTracerProvider(c.TracerProvider))
	}
	if c.MeterProvider != nil {
		opts = append(opts, observability.WithMeterProvider(c.MeterProvider))
	}
	if c.ServiceName != "" {
		opts = append(opts, observability.WithServiceName(c.ServiceName))
	}
	if c.ServiceVersion != "" {
		opts = append(opts, observability.WithServiceVersion(c.ServiceVersion))
	}
	if c.EnableQueryOptionTracing {
		opts = append(opts, observability.WithQueryOptionTracing())
	}
	if c.EnableDetailedDBTracing {
		opts = append(opts, observability.WithDetailedDBTracing())
	}
	if c.EnableServerTiming {
		opts = append(opts, observability.WithServerTiming())
	}
	switch {
	case c.MaxAttributeLength < 0:
		opts = append(opts, observability.WithMaxAttributeLength(0))
	case c.MaxAttributeLength > 0:
		opts = append(opts, observability.WithMaxAttributeLength(c.MaxAttributeLength))
	}
	if len(c.DurationBuckets) > 0 {
		opts = append(opts, observability.WithDurationBuckets(c.DurationBuckets...))
	}
	return observability.NewConfig(opts...)
}

// Parser parses query options and translates filters.
type Parser struct {
	logger       *slog.Logger
	obs          *observability.Config
	formats      []Format
	options      []string
	filterParser FilterParser
}

// FilterParser parses a $filter value into a tree.
type FilterParser = query.FilterParser

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for debug output. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObservability enables OpenTelemetry tracing and metrics.
func WithObservability(cfg ObservabilityConfig) Option {
	return func(p *Parser) {
		p.obs = cfg.build()
	}
}

// WithSupportedFormats restricts the accepted $format values.
func WithSupportedFormats(formats ...Format) Option {
	return func(p *Parser) {
		p.formats = append([]Format(nil), formats...)
	}
}

// WithSupportedOptions restricts the accepted system query options. A request
// carrying any other system option fails with ErrUnsupportedOption.
func WithSupportedOptions(options ...string) Option {
	return func(p *Parser) {
		p.options = append([]string{}, options...)
	}
}

// WithFilterParser replaces the built-in $filter grammar, for both ParseFilter
// and option assembly.
func WithFilterParser(parse FilterParser) Option {
	return func(p *Parser) {
		p.filterParser = parse
	}
}

// NewParser returns a Parser with the given options applied.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger: slog.Default(),
		obs:    observability.NewConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.obs.Initialize(); err != nil {
		p.logger.Warn("observability initialization failed", "error", err)
	}
	return p
}

// InstrumentDB registers statement tracing, metrics and Server-Timing callbacks on
// db according to the observability configuration. Without observability it does
// nothing.
func (p *Parser) InstrumentDB(db *gorm.DB) error {
	return observability.RegisterGORMCallbacks(db, p.obs)
}

func (p *Parser) assembleOptions() []query.AssembleOption {
	var opts []query.AssembleOption
	if p.formats != nil {
		opts = append(opts, query.WithSupportedFormats(p.formats...))
	}
	if p.options != nil {
		opts = append(opts, query.WithSupportedOptions(p.options...))
	}
	if p.filterParser != nil {
		opts = append(opts, query.WithFilterParser(p.filterParser))
	}
	return opts
}

func (p *Parser) parseFilter(filter string) (Node, error) {
	if p.filterParser == nil {
		return query.ParseFilter(filter)
	}
	node, err := p.filterParser(filter)
	if err == nil && node == nil {
		err = query.NewError(query.ErrUnexpectedNullFilters)
	}
	return node, err
}

// ParseFilter parses a $filter expression.
func (p *Parser) ParseFilter(ctx context.Context, filter string) (Node, error) {
	ctx, span := p.obs.Tracer().StartParse(ctx, observability.OpParse)
	defer span.End()
	timing := observability.StartServerTiming(ctx, "parse")
	defer timing.Stop()

	start := time.Now()
	node, err := p.parseFilter(filter)
	p.obs.Metrics().RecordParse(ctx, observability.OpParse, time.Since(start), err)
	if err != nil {
		p.obs.Tracer().RecordError(span, err)
		p.logFailure(ctx, "filter rejected", err)
		return nil, err
	}

	p.obs.Tracer().AddFilter(span, node)
	p.obs.Metrics().RecordFilter(ctx, query.CountNodes(node))
	p.logFilter(ctx, node)
	return node, nil
}

// Assemble parses a map of raw option values keyed by option name ("$filter",
// "$top", ...). Unknown keys are ignored.
func (p *Parser) Assemble(ctx context.Context, options map[string]string) (*QueryOptions, error) {
	return p.parse(ctx, func() (*QueryOptions, error) {
		return query.Assemble(options, p.assembleOptions()...)
	})
}

// Parse parses the query options of a URL query. Repeated options use the first value.
func (p *Parser) Parse(ctx context.Context, values url.Values) (*QueryOptions, error) {
	return p.parse(ctx, func() (*QueryOptions, error) {
		return query.ParseValues(values, p.assembleOptions()...)
	})
}

// ParseQueryString parses a raw query string such as "$filter=a%20eq%201&$top=5".
func (p *Parser) ParseQueryString(ctx context.Context, raw string) (*QueryOptions, error) {
	return p.parse(ctx, func() (*QueryOptions, error) {
		return query.ParseQueryString(raw, p.assembleOptions()...)
	})
}

// ParseURL parses the query options of a full or relative URL.
func (p *Parser) ParseURL(ctx context.Context, rawURL string) (*QueryOptions, error) {
	return p.parse(ctx, func() (*QueryOptions, error) {
		return query.ParseURL(rawURL, p.assembleOptions()...)
	})
}

func (p *Parser) parse(ctx context.Context, run func() (*QueryOptions, error)) (*QueryOptions, error) {
	ctx, span := p.obs.Tracer().StartParse(ctx, observability.OpAssemble)
	defer span.End()
	timing := observability.StartServerTiming(ctx, "parse")
	defer timing.Stop()

	start := time.Now()
	opts, err := run()
	p.obs.Metrics().RecordParse(ctx, observability.OpAssemble, time.Since(start), err)
	if err != nil {
		p.obs.Tracer().RecordError(span, err)
		p.logFailure(ctx, "query options rejected", err)
		return nil, err
	}

	if p.obs.EnableQueryOptionTracing {
		p.obs.Tracer().AddQueryOptions(span, opts)
	}
	if opts.Filter != nil {
		p.obs.Tracer().AddFilter(span, opts.Filter)
		p.obs.Metrics().RecordFilter(ctx, query.CountNodes(opts.Filter))
		p.logFilter(ctx, opts.Filter)
	}
	return opts, nil
}

// Translate compiles node with t, recording a translate span and metrics.
func Translate[T any](ctx context.Context, p *Parser, t Translator[T], node Node) (T, error) {
	variant := t.Variant().String()
	ctx, span := p.obs.Tracer().StartTranslate(ctx, variant)
	defer span.End()
	timing := observability.StartServerTimingWithDesc(ctx, "translate", variant)
	defer timing.Stop()

	start := time.Now()
	result, err := t.Translate(node)
	p.obs.Metrics().RecordTranslate(ctx, variant, time.Since(start), err)
	if err != nil {
		p.obs.Tracer().RecordError(span, err)
		p.logFailure(ctx, "filter translation failed", err)
		return result, err
	}
	p.obs.Tracer().AddFilter(span, node)
	return result, nil
}

// CacheKey returns a key that is equal for structurally equal filters compiled
// for the same variant. Callers can use it to memoize translations.
func CacheKey(v Variant, node Node) uint64 {
	return backend.CacheKey(v, node)
}

func (p *Parser) logFilter(ctx context.Context, node Node) {
	observability.LoggerWithTrace(ctx, p.logger).DebugContext(ctx, "filter parsed",
		"hash", query.Hash(node),
		"nodes", query.CountNodes(node))
}

func (p *Parser) logFailure(ctx context.Context, msg string, err error) {
	logger := observability.LoggerWithTrace(ctx, p.logger)
	qerr, ok := AsError(err)
	if !ok {
		logger.DebugContext(ctx, msg, "error", err)
		return
	}
	attrs := []any{"kind", qerr.Kind.String()}
	if qerr.Option != "" {
		attrs = append(attrs, "option", qerr.Option)
	}
	if qerr.Pos >= 0 {
		attrs = append(attrs, "pos", qerr.Pos)
	}
	if qerr.Backend != "" {
		attrs = append(attrs, "backend", qerr.Backend)
	}
	logger.DebugContext(ctx, msg, append(attrs, "error", err)...)
}
